package loader

import (
	"github.com/rohankatakam/actorgraph/internal/batch"
)

// Plan names the files to load per kind
type Plan struct {
	InitSchema bool
	Files      map[batch.Kind][]string
}

// PlanFromDir finds the batch files for kinds in dir, preferring chunk
// files over the unsplit file. All kinds are planned when kinds is empty.
// Kinds without files are left out.
func PlanFromDir(dir string, kinds ...batch.Kind) (Plan, error) {
	if len(kinds) == 0 {
		kinds = batch.AllKinds
	}
	plan := Plan{Files: make(map[batch.Kind][]string)}
	for _, kind := range kinds {
		files, err := batch.ChunkFiles(dir, kind)
		if err != nil {
			return plan, err
		}
		if len(files) > 0 {
			plan.Files[kind] = files
		}
	}
	return plan, nil
}

// Kinds lists the planned kinds in load order
func (p Plan) Kinds() []string {
	var out []string
	for _, st := range Stages {
		for _, k := range st.Kinds {
			if len(p.Files[k]) > 0 {
				out = append(out, string(k))
			}
		}
	}
	return out
}

// FileCount is the number of planned files
func (p Plan) FileCount() int {
	n := 0
	for _, files := range p.Files {
		n += len(files)
	}
	return n
}
