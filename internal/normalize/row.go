package normalize

import (
	"github.com/rohankatakam/actorgraph/internal/errors"
)

// Required source columns per dataset file
var (
	TitleColumns     = []string{"tconst", "titleType", "primaryTitle", "startYear", "endYear", "genres"}
	EpisodeColumns   = []string{"tconst", "parentTconst", "seasonNumber", "episodeNumber"}
	PersonColumns    = []string{"nconst", "primaryName", "birthYear", "deathYear", "primaryProfession"}
	PrincipalColumns = []string{"tconst", "nconst", "category", "characters"}
)

// Header binds column names to positions
type Header struct {
	cols  []string
	index map[string]int
}

// NewHeader builds a header from the first line of a TSV file
func NewHeader(cols []string) *Header {
	h := &Header{cols: cols, index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if _, dup := h.index[c]; !dup {
			h.index[c] = i
		}
	}
	return h
}

// Columns returns the header's column names in file order
func (h *Header) Columns() []string {
	return h.cols
}

// Require fails when any of names is not a column. A file without its
// required columns cannot be converted at all.
func (h *Header) Require(names ...string) error {
	var missing []string
	for _, n := range names {
		if _, ok := h.index[n]; !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return errors.New(errors.ErrorTypeValidation, errors.SeverityCritical, "missing required columns").
			WithContext("columns", missing)
	}
	return nil
}

// Row is one data line addressed by column name
type Row struct {
	h      *Header
	fields []string
}

// NewRow binds fields to h. Short rows read as empty for the missing columns.
func NewRow(h *Header, fields []string) Row {
	return Row{h: h, fields: fields}
}

// Get returns the named field, or "" when the column or field is absent
func (r Row) Get(name string) string {
	i, ok := r.h.index[name]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return r.fields[i]
}

// Fields returns the raw fields
func (r Row) Fields() []string {
	return r.fields
}
