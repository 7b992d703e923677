package main

import (
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rohankatakam/actorgraph/internal/ledger"
	"github.com/rohankatakam/actorgraph/internal/loader"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load batch files into the graph",
	Long: `Loads the batch files from the batch directory in dependency order:
productions and actors, then credits, then episode links. Chunk files are
preferred over the unsplit batch file and load in parallel within a stage.

Rows whose endpoints are missing are skipped and counted; a sample of their
keys is kept in the ledger.`,
	Args: cobra.NoArgs,
	RunE: runLoad,
}

var (
	loadInit  bool
	loadKinds []string
	loadDir   string
)

func init() {
	loadCmd.Flags().BoolVar(&loadInit, "init", false, "create constraints and indexes first")
	loadCmd.Flags().StringSliceVar(&loadKinds, "kind", nil, "load only these kinds (repeatable)")
	loadCmd.Flags().StringVar(&loadDir, "dir", "", "batch directory (default: etl.batch_dir)")
}

func runLoad(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	kinds, err := parseKinds(loadKinds)
	if err != nil {
		return err
	}
	dir := loadDir
	if dir == "" {
		dir = cfg.ETL.BatchDir
	}
	plan, err := loader.PlanFromDir(dir, kinds...)
	if err != nil {
		return err
	}
	plan.InitSchema = loadInit
	if plan.FileCount() == 0 && !plan.InitSchema {
		return fmt.Errorf("no batch files found in %s", dir)
	}

	client, err := openClient(ctx)
	if err != nil {
		return err
	}
	defer closeClient(ctx, client)

	ld := loader.New(client, logger, loader.Options{
		Parallelism: cfg.Load.Parallelism,
		WriteRate:   cfg.Load.WriteRate,
		Batches:     client.BatchConfig(),
	})

	var (
		led *ledger.Ledger
		run *ledger.Run
	)
	if cfg.Ledger.Path != "" {
		led, err = ledger.Open(cfg.Ledger.Path, cfg.Ledger.SampleLimit)
		if err != nil {
			return err
		}
		defer led.Close()
		run, err = led.BeginRun(plan.Kinds())
		if err != nil {
			return err
		}
		ld.WithRecorder(led, run.ID)
	}

	logger.WithFields(logrus.Fields{
		"dir":   dir,
		"files": plan.FileCount(),
		"kinds": plan.Kinds(),
		"init":  plan.InitSchema,
	}).Info("Starting load")
	start := time.Now()

	stats, runErr := ld.Run(ctx, plan)
	if led != nil {
		if err := led.FinishRun(run.ID, runErr); err != nil {
			logger.WithError(err).Warn("Failed to finish ledger run")
		}
	}
	if runErr != nil {
		return runErr
	}

	logger.WithField("duration", time.Since(start).String()).Info("Load complete")
	return renderStages(stats, run)
}

func renderStages(stats []loader.StageStats, run *ledger.Run) error {
	out := struct {
		RunID  string              `json:"run_id,omitempty" yaml:"run_id,omitempty"`
		Stages []loader.StageStats `json:"stages" yaml:"stages"`
	}{Stages: stats}
	if run != nil {
		out.RunID = run.ID
	}
	return render(out, func(w io.Writer) error {
		if out.RunID != "" {
			fmt.Fprintf(w, "Run %s\n", out.RunID)
		}
		for _, s := range stats {
			fmt.Fprintf(w, "%-14s files %-4d rows %-10d applied %-10d skipped %-8d invalid %-8d %s\n",
				s.Stage, s.Files, s.Rows, s.Applied, s.Skipped, s.Invalid, s.Duration.Round(time.Millisecond))
		}
		return nil
	})
}
