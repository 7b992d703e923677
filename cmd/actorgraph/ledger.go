package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/actorgraph/internal/ledger"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect recorded load runs",
}

var ledgerLimit int

var ledgerRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List load runs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		led, err := openLedger()
		if err != nil {
			return err
		}
		defer led.Close()

		runs, err := led.Runs()
		if err != nil {
			return err
		}
		if ledgerLimit > 0 && len(runs) > ledgerLimit {
			runs = runs[:ledgerLimit]
		}
		return render(runs, func(w io.Writer) error {
			if len(runs) == 0 {
				_, err := fmt.Fprintln(w, "No runs recorded")
				return err
			}
			for _, r := range runs {
				writeRun(w, r)
			}
			return nil
		})
	},
}

var ledgerSkippedCmd = &cobra.Command{
	Use:   "skipped <run_id> <stage>",
	Short: "List sampled keys of rows a stage skipped",
	Long: `Lists the recorded keys of rows skipped because an endpoint was missing.
Credit keys are name_id->title_id; episode link keys are episode_id->series_id.
Stages are nodes, credits and episode_links.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		led, err := openLedger()
		if err != nil {
			return err
		}
		defer led.Close()

		if _, ok, err := led.GetRun(args[0]); err != nil {
			return err
		} else if !ok {
			return fmt.Errorf("run %s not found", args[0])
		}
		keys, err := led.Skipped(args[0], args[1])
		if err != nil {
			return err
		}
		return render(keys, func(w io.Writer) error {
			for _, k := range keys {
				fmt.Fprintln(w, k)
			}
			return nil
		})
	},
}

func init() {
	ledgerRunsCmd.Flags().IntVar(&ledgerLimit, "limit", 10, "show at most this many runs, 0 for all")
	ledgerCmd.AddCommand(ledgerRunsCmd, ledgerSkippedCmd)
}

func openLedger() (*ledger.Ledger, error) {
	if cfg.Ledger.Path == "" {
		return nil, fmt.Errorf("the ledger is disabled (ledger.path is empty)")
	}
	return ledger.Open(cfg.Ledger.Path, cfg.Ledger.SampleLimit)
}

func writeRun(w io.Writer, r ledger.Run) {
	took := "running"
	if r.FinishedAt != nil {
		took = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
	}
	fmt.Fprintf(w, "%s  %s  %-9s %s  [%s]\n",
		r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Status, took, strings.Join(r.Kinds, ","))
	if r.Error != "" {
		fmt.Fprintf(w, "  error: %s\n", r.Error)
	}
	for _, s := range r.Stages {
		fmt.Fprintf(w, "  %-14s rows %-10d applied %-10d skipped %-8d invalid %d\n",
			s.Stage, s.Rows, s.Applied, s.Skipped, s.Invalid)
	}
}
