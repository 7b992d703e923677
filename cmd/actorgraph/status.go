package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/actorgraph/internal/aggregate"
	"github.com/rohankatakam/actorgraph/internal/graph"
	"github.com/rohankatakam/actorgraph/internal/ledger"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the graph connection and show what is loaded",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

type statusReport struct {
	URI      string                 `json:"uri" yaml:"uri"`
	Database string                 `json:"database" yaml:"database"`
	Healthy  bool                   `json:"healthy" yaml:"healthy"`
	Latency  time.Duration          `json:"latency" yaml:"latency"`
	Error    string                 `json:"error,omitempty" yaml:"error,omitempty"`
	Totals   *aggregate.GraphTotals `json:"totals,omitempty" yaml:"totals,omitempty"`
	LastRun  *ledger.Run            `json:"last_run,omitempty" yaml:"last_run,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	report := statusReport{URI: cfg.Neo4j.URI, Database: cfg.Neo4j.Database}

	client, err := openClient(ctx)
	if err == nil {
		defer closeClient(ctx, client)
		var health *graph.PoolHealth
		health, err = client.CheckHealth(ctx)
		report.Latency = health.Latency
		report.Healthy = health.Healthy
		if err == nil && !health.Healthy {
			report.Error = health.Message
		}
	}
	if err != nil {
		report.Error = err.Error()
	} else {
		totals, err := aggregate.NewService(client).GraphTotals(ctx)
		if err != nil {
			logger.WithError(err).Warn("Failed to count graph")
		}
		report.Totals = totals
	}

	if cfg.Ledger.Path != "" {
		if led, err := openLedger(); err != nil {
			logger.WithError(err).Debug("Ledger unavailable")
		} else {
			runs, err := led.Runs()
			led.Close()
			if err == nil && len(runs) > 0 {
				report.LastRun = &runs[0]
			}
		}
	}

	if err := render(report, func(w io.Writer) error {
		writeStatus(w, report)
		return nil
	}); err != nil {
		return err
	}
	if !report.Healthy {
		return fmt.Errorf("neo4j is not healthy: %s", report.Error)
	}
	return nil
}

func writeStatus(w io.Writer, r statusReport) {
	fmt.Fprintf(w, "Neo4j:    %s (database %s)\n", r.URI, r.Database)
	if r.Healthy {
		fmt.Fprintf(w, "Health:   ok (%s)\n", r.Latency.Round(time.Millisecond))
	} else {
		fmt.Fprintf(w, "Health:   %s\n", r.Error)
	}
	if t := r.Totals; t != nil {
		fmt.Fprintf(w, "Graph:    %d actors, %d movies, %d episodes, %d series, %d credits\n",
			t.Actors, t.Movies, t.Episodes, t.Series, t.Credits)
	}
	if r.LastRun != nil {
		fmt.Fprintln(w, "Last load:")
		writeRun(w, *r.LastRun)
	}
}
