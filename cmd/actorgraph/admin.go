package main

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rohankatakam/actorgraph/internal/graph"
)

var initSchemaCmd = &cobra.Command{
	Use:   "init-schema",
	Short: "Create the uniqueness constraints and indexes",
	Long: `Creates the uniqueness constraints and name/title indexes. Running it
against a store that already has them fails with a schema conflict.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := openClient(ctx)
		if err != nil {
			return err
		}
		defer closeClient(ctx, client)

		if err := client.InitSchema(ctx); err != nil {
			return err
		}
		logger.WithFields(logrus.Fields{
			"constraints": len(graph.Constraints),
			"indexes":     len(graph.Indexes),
		}).Info("Schema created")
		return nil
	},
}

var dropSchemaCmd = &cobra.Command{
	Use:   "drop-schema",
	Short: "Drop the constraints and indexes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := openClient(ctx)
		if err != nil {
			return err
		}
		defer closeClient(ctx, client)

		if err := client.DropSchema(ctx); err != nil {
			return err
		}
		logger.Info("Schema dropped")
		return nil
	},
}

var (
	wipeYes   bool
	wipeBatch int
)

var wipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Delete every node and relationship",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !wipeYes {
			return fmt.Errorf("wipe deletes the whole graph; pass --yes to confirm")
		}
		ctx := cmd.Context()
		client, err := openClient(ctx)
		if err != nil {
			return err
		}
		defer closeClient(ctx, client)

		deleted, err := client.Wipe(ctx, wipeBatch)
		if err != nil {
			return err
		}
		logger.WithField("deleted", deleted).Info("Graph wiped")
		return render(map[string]int64{"nodes_deleted": deleted}, func(w io.Writer) error {
			_, err := fmt.Fprintf(w, "Deleted %d nodes\n", deleted)
			return err
		})
	},
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete nodes without relationships",
	Long: `Deletes every node with no relationships, such as productions nobody is
credited in and actors whose credits were all filtered out.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := openClient(ctx)
		if err != nil {
			return err
		}
		defer closeClient(ctx, client)

		deleted, err := client.PruneOrphans(ctx)
		if err != nil {
			return err
		}
		logger.WithField("deleted", deleted).Info("Orphan nodes pruned")
		return render(map[string]int64{"nodes_deleted": deleted}, func(w io.Writer) error {
			_, err := fmt.Fprintf(w, "Deleted %d orphan nodes\n", deleted)
			return err
		})
	},
}

func init() {
	wipeCmd.Flags().BoolVar(&wipeYes, "yes", false, "confirm deleting the whole graph")
	wipeCmd.Flags().IntVar(&wipeBatch, "batch", graph.DefaultWipeBatch, "nodes deleted per transaction")
}
