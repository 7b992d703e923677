package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rohankatakam/actorgraph/internal/config"
	"github.com/rohankatakam/actorgraph/internal/errors"
	"github.com/rohankatakam/actorgraph/internal/graph"
	"github.com/rohankatakam/actorgraph/internal/logging"
)

var (
	// Version information (set by build flags)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	cfgFile      string
	verbose      bool
	outputFormat string
	logger       *logrus.Logger
	cfg          *config.Config
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logging.Close()
	if err != nil {
		reportError(err)
		os.Exit(1)
	}
}

func reportError(err error) {
	var e *errors.Error
	if verbose && stderrors.As(err, &e) {
		fmt.Fprint(os.Stderr, e.DetailedString())
	}
	if logger != nil {
		logger.WithFields(errors.Fields(err)).Debug("Command failed")
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}

var rootCmd = &cobra.Command{
	Use:   "actorgraph",
	Short: "Load IMDb exports into Neo4j and query actor connections",
	Long: `actorgraph downloads the IMDb dataset exports, converts them into batch
files, loads them into a Neo4j graph of actors and productions, and answers
aggregate and shortest-connection queries against it.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config, using defaults: %v\n", err)
			cfg = config.Default()
		}

		// Progress lines go to stderr; stdout carries command output only
		logger = logrus.New()
		logger.SetOutput(os.Stderr)
		level, err := logrus.ParseLevel(cfg.Logging.Level)
		if err != nil {
			level = logrus.InfoLevel
		}
		if verbose {
			level = logrus.DebugLevel
		}
		logger.SetLevel(level)

		logCfg := logging.DefaultConfig(cfg.Logging.Dir, verbose)
		if !verbose {
			logCfg.Level = logging.ParseLevel(cfg.Logging.Level)
			logCfg.JSONFormat = cfg.Logging.JSON
		}
		if err := logging.Initialize(logCfg); err != nil {
			logger.WithError(err).Warn("Failed to initialize structured logging")
		} else if path := logging.GetLogFilePath(); path != "" {
			logger.WithField("file", path).Debug("Writing logs to file")
		}

		switch outputFormat {
		case outputText, outputJSON, outputYAML:
		default:
			return fmt.Errorf("unknown output format %q (want text, json or yaml)", outputFormat)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .actorgraph/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", outputText, "output format: text, json or yaml")

	rootCmd.SetVersionTemplate(`actorgraph {{.Version}}
Build time: ` + BuildTime + `
Git commit: ` + GitCommit + `
`)

	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(splitCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(initSchemaCmd)
	rootCmd.AddCommand(dropSchemaCmd)
	rootCmd.AddCommand(wipeCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(actorCmd)
	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(titleCmd)
	rootCmd.AddCommand(totalsCmd)
	rootCmd.AddCommand(randomCmd)
	rootCmd.AddCommand(ledgerCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
}

// openClient validates the graph settings and connects. Callers close the
// client with defer.
func openClient(ctx context.Context) (*graph.Client, error) {
	if err := cfg.Require(config.ValidationContextGraph); err != nil {
		return nil, err
	}
	client, err := graph.NewClient(ctx, cfg.Neo4j.URI, cfg.Neo4j.User, cfg.Neo4j.Password, cfg.Neo4j.Database,
		graph.WithPoolSize(graph.PoolSizeFor(cfg.Load.Parallelism)))
	if err != nil {
		return nil, err
	}
	client.SetBatchConfig(graph.BatchConfig{
		ProductionBatchSize:  cfg.Load.ProductionBatch,
		ActorBatchSize:       cfg.Load.ActorBatch,
		CreditBatchSize:      cfg.Load.CreditBatch,
		EpisodeLinkBatchSize: cfg.Load.EpisodeBatch,
	})
	return client, nil
}

func closeClient(ctx context.Context, client *graph.Client) {
	if verbose {
		client.Timeouts().LogSummary()
	}
	if err := client.Close(ctx); err != nil {
		logger.WithError(err).Warn("Failed to close neo4j client")
	}
}
