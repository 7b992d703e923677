package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rohankatakam/actorgraph/internal/batch"
	"github.com/rohankatakam/actorgraph/internal/config"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download the dataset exports into the raw directory",
	Long: `Fetches title.basics, name.basics, title.episode and title.principals
from the configured dataset URL and unpacks them into the raw directory.`,
	Args: cobra.NoArgs,
	RunE: runDownload,
}

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert the raw exports into batch files",
	Long: `Normalizes the raw exports and writes one batch file per kind into the
batch directory. Old batch files are removed first. With --split the
batch files are then split into chunk files.`,
	Args: cobra.NoArgs,
	RunE: runConvert,
}

var splitCmd = &cobra.Command{
	Use:   "split [kind...]",
	Short: "Split batch files into chunk files",
	Long: `Splits each batch file into header-preserving chunk files of at most
--lines rows, so the loader can commit them in parallel. All kinds are
split when none are named.`,
	RunE: runSplit,
}

var (
	convertSplit bool
	splitLines   int
)

func init() {
	convertCmd.Flags().BoolVar(&convertSplit, "split", false, "split batch files after converting")
	splitCmd.Flags().IntVar(&splitLines, "lines", 0, "rows per chunk file (default: etl.split_lines)")
}

func requireETL() error {
	return cfg.Require(config.ValidationContextETL)
}

func runDownload(cmd *cobra.Command, args []string) error {
	if err := requireETL(); err != nil {
		return err
	}
	ctx := cmd.Context()
	start := time.Now()

	logger.WithFields(logrus.Fields{
		"url":     cfg.ETL.DatasetURL,
		"raw_dir": cfg.ETL.RawDir,
	}).Info("Downloading dataset exports")

	paths, err := batch.NewDownloader(cfg.ETL.DatasetURL, cfg.ETL.RawDir, nil).DownloadAll(ctx)
	if err != nil {
		return err
	}

	logger.WithField("duration", time.Since(start).String()).Info("Download complete")
	return render(paths, func(w io.Writer) error {
		for _, p := range paths {
			fmt.Fprintln(w, p)
		}
		return nil
	})
}

func runConvert(cmd *cobra.Command, args []string) error {
	if err := requireETL(); err != nil {
		return err
	}
	ctx := cmd.Context()

	logger.WithFields(logrus.Fields{
		"raw_dir":   cfg.ETL.RawDir,
		"batch_dir": cfg.ETL.BatchDir,
	}).Info("Converting dataset exports")

	stats, err := batch.NewConverter(cfg.ETL.RawDir, cfg.ETL.BatchDir, cfg.ETL.DedupWindow).ConvertAll(ctx)
	if err != nil {
		return err
	}

	if convertSplit {
		if _, err := splitKinds(ctx, batch.AllKinds, cfg.ETL.SplitLines); err != nil {
			return err
		}
	}

	return render(stats, func(w io.Writer) error {
		for _, s := range stats {
			fmt.Fprintf(w, "%s: read %d, rejected %d, duplicates %d (%s)\n",
				s.Source, s.Read, s.Rejected, s.Duplicates, s.Duration.Round(time.Millisecond))
			for _, kind := range batch.AllKinds {
				if n, ok := s.Written[kind]; ok {
					fmt.Fprintf(w, "  %-18s %d\n", kind, n)
				}
			}
			for reason, n := range s.Reasons {
				fmt.Fprintf(w, "  rejected %-9s %d\n", reason, n)
			}
		}
		return nil
	})
}

func runSplit(cmd *cobra.Command, args []string) error {
	if err := requireETL(); err != nil {
		return err
	}
	kinds, err := parseKinds(args)
	if err != nil {
		return err
	}
	lines := splitLines
	if lines == 0 {
		lines = cfg.ETL.SplitLines
	}

	chunks, err := splitKinds(cmd.Context(), kinds, lines)
	if err != nil {
		return err
	}
	return render(chunks, func(w io.Writer) error {
		for _, kind := range kinds {
			files, ok := chunks[kind]
			switch {
			case !ok:
			case len(files) == 0:
				fmt.Fprintf(w, "%s: not split\n", kind)
			default:
				fmt.Fprintf(w, "%s: %d chunk files\n", kind, len(files))
			}
		}
		return nil
	})
}

// splitKinds splits the batch file of each kind, replacing earlier chunks.
// With lines 0 the chunks are only removed and the whole files get loaded.
func splitKinds(ctx context.Context, kinds []batch.Kind, lines int) (map[batch.Kind][]string, error) {
	if lines == 0 {
		logger.Info("Split size is 0, batch files will be loaded whole")
	}
	out := make(map[batch.Kind][]string)
	for _, kind := range kinds {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		path := filepath.Join(cfg.ETL.BatchDir, kind.FileName())
		files, err := batch.Split(path, lines)
		if err != nil {
			return out, err
		}
		out[kind] = files
		logger.WithFields(logrus.Fields{
			"kind":   kind,
			"chunks": len(files),
		}).Info("Split batch file")
	}
	return out, nil
}

func parseKinds(names []string) ([]batch.Kind, error) {
	if len(names) == 0 {
		return batch.AllKinds, nil
	}
	kinds := make([]batch.Kind, 0, len(names))
	for _, n := range names {
		k, err := batch.ParseKind(n)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}
