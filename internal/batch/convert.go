package batch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rohankatakam/actorgraph/internal/errors"
	"github.com/rohankatakam/actorgraph/internal/models"
	"github.com/rohankatakam/actorgraph/internal/normalize"
)

// Stats summarizes one source file conversion
type Stats struct {
	Source     string                        `json:"source" yaml:"source"`
	Read       int64                         `json:"read" yaml:"read"`
	Written    map[Kind]int64                `json:"written" yaml:"written"`
	Rejected   int64                         `json:"rejected" yaml:"rejected"`
	Duplicates int64                         `json:"duplicates" yaml:"duplicates"`
	Reasons    map[normalize.Rejection]int64 `json:"reasons,omitempty" yaml:"reasons,omitempty"`
	Duration   time.Duration                 `json:"duration" yaml:"duration"`
}

func newStats(source string) *Stats {
	return &Stats{Source: source, Written: map[Kind]int64{}, Reasons: map[normalize.Rejection]int64{}}
}

func (s *Stats) reject(r normalize.Rejection) {
	s.Rejected++
	s.Reasons[r]++
}

// convertParallelism bounds concurrent sources; each holds its own dedup window
const convertParallelism = 2

// Converter turns the raw dataset exports in rawDir into batch files in outDir
type Converter struct {
	rawDir      string
	outDir      string
	dedupWindow int
	logger      *slog.Logger
}

// NewConverter creates a converter. dedupWindow bounds the line dedup set;
// zero disables it.
func NewConverter(rawDir, outDir string, dedupWindow int) *Converter {
	return &Converter{
		rawDir:      rawDir,
		outDir:      outDir,
		dedupWindow: dedupWindow,
		logger:      slog.Default().With("component", "converter"),
	}
}

// ConvertAll clears old batch files from the output directory and converts
// the source files, two at a time. Each source writes its own batch kinds.
// Stats come back in source order.
func (c *Converter) ConvertAll(ctx context.Context) ([]*Stats, error) {
	if err := c.resetOutputDir(); err != nil {
		return nil, err
	}

	steps := []func(context.Context) (*Stats, error){
		c.ConvertTitles,
		c.ConvertNames,
		c.ConvertEpisodes,
		c.ConvertPrincipals,
	}
	stats := make([]*Stats, len(steps))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(convertParallelism)
	for i, step := range steps {
		g.Go(func() error {
			st, err := step(gctx)
			stats[i] = st
			return err
		})
	}
	err := g.Wait()

	done := stats[:0]
	for _, st := range stats {
		if st != nil {
			done = append(done, st)
		}
	}
	return done, err
}

func (c *Converter) resetOutputDir() error {
	if err := os.MkdirAll(c.outDir, 0755); err != nil {
		return errors.FileSystemErrorf(err, "create batch dir %s", c.outDir)
	}
	old, err := filepath.Glob(filepath.Join(c.outDir, "*.tsv"))
	if err != nil {
		return errors.FileSystemErrorf(err, "list batch dir %s", c.outDir)
	}
	for _, f := range old {
		if err := os.Remove(f); err != nil {
			return errors.FileSystemErrorf(err, "remove old batch file %s", f)
		}
	}
	if len(old) > 0 {
		c.logger.Info("removed old batch files", "count", len(old))
	}
	return nil
}

// ConvertTitles splits title.basics into movie, series and episode batches
func (c *Converter) ConvertTitles(ctx context.Context) (*Stats, error) {
	kinds := []Kind{KindMovie, KindSeries, KindEpisode}
	return c.convert(ctx, SourceTitles, normalize.TitleColumns, kinds, func(row normalize.Row, out map[Kind]*Writer, st *Stats) error {
		t, rej := normalize.ParseTitle(row)
		if !rej.OK() {
			st.reject(rej)
			return nil
		}
		switch t.Kind {
		case models.KindMovie:
			return write(out, st, KindMovie, MovieCodec.Encode(t.Movie()))
		case models.KindSeries:
			return write(out, st, KindSeries, SeriesCodec.Encode(t.Series()))
		default:
			return write(out, st, KindEpisode, EpisodeCodec.Encode(t.Episode()))
		}
	})
}

// ConvertNames writes the actor batch from name.basics
func (c *Converter) ConvertNames(ctx context.Context) (*Stats, error) {
	return c.convert(ctx, SourceNames, normalize.PersonColumns, []Kind{KindActor}, func(row normalize.Row, out map[Kind]*Writer, st *Stats) error {
		a, rej := normalize.ParsePerson(row)
		if !rej.OK() {
			st.reject(rej)
			return nil
		}
		return write(out, st, KindActor, ActorCodec.Encode(a))
	})
}

// ConvertEpisodes writes the episode link batch from title.episode
func (c *Converter) ConvertEpisodes(ctx context.Context) (*Stats, error) {
	return c.convert(ctx, SourceEpisodes, normalize.EpisodeColumns, []Kind{KindEpisodeLink}, func(row normalize.Row, out map[Kind]*Writer, st *Stats) error {
		l, rej := normalize.ParseEpisodeLink(row)
		if !rej.OK() {
			st.reject(rej)
			return nil
		}
		return write(out, st, KindEpisodeLink, EpisodeLinkCodec.Encode(l))
	})
}

// ConvertPrincipals writes the credit batch from title.principals
func (c *Converter) ConvertPrincipals(ctx context.Context) (*Stats, error) {
	return c.convert(ctx, SourcePrincipals, normalize.PrincipalColumns, []Kind{KindCredit}, func(row normalize.Row, out map[Kind]*Writer, st *Stats) error {
		cr, rej := normalize.ParseCredit(row)
		if !rej.OK() {
			st.reject(rej)
			return nil
		}
		return write(out, st, KindCredit, CreditCodec.Encode(cr))
	})
}

func write(out map[Kind]*Writer, st *Stats, kind Kind, fields []string) error {
	if err := out[kind].Write(fields); err != nil {
		return err
	}
	st.Written[kind]++
	return nil
}

type rowFunc func(row normalize.Row, out map[Kind]*Writer, st *Stats) error

func (c *Converter) convert(ctx context.Context, source string, required []string, kinds []Kind, fn rowFunc) (*Stats, error) {
	start := time.Now()
	st := newStats(source)

	path, err := c.sourcePath(source)
	if err != nil {
		return nil, err
	}
	r, err := OpenReader(path, WithDedup(NewDeduper(c.dedupWindow)))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	if err := r.Header().Require(required...); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeValidation, errors.SeverityCritical, "unexpected format in "+path)
	}

	if err := os.MkdirAll(c.outDir, 0755); err != nil {
		return nil, errors.FileSystemErrorf(err, "create batch dir %s", c.outDir)
	}
	out := make(map[Kind]*Writer, len(kinds))
	closeAll := func() error {
		var first error
		for _, w := range out {
			if err := w.Close(); err != nil && first == nil {
				first = err
			}
		}
		return first
	}
	for _, k := range kinds {
		w, err := CreateWriter(filepath.Join(c.outDir, k.FileName()), k)
		if err != nil {
			closeAll()
			return nil, err
		}
		out[k] = w
	}

	c.logger.Info("converting", "source", path)
	for {
		if st.Read%100_000 == 0 {
			if err := ctx.Err(); err != nil {
				closeAll()
				return st, err
			}
		}
		row, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			closeAll()
			return st, err
		}
		st.Read++
		if err := fn(row, out, st); err != nil {
			closeAll()
			return st, err
		}
	}

	if err := closeAll(); err != nil {
		return st, err
	}
	st.Duplicates = r.Duplicates()
	st.Duration = time.Since(start)
	c.logger.Info("converted",
		"source", source,
		"read", st.Read,
		"written", st.Written,
		"rejected", st.Rejected,
		"duplicates", st.Duplicates,
		"duration", st.Duration)
	return st, nil
}

// sourcePath prefers the unpacked file and falls back to the .gz download
func (c *Converter) sourcePath(name string) (string, error) {
	for _, candidate := range []string{name, name + ".gz"} {
		p := filepath.Join(c.rawDir, candidate)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", errors.FileSystemErrorf(os.ErrNotExist, "dataset file %s not found in %s", strings.TrimSuffix(name, ".tsv"), c.rawDir)
}
