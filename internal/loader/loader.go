// Package loader streams batch files into the graph store in dependency
// order.
package loader

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/rohankatakam/actorgraph/internal/batch"
	"github.com/rohankatakam/actorgraph/internal/errors"
	"github.com/rohankatakam/actorgraph/internal/graph"
	"github.com/rohankatakam/actorgraph/internal/ledger"
	"github.com/rohankatakam/actorgraph/internal/models"
)

// Store is the subset of the graph store the loader writes through
type Store interface {
	InitSchema(ctx context.Context) error
	UpsertMovies(ctx context.Context, movies []models.Movie) (graph.BatchResult, error)
	UpsertEpisodes(ctx context.Context, episodes []models.Episode) (graph.BatchResult, error)
	UpsertSeries(ctx context.Context, series []models.Series) (graph.BatchResult, error)
	UpsertActors(ctx context.Context, actors []models.Actor) (graph.BatchResult, error)
	UpsertCredits(ctx context.Context, credits []models.Credit) (graph.BatchResult, error)
	LinkEpisodes(ctx context.Context, links []models.EpisodeLink) (graph.BatchResult, error)
}

var _ Store = (*graph.Client)(nil)

// Recorder persists stage outcomes and skipped row keys
type Recorder interface {
	RecordStage(runID string, rec ledger.StageRecord) error
	RecordSkipped(runID, stage string, keys []string) error
}

// Stage is one step of a load. Stages run strictly in Stages order; a stage
// starts only after every chunk of the previous one has committed.
type Stage string

const (
	StageSchema       Stage = "schema"
	StageNodes        Stage = "nodes"
	StageCredits      Stage = "credits"
	StageEpisodeLinks Stage = "episode_links"
)

// Stages lists the data stages and the kinds each one loads. Credits and
// episode links MATCH nodes created by the node stage.
var Stages = []struct {
	Stage Stage
	Kinds []batch.Kind
}{
	{StageNodes, []batch.Kind{batch.KindMovie, batch.KindEpisode, batch.KindSeries, batch.KindActor}},
	{StageCredits, []batch.Kind{batch.KindCredit}},
	{StageEpisodeLinks, []batch.Kind{batch.KindEpisodeLink}},
}

// StageStats summarizes one stage. Skipped rows referenced a missing
// endpoint; Invalid rows lacked a required field.
type StageStats struct {
	Stage    Stage         `json:"stage" yaml:"stage"`
	Files    int           `json:"files" yaml:"files"`
	Rows     int64         `json:"rows" yaml:"rows"`
	Applied  int64         `json:"applied" yaml:"applied"`
	Skipped  int64         `json:"skipped" yaml:"skipped"`
	Invalid  int64         `json:"invalid" yaml:"invalid"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Record converts the stats to their ledger form
func (s StageStats) Record() ledger.StageRecord {
	return ledger.StageRecord{
		Stage:    string(s.Stage),
		Files:    s.Files,
		Rows:     s.Rows,
		Applied:  s.Applied,
		Skipped:  s.Skipped,
		Invalid:  s.Invalid,
		Duration: s.Duration,
	}
}

func (s *StageStats) add(f fileStats) {
	s.Files++
	s.Rows += f.rows
	s.Applied += f.applied
	s.Skipped += f.skipped
	s.Invalid += f.invalid
}

// Options tune a Loader
type Options struct {
	// Parallelism bounds concurrent chunk files within a stage
	Parallelism int
	// WriteRate limits upsert transactions per second, 0 for unlimited
	WriteRate float64
	Batches   graph.BatchConfig
}

// Loader runs load plans against a Store
type Loader struct {
	store    Store
	logger   *logrus.Logger
	opts     Options
	limiter  *rate.Limiter
	recorder Recorder
	runID    string
}

// New creates a Loader
func New(store Store, logger *logrus.Logger, opts Options) *Loader {
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}
	opts.Batches = opts.Batches.WithDefaults()

	l := &Loader{store: store, logger: logger, opts: opts}
	if opts.WriteRate > 0 {
		l.limiter = rate.NewLimiter(rate.Limit(opts.WriteRate), 1)
	}
	return l
}

// WithRecorder records stage outcomes and skipped rows under runID
func (l *Loader) WithRecorder(r Recorder, runID string) *Loader {
	l.recorder = r
	l.runID = runID
	return l
}

// Run executes plan. Any error aborts the run; a failed load leaves the
// store partially written and is expected to be rerun from a clean store.
func (l *Loader) Run(ctx context.Context, plan Plan) ([]StageStats, error) {
	var all []StageStats

	if plan.InitSchema {
		start := time.Now()
		l.logger.Info("Creating constraints and indexes")
		if err := l.store.InitSchema(ctx); err != nil {
			return all, err
		}
		stats := StageStats{Stage: StageSchema, Duration: time.Since(start)}
		l.record(stats)
		all = append(all, stats)
	}

	for _, st := range Stages {
		var jobs []job
		for _, kind := range st.Kinds {
			for _, path := range plan.Files[kind] {
				jobs = append(jobs, job{kind: kind, path: path})
			}
		}
		if len(jobs) == 0 {
			l.logger.WithField("stage", st.Stage).Debug("No files for stage")
			continue
		}
		stats, err := l.runStage(ctx, st.Stage, jobs)
		all = append(all, stats)
		if err != nil {
			return all, err
		}
	}
	return all, nil
}

// LoadKind loads files of a single kind as its own stage. The caller is
// responsible for the endpoints of relationship kinds already existing.
func (l *Loader) LoadKind(ctx context.Context, kind batch.Kind, files ...string) (StageStats, error) {
	jobs := make([]job, len(files))
	for i, f := range files {
		jobs[i] = job{kind: kind, path: f}
	}
	return l.runStage(ctx, stageOf(kind), jobs)
}

func stageOf(kind batch.Kind) Stage {
	for _, st := range Stages {
		for _, k := range st.Kinds {
			if k == kind {
				return st.Stage
			}
		}
	}
	return Stage(kind)
}

type job struct {
	kind batch.Kind
	path string
}

type fileStats struct {
	rows, applied, skipped, invalid int64
}

func (l *Loader) runStage(ctx context.Context, stage Stage, jobs []job) (StageStats, error) {
	start := time.Now()
	stats := StageStats{Stage: stage}
	var mu sync.Mutex

	l.logger.WithFields(logrus.Fields{
		"stage": stage,
		"files": len(jobs),
	}).Info("Starting load stage")

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Parallelism)
	for _, j := range jobs {
		g.Go(func() error {
			fs, err := l.loadFile(ctx, stage, j)
			if err != nil {
				return err
			}
			mu.Lock()
			stats.add(fs)
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	stats.Duration = time.Since(start)

	if err != nil {
		l.logger.WithError(err).WithField("stage", stage).Error("Load stage failed")
		return stats, err
	}

	l.logger.WithFields(logrus.Fields{
		"stage":    stage,
		"files":    stats.Files,
		"rows":     stats.Rows,
		"applied":  stats.Applied,
		"skipped":  stats.Skipped,
		"invalid":  stats.Invalid,
		"duration": stats.Duration.String(),
	}).Info("Load stage completed")
	if stats.Skipped > 0 {
		l.logger.WithFields(logrus.Fields{
			"stage":   stage,
			"skipped": stats.Skipped,
		}).Warn("Rows skipped because an endpoint was missing")
	}
	l.record(stats)
	return stats, nil
}

func (l *Loader) loadFile(ctx context.Context, stage Stage, j job) (fileStats, error) {
	switch j.kind {
	case batch.KindMovie:
		return loadFile(ctx, l, stage, j.path, batch.MovieCodec, l.store.UpsertMovies)
	case batch.KindEpisode:
		return loadFile(ctx, l, stage, j.path, batch.EpisodeCodec, l.store.UpsertEpisodes)
	case batch.KindSeries:
		return loadFile(ctx, l, stage, j.path, batch.SeriesCodec, l.store.UpsertSeries)
	case batch.KindActor:
		return loadFile(ctx, l, stage, j.path, batch.ActorCodec, l.store.UpsertActors)
	case batch.KindCredit:
		return loadFile(ctx, l, stage, j.path, batch.CreditCodec, l.store.UpsertCredits)
	case batch.KindEpisodeLink:
		return loadFile(ctx, l, stage, j.path, batch.EpisodeLinkCodec, l.store.LinkEpisodes)
	default:
		return fileStats{}, errors.ValidationErrorf("unknown batch kind %q", j.kind)
	}
}

type upsertFunc[T any] func(context.Context, []T) (graph.BatchResult, error)

// loadFile streams one batch file, holding at most one chunk in memory
func loadFile[T any](ctx context.Context, l *Loader, stage Stage, path string, codec batch.Codec[T], upsert upsertFunc[T]) (fileStats, error) {
	var fs fileStats

	r, err := batch.OpenReader(path, batch.WithUnescape())
	if err != nil {
		return fs, err
	}
	defer r.Close()

	if err := r.Header().Require(codec.Kind.Columns()...); err != nil {
		return fs, errors.Wrap(err, errors.ErrorTypeValidation, errors.SeverityCritical,
			"batch file has wrong columns").WithContext("file", path)
	}

	size := l.opts.Batches.GetBatchSizeForKind(codec.Kind)
	chunk := make([]T, 0, size)

	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		if l.limiter != nil {
			if err := l.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		res, err := upsert(ctx, chunk)
		if err != nil {
			return errors.Wrap(err, errors.GetType(err), errors.SeverityCritical,
				"chunk upsert failed").WithContext("file", path)
		}
		fs.applied += int64(res.Applied)
		fs.skipped += int64(res.Skipped())
		if len(res.Missing) > 0 {
			keys := make([]string, 0, len(res.Missing))
			for _, i := range res.Missing {
				if i >= 0 && i < len(chunk) {
					keys = append(keys, codec.Key(chunk[i]))
				}
			}
			l.recordSkipped(stage, keys)
		}
		chunk = chunk[:0]
		return nil
	}

	for {
		row, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fs, err
		}
		fs.rows++
		item, ok := codec.Decode(row)
		if !ok {
			fs.invalid++
			continue
		}
		chunk = append(chunk, item)
		if len(chunk) >= size {
			if err := flush(); err != nil {
				return fs, err
			}
		}
	}
	if err := flush(); err != nil {
		return fs, err
	}

	l.logger.WithFields(logrus.Fields{
		"file":    path,
		"rows":    fs.rows,
		"applied": fs.applied,
		"skipped": fs.skipped,
	}).Debug("Batch file loaded")
	return fs, nil
}

func (l *Loader) record(stats StageStats) {
	if l.recorder == nil {
		return
	}
	if err := l.recorder.RecordStage(l.runID, stats.Record()); err != nil {
		l.logger.WithError(err).Warn("Failed to record stage in ledger")
	}
}

func (l *Loader) recordSkipped(stage Stage, keys []string) {
	if l.recorder == nil || len(keys) == 0 {
		return
	}
	if err := l.recorder.RecordSkipped(l.runID, string(stage), keys); err != nil {
		l.logger.WithError(err).Warn("Failed to record skipped rows in ledger")
	}
}
