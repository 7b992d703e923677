// Package ledger keeps a local record of load runs and a sample of the rows
// each stage skipped because an endpoint was missing.
package ledger

import (
	"encoding/binary"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/rohankatakam/actorgraph/internal/errors"
)

var (
	runsBucket    = []byte("runs")
	skippedBucket = []byte("skipped")
)

// Run status values
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// StageRecord is the outcome of one load stage
type StageRecord struct {
	Stage    string        `json:"stage" yaml:"stage"`
	Files    int           `json:"files" yaml:"files"`
	Rows     int64         `json:"rows" yaml:"rows"`
	Applied  int64         `json:"applied" yaml:"applied"`
	Skipped  int64         `json:"skipped" yaml:"skipped"`
	Invalid  int64         `json:"invalid" yaml:"invalid"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Run is one invocation of the loader
type Run struct {
	ID         string        `json:"id" yaml:"id"`
	StartedAt  time.Time     `json:"started_at" yaml:"started_at"`
	FinishedAt *time.Time    `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	Status     string        `json:"status" yaml:"status"`
	Error      string        `json:"error,omitempty" yaml:"error,omitempty"`
	Kinds      []string      `json:"kinds" yaml:"kinds"`
	Stages     []StageRecord `json:"stages" yaml:"stages"`
}

// Ledger is a bbolt file. Safe for concurrent use; bbolt serializes
// writers.
type Ledger struct {
	db          *bolt.DB
	sampleLimit int
	logger      *slog.Logger
	now         func() time.Time
}

// Open opens or creates the ledger at path. At most sampleLimit skipped
// keys are kept per run and stage.
func Open(path string, sampleLimit int) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.FileSystemErrorf(err, "failed to create ledger directory for %s", path)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.FileSystemErrorf(err, "failed to open ledger %s", path)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(runsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(skippedBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.FileSystemErrorf(err, "failed to initialize ledger %s", path)
	}
	return &Ledger{
		db:          db,
		sampleLimit: sampleLimit,
		logger:      slog.Default().With("component", "ledger"),
		now:         time.Now,
	}, nil
}

// Close closes the underlying file
func (l *Ledger) Close() error {
	return l.db.Close()
}

// BeginRun records a new running run. Run ids are UUIDv7, so key order is
// start order.
func (l *Ledger) BeginRun(kinds []string) (*Run, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, errors.InternalErrorf("failed to generate run id: %v", err)
	}
	run := &Run{
		ID:        id.String(),
		StartedAt: l.now().UTC(),
		Status:    StatusRunning,
		Kinds:     kinds,
		Stages:    []StageRecord{},
	}
	if err := l.putRun(run); err != nil {
		return nil, err
	}
	l.logger.Debug("run started", "run_id", run.ID)
	return run, nil
}

// RecordStage appends a stage outcome to a run
func (l *Ledger) RecordStage(runID string, rec StageRecord) error {
	return l.updateRun(runID, func(r *Run) {
		r.Stages = append(r.Stages, rec)
	})
}

// FinishRun marks a run completed, or failed when runErr is not nil
func (l *Ledger) FinishRun(runID string, runErr error) error {
	return l.updateRun(runID, func(r *Run) {
		finished := l.now().UTC()
		r.FinishedAt = &finished
		r.Status = StatusCompleted
		if runErr != nil {
			r.Status = StatusFailed
			r.Error = runErr.Error()
		}
	})
}

// RecordSkipped stores skipped row keys for a stage until the sample limit
// is reached; the rest are dropped
func (l *Ledger) RecordSkipped(runID, stage string, keys []string) error {
	if len(keys) == 0 || l.sampleLimit <= 0 {
		return nil
	}
	err := l.db.Update(func(tx *bolt.Tx) error {
		runB, err := tx.Bucket(skippedBucket).CreateBucketIfNotExists([]byte(runID))
		if err != nil {
			return err
		}
		b, err := runB.CreateBucketIfNotExists([]byte(stage))
		if err != nil {
			return err
		}
		for _, key := range keys {
			if b.Sequence() >= uint64(l.sampleLimit) {
				return nil
			}
			seq, err := b.NextSequence()
			if err != nil {
				return err
			}
			if err := b.Put(seqKey(seq), []byte(key)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.FileSystemErrorf(err, "failed to record skipped rows for run %s", runID)
	}
	return nil
}

// Runs lists runs, newest first
func (l *Ledger) Runs() ([]Run, error) {
	var runs []Run
	err := l.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(runsBucket).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var r Run
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}
			runs = append(runs, r)
		}
		return nil
	})
	if err != nil {
		return nil, errors.FileSystemErrorf(err, "failed to read ledger runs")
	}
	return runs, nil
}

// GetRun returns one run
func (l *Ledger) GetRun(runID string) (*Run, bool, error) {
	var run *Run
	err := l.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(runsBucket).Get([]byte(runID))
		if data == nil {
			return nil
		}
		run = &Run{}
		return json.Unmarshal(data, run)
	})
	if err != nil {
		return nil, false, errors.FileSystemErrorf(err, "failed to read run %s", runID)
	}
	return run, run != nil, nil
}

// Skipped lists the sampled skipped keys of a run's stage in the order
// they were recorded
func (l *Ledger) Skipped(runID, stage string) ([]string, error) {
	keys := []string{}
	err := l.db.View(func(tx *bolt.Tx) error {
		runB := tx.Bucket(skippedBucket).Bucket([]byte(runID))
		if runB == nil {
			return nil
		}
		b := runB.Bucket([]byte(stage))
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			keys = append(keys, string(v))
			return nil
		})
	})
	if err != nil {
		return nil, errors.FileSystemErrorf(err, "failed to read skipped rows for run %s", runID)
	}
	return keys, nil
}

func (l *Ledger) putRun(run *Run) error {
	data, err := json.Marshal(run)
	if err != nil {
		return errors.InternalErrorf("failed to encode run: %v", err)
	}
	err = l.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(runsBucket).Put([]byte(run.ID), data)
	})
	if err != nil {
		return errors.FileSystemErrorf(err, "failed to write run %s", run.ID)
	}
	return nil
}

func (l *Ledger) updateRun(runID string, fn func(*Run)) error {
	err := l.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(runsBucket)
		data := b.Get([]byte(runID))
		if data == nil {
			return errors.NotFoundf("run %s not found", runID)
		}
		var run Run
		if err := json.Unmarshal(data, &run); err != nil {
			return err
		}
		fn(&run)
		out, err := json.Marshal(&run)
		if err != nil {
			return err
		}
		return b.Put([]byte(runID), out)
	})
	if err != nil {
		if errors.GetType(err) == errors.ErrorTypeNotFound {
			return err
		}
		return errors.FileSystemErrorf(err, "failed to update run %s", runID)
	}
	return nil
}

// seqKey encodes a sequence number so byte order matches numeric order
func seqKey(seq uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, seq)
}
