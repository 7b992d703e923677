package ledger

import (
	stderrors "errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/actorgraph/internal/errors"
)

func openTemp(t *testing.T, limit int) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "nested", "ledger.db"), limit)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestRunLifecycle(t *testing.T) {
	l := openTemp(t, 10)

	run, err := l.BeginRun([]string{"movie", "actor"})
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, run.Status)
	assert.NotEmpty(t, run.ID)

	rec := StageRecord{Stage: "nodes", Files: 2, Rows: 10, Applied: 10, Duration: 3 * time.Second}
	require.NoError(t, l.RecordStage(run.ID, rec))
	require.NoError(t, l.RecordStage(run.ID, StageRecord{Stage: "credits", Rows: 5, Applied: 3, Skipped: 2}))
	require.NoError(t, l.FinishRun(run.ID, nil))

	got, ok, err := l.GetRun(run.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.NotNil(t, got.FinishedAt)
	require.Len(t, got.Stages, 2)
	assert.Equal(t, rec, got.Stages[0])
	assert.Equal(t, int64(2), got.Stages[1].Skipped)
	assert.Equal(t, []string{"movie", "actor"}, got.Kinds)
}

func TestFailedRun(t *testing.T) {
	l := openTemp(t, 10)
	run, err := l.BeginRun(nil)
	require.NoError(t, err)
	require.NoError(t, l.FinishRun(run.ID, stderrors.New("truncated batch file")))

	got, _, err := l.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "truncated batch file", got.Error)
}

func TestUnknownRun(t *testing.T) {
	l := openTemp(t, 10)
	err := l.RecordStage("missing", StageRecord{})
	assert.ErrorIs(t, err, errors.ErrNotFound)

	_, ok, err := l.GetRun("missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRunsNewestFirst(t *testing.T) {
	l := openTemp(t, 10)
	var ids []string
	for i := 0; i < 3; i++ {
		run, err := l.BeginRun(nil)
		require.NoError(t, err)
		ids = append(ids, run.ID)
	}

	runs, err := l.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[0], runs[2].ID)
}

func TestSkippedSampleLimit(t *testing.T) {
	l := openTemp(t, 5)
	run, err := l.BeginRun(nil)
	require.NoError(t, err)

	var keys []string
	for i := 0; i < 4; i++ {
		keys = append(keys, fmt.Sprintf("nm%07d->tt0000001", i))
	}
	require.NoError(t, l.RecordSkipped(run.ID, "credits", keys[:3]))
	require.NoError(t, l.RecordSkipped(run.ID, "credits", keys))
	require.NoError(t, l.RecordSkipped(run.ID, "episode_links", []string{"tt1->tt2"}))

	got, err := l.Skipped(run.ID, "credits")
	require.NoError(t, err)
	assert.Equal(t, append(keys[:3:3], keys[0], keys[1]), got)

	got, err = l.Skipped(run.ID, "episode_links")
	require.NoError(t, err)
	assert.Equal(t, []string{"tt1->tt2"}, got)

	got, err = l.Skipped(run.ID, "nodes")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSkippedDisabled(t *testing.T) {
	l := openTemp(t, 0)
	run, err := l.BeginRun(nil)
	require.NoError(t, err)
	require.NoError(t, l.RecordSkipped(run.ID, "credits", []string{"a"}))
	got, err := l.Skipped(run.ID, "credits")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	l, err := Open(path, 10)
	require.NoError(t, err)
	run, err := l.BeginRun(nil)
	require.NoError(t, err)
	require.NoError(t, l.Close())

	l, err = Open(path, 10)
	require.NoError(t, err)
	defer l.Close()
	_, ok, err := l.GetRun(run.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}
