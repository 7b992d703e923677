package graph

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// nearTimeout is the share of a transaction timeout after which a
// successful query is still logged as a warning
const nearTimeout = 0.8

// TimeoutMonitor times every query the client runs and keeps per-operation
// statistics
type TimeoutMonitor struct {
	logger  *slog.Logger
	tracker *TimeoutTracker
}

func NewTimeoutMonitor() *TimeoutMonitor {
	return &TimeoutMonitor{
		logger:  slog.Default().With("component", "timeout_monitor"),
		tracker: NewTimeoutTracker(),
	}
}

func (tm *TimeoutMonitor) Tracker() *TimeoutTracker {
	return tm.tracker
}

// MonitorQueryExecution runs fn and records it under operation. A zero
// timeout means unbounded; an error counts as a timeout when it is a context
// deadline or fn ran past timeout.
func (tm *TimeoutMonitor) MonitorQueryExecution(ctx context.Context, operation string, timeout time.Duration, fn func() error) (time.Duration, error) {
	start := time.Now()
	err := fn()
	took := time.Since(start)

	timedOut := err != nil && (errors.Is(err, context.DeadlineExceeded) || (timeout > 0 && took >= timeout))
	tm.tracker.RecordExecution(operation, took, timedOut)

	log := tm.logger.With("operation", operation, "duration_seconds", took.Seconds())
	switch {
	case timedOut:
		log.Error("query timed out", "timeout_seconds", timeout.Seconds(), "error", err)
	case err != nil:
		log.Warn("query failed", "error", err)
	case timeout > 0 && float64(took) >= float64(timeout)*nearTimeout:
		log.Warn("query close to timeout", "timeout_seconds", timeout.Seconds())
	default:
		log.Debug("query completed")
	}
	return took, err
}

// TimeoutStats summarizes the executions of one operation
type TimeoutStats struct {
	Operation         string        `json:"operation" yaml:"operation"`
	TotalExecutions   int           `json:"total_executions" yaml:"total_executions"`
	TimeoutCount      int           `json:"timeout_count" yaml:"timeout_count"`
	AverageDuration   time.Duration `json:"average_duration" yaml:"average_duration"`
	MaxDuration       time.Duration `json:"max_duration" yaml:"max_duration"`
	TimeoutPercentage float64       `json:"timeout_percentage" yaml:"timeout_percentage"`
}

type opCounters struct {
	runs, timeouts int
	total, max     time.Duration
}

func (c opCounters) stats(op string) TimeoutStats {
	s := TimeoutStats{Operation: op, TotalExecutions: c.runs, TimeoutCount: c.timeouts, MaxDuration: c.max}
	if c.runs > 0 {
		s.AverageDuration = c.total / time.Duration(c.runs)
		s.TimeoutPercentage = float64(c.timeouts) / float64(c.runs) * 100
	}
	return s
}

// TimeoutTracker is safe for concurrent use; chunk files of one stage load
// in parallel.
type TimeoutTracker struct {
	mu     sync.Mutex
	ops    map[string]*opCounters
	logger *slog.Logger
}

func NewTimeoutTracker() *TimeoutTracker {
	return &TimeoutTracker{
		ops:    make(map[string]*opCounters),
		logger: slog.Default().With("component", "timeout_tracker"),
	}
}

func (tt *TimeoutTracker) RecordExecution(operation string, duration time.Duration, timedOut bool) {
	tt.mu.Lock()
	defer tt.mu.Unlock()
	c, ok := tt.ops[operation]
	if !ok {
		c = &opCounters{}
		tt.ops[operation] = c
	}
	c.runs++
	c.total += duration
	c.max = max(c.max, duration)
	if timedOut {
		c.timeouts++
	}
}

// GetStats reports false for an operation that never ran
func (tt *TimeoutTracker) GetStats(operation string) (TimeoutStats, bool) {
	tt.mu.Lock()
	defer tt.mu.Unlock()
	c, ok := tt.ops[operation]
	if !ok {
		return TimeoutStats{}, false
	}
	return c.stats(operation), true
}

// Snapshot returns every operation's stats sorted by name
func (tt *TimeoutTracker) Snapshot() []TimeoutStats {
	tt.mu.Lock()
	out := make([]TimeoutStats, 0, len(tt.ops))
	for op, c := range tt.ops {
		out = append(out, c.stats(op))
	}
	tt.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Operation < out[j].Operation })
	return out
}

// LogSummary logs one info line per operation
func (tt *TimeoutTracker) LogSummary() {
	snapshot := tt.Snapshot()
	if len(snapshot) == 0 {
		tt.logger.Debug("no queries recorded")
		return
	}
	for _, s := range snapshot {
		tt.logger.Info("operation stats",
			"operation", s.Operation,
			"total_executions", s.TotalExecutions,
			"timeout_count", s.TimeoutCount,
			"timeout_percentage", s.TimeoutPercentage,
			"avg_duration_seconds", s.AverageDuration.Seconds(),
			"max_duration_seconds", s.MaxDuration.Seconds())
	}
}
