package graph

import (
	"context"
	"fmt"
	"time"
)

// DefaultPoolSize is the driver connection pool size when none is given
const DefaultPoolSize = 50

// slowHealthCheck marks a reachable store as unhealthy
const slowHealthCheck = 5 * time.Second

// ClientOption configures NewClient
type ClientOption func(*clientOptions)

type clientOptions struct {
	poolSize int
}

// WithPoolSize sets the driver's maximum connection pool size
func WithPoolSize(n int) ClientOption {
	return func(o *clientOptions) {
		if n > 0 {
			o.poolSize = n
		}
	}
}

// PoolSizeFor sizes the pool for a load running parallelism chunk files at
// once. Each chunk transaction holds one connection; the rest covers lookups
// and the driver's routing traffic. The result stays within [10, 100].
func PoolSizeFor(parallelism int) int {
	n := parallelism * 3 / 2
	if n < 10 {
		return 10
	}
	if n > 100 {
		return 100
	}
	return n
}

// PoolHealth is the outcome of a health check
type PoolHealth struct {
	Healthy   bool          `json:"healthy" yaml:"healthy"`
	Message   string        `json:"message" yaml:"message"`
	Latency   time.Duration `json:"latency" yaml:"latency"`
	CheckedAt time.Time     `json:"checked_at" yaml:"checked_at"`
}

// CheckHealth runs HealthCheck and times it. A check slower than five
// seconds is reported unhealthy even though it succeeded.
func (c *Client) CheckHealth(ctx context.Context) (*PoolHealth, error) {
	start := time.Now()
	err := c.HealthCheck(ctx)
	status := &PoolHealth{Latency: time.Since(start), CheckedAt: time.Now()}

	switch {
	case err != nil:
		status.Message = fmt.Sprintf("health check failed: %v", err)
		return status, err
	case status.Latency > slowHealthCheck:
		status.Message = fmt.Sprintf("health check slow: %v (threshold %v)", status.Latency, slowHealthCheck)
		c.logger.Warn("slow neo4j health check", "latency", status.Latency)
		return status, nil
	}
	status.Healthy = true
	status.Message = "ok"
	return status, nil
}
