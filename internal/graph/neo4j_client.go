package graph

import (
	"context"
	stderrors "errors"
	"log/slog"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/rohankatakam/actorgraph/internal/errors"
)

// appName tags every transaction so the server's query log can attribute it
const appName = "actorgraph"

// Client wraps the Neo4j driver. A Client is acquired once per command and
// released with Close on every exit path.
type Client struct {
	driver   neo4j.DriverWithContext
	logger   *slog.Logger
	database string
	monitor  *TimeoutMonitor
	batches  BatchConfig
}

// NewClient connects to Neo4j and verifies connectivity before returning
func NewClient(ctx context.Context, uri, user, password, database string, opts ...ClientOption) (*Client, error) {
	if uri == "" || user == "" || password == "" {
		return nil, errors.ConfigErrorf("neo4j credentials missing: uri=%s, user=%s", uri, user)
	}

	o := clientOptions{poolSize: DefaultPoolSize}
	for _, opt := range opts {
		opt(&o)
	}

	driver, err := neo4j.NewDriverWithContext(uri,
		neo4j.BasicAuth(user, password, ""),
		func(config *neo4j.Config) {
			config.MaxConnectionPoolSize = o.poolSize
			config.ConnectionAcquisitionTimeout = 60 * time.Second
			config.MaxConnectionLifetime = time.Hour
			config.ConnectionLivenessCheckTimeout = 5 * time.Second
			config.SocketConnectTimeout = 5 * time.Second
			config.SocketKeepalive = true
		})
	if err != nil {
		return nil, errors.DatabaseErrorf(err, "failed to create neo4j driver")
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, errors.DatabaseErrorf(err, "failed to connect to neo4j at %s", uri)
	}

	c := newClient(driver, database)
	c.logger.Info("neo4j client connected",
		"uri", uri,
		"user", user,
		"database", database,
		"pool_size", o.poolSize)
	return c, nil
}

func newClient(driver neo4j.DriverWithContext, database string) *Client {
	return &Client{
		driver:   driver,
		logger:   slog.Default().With("component", "neo4j"),
		database: database,
		monitor:  NewTimeoutMonitor(),
		batches:  DefaultBatchConfig(),
	}
}

// Close closes the Neo4j driver. It is a no-op on a nil or already closed
// client.
func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.driver == nil {
		return nil
	}
	err := c.driver.Close(ctx)
	c.driver = nil
	if err != nil {
		return errors.DatabaseErrorf(err, "failed to close neo4j driver")
	}
	c.logger.Debug("neo4j client closed")
	return nil
}

// HealthCheck verifies connectivity and that the database answers a query
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.driver.VerifyConnectivity(ctx); err != nil {
		return errors.DatabaseErrorf(err, "neo4j health check failed")
	}
	if _, err := c.Read(ctx, OpHealthCheck, "RETURN 1 AS ok", nil); err != nil {
		return err
	}
	return nil
}

// Database returns the configured database name
func (c *Client) Database() string {
	return c.database
}

// SetBatchConfig sets the chunk sizes used by the bulk upserts
func (c *Client) SetBatchConfig(bc BatchConfig) {
	c.batches = bc.WithDefaults()
}

// BatchConfig returns the chunk sizes used by the bulk upserts
func (c *Client) BatchConfig() BatchConfig {
	return c.batches
}

// Timeouts returns per-operation execution statistics
func (c *Client) Timeouts() *TimeoutTracker {
	return c.monitor.Tracker()
}

type queryOutput struct {
	records []*neo4j.Record
	summary neo4j.ResultSummary
}

// Read runs query in a managed read transaction routed to readers
func (c *Client) Read(ctx context.Context, op, query string, params map[string]any) ([]*neo4j.Record, error) {
	out, err := c.execute(ctx, op, RoutingRead, query, params)
	if err != nil {
		return nil, err
	}
	return out.records, nil
}

// Write runs query in a managed write transaction. Transient failures are
// retried by the driver, so query must be idempotent.
func (c *Client) Write(ctx context.Context, op, query string, params map[string]any) ([]*neo4j.Record, neo4j.ResultSummary, error) {
	out, err := c.execute(ctx, op, RoutingWrite, query, params)
	if err != nil {
		return nil, nil, err
	}
	return out.records, out.summary, nil
}

func (c *Client) execute(ctx context.Context, op string, mode RoutingMode, query string, params map[string]any) (queryOutput, error) {
	if err := checkRouting(op, mode); err != nil {
		return queryOutput{}, err
	}
	cfg := GetConfigForOperation(op).WithCustomMetadata("app", appName)
	session := SessionWithRouting(ctx, c.driver, mode, c.database)
	defer session.Close(ctx)

	work := func(tx neo4j.ManagedTransaction) (queryOutput, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return queryOutput{}, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return queryOutput{}, err
		}
		summary, err := res.Consume(ctx)
		if err != nil {
			return queryOutput{}, err
		}
		return queryOutput{records: records, summary: summary}, nil
	}

	var out queryOutput
	_, err := c.monitor.MonitorQueryExecution(ctx, op, cfg.Timeout, func() error {
		var err error
		if mode == RoutingWrite {
			out, err = neo4j.ExecuteWrite(ctx, session, work, cfg.AsNeo4jConfig()...)
		} else {
			out, err = neo4j.ExecuteRead(ctx, session, work, cfg.AsNeo4jConfig()...)
		}
		return err
	})
	if err != nil {
		return queryOutput{}, classifyError(op, err)
	}
	return out, nil
}

// AutoCommit runs query in an implicit transaction. Schema commands and
// CALL { ... } IN TRANSACTIONS cannot run inside a managed transaction.
func (c *Client) AutoCommit(ctx context.Context, op, query string, params map[string]any) (neo4j.ResultSummary, error) {
	cfg := GetConfigForOperation(op).WithCustomMetadata("app", appName)
	session := SessionWithRouting(ctx, c.driver, RoutingWrite, c.database)
	defer session.Close(ctx)

	var summary neo4j.ResultSummary
	_, err := c.monitor.MonitorQueryExecution(ctx, op, cfg.Timeout, func() error {
		res, err := session.Run(ctx, query, params, cfg.AsNeo4jConfig()...)
		if err != nil {
			return err
		}
		summary, err = res.Consume(ctx)
		return err
	})
	if err != nil {
		return nil, classifyError(op, err)
	}
	return summary, nil
}

// classifyError maps schema rule failures (already exists, equivalent rule,
// not found on drop) to SchemaConflict and everything else to Database
func classifyError(op string, err error) error {
	var neoErr *neo4j.Neo4jError
	if stderrors.As(err, &neoErr) && isSchemaCode(neoErr.Code) {
		return errors.SchemaConflictf(err, "%s: %s", op, neoErr.Code)
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.DatabaseErrorf(err, "%s query interrupted", op)
	}
	return errors.DatabaseErrorf(err, "%s query failed", op)
}

func isSchemaCode(code string) bool {
	return strings.HasPrefix(code, "Neo.ClientError.Schema.") ||
		strings.HasPrefix(code, "Neo.DatabaseError.Schema.")
}
