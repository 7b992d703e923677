package graph

import (
	"maps"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Operation names. Each selects a transaction timeout and a routing mode, and
// is sent as transaction metadata so it shows up in the server's query.log.
const (
	OpSchema         = "schema"
	OpBulkUpsert     = "bulk_upsert"
	OpSingleUpsert   = "single_upsert"
	OpLookup         = "lookup"
	OpPathQuery      = "path_query"
	OpAggregateQuery = "aggregate_query"
	OpWipe           = "wipe"
	OpPrune          = "prune"
	OpHealthCheck    = "health_check"
)

// fallbackTimeout applies to operations missing from opTimeouts
const fallbackTimeout = 60 * time.Second

// Zero means no server-side limit.
var opTimeouts = map[string]time.Duration{
	OpSchema:         5 * time.Minute, // constraint creation scans existing nodes
	OpBulkUpsert:     3 * time.Minute, // one UNWIND chunk
	OpSingleUpsert:   30 * time.Second,
	OpLookup:         15 * time.Second,
	OpPathQuery:      2 * time.Minute,
	OpAggregateQuery: 60 * time.Second,
	OpWipe:           0, // inner transactions bound memory, the sweep may take hours
	OpPrune:          30 * time.Minute,
	OpHealthCheck:    5 * time.Second,
}

// TransactionConfig is the timeout and metadata sent with one transaction
type TransactionConfig struct {
	Timeout  time.Duration
	Metadata map[string]any
}

// GetConfigForOperation builds a fresh config for operation. Callers may
// modify the result.
func GetConfigForOperation(operation string) TransactionConfig {
	timeout, ok := opTimeouts[operation]
	if !ok {
		timeout = fallbackTimeout
	}
	return TransactionConfig{
		Timeout: timeout,
		Metadata: map[string]any{
			"operation": operation,
			"type":      string(RoutingForOperation(operation)),
		},
	}
}

// WithCustomMetadata returns a copy of tc with key set
func (tc TransactionConfig) WithCustomMetadata(key string, value any) TransactionConfig {
	md := make(map[string]any, len(tc.Metadata)+1)
	maps.Copy(md, tc.Metadata)
	md[key] = value
	return TransactionConfig{Timeout: tc.Timeout, Metadata: md}
}

// AsNeo4jConfig converts tc into driver transaction options
func (tc TransactionConfig) AsNeo4jConfig() []func(*neo4j.TransactionConfig) {
	var opts []func(*neo4j.TransactionConfig)
	if tc.Timeout > 0 {
		opts = append(opts, neo4j.WithTxTimeout(tc.Timeout))
	}
	if len(tc.Metadata) > 0 {
		opts = append(opts, neo4j.WithTxMetadata(tc.Metadata))
	}
	return opts
}
