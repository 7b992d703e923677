package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/rohankatakam/actorgraph/internal/errors"
)

// RoutingMode selects the cluster members a session talks to. On a single
// instance both modes reach the same server.
type RoutingMode string

const (
	RoutingRead  RoutingMode = "read"
	RoutingWrite RoutingMode = "write"
)

var writeOperations = map[string]bool{
	OpSchema:       true,
	OpBulkUpsert:   true,
	OpSingleUpsert: true,
	OpWipe:         true,
	OpPrune:        true,
}

// RoutingForOperation is RoutingWrite for loading and admin operations and
// RoutingRead for lookups, aggregates and path queries
func RoutingForOperation(operation string) RoutingMode {
	if writeOperations[operation] {
		return RoutingWrite
	}
	return RoutingRead
}

// checkRouting rejects a write operation sent through a read session, which
// a cluster follower would refuse only after the query ran
func checkRouting(op string, mode RoutingMode) error {
	if mode == RoutingRead && RoutingForOperation(op) == RoutingWrite {
		return errors.InternalErrorf("operation %s writes but was routed to readers", op)
	}
	return nil
}

// SessionWithRouting opens a session on database with the access mode of mode
func SessionWithRouting(ctx context.Context, driver neo4j.DriverWithContext, mode RoutingMode, database string) neo4j.SessionWithContext {
	access := neo4j.AccessModeRead
	if mode == RoutingWrite {
		access = neo4j.AccessModeWrite
	}
	return driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: database, AccessMode: access})
}
