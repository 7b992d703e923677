package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/rohankatakam/actorgraph/internal/errors"
)

// ShortestCreditPath returns one shortest undirected ACTED_IN path between
// two actors of at most maxHops relationships, or (nil, false, nil) when
// none exists. Among equal-length paths the store picks one; which one is
// not stable.
//
// The store refuses a shortest path whose ends are the same node, so the
// caller handles the same-actor case.
func (c *Client) ShortestCreditPath(ctx context.Context, actorID1, actorID2 string, maxHops int) (*neo4j.Path, bool, error) {
	if actorID1 == "" || actorID2 == "" {
		return nil, false, errors.ValidationErrorf("actor id is empty")
	}
	query, err := shortestPathQuery(maxHops)
	if err != nil {
		return nil, false, err
	}

	records, err := c.Read(ctx, OpPathQuery, query, map[string]any{
		"actor_id_1": actorID1,
		"actor_id_2": actorID2,
	})
	if err != nil {
		return nil, false, err
	}
	if len(records) == 0 {
		return nil, false, nil
	}

	v, _ := records[0].Get("path")
	path, ok := v.(neo4j.Path)
	if !ok {
		return nil, false, errors.InternalErrorf("path column is %T, want path", v)
	}
	return &path, true, nil
}
