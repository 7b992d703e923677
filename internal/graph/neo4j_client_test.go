package graph

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/actorgraph/internal/errors"
	"github.com/rohankatakam/actorgraph/internal/models"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errors.ErrorType
	}{
		{
			name: "constraint already exists",
			err:  &neo4j.Neo4jError{Code: "Neo.ClientError.Schema.EquivalentSchemaRuleAlreadyExists", Msg: "exists"},
			want: errors.ErrorTypeSchemaConflict,
		},
		{
			name: "drop missing index",
			err:  &neo4j.Neo4jError{Code: "Neo.DatabaseError.Schema.IndexDropFailed", Msg: "no such index"},
			want: errors.ErrorTypeSchemaConflict,
		},
		{
			name: "syntax error",
			err:  &neo4j.Neo4jError{Code: "Neo.ClientError.Statement.SyntaxError", Msg: "bad"},
			want: errors.ErrorTypeDatabase,
		},
		{
			name: "wrapped schema error",
			err:  fmt.Errorf("run: %w", &neo4j.Neo4jError{Code: "Neo.ClientError.Schema.ConstraintAlreadyExists"}),
			want: errors.ErrorTypeSchemaConflict,
		},
		{
			name: "deadline",
			err:  context.DeadlineExceeded,
			want: errors.ErrorTypeDatabase,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError(OpSchema, tt.err)
			assert.Equal(t, tt.want, errors.GetType(got))
			assert.ErrorIs(t, got, tt.err)
		})
	}

	conflict := classifyError(OpSchema, &neo4j.Neo4jError{Code: "Neo.ClientError.Schema.IndexAlreadyExists"})
	assert.ErrorIs(t, conflict, errors.ErrSchemaConflict)
	assert.True(t, errors.IsFatal(conflict))
}

func TestRoutingForOperation(t *testing.T) {
	for _, op := range []string{OpSchema, OpBulkUpsert, OpSingleUpsert, OpWipe, OpPrune} {
		assert.Equal(t, RoutingWrite, RoutingForOperation(op), op)
	}
	for _, op := range []string{OpLookup, OpPathQuery, OpAggregateQuery, OpHealthCheck} {
		assert.Equal(t, RoutingRead, RoutingForOperation(op), op)
	}
}

func TestProductionByIDQueryMatchesLabels(t *testing.T) {
	// every MATCH names a label, so title_id lookups go through a constraint index
	matches := regexp.MustCompile(`MATCH \((\w*)([^)]*)\)`).FindAllStringSubmatch(productionByIDQuery, -1)
	require.Len(t, matches, 2)
	for _, m := range matches {
		assert.Regexp(t, `^:(Production|Series) \{title_id: \$title_id\}$`, m[2])
	}
}

func TestClientClose(t *testing.T) {
	var nilClient *Client
	assert.NoError(t, nilClient.Close(context.Background()))

	// the driver dials lazily, so no server is needed
	driver, err := neo4j.NewDriverWithContext("bolt://localhost:7687", neo4j.NoAuth())
	require.NoError(t, err)
	c := newClient(driver, "neo4j")
	assert.NoError(t, c.Close(context.Background()))
	assert.NoError(t, c.Close(context.Background()))
}

func TestCheckRouting(t *testing.T) {
	assert.NoError(t, checkRouting(OpLookup, RoutingRead))
	assert.NoError(t, checkRouting(OpLookup, RoutingWrite))
	assert.NoError(t, checkRouting(OpBulkUpsert, RoutingWrite))

	err := checkRouting(OpWipe, RoutingRead)
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeInternal, errors.GetType(err))
}

func TestTransactionConfigs(t *testing.T) {
	assert.Zero(t, GetConfigForOperation(OpWipe).Timeout)
	assert.Equal(t, 60*time.Second, GetConfigForOperation("unknown").Timeout)

	cfg := GetConfigForOperation(OpPathQuery).WithCustomMetadata("hops", 20)
	assert.Equal(t, 20, cfg.Metadata["hops"])
	assert.Equal(t, OpPathQuery, cfg.Metadata["operation"])
	// the table entry is not mutated
	_, ok := GetConfigForOperation(OpPathQuery).Metadata["hops"]
	assert.False(t, ok)
}

func TestTimeoutMonitor(t *testing.T) {
	tm := NewTimeoutMonitor()

	_, err := tm.MonitorQueryExecution(context.Background(), OpLookup, time.Second, func() error { return nil })
	assert.NoError(t, err)
	_, err = tm.MonitorQueryExecution(context.Background(), OpLookup, time.Second, func() error {
		return context.DeadlineExceeded
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	_, err = tm.MonitorQueryExecution(context.Background(), OpWipe, 0, func() error { return nil })
	assert.NoError(t, err)

	stats, ok := tm.Tracker().GetStats(OpLookup)
	assert.True(t, ok)
	assert.Equal(t, 2, stats.TotalExecutions)
	assert.Equal(t, 1, stats.TimeoutCount)
	assert.InDelta(t, 50.0, stats.TimeoutPercentage, 0.001)

	snapshot := tm.Tracker().Snapshot()
	if assert.Len(t, snapshot, 2) {
		assert.Equal(t, OpLookup, snapshot[0].Operation)
		assert.Equal(t, OpWipe, snapshot[1].Operation)
	}

	_, ok = tm.Tracker().GetStats(OpPrune)
	assert.False(t, ok)
}

func TestProductionFromNode(t *testing.T) {
	episode := dbtype.Node{
		Labels: []string{"Episode", "Production"},
		Props: map[string]any{
			"title_id":    "tt0959621",
			"title":       "Pilot",
			"year":        int64(2008),
			"season_num":  int64(1),
			"episode_num": int64(1),
		},
	}
	p, ok := ProductionFromNode(episode)
	assert.True(t, ok)
	assert.Equal(t, models.KindEpisode, p.Kind)
	assert.Nil(t, p.Movie)
	if assert.NotNil(t, p.Episode) {
		assert.Equal(t, "Pilot", p.Episode.Title)
		assert.Equal(t, int64(1), *p.Episode.SeasonNum)
	}
	assert.Equal(t, "tt0959621", p.TitleID())

	movie := dbtype.Node{Labels: []string{"Production", "Movie"}, Props: map[string]any{"title_id": "tt0133093", "title": "The Matrix"}}
	p, ok = ProductionFromNode(movie)
	assert.True(t, ok)
	assert.Equal(t, models.KindMovie, p.Kind)
	assert.Nil(t, p.Movie.Year)

	series := dbtype.Node{Labels: []string{"Series"}, Props: map[string]any{"title_id": "tt0903747", "title": "Breaking Bad", "start_year": int64(2008)}}
	p, ok = ProductionFromNode(series)
	assert.True(t, ok)
	assert.Equal(t, int64(2008), *p.Series.StartYear)

	_, ok = ProductionFromNode(dbtype.Node{Labels: []string{"Actor", "Person"}})
	assert.False(t, ok)
}

func TestRecordHelpers(t *testing.T) {
	rec := &neo4j.Record{
		Keys:   []string{"name", "birth_year", "death_year", "n"},
		Values: []any{"Keanu Reeves", int64(1964), nil, int64(7)},
	}
	assert.Equal(t, "Keanu Reeves", RecordString(rec, "name"))
	by, ok := RecordInt(rec, "birth_year")
	assert.True(t, ok)
	assert.Equal(t, int64(1964), *by)
	dy, ok := RecordInt(rec, "death_year")
	assert.True(t, ok)
	assert.Nil(t, dy)
	assert.Equal(t, int64(7), RecordCount(rec, "n"))
	assert.Equal(t, int64(0), RecordCount(rec, "missing"))
}

func TestRequireFields(t *testing.T) {
	assert.NoError(t, requireFields("actor", "nm0000206", "Keanu Reeves"))
	assert.ErrorIs(t, requireFields("actor", "nm0000206", ""), errors.ErrInvalidInput)
	assert.ErrorIs(t, requireFields("actor", `\N`, "x"), errors.ErrInvalidInput)
}

func TestPoolSizeFor(t *testing.T) {
	tests := []struct {
		parallelism int
		want        int
	}{
		{0, 10},
		{4, 10},
		{8, 12},
		{40, 60},
		{200, 100},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("parallelism_%d", tt.parallelism), func(t *testing.T) {
			assert.Equal(t, tt.want, PoolSizeFor(tt.parallelism))
		})
	}

	o := clientOptions{poolSize: DefaultPoolSize}
	WithPoolSize(0)(&o)
	assert.Equal(t, DefaultPoolSize, o.poolSize)
	WithPoolSize(12)(&o)
	assert.Equal(t, 12, o.poolSize)
}
