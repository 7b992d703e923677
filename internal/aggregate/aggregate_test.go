package aggregate

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/actorgraph/internal/errors"
	"github.com/rohankatakam/actorgraph/internal/graph"
)

type call struct {
	op     string
	query  string
	params map[string]any
}

// fakeQuerier answers each query with the records registered for the first
// matching query fragment
type fakeQuerier struct {
	answers map[string][]*neo4j.Record
	err     error
	calls   []call
}

func (f *fakeQuerier) Read(_ context.Context, op, query string, params map[string]any) ([]*neo4j.Record, error) {
	f.calls = append(f.calls, call{op: op, query: query, params: params})
	if f.err != nil {
		return nil, f.err
	}
	for fragment, records := range f.answers {
		if strings.Contains(query, fragment) {
			return records, nil
		}
	}
	return nil, nil
}

func record(kv ...any) *neo4j.Record {
	rec := &neo4j.Record{}
	for i := 0; i < len(kv); i += 2 {
		rec.Keys = append(rec.Keys, kv[i].(string))
		rec.Values = append(rec.Values, kv[i+1])
	}
	return rec
}

var _ graph.Querier = (*fakeQuerier)(nil)

func TestActorTotals(t *testing.T) {
	q := &fakeQuerier{answers: map[string][]*neo4j.Record{
		"RETURN movie_count": {record("movie_count", int64(1), "episode_count", int64(0), "series_count", int64(0))},
	}}
	s := NewService(q)

	totals, ok, err := s.ActorTotals(context.Background(), "nm0000206")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1), totals.MovieCount)
	assert.Equal(t, int64(0), totals.EpisodeCount)
	assert.Equal(t, int64(0), totals.SeriesCount)

	require.Len(t, q.calls, 1)
	assert.Equal(t, graph.OpAggregateQuery, q.calls[0].op)
	assert.Equal(t, "nm0000206", q.calls[0].params["actor_id"])
	assert.Contains(t, q.calls[0].query, "movie_count + episode_count > 0")
}

func TestActorTotals_NoRowIsNotFound(t *testing.T) {
	s := NewService(&fakeQuerier{})
	totals, ok, err := s.ActorTotals(context.Background(), "nm0000001")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, totals)
}

func TestActorInfo(t *testing.T) {
	q := &fakeQuerier{answers: map[string][]*neo4j.Record{
		"RETURN name_id, name": {record(
			"name_id", "nm0000206",
			"name", "Keanu Reeves",
			"birth_year", int64(1964),
			"death_year", nil,
			"movie_count", int64(1),
			"episode_count", int64(0),
			"series_count", int64(0),
		)},
	}}
	s := NewService(q)

	info, ok, err := s.ActorInfo(context.Background(), "nm0000206")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Keanu Reeves", info.Name)
	assert.Equal(t, int64(1964), *info.BirthYear)
	assert.Nil(t, info.DeathYear)
	assert.Equal(t, int64(1), info.MovieCount)
	assert.Equal(t, int64(0), info.EpisodeCount)
	assert.Equal(t, int64(0), info.SeriesCount)
}

func TestEmptyKeys(t *testing.T) {
	q := &fakeQuerier{}
	s := NewService(q)
	ctx := context.Background()

	_, _, err := s.ActorInfo(ctx, "")
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
	_, _, err = s.ActorTotals(ctx, "")
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
	_, _, err = s.ResolveActorID(ctx, "")
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	ok, err := s.ActorNameExists(ctx, "")
	assert.NoError(t, err)
	assert.False(t, ok)
	ok, err = s.ActorIDExists(ctx, "")
	assert.NoError(t, err)
	assert.False(t, ok)

	assert.Empty(t, q.calls, "no query for empty keys")
}

func TestResolveActorID(t *testing.T) {
	q := &fakeQuerier{answers: map[string][]*neo4j.Record{
		"ORDER BY credit_count DESC": {record("name_id", "nm0000129")},
	}}
	s := NewService(q)

	id, ok, err := s.ResolveActorID(context.Background(), "Tom Cruise")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "nm0000129", id)
	assert.Equal(t, "Tom Cruise", q.calls[0].params["name"])

	_, ok, err = NewService(&fakeQuerier{}).ResolveActorID(context.Background(), "Nobody")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExists(t *testing.T) {
	q := &fakeQuerier{answers: map[string][]*neo4j.Record{
		"name: $name": {record("exists", true)},
		"name_id: $actor_id": {record("exists", false)},
	}}
	s := NewService(q)

	ok, err := s.ActorNameExists(context.Background(), "Keanu Reeves")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.ActorIDExists(context.Background(), "nm0000206")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGraphTotals(t *testing.T) {
	q := &fakeQuerier{answers: map[string][]*neo4j.Record{
		"COUNT {": {record(
			"actors", int64(3),
			"movies", int64(2),
			"episodes", int64(5),
			"series", int64(1),
			"credits", int64(9),
		)},
	}}
	totals, err := NewService(q).GraphTotals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, GraphTotals{Actors: 3, Movies: 2, Episodes: 5, Series: 1, Credits: 9}, *totals)

	_, err = NewService(&fakeQuerier{}).GraphTotals(context.Background())
	assert.Error(t, err)
}

func TestRandomActor(t *testing.T) {
	q := &fakeQuerier{answers: map[string][]*neo4j.Record{
		"RETURN count(r) AS credits": {record("credits", int64(10))},
		"SKIP $offset":               {record("name_id", "nm0000206", "name", "Keanu Reeves")},
	}}
	var gotN int64
	s := NewService(q, WithRandom(func(n int64) int64 {
		gotN = n
		return 7
	}))

	ref, ok, err := s.RandomActor(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ActorRef{NameID: "nm0000206", Name: "Keanu Reeves"}, *ref)
	assert.Equal(t, int64(10), gotN)
	require.Len(t, q.calls, 2)
	assert.Equal(t, int64(7), q.calls[1].params["offset"])
}

func TestRandomActor_EmptyGraph(t *testing.T) {
	q := &fakeQuerier{answers: map[string][]*neo4j.Record{
		"RETURN count(r) AS credits": {record("credits", int64(0))},
	}}
	s := NewService(q, WithRandom(func(int64) int64 {
		t.Fatal("offset must not be drawn for an empty graph")
		return 0
	}))
	_, ok, err := s.RandomActor(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, q.calls, 1)
}

func TestStoreErrorsPropagate(t *testing.T) {
	boom := stderrors.New("connection reset")
	s := NewService(&fakeQuerier{err: boom})

	_, _, err := s.ActorInfo(context.Background(), "nm0000206")
	assert.ErrorIs(t, err, boom)
	_, err = s.GraphTotals(context.Background())
	assert.ErrorIs(t, err, boom)
	_, _, err = s.RandomActor(context.Background())
	assert.ErrorIs(t, err, boom)
}
