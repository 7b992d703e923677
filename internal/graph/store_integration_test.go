package graph_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/actorgraph/internal/errors"
	"github.com/rohankatakam/actorgraph/internal/graph"
	"github.com/rohankatakam/actorgraph/internal/graph/graphtest"
	"github.com/rohankatakam/actorgraph/internal/models"
)

func countNodes(t *testing.T, c *graph.Client, query string) int64 {
	t.Helper()
	records, err := c.Read(context.Background(), graph.OpAggregateQuery, query, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	return graph.RecordCount(records[0], "n")
}

func TestStore_SchemaIsNotIdempotent(t *testing.T) {
	c := graphtest.Connect(t)
	ctx := context.Background()

	_ = c.DropSchema(ctx)
	require.NoError(t, c.InitSchema(ctx))
	t.Cleanup(func() { _ = c.DropSchema(context.Background()) })

	err := c.InitSchema(ctx)
	assert.ErrorIs(t, err, errors.ErrSchemaConflict)
	assert.True(t, errors.IsFatal(err))
}

func TestStore_UpsertsAreIdempotent(t *testing.T) {
	c := graphtest.Connect(t)

	graphtest.LoadFixture(t, c)
	nodes := countNodes(t, c, "MATCH (n) RETURN count(n) AS n")
	rels := countNodes(t, c, "MATCH ()-[r]->() RETURN count(r) AS n")

	graphtest.LoadFixture(t, c)
	assert.Equal(t, nodes, countNodes(t, c, "MATCH (n) RETURN count(n) AS n"))
	assert.Equal(t, rels, countNodes(t, c, "MATCH ()-[r]->() RETURN count(r) AS n"))
	assert.Equal(t, int64(7), nodes)
	assert.Equal(t, int64(5), rels)
}

func TestStore_Lookups(t *testing.T) {
	c := graphtest.Connect(t)
	ctx := context.Background()
	graphtest.LoadFixture(t, c)

	a, ok, err := c.GetActor(ctx, "nm0000206")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Keanu Reeves", a.Name)
	assert.Nil(t, a.DeathYear)

	_, ok, err = c.GetActor(ctx, "nm0404040")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = c.GetActor(ctx, "")
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	p, ok, err := c.GetProduction(ctx, "tt0751237")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.KindEpisode, p.Kind)
	assert.Equal(t, int64(1), *p.Episode.SeasonNum)

	p, ok, err = c.GetProduction(ctx, "tt0106179")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.KindSeries, p.Kind)

	s, ok, err := c.SeriesOfEpisode(ctx, "tt0751237")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "The X-Files", s.Title)
}

func TestStore_SingleUpserts(t *testing.T) {
	c := graphtest.Connect(t)
	ctx := context.Background()

	ok, err := c.AddActor(ctx, models.Actor{NameID: "nm0000206", Name: "Keanu Reeves", BirthYear: models.Int64(1964)})
	require.NoError(t, err)
	assert.True(t, ok)

	// a second import only refreshes the death year
	ok, err = c.AddActor(ctx, models.Actor{NameID: "nm0000206", Name: "Renamed", DeathYear: models.Int64(2100)})
	require.NoError(t, err)
	assert.True(t, ok)
	a, _, err := c.GetActor(ctx, "nm0000206")
	require.NoError(t, err)
	assert.Equal(t, "Keanu Reeves", a.Name)
	assert.Equal(t, int64(2100), *a.DeathYear)

	_, err = c.AddMovie(ctx, models.Movie{TitleID: "tt0133093"})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	ok, err = c.AddCredit(ctx, models.Credit{TitleID: "tt0133093", NameID: "nm0000206"})
	require.NoError(t, err)
	assert.False(t, ok, "movie does not exist yet")

	ok, err = c.AddMovie(ctx, models.Movie{TitleID: "tt0133093", Title: "The Matrix"})
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = c.AddCredit(ctx, models.Credit{TitleID: "tt0133093", NameID: "nm0000206", Roles: models.String("Neo")})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStore_EpisodeRelinkReplacesSeries(t *testing.T) {
	c := graphtest.Connect(t)
	ctx := context.Background()
	graphtest.LoadFixture(t, c)

	_, err := c.AddSeries(ctx, models.Series{TitleID: "tt0000002", Title: "Other Show"})
	require.NoError(t, err)
	ok, err := c.ConnectEpisode(ctx, models.EpisodeLink{EpisodeID: "tt0751237", SeriesID: "tt0000002"})
	require.NoError(t, err)
	assert.True(t, ok)

	s, ok, err := c.SeriesOfEpisode(ctx, "tt0751237")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tt0000002", s.TitleID)
	assert.Equal(t, int64(1), countNodes(t, c,
		"MATCH (:Episode {title_id: 'tt0751237'})-[r:EPISODE_OF]->() RETURN count(r) AS n"))
}

func TestStore_ShortestCreditPath(t *testing.T) {
	c := graphtest.Connect(t)
	ctx := context.Background()
	graphtest.LoadFixture(t, c)

	path, ok, err := c.ShortestCreditPath(ctx, "nm0000206", "nm0000096", 20)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, path.Relationships, 4)
	assert.Len(t, path.Nodes, 5)

	_, ok, err = c.ShortestCreditPath(ctx, "nm0000206", "nm0000096", 3)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = c.ShortestCreditPath(ctx, "nm0000206", "nm9999999", 20)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_PruneOrphans(t *testing.T) {
	c := graphtest.Connect(t)
	ctx := context.Background()
	graphtest.LoadFixture(t, c)

	deleted, err := c.PruneOrphans(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, ok, err := c.GetActor(ctx, "nm9999999")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = c.GetActor(ctx, "nm0000206")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStore_HealthCheck(t *testing.T) {
	c := graphtest.Connect(t)
	assert.NoError(t, c.HealthCheck(context.Background()))

	health, err := c.CheckHealth(context.Background())
	require.NoError(t, err)
	assert.True(t, health.Healthy)
	assert.Equal(t, "ok", health.Message)
}
