// Package graphtest connects tests to a disposable Neo4j instance.
package graphtest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"

	"github.com/rohankatakam/actorgraph/internal/graph"
	"github.com/rohankatakam/actorgraph/internal/models"
)

// Env vars naming the test instance. Every node in it is deleted.
const (
	EnvURI      = "ACTORGRAPH_TEST_NEO4J_URI"
	EnvUser     = "ACTORGRAPH_TEST_NEO4J_USER"
	EnvPassword = "ACTORGRAPH_TEST_NEO4J_PASSWORD"
)

// Connect returns a client on an empty store, skipping the test when no
// instance is configured or -short is set. The client is closed by
// t.Cleanup. Packages run in parallel under go test, so the store is held
// through a file lock until the test ends.
func Connect(t *testing.T) *graph.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping neo4j integration test in short mode")
	}
	uri := os.Getenv(EnvURI)
	if uri == "" {
		t.Skipf("%s not set", EnvURI)
	}
	user := envOr(EnvUser, "neo4j")
	password := envOr(EnvPassword, "password")

	lock(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := graph.NewClient(ctx, uri, user, password, "", graph.WithPoolSize(10))
	require.NoError(t, err)
	client.SetBatchConfig(graph.SmallBatchConfig())
	t.Cleanup(func() { _ = client.Close(context.Background()) })

	_, err = client.Wipe(ctx, 0)
	require.NoError(t, err)
	return client
}

// lock takes an exclusive flock on a shared file; bbolt acquires it on open
func lock(t *testing.T) {
	t.Helper()
	path := filepath.Join(os.TempDir(), "actorgraph-neo4j-test.lock")
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Minute})
	require.NoError(t, err, "waiting for the test store")
	t.Cleanup(func() { _ = db.Close() })
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// LoadFixture writes a small graph through the bulk upserts:
//
//	Keanu Reeves -Neo-> The Matrix <-Trinity- Carrie-Anne Moss
//	Carrie-Anne Moss -> Pilot (S1E1 of The X-Files) <-Dana Scully- Gillian Anderson
//	Nobody (nm9999999), an actor without credits
//
// One credit and one episode link point at missing nodes and are skipped.
func LoadFixture(t *testing.T, c *graph.Client) {
	t.Helper()
	ctx := context.Background()

	_, err := c.UpsertMovies(ctx, []models.Movie{{TitleID: "tt0133093", Title: "The Matrix", Year: models.Int64(1999)}})
	require.NoError(t, err)
	_, err = c.UpsertSeries(ctx, []models.Series{{TitleID: "tt0106179", Title: "The X-Files", StartYear: models.Int64(1993)}})
	require.NoError(t, err)
	_, err = c.UpsertEpisodes(ctx, []models.Episode{{TitleID: "tt0751237", Title: "Pilot", Year: models.Int64(1993)}})
	require.NoError(t, err)
	_, err = c.UpsertActors(ctx, []models.Actor{
		{NameID: "nm0000206", Name: "Keanu Reeves", BirthYear: models.Int64(1964)},
		{NameID: "nm0005251", Name: "Carrie-Anne Moss", BirthYear: models.Int64(1967)},
		{NameID: "nm0000096", Name: "Gillian Anderson", BirthYear: models.Int64(1968)},
		{NameID: "nm9999999", Name: "Nobody"},
	})
	require.NoError(t, err)

	res, err := c.UpsertCredits(ctx, []models.Credit{
		{TitleID: "tt0133093", NameID: "nm0000206", Roles: models.String("Neo")},
		{TitleID: "tt0133093", NameID: "nm0005251", Roles: models.String("Trinity")},
		{TitleID: "tt0751237", NameID: "nm0005251"},
		{TitleID: "tt0751237", NameID: "nm0000096", Roles: models.String("Dana Scully")},
		{TitleID: "tt0133093", NameID: "nm0404040"},
	})
	require.NoError(t, err)
	require.Equal(t, 5, res.Submitted)
	require.Equal(t, 4, res.Applied)
	require.Equal(t, []int{4}, res.Missing)

	res, err = c.LinkEpisodes(ctx, []models.EpisodeLink{
		{EpisodeID: "tt0751237", SeriesID: "tt0106179", SeasonNum: models.Int64(1), EpisodeNum: models.Int64(1)},
		{EpisodeID: "tt0751237", SeriesID: "tt0000404"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.Applied)
}
