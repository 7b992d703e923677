package connection

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/actorgraph/internal/models"
)

type fakeStore struct {
	path     *neo4j.Path
	actors   map[string]dbtype.Node
	series   map[string]models.Series
	pathErr  error
	gotHops  []int
	pathRuns int
}

func (f *fakeStore) ShortestCreditPath(_ context.Context, _, _ string, maxHops int) (*neo4j.Path, bool, error) {
	f.pathRuns++
	f.gotHops = append(f.gotHops, maxHops)
	if f.pathErr != nil {
		return nil, false, f.pathErr
	}
	if f.path == nil || len(f.path.Relationships) > maxHops {
		return nil, false, nil
	}
	return f.path, true, nil
}

func (f *fakeStore) ActorNode(_ context.Context, nameID string) (*dbtype.Node, bool, error) {
	n, ok := f.actors[nameID]
	if !ok {
		return nil, false, nil
	}
	return &n, true, nil
}

func (f *fakeStore) SeriesOfEpisode(_ context.Context, episodeID string) (*models.Series, bool, error) {
	s, ok := f.series[episodeID]
	if !ok {
		return nil, false, nil
	}
	return &s, true, nil
}

type fakeTotals map[string]models.AppearanceTotals

func (f fakeTotals) ActorTotals(_ context.Context, actorID string) (*models.AppearanceTotals, bool, error) {
	t, ok := f[actorID]
	if !ok {
		return nil, false, nil
	}
	return &t, true, nil
}

var (
	keanu = dbtype.Node{Labels: []string{"Actor", "Person"}, Props: map[string]any{
		"name_id": "nm0000206", "name": "Keanu Reeves", "birth_year": int64(1964),
	}}
	carrie = dbtype.Node{Labels: []string{"Person", "Actor"}, Props: map[string]any{
		"name_id": "nm0005251", "name": "Carrie-Anne Moss", "birth_year": int64(1967),
	}}
	gillian = dbtype.Node{Labels: []string{"Actor", "Person"}, Props: map[string]any{
		"name_id": "nm0000096", "name": "Gillian Anderson", "birth_year": int64(1968),
	}}
	matrix = dbtype.Node{Labels: []string{"Movie", "Production"}, Props: map[string]any{
		"title_id": "tt0133093", "title": "The Matrix", "year": int64(1999),
	}}
	pilot = dbtype.Node{Labels: []string{"Production", "Episode"}, Props: map[string]any{
		"title_id": "tt0751237", "title": "Pilot", "year": int64(1993),
		"season_num": int64(1), "episode_num": int64(1),
	}}
)

func actedIn(roles any) dbtype.Relationship {
	props := map[string]any{}
	if roles != nil {
		props["roles"] = roles
	}
	return dbtype.Relationship{Type: "ACTED_IN", Props: props}
}

func fixtureFinder() (*Finder, *fakeStore) {
	store := &fakeStore{
		path: &neo4j.Path{
			Nodes:         []dbtype.Node{keanu, matrix, carrie, pilot, gillian},
			Relationships: []dbtype.Relationship{actedIn("Neo"), actedIn("Trinity"), actedIn(nil), actedIn("Dana Scully")},
		},
		actors: map[string]dbtype.Node{"nm0000206": keanu},
		series: map[string]models.Series{"tt0751237": {TitleID: "tt0106179", Title: "The X-Files"}},
	}
	totals := fakeTotals{
		"nm0000206": {MovieCount: 1},
		"nm0005251": {MovieCount: 1, EpisodeCount: 1, SeriesCount: 1},
		"nm0000096": {EpisodeCount: 1, SeriesCount: 1},
	}
	return NewFinder(store, totals), store
}

func TestFind_Segments(t *testing.T) {
	f, _ := fixtureFinder()

	res, err := f.Find(context.Background(), "nm0000206", "nm0000096", 20)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.True(t, res.Found())

	want := []Segment{
		{Kind: SegmentActor, Actor: &ActorSegment{
			NameID: "nm0000206", Name: "Keanu Reeves", BirthYear: models.Int64(1964),
			AppearanceTotals: models.AppearanceTotals{MovieCount: 1},
		}},
		{Kind: SegmentRole, Role: &RoleSegment{Roles: models.String("Neo")}},
		{Kind: SegmentMovie, Movie: &MovieSegment{TitleID: "tt0133093", Title: "The Matrix", Year: models.Int64(1999)}},
		{Kind: SegmentRole, Role: &RoleSegment{Roles: models.String("Trinity")}},
		{Kind: SegmentActor, Actor: &ActorSegment{
			NameID: "nm0005251", Name: "Carrie-Anne Moss", BirthYear: models.Int64(1967),
			AppearanceTotals: models.AppearanceTotals{MovieCount: 1, EpisodeCount: 1, SeriesCount: 1},
		}},
		{Kind: SegmentRole, Role: &RoleSegment{}},
		{Kind: SegmentEpisode, Episode: &EpisodeSegment{
			EpisodeID: "tt0751237", EpisodeTitle: "Pilot", Year: models.Int64(1993),
			SeasonNum: models.Int64(1), EpisodeNum: models.Int64(1),
			ParentSeries: "The X-Files", ParentSeriesID: "tt0106179",
		}},
		{Kind: SegmentRole, Role: &RoleSegment{Roles: models.String("Dana Scully")}},
		{Kind: SegmentActor, Actor: &ActorSegment{
			NameID: "nm0000096", Name: "Gillian Anderson", BirthYear: models.Int64(1968),
			AppearanceTotals: models.AppearanceTotals{EpisodeCount: 1, SeriesCount: 1},
		}},
	}
	if diff := cmp.Diff(want, res.Segments); diff != "" {
		t.Errorf("segments mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2, Steps(res.Segments))
	assert.Equal(t, SegmentActor, res.Segments[0].Kind)
	assert.Equal(t, SegmentActor, res.Segments[len(res.Segments)-1].Kind)
}

func TestFind_EmptyIDIsInvalid(t *testing.T) {
	f, store := fixtureFinder()
	for _, ids := range [][2]string{{"", "nm0000096"}, {"nm0000206", ""}, {"", ""}} {
		res, err := f.Find(context.Background(), ids[0], ids[1], 20)
		require.NoError(t, err)
		assert.False(t, res.Valid)
		assert.Nil(t, res.Segments)
	}
	assert.Zero(t, store.pathRuns)
}

func TestFind_NoPathIsValidAndEmpty(t *testing.T) {
	f, _ := fixtureFinder()
	res, err := f.Find(context.Background(), "nm0000206", "nm0000096", 3)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.NotNil(t, res.Segments)
	assert.Empty(t, res.Segments)
	assert.False(t, res.Found())
}

func TestFind_SameActor(t *testing.T) {
	f, store := fixtureFinder()
	res, err := f.Find(context.Background(), "nm0000206", "nm0000206", 20)
	require.NoError(t, err)
	require.Len(t, res.Segments, 1)
	assert.Equal(t, SegmentActor, res.Segments[0].Kind)
	assert.Equal(t, "Keanu Reeves", res.Segments[0].Actor.Name)
	assert.Equal(t, 0, Steps(res.Segments))
	assert.Zero(t, store.pathRuns)

	res, err = f.Find(context.Background(), "nm0404040", "nm0404040", 20)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Segments)
}

func TestFind_HopClamp(t *testing.T) {
	f, store := fixtureFinder()
	for _, hops := range []int{0, 200, 35, -1, 50, 1} {
		_, err := f.Find(context.Background(), "nm0000206", "nm0000096", hops)
		require.NoError(t, err)
	}
	assert.Equal(t, []int{20, 20, 35, 20, 50, 1}, store.gotHops)
}

func TestFind_StoreError(t *testing.T) {
	f, store := fixtureFinder()
	boom := stderrors.New("unavailable")
	store.pathErr = boom
	_, err := f.Find(context.Background(), "nm0000206", "nm0000096", 20)
	assert.ErrorIs(t, err, boom)
}

func TestFind_UnlinkedEpisode(t *testing.T) {
	f, store := fixtureFinder()
	store.series = nil
	res, err := f.Find(context.Background(), "nm0000206", "nm0000096", 20)
	require.NoError(t, err)
	ep := res.Segments[6].Episode
	require.NotNil(t, ep)
	assert.Empty(t, ep.ParentSeries)
	assert.Empty(t, ep.ParentSeriesID)
}

func TestFind_MalformedPath(t *testing.T) {
	f, store := fixtureFinder()
	store.path = &neo4j.Path{Nodes: []dbtype.Node{keanu, matrix}, Relationships: []dbtype.Relationship{actedIn("Neo"), actedIn("x")}}
	_, err := f.Find(context.Background(), "nm0000206", "nm0000096", 20)
	assert.Error(t, err)
}

func TestClampHops(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 20}, {1, 1}, {20, 20}, {35, 35}, {50, 50}, {51, 20}, {200, 20}, {-5, 20},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampHops(tt.in), "ClampHops(%d)", tt.in)
	}
	assert.Equal(t, 35, ParseHops("35"))
	assert.Equal(t, 20, ParseHops("3.5"))
	assert.Equal(t, 20, ParseHops("many"))
}

func TestSteps(t *testing.T) {
	assert.Equal(t, 0, Steps(nil))
	assert.Equal(t, 0, Steps([]Segment{{Kind: SegmentActor}}))
	assert.Equal(t, 1, Steps([]Segment{{Kind: SegmentActor}, {Kind: SegmentRole}, {Kind: SegmentMovie}, {Kind: SegmentRole}, {Kind: SegmentActor}}))
}
