// Package connection finds the shortest chain of shared credits between two
// actors.
package connection

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/rohankatakam/actorgraph/internal/config"
	"github.com/rohankatakam/actorgraph/internal/errors"
	"github.com/rohankatakam/actorgraph/internal/graph"
	"github.com/rohankatakam/actorgraph/internal/models"
)

// DefaultHops replaces any hop bound outside [1, config.MaxHops]
const DefaultHops = 20

// ClampHops bounds traversal cost. Out-of-range values fall back to
// DefaultHops rather than to the nearest bound.
func ClampHops(n int) int {
	if n < 1 || n > config.MaxHops {
		return DefaultHops
	}
	return n
}

// ParseHops clamps a textual hop bound; anything that is not an integer
// becomes DefaultHops
func ParseHops(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return DefaultHops
	}
	return ClampHops(n)
}

// PathStore is the subset of the graph store the finder traverses
type PathStore interface {
	ShortestCreditPath(ctx context.Context, actorID1, actorID2 string, maxHops int) (*neo4j.Path, bool, error)
	ActorNode(ctx context.Context, nameID string) (*dbtype.Node, bool, error)
	SeriesOfEpisode(ctx context.Context, episodeID string) (*models.Series, bool, error)
}

// TotalsSource computes per-actor appearance totals
type TotalsSource interface {
	ActorTotals(ctx context.Context, actorID string) (*models.AppearanceTotals, bool, error)
}

var _ PathStore = (*graph.Client)(nil)

// Finder turns a shortest credit path into segments
type Finder struct {
	store  PathStore
	totals TotalsSource
	logger *slog.Logger
}

// NewFinder creates a Finder
func NewFinder(store PathStore, totals TotalsSource) *Finder {
	return &Finder{
		store:  store,
		totals: totals,
		logger: slog.Default().With("component", "connection"),
	}
}

// Find returns the shortest credit chain between two actors. The chain
// starts and ends with an actor segment and alternates actor, role,
// production, role. When several shortest chains exist the store decides
// which one is returned, and repeated calls may differ.
func (f *Finder) Find(ctx context.Context, actorID1, actorID2 string, maxHops int) (Result, error) {
	if actorID1 == "" || actorID2 == "" {
		return Result{Valid: false}, nil
	}
	hops := ClampHops(maxHops)
	if hops != maxHops {
		f.logger.Debug("hop bound clamped", "requested", maxHops, "used", hops)
	}

	if actorID1 == actorID2 {
		return f.sameActor(ctx, actorID1)
	}

	path, ok, err := f.store.ShortestCreditPath(ctx, actorID1, actorID2, hops)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{Valid: true, Segments: []Segment{}}, nil
	}

	segments, err := f.segments(ctx, path)
	if err != nil {
		return Result{}, err
	}
	f.logger.Debug("connection found",
		"from", actorID1,
		"to", actorID2,
		"steps", Steps(segments))
	return Result{Valid: true, Segments: segments}, nil
}

// sameActor is the zero-length path. The store rejects shortestPath with
// identical ends, so the actor is looked up directly.
func (f *Finder) sameActor(ctx context.Context, actorID string) (Result, error) {
	node, ok, err := f.store.ActorNode(ctx, actorID)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{Valid: true, Segments: []Segment{}}, nil
	}
	seg, err := f.actorSegment(ctx, *node)
	if err != nil {
		return Result{}, err
	}
	return Result{Valid: true, Segments: []Segment{seg}}, nil
}

// segments walks nodes and relationships in lockstep: node 0, rel 0,
// node 1, rel 1, ... node n
func (f *Finder) segments(ctx context.Context, path *neo4j.Path) ([]Segment, error) {
	if len(path.Nodes) != len(path.Relationships)+1 {
		return nil, errors.InternalErrorf("malformed path: %d nodes, %d relationships",
			len(path.Nodes), len(path.Relationships))
	}

	out := make([]Segment, 0, len(path.Nodes)+len(path.Relationships))
	for i, node := range path.Nodes {
		if i > 0 {
			rel := path.Relationships[i-1]
			out = append(out, Segment{
				Kind: SegmentRole,
				Role: &RoleSegment{Roles: graph.PropOptString(rel.Props, "roles")},
			})
		}
		seg, err := f.nodeSegment(ctx, node)
		if err != nil {
			return nil, err
		}
		out = append(out, seg)
	}
	return out, nil
}

func (f *Finder) nodeSegment(ctx context.Context, node dbtype.Node) (Segment, error) {
	if graph.HasLabel(node, models.LabelActor) {
		return f.actorSegment(ctx, node)
	}

	p, ok := graph.ProductionFromNode(node)
	if !ok {
		return Segment{}, errors.InternalErrorf("unexpected node in credit path: labels %v", node.Labels)
	}
	switch p.Kind {
	case models.KindMovie:
		return Segment{
			Kind: SegmentMovie,
			Movie: &MovieSegment{
				TitleID: p.Movie.TitleID,
				Title:   p.Movie.Title,
				Year:    p.Movie.Year,
			},
		}, nil
	case models.KindEpisode:
		return f.episodeSegment(ctx, *p.Episode)
	default:
		return Segment{}, errors.InternalErrorf("%s node in credit path", p.Kind)
	}
}

func (f *Finder) actorSegment(ctx context.Context, node dbtype.Node) (Segment, error) {
	a := graph.ActorFromNode(node)
	seg := &ActorSegment{
		NameID:    a.NameID,
		Name:      a.Name,
		BirthYear: a.BirthYear,
		DeathYear: a.DeathYear,
	}
	totals, ok, err := f.totals.ActorTotals(ctx, a.NameID)
	if err != nil {
		return Segment{}, err
	}
	if ok {
		seg.AppearanceTotals = *totals
	}
	return Segment{Kind: SegmentActor, Actor: seg}, nil
}

func (f *Finder) episodeSegment(ctx context.Context, e models.Episode) (Segment, error) {
	seg := &EpisodeSegment{
		EpisodeID:    e.TitleID,
		EpisodeTitle: e.Title,
		Year:         e.Year,
		SeasonNum:    e.SeasonNum,
		EpisodeNum:   e.EpisodeNum,
	}
	series, ok, err := f.store.SeriesOfEpisode(ctx, e.TitleID)
	if err != nil {
		return Segment{}, err
	}
	if ok {
		seg.ParentSeries = series.Title
		seg.ParentSeriesID = series.TitleID
	} else {
		f.logger.Warn("episode has no series", "episode_id", e.TitleID)
	}
	return Segment{Kind: SegmentEpisode, Episode: seg}, nil
}
