// Package aggregate answers per-actor and whole-graph count queries.
package aggregate

import (
	"context"
	"log/slog"
	"math/rand/v2"

	"github.com/rohankatakam/actorgraph/internal/errors"
	"github.com/rohankatakam/actorgraph/internal/graph"
	"github.com/rohankatakam/actorgraph/internal/models"
)

const (
	// An actor with no movie and no episode credits yields no row
	actorTotalsQuery = `
		MATCH (a:Actor {name_id: $actor_id})
		OPTIONAL MATCH (a)-[:ACTED_IN]->(m:Movie)
		OPTIONAL MATCH (a)-[:ACTED_IN]->(e:Episode)
		OPTIONAL MATCH (e)-[:EPISODE_OF]->(s:Series)
		WITH count(DISTINCT m) AS movie_count,
		     count(DISTINCT e) AS episode_count,
		     count(DISTINCT s) AS series_count
		WHERE movie_count + episode_count > 0
		RETURN movie_count, episode_count, series_count`

	actorInfoQuery = `
		MATCH (a:Actor {name_id: $actor_id})
		OPTIONAL MATCH (a)-[:ACTED_IN]->(m:Movie)
		OPTIONAL MATCH (a)-[:ACTED_IN]->(e:Episode)
		OPTIONAL MATCH (e)-[:EPISODE_OF]->(s:Series)
		WITH a.name_id AS name_id,
		     a.name AS name,
		     a.birth_year AS birth_year,
		     a.death_year AS death_year,
		     count(DISTINCT m) AS movie_count,
		     count(DISTINCT e) AS episode_count,
		     count(DISTINCT s) AS series_count
		WHERE movie_count + episode_count > 0
		RETURN name_id, name, birth_year, death_year, movie_count, episode_count, series_count`

	resolveActorQuery = `
		MATCH (a:Actor {name: $name})-[r:ACTED_IN]->()
		WITH a.name_id AS name_id, count(DISTINCT r) AS credit_count
		RETURN name_id
		ORDER BY credit_count DESC
		LIMIT 1`

	actorNameExistsQuery = `
		RETURN EXISTS {
			MATCH (:Actor {name: $name})-[:ACTED_IN]->(:Production)
		} AS exists`

	actorIDExistsQuery = `
		RETURN EXISTS {
			MATCH (:Actor {name_id: $actor_id})-[:ACTED_IN]->(:Production)
		} AS exists`

	graphTotalsQuery = `
		RETURN COUNT { (:Actor) } AS actors,
		       COUNT { (:Movie) } AS movies,
		       COUNT { (:Episode) } AS episodes,
		       COUNT { (:Series) } AS series,
		       COUNT { ()-[:ACTED_IN]->() } AS credits`

	creditCountQuery = `
		MATCH ()-[r:ACTED_IN]->()
		RETURN count(r) AS credits`

	// Credits are visited in store order; the offset picks one uniformly
	creditAtOffsetQuery = `
		MATCH (a:Actor)-[:ACTED_IN]->()
		RETURN a.name_id AS name_id, a.name AS name
		SKIP $offset
		LIMIT 1`
)

// ActorInfo is an actor's properties plus their appearance totals
type ActorInfo struct {
	models.Actor            `yaml:",inline"`
	models.AppearanceTotals `yaml:",inline"`
}

// ActorRef identifies an actor
type ActorRef struct {
	NameID string `json:"name_id" yaml:"name_id"`
	Name   string `json:"name" yaml:"name"`
}

// GraphTotals counts the whole graph
type GraphTotals struct {
	Actors   int64 `json:"actor_count" yaml:"actor_count"`
	Movies   int64 `json:"movie_count" yaml:"movie_count"`
	Episodes int64 `json:"episode_count" yaml:"episode_count"`
	Series   int64 `json:"series_count" yaml:"series_count"`
	Credits  int64 `json:"role_count" yaml:"role_count"`
}

// Service runs aggregate queries. It holds no state between calls and is
// safe for concurrent use.
type Service struct {
	q      graph.Querier
	logger *slog.Logger
	// randN returns a value in [0, n)
	randN func(n int64) int64
}

// Option configures a Service
type Option func(*Service)

// WithRandom replaces the offset source used by RandomActor
func WithRandom(randN func(n int64) int64) Option {
	return func(s *Service) { s.randN = randN }
}

// NewService creates a Service reading through q
func NewService(q graph.Querier, opts ...Option) *Service {
	s := &Service{
		q:      q,
		logger: slog.Default().With("component", "aggregate"),
		randN:  rand.Int64N,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ActorTotals counts the distinct movies, episodes and series (through
// episodes) an actor has credits in. An actor without movie or episode
// credits is reported as not found.
func (s *Service) ActorTotals(ctx context.Context, actorID string) (*models.AppearanceTotals, bool, error) {
	if actorID == "" {
		return nil, false, errors.ValidationErrorf("actor id is empty")
	}
	records, err := s.q.Read(ctx, graph.OpAggregateQuery, actorTotalsQuery, map[string]any{"actor_id": actorID})
	if err != nil {
		return nil, false, err
	}
	if len(records) == 0 {
		return nil, false, nil
	}
	rec := records[0]
	return &models.AppearanceTotals{
		MovieCount:   graph.RecordCount(rec, "movie_count"),
		EpisodeCount: graph.RecordCount(rec, "episode_count"),
		SeriesCount:  graph.RecordCount(rec, "series_count"),
	}, true, nil
}

// ActorInfo returns an actor with totals in one round trip. The same
// credit filter as ActorTotals applies.
func (s *Service) ActorInfo(ctx context.Context, actorID string) (*ActorInfo, bool, error) {
	if actorID == "" {
		return nil, false, errors.ValidationErrorf("actor id is empty")
	}
	records, err := s.q.Read(ctx, graph.OpAggregateQuery, actorInfoQuery, map[string]any{"actor_id": actorID})
	if err != nil {
		return nil, false, err
	}
	if len(records) == 0 {
		return nil, false, nil
	}
	rec := records[0]
	birth, _ := graph.RecordInt(rec, "birth_year")
	death, _ := graph.RecordInt(rec, "death_year")
	return &ActorInfo{
		Actor: models.Actor{
			NameID:    graph.RecordString(rec, "name_id"),
			Name:      graph.RecordString(rec, "name"),
			BirthYear: birth,
			DeathYear: death,
		},
		AppearanceTotals: models.AppearanceTotals{
			MovieCount:   graph.RecordCount(rec, "movie_count"),
			EpisodeCount: graph.RecordCount(rec, "episode_count"),
			SeriesCount:  graph.RecordCount(rec, "series_count"),
		},
	}, true, nil
}

// ResolveActorID returns the name_id of the actor with exactly this name
// and the most credits. Ties go to whichever the store returns first.
func (s *Service) ResolveActorID(ctx context.Context, name string) (string, bool, error) {
	if name == "" {
		return "", false, errors.ValidationErrorf("actor name is empty")
	}
	records, err := s.q.Read(ctx, graph.OpAggregateQuery, resolveActorQuery, map[string]any{"name": name})
	if err != nil {
		return "", false, err
	}
	if len(records) == 0 {
		return "", false, nil
	}
	id := graph.RecordString(records[0], "name_id")
	return id, id != "", nil
}

// ActorNameExists reports whether an actor with this name has at least one
// credit. An empty name does not exist.
func (s *Service) ActorNameExists(ctx context.Context, name string) (bool, error) {
	if name == "" {
		return false, nil
	}
	return s.exists(ctx, actorNameExistsQuery, map[string]any{"name": name})
}

// ActorIDExists reports whether the actor has at least one credit
func (s *Service) ActorIDExists(ctx context.Context, actorID string) (bool, error) {
	if actorID == "" {
		return false, nil
	}
	return s.exists(ctx, actorIDExistsQuery, map[string]any{"actor_id": actorID})
}

func (s *Service) exists(ctx context.Context, query string, params map[string]any) (bool, error) {
	records, err := s.q.Read(ctx, graph.OpAggregateQuery, query, params)
	if err != nil {
		return false, err
	}
	if len(records) == 0 {
		return false, nil
	}
	v, _ := records[0].Get("exists")
	b, _ := v.(bool)
	return b, nil
}

// GraphTotals counts actors, movies, episodes, series and credits
func (s *Service) GraphTotals(ctx context.Context) (*GraphTotals, error) {
	records, err := s.q.Read(ctx, graph.OpAggregateQuery, graphTotalsQuery, nil)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.InternalErrorf("graph totals returned no row")
	}
	rec := records[0]
	return &GraphTotals{
		Actors:   graph.RecordCount(rec, "actors"),
		Movies:   graph.RecordCount(rec, "movies"),
		Episodes: graph.RecordCount(rec, "episodes"),
		Series:   graph.RecordCount(rec, "series"),
		Credits:  graph.RecordCount(rec, "credits"),
	}, nil
}

// RandomActor picks a credit uniformly and returns its actor, so actors
// with more credits are proportionally more likely. Reports false on an
// empty graph.
func (s *Service) RandomActor(ctx context.Context) (*ActorRef, bool, error) {
	records, err := s.q.Read(ctx, graph.OpAggregateQuery, creditCountQuery, nil)
	if err != nil {
		return nil, false, err
	}
	var credits int64
	if len(records) > 0 {
		credits = graph.RecordCount(records[0], "credits")
	}
	if credits == 0 {
		return nil, false, nil
	}

	offset := s.randN(credits)
	s.logger.Debug("random credit picked", "offset", offset, "credits", credits)

	records, err = s.q.Read(ctx, graph.OpAggregateQuery, creditAtOffsetQuery, map[string]any{"offset": offset})
	if err != nil {
		return nil, false, err
	}
	// credits removed between the two reads
	if len(records) == 0 {
		return nil, false, nil
	}
	return &ActorRef{
		NameID: graph.RecordString(records[0], "name_id"),
		Name:   graph.RecordString(records[0], "name"),
	}, true, nil
}
