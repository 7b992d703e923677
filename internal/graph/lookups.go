package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/rohankatakam/actorgraph/internal/errors"
	"github.com/rohankatakam/actorgraph/internal/models"
)

// Querier runs read queries. Client implements it; tests substitute fakes.
type Querier interface {
	Read(ctx context.Context, op, query string, params map[string]any) ([]*neo4j.Record, error)
}

var _ Querier = (*Client)(nil)

// Point lookups return (nil, false, nil) when nothing matches. An empty key
// is an ErrInvalidInput error.

// GetActor looks up an actor by name_id
func (c *Client) GetActor(ctx context.Context, nameID string) (*models.Actor, bool, error) {
	node, ok, err := c.ActorNode(ctx, nameID)
	if err != nil || !ok {
		return nil, false, err
	}
	a := ActorFromNode(*node)
	return &a, true, nil
}

// ActorNode returns the raw actor node, the same shape a path carries
func (c *Client) ActorNode(ctx context.Context, nameID string) (*dbtype.Node, bool, error) {
	if nameID == "" {
		return nil, false, errors.ValidationErrorf("actor id is empty")
	}
	records, err := c.Read(ctx, OpLookup,
		`MATCH (a:Actor {name_id: $name_id}) RETURN a LIMIT 1`,
		map[string]any{"name_id": nameID})
	if err != nil {
		return nil, false, err
	}
	return firstNode(records, "a")
}

// Series carry no :Production label, so each label gets its own branch and
// both can use their title_id constraint
const productionByIDQuery = `
	CALL {
		MATCH (p:Production {title_id: $title_id}) RETURN p
		UNION
		MATCH (p:Series {title_id: $title_id}) RETURN p
	}
	RETURN p
	LIMIT 1`

// GetProduction looks up a movie, series or episode by title_id
func (c *Client) GetProduction(ctx context.Context, titleID string) (*models.Production, bool, error) {
	if titleID == "" {
		return nil, false, errors.ValidationErrorf("title id is empty")
	}
	records, err := c.Read(ctx, OpLookup, productionByIDQuery, map[string]any{"title_id": titleID})
	if err != nil {
		return nil, false, err
	}
	node, ok, err := firstNode(records, "p")
	if err != nil || !ok {
		return nil, false, err
	}
	p, ok := ProductionFromNode(*node)
	if !ok {
		return nil, false, nil
	}
	return &p, true, nil
}

// SeriesOfEpisode returns the series an episode is linked to
func (c *Client) SeriesOfEpisode(ctx context.Context, episodeID string) (*models.Series, bool, error) {
	if episodeID == "" {
		return nil, false, errors.ValidationErrorf("episode id is empty")
	}
	records, err := c.Read(ctx, OpLookup, `
		MATCH (:Episode {title_id: $episode_id})-[:EPISODE_OF]->(s:Series)
		RETURN s
		LIMIT 1`,
		map[string]any{"episode_id": episodeID})
	if err != nil {
		return nil, false, err
	}
	node, ok, err := firstNode(records, "s")
	if err != nil || !ok {
		return nil, false, err
	}
	s := SeriesFromNode(*node)
	return &s, true, nil
}

func firstNode(records []*neo4j.Record, key string) (*dbtype.Node, bool, error) {
	if len(records) == 0 {
		return nil, false, nil
	}
	v, _ := records[0].Get(key)
	node, ok := v.(dbtype.Node)
	if !ok {
		return nil, false, errors.InternalErrorf("column %q is %T, want node", key, v)
	}
	return &node, true, nil
}

// ActorFromNode maps an :Actor node to the model
func ActorFromNode(n dbtype.Node) models.Actor {
	return models.Actor{
		NameID:    PropString(n.Props, "name_id"),
		Name:      PropString(n.Props, "name"),
		BirthYear: PropInt(n.Props, "birth_year"),
		DeathYear: PropInt(n.Props, "death_year"),
	}
}

// SeriesFromNode maps a :Series node to the model
func SeriesFromNode(n dbtype.Node) models.Series {
	return models.Series{
		TitleID:   PropString(n.Props, "title_id"),
		Title:     PropString(n.Props, "title"),
		StartYear: PropInt(n.Props, "start_year"),
		EndYear:   PropInt(n.Props, "end_year"),
	}
}

// ProductionFromNode maps a production node to its tagged variant, false
// when the node is not a production
func ProductionFromNode(n dbtype.Node) (models.Production, bool) {
	kind := models.KindFromLabels(n.Labels)
	p := models.Production{Kind: kind}
	switch kind {
	case models.KindMovie:
		p.Movie = &models.Movie{
			TitleID: PropString(n.Props, "title_id"),
			Title:   PropString(n.Props, "title"),
			Year:    PropInt(n.Props, "year"),
		}
	case models.KindEpisode:
		p.Episode = &models.Episode{
			TitleID:    PropString(n.Props, "title_id"),
			Title:      PropString(n.Props, "title"),
			Year:       PropInt(n.Props, "year"),
			SeasonNum:  PropInt(n.Props, "season_num"),
			EpisodeNum: PropInt(n.Props, "episode_num"),
		}
	case models.KindSeries:
		s := SeriesFromNode(n)
		p.Series = &s
	default:
		return p, false
	}
	return p, true
}

func appliedOne(records []*neo4j.Record) bool {
	if len(records) == 0 {
		return false
	}
	return RecordCount(records[0], "applied") > 0
}
