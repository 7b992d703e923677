package graph

import (
	"context"

	"github.com/rohankatakam/actorgraph/internal/errors"
	"github.com/rohankatakam/actorgraph/internal/models"
)

// Single-record upserts for admin use. Each returns (true, nil) when the
// record was written and (false, nil) when a relationship endpoint is
// missing. A missing required field is an ErrInvalidInput error and no
// query is sent.

func requireFields(kind string, fields ...string) error {
	for _, f := range fields {
		if f == "" || f == `\N` {
			return errors.ValidationErrorf("%s: required field missing", kind)
		}
	}
	return nil
}

// AddActor merges one actor. An existing actor only has its death year
// refreshed.
func (c *Client) AddActor(ctx context.Context, a models.Actor) (bool, error) {
	if err := requireFields("actor", a.NameID, a.Name); err != nil {
		return false, err
	}
	_, _, err := c.Write(ctx, OpSingleUpsert, `
		MERGE (a:Actor:Person {name_id: $name_id})
		ON CREATE SET a.name = $name, a.birth_year = $birth_year, a.death_year = $death_year
		ON MATCH SET a.death_year = $death_year`,
		map[string]any{
			"name_id":    a.NameID,
			"name":       a.Name,
			"birth_year": optInt(a.BirthYear),
			"death_year": optInt(a.DeathYear),
		})
	return err == nil, err
}

// AddMovie creates a movie unless one with the same key exists
func (c *Client) AddMovie(ctx context.Context, m models.Movie) (bool, error) {
	if err := requireFields("movie", m.TitleID, m.Title); err != nil {
		return false, err
	}
	_, _, err := c.Write(ctx, OpSingleUpsert, `
		MERGE (m:Movie:Production {title_id: $title_id})
		ON CREATE SET m.title = $title, m.year = $year`,
		map[string]any{"title_id": m.TitleID, "title": m.Title, "year": optInt(m.Year)})
	return err == nil, err
}

// AddSeries creates a series unless one with the same key exists
func (c *Client) AddSeries(ctx context.Context, s models.Series) (bool, error) {
	if err := requireFields("series", s.TitleID, s.Title); err != nil {
		return false, err
	}
	_, _, err := c.Write(ctx, OpSingleUpsert, `
		MERGE (s:Series {title_id: $title_id})
		ON CREATE SET s.title = $title, s.start_year = $start_year, s.end_year = $end_year`,
		map[string]any{
			"title_id":   s.TitleID,
			"title":      s.Title,
			"start_year": optInt(s.StartYear),
			"end_year":   optInt(s.EndYear),
		})
	return err == nil, err
}

// AddEpisode creates an episode unless one with the same key exists.
// Numbering is set by ConnectEpisode.
func (c *Client) AddEpisode(ctx context.Context, e models.Episode) (bool, error) {
	if err := requireFields("episode", e.TitleID, e.Title); err != nil {
		return false, err
	}
	_, _, err := c.Write(ctx, OpSingleUpsert, `
		MERGE (e:Episode:Production {title_id: $title_id})
		ON CREATE SET e.title = $title, e.year = $year`,
		map[string]any{"title_id": e.TitleID, "title": e.Title, "year": optInt(e.Year)})
	return err == nil, err
}

// AddCredit merges an ACTED_IN relationship and overwrites its roles
func (c *Client) AddCredit(ctx context.Context, cr models.Credit) (bool, error) {
	if err := requireFields("credit", cr.TitleID, cr.NameID); err != nil {
		return false, err
	}
	records, _, err := c.Write(ctx, OpSingleUpsert, `
		MATCH (a:Actor {name_id: $name_id})
		MATCH (p:Production {title_id: $title_id})
		MERGE (a)-[r:ACTED_IN]->(p)
		SET r.roles = $roles
		RETURN count(r) AS applied`,
		map[string]any{"title_id": cr.TitleID, "name_id": cr.NameID, "roles": optString(cr.Roles)})
	if err != nil {
		return false, err
	}
	return appliedOne(records), nil
}

// ConnectEpisode links an episode to its series and sets its numbering
func (c *Client) ConnectEpisode(ctx context.Context, l models.EpisodeLink) (bool, error) {
	if err := requireFields("episode link", l.EpisodeID, l.SeriesID); err != nil {
		return false, err
	}
	res, err := c.LinkEpisodes(ctx, []models.EpisodeLink{l})
	if err != nil {
		return false, err
	}
	return res.Applied == 1, nil
}
