package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/rohankatakam/actorgraph/internal/batch"
	"github.com/rohankatakam/actorgraph/internal/errors"
	"github.com/rohankatakam/actorgraph/internal/models"
)

// Bulk upserts send rows with UNWIND, one write transaction per chunk. Every
// row carries its index in the chunk and each query returns the indexes it
// applied, so rows dropped by a failed endpoint MATCH can be reported.

// BatchResult summarizes one bulk upsert call. Missing holds the indexes,
// relative to the input slice, of rows that were skipped because an
// endpoint did not exist.
type BatchResult struct {
	Submitted int   `json:"submitted" yaml:"submitted"`
	Applied   int   `json:"applied" yaml:"applied"`
	Missing   []int `json:"missing,omitempty" yaml:"missing,omitempty"`
}

// Skipped returns the number of rows that were not applied
func (r BatchResult) Skipped() int {
	return r.Submitted - r.Applied
}

// Add folds other into r, shifting other's missing indexes by offset
func (r *BatchResult) Add(other BatchResult, offset int) {
	r.Submitted += other.Submitted
	r.Applied += other.Applied
	for _, i := range other.Missing {
		r.Missing = append(r.Missing, i+offset)
	}
}

const (
	upsertMoviesQuery = `
		UNWIND $rows AS row
		MERGE (m:Movie:Production {title_id: row.title_id})
		ON CREATE SET m.title = row.title, m.year = row.year
		RETURN collect(row.idx) AS applied`

	upsertEpisodesQuery = `
		UNWIND $rows AS row
		MERGE (e:Episode:Production {title_id: row.title_id})
		ON CREATE SET e.title = row.title, e.year = row.year
		RETURN collect(row.idx) AS applied`

	upsertSeriesQuery = `
		UNWIND $rows AS row
		MERGE (s:Series {title_id: row.title_id})
		ON CREATE SET s.title = row.title, s.start_year = row.start_year, s.end_year = row.end_year
		RETURN collect(row.idx) AS applied`

	upsertActorsQuery = `
		UNWIND $rows AS row
		MERGE (a:Actor:Person {name_id: row.name_id})
		ON CREATE SET a.name = row.name, a.birth_year = row.birth_year, a.death_year = row.death_year
		ON MATCH SET a.death_year = row.death_year
		RETURN collect(row.idx) AS applied`

	upsertCreditsQuery = `
		UNWIND $rows AS row
		MATCH (a:Actor {name_id: row.name_id})
		MATCH (p:Production {title_id: row.title_id})
		MERGE (a)-[r:ACTED_IN]->(p)
		SET r.roles = row.roles
		RETURN collect(row.idx) AS applied`

	// An episode belongs to one series: a link to a different series
	// replaces the old one.
	linkEpisodesQuery = `
		UNWIND $rows AS row
		MATCH (e:Episode {title_id: row.episode_id})
		MATCH (s:Series {title_id: row.series_id})
		CALL {
			WITH e, row
			OPTIONAL MATCH (e)-[old:EPISODE_OF]->(other:Series)
			WHERE other.title_id <> row.series_id
			DELETE old
		}
		SET e.season_num = row.season_num, e.episode_num = row.episode_num
		MERGE (e)-[:EPISODE_OF]->(s)
		RETURN collect(row.idx) AS applied`
)

// UpsertMovies merges :Movie:Production nodes. Existing nodes keep their
// properties.
func (c *Client) UpsertMovies(ctx context.Context, movies []models.Movie) (BatchResult, error) {
	return upsertAll(ctx, c, batch.KindMovie, upsertMoviesQuery, movies, func(m models.Movie) map[string]any {
		return map[string]any{"title_id": m.TitleID, "title": m.Title, "year": optInt(m.Year)}
	})
}

// UpsertEpisodes merges :Episode:Production nodes
func (c *Client) UpsertEpisodes(ctx context.Context, episodes []models.Episode) (BatchResult, error) {
	return upsertAll(ctx, c, batch.KindEpisode, upsertEpisodesQuery, episodes, func(e models.Episode) map[string]any {
		return map[string]any{"title_id": e.TitleID, "title": e.Title, "year": optInt(e.Year)}
	})
}

// UpsertSeries merges :Series nodes
func (c *Client) UpsertSeries(ctx context.Context, series []models.Series) (BatchResult, error) {
	return upsertAll(ctx, c, batch.KindSeries, upsertSeriesQuery, series, func(s models.Series) map[string]any {
		return map[string]any{
			"title_id":   s.TitleID,
			"title":      s.Title,
			"start_year": optInt(s.StartYear),
			"end_year":   optInt(s.EndYear),
		}
	})
}

// UpsertActors merges :Actor:Person nodes. A re-imported actor only has
// its death year refreshed.
func (c *Client) UpsertActors(ctx context.Context, actors []models.Actor) (BatchResult, error) {
	return upsertAll(ctx, c, batch.KindActor, upsertActorsQuery, actors, func(a models.Actor) map[string]any {
		return map[string]any{
			"name_id":    a.NameID,
			"name":       a.Name,
			"birth_year": optInt(a.BirthYear),
			"death_year": optInt(a.DeathYear),
		}
	})
}

// UpsertCredits merges ACTED_IN relationships. Rows whose actor or
// production does not exist are skipped and reported in Missing.
func (c *Client) UpsertCredits(ctx context.Context, credits []models.Credit) (BatchResult, error) {
	return upsertAll(ctx, c, batch.KindCredit, upsertCreditsQuery, credits, func(cr models.Credit) map[string]any {
		return map[string]any{"title_id": cr.TitleID, "name_id": cr.NameID, "roles": optString(cr.Roles)}
	})
}

// LinkEpisodes merges EPISODE_OF relationships and sets the episode
// numbering. Rows whose episode or series does not exist are skipped.
func (c *Client) LinkEpisodes(ctx context.Context, links []models.EpisodeLink) (BatchResult, error) {
	return upsertAll(ctx, c, batch.KindEpisodeLink, linkEpisodesQuery, links, func(l models.EpisodeLink) map[string]any {
		return map[string]any{
			"episode_id":  l.EpisodeID,
			"series_id":   l.SeriesID,
			"season_num":  optInt(l.SeasonNum),
			"episode_num": optInt(l.EpisodeNum),
		}
	})
}

func upsertAll[T any](ctx context.Context, c *Client, kind batch.Kind, query string, items []T, toRow func(T) map[string]any) (BatchResult, error) {
	var total BatchResult
	size := c.batches.GetBatchSizeForKind(kind)

	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))

		rows := make([]any, 0, end-start)
		for i, item := range items[start:end] {
			row := toRow(item)
			row["idx"] = int64(i)
			rows = append(rows, row)
		}

		records, _, err := c.Write(ctx, OpBulkUpsert, query, map[string]any{"rows": rows})
		if err != nil {
			return total, errors.Wrap(err, errors.GetType(err), errors.SeverityHigh,
				"bulk upsert failed").
				WithContext("kind", string(kind)).
				WithContext("range", [2]int{start, end})
		}

		res, err := chunkResult(records, len(rows))
		if err != nil {
			return total, err
		}
		if len(res.Missing) > 0 {
			c.logger.Warn("rows skipped, endpoint not found",
				"kind", kind,
				"chunk_start", start,
				"skipped", res.Skipped())
		}
		total.Add(res, start)
	}

	return total, nil
}

// chunkResult compares the applied indexes returned by an upsert with the
// number of rows submitted
func chunkResult(records []*neo4j.Record, submitted int) (BatchResult, error) {
	res := BatchResult{Submitted: submitted}
	if len(records) != 1 {
		return res, errors.InternalErrorf("bulk upsert returned %d records, want 1", len(records))
	}
	raw, _ := records[0].Get("applied")
	list, _ := raw.([]any)

	seen := make([]bool, submitted)
	for _, v := range list {
		i, ok := v.(int64)
		if !ok || i < 0 || int(i) >= submitted || seen[i] {
			continue
		}
		seen[i] = true
		res.Applied++
	}
	for i, ok := range seen {
		if !ok {
			res.Missing = append(res.Missing, i)
		}
	}
	return res, nil
}
