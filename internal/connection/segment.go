package connection

import "github.com/rohankatakam/actorgraph/internal/models"

// SegmentKind tags a Segment
type SegmentKind string

const (
	SegmentActor   SegmentKind = "actor"
	SegmentRole    SegmentKind = "role"
	SegmentMovie   SegmentKind = "movie"
	SegmentEpisode SegmentKind = "episode"
)

// Segment is one step of a connection. Exactly one payload is set, the
// one matching Kind.
type Segment struct {
	Kind    SegmentKind     `json:"type" yaml:"type"`
	Actor   *ActorSegment   `json:"actor,omitempty" yaml:"actor,omitempty"`
	Role    *RoleSegment    `json:"role,omitempty" yaml:"role,omitempty"`
	Movie   *MovieSegment   `json:"movie,omitempty" yaml:"movie,omitempty"`
	Episode *EpisodeSegment `json:"episode,omitempty" yaml:"episode,omitempty"`
}

// ActorSegment carries the actor and totals computed at query time
type ActorSegment struct {
	NameID                  string `json:"name_id" yaml:"name_id"`
	Name                    string `json:"name" yaml:"name"`
	BirthYear               *int64 `json:"birth_year" yaml:"birth_year"`
	DeathYear               *int64 `json:"death_year" yaml:"death_year"`
	models.AppearanceTotals `yaml:",inline"`
}

// RoleSegment carries the credit's roles, nil when none were recorded
type RoleSegment struct {
	Roles *string `json:"roles" yaml:"roles"`
}

type MovieSegment struct {
	TitleID string `json:"title_id" yaml:"title_id"`
	Title   string `json:"title" yaml:"title"`
	Year    *int64 `json:"year" yaml:"year"`
}

// EpisodeSegment carries the episode and its parent series. The series
// fields are empty for an episode that was never linked.
type EpisodeSegment struct {
	EpisodeID      string `json:"episode_id" yaml:"episode_id"`
	EpisodeTitle   string `json:"episode_title" yaml:"episode_title"`
	Year           *int64 `json:"year" yaml:"year"`
	SeasonNum      *int64 `json:"season_num" yaml:"season_num"`
	EpisodeNum     *int64 `json:"episode_num" yaml:"episode_num"`
	ParentSeries   string `json:"parent_series" yaml:"parent_series"`
	ParentSeriesID string `json:"parent_series_id" yaml:"parent_series_id"`
}

// Result is the outcome of a connection search. Valid is false when an
// actor id was missing. A valid result with no segments means no path
// exists within the hop bound.
type Result struct {
	Valid    bool      `json:"valid" yaml:"valid"`
	Segments []Segment `json:"segments" yaml:"segments"`
}

// Found reports whether a path was found
func (r Result) Found() bool {
	return r.Valid && len(r.Segments) > 0
}

// Steps counts actor-to-actor hops, two credits each
func Steps(segments []Segment) int {
	actors := 0
	for _, s := range segments {
		if s.Kind == SegmentActor {
			actors++
		}
	}
	if actors == 0 {
		return 0
	}
	return actors - 1
}
