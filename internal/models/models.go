package models

// Node labels and relationship types used in the graph
const (
	LabelPerson     = "Person"
	LabelActor      = "Actor"
	LabelProduction = "Production"
	LabelMovie      = "Movie"
	LabelEpisode    = "Episode"
	LabelSeries     = "Series"

	RelActedIn   = "ACTED_IN"
	RelEpisodeOf = "EPISODE_OF"
)

// ProductionKind discriminates the production variants
type ProductionKind string

const (
	KindNone    ProductionKind = ""
	KindMovie   ProductionKind = "movie"
	KindSeries  ProductionKind = "series"
	KindEpisode ProductionKind = "episode"
)

// Label returns the variant label for a production kind
func (k ProductionKind) Label() string {
	switch k {
	case KindMovie:
		return LabelMovie
	case KindSeries:
		return LabelSeries
	case KindEpisode:
		return LabelEpisode
	default:
		return ""
	}
}

// Title is a classified title.basics row. Year doubles as the series start year.
type Title struct {
	TitleID string         `json:"title_id" yaml:"title_id"`
	Title   string         `json:"title" yaml:"title"`
	Kind    ProductionKind `json:"kind" yaml:"kind"`
	Year    *int64         `json:"year,omitempty" yaml:"year,omitempty"`
	EndYear *int64         `json:"end_year,omitempty" yaml:"end_year,omitempty"`
}

// Movie returns the movie view of the title
func (t Title) Movie() Movie {
	return Movie{TitleID: t.TitleID, Title: t.Title, Year: t.Year}
}

// Episode returns the episode view of the title
func (t Title) Episode() Episode {
	return Episode{TitleID: t.TitleID, Title: t.Title, Year: t.Year}
}

// Series returns the series view of the title
func (t Title) Series() Series {
	return Series{TitleID: t.TitleID, Title: t.Title, StartYear: t.Year, EndYear: t.EndYear}
}

// Movie is a :Movie:Production node
type Movie struct {
	TitleID string `json:"title_id" yaml:"title_id"`
	Title   string `json:"title" yaml:"title"`
	Year    *int64 `json:"year,omitempty" yaml:"year,omitempty"`
}

// Series is a :Series node
type Series struct {
	TitleID   string `json:"title_id" yaml:"title_id"`
	Title     string `json:"title" yaml:"title"`
	StartYear *int64 `json:"start_year,omitempty" yaml:"start_year,omitempty"`
	EndYear   *int64 `json:"end_year,omitempty" yaml:"end_year,omitempty"`
}

// Episode is an :Episode:Production node. Season and episode numbers are set
// when the episode is linked to its series.
type Episode struct {
	TitleID    string `json:"title_id" yaml:"title_id"`
	Title      string `json:"title" yaml:"title"`
	Year       *int64 `json:"year,omitempty" yaml:"year,omitempty"`
	SeasonNum  *int64 `json:"season_num,omitempty" yaml:"season_num,omitempty"`
	EpisodeNum *int64 `json:"episode_num,omitempty" yaml:"episode_num,omitempty"`
}

// Actor is an :Actor:Person node
type Actor struct {
	NameID    string `json:"name_id" yaml:"name_id"`
	Name      string `json:"name" yaml:"name"`
	BirthYear *int64 `json:"birth_year,omitempty" yaml:"birth_year,omitempty"`
	DeathYear *int64 `json:"death_year,omitempty" yaml:"death_year,omitempty"`
}

// Credit is an ACTED_IN relationship. Roles is the comma-joined character
// list, nil when the source had none.
type Credit struct {
	TitleID string  `json:"title_id" yaml:"title_id"`
	NameID  string  `json:"name_id" yaml:"name_id"`
	Roles   *string `json:"roles,omitempty" yaml:"roles,omitempty"`
}

// EpisodeLink is an EPISODE_OF relationship plus the episode's numbering
type EpisodeLink struct {
	EpisodeID  string `json:"episode_id" yaml:"episode_id"`
	SeriesID   string `json:"series_id" yaml:"series_id"`
	SeasonNum  *int64 `json:"season_num,omitempty" yaml:"season_num,omitempty"`
	EpisodeNum *int64 `json:"episode_num,omitempty" yaml:"episode_num,omitempty"`
}

// AppearanceTotals counts the distinct productions an actor has credits in
type AppearanceTotals struct {
	MovieCount   int64 `json:"movie_count" yaml:"movie_count"`
	EpisodeCount int64 `json:"episode_count" yaml:"episode_count"`
	SeriesCount  int64 `json:"series_count" yaml:"series_count"`
}

// Int64 returns a pointer to v
func Int64(v int64) *int64 { return &v }

// String returns a pointer to v
func String(v string) *string { return &v }

// Production is the tagged form of any production node. Exactly one of
// Movie, Series and Episode is set, matching Kind.
type Production struct {
	Kind    ProductionKind `json:"kind" yaml:"kind"`
	Movie   *Movie         `json:"movie,omitempty" yaml:"movie,omitempty"`
	Series  *Series        `json:"series,omitempty" yaml:"series,omitempty"`
	Episode *Episode       `json:"episode,omitempty" yaml:"episode,omitempty"`
}

// TitleID returns the key of whichever variant is set
func (p Production) TitleID() string {
	switch {
	case p.Movie != nil:
		return p.Movie.TitleID
	case p.Series != nil:
		return p.Series.TitleID
	case p.Episode != nil:
		return p.Episode.TitleID
	}
	return ""
}

// KindFromLabels classifies a node by its variant label, KindNone for
// actors and unknown nodes
func KindFromLabels(labels []string) ProductionKind {
	for _, l := range labels {
		switch l {
		case LabelMovie:
			return KindMovie
		case LabelEpisode:
			return KindEpisode
		case LabelSeries:
			return KindSeries
		}
	}
	return KindNone
}
