package batch

import (
	"strconv"

	"github.com/rohankatakam/actorgraph/internal/models"
	"github.com/rohankatakam/actorgraph/internal/normalize"
)

// Codec maps one record type to and from its batch file row. Decode reports
// false when a required field is missing.
type Codec[T any] struct {
	Kind   Kind
	Encode func(T) []string
	Decode func(normalize.Row) (T, bool)
	// Key identifies the record in skip reports
	Key func(T) string
}

var MovieCodec = Codec[models.Movie]{
	Kind: KindMovie,
	Encode: func(m models.Movie) []string {
		return []string{m.TitleID, m.Title, formatInt(m.Year)}
	},
	Decode: func(r normalize.Row) (models.Movie, bool) {
		m := models.Movie{TitleID: r.Get("title_id"), Title: r.Get("title"), Year: normalize.NullableInt(r.Get("year"))}
		return m, m.TitleID != "" && m.Title != ""
	},
	Key: func(m models.Movie) string { return m.TitleID },
}

var EpisodeCodec = Codec[models.Episode]{
	Kind: KindEpisode,
	Encode: func(e models.Episode) []string {
		return []string{e.TitleID, e.Title, formatInt(e.Year)}
	},
	Decode: func(r normalize.Row) (models.Episode, bool) {
		e := models.Episode{TitleID: r.Get("title_id"), Title: r.Get("title"), Year: normalize.NullableInt(r.Get("year"))}
		return e, e.TitleID != "" && e.Title != ""
	},
	Key: func(e models.Episode) string { return e.TitleID },
}

var SeriesCodec = Codec[models.Series]{
	Kind: KindSeries,
	Encode: func(s models.Series) []string {
		return []string{s.TitleID, s.Title, formatInt(s.StartYear), formatInt(s.EndYear)}
	},
	Decode: func(r normalize.Row) (models.Series, bool) {
		s := models.Series{
			TitleID:   r.Get("title_id"),
			Title:     r.Get("title"),
			StartYear: normalize.NullableInt(r.Get("start_year")),
			EndYear:   normalize.NullableInt(r.Get("end_year")),
		}
		return s, s.TitleID != "" && s.Title != ""
	},
	Key: func(s models.Series) string { return s.TitleID },
}

var ActorCodec = Codec[models.Actor]{
	Kind: KindActor,
	Encode: func(a models.Actor) []string {
		return []string{a.NameID, a.Name, formatInt(a.BirthYear), formatInt(a.DeathYear)}
	},
	Decode: func(r normalize.Row) (models.Actor, bool) {
		a := models.Actor{
			NameID:    r.Get("name_id"),
			Name:      r.Get("name"),
			BirthYear: normalize.NullableInt(r.Get("birth_year")),
			DeathYear: normalize.NullableInt(r.Get("death_year")),
		}
		return a, a.NameID != "" && a.Name != ""
	},
	Key: func(a models.Actor) string { return a.NameID },
}

var CreditCodec = Codec[models.Credit]{
	Kind: KindCredit,
	Encode: func(c models.Credit) []string {
		roles := ""
		if c.Roles != nil {
			roles = *c.Roles
		}
		return []string{c.TitleID, c.NameID, roles}
	},
	Decode: func(r normalize.Row) (models.Credit, bool) {
		c := models.Credit{
			TitleID: r.Get("title_id"),
			NameID:  r.Get("name_id"),
			Roles:   normalize.Nullable(r.Get("roles")),
		}
		return c, c.TitleID != "" && c.NameID != ""
	},
	Key: func(c models.Credit) string { return c.NameID + "->" + c.TitleID },
}

var EpisodeLinkCodec = Codec[models.EpisodeLink]{
	Kind: KindEpisodeLink,
	Encode: func(l models.EpisodeLink) []string {
		return []string{l.EpisodeID, l.SeriesID, formatInt(l.SeasonNum), formatInt(l.EpisodeNum)}
	},
	Decode: func(r normalize.Row) (models.EpisodeLink, bool) {
		l := models.EpisodeLink{
			EpisodeID:  r.Get("episode_id"),
			SeriesID:   r.Get("series_id"),
			SeasonNum:  normalize.NullableInt(r.Get("season_num")),
			EpisodeNum: normalize.NullableInt(r.Get("episode_num")),
		}
		return l, l.EpisodeID != "" && l.SeriesID != ""
	},
	Key: func(l models.EpisodeLink) string { return l.EpisodeID + "->" + l.SeriesID },
}

func formatInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}
