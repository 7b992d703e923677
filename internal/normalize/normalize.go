// Package normalize turns raw dataset rows into typed records, rejecting rows
// the graph never stores.
package normalize

import (
	"strconv"
	"strings"

	"github.com/rohankatakam/actorgraph/internal/models"
)

// NullSentinel marks an intentionally absent value in the dataset exports
const NullSentinel = `\N`

// Rejection explains why a row was not emitted. The zero value means accepted.
type Rejection string

const (
	Accepted           Rejection = ""
	RejectMissingField Rejection = "missing_required_field"
	RejectGenre        Rejection = "excluded_genre"
	RejectTitleType    Rejection = "unsupported_title_type"
	RejectProfession   Rejection = "not_an_actor"
	RejectCategory     Rejection = "not_an_acting_credit"
)

// OK reports whether the row was accepted
func (r Rejection) OK() bool { return r == Accepted }

var excludedGenres = map[string]bool{
	"Documentary": true,
	"News":        true,
	"Game-Show":   true,
	"Talk-Show":   true,
	"Reality-TV":  true,
	"Adult":       true,
}

var actingTags = map[string]bool{
	"actor":   true,
	"actress": true,
}

// Nullable maps the null sentinel and the empty string to nil
func Nullable(v string) *string {
	if v == "" || v == NullSentinel {
		return nil
	}
	return &v
}

// NullableInt parses an optional integer field. Absent and non-numeric
// values both yield nil.
func NullableInt(v string) *int64 {
	s := Nullable(strings.TrimSpace(v))
	if s == nil {
		return nil
	}
	n, err := strconv.ParseInt(*s, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

func required(vals ...string) bool {
	for _, v := range vals {
		if Nullable(v) == nil {
			return false
		}
	}
	return true
}

// TitleKind classifies a titleType tag
func TitleKind(titleType string) models.ProductionKind {
	switch titleType {
	case "movie", "tvMovie":
		return models.KindMovie
	case "tvSeries", "tvMiniSeries":
		return models.KindSeries
	case "tvEpisode":
		return models.KindEpisode
	default:
		return models.KindNone
	}
}

// GenreExcluded reports whether a comma-separated genre list hits the
// excluded set
func GenreExcluded(genres string) bool {
	for _, g := range strings.Split(genres, ",") {
		if excludedGenres[strings.TrimSpace(g)] {
			return true
		}
	}
	return false
}

func hasTag(list string, tags map[string]bool) bool {
	for _, t := range strings.Split(list, ",") {
		if tags[strings.TrimSpace(t)] {
			return true
		}
	}
	return false
}

// ParseTitle reads a title.basics row
func ParseTitle(r Row) (models.Title, Rejection) {
	if GenreExcluded(r.Get("genres")) {
		return models.Title{}, RejectGenre
	}
	kind := TitleKind(r.Get("titleType"))
	if kind == models.KindNone {
		return models.Title{}, RejectTitleType
	}
	id, title := r.Get("tconst"), r.Get("primaryTitle")
	if !required(id, title) {
		return models.Title{}, RejectMissingField
	}

	t := models.Title{
		TitleID: id,
		Title:   title,
		Kind:    kind,
		Year:    NullableInt(r.Get("startYear")),
	}
	if kind == models.KindSeries {
		t.EndYear = NullableInt(r.Get("endYear"))
	}
	return t, Accepted
}

// ParseEpisodeLink reads a title.episode row
func ParseEpisodeLink(r Row) (models.EpisodeLink, Rejection) {
	id, parent := r.Get("tconst"), r.Get("parentTconst")
	if !required(id, parent) {
		return models.EpisodeLink{}, RejectMissingField
	}
	return models.EpisodeLink{
		EpisodeID:  id,
		SeriesID:   parent,
		SeasonNum:  NullableInt(r.Get("seasonNumber")),
		EpisodeNum: NullableInt(r.Get("episodeNumber")),
	}, Accepted
}

// ParsePerson reads a name.basics row, keeping only people with an acting
// profession
func ParsePerson(r Row) (models.Actor, Rejection) {
	if !hasTag(r.Get("primaryProfession"), actingTags) {
		return models.Actor{}, RejectProfession
	}
	id, name := r.Get("nconst"), r.Get("primaryName")
	if !required(id, name) {
		return models.Actor{}, RejectMissingField
	}
	return models.Actor{
		NameID:    id,
		Name:      name,
		BirthYear: NullableInt(r.Get("birthYear")),
		DeathYear: NullableInt(r.Get("deathYear")),
	}, Accepted
}

// ParseCredit reads a title.principals row, keeping only acting credits
func ParseCredit(r Row) (models.Credit, Rejection) {
	if !actingTags[r.Get("category")] {
		return models.Credit{}, RejectCategory
	}
	titleID, nameID := r.Get("tconst"), r.Get("nconst")
	if !required(titleID, nameID) {
		return models.Credit{}, RejectMissingField
	}
	return models.Credit{
		TitleID: titleID,
		NameID:  nameID,
		Roles:   ParseRoles(r.Get("characters")),
	}, Accepted
}

// ParseRoles normalizes a characters field such as ["Dr. Smith","Narrator, M.D."]
// into "Dr. Smith, Narrator, M.D.". Elements are split on commas that are
// followed by an opening quote and not preceded by a backslash, so commas
// inside a quoted name survive. Empty lists and the null sentinel yield nil.
func ParseRoles(raw string) *string {
	s := strings.TrimSpace(raw)
	if s == "" || s == NullSentinel {
		return nil
	}
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(s, "["), "]"))
	if s == "" {
		return nil
	}

	var roles []string
	for _, part := range splitRoles(s) {
		part = strings.TrimSpace(part)
		part = strings.TrimPrefix(part, `"`)
		part = strings.TrimSuffix(part, `"`)
		part = strings.TrimSpace(strings.ReplaceAll(part, `\"`, `"`))
		if part != "" {
			roles = append(roles, part)
		}
	}
	if len(roles) == 0 {
		return nil
	}
	joined := strings.Join(roles, ", ")
	return &joined
}

func splitRoles(s string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] != ',' {
			continue
		}
		if i > 0 && s[i-1] == '\\' {
			continue
		}
		// the element boundary is a comma whose next non-space byte opens a quote
		j := i + 1
		for j < len(s) && s[j] == ' ' {
			j++
		}
		if j < len(s) && s[j] == '"' {
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}
