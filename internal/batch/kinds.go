// Package batch converts the raw dataset exports into fixed-column batch
// files and reads them back for loading.
package batch

import (
	"fmt"
	"strings"
)

// Kind identifies a batch file type
type Kind string

const (
	KindMovie       Kind = "movie"
	KindEpisode     Kind = "episode"
	KindSeries      Kind = "series"
	KindActor       Kind = "actor"
	KindCredit      Kind = "actor_relation"
	KindEpisodeLink Kind = "episode_relation"
)

// AllKinds lists every kind in load order
var AllKinds = []Kind{KindMovie, KindEpisode, KindSeries, KindActor, KindCredit, KindEpisodeLink}

var kindColumns = map[Kind][]string{
	KindMovie:       {"title_id", "title", "year"},
	KindEpisode:     {"title_id", "title", "year"},
	KindSeries:      {"title_id", "title", "start_year", "end_year"},
	KindActor:       {"name_id", "name", "birth_year", "death_year"},
	KindCredit:      {"title_id", "name_id", "roles"},
	KindEpisodeLink: {"episode_id", "series_id", "season_num", "episode_num"},
}

// ParseKind accepts a kind name ("movie", "actor_relation", ...) or the
// short aliases "credit" and "episode_link".
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "credit", "credits":
		return KindCredit, nil
	case "episode_link", "episode_links":
		return KindEpisodeLink, nil
	}
	k := Kind(strings.TrimSuffix(s, "s"))
	if _, ok := kindColumns[k]; ok {
		return k, nil
	}
	if _, ok := kindColumns[Kind(s)]; ok {
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown batch kind %q", s)
}

// Columns returns the batch file header for the kind
func (k Kind) Columns() []string {
	return kindColumns[k]
}

// FileName returns the unsplit batch file name, e.g. movie_batch.tsv
func (k Kind) FileName() string {
	return string(k) + "_batch.tsv"
}

// Dataset source files
const (
	SourceTitles     = "title.basics.tsv"
	SourceNames      = "name.basics.tsv"
	SourceEpisodes   = "title.episode.tsv"
	SourcePrincipals = "title.principals.tsv"
)

// Sources lists the dataset files the converter consumes
var Sources = []string{SourceTitles, SourceNames, SourceEpisodes, SourcePrincipals}
