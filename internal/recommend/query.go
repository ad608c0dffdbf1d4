// Package recommend turns user input into catalog queries and picks the
// personalized "For You" row.
package recommend

import (
	"strings"

	"github.com/handsomefox/moodreel/internal/mood"
	"github.com/handsomefox/moodreel/internal/tmdb"
)

type Kind string

const (
	KindSearch   Kind = "search"
	KindDiscover Kind = "discover"
)

type Input struct {
	Term    string
	Mood    string
	Minutes int
}

type Query struct {
	Kind     Kind
	Term     string
	Discover tmdb.DiscoverQuery
}

// Build picks search mode for a non-blank term and discover mode otherwise.
// In discover mode the genre filter is left out when nothing resolves.
func Build(in Input, catalog mood.Catalog) Query {
	if term := strings.TrimSpace(in.Term); term != "" {
		return Query{Kind: KindSearch, Term: term}
	}
	return Query{
		Kind: KindDiscover,
		Discover: tmdb.DiscoverQuery{
			GenreIDs:   mood.GenreIDs(catalog, in.Mood),
			RuntimeLTE: in.Minutes,
		},
	}
}
