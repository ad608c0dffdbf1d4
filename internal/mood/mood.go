// Package mood maps the user-facing moods to TMDB genre names and resolves
// them against the provider's genre list.
package mood

import (
	"slices"
	"strings"

	"github.com/handsomefox/moodreel/internal/tmdb"
)

const (
	Default        = "Happy"
	DefaultMinutes = 90
)

type entry struct {
	label  string
	genres []string
}

// table is never mutated; accessors hand out copies.
var table = []entry{
	{"Happy", []string{"Comedy", "Animation"}},
	{"Thrilling", []string{"Thriller", "Action"}},
	{"Romantic", []string{"Romance", "Drama"}},
	{"Chill", []string{"Comedy", "Family"}},
	{"Adventurous", []string{"Adventure", "Fantasy", "Action"}},
	{"Nostalgic", []string{"Drama", "Family"}},
	{"Uplifting", []string{"Family", "Comedy"}},
	{"Dark", []string{"Horror", "Thriller"}},
	{"Inspiring", []string{"Drama", "History"}},
	{"Suspenseful", []string{"Thriller", "Mystery"}},
	{"Heartwarming", []string{"Family", "Romance"}},
	{"Mysterious", []string{"Mystery", "Thriller"}},
	{"Action-packed", []string{"Action", "Adventure"}},
	{"Feel-Good", []string{"Comedy", "Romance"}},
	{"Epic", []string{"Adventure", "Fantasy"}},
	{"Lighthearted", []string{"Comedy", "Family"}},
	{"Emotional", []string{"Drama", "Romance"}},
	{"Intense", []string{"Thriller", "Action"}},
	{"Family-Friendly", []string{"Family", "Animation"}},
	{"Quirky", []string{"Comedy", "Fantasy"}},
}

var timeOptions = []int{30, 60, 90, 120, 150, 180, 210, 240}

// Moods lists the labels in display order.
func Moods() []string {
	out := make([]string, 0, len(table))
	for _, e := range table {
		out = append(out, e.label)
	}
	return out
}

// Genres returns the genre names for a mood, or nil for an unknown mood.
func Genres(label string) []string {
	for _, e := range table {
		if e.label == label {
			return slices.Clone(e.genres)
		}
	}
	return nil
}

func Valid(label string) bool {
	return Genres(label) != nil
}

// TimeOptions lists the selectable time budgets in minutes.
func TimeOptions() []int { return slices.Clone(timeOptions) }

func ValidMinutes(n int) bool { return slices.Contains(timeOptions, n) }

// Catalog maps lower-cased genre names to provider ids.
type Catalog struct {
	ids    map[string]int
	genres []tmdb.Genre
}

func NewCatalog(genres []tmdb.Genre) Catalog {
	c := Catalog{
		ids:    make(map[string]int, len(genres)),
		genres: slices.Clone(genres),
	}
	for _, g := range genres {
		key := strings.ToLower(strings.TrimSpace(g.Name))
		if key == "" {
			continue
		}
		if _, ok := c.ids[key]; !ok {
			c.ids[key] = g.ID
		}
	}
	return c
}

func (c Catalog) Len() int { return len(c.ids) }

func (c Catalog) Genres() []tmdb.Genre { return slices.Clone(c.genres) }

func (c Catalog) Lookup(name string) (int, bool) {
	id, ok := c.ids[strings.ToLower(strings.TrimSpace(name))]
	return id, ok
}

// Resolve keeps the order of names and drops the ones the catalog lacks.
func (c Catalog) Resolve(names []string) []int {
	var out []int
	for _, name := range names {
		if id, ok := c.Lookup(name); ok {
			out = append(out, id)
		}
	}
	return out
}

func GenreIDs(c Catalog, label string) []int {
	return c.Resolve(Genres(label))
}

// Validate reports, per mood, the genre names that do not resolve against c.
func Validate(c Catalog) map[string][]string {
	missing := map[string][]string{}
	for _, e := range table {
		for _, name := range e.genres {
			if _, ok := c.Lookup(name); !ok {
				missing[e.label] = append(missing[e.label], name)
			}
		}
	}
	return missing
}
