package mood

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handsomefox/moodreel/internal/tmdb"
)

var fullCatalog = []tmdb.Genre{
	{ID: 28, Name: "Action"},
	{ID: 12, Name: "Adventure"},
	{ID: 16, Name: "Animation"},
	{ID: 35, Name: "Comedy"},
	{ID: 18, Name: "Drama"},
	{ID: 10751, Name: "Family"},
	{ID: 14, Name: "Fantasy"},
	{ID: 36, Name: "History"},
	{ID: 27, Name: "Horror"},
	{ID: 9648, Name: "Mystery"},
	{ID: 10749, Name: "Romance"},
	{ID: 53, Name: "Thriller"},
}

func TestMoods(t *testing.T) {
	moods := Moods()
	assert.Len(t, moods, 20)
	assert.Equal(t, "Happy", moods[0])
	assert.Contains(t, moods, Default)
	for _, m := range moods {
		genres := Genres(m)
		assert.GreaterOrEqual(t, len(genres), 2, m)
		assert.LessOrEqual(t, len(genres), 3, m)
	}
}

func TestGenres_ReturnsCopy(t *testing.T) {
	g := Genres("Dark")
	require.Equal(t, []string{"Horror", "Thriller"}, g)
	g[0] = "Musical"
	assert.Equal(t, []string{"Horror", "Thriller"}, Genres("Dark"))
	assert.Nil(t, Genres("Sleepy"))
}

func TestCatalog_CaseInsensitive(t *testing.T) {
	c := NewCatalog([]tmdb.Genre{{ID: 27, Name: "HORROR"}, {ID: 53, Name: "thriller"}})
	assert.Equal(t, []int{27, 53}, GenreIDs(c, "Dark"))
}

func TestGenreIDs_OnlyCatalogIDs(t *testing.T) {
	snapshots := map[string][]tmdb.Genre{
		"full":    fullCatalog,
		"partial": {{ID: 35, Name: "Comedy"}, {ID: 53, Name: "Thriller"}},
		"empty":   nil,
	}
	for name, genres := range snapshots {
		t.Run(name, func(t *testing.T) {
			c := NewCatalog(genres)
			known := map[int]bool{}
			for _, g := range genres {
				known[g.ID] = true
			}
			for _, m := range Moods() {
				for _, id := range GenreIDs(c, m) {
					assert.True(t, known[id], "mood %s resolved unknown id %d", m, id)
				}
			}
		})
	}
}

func TestGenreIDs_NoMatch(t *testing.T) {
	c := NewCatalog([]tmdb.Genre{{ID: 99, Name: "Documentary"}})
	assert.Empty(t, GenreIDs(c, "Dark"))
	assert.Empty(t, GenreIDs(c, "unknown mood"))
}

func TestValidate(t *testing.T) {
	assert.Empty(t, Validate(NewCatalog(fullCatalog)))

	partial := NewCatalog([]tmdb.Genre{{ID: 27, Name: "Horror"}})
	missing := Validate(partial)
	assert.Equal(t, []string{"Thriller"}, missing["Dark"])
	assert.Len(t, missing, 20)
}

func TestValidMinutes(t *testing.T) {
	assert.True(t, ValidMinutes(DefaultMinutes))
	assert.True(t, ValidMinutes(240))
	assert.False(t, ValidMinutes(45))
	assert.Equal(t, []int{30, 60, 90, 120, 150, 180, 210, 240}, TimeOptions())
}
