package recommend

import (
	"context"
	"log/slog"
	"math/rand/v2"

	"golang.org/x/sync/errgroup"

	"github.com/handsomefox/moodreel/internal/logger"
	"github.com/handsomefox/moodreel/internal/popularity"
	"github.com/handsomefox/moodreel/internal/store"
	"github.com/handsomefox/moodreel/internal/tmdb"
)

const (
	ForYouSize    = 6
	fallbackPages = 3
)

// fallbackGenres seed the row when nobody has searched yet.
var fallbackGenres = []struct {
	Name string
	ID   int
}{
	{"Action", 28},
	{"Comedy", 35},
	{"Drama", 18},
	{"Thriller", 53},
	{"Romance", 10749},
}

// Pick is one card in the For You row. Source tells whether it came from the
// search leaderboard or from random sampling.
type Pick struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	PosterPath  string  `json:"poster_path,omitempty"`
	VoteAverage float64 `json:"vote_average,omitempty"`
	ReleaseDate string  `json:"release_date,omitempty"`
	Language    string  `json:"original_language,omitempty"`
	SearchTerm  string  `json:"search_term,omitempty"`
	Mood        string  `json:"mood,omitempty"`
	Source      string  `json:"source"`
}

const (
	SourceLeaderboard = "leaderboard"
	SourceRandom      = "random"
)

type Leaderboard interface {
	Leaderboard(ctx context.Context) []store.Counter
}

type Discoverer interface {
	Discover(ctx context.Context, q tmdb.DiscoverQuery) ([]tmdb.Movie, error)
}

type Personalizer struct {
	board   Leaderboard
	catalog Discoverer
	intN    func(n int) int
	log     *slog.Logger
}

// NewPersonalizer uses math/rand/v2 unless intN is given. intN must be safe
// for concurrent use.
func NewPersonalizer(board Leaderboard, catalog Discoverer, log *slog.Logger, intN func(int) int) *Personalizer {
	if intN == nil {
		intN = rand.IntN
	}
	return &Personalizer{board: board, catalog: catalog, intN: intN, log: log}
}

// ForYou returns the leaderboard snapshots when any exist, otherwise one
// random movie per fallback genre. Nothing is cached between calls.
func (p *Personalizer) ForYou(ctx context.Context) []Pick {
	if top := p.board.Leaderboard(ctx); len(top) > 0 {
		if len(top) > ForYouSize {
			top = top[:ForYouSize]
		}
		out := make([]Pick, 0, len(top))
		for _, c := range top {
			out = append(out, Pick{
				ID:         c.MovieID,
				Title:      c.Title,
				PosterPath: popularity.PosterPath(c.PosterURL),
				SearchTerm: c.SearchTerm,
				Source:     SourceLeaderboard,
			})
		}
		return out
	}
	return p.sample(ctx)
}

func (p *Personalizer) sample(ctx context.Context) []Pick {
	picks := make([]*Pick, len(fallbackGenres))

	g, ctx := errgroup.WithContext(ctx)
	for i, genre := range fallbackGenres {
		g.Go(func() error {
			page := p.intN(fallbackPages) + 1
			movies, err := p.catalog.Discover(ctx, tmdb.DiscoverQuery{GenreIDs: []int{genre.ID}, Page: page})
			if err != nil {
				p.log.DebugContext(ctx, "foryou: genre sample failed", slog.String("genre", genre.Name), logger.Error(err))
				return nil
			}
			if len(movies) == 0 {
				return nil
			}
			m := movies[p.intN(len(movies))]
			picks[i] = &Pick{
				ID:          m.ID,
				Title:       m.Title,
				PosterPath:  m.PosterPath,
				VoteAverage: m.VoteAverage,
				ReleaseDate: m.ReleaseDate,
				Language:    m.OriginalLanguage,
				Mood:        genre.Name,
				Source:      SourceRandom,
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]Pick, 0, len(picks))
	for _, pick := range picks {
		if pick != nil {
			out = append(out, *pick)
		}
	}
	return out
}
