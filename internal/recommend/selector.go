package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/handsomefox/moodreel/internal/tmdb"
)

type Catalog interface {
	SearchMovies(ctx context.Context, query string) ([]tmdb.Movie, error)
	Discover(ctx context.Context, q tmdb.DiscoverQuery) ([]tmdb.Movie, error)
}

// Recorder stores a successful search. It must not fail the caller.
type Recorder interface {
	Record(ctx context.Context, term string, movie tmdb.Movie)
}

// RecordTimeout bounds the background counter write of a search.
const RecordTimeout = 5 * time.Second

type Result struct {
	Query    Query
	Movies   []tmdb.Movie
	Recorded bool

	saved chan struct{}
}

var alreadySaved = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Saved is closed once the counter write started by Run has finished. It is
// already closed when Run wrote nothing.
func (r Result) Saved() <-chan struct{} {
	if r.saved == nil {
		return alreadySaved
	}
	return r.saved
}

type Selector struct {
	catalog  Catalog
	recorder Recorder
	history  *History
}

// NewSelector wires a selector. recorder and history may be nil.
func NewSelector(catalog Catalog, recorder Recorder, history *History) *Selector {
	return &Selector{catalog: catalog, recorder: recorder, history: history}
}

// Run executes q. A search with at least one result is recorded against its
// first result and added to the history; discovery never records. The
// counter write runs in the background so a slow store never holds back
// the results.
func (s *Selector) Run(ctx context.Context, q Query) (Result, error) {
	res := Result{Query: q}

	var err error
	switch q.Kind {
	case KindSearch:
		res.Movies, err = s.catalog.SearchMovies(ctx, q.Term)
	case KindDiscover:
		res.Movies, err = s.catalog.Discover(ctx, q.Discover)
	default:
		return res, fmt.Errorf("unknown query kind %q", q.Kind)
	}
	if err != nil {
		return Result{Query: q, Movies: []tmdb.Movie{}}, err
	}
	if res.Movies == nil {
		res.Movies = []tmdb.Movie{}
	}

	if q.Kind == KindSearch && len(res.Movies) > 0 {
		if s.recorder != nil {
			res.saved = make(chan struct{})
			go s.record(ctx, q.Term, res.Movies[0], res.saved)
		}
		if s.history != nil {
			s.history.Add(q.Term)
		}
		res.Recorded = true
	}
	return res, nil
}

func (s *Selector) record(ctx context.Context, term string, movie tmdb.Movie, saved chan<- struct{}) {
	defer close(saved)
	// The write outlives a superseded request.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), RecordTimeout)
	defer cancel()
	s.recorder.Record(ctx, term, movie)
}

func (s *Selector) History() []string {
	if s.history == nil {
		return nil
	}
	return s.history.Terms()
}
