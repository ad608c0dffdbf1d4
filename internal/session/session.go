// Package session holds the live view state of one browser tab and drives
// the catalog queries behind it.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/handsomefox/moodreel/internal/logger"
	"github.com/handsomefox/moodreel/internal/mood"
	"github.com/handsomefox/moodreel/internal/recommend"
	"github.com/handsomefox/moodreel/internal/tmdb"
	"github.com/handsomefox/moodreel/internal/trailers"
)

const (
	DefaultDebounce = 500 * time.Millisecond
	subscriberBuf   = 32
)

var (
	ErrNotFound     = errors.New("session not found")
	ErrClosed       = errors.New("session closed")
	ErrInvalidInput = errors.New("invalid input")
)

type Catalog interface {
	recommend.Catalog
	Genres(ctx context.Context) ([]tmdb.Genre, error)
	Trending(ctx context.Context, window tmdb.Window) ([]tmdb.Movie, error)
}

type ForYou interface {
	ForYou(ctx context.Context) []recommend.Pick
}

type Trailers interface {
	Fetch(ctx context.Context, category trailers.Category) ([]trailers.Trailer, error)
}

// Deps are shared by every session of a Manager.
type Deps struct {
	Catalog  Catalog
	Recorder recommend.Recorder
	ForYou   ForYou
	Trailers Trailers
	Log      *slog.Logger
	Debounce time.Duration
}

// view is the request bookkeeping of one region: a ticket sequence and the
// cancel func of the newest in-flight request.
type view struct {
	seq    recommend.Sequencer
	cancel context.CancelFunc
}

// begin supersedes any in-flight request of the view. Callers hold s.mu.
func (v *view) begin(parent context.Context) (context.Context, uint64) {
	if v.cancel != nil {
		v.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	v.cancel = cancel
	return ctx, v.seq.Next()
}

type Session struct {
	ID string

	deps     Deps
	selector *recommend.Selector
	history  *recommend.History
	log      *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu            sync.Mutex
	state         State
	catalog       mood.Catalog
	catalogLoaded bool
	closed        bool
	lastActive    time.Time
	termTimer     *time.Timer
	termSeq       recommend.Sequencer
	grid          view
	trending      view
	forYou        view
	trailers      view
	subs          map[int]chan Event
	nextSub       int
}

func newSession(parent context.Context, id string, deps Deps, now time.Time) *Session {
	if deps.Debounce <= 0 {
		deps.Debounce = DefaultDebounce
	}
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	ctx, cancel := context.WithCancel(parent)
	history := &recommend.History{}
	return &Session{
		ID:       id,
		deps:     deps,
		selector: recommend.NewSelector(deps.Catalog, deps.Recorder, history),
		history:  history,
		log:      deps.Log.With(slog.String("session", id)),
		ctx:      ctx,
		cancel:   cancel,
		state: State{
			Search:     SearchState{History: []string{}},
			Preference: PreferenceState{Mood: mood.Default, Minutes: mood.DefaultMinutes},
			Grid:       GridState{Movies: []tmdb.Movie{}},
			Trending:   TrendingState{Tab: TabDay},
			ForYou:     ForYouState{Picks: []recommend.Pick{}},
			Trailers:   TrailersState{Category: trailers.Popular, Trailers: []trailers.Trailer{}},
		},
		lastActive: now,
		subs:       map[int]chan Event{},
	}
}

// start kicks off the independent first loads: genres (then discovery),
// trending, For You and trailers.
func (s *Session) start() {
	s.goLoad(s.loadGenres)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.runTrendingLocked()
	s.runForYouLocked()
	s.runTrailersLocked()
}

func (s *Session) goLoad(fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
}

func (s *Session) loadGenres() {
	genres, err := s.deps.Catalog.Genres(s.ctx)
	if err != nil {
		s.log.Warn("session: genre list failed, discovering without genres", logger.Error(err))
		genres = nil
	}
	catalog := mood.NewCatalog(genres)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.catalog = catalog
	s.catalogLoaded = true
	if s.state.Search.Debounced == "" {
		s.runGridLocked()
	}
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

func (s *Session) History() []string { return s.history.Terms() }

// Subscribe returns region events until the returned func is called or the
// session closes. A subscriber that falls behind loses events.
func (s *Session) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Event, subscriberBuf)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

func (s *Session) publishLocked(r Region) {
	evt := Event{Region: r, State: s.state.region(r)}
	for _, ch := range s.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}

func (s *Session) touchLocked() { s.lastActive = time.Now() }

// Touch marks the session active, holding off the idle sweep.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// SetTerm records the raw search text. Only a value left unchanged for the
// debounce period is acted on.
func (s *Session) SetTerm(term string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.touchLocked()

	s.state.Search.Term = term
	s.publishLocked(RegionSearch)

	ticket := s.termSeq.Next()
	if s.termTimer != nil {
		s.termTimer.Stop()
	}
	s.termTimer = time.AfterFunc(s.deps.Debounce, func() { s.settleTerm(ticket) })
	return nil
}

func (s *Session) settleTerm(ticket uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.termSeq.IsCurrent(ticket) {
		return
	}
	debounced := strings.TrimSpace(s.state.Search.Term)
	// An unchanged term is only fetched again to retry a failure.
	if debounced == s.state.Search.Debounced && s.state.Grid.Error == "" {
		return
	}
	s.state.Search.Debounced = debounced
	s.publishLocked(RegionSearch)

	if debounced != "" || s.catalogLoaded {
		s.runGridLocked()
	}
}

// SetPreference changes mood and time budget. Discovery re-runs while no
// search is active.
func (s *Session) SetPreference(label string, minutes int) error {
	if !mood.Valid(label) {
		return fmt.Errorf("%w: unknown mood %q", ErrInvalidInput, label)
	}
	if !mood.ValidMinutes(minutes) {
		return fmt.Errorf("%w: unsupported time budget %d", ErrInvalidInput, minutes)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.touchLocked()

	s.state.Preference = PreferenceState{Mood: label, Minutes: minutes}
	s.publishLocked(RegionPreference)

	if s.state.Search.Debounced == "" && s.catalogLoaded {
		s.runGridLocked()
	}
	return nil
}

func (s *Session) SetTrendingTab(tab string) error {
	if !ValidTab(tab) {
		return fmt.Errorf("%w: unknown trending tab %q", ErrInvalidInput, tab)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.touchLocked()

	s.state.Trending.Tab = tab
	s.runTrendingLocked()
	return nil
}

func (s *Session) SetTrailerCategory(category trailers.Category) error {
	if !trailers.ValidCategory(category) {
		return fmt.Errorf("%w: unknown trailer category %q", ErrInvalidInput, category)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.touchLocked()

	s.state.Trailers.Category = category
	s.runTrailersLocked()
	return nil
}

// RefreshForYou re-runs the personalized selection.
func (s *Session) RefreshForYou() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.touchLocked()
	s.runForYouLocked()
	return nil
}

func (s *Session) runGridLocked() {
	q := recommend.Build(recommend.Input{
		Term:    s.state.Search.Debounced,
		Mood:    s.state.Preference.Mood,
		Minutes: s.state.Preference.Minutes,
	}, s.catalog)

	ctx, ticket := s.grid.begin(s.ctx)
	s.state.Grid.Mode = q.Kind
	s.state.Grid.Loading = true
	s.state.Grid.Error = ""
	s.publishLocked(RegionGrid)

	s.goLoad(func() {
		res, err := s.selector.Run(ctx, q)

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || !s.grid.seq.IsCurrent(ticket) {
			return
		}
		s.state.Grid.Loading = false
		if err != nil {
			s.log.Warn("session: movie fetch failed", slog.String("mode", string(q.Kind)), logger.Error(err))
			s.state.Grid.Movies = []tmdb.Movie{}
			s.state.Grid.Error = ErrorMessage
			s.publishLocked(RegionGrid)
			return
		}
		s.state.Grid.Movies = res.Movies
		s.publishLocked(RegionGrid)

		if res.Recorded {
			s.state.Search.History = s.history.Terms()
			s.publishLocked(RegionSearch)
			s.goLoad(func() { s.refreshAfterSave(res.Saved()) })
		}
	})
}

// refreshAfterSave re-runs the leaderboard-driven views once the counter
// write behind a search has landed.
func (s *Session) refreshAfterSave(saved <-chan struct{}) {
	select {
	case <-saved:
	case <-s.ctx.Done():
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.runForYouLocked()
	if s.state.Trending.Tab == TabForYou {
		s.runTrendingLocked()
	}
}

func (s *Session) runTrendingLocked() {
	tab := s.state.Trending.Tab
	ctx, ticket := s.trending.begin(s.ctx)
	s.state.Trending.Loading = true
	s.state.Trending.Error = ""
	s.publishLocked(RegionTrending)

	s.goLoad(func() {
		var movies []tmdb.Movie
		var picks []recommend.Pick
		var err error
		if tab == TabForYou {
			picks = s.deps.ForYou.ForYou(ctx)
		} else {
			movies, err = s.deps.Catalog.Trending(ctx, tmdb.Window(tab))
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || !s.trending.seq.IsCurrent(ticket) {
			return
		}
		s.state.Trending.Loading = false
		s.state.Trending.Movies = movies
		s.state.Trending.Picks = picks
		if err != nil {
			s.log.Warn("session: trending fetch failed", slog.String("tab", tab), logger.Error(err))
			s.state.Trending.Movies = nil
			s.state.Trending.Error = ErrorMessage
		}
		s.publishLocked(RegionTrending)
	})
}

func (s *Session) runForYouLocked() {
	ctx, ticket := s.forYou.begin(s.ctx)
	s.state.ForYou.Loading = true
	s.publishLocked(RegionForYou)

	s.goLoad(func() {
		picks := s.deps.ForYou.ForYou(ctx)

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || !s.forYou.seq.IsCurrent(ticket) {
			return
		}
		if picks == nil {
			picks = []recommend.Pick{}
		}
		s.state.ForYou = ForYouState{Picks: picks}
		s.publishLocked(RegionForYou)
	})
}

func (s *Session) runTrailersLocked() {
	category := s.state.Trailers.Category
	ctx, ticket := s.trailers.begin(s.ctx)
	s.state.Trailers.Trailers = []trailers.Trailer{}
	s.state.Trailers.Loading = true
	s.state.Trailers.Error = ""
	s.publishLocked(RegionTrailers)

	s.goLoad(func() {
		items, err := s.deps.Trailers.Fetch(ctx, category)

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || !s.trailers.seq.IsCurrent(ticket) {
			return
		}
		s.state.Trailers.Loading = false
		if err != nil {
			s.log.Warn("session: trailers fetch failed", slog.String("category", string(category)), logger.Error(err))
			s.state.Trailers.Error = ErrorMessage
		} else {
			s.state.Trailers.Trailers = items
		}
		s.publishLocked(RegionTrailers)
	})
}

// Close cancels in-flight requests, ends subscriptions and waits for the
// session's goroutines.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.termTimer != nil {
		s.termTimer.Stop()
	}
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}
