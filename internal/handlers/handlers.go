// Package handlers wires HTTP routing and API handlers.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/handsomefox/moodreel/internal/env"
	"github.com/handsomefox/moodreel/internal/logger"
	"github.com/handsomefox/moodreel/internal/mood"
	"github.com/handsomefox/moodreel/internal/recommend"
	"github.com/handsomefox/moodreel/internal/session"
	"github.com/handsomefox/moodreel/internal/store"
	"github.com/handsomefox/moodreel/internal/tmdb"
	"github.com/handsomefox/moodreel/internal/trailers"
)

const defaultGenreTTL = 24 * time.Hour

type Handler struct {
	catalog   session.Catalog
	selector  *recommend.Selector
	history   *recommend.History
	board     recommend.Leaderboard
	forYou    session.ForYou
	trailers  session.Trailers
	sessions  *session.Manager
	imageBase string
	env       env.Environment
	log       *slog.Logger
	genres    genreCache
}

type Config struct {
	Catalog   session.Catalog
	Recorder  recommend.Recorder
	Board     recommend.Leaderboard
	ForYou    session.ForYou
	Trailers  session.Trailers
	Sessions  *session.Manager
	History   *recommend.History
	ImageBase string
	GenreTTL  time.Duration
	Env       env.Environment
	Log       *slog.Logger
}

type genreCache struct {
	mu        sync.RWMutex
	ttl       time.Duration
	items     []tmdb.Genre
	catalog   mood.Catalog
	fetchedAt time.Time
}

func New(cfg *Config) (*Handler, error) {
	if cfg.Catalog == nil {
		return nil, errors.New("catalog is required")
	}
	if cfg.Board == nil {
		return nil, errors.New("leaderboard is required")
	}
	if cfg.ForYou == nil {
		return nil, errors.New("for you source is required")
	}
	if cfg.Trailers == nil {
		return nil, errors.New("trailers source is required")
	}
	if cfg.Sessions == nil {
		return nil, errors.New("session manager is required")
	}

	history := cfg.History
	if history == nil {
		history = &recommend.History{}
	}
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	ttl := cfg.GenreTTL
	if ttl <= 0 {
		ttl = defaultGenreTTL
	}

	return &Handler{
		catalog:   cfg.Catalog,
		selector:  recommend.NewSelector(cfg.Catalog, cfg.Recorder, history),
		history:   history,
		board:     cfg.Board,
		forYou:    cfg.ForYou,
		trailers:  cfg.Trailers,
		sessions:  cfg.Sessions,
		imageBase: cfg.ImageBase,
		env:       cfg.Env,
		log:       log,
		genres:    genreCache{ttl: ttl},
	}, nil
}

// RegisterRoutes mounts the API on r. The caller chooses the prefix.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Method(http.MethodGet, "/moods", Adapt(h.getMoods))
	r.Method(http.MethodGet, "/genres", Adapt(h.getGenres))
	r.Method(http.MethodGet, "/movies", Adapt(h.getMovies))
	r.Method(http.MethodGet, "/history", Adapt(h.getHistory))
	r.Method(http.MethodGet, "/trending/{window}", Adapt(h.getTrending))
	r.Method(http.MethodGet, "/foryou", Adapt(h.getForYou))
	r.Method(http.MethodGet, "/leaderboard", Adapt(h.getLeaderboard))
	r.Method(http.MethodGet, "/trailers", Adapt(h.getTrailerCategories))
	r.Method(http.MethodGet, "/trailers/{category}", Adapt(h.getTrailers))

	r.Route("/sessions", func(r chi.Router) {
		r.Method(http.MethodPost, "/", Adapt(h.postSession))

		r.Route("/{id}", func(r chi.Router) {
			r.Use(h.MiddlewareSession)

			r.Method(http.MethodGet, "/", Adapt(h.getSession))
			r.Method(http.MethodDelete, "/", Adapt(h.deleteSession))
			r.Method(http.MethodPut, "/term", Adapt(h.putTerm))
			r.Method(http.MethodPut, "/preference", Adapt(h.putPreference))
			r.Method(http.MethodPut, "/trending", Adapt(h.putTrending))
			r.Method(http.MethodPut, "/trailers", Adapt(h.putTrailers))
			r.Method(http.MethodPost, "/foryou/refresh", Adapt(h.postRefreshForYou))
			r.Method(http.MethodGet, "/events", h.streamEvents())
		})
	})
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type moodOption struct {
	Label  string   `json:"label"`
	Genres []string `json:"genres"`
}

type moodsResponse struct {
	Moods             []moodOption        `json:"moods"`
	TimeOptions       []int               `json:"time_options"`
	DefaultMood       string              `json:"default_mood"`
	DefaultMinutes    int                 `json:"default_minutes"`
	TrendingTabs      []string            `json:"trending_tabs"`
	TrailerCategories []trailers.Category `json:"trailer_categories"`
	ImageBase         string              `json:"image_base"`
}

func (h *Handler) getMoods(w http.ResponseWriter, r *http.Request) error {
	labels := mood.Moods()
	moods := make([]moodOption, 0, len(labels))
	for _, label := range labels {
		moods = append(moods, moodOption{Label: label, Genres: mood.Genres(label)})
	}

	writeJSON(w, http.StatusOK, &moodsResponse{
		Moods:             moods,
		TimeOptions:       mood.TimeOptions(),
		DefaultMood:       mood.Default,
		DefaultMinutes:    mood.DefaultMinutes,
		TrendingTabs:      []string{session.TabDay, session.TabWeek, session.TabForYou},
		TrailerCategories: trailers.Categories(),
		ImageBase:         h.imageBase,
	})
	return nil
}

func (h *Handler) getGenres(w http.ResponseWriter, r *http.Request) error {
	genres, _, err := h.fetchGenres(r.Context())
	if err != nil {
		return badGateway(session.ErrorMessage)
	}
	writeJSON(w, http.StatusOK, map[string][]tmdb.Genre{"genres": genres})
	return nil
}

type moviesResponse struct {
	Mode     recommend.Kind `json:"mode"`
	Term     string         `json:"term,omitempty"`
	Mood     string         `json:"mood"`
	Minutes  int            `json:"minutes"`
	Movies   []tmdb.Movie   `json:"movies"`
	Recorded bool           `json:"recorded"`
}

func (h *Handler) getMovies(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	q := r.URL.Query()

	in := recommend.Input{
		Term:    q.Get("q"),
		Mood:    mood.Default,
		Minutes: mood.DefaultMinutes,
	}
	if label := strings.TrimSpace(q.Get("mood")); label != "" {
		if !mood.Valid(label) {
			return badRequest("unknown mood")
		}
		in.Mood = label
	}
	minutes, err := queryInt(r, "minutes", mood.DefaultMinutes)
	if err != nil || !mood.ValidMinutes(minutes) {
		return badRequest("unsupported time budget")
	}
	in.Minutes = minutes

	// Discovery still runs without genres when the catalog is down.
	_, catalog, err := h.fetchGenres(ctx)
	if err != nil {
		h.log.WarnContext(ctx, "movies: genre catalog unavailable", logger.Error(err))
	}

	res, err := h.selector.Run(ctx, recommend.Build(in, catalog))
	if err != nil {
		h.log.WarnContext(ctx, "movies: catalog request failed", logger.Error(err))
		return badGateway(session.ErrorMessage)
	}

	writeJSON(w, http.StatusOK, &moviesResponse{
		Mode:     res.Query.Kind,
		Term:     res.Query.Term,
		Mood:     in.Mood,
		Minutes:  in.Minutes,
		Movies:   res.Movies,
		Recorded: res.Recorded,
	})
	return nil
}

func (h *Handler) getHistory(w http.ResponseWriter, r *http.Request) error {
	terms := h.history.Terms()
	if terms == nil {
		terms = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"terms": terms})
	return nil
}

type trendingResponse struct {
	Window string       `json:"window"`
	Movies []tmdb.Movie `json:"movies"`
}

type trendingPicksResponse struct {
	Window string           `json:"window"`
	Picks  []recommend.Pick `json:"picks"`
}

func (h *Handler) getTrending(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	window := pathParam(r, "window")

	if window == session.TabForYou {
		picks := h.forYou.ForYou(ctx)
		if picks == nil {
			picks = []recommend.Pick{}
		}
		writeJSON(w, http.StatusOK, &trendingPicksResponse{Window: window, Picks: picks})
		return nil
	}
	if !tmdb.Window(window).Valid() {
		return badRequest("window must be day, week or foryou")
	}

	movies, err := h.catalog.Trending(ctx, tmdb.Window(window))
	if err != nil {
		h.log.WarnContext(ctx, "trending: catalog request failed", slog.String("window", window), logger.Error(err))
		return badGateway(session.ErrorMessage)
	}
	if movies == nil {
		movies = []tmdb.Movie{}
	}
	writeJSON(w, http.StatusOK, &trendingResponse{Window: window, Movies: movies})
	return nil
}

func (h *Handler) getForYou(w http.ResponseWriter, r *http.Request) error {
	picks := h.forYou.ForYou(r.Context())
	if picks == nil {
		picks = []recommend.Pick{}
	}
	writeJSON(w, http.StatusOK, map[string][]recommend.Pick{"picks": picks})
	return nil
}

func (h *Handler) getLeaderboard(w http.ResponseWriter, r *http.Request) error {
	entries := h.board.Leaderboard(r.Context())
	if entries == nil {
		entries = []store.Counter{}
	}
	writeJSON(w, http.StatusOK, map[string][]store.Counter{"entries": entries})
	return nil
}

func (h *Handler) getTrailerCategories(w http.ResponseWriter, r *http.Request) error {
	writeJSON(w, http.StatusOK, map[string][]trailers.Category{"categories": trailers.Categories()})
	return nil
}

type trailerItem struct {
	trailers.Trailer
	EmbedURL     string `json:"embed_url"`
	ThumbnailURL string `json:"thumbnail_url"`
}

func (h *Handler) getTrailers(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	category := trailers.Category(pathParam(r, "category"))
	if !trailers.ValidCategory(category) {
		return notFound("unknown trailer category")
	}

	items, err := h.trailers.Fetch(ctx, category)
	if err != nil {
		if errors.Is(err, trailers.ErrUnknownCategory) {
			return notFound("unknown trailer category")
		}
		h.log.WarnContext(ctx, "trailers: catalog request failed", slog.String("category", string(category)), logger.Error(err))
		return badGateway(session.ErrorMessage)
	}

	out := make([]trailerItem, 0, len(items))
	for _, t := range items {
		out = append(out, trailerItem{Trailer: t, EmbedURL: t.EmbedURL(), ThumbnailURL: t.ThumbnailURL()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"category": category, "trailers": out})
	return nil
}

// fetchGenres returns the cached genre list, refreshing it after the TTL.
// On failure the returned catalog is empty and usable.
func (h *Handler) fetchGenres(ctx context.Context) ([]tmdb.Genre, mood.Catalog, error) {
	h.genres.mu.RLock()
	if h.genres.items != nil && time.Since(h.genres.fetchedAt) < h.genres.ttl {
		items := slices.Clone(h.genres.items)
		catalog := h.genres.catalog
		h.genres.mu.RUnlock()
		return items, catalog, nil
	}
	h.genres.mu.RUnlock()

	genres, err := h.catalog.Genres(ctx)
	if err != nil {
		return nil, mood.NewCatalog(nil), err
	}
	if genres == nil {
		genres = []tmdb.Genre{}
	}
	catalog := mood.NewCatalog(genres)

	h.genres.mu.Lock()
	h.genres.items = slices.Clone(genres)
	h.genres.catalog = catalog
	h.genres.fetchedAt = time.Now()
	h.genres.mu.Unlock()

	return genres, catalog, nil
}
