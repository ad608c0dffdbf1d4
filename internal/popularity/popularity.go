// Package popularity counts how often each search term is used and serves
// the most searched terms as a leaderboard.
package popularity

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/handsomefox/moodreel/internal/events"
	"github.com/handsomefox/moodreel/internal/logger"
	"github.com/handsomefox/moodreel/internal/store"
	"github.com/handsomefox/moodreel/internal/tmdb"
)

const (
	LeaderboardSize = 6
	PosterBase      = "https://image.tmdb.org/t/p/w500"
	SubjectRecorded = "moodreel.search.recorded"
)

// Store is the document-style API the counters live behind.
type Store interface {
	// Increment atomically creates or bumps the counter for seed.SearchTerm.
	Increment(ctx context.Context, seed store.Counter) (store.Counter, error)
	Top(ctx context.Context, limit int) ([]store.Counter, error)
}

type Client struct {
	store   Store
	events  events.Publisher
	subject string
	log     *slog.Logger
}

type Option func(*Client)

func WithPublisher(p events.Publisher, subject string) Option {
	return func(c *Client) {
		if p != nil {
			c.events = p
		}
		if subject != "" {
			c.subject = subject
		}
	}
}

func New(st Store, log *slog.Logger, opts ...Option) *Client {
	c := &Client{
		store:   st,
		events:  events.Nop{},
		subject: SubjectRecorded,
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Record bumps the counter for term, creating it with a snapshot of movie
// when the term is new. Failures are logged and dropped.
func (c *Client) Record(ctx context.Context, term string, movie tmdb.Movie) {
	if strings.TrimSpace(term) == "" {
		return
	}

	counter, err := c.store.Increment(ctx, store.Counter{
		SearchTerm: term,
		MovieID:    movie.ID,
		Title:      movie.Title,
		PosterURL:  PosterURL(movie.PosterPath),
	})
	if err != nil {
		c.log.WarnContext(ctx, "popularity: increment failed", slog.String("term", term), logger.Error(err))
		return
	}

	evt := events.SearchRecorded{
		Term:       counter.SearchTerm,
		Count:      counter.Count,
		MovieID:    counter.MovieID,
		Title:      counter.Title,
		RecordedAt: time.Now().UTC(),
	}
	if err := c.events.Publish(ctx, c.subject, evt); err != nil {
		c.log.WarnContext(ctx, "popularity: publish failed", slog.String("term", term), logger.Error(err))
	}
}

// Leaderboard returns the most searched terms, highest count first. A store
// failure yields an empty board.
func (c *Client) Leaderboard(ctx context.Context) []store.Counter {
	top, err := c.store.Top(ctx, LeaderboardSize)
	if err != nil {
		c.log.WarnContext(ctx, "popularity: leaderboard failed", logger.Error(err))
		return []store.Counter{}
	}
	if len(top) > LeaderboardSize {
		top = top[:LeaderboardSize]
	}
	return top
}

// PosterURL builds the stored poster address; an empty path stays empty.
func PosterURL(path string) string {
	if path == "" {
		return ""
	}
	return PosterBase + "/" + strings.TrimPrefix(path, "/")
}

// PosterPath reverses PosterURL, giving back a TMDB style "/x.jpg" path.
func PosterPath(url string) string {
	return strings.TrimPrefix(url, PosterBase)
}
