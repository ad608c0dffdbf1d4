// Package trailers builds the trailer carousel for a listing category.
package trailers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/handsomefox/moodreel/internal/logger"
	"github.com/handsomefox/moodreel/internal/tmdb"
)

const (
	MaxItems       = 10
	maxConcurrency = 5
)

var ErrUnknownCategory = errors.New("unknown trailer category")

type Category string

const (
	Popular    Category = "Popular"
	Streaming  Category = "Streaming"
	OnTV       Category = "On TV"
	ForRent    Category = "For Rent"
	InTheaters Category = "In Theaters"
)

// source is either a fixed listing path or a discovery monetization filter.
type source struct {
	path         string
	monetization string
}

var categories = []struct {
	name Category
	src  source
}{
	{Popular, source{path: "/movie/popular"}},
	{Streaming, source{monetization: "flatrate"}},
	{OnTV, source{path: "/tv/on_the_air"}},
	{ForRent, source{monetization: "rent"}},
	{InTheaters, source{path: "/movie/now_playing"}},
}

func Categories() []Category {
	out := make([]Category, 0, len(categories))
	for _, c := range categories {
		out = append(out, c.name)
	}
	return out
}

func ValidCategory(c Category) bool {
	_, ok := lookup(c)
	return ok
}

func lookup(c Category) (source, bool) {
	for _, entry := range categories {
		if entry.name == c {
			return entry.src, true
		}
	}
	return source{}, false
}

type Trailer struct {
	ID         int64          `json:"id"`
	MediaType  tmdb.MediaType `json:"media_type"`
	Title      string         `json:"title"`
	Tagline    string         `json:"tagline,omitempty"`
	TrailerKey string         `json:"trailer_key"`
}

func (t Trailer) EmbedURL() string {
	return "https://www.youtube.com/embed/" + t.TrailerKey + "?autoplay=1&controls=1"
}

func (t Trailer) ThumbnailURL() string {
	return "https://img.youtube.com/vi/" + t.TrailerKey + "/hqdefault.jpg"
}

type Catalog interface {
	List(ctx context.Context, path string) ([]tmdb.Movie, error)
	Discover(ctx context.Context, q tmdb.DiscoverQuery) ([]tmdb.Movie, error)
	Videos(ctx context.Context, mediaType tmdb.MediaType, id int64) ([]tmdb.Video, error)
}

type Service struct {
	catalog Catalog
	log     *slog.Logger
}

func New(catalog Catalog, log *slog.Logger) *Service {
	return &Service{catalog: catalog, log: log}
}

// Fetch returns trailers for the first items of the category, in listing
// order. Items without a YouTube video, or whose lookup fails, are left out.
func (s *Service) Fetch(ctx context.Context, category Category) ([]Trailer, error) {
	src, ok := lookup(category)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}

	var items []tmdb.Movie
	var err error
	if src.path != "" {
		items, err = s.catalog.List(ctx, src.path)
	} else {
		items, err = s.catalog.Discover(ctx, tmdb.DiscoverQuery{Monetization: src.monetization})
	}
	if err != nil {
		return nil, err
	}
	if len(items) > MaxItems {
		items = items[:MaxItems]
	}

	found := make([]*Trailer, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrency)
	for i, item := range items {
		g.Go(func() error {
			videos, err := s.catalog.Videos(gctx, item.MediaType, item.ID)
			if err != nil {
				s.log.DebugContext(gctx, "trailers: videos lookup failed", slog.Int64("id", item.ID), logger.Error(err))
				return nil
			}
			v, ok := PickVideo(videos)
			if !ok {
				return nil
			}
			found[i] = &Trailer{
				ID:         item.ID,
				MediaType:  item.MediaType,
				Title:      item.Title,
				Tagline:    item.Tagline,
				TrailerKey: v.Key,
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]Trailer, 0, len(found))
	for _, t := range found {
		if t != nil {
			out = append(out, *t)
		}
	}
	return out, nil
}

// PickVideo prefers an official YouTube trailer and settles for any YouTube
// video.
func PickVideo(videos []tmdb.Video) (tmdb.Video, bool) {
	for _, v := range videos {
		if v.Site == "YouTube" && v.Type == "Trailer" && v.Official {
			return v, true
		}
	}
	for _, v := range videos {
		if v.Site == "YouTube" {
			return v, true
		}
	}
	return tmdb.Video{}, false
}
