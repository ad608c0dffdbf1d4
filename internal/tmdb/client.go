// Package tmdb wraps the TMDB API for searching, discovering and listing movies.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/handsomefox/moodreel/internal/logger"
)

const DefaultBaseURL = "https://api.themoviedb.org/3"

// ErrCatalog is wrapped by every failed catalog request.
var ErrCatalog = errors.New("tmdb request failed")

var ErrInvalidWindow = errors.New("invalid trending window")

// StatusError reports a non-success response from TMDB.
type StatusError struct {
	Code     int
	Status   string
	Endpoint string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tmdb %s failed: %s", e.Endpoint, e.Status)
}

func (e *StatusError) Unwrap() error { return ErrCatalog }

type Options struct {
	APIKey    string
	ReadToken string
	BaseURL   string
	Timeout   time.Duration
	Logger    *slog.Logger
}

type Client struct {
	apiKey    string
	readToken string
	baseURL   string
	http      *http.Client
	log       *slog.Logger
}

func New(opts Options) *Client {
	apiKey, readToken := opts.APIKey, opts.ReadToken
	if strings.TrimSpace(readToken) == "" && looksLikeJWT(apiKey) {
		readToken = apiKey
		apiKey = ""
	}
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		apiKey:    strings.TrimSpace(apiKey),
		readToken: strings.TrimSpace(readToken),
		baseURL:   base,
		http:      &http.Client{Timeout: timeout},
		log:       log,
	}
}

// SearchMovies runs a free-text movie search. An empty query returns no results
// without calling TMDB.
func (c *Client) SearchMovies(ctx context.Context, query string) ([]Movie, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	values := url.Values{}
	values.Set("query", query)
	return c.fetchResults(ctx, "/search/movie", values)
}

// DiscoverQuery holds the discovery filters. Zero values are left out of the
// request.
type DiscoverQuery struct {
	GenreIDs     []int
	RuntimeLTE   int
	Page         int
	Monetization string
}

func (q DiscoverQuery) values() url.Values {
	values := url.Values{}
	values.Set("sort_by", "popularity.desc")
	if len(q.GenreIDs) > 0 {
		ids := make([]string, 0, len(q.GenreIDs))
		for _, id := range q.GenreIDs {
			ids = append(ids, strconv.Itoa(id))
		}
		values.Set("with_genres", strings.Join(ids, ","))
	}
	if q.RuntimeLTE > 0 {
		values.Set("with_runtime.lte", strconv.Itoa(q.RuntimeLTE))
	}
	if q.Page > 1 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if q.Monetization != "" {
		values.Set("with_watch_monetization_types", q.Monetization)
	}
	return values
}

func (c *Client) Discover(ctx context.Context, q DiscoverQuery) ([]Movie, error) {
	return c.fetchResults(ctx, "/discover/movie", q.values())
}

type Window string

const (
	Day  Window = "day"
	Week Window = "week"
)

func (w Window) Valid() bool { return w == Day || w == Week }

func (c *Client) Trending(ctx context.Context, window Window) ([]Movie, error) {
	if !window.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidWindow, window)
	}
	return c.fetchResults(ctx, "/trending/movie/"+string(window), url.Values{})
}

// List fetches the first page of a fixed listing such as /movie/popular or
// /tv/on_the_air.
func (c *Client) List(ctx context.Context, path string) ([]Movie, error) {
	values := url.Values{}
	values.Set("language", "en-US")
	values.Set("page", "1")
	return c.fetchResults(ctx, path, values)
}

func (c *Client) Genres(ctx context.Context) ([]Genre, error) {
	var payload genresResponse
	if err := c.getJSON(ctx, "/genre/movie/list", url.Values{}, &payload); err != nil {
		return nil, err
	}
	out := make([]Genre, 0, len(payload.Genres))
	for _, g := range payload.Genres {
		if strings.TrimSpace(g.Name) == "" {
			continue
		}
		out = append(out, g)
	}
	return out, nil
}

func (c *Client) Videos(ctx context.Context, mediaType MediaType, id int64) ([]Video, error) {
	if mediaType != MediaMovie && mediaType != MediaTV {
		return nil, fmt.Errorf("invalid media type %q", mediaType)
	}
	values := url.Values{}
	values.Set("language", "en-US")
	var payload videosResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/%s/%d/videos", mediaType, id), values, &payload); err != nil {
		return nil, err
	}
	if payload.Results == nil {
		return []Video{}, nil
	}
	return payload.Results, nil
}

func (c *Client) fetchResults(ctx context.Context, path string, values url.Values) ([]Movie, error) {
	var payload resultsResponse
	if err := c.getJSON(ctx, path, values, &payload); err != nil {
		return nil, err
	}
	out := make([]Movie, 0, len(payload.Results))
	for i := range payload.Results {
		out = append(out, payload.Results[i].toMovie())
	}
	return out, nil
}

// getJSON issues one GET. Transport failures and error statuses are returned;
// a body that does not decode leaves dst untouched.
func (c *Client) getJSON(ctx context.Context, path string, values url.Values, dst any) error {
	if c.apiKey != "" {
		values.Set("api_key", c.apiKey)
	}
	endpoint := c.baseURL + path
	if len(values) > 0 {
		endpoint += "?" + values.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCatalog, err)
	}
	req.Header.Set("Accept", "application/json")
	c.applyAuth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCatalog, err)
	}
	if resp.StatusCode >= 400 {
		statusErr := &StatusError{Code: resp.StatusCode, Status: resp.Status, Endpoint: path}
		if cerr := resp.Body.Close(); cerr != nil {
			return errors.Join(statusErr, cerr)
		}
		return statusErr
	}

	body, err := io.ReadAll(resp.Body)
	if cerr := resp.Body.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCatalog, err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		c.log.DebugContext(ctx, "tmdb: malformed response", slog.String("path", path), logger.Error(err))
	}
	return nil
}

func (c *Client) applyAuth(req *http.Request) {
	if c.readToken == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+c.readToken)
}

func looksLikeJWT(token string) bool {
	parts := strings.Split(strings.TrimSpace(token), ".")
	return len(parts) == 3 && len(token) > 80
}
