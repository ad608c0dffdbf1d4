// Package config reads the process configuration from the environment once
// at start-up.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/handsomefox/moodreel/internal/env"
	"github.com/handsomefox/moodreel/internal/logger"
)

const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"

	defaultPort         = "8080"
	defaultTMDBBase     = "https://api.themoviedb.org/3"
	defaultImageBase    = "https://image.tmdb.org/t/p/w300"
	defaultDBPath       = "/app/data/moodreel.db"
	defaultMongoDB      = "moodreel"
	defaultCollection   = "search_counters"
	defaultDebounce     = 500 * time.Millisecond
	defaultSessionIdle  = 30 * time.Minute
	defaultGenreTTL     = 24 * time.Hour
	defaultCORSOrigin   = "http://localhost:5173"
	defaultEventSubject = "moodreel.search.recorded"
)

type Config struct {
	Env      env.Environment
	Port     string
	LogLevel slog.Level

	TMDB    TMDBConfig
	Store   StoreConfig
	NATS    NATSConfig
	Session SessionConfig

	CORSOrigins []string
}

type TMDBConfig struct {
	APIKey    string
	ReadToken string
	BaseURL   string
	ImageBase string
	GenreTTL  time.Duration
}

// StoreConfig selects the backend for search counters. Mongo fields name the
// hosted document store: endpoint, database and collection.
type StoreConfig struct {
	Driver     string
	DBPath     string
	MongoURI   string
	Database   string
	Collection string
}

type NATSConfig struct {
	URL     string
	Subject string
}

type SessionConfig struct {
	Debounce    time.Duration
	IdleTimeout time.Duration
}

// Load reads the configuration using os.Getenv.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom reads the configuration through getenv and validates it.
func LoadFrom(getenv func(string) string) (*Config, error) {
	or := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	debounce, err := durationOr(getenv("SEARCH_DEBOUNCE"), defaultDebounce)
	if err != nil {
		return nil, fmt.Errorf("SEARCH_DEBOUNCE: %w", err)
	}
	idle, err := durationOr(getenv("SESSION_IDLE_TIMEOUT"), defaultSessionIdle)
	if err != nil {
		return nil, fmt.Errorf("SESSION_IDLE_TIMEOUT: %w", err)
	}
	genreTTL, err := durationOr(getenv("TMDB_GENRE_TTL"), defaultGenreTTL)
	if err != nil {
		return nil, fmt.Errorf("TMDB_GENRE_TTL: %w", err)
	}

	cfg := &Config{
		Env:      env.Parse(getenv(env.Key)),
		Port:     or("PORT", defaultPort),
		LogLevel: logger.ParseLevel(getenv("LOG_LEVEL")),
		TMDB: TMDBConfig{
			APIKey:    strings.TrimSpace(getenv("TMDB_API_KEY")),
			ReadToken: strings.TrimSpace(getenv("TMDB_API_READ_TOKEN")),
			BaseURL:   strings.TrimRight(or("TMDB_BASE_URL", defaultTMDBBase), "/"),
			ImageBase: or("TMDB_IMAGE_BASE", defaultImageBase),
			GenreTTL:  genreTTL,
		},
		Store: StoreConfig{
			Driver:     strings.ToLower(or("STORE_DRIVER", DriverSQLite)),
			DBPath:     or("DB_PATH", defaultDBPath),
			MongoURI:   strings.TrimSpace(getenv("MONGO_URI")),
			Database:   or("MONGO_DATABASE", defaultMongoDB),
			Collection: or("MONGO_COLLECTION", defaultCollection),
		},
		NATS: NATSConfig{
			URL:     strings.TrimSpace(getenv("NATS_URL")),
			Subject: or("NATS_SUBJECT", defaultEventSubject),
		},
		Session: SessionConfig{
			Debounce:    debounce,
			IdleTimeout: idle,
		},
		CORSOrigins: splitList(or("CORS_ORIGINS", defaultCORSOrigin)),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.TMDB.APIKey == "" && c.TMDB.ReadToken == "" {
		errs = append(errs, errors.New("TMDB_API_KEY is required"))
	}
	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.DBPath == "" {
			errs = append(errs, errors.New("DB_PATH is required for the sqlite store"))
		}
	case DriverMongo:
		if c.Store.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required for the mongo store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver))
	}
	if c.Session.Debounce < 0 {
		errs = append(errs, errors.New("SEARCH_DEBOUNCE must not be negative"))
	}
	if c.Session.IdleTimeout <= 0 {
		errs = append(errs, errors.New("SESSION_IDLE_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) Addr() string { return ":" + c.Port }

func durationOr(raw string, fallback time.Duration) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	return time.ParseDuration(raw)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
