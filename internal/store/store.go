// Package store provides SQLite persistence for search counters.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("counter not found")

// Counter is one search term with its hit count and a snapshot of the first
// result seen when the term was first recorded.
type Counter struct {
	bun.BaseModel `bun:"table:search_counters,alias:c" bson:"-" json:"-"`

	ID         string `bun:"id,pk" bson:"_id" json:"id"`
	SearchTerm string `bun:"search_term,notnull" bson:"searchTerm" json:"search_term"`
	Count      int64  `bun:"count,notnull" bson:"count" json:"count"`
	MovieID    int64  `bun:"movie_id,notnull" bson:"movie_id" json:"movie_id"`
	Title      string `bun:"title,notnull" bson:"title" json:"title"`
	PosterURL  string `bun:"poster_url,notnull" bson:"poster_url" json:"poster_url"`
	CreatedAt  string `bun:"created_at,notnull" bson:"created_at" json:"created_at"`
	UpdatedAt  string `bun:"updated_at,notnull" bson:"updated_at" json:"updated_at"`
}

type Store struct {
	sqldb *sql.DB
	db    *bun.DB
}

func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("DB_PATH is required")
	}

	if !isMemory(dbPath) {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, err
		}
	}

	sqldb, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// One writer keeps SQLite happy and gives :memory: a single shared database.
	sqldb.SetMaxOpenConns(1)

	ctx := context.Background()
	if err := sqldb.PingContext(ctx); err != nil {
		if cerr := sqldb.Close(); cerr != nil {
			return nil, fmt.Errorf("ping db: %w; close failed: %w", err, cerr)
		}
		return nil, err
	}

	if err := initSchema(ctx, sqldb); err != nil {
		if cerr := sqldb.Close(); cerr != nil {
			return nil, fmt.Errorf("init schema: %w; close failed: %w", err, cerr)
		}
		return nil, err
	}

	bdb := bun.NewDB(sqldb, sqlitedialect.New())
	return &Store{sqldb: sqldb, db: bdb}, nil
}

func (s *Store) Close() error { return s.sqldb.Close() }

func isMemory(dbPath string) bool {
	return dbPath == ":memory:" || strings.HasPrefix(dbPath, "file::memory:")
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS search_counters (
	id TEXT PRIMARY KEY,
	search_term TEXT NOT NULL,
	count INTEGER NOT NULL DEFAULT 0,
	movie_id INTEGER NOT NULL DEFAULT 0,
	title TEXT NOT NULL DEFAULT '',
	poster_url TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	UNIQUE(search_term)
);
CREATE INDEX IF NOT EXISTS idx_search_counters_count ON search_counters(count);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// FindByTerm looks up the counter whose term equals term exactly.
func (s *Store) FindByTerm(ctx context.Context, term string) (Counter, error) {
	var c Counter
	err := s.db.NewSelect().
		Model(&c).
		Where("search_term = ?", term).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return Counter{}, ErrNotFound
	}
	return c, err
}

// Create inserts a new counter. An empty ID is filled in.
func (s *Store) Create(ctx context.Context, counter *Counter) error {
	now := time.Now().UTC().Format(time.RFC3339)

	// Copy to avoid mutating caller-owned object.
	c := *counter
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = now
	c.UpdatedAt = now

	if _, err := s.db.NewInsert().Model(&c).Exec(ctx); err != nil {
		return err
	}
	*counter = c
	return nil
}

// Increment adds one hit to seed.SearchTerm in a single statement. A new
// term is inserted with count 1 and the seed's snapshot; an existing term
// keeps its snapshot.
func (s *Store) Increment(ctx context.Context, seed Counter) (Counter, error) {
	now := time.Now().UTC().Format(time.RFC3339)

	c := seed
	c.ID = uuid.NewString()
	c.Count = 1
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := s.db.NewInsert().
		Model(&c).
		On("CONFLICT (search_term) DO UPDATE").
		Set("count = count + 1").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return Counter{}, err
	}
	return s.FindByTerm(ctx, seed.SearchTerm)
}

// Top returns at most limit counters ordered by count, highest first.
func (s *Store) Top(ctx context.Context, limit int) (out []Counter, err error) {
	out = []Counter{}
	if limit <= 0 {
		return out, nil
	}
	err = s.db.NewSelect().
		Model(&out).
		OrderExpr("count DESC").
		OrderExpr("updated_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return out, nil
}
