package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/handsomefox/moodreel/internal/config"
	"github.com/handsomefox/moodreel/internal/events"
	"github.com/handsomefox/moodreel/internal/handlers"
	"github.com/handsomefox/moodreel/internal/logger"
	"github.com/handsomefox/moodreel/internal/mood"
	"github.com/handsomefox/moodreel/internal/popularity"
	"github.com/handsomefox/moodreel/internal/recommend"
	"github.com/handsomefox/moodreel/internal/session"
	"github.com/handsomefox/moodreel/internal/store"
	"github.com/handsomefox/moodreel/internal/store/mongostore"
	"github.com/handsomefox/moodreel/internal/tmdb"
	"github.com/handsomefox/moodreel/internal/trailers"
	"github.com/handsomefox/moodreel/internal/web"

	_ "github.com/joho/godotenv/autoload"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Println("Error:", err.Error())
		os.Exit(1)
	}
}

type counterStore interface {
	popularity.Store
	io.Closer
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(cfg.LogLevel, cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Error("Failed to close store", logger.Error(err))
		}
	}()

	var publisher events.Publisher = events.Nop{}
	if cfg.NATS.URL != "" {
		nc, err := events.NewNATS(cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to nats: %w", err)
		}
		defer func() {
			if err := nc.Close(); err != nil {
				log.Error("Failed to close nats", logger.Error(err))
			}
		}()
		publisher = nc
	}

	catalog := tmdb.New(tmdb.Options{
		APIKey:    cfg.TMDB.APIKey,
		ReadToken: cfg.TMDB.ReadToken,
		BaseURL:   cfg.TMDB.BaseURL,
		Logger:    log,
	})
	checkMoodGenres(ctx, log, catalog)

	counters := popularity.New(st, log, popularity.WithPublisher(publisher, cfg.NATS.Subject))
	forYou := recommend.NewPersonalizer(counters, catalog, log, nil)
	reels := trailers.New(catalog, log)

	sessions := session.NewManager(session.Deps{
		Catalog:  catalog,
		Recorder: counters,
		ForYou:   forYou,
		Trailers: reels,
		Log:      log,
		Debounce: cfg.Session.Debounce,
	}, cfg.Session.IdleTimeout)
	defer sessions.Close()
	go sessions.Run(ctx)

	app, err := handlers.New(&handlers.Config{
		Catalog:   catalog,
		Recorder:  counters,
		Board:     counters,
		ForYou:    forYou,
		Trailers:  reels,
		Sessions:  sessions,
		ImageBase: cfg.TMDB.ImageBase,
		GenreTTL:  cfg.TMDB.GenreTTL,
		Env:       cfg.Env,
		Log:       log,
	})
	if err != nil {
		return fmt.Errorf("failed to init handlers: %w", err)
	}

	dist, err := web.Dist()
	if err != nil {
		return fmt.Errorf("failed to load frontend: %w", err)
	}
	router, err := newRouter(cfg, log, app, dist)
	if err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}

	// WriteTimeout stays unset: event streams extend their own deadline.
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", slog.String("addr", server.Addr), slog.String("env", string(cfg.Env)))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func openStore(ctx context.Context, cfg config.StoreConfig) (counterStore, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		return mongostore.Open(ctx, cfg.MongoURI, cfg.Database, cfg.Collection)
	default:
		return store.Open(cfg.DBPath)
	}
}

// checkMoodGenres warns about mood genres the catalog does not know. Those
// genres are dropped from discovery.
func checkMoodGenres(ctx context.Context, log *slog.Logger, catalog *tmdb.Client) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	genres, err := catalog.Genres(ctx)
	if err != nil {
		log.Warn("Genre catalog unavailable at start-up", logger.Error(err))
		return
	}
	for label, names := range mood.Validate(mood.NewCatalog(genres)) {
		log.Warn("Mood references unknown genres", slog.String("mood", label), slog.Any("genres", names))
	}
}
