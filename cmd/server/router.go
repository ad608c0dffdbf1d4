package main

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/handsomefox/moodreel/internal/config"
	"github.com/handsomefox/moodreel/internal/handlers"
)

func newRouter(cfg *config.Config, log *slog.Logger, app *handlers.Handler, dist fs.FS) (http.Handler, error) {
	spa, err := handlers.SPA(dist)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(log, &httplog.Options{
		Level:         slog.LevelInfo,
		Schema:        httplog.SchemaECS.Concise(!cfg.Env.IsProduction()),
		RecoverPanics: true,
		Skip: func(req *http.Request, respStatus int) bool {
			return req.URL.Path == "/healthz" && respStatus == http.StatusOK
		},
	}))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", handlers.Healthz)
	r.Route("/api", app.RegisterRoutes)
	r.Handle("/*", spa)
	return r, nil
}
