package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handsomefox/moodreel/internal/env"
)

func getenvFrom(vals map[string]string) func(string) string {
	return func(key string) string { return vals[key] }
}

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(getenvFrom(map[string]string{"TMDB_API_KEY": "key"}))
	require.NoError(t, err)

	assert.Equal(t, env.Local, cfg.Env)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "https://api.themoviedb.org/3", cfg.TMDB.BaseURL)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, 500*time.Millisecond, cfg.Session.Debounce)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTimeout)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOrigins)
	assert.Empty(t, cfg.NATS.URL)
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(getenvFrom(map[string]string{
		"ENV":              "production",
		"PORT":             "9000",
		"LOG_LEVEL":        "debug",
		"TMDB_API_KEY":     "key",
		"TMDB_BASE_URL":    "http://tmdb.local/3/",
		"STORE_DRIVER":     "mongo",
		"MONGO_URI":        "mongodb://db:27017",
		"MONGO_COLLECTION": "counters",
		"SEARCH_DEBOUNCE":  "250ms",
		"CORS_ORIGINS":     "https://a.example, https://b.example,",
		"NATS_URL":         "nats://nats:4222",
	}))
	require.NoError(t, err)

	assert.Equal(t, env.Production, cfg.Env)
	assert.Equal(t, ":9000", cfg.Addr())
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "http://tmdb.local/3", cfg.TMDB.BaseURL)
	assert.Equal(t, DriverMongo, cfg.Store.Driver)
	assert.Equal(t, "counters", cfg.Store.Collection)
	assert.Equal(t, "moodreel", cfg.Store.Database)
	assert.Equal(t, 250*time.Millisecond, cfg.Session.Debounce)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, "nats://nats:4222", cfg.NATS.URL)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name string
		vals map[string]string
		want string
	}{
		{
			name: "missing tmdb key",
			vals: map[string]string{},
			want: "TMDB_API_KEY is required",
		},
		{
			name: "mongo without uri",
			vals: map[string]string{"TMDB_API_KEY": "k", "STORE_DRIVER": "mongo"},
			want: "MONGO_URI is required",
		},
		{
			name: "unknown driver",
			vals: map[string]string{"TMDB_API_KEY": "k", "STORE_DRIVER": "redis"},
			want: `unknown STORE_DRIVER "redis"`,
		},
		{
			name: "bad debounce",
			vals: map[string]string{"TMDB_API_KEY": "k", "SEARCH_DEBOUNCE": "soon"},
			want: "SEARCH_DEBOUNCE",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(getenvFrom(tt.vals))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFrom_ReadTokenAlone(t *testing.T) {
	cfg, err := LoadFrom(getenvFrom(map[string]string{"TMDB_API_READ_TOKEN": "token"}))
	require.NoError(t, err)
	assert.Equal(t, "token", cfg.TMDB.ReadToken)
}
