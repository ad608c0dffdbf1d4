package handlers

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handsomefox/moodreel/internal/env"
	"github.com/handsomefox/moodreel/internal/logger"
)

func TestAdapt(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(logger.NewWithWriter(&buf, slog.LevelDebug, env.Production))
	t.Cleanup(func() { slog.SetDefault(prev) })

	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{name: "status error", err: badRequest("unknown mood"), status: http.StatusBadRequest, body: `{"error":"unknown mood"}`},
		{name: "plain error", err: errors.New("disk full"), status: http.StatusInternalServerError, body: `{"error":"internal error"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Adapt(func(http.ResponseWriter, *http.Request) error { return tt.err }).
				ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/x", nil))
			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}

	require.Contains(t, buf.String(), `"err":"disk full"`)
	assert.NotContains(t, buf.String(), "unknown mood", "client errors are not logged")
}
