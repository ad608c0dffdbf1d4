package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/handsomefox/moodreel/internal/session"
)

type sessionKey struct{}

// MiddlewareSession resolves the {id} route parameter to a live session.
func (h *Handler) MiddlewareSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := h.sessions.Get(pathParam(r, "id"))
		if err != nil {
			writeJSON(w, http.StatusNotFound, &errorResponse{Error: "session not found"})
			return
		}
		s.Touch()
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, s)))
	})
}

func sessionFrom(ctx context.Context) *session.Session {
	s, _ := ctx.Value(sessionKey{}).(*session.Session)
	return s
}

// sessionError maps session failures onto HTTP errors.
func sessionError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, session.ErrInvalidInput):
		return badRequest(err.Error())
	case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrClosed):
		return notFound("session not found")
	default:
		return internal(err)
	}
}
