package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/handsomefox/moodreel/internal/logger"
	"github.com/handsomefox/moodreel/internal/session"
	"github.com/handsomefox/moodreel/internal/trailers"
)

const (
	heartbeatInterval = 30 * time.Second
	writeDeadline     = 60 * time.Second
)

type sessionResponse struct {
	ID    string        `json:"id"`
	State session.State `json:"state"`
}

// postSession resumes the session named by the cookie when it is still
// alive and starts a new one otherwise.
func (h *Handler) postSession(w http.ResponseWriter, r *http.Request) error {
	if id := sessionCookie(r); id != "" {
		if s, err := h.sessions.Get(id); err == nil {
			s.Touch()
			h.setSessionCookie(w, s.ID)
			writeJSON(w, http.StatusOK, &sessionResponse{ID: s.ID, State: s.Snapshot()})
			return nil
		}
	}

	s := h.sessions.Create()
	h.setSessionCookie(w, s.ID)
	writeJSON(w, http.StatusCreated, &sessionResponse{ID: s.ID, State: s.Snapshot()})
	return nil
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) error {
	s := sessionFrom(r.Context())
	writeJSON(w, http.StatusOK, &sessionResponse{ID: s.ID, State: s.Snapshot()})
	return nil
}

func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request) error {
	s := sessionFrom(r.Context())
	if err := h.sessions.Delete(s.ID); err != nil {
		return sessionError(err)
	}
	if sessionCookie(r) == s.ID {
		h.clearSessionCookie(w)
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

type termRequest struct {
	Term string `json:"term"`
}

func (h *Handler) putTerm(w http.ResponseWriter, r *http.Request) error {
	var req termRequest
	if err := decodeJSON(r, &req); err != nil {
		return badRequest("bad request")
	}
	return h.accepted(w, r, func(s *session.Session) error { return s.SetTerm(req.Term) })
}

type preferenceRequest struct {
	Mood    string `json:"mood"`
	Minutes int    `json:"minutes"`
}

func (h *Handler) putPreference(w http.ResponseWriter, r *http.Request) error {
	var req preferenceRequest
	if err := decodeJSON(r, &req); err != nil {
		return badRequest("bad request")
	}
	return h.accepted(w, r, func(s *session.Session) error { return s.SetPreference(req.Mood, req.Minutes) })
}

type trendingRequest struct {
	Tab string `json:"tab"`
}

func (h *Handler) putTrending(w http.ResponseWriter, r *http.Request) error {
	var req trendingRequest
	if err := decodeJSON(r, &req); err != nil {
		return badRequest("bad request")
	}
	return h.accepted(w, r, func(s *session.Session) error { return s.SetTrendingTab(req.Tab) })
}

type trailersRequest struct {
	Category trailers.Category `json:"category"`
}

func (h *Handler) putTrailers(w http.ResponseWriter, r *http.Request) error {
	var req trailersRequest
	if err := decodeJSON(r, &req); err != nil {
		return badRequest("bad request")
	}
	return h.accepted(w, r, func(s *session.Session) error { return s.SetTrailerCategory(req.Category) })
}

func (h *Handler) postRefreshForYou(w http.ResponseWriter, r *http.Request) error {
	return h.accepted(w, r, (*session.Session).RefreshForYou)
}

// accepted applies fn and answers with the state as it stands. Results of
// the requests fn starts arrive on the event stream.
func (h *Handler) accepted(w http.ResponseWriter, r *http.Request, fn func(*session.Session) error) error {
	s := sessionFrom(r.Context())
	if err := fn(s); err != nil {
		return sessionError(err)
	}
	writeJSON(w, http.StatusAccepted, &sessionResponse{ID: s.ID, State: s.Snapshot()})
	return nil
}

// streamEvents serves one session's region updates as server-sent events:
// a snapshot first, then every change, with a periodic heartbeat.
func (h *Handler) streamEvents() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if ctx.Err() != nil {
			return
		}
		s := sessionFrom(ctx)
		log := h.log.With(slog.String("session", s.ID))

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		rc := http.NewResponseController(w)
		if err := rc.Flush(); err != nil {
			log.Error("sse: flush headers failed", logger.Error(err))
			http.Error(w, "Streaming not supported", http.StatusInternalServerError)
			return
		}

		events, unsubscribe := s.Subscribe()
		defer unsubscribe()

		if err := h.sendEvent(w, rc, "snapshot", s.Snapshot()); err != nil {
			log.Debug("sse: client gone before snapshot", logger.Error(err))
			return
		}

		heartbeat := time.NewTicker(heartbeatInterval)
		defer heartbeat.Stop()

		for {
			select {
			case evt, ok := <-events:
				if !ok {
					_ = h.sendEvent(w, rc, "closed", map[string]string{"id": s.ID})
					log.Debug("sse: session closed")
					return
				}
				if err := h.sendEvent(w, rc, string(evt.Region), evt.State); err != nil {
					log.Debug("sse: client disconnected during send")
					return
				}
			case now := <-heartbeat.C:
				s.Touch()
				if err := h.sendEvent(w, rc, "heartbeat", map[string]int64{"ts": now.Unix()}); err != nil {
					log.Debug("sse: client disconnected during heartbeat")
					return
				}
			case <-ctx.Done():
				return
			}
		}
	})
}

func (h *Handler) sendEvent(w http.ResponseWriter, rc *http.ResponseController, name string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, payload); err != nil {
		return err
	}
	if err := rc.Flush(); err != nil {
		return err
	}
	if err := rc.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
		h.log.Debug("sse: set write deadline failed", logger.Error(err))
	}
	return nil
}
