package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const DefaultIdleTimeout = 30 * time.Minute

type Manager struct {
	deps Deps
	idle time.Duration
	log  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(deps Deps, idle time.Duration) *Manager {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		deps:     deps,
		idle:     idle,
		log:      deps.Log,
		ctx:      ctx,
		cancel:   cancel,
		sessions: map[string]*Session{},
	}
}

// Create starts a new session and its initial loads.
func (m *Manager) Create() *Session {
	s := newSession(m.ctx, uuid.NewString(), m.deps, time.Now())

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	s.start()
	m.log.Debug("session: created", slog.String("session", s.ID))
	return s
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	s.Close()
	return nil
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep closes sessions idle since before now minus the idle timeout and
// returns how many it closed.
func (m *Manager) Sweep(now time.Time) int {
	cutoff := now.Add(-m.idle)

	m.mu.Lock()
	var stale []*Session
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.Close()
	}
	if len(stale) > 0 {
		m.log.Info("session: expired idle sessions", slog.Int("count", len(stale)))
	}
	return len(stale)
}

// Run sweeps idle sessions until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.idle / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.Sweep(now)
		}
	}
}

// Close ends every session.
func (m *Manager) Close() {
	m.cancel()

	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		all = append(all, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, s := range all {
		s.Close()
	}
}
