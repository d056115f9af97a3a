package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrSessionNotFound is returned when a session id is unknown (or already
// reaped).
var ErrSessionNotFound = errors.New("session not found")

// Manager owns the live orchestrators for one server process. Sessions are
// in-memory only: a restart drops them, which matches the product's
// no-persistence stance.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Orchestrator
	log      zerolog.Logger

	retention time.Duration
}

// NewManager creates a Manager that keeps submitted sessions around for
// retention before reaping, so candidates can still fetch their result view.
func NewManager(retention time.Duration, log zerolog.Logger) *Manager {
	return &Manager{
		sessions:  make(map[string]*Orchestrator),
		log:       log.With().Str("component", "session_manager").Logger(),
		retention: retention,
	}
}

// Put registers a session.
func (m *Manager) Put(o *Orchestrator) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[o.ID()] = o
}

// Get returns a session by id.
func (m *Manager) Get(id string) (*Orchestrator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return o, nil
}

// Remove tears down and forgets a session.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	o, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		o.Close()
	}
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// StartReaper launches the background loop that removes submitted sessions
// past the retention window. Returns immediately; the loop stops when ctx is
// cancelled.
func (m *Manager) StartReaper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.reap()
			}
		}
	}()
}

func (m *Manager) reap() {
	now := time.Now()

	m.mu.Lock()
	var stale []*Orchestrator
	for id, o := range m.sessions {
		if finishedAt, done := o.finished(); done && now.Sub(finishedAt) > m.retention {
			stale = append(stale, o)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, o := range stale {
		o.Close()
	}
	if len(stale) > 0 {
		m.log.Debug().Int("count", len(stale)).Msg("Reaped finished sessions")
	}
}

// Shutdown cancels every live clock. Session state is discarded.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.sessions {
		o.Close()
	}
	m.sessions = make(map[string]*Orchestrator)
}
