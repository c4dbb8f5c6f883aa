package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Jju17/pouleparty-server/internal/game"
)

// ErrCodeInUse is returned when a new game's join code collides with a live
// session. Callers regenerate the game ID and retry.
var ErrCodeInUse = errors.New("join code already in use")

// Manager tracks all live sessions, keyed by join code.
type Manager struct {
	sessions map[string]*Session
	mu       sync.RWMutex
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Create registers a session for cfg and starts its tick loop.
func (m *Manager) Create(cfg *game.GameConfig, asOf time.Time) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	code := cfg.JoinCode()
	if _, exists := m.sessions[code]; exists {
		return nil, ErrCodeInUse
	}

	s := New(cfg, asOf)
	m.sessions[code] = s
	go s.Run()

	slog.Info("session created", "code", code, "mode", cfg.Mode.String())
	return s, nil
}

// Get returns a session by join code.
func (m *Manager) Get(code string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[code]
}

// Remove stops a session and forgets it.
func (m *Manager) Remove(code string) {
	m.mu.Lock()
	s := m.sessions[code]
	delete(m.sessions, code)
	m.mu.Unlock()

	if s != nil {
		s.Stop()
		slog.Info("session removed", "code", code)
	}
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// FindByPlayerID finds the session a player is attached to.
func (m *Manager) FindByPlayerID(playerID string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sessions {
		if s.Player(playerID) != nil {
			return s
		}
	}
	return nil
}
