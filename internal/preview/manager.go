package preview

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"billgen/internal/logger"
)

// Manager owns the open sessions.
type Manager struct {
	renderer Renderer
	store    *Store
	log      zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a manager whose sessions share store.
func NewManager(r Renderer, store *Store) *Manager {
	return &Manager{
		renderer: r,
		store:    store,
		log:      logger.WithComponent("preview-manager"),
		sessions: make(map[string]*Session),
	}
}

// Store returns the shared artifact store.
func (m *Manager) Store() *Store {
	return m.store
}

// Open creates a new idle session.
func (m *Manager) Open() *Session {
	s := NewSession(uuid.NewString(), m.renderer, m.store)

	m.mu.Lock()
	m.sessions[s.ID] = s
	n := len(m.sessions)
	m.mu.Unlock()

	m.log.Debug().Str("session", s.ID).Int("open", n).Msg("Preview session opened")
	return s
}

// Get looks up a session.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// CloseSession closes and forgets a session.
func (m *Manager) CloseSession(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return false
	}
	s.Close()
	return true
}

// CloseAll closes every session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

// Len is the number of open sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
