package store

import (
	"sync"

	"github.com/referralpro/funnel/repository"
)

// Manager hands out the per-session stores. Stores are created lazily on
// first access and dropped when the session finishes.
type Manager struct {
	mu     sync.Mutex
	stores map[string]*Store
	repo   repository.RegistrationStateRepository
}

// NewManager creates a store manager backed by the given state repository.
func NewManager(repo repository.RegistrationStateRepository) *Manager {
	return &Manager{
		stores: make(map[string]*Store),
		repo:   repo,
	}
}

// Get returns the store for a session, creating it on first access.
func (m *Manager) Get(sessionID string) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.stores[sessionID]; ok {
		return s
	}
	s := New(sessionID, m.repo)
	m.stores[sessionID] = s
	return s
}

// Drop removes a session's store from the manager. Durable state is not
// touched; callers finish the signup first.
func (m *Manager) Drop(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stores, sessionID)
}
