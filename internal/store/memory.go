package store

import (
	"context"
	"sync"
	"time"

	"github.com/ashureev/datequiz/internal/domain"
)

// MemoryStore implements Repository in process memory. It backs the
// console and MCP modes and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.StoredSession
	now      func() time.Time
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]domain.StoredSession),
		now:      time.Now,
	}
}

// GetSession implements Repository.
func (m *MemoryStore) GetSession(_ context.Context, sessionID string) (*domain.StoredSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	stored.Session = stored.Session.Clone()
	return &stored, nil
}

// SaveSession implements Repository.
func (m *MemoryStore) SaveSession(_ context.Context, sessionID string, s domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	stored, ok := m.sessions[sessionID]
	if !ok {
		stored = domain.StoredSession{SessionID: sessionID, CreatedAt: now}
	}
	stored.Session = s.Clone()
	stored.UpdatedAt = now
	m.sessions[sessionID] = stored
	return nil
}

// DeleteSession implements Repository.
func (m *MemoryStore) DeleteSession(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

// CleanupExpired implements Repository.
func (m *MemoryStore) CleanupExpired(_ context.Context, ttl time.Duration) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	threshold := m.now().Add(-ttl)
	var ids []string
	for id, stored := range m.sessions {
		if stored.UpdatedAt.Before(threshold) {
			ids = append(ids, id)
			delete(m.sessions, id)
		}
	}
	return ids, nil
}

// Ping implements Repository.
func (m *MemoryStore) Ping(context.Context) error { return nil }

// Close implements Repository.
func (m *MemoryStore) Close() error { return nil }
