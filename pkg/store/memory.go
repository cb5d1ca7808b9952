package store

import (
	"context"
	"errors"
	"sync"

	"github.com/go-training/photos-workshop/pkg/core"
)

var (
	// ErrSessionNotFound is returned when a session is not found in the store or has expired.
	ErrSessionNotFound = errors.New("session not found")
	// ErrNilSession is returned when attempting to save a nil session.
	ErrNilSession = errors.New("session cannot be nil")
	// ErrEmptySessionID is returned when the session ID string is empty.
	ErrEmptySessionID = errors.New("session ID cannot be empty")
)

// MemoryStore implements the core.Store interface using an in-memory map.
// Sessions are stored and returned as copies, so every caller works on its
// own snapshot.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]core.Session
}

// NewMemoryStore creates a new instance of MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]core.Session),
	}
}

func cloneSession(s *core.Session) core.Session {
	c := *s
	if s.Scopes != nil {
		c.Scopes = append([]string(nil), s.Scopes...)
	}
	c.MarkClean()
	return c
}

// SaveSession stores a session in memory, replacing any previous version.
func (m *MemoryStore) SaveSession(ctx context.Context, session *core.Session) error {
	if session == nil {
		return ErrNilSession
	}
	if session.ID == "" {
		return ErrEmptySessionID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[session.ID] = cloneSession(session)
	return nil
}

// GetSession retrieves a session by id.
// It returns ErrSessionNotFound if the session does not exist or has expired.
func (m *MemoryStore) GetSession(ctx context.Context, id string) (*core.Session, error) {
	if id == "" {
		return nil, ErrEmptySessionID
	}

	m.mu.RLock()
	session, exists := m.sessions[id]
	m.mu.RUnlock()

	if !exists {
		return nil, ErrSessionNotFound
	}
	if session.Expired() {
		_ = m.DeleteSession(ctx, id)
		return nil, ErrSessionNotFound
	}

	c := cloneSession(&session)
	return &c, nil
}

// DeleteSession removes a session by id.
// It returns ErrSessionNotFound if the session does not exist.
func (m *MemoryStore) DeleteSession(ctx context.Context, id string) error {
	if id == "" {
		return ErrEmptySessionID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[id]; !exists {
		return ErrSessionNotFound
	}

	delete(m.sessions, id)
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
