package session

import (
	"context"
	"sync"
	"time"
)

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]Session
	ttl      time.Duration
	now      func() time.Time

	lastSweep time.Time
}

// NewMemoryStore constructs an in-process Store. Sessions idle for longer
// than ttl are treated as absent; ttl <= 0 disables expiry.
func NewMemoryStore(ttl time.Duration) Store {
	return &memoryStore{
		sessions: make(map[int64]Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns the stored session or an entry session.
func (m *memoryStore) Get(_ context.Context, userID int64) (Session, error) {
	if userID == 0 {
		return Session{}, ErrInvalidUser
	}
	m.mu.RLock()
	s, ok := m.sessions[userID]
	m.mu.RUnlock()
	if !ok {
		return Entry(), nil
	}
	if m.expired(s) {
		m.mu.Lock()
		if cur, ok := m.sessions[userID]; ok && m.expired(cur) {
			delete(m.sessions, userID)
		}
		m.mu.Unlock()
		return Entry(), nil
	}
	return s, nil
}

// Put stores s, stamping UpdatedAt. At most once per ttl it also drops
// expired sessions of users who never came back.
func (m *memoryStore) Put(_ context.Context, userID int64, s Session) error {
	if userID == 0 {
		return ErrInvalidUser
	}
	now := m.now()
	s.UpdatedAt = now.UTC()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ttl > 0 && now.Sub(m.lastSweep) >= m.ttl {
		m.sweepLocked()
		m.lastSweep = now
	}
	m.sessions[userID] = s
	return nil
}

func (m *memoryStore) sweepLocked() {
	for id, s := range m.sessions {
		if m.expired(s) {
			delete(m.sessions, id)
		}
	}
}

// Delete removes the session for a user.
func (m *memoryStore) Delete(_ context.Context, userID int64) error {
	if userID == 0 {
		return ErrInvalidUser
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}

func (m *memoryStore) expired(s Session) bool {
	if m.ttl <= 0 || s.UpdatedAt.IsZero() {
		return false
	}
	return m.now().Sub(s.UpdatedAt) > m.ttl
}
