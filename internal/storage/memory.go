// Package storage keeps the open intake sessions of an api process.
package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dharsanguruparan/weavd/internal/session"
)

var (
	ErrNotFound = errors.New("session not found")
)

type entry struct {
	session  *session.Session
	lastSeen time.Time
}

// MemoryStore holds sessions behind an RWMutex. Sessions guard their own
// state, so the store lock only covers the map.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	now      func() time.Time
}

// NewMemoryStore constructs a MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*entry),
		now:      time.Now,
	}
}

// Save registers a session.
func (m *MemoryStore) Save(s *session.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID()] = &entry{session: s, lastSeen: m.now()}
}

// Get returns a session and marks it as recently used.
func (m *MemoryStore) Get(id string) (*session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	e.lastSeen = m.now()
	return e.session, nil
}

// Delete forgets a session without closing it.
func (m *MemoryStore) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Len reports how many sessions are registered.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Reap closes and forgets sessions idle for longer than ttl, as well as
// sessions that are already closed. Busy sessions are retried next time.
func (m *MemoryStore) Reap(ctx context.Context, ttl time.Duration) int {
	m.mu.RLock()
	cutoff := m.now().Add(-ttl)
	var stale []*session.Session
	for _, e := range m.sessions {
		if e.lastSeen.Before(cutoff) || e.session.State() == session.StateClosed {
			stale = append(stale, e.session)
		}
	}
	m.mu.RUnlock()

	reaped := 0
	for _, s := range stale {
		if err := s.Close(ctx); err != nil {
			continue
		}
		m.Delete(s.ID())
		reaped++
	}
	return reaped
}
