// Package memstore is an in-memory session store used when Redis is not
// configured (local development) and in tests. Sessions expire on read after
// the TTL; there is no background sweeper.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/Shetty-boy/Omnichannel-Agent-AI/internal/domain"
)

type entry struct {
	sess      domain.Session
	expiresAt time.Time
}

// Store implements port.SessionStore in process memory.
type Store struct {
	mu    sync.RWMutex
	items map[string]entry
	ttl   time.Duration
}

// New creates an in-memory session store with the given TTL.
func New(ttl time.Duration) *Store {
	return &Store{
		items: make(map[string]entry),
		ttl:   ttl,
	}
}

// Load returns a copy of the stored session, or nil when absent/expired.
// Returning a copy keeps racing turns on the same id from sharing a
// *Session; last save still wins, as the session-store contract allows.
func (s *Store) Load(_ context.Context, sessionID string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.items[sessionID]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, nil
	}
	sess := e.sess
	return &sess, nil
}

// Save stores the session and refreshes its TTL.
func (s *Store) Save(_ context.Context, sessionID string, sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[sessionID] = entry{
		sess:      *sess,
		expiresAt: time.Now().Add(s.ttl),
	}
	return nil
}
