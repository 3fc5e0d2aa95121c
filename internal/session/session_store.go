// internal/session/session_store.go
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultBurst    = 10
	DefaultInterval = time.Second

	// DefaultIdleTimeout is how long a session with no transport and no lobby is kept.
	DefaultIdleTimeout = time.Hour
)

// Store is the registry of client sessions. Sessions are only created by Register and only removed
// by Sweep.
type Store struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	burst    int
	every    time.Duration
}

// NewStore creates a registry whose sessions share one admission rate.
func NewStore(burst int, every time.Duration) *Store {
	if burst <= 0 {
		burst = DefaultBurst
	}
	if every <= 0 {
		every = DefaultInterval
	}
	return &Store{
		sessions: make(map[uuid.UUID]*Session),
		burst:    burst,
		every:    every,
	}
}

// Register returns the session for clientID, creating it on first registration.
func (s *Store) Register(clientID uuid.UUID) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[clientID]; ok {
		return sess
	}
	sess := New(clientID, s.burst, s.every)
	s.sessions[clientID] = sess
	return sess
}

func (s *Store) Get(clientID uuid.UUID) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[clientID]
	return sess, ok
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes every session that has had no transport, no lobby and no activity for maxIdle, and
// returns how many were removed.
func (s *Store) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sess := range s.sessions {
		if sess.idleSince(cutoff) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// Janitor sweeps idle sessions every interval until ctx is done.
func (s *Store) Janitor(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(maxIdle); n > 0 {
				log.Infof("removed %d idle sessions, %d remain", n, s.Len())
			}
		}
	}
}
