// internal/lobby/lobby_store.go
package lobby

import (
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Store manages active lobbies in memory. Lobbies enter through Create and leave when they are
// destroyed; lookups never create.
type Store struct {
	mu      sync.Mutex
	lobbies map[uuid.UUID]*Lobby
	opts    Options
}

// NewStore returns an empty store whose lobbies are built with opts.
func NewStore(opts Options) *Store {
	return &Store{
		lobbies: make(map[uuid.UUID]*Lobby),
		opts:    opts,
	}
}

// Create builds a lobby, optionally password protected, and registers it.
func (s *Store) Create(passwordHash string) *Lobby {
	opts := s.opts
	opts.PasswordHash = passwordHash
	l := New(opts)
	l.onDestroy = s.Delete

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lobbies[l.ID] = l
	log.WithField("lobby", l.ID).Info("lobby created")
	return l
}

// Delete removes a lobby from the store. It does not tear the lobby down.
func (s *Store) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lobbies, id)
}

func (s *Store) Get(id uuid.UUID) (*Lobby, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lobbies[id]
	return l, ok
}

// List returns a copy of the active lobbies.
func (s *Store) List() []*Lobby {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Lobby, 0, len(s.lobbies))
	for _, l := range s.lobbies {
		out = append(out, l)
	}
	return out
}

// CloseAll tears down every lobby, used on shutdown.
func (s *Store) CloseAll() {
	for _, l := range s.List() {
		l.Close()
	}
}
