// internal/session/session.go
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/bluff/internal/protocol"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// OutboxSize is the number of messages buffered per transport before sends are dropped.
const OutboxSize = 32

// Status is a session's transport connectivity.
type Status int32

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
	StatusDisconnecting
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "CONNECTING"
	case StatusConnected:
		return "CONNECTED"
	case StatusDisconnecting:
		return "DISCONNECTING"
	default:
		return "DISCONNECTED"
	}
}

// Session is one client's identity plus its current transport binding. A client keeps the same
// Session across reconnects; each new transport replaces the previous one.
type Session struct {
	clientID uuid.UUID
	limiter  *rate.Limiter

	mu      sync.Mutex
	status  Status
	out     chan protocol.Message
	cancel  context.CancelFunc
	gen     uint64
	lobbyID uuid.UUID

	lastActive time.Time
}

// New creates a disconnected session whose inbound actions are admitted at one per every, with
// bursts of up to burst.
func New(clientID uuid.UUID, burst int, every time.Duration) *Session {
	return &Session{
		clientID:   clientID,
		limiter:    rate.NewLimiter(rate.Every(every), burst),
		lastActive: time.Now(),
	}
}

func (s *Session) ID() uuid.UUID { return s.clientID }

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Connecting marks a transport handshake in progress.
func (s *Session) Connecting() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.out == nil {
		s.status = StatusConnecting
	}
}

// Attach binds a new transport. Any previous binding is cancelled and its outbox closed. The
// returned generation identifies this binding to Detach.
func (s *Session) Attach(cancel context.CancelFunc) (uint64, <-chan protocol.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked()
	s.gen++
	s.lastActive = time.Now()
	s.out = make(chan protocol.Message, OutboxSize)
	s.cancel = cancel
	s.status = StatusConnected
	return s.gen, s.out
}

// Closing marks binding gen as shutting down. Stale generations are ignored.
func (s *Session) Closing(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.gen && s.out != nil {
		s.status = StatusDisconnecting
	}
}

// Detach releases binding gen. It reports false when gen has already been replaced by a newer
// binding, in which case the session stays connected.
func (s *Session) Detach(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || s.out == nil {
		return false
	}
	s.releaseLocked()
	s.status = StatusDisconnected
	s.lastActive = time.Now()
	return true
}

func (s *Session) releaseLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.out != nil {
		close(s.out)
		s.out = nil
	}
}

// Send queues msg without blocking. It reports false if the session is not connected or its
// outbox is full.
func (s *Session) Send(msg protocol.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.out == nil || s.status != StatusConnected {
		return false
	}
	select {
	case s.out <- msg:
		return true
	default:
		log.WithField("client", s.clientID).Warnf("outbox full, dropping %s", msg.EventName())
		return false
	}
}

// Allow consults the admission gate for one inbound action.
func (s *Session) Allow() bool {
	return s.limiter.Allow()
}

// LobbyID returns the lobby the client belongs to, or uuid.Nil.
func (s *Session) LobbyID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lobbyID
}

func (s *Session) SetLobbyID(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lobbyID = id
}

// Touch records client activity that does not go through a transport, such as an HTTP request.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()
}

// idleSince reports whether the session has no transport, no lobby and no activity after cutoff.
func (s *Session) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out == nil && s.status == StatusDisconnected && s.lobbyID == uuid.Nil && s.lastActive.Before(cutoff)
}
