package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/bluff/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func notice() protocol.Message {
	return protocol.LobbyNotice(protocol.EventGameStart)
}

func TestSendRequiresBinding(t *testing.T) {
	s := New(uuid.New(), DefaultBurst, DefaultInterval)
	assert.Equal(t, StatusDisconnected, s.Status())
	assert.False(t, s.Send(notice()))

	s.Connecting()
	assert.Equal(t, StatusConnecting, s.Status())
	assert.False(t, s.Send(notice()))

	_, out := s.Attach(func() {})
	assert.Equal(t, StatusConnected, s.Status())
	require.True(t, s.Send(notice()))
	assert.Equal(t, protocol.EventGameStart, (<-out).EventName())
}

func TestSendDropsWhenOutboxFull(t *testing.T) {
	s := New(uuid.New(), DefaultBurst, DefaultInterval)
	s.Attach(func() {})
	for i := 0; i < OutboxSize; i++ {
		require.True(t, s.Send(notice()))
	}
	assert.False(t, s.Send(notice()))
}

func TestReattachReplacesBinding(t *testing.T) {
	s := New(uuid.New(), DefaultBurst, DefaultInterval)

	ctx1, cancel1 := context.WithCancel(context.Background())
	gen1, out1 := s.Attach(cancel1)
	gen2, out2 := s.Attach(func() {})
	assert.NotEqual(t, gen1, gen2)

	assert.Error(t, ctx1.Err(), "old transport is cancelled")
	_, open := <-out1
	assert.False(t, open, "old outbox is closed")

	assert.False(t, s.Detach(gen1), "stale binding cannot detach the new one")
	assert.Equal(t, StatusConnected, s.Status())
	s.Closing(gen1)
	assert.Equal(t, StatusConnected, s.Status())

	require.True(t, s.Send(notice()))
	<-out2

	s.Closing(gen2)
	assert.Equal(t, StatusDisconnecting, s.Status())
	assert.True(t, s.Detach(gen2))
	assert.Equal(t, StatusDisconnected, s.Status())
	assert.False(t, s.Detach(gen2), "detach is idempotent")
}

func TestAllowIsRateLimited(t *testing.T) {
	s := New(uuid.New(), 3, time.Hour)
	assert.True(t, s.Allow())
	assert.True(t, s.Allow())
	assert.True(t, s.Allow())
	assert.False(t, s.Allow())
}

func TestStoreRegister(t *testing.T) {
	st := NewStore(0, 0)
	id := uuid.New()

	_, ok := st.Get(id)
	assert.False(t, ok, "lookups never create sessions")

	s := st.Register(id)
	assert.Same(t, s, st.Register(id))
	got, ok := st.Get(id)
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, 1, st.Len())
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "CONNECTED", StatusConnected.String())
	assert.Equal(t, "CONNECTING", StatusConnecting.String())
	assert.Equal(t, "DISCONNECTING", StatusDisconnecting.String())
	assert.Equal(t, "DISCONNECTED", StatusDisconnected.String())
}

// age backdates a session's last activity.
func age(s *Session, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now().Add(-d)
}

func TestSweepRemovesIdleSessions(t *testing.T) {
	st := NewStore(0, 0)

	idle := st.Register(uuid.New())
	age(idle, 2*time.Hour)

	fresh := st.Register(uuid.New())

	inLobby := st.Register(uuid.New())
	inLobby.SetLobbyID(uuid.New())
	age(inLobby, 2*time.Hour)

	connected := st.Register(uuid.New())
	connected.Attach(func() {})
	age(connected, 2*time.Hour)

	touched := st.Register(uuid.New())
	age(touched, 2*time.Hour)
	touched.Touch()

	assert.Equal(t, 1, st.Sweep(time.Hour))
	_, ok := st.Get(idle.ID())
	assert.False(t, ok)
	for _, s := range []*Session{fresh, inLobby, connected, touched} {
		_, ok := st.Get(s.ID())
		assert.True(t, ok)
	}
	assert.Equal(t, 4, st.Len())
}

func TestSweepAfterLastTransportCloses(t *testing.T) {
	st := NewStore(0, 0)
	s := st.Register(uuid.New())
	gen, _ := s.Attach(func() {})
	require.True(t, s.Detach(gen))

	assert.Zero(t, st.Sweep(time.Hour), "detach counts as activity")
	age(s, 2*time.Hour)
	assert.Equal(t, 1, st.Sweep(time.Hour))
	assert.Zero(t, st.Len())
}

func TestJanitorSweeps(t *testing.T) {
	st := NewStore(0, 0)
	age(st.Register(uuid.New()), time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go st.Janitor(ctx, 5*time.Millisecond, time.Second)

	require.Eventually(t, func() bool { return st.Len() == 0 }, time.Second, 5*time.Millisecond)
}
