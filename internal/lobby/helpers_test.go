package lobby

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/bluff/internal/cache"
	"github.com/jason-s-yu/bluff/internal/protocol"
	"github.com/jason-s-yu/bluff/internal/session"
	"github.com/stretchr/testify/require"
)

// fakeClient records every message the lobby sends it.
type fakeClient struct {
	mu       sync.Mutex
	id       uuid.UUID
	status   session.Status
	lobbyID  uuid.UUID
	messages []protocol.Message
	refuse   bool
	explode  bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{id: uuid.New(), status: session.StatusConnecting}
}

func (c *fakeClient) ID() uuid.UUID { return c.id }

func (c *fakeClient) Status() session.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *fakeClient) setStatus(s session.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = s
}

func (c *fakeClient) Send(msg protocol.Message) bool {
	if c.explode {
		panic("transport gone")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.refuse {
		return false
	}
	c.messages = append(c.messages, msg)
	return true
}

func (c *fakeClient) LobbyID() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lobbyID
}

func (c *fakeClient) SetLobbyID(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lobbyID = id
}

func (c *fakeClient) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
}

// events lists the names of received messages in order.
func (c *fakeClient) events() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.messages))
	for i, m := range c.messages {
		out[i] = m.EventName()
	}
	return out
}

func (c *fakeClient) count(event string) int {
	n := 0
	for _, e := range c.events() {
		if e == event {
			n++
		}
	}
	return n
}

// last returns the most recent message named event, or nil.
func (c *fakeClient) last(event string) protocol.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].EventName() == event {
			return c.messages[i]
		}
	}
	return nil
}

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// fakeScheduler never fires on its own; tests fire timers explicitly.
type fakeScheduler struct {
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	t := &fakeTimer{d: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) pending() []*fakeTimer {
	var out []*fakeTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// fire runs t the way time.AfterFunc would, unless it was stopped.
func (s *fakeScheduler) fire(t *fakeTimer) {
	if t.stopped || t.fired {
		return
	}
	t.fired = true
	t.f()
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []cache.GameActionRecord
}

func (r *fakeRecorder) Record(rec cache.GameActionRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

type testEnv struct {
	store    *Store
	lobby    *Lobby
	sched    *fakeScheduler
	recorder *fakeRecorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{sched: &fakeScheduler{}, recorder: &fakeRecorder{}}
	env.store = NewStore(Options{
		Scheduler: env.sched,
		Rand:      rand.New(rand.NewSource(1)),
		Recorder:  env.recorder,
	})
	env.lobby = env.store.Create("")
	return env
}

// join seats n clients and brings their transports up.
func (env *testEnv) join(t *testing.T, n int) []*fakeClient {
	t.Helper()
	clients := make([]*fakeClient, n)
	for i := range clients {
		c := newFakeClient()
		_, err := env.lobby.Join(c)
		require.NoError(t, err)
		c.setStatus(session.StatusConnected)
		require.NoError(t, env.lobby.Connect(c))
		clients[i] = c
	}
	return clients
}

// startGame joins n clients and readies them all.
func (env *testEnv) startGame(t *testing.T, n int) []*fakeClient {
	t.Helper()
	clients := env.join(t, n)
	for _, c := range clients {
		env.lobby.SetReady(c, true)
	}
	require.Equal(t, StateInGame, env.lobby.State())
	return clients
}

// byPlayer maps each seated player's ID to its client.
func (env *testEnv) byPlayer(t *testing.T, clients []*fakeClient) map[uuid.UUID]*fakeClient {
	t.Helper()
	out := make(map[uuid.UUID]*fakeClient, len(clients))
	for _, c := range clients {
		p, ok := env.lobby.Player(c.ID())
		require.True(t, ok)
		out[p.ID] = c
	}
	return out
}

func (env *testEnv) disconnect(c *fakeClient) {
	c.setStatus(session.StatusDisconnected)
	env.lobby.Disconnect(c)
}

func (env *testEnv) reconnect(t *testing.T, c *fakeClient) {
	t.Helper()
	c.setStatus(session.StatusConnected)
	require.NoError(t, env.lobby.Connect(c))
}
