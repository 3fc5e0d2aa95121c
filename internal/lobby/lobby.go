// internal/lobby/lobby.go
package lobby

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/bluff/internal/cache"
	"github.com/jason-s-yu/bluff/internal/cards"
	"github.com/jason-s-yu/bluff/internal/fsm"
	"github.com/jason-s-yu/bluff/internal/game"
	"github.com/jason-s-yu/bluff/internal/protocol"
	"github.com/jason-s-yu/bluff/internal/session"
	log "github.com/sirupsen/logrus"
)

// State is a lobby phase.
type State string

const (
	StatePreGame  State = "PRE_GAME"
	StateInGame   State = "IN_GAME"
	StatePostGame State = "POST_GAME"
)

var transitions = map[State][]State{
	StatePreGame:  {StateInGame},
	StateInGame:   {StatePostGame},
	StatePostGame: {StatePreGame, StateInGame},
}

const (
	DefaultJoinGrace       = 30 * time.Second
	DefaultDisconnectGrace = 60 * time.Second
	DefaultDestroyGrace    = 60 * time.Second
)

var (
	ErrLobbyClosed   = errors.New("lobby is closed")
	ErrNotJoinable   = errors.New("lobby is not accepting players")
	ErrLobbyFull     = errors.New("lobby is full")
	ErrAlreadyMember = errors.New("already a member of this lobby")
	ErrNotMember     = errors.New("not a member of this lobby")
)

// Client is a member's connection session as seen by the lobby.
type Client interface {
	ID() uuid.UUID
	Status() session.Status
	Send(msg protocol.Message) bool
	LobbyID() uuid.UUID
	SetLobbyID(id uuid.UUID)
}

// ActionRecorder receives every game event the lobby routes.
type ActionRecorder interface {
	Record(rec cache.GameActionRecord)
}

// Options configures a lobby. Zero values take the defaults.
type Options struct {
	JoinGrace       time.Duration
	DisconnectGrace time.Duration
	DestroyGrace    time.Duration

	// PasswordHash is an argon2id hash; empty means the lobby is open.
	PasswordHash string

	Scheduler Scheduler
	Rand      *rand.Rand
	Recorder  ActionRecorder
}

func (o Options) withDefaults() Options {
	if o.JoinGrace <= 0 {
		o.JoinGrace = DefaultJoinGrace
	}
	if o.DisconnectGrace <= 0 {
		o.DisconnectGrace = DefaultDisconnectGrace
	}
	if o.DestroyGrace <= 0 {
		o.DestroyGrace = DefaultDestroyGrace
	}
	if o.Scheduler == nil {
		o.Scheduler = realScheduler{}
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return o
}

type member struct {
	client    Client
	player    *game.Player
	connected bool
}

// Lobby is a persistent group of players that plays games together.
//
// Every exported method takes the lobby lock and runs to completion, including the broadcasts and
// game progress it triggers, so actions on one lobby are strictly serialized. Timer callbacks take
// the same lock.
type Lobby struct {
	ID uuid.UUID

	opts Options

	mu          sync.Mutex
	sm          *fsm.Machine[State]
	members     map[uuid.UUID]*member
	order       []uuid.UUID
	game        *game.Game
	lastWinner  uuid.UUID
	timers      map[uuid.UUID]Timer
	destroyed   bool
	onDestroy   func(id uuid.UUID)
	actionIndex int
}

// New creates an empty lobby in PRE_GAME.
func New(opts Options) *Lobby {
	sm, err := fsm.New(transitions, StatePreGame)
	if err != nil {
		panic(err)
	}
	l := &Lobby{
		ID:      uuid.New(),
		opts:    opts.withDefaults(),
		sm:      sm,
		members: make(map[uuid.UUID]*member),
		timers:  make(map[uuid.UUID]Timer),
	}
	sm.OnChange(l.enterUnsafe)
	return l
}

func (l *Lobby) logger() *log.Entry {
	return log.WithFields(log.Fields{"lobby": l.ID, "state": l.sm.State()})
}

// Join seats c as a new member. The member is removed again if its connection does not come up
// within the join grace period.
func (l *Lobby) Join(c Client) (*game.Player, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch {
	case l.destroyed:
		return nil, ErrLobbyClosed
	case !l.sm.IsIn(StatePreGame):
		return nil, ErrNotJoinable
	case l.members[c.ID()] != nil:
		return nil, ErrAlreadyMember
	case len(l.members) >= game.MaxPlayers:
		return nil, ErrLobbyFull
	}

	m := &member{client: c, player: game.NewPlayer(c.ID())}
	l.members[c.ID()] = m
	l.order = append(l.order, c.ID())
	c.SetLobbyID(l.ID)
	l.cancelTimerUnsafe(l.ID)

	l.logger().WithField("player", m.player.ID).Info("player joined")
	l.broadcastUnsafe(protocol.LobbyEvent(protocol.EventPlayerJoined, m.player.ID))

	l.scheduleUnsafe(c.ID(), l.opts.JoinGrace, func() {
		if l.members[c.ID()] == m && !m.connected {
			l.logger().WithField("player", m.player.ID).Info("player never connected")
			l.leaveUnsafe(m)
		}
	})
	return m.player, nil
}

// Leave removes c from the lobby for good.
func (l *Lobby) Leave(c Client) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if m := l.members[c.ID()]; m != nil {
		l.leaveUnsafe(m)
	}
}

func (l *Lobby) leaveUnsafe(m *member) {
	id := m.client.ID()
	l.cancelTimerUnsafe(id)
	delete(l.members, id)
	for i, oid := range l.order {
		if oid == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	if m.client.LobbyID() == l.ID {
		m.client.SetLobbyID(uuid.Nil)
	}
	l.logger().WithField("player", m.player.ID).Info("player left")

	if len(l.members) == 0 {
		l.destroyUnsafe()
		return
	}
	l.broadcastUnsafe(protocol.LobbyEvent(protocol.EventPlayerLeft, m.player.ID))

	if l.game != nil {
		l.game.Forfeit(m.player.ID)
		l.routeUnsafe(l.game.AdvanceOrEnd(true))
		return
	}
	l.checkAbandonedUnsafe()
}

// Connect marks c's transport as up, cancels its pending timers and sends it a full snapshot.
func (l *Lobby) Connect(c Client) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	m := l.members[c.ID()]
	if m == nil {
		return ErrNotMember
	}
	l.cancelTimerUnsafe(c.ID())
	l.cancelTimerUnsafe(l.ID)
	if !m.connected {
		m.connected = true
		l.broadcastUnsafe(protocol.LobbyEvent(protocol.EventPlayerConnect, m.player.ID))
	}
	l.sendUnsafe(m, protocol.ConnectionAck(l.snapshotUnsafe(m)))
	return nil
}

// Disconnect records that c's transport dropped. Mid-game the member gets a grace period, after a
// game only the lobby as a whole is timed out, and before a game the member leaves immediately.
func (l *Lobby) Disconnect(c Client) {
	l.mu.Lock()
	defer l.mu.Unlock()

	m := l.members[c.ID()]
	if m == nil || !m.connected {
		return
	}
	m.connected = false
	m.player.Ready = false
	l.broadcastUnsafe(protocol.LobbyEvent(protocol.EventPlayerDisconnect, m.player.ID))

	switch l.sm.State() {
	case StateInGame:
		l.scheduleUnsafe(c.ID(), l.opts.DisconnectGrace, func() {
			if l.members[c.ID()] == m && !m.connected {
				l.logger().WithField("player", m.player.ID).Info("disconnect grace expired")
				l.leaveUnsafe(m)
			}
		})
	case StatePostGame:
		l.checkAbandonedUnsafe()
	default:
		l.leaveUnsafe(m)
	}
}

// SetReady toggles c's readiness outside of a game and starts one once every connected member is
// ready.
func (l *Lobby) SetReady(c Client, ready bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.setReadyUnsafe(c, ready)
}

func (l *Lobby) setReadyUnsafe(c Client, ready bool) {
	m := l.members[c.ID()]
	if m == nil || l.sm.IsIn(StateInGame) || m.player.Ready == ready {
		return
	}
	m.player.Ready = ready
	if ready {
		l.broadcastUnsafe(protocol.LobbyEvent(protocol.EventPlayerReady, m.player.ID))
		if l.allConnectedReadyUnsafe() {
			l.startGameUnsafe()
		}
		return
	}
	l.broadcastUnsafe(protocol.LobbyEvent(protocol.EventPlayerUnready, m.player.ID))
}

// ReturnToPreGame moves a finished lobby back to PRE_GAME.
func (l *Lobby) ReturnToPreGame(c Client) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.members[c.ID()] != nil {
		l.sm.Transition(StatePreGame)
	}
}

// CallPlayer forwards a bluff call against target.
func (l *Lobby) CallPlayer(c Client, target uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.callPlayerUnsafe(c, target)
}

func (l *Lobby) callPlayerUnsafe(c Client, target uuid.UUID) {
	m := l.members[c.ID()]
	if m == nil || l.game == nil {
		return
	}
	l.routeUnsafe(l.game.CallBluff(m.player.ID, target))
}

// ProposeHand forwards a claim.
func (l *Lobby) ProposeHand(c Client, claim cards.Claim) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.proposeHandUnsafe(c, claim)
}

func (l *Lobby) proposeHandUnsafe(c Client, claim cards.Claim) {
	m := l.members[c.ID()]
	if m == nil || l.game == nil {
		return
	}
	l.routeUnsafe(l.game.SubmitClaim(m.player.ID, claim))
}

// Handle applies one decoded client message. Messages from non-members are dropped.
func (l *Lobby) Handle(c Client, msg protocol.Inbound) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.destroyed || l.members[c.ID()] == nil {
		return
	}
	switch msg.Type {
	case protocol.ReadyUp:
		l.setReadyUnsafe(c, true)
	case protocol.ReadyDown:
		l.setReadyUnsafe(c, false)
	case protocol.ReturnToPreGame:
		l.sm.Transition(StatePreGame)
	case protocol.CallPlayer:
		l.callPlayerUnsafe(c, msg.Target)
	case protocol.ProposedHand:
		l.proposeHandUnsafe(c, msg.Claim)
	}
}

// enterUnsafe runs on every lobby state change. Assumes lock is held.
func (l *Lobby) enterUnsafe(s State) {
	l.logger().Debug("lobby state changed")
	switch s {
	case StatePreGame:
		l.game = nil
		for _, id := range append([]uuid.UUID(nil), l.order...) {
			if m := l.members[id]; m != nil && !m.connected {
				l.leaveUnsafe(m)
			}
			if l.destroyed {
				return
			}
		}
		l.lastWinner = uuid.Nil
		l.broadcastUnsafe(protocol.LobbyNotice(protocol.EventEnterPreGameLobby))
	case StateInGame:
		l.broadcastUnsafe(protocol.LobbyNotice(protocol.EventGameStart))
	case StatePostGame:
		for _, id := range l.order {
			l.cancelTimerUnsafe(id)
		}
		l.checkAbandonedUnsafe()
	}
}

// checkAbandonedUnsafe starts the lobby destroy timer once nobody is connected after a game.
func (l *Lobby) checkAbandonedUnsafe() {
	if l.destroyed || !l.sm.IsIn(StatePostGame) || l.connectedCountUnsafe() > 0 {
		return
	}
	l.scheduleUnsafe(l.ID, l.opts.DestroyGrace, func() {
		if l.connectedCountUnsafe() == 0 {
			l.logger().Info("lobby abandoned")
			l.destroyUnsafe()
		}
	})
}

// Close tears the lobby down.
func (l *Lobby) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.destroyUnsafe()
}

func (l *Lobby) destroyUnsafe() {
	if l.destroyed {
		return
	}
	l.destroyed = true
	l.clearTimersUnsafe()
	l.game = nil
	l.sm.OnChange(nil)
	for _, m := range l.members {
		if m.client.LobbyID() == l.ID {
			m.client.SetLobbyID(uuid.Nil)
		}
	}
	l.members = make(map[uuid.UUID]*member)
	l.order = nil
	l.logger().Info("lobby destroyed")
	if l.onDestroy != nil {
		l.onDestroy(l.ID)
	}
}

func (l *Lobby) allConnectedReadyUnsafe() bool {
	connected := 0
	for _, m := range l.members {
		if !m.connected {
			continue
		}
		if !m.player.Ready {
			return false
		}
		connected++
	}
	return connected > 0
}

func (l *Lobby) connectedCountUnsafe() int {
	n := 0
	for _, m := range l.members {
		if m.connected {
			n++
		}
	}
	return n
}

// broadcastUnsafe sends msg to every member in join order. Assumes lock is held.
func (l *Lobby) broadcastUnsafe(msg protocol.Message) {
	for _, id := range l.order {
		l.sendUnsafe(l.members[id], msg)
	}
}

// sendUnsafe delivers to one member. A failing client never affects the others.
func (l *Lobby) sendUnsafe(m *member, msg protocol.Message) {
	defer func() {
		if r := recover(); r != nil {
			l.logger().WithField("player", m.player.ID).Warnf("send %s panicked: %v", msg.EventName(), r)
		}
	}()
	if !m.client.Send(msg) {
		l.logger().WithField("player", m.player.ID).Debugf("%s not delivered", msg.EventName())
	}
}

func (l *Lobby) snapshotUnsafe(m *member) protocol.Snapshot {
	snap := protocol.Snapshot{
		PlayerID: m.player.ID,
		Lobby: protocol.LobbySnapshot{
			ID:      l.ID,
			State:   string(l.sm.State()),
			Members: make([]protocol.MemberStatus, 0, len(l.order)),
		},
	}
	for _, id := range l.order {
		mm := l.members[id]
		snap.Lobby.Members = append(snap.Lobby.Members, protocol.MemberStatus{
			Player: mm.player.ID,
			Status: mm.client.Status().String(),
			Ready:  mm.player.Ready,
		})
	}
	if l.lastWinner != uuid.Nil {
		w := l.lastWinner
		snap.Lobby.LastWinner = &w
	}
	if l.game != nil {
		gs := l.game.Snapshot(m.player.ID)
		snap.Game = &gs
	}
	return snap
}

// Snapshot returns the full state as seen by c.
func (l *Lobby) Snapshot(c Client) (protocol.Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m := l.members[c.ID()]
	if m == nil {
		return protocol.Snapshot{}, ErrNotMember
	}
	return l.snapshotUnsafe(m), nil
}

func (l *Lobby) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sm.State()
}

func (l *Lobby) MemberCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.members)
}

// Player returns the seat held by clientID, if any.
func (l *Lobby) Player(clientID uuid.UUID) (*game.Player, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m := l.members[clientID]
	if m == nil {
		return nil, false
	}
	return m.player, true
}

// LastWinner returns the previous game's winner, or uuid.Nil.
func (l *Lobby) LastWinner() uuid.UUID {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastWinner
}

func (l *Lobby) Destroyed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.destroyed
}

// PasswordHash returns the lobby's argon2id password hash, empty for open lobbies.
func (l *Lobby) PasswordHash() string {
	return l.opts.PasswordHash
}
