// internal/game/game.go
package game

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/bluff/internal/cards"
	"github.com/jason-s-yu/bluff/internal/fsm"
	log "github.com/sirupsen/logrus"
)

const (
	MinPlayers = 2
	MaxPlayers = 6
)

// State is a game phase.
type State string

const (
	StateNotStarted    State = "NOT_STARTED"
	StateSetup         State = "SETUP"
	StatePlayerTurn    State = "PLAYER_TURN"
	StatePlayerTurnEnd State = "PLAYER_TURN_END"
	StateReveal        State = "REVEAL"
	StateGameOver      State = "GAME_OVER"
)

// transitions is the game's legal move table. GAME_OVER is reachable from every other state.
var transitions = map[State][]State{
	StateNotStarted:    {StateSetup, StateGameOver},
	StateSetup:         {StatePlayerTurn, StateGameOver},
	StatePlayerTurn:    {StateReveal, StatePlayerTurnEnd, StateGameOver},
	StatePlayerTurnEnd: {StatePlayerTurn, StateGameOver},
	StateReveal:        {StateSetup, StateGameOver},
	StateGameOver:      {},
}

var (
	ErrPlayerCount       = errors.New("player count out of range")
	ErrIllegalTransition = errors.New("illegal game state transition")
	ErrSetupFailed       = errors.New("round setup failed")
)

// Game runs one sequence of rounds for a fixed set of players.
//
// Every mutating method returns the events the call produced, in order; the owner routes them.
// A rejected action returns no events and changes nothing. Game is not safe for concurrent use.
type Game struct {
	ID uuid.UUID

	players []*Player
	current int

	pool        *cards.Pool
	cardsInPlay int

	lastClaim    *cards.Claim
	lastClaimant *Player
	caller       *Player
	called       *Player
	roundWinner  *Player

	sm       *fsm.Machine[State]
	rng      *rand.Rand
	pending  []Event
	setupErr error
}

// New creates a game for players in turn order. The first player leads the first round.
// A nil rng seeds one from the clock.
func New(players []*Player, rng *rand.Rand) (*Game, error) {
	if len(players) == 0 || len(players) > MaxPlayers {
		return nil, fmt.Errorf("%w: %d", ErrPlayerCount, len(players))
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	sm, err := fsm.New(transitions, StateNotStarted)
	if err != nil {
		return nil, err
	}
	g := &Game{
		ID:      uuid.New(),
		players: append([]*Player(nil), players...),
		sm:      sm,
		rng:     rng,
	}
	sm.OnChange(g.enter)
	return g, nil
}

// Start deals the first round.
func (g *Game) Start() ([]Event, error) {
	if !g.sm.Transition(StateSetup) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, g.sm.State(), StateSetup)
	}
	if g.setupErr != nil {
		g.drain()
		return nil, fmt.Errorf("%w: %v", ErrSetupFailed, g.setupErr)
	}
	return g.drain(), nil
}

// BeginTurn hands the turn to the current player.
func (g *Game) BeginTurn() []Event {
	g.sm.Transition(StatePlayerTurn)
	return g.drain()
}

// AdvanceOrEnd ends the game when forced or when at most one player still holds cards, and deals
// the next round otherwise.
func (g *Game) AdvanceOrEnd(force bool) []Event {
	if force || g.playersInPlay() <= 1 {
		g.sm.Transition(StateGameOver)
	} else {
		g.sm.Transition(StateSetup)
	}
	return g.drain()
}

// SubmitClaim records claim for the player whose turn it is. The claim must be non-empty and beat
// the standing claim, if any.
func (g *Game) SubmitClaim(playerID uuid.UUID, claim cards.Claim) []Event {
	if !g.sm.IsIn(StatePlayerTurn) {
		return nil
	}
	p := g.CurrentPlayer()
	if p == nil || p.ID != playerID {
		return nil
	}
	if claim.IsEmpty() {
		return nil
	}
	if g.lastClaim != nil && !claim.Beats(*g.lastClaim) {
		log.WithField("game", g.ID).Debugf("claim by %s does not beat the standing claim", playerID)
		return nil
	}
	g.lastClaim = &claim
	g.lastClaimant = p
	g.sm.Transition(StatePlayerTurnEnd)
	return g.drain()
}

// CallBluff challenges the standing claim. calledID must be the player seated immediately before
// the current turn holder, and the caller must still hold cards.
func (g *Game) CallBluff(callerID, calledID uuid.UUID) []Event {
	if !g.sm.IsIn(StatePlayerTurn) || g.lastClaim == nil {
		return nil
	}
	if callerID == calledID {
		return nil
	}
	caller := g.playerInPlay(callerID)
	if caller == nil {
		return nil
	}
	prev := g.playerIndexOffset(-1)
	if prev < 0 || g.players[prev].ID != calledID {
		return nil
	}
	g.caller = caller
	g.called = g.players[prev]
	g.sm.Transition(StateReveal)
	return g.drain()
}

// Forfeit empties a departing player's hand so they can no longer win.
func (g *Game) Forfeit(playerID uuid.UUID) bool {
	for _, p := range g.players {
		if p.ID == playerID {
			g.cardsInPlay -= max(p.NumCards, 0)
			p.NumCards = 0
			p.Cards = nil
			return true
		}
	}
	return false
}

func (g *Game) State() State { return g.sm.State() }

// IsOver reports whether the game has reached GAME_OVER.
func (g *Game) IsOver() bool { return g.sm.IsIn(StateGameOver) }

// Players returns the turn order.
func (g *Game) Players() []*Player {
	return append([]*Player(nil), g.players...)
}

// CurrentPlayer returns the turn holder, or nil before the first deal.
func (g *Game) CurrentPlayer() *Player {
	if g.current < 0 || g.current >= len(g.players) {
		return nil
	}
	return g.players[g.current]
}

// LastClaim returns the standing claim and its author.
func (g *Game) LastClaim() (cards.Claim, *Player, bool) {
	if g.lastClaim == nil {
		return cards.Claim{}, nil, false
	}
	return *g.lastClaim, g.lastClaimant, true
}

// Pool returns the current round's cards.
func (g *Game) Pool() *cards.Pool { return g.pool }

// CardsInPlay is the number of cards still held across all players.
func (g *Game) CardsInPlay() int { return g.cardsInPlay }

// enter runs the behavior attached to each state as it is entered.
func (g *Game) enter(s State) {
	switch s {
	case StateSetup:
		g.setup()
	case StatePlayerTurn:
		g.emit(PlayerTurnEvent{Player: g.players[g.current].ID})
	case StatePlayerTurnEnd:
		g.current = g.playerIndexOffset(1)
		g.emit(ProposeHandEvent{Player: g.lastClaimant.ID, Claim: *g.lastClaim})
	case StateReveal:
		g.reveal()
	case StateGameOver:
		g.gameOver()
	}
}

func (g *Game) setup() {
	g.lastClaim, g.lastClaimant = nil, nil
	g.caller, g.called = nil, nil

	sizes := make([]int, len(g.players))
	total := 0
	for i, p := range g.players {
		sizes[i] = max(p.NumCards, 0)
		total += sizes[i]
	}
	pool, err := cards.NewPool(total, g.rng)
	if err != nil {
		g.failSetup(err)
		return
	}
	hands, err := pool.Deal(sizes, g.rng)
	if err != nil {
		g.failSetup(err)
		return
	}
	g.pool = pool
	g.cardsInPlay = total

	ev := SetupEvent{
		Hands:    make(map[uuid.UUID][]cards.Card, len(g.players)),
		Order:    make([]uuid.UUID, len(g.players)),
		NumCards: make(map[uuid.UUID]int, len(g.players)),
	}
	for i, p := range g.players {
		p.Cards = hands[i]
		ev.Hands[p.ID] = append([]cards.Card(nil), hands[i]...)
		ev.Order[i] = p.ID
		ev.NumCards[p.ID] = p.NumCards
	}

	g.current = 0
	if g.roundWinner != nil {
		if idx := g.indexOf(g.roundWinner.ID); idx >= 0 {
			g.current = idx
		}
	}
	if !g.players[g.current].InPlay() {
		if next := g.playerIndexOffset(1); next >= 0 {
			g.current = next
		}
	}
	g.emit(ev)
}

func (g *Game) failSetup(err error) {
	g.setupErr = err
	log.WithField("game", g.ID).Errorf("setup failed: %v", err)
	g.sm.Transition(StateGameOver)
}

func (g *Game) reveal() {
	held := g.pool.Contains(g.lastClaim.Cards())

	winner, loser := g.called, g.caller
	if !held {
		winner, loser = g.caller, g.called
	}
	loser.NumCards--
	g.cardsInPlay--
	g.roundWinner = winner

	hands := make(map[uuid.UUID][]cards.Card, len(g.players))
	for _, p := range g.players {
		hands[p.ID] = append([]cards.Card(nil), p.Cards...)
	}
	g.emit(RevealEvent{
		Caller:    g.caller.ID,
		Called:    g.called.ID,
		Winner:    winner.ID,
		Loser:     loser.ID,
		ClaimHeld: held,
		Hands:     hands,
	})
}

func (g *Game) gameOver() {
	winner := uuid.Nil
	if g.playersInPlay() == 1 {
		for _, p := range g.players {
			if p.InPlay() {
				winner = p.ID
			}
		}
	}
	g.emit(GameOverEvent{Winner: winner})
}

// playerIndexOffset walks the seating circularly from the current index in the direction of
// offset and returns the first player still holding cards, or -1 if nobody is.
func (g *Game) playerIndexOffset(offset int) int {
	n := len(g.players)
	step := 1
	if offset < 0 {
		step = -1
	}
	for i := 0; i < n; i++ {
		idx := mod(g.current+offset+i*step, n)
		if g.players[idx].InPlay() {
			return idx
		}
	}
	return -1
}

func (g *Game) playersInPlay() int {
	n := 0
	for _, p := range g.players {
		if p.InPlay() {
			n++
		}
	}
	return n
}

func (g *Game) indexOf(id uuid.UUID) int {
	for i, p := range g.players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (g *Game) playerInPlay(id uuid.UUID) *Player {
	if idx := g.indexOf(id); idx >= 0 && g.players[idx].InPlay() {
		return g.players[idx]
	}
	return nil
}

func (g *Game) emit(ev Event) {
	g.pending = append(g.pending, ev)
}

func (g *Game) drain() []Event {
	out := g.pending
	g.pending = nil
	return out
}

func mod(a, n int) int {
	return ((a % n) + n) % n
}
