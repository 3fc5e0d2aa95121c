// internal/lobby/game_bridge.go
package lobby

import (
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/bluff/internal/cache"
	"github.com/jason-s-yu/bluff/internal/game"
	"github.com/jason-s-yu/bluff/internal/protocol"
)

// startGameUnsafe prunes members who are disconnected or not ready, then deals a new game to the
// rest. It falls back to PRE_GAME when the table is short or the game cannot start.
// Assumes lock is held.
func (l *Lobby) startGameUnsafe() {
	for _, id := range append([]uuid.UUID(nil), l.order...) {
		m := l.members[id]
		if m != nil && (!m.connected || !m.player.Ready) {
			l.leaveUnsafe(m)
		}
		if l.destroyed {
			return
		}
	}

	if n := len(l.members); n < game.MinPlayers || n > game.MaxPlayers {
		l.logger().Infof("cannot start with %d players", n)
		l.sm.Transition(StatePreGame)
		return
	}

	g, err := game.New(l.turnOrderUnsafe(), l.opts.Rand)
	if err != nil {
		l.logger().Errorf("creating game: %v", err)
		l.sm.Transition(StatePreGame)
		return
	}
	events, err := g.Start()
	if err != nil {
		l.logger().Errorf("starting game: %v", err)
		l.sm.Transition(StatePreGame)
		return
	}

	l.game = g
	l.actionIndex = 0
	l.sm.Transition(StateInGame)
	l.logger().WithField("game", g.ID).Info("game started")
	l.routeUnsafe(events)
}

// turnOrderUnsafe shuffles the members and rotates the last winner, if still seated, to the front.
// Every player's hand and readiness is reset.
func (l *Lobby) turnOrderUnsafe() []*game.Player {
	players := make([]*game.Player, 0, len(l.order))
	for _, id := range l.order {
		p := l.members[id].player
		p.Reset()
		p.Ready = false
		players = append(players, p)
	}
	l.opts.Rand.Shuffle(len(players), func(i, j int) {
		players[i], players[j] = players[j], players[i]
	})
	for i, p := range players {
		if p.ID == l.lastWinner {
			rotated := make([]*game.Player, 0, len(players))
			rotated = append(rotated, players[i:]...)
			return append(rotated, players[:i]...)
		}
	}
	return players
}

// routeUnsafe delivers game events in order. Handling an event may drive the game forward, and
// the events that produces are queued behind the current ones. Assumes lock is held.
func (l *Lobby) routeUnsafe(events []game.Event) {
	queue := events
	for len(queue) > 0 {
		ev := queue[0]
		queue = append(queue[1:], l.handleGameEventUnsafe(ev)...)
	}
}

func (l *Lobby) handleGameEventUnsafe(ev game.Event) []game.Event {
	g := l.game
	if g == nil {
		return nil
	}
	l.recordActionUnsafe(g, ev)

	switch e := ev.(type) {
	case game.SetupEvent:
		for _, id := range l.order {
			m := l.members[id]
			if _, dealt := e.Hands[m.player.ID]; dealt {
				l.sendUnsafe(m, protocol.Setup(e, m.player.ID))
			}
		}
		return g.BeginTurn()

	case game.PlayerTurnEvent:
		l.broadcastUnsafe(protocol.PlayerTurn(e))
		return nil

	case game.ProposeHandEvent:
		l.broadcastUnsafe(protocol.ProposeHand(e))
		return g.BeginTurn()

	case game.RevealEvent:
		l.broadcastUnsafe(protocol.Reveal(e))
		return g.AdvanceOrEnd(false)

	case game.GameOverEvent:
		l.lastWinner = e.Winner
		l.game = nil
		l.broadcastUnsafe(protocol.GameOver(e))
		l.logger().WithField("game", g.ID).Infof("game over, winner %s", e.Winner)
		l.sm.Transition(StatePostGame)
		return nil
	}
	return nil
}

func (l *Lobby) recordActionUnsafe(g *game.Game, ev game.Event) {
	if l.opts.Recorder == nil {
		return
	}
	l.actionIndex++
	rec := cache.GameActionRecord{
		GameID:      g.ID,
		LobbyID:     l.ID,
		ActionIndex: l.actionIndex,
		ActionType:  string(ev.Type()),
		Timestamp:   time.Now().UnixMilli(),
	}

	switch e := ev.(type) {
	case game.SetupEvent:
		hands := make(map[string]interface{}, len(e.Hands))
		for id, h := range e.Hands {
			hands[id.String()] = h
		}
		rec.ActionPayload = map[string]interface{}{"order": e.Order, "hands": hands}
	case game.PlayerTurnEvent:
		rec.ActorID = e.Player
	case game.ProposeHandEvent:
		rec.ActorID = e.Player
		rec.ActionPayload = map[string]interface{}{"claim": e.Claim.Cards()}
	case game.RevealEvent:
		rec.ActorID = e.Caller
		rec.ActionPayload = map[string]interface{}{
			"called":    e.Called,
			"winner":    e.Winner,
			"loser":     e.Loser,
			"claimHeld": e.ClaimHeld,
		}
	case game.GameOverEvent:
		rec.ActorID = e.Winner
		rec.ActionPayload = map[string]interface{}{"winner": e.Winner}
	}
	if rec.ActionPayload == nil {
		rec.ActionPayload = map[string]interface{}{}
	}
	l.opts.Recorder.Record(rec)
}
