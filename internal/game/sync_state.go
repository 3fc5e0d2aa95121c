// internal/game/sync_state.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/bluff/internal/cards"
)

// Snapshot is the game as seen by one player. Only that player's own cards are included.
type Snapshot struct {
	GameID          uuid.UUID         `json:"gameID"`
	State           State             `json:"state"`
	CurrentPlayer   *uuid.UUID        `json:"currentPlayer"`
	LastClaim       []cards.Card      `json:"lastClaim"`
	LastClaimant    *uuid.UUID        `json:"lastClaimant"`
	PlayersOrder    []uuid.UUID       `json:"playersOrder"`
	PlayersNumCards map[uuid.UUID]int `json:"playersNumCards"`
	PlayerHand      []cards.Card      `json:"playerHand"`
	CardsInPlay     int               `json:"cardsInPlay"`
}

// Snapshot builds the state view for forPlayer.
func (g *Game) Snapshot(forPlayer uuid.UUID) Snapshot {
	snap := Snapshot{
		GameID:          g.ID,
		State:           g.sm.State(),
		LastClaim:       []cards.Card{},
		PlayersOrder:    make([]uuid.UUID, 0, len(g.players)),
		PlayersNumCards: make(map[uuid.UUID]int, len(g.players)),
		PlayerHand:      []cards.Card{},
		CardsInPlay:     g.cardsInPlay,
	}
	if !g.sm.IsIn(StateNotStarted) {
		if p := g.CurrentPlayer(); p != nil {
			id := p.ID
			snap.CurrentPlayer = &id
		}
	}
	if g.lastClaim != nil {
		snap.LastClaim = g.lastClaim.Cards()
		id := g.lastClaimant.ID
		snap.LastClaimant = &id
	}
	for _, p := range g.players {
		snap.PlayersOrder = append(snap.PlayersOrder, p.ID)
		snap.PlayersNumCards[p.ID] = p.NumCards
		if p.ID == forPlayer {
			snap.PlayerHand = append(snap.PlayerHand, p.Cards...)
		}
	}
	return snap
}
