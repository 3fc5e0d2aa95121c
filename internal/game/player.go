// internal/game/player.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/bluff/internal/cards"
)

// StartingCards is every player's hand size at the start of a game.
const StartingCards = 5

// Player is a lobby member's seat. It is created on join and discarded on leave; the same Player
// survives reconnects. While a round is active only the Game mutates NumCards and Cards; the lobby
// owns Ready.
type Player struct {
	ID       uuid.UUID
	ClientID uuid.UUID
	NumCards int
	Cards    []cards.Card
	Ready    bool
}

// NewPlayer seats clientID with a fresh player identity.
func NewPlayer(clientID uuid.UUID) *Player {
	return &Player{
		ID:       uuid.New(),
		ClientID: clientID,
		NumCards: StartingCards,
	}
}

// Reset restores the player's starting hand size ahead of a new game.
func (p *Player) Reset() {
	p.NumCards = StartingCards
	p.Cards = nil
}

// InPlay reports whether the player still holds cards.
func (p *Player) InPlay() bool {
	return p.NumCards > 0
}
