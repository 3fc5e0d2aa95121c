// internal/game/events.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/bluff/internal/cards"
)

// EventType names a game event. The values double as the outbound event names.
type EventType string

const (
	EventSetup       EventType = "SETUP"
	EventPlayerTurn  EventType = "PLAYER_TURN"
	EventProposeHand EventType = "PLAYER_PROPOSE_HAND"
	EventReveal      EventType = "REVEAL"
	EventGameOver    EventType = "GAME_OVER"
)

// Event is returned by every mutating Game call for the owner to route. The concrete types below
// are the only implementations.
type Event interface {
	Type() EventType
	isEvent()
}

// SetupEvent carries a freshly dealt round. Hands is private per player; the rest is public.
type SetupEvent struct {
	Hands    map[uuid.UUID][]cards.Card
	Order    []uuid.UUID
	NumCards map[uuid.UUID]int
}

// PlayerTurnEvent names the player expected to act.
type PlayerTurnEvent struct {
	Player uuid.UUID
}

// ProposeHandEvent is an accepted claim.
type ProposeHandEvent struct {
	Player uuid.UUID
	Claim  cards.Claim
}

// RevealEvent resolves a bluff call. ClaimHeld is true when the pool backed the claim.
type RevealEvent struct {
	Caller    uuid.UUID
	Called    uuid.UUID
	Winner    uuid.UUID
	Loser     uuid.UUID
	ClaimHeld bool
	Hands     map[uuid.UUID][]cards.Card
}

// GameOverEvent ends the game. Winner is uuid.Nil when no single player holds cards.
type GameOverEvent struct {
	Winner uuid.UUID
}

func (SetupEvent) Type() EventType       { return EventSetup }
func (PlayerTurnEvent) Type() EventType  { return EventPlayerTurn }
func (ProposeHandEvent) Type() EventType { return EventProposeHand }
func (RevealEvent) Type() EventType      { return EventReveal }
func (GameOverEvent) Type() EventType    { return EventGameOver }

func (SetupEvent) isEvent()       {}
func (PlayerTurnEvent) isEvent()  {}
func (ProposeHandEvent) isEvent() {}
func (RevealEvent) isEvent()      {}
func (GameOverEvent) isEvent()    {}
