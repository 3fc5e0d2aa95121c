// internal/protocol/outbound.go
package protocol

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/bluff/internal/cards"
	"github.com/jason-s-yu/bluff/internal/game"
)

// Message families.
const (
	TypeLobbyEvent  = "LOBBY_EVENT"
	TypeGameEvent   = "GAME_EVENT"
	TypeClientEvent = "CLIENT_EVENT"
)

// Lobby and client event names. Game event names come from game.EventType.
const (
	EventPlayerJoined      = "PLAYER_JOINED"
	EventPlayerLeft        = "PLAYER_LEFT"
	EventPlayerConnect     = "PLAYER_CONNECT"
	EventPlayerDisconnect  = "PLAYER_DISCONNECT"
	EventPlayerReady       = "PLAYER_READY"
	EventPlayerUnready     = "PLAYER_UNREADY"
	EventEnterPreGameLobby = "ENTER_PRE_GAME_LOBBY"
	EventGameStart         = "GAME_START"
	EventConnectionAck     = "CONNECTION_ACK"
)

// Message is anything sent to a client.
type Message interface {
	EventName() string
}

// Header is the discriminator shared by every outbound message. On its own it is a payload-less
// notice.
type Header struct {
	Type  string `json:"type"`
	Event string `json:"event"`
}

func (h Header) EventName() string { return h.Event }

type PlayerMessage struct {
	Header
	Player uuid.UUID `json:"player"`
}

type SetupMessage struct {
	Header
	PlayerHand      []cards.Card      `json:"playerHand"`
	PlayersOrder    []uuid.UUID       `json:"playersOrder"`
	PlayersNumCards map[uuid.UUID]int `json:"playersNumCards"`
}

type ProposeHandMessage struct {
	Header
	Player       uuid.UUID    `json:"player"`
	ProposedHand []cards.Card `json:"proposedHand"`
}

type RevealMessage struct {
	Header
	AllPlayersCards map[uuid.UUID][]cards.Card `json:"allPlayersCards"`
	Winner          uuid.UUID                  `json:"winner"`
	Loser           uuid.UUID                  `json:"loser"`
}

type GameOverMessage struct {
	Header
	Winner *uuid.UUID `json:"winner"`
}

// MemberStatus is one lobby member in a snapshot.
type MemberStatus struct {
	Player uuid.UUID `json:"player"`
	Status string    `json:"status"`
	Ready  bool      `json:"ready"`
}

// LobbySnapshot is the public lobby state.
type LobbySnapshot struct {
	ID         uuid.UUID      `json:"id"`
	State      string         `json:"state"`
	Members    []MemberStatus `json:"members"`
	LastWinner *uuid.UUID     `json:"lastWinner"`
}

// Snapshot is the full state sent to a client when its transport binds.
type Snapshot struct {
	PlayerID uuid.UUID      `json:"playerID"`
	Lobby    LobbySnapshot  `json:"lobby"`
	Game     *game.Snapshot `json:"game"`
}

type ConnectionAckMessage struct {
	Header
	Snapshot Snapshot `json:"snapshot"`
}

// LobbyEvent builds a lobby notification about player.
func LobbyEvent(event string, player uuid.UUID) PlayerMessage {
	return PlayerMessage{Header: Header{Type: TypeLobbyEvent, Event: event}, Player: player}
}

// LobbyNotice builds a lobby notification with no payload.
func LobbyNotice(event string) Header {
	return Header{Type: TypeLobbyEvent, Event: event}
}

func gameHeader(t game.EventType) Header {
	return Header{Type: TypeGameEvent, Event: string(t)}
}

// Setup builds the SETUP message for one recipient, carrying only that player's hand.
func Setup(ev game.SetupEvent, recipient uuid.UUID) SetupMessage {
	hand := ev.Hands[recipient]
	if hand == nil {
		hand = []cards.Card{}
	}
	return SetupMessage{
		Header:          gameHeader(game.EventSetup),
		PlayerHand:      hand,
		PlayersOrder:    ev.Order,
		PlayersNumCards: ev.NumCards,
	}
}

func PlayerTurn(ev game.PlayerTurnEvent) PlayerMessage {
	return PlayerMessage{Header: gameHeader(game.EventPlayerTurn), Player: ev.Player}
}

func ProposeHand(ev game.ProposeHandEvent) ProposeHandMessage {
	return ProposeHandMessage{
		Header:       gameHeader(game.EventProposeHand),
		Player:       ev.Player,
		ProposedHand: ev.Claim.Cards(),
	}
}

func Reveal(ev game.RevealEvent) RevealMessage {
	return RevealMessage{
		Header:          gameHeader(game.EventReveal),
		AllPlayersCards: ev.Hands,
		Winner:          ev.Winner,
		Loser:           ev.Loser,
	}
}

// GameOver encodes uuid.Nil as a null winner.
func GameOver(ev game.GameOverEvent) GameOverMessage {
	msg := GameOverMessage{Header: gameHeader(game.EventGameOver)}
	if ev.Winner != uuid.Nil {
		w := ev.Winner
		msg.Winner = &w
	}
	return msg
}

func ConnectionAck(snap Snapshot) ConnectionAckMessage {
	return ConnectionAckMessage{
		Header:   Header{Type: TypeClientEvent, Event: EventConnectionAck},
		Snapshot: snap,
	}
}
