// internal/protocol/inbound.go
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/bluff/internal/cards"
)

// ErrMalformed marks an inbound message that must be dropped.
var ErrMalformed = errors.New("malformed message")

// InboundType is the discriminator of a client message.
type InboundType string

const (
	ReadyUp         InboundType = "READY_UP"
	ReadyDown       InboundType = "READY_DOWN"
	ReturnToPreGame InboundType = "RETURN_TO_PRE_GAME_LOBBY"
	CallPlayer      InboundType = "CALL_PLAYER"
	ProposedHand    InboundType = "PROPOSED_HAND"
)

// Inbound is a decoded client message. Target is set for CALL_PLAYER, Claim for PROPOSED_HAND.
type Inbound struct {
	Type   InboundType
	Target uuid.UUID
	Claim  cards.Claim
}

type rawInbound struct {
	Type           string  `json:"type"`
	TargetPlayerID *string `json:"targetPlayerID"`
	ClaimedCards   *[]struct {
		Value *int `json:"value"`
	} `json:"claimedCards"`
}

// Decode parses one client message. Any missing or mistyped field fails the whole message with
// ErrMalformed.
func Decode(data []byte) (Inbound, error) {
	var raw rawInbound
	if err := json.Unmarshal(data, &raw); err != nil {
		return Inbound{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	msg := Inbound{Type: InboundType(raw.Type)}
	switch msg.Type {
	case ReadyUp, ReadyDown, ReturnToPreGame:
		return msg, nil

	case CallPlayer:
		if raw.TargetPlayerID == nil {
			return Inbound{}, fmt.Errorf("%w: missing targetPlayerID", ErrMalformed)
		}
		target, err := uuid.Parse(*raw.TargetPlayerID)
		if err != nil {
			return Inbound{}, fmt.Errorf("%w: targetPlayerID: %v", ErrMalformed, err)
		}
		msg.Target = target
		return msg, nil

	case ProposedHand:
		if raw.ClaimedCards == nil {
			return Inbound{}, fmt.Errorf("%w: missing claimedCards", ErrMalformed)
		}
		claimed := *raw.ClaimedCards
		if len(claimed) > cards.MaxClaimSize {
			return Inbound{}, fmt.Errorf("%w: %d claimed cards", ErrMalformed, len(claimed))
		}
		values := make([]int, 0, len(claimed))
		for i, c := range claimed {
			if c.Value == nil || !cards.ValidValue(*c.Value) {
				return Inbound{}, fmt.Errorf("%w: claimedCards[%d] has no valid value", ErrMalformed, i)
			}
			values = append(values, *c.Value)
		}
		msg.Claim = cards.NewClaim(values...)
		return msg, nil

	default:
		return Inbound{}, fmt.Errorf("%w: unknown type %q", ErrMalformed, raw.Type)
	}
}
