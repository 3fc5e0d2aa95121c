// internal/cards/card.go
package cards

import (
	"encoding/json"
	"fmt"
)

const (
	MinValue = 2
	MaxValue = 14

	// MaxSingleValueCount is the deck's supply of any one face value.
	MaxSingleValueCount = 4
)

// Suit is cosmetic; comparisons and bluff resolution only look at face values.
type Suit string

const (
	NoSuit   Suit = ""
	Diamonds Suit = "D"
	Clubs    Suit = "C"
	Spades   Suit = "S"
	Hearts   Suit = "H"
)

// Suits lists the four suits in deck order.
var Suits = [MaxSingleValueCount]Suit{Diamonds, Clubs, Spades, Hearts}

// Card is an immutable playing card. Claimed cards carry NoSuit.
type Card struct {
	Value int
	Suit  Suit
}

func (c Card) String() string {
	if c.Suit == NoSuit {
		return fmt.Sprintf("%d", c.Value)
	}
	return fmt.Sprintf("%d%s", c.Value, c.Suit)
}

type cardJSON struct {
	Value int     `json:"value"`
	Suit  *string `json:"suit"`
}

// MarshalJSON encodes a card as {"value": v, "suit": s}, with a null suit for suit-less cards.
func (c Card) MarshalJSON() ([]byte, error) {
	out := cardJSON{Value: c.Value}
	if c.Suit != NoSuit {
		s := string(c.Suit)
		out.Suit = &s
	}
	return json.Marshal(out)
}

func (c *Card) UnmarshalJSON(data []byte) error {
	var in cardJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	c.Value = in.Value
	c.Suit = NoSuit
	if in.Suit != nil {
		c.Suit = Suit(*in.Suit)
	}
	return nil
}

// FullDeck returns a fresh standard deck: every face value once per suit.
func FullDeck() []Card {
	deck := make([]Card, 0, (MaxValue-MinValue+1)*len(Suits))
	for v := MinValue; v <= MaxValue; v++ {
		for _, s := range Suits {
			deck = append(deck, Card{Value: v, Suit: s})
		}
	}
	return deck
}

// ValidValue reports whether v is a face value in range.
func ValidValue(v int) bool {
	return v >= MinValue && v <= MaxValue
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
