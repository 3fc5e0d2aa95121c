// internal/cards/pool.go
package cards

import (
	"errors"
	"fmt"
	"math/rand"
)

var (
	ErrPoolTooLarge     = errors.New("pool size exceeds deck supply")
	ErrHandSizeMismatch = errors.New("hand sizes do not sum to pool size")
)

// Pool is the multiset of cards in play for one round, independent of who holds them.
type Pool struct {
	cards []Card
}

// NewPool draws size cards uniformly without replacement from a full deck.
func NewPool(size int, rng *rand.Rand) (*Pool, error) {
	deck := FullDeck()
	if size < 0 || size > len(deck) {
		return nil, fmt.Errorf("%w: %d cards requested, deck holds %d", ErrPoolTooLarge, size, len(deck))
	}
	cards := make([]Card, 0, size)
	for i := 0; i < size; i++ {
		j := rng.Intn(len(deck))
		cards = append(cards, deck[j])
		deck[j] = deck[len(deck)-1]
		deck = deck[:len(deck)-1]
	}
	return &Pool{cards: cards}, nil
}

// NewPoolFrom builds a pool holding exactly the given cards.
func NewPoolFrom(cards []Card) *Pool {
	return &Pool{cards: append([]Card(nil), cards...)}
}

// Len returns the number of cards in the pool.
func (p *Pool) Len() int {
	return len(p.cards)
}

// Cards returns a copy of the pool's cards.
func (p *Pool) Cards() []Card {
	return append([]Card(nil), p.cards...)
}

// Deal splits the pool into hands of the given sizes. Each draw is uniform over the cards not yet
// dealt. The sizes must sum to the pool size.
func (p *Pool) Deal(sizes []int, rng *rand.Rand) ([][]Card, error) {
	total := 0
	for _, n := range sizes {
		if n < 0 {
			return nil, fmt.Errorf("%w: negative hand size %d", ErrHandSizeMismatch, n)
		}
		total += n
	}
	if total != len(p.cards) {
		return nil, fmt.Errorf("%w: %d requested, pool holds %d", ErrHandSizeMismatch, total, len(p.cards))
	}

	remaining := p.Cards()
	hands := make([][]Card, len(sizes))
	for i, n := range sizes {
		hand := make([]Card, 0, n)
		for len(hand) < n {
			j := rng.Intn(len(remaining))
			hand = append(hand, remaining[j])
			remaining[j] = remaining[len(remaining)-1]
			remaining = remaining[:len(remaining)-1]
		}
		hands[i] = hand
	}
	return hands, nil
}

// Contains reports whether every claimed card can be matched by face value to a distinct card in
// the pool. Each match consumes one pool card.
func (p *Pool) Contains(claimed []Card) bool {
	var supply [MaxValue + 1]int
	for _, c := range p.cards {
		if ValidValue(c.Value) {
			supply[c.Value]++
		}
	}
	for _, c := range claimed {
		if !ValidValue(c.Value) || supply[c.Value] == 0 {
			return false
		}
		supply[c.Value]--
	}
	return true
}
