package cards

import (
	"encoding/json"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sortedCards(cs []Card) []Card {
	out := append([]Card(nil), cs...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value < out[j].Value
		}
		return out[i].Suit < out[j].Suit
	})
	return out
}

func TestFullDeck(t *testing.T) {
	deck := FullDeck()
	require.Len(t, deck, 52)
	seen := make(map[Card]bool)
	perValue := make(map[int]int)
	for _, c := range deck {
		assert.False(t, seen[c], "duplicate card %v", c)
		seen[c] = true
		perValue[c.Value]++
	}
	for v := MinValue; v <= MaxValue; v++ {
		assert.Equal(t, MaxSingleValueCount, perValue[v])
	}
}

func TestNewPoolDrawsDistinctCards(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, size := range []int{0, 1, 10, 30, 52} {
		p, err := NewPool(size, rng)
		require.NoError(t, err)
		assert.Equal(t, size, p.Len())
		seen := make(map[Card]bool)
		for _, c := range p.Cards() {
			assert.False(t, seen[c])
			seen[c] = true
		}
	}
}

func TestNewPoolTooLarge(t *testing.T) {
	_, err := NewPool(53, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, ErrPoolTooLarge)
	_, err = NewPool(-1, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, ErrPoolTooLarge)
}

func TestDealConservesCards(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 50; round++ {
		sizes := []int{rng.Intn(6), rng.Intn(6), rng.Intn(6), 1}
		total := 0
		for _, n := range sizes {
			total += n
		}
		p, err := NewPool(total, rng)
		require.NoError(t, err)

		hands, err := p.Deal(sizes, rng)
		require.NoError(t, err)
		require.Len(t, hands, len(sizes))

		var dealt []Card
		for i, h := range hands {
			assert.Len(t, h, sizes[i])
			dealt = append(dealt, h...)
		}
		assert.Equal(t, sortedCards(p.Cards()), sortedCards(dealt))
	}
}

func TestDealSizeMismatch(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	p, err := NewPool(10, rng)
	require.NoError(t, err)

	hands, err := p.Deal([]int{5, 4}, rng)
	assert.ErrorIs(t, err, ErrHandSizeMismatch)
	assert.Nil(t, hands)

	_, err = p.Deal([]int{11, -1}, rng)
	assert.ErrorIs(t, err, ErrHandSizeMismatch)
	assert.Equal(t, 10, p.Len(), "failed deal leaves the pool intact")
}

func TestPoolContainsCountsDuplicates(t *testing.T) {
	p := NewPoolFrom([]Card{
		{Value: 7, Suit: Hearts}, {Value: 7, Suit: Spades},
		{Value: 9, Suit: Clubs}, {Value: 14, Suit: Diamonds},
	})

	assert.True(t, p.Contains(NewClaim(7, 7).Cards()))
	assert.False(t, p.Contains(NewClaim(7, 7, 7).Cards()), "only two sevens in the pool")
	assert.True(t, p.Contains(NewClaim(7, 7, 9, 14).Cards()))
	assert.False(t, p.Contains(NewClaim(7, 9, 9).Cards()))
	assert.False(t, p.Contains(NewClaim(2).Cards()))
	assert.True(t, p.Contains(nil), "the empty claim is trivially present")
	assert.Equal(t, 4, p.Len(), "matching works on a copy")
}

func TestPoolContainsIgnoresSuit(t *testing.T) {
	p := NewPoolFrom([]Card{{Value: 12, Suit: Clubs}})
	assert.True(t, p.Contains([]Card{{Value: 12, Suit: Hearts}}))
}

func TestCardJSON(t *testing.T) {
	data, err := json.Marshal([]Card{{Value: 10, Suit: Spades}, {Value: 3}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"value":10,"suit":"S"},{"value":3,"suit":null}]`, string(data))

	var back []Card
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, []Card{{Value: 10, Suit: Spades}, {Value: 3}}, back)
}
