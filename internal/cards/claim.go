// internal/cards/claim.go
package cards

import "sort"

// MaxClaimSize bounds the number of cards a single claim may name.
const MaxClaimSize = 5

// Group is one (face value, count) entry of a claim.
type Group struct {
	Value int `json:"value"`
	Count int `json:"count"`
}

// Claim is a declaration that certain cards exist somewhere in the pool.
//
// Groups are kept in canonical order: higher count first, then higher value. levels[c-1] has bit v
// set when the claim names exactly c copies of value v, which makes comparison a scan from the
// highest count level down.
type Claim struct {
	groups []Group
	levels [MaxSingleValueCount]uint16
	size   int
}

// NewClaim groups values by face value. Counts are clamped to MaxSingleValueCount and the total to
// MaxClaimSize; groups that no longer fit are truncated.
func NewClaim(values ...int) Claim {
	tally := make(map[int]int)
	for _, v := range values {
		tally[clamp(v, MinValue, MaxValue)]++
	}
	groups := make([]Group, 0, len(tally))
	for v, n := range tally {
		groups = append(groups, Group{Value: v, Count: clamp(n, 1, MaxSingleValueCount)})
	}
	sortGroups(groups)

	var c Claim
	for _, g := range groups {
		n := min(g.Count, MaxClaimSize-c.size)
		if n <= 0 {
			break
		}
		c.Add(g.Value, n)
	}
	return c
}

// Add merges count copies of value into the claim. It reports false, leaving the claim unchanged,
// when the value would exceed the deck supply or the claim would exceed MaxClaimSize.
func (c *Claim) Add(value, count int) bool {
	value = clamp(value, MinValue, MaxValue)
	count = clamp(count, 1, MaxSingleValueCount)

	existing := c.CountOf(value)
	if existing+count > MaxSingleValueCount || c.size+count > MaxClaimSize {
		return false
	}

	// Copies of a claim share the groups backing array.
	c.groups = append(make([]Group, 0, len(c.groups)+1), c.groups...)

	bit := uint16(1) << value
	if existing > 0 {
		c.levels[existing-1] &^= bit
		for i := range c.groups {
			if c.groups[i].Value == value {
				c.groups[i].Count += count
			}
		}
	} else {
		c.groups = append(c.groups, Group{Value: value, Count: count})
	}
	c.levels[existing+count-1] |= bit
	c.size += count
	sortGroups(c.groups)
	return true
}

// CountOf returns how many copies of value the claim names. Values outside MinValue..MaxValue
// count zero.
func (c Claim) CountOf(value int) int {
	if !ValidValue(value) {
		return 0
	}
	bit := uint16(1) << value
	for i, lvl := range c.levels {
		if lvl&bit != 0 {
			return i + 1
		}
	}
	return 0
}

// Compare returns -1, 0 or 1 as c is lower than, equal to, or higher than o.
func (c Claim) Compare(o Claim) int {
	for i := MaxSingleValueCount - 1; i >= 0; i-- {
		switch {
		case c.levels[i] > o.levels[i]:
			return 1
		case c.levels[i] < o.levels[i]:
			return -1
		}
	}
	return 0
}

// Beats reports whether c is strictly higher than o.
func (c Claim) Beats(o Claim) bool {
	return c.Compare(o) > 0
}

func (c Claim) Size() int { return c.size }

func (c Claim) IsEmpty() bool { return c.size == 0 }

// Groups returns the claim's groups in canonical order.
func (c Claim) Groups() []Group {
	return append([]Group(nil), c.groups...)
}

// Cards expands the claim into suit-less cards in canonical order.
func (c Claim) Cards() []Card {
	out := make([]Card, 0, c.size)
	for _, g := range c.groups {
		for i := 0; i < g.Count; i++ {
			out = append(out, Card{Value: g.Value})
		}
	}
	return out
}

func sortGroups(groups []Group) {
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Value > groups[j].Value
	})
}
