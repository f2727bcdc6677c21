package card

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func TestBuildDeck(t *testing.T) {
	tests := []struct {
		name  string
		ranks []Rank
		want  int
	}{
		{"reduced 36-card deck", ReducedRanks(), 36},
		{"full 52-card deck", FullRanks(), 52},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deck := BuildDeck(AllSuits(), tt.ranks)
			assert.Len(t, deck, tt.want)

			// Each (suit, rank) pair instantiated exactly once, IDs unique
			seenPair := make(map[[2]int]bool)
			seenID := make(map[int]bool)
			for _, c := range deck {
				pair := [2]int{int(c.Suit), int(c.Rank)}
				assert.False(t, seenPair[pair], "duplicate card %v", c)
				assert.False(t, seenID[c.ID], "duplicate id %d", c.ID)
				seenPair[pair] = true
				seenID[c.ID] = true
			}
		})
	}
}

func TestShuffle_Permutation(t *testing.T) {
	deck := BuildDeck(AllSuits(), ReducedRanks())
	before := make(map[int]bool)
	for _, c := range deck {
		before[c.ID] = true
	}

	deck.Shuffle(testRand(42))

	// Shuffle must be a permutation: same multiset of cards
	require.Len(t, deck, 36)
	for _, c := range deck {
		assert.True(t, before[c.ID])
	}
}

func TestShuffle_Uniformity(t *testing.T) {
	// Every card should be able to end up in the first position.
	// With 4 cards and many trials, each should land there roughly 1/4
	// of the time; a heavy bias indicates a broken shuffle.
	const trials = 40000
	counts := make(map[int]int)

	rng := testRand(7)
	for i := 0; i < trials; i++ {
		deck := BuildDeck([]Suit{Hearts}, []Rank{Rank6, Rank7, Rank8, Rank9})
		deck.Shuffle(rng)
		counts[deck[0].ID]++
	}

	for id, n := range counts {
		ratio := float64(n) / trials
		assert.InDelta(t, 0.25, ratio, 0.02, "card %d first-position ratio %f", id, ratio)
	}
}
