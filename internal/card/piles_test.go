package card

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPiles_DrawFromFront(t *testing.T) {
	deck := BuildDeck(AllSuits(), ReducedRanks())
	front := deck[0]
	piles := NewPiles(deck, testRand(1))

	c, err := piles.Draw()
	require.NoError(t, err)
	assert.Equal(t, front, c, "drawn card must be the prior front of the deck")
	assert.Equal(t, 35, piles.DeckCount())

	// The drawn card is gone from both piles
	for _, rest := range piles.Cards() {
		assert.NotEqual(t, c.ID, rest.ID)
	}
}

func TestPiles_DrawEmpty(t *testing.T) {
	piles := NewPiles(Deck{}, testRand(1))

	_, err := piles.Draw()
	assert.ErrorIs(t, err, ErrEmptyDeck)
	assert.False(t, piles.CanReshuffle(), "empty discard has nothing to recycle")

	// A single discard card is not recyclable either: the top stays put
	piles.Discard(Card{ID: 1, Suit: Hearts, Rank: Rank9})
	assert.False(t, piles.CanReshuffle())
	assert.Equal(t, 0, piles.Reshuffle())
}

func TestPiles_Reshuffle(t *testing.T) {
	piles := NewPiles(Deck{}, testRand(3))
	piles.Discard(Card{ID: 1, Suit: Hearts, Rank: Rank6})
	piles.Discard(Card{ID: 2, Suit: Clubs, Rank: Rank7})
	piles.Discard(Card{ID: 3, Suit: Spades, Rank: Rank8})

	require.True(t, piles.CanReshuffle())
	moved := piles.Reshuffle()

	// Spec scenario: deck 0 / discard 3 -> deck 2 / discard 1 (retained top)
	assert.Equal(t, 2, moved)
	assert.Equal(t, 2, piles.DeckCount())
	assert.Equal(t, 1, piles.DiscardCount())

	top, ok := piles.Top()
	require.True(t, ok)
	assert.Equal(t, 3, top.ID, "discard top must be retained")

	// No card lost, no card duplicated
	ids := make(map[int]bool)
	for _, c := range piles.Cards() {
		assert.False(t, ids[c.ID])
		ids[c.ID] = true
	}
	assert.Len(t, ids, 3)
}
