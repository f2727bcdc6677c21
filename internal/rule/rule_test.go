package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/palemoky/crazy-eights/internal/card"
)

func TestIsLegalPlay(t *testing.T) {
	h9 := card.Card{ID: 1, Suit: card.Hearts, Rank: card.Rank9}
	tests := []struct {
		name     string
		play     card.Card
		top      *card.Card
		wildSuit card.Suit
		want     bool
	}{
		{
			name: "empty discard allows anything",
			play: card.Card{Suit: card.Clubs, Rank: card.Rank10},
			top:  nil, wildSuit: card.SuitNone,
			want: true,
		},
		{
			name: "matching suit",
			play: card.Card{Suit: card.Hearts, Rank: card.Rank6},
			top:  &h9, wildSuit: card.SuitNone,
			want: true,
		},
		{
			name: "matching rank",
			play: card.Card{Suit: card.Spades, Rank: card.Rank9},
			top:  &h9, wildSuit: card.SuitNone,
			want: true,
		},
		{
			name: "both differ is illegal",
			play: card.Card{Suit: card.Clubs, Rank: card.Rank10},
			top:  &h9, wildSuit: card.SuitNone,
			want: false,
		},
		{
			name: "wild rank always playable",
			play: card.Card{Suit: card.Clubs, Rank: WildRank},
			top:  &h9, wildSuit: card.SuitNone,
			want: true,
		},
		{
			name: "wild top demands the chosen suit",
			play: card.Card{Suit: card.Clubs, Rank: card.Rank10},
			top:  &card.Card{Suit: card.Hearts, Rank: WildRank}, wildSuit: card.Diamonds,
			want: false,
		},
		{
			name: "wild top satisfied by chosen suit",
			play: card.Card{Suit: card.Diamonds, Rank: card.Rank10},
			top:  &card.Card{Suit: card.Hearts, Rank: WildRank}, wildSuit: card.Diamonds,
			want: true,
		},
		{
			name: "any-suit top accepts any suit",
			play: card.Card{Suit: card.Clubs, Rank: card.Rank10},
			top:  &card.Card{Suit: card.Hearts, Rank: AnySuitRank}, wildSuit: card.SuitNone,
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsLegalPlay(tt.play, tt.top, tt.wildSuit))
		})
	}
}

func TestResolvePower(t *testing.T) {
	tests := []struct {
		name string
		play card.Card
		want Effect
	}{
		{"six punishes previous seat", card.Card{Suit: card.Hearts, Rank: card.Rank6},
			Effect{Kind: EffectForceDraw, DrawCount: 1, Target: TargetPrevious}},
		{"seven punishes next seat", card.Card{Suit: card.Clubs, Rank: card.Rank7},
			Effect{Kind: EffectForceDraw, DrawCount: 2, Target: TargetNext}},
		{"king of spades draws five", card.Card{Suit: card.Spades, Rank: card.RankK},
			Effect{Kind: EffectForceDraw, DrawCount: 5, Target: TargetNext}},
		{"other kings are normal", card.Card{Suit: card.Hearts, Rank: card.RankK},
			Effect{Kind: EffectNormal}},
		{"ace skips", card.Card{Suit: card.Diamonds, Rank: card.RankA},
			Effect{Kind: EffectSkipNext}},
		{"jack awaits suit choice", card.Card{Suit: card.Clubs, Rank: WildRank},
			Effect{Kind: EffectWildChoice}},
		{"eight plays again", card.Card{Suit: card.Spades, Rank: AnySuitRank},
			Effect{Kind: EffectPlayAgain}},
		{"nine is normal", card.Card{Suit: card.Hearts, Rank: card.Rank9},
			Effect{Kind: EffectNormal}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolvePower(tt.play))
		})
	}
}

func TestNextSeat(t *testing.T) {
	tests := []struct {
		name                   string
		cur, step, count, want int
	}{
		{"normal advance", 0, 1, 4, 1},
		{"skip advance", 1, 2, 4, 3},
		{"wraps around", 3, 2, 4, 1},
		{"previous seat wraps", 0, -1, 4, 3},
		{"two-player skip lands on actor", 0, 2, 2, 0},
		{"two-player normal", 1, 1, 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextSeat(tt.cur, tt.step, tt.count))
		})
	}
	assert.Equal(t, 2, PrevSeat(0, 3))
}

func TestHandScore(t *testing.T) {
	hand := []card.Card{
		{Suit: card.Hearts, Rank: card.Rank9},    // 9
		{Suit: card.Clubs, Rank: card.RankQ},     // 10
		{Suit: card.Spades, Rank: WildRank},      // 20
		{Suit: card.Diamonds, Rank: AnySuitRank}, // 50
	}
	assert.Equal(t, 89, HandScore(hand, DefaultScoreTable))
	assert.Equal(t, 0, HandScore(nil, DefaultScoreTable))
}
