package card

import "math/rand/v2"

// Deck 定义一副牌，队首为下一张待摸的牌
type Deck []Card

// BuildDeck 按配置的花色和点数生成一副牌，
// 每个 (花色, 点数) 组合恰好实例化一张，ID 按生成顺序分配。
// 洗牌前顺序不作保证。
func BuildDeck(suits []Suit, ranks []Rank) Deck {
	deck := make(Deck, 0, len(suits)*len(ranks))
	id := 0
	for _, s := range suits {
		for _, r := range ranks {
			deck = append(deck, Card{ID: id, Suit: s, Rank: r})
			id++
		}
	}
	return deck
}

// Shuffle 均匀洗牌（Fisher-Yates，从尾部向前交换）。
// 洗牌有偏差会泄露牌序信息，属于正确性问题而非观感问题。
func (d Deck) Shuffle(rng *rand.Rand) {
	for i := len(d) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		d[i], d[j] = d[j], d[i]
	}
}
