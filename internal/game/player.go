package game

import "github.com/palemoky/crazy-eights/internal/card"

// Player 会话中的玩家。座位在开局固定，
// 掉线期间手牌原样保留，玩家记录存活到会话结束。
type Player struct {
	ID      string
	Name    string
	Seat    int
	Hand    []card.Card
	Offline bool
}

// HasCard 检查玩家是否持有指定的牌
func (p *Player) HasCard(cardID int) bool {
	for _, c := range p.Hand {
		if c.ID == cardID {
			return true
		}
	}
	return false
}

// peekCard 查找玩家手中的牌但不移除
func (p *Player) peekCard(cardID int) (card.Card, bool) {
	for _, c := range p.Hand {
		if c.ID == cardID {
			return c, true
		}
	}
	return card.Card{}, false
}

// takeCard 从手中移除并返回指定的牌
func (p *Player) takeCard(cardID int) (card.Card, bool) {
	for i, c := range p.Hand {
		if c.ID == cardID {
			p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
			return c, true
		}
	}
	return card.Card{}, false
}

// addCard 把一张牌加入手牌
func (p *Player) addCard(c card.Card) {
	p.Hand = append(p.Hand, c)
}

// MostHeldSuit 返回手牌中数量最多的花色，数量相同时按花色顺序取先。
// 用于超时/离线时自动指定花色。
func (p *Player) MostHeldSuit() card.Suit {
	counts := make(map[card.Suit]int, 4)
	for _, c := range p.Hand {
		counts[c.Suit]++
	}
	best := card.Hearts
	bestCount := -1
	for _, s := range card.AllSuits() {
		if counts[s] > bestCount {
			best = s
			bestCount = counts[s]
		}
	}
	return best
}
