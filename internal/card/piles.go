package card

import (
	"errors"

	"math/rand/v2"
)

// ErrEmptyDeck 摸牌堆已空且弃牌堆不足以回填
var ErrEmptyDeck = errors.New("card: empty deck")

// Piles 管理摸牌堆与弃牌堆。两个堆都是有序序列：
// 摸牌堆队首为下一张待摸的牌，弃牌堆末尾为牌面最新的一张。
// Piles 只由游戏会话独占读写，自身不加锁。
type Piles struct {
	deck    Deck
	discard []Card
	rng     *rand.Rand
}

// NewPiles 创建牌堆，摸牌堆为传入的整副牌
func NewPiles(deck Deck, rng *rand.Rand) *Piles {
	return &Piles{
		deck:    deck,
		discard: make([]Card, 0, len(deck)),
		rng:     rng,
	}
}

// Draw 移除并返回摸牌堆队首的牌。
// 摸牌堆为空时返回 ErrEmptyDeck，调用方决定是否回填重洗。
func (p *Piles) Draw() (Card, error) {
	if len(p.deck) == 0 {
		return Card{}, ErrEmptyDeck
	}
	c := p.deck[0]
	p.deck = p.deck[1:]
	return c, nil
}

// Discard 把一张牌压到弃牌堆顶
func (p *Piles) Discard(c Card) {
	p.discard = append(p.discard, c)
}

// Top 返回弃牌堆顶的牌
func (p *Piles) Top() (Card, bool) {
	if len(p.discard) == 0 {
		return Card{}, false
	}
	return p.discard[len(p.discard)-1], true
}

// CanReshuffle 弃牌堆是否有富余的牌可以回填摸牌堆
// （堆顶必须保留，只有一张时无牌可回收）
func (p *Piles) CanReshuffle() bool {
	return len(p.discard) > 1
}

// Reshuffle 保留弃牌堆顶，把其余弃牌移入摸牌堆并重洗。
// 整个过程在调用方的会话锁内完成，任何观察者都不会看到
// 摸牌堆和弃牌堆同时为空的瞬间。返回回填的张数。
func (p *Piles) Reshuffle() int {
	if !p.CanReshuffle() {
		return 0
	}
	top := p.discard[len(p.discard)-1]
	moved := p.discard[:len(p.discard)-1]

	p.deck = append(p.deck, moved...)
	p.deck.Shuffle(p.rng)

	p.discard = p.discard[:0]
	p.discard = append(p.discard, top)
	return len(p.deck)
}

// DeckCount 摸牌堆剩余张数
func (p *Piles) DeckCount() int { return len(p.deck) }

// DiscardCount 弃牌堆张数
func (p *Piles) DiscardCount() int { return len(p.discard) }

// Cards 返回两个堆中所有牌的副本，仅用于状态快照和守恒检查
func (p *Piles) Cards() []Card {
	all := make([]Card, 0, len(p.deck)+len(p.discard))
	all = append(all, p.deck...)
	all = append(all, p.discard...)
	return all
}
