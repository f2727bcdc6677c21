// Package rule 实现纯函数规则引擎：出牌合法性判定、
// 功能牌效果解析和回合推进计算。不持有任何状态。
package rule

import (
	"github.com/palemoky/crazy-eights/internal/card"
)

const (
	// WildRank 万能点数：任何时候都可以出，出牌者指定下一轮生效的花色
	WildRank = card.RankJ

	// AnySuitRank 百搭点数：压在它上面的任何花色都合法；
	// 出这张牌的玩家保留回合再出一次
	AnySuitRank = card.Rank8
)

// IsLegalPlay 判定一张牌能否压在当前弃牌堆顶上。
// wildSuit 为万能牌生效后指定的花色，未生效时传 card.SuitNone。
func IsLegalPlay(c card.Card, top *card.Card, wildSuit card.Suit) bool {
	// 弃牌堆还没有牌，首出随意
	if top == nil {
		return true
	}

	// 万能牌任何时候都能出
	if c.Rank == WildRank {
		return true
	}

	// 堆顶是万能牌时，只看指定的花色
	if top.Rank == WildRank {
		return c.Suit == wildSuit
	}

	return c.Suit == top.Suit || c.Rank == top.Rank || top.Rank == AnySuitRank
}

// EffectKind 功能牌效果类型
type EffectKind int

const (
	EffectNormal     EffectKind = iota // 正常推进到下家
	EffectForceDraw                    // 指定座位强制摸牌
	EffectWildChoice                   // 等待出牌者指定花色，回合推进挂起
	EffectSkipNext                     // 跳过紧邻的下家
	EffectPlayAgain                    // 出牌者保留回合
)

// Target 强制摸牌的目标座位
type Target int

const (
	TargetNext     Target = iota // 下家
	TargetPrevious               // 上家
)

// Effect 一次出牌解析出的效果
type Effect struct {
	Kind      EffectKind
	DrawCount int    // EffectForceDraw 时的摸牌张数
	Target    Target // EffectForceDraw 时的目标
}

// ResolvePower 解析一张牌的功能效果。
// 6 罚上家摸 1，7 罚下家摸 2，黑桃 K 罚下家摸 5，
// A 跳过下家，J 指定花色，8 再出一次，其余正常推进。
func ResolvePower(c card.Card) Effect {
	switch {
	case c.Rank == card.Rank6:
		return Effect{Kind: EffectForceDraw, DrawCount: 1, Target: TargetPrevious}
	case c.Rank == card.Rank7:
		return Effect{Kind: EffectForceDraw, DrawCount: 2, Target: TargetNext}
	case c.Rank == card.RankK && c.Suit == card.Spades:
		return Effect{Kind: EffectForceDraw, DrawCount: 5, Target: TargetNext}
	case c.Rank == card.RankA:
		return Effect{Kind: EffectSkipNext}
	case c.Rank == WildRank:
		return Effect{Kind: EffectWildChoice}
	case c.Rank == AnySuitRank:
		return Effect{Kind: EffectPlayAgain}
	default:
		return Effect{Kind: EffectNormal}
	}
}

// NextSeat 从当前座位推进 step 步后的座位。
// 所有人数统一用模运算：两人局中 SkipNext (+2) 会落回出牌者自己，
// 即唯一的对手被跳过。
func NextSeat(cur, step, playerCount int) int {
	return ((cur+step)%playerCount + playerCount) % playerCount
}

// PrevSeat 当前座位的上家
func PrevSeat(cur, playerCount int) int {
	return NextSeat(cur, -1, playerCount)
}
