package rule

import "github.com/palemoky/crazy-eights/internal/card"

// ScoreTable 计分表：回合结束时按留在手里的牌折算罚分。
// 具体映射由调用方注入，引擎本身不关心分值含义。
type ScoreTable func(card.Card) int

// DefaultScoreTable 默认计分表：
// 数字牌按面值，Q/K 各 10 分，A 15 分，万能牌 20 分，百搭牌 50 分。
func DefaultScoreTable(c card.Card) int {
	switch c.Rank {
	case WildRank:
		return 20
	case AnySuitRank:
		return 50
	case card.RankQ, card.RankK:
		return 10
	case card.RankA:
		return 15
	default:
		return int(c.Rank)
	}
}

// HandScore 一手牌的罚分合计
func HandScore(hand []card.Card, table ScoreTable) int {
	total := 0
	for _, c := range hand {
		total += table(c)
	}
	return total
}
