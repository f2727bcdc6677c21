package card

import "strconv"

// Suit 定义花色
type Suit int

// Rank 定义点数
type Rank int

// SuitNone 表示"无花色"，用于未生效的万能花色
const SuitNone Suit = -1

const (
	Hearts   Suit = iota // 红心
	Diamonds             // 方块
	Clubs                // 梅花
	Spades               // 黑桃
)

// suitSymbols 花色符号映射表
var suitSymbols = map[Suit]string{
	Hearts:   "♥",
	Diamonds: "♦",
	Clubs:    "♣",
	Spades:   "♠",
}

func (s Suit) String() string {
	if symbol, ok := suitSymbols[s]; ok {
		return symbol
	}
	return ""
}

// Valid 检查花色是否是四种合法花色之一
func (s Suit) Valid() bool {
	_, ok := suitSymbols[s]
	return ok
}

const (
	Rank2 Rank = iota + 2
	Rank3
	Rank4
	Rank5
	Rank6
	Rank7
	Rank8
	Rank9
	Rank10
	RankJ // Jack
	RankQ // Queen
	RankK // King
	RankA // Ace
)

// rankNames 牌面值字符串映射表
var rankNames = map[Rank]string{
	Rank2:  "2",
	Rank3:  "3",
	Rank4:  "4",
	Rank5:  "5",
	Rank6:  "6",
	Rank7:  "7",
	Rank8:  "8",
	Rank9:  "9",
	Rank10: "10",
	RankJ:  "J",
	RankQ:  "Q",
	RankK:  "K",
	RankA:  "A",
}

func (r Rank) String() string {
	if name, ok := rankNames[r]; ok {
		return name
	}
	return strconv.Itoa(int(r))
}

// AllSuits 四种花色，顺序固定
func AllSuits() []Suit {
	return []Suit{Hearts, Diamonds, Clubs, Spades}
}

// ReducedRanks 36 张牌的点数集（6 到 A）
func ReducedRanks() []Rank {
	return []Rank{Rank6, Rank7, Rank8, Rank9, Rank10, RankJ, RankQ, RankK, RankA}
}

// FullRanks 52 张牌的点数集（2 到 A）
func FullRanks() []Rank {
	return []Rank{
		Rank2, Rank3, Rank4, Rank5, Rank6, Rank7, Rank8,
		Rank9, Rank10, RankJ, RankQ, RankK, RankA,
	}
}

// Card 定义一张牌。ID 在整局会话内唯一且稳定，
// 客户端按 ID 对账，牌本身创建后不可变。
type Card struct {
	ID   int
	Suit Suit
	Rank Rank
}

func (c Card) String() string {
	return c.Suit.String() + c.Rank.String()
}
