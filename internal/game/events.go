package game

import "github.com/palemoky/crazy-eights/internal/card"

// EventType 会话事件类型
type EventType string

const (
	EventRoundStarted       EventType = "round_started"        // 新一轮开始
	EventCardMoved          EventType = "card_moved"           // 牌的位置发生变化
	EventTurnChanged        EventType = "turn_changed"         // 回合推进
	EventAwaitingSuitChoice EventType = "awaiting_suit_choice" // 等待指定花色
	EventWildSuitSet        EventType = "wild_suit_set"        // 万能花色已指定
	EventDeckReshuffled     EventType = "deck_reshuffled"      // 弃牌堆回填重洗
	EventRoundOver          EventType = "round_over"           // 本轮结束
)

// LocationKind 牌的归属区域
type LocationKind string

const (
	LocDeck    LocationKind = "deck"
	LocHand    LocationKind = "hand"
	LocDiscard LocationKind = "discard"
)

// Location 牌在某一时刻的唯一位置
type Location struct {
	Kind     LocationKind `json:"kind"`
	PlayerID string       `json:"player_id,omitempty"` // Kind 为 hand 时有效
}

// RoundScore 一轮结束后某个玩家的得分
type RoundScore struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Round      int    `json:"round"` // 本轮罚分
	Total      int    `json:"total"` // 累计罚分
}

// Event 会话对外广播的单个事件。Seq 在会话内严格递增，
// 客户端投影按 Seq 去重即可安全重放。
// 每次落库的状态变化恰好产生一个事件，且在下一个请求被受理前发出。
type Event struct {
	Seq  uint64
	Type EventType

	// EventCardMoved
	Card *card.Card
	From Location
	To   Location

	// 事件相关玩家：出牌者 / 新的行动玩家 / 指定花色者
	PlayerID string

	// EventWildSuitSet
	Suit card.Suit

	// EventRoundStarted / EventDeckReshuffled
	Round        int
	DeckCount    int
	DiscardCount int

	// EventAwaitingSuitChoice
	TimeoutSec int

	// EventRoundOver
	WinnerID string
	Scores   []RoundScore
}

// Broadcaster 把会话事件扇出给所有观察者。
// Publish 在会话锁内被顺序调用，实现方不得阻塞；
// 对单个客户端的投递顺序必须与调用顺序一致。
type Broadcaster interface {
	Publish(ev Event)
}
