package protocol

import "encoding/json"

// Message 基础消息结构。服务端广播的游戏事件带 Seq，
// 同一会话内严格递增，客户端据此丢弃重放的旧事件。
type Message struct {
	Type    MessageType     `json:"type"`
	Seq     uint64          `json:"seq,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
const (
	// 连接操作
	MsgReconnect MessageType = "reconnect" // 断线重连
	MsgPing      MessageType = "ping"      // 心跳 ping

	// 房间操作
	MsgCreateRoom MessageType = "create_room" // 创建房间
	MsgJoinRoom   MessageType = "join_room"   // 加入房间
	MsgLeaveRoom  MessageType = "leave_room"  // 离开房间
	MsgQuickMatch MessageType = "quick_match" // 快速匹配
	MsgStartGame  MessageType = "start_game"  // 房主开局
	MsgNextRound  MessageType = "next_round"  // 房主开始下一轮

	// 游戏操作
	MsgDrawCard   MessageType = "draw_card"   // 摸牌
	MsgPlayCard   MessageType = "play_card"   // 出牌
	MsgChooseSuit MessageType = "choose_suit" // 万能牌指定花色
	MsgPass       MessageType = "pass"        // 过牌

	// 查询
	MsgGetLeaderboard MessageType = "get_leaderboard" // 查询排行榜
)

// 服务端 → 客户端 消息类型
const (
	// 连接相关
	MsgConnected     MessageType = "connected"      // 连接成功
	MsgReconnected   MessageType = "reconnected"    // 重连成功
	MsgPong          MessageType = "pong"           // 心跳 pong
	MsgPlayerOffline MessageType = "player_offline" // 玩家掉线通知
	MsgPlayerOnline  MessageType = "player_online"  // 玩家上线通知

	// 房间相关
	MsgRoomCreated  MessageType = "room_created"  // 房间创建成功
	MsgRoomJoined   MessageType = "room_joined"   // 加入房间成功
	MsgPlayerJoined MessageType = "player_joined" // 其他玩家加入
	MsgPlayerLeft   MessageType = "player_left"   // 玩家离开
	MsgMatchFound   MessageType = "match_found"   // 匹配成功

	// 游戏事件（带 Seq 的权威广播）
	MsgRoundStarted       MessageType = "round_started"        // 新一轮开始
	MsgCardMoved          MessageType = "card_moved"           // 一张牌移动
	MsgTurnChanged        MessageType = "turn_changed"         // 行动权变更
	MsgAwaitingSuitChoice MessageType = "awaiting_suit_choice" // 等待指定花色
	MsgWildSuitSet        MessageType = "wild_suit_set"        // 万能花色落定
	MsgDeckReshuffled     MessageType = "deck_reshuffled"      // 弃牌堆回填重洗
	MsgRoundOver          MessageType = "round_over"           // 本轮结束

	// 查询结果
	MsgLeaderboard MessageType = "leaderboard" // 排行榜数据

	// 错误
	MsgError MessageType = "error" // 错误消息
)

// --- 客户端请求 Payloads ---

// ReconnectPayload 断线重连请求
type ReconnectPayload struct {
	Token    string `json:"token"`     // 重连令牌
	PlayerID string `json:"player_id"` // 玩家 ID
}

// PingPayload 心跳请求
type PingPayload struct {
	Timestamp int64 `json:"timestamp"` // 客户端时间戳（毫秒）
}

// JoinRoomPayload 加入房间请求
type JoinRoomPayload struct {
	RoomCode string `json:"room_code"`
}

// PlayCardPayload 出牌请求。客户端只声称牌的 ID，
// 牌面和所有权由服务端校验。
type PlayCardPayload struct {
	CardID int `json:"card_id"`
}

// ChooseSuitPayload 指定花色请求
type ChooseSuitPayload struct {
	Suit int `json:"suit"` // 0=红心, 1=方块, 2=梅花, 3=黑桃
}

// --- 服务端响应 Payloads ---

// ConnectedPayload 连接成功响应
type ConnectedPayload struct {
	PlayerID       string `json:"player_id"`
	PlayerName     string `json:"player_name"`
	ReconnectToken string `json:"reconnect_token"` // 重连令牌
}

// ReconnectedPayload 重连成功响应
type ReconnectedPayload struct {
	PlayerID   string        `json:"player_id"`
	PlayerName string        `json:"player_name"`
	RoomCode   string        `json:"room_code,omitempty"`  // 如果在房间中
	GameState  *GameStateDTO `json:"game_state,omitempty"` // 如果在游戏中
}

// GameStateDTO 观察者视角的游戏状态快照（用于重连恢复）。
// Seq 是快照生成时的最新事件序号，之后收到的事件
// 序号小于等于它的一律丢弃。
type GameStateDTO struct {
	Seq   uint64 `json:"seq"`
	State string `json:"state"` // awaiting_action/awaiting_suit_choice/round_over
	Round int    `json:"round"`

	ActivePlayerID string `json:"active_player_id,omitempty"`
	HasDrawn       bool   `json:"has_drawn"`
	WildSuit       int    `json:"wild_suit"` // -1 表示无生效花色
	ChoicePending  string `json:"choice_pending,omitempty"`

	DeckCount    int       `json:"deck_count"`
	DiscardCount int       `json:"discard_count"`
	DiscardTop   *CardInfo `json:"discard_top,omitempty"`

	Hand    []CardInfo   `json:"hand"` // 观察者自己的手牌
	Players []PlayerInfo `json:"players"`

	ScoreHistory map[string][]int `json:"score_history"` // 每轮累计分
}

// PongPayload 心跳响应
type PongPayload struct {
	ClientTimestamp int64 `json:"client_timestamp"` // 客户端发送的时间戳
	ServerTimestamp int64 `json:"server_timestamp"` // 服务器时间戳（毫秒）
}

// PlayerOfflinePayload 玩家掉线通知
type PlayerOfflinePayload struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Timeout    int    `json:"timeout"` // 等待重连超时（秒）
}

// PlayerOnlinePayload 玩家上线通知
type PlayerOnlinePayload struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
}

// RoomCreatedPayload 房间创建成功响应
type RoomCreatedPayload struct {
	RoomCode string     `json:"room_code"`
	Player   PlayerInfo `json:"player"`
}

// RoomJoinedPayload 加入房间成功响应
type RoomJoinedPayload struct {
	RoomCode string       `json:"room_code"`
	Player   PlayerInfo   `json:"player"`
	Players  []PlayerInfo `json:"players"` // 房间内所有玩家
	HostID   string       `json:"host_id"`
}

// PlayerJoinedPayload 其他玩家加入通知
type PlayerJoinedPayload struct {
	Player PlayerInfo `json:"player"`
}

// PlayerLeftPayload 玩家离开通知
type PlayerLeftPayload struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	HostID     string `json:"host_id"` // 房主离开时转移
}

// RoundStartedPayload 新一轮开始通知
type RoundStartedPayload struct {
	Round     int `json:"round"`
	DeckCount int `json:"deck_count"`
}

// CardMovedPayload 一张牌的移动。牌面按观察者可见性裁剪：
// 看不到的牌只有 ID，Known 为 false。
type CardMovedPayload struct {
	Card CardInfo     `json:"card"`
	From LocationInfo `json:"from"`
	To   LocationInfo `json:"to"`
}

// LocationInfo 牌的位置
type LocationInfo struct {
	Kind     string `json:"kind"` // deck/hand/discard
	PlayerID string `json:"player_id,omitempty"`
}

// TurnChangedPayload 行动权变更通知
type TurnChangedPayload struct {
	PlayerID string `json:"player_id"`
}

// AwaitingSuitChoicePayload 等待万能牌出牌者指定花色
type AwaitingSuitChoicePayload struct {
	PlayerID string `json:"player_id"`
	Timeout  int    `json:"timeout"` // 超时时间（秒），0 表示不超时
}

// WildSuitSetPayload 万能花色落定通知
type WildSuitSetPayload struct {
	PlayerID string `json:"player_id"`
	Suit     int    `json:"suit"`
}

// DeckReshuffledPayload 弃牌堆回填重洗通知
type DeckReshuffledPayload struct {
	DeckCount    int `json:"deck_count"`
	DiscardCount int `json:"discard_count"`
}

// RoundOverPayload 本轮结束通知
type RoundOverPayload struct {
	WinnerID   string       `json:"winner_id"`
	WinnerName string       `json:"winner_name"`
	Scores     []ScoreEntry `json:"scores"`
}

// ScoreEntry 一名玩家的本轮得分与累计分
type ScoreEntry struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Round      int    `json:"round"` // 本轮按留牌计的分
	Total      int    `json:"total"` // 跨轮累计分
}

// LeaderboardPayload 排行榜数据
type LeaderboardPayload struct {
	Entries []LeaderboardEntry `json:"entries"`
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank       int    `json:"rank"`
	PlayerName string `json:"player_name"`
	Wins       int    `json:"wins"`
}

// ErrorPayload 错误响应
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// --- 通用数据结构 ---

// PlayerInfo 玩家信息
type PlayerInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Seat       int    `json:"seat"`        // 座位号，开局后固定
	IsHost     bool   `json:"is_host"`     // 是否是房主
	CardsCount int    `json:"cards_count"` // 手牌数量
	Online     bool   `json:"online"`      // 是否在线
	Total      int    `json:"total"`       // 累计分
}

// CardInfo 牌信息。ID 在一局内稳定，Known 为 false 时
// 牌面对观察者隐藏，花色和点数无意义。
type CardInfo struct {
	ID    int  `json:"id"`
	Known bool `json:"known"`
	Suit  int  `json:"suit,omitempty"` // 0=红心, 1=方块, 2=梅花, 3=黑桃
	Rank  int  `json:"rank,omitempty"` // 6-14（A=14），整副牌时 2-14
}

// --- 错误码 ---
const (
	ErrCodeUnknown      = 1000
	ErrCodeInvalidMsg   = 1001
	ErrCodeRoomNotFound = 2001
	ErrCodeRoomFull     = 2002
	ErrCodeNotInRoom    = 2003
	ErrCodeNotHost      = 2004
	ErrCodeTooFew       = 2005
	ErrCodeGameStarted  = 2006
)

// ErrorMessages 错误码对应的消息。3xxx 段的游戏错误
// 自带消息文本，见 internal/game 的错误定义。
var ErrorMessages = map[int]string{
	ErrCodeUnknown:      "未知错误",
	ErrCodeInvalidMsg:   "无效的消息格式",
	ErrCodeRoomNotFound: "房间不存在",
	ErrCodeRoomFull:     "房间已满",
	ErrCodeNotInRoom:    "您不在房间中",
	ErrCodeNotHost:      "只有房主可以执行此操作",
	ErrCodeTooFew:       "人数不足，无法开局",
	ErrCodeGameStarted:  "对局已开始",
}
