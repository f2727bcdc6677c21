package game

// GameError 游戏错误，带协议错误码，只回给请求方，不广播
type GameError struct {
	Code    int
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

// 游戏错误码（3xxx 段，2xxx 留给房间层，1xxx 留给协议层）
const (
	CodeGameNotStart    = 3001
	CodeNotYourTurn     = 3002
	CodeCardNotOwned    = 3003
	CodeIllegalMove     = 3004
	CodeAlreadyDrawn    = 3005
	CodeMustDrawFirst   = 3006
	CodeNoChoicePending = 3007
	CodeDeckExhausted   = 3008
	CodeUnknownPlayer   = 3009
	CodeChoicePending   = 3010
	CodeInvalidSuit     = 3011
	CodeRoundInProgress = 3012
)

// 预定义错误
var (
	ErrGameNotStart    = &GameError{Code: CodeGameNotStart, Message: "本轮尚未开始"}
	ErrNotYourTurn     = &GameError{Code: CodeNotYourTurn, Message: "还没轮到您"}
	ErrCardNotOwned    = &GameError{Code: CodeCardNotOwned, Message: "这张牌不在您手中"}
	ErrIllegalMove     = &GameError{Code: CodeIllegalMove, Message: "不符合出牌规则"}
	ErrAlreadyDrawn    = &GameError{Code: CodeAlreadyDrawn, Message: "本回合已经摸过牌"}
	ErrMustDrawFirst   = &GameError{Code: CodeMustDrawFirst, Message: "摸牌之后才能过牌"}
	ErrNoChoicePending = &GameError{Code: CodeNoChoicePending, Message: "当前不需要指定花色"}
	ErrDeckExhausted   = &GameError{Code: CodeDeckExhausted, Message: "牌堆已空，无牌可摸"}
	ErrUnknownPlayer   = &GameError{Code: CodeUnknownPlayer, Message: "玩家不在本局中"}
	ErrChoicePending   = &GameError{Code: CodeChoicePending, Message: "等待玩家指定花色"}
	ErrInvalidSuit     = &GameError{Code: CodeInvalidSuit, Message: "无效的花色"}
	ErrRoundInProgress = &GameError{Code: CodeRoundInProgress, Message: "本轮尚未结束"}
)
