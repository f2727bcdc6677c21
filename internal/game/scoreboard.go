package game

// ScoreBoard 计分板：每轮结束追加一条累计得分记录，
// 在会话生命周期内跨轮保留。
type ScoreBoard struct {
	order   []string
	history map[string][]int // 每轮结束后的累计分
}

// NewScoreBoard 创建计分板，玩家顺序与座位顺序一致
func NewScoreBoard(playerIDs []string) *ScoreBoard {
	order := make([]string, len(playerIDs))
	copy(order, playerIDs)
	return &ScoreBoard{
		order:   order,
		history: make(map[string][]int, len(playerIDs)),
	}
}

// AppendRound 追加一轮得分，内部累加成累计分
func (sb *ScoreBoard) AppendRound(roundScores map[string]int) {
	for _, id := range sb.order {
		total := sb.Total(id) + roundScores[id]
		sb.history[id] = append(sb.history[id], total)
	}
}

// Total 玩家当前累计分
func (sb *ScoreBoard) Total(playerID string) int {
	h := sb.history[playerID]
	if len(h) == 0 {
		return 0
	}
	return h[len(h)-1]
}

// History 玩家每轮累计分的副本
func (sb *ScoreBoard) History(playerID string) []int {
	h := sb.history[playerID]
	out := make([]int, len(h))
	copy(out, h)
	return out
}

// Rounds 已完成的轮数
func (sb *ScoreBoard) Rounds() int {
	if len(sb.order) == 0 {
		return 0
	}
	return len(sb.history[sb.order[0]])
}
