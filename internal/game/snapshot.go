package game

import "github.com/palemoky/crazy-eights/internal/card"

// SnapshotCard 快照中的一张牌。Known 为 false 时牌面对观察者隐藏，
// 花色和点数字段无意义。
type SnapshotCard struct {
	ID    int
	Known bool
	Suit  card.Suit
	Rank  card.Rank
}

// PlayerSummary 快照中的玩家概要
type PlayerSummary struct {
	ID        string
	Name      string
	Seat      int
	HandCount int
	Offline   bool
	Total     int
}

// Snapshot 某个观察者视角下的只读投影，用于重连恢复和 UI 查询。
// 可见性规则：手牌只对持有者可见，弃牌对所有人可见，牌堆对谁都不可见。
type Snapshot struct {
	Seq   uint64
	State State
	Round int

	ActivePlayerID string
	HasDrawn       bool
	WildSuit       card.Suit // SuitNone 表示无生效花色
	ChoicePending  string

	DeckCount    int
	DiscardCount int
	DiscardTop   *SnapshotCard

	Hand    []SnapshotCard // 观察者自己的手牌，牌面可见
	Players []PlayerSummary

	ScoreHistory map[string][]int
}

// Snapshot 生成 forPlayer 视角的状态快照
func (s *Session) Snapshot(forPlayer string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Seq:           s.seq,
		State:         s.state,
		Round:         s.round,
		HasDrawn:      s.hasDrawn,
		WildSuit:      s.wildSuit,
		ChoicePending: s.choicePending,
		ScoreHistory:  make(map[string][]int, len(s.players)),
	}
	if s.state == StateAwaitingAction || s.state == StateAwaitingWildChoice {
		snap.ActivePlayerID = s.players[s.active].ID
	}
	if s.piles != nil {
		snap.DeckCount = s.piles.DeckCount()
		snap.DiscardCount = s.piles.DiscardCount()
		if top, ok := s.piles.Top(); ok {
			snap.DiscardTop = &SnapshotCard{ID: top.ID, Known: true, Suit: top.Suit, Rank: top.Rank}
		}
	}

	for _, p := range s.players {
		snap.Players = append(snap.Players, PlayerSummary{
			ID:        p.ID,
			Name:      p.Name,
			Seat:      p.Seat,
			HandCount: len(p.Hand),
			Offline:   p.Offline,
			Total:     s.scoreboard.Total(p.ID),
		})
		snap.ScoreHistory[p.ID] = s.scoreboard.History(p.ID)

		if p.ID == forPlayer {
			for _, c := range p.Hand {
				snap.Hand = append(snap.Hand, SnapshotCard{ID: c.ID, Known: true, Suit: c.Suit, Rank: c.Rank})
			}
		}
	}
	return snap
}

// --- 只读访问器（给房间层和测试用） ---

// State 当前状态
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Round 当前轮数
func (s *Session) Round() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.round
}

// ActivePlayerID 当前行动玩家的 ID，未在行动状态时为空
func (s *Session) ActivePlayerID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAwaitingAction && s.state != StateAwaitingWildChoice {
		return ""
	}
	return s.players[s.active].ID
}

// WildSuit 生效中的万能花色
func (s *Session) WildSuit() card.Suit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wildSuit
}

// HandOf 玩家手牌的副本
func (s *Session) HandOf(playerID string) []card.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[playerID]
	if !ok {
		return nil
	}
	hand := make([]card.Card, len(p.Hand))
	copy(hand, p.Hand)
	return hand
}

// DeckCount 摸牌堆剩余张数
func (s *Session) DeckCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.piles == nil {
		return 0
	}
	return s.piles.DeckCount()
}

// DiscardCount 弃牌堆张数
func (s *Session) DiscardCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.piles == nil {
		return 0
	}
	return s.piles.DiscardCount()
}

// ScoreRounds 已完成的轮数
func (s *Session) ScoreRounds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scoreboard.Rounds()
}

// ScoreHistory 玩家每轮累计分
func (s *Session) ScoreHistory(playerID string) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scoreboard.History(playerID)
}

// cardCensus 全部牌的位置清单，用于守恒检查
func (s *Session) cardCensus() map[int]Location {
	s.mu.Lock()
	defer s.mu.Unlock()

	census := make(map[int]Location, len(s.fullSet))
	if s.piles != nil {
		deckCards := s.piles.Cards()
		for i, c := range deckCards {
			if i < s.piles.DeckCount() {
				census[c.ID] = Location{Kind: LocDeck}
			} else {
				census[c.ID] = Location{Kind: LocDiscard}
			}
		}
	}
	for _, p := range s.players {
		for _, c := range p.Hand {
			census[c.ID] = Location{Kind: LocHand, PlayerID: p.ID}
		}
	}
	return census
}
