package game

import (
	"fmt"
	"log"
	"sync"
	"time"

	"math/rand/v2"

	"github.com/palemoky/crazy-eights/internal/card"
	"github.com/palemoky/crazy-eights/internal/rule"
)

// State 会话状态机
type State int

const (
	StateSetup              State = iota // 开局前 / 两轮之间
	StateDealing                         // 发牌中
	StateAwaitingAction                  // 等待当前玩家行动
	StateAwaitingWildChoice              // 等待万能牌出牌者指定花色
	StateRoundOver                       // 本轮已结束
)

// Seat 开局时的一个座位：玩家身份与昵称，顺序即入座顺序
type Seat struct {
	ID   string
	Name string
}

// Options 会话配置
type Options struct {
	Suits    []card.Suit
	Ranks    []card.Rank
	HandSize int

	// ReshuffleDelay 回填重洗后的展示延迟，期间排队的摸牌请求挂起
	ReshuffleDelay time.Duration
	// ChoiceTimeout 指定花色的超时时间，0 表示不超时
	ChoiceTimeout time.Duration
	// OfflineWait 轮到离线玩家后等待重连的时间，0 表示不自动代打
	OfflineWait time.Duration

	Score rule.ScoreTable
	Rand  *rand.Rand
}

func (o Options) withDefaults() Options {
	if len(o.Suits) == 0 {
		o.Suits = card.AllSuits()
	}
	if len(o.Ranks) == 0 {
		o.Ranks = card.ReducedRanks()
	}
	if o.HandSize <= 0 {
		o.HandSize = 5
	}
	if o.Score == nil {
		o.Score = rule.DefaultScoreTable
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return o
}

// Session 权威游戏会话。整局状态的唯一正确副本：
// 牌堆、手牌、回合游标和万能花色都由它独占持有，
// 所有请求在同一把锁上串行执行，每次状态变化在锁内
// 按序广播给观察者。一个进程可以同时跑多个互不相干的会话。
type Session struct {
	mu   sync.Mutex
	opts Options
	sink Broadcaster

	players []*Player // 按座位顺序
	byID    map[string]*Player

	fullSet card.Deck // 整局的全部牌，开局构建一次，之后只挪动不销毁
	piles   *card.Piles

	state State
	round int
	seq   uint64

	// 回合游标
	active   int       // 当前行动玩家的座位
	hasDrawn bool      // 当前玩家本回合是否已摸牌
	wildSuit card.Suit // 生效中的万能花色，SuitNone 表示无

	choicePending string // 等待指定花色的玩家 ID

	// 回填重洗期间挂起的摸牌请求，按到达顺序重试
	refilling    bool
	pendingDraws []string

	reshuffleTimer *time.Timer
	choiceTimer    *time.Timer
	offlineTimer   *time.Timer
	offlineFor     string // offlineTimer 对应的玩家

	scoreboard *ScoreBoard
}

// NewSession 创建会话。seats 的顺序固定为整局的座位顺序。
func NewSession(seats []Seat, sink Broadcaster, opts Options) (*Session, error) {
	if len(seats) < 2 {
		return nil, fmt.Errorf("game: need at least 2 players, got %d", len(seats))
	}
	opts = opts.withDefaults()

	if len(opts.Suits)*len(opts.Ranks) < len(seats)*opts.HandSize+1 {
		return nil, fmt.Errorf("game: deck of %d cards cannot deal %d players × %d",
			len(opts.Suits)*len(opts.Ranks), len(seats), opts.HandSize)
	}

	s := &Session{
		opts:     opts,
		sink:     sink,
		players:  make([]*Player, len(seats)),
		byID:     make(map[string]*Player, len(seats)),
		fullSet:  card.BuildDeck(opts.Suits, opts.Ranks),
		state:    StateSetup,
		wildSuit: card.SuitNone,
	}
	for i, seat := range seats {
		p := &Player{ID: seat.ID, Name: seat.Name, Seat: i}
		s.players[i] = p
		s.byID[seat.ID] = p
	}

	ids := make([]string, len(seats))
	for i, seat := range seats {
		ids[i] = seat.ID
	}
	s.scoreboard = NewScoreBoard(ids)

	return s, nil
}

// StartRound 开始新一轮：收回全部牌、洗牌、按座位顺序发牌、
// 翻开首张弃牌、游标指向本轮首个玩家并广播初始牌位。
// 只能在开局前或上一轮结束后调用。
func (s *Session) StartRound() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateSetup && s.state != StateRoundOver {
		return ErrRoundInProgress
	}

	s.stopTimers()
	s.round++
	s.state = StateDealing
	s.wildSuit = card.SuitNone
	s.choicePending = ""
	s.refilling = false
	s.pendingDraws = nil

	// 收回所有牌重新洗：牌的 ID 跨轮稳定
	deck := make(card.Deck, len(s.fullSet))
	copy(deck, s.fullSet)
	deck.Shuffle(s.opts.Rand)
	s.piles = card.NewPiles(deck, s.opts.Rand)
	for _, p := range s.players {
		p.Hand = p.Hand[:0]
	}

	s.emit(Event{
		Type:         EventRoundStarted,
		Round:        s.round,
		DeckCount:    s.piles.DeckCount(),
		DiscardCount: 0,
	})

	// 按座位顺序轮流发牌
	for i := 0; i < s.opts.HandSize; i++ {
		for _, p := range s.players {
			c, err := s.piles.Draw()
			if err != nil {
				return err // 构造时已校验牌数，不应发生
			}
			p.addCard(c)
			s.emit(Event{
				Type: EventCardMoved,
				Card: &c,
				From: Location{Kind: LocDeck},
				To:   Location{Kind: LocHand, PlayerID: p.ID},
			})
		}
	}

	// 翻开首张弃牌。翻出的功能牌不触发效果；
	// 翻出万能牌时以它自己的花色作为生效花色，避免死局。
	first, err := s.piles.Draw()
	if err != nil {
		return err
	}
	s.piles.Discard(first)
	if first.Rank == rule.WildRank {
		s.wildSuit = first.Suit
	}
	s.emit(Event{
		Type: EventCardMoved,
		Card: &first,
		From: Location{Kind: LocDeck},
		To:   Location{Kind: LocDiscard},
	})

	// 每轮的先手按轮数轮换
	s.state = StateAwaitingAction
	s.active = (s.round - 1) % len(s.players)
	s.hasDrawn = false
	s.emit(Event{Type: EventTurnChanged, PlayerID: s.players[s.active].ID})

	log.Printf("🎲 第 %d 轮开始，%d 名玩家，先手 %s",
		s.round, len(s.players), s.players[s.active].Name)

	if s.players[s.active].Offline {
		s.startOfflineTimer(s.players[s.active].ID)
	}
	return nil
}

// HandleDraw 处理摸牌请求。牌堆空且弃牌堆可回收时安排回填重洗，
// 请求挂起等待重洗完成后按到达顺序重试。
func (s *Session) HandleDraw(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkTurn(playerID); err != nil {
		return err
	}
	if s.hasDrawn {
		return ErrAlreadyDrawn
	}

	if s.refilling {
		s.pendingDraws = append(s.pendingDraws, playerID)
		return nil
	}

	if s.piles.DeckCount() == 0 {
		if !s.piles.CanReshuffle() {
			return ErrDeckExhausted
		}
		s.beginReshuffle()
		s.pendingDraws = append(s.pendingDraws, playerID)
		return nil
	}

	s.drawToHand(s.byID[playerID])
	s.hasDrawn = true
	return nil
}

// HandlePlay 处理出牌请求。所有权校验在服务端完成，
// 客户端的声称永远不可信。
func (s *Session) HandlePlay(playerID string, cardID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkTurn(playerID); err != nil {
		return err
	}
	p := s.byID[playerID]

	c, ok := p.peekCard(cardID)
	if !ok {
		log.Printf("🚨 安全警告: 玩家 %s (%s) 声称持有不属于自己的牌 #%d", p.Name, p.ID, cardID)
		return ErrCardNotOwned
	}

	var top *card.Card
	if t, ok := s.piles.Top(); ok {
		top = &t
	}
	if !rule.IsLegalPlay(c, top, s.wildSuit) {
		return ErrIllegalMove
	}

	p.takeCard(cardID)
	s.piles.Discard(c)

	// 非万能牌成为堆顶时清除生效花色
	if c.Rank != rule.WildRank {
		s.wildSuit = card.SuitNone
	}

	s.emit(Event{
		Type:     EventCardMoved,
		Card:     &c,
		From:     Location{Kind: LocHand, PlayerID: p.ID},
		To:       Location{Kind: LocDiscard},
		PlayerID: p.ID,
	})

	// 胜利判定先于功能牌效果：打空手牌立即结束本轮，
	// 万能牌也不再等待指定花色
	if len(p.Hand) == 0 {
		s.endRound(p)
		return nil
	}

	s.applyEffect(p, rule.ResolvePower(c))
	return nil
}

// HandleSuitChoice 处理指定花色请求，仅在该玩家的万能牌选择挂起时合法
func (s *Session) HandleSuitChoice(playerID string, suit card.Suit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAwaitingWildChoice {
		return ErrNoChoicePending
	}
	if s.choicePending != playerID {
		return ErrNotYourTurn
	}
	if !suit.Valid() {
		return ErrInvalidSuit
	}

	s.applySuitChoice(playerID, suit)
	return nil
}

// HandlePass 处理过牌请求，只有摸过牌之后才允许
func (s *Session) HandlePass(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkTurn(playerID); err != nil {
		return err
	}
	if !s.hasDrawn {
		return ErrMustDrawFirst
	}

	s.advanceTurn(1)
	return nil
}

// PlayerOffline 玩家掉线。不打断正在执行的请求，手牌原样保留；
// 轮到该玩家时启动离线等待，超时后自动代打（摸一张然后过）。
func (s *Session) PlayerOffline(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[playerID]
	if !ok {
		return
	}
	p.Offline = true

	waiting := s.state == StateAwaitingAction && s.players[s.active].ID == playerID
	choosing := s.state == StateAwaitingWildChoice && s.choicePending == playerID
	if waiting || choosing {
		s.startOfflineTimer(playerID)
		log.Printf("⏸️ 玩家 %s 在自己回合掉线，等待重连 (%v)", p.Name, s.opts.OfflineWait)
	}
}

// PlayerOnline 玩家重连，取消离线代打
func (s *Session) PlayerOnline(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[playerID]
	if !ok {
		return
	}
	p.Offline = false

	if s.offlineFor == playerID && s.offlineTimer != nil {
		s.offlineTimer.Stop()
		s.offlineTimer = nil
		s.offlineFor = ""
	}
}

// --- 内部流程（调用方必须持有 s.mu） ---

// checkTurn 公共的回合前置校验
func (s *Session) checkTurn(playerID string) error {
	switch s.state {
	case StateAwaitingAction:
	case StateAwaitingWildChoice:
		return ErrChoicePending
	default:
		return ErrGameNotStart
	}
	if _, ok := s.byID[playerID]; !ok {
		return ErrUnknownPlayer
	}
	if s.players[s.active].ID != playerID {
		return ErrNotYourTurn
	}
	return nil
}

// drawToHand 从摸牌堆给玩家发一张牌并广播
func (s *Session) drawToHand(p *Player) bool {
	c, err := s.piles.Draw()
	if err != nil {
		return false
	}
	p.addCard(c)
	s.emit(Event{
		Type:     EventCardMoved,
		Card:     &c,
		From:     Location{Kind: LocDeck},
		To:       Location{Kind: LocHand, PlayerID: p.ID},
		PlayerID: p.ID,
	})
	return true
}

// beginReshuffle 立即原子回填重洗，再起一个展示延迟的计时器，
// 延迟结束前排队的摸牌请求不放行，只读查询不受影响。
func (s *Session) beginReshuffle() {
	moved := s.piles.Reshuffle()
	s.refilling = true

	s.emit(Event{
		Type:         EventDeckReshuffled,
		DeckCount:    s.piles.DeckCount(),
		DiscardCount: s.piles.DiscardCount(),
	})
	log.Printf("🔄 弃牌堆回填 %d 张，%v 后恢复摸牌", moved, s.opts.ReshuffleDelay)

	s.reshuffleTimer = time.AfterFunc(s.opts.ReshuffleDelay, s.finishReshuffle)
}

// finishReshuffle 展示延迟结束，按到达顺序重试挂起的摸牌
func (s *Session) finishReshuffle() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refilling = false
	pending := s.pendingDraws
	s.pendingDraws = nil

	for _, id := range pending {
		// 排队期间回合可能已经被出牌推进，重新校验
		if s.state != StateAwaitingAction || s.players[s.active].ID != id || s.hasDrawn {
			continue
		}
		if s.drawToHand(s.byID[id]) {
			s.hasDrawn = true
		}
	}
}

// forceDraw 功能牌触发的强制摸牌。牌堆空时就地回填重洗
// （回填本身是原子的，展示延迟只挡客户端主动摸牌），
// 实在无牌可摸时少摸不补。
func (s *Session) forceDraw(p *Player, n int) {
	for i := 0; i < n; i++ {
		if s.piles.DeckCount() == 0 {
			if !s.piles.CanReshuffle() {
				return
			}
			if !s.refilling {
				s.beginReshuffle()
			}
			if s.piles.DeckCount() == 0 {
				return
			}
		}
		s.drawToHand(p)
	}
}

// applyEffect 出牌成功后应用功能牌效果并推进回合
func (s *Session) applyEffect(actor *Player, eff rule.Effect) {
	n := len(s.players)

	switch eff.Kind {
	case rule.EffectForceDraw:
		var seat int
		if eff.Target == rule.TargetPrevious {
			seat = rule.PrevSeat(s.active, n)
		} else {
			seat = rule.NextSeat(s.active, 1, n)
		}
		s.forceDraw(s.players[seat], eff.DrawCount)
		s.advanceTurn(1)

	case rule.EffectSkipNext:
		s.advanceTurn(2)

	case rule.EffectPlayAgain:
		// 游标不动，出牌者继续行动
		s.emit(Event{Type: EventTurnChanged, PlayerID: actor.ID})

	case rule.EffectWildChoice:
		s.state = StateAwaitingWildChoice
		s.choicePending = actor.ID
		s.emit(Event{
			Type:       EventAwaitingSuitChoice,
			PlayerID:   actor.ID,
			TimeoutSec: int(s.opts.ChoiceTimeout / time.Second),
		})
		if s.opts.ChoiceTimeout > 0 {
			s.choiceTimer = time.AfterFunc(s.opts.ChoiceTimeout, s.choiceTimeout)
		}
		if actor.Offline {
			s.startOfflineTimer(actor.ID)
		}

	default:
		s.advanceTurn(1)
	}
}

// advanceTurn 推进游标。hasDrawn 恰好在行动权易主时重置。
func (s *Session) advanceTurn(step int) {
	old := s.active
	s.active = rule.NextSeat(s.active, step, len(s.players))
	if s.active != old {
		s.hasDrawn = false
	}
	next := s.players[s.active]
	s.emit(Event{Type: EventTurnChanged, PlayerID: next.ID})

	if next.Offline {
		s.startOfflineTimer(next.ID)
	}
}

// applySuitChoice 落定万能花色并恢复回合推进
func (s *Session) applySuitChoice(playerID string, suit card.Suit) {
	if s.choiceTimer != nil {
		s.choiceTimer.Stop()
		s.choiceTimer = nil
	}

	s.wildSuit = suit
	s.choicePending = ""
	s.state = StateAwaitingAction

	s.emit(Event{Type: EventWildSuitSet, PlayerID: playerID, Suit: suit})
	s.advanceTurn(1)
}

// choiceTimeout 指定花色超时：自动选择手中最多的花色，
// 掉线挂起不会永远卡住整局
func (s *Session) choiceTimeout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAwaitingWildChoice {
		return
	}
	p := s.byID[s.choicePending]
	suit := p.MostHeldSuit()
	log.Printf("⏰ 玩家 %s 指定花色超时，自动选择 %s", p.Name, suit)
	s.applySuitChoice(p.ID, suit)
}

// startOfflineTimer 启动离线代打计时器
func (s *Session) startOfflineTimer(playerID string) {
	if s.opts.OfflineWait <= 0 {
		return
	}
	if s.offlineTimer != nil {
		s.offlineTimer.Stop()
	}
	s.offlineFor = playerID
	s.offlineTimer = time.AfterFunc(s.opts.OfflineWait, func() {
		s.autoAct(playerID)
	})
}

// autoAct 离线超时代打：挂起的花色选择自动落定；
// 普通回合尽量摸一张，然后直接过牌。
func (s *Session) autoAct(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[playerID]
	if !ok || !p.Offline {
		return
	}

	if s.state == StateAwaitingWildChoice && s.choicePending == playerID {
		suit := p.MostHeldSuit()
		log.Printf("🤖 离线代打: %s 自动指定花色 %s", p.Name, suit)
		s.applySuitChoice(playerID, suit)
		return
	}

	if s.state != StateAwaitingAction || s.players[s.active].ID != playerID {
		return
	}

	if !s.hasDrawn && !s.refilling && s.piles.DeckCount() > 0 {
		s.drawToHand(p)
		s.hasDrawn = true
	}
	log.Printf("🤖 离线代打: %s 自动过牌", p.Name)
	s.advanceTurn(1)
}

// endRound 本轮结束：按留牌计分、追加计分板、广播结果，
// 会话回到待开局状态等待下一轮。
func (s *Session) endRound(winner *Player) {
	s.stopTimers()

	roundScores := make(map[string]int, len(s.players))
	for _, p := range s.players {
		roundScores[p.ID] = rule.HandScore(p.Hand, s.opts.Score)
	}
	s.scoreboard.AppendRound(roundScores)

	s.state = StateRoundOver
	s.wildSuit = card.SuitNone
	s.choicePending = ""
	s.refilling = false
	s.pendingDraws = nil

	scores := make([]RoundScore, len(s.players))
	for i, p := range s.players {
		scores[i] = RoundScore{
			PlayerID:   p.ID,
			PlayerName: p.Name,
			Round:      roundScores[p.ID],
			Total:      s.scoreboard.Total(p.ID),
		}
	}
	s.emit(Event{Type: EventRoundOver, WinnerID: winner.ID, Scores: scores})

	log.Printf("🏁 第 %d 轮结束，获胜者 %s", s.round, winner.Name)
}

// stopTimers 停掉所有会话计时器
func (s *Session) stopTimers() {
	if s.reshuffleTimer != nil {
		s.reshuffleTimer.Stop()
		s.reshuffleTimer = nil
	}
	if s.choiceTimer != nil {
		s.choiceTimer.Stop()
		s.choiceTimer = nil
	}
	if s.offlineTimer != nil {
		s.offlineTimer.Stop()
		s.offlineTimer = nil
		s.offlineFor = ""
	}
}

// emit 在会话锁内按序发出事件，Seq 严格递增
func (s *Session) emit(ev Event) {
	s.seq++
	ev.Seq = s.seq
	if s.sink != nil {
		s.sink.Publish(ev)
	}
}
