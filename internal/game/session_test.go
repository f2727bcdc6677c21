package game

import (
	"sync"
	"testing"
	"time"

	"math/rand/v2"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/crazy-eights/internal/card"
	"github.com/palemoky/crazy-eights/internal/rule"
)

// eventLog collects broadcast events; Publish may be called from timer goroutines.
type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) Publish(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) byType(t EventType) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Event
	for _, ev := range l.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func (l *eventLog) all() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event(nil), l.events...)
}

func testSeats(n int) []Seat {
	names := []string{"Alice", "Bob", "Carol", "Dave"}
	seats := make([]Seat, n)
	for i := 0; i < n; i++ {
		seats[i] = Seat{ID: names[i], Name: names[i]}
	}
	return seats
}

func newTestSession(t *testing.T, players int, opts Options) (*Session, *eventLog) {
	t.Helper()
	sink := &eventLog{}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(99, 7))
	}
	s, err := NewSession(testSeats(players), sink, opts)
	require.NoError(t, err)
	return s, sink
}

// fixedSession builds a session with hand-picked hands, deck and discard,
// bypassing the dealer, so specific holdings can be tested.
func fixedSession(t *testing.T, players int, hands map[string][]card.Card,
	deck card.Deck, discard []card.Card, activeSeat int) (*Session, *eventLog) {
	t.Helper()
	s, sink := newTestSession(t, players, Options{})

	s.round = 1
	s.state = StateAwaitingAction
	s.active = activeSeat
	s.piles = card.NewPiles(deck, s.opts.Rand)
	for _, c := range discard {
		s.piles.Discard(c)
	}
	for id, h := range hands {
		require.Contains(t, s.byID, id)
		s.byID[id].Hand = h
	}
	return s, sink
}

func mk(id int, s card.Suit, r card.Rank) card.Card {
	return card.Card{ID: id, Suit: s, Rank: r}
}

func TestNewSession_RequiresTwoPlayers(t *testing.T) {
	_, err := NewSession(testSeats(1), &eventLog{}, Options{})
	assert.Error(t, err)
}

func TestStartRound_ScenarioA(t *testing.T) {
	// 2 players, 36-card deck, hand size 5:
	// each holds 5, deck holds 25 (one card flipped to discard), scoreboard empty.
	s, sink := newTestSession(t, 2, Options{})
	require.NoError(t, s.StartRound())

	assert.Len(t, s.HandOf("Alice"), 5)
	assert.Len(t, s.HandOf("Bob"), 5)
	assert.Equal(t, 25, s.DeckCount())
	assert.Equal(t, 1, s.DiscardCount())
	assert.Equal(t, 0, s.ScoreRounds())
	assert.Equal(t, StateAwaitingAction, s.State())
	assert.Equal(t, "Alice", s.ActivePlayerID())

	// Initial placement broadcast: 10 deals + 1 flip, all before turn_changed
	assert.Len(t, sink.byType(EventCardMoved), 11)
	require.NotEmpty(t, sink.byType(EventTurnChanged))

	// Sequence numbers strictly increase
	var last uint64
	for _, ev := range sink.all() {
		assert.Greater(t, ev.Seq, last)
		last = ev.Seq
	}
}

func TestStartRound_Conservation(t *testing.T) {
	s, _ := newTestSession(t, 3, Options{})
	require.NoError(t, s.StartRound())

	census := s.cardCensus()
	assert.Len(t, census, 36, "every built card has exactly one location")
	total := s.DeckCount() + s.DiscardCount()
	for _, id := range []string{"Alice", "Bob", "Carol"} {
		total += len(s.HandOf(id))
	}
	assert.Equal(t, 36, total)
}

func TestStartRound_WhileInProgress(t *testing.T) {
	s, _ := newTestSession(t, 2, Options{})
	require.NoError(t, s.StartRound())
	assert.ErrorIs(t, s.StartRound(), ErrRoundInProgress)
}

func TestHandleDraw(t *testing.T) {
	s, sink := newTestSession(t, 2, Options{})
	require.NoError(t, s.StartRound())

	front := s.piles.Cards()[0]

	// Out of turn
	assert.ErrorIs(t, s.HandleDraw("Bob"), ErrNotYourTurn)
	// Unknown player
	assert.ErrorIs(t, s.HandleDraw("Mallory"), ErrUnknownPlayer)

	require.NoError(t, s.HandleDraw("Alice"))
	hand := s.HandOf("Alice")
	assert.Len(t, hand, 6)
	assert.Equal(t, front.ID, hand[5].ID, "drawn card is the prior deck front")
	assert.Equal(t, 24, s.DeckCount())

	// Double draw in one turn
	assert.ErrorIs(t, s.HandleDraw("Alice"), ErrAlreadyDrawn)

	moves := sink.byType(EventCardMoved)
	drawn := moves[len(moves)-1]
	assert.Equal(t, LocDeck, drawn.From.Kind)
	assert.Equal(t, "Alice", drawn.To.PlayerID)
}

func TestHandlePass(t *testing.T) {
	s, _ := newTestSession(t, 2, Options{})
	require.NoError(t, s.StartRound())

	// Pass before drawing
	assert.ErrorIs(t, s.HandlePass("Alice"), ErrMustDrawFirst)

	require.NoError(t, s.HandleDraw("Alice"))
	require.NoError(t, s.HandlePass("Alice"))
	assert.Equal(t, "Bob", s.ActivePlayerID())

	// hasDrawn reset for the new active player
	assert.ErrorIs(t, s.HandlePass("Bob"), ErrMustDrawFirst)
}

func TestHandlePlay_ScenarioB_ThreePlayers(t *testing.T) {
	// Alice answers a 9 of hearts with a 6 of hearts: legal, previous
	// seat (Carol) is forced to draw 1, turn advances to Bob.
	deck := card.Deck{mk(100, card.Clubs, card.Rank10), mk(101, card.Diamonds, card.Rank9)}
	s, sink := fixedSession(t, 3,
		map[string][]card.Card{
			"Alice": {mk(1, card.Hearts, card.Rank6), mk(2, card.Clubs, card.RankQ)},
			"Bob":   {mk(3, card.Spades, card.Rank9)},
			"Carol": {mk(4, card.Diamonds, card.Rank10)},
		},
		deck, []card.Card{mk(50, card.Hearts, card.Rank9)}, 0)

	require.NoError(t, s.HandlePlay("Alice", 1))

	assert.Len(t, s.HandOf("Carol"), 2, "previous seat drew one card")
	assert.Equal(t, 1, s.DeckCount())
	assert.Equal(t, "Bob", s.ActivePlayerID(), "turn advances normally after the penalty")

	top, ok := s.piles.Top()
	require.True(t, ok)
	assert.Equal(t, 1, top.ID)

	// The play itself was broadcast face-up hand -> discard
	moves := sink.byType(EventCardMoved)
	var found bool
	for _, ev := range moves {
		if ev.Card != nil && ev.Card.ID == 1 {
			assert.Equal(t, LocHand, ev.From.Kind)
			assert.Equal(t, LocDiscard, ev.To.Kind)
			found = true
		}
	}
	assert.True(t, found)
}

func TestHandlePlay_ScenarioB_TwoPlayerCollapse(t *testing.T) {
	// With two players the "previous seat" is the sole opponent.
	deck := card.Deck{mk(100, card.Clubs, card.Rank10)}
	s, _ := fixedSession(t, 2,
		map[string][]card.Card{
			"Alice": {mk(1, card.Hearts, card.Rank6), mk(2, card.Clubs, card.RankQ)},
			"Bob":   {mk(3, card.Spades, card.Rank9)},
		},
		deck, []card.Card{mk(50, card.Hearts, card.Rank9)}, 0)

	require.NoError(t, s.HandlePlay("Alice", 1))
	assert.Len(t, s.HandOf("Bob"), 2)
	assert.Equal(t, "Bob", s.ActivePlayerID())
}

func TestHandlePlay_Rejections(t *testing.T) {
	s, sink := fixedSession(t, 2,
		map[string][]card.Card{
			"Alice": {mk(1, card.Clubs, card.Rank10)},
			"Bob":   {mk(2, card.Spades, card.Rank9)},
		},
		card.Deck{mk(100, card.Diamonds, card.Rank7)},
		[]card.Card{mk(50, card.Hearts, card.Rank9)}, 0)

	before := len(sink.all())

	// Wrong player
	assert.ErrorIs(t, s.HandlePlay("Bob", 2), ErrNotYourTurn)
	// Card not owned: Alice claims Bob's card
	assert.ErrorIs(t, s.HandlePlay("Alice", 2), ErrCardNotOwned)
	// Both suit and rank differ from a non-wild, non-any-suit top
	assert.ErrorIs(t, s.HandlePlay("Alice", 1), ErrIllegalMove)

	// Rejections change nothing and broadcast nothing
	assert.Len(t, sink.all(), before)
	assert.Len(t, s.HandOf("Alice"), 1)
	assert.Equal(t, "Alice", s.ActivePlayerID())
}

func TestHandlePlay_SkipNext(t *testing.T) {
	// Ace skips the immediate next seat: +2 with three players.
	s, _ := fixedSession(t, 3,
		map[string][]card.Card{
			"Alice": {mk(1, card.Hearts, card.RankA), mk(2, card.Clubs, card.RankQ)},
			"Bob":   {mk(3, card.Spades, card.Rank9)},
			"Carol": {mk(4, card.Diamonds, card.Rank10)},
		},
		card.Deck{mk(100, card.Clubs, card.Rank10)},
		[]card.Card{mk(50, card.Hearts, card.Rank9)}, 0)

	require.NoError(t, s.HandlePlay("Alice", 1))
	assert.Equal(t, "Carol", s.ActivePlayerID())
}

func TestHandlePlay_PlayAgain(t *testing.T) {
	// The any-suit rank keeps the turn with the actor.
	s, _ := fixedSession(t, 3,
		map[string][]card.Card{
			"Alice": {mk(1, card.Hearts, rule.AnySuitRank), mk(2, card.Clubs, card.RankQ)},
			"Bob":   {mk(3, card.Spades, card.Rank9)},
			"Carol": {mk(4, card.Diamonds, card.Rank10)},
		},
		card.Deck{mk(100, card.Clubs, card.Rank10)},
		[]card.Card{mk(50, card.Hearts, card.Rank9)}, 0)

	require.NoError(t, s.HandlePlay("Alice", 1))
	assert.Equal(t, "Alice", s.ActivePlayerID())

	// Any suit may now answer the eight
	require.NoError(t, s.HandlePlay("Alice", 2))
	assert.Equal(t, "Bob", s.ActivePlayerID())
}

func TestHandlePlay_KingOfSpadesDrawsFive(t *testing.T) {
	deck := card.Deck{
		mk(100, card.Clubs, card.Rank10), mk(101, card.Diamonds, card.Rank9),
		mk(102, card.Hearts, card.Rank7), mk(103, card.Spades, card.Rank6),
		mk(104, card.Clubs, card.Rank9), mk(105, card.Diamonds, card.Rank6),
	}
	s, _ := fixedSession(t, 3,
		map[string][]card.Card{
			"Alice": {mk(1, card.Spades, card.RankK), mk(2, card.Clubs, card.RankQ)},
			"Bob":   {mk(3, card.Spades, card.Rank9)},
			"Carol": {mk(4, card.Diamonds, card.Rank10)},
		},
		deck, []card.Card{mk(50, card.Spades, card.Rank9)}, 0)

	require.NoError(t, s.HandlePlay("Alice", 1))
	assert.Len(t, s.HandOf("Bob"), 6, "next seat drew five")
	assert.Equal(t, 1, s.DeckCount())
	assert.Equal(t, "Bob", s.ActivePlayerID())
}

func TestHandlePlay_ScenarioD_WildChoice(t *testing.T) {
	s, sink := fixedSession(t, 3,
		map[string][]card.Card{
			"Alice": {mk(1, card.Clubs, rule.WildRank), mk(2, card.Hearts, card.Rank10)},
			"Bob":   {mk(3, card.Spades, card.Rank9)},
			"Carol": {mk(4, card.Diamonds, card.Rank10)},
		},
		card.Deck{mk(100, card.Clubs, card.Rank10)},
		[]card.Card{mk(50, card.Diamonds, card.Rank9)}, 0)

	// Wild rank is playable on anything; turn advance suspends
	require.NoError(t, s.HandlePlay("Alice", 1))
	assert.Equal(t, StateAwaitingWildChoice, s.State())
	require.Len(t, sink.byType(EventAwaitingSuitChoice), 1)

	// While suspended, draws and plays are sequence errors
	assert.ErrorIs(t, s.HandleDraw("Bob"), ErrChoicePending)
	assert.ErrorIs(t, s.HandlePlay("Bob", 3), ErrChoicePending)
	// Only the actor may choose
	assert.ErrorIs(t, s.HandleSuitChoice("Bob", card.Hearts), ErrNotYourTurn)
	assert.ErrorIs(t, s.HandleSuitChoice("Alice", card.Suit(9)), ErrInvalidSuit)

	require.NoError(t, s.HandleSuitChoice("Alice", card.Hearts))
	assert.Equal(t, card.Hearts, s.WildSuit())
	assert.Equal(t, "Bob", s.ActivePlayerID())
	assert.Equal(t, StateAwaitingAction, s.State())

	// A second choice is rejected
	assert.ErrorIs(t, s.HandleSuitChoice("Alice", card.Clubs), ErrNoChoicePending)

	// The chosen suit governs legality until a non-wild top replaces it
	assert.ErrorIs(t, s.HandlePlay("Bob", 3), ErrIllegalMove)
}

func TestWildSuit_ClearedByNonWildTop(t *testing.T) {
	s, _ := fixedSession(t, 2,
		map[string][]card.Card{
			"Alice": {mk(1, card.Hearts, card.Rank10), mk(5, card.Clubs, card.RankQ)},
			"Bob":   {mk(3, card.Spades, card.Rank9)},
		},
		card.Deck{mk(100, card.Clubs, card.Rank10)},
		[]card.Card{mk(50, card.Diamonds, rule.WildRank)}, 0)
	s.wildSuit = card.Hearts

	require.NoError(t, s.HandlePlay("Alice", 1))
	assert.Equal(t, card.SuitNone, s.WildSuit(), "non-wild discard top clears the active wild suit")
}

func TestHandleDraw_ScenarioC_Reshuffle(t *testing.T) {
	// Deck empty, discard holds 3: draw triggers reshuffle; after the
	// delay the parked draw completes, deck holds 1 (2 refilled - 1 drawn)
	// and discard holds exactly the retained top.
	s, sink := fixedSession(t, 2,
		map[string][]card.Card{
			"Alice": {mk(1, card.Hearts, card.Rank10)},
			"Bob":   {mk(3, card.Spades, card.Rank9)},
		},
		card.Deck{},
		[]card.Card{
			mk(51, card.Clubs, card.Rank7),
			mk(52, card.Diamonds, card.Rank6),
			mk(50, card.Hearts, card.Rank9),
		}, 0)
	s.opts.ReshuffleDelay = 10 * time.Millisecond

	require.NoError(t, s.HandleDraw("Alice"))

	// Refill is atomic: immediately after the request the deck holds the
	// two recycled cards and the discard retains its top.
	assert.Equal(t, 2, s.DeckCount())
	assert.Equal(t, 1, s.DiscardCount())
	top, ok := s.piles.Top()
	require.True(t, ok)
	assert.Equal(t, 50, top.ID)
	require.Len(t, sink.byType(EventDeckReshuffled), 1)

	// The parked draw completes after the presentational delay
	require.Eventually(t, func() bool {
		return len(s.HandOf("Alice")) == 2
	}, time.Second, 2*time.Millisecond)
	assert.Equal(t, 1, s.DeckCount())
}

func TestHandleDraw_DeckExhausted(t *testing.T) {
	// Nothing left to recycle: deck empty, discard has only its top.
	s, _ := fixedSession(t, 2,
		map[string][]card.Card{
			"Alice": {mk(1, card.Hearts, card.Rank10)},
			"Bob":   {mk(3, card.Spades, card.Rank9)},
		},
		card.Deck{},
		[]card.Card{mk(50, card.Hearts, card.Rank9)}, 0)

	assert.ErrorIs(t, s.HandleDraw("Alice"), ErrDeckExhausted)
}

func TestHandlePlay_WinEndsRound(t *testing.T) {
	// Bob keeps 9♠ (9 points by the default table); Alice empties her hand.
	s, sink := fixedSession(t, 2,
		map[string][]card.Card{
			"Alice": {mk(1, card.Hearts, card.Rank10)},
			"Bob":   {mk(3, card.Spades, card.Rank9)},
		},
		card.Deck{mk(100, card.Clubs, card.Rank10)},
		[]card.Card{mk(50, card.Hearts, card.Rank9)}, 0)

	require.NoError(t, s.HandlePlay("Alice", 1))
	assert.Equal(t, StateRoundOver, s.State())

	overs := sink.byType(EventRoundOver)
	require.Len(t, overs, 1)
	assert.Equal(t, "Alice", overs[0].WinnerID)

	assert.Equal(t, []int{0}, s.ScoreHistory("Alice"))
	assert.Equal(t, []int{9}, s.ScoreHistory("Bob"))

	// Session is ready for the next round; totals accumulate
	require.NoError(t, s.StartRound())
	assert.Equal(t, 2, s.Round())
}

func TestHandlePlay_WinOnWildRankSkipsChoice(t *testing.T) {
	// Emptying the hand with the wild rank wins immediately: no suit
	// choice suspension.
	s, sink := fixedSession(t, 2,
		map[string][]card.Card{
			"Alice": {mk(1, card.Clubs, rule.WildRank)},
			"Bob":   {mk(3, card.Spades, card.Rank9)},
		},
		card.Deck{mk(100, card.Clubs, card.Rank10)},
		[]card.Card{mk(50, card.Diamonds, card.Rank9)}, 0)

	require.NoError(t, s.HandlePlay("Alice", 1))
	assert.Equal(t, StateRoundOver, s.State())
	assert.Empty(t, sink.byType(EventAwaitingSuitChoice))
}

func TestChoiceTimeout_AutoPicksMostHeldSuit(t *testing.T) {
	s, _ := fixedSession(t, 2,
		map[string][]card.Card{
			"Alice": {
				mk(1, card.Clubs, rule.WildRank),
				mk(2, card.Diamonds, card.Rank9),
				mk(5, card.Diamonds, card.Rank10),
				mk(6, card.Hearts, card.Rank6),
			},
			"Bob": {mk(3, card.Spades, card.Rank9)},
		},
		card.Deck{mk(100, card.Clubs, card.Rank10)},
		[]card.Card{mk(50, card.Diamonds, card.Rank9)}, 0)
	s.opts.ChoiceTimeout = 15 * time.Millisecond

	require.NoError(t, s.HandlePlay("Alice", 1))
	require.Equal(t, StateAwaitingWildChoice, s.State())

	require.Eventually(t, func() bool {
		return s.State() == StateAwaitingAction
	}, time.Second, 2*time.Millisecond)
	assert.Equal(t, card.Diamonds, s.WildSuit(), "auto choice picks the most held suit")
	assert.Equal(t, "Bob", s.ActivePlayerID())
}

func TestPlayerOffline_AutoActs(t *testing.T) {
	s, _ := newTestSession(t, 2, Options{OfflineWait: 15 * time.Millisecond})
	require.NoError(t, s.StartRound())
	require.Equal(t, "Alice", s.ActivePlayerID())

	before := len(s.HandOf("Alice"))
	s.PlayerOffline("Alice")

	// The stand-in draws once and passes; the hand survives intact plus the draw
	require.Eventually(t, func() bool {
		return s.ActivePlayerID() == "Bob"
	}, time.Second, 2*time.Millisecond)
	assert.Len(t, s.HandOf("Alice"), before+1)
}

func TestPlayerOnline_CancelsAutoAct(t *testing.T) {
	s, _ := newTestSession(t, 2, Options{OfflineWait: 30 * time.Millisecond})
	require.NoError(t, s.StartRound())

	s.PlayerOffline("Alice")
	s.PlayerOnline("Alice")

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, "Alice", s.ActivePlayerID(), "reconnect cancels the stand-in")
}

func TestConservation_AfterMixedActions(t *testing.T) {
	s, _ := newTestSession(t, 2, Options{})
	require.NoError(t, s.StartRound())

	require.NoError(t, s.HandleDraw("Alice"))
	require.NoError(t, s.HandlePass("Alice"))
	require.NoError(t, s.HandleDraw("Bob"))
	require.NoError(t, s.HandlePass("Bob"))

	census := s.cardCensus()
	assert.Len(t, census, 36)
	total := s.DeckCount() + s.DiscardCount() + len(s.HandOf("Alice")) + len(s.HandOf("Bob"))
	assert.Equal(t, 36, total, "no card duplicated or lost")
}
