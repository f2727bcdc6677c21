package client

import (
	"sort"

	"github.com/palemoky/crazy-eights/internal/network/protocol"
)

// The wild rank mirrors the server rule; the projection needs it to
// derive the active suit from a flipped opening card.
const wildRank = 11

// Projection is the client-side view of the authoritative game state,
// rebuilt purely from broadcast events. Every event carries a sequence
// number; Apply drops anything at or below the last applied one, so
// replaying a stream after reconnect is safe.
type Projection struct {
	SelfID string

	LastSeq uint64
	Round   int
	Started bool
	Over    bool

	ActivePlayerID string
	WildSuit       int // -1 when no wild suit is in effect
	ChoicePending  string

	DeckCount    int
	DiscardCount int
	DiscardTop   *protocol.CardInfo

	// Own hand keyed by card ID; cards of other players are only counted.
	Hand       map[int]protocol.CardInfo
	HandCounts map[string]int

	WinnerID   string
	LastScores []protocol.ScoreEntry
}

// NewProjection creates an empty projection for the given player
func NewProjection(selfID string) *Projection {
	return &Projection{
		SelfID:     selfID,
		WildSuit:   -1,
		Hand:       make(map[int]protocol.CardInfo),
		HandCounts: make(map[string]int),
	}
}

// InitFromSnapshot replaces the projection with a reconnect snapshot.
// Events older than the snapshot's sequence number are dropped afterwards.
func (p *Projection) InitFromSnapshot(dto *protocol.GameStateDTO) {
	p.LastSeq = dto.Seq
	p.Round = dto.Round
	p.Started = dto.State != ""
	p.Over = dto.State == "round_over"
	p.ActivePlayerID = dto.ActivePlayerID
	p.WildSuit = dto.WildSuit
	p.ChoicePending = dto.ChoicePending
	p.DeckCount = dto.DeckCount
	p.DiscardCount = dto.DiscardCount
	p.DiscardTop = dto.DiscardTop
	p.WinnerID = ""
	p.LastScores = nil

	p.Hand = make(map[int]protocol.CardInfo, len(dto.Hand))
	for _, c := range dto.Hand {
		p.Hand[c.ID] = c
	}

	p.HandCounts = make(map[string]int, len(dto.Players))
	for _, pl := range dto.Players {
		p.HandCounts[pl.ID] = pl.CardsCount
	}
}

// Apply folds one broadcast message into the projection. It returns
// false when the message was dropped, either because it is not a game
// event or because its sequence number was already applied.
func (p *Projection) Apply(msg *protocol.Message) bool {
	switch msg.Type {
	case protocol.MsgRoundStarted, protocol.MsgCardMoved, protocol.MsgTurnChanged,
		protocol.MsgAwaitingSuitChoice, protocol.MsgWildSuitSet,
		protocol.MsgDeckReshuffled, protocol.MsgRoundOver:
	default:
		return false
	}

	if msg.Seq <= p.LastSeq {
		return false
	}
	p.LastSeq = msg.Seq

	switch msg.Type {
	case protocol.MsgRoundStarted:
		payload, err := protocol.ParsePayload[protocol.RoundStartedPayload](msg)
		if err != nil {
			return false
		}
		p.reset()
		p.Round = payload.Round
		p.Started = true
		p.DeckCount = payload.DeckCount

	case protocol.MsgCardMoved:
		payload, err := protocol.ParsePayload[protocol.CardMovedPayload](msg)
		if err != nil {
			return false
		}
		p.applyCardMoved(payload)

	case protocol.MsgTurnChanged:
		payload, err := protocol.ParsePayload[protocol.TurnChangedPayload](msg)
		if err != nil {
			return false
		}
		p.ActivePlayerID = payload.PlayerID
		p.ChoicePending = ""

	case protocol.MsgAwaitingSuitChoice:
		payload, err := protocol.ParsePayload[protocol.AwaitingSuitChoicePayload](msg)
		if err != nil {
			return false
		}
		p.ChoicePending = payload.PlayerID

	case protocol.MsgWildSuitSet:
		payload, err := protocol.ParsePayload[protocol.WildSuitSetPayload](msg)
		if err != nil {
			return false
		}
		p.WildSuit = payload.Suit
		p.ChoicePending = ""

	case protocol.MsgDeckReshuffled:
		payload, err := protocol.ParsePayload[protocol.DeckReshuffledPayload](msg)
		if err != nil {
			return false
		}
		p.DeckCount = payload.DeckCount
		p.DiscardCount = payload.DiscardCount

	case protocol.MsgRoundOver:
		payload, err := protocol.ParsePayload[protocol.RoundOverPayload](msg)
		if err != nil {
			return false
		}
		p.Over = true
		p.ActivePlayerID = ""
		p.ChoicePending = ""
		p.WinnerID = payload.WinnerID
		p.LastScores = payload.Scores
	}

	return true
}

// applyCardMoved adjusts counts and the own hand for a single card move
func (p *Projection) applyCardMoved(payload *protocol.CardMovedPayload) {
	// Source
	switch payload.From.Kind {
	case "deck":
		p.DeckCount--
	case "discard":
		p.DiscardCount--
	case "hand":
		if payload.From.PlayerID == p.SelfID {
			delete(p.Hand, payload.Card.ID)
		}
		p.HandCounts[payload.From.PlayerID]--
	}

	// Destination
	switch payload.To.Kind {
	case "deck":
		p.DeckCount++
	case "discard":
		p.DiscardCount++
		top := payload.Card
		p.DiscardTop = &top
		// A non-wild top clears the active suit. A wild flipped as the
		// opening card fixes the suit to its own; a played wild leaves
		// the suit pending until the wild_suit_set event arrives.
		if top.Known {
			switch {
			case top.Rank != wildRank:
				p.WildSuit = -1
			case payload.From.Kind == "deck":
				p.WildSuit = top.Suit
			}
		}
	case "hand":
		if payload.To.PlayerID == p.SelfID {
			p.Hand[payload.Card.ID] = payload.Card
		}
		p.HandCounts[payload.To.PlayerID]++
	}
}

// SortedHand returns the own hand ordered by suit then rank
func (p *Projection) SortedHand() []protocol.CardInfo {
	hand := make([]protocol.CardInfo, 0, len(p.Hand))
	for _, c := range p.Hand {
		hand = append(hand, c)
	}
	sort.Slice(hand, func(i, j int) bool {
		if hand[i].Suit != hand[j].Suit {
			return hand[i].Suit < hand[j].Suit
		}
		return hand[i].Rank < hand[j].Rank
	})
	return hand
}

// HandCount returns the tracked hand size of any player
func (p *Projection) HandCount(playerID string) int {
	return p.HandCounts[playerID]
}

// reset clears per-round state, keeping the sequence cursor
func (p *Projection) reset() {
	p.Started = false
	p.Over = false
	p.ActivePlayerID = ""
	p.WildSuit = -1
	p.ChoicePending = ""
	p.DeckCount = 0
	p.DiscardCount = 0
	p.DiscardTop = nil
	p.WinnerID = ""
	p.LastScores = nil
	p.Hand = make(map[int]protocol.CardInfo)
	p.HandCounts = make(map[string]int)
}
