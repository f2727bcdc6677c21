package protocol

import (
	"github.com/palemoky/crazy-eights/internal/card"
	"github.com/palemoky/crazy-eights/internal/game"
)

// 牌面可见性在转换层裁剪：同一个权威事件对不同观察者
// 生成不同的消息，看不到的牌只保留 ID。

// NewCardInfo 牌面可见的牌信息
func NewCardInfo(c card.Card) CardInfo {
	return CardInfo{ID: c.ID, Known: true, Suit: int(c.Suit), Rank: int(c.Rank)}
}

// NewHiddenCardInfo 只带 ID 的牌背信息
func NewHiddenCardInfo(c card.Card) CardInfo {
	return CardInfo{ID: c.ID}
}

// cardVisibleTo 一次移动后的牌面对观察者是否可见：
// 弃牌堆的牌对所有人可见，手牌只对持有者可见，牌堆对谁都不可见。
func cardVisibleTo(ev game.Event, observerID string) bool {
	switch ev.To.Kind {
	case game.LocDiscard:
		return true
	case game.LocHand:
		return ev.To.PlayerID == observerID
	default:
		return false
	}
}

func newLocationInfo(loc game.Location) LocationInfo {
	return LocationInfo{Kind: string(loc.Kind), PlayerID: loc.PlayerID}
}

// EventMessage 把权威事件转成发给 observerID 的广播消息
func EventMessage(ev game.Event, observerID string) (*Message, error) {
	switch ev.Type {
	case game.EventRoundStarted:
		return NewEventMessage(MsgRoundStarted, ev.Seq, RoundStartedPayload{
			Round:     ev.Round,
			DeckCount: ev.DeckCount,
		})

	case game.EventCardMoved:
		ci := NewHiddenCardInfo(*ev.Card)
		if cardVisibleTo(ev, observerID) {
			ci = NewCardInfo(*ev.Card)
		}
		return NewEventMessage(MsgCardMoved, ev.Seq, CardMovedPayload{
			Card: ci,
			From: newLocationInfo(ev.From),
			To:   newLocationInfo(ev.To),
		})

	case game.EventTurnChanged:
		return NewEventMessage(MsgTurnChanged, ev.Seq, TurnChangedPayload{PlayerID: ev.PlayerID})

	case game.EventAwaitingSuitChoice:
		return NewEventMessage(MsgAwaitingSuitChoice, ev.Seq, AwaitingSuitChoicePayload{
			PlayerID: ev.PlayerID,
			Timeout:  ev.TimeoutSec,
		})

	case game.EventWildSuitSet:
		return NewEventMessage(MsgWildSuitSet, ev.Seq, WildSuitSetPayload{
			PlayerID: ev.PlayerID,
			Suit:     int(ev.Suit),
		})

	case game.EventDeckReshuffled:
		return NewEventMessage(MsgDeckReshuffled, ev.Seq, DeckReshuffledPayload{
			DeckCount:    ev.DeckCount,
			DiscardCount: ev.DiscardCount,
		})

	case game.EventRoundOver:
		p := RoundOverPayload{WinnerID: ev.WinnerID}
		for _, s := range ev.Scores {
			if s.PlayerID == ev.WinnerID {
				p.WinnerName = s.PlayerName
			}
			p.Scores = append(p.Scores, ScoreEntry{
				PlayerID:   s.PlayerID,
				PlayerName: s.PlayerName,
				Round:      s.Round,
				Total:      s.Total,
			})
		}
		return NewEventMessage(MsgRoundOver, ev.Seq, p)
	}
	return nil, nil
}

func stateName(s game.State) string {
	switch s {
	case game.StateAwaitingAction:
		return "awaiting_action"
	case game.StateAwaitingWildChoice:
		return "awaiting_suit_choice"
	case game.StateRoundOver:
		return "round_over"
	case game.StateDealing:
		return "dealing"
	default:
		return "setup"
	}
}

// SnapshotDTO 把观察者视角的快照转成重连恢复用的 DTO
func SnapshotDTO(snap game.Snapshot) *GameStateDTO {
	dto := &GameStateDTO{
		Seq:            snap.Seq,
		State:          stateName(snap.State),
		Round:          snap.Round,
		ActivePlayerID: snap.ActivePlayerID,
		HasDrawn:       snap.HasDrawn,
		WildSuit:       int(snap.WildSuit),
		ChoicePending:  snap.ChoicePending,
		DeckCount:      snap.DeckCount,
		DiscardCount:   snap.DiscardCount,
		ScoreHistory:   snap.ScoreHistory,
	}
	if snap.DiscardTop != nil {
		dto.DiscardTop = &CardInfo{
			ID:    snap.DiscardTop.ID,
			Known: snap.DiscardTop.Known,
			Suit:  int(snap.DiscardTop.Suit),
			Rank:  int(snap.DiscardTop.Rank),
		}
	}
	for _, c := range snap.Hand {
		dto.Hand = append(dto.Hand, CardInfo{ID: c.ID, Known: c.Known, Suit: int(c.Suit), Rank: int(c.Rank)})
	}
	for _, p := range snap.Players {
		dto.Players = append(dto.Players, PlayerInfo{
			ID:         p.ID,
			Name:       p.Name,
			Seat:       p.Seat,
			CardsCount: p.HandCount,
			Online:     !p.Offline,
			Total:      p.Total,
		})
	}
	return dto
}
