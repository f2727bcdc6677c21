package server

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/palemoky/crazy-eights/internal/card"
	"github.com/palemoky/crazy-eights/internal/game"
	"github.com/palemoky/crazy-eights/internal/network/protocol"
)

// Handler 消息处理器
type Handler struct {
	server *Server
}

// NewHandler 创建处理器
func NewHandler(s *Server) *Handler {
	return &Handler{server: s}
}

// Handle 处理消息
func (h *Handler) Handle(client *Client, msg *protocol.Message) {
	switch msg.Type {
	// 连接操作
	case protocol.MsgPing:
		h.handlePing(client, msg)
	case protocol.MsgReconnect:
		h.handleReconnect(client, msg)

	// 房间操作
	case protocol.MsgCreateRoom:
		h.handleCreateRoom(client)
	case protocol.MsgJoinRoom:
		h.handleJoinRoom(client, msg)
	case protocol.MsgLeaveRoom:
		h.server.roomManager.LeaveRoom(client)
	case protocol.MsgQuickMatch:
		h.handleQuickMatch(client)
	case protocol.MsgStartGame:
		h.sendIfError(client, h.server.roomManager.StartGame(client))
	case protocol.MsgNextRound:
		h.sendIfError(client, h.server.roomManager.StartNextRound(client))

	// 游戏操作
	case protocol.MsgDrawCard:
		h.withGame(client, func(g gameSession) error {
			return g.HandleDraw(client.ID)
		})
	case protocol.MsgPlayCard:
		h.handlePlayCard(client, msg)
	case protocol.MsgChooseSuit:
		h.handleChooseSuit(client, msg)
	case protocol.MsgPass:
		h.withGame(client, func(g gameSession) error {
			return g.HandlePass(client.ID)
		})

	// 查询
	case protocol.MsgGetLeaderboard:
		h.handleGetLeaderboard(client)

	default:
		log.Printf("未知消息类型: %s", msg.Type)
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
	}
}

// gameSession 处理器需要的会话操作面
type gameSession interface {
	HandleDraw(playerID string) error
	HandlePlay(playerID string, cardID int) error
	HandleSuitChoice(playerID string, suit card.Suit) error
	HandlePass(playerID string) error
}

// withGame 找到客户端所在对局并执行操作，错误回给请求方
func (h *Handler) withGame(client *Client, fn func(g gameSession) error) {
	room := h.server.roomManager.GetRoom(client.GetRoom())
	if room == nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeNotInRoom))
		return
	}

	sess := room.Game()
	if sess == nil {
		client.SendMessage(protocol.NewGameErrorMessage(game.ErrGameNotStart))
		return
	}

	h.sendIfError(client, fn(sess))
}

// sendIfError 把房间层或游戏层错误转成协议错误回给请求方
func (h *Handler) sendIfError(client *Client, err error) {
	if err == nil {
		return
	}
	var roomErr *RoomError
	if errors.As(err, &roomErr) {
		client.SendMessage(protocol.NewErrorMessage(roomErr.Code))
		return
	}
	client.SendMessage(protocol.NewGameErrorMessage(err))
}

// handlePing 处理心跳消息
func (h *Handler) handlePing(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.PingPayload](msg)
	if err != nil {
		return
	}

	client.SendMessage(protocol.MustNewMessage(protocol.MsgPong, protocol.PongPayload{
		ClientTimestamp: payload.Timestamp,
		ServerTimestamp: time.Now().UnixMilli(),
	}))
}

// handleReconnect 处理断线重连：凭令牌找回旧身份，
// 恢复房间引用并回传当前视角的游戏状态快照。
func (h *Handler) handleReconnect(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.ReconnectPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	if !h.server.sessionManager.CanReconnect(payload.Token, payload.PlayerID) {
		client.SendMessage(protocol.NewErrorMessageWithText(protocol.ErrCodeUnknown, "重连令牌无效或已过期"))
		return
	}

	session := h.server.sessionManager.GetSession(payload.PlayerID)
	if session == nil {
		client.SendMessage(protocol.NewErrorMessageWithText(protocol.ErrCodeUnknown, "会话不存在"))
		return
	}

	// 换回原身份
	oldID := client.ID
	client.ID = session.PlayerID
	client.Name = session.PlayerName

	h.server.clientsMu.Lock()
	delete(h.server.clients, oldID)
	h.server.clients[client.ID] = client
	h.server.clientsMu.Unlock()

	h.server.sessionManager.SetOnline(client.ID)

	resp := protocol.ReconnectedPayload{
		PlayerID:   client.ID,
		PlayerName: client.Name,
	}

	if session.RoomCode != "" {
		if err := h.server.roomManager.ReconnectPlayer(session.RoomCode, client); err == nil {
			resp.RoomCode = session.RoomCode
			if room := h.server.roomManager.GetRoom(session.RoomCode); room != nil {
				if sess := room.Game(); sess != nil {
					resp.GameState = protocol.SnapshotDTO(sess.Snapshot(client.ID))
				}
			}
		}
	}

	client.SendMessage(protocol.MustNewMessage(protocol.MsgReconnected, resp))
	log.Printf("🔄 玩家 %s (%s) 重连成功", client.Name, client.ID)
}

// handleCreateRoom 处理创建房间
func (h *Handler) handleCreateRoom(client *Client) {
	if client.GetRoom() != "" {
		h.server.roomManager.LeaveRoom(client)
	}

	room, err := h.server.roomManager.CreateRoom(client)
	if err != nil {
		h.sendIfError(client, err)
		return
	}

	client.SendMessage(protocol.MustNewMessage(protocol.MsgRoomCreated, protocol.RoomCreatedPayload{
		RoomCode: room.Code,
		Player:   room.PlayersInfo()[0],
	}))
}

// handleJoinRoom 处理加入房间
func (h *Handler) handleJoinRoom(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.JoinRoomPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	if client.GetRoom() != "" {
		h.server.roomManager.LeaveRoom(client)
	}

	room, err := h.server.roomManager.JoinRoom(client, payload.RoomCode)
	if err != nil {
		h.sendIfError(client, err)
		return
	}

	h.sendRoomJoined(client, room)
}

// sendRoomJoined 发送加入房间成功消息
func (h *Handler) sendRoomJoined(client *Client, room *Room) {
	players := room.PlayersInfo()
	var self protocol.PlayerInfo
	for _, p := range players {
		if p.ID == client.ID {
			self = p
			break
		}
	}
	client.SendMessage(protocol.MustNewMessage(protocol.MsgRoomJoined, protocol.RoomJoinedPayload{
		RoomCode: room.Code,
		Player:   self,
		Players:  players,
		HostID:   room.HostIDSnapshot(),
	}))
}

// handleQuickMatch 处理快速匹配
func (h *Handler) handleQuickMatch(client *Client) {
	if client.GetRoom() != "" {
		h.server.roomManager.LeaveRoom(client)
	}
	h.server.matcher.AddToQueue(client)
}

// handlePlayCard 处理出牌
func (h *Handler) handlePlayCard(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.PlayCardPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	h.withGame(client, func(g gameSession) error {
		return g.HandlePlay(client.ID, payload.CardID)
	})
}

// handleChooseSuit 处理指定花色
func (h *Handler) handleChooseSuit(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.ChooseSuitPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	h.withGame(client, func(g gameSession) error {
		return g.HandleSuitChoice(client.ID, card.Suit(payload.Suit))
	})
}

// handleGetLeaderboard 处理排行榜查询
func (h *Handler) handleGetLeaderboard(client *Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	entries, err := h.server.leaderboard.TopPlayers(ctx, 10)
	if err != nil {
		log.Printf("查询排行榜失败: %v", err)
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeUnknown))
		return
	}

	payload := protocol.LeaderboardPayload{}
	for _, e := range entries {
		payload.Entries = append(payload.Entries, protocol.LeaderboardEntry{
			Rank:       e.Rank,
			PlayerName: e.PlayerName,
			Wins:       e.Wins,
		})
	}
	client.SendMessage(protocol.MustNewMessage(protocol.MsgLeaderboard, payload))
}
