package server

import (
	"context"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/palemoky/crazy-eights/internal/card"
	"github.com/palemoky/crazy-eights/internal/game"
	"github.com/palemoky/crazy-eights/internal/network/protocol"
)

const (
	// 房间号长度
	roomCodeLength = 6
	// 房间号字符集
	roomCodeChars = "0123456789"
)

// RoomState 房间状态
type RoomState int

const (
	RoomStateWaiting RoomState = iota // 等待玩家
	RoomStatePlaying                  // 对局进行中（跨多轮）
)

// RoomPlayer 房间中的玩家
type RoomPlayer struct {
	Client *Client
	Seat   int // 座位号，开局后即会话座位
}

// Room 游戏房间。开局后房间持有权威会话，
// 并作为会话的广播出口把事件按观察者可见性扇出。
type Room struct {
	Code        string
	State       RoomState
	Players     map[string]*RoomPlayer
	PlayerOrder []string // 玩家顺序（按座位）
	HostID      string   // 房主，开局和下一轮由房主触发
	CreatedAt   time.Time

	game   *game.Session
	server *Server
	mu     sync.RWMutex
}

// RoomManager 房间管理器
type RoomManager struct {
	server *Server
	rooms  map[string]*Room
	mu     sync.RWMutex
}

// NewRoomManager 创建房间管理器
func NewRoomManager(s *Server) *RoomManager {
	rm := &RoomManager{
		server: s,
		rooms:  make(map[string]*Room),
	}
	go rm.cleanupLoop()
	return rm
}

// CreateRoom 创建房间，创建者即房主
func (rm *RoomManager) CreateRoom(client *Client) (*Room, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	code := rm.generateRoomCode()
	room := &Room{
		Code:        code,
		State:       RoomStateWaiting,
		Players:     make(map[string]*RoomPlayer),
		PlayerOrder: make([]string, 0, rm.server.config.Game.MaxPlayers),
		HostID:      client.ID,
		CreatedAt:   time.Now(),
		server:      rm.server,
	}

	room.Players[client.ID] = &RoomPlayer{Client: client, Seat: 0}
	room.PlayerOrder = append(room.PlayerOrder, client.ID)
	client.SetRoom(code)

	rm.rooms[code] = room
	log.Printf("🏠 房间 %s 已创建，房主 %s", code, client.Name)
	return room, nil
}

// JoinRoom 加入房间
func (rm *RoomManager) JoinRoom(client *Client, code string) (*Room, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	room, exists := rm.rooms[code]
	if !exists {
		return nil, ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if len(room.Players) >= rm.server.config.Game.MaxPlayers {
		return nil, ErrRoomFull
	}
	if room.State != RoomStateWaiting {
		return nil, ErrGameStarted
	}

	seat := len(room.Players)
	room.Players[client.ID] = &RoomPlayer{Client: client, Seat: seat}
	room.PlayerOrder = append(room.PlayerOrder, client.ID)
	client.SetRoom(code)

	log.Printf("👤 玩家 %s 加入房间 %s (座位 %d)", client.Name, code, seat)

	joined := protocol.PlayerInfo{
		ID: client.ID, Name: client.Name, Seat: seat, Online: true,
	}
	room.broadcastLockedExcept(client.ID, protocol.MustNewMessage(protocol.MsgPlayerJoined, protocol.PlayerJoinedPayload{
		Player: joined,
	}))

	return room, nil
}

// LeaveRoom 离开房间。对局进行中离开按掉线处理，
// 手牌保留，轮到时由离线代打顶上；等待中的房间直接移除。
func (rm *RoomManager) LeaveRoom(client *Client) {
	roomCode := client.GetRoom()
	if roomCode == "" {
		return
	}

	rm.mu.RLock()
	room, exists := rm.rooms[roomCode]
	rm.mu.RUnlock()
	if !exists {
		return
	}

	room.mu.Lock()
	if room.State == RoomStatePlaying {
		room.mu.Unlock()
		rm.NotifyPlayerOffline(client)
		return
	}

	player, exists := room.Players[client.ID]
	if !exists {
		room.mu.Unlock()
		return
	}

	delete(room.Players, client.ID)
	for i, id := range room.PlayerOrder {
		if id == client.ID {
			room.PlayerOrder = append(room.PlayerOrder[:i], room.PlayerOrder[i+1:]...)
			break
		}
	}
	client.SetRoom("")

	// 房主离开时转移给最早加入的玩家
	if room.HostID == client.ID && len(room.PlayerOrder) > 0 {
		room.HostID = room.PlayerOrder[0]
	}

	log.Printf("👋 玩家 %s 离开房间 %s (座位 %d)", client.Name, roomCode, player.Seat)

	empty := len(room.Players) == 0
	if !empty {
		room.broadcast(protocol.MustNewMessage(protocol.MsgPlayerLeft, protocol.PlayerLeftPayload{
			PlayerID:   client.ID,
			PlayerName: client.Name,
			HostID:     room.HostID,
		}))
	}
	room.mu.Unlock()

	if empty {
		rm.mu.Lock()
		delete(rm.rooms, roomCode)
		rm.mu.Unlock()
		log.Printf("🏠 房间 %s 已解散", roomCode)
	}
}

// StartGame 房主开局：锁定座位、创建权威会话并开始第一轮
func (rm *RoomManager) StartGame(client *Client) error {
	room := rm.GetRoom(client.GetRoom())
	if room == nil {
		return ErrNotInRoom
	}

	cfg := rm.server.config.Game

	room.mu.Lock()
	if room.HostID != client.ID {
		room.mu.Unlock()
		return ErrNotHost
	}
	if room.State != RoomStateWaiting {
		room.mu.Unlock()
		return ErrGameStarted
	}
	if len(room.Players) < cfg.MinPlayers {
		room.mu.Unlock()
		return ErrTooFewPlayers
	}

	seats := make([]game.Seat, len(room.PlayerOrder))
	for i, id := range room.PlayerOrder {
		seats[i] = game.Seat{ID: id, Name: room.Players[id].Client.Name}
	}

	ranks := card.ReducedRanks()
	if cfg.DeckSize == 52 {
		ranks = card.FullRanks()
	}

	sess, err := game.NewSession(seats, room, game.Options{
		Ranks:          ranks,
		HandSize:       cfg.HandSize,
		ReshuffleDelay: cfg.ReshuffleDelayDuration(),
		ChoiceTimeout:  cfg.ChoiceTimeoutDuration(),
		OfflineWait:    cfg.OfflineWaitDuration(),
	})
	if err != nil {
		room.mu.Unlock()
		return err
	}

	room.game = sess
	room.State = RoomStatePlaying
	room.mu.Unlock()

	return sess.StartRound()
}

// StartNextRound 房主开始下一轮，上一轮必须已结束
func (rm *RoomManager) StartNextRound(client *Client) error {
	room := rm.GetRoom(client.GetRoom())
	if room == nil {
		return ErrNotInRoom
	}

	room.mu.RLock()
	host := room.HostID
	sess := room.game
	room.mu.RUnlock()

	if host != client.ID {
		return ErrNotHost
	}
	if sess == nil {
		return game.ErrGameNotStart
	}
	return sess.StartRound()
}

// GetRoom 获取房间
func (rm *RoomManager) GetRoom(code string) *Room {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.rooms[code]
}

// NotifyPlayerOffline 玩家掉线：通知其他人并挂起会话中的身份
func (rm *RoomManager) NotifyPlayerOffline(client *Client) {
	room := rm.GetRoom(client.GetRoom())
	if room == nil {
		return
	}

	room.mu.RLock()
	sess := room.game
	timeout := int(rm.server.config.Game.OfflineWaitDuration() / time.Second)
	room.mu.RUnlock()

	room.broadcastExcept(client.ID, protocol.MustNewMessage(protocol.MsgPlayerOffline, protocol.PlayerOfflinePayload{
		PlayerID:   client.ID,
		PlayerName: client.Name,
		Timeout:    timeout,
	}))

	if sess != nil {
		sess.PlayerOffline(client.ID)
	}

	log.Printf("📴 玩家 %s 在房间 %s 中掉线", client.Name, room.Code)
}

// ReconnectPlayer 重连的玩家接管房间里的旧身份
func (rm *RoomManager) ReconnectPlayer(roomCode string, client *Client) error {
	room := rm.GetRoom(roomCode)
	if room == nil {
		return ErrRoomNotFound
	}

	room.mu.Lock()
	player, exists := room.Players[client.ID]
	if !exists {
		room.mu.Unlock()
		return ErrNotInRoom
	}
	player.Client = client
	sess := room.game
	room.mu.Unlock()

	client.SetRoom(roomCode)

	room.broadcastExcept(client.ID, protocol.MustNewMessage(protocol.MsgPlayerOnline, protocol.PlayerOnlinePayload{
		PlayerID:   client.ID,
		PlayerName: client.Name,
	}))

	if sess != nil {
		sess.PlayerOnline(client.ID)
	}

	log.Printf("📶 玩家 %s 重连到房间 %s", client.Name, roomCode)
	return nil
}

// generateRoomCode 生成未占用的房间号
func (rm *RoomManager) generateRoomCode() string {
	for {
		code := make([]byte, roomCodeLength)
		for i := range code {
			code[i] = roomCodeChars[rand.IntN(len(roomCodeChars))]
		}
		if _, exists := rm.rooms[string(code)]; !exists {
			return string(code)
		}
	}
}

// cleanupLoop 定期清理等待超时的房间
func (rm *RoomManager) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rm.cleanup()
	}
}

func (rm *RoomManager) cleanup() {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	timeout := rm.server.config.Game.RoomTimeoutDuration()
	now := time.Now()

	for code, room := range rm.rooms {
		room.mu.Lock()
		expired := room.State == RoomStateWaiting && now.Sub(room.CreatedAt) > timeout
		if expired {
			room.broadcast(protocol.NewErrorMessageWithText(protocol.ErrCodeUnknown, "房间超时已关闭"))
			for _, p := range room.Players {
				p.Client.SetRoom("")
			}
		}
		room.mu.Unlock()

		if expired {
			delete(rm.rooms, code)
			log.Printf("🏠 房间 %s 超时已清理", code)
		}
	}
}

// GetActiveGamesCount 获取进行中的对局数量
func (rm *RoomManager) GetActiveGamesCount() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	count := 0
	for _, room := range rm.rooms {
		room.mu.RLock()
		if room.State == RoomStatePlaying {
			count++
		}
		room.mu.RUnlock()
	}
	return count
}

// --- Room 方法 ---

// Publish 实现会话的广播出口。会话在持锁状态下顺序调用，
// 这里不得阻塞：同一事件按每个观察者的可见性单独转换后
// 写入各自的发送缓冲。
func (r *Room) Publish(ev game.Event) {
	r.mu.RLock()
	clients := make([]*Client, 0, len(r.Players))
	for _, p := range r.Players {
		clients = append(clients, p.Client)
	}
	r.mu.RUnlock()

	for _, c := range clients {
		msg, err := protocol.EventMessage(ev, c.ID)
		if err != nil || msg == nil {
			continue
		}
		c.SendMessage(msg)
	}

	if ev.Type == game.EventRoundOver {
		go r.recordRoundResult(ev)
	}
}

// recordRoundResult 把一轮胜负落到生涯排行榜
func (r *Room) recordRoundResult(ev game.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, score := range ev.Scores {
		won := score.PlayerID == ev.WinnerID
		if err := r.server.leaderboard.RecordRoundResult(ctx, score.PlayerID, score.PlayerName, won); err != nil {
			log.Printf("记录排行榜失败 (%s): %v", score.PlayerName, err)
		}
	}
}

// Game 获取房间的权威会话
func (r *Room) Game() *game.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.game
}

// broadcast 广播消息给房间内所有玩家（调用方需持有 r.mu）
func (r *Room) broadcast(msg *protocol.Message) {
	for _, player := range r.Players {
		player.Client.SendMessage(msg)
	}
}

// broadcastLockedExcept 同 broadcast，跳过指定玩家（调用方需持有 r.mu）
func (r *Room) broadcastLockedExcept(excludeID string, msg *protocol.Message) {
	for id, player := range r.Players {
		if id != excludeID {
			player.Client.SendMessage(msg)
		}
	}
}

// broadcastExcept 自行加锁的 broadcastLockedExcept
func (r *Room) broadcastExcept(excludeID string, msg *protocol.Message) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	r.broadcastLockedExcept(excludeID, msg)
}

// PlayersInfo 获取所有玩家信息。先在房间锁内取成员快照，
// 再到锁外查会话，避免和会话广播形成锁环。
func (r *Room) PlayersInfo() []protocol.PlayerInfo {
	r.mu.RLock()
	ids := append([]string(nil), r.PlayerOrder...)
	host := r.HostID
	sess := r.game
	names := make(map[string]string, len(r.Players))
	seats := make(map[string]int, len(r.Players))
	for id, p := range r.Players {
		names[id] = p.Client.Name
		seats[id] = p.Seat
	}
	r.mu.RUnlock()

	infos := make([]protocol.PlayerInfo, 0, len(ids))
	for _, id := range ids {
		info := protocol.PlayerInfo{
			ID:     id,
			Name:   names[id],
			Seat:   seats[id],
			IsHost: host == id,
			Online: true,
		}
		if sess != nil {
			info.CardsCount = len(sess.HandOf(id))
			if history := sess.ScoreHistory(id); len(history) > 0 {
				info.Total = history[len(history)-1]
			}
		}
		if session := r.server.sessionManager.GetSession(id); session != nil {
			info.Online = session.IsOnline
		}
		infos = append(infos, info)
	}
	return infos
}

// HostIDSnapshot 当前房主
func (r *Room) HostIDSnapshot() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.HostID
}

// --- 错误定义 ---

// RoomError 房间层错误，带协议错误码
type RoomError struct {
	Code    int
	Message string
}

func (e *RoomError) Error() string {
	return e.Message
}

var (
	ErrRoomNotFound  = &RoomError{Code: protocol.ErrCodeRoomNotFound, Message: "房间不存在"}
	ErrRoomFull      = &RoomError{Code: protocol.ErrCodeRoomFull, Message: "房间已满"}
	ErrNotInRoom     = &RoomError{Code: protocol.ErrCodeNotInRoom, Message: "您不在房间中"}
	ErrGameStarted   = &RoomError{Code: protocol.ErrCodeGameStarted, Message: "对局已开始"}
	ErrNotHost       = &RoomError{Code: protocol.ErrCodeNotHost, Message: "只有房主可以执行此操作"}
	ErrTooFewPlayers = &RoomError{Code: protocol.ErrCodeTooFew, Message: "人数不足，无法开局"}
)
