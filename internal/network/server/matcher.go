package server

import (
	"log"
	"sync"
	"time"

	"github.com/palemoky/crazy-eights/internal/network/protocol"
)

// Matcher 匹配系统。队列凑满一桌（配置的最少人数）即自动开房开局。
type Matcher struct {
	server *Server
	queue  []*Client
	mu     sync.Mutex
}

// NewMatcher 创建匹配器
func NewMatcher(s *Server) *Matcher {
	return &Matcher{
		server: s,
		queue:  make([]*Client, 0),
	}
}

// AddToQueue 加入匹配队列
func (m *Matcher) AddToQueue(client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// 检查是否已在队列中
	for _, c := range m.queue {
		if c.ID == client.ID {
			return
		}
	}

	m.queue = append(m.queue, client)
	log.Printf("🔍 玩家 %s 加入匹配队列，当前队列长度: %d", client.Name, len(m.queue))

	m.tryMatch()
}

// RemoveFromQueue 从匹配队列移除
func (m *Matcher) RemoveFromQueue(client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, c := range m.queue {
		if c.ID == client.ID {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			log.Printf("🔍 玩家 %s 离开匹配队列", client.Name)
			return
		}
	}
}

// tryMatch 尝试匹配，调用方需持有 m.mu
func (m *Matcher) tryMatch() {
	tableSize := m.server.config.Game.MinPlayers
	if len(m.queue) < tableSize {
		return
	}

	players := make([]*Client, tableSize)
	copy(players, m.queue[:tableSize])
	m.queue = m.queue[tableSize:]

	go m.createMatchRoom(players)
}

// createMatchRoom 创建匹配房间并自动开局
func (m *Matcher) createMatchRoom(players []*Client) {
	room, err := m.server.roomManager.CreateRoom(players[0])
	if err != nil {
		log.Printf("匹配创建房间失败: %v", err)
		// 将玩家放回队列
		m.mu.Lock()
		m.queue = append(players, m.queue...)
		m.mu.Unlock()
		return
	}

	for _, client := range players[1:] {
		if _, err := m.server.roomManager.JoinRoom(client, room.Code); err != nil {
			log.Printf("匹配加入房间失败: %v", err)
		}
	}

	log.Printf("🎮 匹配成功！房间 %s，%d 名玩家", room.Code, len(players))

	// 短暂延迟确保房间状态同步
	time.Sleep(100 * time.Millisecond)

	allPlayers := room.PlayersInfo()
	hostID := room.HostIDSnapshot()
	for _, client := range players {
		var self protocol.PlayerInfo
		for _, p := range allPlayers {
			if p.ID == client.ID {
				self = p
				break
			}
		}
		client.SendMessage(protocol.MustNewMessage(protocol.MsgMatchFound, protocol.RoomJoinedPayload{
			RoomCode: room.Code,
			Player:   self,
			Players:  allPlayers,
			HostID:   hostID,
		}))
	}

	// 匹配局无需房主手动开局
	if err := m.server.roomManager.StartGame(players[0]); err != nil {
		log.Printf("匹配开局失败: %v", err)
	}
}

// GetQueueLength 获取队列长度
func (m *Matcher) GetQueueLength() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}
