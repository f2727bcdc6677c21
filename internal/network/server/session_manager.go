package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// 断线后允许重连的时间窗口
const reconnectTimeout = 2 * time.Minute

// PlayerSession 连接会话：跨 WebSocket 连接保留的玩家身份。
// 断线后会话保留一段时间，凭令牌可以找回原身份。
type PlayerSession struct {
	PlayerID       string
	PlayerName     string
	ReconnectToken string
	RoomCode       string

	IsOnline       bool
	DisconnectedAt time.Time
}

// SessionManager 连接会话管理器
type SessionManager struct {
	sessions map[string]*PlayerSession // playerID -> session
	byToken  map[string]string         // token -> playerID
	mu       sync.RWMutex
}

// NewSessionManager 创建会话管理器
func NewSessionManager() *SessionManager {
	sm := &SessionManager{
		sessions: make(map[string]*PlayerSession),
		byToken:  make(map[string]string),
	}
	go sm.cleanupLoop()
	return sm
}

// CreateSession 为新连接创建会话并签发重连令牌
func (sm *SessionManager) CreateSession(playerID, playerName string) *PlayerSession {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	session := &PlayerSession{
		PlayerID:       playerID,
		PlayerName:     playerName,
		ReconnectToken: uuid.New().String(),
		IsOnline:       true,
	}
	sm.sessions[playerID] = session
	sm.byToken[session.ReconnectToken] = playerID
	return session
}

// GetSession 按玩家 ID 查找会话
func (sm *SessionManager) GetSession(playerID string) *PlayerSession {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[playerID]
}

// GetSessionByToken 按重连令牌查找会话
func (sm *SessionManager) GetSessionByToken(token string) *PlayerSession {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	id, ok := sm.byToken[token]
	if !ok {
		return nil
	}
	return sm.sessions[id]
}

// DeleteSession 删除会话
func (sm *SessionManager) DeleteSession(playerID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if session, ok := sm.sessions[playerID]; ok {
		delete(sm.byToken, session.ReconnectToken)
		delete(sm.sessions, playerID)
	}
}

// SetOffline 标记会话离线并记录断线时间
func (sm *SessionManager) SetOffline(playerID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if session, ok := sm.sessions[playerID]; ok {
		session.IsOnline = false
		session.DisconnectedAt = time.Now()
	}
}

// SetOnline 标记会话上线
func (sm *SessionManager) SetOnline(playerID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if session, ok := sm.sessions[playerID]; ok {
		session.IsOnline = true
		session.DisconnectedAt = time.Time{}
	}
}

// SetRoomCode 记录会话所在的房间
func (sm *SessionManager) SetRoomCode(playerID, code string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if session, ok := sm.sessions[playerID]; ok {
		session.RoomCode = code
	}
}

// CanReconnect 校验重连令牌：令牌和玩家 ID 都要匹配，
// 且断线时间没有超过重连窗口。
func (sm *SessionManager) CanReconnect(token, playerID string) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	id, ok := sm.byToken[token]
	if !ok || id != playerID {
		return false
	}
	session := sm.sessions[id]
	if session == nil {
		return false
	}
	if !session.IsOnline && time.Since(session.DisconnectedAt) > reconnectTimeout {
		return false
	}
	return true
}

// cleanupLoop 定期清理过期的离线会话
func (sm *SessionManager) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		sm.mu.Lock()
		now := time.Now()
		for id, session := range sm.sessions {
			if !session.IsOnline && now.Sub(session.DisconnectedAt) > reconnectTimeout {
				delete(sm.byToken, session.ReconnectToken)
				delete(sm.sessions, id)
			}
		}
		sm.mu.Unlock()
	}
}
