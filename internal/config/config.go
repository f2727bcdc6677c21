package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 服务端配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Game     GameConfig     `yaml:"game"`
	Security SecurityConfig `yaml:"security"`
}

// ServerConfig WebSocket 服务器配置
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxConnections int    `yaml:"max_connections"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// GameConfig 游戏配置
type GameConfig struct {
	DeckSize   int `yaml:"deck_size"`   // 36 或 52
	HandSize   int `yaml:"hand_size"`   // 起手牌数
	MinPlayers int `yaml:"min_players"` // 开局最少人数
	MaxPlayers int `yaml:"max_players"` // 房间最多人数

	ReshuffleDelayMs int `yaml:"reshuffle_delay_ms"` // 回填重洗的展示延迟（毫秒）
	ChoiceTimeout    int `yaml:"choice_timeout"`     // 指定花色超时（秒）
	OfflineWait      int `yaml:"offline_wait"`       // 离线等待重连（秒）
	RoomTimeout      int `yaml:"room_timeout"`       // 房间等待超时（分钟）
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
	MessageLimit   MsgLimitConfig  `yaml:"message_limit"`
}

// RateLimitConfig 连接速率限制
type RateLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
	MaxPerMinute int `yaml:"max_per_minute"`
	BanMinutes   int `yaml:"ban_minutes"`
}

// MsgLimitConfig 消息速率限制
type MsgLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
}

// ReshuffleDelayDuration 返回回填重洗的展示延迟
func (c *GameConfig) ReshuffleDelayDuration() time.Duration {
	return time.Duration(c.ReshuffleDelayMs) * time.Millisecond
}

// ChoiceTimeoutDuration 返回指定花色超时时长
func (c *GameConfig) ChoiceTimeoutDuration() time.Duration {
	return time.Duration(c.ChoiceTimeout) * time.Second
}

// OfflineWaitDuration 返回离线等待时长
func (c *GameConfig) OfflineWaitDuration() time.Duration {
	return time.Duration(c.OfflineWait) * time.Second
}

// RoomTimeoutDuration 返回房间等待超时时长
func (c *GameConfig) RoomTimeoutDuration() time.Duration {
	return time.Duration(c.RoomTimeout) * time.Minute
}

// BanDurationTime 返回封禁时长
func (c *RateLimitConfig) BanDurationTime() time.Duration {
	return time.Duration(c.BanMinutes) * time.Minute
}

// Load 加载配置文件
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.fillDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) fillDefaults() {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 1888
	}
	if cfg.Server.MaxConnections == 0 {
		cfg.Server.MaxConnections = 1000
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Game.DeckSize == 0 {
		cfg.Game.DeckSize = 36
	}
	if cfg.Game.HandSize == 0 {
		cfg.Game.HandSize = 5
	}
	if cfg.Game.MinPlayers == 0 {
		cfg.Game.MinPlayers = 2
	}
	if cfg.Game.MaxPlayers == 0 {
		cfg.Game.MaxPlayers = 4
	}
	if cfg.Game.ReshuffleDelayMs == 0 {
		cfg.Game.ReshuffleDelayMs = 1500
	}
	if cfg.Game.ChoiceTimeout == 0 {
		cfg.Game.ChoiceTimeout = 20
	}
	if cfg.Game.OfflineWait == 0 {
		cfg.Game.OfflineWait = 30
	}
	if cfg.Game.RoomTimeout == 0 {
		cfg.Game.RoomTimeout = 10
	}
	if len(cfg.Security.AllowedOrigins) == 0 {
		cfg.Security.AllowedOrigins = []string{"*"}
	}
	if cfg.Security.RateLimit.MaxPerSecond == 0 {
		cfg.Security.RateLimit.MaxPerSecond = 5
	}
	if cfg.Security.RateLimit.MaxPerMinute == 0 {
		cfg.Security.RateLimit.MaxPerMinute = 60
	}
	if cfg.Security.RateLimit.BanMinutes == 0 {
		cfg.Security.RateLimit.BanMinutes = 5
	}
	if cfg.Security.MessageLimit.MaxPerSecond == 0 {
		cfg.Security.MessageLimit.MaxPerSecond = 20
	}
}

func (cfg *Config) validate() error {
	if cfg.Game.DeckSize != 36 && cfg.Game.DeckSize != 52 {
		return fmt.Errorf("config: deck_size 必须是 36 或 52，当前为 %d", cfg.Game.DeckSize)
	}
	if cfg.Game.MinPlayers < 2 {
		return fmt.Errorf("config: min_players 不能小于 2")
	}
	if cfg.Game.MaxPlayers < cfg.Game.MinPlayers {
		return fmt.Errorf("config: max_players 不能小于 min_players")
	}
	// 最大人数开局也要发得出牌并翻出首张弃牌
	if cfg.Game.DeckSize < cfg.Game.MaxPlayers*cfg.Game.HandSize+1 {
		return fmt.Errorf("config: %d 张牌不够 %d 人每人 %d 张",
			cfg.Game.DeckSize, cfg.Game.MaxPlayers, cfg.Game.HandSize)
	}
	return nil
}

// Default 返回默认配置
func Default() *Config {
	cfg := &Config{}
	cfg.fillDefaults()
	return cfg
}
