// Package config handles vpet-sync configuration loading and management.
package config

import "time"

// Config holds all settings.
type Config struct {
	Network NetworkConfig `yaml:"network"`
	History HistoryConfig `yaml:"history"`
	Scene   SceneConfig   `yaml:"scene"`
	Logging LoggingConfig `yaml:"logging"`
}

// Transport names.
const (
	TransportWebSocket = "websocket"
	TransportValkey    = "valkey"
)

// NetworkConfig holds scene server and update distribution settings.
type NetworkConfig struct {
	Server         string        `yaml:"server"`      // Scene server base URL
	Listen         string        `yaml:"listen"`      // Address the scene server binds
	Transport      string        `yaml:"transport"`   // websocket or valkey
	ValkeyAddr     string        `yaml:"valkey_addr"` // Used by the valkey transport
	Topic          string        `yaml:"topic"`
	QueueSize      int           `yaml:"queue_size"`
	InboxSize      int           `yaml:"inbox_size"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// HistoryConfig holds undo/redo settings.
type HistoryConfig struct {
	MaxEntries int `yaml:"max_entries"`
}

// SceneConfig holds scene file settings.
type SceneConfig struct {
	Dir string `yaml:"dir"` // Directory of section files
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
	JSON    bool   `yaml:"json"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Network: NetworkConfig{
			Server:         "http://127.0.0.1:8080",
			Listen:         ":8080",
			Transport:      TransportWebSocket,
			ValkeyAddr:     "127.0.0.1:6379",
			Topic:          "scene",
			QueueSize:      256,
			InboxSize:      1024,
			ConnectTimeout: 10 * time.Second,
		},
		History: HistoryConfig{
			MaxEntries: 100,
		},
		Scene: SceneConfig{
			Dir: "scene",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
