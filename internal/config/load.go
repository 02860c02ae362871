package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "VPET_"

// Load loads configuration with priority: defaults < file < .env and
// environment < flags. flags may be nil.
func Load(flags *Flags) (*Config, error) {
	// Start with defaults
	cfg := Default()

	// Try to load from file (explicit path takes priority)
	var configPath string
	if flags != nil {
		configPath = flags.Config
	}
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	lookup, err := envLookup(".env")
	if err != nil {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	if err := applyEnv(cfg, lookup); err != nil {
		return nil, err
	}

	// Apply CLI flags (highest priority)
	if flags != nil {
		flags.apply(cfg)
	}

	return cfg, nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./vpet.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "VPetSync")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "VPetSync")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "vpet-sync")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "vpet-sync")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// envLookup returns a lookup over the process environment that falls back
// to the variables of the dotenv file at path, if it exists.
func envLookup(path string) (func(string) (string, bool), error) {
	dotenv := map[string]string{}
	if _, err := os.Stat(path); err == nil {
		m, err := godotenv.Read(path)
		if err != nil {
			return nil, err
		}
		dotenv = m
	}
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}, nil
}

// applyEnv applies VPET_* overrides.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = n
		return nil
	}

	str("SERVER", &cfg.Network.Server)
	str("LISTEN", &cfg.Network.Listen)
	str("TRANSPORT", &cfg.Network.Transport)
	str("VALKEY_ADDR", &cfg.Network.ValkeyAddr)
	str("TOPIC", &cfg.Network.Topic)
	str("SCENE_DIR", &cfg.Scene.Dir)
	str("LOG_LEVEL", &cfg.Logging.Level)
	str("LOG_FILE", &cfg.Logging.LogFile)

	if err := num("QUEUE_SIZE", &cfg.Network.QueueSize); err != nil {
		return err
	}
	if err := num("INBOX_SIZE", &cfg.Network.InboxSize); err != nil {
		return err
	}
	if err := num("HISTORY_MAX", &cfg.History.MaxEntries); err != nil {
		return err
	}
	if v, ok := lookup(EnvPrefix + "CONNECT_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sCONNECT_TIMEOUT: %w", EnvPrefix, err)
		}
		cfg.Network.ConnectTimeout = d
	}
	return nil
}
