// internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds every knob of the client. Values come from defaults, then an
// optional YAML file named by BOMBPARTY_CONFIG, then environment variables.
type Config struct {
	ServerURL string `yaml:"server_url"`
	Name      string `yaml:"name"`

	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	Countdown    time.Duration `yaml:"countdown"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	PingInterval time.Duration `yaml:"ping_interval"`

	Redis       RedisConfig `yaml:"redis"`
	DatabaseURL string      `yaml:"database_url"`
}

// RedisConfig configures the session journal. An empty Addr disables it.
type RedisConfig struct {
	Addr  string `yaml:"addr"`
	DB    int    `yaml:"db"`
	Queue string `yaml:"queue"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ServerURL:    "ws://localhost:8765/ws",
		LogLevel:     "info",
		LogFile:      "bombparty.log",
		Countdown:    25 * time.Second,
		WriteTimeout: 5 * time.Second,
		PingInterval: 30 * time.Second,
		Redis: RedisConfig{
			Queue: "bombparty_session_events",
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file and the
// environment, then validates it.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv("BOMBPARTY_CONFIG"); path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile overlays the YAML document at path onto cfg. Keys absent from the
// file keep their current value.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %q: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.ServerURL = getEnv("BOMBPARTY_SERVER_URL", cfg.ServerURL)
	cfg.Name = getEnv("BOMBPARTY_NAME", cfg.Name)
	cfg.LogLevel = getEnv("BOMBPARTY_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = getEnv("BOMBPARTY_LOG_FILE", cfg.LogFile)
	cfg.Countdown = getEnvDuration("BOMBPARTY_COUNTDOWN", cfg.Countdown)
	cfg.WriteTimeout = getEnvDuration("BOMBPARTY_WRITE_TIMEOUT", cfg.WriteTimeout)
	cfg.PingInterval = getEnvDuration("BOMBPARTY_PING_INTERVAL", cfg.PingInterval)
	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.DB = getEnvInt("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.Queue = getEnv("BOMBPARTY_JOURNAL_QUEUE", cfg.Redis.Queue)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
}

// Validate rejects values the client cannot start with.
func (c Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return fmt.Errorf("invalid server url %q: %w", c.ServerURL, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("invalid server url %q: scheme must be ws or wss", c.ServerURL)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	for name, d := range map[string]time.Duration{
		"countdown":     c.Countdown,
		"write_timeout": c.WriteTimeout,
		"ping_interval": c.PingInterval,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	return nil
}

// Level returns the parsed log level, falling back to info.
func (c Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// getEnvDuration parses values such as "25s" or "1m30s".
func getEnvDuration(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
