package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"BOMBPARTY_CONFIG", "BOMBPARTY_SERVER_URL", "BOMBPARTY_NAME", "BOMBPARTY_LOG_LEVEL",
	"BOMBPARTY_LOG_FILE", "BOMBPARTY_COUNTDOWN", "BOMBPARTY_WRITE_TIMEOUT",
	"BOMBPARTY_PING_INTERVAL", "REDIS_ADDR", "REDIS_DB", "BOMBPARTY_JOURNAL_QUEUE", "DATABASE_URL",
}

// clearEnv blanks every key Load reads so a developer's .env cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "ws://localhost:8765/ws", cfg.ServerURL)
	assert.Equal(t, 25*time.Second, cfg.Countdown)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOMBPARTY_SERVER_URL", "wss://bomb.example/ws")
	t.Setenv("BOMBPARTY_NAME", "Ana")
	t.Setenv("BOMBPARTY_COUNTDOWN", "10s")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("DATABASE_URL", "postgres://localhost/bomb")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "wss://bomb.example/ws", cfg.ServerURL)
	assert.Equal(t, "Ana", cfg.Name)
	assert.Equal(t, 10*time.Second, cfg.Countdown)
	assert.Equal(t, RedisConfig{Addr: "localhost:6379", DB: 3, Queue: "bombparty_session_events"}, cfg.Redis)
	assert.Equal(t, "postgres://localhost/bomb", cfg.DatabaseURL)
}

func TestLoadBadEnvFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("REDIS_DB", "three")
	t.Setenv("BOMBPARTY_PING_INTERVAL", "often")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Redis.DB)
	assert.Equal(t, 30*time.Second, cfg.PingInterval)
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bombparty.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server_url: ws://game.local:9000/ws
name: Bo
countdown: 20s
log_level: debug
redis:
  addr: redis:6379
  queue: events
`), 0o600))
	t.Setenv("BOMBPARTY_CONFIG", path)
	t.Setenv("BOMBPARTY_NAME", "Cy")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "ws://game.local:9000/ws", cfg.ServerURL)
	assert.Equal(t, "Cy", cfg.Name, "env wins over file")
	assert.Equal(t, 20*time.Second, cfg.Countdown)
	assert.Equal(t, 5*time.Second, cfg.WriteTimeout, "absent keys keep defaults")
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "events", cfg.Redis.Queue)
	assert.Equal(t, logrus.DebugLevel, cfg.Level())
}

func TestLoadFileErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOMBPARTY_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("countdown: [1, 2"), 0o600))
	t.Setenv("BOMBPARTY_CONFIG", path)
	_, err = Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"http scheme":    func(c *Config) { c.ServerURL = "http://localhost:8765/ws" },
		"bad url":        func(c *Config) { c.ServerURL = "ws://[::1" },
		"log level":      func(c *Config) { c.LogLevel = "loud" },
		"zero countdown": func(c *Config) { c.Countdown = 0 },
		"negative ping":  func(c *Config) { c.PingInterval = -time.Second },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, Default().Validate())
}
