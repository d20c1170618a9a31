package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{"BOMBPARTY_CONFIG", "BOMBPARTY_SERVER_URL", "BOMBPARTY_LOG_LEVEL", "DATABASE_URL", "REDIS_ADDR"} {
		t.Setenv(key, "")
	}
}

func TestRealMainHistoryErrorIsLogged(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "bombparty.log")
	clearEnv(t)
	t.Setenv("BOMBPARTY_LOG_FILE", logFile)

	code := realMain([]string{"-name", "Ana", "-history", "3"})
	assert.Equal(t, 1, code)

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "DATABASE_URL is not set")
}

func TestRealMainRejectsBadInput(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOMBPARTY_LOG_FILE", filepath.Join(t.TempDir(), "bombparty.log"))

	assert.Equal(t, 2, realMain([]string{"-nope"}))
	assert.Equal(t, 1, realMain([]string{"-url", "http://localhost:8765/ws"}))
}
