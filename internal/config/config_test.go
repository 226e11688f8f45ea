package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadServerDefaults(t *testing.T) {
	assert.Equal(t, ":8080", LoadServer().Addr)
}

func TestLoadServerFromEnv(t *testing.T) {
	t.Setenv("COMAZE_ADDR", ":9090")
	assert.Equal(t, ":9090", LoadServer().Addr)
}

func TestLoadClientDefaults(t *testing.T) {
	cfg := LoadClient()
	assert.Equal(t, "http://localhost:8080", cfg.ServerURL)
	assert.Equal(t, 2*time.Second, cfg.StatusPollInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.PositionPollInterval)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
}

func TestLoadClientFromEnv(t *testing.T) {
	t.Setenv("COMAZE_SERVER_URL", "http://game.local:9090")
	t.Setenv("COMAZE_POSITION_POLL_MS", "250")
	t.Setenv("COMAZE_REQUEST_TIMEOUT_MS", "garbage")

	cfg := LoadClient()
	assert.Equal(t, "http://game.local:9090", cfg.ServerURL)
	assert.Equal(t, 250*time.Millisecond, cfg.PositionPollInterval)
	// unparsable values fall back to the default
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
}
