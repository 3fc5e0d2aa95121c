package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{
		"PORT", "REDIS_ADDR", "REDIS_DB", "HISTORIAN_QUEUE_NAME", "TOKEN_EXPIRE_TIME",
		"JOIN_GRACE", "DISCONNECT_GRACE", "RATE_LIMIT_BURST", "RATE_LIMIT_INTERVAL",
		"POSTGRES_USER", "POSTGRES_PASSWORD", "PG_HOST", "PG_PORT", "PG_DATABASE",
		"SESSION_IDLE_TIMEOUT",
	} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, "bluff_actions", cfg.QueueName)
	assert.Equal(t, 30*time.Second, cfg.JoinGrace)
	assert.Equal(t, 60*time.Second, cfg.DisconnectGrace)
	assert.Equal(t, 10, cfg.RateLimitBurst)
	assert.Equal(t, time.Second, cfg.RateLimitInterval)
	assert.Zero(t, cfg.TokenTTL)
	assert.Equal(t, time.Hour, cfg.SessionIdleTimeout)
	assert.Equal(t, "postgres://postgres:@localhost:5432/bluff", cfg.PostgresDSN())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("JOIN_GRACE", "5s")
	t.Setenv("RATE_LIMIT_BURST", "3")
	t.Setenv("TOKEN_EXPIRE_TIME", "24h")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.JoinGrace)
	assert.Equal(t, 3, cfg.RateLimitBurst)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 24*time.Hour, cfg.SessionIdleTimeout, "idle timeout follows the token lifetime")
	assert.Equal(t, 5*time.Second, cfg.LobbyOptions().JoinGrace)

	t.Setenv("TOKEN_EXPIRE_TIME", "never")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Zero(t, cfg.TokenTTL)
}

func TestLoadRejectsGarbage(t *testing.T) {
	t.Setenv("RATE_LIMIT_BURST", "lots")
	t.Setenv("DESTROY_GRACE", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RATE_LIMIT_BURST")
	assert.Contains(t, err.Error(), "DESTROY_GRACE")
}
