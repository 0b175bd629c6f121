package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_PORT", "8080")
	t.Setenv("STATE_BACKEND", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StateMemory, cfg.StateBackend)
	assert.Equal(t, 15*time.Second, cfg.APITimeout)
	assert.Equal(t, "http://localhost:8000/api/v1", cfg.APIBaseURL)
	assert.Equal(t, 5, cfg.RateLimit.Capacity)
	assert.False(t, cfg.EventsEnabled)
}

func TestLoadMySQLRequiresDB(t *testing.T) {
	t.Setenv("APP_PORT", "")
	t.Setenv("STATE_BACKEND", "MySQL")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_NAME", "")

	_, err := Load()
	require.Error(t, err)
	for _, k := range []string{"APP_PORT", "DB_USER", "DB_HOST", "DB_NAME"} {
		assert.Contains(t, err.Error(), k)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("APP_PORT", "8080")
	t.Setenv("STATE_BACKEND", "etcd")
	_, err := Load()
	assert.ErrorContains(t, err, "etcd")
}

func TestRateLimitOverrides(t *testing.T) {
	t.Setenv("RATE_LIMIT_BURST", "20")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "3s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	t.Setenv("RATE_LIMIT_ENABLED", "off")

	rl := LoadRateLimitConfig()
	assert.False(t, rl.Enabled)
	assert.Equal(t, 20, rl.Capacity)
	assert.Equal(t, 3*time.Second, rl.RefillInterval)
	assert.Equal(t, 15*time.Second, rl.TTL, "ttl never shorter than five refill intervals")
}

func TestRedisAddr(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache:6380")
	t.Setenv("REDIS_HOST", "")
	assert.Equal(t, "cache:6380", loadRedisConfig().Addr)

	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6379")
	assert.Equal(t, "redis:6379", loadRedisConfig().Addr)
}
