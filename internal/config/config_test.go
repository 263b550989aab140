package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "asset-service", cfg.App.Name)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, int32(10), cfg.Postgres.MaxConns)
	assert.True(t, cfg.Postgres.RunMigrations)
	assert.Equal(t, "0 2 1 * *", cfg.Worker.DepreciationCron)
	assert.Equal(t, 5*time.Minute, cfg.Redis.SettingsTTL())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("POSTGRES_MAX_CONNS", "25")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "0")
	t.Setenv("WORKER_ENABLED", "false")
	t.Setenv("RATE_LIMIT_LOGIN_PER_SECOND", "0.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.App.Addr())
	assert.Equal(t, int32(25), cfg.Postgres.MaxConns)
	assert.Equal(t, time.Duration(0), cfg.App.RequestTimeout())
	assert.False(t, cfg.Worker.Enabled)
	assert.InDelta(t, 0.5, cfg.RateLimit.LoginPerSecond, 0.0001)
}

func TestLoadRejectsMalformedNumbers(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")

	_, err := Load()
	assert.Error(t, err)
}
