package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("HTTP_PORT", "")
	t.Setenv("REPORT_CACHE_TTL", "")

	cfg := Load()
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "8081", cfg.HTTPPort)
	assert.Equal(t, 10*time.Minute, cfg.ReportCacheTTL)
	assert.False(t, cfg.Production())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("RATE_LIMIT_PER_MIN", "30")
	t.Setenv("MIGRATE_ON_START", "false")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")

	cfg := Load()
	assert.True(t, cfg.Production())
	assert.Equal(t, 30, cfg.RateLimitPerMin)
	assert.False(t, cfg.MigrateOnStart)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("RATE_LIMIT_PER_MIN", "lots")
	t.Setenv("REPORT_CACHE_TTL", "soon")
	t.Setenv("MIGRATE_ON_START", "maybe")

	assert.Equal(t, 120, intEnv("RATE_LIMIT_PER_MIN", 120))
	assert.Equal(t, time.Minute, durationEnv("REPORT_CACHE_TTL", time.Minute))
	assert.True(t, boolEnv("MIGRATE_ON_START", true))
}
