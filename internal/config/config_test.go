package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_USER", "ngo")
	t.Setenv("DB_PASSWORD", "pw")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, 60*time.Second, cfg.CacheTTL)
	assert.Equal(t, "SOL", cfg.NativeCurrency)
	assert.Equal(t, "ngo:pw@tcp(127.0.0.1:3306)/ngo_tracker?parseTime=true", cfg.DSN())
	assert.Empty(t, cfg.AMQPURL)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("APP_PORT", "9000")
	t.Setenv("IS_PROD", "true")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("CACHE_TTL", "5m")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.AppPort)
	assert.True(t, cfg.IsProd)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
}
