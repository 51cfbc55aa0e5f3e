package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{
		"TRANSFERDESK_ADDR", "ENVIRONMENT", "LOG_LEVEL", "LOG_FORMAT", "JWT_SIGNING_KEY",
		"DATABASE_URL", "REDIS_URL", "REDIS_CACHE_TTL", "KAFKA_BROKERS", "AUDIT_TOPIC",
		"RATE_LIMIT_READ", "RATE_LIMIT_WRITE", "RATE_LIMIT_WINDOW",
	} {
		t.Setenv(key, "")
	}

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, devSigningKey, cfg.JWTSigningKey)
	assert.Empty(t, cfg.Database.URL)
	assert.Equal(t, 10*time.Minute, cfg.Redis.CacheTTL)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "transferdesk.audit", cfg.Kafka.AuditTopic)
	assert.Equal(t, RateLimitConfig{ReadLimit: 300, WriteLimit: 60, Window: time.Minute}, cfg.RateLimit)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("REDIS_CACHE_TTL", "90s")
	t.Setenv("KAFKA_BROKERS", " kafka-1:9092, ,kafka-2:9092")
	t.Setenv("RATE_LIMIT_WRITE", "0")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 90*time.Second, cfg.Redis.CacheTTL)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Zero(t, cfg.RateLimit.WriteLimit)
}

func TestFromEnvErrors(t *testing.T) {
	t.Run("bad log level", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "loud")
		_, err := FromEnv()
		require.Error(t, err)
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("REDIS_CACHE_TTL", "ten minutes")
		_, err := FromEnv()
		require.Error(t, err)
	})

	t.Run("bad rate limit", func(t *testing.T) {
		t.Setenv("RATE_LIMIT_READ", "many")
		_, err := FromEnv()
		require.Error(t, err)
	})

	t.Run("production requires signing key", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "production")
		t.Setenv("JWT_SIGNING_KEY", "")
		_, err := FromEnv()
		require.Error(t, err)
	})
}
