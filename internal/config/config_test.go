package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/exam_prep")
		for _, key := range []string{"PORT", "LOG_LEVEL", "EVENT_BROKER", "TEST_CACHE_TTL", "DB_AUTO_MIGRATE"} {
			t.Setenv(key, "")
		}

		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
		assert.Equal(t, BrokerNone, cfg.Events.Broker)
		assert.Equal(t, 5*time.Minute, cfg.TestCacheTTL)
		assert.True(t, cfg.Database.AutoMigrate)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/exam_prep")
		t.Setenv("PORT", "9090")
		t.Setenv("LOG_LEVEL", "debug")
		t.Setenv("EVENT_BROKER", "Kafka")
		t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
		t.Setenv("TEST_CACHE_TTL", "30s")

		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, "9090", cfg.Port)
		assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
		assert.Equal(t, BrokerKafka, cfg.Events.Broker)
		assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Events.KafkaBrokers)
		assert.Equal(t, 30*time.Second, cfg.TestCacheTTL)
	})

	t.Run("missing database url", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")

		_, err := LoadConfig()
		assert.Error(t, err)
	})

	t.Run("unknown broker", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/exam_prep")
		t.Setenv("EVENT_BROKER", "nats")

		_, err := LoadConfig()
		assert.Error(t, err)
	})
}
