package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8081", cfg.HTTPAddr)
	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, 1200*time.Millisecond, cfg.SubmitDelay)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, 4, cfg.AnalyticsWorkers)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,")
	t.Setenv("SUBMIT_DELAY", "0s")
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Zero(t, cfg.SubmitDelay)
	assert.Equal(t, "postgres", cfg.StoreDriver)
	assert.InDelta(t, 2.5, cfg.RateLimitRPS, 0.001)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"store driver":  {"STORE_DRIVER": "mysql"},
		"disk":          {"STORAGE_DISK": "ftp"},
		"s3 bucket":     {"STORAGE_DISK": "s3"},
		"prod secret":   {"APP_ENV": "production"},
		"negative wait": {"SUBMIT_DELAY": "-1s"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
