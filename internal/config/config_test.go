package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "smtp", cfg.Mail.Provider)
	assert.Equal(t, "kudos_session", cfg.Session.CookieName)
	assert.Equal(t, 168*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "kudos.activity", cfg.Kafka.Topic)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, 10, cfg.RateLimit.RPS)
}

func TestLoadMissingUserFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load("/does/not/exist.yaml")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
}
