package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/chat?sslmode=disable")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8083", cfg.Port)
	assert.Equal(t, 300, cfg.MaxMessageLength)
	assert.Equal(t, 256, cfg.SendBufferSize)
	assert.False(t, cfg.RejectUnauthorized)
	assert.Equal(t, "stream-chat-service", cfg.ServiceName)
}

func TestLoadRequiresDSN(t *testing.T) {
	t.Setenv("DB_DSN", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://db/chat")
	t.Setenv("MAX_MESSAGE_LENGTH", "500")
	t.Setenv("REJECT_UNAUTHORIZED", "true")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.MaxMessageLength)
	assert.True(t, cfg.RejectUnauthorized)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := Config{DatabaseDSN: "postgres://db/chat", MaxMessageLength: 300, SendBufferSize: 256, LogFormat: "json"}
	require.NoError(t, base.Validate())

	bad := base
	bad.MaxMessageLength = 0
	assert.Error(t, bad.Validate())

	bad = base
	bad.LogFormat = "xml"
	assert.Error(t, bad.Validate())

	bad = base
	bad.ModerationTerms = "nonsense"
	assert.Error(t, bad.Validate())
}

func TestModerationTermMap(t *testing.T) {
	cfg := Config{ModerationTerms: "Spam: buy now | free coins ; toxic:idiot;;"}

	terms, err := cfg.ModerationTermMap()
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"spam":  {"buy now", "free coins"},
		"toxic": {"idiot"},
	}, terms)
}
