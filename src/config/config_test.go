package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:5000", cfg.Addr())
	assert.Equal(t, "aura-asteria-en", cfg.DeepgramVoice)
	assert.Equal(t, "open_ai", cfg.DeepgramThinkProvider)
	assert.Equal(t, 20, cfg.FrameMultiple)
	assert.Equal(t, "primary", cfg.CalendarID)
	assert.Equal(t, "America/New_York", cfg.CalendarTimeZone)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("DEEPGRAM_API_KEY", "dg-secret")
	t.Setenv("PORT", "8080")
	t.Setenv("DEEPGRAM_VOICE", "aura-orion-en")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "dg-secret", cfg.DeepgramAPIKey)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "aura-orion-en", cfg.DeepgramVoice)
}

func TestValidate(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	// Missing API key is the usual misconfiguration.
	assert.Error(t, cfg.Validate())

	cfg.DeepgramAPIKey = "dg-secret"
	assert.NoError(t, cfg.Validate())

	cfg.Port = -1
	assert.Error(t, cfg.Validate())

	cfg.Port = 5000
	cfg.FrameMultiple = 0
	assert.Error(t, cfg.Validate())
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}
