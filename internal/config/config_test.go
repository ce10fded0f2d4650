package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("JOURNAL_DB_PATH", "/tmp/test.db")
	t.Setenv("JOURNAL_TOKENS", "ana:ana_secret,ben:ben_secret")
}

func TestLoadConfig(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "http://localhost:11434", cfg.LLMURL)
	assert.Len(t, cfg.Tokens, 2)
}

func TestLoadConfigMissingRequired(t *testing.T) {
	t.Setenv("JOURNAL_DB_PATH", "")
	t.Setenv("JOURNAL_TOKENS", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadConfigInvalidTokens(t *testing.T) {
	t.Setenv("JOURNAL_DB_PATH", "/tmp/test.db")
	t.Setenv("JOURNAL_TOKENS", "ana-no-separator")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadConfigInvalidTimeout(t *testing.T) {
	setRequired(t)
	t.Setenv("JOURNAL_LLM_TIMEOUT", "soon")

	_, err := Load()
	assert.Error(t, err)
}

func TestConfigDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "qwen2.5:7b", cfg.LLMModel)
	assert.Equal(t, "", cfg.LLMAPIKey)
	assert.Equal(t, 30*time.Second, cfg.LLMTimeout)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 60, cfg.RateLimit)
}

func TestActorFromToken(t *testing.T) {
	cfg := &Config{
		Tokens: map[string]string{
			"ana_secret": "ana",
			"ben_secret": "ben",
		},
	}

	tests := []struct {
		token     string
		wantActor string
		wantValid bool
	}{
		{"ana_secret", "ana", true},
		{"ben_secret", "ben", true},
		{"invalid", "", false},
		{"", "", false},
	}

	for _, tc := range tests {
		actor, valid := cfg.ActorFromToken(tc.token)
		assert.Equal(t, tc.wantActor, actor, "token %q", tc.token)
		assert.Equal(t, tc.wantValid, valid, "token %q", tc.token)
	}
}

func TestActors(t *testing.T) {
	cfg := &Config{
		Tokens: map[string]string{
			"t1": "ben",
			"t2": "ana",
			"t3": "ben",
		},
	}

	assert.Equal(t, []string{"ana", "ben"}, cfg.Actors())
}

func TestLoadConfigTimezone(t *testing.T) {
	setRequired(t)
	t.Setenv("JOURNAL_TIMEZONE", "Europe/Berlin")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", cfg.Location().String())

	t.Setenv("JOURNAL_TIMEZONE", "Mars/Olympus")
	_, err = Load()
	assert.Error(t, err)
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := &Config{Timezone: "not a zone"}
	assert.Equal(t, time.UTC, cfg.Location())
}
