package llm

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromReader(t *testing.T) {
	t.Setenv(envAPIKey, "override-key")
	t.Setenv(envTimeout, "45s")
	t.Setenv(envRetries, "5")

	data := `
base_url: "https://example.com"
api_key: "${OPENAI_API_KEY}"
model: "gpt-4"
timeout: "30s"
max_retries: 2
max_tokens: 700
log_level: "debug"
`

	cfg, err := LoadConfigFromReader(strings.NewReader(data))
	require.NoError(t, err)

	require.Equal(t, "https://example.com", cfg.BaseURL)
	require.Equal(t, "override-key", cfg.APIKey)
	require.Equal(t, "gpt-4", cfg.Model)
	require.Equal(t, 5, cfg.MaxRetries)
	require.Equal(t, 700, cfg.MaxTokens)
	require.Equal(t, 45*time.Second, cfg.Timeout)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv(envAPIKey, "")
	t.Setenv(envTimeout, "")
	t.Setenv(envRetries, "")

	cfg, err := LoadConfigFromReader(strings.NewReader(`api_key: "k"`))
	require.NoError(t, err)

	require.Equal(t, defaultBaseURL, cfg.BaseURL)
	require.Equal(t, defaultModel, cfg.Model)
	require.Equal(t, defaultTimeout, cfg.Timeout)
	require.Equal(t, defaultRetries, cfg.MaxRetries)
	require.Equal(t, defaultMaxTokens, cfg.MaxTokens)
}

func TestLoadConfigMissingKey(t *testing.T) {
	t.Setenv(envAPIKey, "")

	_, err := LoadConfigFromReader(strings.NewReader(`model: "gpt-4"`))
	require.Error(t, err)
}

func TestLoadConfigInvalidTimeout(t *testing.T) {
	t.Setenv(envAPIKey, "k")
	t.Setenv(envTimeout, "")

	_, err := LoadConfigFromReader(strings.NewReader(`
api_key: "k"
timeout: "soon"
`))
	require.Error(t, err)
}
