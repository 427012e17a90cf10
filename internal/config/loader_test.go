package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandEnv(t *testing.T) {
	t.Setenv("ZB_TEST_SET", "value")

	assert.Equal(t, "a: value", expandEnv("a: ${ZB_TEST_SET}"))
	assert.Equal(t, "a: fallback", expandEnv("a: ${ZB_TEST_UNSET_VAR:fallback}"))
	assert.Equal(t, "a: ", expandEnv("a: ${ZB_TEST_UNSET_VAR:}"))
	assert.Equal(t, "a: ${ZB_TEST_UNSET_VAR}", expandEnv("a: ${ZB_TEST_UNSET_VAR}"))
}

func TestLoadFromEmptyDirUsesDefaults(t *testing.T) {
	for _, key := range vendorEnvKeys {
		t.Setenv(key, "")
	}
	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Generation.MaxAttemptsPerVendor)
	assert.Equal(t, time.Second, cfg.Generation.RateLimitBackoff)
	assert.Equal(t, 5000, cfg.Synthesis.DocumentLimit)
	assert.Equal(t, "deepseek-chat", cfg.LLM.Vendor("deepseek").Model)
	assert.Empty(t, cfg.LLM.Vendor("deepseek").APIKey)
}

func TestLoadFromReadsFileAndVendorEnv(t *testing.T) {
	for _, key := range vendorEnvKeys {
		t.Setenv(key, "")
	}
	t.Setenv("MISTRAL_API_KEY", "mk")
	t.Setenv("ZB_TEST_BACKOFF", "10ms")

	dir := t.TempDir()
	content := `
generation:
  max_attempts_per_vendor: 3
  rate_limit_backoff: ${ZB_TEST_BACKOFF:1s}
routing:
  preferences:
    writing: [deepseek, gemini]
llm:
  vendors:
    gemini:
      api_key: gk
      model: gemini-custom
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Generation.MaxAttemptsPerVendor)
	assert.Equal(t, 10*time.Millisecond, cfg.Generation.RateLimitBackoff)
	assert.Equal(t, []string{"deepseek", "gemini"}, cfg.Routing.Preferences["writing"])
	assert.Equal(t, "gk", cfg.LLM.Vendor("gemini").APIKey)
	assert.Equal(t, "gemini-custom", cfg.LLM.Vendor("gemini").Model)
	assert.Equal(t, "mk", cfg.LLM.Vendor("mistral").APIKey)
	assert.Empty(t, cfg.LLM.Vendor("openai").APIKey)
}
