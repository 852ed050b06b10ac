package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYAML = `
server:
  port: 9191
  mode: release
database:
  user: dealsense
  password: secret
research:
  openai_api_key: sk-file
  perplexity_api_key: pplx-file
  google_search_api_key: goog-file
  google_search_engine_id: cx-file
enrichment:
  concurrency: 5
`

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_FromFile(t *testing.T) {
	cfg, err := Load(writeTempConfig(t, testYAML))
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, "sk-file", cfg.Research.OpenAIAPIKey)
	assert.Equal(t, 5, cfg.Enrichment.Concurrency)

	// Unset fields fall back to platform defaults.
	assert.Equal(t, DefaultDBName, cfg.Database.DBName)
	assert.Equal(t, DefaultPackTimeout, cfg.Enrichment.PackTimeout)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("DEALSENSE_SERVER_PORT", "7777")
	t.Setenv("DEALSENSE_RESEARCH_OPENAI_API_KEY", "sk-env")

	cfg, err := Load(writeTempConfig(t, testYAML))
	require.NoError(t, err)

	assert.Equal(t, 7777, cfg.Server.Port)
	assert.Equal(t, "sk-env", cfg.Research.OpenAIAPIKey)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_InvalidConfigFailsValidation(t *testing.T) {
	// Missing every research API key: loading must fail rather than defer the
	// problem to the first enrichment call.
	yaml := `
database:
  user: dealsense
`
	_, err := Load(writeTempConfig(t, yaml))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
	assert.Contains(t, err.Error(), "research.openai_api_key")
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DEALSENSE_DATABASE_USER", "envuser")
	t.Setenv("DEALSENSE_RESEARCH_OPENAI_API_KEY", "sk-env")
	t.Setenv("DEALSENSE_RESEARCH_PERPLEXITY_API_KEY", "pplx-env")
	t.Setenv("DEALSENSE_RESEARCH_GOOGLE_SEARCH_API_KEY", "goog-env")
	t.Setenv("DEALSENSE_RESEARCH_GOOGLE_SEARCH_ENGINE_ID", "cx-env")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "envuser", cfg.Database.User)
	assert.Equal(t, "sk-env", cfg.Research.OpenAIAPIKey)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
}

func TestMustLoad_PanicsOnError(t *testing.T) {
	assert.Panics(t, func() { MustLoad("/nonexistent/config.yaml") })
}
