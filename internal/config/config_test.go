package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Egham-7/embedding-advisor/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromFile_SubstitutesEnvVars(t *testing.T) {
	t.Setenv("ADVISOR_TEST_KEY", "secret-key")

	path := writeConfig(t, `
server:
  port: "${ADVISOR_TEST_PORT:-9090}"
generator:
  provider: Gemini
  api_key: "${ADVISOR_TEST_KEY}"
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "secret-key", cfg.Generator.APIKey)
	assert.Equal(t, models.ProviderGemini, cfg.Generator.Provider)
	assert.Equal(t, models.DefaultGeminiModel, cfg.Generator.Model)
	assert.Equal(t, models.DefaultBenchmarkURL, cfg.Benchmark.URL)
	assert.Equal(t, "*", cfg.Server.AllowedOrigins)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromFile_RejectsBadPaths(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{name: "traversal", path: "../config.yaml"},
		{name: "extension", path: "config.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(tt.path)
			assert.Error(t, err)
		})
	}
}

func TestParse_CacheDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
generator:
  api_key: k
cache:
  enabled: true
  openai_api_key: ok
  semantic_threshold: 3
`))
	require.NoError(t, err)

	require.NotNil(t, cfg.Cache)
	assert.Equal(t, models.CacheBackendMemory, cfg.Cache.Backend)
	assert.Equal(t, models.DefaultCacheCapacity, cfg.Cache.Capacity)
	assert.InDelta(t, models.DefaultSemanticThreshold, cfg.Cache.SemanticThreshold, 1e-9)
	assert.True(t, cfg.CacheEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestValidate_MissingFields(t *testing.T) {
	cfg, err := Parse([]byte(`
cache:
  enabled: true
  backend: redis
circuit_breaker:
  failure_threshold: 3
`))
	require.NoError(t, err)

	err = cfg.Validate()
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.ElementsMatch(t, []string{
		"generator.api_key",
		"cache.openai_api_key",
		"cache.redis_url",
		"redis_url",
	}, validationErr.MissingFields)
}

func TestValidate_UnknownProvider(t *testing.T) {
	cfg, err := Parse([]byte(`
generator:
  provider: cohere
  api_key: k
`))
	require.NoError(t, err)
	assert.ErrorContains(t, cfg.Validate(), "unsupported generator provider")
}

func TestLogLevelAndEnvironment(t *testing.T) {
	cfg := &Config{Server: models.ServerConfig{LogLevel: "DEBUG", Environment: "production"}}
	assert.Equal(t, "debug", cfg.GetNormalizedLogLevel())
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.HistoryEnabled())
}
