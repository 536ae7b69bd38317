package config

import (
	"context"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Egham-7/embedding-advisor/internal/config"
	"github.com/Egham-7/embedding-advisor/internal/models"
	"github.com/Egham-7/embedding-advisor/internal/services/advisor"
	"github.com/Egham-7/embedding-advisor/internal/services/benchmark"
	"github.com/Egham-7/embedding-advisor/pkg/builder"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

const sampleCSV = "Model,Retrieval,Classification\nbge-m3,54.6,70.1\n"

type offTopicGenerator struct{}

func (offTopicGenerator) Generate(context.Context, *models.GenerationRequest, string) (*genai.GenerateContentResponse, error) {
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
		{Content: genai.NewContentFromText(`{"is_off_topic": true, "off_topic_message": "Embeddings only."}`, genai.RoleModel)},
	}}, nil
}

func (offTopicGenerator) Provider() models.GeneratorProvider { return models.ProviderGemini }

func newTestServer(b *builder.Builder) *Server {
	s := NewServerWithBuilder(b)
	dataset := benchmark.NewDatasetFromText(sampleCSV)
	s.components = &Components{
		Dataset: dataset,
		Advisor: advisor.NewService(dataset, advisor.NewRequestBuilder(s.config.Generator), offTopicGenerator{}),
	}
	return s
}

func TestServer_Routes(t *testing.T) {
	app := newTestServer(builder.New().WithGemini("key")).NewApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req := httptest.NewRequest("POST", "/v1/recommendations", strings.NewReader(`{"description":"what's for dinner","task":"Clustering"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", "dinner-1")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "dinner-1", resp.Header.Get("X-Request-ID"))

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `"kind":"off_topic"`)
	assert.Contains(t, string(body), "Embeddings only.")

	resp, err = app.Test(httptest.NewRequest("GET", "/v1/analyses", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestServer_RateLimitFromBuilder(t *testing.T) {
	app := newTestServer(builder.New().WithGemini("key").WithRateLimit(1, time.Minute)).NewApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/tasks", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/v1/tasks", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}

func TestServer_RequestTimeout(t *testing.T) {
	s := newTestServer(builder.New().WithGemini("key").RequestTimeout(1500))
	assert.Equal(t, 1500*time.Millisecond, s.requestTimeout())

	s = newTestServer(builder.New().WithGemini("key").WithTimeout(time.Second))
	assert.Equal(t, time.Second, s.requestTimeout())

	s = newTestServer(builder.New().WithGemini("key"))
	assert.Equal(t, defaultRequestTimeout, s.requestTimeout())
}

func TestNewComponents_FileBenchmarkAndHistory(t *testing.T) {
	dir := t.TempDir()
	benchPath := filepath.Join(dir, "bench.csv")
	require.NoError(t, os.WriteFile(benchPath, []byte(sampleCSV), 0o600))

	cfg := builder.New().
		WithGenerator(models.ProviderConfig{Provider: models.ProviderGeminiREST, APIKey: "key"}).
		WithBenchmarkFile(benchPath).
		WithDatabase(models.DatabaseConfig{Type: models.SQLite, FilePath: filepath.Join(dir, "advisor.db"), RetentionDays: 30}).
		Build()
	require.NoError(t, cfg.Validate())

	comp, err := NewComponents(context.Background(), cfg)
	require.NoError(t, err)
	defer comp.Close()

	text, err := comp.Dataset.Text()
	require.NoError(t, err)
	assert.Equal(t, sampleCSV, text)
	assert.NotNil(t, comp.History)
	assert.NotNil(t, comp.Worker)
	assert.NotNil(t, comp.retention)
	assert.Nil(t, comp.Redis)
	assert.Nil(t, comp.Breaker)
	assert.Nil(t, comp.Cache)
	assert.NotNil(t, comp.Advisor)
}

func TestNewComponents_MissingBenchmarkAborts(t *testing.T) {
	cfg := builder.New().WithGemini("key").WithBenchmarkFile(filepath.Join(t.TempDir(), "missing.csv")).Build()

	comp, err := NewComponents(context.Background(), cfg)
	assert.Nil(t, comp)
	assert.ErrorContains(t, err, "failed to load benchmark dataset")
}

func TestSetupLogLevel(t *testing.T) {
	defer fiberlog.SetLevel(fiberlog.LevelInfo)

	for _, level := range []string{"trace", "DEBUG", "info", "warning", "error", "bogus"} {
		cfg := &config.Config{Server: models.ServerConfig{LogLevel: level}}
		assert.NotPanics(t, func() { SetupLogLevel(cfg) })
	}
}

func TestNewServer_NilConfigPanics(t *testing.T) {
	assert.Panics(t, func() { NewServer(nil) })
}
