package advisor

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"time"

	"github.com/Egham-7/embedding-advisor/internal/models"
	"github.com/Egham-7/embedding-advisor/internal/utils/clientcache"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"google.golang.org/genai"
)

// Generator performs the single generation call of an analysis
type Generator interface {
	Generate(ctx context.Context, req *models.GenerationRequest, requestID string) (*genai.GenerateContentResponse, error)
	Provider() models.GeneratorProvider
}

// NewGenerator builds the generator selected by configuration
func NewGenerator(cfg models.ProviderConfig) (Generator, error) {
	switch cfg.ProviderName() {
	case models.ProviderGemini:
		return NewGeminiGenerator(cfg), nil
	case models.ProviderGeminiREST:
		return NewRESTGenerator(cfg), nil
	case models.ProviderOpenAI:
		return NewOpenAIGenerator(cfg), nil
	case models.ProviderAnthropic:
		return NewAnthropicGenerator(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported generator provider %q", cfg.Provider)
	}
}

// GeminiGenerator calls generateContent through the genai SDK
type GeminiGenerator struct {
	cfg         models.ProviderConfig
	clientCache *clientcache.Cache[*genai.Client]
}

// NewGeminiGenerator creates a generator backed by the genai SDK
func NewGeminiGenerator(cfg models.ProviderConfig) *GeminiGenerator {
	return &GeminiGenerator{
		cfg:         cfg,
		clientCache: clientcache.NewCache[*genai.Client](),
	}
}

func (g *GeminiGenerator) Provider() models.GeneratorProvider {
	return models.ProviderGemini
}

// configHash identifies a client configuration without keeping the key in memory
func configHash(cfg models.ProviderConfig) (string, error) {
	type configForHash struct {
		BaseURL    string
		APIKeyHash string
		TimeoutMs  int
		Headers    map[string]string
	}

	apiKeyHash := sha256.Sum256([]byte(cfg.APIKey))
	configJSON, err := json.Marshal(configForHash{
		BaseURL:    cfg.BaseURL,
		APIKeyHash: fmt.Sprintf("%x", apiKeyHash[:8]),
		TimeoutMs:  cfg.TimeoutMs,
		Headers:    cfg.Headers,
	})
	if err != nil {
		return "", err
	}

	hash := sha256.Sum256(configJSON)
	return fmt.Sprintf("%x", hash[:16]), nil
}

func (g *GeminiGenerator) client(ctx context.Context) (*genai.Client, error) {
	hash, err := configHash(g.cfg)
	if err != nil {
		fiberlog.Warnf("Failed to generate config hash: %v, creating new client without caching", err)
		return g.buildClient(ctx)
	}

	return g.clientCache.GetOrCreate(hash, func() (*genai.Client, error) {
		fiberlog.Debugf("Creating new Gemini client (config hash: %s)", hash[:8])
		return g.buildClient(ctx)
	})
}

func (g *GeminiGenerator) buildClient(ctx context.Context) (*genai.Client, error) {
	httpOptions := genai.HTTPOptions{BaseURL: g.cfg.BaseURL}
	if len(g.cfg.Headers) > 0 {
		httpOptions.Headers = http.Header{}
		for key, value := range maps.All(g.cfg.Headers) {
			httpOptions.Headers.Set(key, value)
		}
	}
	if g.cfg.TimeoutMs > 0 {
		httpOptions.Timeout = genai.Ptr(time.Duration(g.cfg.TimeoutMs) * time.Millisecond)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      g.cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: httpOptions,
	})
	if err != nil {
		return nil, models.NewInternalError("failed to create Gemini client", err)
	}
	return client, nil
}

// Generate sends one non-streaming request
func (g *GeminiGenerator) Generate(ctx context.Context, req *models.GenerationRequest, requestID string) (*genai.GenerateContentResponse, error) {
	client, err := g.client(ctx)
	if err != nil {
		return nil, err
	}

	fiberlog.Infof("[%s] Making Gemini API request - model: %s", requestID, req.Model)

	startTime := time.Now()
	resp, err := client.Models.GenerateContent(ctx, req.Model, req.Contents, req.Config)
	duration := time.Since(startTime)

	if err != nil {
		fiberlog.Errorf("[%s] Gemini API request failed after %v: %v", requestID, duration, err)
		return nil, transportError(string(models.ProviderGemini), err)
	}

	fiberlog.Infof("[%s] Gemini API request completed successfully in %v", requestID, duration)
	return resp, nil
}
