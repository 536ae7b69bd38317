package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Egham-7/embedding-advisor/internal/models"
	"github.com/Egham-7/embedding-advisor/internal/services"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"google.golang.org/genai"
)

// RESTGenerator posts the contents/systemInstruction/generationConfig payload
// straight to the generateContent endpoint
type RESTGenerator struct {
	cfg    models.ProviderConfig
	client *services.Client
}

// NewRESTGenerator creates a generator that talks HTTP directly
func NewRESTGenerator(cfg models.ProviderConfig) *RESTGenerator {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = models.DefaultGeminiBaseURL
	}

	clientConfig := services.DefaultClientConfig(baseURL)
	if cfg.TimeoutMs > 0 {
		clientConfig.Timeout = time.Duration(cfg.TimeoutMs) * time.Millisecond
	}

	client := services.NewClientWithConfig(clientConfig)
	for key, value := range cfg.Headers {
		client.Headers[key] = value
	}

	return &RESTGenerator{cfg: cfg, client: client}
}

func (g *RESTGenerator) Provider() models.GeneratorProvider {
	return models.ProviderGeminiREST
}

// Generate sends one request. Non-2xx answers become transport errors with
// the upstream status and body and are never parsed.
func (g *RESTGenerator) Generate(ctx context.Context, req *models.GenerationRequest, requestID string) (*genai.GenerateContentResponse, error) {
	path := fmt.Sprintf("/v1beta/models/%s:generateContent", url.PathEscape(req.Model))

	fiberlog.Infof("[%s] Making Gemini REST request - model: %s", requestID, req.Model)

	startTime := time.Now()
	var body []byte
	err := g.client.Post(ctx, path, req.Payload(), &body, &services.RequestOptions{
		QueryParams:  map[string]string{"key": g.cfg.APIKey},
		ResponseType: "binary",
	})
	duration := time.Since(startTime)

	if err != nil {
		fiberlog.Errorf("[%s] Gemini REST request failed after %v: %v", requestID, duration, err)
		return nil, transportError("Gemini", err)
	}

	var resp genai.GenerateContentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		fiberlog.Errorf("[%s] Gemini REST response is not a JSON envelope: %v", requestID, err)
		return nil, models.NewMalformedEnvelopeError("response body is not a JSON envelope")
	}

	fiberlog.Infof("[%s] Gemini REST request completed successfully in %v", requestID, duration)
	return &resp, nil
}
