package advisor

import (
	"context"
	"maps"
	"net/http"
	"time"

	"github.com/Egham-7/embedding-advisor/internal/models"
	"github.com/Egham-7/embedding-advisor/internal/utils/clientcache"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/openai/openai-go/v2"
	openaiOption "github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
	"google.golang.org/genai"
)

const responseFormatName = "embedding_recommendations"

// OpenAIGenerator asks an OpenAI-compatible chat completions API for the same
// structured reply and wraps it in a Gemini-shaped envelope so normalization
// does not depend on the provider
type OpenAIGenerator struct {
	cfg         models.ProviderConfig
	clientCache *clientcache.Cache[*openai.Client]
}

// NewOpenAIGenerator creates a generator backed by openai-go
func NewOpenAIGenerator(cfg models.ProviderConfig) *OpenAIGenerator {
	return &OpenAIGenerator{
		cfg:         cfg,
		clientCache: clientcache.NewCache[*openai.Client](),
	}
}

func (g *OpenAIGenerator) Provider() models.GeneratorProvider {
	return models.ProviderOpenAI
}

func (g *OpenAIGenerator) client() (*openai.Client, error) {
	hash, err := configHash(g.cfg)
	if err != nil {
		fiberlog.Warnf("Failed to generate config hash: %v, creating new client without caching", err)
		return g.buildClient(), nil
	}
	return g.clientCache.GetOrCreate(hash, func() (*openai.Client, error) {
		fiberlog.Debugf("Creating new OpenAI client (config hash: %s)", hash[:8])
		return g.buildClient(), nil
	})
}

func (g *OpenAIGenerator) buildClient() *openai.Client {
	opts := []openaiOption.RequestOption{
		openaiOption.WithAPIKey(g.cfg.APIKey),
		openaiOption.WithMaxRetries(0),
	}
	if g.cfg.BaseURL != "" {
		opts = append(opts, openaiOption.WithBaseURL(g.cfg.BaseURL))
	}
	for key, value := range g.cfg.Headers {
		opts = append(opts, openaiOption.WithHeader(key, value))
	}
	if g.cfg.TimeoutMs > 0 {
		httpClient := &http.Client{Timeout: time.Duration(g.cfg.TimeoutMs) * time.Millisecond}
		opts = append(opts, openaiOption.WithHTTPClient(httpClient))
	}

	client := openai.NewClient(opts...)
	return &client
}

// Generate sends one chat completion request
func (g *OpenAIGenerator) Generate(ctx context.Context, req *models.GenerationRequest, requestID string) (*genai.GenerateContentResponse, error) {
	client, err := g.client()
	if err != nil {
		return nil, err
	}

	params, err := chatParams(req)
	if err != nil {
		return nil, models.NewInternalError("failed to build chat completion request", err)
	}

	fiberlog.Infof("[%s] Making OpenAI API request - model: %s", requestID, req.Model)

	startTime := time.Now()
	completion, err := client.Chat.Completions.New(ctx, params)
	duration := time.Since(startTime)

	if err != nil {
		fiberlog.Errorf("[%s] OpenAI API request failed after %v: %v", requestID, duration, err)
		return nil, transportError(string(models.ProviderOpenAI), err)
	}

	fiberlog.Infof("[%s] OpenAI API request completed successfully in %v", requestID, duration)
	return envelopeFromCompletion(completion), nil
}

func chatParams(req *models.GenerationRequest) (openai.ChatCompletionNewParams, error) {
	doc, err := JSONSchema()
	if err != nil {
		return openai.ChatCompletionNewParams{}, err
	}
	schema := maps.Clone(doc)
	delete(schema, "$schema")
	delete(schema, "title")

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(req.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.SystemText()),
			openai.UserMessage(req.UserText()),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        responseFormatName,
					Description: openai.String("Ranked embedding model recommendations or an off-topic refusal"),
					Schema:      schema,
					Strict:      openai.Bool(false),
				},
			},
		},
	}
	if req.Config != nil && req.Config.Temperature != nil {
		params.Temperature = openai.Float(float64(*req.Config.Temperature))
	}
	return params, nil
}

// envelopeFromCompletion places the first choice's content where the
// normalizer expects the first candidate's first part
func envelopeFromCompletion(completion *openai.ChatCompletion) *genai.GenerateContentResponse {
	resp := &genai.GenerateContentResponse{}
	if completion == nil {
		return resp
	}
	resp.ModelVersion = completion.Model
	resp.ResponseID = completion.ID
	if len(completion.Choices) == 0 {
		return resp
	}

	content := completion.Choices[0].Message.Content
	if content == "" {
		resp.Candidates = []*genai.Candidate{{Content: &genai.Content{Role: string(genai.RoleModel)}}}
		return resp
	}
	resp.Candidates = []*genai.Candidate{{Content: genai.NewContentFromText(content, genai.RoleModel)}}
	return resp
}
