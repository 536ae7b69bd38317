package advisor

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Egham-7/embedding-advisor/internal/models"
	"github.com/Egham-7/embedding-advisor/internal/utils/clientcache"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicOption "github.com/anthropics/anthropic-sdk-go/option"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"google.golang.org/genai"
)

// AnthropicGenerator gets the structured reply from the Messages API by
// forcing a single tool call whose input schema is the response schema. The
// tool input is wrapped in a Gemini-shaped envelope.
type AnthropicGenerator struct {
	cfg         models.ProviderConfig
	clientCache *clientcache.Cache[*anthropic.Client]
}

// NewAnthropicGenerator creates a generator backed by anthropic-sdk-go
func NewAnthropicGenerator(cfg models.ProviderConfig) *AnthropicGenerator {
	return &AnthropicGenerator{
		cfg:         cfg,
		clientCache: clientcache.NewCache[*anthropic.Client](),
	}
}

func (g *AnthropicGenerator) Provider() models.GeneratorProvider {
	return models.ProviderAnthropic
}

func (g *AnthropicGenerator) client() (*anthropic.Client, error) {
	hash, err := configHash(g.cfg)
	if err != nil {
		fiberlog.Warnf("Failed to generate config hash: %v, creating new client without caching", err)
		return g.buildClient(), nil
	}
	return g.clientCache.GetOrCreate(hash, func() (*anthropic.Client, error) {
		fiberlog.Debugf("Creating new Anthropic client (config hash: %s)", hash[:8])
		return g.buildClient(), nil
	})
}

func (g *AnthropicGenerator) buildClient() *anthropic.Client {
	opts := []anthropicOption.RequestOption{
		anthropicOption.WithAPIKey(g.cfg.APIKey),
		anthropicOption.WithMaxRetries(0),
	}
	if g.cfg.BaseURL != "" {
		opts = append(opts, anthropicOption.WithBaseURL(g.cfg.BaseURL))
	}
	for key, value := range g.cfg.Headers {
		opts = append(opts, anthropicOption.WithHeader(key, value))
	}
	if g.cfg.TimeoutMs > 0 {
		httpClient := &http.Client{Timeout: time.Duration(g.cfg.TimeoutMs) * time.Millisecond}
		opts = append(opts, anthropicOption.WithHTTPClient(httpClient))
	}

	client := anthropic.NewClient(opts...)
	return &client
}

// Generate sends one message request
func (g *AnthropicGenerator) Generate(ctx context.Context, req *models.GenerationRequest, requestID string) (*genai.GenerateContentResponse, error) {
	client, err := g.client()
	if err != nil {
		return nil, err
	}

	params, err := messageParams(req)
	if err != nil {
		return nil, models.NewInternalError("failed to build message request", err)
	}

	fiberlog.Infof("[%s] Making Anthropic API request - model: %s", requestID, req.Model)

	startTime := time.Now()
	message, err := client.Messages.New(ctx, params)
	duration := time.Since(startTime)

	if err != nil {
		fiberlog.Errorf("[%s] Anthropic API request failed after %v: %v", requestID, duration, err)
		return nil, transportError(string(models.ProviderAnthropic), err)
	}

	fiberlog.Infof("[%s] Anthropic API request completed successfully in %v - usage: input:%d, output:%d",
		requestID, duration, message.Usage.InputTokens, message.Usage.OutputTokens)
	return envelopeFromMessage(message), nil
}

func messageParams(req *models.GenerationRequest) (anthropic.MessageNewParams, error) {
	inputSchema, err := toolInputSchema()
	if err != nil {
		return anthropic.MessageNewParams{}, err
	}

	tool := anthropic.ToolUnionParamOfTool(inputSchema, responseFormatName)
	tool.OfTool.Description = anthropic.String("Report ranked embedding model recommendations or an off-topic refusal")

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: models.DefaultMaxTokens,
		System:    []anthropic.TextBlockParam{{Text: req.SystemText()}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserText())),
		},
		Tools:      []anthropic.ToolUnionParam{tool},
		ToolChoice: anthropic.ToolChoiceParamOfTool(responseFormatName),
	}
	if req.Config != nil && req.Config.Temperature != nil {
		params.Temperature = anthropic.Float(float64(*req.Config.Temperature))
	}
	return params, nil
}

func toolInputSchema() (anthropic.ToolInputSchemaParam, error) {
	doc, err := JSONSchema()
	if err != nil {
		return anthropic.ToolInputSchemaParam{}, err
	}

	var required []string
	if raw, ok := doc["required"].([]any); ok {
		for _, name := range raw {
			if s, ok := name.(string); ok {
				required = append(required, s)
			}
		}
	}
	properties, ok := doc["properties"].(map[string]any)
	if !ok {
		return anthropic.ToolInputSchemaParam{}, fmt.Errorf("response schema has no properties")
	}

	return anthropic.ToolInputSchemaParam{
		Properties: properties,
		Required:   required,
	}, nil
}

// envelopeFromMessage places the forced tool call's input, or failing that
// the first text block, where the normalizer expects the first candidate's
// first part
func envelopeFromMessage(message *anthropic.Message) *genai.GenerateContentResponse {
	resp := &genai.GenerateContentResponse{}
	if message == nil {
		return resp
	}
	resp.ModelVersion = string(message.Model)
	resp.ResponseID = message.ID

	var text string
	for _, block := range message.Content {
		if block.Type == "tool_use" && block.Name == responseFormatName && len(block.Input) > 0 {
			text = string(block.Input)
			break
		}
		if block.Type == "text" && text == "" {
			text = block.Text
		}
	}

	if text == "" {
		if len(message.Content) > 0 {
			resp.Candidates = []*genai.Candidate{{Content: &genai.Content{Role: string(genai.RoleModel)}}}
		}
		return resp
	}
	resp.Candidates = []*genai.Candidate{{Content: genai.NewContentFromText(text, genai.RoleModel)}}
	return resp
}
