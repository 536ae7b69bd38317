package builder

import "github.com/Egham-7/embedding-advisor/internal/models"

// GeneratorBuilder assembles the generative model settings
type GeneratorBuilder struct {
	provider    models.GeneratorProvider
	apiKey      string
	model       string
	baseURL     string
	temperature *float32
	timeoutMs   int
	headers     map[string]string
}

func NewGeneratorBuilder(provider models.GeneratorProvider, apiKey string) *GeneratorBuilder {
	return &GeneratorBuilder{
		provider: provider,
		apiKey:   apiKey,
		headers:  make(map[string]string),
	}
}

func (gb *GeneratorBuilder) WithModel(model string) *GeneratorBuilder {
	gb.model = model
	return gb
}

func (gb *GeneratorBuilder) WithBaseURL(url string) *GeneratorBuilder {
	gb.baseURL = url
	return gb
}

func (gb *GeneratorBuilder) WithTemperature(temperature float32) *GeneratorBuilder {
	gb.temperature = &temperature
	return gb
}

func (gb *GeneratorBuilder) WithTimeout(ms int) *GeneratorBuilder {
	gb.timeoutMs = ms
	return gb
}

func (gb *GeneratorBuilder) WithHeader(key, value string) *GeneratorBuilder {
	gb.headers[key] = value
	return gb
}

func (gb *GeneratorBuilder) Build() models.ProviderConfig {
	return models.ProviderConfig{
		Provider:    gb.provider,
		Model:       gb.model,
		APIKey:      gb.apiKey,
		BaseURL:     gb.baseURL,
		Temperature: gb.temperature,
		TimeoutMs:   gb.timeoutMs,
		Headers:     gb.headers,
	}
}

// WithGenerator replaces the generative model settings
func (b *Builder) WithGenerator(cfg models.ProviderConfig) *Builder {
	b.cfg.Generator = cfg
	return b
}

// WithGemini uses the genai SDK with the default model
func (b *Builder) WithGemini(apiKey string) *Builder {
	return b.WithGenerator(NewGeneratorBuilder(models.ProviderGemini, apiKey).Build())
}

// WithOpenAI uses an OpenAI-compatible chat completions API
func (b *Builder) WithOpenAI(apiKey string) *Builder {
	return b.WithGenerator(NewGeneratorBuilder(models.ProviderOpenAI, apiKey).Build())
}

// WithAnthropic uses the Anthropic Messages API
func (b *Builder) WithAnthropic(apiKey string) *Builder {
	return b.WithGenerator(NewGeneratorBuilder(models.ProviderAnthropic, apiKey).Build())
}
