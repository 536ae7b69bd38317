package models

// GeneratorProvider selects the generative model collaborator
type GeneratorProvider string

const (
	// ProviderGemini uses the genai SDK
	ProviderGemini GeneratorProvider = "gemini"
	// ProviderGeminiREST posts the raw generateContent payload over HTTP
	ProviderGeminiREST GeneratorProvider = "gemini_rest"
	// ProviderOpenAI uses an OpenAI-compatible chat completions API
	ProviderOpenAI GeneratorProvider = "openai"
	// ProviderAnthropic uses the Anthropic Messages API with a forced tool call
	ProviderAnthropic GeneratorProvider = "anthropic"
)

// Default generation settings
const (
	DefaultGeminiModel    = "gemini-2.5-flash-preview-09-2025"
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-sonnet-4-5"
	DefaultGeminiBaseURL  = "https://generativelanguage.googleapis.com"
	DefaultTemperature    = 0.2
	DefaultMaxTokens      = 4096
)

// ProviderConfig holds configuration for the generative model service
type ProviderConfig struct {
	Provider    GeneratorProvider `yaml:"provider" json:"provider,omitzero"`
	Model       string            `yaml:"model" json:"model,omitzero"`
	APIKey      string            `yaml:"api_key" json:"api_key,omitzero"`
	BaseURL     string            `yaml:"base_url" json:"base_url,omitzero"`       // Optional custom base URL
	Temperature *float32          `yaml:"temperature" json:"temperature,omitzero"` // Defaults to 0.2
	TimeoutMs   int               `yaml:"timeout_ms" json:"timeout_ms,omitzero"`   // Optional timeout in milliseconds
	Headers     map[string]string `yaml:"headers" json:"headers,omitzero"`         // Optional custom headers
}

// ProviderName returns the configured provider, defaulting to gemini
func (p ProviderConfig) ProviderName() GeneratorProvider {
	if p.Provider == "" {
		return ProviderGemini
	}
	return p.Provider
}

// ModelName returns the configured model or the provider default
func (p ProviderConfig) ModelName() string {
	if p.Model != "" {
		return p.Model
	}
	switch p.ProviderName() {
	case ProviderOpenAI:
		return DefaultOpenAIModel
	case ProviderAnthropic:
		return DefaultAnthropicModel
	default:
		return DefaultGeminiModel
	}
}

// GetTemperature returns the configured sampling temperature or the default
func (p ProviderConfig) GetTemperature() float32 {
	if p.Temperature != nil {
		return *p.Temperature
	}
	return DefaultTemperature
}
