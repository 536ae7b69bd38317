package advisor

import (
	"fmt"
	"strings"

	"github.com/Egham-7/embedding-advisor/internal/models"

	"google.golang.org/genai"
)

// ResponseMIMEType is the structured output type requested from the model
const ResponseMIMEType = "application/json"

const systemInstruction = `You are an expert AI/ML engineer specializing in Natural Language Processing and embedding models. Your task is to recommend the top 3 best-suited embedding models for a user based on their project description and a provided benchmark dataset.

STEP 1, RELEVANCE CHECK (mandatory): first decide whether the project description is a genuine request for an embedding model, for example a search, retrieval, RAG, classification, clustering, deduplication, reranking or semantic similarity project. Greetings, small talk, jokes, requests to write code or prose, and questions unrelated to choosing an embedding model are off-topic. If the description is off-topic, set "is_off_topic" to true, write a short polite "off_topic_message" explaining that you only recommend embedding models, and do not return any recommendations.

STEP 2, RANKING: otherwise set "is_off_topic" to false and analyze the user's needs for constraints and features like multilingual support, document length, performance requirements (real-time/lightweight) and overall goal. Cross-reference these needs with the benchmark data to find the best models and explain the trade-offs (e.g., performance vs. size). The primary factor for ranking is the model's score in the user-specified main task, but you MUST adjust the ranking based on the user's specific textual description. For instance, if the user mentions several languages ("multilingual", "plusieurs langues"), a model with 'Yes' in the 'Multilingual' column should be prioritized. If the user mentions long documents ("long documents", "longs documents"), a model with a high 'Max_Tokens' value is better. If the user mentions limited resources or real-time use ("ressources limitées", "temps-réel", "lightweight", "real-time"), smaller models (lower 'Parameters') are preferable. Only recommend models that appear in the benchmark data, and copy their Max_Tokens, Parameters and Dimensions values into "key_specs".

You MUST provide your response in the structured JSON format declared by the response schema. Do not add any text or markdown formatting before or after the JSON object.`

// RequestBuilder turns a recommendation request into a generation request
type RequestBuilder struct {
	model       string
	temperature float32
}

// NewRequestBuilder creates a builder for the configured model
func NewRequestBuilder(cfg models.ProviderConfig) *RequestBuilder {
	return &RequestBuilder{
		model:       cfg.ModelName(),
		temperature: cfg.GetTemperature(),
	}
}

// Build validates the description and assembles the request. The task is not
// re-checked here and the benchmark text is embedded verbatim. It has no side
// effects.
func (b *RequestBuilder) Build(req models.RecommendationRequest, benchmarkText string) (*models.GenerationRequest, error) {
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, models.NewValidationError("project description must not be empty", nil)
	}

	return &models.GenerationRequest{
		Model: b.model,
		Contents: []*genai.Content{
			genai.NewContentFromText(UserPrompt(benchmarkText, req.Task, description), genai.RoleUser),
		},
		Config: &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{genai.NewPartFromText(systemInstruction)}},
			Temperature:       genai.Ptr(b.temperature),
			ResponseMIMEType:  ResponseMIMEType,
			ResponseSchema:    ResponseSchema(),
		},
		Task:        req.Task,
		Description: description,
	}, nil
}

// SystemInstruction returns the fixed system instruction
func SystemInstruction() string {
	return systemInstruction
}

// UserPrompt formats the user content: benchmark data, task and description
func UserPrompt(benchmarkText string, task models.Task, description string) string {
	var sb strings.Builder
	sb.WriteString("Here is the benchmark data (subset of top models) in CSV format:\n")
	sb.WriteString("--- BENCHMARK DATA ---\n")
	sb.WriteString(benchmarkText)
	sb.WriteString("\n--- END BENCHMARK DATA ---\n\n")
	sb.WriteString("Here is the user's request:\n")
	fmt.Fprintf(&sb, "- Main Task: \"%s\"\n", task)
	fmt.Fprintf(&sb, "- Project Description: \"%s\"\n\n", description)
	fmt.Fprintf(&sb, "First check that this is a genuine embedding-model request. If it is, provide your top %d recommendations in the specified JSON format, ranked from 1 to %d.", models.MaxRecommendations, models.MaxRecommendations)
	return sb.String()
}
