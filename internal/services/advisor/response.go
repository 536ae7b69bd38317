package advisor

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/Egham-7/embedding-advisor/internal/models"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"google.golang.org/genai"
)

// Default messages for the informational outcomes
const (
	DefaultOffTopicMessage = "This assistant only recommends embedding models. Describe a project that needs text embeddings, such as semantic search, document classification, clustering, reranking or sentence similarity, and try again."
	DefaultNoMatchMessage  = "The model could not provide a recommendation for this request. Try rephrasing your project description with more detail about your data and constraints."
)

// Normalizer maps a raw generation response onto a RecommendationResult
type Normalizer struct{}

// NewNormalizer creates a Normalizer
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize runs the ordered checks on a successful envelope: missing text is
// a malformed envelope, unparseable text is invalid JSON, then off-topic,
// ranked and no-match are tried in that order.
func (n *Normalizer) Normalize(resp *genai.GenerateContentResponse, requestID string) (*models.RecommendationResult, error) {
	text, ok := FirstPartText(resp)
	if !ok {
		fiberlog.Errorf("[%s] Generation response has no candidate text", requestID)
		return nil, models.NewMalformedEnvelopeError("first candidate has no text part")
	}

	return n.NormalizeText(text, requestID)
}

// NormalizeText parses the model's JSON reply
func (n *Normalizer) NormalizeText(text, requestID string) (*models.RecommendationResult, error) {
	payload := stripCodeFence(strings.TrimSpace(text))

	var decoded any
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		fiberlog.Errorf("[%s] Model reply is not valid JSON: %v", requestID, err)
		return nil, models.NewInvalidJSONError(err)
	}

	reply, ok := decoded.(map[string]any)
	if !ok {
		fiberlog.Errorf("[%s] Model reply is JSON but not an object", requestID)
		return nil, models.NewInvalidJSONError(errNotObject)
	}

	for _, violation := range SchemaViolations(reply) {
		fiberlog.Warnf("[%s] Model reply does not match response schema: %s", requestID, violation)
	}

	if offTopic, _ := reply["is_off_topic"].(bool); offTopic {
		message := stringField(reply, "off_topic_message")
		if message == "" {
			message = DefaultOffTopicMessage
		}
		fiberlog.Infof("[%s] Description judged off-topic", requestID)
		return models.NewOffTopicResult(message), nil
	}

	items := recommendationItems(reply["recommendations"])
	if len(items) == 0 {
		fiberlog.Infof("[%s] Model returned no usable recommendations", requestID)
		return models.NewNoMatchResult(DefaultNoMatchMessage), nil
	}

	return models.NewRankedResult(items), nil
}

// FirstPartText returns the text of the first candidate's first part
func FirstPartText(resp *genai.GenerateContentResponse) (string, bool) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", false
	}
	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", false
	}
	part := candidate.Content.Parts[0]
	if part == nil || part.Text == "" {
		return "", false
	}
	return part.Text, true
}

type replyError string

func (e replyError) Error() string { return string(e) }

const errNotObject = replyError("expected a JSON object at the top level")

// stripCodeFence removes a ```json ... ``` wrapper some models add despite
// the JSON MIME type
func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") || !strings.HasSuffix(text, "```") || len(text) < 6 {
		return text
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(text, "```"), "```")
	if newline := strings.IndexByte(inner, '\n'); newline >= 0 {
		lang := strings.TrimSpace(inner[:newline])
		if lang == "" || strings.EqualFold(lang, "json") {
			inner = inner[newline+1:]
		}
	}
	return strings.TrimSpace(inner)
}

// recommendationItems decodes the array defensively. Non-object entries and
// entries without a model name are dropped, at most MaxRecommendations are
// kept and supplied order is preserved.
func recommendationItems(raw any) []models.ModelRecommendation {
	entries, ok := raw.([]any)
	if !ok {
		return nil
	}

	items := make([]models.ModelRecommendation, 0, models.MaxRecommendations)
	for _, entry := range entries {
		if len(items) == models.MaxRecommendations {
			break
		}
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		name := stringField(obj, "model_name")
		if name == "" {
			continue
		}

		rank, ok := intValue(obj["rank"])
		if !ok {
			rank = 0
		}
		items = append(items, models.ModelRecommendation{
			Rank:          rank,
			ModelName:     name,
			ScoreForTask:  floatValue(obj["score_for_task"]),
			Justification: stringField(obj, "justification"),
			KeySpecs:      keySpecs(obj["key_specs"]),
		})
	}

	assignRanks(items)
	return items
}

// assignRanks replaces missing or invalid ranks with the item position. Unless
// the ranks then form exactly 1..N, every item is renumbered by position, which
// also closes gaps left by dropped items.
func assignRanks(items []models.ModelRecommendation) {
	for i := range items {
		if items[i].Rank < 1 {
			items[i].Rank = i + 1
		}
	}
	if models.ContiguousRanks(items) {
		return
	}
	for i := range items {
		items[i].Rank = i + 1
	}
}

func keySpecs(raw any) models.KeySpecs {
	obj, ok := raw.(map[string]any)
	if !ok {
		return models.KeySpecs{}
	}
	return models.KeySpecs{
		MaxTokens:  specValue(obj["Max_Tokens"]),
		Parameters: specValue(obj["Parameters"]),
		Dimensions: specValue(obj["Dimensions"]),
	}
}

func specValue(raw any) string {
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return strings.TrimSpace(s)
}

func floatValue(raw any) float64 {
	switch v := raw.(type) {
	case float64:
		return v
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func intValue(raw any) (int, bool) {
	switch v := raw.(type) {
	case float64:
		return int(v), v == float64(int(v))
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(v))
		return i, err == nil
	default:
		return 0, false
	}
}
