package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// MaxRecommendations is the number of models the advisor ranks
const MaxRecommendations = 3

// RecommendationRequest is the user's intent for one analysis
type RecommendationRequest struct {
	Description string `json:"description"`
	Task        Task   `json:"task"`
}

// KeySpecs holds the benchmark specifications echoed back for a model
type KeySpecs struct {
	MaxTokens  string `json:"Max_Tokens"`
	Parameters string `json:"Parameters"`
	Dimensions string `json:"Dimensions"`
}

// ModelRecommendation is a single ranked model
type ModelRecommendation struct {
	Rank          int      `json:"rank"`
	ModelName     string   `json:"model_name"`
	ScoreForTask  float64  `json:"score_for_task"`
	Justification string   `json:"justification"`
	KeySpecs      KeySpecs `json:"key_specs"`
}

// ResultKind tags the variant of a RecommendationResult
type ResultKind string

const (
	ResultRanked   ResultKind = "ranked"
	ResultOffTopic ResultKind = "off_topic"
	ResultNoMatch  ResultKind = "no_match"
)

// RecommendationResult is a tagged union over the three outcomes of an analysis.
// Ranked results carry 1..MaxRecommendations items and no message; OffTopic and
// NoMatch carry a message and no items.
type RecommendationResult struct {
	Kind            ResultKind            `json:"kind"`
	Recommendations []ModelRecommendation `json:"recommendations,omitempty"`
	Message         string                `json:"message,omitempty"`
}

// NewRankedResult creates a Ranked result
func NewRankedResult(items []ModelRecommendation) *RecommendationResult {
	return &RecommendationResult{Kind: ResultRanked, Recommendations: items}
}

// NewOffTopicResult creates an OffTopic result
func NewOffTopicResult(message string) *RecommendationResult {
	return &RecommendationResult{Kind: ResultOffTopic, Message: message}
}

// NewNoMatchResult creates a NoMatch result
func NewNoMatchResult(message string) *RecommendationResult {
	return &RecommendationResult{Kind: ResultNoMatch, Message: message}
}

// IsRanked reports whether the result carries model recommendations
func (r *RecommendationResult) IsRanked() bool {
	return r != nil && r.Kind == ResultRanked
}

// Validate checks the union invariants
func (r *RecommendationResult) Validate() error {
	if r == nil {
		return fmt.Errorf("nil result")
	}
	switch r.Kind {
	case ResultRanked:
		n := len(r.Recommendations)
		if n < 1 || n > MaxRecommendations {
			return fmt.Errorf("ranked result must have 1..%d items, got %d", MaxRecommendations, n)
		}
		if !ContiguousRanks(r.Recommendations) {
			return fmt.Errorf("ranks must be exactly 1..%d, got %v", n, ranksOf(r.Recommendations))
		}
	case ResultOffTopic, ResultNoMatch:
		if len(r.Recommendations) > 0 {
			return fmt.Errorf("%s result must not carry recommendations", r.Kind)
		}
	default:
		return fmt.Errorf("unknown result kind %q", r.Kind)
	}
	return nil
}

// ContiguousRanks reports whether the ranks of items are exactly 1..len(items),
// in any order
func ContiguousRanks(items []ModelRecommendation) bool {
	seen := make([]bool, len(items)+1)
	for _, rec := range items {
		if rec.Rank < 1 || rec.Rank > len(items) || seen[rec.Rank] {
			return false
		}
		seen[rec.Rank] = true
	}
	return true
}

func ranksOf(items []ModelRecommendation) []int {
	ranks := make([]int, len(items))
	for i, rec := range items {
		ranks[i] = rec.Rank
	}
	return ranks
}

// Analysis is the outcome of one recommendation request as served to callers
type Analysis struct {
	RequestID   string                `json:"request_id"`
	Task        Task                  `json:"task"`
	Description string                `json:"description"`
	Result      *RecommendationResult `json:"result"`
	CacheSource string                `json:"cache_source,omitempty"`
	Duration    time.Duration         `json:"-"`
}

// MarshalJSON adds the duration in milliseconds
func (a Analysis) MarshalJSON() ([]byte, error) {
	type alias Analysis
	return json.Marshal(struct {
		alias
		DurationMs int64 `json:"duration_ms"`
	}{
		alias:      alias(a),
		DurationMs: a.Duration.Milliseconds(),
	})
}
