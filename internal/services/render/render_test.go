package render

import (
	"strings"
	"testing"

	"github.com/Egham-7/embedding-advisor/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestString_Ranked(t *testing.T) {
	result := models.NewRankedResult([]models.ModelRecommendation{
		{Rank: 1, ModelName: "bge-m3", ScoreForTask: 54.6, Justification: "Best retrieval score", KeySpecs: models.KeySpecs{MaxTokens: "8192", Parameters: "568M", Dimensions: "1024"}},
		{Rank: 2, ModelName: "e5-large", ScoreForTask: 50},
	})

	out, err := String(models.TaskRetrieval, result)
	require.NoError(t, err)

	assert.Contains(t, out, "Retrieval")
	assert.Equal(t, 1, strings.Count(out, topPickMarker))
	assert.Less(t, strings.Index(out, topPickMarker), strings.Index(out, "#1 bge-m3"))
	assert.Contains(t, out, "#2 e5-large")
	assert.Contains(t, out, "Score for task: 54.60")
	assert.Contains(t, out, "Max tokens: 8192 | Parameters: 568M | Dimensions: 1024")
	assert.Contains(t, out, "Max tokens: - | Parameters: - | Dimensions: -")
	assert.Contains(t, out, "Best retrieval score")
	assert.Equal(t, 4, strings.Count(out, cardRule))
}

func TestString_Informational(t *testing.T) {
	tests := []struct {
		name   string
		result *models.RecommendationResult
		title  string
	}{
		{name: "off topic", result: models.NewOffTopicResult("Only embeddings, sorry."), title: "Off topic"},
		{name: "no match", result: models.NewNoMatchResult("Nothing fits."), title: "No recommendation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := String(models.TaskClustering, tt.result)
			require.NoError(t, err)
			assert.Contains(t, out, tt.title)
			assert.Contains(t, out, tt.result.Message)
			assert.NotContains(t, out, topPickMarker)
			assert.Equal(t, 2, strings.Count(out, cardRule))
		})
	}
}

func TestString_Errors(t *testing.T) {
	_, err := String(models.TaskSTS, nil)
	assert.Error(t, err)

	_, err = String(models.TaskSTS, &models.RecommendationResult{Kind: "other"})
	assert.Error(t, err)
}
