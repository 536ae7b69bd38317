package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Egham-7/embedding-advisor/internal/models"

	"github.com/valyala/bytebufferpool"
)

const (
	topPickMarker = "Top pick"
	cardRule      = "----------------------------------------"
)

var pool bytebufferpool.Pool

// Result writes a ranked result as one card per model and an informational
// result as a single card
func Result(w io.Writer, task models.Task, result *models.RecommendationResult) error {
	if result == nil {
		return fmt.Errorf("nil result")
	}

	buf := pool.Get()
	defer pool.Put(buf)

	switch result.Kind {
	case models.ResultRanked:
		_, _ = fmt.Fprintf(buf, "Recommended embedding models for %s\n", task)
		for _, rec := range result.Recommendations {
			writeModelCard(buf, rec)
		}
	case models.ResultOffTopic:
		writeInfoCard(buf, "Off topic", result.Message)
	case models.ResultNoMatch:
		writeInfoCard(buf, "No recommendation", result.Message)
	default:
		return fmt.Errorf("unknown result kind %q", result.Kind)
	}

	_, err := buf.WriteTo(w)
	return err
}

// String renders the result to a string
func String(task models.Task, result *models.RecommendationResult) (string, error) {
	var sb strings.Builder
	if err := Result(&sb, task, result); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func writeModelCard(buf *bytebufferpool.ByteBuffer, rec models.ModelRecommendation) {
	_, _ = buf.WriteString(cardRule + "\n")
	if rec.Rank == 1 {
		_, _ = buf.WriteString("* " + topPickMarker + "\n")
	}
	_, _ = fmt.Fprintf(buf, "#%d %s\n", rec.Rank, rec.ModelName)
	_, _ = buf.WriteString("  Score for task: " + strconv.FormatFloat(rec.ScoreForTask, 'f', 2, 64) + "\n")

	specs := []string{
		"Max tokens: " + orDash(rec.KeySpecs.MaxTokens),
		"Parameters: " + orDash(rec.KeySpecs.Parameters),
		"Dimensions: " + orDash(rec.KeySpecs.Dimensions),
	}
	_, _ = buf.WriteString("  " + strings.Join(specs, " | ") + "\n")

	if rec.Justification != "" {
		_, _ = buf.WriteString("  " + rec.Justification + "\n")
	}
	_, _ = buf.WriteString(cardRule + "\n")
}

func writeInfoCard(buf *bytebufferpool.ByteBuffer, title, message string) {
	_, _ = buf.WriteString(cardRule + "\n")
	_, _ = buf.WriteString(title + "\n")
	_, _ = buf.WriteString("  " + message + "\n")
	_, _ = buf.WriteString(cardRule + "\n")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
