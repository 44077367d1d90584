package inference

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/spacesedan/sentigate/internal/models"
)

// sentimentLabels is the canonical score-key order; ties resolve to the
// earlier label.
var sentimentLabels = []string{
	models.SentimentPositive,
	models.SentimentNegative,
	models.SentimentNeutral,
}

type sentimentPayload struct {
	Sentiment  string             `json:"sentiment"`
	Confidence float64            `json:"confidence"`
	Scores     map[string]float64 `json:"scores"`
}

type classificationPayload struct {
	Category   string             `json:"category"`
	Confidence float64            `json:"confidence"`
	Scores     map[string]float64 `json:"scores"`
}

type imagePayload struct {
	Category    string  `json:"category"`
	Confidence  float64 `json:"confidence"`
	Description string  `json:"description"`
}

// cleanResponse strips Markdown code fences from a model reply and verifies
// the remainder looks like a JSON object. Returns "" when it does not.
func cleanResponse(response string) string {
	cleaned := strings.TrimSpace(response)

	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "\n")
		cleaned = strings.TrimSuffix(cleaned, "```")
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimPrefix(cleaned, "\n")
		cleaned = strings.TrimSuffix(cleaned, "```")
	}
	cleaned = strings.TrimSpace(cleaned)

	if !(strings.HasPrefix(cleaned, "{") && strings.HasSuffix(cleaned, "}")) {
		slog.Warn("[Inference] Model response is not a JSON object after cleaning",
			slog.String("response_snippet", snippet(response)))
		return ""
	}
	return cleaned
}

func snippet(s string) string {
	const max = 100
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

// parseSentiment parses a model reply into a normalized sentiment result.
// ok is false when the reply is unusable and the caller should fall back.
func parseSentiment(raw string) (models.SentimentResult, bool) {
	cleaned := cleanResponse(raw)
	if cleaned == "" {
		return models.SentimentResult{}, false
	}

	var payload sentimentPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		slog.Warn("[Inference] Failed to unmarshal sentiment response",
			slog.String("error", err.Error()),
			slog.String("cleaned_response", snippet(cleaned)))
		return models.SentimentResult{}, false
	}

	return normalizeSentiment(payload)
}

// normalizeSentiment rebuilds the score map over exactly the three canonical
// labels, scales it to sum to 1, and recomputes the label as the argmax so
// the label always matches the highest score.
func normalizeSentiment(payload sentimentPayload) (models.SentimentResult, bool) {
	scores := make(map[string]float64, len(sentimentLabels))
	var sum float64
	for _, label := range sentimentLabels {
		v := payload.Scores[label]
		if v < 0 {
			v = 0
		}
		scores[label] = v
		sum += v
	}

	if sum == 0 {
		// No usable score map. Place the reported confidence on the
		// reported label, the remainder on neutral.
		label := strings.ToLower(payload.Sentiment)
		confidence := clamp01(payload.Confidence)
		if !isSentimentLabel(label) || confidence == 0 {
			return models.SentimentResult{}, false
		}
		scores[label] = confidence
		scores[models.SentimentNeutral] += 1 - confidence
		sum = 1
	}

	for label := range scores {
		scores[label] /= sum
	}

	top := argmax(scores)
	confidence := clamp01(payload.Confidence)
	if confidence == 0 {
		confidence = scores[top]
	}

	return models.SentimentResult{
		Label:      top,
		Confidence: confidence,
		Scores:     scores,
	}, true
}

// parseClassification requires the category to be one of the configured set
// (case-insensitive); anything else is treated as unparseable.
func parseClassification(raw string, categories []string) (models.ClassificationResult, bool) {
	cleaned := cleanResponse(raw)
	if cleaned == "" {
		return models.ClassificationResult{}, false
	}

	var payload classificationPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		slog.Warn("[Inference] Failed to unmarshal classification response",
			slog.String("error", err.Error()),
			slog.String("cleaned_response", snippet(cleaned)))
		return models.ClassificationResult{}, false
	}

	category, ok := matchCategory(payload.Category, categories)
	if !ok {
		slog.Warn("[Inference] Model returned a category outside the configured set",
			slog.String("category", payload.Category))
		return models.ClassificationResult{}, false
	}

	result := models.ClassificationResult{
		Category:   category,
		Confidence: clamp01(payload.Confidence),
	}
	if len(payload.Scores) > 0 {
		result.AllScores = make(map[string]float64)
		for name, v := range payload.Scores {
			if canonical, ok := matchCategory(name, categories); ok {
				result.AllScores[canonical] = clamp01(v)
			}
		}
	}
	return result, true
}

func parseImageClassification(raw string) (models.ImageClassificationResult, bool) {
	cleaned := cleanResponse(raw)
	if cleaned == "" {
		return models.ImageClassificationResult{}, false
	}

	var payload imagePayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		slog.Warn("[Inference] Failed to unmarshal image classification response",
			slog.String("error", err.Error()),
			slog.String("cleaned_response", snippet(cleaned)))
		return models.ImageClassificationResult{}, false
	}
	if strings.TrimSpace(payload.Category) == "" {
		return models.ImageClassificationResult{}, false
	}

	return models.ImageClassificationResult{
		Category:    strings.ToLower(strings.TrimSpace(payload.Category)),
		Confidence:  clamp01(payload.Confidence),
		Description: strings.TrimSpace(payload.Description),
	}, true
}

// fallbackSentiment is the conservative result for unparseable model output:
// neutral, zero confidence, all score mass on neutral.
func fallbackSentiment() models.SentimentResult {
	return models.SentimentResult{
		Label:      models.SentimentNeutral,
		Confidence: 0,
		Scores: map[string]float64{
			models.SentimentPositive: 0,
			models.SentimentNegative: 0,
			models.SentimentNeutral:  1,
		},
	}
}

func fallbackClassification() models.ClassificationResult {
	return models.ClassificationResult{
		Category:   models.CategoryUnknown,
		Confidence: 0,
	}
}

func fallbackImageClassification() models.ImageClassificationResult {
	return models.ImageClassificationResult{
		Category:   models.CategoryUnknown,
		Confidence: 0,
	}
}

func matchCategory(raw string, categories []string) (string, bool) {
	candidate := strings.TrimSpace(raw)
	for _, c := range categories {
		if strings.EqualFold(candidate, c) {
			return c, true
		}
	}
	return "", false
}

func isSentimentLabel(label string) bool {
	for _, l := range sentimentLabels {
		if label == l {
			return true
		}
	}
	return false
}

func argmax(scores map[string]float64) string {
	best := sentimentLabels[0]
	for _, label := range sentimentLabels[1:] {
		if scores[label] > scores[best] {
			best = label
		}
	}
	return best
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
