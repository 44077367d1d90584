package inference

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jonreiter/govader"
	"github.com/russross/blackfriday/v2"

	"github.com/spacesedan/sentigate/internal/models"
	"github.com/spacesedan/sentigate/internal/telemetry"
)

const (
	POSITIVE_THRESHOLD = 0.20
	NEGATIVE_THRESHOLD = -0.20
)

var (
	markdownLinkPattern = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	bareURLPattern      = regexp.MustCompile(`https?://\S+|www\.\S+`)
	htmlTagPattern      = regexp.MustCompile(`<[^>]*>`)
)

var categoryKeywords = map[string][]string{
	"Technology":    {"software", "computer", "ai ", "artificial intelligence", "internet", "app", "device", "code", "startup", "cloud", "data"},
	"Business":      {"market", "stock", "revenue", "company", "investor", "profit", "economy", "trade", "merger", "earnings"},
	"Sports":        {"game", "team", "player", "season", "league", "score", "match", "championship", "coach", "tournament"},
	"Entertainment": {"movie", "film", "music", "album", "show", "celebrity", "actor", "concert", "series", "festival"},
	"Politics":      {"election", "government", "senate", "policy", "president", "vote", "congress", "campaign", "minister", "parliament"},
	"Health":        {"health", "doctor", "disease", "patient", "hospital", "vaccine", "treatment", "medical", "diet", "symptom"},
}

// LocalAnalyzer serves development and offline environments without hosted
// model credentials. Sentiment runs on VADER, classification on keyword
// matching, and chat echoes the prompt. Image classification is not
// supported locally.
type LocalAnalyzer struct {
	analyzer *govader.SentimentIntensityAnalyzer
	tele     *telemetry.Emitter
}

func NewLocalAnalyzer(tele *telemetry.Emitter) *LocalAnalyzer {
	return &LocalAnalyzer{
		analyzer: govader.NewSentimentIntensityAnalyzer(),
		tele:     tele,
	}
}

func (a *LocalAnalyzer) AnalyzeSentiment(ctx context.Context, text, language string) (models.SentimentResult, error) {
	start := time.Now()

	plain := convertMarkdownToText(text)
	compound := a.analyzer.PolarityScores(plain).Compound

	var label string
	switch {
	case compound >= POSITIVE_THRESHOLD:
		label = models.SentimentPositive
	case compound <= NEGATIVE_THRESHOLD:
		label = models.SentimentNegative
	default:
		label = models.SentimentNeutral
	}

	scores := scoresFromCompound(label, compound)
	a.tele.ObserveInference(KindSentiment, telemetry.OutcomeOK, time.Since(start), 0)
	return models.SentimentResult{
		Label:      label,
		Confidence: scores[label],
		Scores:     scores,
	}, nil
}

func (a *LocalAnalyzer) Classify(ctx context.Context, text string) (models.ClassificationResult, error) {
	start := time.Now()

	lowered := strings.ToLower(convertMarkdownToText(text))
	hits := make(map[string]int)
	total := 0
	for category, keywords := range categoryKeywords {
		for _, kw := range keywords {
			n := strings.Count(lowered, kw)
			hits[category] += n
			total += n
		}
	}

	a.tele.ObserveInference(KindClassify, telemetry.OutcomeOK, time.Since(start), 0)

	if total == 0 {
		return models.ClassificationResult{
			Category:   models.CategoryUnknown,
			Confidence: 0,
		}, nil
	}

	best := ""
	allScores := make(map[string]float64)
	for category, n := range hits {
		if n == 0 {
			continue
		}
		allScores[category] = float64(n) / float64(total)
		if best == "" || hits[category] > hits[best] {
			best = category
		}
	}
	return models.ClassificationResult{
		Category:   best,
		Confidence: allScores[best],
		AllScores:  allScores,
	}, nil
}

func (a *LocalAnalyzer) Chat(ctx context.Context, prompt string, maxTokens int, temperature float32) (models.ChatResult, error) {
	start := time.Now()
	completion := fmt.Sprintf("You said: %s", strings.TrimSpace(prompt))
	a.tele.ObserveInference(KindChat, telemetry.OutcomeOK, time.Since(start), 0)
	return models.ChatResult{
		Completion: completion,
		Model:      "local",
	}, nil
}

func (a *LocalAnalyzer) ClassifyImage(ctx context.Context, filename string, img Image) (models.ImageClassificationResult, error) {
	return models.ImageClassificationResult{}, fmt.Errorf("%w: image classification requires a hosted vision model", ErrUnavailable)
}

// scoresFromCompound spreads the VADER compound score across the three
// sentiment buckets so the winning label always carries the largest share.
func scoresFromCompound(label string, compound float64) map[string]float64 {
	scores := make(map[string]float64, 3)
	switch label {
	case models.SentimentPositive:
		scores[models.SentimentPositive] = 0.5 + compound/2
		remainder := 1 - scores[models.SentimentPositive]
		scores[models.SentimentNeutral] = remainder * 0.75
		scores[models.SentimentNegative] = remainder * 0.25
	case models.SentimentNegative:
		scores[models.SentimentNegative] = 0.5 - compound/2
		remainder := 1 - scores[models.SentimentNegative]
		scores[models.SentimentNeutral] = remainder * 0.75
		scores[models.SentimentPositive] = remainder * 0.25
	default:
		polarity := compound
		if polarity < 0 {
			polarity = -polarity
		}
		scores[models.SentimentNeutral] = 1 - polarity
		if compound >= 0 {
			scores[models.SentimentPositive] = polarity
			scores[models.SentimentNegative] = 0
		} else {
			scores[models.SentimentNegative] = polarity
			scores[models.SentimentPositive] = 0
		}
	}
	return scores
}

func removeLinks(input string) string {
	input = markdownLinkPattern.ReplaceAllString(input, "$1")
	return bareURLPattern.ReplaceAllString(input, "")
}

func convertMarkdownToText(input string) string {
	output := blackfriday.Run([]byte(input), blackfriday.WithNoExtensions())
	stripped := htmlTagPattern.ReplaceAllString(string(output), " ")
	plain := strings.Join(strings.Fields(stripped), " ")
	return removeLinks(plain)
}
