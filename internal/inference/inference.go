// Package inference turns domain requests (sentiment, classify, chat) into
// calls against a completion backend and parses the model output into
// structured results.
package inference

import (
	"context"
	"errors"

	"github.com/spacesedan/sentigate/internal/models"
)

// ErrUnavailable signals that the inference endpoint could not produce a
// response (network failure, timeout, upstream error). Handlers translate it
// to a 502 without exposing upstream details.
var ErrUnavailable = errors.New("inference endpoint unavailable")

const (
	KindSentiment = "sentiment"
	KindClassify  = "classify"
	KindChat      = "chat"
	KindImage     = "image"
)

// Image is an uploaded image handed to the vision deployment.
type Image struct {
	Data        []byte
	ContentType string
}

type Analyzer interface {
	AnalyzeSentiment(ctx context.Context, text, language string) (models.SentimentResult, error)
	Classify(ctx context.Context, text string) (models.ClassificationResult, error)
	Chat(ctx context.Context, prompt string, maxTokens int, temperature float32) (models.ChatResult, error)
	ClassifyImage(ctx context.Context, filename string, img Image) (models.ImageClassificationResult, error)
}
