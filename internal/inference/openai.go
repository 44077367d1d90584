package inference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/spacesedan/sentigate/config"
	"github.com/spacesedan/sentigate/internal/models"
	"github.com/spacesedan/sentigate/internal/telemetry"
)

const (
	MAX_RETRIES     = 3
	INITIAL_BACKOFF = 500 * time.Millisecond

	SENTIMENT_MAX_TOKENS = 200
	CLASSIFY_MAX_TOKENS  = 300
	IMAGE_MAX_TOKENS     = 300

	ANALYSIS_TEMPERATURE = 0.3
)

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIAnalyzer delegates every analysis kind to an Azure OpenAI chat
// deployment. It never persists anything; its only side effect is the
// network call.
type OpenAIAnalyzer struct {
	client           chatCompleter
	tele             *telemetry.Emitter
	deployment       string
	visionDeployment string
	categories       []string
	timeout          time.Duration
}

func NewOpenAIAnalyzer(client *openai.Client, cfg *config.Settings, tele *telemetry.Emitter) *OpenAIAnalyzer {
	return &OpenAIAnalyzer{
		client:           client,
		tele:             tele,
		deployment:       cfg.OpenAI.Deployment,
		visionDeployment: cfg.OpenAI.VisionDeployment,
		categories:       DefaultCategories,
		timeout:          cfg.RequestTimeout,
	}
}

func (a *OpenAIAnalyzer) AnalyzeSentiment(ctx context.Context, text, language string) (models.SentimentResult, error) {
	start := time.Now()
	resp, err := a.complete(ctx, openai.ChatCompletionRequest{
		Model:       a.deployment,
		Messages:    buildSentimentMessages(text, language),
		MaxTokens:   SENTIMENT_MAX_TOKENS,
		Temperature: ANALYSIS_TEMPERATURE,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		a.tele.ObserveInference(KindSentiment, telemetry.OutcomeUnavailable, time.Since(start), 0)
		return models.SentimentResult{}, err
	}

	result, ok := parseSentiment(firstChoice(resp))
	outcome := telemetry.OutcomeOK
	if !ok {
		result = fallbackSentiment()
		outcome = telemetry.OutcomeParseFallback
	}
	a.tele.ObserveInference(KindSentiment, outcome, time.Since(start), resp.Usage.TotalTokens)
	return result, nil
}

func (a *OpenAIAnalyzer) Classify(ctx context.Context, text string) (models.ClassificationResult, error) {
	start := time.Now()
	resp, err := a.complete(ctx, openai.ChatCompletionRequest{
		Model:       a.deployment,
		Messages:    buildClassifyMessages(text, a.categories),
		MaxTokens:   CLASSIFY_MAX_TOKENS,
		Temperature: ANALYSIS_TEMPERATURE,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		a.tele.ObserveInference(KindClassify, telemetry.OutcomeUnavailable, time.Since(start), 0)
		return models.ClassificationResult{}, err
	}

	result, ok := parseClassification(firstChoice(resp), a.categories)
	outcome := telemetry.OutcomeOK
	if !ok {
		result = fallbackClassification()
		outcome = telemetry.OutcomeParseFallback
	}
	a.tele.ObserveInference(KindClassify, outcome, time.Since(start), resp.Usage.TotalTokens)
	return result, nil
}

func (a *OpenAIAnalyzer) Chat(ctx context.Context, prompt string, maxTokens int, temperature float32) (models.ChatResult, error) {
	start := time.Now()
	resp, err := a.complete(ctx, openai.ChatCompletionRequest{
		Model:       a.deployment,
		Messages:    buildChatMessages(prompt),
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		a.tele.ObserveInference(KindChat, telemetry.OutcomeUnavailable, time.Since(start), 0)
		return models.ChatResult{}, err
	}
	a.tele.ObserveInference(KindChat, telemetry.OutcomeOK, time.Since(start), resp.Usage.TotalTokens)

	model := resp.Model
	if model == "" {
		model = a.deployment
	}
	return models.ChatResult{
		Completion: firstChoice(resp),
		Model:      model,
		Usage: &models.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

func (a *OpenAIAnalyzer) ClassifyImage(ctx context.Context, filename string, img Image) (models.ImageClassificationResult, error) {
	start := time.Now()
	resp, err := a.complete(ctx, openai.ChatCompletionRequest{
		Model:       a.visionDeployment,
		Messages:    buildImageMessages(img),
		MaxTokens:   IMAGE_MAX_TOKENS,
		Temperature: ANALYSIS_TEMPERATURE,
	})
	if err != nil {
		a.tele.ObserveInference(KindImage, telemetry.OutcomeUnavailable, time.Since(start), 0)
		return models.ImageClassificationResult{}, err
	}

	result, ok := parseImageClassification(firstChoice(resp))
	outcome := telemetry.OutcomeOK
	if !ok {
		slog.Warn("[Inference] Unparseable image classification response",
			slog.String("filename", filename))
		result = fallbackImageClassification()
		outcome = telemetry.OutcomeParseFallback
	}
	a.tele.ObserveInference(KindImage, outcome, time.Since(start), resp.Usage.TotalTokens)
	return result, nil
}

// complete performs one bounded completion call: overall deadline from the
// configured request timeout, retries with exponential backoff on retryable
// upstream failures only.
func (a *OpenAIAnalyzer) complete(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var resp openai.ChatCompletionResponse
	var err error

	backoff := INITIAL_BACKOFF
	for attempt := 1; attempt <= MAX_RETRIES; attempt++ {
		start := time.Now()
		resp, err = a.client.CreateChatCompletion(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !isRetryable(err) || attempt == MAX_RETRIES {
			break
		}

		slog.Warn("[Inference] Completion request failed, retrying...",
			slog.Int("attempt", attempt),
			slog.Duration("elapsed", time.Since(start)),
			slog.String("error", err.Error()))

		select {
		case <-ctx.Done():
			return resp, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	slog.Error("[Inference] Completion request failed",
		slog.String("model", req.Model),
		slog.String("error", err.Error()))
	return resp, fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func isRetryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests ||
			apiErr.HTTPStatusCode >= http.StatusInternalServerError
	}
	// Transport-level failures (DNS, refused connections, timeouts) are
	// worth another attempt unless the context is already done.
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func firstChoice(resp openai.ChatCompletionResponse) string {
	if len(resp.Choices) == 0 {
		return ""
	}
	return resp.Choices[0].Message.Content
}
