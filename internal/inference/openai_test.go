package inference

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/sentigate/config"
	"github.com/spacesedan/sentigate/internal/models"
)

type fakeCompleter struct {
	calls     int
	responses []string
	errs      []error
	lastReq   openai.ChatCompletionRequest

	// block keeps the call pending until the context is done, simulating a
	// hung upstream.
	block bool
}

func (f *fakeCompleter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.lastReq = req
	idx := f.calls
	f.calls++

	if f.block {
		<-ctx.Done()
		return openai.ChatCompletionResponse{}, ctx.Err()
	}
	if idx < len(f.errs) && f.errs[idx] != nil {
		return openai.ChatCompletionResponse{}, f.errs[idx]
	}

	content := ""
	if idx < len(f.responses) {
		content = f.responses[idx]
	}
	return openai.ChatCompletionResponse{
		Model: "gpt-4o-mini",
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
		Usage: openai.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}, nil
}

func newTestAnalyzer(completer chatCompleter, timeout time.Duration) *OpenAIAnalyzer {
	return &OpenAIAnalyzer{
		client:           completer,
		deployment:       "gpt-4o-mini",
		visionDeployment: "gpt-4o-mini",
		categories:       DefaultCategories,
		timeout:          timeout,
	}
}

func TestOpenAIAnalyzeSentiment(t *testing.T) {
	completer := &fakeCompleter{
		responses: []string{`{"sentiment":"positive","confidence":0.9,"scores":{"positive":0.9,"negative":0.05,"neutral":0.05}}`},
	}
	analyzer := newTestAnalyzer(completer, 5*time.Second)

	result, err := analyzer.AnalyzeSentiment(context.Background(), "I love this", "")
	require.NoError(t, err)
	assert.Equal(t, models.SentimentPositive, result.Label)
	assert.InDelta(t, 0.9, result.Confidence, 0.001)
	assertScoresInvariant(t, result)

	assert.Equal(t, 1, completer.calls)
	assert.Equal(t, "gpt-4o-mini", completer.lastReq.Model)
	require.NotNil(t, completer.lastReq.ResponseFormat)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, completer.lastReq.ResponseFormat.Type)
}

func TestOpenAIAnalyzeSentiment_UnparseableFallsBack(t *testing.T) {
	completer := &fakeCompleter{
		responses: []string{"I'd say the text reads as fairly positive overall."},
	}
	analyzer := newTestAnalyzer(completer, 5*time.Second)

	result, err := analyzer.AnalyzeSentiment(context.Background(), "some text", "")
	require.NoError(t, err, "unparseable output is a fallback, not an error")
	assert.Equal(t, models.SentimentNeutral, result.Label)
	assert.Zero(t, result.Confidence)
	assertScoresInvariant(t, result)
}

func TestOpenAIAnalyzeSentiment_NonRetryableFailsOnce(t *testing.T) {
	completer := &fakeCompleter{
		errs: []error{&openai.APIError{HTTPStatusCode: http.StatusUnauthorized, Message: "bad key"}},
	}
	analyzer := newTestAnalyzer(completer, 5*time.Second)

	_, err := analyzer.AnalyzeSentiment(context.Background(), "some text", "")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 1, completer.calls, "4xx errors should not be retried")
}

func TestOpenAIAnalyzeSentiment_RetriesThrottling(t *testing.T) {
	completer := &fakeCompleter{
		errs: []error{&openai.APIError{HTTPStatusCode: http.StatusTooManyRequests, Message: "slow down"}},
		responses: []string{"",
			`{"sentiment":"negative","confidence":0.8,"scores":{"positive":0.1,"negative":0.8,"neutral":0.1}}`},
	}
	analyzer := newTestAnalyzer(completer, 10*time.Second)

	result, err := analyzer.AnalyzeSentiment(context.Background(), "awful", "")
	require.NoError(t, err)
	assert.Equal(t, models.SentimentNegative, result.Label)
	assert.Equal(t, 2, completer.calls)
}

func TestOpenAIAnalyzeSentiment_TimeoutBounded(t *testing.T) {
	completer := &fakeCompleter{block: true}
	analyzer := newTestAnalyzer(completer, 100*time.Millisecond)

	start := time.Now()
	_, err := analyzer.AnalyzeSentiment(context.Background(), "some text", "")
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Less(t, elapsed, 2*time.Second, "a hung upstream must not hold the request")
	assert.Equal(t, 1, completer.calls, "context expiry should stop the retry loop")
}

func TestOpenAIChat(t *testing.T) {
	completer := &fakeCompleter{responses: []string{"Hello! How can I help?"}}
	analyzer := newTestAnalyzer(completer, 5*time.Second)

	result, err := analyzer.Chat(context.Background(), "say hello", 150, 0.7)
	require.NoError(t, err)
	assert.Equal(t, "Hello! How can I help?", result.Completion)
	assert.Equal(t, "gpt-4o-mini", result.Model)
	require.NotNil(t, result.Usage)
	assert.Equal(t, 15, result.Usage.TotalTokens)

	assert.Equal(t, 150, completer.lastReq.MaxTokens)
	assert.InDelta(t, 0.7, float64(completer.lastReq.Temperature), 0.001)
	assert.Nil(t, completer.lastReq.ResponseFormat, "chat replies are free-form")
}

func TestOpenAIClassify(t *testing.T) {
	completer := &fakeCompleter{
		responses: []string{`{"category":"Sports","confidence":0.88}`},
	}
	analyzer := newTestAnalyzer(completer, 5*time.Second)

	result, err := analyzer.Classify(context.Background(), "The team won the championship")
	require.NoError(t, err)
	assert.Equal(t, "Sports", result.Category)
	assert.InDelta(t, 0.88, result.Confidence, 0.001)
}

func TestOpenAIClassify_UnknownCategoryFallsBack(t *testing.T) {
	completer := &fakeCompleter{
		responses: []string{`{"category":"Gardening","confidence":0.9}`},
	}
	analyzer := newTestAnalyzer(completer, 5*time.Second)

	result, err := analyzer.Classify(context.Background(), "roses and tulips")
	require.NoError(t, err)
	assert.Equal(t, models.CategoryUnknown, result.Category)
	assert.Zero(t, result.Confidence)
}

func TestOpenAIClassifyImage(t *testing.T) {
	completer := &fakeCompleter{
		responses: []string{`{"category":"photograph","confidence":0.95,"description":"A mountain lake"}`},
	}
	analyzer := newTestAnalyzer(completer, 5*time.Second)

	img := Image{Data: []byte{0x89, 0x50}, ContentType: "image/png"}
	result, err := analyzer.ClassifyImage(context.Background(), "lake.png", img)
	require.NoError(t, err)
	assert.Equal(t, "photograph", result.Category)
	assert.Equal(t, "A mountain lake", result.Description)

	// Vision requests carry the image as a message part, not plain text.
	parts := completer.lastReq.Messages[len(completer.lastReq.Messages)-1].MultiContent
	require.NotEmpty(t, parts)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "throttled", err: &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests}, want: true},
		{name: "server error", err: &openai.APIError{HTTPStatusCode: http.StatusBadGateway}, want: true},
		{name: "bad request", err: &openai.APIError{HTTPStatusCode: http.StatusBadRequest}, want: false},
		{name: "unauthorized", err: &openai.APIError{HTTPStatusCode: http.StatusUnauthorized}, want: false},
		{name: "network failure", err: errors.New("dial tcp: connection refused"), want: true},
		{name: "context deadline", err: context.DeadlineExceeded, want: false},
		{name: "context canceled", err: context.Canceled, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryable(tt.err))
		})
	}
}

func TestNewOpenAIAnalyzerUsesSettings(t *testing.T) {
	cfg := &config.Settings{
		OpenAI: config.OpenAISettings{
			Endpoint:         "https://example.openai.azure.com",
			APIKey:           "key",
			Deployment:       "gpt-4o",
			VisionDeployment: "gpt-4o-mini",
			APIVersion:       "2024-02-01",
		},
		RequestTimeout: 42 * time.Second,
	}

	analyzer := NewOpenAIAnalyzer(nil, cfg, nil)
	assert.Equal(t, "gpt-4o", analyzer.deployment)
	assert.Equal(t, "gpt-4o-mini", analyzer.visionDeployment)
	assert.Equal(t, 42*time.Second, analyzer.timeout)
}
