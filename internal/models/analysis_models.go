package models

const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"

	CategoryUnknown = "unknown"
)

const (
	CHAT_DEFAULT_MAX_TOKENS  = 150
	CHAT_MAX_TOKENS_LIMIT    = 1000
	CHAT_DEFAULT_TEMPERATURE = 0.7
	CHAT_MAX_TEMPERATURE     = 2.0
)

type SentimentRequest struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

type ClassifyRequest struct {
	Text string `json:"text"`
}

type ChatRequest struct {
	Prompt      string   `json:"prompt"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	Temperature *float32 `json:"temperature,omitempty"`
}

// SentimentResult is the analyzer-side result before it is wrapped into an
// HTTP response.
type SentimentResult struct {
	Label      string             `json:"label"`
	Confidence float64            `json:"confidence"`
	Scores     map[string]float64 `json:"scores"`
}

type ClassificationResult struct {
	Category   string             `json:"category"`
	Confidence float64            `json:"confidence"`
	AllScores  map[string]float64 `json:"all_scores,omitempty"`
}

type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type ChatResult struct {
	Completion string      `json:"completion"`
	Model      string      `json:"model"`
	Usage      *TokenUsage `json:"token_usage,omitempty"`
}

type ImageClassificationResult struct {
	Category    string  `json:"category"`
	Confidence  float64 `json:"confidence"`
	Description string  `json:"description,omitempty"`
}

type SentimentResponse struct {
	Text           string             `json:"text"`
	Sentiment      string             `json:"sentiment"`
	Confidence     float64            `json:"confidence"`
	Scores         map[string]float64 `json:"scores"`
	ProcessingTime float64            `json:"processing_time"`
	RequestID      string             `json:"request_id"`
}

type ClassifyResponse struct {
	Text           string             `json:"text"`
	Category       string             `json:"category"`
	Confidence     float64            `json:"confidence"`
	AllScores      map[string]float64 `json:"all_scores,omitempty"`
	ProcessingTime float64            `json:"processing_time"`
	RequestID      string             `json:"request_id"`
}

type ChatResponse struct {
	Prompt         string      `json:"prompt"`
	Completion     string      `json:"completion"`
	Model          string      `json:"model"`
	TokenUsage     *TokenUsage `json:"token_usage,omitempty"`
	ProcessingTime float64     `json:"processing_time"`
	RequestID      string      `json:"request_id"`
}

type ClassifyImageResponse struct {
	Filename       string  `json:"filename"`
	Category       string  `json:"category"`
	Confidence     float64 `json:"confidence"`
	Description    string  `json:"description,omitempty"`
	StorageKey     string  `json:"storage_key,omitempty"`
	ProcessingTime float64 `json:"processing_time"`
	RequestID      string  `json:"request_id"`
}

// AnalysisEvent is the payload published to the results topic after a
// completed sentiment or classification request.
type AnalysisEvent struct {
	RequestID  string  `json:"request_id"`
	Kind       string  `json:"kind"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Timestamp  string  `json:"timestamp"`
}
