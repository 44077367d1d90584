package clients

import (
	"log/slog"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/spacesedan/sentigate/config"
)

const (
	openAIRequestTimeout = 60 * time.Second // Timeout for individual OpenAI API requests
)

// NewOpenAIClient builds a chat-completion client for an Azure OpenAI
// resource. Deployment names are passed as the model on each request, so one
// client serves both the text and vision deployments.
func NewOpenAIClient(cfg config.OpenAISettings) *openai.Client {
	clientConfig := openai.DefaultAzureConfig(cfg.APIKey, cfg.Endpoint)
	clientConfig.APIVersion = cfg.APIVersion
	clientConfig.AzureModelMapperFunc = func(model string) string {
		return model
	}
	clientConfig.HTTPClient = &http.Client{
		Timeout: openAIRequestTimeout,
	}

	slog.Info("[OpenAIClient] OpenAI client initialized",
		slog.String("deployment", cfg.Deployment),
		slog.Duration("timeout", openAIRequestTimeout))

	return openai.NewClientWithConfig(clientConfig)
}
