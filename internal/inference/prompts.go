package inference

import (
	"encoding/base64"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultCategories is the classification label set offered to the model.
var DefaultCategories = []string{
	"Technology",
	"Business",
	"Sports",
	"Entertainment",
	"Politics",
	"Health",
}

const sentimentSystemPrompt = `You are a sentiment analysis engine.

Analyze the sentiment of the text provided by the user.

Respond only with a valid JSON object. Do not include any additional text or commentary.

Expected JSON response format:
{
  "sentiment": "positive" | "negative" | "neutral",
  "confidence": <number between 0 and 1>,
  "scores": {
    "positive": <number between 0 and 1>,
    "negative": <number between 0 and 1>,
    "neutral": <number between 0 and 1>
  }
}

The three scores must sum to 1 and the sentiment must be the label with the highest score.`

const classifySystemPromptFormat = `You are a text classification engine.

Classify the text provided by the user into exactly one of the following categories:

%s

Respond only with a valid JSON object. Do not include any additional text or commentary.

Expected JSON response format:
{
  "category": "<one of the categories above>",
  "confidence": <number between 0 and 1>,
  "scores": {"<category>": <number between 0 and 1>, ...}
}`

const chatSystemPrompt = `You are a helpful AI assistant.`

const imageSystemPromptFormat = `You are an image classification engine.

Classify the image provided by the user into exactly one of the following categories:

%s

Respond only with a valid JSON object. Do not include any additional text or commentary.

Expected JSON response format:
{
  "category": "<one of the categories above>",
  "confidence": <number between 0 and 1>,
  "description": "<one sentence describing the image>"
}`

var imageCategories = []string{
	"photograph",
	"screenshot",
	"document",
	"diagram",
	"artwork",
	"other",
}

func buildSentimentMessages(text, language string) []openai.ChatCompletionMessage {
	userContent := text
	if language != "" {
		userContent = fmt.Sprintf("The text is written in %q.\n\n%s", language, text)
	}
	return []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: sentimentSystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: userContent},
	}
}

func buildClassifyMessages(text string, categories []string) []openai.ChatCompletionMessage {
	system := fmt.Sprintf(classifySystemPromptFormat, strings.Join(categories, "\n"))
	return []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: system},
		{Role: openai.ChatMessageRoleUser, Content: text},
	}
}

func buildChatMessages(prompt string) []openai.ChatCompletionMessage {
	return []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: chatSystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}
}

func buildImageMessages(img Image) []openai.ChatCompletionMessage {
	system := fmt.Sprintf(imageSystemPromptFormat, strings.Join(imageCategories, "\n"))
	dataURL := fmt.Sprintf("data:%s;base64,%s",
		img.ContentType, base64.StdEncoding.EncodeToString(img.Data))

	return []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: system},
		{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: "Classify this image."},
				{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL:    dataURL,
						Detail: openai.ImageURLDetailAuto,
					},
				},
			},
		},
	}
}
