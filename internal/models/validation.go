package models

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ValidationError reports which field of a request failed validation and why.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func validateText(field, text string, maxLength int) *ValidationError {
	if strings.TrimSpace(text) == "" {
		return newValidationError(field, "must not be empty")
	}
	if n := utf8.RuneCountInString(text); n > maxLength {
		return newValidationError(field, "exceeds maximum length of %d characters (got %d)", maxLength, n)
	}
	return nil
}

func (r *SentimentRequest) Validate(maxLength int) *ValidationError {
	return validateText("text", r.Text, maxLength)
}

func (r *ClassifyRequest) Validate(maxLength int) *ValidationError {
	return validateText("text", r.Text, maxLength)
}

func (r *ChatRequest) Validate(maxLength int) *ValidationError {
	if err := validateText("prompt", r.Prompt, maxLength); err != nil {
		return err
	}
	if r.MaxTokens != nil && (*r.MaxTokens < 1 || *r.MaxTokens > CHAT_MAX_TOKENS_LIMIT) {
		return newValidationError("max_tokens", "must be between 1 and %d", CHAT_MAX_TOKENS_LIMIT)
	}
	if r.Temperature != nil && (*r.Temperature < 0 || *r.Temperature > CHAT_MAX_TEMPERATURE) {
		return newValidationError("temperature", "must be between 0 and %g", CHAT_MAX_TEMPERATURE)
	}
	return nil
}
