package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentimentRequestValidate(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantField string
	}{
		{name: "valid text", text: "I love this product"},
		{name: "empty text", text: "", wantField: "text"},
		{name: "whitespace only", text: "   \n\t  ", wantField: "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := SentimentRequest{Text: tt.text}
			err := req.Validate(5000)
			if tt.wantField == "" {
				assert.Nil(t, err)
				return
			}
			if assert.NotNil(t, err) {
				assert.Equal(t, tt.wantField, err.Field)
			}
		})
	}
}

func TestSentimentRequestValidate_TooLong(t *testing.T) {
	long := make([]rune, 5001)
	for i := range long {
		long[i] = 'a'
	}

	req := SentimentRequest{Text: string(long)}
	err := req.Validate(5000)
	if assert.NotNil(t, err) {
		assert.Equal(t, "text", err.Field)
		assert.Contains(t, err.Message, "5000")
	}
}

func TestSentimentRequestValidate_LengthCountsRunes(t *testing.T) {
	// 10 multibyte runes stay well under a 5000 rune limit even though the
	// byte count is higher.
	req := SentimentRequest{Text: "五五五五五五五五五五"}
	assert.Nil(t, req.Validate(5000))

	assert.NotNil(t, req.Validate(9))
}

func TestChatRequestValidate(t *testing.T) {
	intPtr := func(n int) *int { return &n }
	floatPtr := func(f float32) *float32 { return &f }

	tests := []struct {
		name      string
		req       ChatRequest
		wantField string
	}{
		{name: "prompt only", req: ChatRequest{Prompt: "hello"}},
		{name: "empty prompt", req: ChatRequest{Prompt: ""}, wantField: "prompt"},
		{name: "all fields valid", req: ChatRequest{Prompt: "hi", MaxTokens: intPtr(500), Temperature: floatPtr(1.2)}},
		{name: "temperature zero is valid", req: ChatRequest{Prompt: "hi", Temperature: floatPtr(0)}},
		{name: "temperature at limit", req: ChatRequest{Prompt: "hi", Temperature: floatPtr(2.0)}},
		{name: "temperature above limit", req: ChatRequest{Prompt: "hi", Temperature: floatPtr(2.5)}, wantField: "temperature"},
		{name: "temperature negative", req: ChatRequest{Prompt: "hi", Temperature: floatPtr(-0.1)}, wantField: "temperature"},
		{name: "max_tokens zero", req: ChatRequest{Prompt: "hi", MaxTokens: intPtr(0)}, wantField: "max_tokens"},
		{name: "max_tokens above limit", req: ChatRequest{Prompt: "hi", MaxTokens: intPtr(2000)}, wantField: "max_tokens"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate(5000)
			if tt.wantField == "" {
				assert.Nil(t, err)
				return
			}
			if assert.NotNil(t, err) {
				assert.Equal(t, tt.wantField, err.Field)
			}
		})
	}
}

func TestRegisterRequestValidate(t *testing.T) {
	valid := RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "s3cretpass",
	}
	assert.Nil(t, valid.Validate())

	tests := []struct {
		name      string
		mutate    func(r *RegisterRequest)
		wantField string
	}{
		{name: "short username", mutate: func(r *RegisterRequest) { r.Username = "ab" }, wantField: "username"},
		{name: "bad email", mutate: func(r *RegisterRequest) { r.Email = "not-an-email" }, wantField: "email"},
		{name: "short password", mutate: func(r *RegisterRequest) { r.Password = "short" }, wantField: "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			err := req.Validate()
			if assert.NotNil(t, err) {
				assert.Equal(t, tt.wantField, err.Field)
			}
		})
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := newValidationError("text", "must not be empty")
	assert.Equal(t, "text: must not be empty", err.Error())
}
