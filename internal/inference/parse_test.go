package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/sentigate/internal/models"
)

func assertScoresInvariant(t *testing.T, result models.SentimentResult) {
	t.Helper()

	require.Len(t, result.Scores, 3)
	sum := 0.0
	for _, label := range []string{models.SentimentPositive, models.SentimentNegative, models.SentimentNeutral} {
		v, ok := result.Scores[label]
		require.True(t, ok, "missing score for %s", label)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 0.001)

	for label, v := range result.Scores {
		assert.LessOrEqual(t, v, result.Scores[result.Label],
			"label %s should not outscore the winning label", label)
	}
}

func TestCleanResponse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain object",
			in:   `{"sentiment":"positive"}`,
			want: `{"sentiment":"positive"}`,
		},
		{
			name: "json fence",
			in:   "```json\n{\"sentiment\":\"positive\"}\n```",
			want: `{"sentiment":"positive"}`,
		},
		{
			name: "bare fence",
			in:   "```\n{\"a\":1}\n```",
			want: `{"a":1}`,
		},
		{
			name: "surrounding whitespace",
			in:   "  \n {\"a\":1} \n ",
			want: `{"a":1}`,
		},
		{
			name: "prose reply",
			in:   "The sentiment is positive.",
			want: "",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanResponse(tt.in))
		})
	}
}

func TestParseSentiment(t *testing.T) {
	raw := `{"sentiment":"positive","confidence":0.9,"scores":{"positive":0.9,"negative":0.05,"neutral":0.05}}`

	result, ok := parseSentiment(raw)
	require.True(t, ok)
	assert.Equal(t, models.SentimentPositive, result.Label)
	assert.InDelta(t, 0.9, result.Confidence, 0.001)
	assertScoresInvariant(t, result)
}

func TestParseSentiment_FencedResponse(t *testing.T) {
	raw := "```json\n{\"sentiment\":\"negative\",\"confidence\":0.8,\"scores\":{\"positive\":0.1,\"negative\":0.8,\"neutral\":0.1}}\n```"

	result, ok := parseSentiment(raw)
	require.True(t, ok)
	assert.Equal(t, models.SentimentNegative, result.Label)
	assertScoresInvariant(t, result)
}

func TestParseSentiment_LabelFollowsScores(t *testing.T) {
	// The reported label disagrees with the score map; the scores win.
	raw := `{"sentiment":"positive","confidence":0.9,"scores":{"positive":0.2,"negative":0.7,"neutral":0.1}}`

	result, ok := parseSentiment(raw)
	require.True(t, ok)
	assert.Equal(t, models.SentimentNegative, result.Label)
	assertScoresInvariant(t, result)
}

func TestParseSentiment_ScoresRescaled(t *testing.T) {
	// Scores that do not sum to 1 are scaled, not rejected.
	raw := `{"sentiment":"positive","confidence":0.6,"scores":{"positive":3,"negative":1,"neutral":1}}`

	result, ok := parseSentiment(raw)
	require.True(t, ok)
	assert.Equal(t, models.SentimentPositive, result.Label)
	assert.InDelta(t, 0.6, result.Scores[models.SentimentPositive], 0.001)
	assertScoresInvariant(t, result)
}

func TestParseSentiment_NegativeScoresClamped(t *testing.T) {
	raw := `{"sentiment":"neutral","confidence":0.5,"scores":{"positive":-2,"negative":0.25,"neutral":0.75}}`

	result, ok := parseSentiment(raw)
	require.True(t, ok)
	assert.Equal(t, models.SentimentNeutral, result.Label)
	assert.Zero(t, result.Scores[models.SentimentPositive])
	assertScoresInvariant(t, result)
}

func TestParseSentiment_MissingScores(t *testing.T) {
	// Only a label and confidence: the remainder lands on neutral.
	raw := `{"sentiment":"positive","confidence":0.7}`

	result, ok := parseSentiment(raw)
	require.True(t, ok)
	assert.Equal(t, models.SentimentPositive, result.Label)
	assert.InDelta(t, 0.7, result.Scores[models.SentimentPositive], 0.001)
	assert.InDelta(t, 0.3, result.Scores[models.SentimentNeutral], 0.001)
	assertScoresInvariant(t, result)
}

func TestParseSentiment_Unusable(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "prose", raw: "I think this text is quite positive overall."},
		{name: "invalid json", raw: `{"sentiment": positive}`},
		{name: "unknown label no scores", raw: `{"sentiment":"great","confidence":0.9}`},
		{name: "zero everything", raw: `{"sentiment":"positive","confidence":0}`},
		{name: "empty object", raw: `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := parseSentiment(tt.raw)
			assert.False(t, ok)
		})
	}
}

func TestFallbackSentiment(t *testing.T) {
	result := fallbackSentiment()
	assert.Equal(t, models.SentimentNeutral, result.Label)
	assert.Zero(t, result.Confidence)
	assertScoresInvariant(t, result)
}

func TestParseClassification(t *testing.T) {
	raw := `{"category":"Technology","confidence":0.85,"scores":{"Technology":0.85,"Business":0.15}}`

	result, ok := parseClassification(raw, DefaultCategories)
	require.True(t, ok)
	assert.Equal(t, "Technology", result.Category)
	assert.InDelta(t, 0.85, result.Confidence, 0.001)
}

func TestParseClassification_CaseInsensitiveMatch(t *testing.T) {
	raw := `{"category":"technology","confidence":0.7}`

	result, ok := parseClassification(raw, DefaultCategories)
	require.True(t, ok)
	// Canonical casing from the configured set.
	assert.Equal(t, "Technology", result.Category)
}

func TestParseClassification_UnknownCategory(t *testing.T) {
	raw := `{"category":"Gardening","confidence":0.9}`

	_, ok := parseClassification(raw, DefaultCategories)
	assert.False(t, ok)
}

func TestFallbackClassification(t *testing.T) {
	result := fallbackClassification()
	assert.Equal(t, models.CategoryUnknown, result.Category)
	assert.Zero(t, result.Confidence)
}

func TestParseImageClassification(t *testing.T) {
	raw := `{"category":"photograph","confidence":0.92,"description":"A dog on a beach"}`

	result, ok := parseImageClassification(raw)
	require.True(t, ok)
	assert.Equal(t, "photograph", result.Category)
	assert.InDelta(t, 0.92, result.Confidence, 0.001)
	assert.Equal(t, "A dog on a beach", result.Description)
}

func TestArgmaxStableOrder(t *testing.T) {
	// Exact ties resolve in a fixed order so results are deterministic.
	scores := map[string]float64{
		models.SentimentPositive: 0.4,
		models.SentimentNegative: 0.4,
		models.SentimentNeutral:  0.2,
	}
	assert.Equal(t, models.SentimentPositive, argmax(scores))
}
