package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/sentigate/internal/models"
)

func TestNoopPublisher(t *testing.T) {
	var pub Publisher = NoopPublisher{}

	err := pub.PublishAnalysis(context.Background(), models.AnalysisEvent{RequestID: "req-1"})
	assert.NoError(t, err)
	assert.NotPanics(t, pub.Close)
}

func TestBuildMessage(t *testing.T) {
	event := models.AnalysisEvent{
		RequestID:  "req-1",
		Kind:       "sentiment",
		Label:      "positive",
		Confidence: 0.91,
		Timestamp:  "2025-03-14T12:00:00Z",
	}

	msg, err := buildMessage("analysis-results", event)
	require.NoError(t, err)

	require.NotNil(t, msg.TopicPartition.Topic)
	assert.Equal(t, "analysis-results", *msg.TopicPartition.Topic)
	assert.Equal(t, []byte("req-1"), msg.Key)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "req-1", decoded["request_id"])
	assert.Equal(t, "sentiment", decoded["kind"])
	assert.Equal(t, "positive", decoded["label"])
	assert.InDelta(t, 0.91, decoded["confidence"].(float64), 0.001)
}
