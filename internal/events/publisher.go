// Package events publishes analysis result notifications to Kafka so
// downstream consumers can react without polling the object store.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/confluentinc/confluent-kafka-go/kafka"

	"github.com/spacesedan/sentigate/config"
	"github.com/spacesedan/sentigate/internal/models"
)

const PRODUCE_RETRIES = 3

type Publisher interface {
	PublishAnalysis(ctx context.Context, event models.AnalysisEvent) error
	Close()
}

type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
}

func NewKafkaPublisher(cfg config.EventsSettings) (*KafkaPublisher, error) {
	slog.Info("[EventPublisher] Initializing Kafka producer...")

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":   cfg.Broker,
		"security.protocol":   "PLAINTEXT",
		"api.version.request": "true",
		"enable.idempotence":  true,
		"acks":                "all",
	})
	if err != nil {
		return nil, fmt.Errorf("[EventPublisher] Failed to create producer: %w", err)
	}

	pub := &KafkaPublisher{
		producer: p,
		topic:    cfg.Topic,
	}
	go pub.drainEvents()

	slog.Info("[EventPublisher] Kafka producer initialized successfully",
		slog.String("topic", cfg.Topic))
	return pub, nil
}

// buildMessage keys the record by request ID so all events for one request
// land on the same partition.
func buildMessage(topic string, event models.AnalysisEvent) (*kafka.Message, error) {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("[EventPublisher] Failed to marshal event: %w", err)
	}
	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            []byte(event.RequestID),
		Value:          jsonData,
	}, nil
}

// PublishAnalysis enqueues one event for delivery. Events are advisory, so
// delivery is confirmed asynchronously and failures are only logged.
func (p *KafkaPublisher) PublishAnalysis(ctx context.Context, event models.AnalysisEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := buildMessage(p.topic, event)
	if err != nil {
		return err
	}

	for i := 0; i < PRODUCE_RETRIES; i++ {
		err = p.producer.Produce(msg, nil)
		if err == nil {
			return nil
		}
		slog.Warn("[EventPublisher] Failed to produce message, retrying...",
			slog.Int("attempt", i+1))
	}
	return fmt.Errorf("[EventPublisher] Failed to produce message after %d attempts: %w", PRODUCE_RETRIES, err)
}

func (p *KafkaPublisher) Close() {
	slog.Info("[EventPublisher] Flushing Kafka producer before shutdown...")
	if remaining := p.producer.Flush(5000); remaining > 0 {
		slog.Warn("[EventPublisher] Not all messages were delivered before shutdown",
			slog.Int("remaining", remaining))
	}
	p.producer.Close()
}

// drainEvents consumes delivery reports until the producer closes. Without
// this the report channel fills and Produce starts failing.
func (p *KafkaPublisher) drainEvents() {
	for e := range p.producer.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				slog.Warn("[EventPublisher] Delivery failed",
					slog.String("key", string(ev.Key)),
					slog.String("error", ev.TopicPartition.Error.Error()))
			}
		case kafka.Error:
			slog.Warn("[EventPublisher] Producer error",
				slog.String("error", ev.Error()))
		}
	}
}

// NoopPublisher satisfies Publisher when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishAnalysis(ctx context.Context, event models.AnalysisEvent) error {
	return nil
}

func (NoopPublisher) Close() {}
