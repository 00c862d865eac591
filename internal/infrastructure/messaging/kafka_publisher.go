package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/healthbox/diabetes-risk/pkg/events"
	"github.com/healthbox/diabetes-risk/pkg/kafka"
)

// MessageProducer is the subset of *kafka.Producer the publisher needs.
type MessageProducer interface {
	Publish(ctx context.Context, topic string, messages ...kafka.Message) error
}

// Envelope is the JSON value written for every domain event.
type Envelope struct {
	OccurredAt    time.Time       `json:"occurred_at"`
	EventType     string          `json:"event_type"`
	AggregateType string          `json:"aggregate_type"`
	Payload       json.RawMessage `json:"payload"`
	EventID       uuid.UUID       `json:"event_id"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
}

// KafkaPublisher implements port.EventPublisher using Kafka. Messages are
// keyed by aggregate ID so events of one assessment stay ordered.
type KafkaPublisher struct {
	producer MessageProducer
	logger   *slog.Logger
	topic    string
}

// NewKafkaPublisher creates a new Kafka event publisher.
func NewKafkaPublisher(producer MessageProducer, topic string, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
}

// Publish sends domain events to Kafka in a single batch.
func (p *KafkaPublisher) Publish(ctx context.Context, evts ...events.DomainEvent) error {
	if len(evts) == 0 {
		return nil
	}

	messages := make([]kafka.Message, 0, len(evts))
	for _, evt := range evts {
		msg, err := toMessage(evt)
		if err != nil {
			return err
		}
		messages = append(messages, msg)

		p.logger.Debug("publishing event",
			slog.String("event_type", evt.EventType()),
			slog.String("topic", p.topic),
			slog.Int("payload_size", len(msg.Value)),
		)
	}

	if err := p.producer.Publish(ctx, p.topic, messages...); err != nil {
		return fmt.Errorf("failed to publish %d events: %w", len(messages), err)
	}
	return nil
}

func toMessage(evt events.DomainEvent) (kafka.Message, error) {
	payload := evt.Payload()
	if len(payload) == 0 {
		payload = []byte("null")
	}

	value, err := json.Marshal(Envelope{
		EventID:       evt.EventID(),
		EventType:     evt.EventType(),
		AggregateID:   evt.AggregateID(),
		AggregateType: evt.AggregateType(),
		OccurredAt:    evt.OccurredAt(),
		Payload:       payload,
	})
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal event %s: %w", evt.EventType(), err)
	}

	return kafka.Message{
		Key:   []byte(evt.AggregateID().String()),
		Value: value,
		Headers: map[string]string{
			"event_type":   evt.EventType(),
			"event_id":     evt.EventID().String(),
			"content_type": "application/json",
		},
	}, nil
}
