package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"antisocial/internal/middleware"
	"antisocial/internal/observability"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes like events to a Kafka topic keyed by post id, so every event of a
// post lands on the same partition in order.
type KafkaPublisher struct {
	w     messageWriter
	topic string
}

// NewKafkaPublisher creates an asynchronous producer for topic. Delivery errors are reported
// through the completion callback since WriteMessages returns before the broker acknowledges.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err == nil {
				return
			}
			observability.EventPublishErrors.WithLabelValues("kafka").Add(float64(len(messages)))
			middleware.Logger.Error("kafka delivery failed",
				slog.String("topic", topic),
				slog.Int("messages", len(messages)),
				slog.String("error", err.Error()),
			)
		},
	}
	return &KafkaPublisher{w: w, topic: topic}
}

// Publish implements Publisher.
func (p *KafkaPublisher) Publish(ctx context.Context, ev LikeEvent) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal like event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(ev.PostID), 10)),
		Value: value,
		Time:  ev.OccurredAt,
	}
	if ev.CorrelationID != "" {
		msg.Headers = []kafka.Header{{Key: "correlation_id", Value: []byte(ev.CorrelationID)}}
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write to kafka topic %s: %w", p.topic, err)
	}
	return nil
}

// Name implements Publisher.
func (p *KafkaPublisher) Name() string { return "kafka" }

// Close flushes pending messages and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}
