// Package kafka publishes committed escalations to a kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/example/vital/internal/config"
	"github.com/example/vital/internal/ports/secondary"
)

// messageWriter is the subset of *kafka.Writer used by the publisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher implements secondary.EventPublisher over a kafka writer.
type Publisher struct {
	mu     sync.Mutex
	closed bool
	writer messageWriter
	topic  string
	log    *zap.SugaredLogger
}

// NewPublisher creates a synchronous publisher for the configured brokers.
func NewPublisher(cfg config.Kafka, log *zap.SugaredLogger) (*Publisher, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("kafka publisher requires brokers and a topic")
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           50 * time.Millisecond,
		WriteTimeout:           5 * time.Second,
		RequiredAcks:           kafka.RequireOne,
		Compression:            kafka.Snappy,
		AllowAutoTopicCreation: false,
	}

	log.Infow("Kafka escalation publisher created", "brokers", cfg.Brokers, "topic", cfg.Topic)
	return newPublisher(writer, cfg.Topic, log), nil
}

func newPublisher(w messageWriter, topic string, log *zap.SugaredLogger) *Publisher {
	return &Publisher{writer: w, topic: topic, log: log.Named("kafka-events")}
}

// PublishEscalation writes one event keyed by issue ID so events of the
// same issue stay ordered within a partition.
func (p *Publisher) PublishEscalation(ctx context.Context, event secondary.EscalationEvent) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return fmt.Errorf("kafka publisher is closed")
	}
	p.mu.Unlock()

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal escalation event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.IssueID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte("escalation." + event.Type)},
			{Key: "timestamp", Value: []byte(event.At.UTC().Format(time.RFC3339))},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish escalation event: %w", err)
	}

	p.log.Debugw("Published escalation event", "issueId", event.IssueID, "to", event.To)
	return nil
}

// Close flushes pending writes and closes the writer.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer: %w", err)
	}
	return nil
}

// NopPublisher discards events. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishEscalation(context.Context, secondary.EscalationEvent) error { return nil }

func (NopPublisher) Close() error { return nil }

var (
	_ secondary.EventPublisher = (*Publisher)(nil)
	_ secondary.EventPublisher = NopPublisher{}
)
