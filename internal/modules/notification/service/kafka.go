package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer used for publishing.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes milestone events keyed by subject so a subject's
// events stay ordered within a partition.
type KafkaPublisher struct {
	mu     sync.Mutex
	writer MessageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return NewKafkaPublisherWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		Async:        false,
	})
}

func NewKafkaPublisherWithWriter(writer MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event MilestoneEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode milestone event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.SubjectID.String()),
		Value: payload,
		Time:  event.AwardedAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "milestone", Value: []byte(event.Milestone)},
		},
	}

	p.mu.Lock()
	writer := p.writer
	p.mu.Unlock()
	if writer == nil {
		return fmt.Errorf("kafka publisher is closed")
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish milestone to kafka: %w", err)
	}
	return nil
}

// Close releases the writer.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.writer == nil {
		return nil
	}
	err := p.writer.Close()
	p.writer = nil
	return err
}
