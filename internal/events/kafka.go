package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/segmentio/kafka-go"

	"incidentcore/internal/config"
	"incidentcore/internal/core"
)

// KafkaPublisher delivers change events to a Kafka topic. Messages are keyed
// by table name so all changes to one table land on the same partition.
type KafkaPublisher struct {
	writer *kafka.Writer
	mu     sync.RWMutex
	closed bool
}

// NewKafkaPublisher creates a Kafka-backed publisher.
func NewKafkaPublisher(cfg *config.KafkaConfig) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one Kafka broker is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("Kafka topic is required")
	}

	log.Printf("[KAFKA] Initializing change-event publisher...")
	log.Printf("[KAFKA] Brokers: %v", cfg.Brokers)
	log.Printf("[KAFKA] Topic: %s", cfg.Topic)
	log.Printf("[KAFKA] Required Acks: %d", cfg.RequiredAcks)

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		MaxAttempts:  3,
		Async:        false, // Synchronous writes for reliability
	}

	return &KafkaPublisher{writer: writer}, nil
}

// Publish delivers a single event to the topic.
func (k *KafkaPublisher) Publish(ctx context.Context, event *core.ChangeEvent) error {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if k.closed {
		return ErrPublisherClosed
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.Table),
		Value: payload,
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write event to Kafka: %w", err)
	}
	return nil
}

// Close closes the underlying Kafka writer.
func (k *KafkaPublisher) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.closed {
		return nil
	}
	k.closed = true
	return k.writer.Close()
}
