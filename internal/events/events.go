// Package events delivers change events for committed writes. Two backends
// are provided: an in-process buffered publisher for development and tests,
// and Kafka for production fan-out.
package events

import (
	"fmt"

	"incidentcore/internal/config"
	"incidentcore/internal/core"
)

// New creates the publisher selected by the events configuration.
func New(cfg *config.EventsConfig) (core.Publisher, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryPublisher(cfg.BufferSize), nil
	case "kafka":
		return NewKafkaPublisher(&cfg.KafkaConfig)
	default:
		return nil, fmt.Errorf("unsupported events type: %s", cfg.Type)
	}
}
