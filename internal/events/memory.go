package events

import (
	"context"
	"errors"
	"sync"

	"incidentcore/internal/core"
)

var (
	// ErrPublisherClosed is returned when publishing to a closed publisher.
	ErrPublisherClosed = errors.New("publisher is closed")

	// ErrBufferFull is returned when the in-memory buffer is at capacity.
	ErrBufferFull = errors.New("event buffer is full")
)

// MemoryPublisher is an in-process, channel-backed publisher. Events are
// buffered up to the configured capacity; a full buffer fails the publish
// rather than blocking the write path.
type MemoryPublisher struct {
	mu     sync.RWMutex
	events chan *core.ChangeEvent
	closed bool
}

// NewMemoryPublisher creates an in-memory publisher with the given buffer
// capacity.
func NewMemoryPublisher(bufferSize int) *MemoryPublisher {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &MemoryPublisher{
		events: make(chan *core.ChangeEvent, bufferSize),
	}
}

// Publish buffers a single event.
func (m *MemoryPublisher) Publish(ctx context.Context, event *core.ChangeEvent) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return ErrPublisherClosed
	}
	select {
	case m.events <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrBufferFull
	}
}

// Events exposes the buffered events for consumers.
func (m *MemoryPublisher) Events() <-chan *core.ChangeEvent {
	return m.events
}

// Close closes the publisher. Buffered events remain readable.
func (m *MemoryPublisher) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	close(m.events)
	return nil
}
