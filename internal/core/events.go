package core

import (
	"context"
	"time"
)

// ChangeType represents the type of write applied to a record.
type ChangeType string

const (
	// ChangeCreate represents an INSERT.
	ChangeCreate ChangeType = "CREATE"

	// ChangeUpdate represents an UPDATE.
	ChangeUpdate ChangeType = "UPDATE"

	// ChangeDelete represents a DELETE.
	ChangeDelete ChangeType = "DELETE"
)

// ChangeEvent describes one committed write against a table. Events are
// published after the write succeeds; consumers must tolerate duplicates.
type ChangeEvent struct {
	// Table is the name of the table the write targeted.
	Table string `json:"table"`

	// Change is the type of write (CREATE, UPDATE, DELETE).
	Change ChangeType `json:"change"`

	// Key is the identifying-field value for point writes. Nil for
	// filter-based bulk writes.
	Key interface{} `json:"key,omitempty"`

	// Fields contains the written field values for CREATE and UPDATE.
	Fields Record `json:"fields,omitempty"`

	// Timestamp is when the write was performed.
	Timestamp time.Time `json:"timestamp"`
}

// Publisher delivers change events to interested consumers.
type Publisher interface {
	// Publish delivers a single event. A failed publish must not fail the
	// write it describes; callers log and continue.
	Publish(ctx context.Context, event *ChangeEvent) error

	// Close releases resources held by the publisher.
	Close() error
}

// FailureSink receives every failure caught inside a retry loop. The receipt
// identifies the persisted report; callers do not interpret it.
type FailureSink interface {
	Report(category, operation string, cause error) (receipt string, err error)
}
