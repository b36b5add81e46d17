package repository

import (
	"errors"
	"fmt"
)

// ErrIDExhausted is returned by GenerateUniqueID when the attempt budget is
// spent on collisions without a terminal store failure.
var ErrIDExhausted = errors.New("unique id generation: attempt budget exhausted")

// errCollision marks a candidate identifier that already exists. It consumes
// a retry attempt but is never reported to the failure sink.
var errCollision = errors.New("id collision")

// StoreError wraps any failure originating from the record store:
// connectivity, constraint violation, timeout, or a statement the store
// would reject (such as an unknown column).
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeErr(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

func storeErrf(op, format string, args ...interface{}) error {
	return &StoreError{Op: op, Err: fmt.Errorf(format, args...)}
}

// ConversionError reports a generated candidate identifier that could not be
// coerced to the requested scalar kind.
type ConversionError struct {
	Value string
	Kind  IDKind
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("convert candidate %q to %s: %v", e.Value, e.Kind, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// ConfigurationError reports a repository used without a record type or
// identifying field configured.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "repository configuration: " + e.Reason
}
