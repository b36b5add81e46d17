package repository

import (
	"context"
	"log"

	"incidentcore/internal/core"
)

// Session is a scoped unit of work against the record store. Write
// operations commit it before returning; Close releases it on every exit
// path, rolling back anything uncommitted.
type Session struct {
	tx   core.Transaction
	done bool
}

func newSession(ctx context.Context, db core.Database) (*Session, error) {
	tx, err := db.BeginTx(ctx)
	if err != nil {
		return nil, storeErr("begin", err)
	}
	return &Session{tx: tx}, nil
}

// Commit commits the unit of work. A Session can be committed at most once.
func (s *Session) Commit() error {
	if s.done {
		return nil
	}
	s.done = true
	if err := s.tx.Commit(); err != nil {
		return storeErr("commit", err)
	}
	return nil
}

// Close releases the session. If it was not committed the transaction is
// rolled back. Close is safe to call on every exit path, including after
// Commit.
func (s *Session) Close() {
	if s.done {
		return
	}
	s.done = true
	if err := s.tx.Rollback(); err != nil {
		log.Printf("[REPO] rollback failed: %v", err)
	}
}
