package repository

import (
	"context"
	"log"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"incidentcore/internal/core"
)

// DefaultMaxAttempts is the number of times any façade operation is tried
// before the failure is surfaced to the caller.
const DefaultMaxAttempts = 10

// DefaultIDLength is the length of generated identifiers.
const DefaultIDLength = 12

// Default character sets for identifier generation.
const (
	CharsetDigits    = "0123456789"
	CharsetUppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	CharsetLowercase = "abcdefghijklmnopqrstuvwxyz"
)

// IDKind is the scalar kind a generated identifier is coerced into.
type IDKind string

const (
	IDString IDKind = "string"
	IDInt    IDKind = "int"
	IDFloat  IDKind = "float"
)

// CRUD wraps a generic Repository with automatic retry-on-failure and a
// unique-identifier generation protocol for one table bound to one
// identifying field. Every public operation opens a fresh Session per
// attempt, performs a single underlying repository call and either returns
// the result or retries; only the final attempt's failure propagates.
type CRUD struct {
	db          core.Database
	repo        *Repository
	idField     string
	maxAttempts int
	sink        core.FailureSink
	publisher   core.Publisher
	rng         *rand.Rand
}

// Option configures a CRUD façade.
type Option func(*CRUD)

// WithMaxAttempts overrides the retry budget. Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(c *CRUD) {
		if n >= 1 {
			c.maxAttempts = n
		}
	}
}

// WithFailureSink routes every caught failure to the given sink.
func WithFailureSink(sink core.FailureSink) Option {
	return func(c *CRUD) { c.sink = sink }
}

// WithPublisher publishes a change event after every successful write.
func WithPublisher(p core.Publisher) Option {
	return func(c *CRUD) { c.publisher = p }
}

// WithRand injects a deterministic random source for identifier generation.
func WithRand(rng *rand.Rand) Option {
	return func(c *CRUD) { c.rng = rng }
}

// NewCRUD builds a retrying façade over the schema's table. The identifying
// field must be a declared column; its value is unique per record.
func NewCRUD(db core.Database, schema *core.Schema, idField string, opts ...Option) (*CRUD, error) {
	if db == nil {
		return nil, &ConfigurationError{Reason: "database is required"}
	}
	repo, err := NewRepository(schema)
	if err != nil {
		return nil, err
	}
	if idField == "" {
		return nil, &ConfigurationError{Reason: "identifying field is required"}
	}
	if !schema.HasColumn(idField) {
		return nil, &ConfigurationError{Reason: "identifying field " + strconv.Quote(idField) + " is not a declared column"}
	}
	c := &CRUD{
		db:          db,
		repo:        repo,
		idField:     idField,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Repository exposes the underlying generic repository for callers that
// manage their own sessions.
func (c *CRUD) Repository() *Repository {
	return c.repo
}

// withRetry runs fn up to c.maxAttempts times, each attempt against a fresh
// session released on every exit path. Failures are reported to the sink;
// the final attempt's failure is returned to the caller.
func withRetry[T any](ctx context.Context, c *CRUD, op string, fn func(*Session) (T, error)) (T, error) {
	var zero T
	for attempt := 1; ; attempt++ {
		value, err := func() (T, error) {
			session, err := newSession(ctx, c.db)
			if err != nil {
				return zero, err
			}
			defer session.Close()
			return fn(session)
		}()
		if err == nil {
			return value, nil
		}
		c.report(op, err)
		if attempt >= c.maxAttempts {
			return zero, err
		}
	}
}

func (c *CRUD) report(op string, cause error) {
	if cause == errCollision {
		// Collisions consume an attempt but are not failures.
		return
	}
	operation := c.repo.schema.TableName + " " + op
	if c.sink == nil {
		log.Printf("[REPO] %s failed: %v", operation, cause)
		return
	}
	if _, err := c.sink.Report("database", operation, cause); err != nil {
		log.Printf("[REPO] failure report for %s dropped: %v", operation, err)
	}
}

func (c *CRUD) publish(change core.ChangeType, key interface{}, fields core.Record) {
	if c.publisher == nil {
		return
	}
	event := &core.ChangeEvent{
		Table:     c.repo.schema.TableName,
		Change:    change,
		Key:       key,
		Fields:    fields,
		Timestamp: time.Now().UTC(),
	}
	// A failed publish never fails the write it describes.
	if err := c.publisher.Publish(context.Background(), event); err != nil {
		log.Printf("[REPO] change event for %s dropped: %v", c.repo.schema.TableName, err)
	}
}

// Create inserts a new record and returns the fully populated row. The
// identifying field may be omitted; the store assigns it.
func (c *CRUD) Create(ctx context.Context, fields core.Record) (core.Record, error) {
	record, err := withRetry(ctx, c, "create", func(s *Session) (core.Record, error) {
		return c.repo.Create(ctx, s, fields)
	})
	if err != nil {
		return nil, err
	}
	c.publish(core.ChangeCreate, record[c.idField], record)
	return record, nil
}

// GetAll returns every record of the table.
func (c *CRUD) GetAll(ctx context.Context) ([]core.Record, error) {
	return withRetry(ctx, c, "get_all", func(s *Session) ([]core.Record, error) {
		return c.repo.GetAll(ctx, s)
	})
}

// GetAllFiltered returns the records matching the filter conjunction with
// optional ordering and pagination.
func (c *CRUD) GetAllFiltered(ctx context.Context, filters []core.Filter, sort *core.Sort, limit, offset *int) ([]core.Record, error) {
	return withRetry(ctx, c, "get_all_filtered", func(s *Session) ([]core.Record, error) {
		return c.repo.GetAllFiltered(ctx, s, filters, sort, limit, offset)
	})
}

// UpdateFiltered applies the field updates to every matching record and
// returns the affected count. An empty filter set updates all records.
func (c *CRUD) UpdateFiltered(ctx context.Context, fields core.Record, filters []core.Filter) (int64, error) {
	affected, err := withRetry(ctx, c, "update_filtered", func(s *Session) (int64, error) {
		return c.repo.UpdateFiltered(ctx, s, fields, filters)
	})
	if err != nil {
		return 0, err
	}
	if affected > 0 {
		c.publish(core.ChangeUpdate, nil, fields)
	}
	return affected, nil
}

// DeleteFiltered deletes every matching record and returns the affected
// count. An empty filter set deletes all records.
func (c *CRUD) DeleteFiltered(ctx context.Context, filters []core.Filter) (int64, error) {
	affected, err := withRetry(ctx, c, "delete_filtered", func(s *Session) (int64, error) {
		return c.repo.DeleteFiltered(ctx, s, filters)
	})
	if err != nil {
		return 0, err
	}
	if affected > 0 {
		c.publish(core.ChangeDelete, nil, nil)
	}
	return affected, nil
}

// Handle binds the façade to one identifying-field value for point
// operations.
type Handle struct {
	crud *CRUD
	id   interface{}
}

// ByID returns a handle bound to the given identifying-field value.
func (c *CRUD) ByID(id interface{}) *Handle {
	return &Handle{crud: c, id: id}
}

// Get looks up the single record whose identifying field equals the bound
// identifier. Returns nil when no record matches.
func (h *Handle) Get(ctx context.Context) (core.Record, error) {
	c := h.crud
	return withRetry(ctx, c, "get", func(s *Session) (core.Record, error) {
		return c.repo.GetOne(ctx, s, core.Eq(c.idField, h.id))
	})
}

// Update applies the field updates to the bound record and returns the
// affected count.
func (h *Handle) Update(ctx context.Context, fields core.Record) (int64, error) {
	c := h.crud
	affected, err := withRetry(ctx, c, "update", func(s *Session) (int64, error) {
		return c.repo.UpdateFiltered(ctx, s, fields, []core.Filter{core.Eq(c.idField, h.id)})
	})
	if err != nil {
		return 0, err
	}
	if affected > 0 {
		c.publish(core.ChangeUpdate, h.id, fields)
	}
	return affected, nil
}

// Delete removes the bound record and returns the affected count.
func (h *Handle) Delete(ctx context.Context) (int64, error) {
	c := h.crud
	affected, err := withRetry(ctx, c, "delete", func(s *Session) (int64, error) {
		return c.repo.DeleteFiltered(ctx, s, []core.Filter{core.Eq(c.idField, h.id)})
	})
	if err != nil {
		return 0, err
	}
	if affected > 0 {
		c.publish(core.ChangeDelete, h.id, nil)
	}
	return affected, nil
}

// IDOptions configures GenerateUniqueID. Zero values select the defaults:
// digits plus upper- and lowercase letters, length 12, string kind.
type IDOptions struct {
	Charsets []string
	Length   int
	Kind     IDKind
}

// GenerateUniqueID draws random candidate identifiers until one is not
// already taken by an existing record. Collisions, coercion failures and
// transient store failures all consume attempts from the same budget of
// MaxAttempts; each attempt opens a fresh session. The first free candidate
// is returned immediately.
func (c *CRUD) GenerateUniqueID(ctx context.Context, opts IDOptions) (interface{}, error) {
	charsets := opts.Charsets
	if len(charsets) == 0 {
		charsets = []string{CharsetDigits, CharsetUppercase, CharsetLowercase}
	}
	alphabet := strings.Join(charsets, "")
	if alphabet == "" {
		return nil, &ConfigurationError{Reason: "empty identifier alphabet"}
	}
	length := opts.Length
	if length <= 0 {
		length = DefaultIDLength
	}
	kind := opts.Kind
	if kind == "" {
		kind = IDString
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		value, err := func() (interface{}, error) {
			session, err := newSession(ctx, c.db)
			if err != nil {
				return nil, err
			}
			defer session.Close()

			candidate := c.randomString(alphabet, length)
			value, err := coerceID(candidate, kind)
			if err != nil {
				return nil, err
			}
			existing, err := c.repo.GetOne(ctx, session, core.Eq(c.idField, value))
			if err != nil {
				return nil, err
			}
			if existing != nil {
				return nil, errCollision
			}
			return value, nil
		}()
		if err == nil {
			return value, nil
		}
		c.report("generate_id", err)
		lastErr = err
	}
	if lastErr == errCollision {
		return nil, ErrIDExhausted
	}
	return nil, lastErr
}

func (c *CRUD) randomString(alphabet string, length int) string {
	var sb strings.Builder
	sb.Grow(length)
	for i := 0; i < length; i++ {
		if c.rng != nil {
			sb.WriteByte(alphabet[c.rng.Intn(len(alphabet))])
		} else {
			sb.WriteByte(alphabet[rand.Intn(len(alphabet))])
		}
	}
	return sb.String()
}

func coerceID(candidate string, kind IDKind) (interface{}, error) {
	switch kind {
	case IDString:
		return candidate, nil
	case IDInt:
		value, err := strconv.ParseInt(candidate, 10, 64)
		if err != nil {
			return nil, &ConversionError{Value: candidate, Kind: kind, Err: err}
		}
		return value, nil
	case IDFloat:
		value, err := strconv.ParseFloat(candidate, 64)
		if err != nil {
			return nil, &ConversionError{Value: candidate, Kind: kind, Err: err}
		}
		return value, nil
	default:
		return nil, &ConfigurationError{Reason: "unknown identifier kind " + strconv.Quote(string(kind))}
	}
}
