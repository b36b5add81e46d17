package incidents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"incidentcore/internal/core"
	"incidentcore/internal/repository"
)

// Repository is the incident-bound CRUD façade: the generic retrying
// machinery parameterized with the incident schema and its integer
// identifying field, plus an optional read-through cache on point lookups.
type Repository struct {
	crud     *repository.CRUD
	cache    core.KVStore
	cacheTTL time.Duration
	idLength int
}

// Option configures an incident repository.
type Option func(*settings)

type settings struct {
	cache    core.KVStore
	cacheTTL time.Duration
	idLength int
	crudOpts []repository.Option
}

// WithCache enables read-through caching of point lookups.
func WithCache(kv core.KVStore, ttl time.Duration) Option {
	return func(s *settings) {
		s.cache = kv
		s.cacheTTL = ttl
	}
}

// WithFailureSink routes retry-loop failures to the given sink.
func WithFailureSink(sink core.FailureSink) Option {
	return func(s *settings) {
		s.crudOpts = append(s.crudOpts, repository.WithFailureSink(sink))
	}
}

// WithPublisher publishes change events after successful writes.
func WithPublisher(p core.Publisher) Option {
	return func(s *settings) {
		s.crudOpts = append(s.crudOpts, repository.WithPublisher(p))
	}
}

// WithMaxAttempts overrides the retry budget.
func WithMaxAttempts(n int) Option {
	return func(s *settings) {
		s.crudOpts = append(s.crudOpts, repository.WithMaxAttempts(n))
	}
}

// WithIDLength overrides the generated-identifier length.
func WithIDLength(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.idLength = n
		}
	}
}

// WithRand injects a deterministic random source for identifier generation.
func WithRand(rng *rand.Rand) Option {
	return func(s *settings) {
		s.crudOpts = append(s.crudOpts, repository.WithRand(rng))
	}
}

// NewRepository binds the retrying CRUD façade to the incident record type.
func NewRepository(db core.Database, opts ...Option) (*Repository, error) {
	s := settings{idLength: repository.DefaultIDLength}
	for _, opt := range opts {
		opt(&s)
	}
	crud, err := repository.NewCRUD(db, Schema(), FieldID, s.crudOpts...)
	if err != nil {
		return nil, err
	}
	return &Repository{
		crud:     crud,
		cache:    s.cache,
		cacheTTL: s.cacheTTL,
		idLength: s.idLength,
	}, nil
}

// Create inserts a new incident and returns it fully populated, including
// the store-assigned identifier.
func (r *Repository) Create(ctx context.Context, params CreateParams) (*Incident, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	record, err := r.crud.Create(ctx, params.toRecord(time.Now().UTC().Truncate(time.Second)))
	if err != nil {
		return nil, err
	}
	incident, err := fromRecord(record)
	if err != nil {
		return nil, err
	}
	r.cachePut(ctx, incident)
	return incident, nil
}

// Get returns the incident with the given identifier, or nil when absent.
// Served from the cache when possible; a miss reads through to the store
// and warms the cache.
func (r *Repository) Get(ctx context.Context, id int64) (*Incident, error) {
	if incident := r.cacheGet(ctx, id); incident != nil {
		return incident, nil
	}
	record, err := r.crud.ByID(id).Get(ctx)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}
	incident, err := fromRecord(record)
	if err != nil {
		return nil, err
	}
	r.cachePut(ctx, incident)
	return incident, nil
}

// List returns one page of incidents matching the filters, newest first.
func (r *Repository) List(ctx context.Context, params ListParams) ([]Incident, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	limit := params.PageSize
	offset := (params.Page - 1) * params.PageSize
	sort := &core.Sort{Field: "creating_date", Order: core.SortDesc}

	records, err := r.crud.GetAllFiltered(ctx, params.filters(), sort, &limit, &offset)
	if err != nil {
		return nil, err
	}
	incidents := make([]Incident, 0, len(records))
	for _, record := range records {
		incident, err := fromRecord(record)
		if err != nil {
			return nil, err
		}
		incidents = append(incidents, *incident)
	}
	return incidents, nil
}

// Update applies the set fields to the incident with the given identifier
// and returns the affected count (0 when the incident does not exist).
func (r *Repository) Update(ctx context.Context, id int64, params UpdateParams) (int64, error) {
	if err := params.Validate(); err != nil {
		return 0, err
	}
	affected, err := r.crud.ByID(id).Update(ctx, params.toRecord())
	if err != nil {
		return 0, err
	}
	r.cacheDrop(ctx, id)
	return affected, nil
}

// Delete removes the incident with the given identifier and returns the
// affected count (0 when the incident does not exist).
func (r *Repository) Delete(ctx context.Context, id int64) (int64, error) {
	affected, err := r.crud.ByID(id).Delete(ctx)
	if err != nil {
		return 0, err
	}
	r.cacheDrop(ctx, id)
	return affected, nil
}

// GenerateID draws a fresh integer identifier that no existing incident
// uses. The candidate alphabet is digits only so every draw coerces to the
// integer identifying field.
func (r *Repository) GenerateID(ctx context.Context) (int64, error) {
	value, err := r.crud.GenerateUniqueID(ctx, repository.IDOptions{
		Charsets: []string{repository.CharsetDigits},
		Length:   r.idLength,
		Kind:     repository.IDInt,
	})
	if err != nil {
		return 0, err
	}
	id, ok := value.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected identifier type %T", value)
	}
	return id, nil
}

// ----------------------------------------------------------------------------
// Cache plumbing: best effort only, never fails the store operation.
// ----------------------------------------------------------------------------

func cacheKey(id int64) string {
	return fmt.Sprintf("%s:%d", TableName, id)
}

func (r *Repository) cacheGet(ctx context.Context, id int64) *Incident {
	if r.cache == nil {
		return nil
	}
	data, err := r.cache.Get(ctx, cacheKey(id))
	if err != nil {
		if !errors.Is(err, core.ErrCacheMiss) {
			log.Printf("[CACHE] get %s failed: %v", cacheKey(id), err)
		}
		return nil
	}
	var incident Incident
	if err := json.Unmarshal(data, &incident); err != nil {
		log.Printf("[CACHE] decode %s failed: %v", cacheKey(id), err)
		return nil
	}
	return &incident
}

func (r *Repository) cachePut(ctx context.Context, incident *Incident) {
	if r.cache == nil {
		return
	}
	data, err := json.Marshal(incident)
	if err != nil {
		log.Printf("[CACHE] encode %s failed: %v", cacheKey(incident.ID), err)
		return
	}
	if err := r.cache.Set(ctx, cacheKey(incident.ID), data, r.cacheTTL); err != nil {
		log.Printf("[CACHE] set %s failed: %v", cacheKey(incident.ID), err)
	}
}

func (r *Repository) cacheDrop(ctx context.Context, id int64) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, cacheKey(id)); err != nil {
		log.Printf("[CACHE] delete %s failed: %v", cacheKey(id), err)
	}
}
