package incidents

import (
	"context"
	"math/rand"
	"strings"
	"testing"
	"time"

	"incidentcore/internal/core"
)

// fakeDB scripts the record store per query call.
type fakeDB struct {
	onQuery func(call int, query string, args []interface{}) (core.Rows, error)
	onExec  func(call int, query string, args []interface{}) (core.Result, error)

	queries  int
	execs    int
	queryLog []string
	argLog   [][]interface{}
}

func (d *fakeDB) BeginTx(ctx context.Context) (core.Transaction, error) {
	return &fakeTx{db: d}, nil
}

func (d *fakeDB) Query(ctx context.Context, query string, args ...interface{}) (core.Rows, error) {
	return d.query(query, args)
}

func (d *fakeDB) Exec(ctx context.Context, query string, args ...interface{}) (core.Result, error) {
	return d.exec(query, args)
}

func (d *fakeDB) Ping(ctx context.Context) error { return nil }
func (d *fakeDB) Close() error                   { return nil }

func (d *fakeDB) query(query string, args []interface{}) (core.Rows, error) {
	d.queries++
	d.queryLog = append(d.queryLog, query)
	d.argLog = append(d.argLog, args)
	if d.onQuery != nil {
		return d.onQuery(d.queries, query, args)
	}
	return &fakeRows{}, nil
}

func (d *fakeDB) exec(query string, args []interface{}) (core.Result, error) {
	d.execs++
	if d.onExec != nil {
		return d.onExec(d.execs, query, args)
	}
	return fakeResult{insertID: 1, affected: 1}, nil
}

type fakeTx struct {
	db *fakeDB
}

func (t *fakeTx) Query(ctx context.Context, query string, args ...interface{}) (core.Rows, error) {
	return t.db.query(query, args)
}

func (t *fakeTx) Exec(ctx context.Context, query string, args ...interface{}) (core.Result, error) {
	return t.db.exec(query, args)
}

func (t *fakeTx) Commit() error   { return nil }
func (t *fakeTx) Rollback() error { return nil }

type fakeRows struct {
	rows [][]interface{}
	idx  int
}

func (r *fakeRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}

func (r *fakeRows) Scan(dest ...interface{}) error {
	row := r.rows[r.idx-1]
	for i := range dest {
		*(dest[i].(*interface{})) = row[i]
	}
	return nil
}

func (r *fakeRows) Close() error { return nil }
func (r *fakeRows) Err() error   { return nil }

type fakeResult struct {
	insertID int64
	affected int64
}

func (r fakeResult) LastInsertId() (int64, error) { return r.insertID, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.affected, nil }

// fakeKV is a map-backed KVStore with call counters.
type fakeKV struct {
	data    map[string][]byte
	gets    int
	sets    int
	deletes int
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string][]byte{}}
}

func (kv *fakeKV) Get(ctx context.Context, key string) ([]byte, error) {
	kv.gets++
	value, ok := kv.data[key]
	if !ok {
		return nil, core.ErrCacheMiss
	}
	return value, nil
}

func (kv *fakeKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	kv.sets++
	kv.data[key] = value
	return nil
}

func (kv *fakeKV) Delete(ctx context.Context, key string) error {
	kv.deletes++
	delete(kv.data, key)
	return nil
}

func (kv *fakeKV) Close() error { return nil }

// incidentRow builds one raw value row in incident schema column order.
func incidentRow(id int64, description, status, source string) []interface{} {
	return []interface{}{
		id,
		[]byte(description),
		[]byte(status),
		[]byte(source),
		time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC),
	}
}

func TestCreateReturnsPopulatedIncident(t *testing.T) {
	db := &fakeDB{
		onExec: func(call int, query string, args []interface{}) (core.Result, error) {
			return fakeResult{insertID: 3, affected: 1}, nil
		},
		onQuery: func(call int, query string, args []interface{}) (core.Rows, error) {
			return &fakeRows{rows: [][]interface{}{incidentRow(3, "disk full", "new", "api")}}, nil
		},
	}
	kv := newFakeKV()
	repo, err := NewRepository(db, WithCache(kv, time.Hour))
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}

	incident, err := repo.Create(context.Background(), CreateParams{
		Status: StatusNew, Source: SourceAPI, Description: "disk full",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if incident.ID != 3 || incident.Status != StatusNew {
		t.Errorf("incident = %+v", incident)
	}
	if _, ok := kv.data["incidents:3"]; !ok {
		t.Error("created incident was not cached")
	}
}

func TestCreateRejectsInvalidParams(t *testing.T) {
	db := &fakeDB{}
	repo, err := NewRepository(db)
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	if _, err := repo.Create(context.Background(), CreateParams{Status: "open"}); err == nil {
		t.Fatal("expected validation error")
	}
	if db.queries != 0 || db.execs != 0 {
		t.Error("invalid payload reached the store")
	}
}

func TestGetReadsThroughAndWarmsCache(t *testing.T) {
	db := &fakeDB{
		onQuery: func(call int, query string, args []interface{}) (core.Rows, error) {
			return &fakeRows{rows: [][]interface{}{incidentRow(9, "link flap", "new", "monitoring")}}, nil
		},
	}
	kv := newFakeKV()
	repo, err := NewRepository(db, WithCache(kv, time.Hour))
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}

	first, err := repo.Get(context.Background(), 9)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if first == nil || first.ID != 9 {
		t.Fatalf("incident = %+v", first)
	}
	if db.queries != 1 {
		t.Fatalf("store queried %d times, want 1", db.queries)
	}

	// The second lookup is served from the cache.
	second, err := repo.Get(context.Background(), 9)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if second == nil || second.ID != 9 || second.Description != "link flap" {
		t.Fatalf("incident = %+v", second)
	}
	if db.queries != 1 {
		t.Errorf("store queried %d times after cache warm, want still 1", db.queries)
	}
}

func TestGetAbsence(t *testing.T) {
	repo, err := NewRepository(&fakeDB{})
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	incident, err := repo.Get(context.Background(), 404)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if incident != nil {
		t.Errorf("incident = %+v, want nil", incident)
	}
}

func TestListPaginatesNewestFirst(t *testing.T) {
	db := &fakeDB{
		onQuery: func(call int, query string, args []interface{}) (core.Rows, error) {
			return &fakeRows{rows: [][]interface{}{
				incidentRow(2, "b", "new", "api"),
				incidentRow(1, "a", "new", "api"),
			}}, nil
		},
	}
	repo, err := NewRepository(db)
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}

	status := StatusNew
	found, err := repo.List(context.Background(), ListParams{Page: 2, PageSize: 10, Status: &status})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("got %d incidents, want 2", len(found))
	}

	query := db.queryLog[0]
	if !strings.Contains(query, "ORDER BY creating_date DESC") {
		t.Errorf("query = %q, want newest-first ordering", query)
	}
	if !strings.Contains(query, "WHERE status = ?") {
		t.Errorf("query = %q, want status filter", query)
	}
	args := db.argLog[0]
	// status, limit, offset
	if len(args) != 3 || args[1] != 10 || args[2] != 10 {
		t.Errorf("args = %v, want page 2 of 10 as limit 10 offset 10", args)
	}
}

func TestUpdateInvalidatesCache(t *testing.T) {
	db := &fakeDB{
		onExec: func(call int, query string, args []interface{}) (core.Result, error) {
			return fakeResult{affected: 1}, nil
		},
	}
	kv := newFakeKV()
	kv.data["incidents:5"] = []byte(`{"id":5}`)
	repo, err := NewRepository(db, WithCache(kv, time.Hour))
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}

	status := StatusResolved
	affected, err := repo.Update(context.Background(), 5, UpdateParams{Status: &status})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if affected != 1 {
		t.Errorf("affected = %d, want 1", affected)
	}
	if _, ok := kv.data["incidents:5"]; ok {
		t.Error("stale cache entry survived the update")
	}
}

func TestDeleteInvalidatesCache(t *testing.T) {
	db := &fakeDB{
		onExec: func(call int, query string, args []interface{}) (core.Result, error) {
			return fakeResult{affected: 1}, nil
		},
	}
	kv := newFakeKV()
	kv.data["incidents:5"] = []byte(`{"id":5}`)
	repo, err := NewRepository(db, WithCache(kv, time.Hour))
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}

	affected, err := repo.Delete(context.Background(), 5)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if affected != 1 {
		t.Errorf("affected = %d, want 1", affected)
	}
	if kv.deletes != 1 {
		t.Errorf("cache deletes = %d, want 1", kv.deletes)
	}
}

func TestGenerateID(t *testing.T) {
	repo, err := NewRepository(&fakeDB{},
		WithIDLength(9),
		WithRand(rand.New(rand.NewSource(1))),
	)
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}

	id, err := repo.GenerateID(context.Background())
	if err != nil {
		t.Fatalf("GenerateID() error = %v", err)
	}
	if id < 0 || id > 999999999 {
		t.Errorf("id = %d, want a 9-digit-alphabet draw", id)
	}
}
