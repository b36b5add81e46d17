package repository

import (
	"context"

	"incidentcore/internal/core"
)

// fakeDB scripts store behavior per call so retry paths can be exercised
// without a live MySQL instance.
type fakeDB struct {
	beginErr  error
	commitErr error
	onQuery   func(call int, query string, args []interface{}) (core.Rows, error)
	onExec    func(call int, query string, args []interface{}) (core.Result, error)

	begins   int
	queries  int
	execs    int
	queryLog []string
	txs      []*fakeTx
}

func (d *fakeDB) BeginTx(ctx context.Context) (core.Transaction, error) {
	d.begins++
	if d.beginErr != nil {
		return nil, d.beginErr
	}
	tx := &fakeTx{db: d}
	d.txs = append(d.txs, tx)
	return tx, nil
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
	db         *fakeDB
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Query(ctx context.Context, query string, args ...interface{}) (core.Rows, error) {
	return t.db.query(query, args)
}

func (t *fakeTx) Exec(ctx context.Context, query string, args ...interface{}) (core.Result, error) {
	return t.db.exec(query, args)
}

func (t *fakeTx) Commit() error {
	t.committed = true
	return t.db.commitErr
}

func (t *fakeTx) Rollback() error {
	t.rolledBack = true
	return nil
}

// fakeRows replays value rows in schema column order.
type fakeRows struct {
	rows    [][]interface{}
	idx     int
	scanErr error
	rowsErr error
	closed  bool
}

func (r *fakeRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}

func (r *fakeRows) Scan(dest ...interface{}) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	row := r.rows[r.idx-1]
	for i := range dest {
		*(dest[i].(*interface{})) = row[i]
	}
	return nil
}

func (r *fakeRows) Close() error {
	r.closed = true
	return nil
}

func (r *fakeRows) Err() error { return r.rowsErr }

type fakeResult struct {
	insertID int64
	affected int64
	err      error
}

func (r fakeResult) LastInsertId() (int64, error) { return r.insertID, r.err }
func (r fakeResult) RowsAffected() (int64, error) { return r.affected, r.err }

type sinkReport struct {
	category  string
	operation string
	cause     error
}

type recordingSink struct {
	reports   []sinkReport
	reportErr error
}

func (s *recordingSink) Report(category, operation string, cause error) (string, error) {
	s.reports = append(s.reports, sinkReport{category: category, operation: operation, cause: cause})
	return "receipt-1", s.reportErr
}

type recordingPublisher struct {
	events []*core.ChangeEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, event *core.ChangeEvent) error {
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func testSchema() *core.Schema {
	return &core.Schema{
		TableName:  "tickets",
		PrimaryKey: "id",
		Columns: []core.Column{
			{Name: "id", Type: "BIGINT"},
			{Name: "title", Type: "VARCHAR(255)"},
			{Name: "state", Type: "VARCHAR(32)"},
			{Name: "created_at", Type: "TIMESTAMP"},
		},
	}
}

// ticketRow builds one raw value row in testSchema column order, with text
// columns as []byte the way the MySQL driver delivers them.
func ticketRow(id int64, title, state string) []interface{} {
	return []interface{}{id, []byte(title), []byte(state), "2026-08-25 10:00:00"}
}
