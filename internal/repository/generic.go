// Package repository implements the generic data-access layer: a
// filter/sort/paginate-capable repository bound to one table schema, and a
// retrying CRUD façade with unique-identifier generation on top of it.
package repository

import (
	"context"
	"fmt"
	"strings"

	"incidentcore/internal/core"
)

// MySQL requires a LIMIT clause whenever OFFSET is present; this is the
// documented "no limit" sentinel (2^64-1).
const noLimit = "18446744073709551615"

// Repository translates generic record-access requests into SQL for one
// declared table. It carries no retry or identity logic; every operation
// runs against a caller-supplied live Session.
type Repository struct {
	schema *core.Schema
}

// NewRepository binds a generic repository to a table schema.
func NewRepository(schema *core.Schema) (*Repository, error) {
	if schema == nil {
		return nil, &ConfigurationError{Reason: "schema is required"}
	}
	if schema.TableName == "" {
		return nil, &ConfigurationError{Reason: "schema table name is required"}
	}
	if len(schema.Columns) == 0 {
		return nil, &ConfigurationError{Reason: "schema declares no columns"}
	}
	return &Repository{schema: schema}, nil
}

// Schema returns the bound table schema.
func (r *Repository) Schema() *core.Schema {
	return r.schema
}

// Create inserts a new record built from the field mapping and returns the
// fully populated row, including store-assigned defaults and the generated
// identifying field when the store assigns it. Commits the session.
func (r *Repository) Create(ctx context.Context, s *Session, fields core.Record) (core.Record, error) {
	query, args, err := r.insertQuery(fields)
	if err != nil {
		return nil, err
	}
	result, err := s.tx.Exec(ctx, query, args...)
	if err != nil {
		return nil, storeErr("insert", err)
	}

	key, ok := fields[r.schema.PrimaryKey]
	if !ok {
		id, err := result.LastInsertId()
		if err != nil {
			return nil, storeErr("insert", err)
		}
		key = id
	}

	record, err := r.getOne(ctx, s, core.Eq(r.schema.PrimaryKey, key))
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, storeErrf("insert", "created record %s=%v not readable", r.schema.PrimaryKey, key)
	}
	if err := s.Commit(); err != nil {
		return nil, err
	}
	return record, nil
}

// GetOne returns the first record matching the filter, or nil when no record
// matches. Absence is a normal outcome, not an error. Read-only; no commit.
func (r *Repository) GetOne(ctx context.Context, s *Session, filter core.Filter) (core.Record, error) {
	return r.getOne(ctx, s, filter)
}

func (r *Repository) getOne(ctx context.Context, s *Session, filter core.Filter) (core.Record, error) {
	one := 1
	records, err := r.GetAllFiltered(ctx, s, []core.Filter{filter}, nil, &one, nil)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// GetAll returns every record of the table in store-native order.
// Read-only; no commit.
func (r *Repository) GetAll(ctx context.Context, s *Session) ([]core.Record, error) {
	return r.GetAllFiltered(ctx, s, nil, nil, nil, nil)
}

// GetAllFiltered returns the records matching the conjunction of filters,
// optionally ordered, with limit/offset applied after ordering. A sort
// naming an undeclared field is skipped and the query still runs.
// Read-only; no commit.
func (r *Repository) GetAllFiltered(ctx context.Context, s *Session, filters []core.Filter, sort *core.Sort, limit, offset *int) ([]core.Record, error) {
	query, args, err := r.selectQuery(filters, sort, limit, offset)
	if err != nil {
		return nil, err
	}
	rows, err := s.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, storeErr("select", err)
	}
	defer func() { _ = rows.Close() }()

	var records []core.Record
	for rows.Next() {
		record, err := r.scanRecord(rows)
		if err != nil {
			return nil, storeErr("select", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("select", err)
	}
	return records, nil
}

// UpdateFiltered applies the field updates to every record matching the
// filter set and returns the number of affected records. An empty filter
// set updates all records of the table. Commits the session.
func (r *Repository) UpdateFiltered(ctx context.Context, s *Session, fields core.Record, filters []core.Filter) (int64, error) {
	query, args, err := r.updateQuery(fields, filters)
	if err != nil {
		return 0, err
	}
	result, err := s.tx.Exec(ctx, query, args...)
	if err != nil {
		return 0, storeErr("update", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, storeErr("update", err)
	}
	if err := s.Commit(); err != nil {
		return 0, err
	}
	return affected, nil
}

// DeleteFiltered deletes every record matching the filter set and returns
// the number of affected records. An empty filter set deletes all records
// of the table. Commits the session.
func (r *Repository) DeleteFiltered(ctx context.Context, s *Session, filters []core.Filter) (int64, error) {
	query, args, err := r.deleteQuery(filters)
	if err != nil {
		return 0, err
	}
	result, err := s.tx.Exec(ctx, query, args...)
	if err != nil {
		return 0, storeErr("delete", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, storeErr("delete", err)
	}
	if err := s.Commit(); err != nil {
		return 0, err
	}
	return affected, nil
}

// ----------------------------------------------------------------------------
// Query construction
// ----------------------------------------------------------------------------

func (r *Repository) insertQuery(fields core.Record) (string, []interface{}, error) {
	if len(fields) == 0 {
		return "", nil, storeErrf("insert", "no fields for table %s", r.schema.TableName)
	}
	// Iterate schema order so the generated SQL is deterministic.
	columns := make([]string, 0, len(fields))
	args := make([]interface{}, 0, len(fields))
	for _, col := range r.schema.Columns {
		value, ok := fields[col.Name]
		if !ok {
			continue
		}
		columns = append(columns, col.Name)
		args = append(args, value)
	}
	if len(columns) != len(fields) {
		return "", nil, r.unknownFieldErr("insert", fields)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		r.schema.TableName, strings.Join(columns, ", "), placeholders)
	return query, args, nil
}

func (r *Repository) selectQuery(filters []core.Filter, sort *core.Sort, limit, offset *int) (string, []interface{}, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s",
		strings.Join(r.schema.ColumnNames(), ", "), r.schema.TableName)

	where, args, err := r.whereClause("select", filters)
	if err != nil {
		return "", nil, err
	}
	sb.WriteString(where)

	if sort != nil && r.schema.HasColumn(sort.Field) {
		direction := "ASC"
		if sort.Order == core.SortDesc {
			direction = "DESC"
		}
		fmt.Fprintf(&sb, " ORDER BY %s %s", sort.Field, direction)
	}

	switch {
	case limit != nil:
		sb.WriteString(" LIMIT ?")
		args = append(args, *limit)
		if offset != nil {
			sb.WriteString(" OFFSET ?")
			args = append(args, *offset)
		}
	case offset != nil:
		sb.WriteString(" LIMIT " + noLimit + " OFFSET ?")
		args = append(args, *offset)
	}

	return sb.String(), args, nil
}

func (r *Repository) updateQuery(fields core.Record, filters []core.Filter) (string, []interface{}, error) {
	if len(fields) == 0 {
		return "", nil, storeErrf("update", "no fields for table %s", r.schema.TableName)
	}
	assignments := make([]string, 0, len(fields))
	args := make([]interface{}, 0, len(fields)+len(filters))
	for _, col := range r.schema.Columns {
		value, ok := fields[col.Name]
		if !ok {
			continue
		}
		assignments = append(assignments, col.Name+" = ?")
		args = append(args, value)
	}
	if len(assignments) != len(fields) {
		return "", nil, r.unknownFieldErr("update", fields)
	}

	where, whereArgs, err := r.whereClause("update", filters)
	if err != nil {
		return "", nil, err
	}
	query := fmt.Sprintf("UPDATE %s SET %s%s",
		r.schema.TableName, strings.Join(assignments, ", "), where)
	return query, append(args, whereArgs...), nil
}

func (r *Repository) deleteQuery(filters []core.Filter) (string, []interface{}, error) {
	where, args, err := r.whereClause("delete", filters)
	if err != nil {
		return "", nil, err
	}
	return "DELETE FROM " + r.schema.TableName + where, args, nil
}

// whereClause renders a filter conjunction. Field names are checked against
// the schema before any SQL reaches the driver; the store would reject an
// unknown column anyway, so the failure is classified as a StoreError.
func (r *Repository) whereClause(op string, filters []core.Filter) (string, []interface{}, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}
	predicates := make([]string, 0, len(filters))
	args := make([]interface{}, 0, len(filters))
	for _, f := range filters {
		if !r.schema.HasColumn(f.Field) {
			return "", nil, storeErrf(op, "unknown column %q on table %s", f.Field, r.schema.TableName)
		}
		switch f.Op {
		case core.OpEq, core.OpNe, core.OpGt, core.OpGte, core.OpLt, core.OpLte, core.OpLike:
		default:
			return "", nil, storeErrf(op, "unsupported operator %q", f.Op)
		}
		predicates = append(predicates, fmt.Sprintf("%s %s ?", f.Field, f.Op))
		args = append(args, f.Value)
	}
	return " WHERE " + strings.Join(predicates, " AND "), args, nil
}

func (r *Repository) unknownFieldErr(op string, fields core.Record) error {
	for name := range fields {
		if !r.schema.HasColumn(name) {
			return storeErrf(op, "unknown column %q on table %s", name, r.schema.TableName)
		}
	}
	return storeErrf(op, "duplicate columns in payload for table %s", r.schema.TableName)
}

// scanRecord scans the current row into a record map. Text columns arrive
// from the MySQL driver as []byte; they are normalized to string so records
// JSON-encode cleanly.
func (r *Repository) scanRecord(rows core.Rows) (core.Record, error) {
	values := make([]interface{}, len(r.schema.Columns))
	pointers := make([]interface{}, len(r.schema.Columns))
	for i := range values {
		pointers[i] = &values[i]
	}
	if err := rows.Scan(pointers...); err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	record := make(core.Record, len(r.schema.Columns))
	for i, col := range r.schema.Columns {
		if raw, ok := values[i].([]byte); ok {
			record[col.Name] = string(raw)
			continue
		}
		record[col.Name] = values[i]
	}
	return record, nil
}
