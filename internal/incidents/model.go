// Package incidents binds the generic repository machinery to the incident
// record type.
package incidents

import (
	"fmt"
	"strconv"
	"time"

	"incidentcore/internal/core"
)

// TableName is the incident table.
const TableName = "incidents"

// FieldID is the identifying field of the incident record.
const FieldID = "id"

// MaxDescriptionLength bounds the incident description.
const MaxDescriptionLength = 255

// Status is the lifecycle state of an incident.
type Status string

const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
	StatusCanceled   Status = "canceled"
)

// Valid reports whether the status is a known value.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusResolved, StatusClosed, StatusCanceled:
		return true
	}
	return false
}

// Source identifies where an incident was reported from.
type Source string

const (
	SourceAPI        Source = "api"
	SourceWeb        Source = "web"
	SourceEmail      Source = "email"
	SourceMonitoring Source = "monitoring"
	SourceOperator   Source = "operator"
)

// Valid reports whether the source is a known value.
func (s Source) Valid() bool {
	switch s {
	case SourceAPI, SourceWeb, SourceEmail, SourceMonitoring, SourceOperator:
		return true
	}
	return false
}

// Incident is one incident record.
type Incident struct {
	ID           int64     `json:"id"`
	Status       Status    `json:"status"`
	Source       Source    `json:"source"`
	Description  string    `json:"description"`
	CreatingDate time.Time `json:"creating_date"`
}

// Schema declares the incident table for the generic repository.
func Schema() *core.Schema {
	return &core.Schema{
		TableName:  TableName,
		PrimaryKey: FieldID,
		Columns: []core.Column{
			{Name: "id", Type: "BIGINT"},
			{Name: "description", Type: "VARCHAR(255)"},
			{Name: "status", Type: "VARCHAR(32)"},
			{Name: "source", Type: "VARCHAR(32)"},
			{Name: "creating_date", Type: "TIMESTAMP", Default: "CURRENT_TIMESTAMP"},
		},
	}
}

// fromRecord converts a generic record into a typed incident.
func fromRecord(record core.Record) (*Incident, error) {
	id, err := recordInt64(record, "id")
	if err != nil {
		return nil, err
	}
	description, err := recordString(record, "description")
	if err != nil {
		return nil, err
	}
	status, err := recordString(record, "status")
	if err != nil {
		return nil, err
	}
	source, err := recordString(record, "source")
	if err != nil {
		return nil, err
	}
	creatingDate, err := recordTime(record, "creating_date")
	if err != nil {
		return nil, err
	}
	return &Incident{
		ID:           id,
		Status:       Status(status),
		Source:       Source(source),
		Description:  description,
		CreatingDate: creatingDate,
	}, nil
}

func recordInt64(record core.Record, field string) (int64, error) {
	switch v := record[field].(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case string:
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("field %q: %w", field, err)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("field %q: unexpected type %T", field, record[field])
	}
}

func recordString(record core.Record, field string) (string, error) {
	switch v := record[field].(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("field %q: unexpected type %T", field, record[field])
	}
}

func recordTime(record core.Record, field string) (time.Time, error) {
	switch v := record[field].(type) {
	case time.Time:
		return v, nil
	case string:
		// The driver returns DATETIME as a string when parseTime is off.
		parsed, err := time.Parse("2006-01-02 15:04:05", v)
		if err != nil {
			return time.Time{}, fmt.Errorf("field %q: %w", field, err)
		}
		return parsed, nil
	default:
		return time.Time{}, fmt.Errorf("field %q: unexpected type %T", field, record[field])
	}
}

// CreateParams is the typed payload for creating an incident.
type CreateParams struct {
	Status      Status
	Source      Source
	Description string
}

// Validate checks the payload against the record type's schema constraints.
func (p CreateParams) Validate() error {
	if !p.Status.Valid() {
		return fmt.Errorf("invalid status %q", p.Status)
	}
	if !p.Source.Valid() {
		return fmt.Errorf("invalid source %q", p.Source)
	}
	if len(p.Description) == 0 || len(p.Description) > MaxDescriptionLength {
		return fmt.Errorf("description must be between 1 and %d characters", MaxDescriptionLength)
	}
	return nil
}

func (p CreateParams) toRecord(now time.Time) core.Record {
	return core.Record{
		"status":        string(p.Status),
		"source":        string(p.Source),
		"description":   p.Description,
		"creating_date": now,
	}
}

// UpdateParams is the typed partial-update payload; nil fields are left
// unchanged.
type UpdateParams struct {
	Status      *Status
	Source      *Source
	Description *string
}

// Validate checks the set fields and rejects an empty update.
func (p UpdateParams) Validate() error {
	if p.Status == nil && p.Source == nil && p.Description == nil {
		return fmt.Errorf("no fields to update")
	}
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("invalid status %q", *p.Status)
	}
	if p.Source != nil && !p.Source.Valid() {
		return fmt.Errorf("invalid source %q", *p.Source)
	}
	if p.Description != nil && (len(*p.Description) == 0 || len(*p.Description) > MaxDescriptionLength) {
		return fmt.Errorf("description must be between 1 and %d characters", MaxDescriptionLength)
	}
	return nil
}

func (p UpdateParams) toRecord() core.Record {
	record := core.Record{}
	if p.Status != nil {
		record["status"] = string(*p.Status)
	}
	if p.Source != nil {
		record["source"] = string(*p.Source)
	}
	if p.Description != nil {
		record["description"] = *p.Description
	}
	return record
}

// ListParams describes a paginated, filtered incident listing.
type ListParams struct {
	Page     int
	PageSize int
	Status   *Status
	Source   *Source
	From     *time.Time
	To       *time.Time
}

// Validate bounds the page window.
func (p ListParams) Validate() error {
	if p.Page < 1 {
		return fmt.Errorf("page must be >= 1")
	}
	if p.PageSize < 1 || p.PageSize > 100 {
		return fmt.Errorf("page_size must be between 1 and 100")
	}
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("invalid status %q", *p.Status)
	}
	if p.Source != nil && !p.Source.Valid() {
		return fmt.Errorf("invalid source %q", *p.Source)
	}
	return nil
}

// filters renders the list parameters as a filter conjunction.
func (p ListParams) filters() []core.Filter {
	var filters []core.Filter
	if p.Status != nil {
		filters = append(filters, core.Eq("status", string(*p.Status)))
	}
	if p.Source != nil {
		filters = append(filters, core.Eq("source", string(*p.Source)))
	}
	if p.From != nil {
		filters = append(filters, core.Gte("creating_date", *p.From))
	}
	if p.To != nil {
		filters = append(filters, core.Lte("creating_date", *p.To))
	}
	return filters
}
