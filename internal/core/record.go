package core

// Record is one logical row of a typed table, keyed by column name.
// Values use the driver's native Go types (int64, string, float64, time.Time).
type Record = map[string]interface{}

// Schema represents the structure of a database table.
type Schema struct {
	// TableName is the name of the table.
	TableName string

	// PrimaryKey is the name of the identifying column. Its value is
	// unique across all records of the table at any point in time.
	PrimaryKey string

	// Columns contains all column definitions for the table, in table order.
	Columns []Column
}

// Column represents a single column in a database table.
type Column struct {
	// Name is the column name.
	Name string

	// Type is the database type (e.g., "BIGINT", "VARCHAR(255)", "TIMESTAMP").
	Type string

	// Nullable indicates whether the column can contain NULL values.
	Nullable bool

	// Default is the default value for the column, if any.
	Default interface{}
}

// HasColumn reports whether the schema declares a column with the given name.
func (s *Schema) HasColumn(name string) bool {
	for _, col := range s.Columns {
		if col.Name == name {
			return true
		}
	}
	return false
}

// ColumnNames returns the column names in table order.
func (s *Schema) ColumnNames() []string {
	names := make([]string, 0, len(s.Columns))
	for _, col := range s.Columns {
		names = append(names, col.Name)
	}
	return names
}

// Op is a comparison operator used in a filter.
type Op string

const (
	OpEq   Op = "="
	OpNe   Op = "!="
	OpGt   Op = ">"
	OpGte  Op = ">="
	OpLt   Op = "<"
	OpLte  Op = "<="
	OpLike Op = "LIKE"
)

// Filter is a predicate over a single field. A slice of filters is always
// interpreted as a conjunction; an empty slice matches all records.
type Filter struct {
	Field string
	Op    Op
	Value interface{}
}

// Eq builds an equality filter.
func Eq(field string, value interface{}) Filter {
	return Filter{Field: field, Op: OpEq, Value: value}
}

// Gte builds a greater-or-equal filter.
func Gte(field string, value interface{}) Filter {
	return Filter{Field: field, Op: OpGte, Value: value}
}

// Lte builds a less-or-equal filter.
func Lte(field string, value interface{}) Filter {
	return Filter{Field: field, Op: OpLte, Value: value}
}

// SortOrder is the direction of a sort specification.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Sort specifies an ordering over a single field. A Sort naming a field the
// schema does not declare is silently ignored and the query runs unordered.
type Sort struct {
	Field string
	Order SortOrder
}
