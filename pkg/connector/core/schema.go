package core

// LookupStatus tells apart the three outcomes of a schema lookup that all
// serialize to the same {"fields": {}} shape.
type LookupStatus int

const (
	// LookupFound means at least one column was returned
	LookupFound LookupStatus = iota
	// LookupEmpty means the lookup succeeded but the table has no columns
	// or does not exist
	LookupEmpty
	// LookupFailed means the lookup errored, possibly after retries, or the
	// connector name is not registered
	LookupFailed
)

func (s LookupStatus) String() string {
	switch s {
	case LookupFound:
		return "found"
	case LookupEmpty:
		return "empty"
	case LookupFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// TableSchema is the canonical schema of one table.
type TableSchema struct {
	Fields map[string]CanonicalType `json:"fields"`

	Status LookupStatus `json:"-"`
	Err    error        `json:"-"`
}

// NewTableSchema wraps a column mapping, deriving the status from its size
func NewTableSchema(fields map[string]CanonicalType) TableSchema {
	if len(fields) == 0 {
		return EmptyTableSchema()
	}
	return TableSchema{Fields: fields, Status: LookupFound}
}

// EmptyTableSchema is {"fields": {}} for a lookup that found nothing
func EmptyTableSchema() TableSchema {
	return TableSchema{Fields: map[string]CanonicalType{}, Status: LookupEmpty}
}

// FailedTableSchema is {"fields": {}} for a lookup that errored
func FailedTableSchema(err error) TableSchema {
	return TableSchema{Fields: map[string]CanonicalType{}, Status: LookupFailed, Err: err}
}

// Failed reports whether the lookup errored
func (s TableSchema) Failed() bool {
	return s.Status == LookupFailed
}

// Len returns the number of columns
func (s TableSchema) Len() int {
	return len(s.Fields)
}
