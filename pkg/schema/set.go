package schema

import (
	"github.com/ajitpratap0/seaschema/pkg/connector/core"
	"github.com/ajitpratap0/seaschema/pkg/json"
)

// SchemaSet maps table names to schemas and remembers insertion order.
// It serializes as {"<table>": {"fields": {...}}, ...} in that order.
type SchemaSet struct {
	order   []string
	schemas map[string]core.TableSchema
}

// NewSchemaSet creates an empty set sized for n tables
func NewSchemaSet(n int) *SchemaSet {
	return &SchemaSet{
		order:   make([]string, 0, n),
		schemas: make(map[string]core.TableSchema, n),
	}
}

// Set stores the schema for table. Re-setting a table keeps its position.
func (s *SchemaSet) Set(table string, ts core.TableSchema) {
	if _, ok := s.schemas[table]; !ok {
		s.order = append(s.order, table)
	}
	s.schemas[table] = ts
}

// Get returns the schema for table
func (s *SchemaSet) Get(table string) (core.TableSchema, bool) {
	ts, ok := s.schemas[table]
	return ts, ok
}

// Tables returns table names in insertion order
func (s *SchemaSet) Tables() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of tables
func (s *SchemaSet) Len() int {
	return len(s.order)
}

// Failed returns the tables whose lookup errored, in insertion order
func (s *SchemaSet) Failed() []string {
	var out []string
	for _, t := range s.order {
		if s.schemas[t].Failed() {
			out = append(out, t)
		}
	}
	return out
}

// MarshalJSON keeps table order
func (s *SchemaSet) MarshalJSON() ([]byte, error) {
	w := json.NewObjectWriter()
	for _, t := range s.order {
		if err := w.WriteField(t, s.schemas[t]); err != nil {
			w.Release()
			return nil, err
		}
	}
	return w.Bytes(), nil
}
