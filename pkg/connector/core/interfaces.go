package core

import (
	"context"
	"strings"

	"github.com/ajitpratap0/seaschema/pkg/config"
)

// Kind identifies a backend variant
type Kind string

const (
	// KindPostgreSQL is the Postgres-like backend
	KindPostgreSQL Kind = "postgresql"
	// KindMySQL is the MySQL-like backend
	KindMySQL Kind = "mysql"
	// KindOracle is the Oracle-like backend
	KindOracle Kind = "oracle"
)

// NormalizeKind lower-cases and trims a backend kind string
func NormalizeKind(kind string) Kind {
	return Kind(strings.ToLower(strings.TrimSpace(kind)))
}

// CanonicalType is the normalized column type handed to downstream consumers
type CanonicalType string

const (
	TypeInt       CanonicalType = "int"
	TypeLong      CanonicalType = "long"
	TypeShort     CanonicalType = "short"
	TypeFloat     CanonicalType = "float"
	TypeDouble    CanonicalType = "double"
	TypeDecimal   CanonicalType = "decimal"
	TypeString    CanonicalType = "string"
	TypeBoolean   CanonicalType = "boolean"
	TypeDate      CanonicalType = "date"
	TypeTimestamp CanonicalType = "timestamp"
	TypeTime      CanonicalType = "time"
	TypeBytes     CanonicalType = "bytes"
)

// FallbackType is used for any native type a mapper does not recognize
const FallbackType = TypeString

// CanonicalTypes lists the whole vocabulary
var CanonicalTypes = []CanonicalType{
	TypeInt, TypeLong, TypeShort, TypeFloat, TypeDouble, TypeDecimal,
	TypeString, TypeBoolean, TypeDate, TypeTimestamp, TypeTime, TypeBytes,
}

// Valid reports whether t belongs to the canonical vocabulary
func (t CanonicalType) Valid() bool {
	for _, c := range CanonicalTypes {
		if c == t {
			return true
		}
	}
	return false
}

// TypeMapper maps a backend-native type string to a canonical type.
// Implementations are pure and safe for concurrent use.
type TypeMapper interface {
	MapType(native string) CanonicalType
}

// TypeMapperFunc adapts a function to TypeMapper
type TypeMapperFunc func(native string) CanonicalType

// MapType calls f(native)
func (f TypeMapperFunc) MapType(native string) CanonicalType {
	return f(native)
}

// State is the lifecycle state of a connector
type State int32

const (
	StateDisconnected State = iota
	StateConnected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Connector owns one pooled connection to a single database instance and
// exposes table/column discovery. Empty database/schema arguments mean
// "not given"; each variant applies its own default scope.
type Connector interface {
	// Kind returns the backend variant
	Kind() Kind
	// Config returns the connection settings the connector was built with
	Config() config.ConnectionConfig
	// State returns the current lifecycle state
	State() State

	// Connect establishes the pool. It never returns an error: failures are
	// logged and reported as false. A Closed connector never reconnects.
	Connect(ctx context.Context) bool
	// GetTables lists table names under the given scope
	GetTables(ctx context.Context, database, schema string) ([]string, error)
	// GetColumns returns column name to canonical type for one table
	GetColumns(ctx context.Context, table, database, schema string) (map[string]CanonicalType, error)
	// Ping checks that the pool can still reach the database
	Ping(ctx context.Context) error
	// Close releases the pool
	Close(ctx context.Context) error
}
