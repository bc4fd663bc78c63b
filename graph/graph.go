package graph

import (
	"context"
	"errors"
)

// Error values for graph store operations.
var (
	ErrNilStore = errors.New("graph store is nil")
)

// Record is one result row with named-column access.
type Record interface {
	// Get returns the value for a column and whether the column exists.
	Get(key string) (any, bool)
}

// Session is a short-lived execution context against the store. Sessions are
// opened per logical operation and must be closed by the caller, including
// on error paths.
type Session interface {
	Run(ctx context.Context, query string, params map[string]any) ([]Record, error)
	Close(ctx context.Context) error
}

// Store opens sessions against a graph+vector database. The store's
// transport, pooling, and authentication are owned by the caller; this
// package only needs the ability to run parameterized statements.
type Store interface {
	OpenSession(ctx context.Context) (Session, error)
}

// StringValue reads a string column from a record, returning "" when the
// column is absent, null, or not a string.
func StringValue(rec Record, key string) string {
	v, ok := rec.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// IntValue reads an integer column, tolerating the numeric types drivers
// actually return (int64 from Neo4j, float64 from JSON-shaped fakes).
func IntValue(rec Record, key string) int64 {
	v, ok := rec.Get(key)
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

// FloatValue reads a floating-point column with the same tolerance as
// IntValue.
func FloatValue(rec Record, key string) float64 {
	v, ok := rec.Get(key)
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}

// BoolValue reads a boolean column, returning false for absent or non-bool
// values.
func BoolValue(rec Record, key string) bool {
	v, ok := rec.Get(key)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// SliceValue reads a list column, returning nil when absent or not a list.
func SliceValue(rec Record, key string) []any {
	v, ok := rec.Get(key)
	if !ok {
		return nil
	}
	s, _ := v.([]any)
	return s
}
