package store

import (
	"context"
	"errors"
	"fmt"
)

// Consistency selects how many replicas must acknowledge a read or write.
type Consistency int

const (
	// LocalOne is satisfied by a single nearby replica. Lowest latency,
	// weakest agreement.
	LocalOne Consistency = iota
	// Quorum requires a strict majority of replicas.
	Quorum
)

func (c Consistency) String() string {
	switch c {
	case LocalOne:
		return "LOCAL_ONE"
	case Quorum:
		return "QUORUM"
	default:
		return fmt.Sprintf("Consistency(%d)", int(c))
	}
}

// ErrUnavailable indicates that not enough replicas were reachable to satisfy
// the requested consistency level. The condition is transient; callers decide
// whether to retry.
var ErrUnavailable = errors.New("store: not enough replicas available")

// Store is a replicated table store supporting parameterized queries at a
// selectable consistency level, plus the schema-management operations the
// directory bootstrap depends on.
type Store interface {
	// Query runs a parameterized read statement and returns the matching rows.
	Query(ctx context.Context, stmt string, cons Consistency, args ...interface{}) ([]Row, error)

	// Exec runs a parameterized write statement.
	Exec(ctx context.Context, stmt string, cons Consistency, args ...interface{}) error

	// EnsureTable creates the named table if it does not already exist.
	EnsureTable(ctx context.Context, name, ddl string) error

	// AwaitSchemaAgreement blocks until every reachable node in the cluster
	// agrees on the schema version, or ctx is cancelled.
	AwaitSchemaAgreement(ctx context.Context) error

	Close() error
}

// Row is a single result row keyed by column name. Columns absent from the
// row read as zero values, matching the semantics of sparse wide-column rows.
type Row map[string]interface{}

// Has reports whether the row carries a non-nil value for the column.
func (r Row) Has(col string) bool {
	v, ok := r[col]
	return ok && v != nil
}

// String returns the column as a string, or "" when absent.
func (r Row) String(col string) string {
	if v, ok := r[col].(string); ok {
		return v
	}
	return ""
}

// Bool returns the column as a bool, or false when absent.
func (r Row) Bool(col string) bool {
	if v, ok := r[col].(bool); ok {
		return v
	}
	return false
}

// StringSet returns the column as a set of strings, or nil when absent.
func (r Row) StringSet(col string) []string {
	switch v := r[col].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
