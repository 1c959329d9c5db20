package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

func init() {
	mustRegister("memory", func(cfg Config) (Store, error) {
		return NewMemoryStore(), nil
	})
}

// MemoryStore is an in-process backend holding rows in maps. It interprets
// the small statement dialect the directory uses (equality point lookups,
// full-table scans, column-merge inserts, keyed deletes) and is safe for
// concurrent use. Unit tests lean on it for fault injection; it also serves
// as a throwaway backend for local experiments.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string]*memTable

	fault         func(stmt string) error
	holdAgreement bool
}

type memTable struct {
	def  *tableDef
	rows map[string]Row
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[string]*memTable)}
}

// SetFault installs a hook invoked with every statement before execution; a
// non-nil return aborts the operation with that error. Pass nil to clear.
func (s *MemoryStore) SetFault(f func(stmt string) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = f
}

// HoldSchemaAgreement makes AwaitSchemaAgreement block until its context is
// cancelled, simulating a cluster that never converges.
func (s *MemoryStore) HoldSchemaAgreement(hold bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holdAgreement = hold
}

// Query interprets a SELECT statement.
func (s *MemoryStore) Query(ctx context.Context, stmt string, _ Consistency, args ...interface{}) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.fault != nil {
		if err := s.fault(stmt); err != nil {
			return nil, err
		}
	}

	sel, err := parseSelect(stmt)
	if err != nil {
		return nil, err
	}
	table, ok := s.tables[sel.table]
	if !ok {
		return nil, fmt.Errorf("unknown table: %s", sel.table)
	}
	if len(sel.where) != len(args) {
		return nil, fmt.Errorf("statement wants %d args, got %d: %s", len(sel.where), len(args), stmt)
	}

	var out []Row
	for _, row := range table.rows {
		if !matches(row, sel.where, args) {
			continue
		}
		out = append(out, project(row, sel.columns))
	}
	return out, nil
}

// Exec interprets an INSERT or DELETE statement.
func (s *MemoryStore) Exec(ctx context.Context, stmt string, _ Consistency, args ...interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fault != nil {
		if err := s.fault(stmt); err != nil {
			return err
		}
	}

	trimmed := strings.ToUpper(strings.TrimSpace(stmt))
	switch {
	case strings.HasPrefix(trimmed, "INSERT"):
		return s.execInsert(stmt, args)
	case strings.HasPrefix(trimmed, "DELETE"):
		return s.execDelete(stmt, args)
	default:
		return fmt.Errorf("unsupported statement: %s", stmt)
	}
}

// EnsureTable registers the table, keeping existing rows on repeat calls.
func (s *MemoryStore) EnsureTable(ctx context.Context, name, ddl string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	def, err := parseDDL(ddl)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tables[def.name]; !exists {
		s.tables[def.name] = &memTable{def: def, rows: make(map[string]Row)}
	}
	return nil
}

// AwaitSchemaAgreement returns immediately unless agreement is held for a
// test, in which case it blocks until ctx is cancelled.
func (s *MemoryStore) AwaitSchemaAgreement(ctx context.Context) error {
	s.mu.RLock()
	hold := s.holdAgreement
	s.mu.RUnlock()

	if hold {
		<-ctx.Done()
	}
	return ctx.Err()
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

// Seed writes a full row directly, bypassing statement interpretation. Tests
// and local setups use it to stand in for the external system that owns role
// creation and membership.
func (s *MemoryStore) Seed(table string, row Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[table]
	if !ok {
		return fmt.Errorf("unknown table: %s", table)
	}
	key, err := t.keyFor(row)
	if err != nil {
		return err
	}
	t.rows[key] = cloneRow(row)
	return nil
}

func (s *MemoryStore) execInsert(stmt string, args []interface{}) error {
	table, cols, err := parseInsert(stmt)
	if err != nil {
		return err
	}
	t, ok := s.tables[table]
	if !ok {
		return fmt.Errorf("unknown table: %s", table)
	}
	if len(cols) != len(args) {
		return fmt.Errorf("statement wants %d args, got %d: %s", len(cols), len(args), stmt)
	}

	incoming := make(Row, len(cols))
	for i, col := range cols {
		incoming[col] = args[i]
	}
	key, err := t.keyFor(incoming)
	if err != nil {
		return err
	}

	// Column-merge semantics: existing columns not named by the insert are
	// left untouched.
	row, exists := t.rows[key]
	if !exists {
		row = make(Row)
		t.rows[key] = row
	}
	for col, v := range incoming {
		row[col] = v
	}
	return nil
}

func (s *MemoryStore) execDelete(stmt string, args []interface{}) error {
	table, where, err := parseDelete(stmt)
	if err != nil {
		return err
	}
	t, ok := s.tables[table]
	if !ok {
		return fmt.Errorf("unknown table: %s", table)
	}
	if len(where) != len(args) {
		return fmt.Errorf("statement wants %d args, got %d: %s", len(where), len(args), stmt)
	}

	for key, row := range t.rows {
		if matches(row, where, args) {
			delete(t.rows, key)
		}
	}
	return nil
}

func (t *memTable) keyFor(row Row) (string, error) {
	parts := make([]string, 0, len(t.def.primaryKey))
	for _, col := range t.def.primaryKey {
		v, ok := row[col].(string)
		if !ok {
			return "", fmt.Errorf("row is missing primary key column %s", col)
		}
		parts = append(parts, v)
	}
	return strings.Join(parts, "\x00"), nil
}

func matches(row Row, where []string, args []interface{}) bool {
	for i, col := range where {
		if row[col] != args[i] {
			return false
		}
	}
	return true
}

func project(row Row, columns []string) Row {
	if len(columns) == 1 && columns[0] == "*" {
		return cloneRow(row)
	}
	out := make(Row, len(columns))
	for _, col := range columns {
		if v, ok := row[col]; ok {
			if set, isSet := v.([]string); isSet {
				v = append([]string(nil), set...)
			}
			out[col] = v
		}
	}
	return out
}

func cloneRow(row Row) Row {
	out := make(Row, len(row))
	for k, v := range row {
		if set, ok := v.([]string); ok {
			v = append([]string(nil), set...)
		}
		out[k] = v
	}
	return out
}
