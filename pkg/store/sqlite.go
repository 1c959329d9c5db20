package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

func init() {
	mustRegister("sqlite", func(cfg Config) (Store, error) {
		return NewSQLiteStore(cfg.SQLitePath)
	})
}

// SQLiteStore is a single-node development backend. There is one replica, so
// every consistency level is trivially satisfied and schema agreement is
// immediate. Set-valued columns are stored as JSON arrays.
type SQLiteStore struct {
	db *sql.DB

	mu     sync.RWMutex
	tables map[string]*tableDef
}

// NewSQLiteStore opens (creating if necessary) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		tables: make(map[string]*tableDef),
	}, nil
}

// newSQLiteStoreFromDB wraps an existing database handle. Used by tests that
// drive the handle through a mock.
func newSQLiteStoreFromDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{
		db:     db,
		tables: make(map[string]*tableDef),
	}
}

// Query runs a read statement. The consistency level is accepted and ignored.
func (s *SQLiteStore) Query(ctx context.Context, stmt string, _ Consistency, args ...interface{}) ([]Row, error) {
	def := s.tableFor(stmt)

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite query failed: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("sqlite query failed: %w", err)
	}

	var out []Row
	for rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("sqlite scan failed: %w", err)
		}

		row := make(Row, len(cols))
		for i, col := range cols {
			if v := convertSQLiteValue(def, col, values[i]); v != nil {
				row[col] = v
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Exec runs a write statement. INSERT statements are rewritten to upserts so
// they keep the merge semantics the directory expects from the row store.
func (s *SQLiteStore) Exec(ctx context.Context, stmt string, _ Consistency, args ...interface{}) error {
	rewritten, err := s.rewriteInsert(stmt)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, rewritten, args...); err != nil {
		return fmt.Errorf("sqlite exec failed: %w", err)
	}
	return nil
}

// EnsureTable creates the table if missing, translating set-valued columns to
// JSON-encoded text.
func (s *SQLiteStore) EnsureTable(ctx context.Context, name, ddl string) error {
	def, err := parseDDL(ddl)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.tables[def.name] = def
	s.mu.Unlock()

	ddl = strings.ReplaceAll(ddl, "set<text>", "text")
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to ensure table %s: %w", name, err)
	}
	return nil
}

// AwaitSchemaAgreement returns immediately: a single node always agrees with
// itself.
func (s *SQLiteStore) AwaitSchemaAgreement(ctx context.Context) error {
	return ctx.Err()
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// rewriteInsert appends an ON CONFLICT clause so that inserting over an
// existing key updates only the named columns, leaving the rest of the row
// untouched.
func (s *SQLiteStore) rewriteInsert(stmt string) (string, error) {
	trimmed := strings.TrimSpace(stmt)
	if !strings.HasPrefix(strings.ToUpper(trimmed), "INSERT INTO") {
		return stmt, nil
	}

	def := s.tableFor(stmt)
	if def == nil {
		return "", fmt.Errorf("insert into unknown table: %s", stmt)
	}

	open := strings.Index(stmt, "(")
	end := strings.Index(stmt, ")")
	if open < 0 || end < open {
		return "", fmt.Errorf("unsupported insert statement: %s", stmt)
	}

	var updates []string
	for _, col := range strings.Split(stmt[open+1:end], ",") {
		col = strings.TrimSpace(col)
		if !def.isPrimaryKey(col) {
			updates = append(updates, fmt.Sprintf("%s = excluded.%s", col, col))
		}
	}

	conflict := strings.Join(def.primaryKey, ", ")
	if len(updates) == 0 {
		return fmt.Sprintf("%s ON CONFLICT(%s) DO NOTHING", stmt, conflict), nil
	}
	return fmt.Sprintf("%s ON CONFLICT(%s) DO UPDATE SET %s", stmt, conflict, strings.Join(updates, ", ")), nil
}

// tableFor resolves the table definition referenced by a statement.
func (s *SQLiteStore) tableFor(stmt string) *tableDef {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for name, def := range s.tables {
		if containsWord(stmt, name) {
			return def
		}
	}
	return nil
}

func containsWord(stmt, word string) bool {
	for _, f := range strings.Fields(stmt) {
		if strings.Trim(f, "(),") == word {
			return true
		}
	}
	return false
}

// convertSQLiteValue maps driver values onto the store's row representation:
// booleans from integers, sets from JSON arrays, NULL to absent.
func convertSQLiteValue(def *tableDef, col string, v interface{}) interface{} {
	if v == nil {
		return nil
	}

	if b, ok := v.([]byte); ok {
		v = string(b)
	}

	if def != nil {
		if def.boolCols[col] {
			if n, ok := v.(int64); ok {
				return n != 0
			}
			if b, ok := v.(bool); ok {
				return b
			}
		}
		if def.setCols[col] {
			if text, ok := v.(string); ok {
				var set []string
				if err := json.Unmarshal([]byte(text), &set); err == nil {
					return set
				}
			}
			return nil
		}
	}
	return v
}
