package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockSQLiteStore(t *testing.T) (*SQLiteStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return newSQLiteStoreFromDB(db), mock
}

func TestSQLiteEnsureTableRewritesSets(t *testing.T) {
	st, mock := newMockSQLiteStore(t)

	ddl := "CREATE TABLE IF NOT EXISTS roles (role text PRIMARY KEY, member_of set<text>)"
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS roles (role text PRIMARY KEY, member_of text)").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, st.EnsureTable(context.Background(), "roles", ddl))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteInsertBecomesUpsert(t *testing.T) {
	st, mock := newMockSQLiteStore(t)

	ddl := "CREATE TABLE IF NOT EXISTS roles (role text PRIMARY KEY, is_superuser boolean, can_login boolean)"
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS roles (role text PRIMARY KEY, is_superuser boolean, can_login boolean)").
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, st.EnsureTable(context.Background(), "roles", ddl))

	mock.ExpectExec("INSERT INTO roles (role, can_login) VALUES (?, ?) "+
		"ON CONFLICT(role) DO UPDATE SET can_login = excluded.can_login").
		WithArgs("alice", true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := st.Exec(context.Background(), "INSERT INTO roles (role, can_login) VALUES (?, ?)",
		LocalOne, "alice", true)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteInsertUnknownTable(t *testing.T) {
	st, _ := newMockSQLiteStore(t)

	err := st.Exec(context.Background(), "INSERT INTO nope (x) VALUES (?)", LocalOne, 1)
	assert.Error(t, err)
}

func TestSQLiteQueryConvertsValues(t *testing.T) {
	st, mock := newMockSQLiteStore(t)

	ddl := "CREATE TABLE IF NOT EXISTS roles (role text PRIMARY KEY, can_login boolean, member_of set<text>)"
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS roles (role text PRIMARY KEY, can_login boolean, member_of text)").
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, st.EnsureTable(context.Background(), "roles", ddl))

	mock.ExpectQuery("SELECT * FROM roles WHERE role = ?").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"role", "can_login", "member_of"}).
			AddRow("alice", int64(1), `["ops","dev"]`))

	rows, err := st.Query(context.Background(), "SELECT * FROM roles WHERE role = ?", LocalOne, "alice")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "alice", rows[0].String("role"))
	assert.Equal(t, true, rows[0]["can_login"])
	assert.Equal(t, []string{"ops", "dev"}, rows[0].StringSet("member_of"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteQueryNullColumnsAbsent(t *testing.T) {
	st, mock := newMockSQLiteStore(t)

	ddl := "CREATE TABLE IF NOT EXISTS roles (role text PRIMARY KEY, can_login boolean)"
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS roles (role text PRIMARY KEY, can_login boolean)").
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, st.EnsureTable(context.Background(), "roles", ddl))

	mock.ExpectQuery("SELECT * FROM roles WHERE role = ?").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"role", "can_login"}).AddRow("alice", nil))

	rows, err := st.Query(context.Background(), "SELECT * FROM roles WHERE role = ?", LocalOne, "alice")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.False(t, rows[0].Has("can_login"))
}

func TestRewriteInsertLeavesOtherStatements(t *testing.T) {
	st, _ := newMockSQLiteStore(t)

	stmt := "DELETE FROM role_attributes WHERE role = ? AND name = ?"
	rewritten, err := st.rewriteInsert(stmt)
	require.NoError(t, err)
	assert.Equal(t, stmt, rewritten)
}
