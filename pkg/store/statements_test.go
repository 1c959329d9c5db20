package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSelect(t *testing.T) {
	tests := []struct {
		stmt    string
		table   string
		columns []string
		where   []string
	}{
		{
			stmt:    "SELECT * FROM roles WHERE role = ?",
			table:   "roles",
			columns: []string{"*"},
			where:   []string{"role"},
		},
		{
			stmt:    "SELECT role, member_of FROM roles",
			table:   "roles",
			columns: []string{"role", "member_of"},
		},
		{
			stmt:    "SELECT name, value FROM role_attributes WHERE role = ? AND name = ?",
			table:   "role_attributes",
			columns: []string{"name", "value"},
			where:   []string{"role", "name"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.stmt, func(t *testing.T) {
			sel, err := parseSelect(tt.stmt)
			require.NoError(t, err)
			assert.Equal(t, tt.table, sel.table)
			assert.Equal(t, tt.columns, sel.columns)
			assert.Equal(t, tt.where, sel.where)
		})
	}
}

func TestParseSelectRejectsUnsupported(t *testing.T) {
	stmts := []string{
		"SELECT",
		"UPDATE roles SET can_login = ?",
		"SELECT * FROM roles WHERE role > ?",
		"SELECT * FROM roles WHERE role = ? OR role = ?",
		"SELECT * FROM roles ORDER role",
	}
	for _, stmt := range stmts {
		_, err := parseSelect(stmt)
		assert.Error(t, err, stmt)
	}
}

func TestParseInsert(t *testing.T) {
	table, cols, err := parseInsert("INSERT INTO roles (role, is_superuser, can_login) VALUES (?, ?, ?)")
	require.NoError(t, err)
	assert.Equal(t, "roles", table)
	assert.Equal(t, []string{"role", "is_superuser", "can_login"}, cols)

	_, _, err = parseInsert("INSERT roles VALUES (?)")
	assert.Error(t, err)
}

func TestParseDelete(t *testing.T) {
	table, where, err := parseDelete("DELETE FROM role_attributes WHERE role = ? AND name = ?")
	require.NoError(t, err)
	assert.Equal(t, "role_attributes", table)
	assert.Equal(t, []string{"role", "name"}, where)

	_, _, err = parseDelete("DELETE role_attributes")
	assert.Error(t, err)
}
