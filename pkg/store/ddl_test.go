package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDDLInlinePrimaryKey(t *testing.T) {
	def, err := parseDDL("CREATE TABLE IF NOT EXISTS roles (" +
		"role text PRIMARY KEY, " +
		"is_superuser boolean, " +
		"can_login boolean, " +
		"member_of set<text>)")
	require.NoError(t, err)

	assert.Equal(t, "roles", def.name)
	assert.Equal(t, []string{"role"}, def.primaryKey)
	assert.True(t, def.boolCols["is_superuser"])
	assert.True(t, def.boolCols["can_login"])
	assert.True(t, def.setCols["member_of"])
	assert.True(t, def.isPrimaryKey("role"))
	assert.False(t, def.isPrimaryKey("can_login"))
}

func TestParseDDLCompositePrimaryKey(t *testing.T) {
	def, err := parseDDL("CREATE TABLE IF NOT EXISTS role_attributes (" +
		"role text, " +
		"name text, " +
		"value text, " +
		"PRIMARY KEY (role, name))")
	require.NoError(t, err)

	assert.Equal(t, "role_attributes", def.name)
	assert.Equal(t, []string{"role", "name"}, def.primaryKey)
	assert.True(t, def.isPrimaryKey("role"))
	assert.True(t, def.isPrimaryKey("name"))
	assert.False(t, def.isPrimaryKey("value"))
}

func TestParseDDLRejectsMalformed(t *testing.T) {
	_, err := parseDDL("CREATE TABLE broken")
	assert.Error(t, err)

	_, err = parseDDL("CREATE TABLE nokey (a text, b text)")
	assert.Error(t, err)
}

func TestSplitColumns(t *testing.T) {
	parts := splitColumns("role text, member_of set<text>, PRIMARY KEY (role, name)")
	assert.Equal(t, []string{"role text", "member_of set<text>", "PRIMARY KEY (role, name)"}, parts)
}
