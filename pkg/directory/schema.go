package directory

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/eappere/roledir/pkg/store"
)

// Table names in the backing store.
const (
	RolesTable      = "roles"
	AttributesTable = "role_attributes"
)

const (
	createRolesTableDDL = "CREATE TABLE IF NOT EXISTS roles (" +
		"role text PRIMARY KEY, " +
		"is_superuser boolean, " +
		"can_login boolean, " +
		"member_of set<text>" +
		")"

	createAttributesTableDDL = "CREATE TABLE IF NOT EXISTS role_attributes (" +
		"role text, " +
		"name text, " +
		"value text, " +
		"PRIMARY KEY (role, name)" +
		")"
)

// Statements issued against the store. Column merges on insert are part of
// the contract: inserting (role, is_superuser, can_login) leaves member_of
// untouched.
const (
	selectRoleStmt      = "SELECT * FROM roles WHERE role = ?"
	insertRoleStmt      = "INSERT INTO roles (role, is_superuser, can_login) VALUES (?, ?, ?)"
	selectAllRolesStmt  = "SELECT role, member_of FROM roles"
	selectAttributeStmt = "SELECT name, value FROM role_attributes WHERE role = ? AND name = ?"
	insertAttributeStmt = "INSERT INTO role_attributes (role, name, value) VALUES (?, ?, ?)"
	deleteAttributeStmt = "DELETE FROM role_attributes WHERE role = ? AND name = ?"
)

// ensureSchema creates both directory tables if missing. The two creations
// run concurrently and are joined before returning.
func ensureSchema(ctx context.Context, st store.Store) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := st.EnsureTable(ctx, RolesTable, createRolesTableDDL); err != nil {
			return fmt.Errorf("ensuring %s table: %w", RolesTable, err)
		}
		return nil
	})
	g.Go(func() error {
		if err := st.EnsureTable(ctx, AttributesTable, createAttributesTableDDL); err != nil {
			return fmt.Errorf("ensuring %s table: %w", AttributesTable, err)
		}
		return nil
	})

	return g.Wait()
}
