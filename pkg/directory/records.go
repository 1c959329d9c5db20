package directory

import (
	"context"
	"fmt"
	"time"

	"github.com/eappere/roledir/pkg/store"
)

// findRecord looks up a single role record at the consistency level its name
// dictates. A missing row is not an error.
func (s *Service) findRecord(ctx context.Context, roleName string) (*Role, error) {
	rows, err := s.st.Query(ctx, selectRoleStmt, s.consistencyFor(roleName), roleName)
	if err != nil {
		return nil, fmt.Errorf("finding role %q: %w", roleName, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	row := rows[0]
	return &Role{
		Name:        row.String("role"),
		IsSuperuser: row.Bool("is_superuser"),
		CanLogin:    row.Bool("can_login"),
		MemberOf:    NewRoleSet(row.StringSet("member_of")...),
	}, nil
}

// requireRecord is findRecord that fails with NonexistentRoleError when the
// role has no row.
func (s *Service) requireRecord(ctx context.Context, roleName string) (*Role, error) {
	r, err := s.findRecord(ctx, roleName)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, &NonexistentRoleError{Name: roleName}
	}
	return r, nil
}

// upsertRecord writes the role's flags. The insert names only the flag
// columns, so an existing member_of set survives the write.
func (s *Service) upsertRecord(ctx context.Context, roleName string, cfg RoleConfig) error {
	err := s.st.Exec(ctx, insertRoleStmt, s.consistencyFor(roleName), roleName, cfg.IsSuperuser, cfg.CanLogin)
	if err != nil {
		return fmt.Errorf("upserting role %q: %w", roleName, err)
	}
	return nil
}

// QueryAll scans the roles table at quorum and returns every known role
// name: each row's own name plus every name inside its member_of set. Names
// that appear only as group references come back too, even though they have
// no row of their own.
func (s *Service) QueryAll(ctx context.Context) (result RoleSet, err error) {
	defer func(start time.Time) { s.metrics.observe("query_all", start, err) }(time.Now())

	rows, err := s.st.Query(ctx, selectAllRolesStmt, store.Quorum)
	if err != nil {
		return nil, fmt.Errorf("listing roles: %w", err)
	}

	roles := make(RoleSet)
	for _, row := range rows {
		roles.Add(row.String("role"))
		for _, member := range row.StringSet("member_of") {
			roles.Add(member)
		}
	}
	return roles, nil
}
