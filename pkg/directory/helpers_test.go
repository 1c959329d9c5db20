package directory

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eappere/roledir/pkg/observability"
	"github.com/eappere/roledir/pkg/store"
)

// newTestService builds a service over a fresh memory store with both tables
// ensured.
func newTestService(t *testing.T) (*Service, *store.MemoryStore) {
	t.Helper()

	st := store.NewMemoryStore()
	require.NoError(t, ensureSchema(context.Background(), st))

	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	return NewService(st, "", logger, nil), st
}

// seedRole writes a full role row directly, standing in for the external
// system that owns role creation and membership.
func seedRole(t *testing.T, st *store.MemoryStore, name string, superuser, canLogin bool, memberOf ...string) {
	t.Helper()

	row := store.Row{
		"role":         name,
		"is_superuser": superuser,
		"can_login":    canLogin,
	}
	if len(memberOf) > 0 {
		row["member_of"] = memberOf
	}
	require.NoError(t, st.Seed(RolesTable, row))
}
