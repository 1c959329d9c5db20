package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExistsIsAlwaysTrue(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, name := range []string{"cassandra", "alice", "never-written", ""} {
		exists, err := svc.Exists(ctx, name)
		require.NoError(t, err)
		assert.True(t, exists, "exists(%q)", name)
	}
}

func TestIsSuperuser(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	seedRole(t, st, "root", true, true)
	seedRole(t, st, "alice", false, true)

	tests := []struct {
		role string
		want bool
	}{
		{"root", true},
		{"alice", false},
		{"ghost", false},
	}
	for _, tt := range tests {
		got, err := svc.IsSuperuser(ctx, tt.role)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "is_superuser(%q)", tt.role)
	}
}

func TestCanLogin(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	seedRole(t, st, "alice", false, true)
	seedRole(t, st, "service-group", false, false)

	tests := []struct {
		role string
		want bool
	}{
		{"alice", true},
		{"service-group", false},
		{"ghost", false},
	}
	for _, tt := range tests {
		got, err := svc.CanLogin(ctx, tt.role)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "can_login(%q)", tt.role)
	}
}

func TestCreateOrReplaceIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cfg := RoleConfig{IsSuperuser: true, CanLogin: true}
	require.NoError(t, svc.CreateOrReplace(ctx, "alice", cfg))

	first, err := svc.findRecord(ctx, "alice")
	require.NoError(t, err)

	require.NoError(t, svc.CreateOrReplace(ctx, "alice", cfg))
	second, err := svc.findRecord(ctx, "alice")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCreateDelegatesToCreateOrReplace(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Create(ctx, "bob", RoleConfig{CanLogin: true}))

	canLogin, err := svc.CanLogin(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, canLogin)
}

func TestAlterChangesNothing(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	seedRole(t, st, "alice", false, true, "analysts")

	super := true
	login := false
	require.NoError(t, svc.Alter(ctx, "alice", RoleUpdate{IsSuperuser: &super, CanLogin: &login}))

	r, err := svc.findRecord(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.False(t, r.IsSuperuser)
	assert.True(t, r.CanLogin)
	assert.True(t, r.MemberOf.Contains("analysts"))
}

func TestAlterOnAbsentRoleSucceeds(t *testing.T) {
	svc, _ := newTestService(t)
	assert.NoError(t, svc.Alter(context.Background(), "ghost", RoleUpdate{}))
}

func TestRefusedOperations(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	seedRole(t, st, "alice", false, true)

	assert.ErrorIs(t, svc.Drop(ctx, "alice"), ErrUnimplemented)
	assert.ErrorIs(t, svc.Drop(ctx, "ghost"), ErrUnimplemented)
	assert.ErrorIs(t, svc.Grant(ctx, "alice", "analysts"), ErrUnimplemented)
	assert.ErrorIs(t, svc.Revoke(ctx, "alice", "analysts"), ErrUnimplemented)
}

func TestNonexistentRoleError(t *testing.T) {
	err := error(&NonexistentRoleError{Name: "alice"})
	assert.True(t, IsNonexistentRole(err))
	assert.False(t, IsNonexistentRole(errors.New("other")))
	assert.False(t, IsNonexistentRole(nil))
	assert.Equal(t, `role "alice" does not exist`, err.Error())
}

func TestDefaultSuperuserName(t *testing.T) {
	svc, _ := newTestService(t)
	assert.Equal(t, DefaultSuperuserName, svc.DefaultSuperuser())
}
