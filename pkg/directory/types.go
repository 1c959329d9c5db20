package directory

import "sort"

// DefaultSuperuserName is the reserved name of the bootstrap superuser role.
// Only this role's record is read and written at quorum consistency.
const DefaultSuperuserName = "cassandra"

// Role is a directory record: a named identity with its flags and the set of
// roles it is directly a member of. MemberOf may reference names that have no
// record of their own; such group identities are owned by the external
// authenticator and never materialized as rows.
type Role struct {
	Name        string
	IsSuperuser bool
	CanLogin    bool
	MemberOf    RoleSet
}

// RoleConfig carries the flags applied when seeding a role record.
type RoleConfig struct {
	IsSuperuser bool
	CanLogin    bool
}

// RoleUpdate describes a requested flag change. Alter accepts it for
// interface compatibility and never applies it: the flags are authoritatively
// set by the external authenticator at account creation.
type RoleUpdate struct {
	IsSuperuser *bool
	CanLogin    *bool
}

// QueryMode selects how membership queries resolve grants. The directory's
// identity model is a flat, one-level grouping, so RecursiveQuery is accepted
// and treated as DirectQuery.
type QueryMode string

const (
	DirectQuery    QueryMode = "direct"
	RecursiveQuery QueryMode = "recursive"
)

// RoleSet is an unordered set of role names.
type RoleSet map[string]struct{}

// NewRoleSet builds a set from the given names.
func NewRoleSet(names ...string) RoleSet {
	s := make(RoleSet, len(names))
	for _, name := range names {
		s[name] = struct{}{}
	}
	return s
}

// Add inserts a name into the set.
func (s RoleSet) Add(name string) {
	s[name] = struct{}{}
}

// Contains reports whether the set holds the name.
func (s RoleSet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// Names returns the set's members in sorted order.
func (s RoleSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
