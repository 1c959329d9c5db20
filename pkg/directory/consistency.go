package directory

import "github.com/eappere/roledir/pkg/store"

// consistencyFor maps a role name to the consistency level its record
// requires. The default superuser record must be agreed cluster-wide so
// racing bootstraps converge on one row; every other lookup favors
// availability and latency over agreement.
func (s *Service) consistencyFor(roleName string) store.Consistency {
	if roleName == s.superuser {
		return store.Quorum
	}
	return store.LocalOne
}
