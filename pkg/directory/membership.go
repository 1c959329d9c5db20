package directory

import (
	"context"
	"time"
)

// QueryGranted returns the set of roles granted to a grantee: the grantee
// itself plus every role its record names in member_of. Resolution is
// deliberately non-recursive; the identity model is a flat, one-level
// grouping, so a membership of a membership is never followed. The mode
// argument is accepted for interface compatibility and ignored.
//
// Fails with NonexistentRoleError when the grantee has no record.
func (s *Service) QueryGranted(ctx context.Context, granteeName string, mode QueryMode) (result RoleSet, err error) {
	defer func(start time.Time) { s.metrics.observe("query_granted", start, err) }(time.Now())

	r, err := s.requireRecord(ctx, granteeName)
	if err != nil {
		return nil, err
	}

	roles := NewRoleSet(granteeName)
	for member := range r.MemberOf {
		roles.Add(member)
	}
	return roles, nil
}
