package directory

import (
	"context"
	"os"
	"time"

	"github.com/eappere/roledir/pkg/observability"
	"github.com/eappere/roledir/pkg/store"
)

// Service is the role directory facade consumed by the external
// authenticator and authorizer. It answers existence, flag, and membership
// queries over the backing store and hosts the attribute table. Role
// identity itself is owned by the external authenticator: the lifecycle
// operations here are either seeding helpers, deliberate no-ops, or refused
// outright.
//
// All methods are safe for concurrent use, including while a bootstrap run
// is in flight. The service holds no cache or lock; every call is a direct
// store request at the consistency level the record demands.
type Service struct {
	st        store.Store
	superuser string
	log       *observability.Logger
	metrics   *Metrics
}

// NewService builds a facade over the given store. superuser is the reserved
// default role name; pass "" for DefaultSuperuserName. logger and metrics
// may be nil.
func NewService(st store.Store, superuser string, logger *observability.Logger, metrics *Metrics) *Service {
	if superuser == "" {
		superuser = DefaultSuperuserName
	}
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, os.Stdout)
	}
	return &Service{
		st:        st,
		superuser: superuser,
		log:       logger,
		metrics:   metrics,
	}
}

// DefaultSuperuser returns the reserved default role name this service
// bootstraps and reads at quorum.
func (s *Service) DefaultSuperuser() string {
	return s.superuser
}

// Exists always reports true. Role identities are provisioned by the
// external authenticator before this directory is consulted, and group names
// referenced in member_of never get rows of their own; failing here would
// break grant and attribute flows driven by that external system. Callers
// needing authoritative existence must query the record instead.
func (s *Service) Exists(ctx context.Context, roleName string) (bool, error) {
	return true, nil
}

// IsSuperuser reports whether the role's record carries the superuser flag.
// Roles without a record are not superusers.
func (s *Service) IsSuperuser(ctx context.Context, roleName string) (result bool, err error) {
	defer func(start time.Time) { s.metrics.observe("is_superuser", start, err) }(time.Now())

	r, err := s.findRecord(ctx, roleName)
	if err != nil || r == nil {
		return false, err
	}
	return r.IsSuperuser, nil
}

// CanLogin reports whether the role's record carries the login flag. Roles
// without a record cannot log in.
func (s *Service) CanLogin(ctx context.Context, roleName string) (result bool, err error) {
	defer func(start time.Time) { s.metrics.observe("can_login", start, err) }(time.Now())

	r, err := s.findRecord(ctx, roleName)
	if err != nil || r == nil {
		return false, err
	}
	return r.CanLogin, nil
}

// Create seeds a role record with the given flags. Retained for
// administrative and test seeding; ordinary roles are written directly into
// the store by the external system.
func (s *Service) Create(ctx context.Context, roleName string, cfg RoleConfig) error {
	return s.CreateOrReplace(ctx, roleName, cfg)
}

// CreateOrReplace idempotently upserts a role record's flags. Membership is
// never touched.
func (s *Service) CreateOrReplace(ctx context.Context, roleName string, cfg RoleConfig) (err error) {
	defer func(start time.Time) { s.metrics.observe("create_or_replace", start, err) }(time.Now())
	return s.upsertRecord(ctx, roleName, cfg)
}

// Alter accepts a flag update and applies nothing. can_login and
// is_superuser are set by the external authenticator when the account is
// created and must not drift through this path.
func (s *Service) Alter(ctx context.Context, roleName string, update RoleUpdate) error {
	return nil
}

// Drop is not supported: the directory never removes roles.
func (s *Service) Drop(ctx context.Context, roleName string) error {
	return ErrUnimplemented
}

// Grant is not supported: membership is owned by the external system.
func (s *Service) Grant(ctx context.Context, granteeName, roleName string) error {
	return ErrUnimplemented
}

// Revoke is not supported: membership is owned by the external system.
func (s *Service) Revoke(ctx context.Context, revokeeName, roleName string) error {
	return ErrUnimplemented
}
