package directory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/eappere/roledir/pkg/store"
)

// GetAttribute returns the value stored for (role, attribute). ok is false
// when no value is set; that is not an error, and neither is a role without
// a record.
func (s *Service) GetAttribute(ctx context.Context, roleName, attributeName string) (value string, ok bool, err error) {
	defer func(start time.Time) { s.metrics.observe("get_attribute", start, err) }(time.Now())

	rows, err := s.st.Query(ctx, selectAttributeStmt, store.LocalOne, roleName, attributeName)
	if err != nil {
		return "", false, fmt.Errorf("getting attribute %q of role %q: %w", attributeName, roleName, err)
	}
	if len(rows) == 0 {
		return "", false, nil
	}
	return rows[0].String("value"), true, nil
}

// SetAttribute upserts the value for (role, attribute). The owning role must
// exist per Exists; that check is currently vacuous, but the guard stays so
// the contract holds if existence ever becomes strict.
func (s *Service) SetAttribute(ctx context.Context, roleName, attributeName, value string) (err error) {
	defer func(start time.Time) { s.metrics.observe("set_attribute", start, err) }(time.Now())

	exists, err := s.Exists(ctx, roleName)
	if err != nil {
		return err
	}
	if !exists {
		return &NonexistentRoleError{Name: roleName}
	}

	if err := s.st.Exec(ctx, insertAttributeStmt, store.LocalOne, roleName, attributeName, value); err != nil {
		return fmt.Errorf("setting attribute %q of role %q: %w", attributeName, roleName, err)
	}
	return nil
}

// RemoveAttribute deletes the value for (role, attribute). Removing an
// attribute that was never set succeeds.
func (s *Service) RemoveAttribute(ctx context.Context, roleName, attributeName string) (err error) {
	defer func(start time.Time) { s.metrics.observe("remove_attribute", start, err) }(time.Now())

	exists, err := s.Exists(ctx, roleName)
	if err != nil {
		return err
	}
	if !exists {
		return &NonexistentRoleError{Name: roleName}
	}

	if err := s.st.Exec(ctx, deleteAttributeStmt, store.LocalOne, roleName, attributeName); err != nil {
		return fmt.Errorf("removing attribute %q of role %q: %w", attributeName, roleName, err)
	}
	return nil
}

// QueryAttributeForAll fetches the attribute's value for every role QueryAll
// knows about, fanning the per-role reads out concurrently. Roles without a
// value are omitted. The result is not a snapshot: each role's value is read
// independently, and only per-role read-after-write consistency applies.
func (s *Service) QueryAttributeForAll(ctx context.Context, attributeName string) (result map[string]string, err error) {
	defer func(start time.Time) { s.metrics.observe("query_attribute_for_all", start, err) }(time.Now())

	roles, err := s.QueryAll(ctx)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	values := make(map[string]string)

	g, ctx := errgroup.WithContext(ctx)
	for name := range roles {
		name := name
		g.Go(func() error {
			value, ok, err := s.GetAttribute(ctx, name, attributeName)
			if err != nil {
				return err
			}
			if ok {
				mu.Lock()
				values[name] = value
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return values, nil
}
