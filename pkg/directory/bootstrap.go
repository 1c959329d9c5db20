package directory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/eappere/roledir/pkg/store"
)

// BootstrapState tracks how far a Coordinator has progressed.
type BootstrapState int32

const (
	StateNotStarted BootstrapState = iota
	StateTablesEnsured
	StateSchemaAgreed
	StateDefaultRoleEnsured
	StateRunning
	StateStopped
)

func (s BootstrapState) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateTablesEnsured:
		return "tables_ensured"
	case StateSchemaAgreed:
		return "schema_agreed"
	case StateDefaultRoleEnsured:
		return "default_role_ensured"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("BootstrapState(%d)", int32(s))
	}
}

// Coordinator drives process startup for the directory: ensure both tables
// exist, wait for cluster-wide schema agreement, then ensure the default
// superuser row exists exactly once.
//
// A mutex serializes runs so exactly one execution context per process
// performs the sequence; concurrent bootstraps from other processes in the
// cluster are tolerated because the default-role insert is idempotent and
// quorum-consistent. The coordinator never retries internally: a run that
// fails on transient unavailability returns store.ErrUnavailable and the
// caller's backoff schedule re-invokes Run.
type Coordinator struct {
	svc *Service

	mu       sync.Mutex
	abort    chan struct{}
	stopOnce sync.Once

	tablesEnsured bool
	state         atomic.Int32
}

// NewCoordinator creates a coordinator for the service's store.
func NewCoordinator(svc *Service) *Coordinator {
	return &Coordinator{
		svc:   svc,
		abort: make(chan struct{}),
	}
}

// State returns the coordinator's current bootstrap state.
func (c *Coordinator) State() BootstrapState {
	return BootstrapState(c.state.Load())
}

// Run executes the bootstrap sequence once. It blocks while another run is
// in flight. Directory queries and attribute operations stay fully usable
// while Run is in progress.
//
// A run aborted by Stop returns context.Canceled; callers treat that as a
// clean shutdown, not a failure.
func (c *Coordinator) Run(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	finished := make(chan struct{})
	defer close(finished)
	go func() {
		select {
		case <-c.abort:
			cancel()
		case <-finished:
		}
	}()

	err := c.run(ctx)
	switch {
	case errors.Is(err, context.Canceled):
		c.state.Store(int32(StateStopped))
		c.svc.metrics.bootstrapRun("cancelled")
	case errors.Is(err, store.ErrUnavailable):
		c.svc.metrics.bootstrapRun("unavailable")
	case err != nil:
		c.svc.metrics.bootstrapRun("error")
	default:
		c.svc.metrics.bootstrapRun("ok")
	}
	return err
}

func (c *Coordinator) run(ctx context.Context) error {
	if !c.tablesEnsured {
		if err := ensureSchema(ctx, c.svc.st); err != nil {
			return err
		}
		c.tablesEnsured = true
	}
	c.state.Store(int32(StateTablesEnsured))

	// Bootstrapping against a partially-propagated schema could insert into
	// a table some replicas do not know yet.
	if err := c.svc.st.AwaitSchemaAgreement(ctx); err != nil {
		return err
	}
	c.state.Store(int32(StateSchemaAgreed))

	if err := c.ensureDefaultRole(ctx); err != nil {
		return err
	}
	c.state.Store(int32(StateDefaultRoleEnsured))

	c.state.Store(int32(StateRunning))
	c.svc.log.Infof("Role directory bootstrap complete, default superuser is '%s'", c.svc.superuser)
	return nil
}

// ensureDefaultRole inserts the default superuser row at quorum unless a
// qualifying record (default name, can_login set) already exists.
func (c *Coordinator) ensureDefaultRole(ctx context.Context) error {
	rows, err := c.svc.st.Query(ctx, selectRoleStmt, store.Quorum, c.svc.superuser)
	if err != nil {
		return c.defaultRoleFailure(fmt.Errorf("checking default role: %w", err))
	}
	if len(rows) > 0 && rows[0].Has("can_login") {
		return nil
	}

	err = c.svc.st.Exec(ctx, insertRoleStmt, store.Quorum, c.svc.superuser, true, true)
	if err != nil {
		return c.defaultRoleFailure(fmt.Errorf("inserting default role: %w", err))
	}

	c.svc.log.Infof("Created default superuser role '%s'", c.svc.superuser)
	c.svc.metrics.defaultRoleCreated()
	return nil
}

// defaultRoleFailure logs the retryable case and passes the error through
// for the caller's retry scheduling.
func (c *Coordinator) defaultRoleFailure(err error) error {
	if errors.Is(err, store.ErrUnavailable) {
		c.svc.log.Warn("Skipped default role setup: some nodes were not ready; will retry")
	}
	return err
}

// Stop aborts any in-flight run and marks the coordinator stopped. The
// cancellation this causes inside Run is swallowed by callers as a clean
// shutdown. Stop returns once no run is in flight.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() {
		close(c.abort)
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Store(int32(StateStopped))
}
