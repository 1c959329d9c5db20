package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/gocql/gocql"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

func init() {
	mustRegister("cassandra", func(cfg Config) (Store, error) {
		return NewCassandraStore(cfg)
	})
}

// CassandraStore is the production backend, backed by a Cassandra/Scylla
// cluster through gocql. Consistency levels map directly onto the driver's.
type CassandraStore struct {
	session *gocql.Session
	tracer  trace.Tracer
}

// NewCassandraStore connects to the cluster described by cfg.
func NewCassandraStore(cfg Config) (*CassandraStore, error) {
	cluster := gocql.NewCluster(cfg.CassandraHosts...)
	cluster.Keyspace = cfg.CassandraKeyspace
	cluster.Timeout = cfg.CassandraTimeout
	cluster.ConnectTimeout = cfg.CassandraConnectTimeout
	// Per-query consistency is set explicitly on every statement; the cluster
	// default only covers driver-internal queries.
	cluster.Consistency = gocql.LocalOne

	if cfg.CassandraUsername != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.CassandraUsername,
			Password: cfg.CassandraPassword,
		}
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to cassandra: %w", err)
	}

	return &CassandraStore{
		session: session,
		tracer:  otel.Tracer("roledir/store/cassandra"),
	}, nil
}

// Query runs a read statement at the given consistency level.
func (s *CassandraStore) Query(ctx context.Context, stmt string, cons Consistency, args ...interface{}) ([]Row, error) {
	ctx, span := s.startSpan(ctx, "cassandra.query", stmt, cons)
	defer span.End()

	iter := s.session.Query(stmt, args...).
		WithContext(ctx).
		Consistency(driverConsistency(cons)).
		Iter()

	var rows []Row
	row := map[string]interface{}{}
	for iter.MapScan(row) {
		rows = append(rows, Row(row))
		row = map[string]interface{}{}
	}

	if err := iter.Close(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, mapDriverError(err)
	}
	return rows, nil
}

// Exec runs a write statement at the given consistency level.
func (s *CassandraStore) Exec(ctx context.Context, stmt string, cons Consistency, args ...interface{}) error {
	ctx, span := s.startSpan(ctx, "cassandra.exec", stmt, cons)
	defer span.End()

	err := s.session.Query(stmt, args...).
		WithContext(ctx).
		Consistency(driverConsistency(cons)).
		Exec()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return mapDriverError(err)
	}
	return nil
}

// EnsureTable creates the table if missing. The DDL must use
// CREATE TABLE IF NOT EXISTS so concurrent callers converge.
func (s *CassandraStore) EnsureTable(ctx context.Context, name, ddl string) error {
	if err := s.session.Query(ddl).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("failed to ensure table %s: %w", name, mapDriverError(err))
	}
	return nil
}

// AwaitSchemaAgreement blocks until all reachable nodes report the same
// schema version.
func (s *CassandraStore) AwaitSchemaAgreement(ctx context.Context) error {
	if err := s.session.AwaitSchemaAgreement(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("schema agreement: %w", mapDriverError(err))
	}
	return nil
}

// Close releases the driver session.
func (s *CassandraStore) Close() error {
	s.session.Close()
	return nil
}

func (s *CassandraStore) startSpan(ctx context.Context, name, stmt string, cons Consistency) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("db.statement", stmt),
		attribute.String("db.consistency", cons.String()),
	))
}

func driverConsistency(cons Consistency) gocql.Consistency {
	if cons == Quorum {
		return gocql.Quorum
	}
	return gocql.LocalOne
}

// mapDriverError normalizes driver errors onto the store taxonomy so callers
// never import gocql.
func mapDriverError(err error) error {
	var unavailable *gocql.RequestErrUnavailable
	if errors.As(err, &unavailable) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
