// Package store provides the replicated row-store abstraction the role
// directory runs on, with pluggable backends.
//
// # Overview
//
// The directory issues parameterized statements at an explicit consistency
// level; the store decides how to satisfy them. Two levels exist: LocalOne
// (one nearby replica, favors availability) and Quorum (strict majority,
// favors agreement). Backends also expose the two schema-management
// operations bootstrap depends on: idempotent table creation and a wait for
// cluster-wide schema agreement.
//
// # Backends
//
// Backends register a Factory under a configuration name and are resolved at
// startup through Open:
//
//	st, err := store.Open(store.Config{Backend: "cassandra", ...})
//
//   - cassandra: production backend over gocql; consistency levels map onto
//     the driver's, unavailable errors surface as ErrUnavailable
//   - sqlite: single-node development backend; consistency is accepted and
//     ignored, sets are stored as JSON arrays
//   - memory: in-process backend for tests, with fault injection
//
// # Errors
//
// ErrUnavailable marks a transient replica shortage at the requested
// consistency level. All other backend errors pass through wrapped.
package store
