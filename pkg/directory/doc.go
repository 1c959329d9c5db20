// Package directory implements the role directory: persisted identity roles
// with superuser and login flags, flat group membership, and free-form
// attributes, served from a replicated row store.
//
// # Overview
//
// The directory is consulted by an external authentication front-end. It
// owns two tables (roles, role_attributes) and answers membership and flag
// queries; role identity itself is provisioned by the external authenticator,
// which is why Exists always reports true, Alter is a no-op, and
// Drop/Grant/Revoke refuse with ErrUnimplemented.
//
// # Consistency
//
// Each record is read and written at the level its name demands: the
// reserved default superuser record at quorum, everything else at a single
// local replica. The bootstrap record must be agreed cluster-wide so that
// processes racing at startup converge on exactly one superuser row; steady
// state lookups trade that agreement for latency and availability.
//
// # Bootstrap
//
// Coordinator runs the startup sequence: ensure both tables (concurrently),
// wait for cluster schema agreement, then insert the default superuser row
// at quorum if no qualifying row exists. Transient replica shortages surface
// as store.ErrUnavailable for the caller's backoff schedule to re-invoke;
// Stop cancels an in-flight run and the resulting context.Canceled counts as
// a clean shutdown.
package directory
