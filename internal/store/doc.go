// Package store provides durable storage for lookahead search sessions.
//
// A session is identified by the side to move at the root and the root's
// fingerprint. Each checkpoint saves the session's complete node set, its
// consumed-work counter and the summary pointers in one transaction:
//
//   - sessions: one row per (side, root_fingerprint), UUIDv7 primary key
//   - nodes: one row per (session, node id), unique per (fingerprint, parity)
//
// Loads return ErrNotFound for unknown sessions. Node rows are always read
// in id order.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Saves that still hit SQLITE_BUSY are retried a bounded number of times.
//
// Memory is an in-process implementation of the same contract, used by the
// scenario harness and tests.
package store
