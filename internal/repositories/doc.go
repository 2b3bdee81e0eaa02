// Package repositories implements SQLite persistence for the request history.
//
// Key Implementations:
//   - [RunRepository] : one row per completed backend request, queried by action and outcome
//
// Sequence numbers provide stable, human-readable ordering (run #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
