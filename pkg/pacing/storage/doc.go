// Package storage provides persistence for usage snapshots and cached
// pacing decisions.
//
// Two backends are available:
//
//   - MemoryBackend: process-local, for tests and ephemeral runs.
//   - SQLiteBackend: durable single-file storage for the normal case,
//     where the engine is re-invoked as a short-lived process per unit
//     of work and state must survive between invocations.
//
// The snapshot log is append-only; concurrent sessions never conflict.
// The decision cache holds one row per session, overwritten wholesale
// on recompute (last writer wins).
package storage
