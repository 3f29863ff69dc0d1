// Package pacing orchestrates adaptive throttling of metered API
// credit usage against two overlapping sliding quota windows.
//
// # Overview
//
// Each unit of work asks the orchestrator for a pacing decision. The
// orchestrator polls the upstream usage source at most once per poll
// interval; between polls the previous decision is replayed unchanged
// from the decision cache. On a fresh poll it evaluates both windows,
// picks the more constrained one, and emits a bounded delay for the
// caller to sleep.
//
// # Architecture
//
// The package is organized into sub-packages:
//
//   - window: elapsed-time arithmetic (continuous and business-day accrual)
//   - allowance: target utilization with preload and safety buffer
//   - projection: forward-looking delay algorithm
//   - storage: snapshot log and decision cache persistence
//   - retention: scheduled pruning of old snapshots
//
// # Failure policy
//
// The engine fails open on data problems and never on safety: an
// unreachable upstream source or a failed persistence write degrades to
// the cached decision or to no throttling, never to an error surfaced
// at the unit of work.
package pacing
