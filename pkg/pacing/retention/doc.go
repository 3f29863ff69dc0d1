// Package retention enforces the snapshot retention policy.
//
// Usage snapshots are append-only and grow without bound; the pruner
// deletes snapshots older than the configured retention period, either
// on demand or on a cron schedule.
package retention
