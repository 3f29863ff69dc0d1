package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pacekit/tempo/pkg/pacing/storage"
)

// Config contains configuration for the retention pruner.
type Config struct {
	// RetentionDays is the number of days to retain snapshots.
	// 0 means keep snapshots forever (no pruning).
	RetentionDays int

	// PruneSchedule is a cron expression for scheduling pruning.
	// Example: "0 3 * * *" (daily at 3 AM). Empty disables scheduling.
	PruneSchedule string
}

// DefaultConfig returns the default retention configuration.
func DefaultConfig() *Config {
	return &Config{
		RetentionDays: 60,
		PruneSchedule: "0 3 * * *",
	}
}

// Pruner enforces the retention policy on the snapshot log.
type Pruner struct {
	store     storage.Backend
	config    *Config
	logger    *slog.Logger
	scheduler *Scheduler

	// now is replaceable in tests.
	now func() time.Time
}

// NewPruner creates a retention pruner over the given backend.
func NewPruner(store storage.Backend, config *Config) *Pruner {
	if config == nil {
		config = DefaultConfig()
	}

	pruner := &Pruner{
		store:  store,
		config: config,
		logger: slog.Default().With("component", "pacing.retention"),
		now:    time.Now,
	}
	pruner.scheduler = NewScheduler(pruner)

	return pruner
}

// Scheduler returns the pruner's cron scheduler.
func (p *Pruner) Scheduler() *Scheduler {
	return p.scheduler
}

// Prune deletes snapshots older than the retention period and returns
// the number of rows removed. A zero retention period is a no-op.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	if p.config.RetentionDays <= 0 {
		return 0, nil
	}

	cutoff := p.now().AddDate(0, 0, -p.config.RetentionDays)

	deleted, err := p.store.PruneSnapshots(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots failed: %w", err)
	}

	if deleted > 0 {
		p.logger.Info("pruned old usage snapshots",
			"deleted_count", deleted,
			"retention_days", p.config.RetentionDays,
		)
	}

	return deleted, nil
}
