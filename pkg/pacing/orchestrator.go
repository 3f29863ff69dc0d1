package pacing

import (
	"context"
	"log/slog"
	"time"

	"pacekit/tempo/pkg/pacing/allowance"
	"pacekit/tempo/pkg/pacing/projection"
	"pacekit/tempo/pkg/pacing/storage"
	"pacekit/tempo/pkg/pacing/window"
)

// Orchestrator ties the pacing components together per invocation:
// ingest the latest usage reading for both windows, pick the more
// constrained window, and return its decision.
//
// Each evaluation is synchronous and runs to completion; the
// orchestrator never sleeps internally. Applying a non-zero delay is
// the caller's job.
type Orchestrator struct {
	cfg     Config
	store   storage.Backend
	source  UsageSource
	cache   *DecisionCache
	metrics *Metrics
	logger  *slog.Logger

	// now is replaceable in tests.
	now func() time.Time
}

// NewOrchestrator creates an orchestrator. The metrics argument may be
// nil to disable instrumentation.
func NewOrchestrator(cfg Config, store storage.Backend, source UsageSource, metrics *Metrics) *Orchestrator {
	return &Orchestrator{
		cfg:     cfg,
		store:   store,
		source:  source,
		cache:   NewDecisionCache(store),
		metrics: metrics,
		logger:  slog.Default().With("component", "pacing"),
		now:     time.Now,
	}
}

// Check runs one complete pacing check: serve the cached decision if it
// is still valid, otherwise poll the upstream source, persist a usage
// snapshot, evaluate both windows, and cache the new decision.
//
// Check never fails; on upstream or storage problems it degrades to the
// cached decision or to no throttling.
func (o *Orchestrator) Check(ctx context.Context, sessionID string) *Decision {
	decision, cached := o.cache.GetOrCompute(ctx, sessionID, o.cfg.PollInterval, func(ctx context.Context) (*Decision, error) {
		usage, err := o.source.Fetch(ctx)
		if err != nil {
			if o.metrics != nil {
				o.metrics.PollFailure()
			}
			return nil, err
		}

		o.persistSnapshot(ctx, sessionID, usage)
		return o.Evaluate(ctx, sessionID, usage), nil
	})

	if o.metrics != nil {
		o.metrics.ObserveCacheLookup(cached)
		if !cached {
			o.metrics.ObserveDecision(decision)
		}
	}

	return decision
}

// Evaluate computes a fresh decision from the given usage readings.
// It is deterministic for a fixed clock and does not touch the cache.
func (o *Orchestrator) Evaluate(_ context.Context, sessionID string, usage *Usage) *Decision {
	now := o.now()

	var short, long *WindowStatus
	if usage != nil {
		short = o.evaluateWindow(WindowShort, o.cfg.Short, usage.Short, now)
		long = o.evaluateWindow(WindowLong, o.cfg.Long, usage.Long, now)
	}

	constrained := mostConstrained(short, long)
	if constrained == nil {
		// Neither window applicable: nothing to pace against.
		d := noThrottleDecision(now, o.cfg.PollInterval)
		d.Short = short
		d.Long = long
		return d
	}

	d := &Decision{
		ShouldThrottle:    constrained.DelaySeconds > 0,
		DelaySeconds:      constrained.DelaySeconds,
		ConstrainedWindow: constrained.Kind,
		DeviationPct:      constrained.OveragePct,
		Strategy:          constrained.Strategy,
		Projection:        constrained.Projection,
		ComputedAt:        now,
		ValidUntil:        now.Add(o.cfg.PollInterval),
		Short:             short,
		Long:              long,
	}

	o.logger.Debug("pacing decision computed",
		"session_id", sessionID,
		"constrained_window", d.ConstrainedWindow,
		"strategy", d.Strategy,
		"delay_seconds", d.DelaySeconds,
		"deviation_pct", d.DeviationPct,
	)

	return d
}

// evaluateWindow computes one window's status, or nil if the window is
// disabled or inapplicable.
func (o *Orchestrator) evaluateWindow(kind WindowKind, cfg WindowConfig, r *Reading, now time.Time) *WindowStatus {
	if r == nil || r.ResetsAt == nil || !cfg.Enabled {
		return nil
	}

	w := window.FromReset(*r.ResetsAt, cfg.Hours, cfg.Accrual, cfg.PreloadHours)

	allowancePct := allowance.Pct(w, now)
	safePct := allowance.SafePct(w, now, cfg.SafetyBufferPct)
	overagePct := r.UtilizationPct - safePct
	frozen := w.Frozen(now)

	var result projection.Result
	if frozen && overagePct > 0 {
		// Over the safe allowance while accrual is frozen: the allowance
		// cannot grow until Monday, so only the cap holds the line.
		result = projection.Result{
			Delay:    cfg.MaxDelay,
			Strategy: projection.StrategyEmergency,
			Projection: projection.Projection{
				UtilIfNoThrottle: r.UtilizationPct,
				UtilIfThrottled:  r.UtilizationPct,
			},
		}
	} else {
		result = projection.AdaptiveDelay(projection.Input{
			CurrentUtilPct:   r.UtilizationPct,
			SafeAllowancePct: safePct,
			ElapsedHours:     w.ElapsedAccruingHours(now),
			RemainingHours:   w.RemainingHours(now),
			MinDelay:         cfg.MinDelay,
			MaxDelay:         cfg.MaxDelay,
		})
	}

	status := &WindowStatus{
		Kind:             kind,
		UtilizationPct:   r.UtilizationPct,
		AllowancePct:     allowancePct,
		SafeAllowancePct: safePct,
		OveragePct:       overagePct,
		ElapsedHours:     w.ElapsedAccruingHours(now),
		RemainingHours:   w.RemainingHours(now),
		Frozen:           frozen,
		DelaySeconds:     int(result.Delay.Seconds()),
		Strategy:         result.Strategy,
		Projection:       result.Projection,
	}

	if o.metrics != nil {
		o.metrics.ObserveWindow(status)
	}

	return status
}

// mostConstrained picks the window with the larger overage. When
// neither window is over budget the comparison is the same: the smaller
// headroom is the larger (less negative) overage. Ties go to the short
// window, which resets sooner and is more urgent.
func mostConstrained(short, long *WindowStatus) *WindowStatus {
	switch {
	case short == nil:
		return long
	case long == nil:
		return short
	case long.OveragePct > short.OveragePct:
		return long
	default:
		return short
	}
}

// persistSnapshot appends a usage snapshot to the append-only log.
// Persistence failures are logged and swallowed: the decision is still
// valid even if it could not be recorded.
func (o *Orchestrator) persistSnapshot(ctx context.Context, sessionID string, usage *Usage) {
	if usage == nil {
		return
	}

	snap := &storage.Snapshot{
		Timestamp: o.now(),
		SessionID: sessionID,
	}
	if usage.Short != nil {
		snap.ShortUtilPct = usage.Short.UtilizationPct
		snap.ShortResetsAt = usage.Short.ResetsAt
	}
	if usage.Long != nil {
		snap.LongUtilPct = usage.Long.UtilizationPct
		snap.LongResetsAt = usage.Long.ResetsAt
	}

	if err := o.store.AppendSnapshot(ctx, snap); err != nil {
		o.logger.Warn("failed to persist usage snapshot",
			"session_id", sessionID,
			"error", err,
		)
	}
}
