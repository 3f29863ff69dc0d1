package pacing

import (
	"context"
	"time"

	"pacekit/tempo/pkg/pacing/projection"
	"pacekit/tempo/pkg/pacing/window"
)

// WindowKind identifies which quota window a figure belongs to.
type WindowKind string

const (
	// WindowShort is the short sliding window (hours).
	WindowShort WindowKind = "short"

	// WindowLong is the long sliding window (days).
	WindowLong WindowKind = "long"
)

// Reading is one window's figures from the upstream usage source.
type Reading struct {
	// UtilizationPct is the reported quota utilization. May exceed 100
	// transiently.
	UtilizationPct float64 `json:"utilization_pct"`

	// ResetsAt is when the window resets. Nil means the window is
	// inapplicable to the account and must be excluded from pacing.
	ResetsAt *time.Time `json:"resets_at"`
}

// Usage is a full reading of both windows. Either window may be nil
// when the upstream source reports it as inapplicable.
type Usage struct {
	Short *Reading `json:"short"`
	Long  *Reading `json:"long"`
}

// UsageSource supplies fresh usage readings. Implementations should
// fail open: transient upstream problems are an error return, and the
// caller degrades to cached or no-throttle behavior.
type UsageSource interface {
	Fetch(ctx context.Context) (*Usage, error)
}

// WindowConfig is the per-window pacing configuration.
type WindowConfig struct {
	// Enabled excludes the window from pacing entirely when false.
	Enabled bool

	// Hours is the nominal window length.
	Hours float64

	// Accrual selects continuous or business-day time accounting.
	Accrual window.AccrualMode

	// PreloadHours grants a flat allowance for the first N accruing hours.
	PreloadHours float64

	// SafetyBufferPct scales the allowance down (95 leaves a 5-point
	// margin below the hard limit).
	SafetyBufferPct float64

	// MinDelay and MaxDelay bound the emitted delay.
	MinDelay time.Duration
	MaxDelay time.Duration
}

// Config configures the orchestrator.
type Config struct {
	// Short and Long are the per-window pacing settings.
	Short WindowConfig
	Long  WindowConfig

	// PollInterval is how long a computed decision stays valid before
	// the upstream source is polled again.
	PollInterval time.Duration
}

// WindowStatus carries one window's evaluation figures. The constrained
// window's status drives the decision; the other is diagnostics.
type WindowStatus struct {
	Kind             WindowKind            `json:"kind"`
	UtilizationPct   float64               `json:"utilization_pct"`
	AllowancePct     float64               `json:"allowance_pct"`
	SafeAllowancePct float64               `json:"safe_allowance_pct"`
	OveragePct       float64               `json:"overage_pct"`
	ElapsedHours     float64               `json:"elapsed_hours"`
	RemainingHours   float64               `json:"remaining_hours"`
	Frozen           bool                  `json:"frozen"`
	DelaySeconds     int                   `json:"delay_seconds"`
	Strategy         projection.Strategy   `json:"strategy"`
	Projection       projection.Projection `json:"projection"`
}

// Decision is the engine's output for one evaluation. Decisions are
// immutable once computed; the cache replays them verbatim until
// ValidUntil.
type Decision struct {
	ShouldThrottle    bool                  `json:"should_throttle"`
	DelaySeconds      int                   `json:"delay_seconds"`
	ConstrainedWindow WindowKind            `json:"constrained_window,omitempty"`
	DeviationPct      float64               `json:"deviation_pct"`
	Strategy          projection.Strategy   `json:"strategy"`
	Projection        projection.Projection `json:"projection"`
	ComputedAt        time.Time             `json:"computed_at"`
	ValidUntil        time.Time             `json:"valid_until"`

	// Short and Long retain both windows' figures for diagnostics.
	Short *WindowStatus `json:"short,omitempty"`
	Long  *WindowStatus `json:"long,omitempty"`
}

// Delay returns the decision's delay as a duration.
func (d *Decision) Delay() time.Duration {
	return time.Duration(d.DelaySeconds) * time.Second
}

// noThrottleDecision is the fail-open fallback when no usage data and
// no valid cache are available.
func noThrottleDecision(now time.Time, pollInterval time.Duration) *Decision {
	return &Decision{
		ShouldThrottle: false,
		DelaySeconds:   0,
		Strategy:       projection.StrategyNone,
		ComputedAt:     now,
		ValidUntil:     now.Add(pollInterval),
	}
}
