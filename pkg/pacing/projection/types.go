package projection

import "time"

// Strategy labels how hard the engine is correcting.
type Strategy string

const (
	// StrategyNone means utilization is at or under the safe allowance.
	StrategyNone Strategy = "none"

	// StrategyMinimal corrects a small overage (under 5 points).
	StrategyMinimal Strategy = "minimal"

	// StrategyGradual corrects a moderate overage (5 to 15 points).
	StrategyGradual Strategy = "gradual"

	// StrategyAggressive corrects a large overage (over 15 points).
	StrategyAggressive Strategy = "aggressive"

	// StrategyEmergency means the delay cap, not the formula, is the
	// binding constraint.
	StrategyEmergency Strategy = "emergency"
)

// Input carries everything AdaptiveDelay needs for one evaluation.
type Input struct {
	// CurrentUtilPct is the observed utilization. May exceed 100
	// transiently (overage).
	CurrentUtilPct float64

	// SafeAllowancePct is the buffer-adjusted allowance to pace against.
	SafeAllowancePct float64

	// ElapsedHours is accruing time elapsed in the window, used for the
	// observed burn rate.
	ElapsedHours float64

	// RemainingHours is wall-clock time until the window resets.
	RemainingHours float64

	// MinDelay and MaxDelay bound the emitted delay.
	MinDelay time.Duration
	MaxDelay time.Duration
}

// Projection shows where utilization is headed, for observability and
// testing.
type Projection struct {
	// UtilIfNoThrottle is the projected end-of-window utilization at the
	// current burn rate.
	UtilIfNoThrottle float64 `json:"util_if_no_throttle"`

	// UtilIfThrottled is the conservative target the throttled burn rate
	// aims to land on.
	UtilIfThrottled float64 `json:"util_if_throttled"`
}

// Result is the engine's output for one evaluation.
type Result struct {
	Delay      time.Duration
	Strategy   Strategy
	Projection Projection
}
