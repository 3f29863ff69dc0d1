package projection

import "time"

// epsilon guards the burn-rate and slowdown divisions.
const epsilon = 1e-9

// conservativeTarget returns the end-of-window utilization target and
// strategy band for a given overage. Larger overages get lower targets:
// the further over budget, the more headroom the correction reserves.
func conservativeTarget(overagePct float64) (float64, Strategy) {
	switch {
	case overagePct < 5:
		return 98.0, StrategyMinimal
	case overagePct < 15:
		return 95.0, StrategyGradual
	case overagePct < 30:
		return 90.0, StrategyAggressive
	default:
		return 85.0, StrategyAggressive
	}
}

// pressureMultiplier scales the delay curve by time pressure: the less
// time remains, the harder a given slowdown ratio pushes.
func pressureMultiplier(remainingHours float64) float64 {
	switch {
	case remainingHours < 1:
		return 60
	case remainingHours < 3:
		return 40
	default:
		return 20
	}
}

// AdaptiveDelay computes the delay needed to steer utilization back
// under the safe allowance by window end.
//
// The algorithm projects the unthrottled endpoint from the observed
// burn rate, picks a conservative target from the overage band, derives
// the slowdown ratio between the target and observed burn rates, and
// maps that ratio onto a bounded delay. The mapping grows as the ratio
// shrinks and as remaining time runs out.
//
// Edge cases are defined values, not errors: zero remaining time is an
// emergency at MaxDelay, and zero elapsed time means no observed burn
// rate and therefore no throttle.
func AdaptiveDelay(in Input) Result {
	overagePct := in.CurrentUtilPct - in.SafeAllowancePct

	// Observed burn rate and the unthrottled endpoint.
	var burnRate float64
	if in.ElapsedHours > 0 {
		burnRate = in.CurrentUtilPct / in.ElapsedHours
	}
	projectedEndpoint := in.CurrentUtilPct + burnRate*in.RemainingHours

	if overagePct <= 0 {
		return Result{
			Delay:    0,
			Strategy: StrategyNone,
			Projection: Projection{
				UtilIfNoThrottle: projectedEndpoint,
				UtilIfThrottled:  projectedEndpoint,
			},
		}
	}

	target, strategy := conservativeTarget(overagePct)

	if in.RemainingHours <= 0 {
		// Window is ending with utilization over the safe allowance.
		return Result{
			Delay:    in.MaxDelay,
			Strategy: StrategyEmergency,
			Projection: Projection{
				UtilIfNoThrottle: in.CurrentUtilPct,
				UtilIfThrottled:  target,
			},
		}
	}

	if burnRate <= 0 {
		// Window just started: nothing observed to project from.
		return Result{
			Delay:    0,
			Strategy: StrategyNone,
			Projection: Projection{
				UtilIfNoThrottle: in.CurrentUtilPct,
				UtilIfThrottled:  in.CurrentUtilPct,
			},
		}
	}

	// Burn rate needed to land exactly on the conservative target.
	targetBurnRate := (target - in.CurrentUtilPct) / in.RemainingHours
	if targetBurnRate < 0 {
		targetBurnRate = 0
	}

	slowdownRatio := targetBurnRate / maxFloat(burnRate, epsilon)

	minSec := in.MinDelay.Seconds()
	maxSec := in.MaxDelay.Seconds()

	var delaySec float64
	switch {
	case slowdownRatio <= 0:
		// Already past the conservative target: only the cap helps.
		delaySec = maxSec
	case slowdownRatio >= 1:
		// Target pace is faster than observed; the floor still applies
		// because utilization is over the safe allowance.
		delaySec = minSec
	default:
		delaySec = minSec * (1.0/slowdownRatio - 1.0) * pressureMultiplier(in.RemainingHours)
	}

	if delaySec < minSec {
		delaySec = minSec
	}
	if delaySec > maxSec {
		delaySec = maxSec
	}

	delay := time.Duration(delaySec * float64(time.Second))
	if delay >= in.MaxDelay {
		// The cap, not the formula, is now the binding constraint.
		strategy = StrategyEmergency
	}

	return Result{
		Delay:    delay,
		Strategy: strategy,
		Projection: Projection{
			UtilIfNoThrottle: projectedEndpoint,
			UtilIfThrottled:  target,
		},
	}
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
