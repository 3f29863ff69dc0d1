package allowance

import (
	"time"

	"pacekit/tempo/pkg/pacing/window"
)

// Pct returns the allowance percentage [0,100] for the window at now.
//
// During the preload period (elapsed accruing hours <= PreloadHours)
// the allowance is a flat PreloadHours/TotalAccruingHours * 100. This
// is a deliberate plateau, not an interpolation: at the preload
// boundary the plateau and the linear formula agree exactly, and past
// it accrual continues linearly.
//
// Elapsed time is measured in the window's accrual unit, so a
// business-day window compares weekday-hours against PreloadHours while
// a continuous window compares calendar-hours.
func Pct(w window.QuotaWindow, now time.Time) float64 {
	totalHours := w.TotalAccruingHours()
	if totalHours <= 0 {
		// No accruing time in the window: fully elapsed by convention.
		return 100.0
	}

	if w.PreloadHours > 0 && w.ElapsedAccruingHours(now) <= w.PreloadHours {
		pct := w.PreloadHours / totalHours * 100.0
		if pct > 100 {
			return 100.0
		}
		return pct
	}

	return w.ElapsedFraction(now) * 100.0
}

// SafePct returns the allowance reduced by the safety buffer: the
// utilization the engine actually paces against. A buffer of 95 leaves
// a 5-point margin below the nominal budget.
func SafePct(w window.QuotaWindow, now time.Time, safetyBufferPct float64) float64 {
	return Pct(w, now) * safetyBufferPct / 100.0
}
