package window

import (
	"fmt"
	"time"
)

// AccrualMode controls how time within a window counts toward "elapsed".
type AccrualMode string

const (
	// AccrualContinuous counts every second in the window.
	AccrualContinuous AccrualMode = "continuous"

	// AccrualBusinessDays counts only Monday-Friday seconds.
	AccrualBusinessDays AccrualMode = "business_days"
)

// Valid reports whether the accrual mode is one of the known values.
func (m AccrualMode) Valid() bool {
	return m == AccrualContinuous || m == AccrualBusinessDays
}

// QuotaWindow is one sliding quota period, derived fresh from the
// upstream reset timestamp on each evaluation. It is never persisted.
type QuotaWindow struct {
	// Start is when the window began.
	Start time.Time

	// End is when the window resets.
	End time.Time

	// Hours is the nominal window length (End - Start).
	Hours float64

	// Accrual selects how elapsed time is counted.
	Accrual AccrualMode

	// PreloadHours is the flat grace allowance granted at window start,
	// expressed in accruing hours. Zero disables the preload.
	PreloadHours float64
}

// FromReset derives a window from its reset time and nominal length.
func FromReset(resetsAt time.Time, hours float64, mode AccrualMode, preloadHours float64) QuotaWindow {
	return QuotaWindow{
		Start:        resetsAt.Add(-time.Duration(hours * float64(time.Hour))),
		End:          resetsAt,
		Hours:        hours,
		Accrual:      mode,
		PreloadHours: preloadHours,
	}
}

// String identifies the window for logs and diagnostics.
func (w QuotaWindow) String() string {
	return fmt.Sprintf("%.0fh/%s", w.Hours, w.Accrual)
}

// IsWeekend reports whether t falls on Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// BusinessSeconds counts the Monday-Friday seconds between start and end.
// Weekend seconds contribute nothing. Partial first and last days are
// counted in seconds, not whole days. Returns 0 when start >= end.
func BusinessSeconds(start, end time.Time) float64 {
	if !start.Before(end) {
		return 0
	}

	var total float64
	cur := start
	for cur.Before(end) {
		// Segment runs to the next midnight or to end, whichever is first.
		dayEnd := time.Date(cur.Year(), cur.Month(), cur.Day(), 0, 0, 0, 0, cur.Location()).AddDate(0, 0, 1)
		segEnd := dayEnd
		if end.Before(segEnd) {
			segEnd = end
		}

		if !IsWeekend(cur) {
			total += segEnd.Sub(cur).Seconds()
		}

		cur = segEnd
	}

	return total
}

// TotalAccruingSeconds returns the number of seconds in the full window
// that count toward accrual under the window's mode.
func (w QuotaWindow) TotalAccruingSeconds() float64 {
	switch w.Accrual {
	case AccrualBusinessDays:
		return BusinessSeconds(w.Start, w.End)
	default:
		return w.Hours * 3600.0
	}
}

// ElapsedAccruingSeconds returns the accruing seconds between window
// start and now, clamped to [0, TotalAccruingSeconds].
func (w QuotaWindow) ElapsedAccruingSeconds(now time.Time) float64 {
	clamped := now
	if clamped.Before(w.Start) {
		clamped = w.Start
	}
	if clamped.After(w.End) {
		clamped = w.End
	}

	switch w.Accrual {
	case AccrualBusinessDays:
		return BusinessSeconds(w.Start, clamped)
	default:
		return clamped.Sub(w.Start).Seconds()
	}
}

// ElapsedAccruingHours is ElapsedAccruingSeconds expressed in hours.
// This is the unit preload thresholds are compared against.
func (w QuotaWindow) ElapsedAccruingHours(now time.Time) float64 {
	return w.ElapsedAccruingSeconds(now) / 3600.0
}

// TotalAccruingHours is TotalAccruingSeconds expressed in hours.
func (w QuotaWindow) TotalAccruingHours() float64 {
	return w.TotalAccruingSeconds() / 3600.0
}

// ElapsedFraction returns the fraction [0,1] of the window's accruing
// time that has passed at now.
//
// A window with zero accruing seconds (a continuous window of zero
// length, or a business-day window containing no weekdays) is fully
// elapsed by convention: there is no further allowance growth to wait
// for, so the fraction is 1.
func (w QuotaWindow) ElapsedFraction(now time.Time) float64 {
	total := w.TotalAccruingSeconds()
	if total <= 0 {
		return 1.0
	}

	frac := w.ElapsedAccruingSeconds(now) / total
	if frac < 0 {
		return 0
	}
	if frac > 1 {
		return 1
	}
	return frac
}

// RemainingHours returns the wall-clock hours until the window resets,
// clamped to zero once the reset time has passed. Burn-rate projection
// uses wall-clock time because credits spend in real time even while
// accrual is frozen.
func (w QuotaWindow) RemainingHours(now time.Time) float64 {
	rem := w.End.Sub(now).Hours()
	if rem < 0 {
		return 0
	}
	return rem
}

// Frozen reports whether allowance accrual is currently paused: a
// business-day window during a weekend. A continuous window never
// freezes.
func (w QuotaWindow) Frozen(now time.Time) bool {
	return w.Accrual == AccrualBusinessDays && IsWeekend(now)
}
