// Package window provides time arithmetic for sliding quota windows.
//
// A quota window is a fixed-length period ending at a known reset time.
// The package answers one question: how much of the window's accruing
// time has elapsed at a given instant. Two accrual modes are supported:
//
//   - Continuous: every second between window start and end counts.
//   - Business days: only Monday-Friday seconds count. Elapsed time
//     freezes through Saturday and Sunday and resumes on Monday.
//
// All functions are pure; callers supply "now" explicitly so the
// arithmetic is deterministic and testable.
package window
