// Package projection implements the forward-looking delay algorithm.
//
// Given the current utilization, the safe allowance, and how much of
// the window is left, the engine projects where the unthrottled burn
// rate would land by window end, picks a graduated correction target,
// and converts the required slowdown into a bounded inter-work delay.
//
// AdaptiveDelay is a pure function: identical inputs always produce
// identical results, and every division-by-zero condition has a defined
// fallback rather than an error path.
package projection
