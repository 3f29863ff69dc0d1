// Package allowance converts elapsed window time into a target
// utilization percentage.
//
// The allowance is the share of quota a perfectly paced client would
// have used by "now". It grows linearly with accruing time, with two
// adjustments:
//
//   - Preload: a flat grace percentage granted for the first N accruing
//     hours of the window, so a freshly reset window does not start the
//     client at 0% and throttle the very first unit of work.
//   - Safety buffer: the safe allowance is the raw allowance scaled
//     down (typically to 95%) to leave headroom against the hard limit
//     for estimation error and polling lag.
package allowance
