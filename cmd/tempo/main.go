// Tempo is an adaptive credit-pacing engine for metered API quotas.
//
// It polls a usage endpoint, projects utilization against a
// time-proportional allowance for each quota window, and emits throttle
// delays that keep a session inside its quota without wasting headroom.
//
// Usage:
//
//	# One-shot pacing check, JSON decision on stdout
//	tempo run
//
//	# One-shot check that also sleeps out the computed delay
//	tempo run --wait
//
//	# Long-running poll loop with scheduled retention pruning
//	tempo watch
//
//	# Human-readable utilization report
//	tempo status
//
//	# Validate a configuration file
//	tempo validate --config /path/to/tempo.yaml
//
//	# Show version information
//	tempo version
package main

func main() {
	Execute()
}
