// Package cli provides shared helpers for the tempo command-line
// interface: signal-aware contexts and output formatting.
package cli
