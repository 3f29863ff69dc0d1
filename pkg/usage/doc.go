// Package usage polls the upstream usage endpoint for quota readings.
//
// The client authenticates with a bearer token loaded from the local
// credentials file and normalizes the response into per-window
// readings. A null long window in the response is a valid "not
// applicable" signal, not an error: some account tiers have no
// long-window quota.
//
// The client reports failures as errors and leaves the fail-open
// policy to the caller: the pacing engine degrades to its cached
// decision or to no throttling when a poll fails.
package usage
