package pacing

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"pacekit/tempo/pkg/pacing/storage"
)

// DecisionCache persists one current decision per session so a decision
// computed during a poll can be reapplied, unmodified, on every
// intervening unit of work. This decouples how often the upstream
// source is polled (expensive, rate-limited) from how often throttling
// is applied (every unit of work).
type DecisionCache struct {
	store  storage.Backend
	logger *slog.Logger

	// now is replaceable in tests.
	now func() time.Time
}

// NewDecisionCache creates a decision cache over the given backend.
func NewDecisionCache(store storage.Backend) *DecisionCache {
	return &DecisionCache{
		store:  store,
		logger: slog.Default().With("component", "pacing.cache"),
		now:    time.Now,
	}
}

// GetOrCompute returns the session's cached decision while it is still
// valid, and otherwise calls compute exactly once to produce a new one.
// The new decision is stamped with ComputedAt = now and ValidUntil =
// now + pollInterval and persisted before being returned.
//
// GetOrCompute fails open: a failed compute falls back to a no-throttle
// decision (the valid-cache case has already been served), and a failed
// persistence write is logged without blocking the decision. The
// returned bool reports whether the decision came from the cache.
func (c *DecisionCache) GetOrCompute(ctx context.Context, sessionID string, pollInterval time.Duration, compute func(context.Context) (*Decision, error)) (*Decision, bool) {
	now := c.now()

	rec, err := c.store.LoadDecision(ctx, sessionID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		c.logger.Warn("failed to load cached decision",
			"session_id", sessionID,
			"error", err,
		)
		rec = nil
	}

	if rec != nil && rec.Valid(now) {
		var cached Decision
		if err := json.Unmarshal(rec.Payload, &cached); err != nil {
			c.logger.Warn("discarding undecodable cached decision",
				"session_id", sessionID,
				"error", err,
			)
		} else {
			return &cached, true
		}
	}

	decision, err := compute(ctx)
	if err != nil {
		c.logger.Warn("pacing compute failed, falling back to no throttling",
			"session_id", sessionID,
			"error", err,
		)
		return noThrottleDecision(now, pollInterval), false
	}

	decision.ComputedAt = now
	decision.ValidUntil = now.Add(pollInterval)

	c.save(ctx, sessionID, decision)
	return decision, false
}

// save persists the decision; failures are logged and swallowed.
func (c *DecisionCache) save(ctx context.Context, sessionID string, d *Decision) {
	payload, err := json.Marshal(d)
	if err != nil {
		c.logger.Warn("failed to encode decision",
			"session_id", sessionID,
			"error", err,
		)
		return
	}

	rec := &storage.DecisionRecord{
		SessionID:  sessionID,
		ComputedAt: d.ComputedAt,
		ValidUntil: d.ValidUntil,
		Payload:    payload,
	}
	if err := c.store.SaveDecision(ctx, rec); err != nil {
		c.logger.Warn("failed to persist decision",
			"session_id", sessionID,
			"error", err,
		)
	}
}
