package pacing

import (
	"context"
	"errors"
	"testing"
	"time"

	"pacekit/tempo/pkg/pacing/projection"
	"pacekit/tempo/pkg/pacing/storage"
)

// failingBackend errors on every operation.
type failingBackend struct{}

func (failingBackend) AppendSnapshot(context.Context, *storage.Snapshot) error {
	return errors.New("disk full")
}
func (failingBackend) SaveDecision(context.Context, *storage.DecisionRecord) error {
	return errors.New("disk full")
}
func (failingBackend) LoadDecision(context.Context, string) (*storage.DecisionRecord, error) {
	return nil, errors.New("disk full")
}
func (failingBackend) PruneSnapshots(context.Context, time.Time) (int64, error) {
	return 0, errors.New("disk full")
}
func (failingBackend) Close() error { return nil }

func newTestCache(store storage.Backend, now time.Time) *DecisionCache {
	c := NewDecisionCache(store)
	c.now = func() time.Time { return now }
	return c
}

func sampleDecision() *Decision {
	return &Decision{
		ShouldThrottle:    true,
		DelaySeconds:      42,
		ConstrainedWindow: WindowShort,
		DeviationPct:      8.5,
		Strategy:          projection.StrategyGradual,
		Projection:        projection.Projection{UtilIfNoThrottle: 112, UtilIfThrottled: 95},
	}
}

func TestGetOrCompute_StampsValidity(t *testing.T) {
	now := monday.Add(10 * time.Hour)
	c := newTestCache(storage.NewMemoryBackend(), now)

	d, cached := c.GetOrCompute(context.Background(), "s1", time.Minute, func(context.Context) (*Decision, error) {
		return sampleDecision(), nil
	})

	if cached {
		t.Error("first computation should not be cached")
	}
	if !d.ComputedAt.Equal(now) {
		t.Errorf("ComputedAt = %s, want %s", d.ComputedAt, now)
	}
	if !d.ValidUntil.Equal(now.Add(time.Minute)) {
		t.Errorf("ValidUntil = %s, want ComputedAt + poll interval", d.ValidUntil)
	}
}

func TestGetOrCompute_ReplaysWithinInterval(t *testing.T) {
	now := monday.Add(10 * time.Hour)
	store := storage.NewMemoryBackend()
	c := newTestCache(store, now)

	computes := 0
	compute := func(context.Context) (*Decision, error) {
		computes++
		return sampleDecision(), nil
	}

	first, _ := c.GetOrCompute(context.Background(), "s1", time.Minute, compute)

	// 30 seconds later: still valid, replayed without recompute.
	c.now = func() time.Time { return now.Add(30 * time.Second) }
	second, cached := c.GetOrCompute(context.Background(), "s1", time.Minute, compute)

	if computes != 1 {
		t.Errorf("compute called %d times, want 1", computes)
	}
	if !cached {
		t.Error("second lookup should be served from cache")
	}
	if second.DelaySeconds != first.DelaySeconds ||
		second.Strategy != first.Strategy ||
		second.ConstrainedWindow != first.ConstrainedWindow ||
		second.DeviationPct != first.DeviationPct ||
		second.Projection != first.Projection ||
		!second.ComputedAt.Equal(first.ComputedAt) ||
		!second.ValidUntil.Equal(first.ValidUntil) {
		t.Errorf("replayed decision differs: %+v vs %+v", second, first)
	}
}

func TestGetOrCompute_RecomputesAfterExpiry(t *testing.T) {
	now := monday.Add(10 * time.Hour)
	c := newTestCache(storage.NewMemoryBackend(), now)

	computes := 0
	compute := func(context.Context) (*Decision, error) {
		computes++
		return sampleDecision(), nil
	}

	c.GetOrCompute(context.Background(), "s1", time.Minute, compute)

	// Exactly at ValidUntil the record is stale.
	c.now = func() time.Time { return now.Add(time.Minute) }
	_, cached := c.GetOrCompute(context.Background(), "s1", time.Minute, compute)

	if computes != 2 {
		t.Errorf("compute called %d times, want 2", computes)
	}
	if cached {
		t.Error("expired record should not be served from cache")
	}
}

func TestGetOrCompute_SessionsAreIndependent(t *testing.T) {
	now := monday.Add(10 * time.Hour)
	c := newTestCache(storage.NewMemoryBackend(), now)

	computes := 0
	compute := func(context.Context) (*Decision, error) {
		computes++
		return sampleDecision(), nil
	}

	c.GetOrCompute(context.Background(), "s1", time.Minute, compute)
	c.GetOrCompute(context.Background(), "s2", time.Minute, compute)

	if computes != 2 {
		t.Errorf("compute called %d times, want one per session", computes)
	}
}

func TestGetOrCompute_ComputeFailureFallsOpen(t *testing.T) {
	now := monday.Add(10 * time.Hour)
	c := newTestCache(storage.NewMemoryBackend(), now)

	d, cached := c.GetOrCompute(context.Background(), "s1", time.Minute, func(context.Context) (*Decision, error) {
		return nil, errors.New("upstream unreachable")
	})

	if cached {
		t.Error("fallback should not be reported as cached")
	}
	if d.ShouldThrottle || d.DelaySeconds != 0 {
		t.Errorf("fallback should not throttle, got %+v", d)
	}
	if d.Strategy != projection.StrategyNone {
		t.Errorf("Strategy = %q, want none", d.Strategy)
	}
}

// Storage failures must not block returning a decision.
func TestGetOrCompute_StorageFailureStillReturnsDecision(t *testing.T) {
	now := monday.Add(10 * time.Hour)
	c := newTestCache(failingBackend{}, now)

	d, _ := c.GetOrCompute(context.Background(), "s1", time.Minute, func(context.Context) (*Decision, error) {
		return sampleDecision(), nil
	})

	if d == nil {
		t.Fatal("decision should be returned despite storage failure")
	}
	if d.DelaySeconds != 42 {
		t.Errorf("DelaySeconds = %d, want 42", d.DelaySeconds)
	}
}
