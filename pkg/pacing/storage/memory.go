package storage

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryBackend implements Backend using in-memory storage.
// All data is lost when the process exits. Intended for tests and
// one-shot runs where persistence across invocations is not needed.
//
// MemoryBackend is thread-safe using sync.RWMutex.
type MemoryBackend struct {
	// snapshots is the append-only usage log, in insertion order.
	snapshots []*Snapshot

	// decisions maps session id to the current decision record.
	decisions map[string]*DecisionRecord

	mu sync.RWMutex
}

// NewMemoryBackend creates a new in-memory storage backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		decisions: make(map[string]*DecisionRecord),
	}
}

// AppendSnapshot adds a snapshot to the in-memory log.
func (m *MemoryBackend) AppendSnapshot(_ context.Context, snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("snapshot cannot be nil")
	}
	if snap.SessionID == "" {
		return fmt.Errorf("session id cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *snap
	m.snapshots = append(m.snapshots, &cp)
	return nil
}

// SaveDecision stores the current decision for a session, replacing any
// previous record (last writer wins).
func (m *MemoryBackend) SaveDecision(_ context.Context, rec *DecisionRecord) error {
	if rec == nil {
		return fmt.Errorf("record cannot be nil")
	}
	if rec.SessionID == "" {
		return fmt.Errorf("session id cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *rec
	cp.Payload = append([]byte(nil), rec.Payload...)
	m.decisions[rec.SessionID] = &cp
	return nil
}

// LoadDecision retrieves the current decision for a session.
func (m *MemoryBackend) LoadDecision(_ context.Context, sessionID string) (*DecisionRecord, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session id cannot be empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.decisions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}

	cp := *rec
	cp.Payload = append([]byte(nil), rec.Payload...)
	return &cp, nil
}

// PruneSnapshots removes snapshots older than the cutoff.
func (m *MemoryBackend) PruneSnapshots(_ context.Context, olderThan time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.snapshots[:0]
	var deleted int64
	for _, snap := range m.snapshots {
		if snap.Timestamp.Before(olderThan) {
			deleted++
			continue
		}
		kept = append(kept, snap)
	}
	m.snapshots = kept
	return deleted, nil
}

// Snapshots returns a copy of the stored snapshots, oldest first.
// Used by status reporting and tests.
func (m *MemoryBackend) Snapshots() []*Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Snapshot, 0, len(m.snapshots))
	for _, snap := range m.snapshots {
		cp := *snap
		out = append(out, &cp)
	}
	return out
}

// Close is a no-op for the memory backend.
func (m *MemoryBackend) Close() error {
	return nil
}
