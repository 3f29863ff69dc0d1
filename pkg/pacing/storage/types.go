package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no cached decision exists for a session.
var ErrNotFound = errors.New("no record found")

// Backend defines the interface for pacing state persistence.
// Implementations must be safe for concurrent use.
type Backend interface {
	// AppendSnapshot adds a usage snapshot to the append-only log.
	AppendSnapshot(ctx context.Context, snap *Snapshot) error

	// SaveDecision stores the current decision for a session,
	// replacing any previous row wholesale.
	SaveDecision(ctx context.Context, rec *DecisionRecord) error

	// LoadDecision retrieves the current decision for a session.
	// Returns ErrNotFound if the session has no stored decision.
	LoadDecision(ctx context.Context, sessionID string) (*DecisionRecord, error)

	// PruneSnapshots deletes snapshots older than the cutoff and
	// returns the number of rows removed.
	PruneSnapshots(ctx context.Context, olderThan time.Time) (int64, error)

	// Close releases any resources held by the backend.
	Close() error
}

// Snapshot is a point-in-time reading of both quota windows.
// A nil reset time marks a window that is inapplicable to the account.
type Snapshot struct {
	// Timestamp is when the reading was taken.
	Timestamp time.Time

	// SessionID identifies the session that took the reading.
	SessionID string

	// ShortUtilPct and ShortResetsAt describe the short window.
	ShortUtilPct  float64
	ShortResetsAt *time.Time

	// LongUtilPct and LongResetsAt describe the long window.
	LongUtilPct  float64
	LongResetsAt *time.Time
}

// DecisionRecord is the persisted form of a pacing decision. The full
// decision is stored as an opaque JSON payload so repeated reads within
// the validity period reproduce it bit for bit.
type DecisionRecord struct {
	// SessionID keys the record; one current decision per session.
	SessionID string

	// ComputedAt is when the decision was computed.
	ComputedAt time.Time

	// ValidUntil is ComputedAt plus the poll interval. Reads at or
	// after this instant must trigger a recompute.
	ValidUntil time.Time

	// Payload is the JSON-encoded decision.
	Payload []byte
}

// Valid reports whether the record may still be served at now.
func (r *DecisionRecord) Valid(now time.Time) bool {
	return now.Before(r.ValidUntil)
}
