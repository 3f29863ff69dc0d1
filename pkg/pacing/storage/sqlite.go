package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteBackend implements Backend using SQLite for persistence.
// This is the normal backend: the engine runs as a short-lived process
// per unit of work, so snapshots and cached decisions must survive
// between invocations.
//
// The database is opened in WAL mode with a busy timeout so that
// concurrent sessions (separate processes) can interleave writes.
type SQLiteBackend struct {
	db     *sql.DB
	dbPath string

	mu        sync.RWMutex
	closeOnce sync.Once

	// Pre-compiled statements for the hot paths.
	appendStmt *sql.Stmt
	saveStmt   *sql.Stmt
	loadStmt   *sql.Stmt
	pruneStmt  *sql.Stmt
}

// SQLiteBackendConfig configures the SQLite backend.
type SQLiteBackendConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// NewSQLiteBackend creates a new SQLite storage backend with default settings.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	return NewSQLiteBackendWithConfig(SQLiteBackendConfig{
		DBPath:      dbPath,
		BusyTimeout: 5 * time.Second,
	})
}

// NewSQLiteBackendWithConfig creates a new SQLite backend with custom configuration.
func NewSQLiteBackendWithConfig(cfg SQLiteBackendConfig) (*SQLiteBackend, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.DBPath, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	backend := &SQLiteBackend{
		db:     db,
		dbPath: cfg.DBPath,
	}

	if err := backend.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if err := backend.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return backend, nil
}

// initSchema creates the database schema if it doesn't exist.
func (s *SQLiteBackend) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS usage_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp INTEGER NOT NULL,
		session_id TEXT NOT NULL,
		short_util_pct REAL NOT NULL,
		short_resets_at INTEGER,
		long_util_pct REAL NOT NULL,
		long_resets_at INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_timestamp ON usage_snapshots(timestamp);
	CREATE INDEX IF NOT EXISTS idx_snapshots_session ON usage_snapshots(session_id);

	CREATE TABLE IF NOT EXISTS pacing_decisions (
		session_id TEXT PRIMARY KEY,
		computed_at INTEGER NOT NULL,
		valid_until INTEGER NOT NULL,
		payload TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// prepareStatements prepares SQL statements for reuse.
func (s *SQLiteBackend) prepareStatements() error {
	var err error

	s.appendStmt, err = s.db.Prepare(`
		INSERT INTO usage_snapshots (timestamp, session_id, short_util_pct, short_resets_at, long_util_pct, long_resets_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare append statement: %w", err)
	}

	s.saveStmt, err = s.db.Prepare(`
		INSERT INTO pacing_decisions (session_id, computed_at, valid_until, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (session_id) DO UPDATE SET
			computed_at = excluded.computed_at,
			valid_until = excluded.valid_until,
			payload = excluded.payload
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare save statement: %w", err)
	}

	s.loadStmt, err = s.db.Prepare(`
		SELECT computed_at, valid_until, payload
		FROM pacing_decisions
		WHERE session_id = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare load statement: %w", err)
	}

	s.pruneStmt, err = s.db.Prepare(`
		DELETE FROM usage_snapshots
		WHERE timestamp < ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare prune statement: %w", err)
	}

	return nil
}

// AppendSnapshot adds a usage snapshot to the append-only log.
func (s *SQLiteBackend) AppendSnapshot(ctx context.Context, snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("snapshot cannot be nil")
	}
	if snap.SessionID == "" {
		return fmt.Errorf("session id cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.appendStmt.ExecContext(ctx,
		snap.Timestamp.Unix(),
		snap.SessionID,
		snap.ShortUtilPct,
		nullableUnix(snap.ShortResetsAt),
		snap.LongUtilPct,
		nullableUnix(snap.LongResetsAt),
	)
	if err != nil {
		return fmt.Errorf("failed to append snapshot: %w", err)
	}

	return nil
}

// SaveDecision stores the current decision for a session, replacing any
// previous row wholesale.
func (s *SQLiteBackend) SaveDecision(ctx context.Context, rec *DecisionRecord) error {
	if rec == nil {
		return fmt.Errorf("record cannot be nil")
	}
	if rec.SessionID == "" {
		return fmt.Errorf("session id cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.saveStmt.ExecContext(ctx,
		rec.SessionID,
		rec.ComputedAt.Unix(),
		rec.ValidUntil.Unix(),
		string(rec.Payload),
	)
	if err != nil {
		return fmt.Errorf("failed to save decision: %w", err)
	}

	return nil
}

// LoadDecision retrieves the current decision for a session.
func (s *SQLiteBackend) LoadDecision(ctx context.Context, sessionID string) (*DecisionRecord, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session id cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		computedAt int64
		validUntil int64
		payload    string
	)

	err := s.loadStmt.QueryRowContext(ctx, sessionID).Scan(&computedAt, &validUntil, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load decision: %w", err)
	}

	return &DecisionRecord{
		SessionID:  sessionID,
		ComputedAt: time.Unix(computedAt, 0).UTC(),
		ValidUntil: time.Unix(validUntil, 0).UTC(),
		Payload:    []byte(payload),
	}, nil
}

// PruneSnapshots deletes snapshots older than the cutoff.
func (s *SQLiteBackend) PruneSnapshots(ctx context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.pruneStmt.ExecContext(ctx, olderThan.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned rows: %w", err)
	}

	return deleted, nil
}

// Close closes the database. Safe to call more than once.
func (s *SQLiteBackend) Close() error {
	var err error
	s.closeOnce.Do(func() {
		for _, stmt := range []*sql.Stmt{s.appendStmt, s.saveStmt, s.loadStmt, s.pruneStmt} {
			if stmt != nil {
				stmt.Close()
			}
		}
		err = s.db.Close()
	})
	return err
}

// nullableUnix converts an optional time to a nullable unix timestamp.
func nullableUnix(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}
