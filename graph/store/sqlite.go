package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a SQLite implementation of Store[S].
//
// It stores workflow checkpoints in a single-file database. Designed for:
//   - Development and local deployments with zero setup
//   - Single-process workflows requiring durable suspend/resume
//   - Prototyping before migrating to a server-backed store
//
// SQLiteStore uses WAL mode for concurrent reads and wraps each Save in
// a transaction so the latest-checkpoint row and the history row commit
// together or not at all.
//
// Schema:
//   - workflow_threads: latest checkpoint per thread (the resumable row)
//   - workflow_steps: per-step history for audit and debugging
//
// Type parameter S is the state type to persist (must be JSON-serializable).
type SQLiteStore[S any] struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
	path   string
}

// NewSQLiteStore creates a new SQLite-backed store.
//
// The path parameter specifies the database file location:
//   - "./dev.db" - file in current directory
//   - "/tmp/workflow.db" - absolute path
//   - ":memory:" - in-memory database (data lost on close)
//
// The store automatically:
//   - Creates the database file if it doesn't exist
//   - Creates required tables
//   - Enables WAL mode for concurrent reads
//   - Configures a busy timeout for lock contention
//
// Example:
//
//	st, err := store.NewSQLiteStore[MyState]("./dev.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer st.Close()
func NewSQLiteStore[S any](path string) (*SQLiteStore[S], error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite connection: %w", err)
	}

	// SQLite supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	st := &SQLiteStore[S]{
		db:   db,
		path: path,
	}

	if err := st.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return st, nil
}

func (s *SQLiteStore[S]) createTables(ctx context.Context) error {
	threadsTable := `
		CREATE TABLE IF NOT EXISTS workflow_threads (
			thread_id TEXT NOT NULL PRIMARY KEY,
			step INTEGER NOT NULL,
			node_id TEXT NOT NULL,
			state TEXT NOT NULL,
			pending_node TEXT NOT NULL DEFAULT '',
			interrupt TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := s.db.ExecContext(ctx, threadsTable); err != nil {
		return fmt.Errorf("failed to create workflow_threads table: %w", err)
	}

	stepsTable := `
		CREATE TABLE IF NOT EXISTS workflow_steps (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			thread_id TEXT NOT NULL,
			step INTEGER NOT NULL,
			node_id TEXT NOT NULL,
			state TEXT NOT NULL,
			pending_node TEXT NOT NULL DEFAULT '',
			interrupt TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(thread_id, step)
		)
	`
	if _, err := s.db.ExecContext(ctx, stepsTable); err != nil {
		return fmt.Errorf("failed to create workflow_steps table: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, "CREATE INDEX IF NOT EXISTS idx_steps_thread ON workflow_steps(thread_id)"); err != nil {
		return fmt.Errorf("failed to create idx_steps_thread: %w", err)
	}

	return nil
}

// Save persists a checkpoint (implements Store interface).
//
// The latest-checkpoint row and the history row are written in a single
// transaction, so a crash cannot leave the two out of sync or a partial
// row behind.
func (s *SQLiteStore[S]) Save(ctx context.Context, cp Checkpoint[S]) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return fmt.Errorf("store is closed")
	}
	s.mu.RUnlock()

	stateJSON, err := json.Marshal(cp.State)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	interruptJSON, err := marshalInterrupt(cp.Interrupt)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	threadQuery := `
		INSERT INTO workflow_threads (thread_id, step, node_id, state, pending_node, interrupt, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(thread_id) DO UPDATE SET
			step = excluded.step,
			node_id = excluded.node_id,
			state = excluded.state,
			pending_node = excluded.pending_node,
			interrupt = excluded.interrupt,
			updated_at = CURRENT_TIMESTAMP
	`
	if _, err := tx.ExecContext(ctx, threadQuery, cp.ThreadID, cp.Step, cp.NodeID, string(stateJSON), cp.PendingNode, interruptJSON); err != nil {
		return fmt.Errorf("failed to save thread checkpoint: %w", err)
	}

	stepQuery := `
		INSERT INTO workflow_steps (thread_id, step, node_id, state, pending_node, interrupt)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(thread_id, step) DO UPDATE SET
			node_id = excluded.node_id,
			state = excluded.state,
			pending_node = excluded.pending_node,
			interrupt = excluded.interrupt
	`
	if _, err := tx.ExecContext(ctx, stepQuery, cp.ThreadID, cp.Step, cp.NodeID, string(stateJSON), cp.PendingNode, interruptJSON); err != nil {
		return fmt.Errorf("failed to save step history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit checkpoint: %w", err)
	}

	return nil
}

// Load retrieves the latest checkpoint for a thread (implements Store interface).
//
// Returns ErrNotFound if the thread has never been saved. A row whose
// state payload fails to decode returns an error wrapping ErrCorrupt so
// the engine can treat the thread as fresh instead of crashing.
func (s *SQLiteStore[S]) Load(ctx context.Context, threadID string) (Checkpoint[S], error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		var zero Checkpoint[S]
		return zero, fmt.Errorf("store is closed")
	}
	s.mu.RUnlock()

	query := `
		SELECT step, node_id, state, pending_node, interrupt
		FROM workflow_threads
		WHERE thread_id = ?
	`

	cp := Checkpoint[S]{ThreadID: threadID}
	var stateJSON, interruptJSON string
	err := s.db.QueryRowContext(ctx, query, threadID).Scan(&cp.Step, &cp.NodeID, &stateJSON, &cp.PendingNode, &interruptJSON)
	if err == sql.ErrNoRows {
		var zero Checkpoint[S]
		return zero, ErrNotFound
	}
	if err != nil {
		var zero Checkpoint[S]
		return zero, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	if err := json.Unmarshal([]byte(stateJSON), &cp.State); err != nil {
		var zero Checkpoint[S]
		return zero, fmt.Errorf("%w: thread %s: %v", ErrCorrupt, threadID, err)
	}
	if cp.Interrupt, err = unmarshalInterrupt(interruptJSON); err != nil {
		var zero Checkpoint[S]
		return zero, fmt.Errorf("%w: thread %s: %v", ErrCorrupt, threadID, err)
	}

	return cp, nil
}

// LoadStep retrieves the checkpoint recorded at a specific step
// (implements Store interface).
func (s *SQLiteStore[S]) LoadStep(ctx context.Context, threadID string, step int) (Checkpoint[S], error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		var zero Checkpoint[S]
		return zero, fmt.Errorf("store is closed")
	}
	s.mu.RUnlock()

	query := `
		SELECT node_id, state, pending_node, interrupt
		FROM workflow_steps
		WHERE thread_id = ? AND step = ?
	`

	cp := Checkpoint[S]{ThreadID: threadID, Step: step}
	var stateJSON, interruptJSON string
	err := s.db.QueryRowContext(ctx, query, threadID, step).Scan(&cp.NodeID, &stateJSON, &cp.PendingNode, &interruptJSON)
	if err == sql.ErrNoRows {
		var zero Checkpoint[S]
		return zero, ErrNotFound
	}
	if err != nil {
		var zero Checkpoint[S]
		return zero, fmt.Errorf("failed to load step: %w", err)
	}

	if err := json.Unmarshal([]byte(stateJSON), &cp.State); err != nil {
		var zero Checkpoint[S]
		return zero, fmt.Errorf("%w: thread %s step %d: %v", ErrCorrupt, threadID, step, err)
	}
	if cp.Interrupt, err = unmarshalInterrupt(interruptJSON); err != nil {
		var zero Checkpoint[S]
		return zero, fmt.Errorf("%w: thread %s step %d: %v", ErrCorrupt, threadID, step, err)
	}

	return cp, nil
}

// Close releases the database connection. The store cannot be used
// after Close returns.
func (s *SQLiteStore[S]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Ping verifies the database connection is alive.
func (s *SQLiteStore[S]) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return fmt.Errorf("store is closed")
	}
	return s.db.PingContext(ctx)
}

// Path returns the database file path this store was opened with.
func (s *SQLiteStore[S]) Path() string {
	return s.path
}
