package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore is a MySQL/MariaDB implementation of Store[S].
//
// It stores workflow checkpoints in a relational database. Designed for:
//   - Production workflows requiring persistence
//   - Deployments where a different process resumes a suspended thread
//   - Audit trails and compliance requirements
//
// MySQLStore uses connection pooling and transactions for reliability.
//
// Schema:
//   - workflow_threads: latest checkpoint per thread (the resumable row)
//   - workflow_steps: per-step history for audit and debugging
//
// Type parameter S is the state type to persist (must be JSON-serializable).
type MySQLStore[S any] struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewMySQLStore creates a new MySQL-backed store.
//
// The DSN (Data Source Name) format is:
//
//	[username[:password]@][protocol[(address)]]/dbname[?param1=value1&...&paramN=valueN]
//
// Example DSNs:
//
//	user:password@tcp(localhost:3306)/workflows
//	user:password@tcp(127.0.0.1:3306)/workflows?parseTime=true
//
// Never hardcode credentials in source code; read the DSN from the
// environment:
//
//	dsn := os.Getenv("MYSQL_DSN")
//	st, err := store.NewMySQLStore[State](dsn)
//
// The store automatically creates required tables and configures
// connection pooling.
func NewMySQLStore[S any](dsn string) (*MySQLStore[S], error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	st := &MySQLStore[S]{db: db}

	if err := st.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return st, nil
}

func (m *MySQLStore[S]) createTables(ctx context.Context) error {
	threadsTable := `
		CREATE TABLE IF NOT EXISTS workflow_threads (
			thread_id VARCHAR(255) NOT NULL PRIMARY KEY,
			step INT NOT NULL,
			node_id VARCHAR(255) NOT NULL,
			state JSON NOT NULL,
			pending_node VARCHAR(255) NOT NULL DEFAULT '',
			interrupt TEXT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci
	`
	if _, err := m.db.ExecContext(ctx, threadsTable); err != nil {
		return fmt.Errorf("failed to create workflow_threads table: %w", err)
	}

	stepsTable := `
		CREATE TABLE IF NOT EXISTS workflow_steps (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			thread_id VARCHAR(255) NOT NULL,
			step INT NOT NULL,
			node_id VARCHAR(255) NOT NULL,
			state JSON NOT NULL,
			pending_node VARCHAR(255) NOT NULL DEFAULT '',
			interrupt TEXT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_thread_id (thread_id),
			UNIQUE KEY unique_thread_step (thread_id, step)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci
	`
	if _, err := m.db.ExecContext(ctx, stepsTable); err != nil {
		return fmt.Errorf("failed to create workflow_steps table: %w", err)
	}

	return nil
}

// Save persists a checkpoint (implements Store interface).
//
// The latest-checkpoint row and the history row are written in a single
// transaction.
func (m *MySQLStore[S]) Save(ctx context.Context, cp Checkpoint[S]) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return fmt.Errorf("store is closed")
	}
	m.mu.RUnlock()

	stateJSON, err := json.Marshal(cp.State)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	interruptJSON, err := marshalInterrupt(cp.Interrupt)
	if err != nil {
		return err
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	threadQuery := `
		INSERT INTO workflow_threads (thread_id, step, node_id, state, pending_node, interrupt)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			step = VALUES(step),
			node_id = VALUES(node_id),
			state = VALUES(state),
			pending_node = VALUES(pending_node),
			interrupt = VALUES(interrupt)
	`
	if _, err := tx.ExecContext(ctx, threadQuery, cp.ThreadID, cp.Step, cp.NodeID, stateJSON, cp.PendingNode, interruptJSON); err != nil {
		return fmt.Errorf("failed to save thread checkpoint: %w", err)
	}

	stepQuery := `
		INSERT INTO workflow_steps (thread_id, step, node_id, state, pending_node, interrupt)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			node_id = VALUES(node_id),
			state = VALUES(state),
			pending_node = VALUES(pending_node),
			interrupt = VALUES(interrupt)
	`
	if _, err := tx.ExecContext(ctx, stepQuery, cp.ThreadID, cp.Step, cp.NodeID, stateJSON, cp.PendingNode, interruptJSON); err != nil {
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
// state payload fails to decode returns an error wrapping ErrCorrupt.
func (m *MySQLStore[S]) Load(ctx context.Context, threadID string) (Checkpoint[S], error) {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		var zero Checkpoint[S]
		return zero, fmt.Errorf("store is closed")
	}
	m.mu.RUnlock()

	query := `
		SELECT step, node_id, state, pending_node, interrupt
		FROM workflow_threads
		WHERE thread_id = ?
	`

	cp := Checkpoint[S]{ThreadID: threadID}
	var stateJSON []byte
	var interruptJSON sql.NullString
	err := m.db.QueryRowContext(ctx, query, threadID).Scan(&cp.Step, &cp.NodeID, &stateJSON, &cp.PendingNode, &interruptJSON)
	if err == sql.ErrNoRows {
		var zero Checkpoint[S]
		return zero, ErrNotFound
	}
	if err != nil {
		var zero Checkpoint[S]
		return zero, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	if err := json.Unmarshal(stateJSON, &cp.State); err != nil {
		var zero Checkpoint[S]
		return zero, fmt.Errorf("%w: thread %s: %v", ErrCorrupt, threadID, err)
	}
	if cp.Interrupt, err = unmarshalInterrupt(interruptJSON.String); err != nil {
		var zero Checkpoint[S]
		return zero, fmt.Errorf("%w: thread %s: %v", ErrCorrupt, threadID, err)
	}

	return cp, nil
}

// LoadStep retrieves the checkpoint recorded at a specific step
// (implements Store interface).
func (m *MySQLStore[S]) LoadStep(ctx context.Context, threadID string, step int) (Checkpoint[S], error) {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		var zero Checkpoint[S]
		return zero, fmt.Errorf("store is closed")
	}
	m.mu.RUnlock()

	query := `
		SELECT node_id, state, pending_node, interrupt
		FROM workflow_steps
		WHERE thread_id = ? AND step = ?
	`

	cp := Checkpoint[S]{ThreadID: threadID, Step: step}
	var stateJSON []byte
	var interruptJSON sql.NullString
	err := m.db.QueryRowContext(ctx, query, threadID, step).Scan(&cp.NodeID, &stateJSON, &cp.PendingNode, &interruptJSON)
	if err == sql.ErrNoRows {
		var zero Checkpoint[S]
		return zero, ErrNotFound
	}
	if err != nil {
		var zero Checkpoint[S]
		return zero, fmt.Errorf("failed to load step: %w", err)
	}

	if err := json.Unmarshal(stateJSON, &cp.State); err != nil {
		var zero Checkpoint[S]
		return zero, fmt.Errorf("%w: thread %s step %d: %v", ErrCorrupt, threadID, step, err)
	}
	if cp.Interrupt, err = unmarshalInterrupt(interruptJSON.String); err != nil {
		var zero Checkpoint[S]
		return zero, fmt.Errorf("%w: thread %s step %d: %v", ErrCorrupt, threadID, step, err)
	}

	return cp, nil
}

// Close releases the database connection pool. The store cannot be used
// after Close returns.
func (m *MySQLStore[S]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	return m.db.Close()
}

// Ping verifies the database connection is alive.
func (m *MySQLStore[S]) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return fmt.Errorf("store is closed")
	}
	return m.db.PingContext(ctx)
}
