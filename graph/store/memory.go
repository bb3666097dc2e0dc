package store

import (
	"context"
	"sync"
)

// MemStore is an in-memory implementation of Store[S].
//
// It keeps the latest checkpoint per thread plus the full step history
// in maps. Designed for:
//   - Testing and development
//   - Single-process workflows where persistence isn't required
//
// MemStore is thread-safe and supports concurrent access.
//
// Limitations:
//   - Data is lost when the process terminates
//   - Memory usage grows with thread history
//
// For durable checkpoints use SQLiteStore or MySQLStore.
//
// Type parameter S is the state type to persist.
type MemStore[S any] struct {
	mu      sync.RWMutex
	latest  map[string]Checkpoint[S]   // threadID -> latest checkpoint
	history map[string][]Checkpoint[S] // threadID -> ordered step history
}

// NewMemStore creates a new in-memory store.
//
// Example:
//
//	st := store.NewMemStore[MyState]()
//	engine := graph.New(reducer, st, emitter, opts)
func NewMemStore[S any]() *MemStore[S] {
	return &MemStore[S]{
		latest:  make(map[string]Checkpoint[S]),
		history: make(map[string][]Checkpoint[S]),
	}
}

// Save persists a checkpoint, replacing the thread's latest and
// appending to its history. Thread-safe.
func (m *MemStore[S]) Save(_ context.Context, cp Checkpoint[S]) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.latest[cp.ThreadID] = cp

	// Replace an existing history entry for the same step so a retried
	// step does not duplicate its row.
	hist := m.history[cp.ThreadID]
	for i := range hist {
		if hist[i].Step == cp.Step {
			hist[i] = cp
			m.history[cp.ThreadID] = hist
			return nil
		}
	}
	m.history[cp.ThreadID] = append(hist, cp)
	return nil
}

// Load retrieves the latest checkpoint for a thread.
//
// Returns ErrNotFound if the thread was never saved.
func (m *MemStore[S]) Load(_ context.Context, threadID string) (Checkpoint[S], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cp, ok := m.latest[threadID]
	if !ok {
		var zero Checkpoint[S]
		return zero, ErrNotFound
	}
	return cp, nil
}

// LoadStep retrieves a historical checkpoint by step number.
//
// Returns ErrNotFound if the step was never saved for the thread.
func (m *MemStore[S]) LoadStep(_ context.Context, threadID string, step int) (Checkpoint[S], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, cp := range m.history[threadID] {
		if cp.Step == step {
			return cp, nil
		}
	}
	var zero Checkpoint[S]
	return zero, ErrNotFound
}

// Steps returns the number of history entries recorded for a thread.
// Intended for tests asserting persist-after-every-step behavior.
func (m *MemStore[S]) Steps(threadID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.history[threadID])
}
