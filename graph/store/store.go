// Package store provides durable checkpoint persistence for workflow threads.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned when no checkpoint exists for a thread id.
var ErrNotFound = errors.New("not found")

// ErrCorrupt is returned when a checkpoint row exists but its state
// payload cannot be decoded. Callers must treat a corrupt checkpoint as
// a fresh thread rather than failing the workflow.
var ErrCorrupt = errors.New("corrupt checkpoint")

// PendingInterrupt is the persisted form of a suspension's interrupt:
// the instruction shown to the user plus the structured payload. It is
// stored alongside PendingNode so a restarted process can re-present
// the pending question without re-running the suspended node.
type PendingInterrupt struct {
	Instruction string                 `json:"instruction"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
}

// Checkpoint is a durable snapshot of one workflow thread: the full
// merged state plus the execution position.
//
// PendingNode is the suspension marker. A non-empty PendingNode means
// the thread stopped inside that node awaiting external input; an empty
// PendingNode means the thread is either mid-run (between steps) or
// finished. A suspended thread holds no in-memory continuation — the
// checkpoint is its entire resumable state, so any process can pick it
// up after a restart.
type Checkpoint[S any] struct {
	// ThreadID identifies the workflow instance.
	ThreadID string

	// Step is the sequential step counter at which this checkpoint was
	// written (1-indexed, monotonically increasing per thread).
	Step int

	// NodeID is the node that produced this checkpoint.
	NodeID string

	// State is the full merged workflow state.
	State S

	// PendingNode names the node awaiting external input, or is empty
	// when the thread is not suspended.
	PendingNode string

	// Interrupt carries the suspension details when PendingNode is set,
	// nil otherwise.
	Interrupt *PendingInterrupt
}

// Store persists workflow checkpoints keyed by thread id.
//
// The engine saves after every step, so implementations must make each
// Save atomic: a crash mid-write may lose the newest checkpoint but must
// never leave a partial or unreadable row in place of a good one.
//
// One writer per thread id at a time is the engine's concurrency
// contract; implementations do not need cross-thread coordination beyond
// ordinary connection safety.
//
// Type parameter S is the state type to persist (must be
// JSON-serializable for the database-backed implementations).
type Store[S any] interface {
	// Save persists the checkpoint, replacing any previous checkpoint
	// for the same thread id. Implementations should also retain the
	// per-step history where practical (audit, debugging), but only the
	// latest checkpoint is load-bearing.
	Save(ctx context.Context, cp Checkpoint[S]) error

	// Load retrieves the latest checkpoint for a thread id.
	//
	// Returns ErrNotFound if the thread has never been saved, and an
	// error wrapping ErrCorrupt if a row exists but cannot be decoded.
	// Both conditions mean "treat as fresh" to the engine.
	Load(ctx context.Context, threadID string) (Checkpoint[S], error)

	// LoadStep retrieves the checkpoint recorded at a specific step of a
	// thread's history. Returns ErrNotFound if the step was never saved
	// or the implementation keeps no history.
	LoadStep(ctx context.Context, threadID string, step int) (Checkpoint[S], error)
}

// marshalInterrupt encodes interrupt details for the database-backed
// stores. A nil interrupt encodes as the empty string.
func marshalInterrupt(intr *PendingInterrupt) (string, error) {
	if intr == nil {
		return "", nil
	}
	b, err := json.Marshal(intr)
	if err != nil {
		return "", fmt.Errorf("failed to marshal interrupt: %w", err)
	}
	return string(b), nil
}

// unmarshalInterrupt is the inverse of marshalInterrupt.
func unmarshalInterrupt(s string) (*PendingInterrupt, error) {
	if s == "" {
		return nil, nil
	}
	var intr PendingInterrupt
	if err := json.Unmarshal([]byte(s), &intr); err != nil {
		return nil, err
	}
	return &intr, nil
}
