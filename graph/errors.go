package graph

import "errors"

// ErrMaxStepsExceeded indicates that a single invocation reached the
// maximum allowed step count without completing or suspending. This
// prevents infinite routing loops and runaway executions.
var ErrMaxStepsExceeded = errors.New("execution exceeded maximum steps limit")

// ErrThreadNotFound indicates a resume was requested for a thread id
// with no persisted checkpoint.
var ErrThreadNotFound = errors.New("thread not found")

// ErrNotSuspended indicates a resume was requested for a thread whose
// checkpoint is not marked as awaiting external input.
var ErrNotSuspended = errors.New("thread is not suspended")

// ErrNotResumable indicates the node a thread is suspended at does not
// implement Resumable, so the externally supplied input cannot be
// delivered. This is a graph construction defect: every suspension
// point must be a Resumable node.
var ErrNotResumable = errors.New("pending node is not resumable")

// EngineError represents an error from Engine operations.
type EngineError struct {
	Message string
	Code    string
}

func (e *EngineError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}
