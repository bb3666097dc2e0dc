// Package graph provides the stateful workflow engine: a directed graph
// of nodes over a shared state object, with conditional routing,
// checkpoint-after-every-step persistence, and durable suspend/resume.
package graph

// Edge represents a connection between two nodes in the workflow graph.
//
// Edges define the control flow between nodes. They can be:
// - Unconditional: Always traverse (When = nil).
// - Conditional: Only traverse if predicate returns true (When != nil).
//
// Edges are used during graph construction to define possible transitions.
// At runtime, the Engine evaluates predicates against the newly merged
// state to determine which edge to follow; the first matching edge wins.
//
// Explicit routing via NodeResult.Route overrides edge-based routing.
//
// Type parameter S is the state type used for predicate evaluation.
type Edge[S any] struct {
	// From is the source node ID.
	From string

	// To is the destination node ID.
	To string

	// When is an optional predicate that determines if this edge should be traversed.
	// If nil, the edge is unconditional (always traverse).
	// If non-nil, the edge is only traversed when When(state) returns true.
	When Predicate[S]
}

// Predicate is a function that evaluates state to determine if an edge should be traversed.
//
// Predicates enable conditional routing based on workflow state.
// They must be pure functions (deterministic, no side effects): replaying
// the same checkpoint must always produce the same next node.
//
// Common patterns:
// - Threshold: state.RevisionCount >= 3.
// - Presence: state.Critique == "".
// - Label match: state.Route == "write_chapter".
//
// Type parameter S is the state type to evaluate.
type Predicate[S any] func(state S) bool
