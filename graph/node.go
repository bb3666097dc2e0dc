package graph

import "context"

// Node represents a processing unit in the workflow graph.
// It receives state of type S, performs computation, and returns a NodeResult.
//
// Each node can:
//   - Access the current state
//   - Perform computation (call models, storage, or custom logic)
//   - Return state modifications via Delta
//   - Control routing via Route
//   - Request suspension via Interrupt
//   - Report errors
//
// Type parameter S is the state type shared across the workflow.
type Node[S any] interface {
	// Run executes the node's logic with the given context and state.
	// It returns a NodeResult containing state changes, routing decisions,
	// an optional suspension request, and any error encountered.
	Run(ctx context.Context, state S) NodeResult[S]
}

// Resumable is a Node that can act as a suspension point.
//
// A suspension point halts the workflow and persists the checkpoint so
// that resumption can happen after a process restart, possibly in a
// different process. The contract is split in two explicit halves:
//
//   - Run is the pre-suspend half: it returns a NodeResult carrying an
//     Interrupt and must do no state-mutating work (its Delta is
//     ignored). Anything the post-resume half needs must already live
//     in the persisted state.
//   - Resume is the post-resume half: it receives the externally
//     supplied input and behaves like a normal node execution.
//
// Nothing is captured in memory across the suspension boundary.
type Resumable[S any] interface {
	Node[S]

	// Resume continues execution with the externally supplied input.
	Resume(ctx context.Context, state S, input string) NodeResult[S]
}

// Interrupt is a suspension request raised by a node instead of a
// normal completion.
//
// The engine persists the checkpoint marked as awaiting input at the
// raising node, emits an interrupt event carrying the instruction, and
// stops the invocation.
type Interrupt struct {
	// Instruction is the human-readable text shown to the user
	// explaining what input is awaited.
	Instruction string

	// Payload carries opaque structured data for the caller
	// (e.g. the proposed route, or the output pending review).
	Payload map[string]interface{}
}

// NodeResult represents the output of a node execution.
//
// It contains all information needed to continue workflow execution:
//   - Delta: Partial state update to be merged via reducer
//   - Route: Next hop for execution flow
//   - Interrupt: Suspension request (Delta and Route are ignored when set)
//   - Err: Node-level error (if any)
type NodeResult[S any] struct {
	// Delta is the partial state update produced by this node.
	// It will be merged with the current state using the configured reducer.
	Delta S

	// Route specifies the next step in workflow execution.
	// Use Stop() for terminal nodes, Goto(id) for explicit routing, or
	// leave zero to fall back to edge-based routing.
	Route Next

	// Interrupt, when non-nil, suspends the workflow at this node.
	// The node must have done no state-mutating work in this invocation;
	// Delta and Route are ignored on a suspend pass.
	Interrupt *Interrupt

	// Err contains any error that occurred during node execution.
	// A non-nil error halts the workflow without advancing the checkpoint.
	Err error
}

// Next specifies the next step in workflow execution after a node completes.
//
// It supports three routing modes:
//   - Zero value: fall back to edge-based routing
//   - Single: Go to a specific node (Route.To = "nodeID")
//   - Terminal: Stop execution (Route.Terminal = true)
type Next struct {
	// To specifies the next node to execute. Mutually exclusive with Terminal.
	To string

	// Terminal indicates workflow execution should stop.
	Terminal bool
}

// Stop returns a Next that terminates workflow execution.
func Stop() Next {
	return Next{Terminal: true}
}

// Goto returns a Next that routes to the specified node.
func Goto(nodeID string) Next {
	return Next{To: nodeID}
}

// NodeFunc is a function adapter that implements the Node interface.
// It allows using plain functions as nodes without creating custom types.
//
// Example:
//
//	processNode := NodeFunc[MyState](func(ctx context.Context, s MyState) NodeResult[MyState] {
//	    return NodeResult[MyState]{
//	        Delta: MyState{Result: "processed"},
//	        Route: Stop(),
//	    }
//	})
type NodeFunc[S any] func(ctx context.Context, state S) NodeResult[S]

// Run implements the Node interface for NodeFunc.
func (f NodeFunc[S]) Run(ctx context.Context, state S) NodeResult[S] {
	return f(ctx, state)
}

// NodeError represents an error that occurred during node execution.
// It provides structured error information for better observability and debugging.
type NodeError struct {
	// Message is the human-readable error description.
	Message string

	// Code is a machine-readable error code for programmatic handling.
	Code string

	// NodeID identifies which node produced this error.
	NodeID string

	// Cause is the underlying error that caused this NodeError.
	Cause error
}

// Error implements the error interface.
func (e *NodeError) Error() string {
	if e.NodeID != "" {
		return "node " + e.NodeID + ": " + e.Message
	}
	return e.Message
}

// Unwrap returns the underlying cause error for error wrapping support.
func (e *NodeError) Unwrap() error {
	return e.Cause
}
