package graph

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dshills/novelgraph-go/graph/emit"
	"github.com/dshills/novelgraph-go/graph/store"
)

// Engine orchestrates stateful workflow execution with durable
// checkpointing and suspend/resume support.
//
// The Engine is the core runtime that:
//   - Manages workflow graph topology (nodes and edges)
//   - Executes nodes in sequence, one step at a time
//   - Merges state updates via the reducer
//   - Persists a checkpoint after every step via the store
//   - Suspends on node interrupts and resumes from the persisted checkpoint
//   - Emits observability events via the emitter
//   - Enforces a per-invocation step limit
//
// All progress lives in the store: after a suspension the process can be
// restarted and the thread resumed from its checkpoint alone. The engine
// keeps no in-memory continuations.
//
// Type parameter S is the state type shared across the workflow.
//
// Example:
//
//	reducer := func(prev, delta MyState) MyState {
//	    if delta.Query != "" {
//	        prev.Query = delta.Query
//	    }
//	    return prev
//	}
//
//	st := store.NewMemStore[MyState]()
//	emitter := emit.NewLogEmitter(os.Stderr, false)
//
//	engine := New(reducer, st, emitter, NewOptions())
//	engine.Add("process", processNode)
//	engine.StartAt("process")
//
//	snap, err := engine.Run(ctx, "thread-001", MyState{Query: "hello"})
type Engine[S any] struct {
	mu sync.RWMutex

	// reducer merges partial state updates deterministically
	reducer Reducer[S]

	// nodes maps node IDs to Node implementations
	nodes map[string]Node[S]

	// edges defines conditional transitions between nodes
	edges []Edge[S]

	// startNode is the entry point for workflow execution
	startNode string

	// store persists workflow state and checkpoints
	store store.Store[S]

	// emitter receives observability events
	emitter emit.Emitter

	// opts contains execution configuration
	opts Options

	// threads serializes invocations per thread ID
	threads sync.Map // string -> *sync.Mutex
}

// Snapshot describes a thread's position after an invocation returns.
//
// A completed invocation has PendingNode == "" and Interrupt == nil.
// A suspended invocation carries the node awaiting input and the
// Interrupt raised by it; call Resume to continue.
type Snapshot[S any] struct {
	// ThreadID identifies the workflow thread.
	ThreadID string

	// State is the merged state at the checkpoint.
	State S

	// Step is the persisted step counter. It continues across
	// suspensions for the lifetime of the thread.
	Step int

	// PendingNode, when non-empty, names the node awaiting external input.
	PendingNode string

	// Interrupt carries the suspension details when PendingNode is set.
	Interrupt *Interrupt
}

// Suspended reports whether the thread is awaiting external input.
func (s Snapshot[S]) Suspended() bool {
	return s.PendingNode != ""
}

// New creates a new Engine with the given configuration.
//
// Parameters:
//   - reducer: Function to merge partial state updates (required for Run)
//   - st: Persistence backend for checkpoints (required for Run)
//   - emitter: Observability event receiver (optional, can be nil)
//   - opts: Execution configuration (MaxSteps, Metrics)
//
// The constructor does not validate all parameters to allow flexible
// initialization. Validation occurs when Run() is called.
func New[S any](reducer Reducer[S], st store.Store[S], emitter emit.Emitter, opts Options) *Engine[S] {
	return &Engine[S]{
		reducer: reducer,
		nodes:   make(map[string]Node[S]),
		edges:   make([]Edge[S], 0),
		store:   st,
		emitter: emitter,
		opts:    opts,
	}
}

// Add registers a node in the workflow graph.
//
// Nodes must be added before calling StartAt or Run.
// Node IDs must be unique within the workflow.
//
// Returns error if:
//   - nodeID is empty
//   - node is nil
//   - a node with this ID already exists
func (e *Engine[S]) Add(nodeID string, node Node[S]) error {
	if nodeID == "" {
		return &EngineError{Message: "node ID cannot be empty"}
	}
	if node == nil {
		return &EngineError{Message: "node cannot be nil"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.nodes[nodeID]; exists {
		return &EngineError{
			Message: "duplicate node ID: " + nodeID,
			Code:    "DUPLICATE_NODE",
		}
	}

	e.nodes[nodeID] = node
	return nil
}

// StartAt sets the entry point for workflow execution.
//
// The start node is executed first when Run() is called.
// The node must have been registered via Add() before calling StartAt.
func (e *Engine[S]) StartAt(nodeID string) error {
	if nodeID == "" {
		return &EngineError{Message: "start node ID cannot be empty"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.nodes[nodeID]; !exists {
		return &EngineError{
			Message: "start node does not exist: " + nodeID,
			Code:    "NODE_NOT_FOUND",
		}
	}

	e.startNode = nodeID
	return nil
}

// Connect creates an edge between two nodes.
//
// Edges define possible transitions in the workflow graph.
// They can be:
//   - Unconditional: Always traverse (predicate = nil)
//   - Conditional: Only traverse if predicate returns true
//
// Node explicit routing via NodeResult.Route takes precedence over edges.
// Among edges, the first matching edge wins, so register fallback edges
// (nil predicate) after conditional ones.
//
// Note: Node existence is not validated (lazy validation) to allow
// flexible graph construction order.
//
// Example:
//
//	// Conditional edge, then fallback
//	engine.Connect("editor", "humanReview", func(s State) bool {
//	    return s.RevisionCount >= 3
//	})
//	engine.Connect("editor", "writer", nil)
func (e *Engine[S]) Connect(from, to string, predicate Predicate[S]) error {
	if from == "" {
		return &EngineError{Message: "from node ID cannot be empty"}
	}
	if to == "" {
		return &EngineError{Message: "to node ID cannot be empty"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.edges = append(e.edges, Edge[S]{
		From: from,
		To:   to,
		When: predicate,
	})
	return nil
}

// Run starts or restarts a workflow thread.
//
// Execution:
//  1. Validates engine configuration (reducer, store, startNode)
//  2. Loads the thread's checkpoint; a missing or corrupt checkpoint
//     yields a fresh zero state (corruption additionally emits a
//     warning event)
//  3. Merges initial into the loaded state via the reducer
//  4. Executes nodes starting from startNode, persisting a checkpoint
//     after each step
//  5. Stops on a terminal route (done event), a node interrupt
//     (done event followed by an interrupt event), or an error
//
// If the thread is currently suspended, Run discards the pending
// suspension and restarts from the entry node on the checkpointed
// state; the stale interrupt can no longer be resumed.
//
// Invocations on the same thread ID are serialized; concurrent Run and
// Resume calls for one thread never interleave steps.
//
// Parameters:
//   - ctx: Context for cancellation and request-scoped values
//   - threadID: Stable identifier for this workflow thread
//   - initial: Partial state merged into the checkpointed state
//
// Returns the thread snapshot at the point the invocation stopped.
func (e *Engine[S]) Run(ctx context.Context, threadID string, initial S) (Snapshot[S], error) {
	var zero Snapshot[S]

	if err := e.validate(); err != nil {
		e.emitError(threadID, 0, "", err)
		return zero, err
	}

	unlock := e.lockThread(threadID)
	defer unlock()

	// Load prior progress. Missing and corrupt checkpoints both fall
	// back to a fresh state; corruption is surfaced as a warning so the
	// thread stays usable.
	var base S
	step := 0
	cp, err := e.store.Load(ctx, threadID)
	switch {
	case err == nil:
		base = cp.State
		step = cp.Step
	case errors.Is(err, store.ErrNotFound):
		// fresh thread
	case errors.Is(err, store.ErrCorrupt):
		e.emit(emit.Event{
			Type:     emit.TypeWarning,
			ThreadID: threadID,
			Msg:      "checkpoint unreadable, starting fresh: " + err.Error(),
		})
	default:
		e.emitError(threadID, step, "", err)
		return zero, &EngineError{
			Message: "failed to load checkpoint: " + err.Error(),
			Code:    "STORE_ERROR",
		}
	}

	state := e.reducer(base, initial)

	e.emit(emit.Event{
		Type:     emit.TypeThread,
		ThreadID: threadID,
		Step:     step,
		NodeID:   e.startNode,
	})

	return e.execute(ctx, threadID, state, e.startNode, step, nil, 0)
}

// Resume continues a suspended thread with externally supplied input.
//
// The thread's checkpoint must be marked as awaiting input, and the
// pending node must implement Resumable. The input is delivered to the
// node's Resume method, whose result is processed like a normal step;
// execution then proceeds through the graph until it completes,
// suspends again, or fails.
//
// Returns:
//   - ErrThreadNotFound if no checkpoint exists for threadID
//   - ErrNotSuspended if the checkpoint is not awaiting input
//   - ErrNotResumable if the pending node cannot accept input
func (e *Engine[S]) Resume(ctx context.Context, threadID string, input string) (Snapshot[S], error) {
	var zero Snapshot[S]

	if err := e.validate(); err != nil {
		e.emitError(threadID, 0, "", err)
		return zero, err
	}

	unlock := e.lockThread(threadID)
	defer unlock()

	cp, err := e.store.Load(ctx, threadID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			e.emitError(threadID, 0, "", ErrThreadNotFound)
			return zero, ErrThreadNotFound
		}
		e.emitError(threadID, 0, "", err)
		return zero, &EngineError{
			Message: "failed to load checkpoint: " + err.Error(),
			Code:    "STORE_ERROR",
		}
	}

	if cp.PendingNode == "" {
		e.emitError(threadID, cp.Step, "", ErrNotSuspended)
		return zero, ErrNotSuspended
	}

	e.mu.RLock()
	nodeImpl, exists := e.nodes[cp.PendingNode]
	e.mu.RUnlock()

	if !exists {
		err := &EngineError{
			Message: "pending node does not exist: " + cp.PendingNode,
			Code:    "NODE_NOT_FOUND",
		}
		e.emitError(threadID, cp.Step, cp.PendingNode, err)
		return zero, err
	}

	resumable, ok := nodeImpl.(Resumable[S])
	if !ok {
		e.emitError(threadID, cp.Step, cp.PendingNode, ErrNotResumable)
		return zero, ErrNotResumable
	}

	e.emit(emit.Event{
		Type:     emit.TypeThread,
		ThreadID: threadID,
		Step:     cp.Step,
		NodeID:   cp.PendingNode,
	})

	if e.opts.Metrics != nil {
		e.opts.Metrics.IncrementResumes(threadID, cp.PendingNode)
	}

	// The post-resume half runs outside the loop so the externally
	// supplied input never needs to live in state.
	began := time.Now()
	result := resumable.Resume(ctx, cp.State, input)
	return e.execute(ctx, threadID, cp.State, cp.PendingNode, cp.Step, &result, time.Since(began))
}

// State returns the current snapshot of a thread without executing
// anything. Returns ErrThreadNotFound if the thread has no checkpoint.
//
// A suspended thread's snapshot carries the persisted Interrupt, so the
// pending instruction can be re-presented after a process restart.
func (e *Engine[S]) State(ctx context.Context, threadID string) (Snapshot[S], error) {
	var zero Snapshot[S]

	cp, err := e.store.Load(ctx, threadID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return zero, ErrThreadNotFound
		}
		return zero, err
	}

	snap := Snapshot[S]{
		ThreadID:    threadID,
		State:       cp.State,
		Step:        cp.Step,
		PendingNode: cp.PendingNode,
	}
	if cp.PendingNode != "" && cp.Interrupt != nil {
		snap.Interrupt = &Interrupt{
			Instruction: cp.Interrupt.Instruction,
			Payload:     cp.Interrupt.Payload,
		}
	}
	return snap, nil
}

// execute is the shared step loop behind Run and Resume.
//
// When firstResult is non-nil it is treated as the already-computed
// result of currentNode (the post-resume half) and processed before any
// Run call is made. The per-invocation step budget is separate from the
// persisted step counter, which continues across suspensions.
func (e *Engine[S]) execute(ctx context.Context, threadID string, state S, currentNode string, step int, firstResult *NodeResult[S], firstLatency time.Duration) (Snapshot[S], error) {
	var zero Snapshot[S]

	budget := 0
	maxSteps := e.opts.maxSteps()

	for {
		budget++
		if budget > maxSteps {
			e.emitError(threadID, step, currentNode, ErrMaxStepsExceeded)
			return zero, ErrMaxStepsExceeded
		}

		select {
		case <-ctx.Done():
			e.emitError(threadID, step, currentNode, ctx.Err())
			return zero, ctx.Err()
		default:
		}

		e.mu.RLock()
		nodeImpl, exists := e.nodes[currentNode]
		e.mu.RUnlock()

		if !exists {
			err := &EngineError{
				Message: "node not found during execution: " + currentNode,
				Code:    "NODE_NOT_FOUND",
			}
			e.emitError(threadID, step, currentNode, err)
			return zero, err
		}

		var result NodeResult[S]
		var latency time.Duration
		if firstResult != nil {
			result = *firstResult
			latency = firstLatency
			firstResult = nil
		} else {
			// Nodes get an isolated copy so shared maps and slices in
			// state cannot be mutated in place behind the reducer.
			nodeState, err := deepCopy(state)
			if err != nil {
				e.emitError(threadID, step, currentNode, err)
				return zero, &EngineError{
					Message: "failed to copy state: " + err.Error(),
					Code:    "STATE_COPY_ERROR",
				}
			}

			began := time.Now()
			result = nodeImpl.Run(ctx, nodeState)
			latency = time.Since(began)
		}

		if result.Err != nil {
			if e.opts.Metrics != nil {
				e.opts.Metrics.RecordStep(threadID, currentNode, latency, "error")
				e.opts.Metrics.IncrementFailures(threadID, currentNode)
			}
			e.emitError(threadID, step, currentNode, result.Err)
			return zero, result.Err
		}

		if result.Interrupt != nil {
			return e.suspend(ctx, threadID, state, currentNode, step, result.Interrupt)
		}

		// Merge and checkpoint. The checkpoint is written before the
		// step event so an observer never sees a step the store does
		// not know about.
		state = e.reducer(state, result.Delta)
		step++

		if err := e.store.Save(ctx, store.Checkpoint[S]{
			ThreadID: threadID,
			Step:     step,
			NodeID:   currentNode,
			State:    state,
		}); err != nil {
			e.emitError(threadID, step, currentNode, err)
			return zero, &EngineError{
				Message: "failed to save checkpoint: " + err.Error(),
				Code:    "STORE_ERROR",
			}
		}

		if e.opts.Metrics != nil {
			e.opts.Metrics.RecordStep(threadID, currentNode, latency, "success")
		}

		e.emit(emit.Event{
			Type:     emit.TypeStep,
			ThreadID: threadID,
			Step:     step,
			NodeID:   currentNode,
			Msg:      "node completed",
			Meta:     map[string]interface{}{"delta": result.Delta},
		})

		if result.Route.Terminal {
			e.emit(emit.Event{
				Type:     emit.TypeDone,
				ThreadID: threadID,
				Step:     step,
				NodeID:   currentNode,
				Meta:     map[string]interface{}{"state": state},
			})
			return Snapshot[S]{
				ThreadID: threadID,
				State:    state,
				Step:     step,
			}, nil
		}

		if result.Route.To != "" {
			currentNode = result.Route.To
			continue
		}

		nextNode := e.evaluateEdges(currentNode, state)
		if nextNode == "" {
			err := &EngineError{
				Message: "no valid route from node: " + currentNode,
				Code:    "NO_ROUTE",
			}
			e.emitError(threadID, step, currentNode, err)
			return zero, err
		}

		currentNode = nextNode
	}
}

// suspend persists the thread as awaiting input at node and emits the
// terminal done event followed by the interrupt event. The pre-suspend
// half of the node did no work, so state is checkpointed unchanged.
func (e *Engine[S]) suspend(ctx context.Context, threadID string, state S, node string, step int, intr *Interrupt) (Snapshot[S], error) {
	var zero Snapshot[S]

	step++
	if err := e.store.Save(ctx, store.Checkpoint[S]{
		ThreadID:    threadID,
		Step:        step,
		NodeID:      node,
		State:       state,
		PendingNode: node,
		Interrupt: &store.PendingInterrupt{
			Instruction: intr.Instruction,
			Payload:     intr.Payload,
		},
	}); err != nil {
		e.emitError(threadID, step, node, err)
		return zero, &EngineError{
			Message: "failed to save checkpoint: " + err.Error(),
			Code:    "STORE_ERROR",
		}
	}

	if e.opts.Metrics != nil {
		e.opts.Metrics.IncrementInterrupts(threadID, node)
	}

	e.emit(emit.Event{
		Type:     emit.TypeDone,
		ThreadID: threadID,
		Step:     step,
		NodeID:   node,
		Meta:     map[string]interface{}{"state": state},
	})
	e.emit(emit.Event{
		Type:     emit.TypeInterrupt,
		ThreadID: threadID,
		Step:     step,
		NodeID:   node,
		Msg:      intr.Instruction,
		Meta:     map[string]interface{}{"pending_node": node},
	})

	return Snapshot[S]{
		ThreadID:    threadID,
		State:       state,
		Step:        step,
		PendingNode: node,
		Interrupt:   intr,
	}, nil
}

// evaluateEdges finds the first matching edge from the given node.
//
// Evaluates outgoing edges in registration order:
//  1. If edge has nil predicate (unconditional), always matches
//  2. If edge predicate returns true for current state, matches
//  3. First matching edge wins (priority order)
//
// Returns empty string if no edges match.
func (e *Engine[S]) evaluateEdges(fromNode string, state S) string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, edge := range e.edges {
		if edge.From != fromNode {
			continue
		}
		if edge.When == nil || edge.When(state) {
			return edge.To
		}
	}

	return ""
}

// validate checks that the engine is runnable.
func (e *Engine[S]) validate() error {
	if e.reducer == nil {
		return &EngineError{
			Message: "reducer is required",
			Code:    "MISSING_REDUCER",
		}
	}
	if e.store == nil {
		return &EngineError{
			Message: "store is required",
			Code:    "MISSING_STORE",
		}
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.startNode == "" {
		return &EngineError{
			Message: "start node not set (call StartAt before Run)",
			Code:    "NO_START_NODE",
		}
	}
	if _, exists := e.nodes[e.startNode]; !exists {
		return &EngineError{
			Message: "start node does not exist: " + e.startNode,
			Code:    "NODE_NOT_FOUND",
		}
	}
	return nil
}

// lockThread serializes invocations for one thread ID.
func (e *Engine[S]) lockThread(threadID string) func() {
	muAny, _ := e.threads.LoadOrStore(threadID, &sync.Mutex{})
	mu := muAny.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (e *Engine[S]) emit(event emit.Event) {
	if e.emitter != nil {
		e.emitter.Emit(event)
	}
}

func (e *Engine[S]) emitError(threadID string, step int, nodeID string, err error) {
	e.emit(emit.Event{
		Type:     emit.TypeError,
		ThreadID: threadID,
		Step:     step,
		NodeID:   nodeID,
		Msg:      err.Error(),
	})
}
