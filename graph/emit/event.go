package emit

// Type classifies an event within an invocation's output stream.
//
// Every invocation of the engine produces an ordered stream:
//   - exactly one TypeThread event, first
//   - zero or more TypeToken and TypeStep events
//   - exactly one of TypeDone or TypeError, terminating the invocation
//   - optionally one TypeInterrupt after TypeDone, when the workflow is
//     now suspended awaiting external input
//
// TypeWarning events may appear anywhere; they carry recoverable
// degradations (e.g. an unavailable retrieval backend) and are never
// terminal.
//
// An invocation rejected before its first step (engine misconfiguration,
// resuming a thread that is missing or not suspended) emits a single
// TypeError event with no preceding TypeThread event.
type Type string

// Event types emitted during workflow execution.
const (
	// TypeThread announces the thread id handling this invocation.
	TypeThread Type = "thread"

	// TypeToken carries a streamed text fragment from a long-running
	// generative step. Msg holds the fragment.
	TypeToken Type = "token"

	// TypeStep marks a completed step. Meta["delta"] holds the partial
	// state update the step produced.
	TypeStep Type = "step"

	// TypeDone terminates a successful invocation. Meta["state"] holds
	// the final merged state.
	TypeDone Type = "done"

	// TypeInterrupt reports that the workflow is suspended. Msg holds
	// the instruction text for the user; Meta["pending_node"] names the
	// step awaiting input.
	TypeInterrupt Type = "interrupt"

	// TypeError terminates a failed invocation. Msg holds a
	// human-readable message.
	TypeError Type = "error"

	// TypeWarning reports a recoverable degradation.
	TypeWarning Type = "warning"
)

// Event represents an observability event emitted during workflow execution.
//
// Events serve two audiences at once: callers consuming the invocation
// stream (thread/token/step/done/interrupt/error), and operational
// backends (logs, traces, metrics) receiving every event.
type Event struct {
	// Type classifies the event. See the Type constants.
	Type Type

	// ThreadID identifies the workflow instance that emitted this event.
	ThreadID string

	// Step is the sequential step number in the workflow (1-indexed).
	// Zero for events not tied to a specific step.
	Step int

	// NodeID identifies which node emitted this event.
	// Empty string for workflow-level events.
	NodeID string

	// Msg is a human-readable description, a token fragment (TypeToken),
	// or an instruction text (TypeInterrupt), depending on Type.
	Msg string

	// Meta contains additional structured data specific to this event.
	// Common keys:
	//   - "delta": partial state update (TypeStep)
	//   - "state": final merged state (TypeDone)
	//   - "pending_node": suspended step name (TypeInterrupt)
	//   - "error": error details
	Meta map[string]interface{}
}
