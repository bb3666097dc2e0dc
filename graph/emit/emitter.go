package emit

// Emitter receives and processes observability events from workflow execution.
//
// Emitters enable pluggable observability backends:
//   - Logging: stdout, files, syslog
//   - Distributed tracing: OpenTelemetry
//   - Caller-facing streams: channels feeding SSE or terminal output
//
// Implementations should be:
//   - Non-blocking: Avoid slowing down workflow execution
//   - Thread-safe: May be called concurrently from multiple workflow instances
//   - Resilient: Handle failures gracefully (don't crash the workflow)
type Emitter interface {
	// Emit sends an observability event to the configured backend.
	//
	// Implementations should not block workflow execution. If the backend
	// is unavailable or slow, events should be buffered, dropped with
	// internal logging, or sent asynchronously.
	//
	// Emit should not panic. Errors should be handled internally.
	Emit(event Event)
}

// Multi fans a single event out to several emitters in order.
//
// Useful for combining a caller-facing stream with an operational
// backend (e.g. a StreamEmitter plus a LogEmitter).
type Multi []Emitter

// Emit sends the event to every wrapped emitter.
func (m Multi) Emit(event Event) {
	for _, e := range m {
		if e != nil {
			e.Emit(event)
		}
	}
}
