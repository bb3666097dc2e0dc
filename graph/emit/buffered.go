package emit

import "sync"

// BufferedEmitter implements Emitter by storing events in memory.
//
// This emitter captures all events and provides query capabilities for
// execution history analysis. Events are organized by thread id for
// efficient retrieval and filtering.
//
// Use cases:
//   - Testing and validation of the event stream contract
//   - Development and debugging
//   - Post-execution analysis
//
// Warning: This emitter stores all events in memory. For long-running
// deployments use Clear to drop finished threads.
//
// Example usage:
//
//	emitter := emit.NewBufferedEmitter()
//	engine := graph.New(reducer, store, emitter, opts)
//
//	engine.Run(ctx, "t-001", initialState)
//
//	all := emitter.History("t-001")
//	steps := emitter.HistoryByType("t-001", emit.TypeStep)
type BufferedEmitter struct {
	mu     sync.RWMutex
	events map[string][]Event // threadID -> events
}

// NewBufferedEmitter creates a new BufferedEmitter.
//
// Returns a BufferedEmitter that stores all events in memory and provides
// query capabilities. Safe for concurrent use.
func NewBufferedEmitter() *BufferedEmitter {
	return &BufferedEmitter{
		events: make(map[string][]Event),
	}
}

// Emit stores an event in the buffer.
//
// Events are organized by thread id. Thread-safe.
func (b *BufferedEmitter) Emit(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events[event.ThreadID] = append(b.events[event.ThreadID], event)
}

// History retrieves all events for a specific thread id.
//
// Returns events in the order they were emitted, or an empty slice if no
// events exist for the thread. Returns a copy to prevent concurrent
// modification.
func (b *BufferedEmitter) History(threadID string) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	events := b.events[threadID]
	result := make([]Event, len(events))
	copy(result, events)
	return result
}

// HistoryByType retrieves the events of a single type for a thread id,
// in emission order.
func (b *BufferedEmitter) HistoryByType(threadID string, t Type) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := make([]Event, 0)
	for _, event := range b.events[threadID] {
		if event.Type == t {
			result = append(result, event)
		}
	}
	return result
}

// Clear removes stored events.
//
// If threadID is non-empty, clears only events for that thread.
// If threadID is empty, clears all stored events.
func (b *BufferedEmitter) Clear(threadID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if threadID == "" {
		b.events = make(map[string][]Event)
	} else {
		delete(b.events, threadID)
	}
}
