package emit

import "sync"

// StreamEmitter routes events onto per-thread channels so callers can
// consume an invocation's event stream while the workflow runs.
//
// A caller subscribes before starting an invocation and receives every
// event emitted for that thread id. Events for threads with no
// subscriber are forwarded to the fallback emitter, if any.
//
// Delivery is best-effort: if a subscriber's channel buffer is full the
// event is dropped rather than blocking the workflow. Size the buffer
// for the expected event volume of one invocation.
//
// Example usage:
//
//	stream := emit.NewStreamEmitter(emit.NewLogEmitter(os.Stdout, false))
//	engine := graph.New(reducer, store, stream, opts)
//
//	ch := stream.Subscribe("t-001", 256)
//	go engine.Run(ctx, "t-001", initial)
//	for ev := range ch {
//	    fmt.Println(ev.Type, ev.Msg)
//	}
type StreamEmitter struct {
	mu       sync.RWMutex
	subs     map[string]chan Event // threadID -> subscriber channel
	fallback Emitter
}

// NewStreamEmitter creates a StreamEmitter.
//
// The fallback emitter receives events for threads with no subscriber;
// it may be nil to discard them.
func NewStreamEmitter(fallback Emitter) *StreamEmitter {
	return &StreamEmitter{
		subs:     make(map[string]chan Event),
		fallback: fallback,
	}
}

// Subscribe registers a channel for the given thread id and returns it.
//
// A previous subscription for the same thread id is closed and replaced.
// The returned channel is closed by Unsubscribe.
func (s *StreamEmitter) Subscribe(threadID string, buffer int) <-chan Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.subs[threadID]; ok {
		close(old)
	}

	ch := make(chan Event, buffer)
	s.subs[threadID] = ch
	return ch
}

// Unsubscribe removes the subscription for a thread id and closes its
// channel. Safe to call for thread ids that were never subscribed.
func (s *StreamEmitter) Unsubscribe(threadID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch, ok := s.subs[threadID]; ok {
		close(ch)
		delete(s.subs, threadID)
	}
}

// Emit routes the event to the thread's subscriber, or to the fallback
// emitter when no subscriber exists. Never blocks: a full subscriber
// buffer drops the event.
func (s *StreamEmitter) Emit(event Event) {
	// The send must happen under the read lock: Subscribe and
	// Unsubscribe close channels under the write lock, so a send here
	// can never race a close. The send is non-blocking, so holding the
	// lock across it cannot stall other emitters.
	s.mu.RLock()
	defer s.mu.RUnlock()

	ch, ok := s.subs[event.ThreadID]
	if !ok {
		if s.fallback != nil {
			s.fallback.Emit(event)
		}
		return
	}

	select {
	case ch <- event:
	default:
		// Subscriber not keeping up; drop rather than stall the workflow.
	}
}
