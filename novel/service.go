package novel

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/dshills/novelgraph-go/graph"
	"github.com/dshills/novelgraph-go/graph/emit"
	"github.com/dshills/novelgraph-go/graph/model"
	"github.com/dshills/novelgraph-go/storage"
)

// Service is the workflow invocation surface: Submit starts or
// continues a thread with new user input, Resume continues a suspended
// thread with feedback. Both return a per-invocation event channel that
// closes when the invocation finishes.
type Service struct {
	engine *graph.Engine[State]
	stream *emit.StreamEmitter
	chats  *storage.ChatStore
}

// SubmitRequest carries one user turn.
type SubmitRequest struct {
	// ThreadID continues an existing thread; empty starts a new one.
	ThreadID string

	// ProjectID binds the thread to a stored project. Optional.
	ProjectID string

	// Message is the user input.
	Message string
}

// ResumeRequest carries feedback for a suspended thread.
type ResumeRequest struct {
	ThreadID string

	// Feedback is the user's reply to the interrupt instruction. Empty
	// feedback counts as confirmation.
	Feedback string
}

// NewService builds the invocation surface over a workflow graph.
//
// The engine must have been built with stream as (part of) its emitter,
// so that engine events reach the per-thread subscriber channels this
// service hands out.
func NewService(engine *graph.Engine[State], stream *emit.StreamEmitter, chats *storage.ChatStore) *Service {
	return &Service{
		engine: engine,
		stream: stream,
		chats:  chats,
	}
}

// eventBuffer sizes the per-invocation channel. Token events burst
// faster than terminal consumers read, so the buffer is generous.
const eventBuffer = 256

// Submit starts or continues a thread with new user input.
//
// Returns the thread id (generated when the request omits one) and the
// invocation's event channel. The channel delivers the documented
// sequence (thread first, then token/step events, then done or error,
// then possibly interrupt) and is closed when the invocation returns.
//
// Submitting to a suspended thread abandons its pending interrupt and
// restarts at the graph entry with the new message.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (string, <-chan emit.Event, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return "", nil, errors.New("novel: message cannot be empty")
	}

	threadID := req.ThreadID
	if threadID == "" {
		threadID = uuid.NewString()
	}

	events := s.stream.Subscribe(threadID, eventBuffer)
	s.appendChat(threadID, model.RoleUser, message)

	go func() {
		defer s.stream.Unsubscribe(threadID)

		snap, err := s.engine.Run(ctx, threadID, State{
			ThreadID:    threadID,
			ProjectID:   req.ProjectID,
			UserMessage: message,
			Messages:    []ChatMessage{{Role: model.RoleUser, Content: message}},
			NewTurn:     true,
		})
		if err != nil {
			return
		}
		s.recordOutcome(threadID, snap)
	}()

	return threadID, events, nil
}

// Resume continues a suspended thread with user feedback. Empty
// feedback is treated as the confirmation token. Errors (unknown
// thread, not suspended) are returned synchronously.
func (s *Service) Resume(ctx context.Context, req ResumeRequest) (<-chan emit.Event, error) {
	if req.ThreadID == "" {
		return nil, errors.New("novel: thread id is required")
	}

	feedback := strings.TrimSpace(req.Feedback)
	if feedback == "" {
		feedback = ConfirmToken
	}

	// Validate before subscribing so callers get a synchronous error
	// instead of an empty closed channel.
	snap, err := s.engine.State(ctx, req.ThreadID)
	if err != nil {
		return nil, err
	}
	if !snap.Suspended() {
		return nil, graph.ErrNotSuspended
	}

	events := s.stream.Subscribe(req.ThreadID, eventBuffer)
	s.appendChat(req.ThreadID, model.RoleUser, feedback)

	go func() {
		defer s.stream.Unsubscribe(req.ThreadID)

		snap, err := s.engine.Resume(ctx, req.ThreadID, feedback)
		if err != nil {
			return
		}
		s.recordOutcome(req.ThreadID, snap)
	}()

	return events, nil
}

// State exposes the thread's current snapshot (for UIs showing pending
// interrupts or the latest draft).
func (s *Service) State(ctx context.Context, threadID string) (graph.Snapshot[State], error) {
	return s.engine.State(ctx, threadID)
}

// recordOutcome appends the assistant's visible output to the
// transcript once an invocation completes or suspends with output.
func (s *Service) recordOutcome(threadID string, snap graph.Snapshot[State]) {
	if out := snap.State.AgentOutput; out != "" {
		s.appendChat(threadID, model.RoleAssistant, out)
	}
}

func (s *Service) appendChat(threadID, role, content string) {
	if s.chats == nil {
		return
	}
	// Transcript writes are best effort; memory degrades, the workflow
	// does not.
	_ = s.chats.Append(threadID, role, content)
}
