package store

import (
	"context"
	"errors"
	"testing"
)

// testState is the state type shared by the store test suites.
type testState struct {
	Draft    string   `json:"draft"`
	Revision int      `json:"revision"`
	Messages []string `json:"messages"`
}

// runStoreSuite exercises the Store contract against any implementation.
func runStoreSuite(t *testing.T, st Store[testState]) {
	t.Helper()
	ctx := context.Background()

	t.Run("load missing thread returns ErrNotFound", func(t *testing.T) {
		_, err := st.Load(ctx, "no-such-thread")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("save then load round-trips", func(t *testing.T) {
		cp := Checkpoint[testState]{
			ThreadID: "t-001",
			Step:     1,
			NodeID:   "writer",
			State:    testState{Draft: "first draft", Revision: 1, Messages: []string{"hi"}},
		}
		if err := st.Save(ctx, cp); err != nil {
			t.Fatalf("save failed: %v", err)
		}

		got, err := st.Load(ctx, "t-001")
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if got.Step != 1 || got.NodeID != "writer" || got.PendingNode != "" {
			t.Errorf("unexpected checkpoint: %+v", got)
		}
		if got.State.Draft != "first draft" || got.State.Revision != 1 {
			t.Errorf("state did not round-trip: %+v", got.State)
		}
		if len(got.State.Messages) != 1 || got.State.Messages[0] != "hi" {
			t.Errorf("messages did not round-trip: %+v", got.State.Messages)
		}
	})

	t.Run("later save replaces latest", func(t *testing.T) {
		if err := st.Save(ctx, Checkpoint[testState]{
			ThreadID: "t-001",
			Step:     2,
			NodeID:   "editor",
			State:    testState{Draft: "first draft", Revision: 1},
		}); err != nil {
			t.Fatalf("save failed: %v", err)
		}

		got, err := st.Load(ctx, "t-001")
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if got.Step != 2 || got.NodeID != "editor" {
			t.Errorf("expected latest checkpoint replaced, got %+v", got)
		}
	})

	t.Run("pending node marks suspension", func(t *testing.T) {
		if err := st.Save(ctx, Checkpoint[testState]{
			ThreadID:    "t-suspended",
			Step:        3,
			NodeID:      "humanReview",
			State:       testState{Draft: "awaiting review", Revision: 3},
			PendingNode: "humanReview",
			Interrupt: &PendingInterrupt{
				Instruction: "please review the draft",
				Payload:     map[string]interface{}{"draft": "awaiting review"},
			},
		}); err != nil {
			t.Fatalf("save failed: %v", err)
		}

		got, err := st.Load(ctx, "t-suspended")
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if got.PendingNode != "humanReview" {
			t.Errorf("expected pending node humanReview, got %q", got.PendingNode)
		}
		if got.Interrupt == nil || got.Interrupt.Instruction != "please review the draft" {
			t.Errorf("interrupt did not round-trip: %+v", got.Interrupt)
		}
		if got.Interrupt != nil && got.Interrupt.Payload["draft"] != "awaiting review" {
			t.Errorf("interrupt payload did not round-trip: %+v", got.Interrupt.Payload)
		}

		// Clearing the pending node resumes the thread.
		got.PendingNode = ""
		got.Interrupt = nil
		got.Step = 4
		if err := st.Save(ctx, got); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		cleared, err := st.Load(ctx, "t-suspended")
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if cleared.PendingNode != "" {
			t.Errorf("expected pending node cleared, got %q", cleared.PendingNode)
		}
		if cleared.Interrupt != nil {
			t.Errorf("expected interrupt cleared, got %+v", cleared.Interrupt)
		}
	})

	t.Run("step history retrievable", func(t *testing.T) {
		got, err := st.LoadStep(ctx, "t-001", 1)
		if err != nil {
			t.Fatalf("load step failed: %v", err)
		}
		if got.NodeID != "writer" || got.State.Draft != "first draft" {
			t.Errorf("unexpected historical checkpoint: %+v", got)
		}

		_, err = st.LoadStep(ctx, "t-001", 99)
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound for missing step, got %v", err)
		}
	})

	t.Run("threads are isolated", func(t *testing.T) {
		if err := st.Save(ctx, Checkpoint[testState]{
			ThreadID: "t-other",
			Step:     1,
			NodeID:   "director",
			State:    testState{Draft: "other"},
		}); err != nil {
			t.Fatalf("save failed: %v", err)
		}

		got, err := st.Load(ctx, "t-001")
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if got.State.Draft == "other" {
			t.Error("thread t-001 state leaked from t-other")
		}
	})
}
