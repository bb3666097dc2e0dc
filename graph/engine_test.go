package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/dshills/novelgraph-go/graph/emit"
	"github.com/dshills/novelgraph-go/graph/store"
)

type testState struct {
	Value string            `json:"value"`
	Count int               `json:"count"`
	Tags  map[string]string `json:"tags,omitempty"`
}

func testReducer(prev, delta testState) testState {
	if delta.Value != "" {
		prev.Value = delta.Value
	}
	prev.Count += delta.Count
	if len(delta.Tags) > 0 {
		if prev.Tags == nil {
			prev.Tags = make(map[string]string)
		}
		for k, v := range delta.Tags {
			prev.Tags[k] = v
		}
	}
	return prev
}

// appendNode returns a node that appends a marker to Value and increments Count.
func appendNode(marker string, route Next) NodeFunc[testState] {
	return func(ctx context.Context, s testState) NodeResult[testState] {
		return NodeResult[testState]{
			Delta: testState{Value: s.Value + marker, Count: 1},
			Route: route,
		}
	}
}

// gateNode suspends on first entry and records the supplied input on resume.
type gateNode struct {
	instruction string
}

func (g *gateNode) Run(ctx context.Context, s testState) NodeResult[testState] {
	return NodeResult[testState]{
		Interrupt: &Interrupt{
			Instruction: g.instruction,
			Payload:     map[string]interface{}{"value": s.Value},
		},
	}
}

func (g *gateNode) Resume(ctx context.Context, s testState, input string) NodeResult[testState] {
	return NodeResult[testState]{
		Delta: testState{Value: s.Value + "|" + input, Count: 1},
		Route: Stop(),
	}
}

func newTestEngine(t *testing.T, st store.Store[testState], emitter emit.Emitter, opts Options) *Engine[testState] {
	t.Helper()
	return New(testReducer, st, emitter, opts)
}

func mustAdd(t *testing.T, e *Engine[testState], id string, n Node[testState]) {
	t.Helper()
	if err := e.Add(id, n); err != nil {
		t.Fatalf("Add(%q): %v", id, err)
	}
}

func TestEngineRunToCompletion(t *testing.T) {
	st := store.NewMemStore[testState]()
	buf := emit.NewBufferedEmitter()
	e := newTestEngine(t, st, buf, NewOptions())

	mustAdd(t, e, "first", appendNode("a", Next{}))
	mustAdd(t, e, "second", appendNode("b", Next{}))
	mustAdd(t, e, "last", appendNode("c", Stop()))
	if err := e.StartAt("first"); err != nil {
		t.Fatalf("StartAt: %v", err)
	}
	if err := e.Connect("first", "second", nil); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := e.Connect("second", "last", nil); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	snap, err := e.Run(context.Background(), "t1", testState{Value: "x"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if snap.State.Value != "xabc" {
		t.Errorf("expected Value = %q, got %q", "xabc", snap.State.Value)
	}
	if snap.Step != 3 {
		t.Errorf("expected Step = 3, got %d", snap.Step)
	}
	if snap.Suspended() {
		t.Error("completed run should not be suspended")
	}

	t.Run("checkpoint persisted after every step", func(t *testing.T) {
		steps := st.Steps("t1")
		if steps != 3 {
			t.Fatalf("expected 3 history rows, got %d", steps)
		}
		cp, err := st.LoadStep(context.Background(), "t1", 2)
		if err != nil {
			t.Fatalf("LoadStep: %v", err)
		}
		if cp.State.Value != "xab" {
			t.Errorf("expected intermediate Value %q, got %q", "xab", cp.State.Value)
		}
		if cp.NodeID != "second" {
			t.Errorf("expected NodeID = second, got %q", cp.NodeID)
		}
	})

	t.Run("event stream shape", func(t *testing.T) {
		events := buf.History("t1")
		if len(events) == 0 {
			t.Fatal("no events emitted")
		}
		if events[0].Type != emit.TypeThread {
			t.Errorf("first event should be thread, got %s", events[0].Type)
		}
		var done, errCount int
		for _, ev := range events {
			switch ev.Type {
			case emit.TypeDone:
				done++
			case emit.TypeError:
				errCount++
			}
		}
		if done != 1 {
			t.Errorf("expected exactly one done event, got %d", done)
		}
		if errCount != 0 {
			t.Errorf("expected no error events, got %d", errCount)
		}
		if last := events[len(events)-1]; last.Type != emit.TypeDone {
			t.Errorf("last event should be done, got %s", last.Type)
		}
		if len(buf.HistoryByType("t1", emit.TypeStep)) != 3 {
			t.Errorf("expected 3 step events, got %d", len(buf.HistoryByType("t1", emit.TypeStep)))
		}
	})
}

func TestEngineSuspendAndResume(t *testing.T) {
	st := store.NewMemStore[testState]()
	buf := emit.NewBufferedEmitter()
	e := newTestEngine(t, st, buf, NewOptions())

	mustAdd(t, e, "prep", appendNode("p", Next{}))
	mustAdd(t, e, "gate", &gateNode{instruction: "approve?"})
	if err := e.StartAt("prep"); err != nil {
		t.Fatalf("StartAt: %v", err)
	}
	if err := e.Connect("prep", "gate", nil); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	snap, err := e.Run(context.Background(), "t1", testState{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !snap.Suspended() {
		t.Fatal("expected suspended snapshot")
	}
	if snap.PendingNode != "gate" {
		t.Errorf("expected PendingNode = gate, got %q", snap.PendingNode)
	}
	if snap.Interrupt == nil || snap.Interrupt.Instruction != "approve?" {
		t.Errorf("unexpected interrupt: %+v", snap.Interrupt)
	}
	// The pre-suspend half does no work.
	if snap.State.Count != 1 {
		t.Errorf("suspend must not mutate state: Count = %d", snap.State.Count)
	}

	t.Run("done precedes interrupt", func(t *testing.T) {
		events := buf.History("t1")
		doneIdx, intrIdx := -1, -1
		for i, ev := range events {
			switch ev.Type {
			case emit.TypeDone:
				doneIdx = i
			case emit.TypeInterrupt:
				intrIdx = i
			}
		}
		if doneIdx == -1 || intrIdx == -1 {
			t.Fatalf("missing done (%d) or interrupt (%d) event", doneIdx, intrIdx)
		}
		if intrIdx < doneIdx {
			t.Error("interrupt event must follow done event")
		}
	})

	t.Run("checkpoint marks pending node", func(t *testing.T) {
		cp, err := st.Load(context.Background(), "t1")
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cp.PendingNode != "gate" {
			t.Errorf("expected PendingNode = gate, got %q", cp.PendingNode)
		}
		if cp.Interrupt == nil || cp.Interrupt.Instruction != "approve?" {
			t.Errorf("checkpoint should persist the interrupt: %+v", cp.Interrupt)
		}
	})

	t.Run("state query survives a restart", func(t *testing.T) {
		// A fresh engine over the same store stands in for a restarted
		// process: the pending instruction must come from the checkpoint.
		restarted := newTestEngine(t, st, emit.NewNullEmitter(), NewOptions())
		mustAdd(t, restarted, "prep", appendNode("p", Next{}))
		mustAdd(t, restarted, "gate", &gateNode{instruction: "approve?"})
		if err := restarted.StartAt("prep"); err != nil {
			t.Fatalf("StartAt: %v", err)
		}

		snap, err := restarted.State(context.Background(), "t1")
		if err != nil {
			t.Fatalf("State: %v", err)
		}
		if !snap.Suspended() {
			t.Fatal("expected suspended snapshot")
		}
		if snap.Interrupt == nil || snap.Interrupt.Instruction != "approve?" {
			t.Fatalf("expected persisted interrupt, got %+v", snap.Interrupt)
		}
		if snap.Interrupt.Payload["value"] != "p" {
			t.Errorf("interrupt payload did not round-trip: %+v", snap.Interrupt.Payload)
		}
	})

	t.Run("resume delivers input and completes", func(t *testing.T) {
		snap, err := e.Resume(context.Background(), "t1", "yes")
		if err != nil {
			t.Fatalf("Resume: %v", err)
		}
		if snap.Suspended() {
			t.Fatal("resumed thread should have completed")
		}
		if snap.State.Value != "p|yes" {
			t.Errorf("expected Value = %q, got %q", "p|yes", snap.State.Value)
		}
		cp, err := st.Load(context.Background(), "t1")
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cp.PendingNode != "" {
			t.Errorf("pending node should be cleared, got %q", cp.PendingNode)
		}
	})
}

func TestEngineResumeErrors(t *testing.T) {
	st := store.NewMemStore[testState]()
	e := newTestEngine(t, st, emit.NewNullEmitter(), NewOptions())
	mustAdd(t, e, "only", appendNode("a", Stop()))
	if err := e.StartAt("only"); err != nil {
		t.Fatalf("StartAt: %v", err)
	}

	t.Run("unknown thread", func(t *testing.T) {
		_, err := e.Resume(context.Background(), "missing", "hi")
		if !errors.Is(err, ErrThreadNotFound) {
			t.Errorf("expected ErrThreadNotFound, got %v", err)
		}
	})

	t.Run("thread not suspended", func(t *testing.T) {
		if _, err := e.Run(context.Background(), "t1", testState{}); err != nil {
			t.Fatalf("Run: %v", err)
		}
		_, err := e.Resume(context.Background(), "t1", "hi")
		if !errors.Is(err, ErrNotSuspended) {
			t.Errorf("expected ErrNotSuspended, got %v", err)
		}
	})

	t.Run("pending node not resumable", func(t *testing.T) {
		// Forge a checkpoint pointing at a plain node.
		cp := store.Checkpoint[testState]{
			ThreadID:    "t2",
			Step:        1,
			NodeID:      "only",
			PendingNode: "only",
		}
		if err := st.Save(context.Background(), cp); err != nil {
			t.Fatalf("Save: %v", err)
		}
		_, err := e.Resume(context.Background(), "t2", "hi")
		if !errors.Is(err, ErrNotResumable) {
			t.Errorf("expected ErrNotResumable, got %v", err)
		}
	})
}

func TestEngineRunRestartsSuspendedThread(t *testing.T) {
	st := store.NewMemStore[testState]()
	e := newTestEngine(t, st, emit.NewNullEmitter(), NewOptions())

	mustAdd(t, e, "prep", appendNode("p", Next{}))
	mustAdd(t, e, "gate", &gateNode{instruction: "confirm"})
	if err := e.StartAt("prep"); err != nil {
		t.Fatalf("StartAt: %v", err)
	}
	if err := e.Connect("prep", "gate", nil); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	snap, err := e.Run(context.Background(), "t1", testState{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !snap.Suspended() {
		t.Fatal("expected suspension")
	}

	// A fresh Run on the suspended thread discards the pending
	// suspension and restarts from the entry node.
	snap, err = e.Run(context.Background(), "t1", testState{})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if !snap.Suspended() {
		t.Fatal("expected new suspension at gate")
	}
	if !strings.HasPrefix(snap.State.Value, "pp") {
		t.Errorf("expected prep to run again, Value = %q", snap.State.Value)
	}
}

func TestEngineExplicitRoutePrecedence(t *testing.T) {
	st := store.NewMemStore[testState]()
	e := newTestEngine(t, st, emit.NewNullEmitter(), NewOptions())

	mustAdd(t, e, "router", appendNode("r", Goto("target")))
	mustAdd(t, e, "target", appendNode("t", Stop()))
	mustAdd(t, e, "decoy", appendNode("d", Stop()))
	if err := e.StartAt("router"); err != nil {
		t.Fatalf("StartAt: %v", err)
	}
	// Edge says decoy, explicit route says target. Explicit route wins.
	if err := e.Connect("router", "decoy", nil); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	snap, err := e.Run(context.Background(), "t1", testState{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if snap.State.Value != "rt" {
		t.Errorf("expected Value = %q, got %q", "rt", snap.State.Value)
	}
}

func TestEngineEdgeRouting(t *testing.T) {
	build := func(t *testing.T) (*Engine[testState], *store.MemStore[testState]) {
		st := store.NewMemStore[testState]()
		e := newTestEngine(t, st, emit.NewNullEmitter(), NewOptions())
		mustAdd(t, e, "router", appendNode("r", Next{}))
		mustAdd(t, e, "high", appendNode("H", Stop()))
		mustAdd(t, e, "low", appendNode("L", Stop()))
		if err := e.StartAt("router"); err != nil {
			t.Fatalf("StartAt: %v", err)
		}
		return e, st
	}

	t.Run("first matching edge wins", func(t *testing.T) {
		e, _ := build(t)
		if err := e.Connect("router", "high", func(s testState) bool { return s.Count >= 5 }); err != nil {
			t.Fatalf("Connect: %v", err)
		}
		if err := e.Connect("router", "low", nil); err != nil {
			t.Fatalf("Connect: %v", err)
		}

		snap, err := e.Run(context.Background(), "t1", testState{Count: 10})
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if snap.State.Value != "rH" {
			t.Errorf("expected high branch, Value = %q", snap.State.Value)
		}
	})

	t.Run("fallback edge", func(t *testing.T) {
		e, _ := build(t)
		if err := e.Connect("router", "high", func(s testState) bool { return s.Count >= 5 }); err != nil {
			t.Fatalf("Connect: %v", err)
		}
		if err := e.Connect("router", "low", nil); err != nil {
			t.Fatalf("Connect: %v", err)
		}

		snap, err := e.Run(context.Background(), "t1", testState{})
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if snap.State.Value != "rL" {
			t.Errorf("expected fallback branch, Value = %q", snap.State.Value)
		}
	})

	t.Run("no matching edge", func(t *testing.T) {
		e, _ := build(t)
		if err := e.Connect("router", "high", func(s testState) bool { return false }); err != nil {
			t.Fatalf("Connect: %v", err)
		}

		_, err := e.Run(context.Background(), "t1", testState{})
		if err == nil {
			t.Fatal("expected NO_ROUTE error")
		}
		var ee *EngineError
		if !errors.As(err, &ee) || ee.Code != "NO_ROUTE" {
			t.Errorf("expected EngineError NO_ROUTE, got %v", err)
		}
	})
}

func TestEngineMaxSteps(t *testing.T) {
	st := store.NewMemStore[testState]()
	e := newTestEngine(t, st, emit.NewNullEmitter(), NewOptions(WithMaxSteps(5)))

	mustAdd(t, e, "loop", appendNode("x", Goto("loop")))
	if err := e.StartAt("loop"); err != nil {
		t.Fatalf("StartAt: %v", err)
	}

	_, err := e.Run(context.Background(), "t1", testState{})
	if !errors.Is(err, ErrMaxStepsExceeded) {
		t.Fatalf("expected ErrMaxStepsExceeded, got %v", err)
	}
}

func TestEngineNodeError(t *testing.T) {
	st := store.NewMemStore[testState]()
	buf := emit.NewBufferedEmitter()
	e := newTestEngine(t, st, buf, NewOptions())

	boom := errors.New("model unavailable")
	mustAdd(t, e, "ok", appendNode("a", Next{}))
	mustAdd(t, e, "fail", NodeFunc[testState](func(ctx context.Context, s testState) NodeResult[testState] {
		return NodeResult[testState]{Err: boom}
	}))
	if err := e.StartAt("ok"); err != nil {
		t.Fatalf("StartAt: %v", err)
	}
	if err := e.Connect("ok", "fail", nil); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	_, err := e.Run(context.Background(), "t1", testState{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected node error, got %v", err)
	}

	// The failing node must not advance the checkpoint.
	cp, loadErr := st.Load(context.Background(), "t1")
	if loadErr != nil {
		t.Fatalf("Load: %v", loadErr)
	}
	if cp.Step != 1 || cp.NodeID != "ok" {
		t.Errorf("checkpoint advanced past failure: step=%d node=%s", cp.Step, cp.NodeID)
	}

	errs := buf.HistoryByType("t1", emit.TypeError)
	if len(errs) != 1 {
		t.Fatalf("expected one error event, got %d", len(errs))
	}
	if !strings.Contains(errs[0].Msg, "model unavailable") {
		t.Errorf("error event missing cause: %q", errs[0].Msg)
	}
	if len(buf.HistoryByType("t1", emit.TypeDone)) != 0 {
		t.Error("failed run must not emit done")
	}
}

// corruptStore wraps MemStore and reports corruption for one thread.
type corruptStore struct {
	*store.MemStore[testState]
	corruptThread string
}

func (c *corruptStore) Load(ctx context.Context, threadID string) (store.Checkpoint[testState], error) {
	if threadID == c.corruptThread {
		return store.Checkpoint[testState]{}, fmt.Errorf("%w: thread %s: invalid JSON", store.ErrCorrupt, threadID)
	}
	return c.MemStore.Load(ctx, threadID)
}

func TestEngineCorruptCheckpointStartsFresh(t *testing.T) {
	st := &corruptStore{MemStore: store.NewMemStore[testState](), corruptThread: "t1"}
	buf := emit.NewBufferedEmitter()
	e := newTestEngine(t, st, buf, NewOptions())

	mustAdd(t, e, "only", appendNode("a", Stop()))
	if err := e.StartAt("only"); err != nil {
		t.Fatalf("StartAt: %v", err)
	}

	snap, err := e.Run(context.Background(), "t1", testState{Value: "fresh-"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if snap.State.Value != "fresh-a" {
		t.Errorf("expected fresh state, Value = %q", snap.State.Value)
	}

	warnings := buf.HistoryByType("t1", emit.TypeWarning)
	if len(warnings) != 1 {
		t.Fatalf("expected one warning event, got %d", len(warnings))
	}
	if !strings.Contains(warnings[0].Msg, "starting fresh") {
		t.Errorf("unexpected warning: %q", warnings[0].Msg)
	}
}

func TestEngineStateIsolation(t *testing.T) {
	st := store.NewMemStore[testState]()
	e := newTestEngine(t, st, emit.NewNullEmitter(), NewOptions())

	// A node that mutates the state it received in place. The mutation
	// must not leak into the merged state behind the reducer.
	mustAdd(t, e, "mutator", NodeFunc[testState](func(ctx context.Context, s testState) NodeResult[testState] {
		s.Tags["stolen"] = "yes"
		return NodeResult[testState]{Route: Stop()}
	}))
	if err := e.StartAt("mutator"); err != nil {
		t.Fatalf("StartAt: %v", err)
	}

	snap, err := e.Run(context.Background(), "t1", testState{Tags: map[string]string{"seed": "ok"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, ok := snap.State.Tags["stolen"]; ok {
		t.Error("in-place mutation leaked into merged state")
	}
}

func TestEngineStatePersistsAcrossInvocations(t *testing.T) {
	st := store.NewMemStore[testState]()
	e := newTestEngine(t, st, emit.NewNullEmitter(), NewOptions())

	mustAdd(t, e, "only", appendNode("a", Stop()))
	if err := e.StartAt("only"); err != nil {
		t.Fatalf("StartAt: %v", err)
	}

	if _, err := e.Run(context.Background(), "t1", testState{Count: 1}); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	snap, err := e.Run(context.Background(), "t1", testState{Count: 1})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}

	// 2 node executions + 2 merged initial deltas.
	if snap.State.Count != 4 {
		t.Errorf("expected Count = 4, got %d", snap.State.Count)
	}
	if snap.Step != 2 {
		t.Errorf("step counter should continue across invocations, got %d", snap.Step)
	}
}

func TestEngineConstructionErrors(t *testing.T) {
	t.Run("duplicate node", func(t *testing.T) {
		e := newTestEngine(t, store.NewMemStore[testState](), nil, NewOptions())
		mustAdd(t, e, "n", appendNode("a", Stop()))
		err := e.Add("n", appendNode("b", Stop()))
		var ee *EngineError
		if !errors.As(err, &ee) || ee.Code != "DUPLICATE_NODE" {
			t.Errorf("expected DUPLICATE_NODE, got %v", err)
		}
	})

	t.Run("start at unknown node", func(t *testing.T) {
		e := newTestEngine(t, store.NewMemStore[testState](), nil, NewOptions())
		err := e.StartAt("ghost")
		var ee *EngineError
		if !errors.As(err, &ee) || ee.Code != "NODE_NOT_FOUND" {
			t.Errorf("expected NODE_NOT_FOUND, got %v", err)
		}
	})

	t.Run("run without start node", func(t *testing.T) {
		e := newTestEngine(t, store.NewMemStore[testState](), nil, NewOptions())
		mustAdd(t, e, "n", appendNode("a", Stop()))
		_, err := e.Run(context.Background(), "t1", testState{})
		var ee *EngineError
		if !errors.As(err, &ee) || ee.Code != "NO_START_NODE" {
			t.Errorf("expected NO_START_NODE, got %v", err)
		}
	})

	t.Run("run without reducer", func(t *testing.T) {
		e := New[testState](nil, store.NewMemStore[testState](), nil, NewOptions())
		_, err := e.Run(context.Background(), "t1", testState{})
		var ee *EngineError
		if !errors.As(err, &ee) || ee.Code != "MISSING_REDUCER" {
			t.Errorf("expected MISSING_REDUCER, got %v", err)
		}
	})
}

func TestEngineRejectionEmitsErrorEvent(t *testing.T) {
	t.Run("run on a misconfigured engine", func(t *testing.T) {
		buf := emit.NewBufferedEmitter()
		e := newTestEngine(t, store.NewMemStore[testState](), buf, NewOptions())
		mustAdd(t, e, "n", appendNode("a", Stop()))

		if _, err := e.Run(context.Background(), "t1", testState{}); err == nil {
			t.Fatal("expected validation error")
		}
		// A subscriber watching the stream must see the failure, not a
		// silently closed channel.
		if got := len(buf.HistoryByType("t1", emit.TypeError)); got != 1 {
			t.Errorf("error events = %d, want 1", got)
		}
	})

	t.Run("resume of unknown thread", func(t *testing.T) {
		buf := emit.NewBufferedEmitter()
		e := newTestEngine(t, store.NewMemStore[testState](), buf, NewOptions())
		mustAdd(t, e, "n", appendNode("a", Stop()))
		if err := e.StartAt("n"); err != nil {
			t.Fatalf("StartAt: %v", err)
		}

		if _, err := e.Resume(context.Background(), "ghost", "hi"); !errors.Is(err, ErrThreadNotFound) {
			t.Fatalf("expected ErrThreadNotFound, got %v", err)
		}
		if got := len(buf.HistoryByType("ghost", emit.TypeError)); got != 1 {
			t.Errorf("error events = %d, want 1", got)
		}
	})

	t.Run("resume of completed thread", func(t *testing.T) {
		buf := emit.NewBufferedEmitter()
		e := newTestEngine(t, store.NewMemStore[testState](), buf, NewOptions())
		mustAdd(t, e, "n", appendNode("a", Stop()))
		if err := e.StartAt("n"); err != nil {
			t.Fatalf("StartAt: %v", err)
		}
		if _, err := e.Run(context.Background(), "t1", testState{}); err != nil {
			t.Fatalf("Run: %v", err)
		}

		if _, err := e.Resume(context.Background(), "t1", "hi"); !errors.Is(err, ErrNotSuspended) {
			t.Fatalf("expected ErrNotSuspended, got %v", err)
		}
		if got := len(buf.HistoryByType("t1", emit.TypeError)); got != 1 {
			t.Errorf("error events = %d, want 1", got)
		}
	})
}

func TestEngineStateQuery(t *testing.T) {
	st := store.NewMemStore[testState]()
	e := newTestEngine(t, st, emit.NewNullEmitter(), NewOptions())
	mustAdd(t, e, "only", appendNode("a", Stop()))
	if err := e.StartAt("only"); err != nil {
		t.Fatalf("StartAt: %v", err)
	}

	if _, err := e.State(context.Background(), "missing"); !errors.Is(err, ErrThreadNotFound) {
		t.Errorf("expected ErrThreadNotFound, got %v", err)
	}

	if _, err := e.Run(context.Background(), "t1", testState{Value: "v"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	snap, err := e.State(context.Background(), "t1")
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if snap.State.Value != "va" || snap.Step != 1 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
}
