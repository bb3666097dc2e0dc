package emit

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTestTracer() (*tracetest.InMemoryExporter, *sdktrace.TracerProvider) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	return exporter, tp
}

func TestOTelEmitterCreatesSpanPerEvent(t *testing.T) {
	exporter, tp := newTestTracer()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	emitter := NewOTelEmitter(tp.Tracer("test"))
	emitter.Emit(Event{
		Type:     TypeStep,
		ThreadID: "t-001",
		Step:     2,
		NodeID:   "editor",
	})

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name != "step" {
		t.Errorf("expected span named after event type, got %q", spans[0].Name)
	}

	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range spans[0].Attributes {
		attrs[kv.Key] = kv.Value
	}
	if got := attrs["novelgraph.thread_id"].AsString(); got != "t-001" {
		t.Errorf("expected thread_id attribute t-001, got %q", got)
	}
	if got := attrs["novelgraph.step"].AsInt64(); got != 2 {
		t.Errorf("expected step attribute 2, got %d", got)
	}
	if got := attrs["novelgraph.node_id"].AsString(); got != "editor" {
		t.Errorf("expected node_id attribute editor, got %q", got)
	}
}

func TestOTelEmitterErrorStatus(t *testing.T) {
	exporter, tp := newTestTracer()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	emitter := NewOTelEmitter(tp.Tracer("test"))
	emitter.Emit(Event{
		Type:     TypeError,
		ThreadID: "t-001",
		Msg:      "generation call timed out",
	})

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("expected error status, got %v", spans[0].Status.Code)
	}
	if spans[0].Status.Description != "generation call timed out" {
		t.Errorf("unexpected status description %q", spans[0].Status.Description)
	}
}

func TestOTelEmitterMetaAttributes(t *testing.T) {
	exporter, tp := newTestTracer()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	emitter := NewOTelEmitter(tp.Tracer("test"))
	emitter.Emit(Event{
		Type:     TypeInterrupt,
		ThreadID: "t-001",
		Meta: map[string]interface{}{
			"pending_node": "humanReview",
			"revision":     3,
		},
	})

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range spans[0].Attributes {
		attrs[kv.Key] = kv.Value
	}
	if got := attrs["novelgraph.pending_node"].AsString(); got != "humanReview" {
		t.Errorf("expected pending_node attribute, got %q", got)
	}
	if got := attrs["novelgraph.revision"].AsInt64(); got != 3 {
		t.Errorf("expected revision attribute 3, got %d", got)
	}
}
