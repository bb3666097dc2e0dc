package graph

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusMetrics(t *testing.T) {
	t.Run("records steps and counters", func(t *testing.T) {
		registry := prometheus.NewRegistry()
		pm := NewPrometheusMetrics(registry)

		pm.RecordStep("t1", "writer", 120*time.Millisecond, "success")
		pm.RecordStep("t1", "writer", 80*time.Millisecond, "success")
		pm.RecordStep("t1", "editor", 5*time.Millisecond, "error")
		pm.IncrementInterrupts("t1", "directorConfirm")
		pm.IncrementResumes("t1", "directorConfirm")
		pm.IncrementFailures("t1", "editor")

		if got := testutil.ToFloat64(pm.steps.WithLabelValues("t1", "writer")); got != 2 {
			t.Errorf("steps_total{writer} = %v, want 2", got)
		}
		if got := testutil.ToFloat64(pm.interrupts.WithLabelValues("t1", "directorConfirm")); got != 1 {
			t.Errorf("interrupts_total = %v, want 1", got)
		}
		if got := testutil.ToFloat64(pm.resumes.WithLabelValues("t1", "directorConfirm")); got != 1 {
			t.Errorf("resumes_total = %v, want 1", got)
		}
		if got := testutil.ToFloat64(pm.nodeFailures.WithLabelValues("t1", "editor")); got != 1 {
			t.Errorf("node_failures_total = %v, want 1", got)
		}

		count := testutil.CollectAndCount(pm.stepLatency)
		if count != 3 {
			t.Errorf("expected 3 latency series, got %d", count)
		}
	})

	t.Run("disable suppresses recording", func(t *testing.T) {
		registry := prometheus.NewRegistry()
		pm := NewPrometheusMetrics(registry)

		pm.Disable()
		pm.RecordStep("t1", "writer", time.Millisecond, "success")
		pm.IncrementInterrupts("t1", "gate")

		if got := testutil.CollectAndCount(pm.steps); got != 0 {
			t.Errorf("expected no step series while disabled, got %d", got)
		}

		pm.Enable()
		pm.RecordStep("t1", "writer", time.Millisecond, "success")
		if got := testutil.ToFloat64(pm.steps.WithLabelValues("t1", "writer")); got != 1 {
			t.Errorf("steps_total = %v after re-enable, want 1", got)
		}
	})

	t.Run("construction with isolated registry", func(t *testing.T) {
		registry := prometheus.NewRegistry()
		if pm := NewPrometheusMetrics(registry); pm == nil {
			t.Fatal("NewPrometheusMetrics returned nil")
		}
	})
}
