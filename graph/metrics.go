package graph

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics provides Prometheus-compatible metrics collection for
// workflow execution monitoring in production environments.
//
// Metrics exposed (all namespaced with "novelgraph_"):
//
// 1. step_latency_ms (histogram): Node execution duration in milliseconds.
// Labels: thread_id, node_id, status (success/error).
// Buckets: [1, 5, 10, 50, 100, 500, 1000, 5000, 10000].
// Use: P50/P95/P99 latency analysis per node.
//
// 2. steps_total (counter): Cumulative node executions.
// Labels: thread_id, node_id.
// Use: Track routing distribution and overall throughput.
//
// 3. interrupts_total (counter): Workflow suspensions awaiting human input.
// Labels: thread_id, node_id.
// Use: Track how often confirmation and review gates fire.
//
// 4. resumes_total (counter): Resumed invocations of suspended threads.
// Labels: thread_id, node_id.
// Use: Paired with interrupts_total, shows abandoned suspensions.
//
// 5. node_failures_total (counter): Node executions that returned an error.
// Labels: thread_id, node_id.
// Use: Identify flaky nodes and model-call failure patterns.
//
// Usage:
//
//	registry := prometheus.NewRegistry()
//	metrics := NewPrometheusMetrics(registry)
//	engine := New(reducer, store, emitter, NewOptions(WithMetrics(metrics)))
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
//
// Thread-safe: All methods use mutex protection for the enabled flag;
// the underlying Prometheus collectors are safe for concurrent use.
type PrometheusMetrics struct {
	// Histogram metrics (distribution observations).
	stepLatency *prometheus.HistogramVec

	// Counter metrics (cumulative totals).
	steps        *prometheus.CounterVec
	interrupts   *prometheus.CounterVec
	resumes      *prometheus.CounterVec
	nodeFailures *prometheus.CounterVec

	// Registry holds all registered metrics.
	registry prometheus.Registerer

	// Mutex protects the enabled flag.
	mu sync.RWMutex

	// enabled controls whether metrics are recorded.
	enabled bool
}

// NewPrometheusMetrics creates and registers all workflow execution
// metrics with the provided Prometheus registry.
//
// Parameters:
// - registry: Prometheus registry to register metrics with (nil falls back to prometheus.DefaultRegisterer).
//
// Returns:
// - *PrometheusMetrics: Fully initialized metrics collector.
//
// All metrics are registered with namespace "novelgraph". Histograms use
// buckets optimized for typical node execution times (1ms to 10s); model
// calls dominate the upper buckets.
func NewPrometheusMetrics(registry prometheus.Registerer) *PrometheusMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	pm := &PrometheusMetrics{
		registry: registry,
		enabled:  true,
	}

	pm.stepLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "novelgraph",
		Name:      "step_latency_ms",
		Help:      "Node execution duration in milliseconds (from dispatch to checkpoint)",
		Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000}, // 1ms to 10s
	}, []string{"thread_id", "node_id", "status"}) // status: success, error

	pm.steps = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "novelgraph",
		Name:      "steps_total",
		Help:      "Cumulative count of node executions across all threads",
	}, []string{"thread_id", "node_id"})

	pm.interrupts = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "novelgraph",
		Name:      "interrupts_total",
		Help:      "Workflow suspensions raised while awaiting external input",
	}, []string{"thread_id", "node_id"})

	pm.resumes = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "novelgraph",
		Name:      "resumes_total",
		Help:      "Resumed invocations of previously suspended threads",
	}, []string{"thread_id", "node_id"})

	pm.nodeFailures = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "novelgraph",
		Name:      "node_failures_total",
		Help:      "Node executions that returned an error and halted the invocation",
	}, []string{"thread_id", "node_id"})

	return pm
}

// RecordStep records one node execution: its duration in the latency
// histogram and an increment of the steps counter.
//
// Parameters:
// - threadID: Workflow thread identifier.
// - nodeID: Node that was executed.
// - latency: Execution duration.
// - status: Execution outcome ("success", "error").
func (pm *PrometheusMetrics) RecordStep(threadID, nodeID string, latency time.Duration, status string) {
	if !pm.isEnabled() {
		return
	}

	latencyMs := float64(latency.Milliseconds())
	pm.stepLatency.WithLabelValues(threadID, nodeID, status).Observe(latencyMs)
	pm.steps.WithLabelValues(threadID, nodeID).Inc()
}

// IncrementInterrupts increments the suspension counter for a node.
func (pm *PrometheusMetrics) IncrementInterrupts(threadID, nodeID string) {
	if !pm.isEnabled() {
		return
	}

	pm.interrupts.WithLabelValues(threadID, nodeID).Inc()
}

// IncrementResumes increments the resume counter for a node.
func (pm *PrometheusMetrics) IncrementResumes(threadID, nodeID string) {
	if !pm.isEnabled() {
		return
	}

	pm.resumes.WithLabelValues(threadID, nodeID).Inc()
}

// IncrementFailures increments the failure counter for a node.
func (pm *PrometheusMetrics) IncrementFailures(threadID, nodeID string) {
	if !pm.isEnabled() {
		return
	}

	pm.nodeFailures.WithLabelValues(threadID, nodeID).Inc()
}

// Disable temporarily disables metric recording (useful for testing).
func (pm *PrometheusMetrics) Disable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = false
}

// Enable re-enables metric recording after Disable().
func (pm *PrometheusMetrics) Enable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = true
}

func (pm *PrometheusMetrics) isEnabled() bool {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.enabled
}
