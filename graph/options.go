package graph

// Options configures Engine execution behavior.
//
// Zero values are valid - the Engine will use sensible defaults.
type Options struct {
	// MaxSteps limits the number of steps a single invocation may
	// execute, preventing infinite routing loops. If 0, DefaultMaxSteps
	// is used. The count is per invocation: a resumed thread gets a
	// fresh budget.
	MaxSteps int

	// Metrics, when non-nil, receives Prometheus observations for
	// steps, latencies, interrupts, resumes, and failures.
	Metrics *PrometheusMetrics
}

// DefaultMaxSteps is the per-invocation step bound used when
// Options.MaxSteps is zero. The workflow graph is shallow (a dozen
// nodes plus a bounded revision loop), so 50 leaves generous headroom
// while still catching routing bugs quickly.
const DefaultMaxSteps = 50

// Option applies a configuration change to Options.
type Option func(*Options)

// WithMaxSteps sets the per-invocation step bound.
func WithMaxSteps(n int) Option {
	return func(o *Options) {
		o.MaxSteps = n
	}
}

// WithMetrics attaches a Prometheus metrics collector to the engine.
func WithMetrics(m *PrometheusMetrics) Option {
	return func(o *Options) {
		o.Metrics = m
	}
}

// NewOptions builds an Options value from functional options.
//
// Example:
//
//	opts := graph.NewOptions(
//	    graph.WithMaxSteps(100),
//	    graph.WithMetrics(metrics),
//	)
//	engine := graph.New(reducer, store, emitter, opts)
func NewOptions(opts ...Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// maxSteps resolves the effective per-invocation bound.
func (o Options) maxSteps() int {
	if o.MaxSteps > 0 {
		return o.MaxSteps
	}
	return DefaultMaxSteps
}
