package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Action outcomes recorded by IncrementCounter.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// DefaultMetricsNamespace prefixes instrument names.
const DefaultMetricsNamespace = "omni"

// LatencyBuckets are the histogram boundaries in seconds, sub-second to a few
// seconds.
var LatencyBuckets = []float64{0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 0.75, 1, 1.5, 2, 3, 5}

// Metrics records action outcomes and latencies.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// IncrementCounter counts one action with status success or error.
	IncrementCounter(ctx context.Context, component, action, status string)

	// ObserveLatency records the duration of one action in seconds.
	ObserveLatency(ctx context.Context, component, action string, seconds float64)
}

// metricsImpl is the OpenTelemetry implementation of Metrics.
type metricsImpl struct {
	actions metric.Int64Counter
	latency metric.Float64Histogram
}

// newMetrics creates the <ns>_actions counter and <ns>_latency histogram on
// meter. The Prometheus exporter publishes them as <ns>_actions_total and
// <ns>_latency_seconds.
func newMetrics(meter metric.Meter, namespace string) (*metricsImpl, error) {
	if namespace == "" {
		namespace = DefaultMetricsNamespace
	}

	actions, err := meter.Int64Counter(
		namespace+"_actions",
		metric.WithDescription("Total actions processed."),
		metric.WithUnit("{action}"),
	)
	if err != nil {
		return nil, err
	}

	latency, err := meter.Float64Histogram(
		namespace+"_latency",
		metric.WithDescription("Action latency in seconds."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(LatencyBuckets...),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{actions: actions, latency: latency}, nil
}

func (m *metricsImpl) IncrementCounter(ctx context.Context, component, action, status string) {
	m.actions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("component", component),
		attribute.String("action", action),
		attribute.String("status", status),
	))
}

func (m *metricsImpl) ObserveLatency(ctx context.Context, component, action string, seconds float64) {
	m.latency.Record(ctx, seconds, metric.WithAttributes(
		attribute.String("component", component),
		attribute.String("action", action),
	))
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (m *noopMetrics) IncrementCounter(ctx context.Context, component, action, status string) {}

func (m *noopMetrics) ObserveLatency(ctx context.Context, component, action string, seconds float64) {
}
