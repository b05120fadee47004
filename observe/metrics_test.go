package observe

import (
	"context"
	"sync"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T, namespace string) (*metricsImpl, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := newMetrics(mp.Meter("test"), namespace)
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	return rm
}

// TestMetrics_CounterByStatus verifies counts are split by status.
func TestMetrics_CounterByStatus(t *testing.T) {
	m, reader := newTestMetrics(t, "")
	ctx := context.Background()

	m.IncrementCounter(ctx, "ocr", "screenshot", StatusSuccess)
	m.IncrementCounter(ctx, "ocr", "screenshot", StatusSuccess)
	m.IncrementCounter(ctx, "ocr", "screenshot", StatusError)

	found := findMetric(collect(t, reader), "omni_actions")
	if found == nil {
		t.Fatal("omni_actions metric not found")
	}
	sum, ok := found.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64], got %T", found.Data)
	}

	counts := map[string]int64{}
	for _, dp := range sum.DataPoints {
		status, _ := dp.Attributes.Value("status")
		component, _ := dp.Attributes.Value("component")
		action, _ := dp.Attributes.Value("action")
		if component.AsString() != "ocr" || action.AsString() != "screenshot" {
			t.Errorf("unexpected labels: %v", dp.Attributes)
		}
		counts[status.AsString()] = dp.Value
	}
	if counts[StatusSuccess] != 2 || counts[StatusError] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
}

// TestMetrics_LatencyHistogram verifies seconds land in the configured buckets.
func TestMetrics_LatencyHistogram(t *testing.T) {
	m, reader := newTestMetrics(t, "")
	m.ObserveLatency(context.Background(), "ocr", "screenshot", 0.3)

	found := findMetric(collect(t, reader), "omni_latency")
	if found == nil {
		t.Fatal("omni_latency metric not found")
	}
	if found.Unit != "s" {
		t.Errorf("expected unit s, got %q", found.Unit)
	}
	hist, ok := found.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("expected Histogram[float64], got %T", found.Data)
	}
	if len(hist.DataPoints) != 1 {
		t.Fatalf("expected 1 data point, got %d", len(hist.DataPoints))
	}
	dp := hist.DataPoints[0]
	if dp.Count != 1 || dp.Sum != 0.3 {
		t.Errorf("unexpected count/sum: %d/%f", dp.Count, dp.Sum)
	}
	if len(dp.Bounds) != len(LatencyBuckets) {
		t.Fatalf("expected %d bounds, got %d", len(LatencyBuckets), len(dp.Bounds))
	}
	for i, b := range LatencyBuckets {
		if dp.Bounds[i] != b {
			t.Errorf("bound %d: expected %v, got %v", i, b, dp.Bounds[i])
		}
	}
	if _, ok := dp.Attributes.Value("status"); ok {
		t.Error("latency must not carry a status label")
	}
}

// TestMetrics_Namespace verifies the instrument prefix is configurable.
func TestMetrics_Namespace(t *testing.T) {
	m, reader := newTestMetrics(t, "agent")
	m.IncrementCounter(context.Background(), "c", "a", StatusSuccess)

	if findMetric(collect(t, reader), "agent_actions") == nil {
		t.Error("agent_actions metric not found")
	}
}

// TestMetrics_ConcurrentRecording verifies thread safety.
func TestMetrics_ConcurrentRecording(t *testing.T) {
	m, reader := newTestMetrics(t, "")
	const numGoroutines = 100

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			m.IncrementCounter(context.Background(), "c", "a", StatusSuccess)
			m.ObserveLatency(context.Background(), "c", "a", 0.001)
		}()
	}
	wg.Wait()

	found := findMetric(collect(t, reader), "omni_actions")
	if found == nil {
		t.Fatal("omni_actions metric not found")
	}
	sum := found.Data.(metricdata.Sum[int64])
	if len(sum.DataPoints) == 0 || sum.DataPoints[0].Value != numGoroutines {
		t.Errorf("expected count %d, got %v", numGoroutines, sum.DataPoints)
	}
}
