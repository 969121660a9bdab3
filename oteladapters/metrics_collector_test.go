package oteladapters_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/librisys/loanservice/oteladapters"
	"github.com/librisys/loanservice/shell"
)

func newCollectorForTest() (*oteladapters.MetricsCollector, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("test")

	return oteladapters.NewMetricsCollector(meter), reader
}

func Test_NewMetricsCollector_Construction(t *testing.T) {
	collector, _ := newCollectorForTest()
	assert.NotNil(t, collector, "NewMetricsCollector should return non-nil collector")
}

func Test_MetricsCollector_RecordDuration(t *testing.T) {
	// setup
	collector, reader := newCollectorForTest()
	labels := map[string]string{
		"operation": "sweep",
		"status":    "success",
	}

	// act
	collector.RecordDuration(shell.ExpirySweepDurationMetric, 150*time.Millisecond, labels)

	// assert
	var resourceMetrics metricdata.ResourceMetrics
	err := reader.Collect(context.Background(), &resourceMetrics)
	require.NoError(t, err, "Failed to collect metrics")

	histogram := findHistogramMetric(t, resourceMetrics, shell.ExpirySweepDurationMetric)
	require.Len(t, histogram.DataPoints, 1, "Expected exactly one data point")

	dataPoint := histogram.DataPoints[0]
	assert.Equal(t, uint64(1), dataPoint.Count, "Histogram count should be 1")
	assert.InDelta(t, 0.15, dataPoint.Sum, 0.001, "Histogram sum should be 0.15 seconds")

	expectedAttrs := attribute.NewSet(
		attribute.String("operation", "sweep"),
		attribute.String("status", "success"),
	)
	assert.True(t, dataPoint.Attributes.Equals(&expectedAttrs), "Attributes should match")
}

func Test_MetricsCollector_IncrementCounter(t *testing.T) {
	// setup
	collector, reader := newCollectorForTest()
	labels := map[string]string{
		"event_type": "BookAvailable",
		"handler":    "bookavailable.Handler",
	}

	// act
	collector.IncrementCounter(shell.DispatchFailuresMetric, labels)
	collector.IncrementCounter(shell.DispatchFailuresMetric, labels)
	collector.IncrementCounter(shell.DispatchFailuresMetric, labels)

	// assert
	var resourceMetrics metricdata.ResourceMetrics
	err := reader.Collect(context.Background(), &resourceMetrics)
	require.NoError(t, err, "Failed to collect metrics")

	counter := findCounterMetric(t, resourceMetrics, shell.DispatchFailuresMetric)
	require.Len(t, counter.DataPoints, 1, "Expected exactly one data point")

	dataPoint := counter.DataPoints[0]
	assert.Equal(t, int64(3), dataPoint.Value, "Counter should have been incremented 3 times")

	expectedAttrs := attribute.NewSet(
		attribute.String("event_type", "BookAvailable"),
		attribute.String("handler", "bookavailable.Handler"),
	)
	assert.True(t, dataPoint.Attributes.Equals(&expectedAttrs), "Attributes should match")
}

func Test_MetricsCollector_RecordValue(t *testing.T) {
	// setup
	collector, reader := newCollectorForTest()

	// act
	collector.RecordValue(shell.ExpiryReservationsReconciledMetric, 7, nil)

	// assert
	var resourceMetrics metricdata.ResourceMetrics
	err := reader.Collect(context.Background(), &resourceMetrics)
	require.NoError(t, err, "Failed to collect metrics")

	gauge := findGaugeMetric(t, resourceMetrics, shell.ExpiryReservationsReconciledMetric)
	require.Len(t, gauge.DataPoints, 1, "Expected exactly one data point")
	assert.Equal(t, 7.0, gauge.DataPoints[0].Value, "Gauge value should be 7")
}

func Test_MetricsCollector_InstrumentsAreReused(t *testing.T) {
	// setup
	collector, reader := newCollectorForTest()

	// act: same metric name twice must reuse the instrument
	collector.RecordDuration("loanservice_test_duration_seconds", 50*time.Millisecond, nil)
	collector.RecordDuration("loanservice_test_duration_seconds", 100*time.Millisecond, nil)

	// assert
	var resourceMetrics metricdata.ResourceMetrics
	err := reader.Collect(context.Background(), &resourceMetrics)
	require.NoError(t, err, "Failed to collect metrics")

	histogram := findHistogramMetric(t, resourceMetrics, "loanservice_test_duration_seconds")
	require.Len(t, histogram.DataPoints, 1, "Expected a single aggregated data point")
	assert.Equal(t, uint64(2), histogram.DataPoints[0].Count, "Both recordings should land on one instrument")
}

func Test_MetricsCollector_EmptyLabels(t *testing.T) {
	// setup
	collector, reader := newCollectorForTest()

	// act
	collector.RecordDuration("loanservice_test_metric", 50*time.Millisecond, map[string]string{})
	collector.IncrementCounter("loanservice_test_counter", nil)

	// assert: metrics recorded even without attributes
	var resourceMetrics metricdata.ResourceMetrics
	err := reader.Collect(context.Background(), &resourceMetrics)
	require.NoError(t, err, "Failed to collect metrics")

	names := collectedMetricNames(resourceMetrics)
	assert.True(t, names["loanservice_test_metric"], "Duration metric should be recorded with empty labels")
	assert.True(t, names["loanservice_test_counter"], "Counter metric should be recorded with nil labels")
}

func collectedMetricNames(resourceMetrics metricdata.ResourceMetrics) map[string]bool {
	names := make(map[string]bool)
	for _, scopeMetrics := range resourceMetrics.ScopeMetrics {
		for _, m := range scopeMetrics.Metrics {
			names[m.Name] = true
		}
	}

	return names
}

func findHistogramMetric(t *testing.T, resourceMetrics metricdata.ResourceMetrics, name string) metricdata.Histogram[float64] {
	t.Helper()

	for _, scopeMetrics := range resourceMetrics.ScopeMetrics {
		for _, m := range scopeMetrics.Metrics {
			if m.Name == name {
				histogram, ok := m.Data.(metricdata.Histogram[float64])
				require.True(t, ok, "Metric %s should be a float64 histogram", name)
				return histogram
			}
		}
	}

	t.Fatalf("Histogram metric %s not found", name)
	return metricdata.Histogram[float64]{}
}

func findCounterMetric(t *testing.T, resourceMetrics metricdata.ResourceMetrics, name string) metricdata.Sum[int64] {
	t.Helper()

	for _, scopeMetrics := range resourceMetrics.ScopeMetrics {
		for _, m := range scopeMetrics.Metrics {
			if m.Name == name {
				sum, ok := m.Data.(metricdata.Sum[int64])
				require.True(t, ok, "Metric %s should be an int64 sum", name)
				return sum
			}
		}
	}

	t.Fatalf("Counter metric %s not found", name)
	return metricdata.Sum[int64]{}
}

func findGaugeMetric(t *testing.T, resourceMetrics metricdata.ResourceMetrics, name string) metricdata.Gauge[float64] {
	t.Helper()

	for _, scopeMetrics := range resourceMetrics.ScopeMetrics {
		for _, m := range scopeMetrics.Metrics {
			if m.Name == name {
				gauge, ok := m.Data.(metricdata.Gauge[float64])
				require.True(t, ok, "Metric %s should be a float64 gauge", name)
				return gauge
			}
		}
	}

	t.Fatalf("Gauge metric %s not found", name)
	return metricdata.Gauge[float64]{}
}
