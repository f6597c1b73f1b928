package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// setupMetricsTest installs a manual-reader meter provider for the test.
func setupMetricsTest(t *testing.T) *sdkmetric.ManualReader {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	original := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)

	t.Cleanup(func() {
		otel.SetMeterProvider(original)
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down meter provider: %v", err)
		}
	})
	return reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) *metricdata.ResourceMetrics {
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return &rm
}

func findMetric(rm *metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// sumFor returns the counter value recorded for the given stream.
func sumFor(t *testing.T, m *metricdata.Metrics, streamID string) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "Expected Sum type")

	var total int64
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value("stream_id"); ok && v.AsString() == streamID {
			total += dp.Value
		}
	}
	return total
}

func TestNewMetricsRecorder(t *testing.T) {
	setupMetricsTest(t)

	recorder := NewMetricsRecorder()
	require.NotNil(t, recorder)
	_, isNoop := recorder.(NoopMetrics)
	assert.False(t, isNoop, "Expected real metrics recorder, got noop")
}

func TestRecordEventsIn(t *testing.T) {
	reader := setupMetricsTest(t)
	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordEventsIn(ctx, "app", "StockStream", 3)
	m.RecordEventsIn(ctx, "app", "StockStream", 2)
	m.RecordEventsIn(ctx, "app", "Other", 1)

	metric := findMetric(collectMetrics(t, reader), "junction.stream.events_in")
	require.NotNil(t, metric)
	assert.Equal(t, int64(5), sumFor(t, metric, "StockStream"))
	assert.Equal(t, int64(1), sumFor(t, metric, "Other"))
}

func TestRecordFaultAndDrain(t *testing.T) {
	reader := setupMetricsTest(t)
	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordFault(ctx, "app", "S", false)
	m.RecordFault(ctx, "app", "S", true)
	m.RecordDrain(ctx, "app", "S", 3*time.Millisecond)

	rm := collectMetrics(t, reader)

	faults := findMetric(rm, "junction.stream.faults")
	require.NotNil(t, faults)
	assert.Equal(t, int64(2), sumFor(t, faults, "S"))

	drain := findMetric(rm, "junction.stream.drain_ms")
	require.NotNil(t, drain)
	hist, ok := drain.Data.(metricdata.Histogram[float64])
	require.True(t, ok, "Expected Histogram type")
	require.NotEmpty(t, hist.DataPoints)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
}

func TestStreamTracker(t *testing.T) {
	reader := setupMetricsTest(t)
	m, err := newOtelMetrics()
	require.NoError(t, err)

	tracker := NewStreamTracker(m, "app", "Trades")
	tracker.EventIn()
	tracker.EventsIn(4)
	tracker.EventsIn(0)

	metric := findMetric(collectMetrics(t, reader), "junction.stream.events_in")
	require.NotNil(t, metric)
	assert.Equal(t, int64(5), sumFor(t, metric, "Trades"))
	assert.Equal(t, "Trades", tracker.StreamID())
}

func TestStreamTrackerNilRecorder(t *testing.T) {
	tracker := NewStreamTracker(nil, "app", "S")
	assert.NotPanics(t, func() {
		tracker.EventIn()
		tracker.EventsIn(10)
	})
}
