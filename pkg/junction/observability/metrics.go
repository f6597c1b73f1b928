package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records junction metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordEventsIn records events accepted by a stream junction.
	RecordEventsIn(ctx context.Context, app, streamID string, count int64)

	// RecordFault records a receiver failure and whether it aborted the pipeline.
	RecordFault(ctx context.Context, app, streamID string, aborted bool)

	// RecordDrain records how long stopping a pipeline took to drain.
	RecordDrain(ctx context.Context, app, streamID string, duration time.Duration)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	eventsIn metric.Int64Counter
	faults   metric.Int64Counter
	drain    metric.Float64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics lazily initializes the shared OTel metrics instance.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("junction")

	eventsIn, err := meter.Int64Counter("junction.stream.events_in",
		metric.WithDescription("Number of events accepted by a stream junction"),
	)
	if err != nil {
		return nil, err
	}

	faults, err := meter.Int64Counter("junction.stream.faults",
		metric.WithDescription("Number of receiver failures during asynchronous delivery"),
	)
	if err != nil {
		return nil, err
	}

	drain, err := meter.Float64Histogram("junction.stream.drain_ms",
		metric.WithDescription("Time spent draining a pipeline on stop"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		eventsIn: eventsIn,
		faults:   faults,
		drain:    drain,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

func streamAttrs(app, streamID string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("app", app),
		attribute.String("stream_id", streamID),
	}
}

// RecordEventsIn records accepted events.
func (m *otelMetrics) RecordEventsIn(ctx context.Context, app, streamID string, count int64) {
	m.eventsIn.Add(ctx, count, metric.WithAttributes(streamAttrs(app, streamID)...))
}

// RecordFault records a delivery failure.
func (m *otelMetrics) RecordFault(ctx context.Context, app, streamID string, aborted bool) {
	attrs := append(streamAttrs(app, streamID), attribute.Bool("aborted", aborted))
	m.faults.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordDrain records the drain duration of a stopped pipeline.
func (m *otelMetrics) RecordDrain(ctx context.Context, app, streamID string, duration time.Duration) {
	m.drain.Record(ctx, float64(duration.Microseconds())/1000, metric.WithAttributes(streamAttrs(app, streamID)...))
}
