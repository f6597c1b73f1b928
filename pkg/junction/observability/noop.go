package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// NoopMetrics is a MetricsRecorder that does nothing.
type NoopMetrics struct{}

// Compile-time interface check.
var _ MetricsRecorder = NoopMetrics{}

// RecordEventsIn does nothing.
func (NoopMetrics) RecordEventsIn(_ context.Context, _, _ string, _ int64) {}

// RecordFault does nothing.
func (NoopMetrics) RecordFault(_ context.Context, _, _ string, _ bool) {}

// RecordDrain does nothing.
func (NoopMetrics) RecordDrain(_ context.Context, _, _ string, _ time.Duration) {}

// NoopSpanManager is a SpanManager that does nothing.
type NoopSpanManager struct{}

// Compile-time interface check.
var _ SpanManager = NoopSpanManager{}

var noopSpan = noop.Span{}

// StartLifecycleSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartLifecycleSpan(ctx context.Context, _, _ string, _ ...attribute.KeyValue) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// EndSpanWithError does nothing.
func (NoopSpanManager) EndSpanWithError(_ trace.Span, _ error) {}
