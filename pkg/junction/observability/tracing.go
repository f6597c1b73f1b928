package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer uses the global OTel tracer provider.
var tracer = otel.Tracer("junction")

// SpanManager handles lifecycle span creation for junctions.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartLifecycleSpan starts a span for a start or stop transition.
	StartLifecycleSpan(ctx context.Context, op, streamID string, attrs ...attribute.KeyValue) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)
}

type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses the global OTel tracer provider.
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

// StartLifecycleSpan starts a span named "junction.<op>".
func (m *otelSpanManager) StartLifecycleSpan(ctx context.Context, op, streamID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{attribute.String("stream.id", streamID)}, attrs...)
	return tracer.Start(ctx, "junction."+op,
		trace.WithAttributes(all...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
