package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTracingTest installs an in-memory span exporter for the test.
func setupTracingTest(t *testing.T) *tracetest.InMemoryExporter {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	tracer = otel.Tracer("junction")

	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		if err := tp.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down tracer provider: %v", err)
		}
	})
	return exporter
}

func TestStartLifecycleSpan(t *testing.T) {
	exporter := setupTracingTest(t)
	sm := NewSpanManager()

	_, span := sm.StartLifecycleSpan(context.Background(), "start", "StockStream",
		attribute.Bool("async", true))
	sm.EndSpanWithError(span, nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	s := spans[0]
	assert.Equal(t, "junction.start", s.Name)
	assert.Equal(t, codes.Ok, s.Status.Code)

	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range s.Attributes {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, "StockStream", attrs["stream.id"].AsString())
	assert.True(t, attrs["async"].AsBool())
}

func TestEndSpanWithError(t *testing.T) {
	exporter := setupTracingTest(t)
	sm := NewSpanManager()

	_, span := sm.StartLifecycleSpan(context.Background(), "stop", "S")
	sm.EndSpanWithError(span, errors.New("drain failed"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "drain failed", spans[0].Status.Description)
	require.NotEmpty(t, spans[0].Events)
	assert.Equal(t, "exception", spans[0].Events[0].Name)
}

func TestEndSpanWithErrorNilSpan(t *testing.T) {
	sm := NewSpanManager()
	assert.NotPanics(t, func() {
		sm.EndSpanWithError(nil, errors.New("x"))
	})
}
