package junction

import (
	"log/slog"

	"github.com/randalmurphal/junction/pkg/junction/observability"
)

// junctionConfig holds per-junction overrides of application settings.
type junctionConfig struct {
	bufferSize int
	tracker    ThroughputTracker
	policy     ExceptionPolicy
	logger     *slog.Logger
	metrics    observability.MetricsRecorder
	spans      observability.SpanManager
}

// defaultJunctionConfig returns a configuration that defers to the AppContext
// and disables metrics and tracing.
func defaultJunctionConfig() junctionConfig {
	return junctionConfig{
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
	}
}

// Option configures a junction.
type Option func(*junctionConfig)

// WithBufferSize sets the ring capacity when the stream does not annotate one.
// Non-positive values are ignored. Capacities are rounded up to a power of two.
func WithBufferSize(n int) Option {
	return func(c *junctionConfig) {
		if n > 0 {
			c.bufferSize = n
		}
	}
}

// WithThroughputTracker sets the tracker regardless of AppContext.StatsEnabled.
func WithThroughputTracker(t ThroughputTracker) Option {
	return func(c *junctionConfig) {
		c.tracker = t
	}
}

// WithExceptionPolicy overrides the application exception policy.
func WithExceptionPolicy(p ExceptionPolicy) Option {
	return func(c *junctionConfig) {
		c.policy = p
	}
}

// WithLogger overrides the application logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *junctionConfig) {
		c.logger = logger
	}
}

// WithMetrics enables fault and drain metrics.
//
// Example:
//
//	j, err := junction.New(def, app, junction.WithMetrics(observability.NewMetricsRecorder()))
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(c *junctionConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithSpanManager enables lifecycle spans for StartProcessing and StopProcessing.
func WithSpanManager(s observability.SpanManager) Option {
	return func(c *junctionConfig) {
		if s != nil {
			c.spans = s
		}
	}
}
