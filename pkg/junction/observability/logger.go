// Package observability provides logging, metrics and tracing for junctions.
//
// Features:
//   - Structured logging via slog (Go stdlib), including a trace level
//   - Throughput and fault metrics via OpenTelemetry
//   - Lifecycle spans via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"context"
	"log/slog"
	"time"
)

// LevelTrace sits below slog.LevelDebug and is used for per-event logging.
const LevelTrace = slog.Level(-8)

// EnrichLogger adds junction context to a logger.
func EnrichLogger(logger *slog.Logger, app, streamID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("app", app),
		slog.String("stream_id", streamID),
	)
}

// TraceEnabled reports whether the logger emits trace-level records.
func TraceEnabled(logger *slog.Logger) bool {
	if logger == nil {
		return false
	}
	return logger.Enabled(context.Background(), LevelTrace)
}

// LogSend logs an event accepted by a junction at trace level.
func LogSend(logger *slog.Logger, streamID, form string, count int) {
	if logger == nil {
		return
	}
	logger.Log(context.Background(), LevelTrace, "event received by junction",
		slog.String("stream_id", streamID),
		slog.String("form", form),
		slog.Int("count", count),
	)
}

// LogStart logs a junction entering processing.
func LogStart(logger *slog.Logger, streamID string, async bool, bufferSize, stages int) {
	if logger == nil {
		return
	}
	logger.Debug("junction processing started",
		slog.String("stream_id", streamID),
		slog.Bool("async", async),
		slog.Int("buffer_size", bufferSize),
		slog.Int("stages", stages),
	)
}

// LogStop logs a junction leaving processing.
func LogStop(logger *slog.Logger, streamID string, async bool, drain time.Duration) {
	if logger == nil {
		return
	}
	logger.Debug("junction processing stopped",
		slog.String("stream_id", streamID),
		slog.Bool("async", async),
		slog.Float64("drain_ms", float64(drain.Microseconds())/1000),
	)
}

// LogFault logs a receiver failure during asynchronous delivery.
func LogFault(logger *slog.Logger, streamID string, sequence int64, err error) {
	if logger == nil {
		return
	}
	logger.Error("event delivery failed",
		slog.String("stream_id", streamID),
		slog.Int64("sequence", sequence),
		slog.String("error", err.Error()),
	)
}

// LogAbort logs a pipeline halted by its exception policy.
func LogAbort(logger *slog.Logger, streamID string, sequence int64, err error) {
	if logger == nil {
		return
	}
	logger.Error("event pipeline aborted",
		slog.String("stream_id", streamID),
		slog.Int64("sequence", sequence),
		slog.String("error", err.Error()),
	)
}

// LogStabilize logs a stateful receiver resetting its automaton at a batch boundary.
func LogStabilize(logger *slog.Logger, streamID string, batchSize int) {
	if logger == nil {
		return
	}
	logger.Log(context.Background(), LevelTrace, "receiver state stabilized",
		slog.String("stream_id", streamID),
		slog.Int("batch_size", batchSize),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time.
func TimedOperation() func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}
