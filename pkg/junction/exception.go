package junction

import (
	"context"
	"log/slog"

	"github.com/randalmurphal/junction/pkg/junction/observability"
)

// Decision is an ExceptionPolicy's verdict on a delivery fault.
type Decision int

const (
	// Continue skips the offending event and resumes at the next sequence.
	Continue Decision = iota

	// Abort halts the pipeline and reports a fatal error to the application.
	Abort
)

// String returns the decision name.
func (d Decision) String() string {
	switch d {
	case Continue:
		return "continue"
	case Abort:
		return "abort"
	default:
		return "unknown"
	}
}

// ExceptionPolicy decides what a ring pipeline does when a receiver fails.
// HandleFault is called from the failing stage's goroutine and must not call
// StopProcessing on the same junction.
type ExceptionPolicy interface {
	HandleFault(ctx context.Context, fault *DeliveryFault) Decision
}

// PolicyFunc adapts a function to ExceptionPolicy.
type PolicyFunc func(ctx context.Context, fault *DeliveryFault) Decision

// HandleFault calls f.
func (f PolicyFunc) HandleFault(ctx context.Context, fault *DeliveryFault) Decision {
	return f(ctx, fault)
}

// LogAndContinue logs every fault at error level and continues.
// A nil logger uses slog.Default().
func LogAndContinue(logger *slog.Logger) ExceptionPolicy {
	if logger == nil {
		logger = slog.Default()
	}
	return PolicyFunc(func(_ context.Context, fault *DeliveryFault) Decision {
		observability.LogFault(logger, fault.StreamID, fault.Sequence, fault.Err)
		return Continue
	})
}

// AbortOnFault aborts the pipeline on the first fault.
func AbortOnFault() ExceptionPolicy {
	return PolicyFunc(func(context.Context, *DeliveryFault) Decision {
		return Abort
	})
}
