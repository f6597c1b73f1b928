package faults

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/junction/pkg/junction"
)

// JournalPolicy is a junction.ExceptionPolicy that records every fault in a
// Store before returning the decision of the wrapped policy.
type JournalPolicy struct {
	store  Store
	next   junction.ExceptionPolicy
	logger *slog.Logger
}

// Compile-time interface check.
var _ junction.ExceptionPolicy = (*JournalPolicy)(nil)

// NewJournalPolicy wraps next, which defaults to junction.LogAndContinue.
// A nil logger uses slog.Default().
func NewJournalPolicy(store Store, next junction.ExceptionPolicy, logger *slog.Logger) *JournalPolicy {
	if logger == nil {
		logger = slog.Default()
	}
	if next == nil {
		next = junction.LogAndContinue(logger)
	}
	return &JournalPolicy{store: store, next: next, logger: logger}
}

// HandleFault implements junction.ExceptionPolicy. A failure to journal is
// logged and never changes the decision.
func (p *JournalPolicy) HandleFault(ctx context.Context, fault *junction.DeliveryFault) junction.Decision {
	decision := p.next.HandleFault(ctx, fault)

	rec := Record{
		ID:       uuid.New().String(),
		StreamID: fault.StreamID,
		Receiver: fault.Receiver,
		Sequence: fault.Sequence,
		Aborted:  decision == junction.Abort,
		Time:     time.Now().UTC(),
	}
	if fault.Err != nil {
		rec.Error = fault.Err.Error()
	}
	if fault.Event != nil {
		rec.EventTimestamp = fault.Event.Timestamp
		rec.Attributes = fault.Event.Data
	}

	if err := p.store.Append(rec); err != nil {
		p.logger.Warn("failed to journal delivery fault",
			slog.String("stream_id", fault.StreamID),
			slog.Int64("sequence", fault.Sequence),
			slog.String("error", err.Error()),
		)
	}
	return decision
}
