package pattern

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/randalmurphal/junction/pkg/junction"
	"github.com/randalmurphal/junction/pkg/junction/event"
	"github.com/randalmurphal/junction/pkg/junction/observability"
)

// Processor handles events in receive order. Events are only valid for the
// duration of the call.
type Processor interface {
	Process(ev *event.Event) error
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ev *event.Event) error

// Process calls f.
func (f ProcessorFunc) Process(ev *event.Event) error {
	return f(ev)
}

// receiverConfig holds optional receiver settings.
type receiverConfig struct {
	logger *slog.Logger
}

// Option configures a receiver.
type Option func(*receiverConfig)

// WithLogger logs stabilization at trace level.
func WithLogger(logger *slog.Logger) Option {
	return func(c *receiverConfig) {
		c.logger = logger
	}
}

// StreamReceiver is a junction.Receiver that delivers every form to a
// Processor under a per-receiver lock.
//
// Events flagged as not end-of-batch are buffered as owned copies; the batch
// is processed when the end-of-batch event arrives or Flush is called. Every
// other form is processed immediately as one batch.
type StreamReceiver struct {
	streamID  string
	processor Processor
	logger    *slog.Logger

	// onBatchEnd runs with mu held after each processed batch.
	onBatchEnd func(batchSize int)

	mu      sync.Mutex
	pending []*event.Event
}

// Compile-time interface check.
var _ junction.Receiver = (*StreamReceiver)(nil)

// NewStreamReceiver returns a receiver feeding p.
func NewStreamReceiver(streamID string, p Processor, opts ...Option) *StreamReceiver {
	var cfg receiverConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return &StreamReceiver{
		streamID:  streamID,
		processor: p,
		logger:    cfg.logger,
	}
}

// StreamID implements junction.Receiver.
func (r *StreamReceiver) StreamID() string {
	return r.streamID
}

// ReceiveChain processes every row of the chain in order.
func (r *StreamReceiver) ReceiveChain(ce event.ComplexEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	n := 0
	event.Each(ce, func(row event.ComplexEvent) bool {
		ev, ok := row.(*event.Event)
		if !ok {
			ev = event.CloneOf(row)
		}
		if err := r.processor.Process(ev); err != nil {
			errs = append(errs, err)
		}
		n++
		return true
	})
	r.endBatch(n)
	return errors.Join(errs...)
}

// ReceiveEvent processes a single event as a batch of one.
func (r *StreamReceiver) ReceiveEvent(ev *event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.processor.Process(ev)
	r.endBatch(1)
	return err
}

// ReceiveEndOfBatch buffers a copy of ev and processes the buffered batch
// when endOfBatch is set.
func (r *StreamReceiver) ReceiveEndOfBatch(ev *event.Event, endOfBatch bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pending = append(r.pending, ev.Clone())
	if !endOfBatch {
		return nil
	}
	return r.flushLocked()
}

// ReceiveData processes a raw tuple as a batch of one.
func (r *StreamReceiver) ReceiveData(timestamp int64, data []any) error {
	return r.ReceiveEvent(event.New(timestamp, data...))
}

// ReceiveBatch processes the events in order as one batch.
func (r *StreamReceiver) ReceiveBatch(evs []*event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, ev := range evs {
		if err := r.processor.Process(ev); err != nil {
			errs = append(errs, err)
		}
	}
	r.endBatch(len(evs))
	return errors.Join(errs...)
}

// Flush processes any buffered events and ends the batch. Flushing with
// nothing buffered still runs the batch hook.
func (r *StreamReceiver) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flushLocked()
}

// Pending returns the number of buffered events.
func (r *StreamReceiver) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

func (r *StreamReceiver) flushLocked() error {
	batch := r.pending
	r.pending = nil

	var errs []error
	for _, ev := range batch {
		if err := r.processor.Process(ev); err != nil {
			errs = append(errs, err)
		}
	}
	r.endBatch(len(batch))
	return errors.Join(errs...)
}

func (r *StreamReceiver) endBatch(n int) {
	if r.onBatchEnd == nil {
		return
	}
	r.onBatchEnd(n)
	if observability.TraceEnabled(r.logger) {
		observability.LogStabilize(r.logger, r.streamID, n)
	}
}
