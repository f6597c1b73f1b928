// Package partition routes events to per-key clones of a partitionable
// receiver.
package partition

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/randalmurphal/junction/pkg/junction"
	"github.com/randalmurphal/junction/pkg/junction/event"
	"github.com/randalmurphal/junction/pkg/junction/registry"
)

// KeyFunc extracts the partition key of an event.
type KeyFunc func(ev *event.Event) string

// AttributeKey partitions by the string form of the attribute at index.
func AttributeKey(index int) KeyFunc {
	return func(ev *event.Event) string {
		if index < 0 || index >= len(ev.Data) {
			return ""
		}
		return fmt.Sprint(ev.Data[index])
	}
}

// flusher is implemented by receivers that buffer events until a batch ends.
type flusher interface {
	Flush() error
}

// Router is a junction.Receiver that forwards each event to the clone of a
// template for the event's key. Clones are created on first use and are
// never shared between keys.
//
// Within a delivery, events are forwarded as not end-of-batch; when the
// delivery ends every key it touched is flushed, which stabilizes its clone.
type Router struct {
	streamID string
	template junction.Partitionable
	keyOf    KeyFunc
	logger   *slog.Logger

	clones *registry.Registry[string, junction.Receiver]

	// mu serializes deliveries so that touched belongs to one batch.
	mu      sync.Mutex
	touched []string
}

// Compile-time interface check.
var _ junction.Receiver = (*Router)(nil)

// Option configures a Router.
type Option func(*Router)

// WithLogger logs clone creation and eviction at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// NewRouter returns a router cloning template per key.
func NewRouter(streamID string, template junction.Partitionable, keyOf KeyFunc, opts ...Option) *Router {
	r := &Router{
		streamID: streamID,
		template: template,
		keyOf:    keyOf,
		clones:   registry.New[string, junction.Receiver](),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// StreamID implements junction.Receiver.
func (r *Router) StreamID() string {
	return r.streamID
}

// ReceiveChain routes every row of the chain, then flushes the touched keys.
func (r *Router) ReceiveChain(ce event.ComplexEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	event.Each(ce, func(row event.ComplexEvent) bool {
		ev, ok := row.(*event.Event)
		if !ok {
			ev = event.CloneOf(row)
		}
		if err := r.forward(ev); err != nil {
			errs = append(errs, err)
		}
		return true
	})
	errs = append(errs, r.flushTouched())
	return errors.Join(errs...)
}

// ReceiveEvent routes a single event as its own batch.
func (r *Router) ReceiveEvent(ev *event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.cloneFor(r.keyOf(ev)).ReceiveEvent(ev)
}

// ReceiveEndOfBatch routes ev and, at the end of a batch, flushes every key
// touched since the previous end of batch.
func (r *Router) ReceiveEndOfBatch(ev *event.Event, endOfBatch bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.forward(ev)
	if !endOfBatch {
		return err
	}
	return errors.Join(err, r.flushTouched())
}

// ReceiveData routes a raw tuple as its own batch.
func (r *Router) ReceiveData(timestamp int64, data []any) error {
	return r.ReceiveEvent(event.New(timestamp, data...))
}

// ReceiveBatch routes the events in order, then flushes the touched keys.
func (r *Router) ReceiveBatch(evs []*event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, ev := range evs {
		if err := r.forward(ev); err != nil {
			errs = append(errs, err)
		}
	}
	errs = append(errs, r.flushTouched())
	return errors.Join(errs...)
}

func (r *Router) forward(ev *event.Event) error {
	key := r.keyOf(ev)
	if !slices.Contains(r.touched, key) {
		r.touched = append(r.touched, key)
	}
	return r.cloneFor(key).ReceiveEndOfBatch(ev, false)
}

func (r *Router) cloneFor(key string) junction.Receiver {
	clone, created := r.clones.GetOrCreate(key, r.template.CloneForKey)
	if created && r.logger != nil {
		r.logger.Debug("partition clone created",
			slog.String("stream_id", r.streamID),
			slog.String("key", key),
		)
	}
	return clone
}

func (r *Router) flushTouched() error {
	var errs []error
	for _, key := range r.touched {
		if clone, ok := r.clones.Get(key); ok {
			errs = append(errs, flush(clone))
		}
	}
	r.touched = r.touched[:0]
	return errors.Join(errs...)
}

// flush ends the current batch of a clone.
func flush(clone junction.Receiver) error {
	switch c := clone.(type) {
	case flusher:
		return c.Flush()
	case junction.Partitionable:
		c.Stabilize()
	}
	return nil
}

// Keys returns the keys with a live clone, in creation order.
func (r *Router) Keys() []string {
	return r.clones.Keys()
}

// Len returns the number of live clones.
func (r *Router) Len() int {
	return r.clones.Len()
}

// Clone returns the clone for key, if one exists.
func (r *Router) Clone(key string) (junction.Receiver, bool) {
	return r.clones.Get(key)
}

// Evict flushes and removes the clone for key. A later event for the key
// creates a fresh clone.
func (r *Router) Evict(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone, ok := r.clones.Remove(key)
	if !ok {
		return false
	}
	if err := flush(clone); err != nil && r.logger != nil {
		r.logger.Warn("flush on eviction failed",
			slog.String("stream_id", r.streamID),
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
	r.touched = slices.DeleteFunc(r.touched, func(k string) bool { return k == key })
	if r.logger != nil {
		r.logger.Debug("partition clone evicted",
			slog.String("stream_id", r.streamID),
			slog.String("key", key),
		)
	}
	return true
}
