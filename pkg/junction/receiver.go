package junction

import "github.com/randalmurphal/junction/pkg/junction/event"

// Receiver accepts events delivered by a junction.
//
// Each call is a complete delivery. In synchronous mode receivers run on the
// producer's goroutine and may be called concurrently by several producers.
// In asynchronous mode each receiver is driven by exactly one pipeline stage.
// Events handed out by the ring are reused once lapped, so receivers must copy
// anything they keep.
type Receiver interface {
	// StreamID identifies the receiver.
	StreamID() string

	// ReceiveChain delivers a complex-event chain.
	ReceiveChain(ce event.ComplexEvent) error

	// ReceiveEvent delivers a single event.
	ReceiveEvent(ev *event.Event) error

	// ReceiveEndOfBatch delivers a single event and reports whether it is the
	// last event published so far.
	ReceiveEndOfBatch(ev *event.Event, endOfBatch bool) error

	// ReceiveData delivers a raw timestamp and attribute tuple.
	ReceiveData(timestamp int64, data []any) error

	// ReceiveBatch delivers an ordered batch of events.
	ReceiveBatch(evs []*event.Event) error
}

// Lifecycle is implemented by receivers that want start and stop
// notifications. A junction calls these only in synchronous mode.
type Lifecycle interface {
	StartProcessing()
	StopProcessing()
}

// Partitionable is implemented by stateful receivers that keep independent
// state per partition key.
type Partitionable interface {
	Receiver

	// CloneForKey returns a receiver with fresh state for key. The clone
	// shares no mutable state with the template or with other clones.
	CloneForKey(key string) Receiver

	// Stabilize resets transient state at a batch boundary. It is idempotent.
	Stabilize()
}

// ThroughputTracker counts events accepted by a junction.
type ThroughputTracker interface {
	EventIn()
	EventsIn(count int)
}
