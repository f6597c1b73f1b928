package event

import "fmt"

// ComplexEvent is a row that may be linked to further rows produced by the
// same upstream operation (for example, join output).
// Traversal via NextEvent is forward-only and always terminates.
type ComplexEvent interface {
	// EventTimestamp returns the event time in milliseconds.
	EventTimestamp() int64

	// Attributes returns the attribute vector. Callers must not retain it
	// beyond the current delivery.
	Attributes() []any

	// IsExpired reports whether the row is an expired (retracted) row.
	IsExpired() bool

	// NextEvent returns the next row in the chain, or nil.
	NextEvent() ComplexEvent
}

// Event is a fixed-arity attribute vector with a timestamp and expiry flag.
//
// Events are reused in place when held by a ring slot: CopyFrom and Set
// overwrite the existing Data slice instead of allocating a new one.
type Event struct {
	Timestamp int64
	Data      []any
	Expired   bool

	// Next links this row to the following row of a complex-event chain.
	Next *Event
}

// Compile-time interface check.
var _ ComplexEvent = (*Event)(nil)

// NewEvent returns an event with arity preallocated attribute slots.
func NewEvent(arity int) *Event {
	return &Event{Data: make([]any, arity)}
}

// New returns an event carrying the given timestamp and attributes.
// The data slice is owned by the event afterwards.
func New(timestamp int64, data ...any) *Event {
	return &Event{Timestamp: timestamp, Data: data}
}

// Factory returns a constructor for events of a fixed arity.
func Factory(arity int) func() *Event {
	return func() *Event {
		return NewEvent(arity)
	}
}

// EventTimestamp implements ComplexEvent.
func (e *Event) EventTimestamp() int64 {
	return e.Timestamp
}

// Attributes implements ComplexEvent.
func (e *Event) Attributes() []any {
	return e.Data
}

// IsExpired implements ComplexEvent.
func (e *Event) IsExpired() bool {
	return e.Expired
}

// NextEvent implements ComplexEvent.
// A nil *Event next pointer is reported as a nil interface.
func (e *Event) NextEvent() ComplexEvent {
	if e.Next == nil {
		return nil
	}
	return e.Next
}

// Arity returns the number of attribute slots.
func (e *Event) Arity() int {
	return len(e.Data)
}

// CopyFrom overwrites e with the fields of src. Data is reused when its
// capacity covers src's attributes, which always holds when arities match.
// The chain link is cleared.
func (e *Event) CopyFrom(src ComplexEvent) {
	e.Timestamp = src.EventTimestamp()
	e.Expired = src.IsExpired()
	e.fill(src.Attributes())
	e.Next = nil
}

// Set overwrites e with a raw timestamp and attribute tuple.
func (e *Event) Set(timestamp int64, data []any) {
	e.Timestamp = timestamp
	e.Expired = false
	e.fill(data)
	e.Next = nil
}

func (e *Event) fill(attrs []any) {
	if cap(e.Data) < len(attrs) {
		e.Data = make([]any, len(attrs))
	} else {
		if len(attrs) < len(e.Data) {
			clear(e.Data[len(attrs):])
		}
		e.Data = e.Data[:len(attrs)]
	}
	copy(e.Data, attrs)
}

// Clone returns a detached copy of e. The chain link is not copied.
func (e *Event) Clone() *Event {
	data := make([]any, len(e.Data))
	copy(data, e.Data)
	return &Event{
		Timestamp: e.Timestamp,
		Data:      data,
		Expired:   e.Expired,
	}
}

// CloneOf returns a detached *Event holding the fields of any ComplexEvent.
func CloneOf(src ComplexEvent) *Event {
	if ev, ok := src.(*Event); ok {
		return ev.Clone()
	}
	attrs := src.Attributes()
	data := make([]any, len(attrs))
	copy(data, attrs)
	return &Event{
		Timestamp: src.EventTimestamp(),
		Data:      data,
		Expired:   src.IsExpired(),
	}
}

// String implements fmt.Stringer.
func (e *Event) String() string {
	return fmt.Sprintf("Event{timestamp=%d, data=%v, expired=%t}", e.Timestamp, e.Data, e.Expired)
}
