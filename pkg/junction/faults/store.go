// Package faults journals delivery faults raised by junction pipelines.
//
// A JournalPolicy wraps an ExceptionPolicy, records every fault it sees in a
// Store and then defers the continue/abort decision to the wrapped policy.
package faults

import (
	"errors"
	"time"
)

// Store persists fault records.
// Implementations must be safe for concurrent use.
type Store interface {
	// Append stores a record.
	Append(rec Record) error

	// List returns the records of a stream in append order.
	// An empty streamID lists every stream.
	List(streamID string) ([]Record, error)

	// Count returns the number of records of a stream, or of every stream
	// when streamID is empty.
	Count(streamID string) (int, error)

	// Clear removes the records of a stream, or every record when streamID
	// is empty.
	Clear(streamID string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Record is one journaled delivery fault.
type Record struct {
	ID             string
	StreamID       string
	Receiver       string
	Sequence       int64
	EventTimestamp int64
	Attributes     []any
	Error          string
	Aborted        bool
	Time           time.Time
}

// Sentinel errors for fault store operations.
var (
	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("fault store closed")
)
