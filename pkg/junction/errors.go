package junction

import (
	"errors"
	"fmt"

	"github.com/randalmurphal/junction/pkg/junction/event"
)

// Sentinel errors for junction construction.
var (
	// ErrConfiguration indicates malformed stream-level configuration.
	ErrConfiguration = errors.New("invalid stream configuration")

	// ErrDuplicateAnnotation indicates an annotation that may appear once was declared more than once.
	ErrDuplicateAnnotation = errors.New("duplicate annotation")
)

// Sentinel errors for dispatch.
var (
	// ErrStopped indicates a send on an asynchronous junction after StopProcessing.
	ErrStopped = errors.New("junction stopped")

	// ErrPipelineAborted indicates the exception policy halted the ring pipeline.
	ErrPipelineAborted = errors.New("pipeline aborted")

	// ErrDelivery indicates a receiver failed while handling a delivered event.
	ErrDelivery = errors.New("event delivery failed")
)

// ConfigurationError describes malformed stream configuration.
type ConfigurationError struct {
	// StreamID is the stream whose definition is invalid.
	StreamID string
	// Element is the offending annotation element, if any.
	Element string
	// Message describes the problem.
	Message string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Element != "" {
		return fmt.Sprintf("stream %s: %s: %s", e.StreamID, e.Element, e.Message)
	}
	return fmt.Sprintf("stream %s: %s", e.StreamID, e.Message)
}

// Unwrap returns ErrConfiguration for errors.Is support.
func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// DuplicateAnnotationError reports an annotation declared more than once on a stream.
type DuplicateAnnotationError struct {
	// StreamID is the stream carrying the duplicate.
	StreamID string
	// Annotation is the duplicated annotation name.
	Annotation string
}

// Error implements the error interface.
func (e *DuplicateAnnotationError) Error() string {
	return fmt.Sprintf("annotation @%s is defined more than once on stream %s", e.Annotation, e.StreamID)
}

// Is matches both ErrDuplicateAnnotation and ErrConfiguration.
func (e *DuplicateAnnotationError) Is(target error) bool {
	return target == ErrDuplicateAnnotation || target == ErrConfiguration
}

// DeliveryFault describes a receiver failure during ring pipeline processing.
// It is handed to the ExceptionPolicy.
type DeliveryFault struct {
	// StreamID is the junction's stream.
	StreamID string
	// Receiver is the stream id of the failing receiver.
	Receiver string
	// Sequence is the ring sequence of the offending event.
	Sequence int64
	// Event is a detached copy of the offending event.
	Event *event.Event
	// Err is the receiver's error, or a *PanicError.
	Err error
}

// Error implements the error interface.
func (e *DeliveryFault) Error() string {
	return fmt.Sprintf("stream %s: receiver %s failed at sequence %d: %v", e.StreamID, e.Receiver, e.Sequence, e.Err)
}

// Unwrap returns the receiver's error.
func (e *DeliveryFault) Unwrap() error {
	return e.Err
}

// Is matches ErrDelivery.
func (e *DeliveryFault) Is(target error) bool {
	return target == ErrDelivery
}

// PanicError captures a receiver panic recovered by a pipeline stage.
type PanicError struct {
	// Value is the value passed to panic().
	Value any
	// Stack is the stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("receiver panicked: %v", e.Value)
}

// PipelineAbortedError is the fatal error recorded when a policy aborts a pipeline.
type PipelineAbortedError struct {
	// StreamID is the aborted junction's stream.
	StreamID string
	// Cause is the fault that triggered the abort.
	Cause error
}

// Error implements the error interface.
func (e *PipelineAbortedError) Error() string {
	return fmt.Sprintf("stream %s: pipeline aborted: %v", e.StreamID, e.Cause)
}

// Unwrap returns the triggering fault.
func (e *PipelineAbortedError) Unwrap() error {
	return e.Cause
}

// Is matches ErrPipelineAborted.
func (e *PipelineAbortedError) Is(target error) bool {
	return target == ErrPipelineAborted
}
