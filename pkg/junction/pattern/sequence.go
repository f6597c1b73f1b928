package pattern

import (
	"github.com/randalmurphal/junction/pkg/junction"
	"github.com/randalmurphal/junction/pkg/junction/event"
)

// Automaton is the state machine of a pattern or sequence query.
// Its transition logic is opaque to the receiver.
type Automaton interface {
	// Process advances the automaton with one event.
	Process(ev *event.Event) error

	// ResetAndUpdate commits or discards transient match state at a batch
	// boundary.
	ResetAndUpdate()
}

// AutomatonFactory creates a fresh automaton for a partition key.
// The template receiver is created with key "".
type AutomatonFactory func(key string) Automaton

// SequenceReceiver feeds a bound Automaton and stabilizes it at every batch
// boundary. Clones made with Clone carry independent automata.
type SequenceReceiver struct {
	*StreamReceiver

	key     string
	factory AutomatonFactory
	opts    []Option

	// runtime is guarded by StreamReceiver.mu.
	runtime Automaton
}

// Compile-time interface check.
var _ junction.Partitionable = (*SequenceReceiver)(nil)

// NewSequenceReceiver returns a template receiver for streamID. A nil factory
// leaves the runtime unbound until Bind is called.
func NewSequenceReceiver(streamID string, factory AutomatonFactory, opts ...Option) *SequenceReceiver {
	return newSequenceReceiver(streamID, "", factory, opts)
}

func newSequenceReceiver(streamID, key string, factory AutomatonFactory, opts []Option) *SequenceReceiver {
	s := &SequenceReceiver{
		key:     key,
		factory: factory,
		opts:    opts,
	}
	if factory != nil {
		s.runtime = factory(key)
	}
	s.StreamReceiver = NewStreamReceiver(streamID, ProcessorFunc(s.process), opts...)
	s.StreamReceiver.onBatchEnd = s.stabilizeLocked
	return s
}

// Key returns the partition key; "" for a template.
func (s *SequenceReceiver) Key() string {
	return s.key
}

// Clone returns a receiver for key with stream id streamID+key, a fresh
// automaton from the factory and its own lock.
func (s *SequenceReceiver) Clone(key string) *SequenceReceiver {
	return newSequenceReceiver(s.streamID+key, key, s.factory, s.opts)
}

// CloneForKey implements junction.Partitionable.
func (s *SequenceReceiver) CloneForKey(key string) junction.Receiver {
	return s.Clone(key)
}

// Bind replaces the automaton runtime.
func (s *SequenceReceiver) Bind(a Automaton) {
	s.mu.Lock()
	s.runtime = a
	s.mu.Unlock()
}

// Runtime returns the bound automaton, or nil.
func (s *SequenceReceiver) Runtime() Automaton {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runtime
}

// Stabilize resets the automaton's transient state. It does nothing when no
// automaton is bound.
func (s *SequenceReceiver) Stabilize() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stabilizeLocked(0)
}

func (s *SequenceReceiver) stabilizeLocked(int) {
	if s.runtime != nil {
		s.runtime.ResetAndUpdate()
	}
}

func (s *SequenceReceiver) process(ev *event.Event) error {
	if s.runtime == nil {
		return nil
	}
	return s.runtime.Process(ev)
}
