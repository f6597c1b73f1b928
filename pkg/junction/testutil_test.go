package junction

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/randalmurphal/junction/pkg/junction/event"
)

// recorder is a Receiver that keeps detached copies of everything it receives.
type recorder struct {
	id string

	mu      sync.Mutex
	events  []*event.Event
	eob     []bool
	forms   []string
	started int
	stopped int
}

func newRecorder(id string) *recorder {
	return &recorder{id: id}
}

func (r *recorder) StreamID() string { return r.id }

func (r *recorder) ReceiveChain(ce event.ComplexEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event.Slice(ce)...)
	r.forms = append(r.forms, "chain")
	return nil
}

func (r *recorder) ReceiveEvent(ev *event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev.Clone())
	r.forms = append(r.forms, "event")
	return nil
}

func (r *recorder) ReceiveEndOfBatch(ev *event.Event, endOfBatch bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev.Clone())
	r.eob = append(r.eob, endOfBatch)
	r.forms = append(r.forms, "eob")
	return nil
}

func (r *recorder) ReceiveData(timestamp int64, data []any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event.New(timestamp, append([]any(nil), data...)...))
	r.forms = append(r.forms, "data")
	return nil
}

func (r *recorder) ReceiveBatch(evs []*event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range evs {
		r.events = append(r.events, ev.Clone())
	}
	r.forms = append(r.forms, "batch")
	return nil
}

func (r *recorder) StartProcessing() {
	r.mu.Lock()
	r.started++
	r.mu.Unlock()
}

func (r *recorder) StopProcessing() {
	r.mu.Lock()
	r.stopped++
	r.mu.Unlock()
}

func (r *recorder) snapshot() []*event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*event.Event(nil), r.events...)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func (r *recorder) lifecycle() (started, stopped int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started, r.stopped
}

// timestamps returns the timestamps received so far, in order.
func (r *recorder) timestamps() []int64 {
	evs := r.snapshot()
	out := make([]int64, len(evs))
	for i, ev := range evs {
		out[i] = ev.Timestamp
	}
	return out
}

// faulty fails (or panics) on selected timestamps and records the rest.
type faulty struct {
	*recorder
	failOn  map[int64]bool
	panicOn map[int64]bool
}

var errBoom = errors.New("boom")

func (f *faulty) ReceiveEndOfBatch(ev *event.Event, endOfBatch bool) error {
	if f.panicOn[ev.Timestamp] {
		panic("receiver exploded")
	}
	if f.failOn[ev.Timestamp] {
		return errBoom
	}
	return f.recorder.ReceiveEndOfBatch(ev, endOfBatch)
}

func (f *faulty) ReceiveEvent(ev *event.Event) error {
	if f.failOn[ev.Timestamp] {
		return errBoom
	}
	return f.recorder.ReceiveEvent(ev)
}

// slow blocks in ReceiveEndOfBatch until release is closed.
type slow struct {
	*recorder
	release chan struct{}
	entered atomic.Bool
}

func (s *slow) ReceiveEndOfBatch(ev *event.Event, endOfBatch bool) error {
	s.entered.Store(true)
	<-s.release
	return s.recorder.ReceiveEndOfBatch(ev, endOfBatch)
}

// countingTracker is a ThroughputTracker backed by an atomic counter.
type countingTracker struct {
	n atomic.Int64
}

func (c *countingTracker) EventIn()           { c.n.Add(1) }
func (c *countingTracker) EventsIn(count int) { c.n.Add(int64(count)) }

// asyncDef returns an @Async stream definition with the given buffer size.
func asyncDef(id string, bufferSize string, attrs ...string) *StreamDefinition {
	def := NewStreamDefinition(id, attrs...)
	if bufferSize == "" {
		return def.Annotate(AnnotationAsync)
	}
	return def.Annotate(AnnotationAsync, Element{Key: ElementBufferSize, Value: bufferSize})
}

// eventually polls cond until it holds or the deadline passes.
func eventually(cond func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return cond()
}
