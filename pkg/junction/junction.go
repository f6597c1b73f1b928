package junction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"

	"github.com/randalmurphal/junction/pkg/junction/event"
	"github.com/randalmurphal/junction/pkg/junction/observability"
)

// Junction is the per-stream hub connecting publishers to receivers.
//
// Receivers are called directly on the producer's goroutine (synchronous
// mode) or through a ring pipeline with one stage per receiver
// (asynchronous mode). The mode is decided by StartProcessing.
type Junction struct {
	def        *StreamDefinition
	app        *AppContext
	async      bool
	bufferSize int

	logger  *slog.Logger
	trace   bool
	tracker ThroughputTracker
	policy  ExceptionPolicy
	metrics observability.MetricsRecorder
	spans   observability.SpanManager

	// Copy-on-write snapshots; writers serialize on subMu.
	subMu      sync.Mutex
	receivers  atomic.Pointer[[]Receiver]
	publishers atomic.Pointer[[]*Publisher]

	lifecycleMu sync.Mutex
	running     bool
	ring        atomic.Pointer[ringPipeline]
	stopped     atomic.Bool // an asynchronous run has been stopped
	fatal       atomic.Pointer[PipelineAbortedError]
}

// New creates the junction of one stream.
//
// The stream is asynchronous when the application is, or when the definition
// carries an @Async annotation. The ring capacity is the annotation's
// buffer.size element, else WithBufferSize, else the application default.
func New(def *StreamDefinition, app *AppContext, opts ...Option) (*Junction, error) {
	if def == nil {
		return nil, &ConfigurationError{Message: "stream definition is required"}
	}
	if app == nil {
		app = &AppContext{}
	}
	app.applyDefaults()

	cfg := defaultJunctionConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	j := &Junction{
		def:        def,
		app:        app,
		async:      app.Async,
		bufferSize: app.BufferSize,
		policy:     app.ExceptionPolicy,
		metrics:    cfg.metrics,
		spans:      cfg.spans,
	}
	if cfg.bufferSize > 0 {
		j.bufferSize = cfg.bufferSize
	}
	if cfg.policy != nil {
		j.policy = cfg.policy
	}

	logger := app.Logger
	if cfg.logger != nil {
		logger = cfg.logger
	}
	j.logger = observability.EnrichLogger(logger, app.Name, def.ID)
	j.trace = observability.TraceEnabled(j.logger)

	switch {
	case cfg.tracker != nil:
		j.tracker = cfg.tracker
	case app.StatsEnabled:
		j.tracker = app.TrackerFactory(app.Name, def.ID)
	}

	ann, err := def.Annotation(AnnotationAsync)
	if err != nil {
		return nil, err
	}
	if ann != nil {
		j.async = true
		if raw, ok := ann.Element(ElementBufferSize); ok {
			size, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil || size <= 0 {
				return nil, &ConfigurationError{
					StreamID: def.ID,
					Element:  ElementBufferSize,
					Message:  fmt.Sprintf("expected a positive integer, got %q", raw),
				}
			}
			j.bufferSize = size
		}
	}

	empty := []Receiver{}
	j.receivers.Store(&empty)
	noPublishers := []*Publisher{}
	j.publishers.Store(&noPublishers)
	return j, nil
}

// StreamID returns the id of the stream.
func (j *Junction) StreamID() string {
	return j.def.ID
}

// Definition returns the stream definition.
func (j *Junction) Definition() *StreamDefinition {
	return j.def
}

// Async reports whether the stream is configured for asynchronous dispatch.
// Whether a run actually uses the ring also depends on receivers being
// subscribed at StartProcessing.
func (j *Junction) Async() bool {
	return j.async
}

// BufferSize returns the configured ring capacity before rounding.
func (j *Junction) BufferSize() int {
	return j.bufferSize
}

// Err returns the fatal error of an aborted pipeline, or nil.
func (j *Junction) Err() error {
	if f := j.fatal.Load(); f != nil {
		return f
	}
	return nil
}

// Send dispatches a complex-event chain. Every row is a separate unit,
// delivered in chain order.
func (j *Junction) Send(ce event.ComplexEvent) error {
	if ce == nil {
		return nil
	}
	if j.trace {
		observability.LogSend(j.logger, j.def.ID, "chain", event.ChainLen(ce))
	}

	if p := j.ring.Load(); p != nil {
		for cur := ce; cur != nil; cur = cur.NextEvent() {
			seq, err := p.claim()
			if err != nil {
				return err
			}
			p.slot(seq).CopyFrom(cur)
			p.publish(seq)
			j.eventsIn(1)
		}
		return nil
	}
	if j.stopped.Load() {
		return ErrStopped
	}

	j.eventsIn(event.ChainLen(ce))
	return j.each(func(r Receiver) error {
		return r.ReceiveChain(ce)
	})
}

// SendEvent dispatches a single event.
func (j *Junction) SendEvent(ev *event.Event) error {
	if ev == nil {
		return nil
	}
	if j.trace {
		observability.LogSend(j.logger, j.def.ID, "event", 1)
	}

	if p := j.ring.Load(); p != nil {
		if err := j.publishEvent(p, ev); err != nil {
			return err
		}
		j.eventsIn(1)
		return nil
	}
	if j.stopped.Load() {
		return ErrStopped
	}

	j.eventsIn(1)
	return j.each(func(r Receiver) error {
		return r.ReceiveEvent(ev)
	})
}

// SendEvents dispatches an ordered batch of events. Nil entries are skipped
// in both modes.
func (j *Junction) SendEvents(evs []*event.Event) error {
	evs = withoutNil(evs)
	if len(evs) == 0 {
		return nil
	}
	if j.trace {
		observability.LogSend(j.logger, j.def.ID, "batch", len(evs))
	}

	if p := j.ring.Load(); p != nil {
		for i, ev := range evs {
			if err := j.publishEvent(p, ev); err != nil {
				j.eventsIn(i)
				return err
			}
		}
		j.eventsIn(len(evs))
		return nil
	}
	if j.stopped.Load() {
		return ErrStopped
	}

	j.eventsIn(len(evs))
	return j.each(func(r Receiver) error {
		return r.ReceiveBatch(evs)
	})
}

// SendData dispatches a raw timestamp and attribute tuple. In playback mode
// the application clock is advanced to timestamp.
func (j *Junction) SendData(timestamp int64, data []any) error {
	if j.app.Playback {
		if clock, ok := j.app.Timestamps.(playbackClock); ok {
			clock.SetCurrentTimestamp(timestamp)
		}
	}
	if j.trace {
		observability.LogSend(j.logger, j.def.ID, "data", 1)
	}

	if p := j.ring.Load(); p != nil {
		seq, err := p.claim()
		if err != nil {
			return err
		}
		p.slot(seq).Set(timestamp, data)
		p.publish(seq)
		j.eventsIn(1)
		return nil
	}
	if j.stopped.Load() {
		return ErrStopped
	}

	j.eventsIn(1)
	return j.each(func(r Receiver) error {
		return r.ReceiveData(timestamp, data)
	})
}

func (j *Junction) publishEvent(p *ringPipeline, ev *event.Event) error {
	seq, err := p.claim()
	if err != nil {
		return err
	}
	p.slot(seq).CopyFrom(ev)
	p.publish(seq)
	return nil
}

// eventsIn reports n accepted events to the tracker, if any.
func (j *Junction) eventsIn(n int) {
	switch {
	case j.tracker == nil || n <= 0:
	case n == 1:
		j.tracker.EventIn()
	default:
		j.tracker.EventsIn(n)
	}
}

// withoutNil returns evs with nil entries removed. The input is returned
// unchanged when it holds no nil.
func withoutNil(evs []*event.Event) []*event.Event {
	if !slices.Contains(evs, nil) {
		return evs
	}
	out := make([]*event.Event, 0, len(evs))
	for _, ev := range evs {
		if ev != nil {
			out = append(out, ev)
		}
	}
	return out
}

// each calls fn for every receiver in the current snapshot and joins the errors.
func (j *Junction) each(fn func(Receiver) error) error {
	var errs []error
	for _, r := range *j.receivers.Load() {
		if err := fn(r); err != nil {
			errs = append(errs, fmt.Errorf("receiver %s: %w", r.StreamID(), err))
		}
	}
	return errors.Join(errs...)
}

// ConstructPublisher returns a new publisher bound to this junction.
func (j *Junction) ConstructPublisher() *Publisher {
	p := &Publisher{junction: j}

	j.subMu.Lock()
	defer j.subMu.Unlock()
	cur := *j.publishers.Load()
	next := make([]*Publisher, len(cur), len(cur)+1)
	copy(next, cur)
	next = append(next, p)
	j.publishers.Store(&next)
	return p
}

// Subscribe registers a receiver. It returns false if the same receiver is
// already registered. Receivers subscribed while an asynchronous run is in
// progress join at the next StartProcessing.
func (j *Junction) Subscribe(r Receiver) bool {
	if r == nil {
		return false
	}
	j.subMu.Lock()
	defer j.subMu.Unlock()

	cur := *j.receivers.Load()
	for _, existing := range cur {
		if existing == r {
			return false
		}
	}
	next := make([]Receiver, len(cur), len(cur)+1)
	copy(next, cur)
	next = append(next, r)
	j.receivers.Store(&next)
	return true
}

// Unsubscribe removes a receiver from the snapshot. A ring stage already
// wired to it keeps running until StopProcessing.
func (j *Junction) Unsubscribe(r Receiver) bool {
	j.subMu.Lock()
	defer j.subMu.Unlock()

	cur := *j.receivers.Load()
	for i, existing := range cur {
		if existing != r {
			continue
		}
		next := make([]Receiver, 0, len(cur)-1)
		next = append(next, cur[:i]...)
		next = append(next, cur[i+1:]...)
		j.receivers.Store(&next)
		return true
	}
	return false
}

// Receivers returns the current receivers in subscription order.
func (j *Junction) Receivers() []Receiver {
	return append([]Receiver(nil), *j.receivers.Load()...)
}

// Publishers returns every publisher constructed so far.
func (j *Junction) Publishers() []*Publisher {
	return append([]*Publisher(nil), *j.publishers.Load()...)
}

// StartProcessing decides the dispatch mode for this run. With at least one
// receiver on an asynchronous stream it builds and starts a ring pipeline
// with one stage per receiver; otherwise it notifies Lifecycle receivers.
// Calling it on a running junction does nothing.
func (j *Junction) StartProcessing() {
	j.lifecycleMu.Lock()
	defer j.lifecycleMu.Unlock()
	if j.running {
		return
	}
	j.running = true
	j.fatal.Store(nil)
	j.stopped.Store(false)

	receivers := *j.receivers.Load()
	useRing := j.async && len(receivers) > 0

	_, span := j.spans.StartLifecycleSpan(context.Background(), "start", j.def.ID,
		attribute.Bool("async", useRing),
		attribute.Int("receivers", len(receivers)),
	)
	defer j.spans.EndSpanWithError(span, nil)

	if !useRing {
		for _, r := range receivers {
			if lc, ok := r.(Lifecycle); ok {
				lc.StartProcessing()
			}
		}
		observability.LogStart(j.logger, j.def.ID, false, 0, 0)
		return
	}

	p := newRingPipeline(ringConfig{
		App:      j.app.Name,
		StreamID: j.def.ID,
		Capacity: j.bufferSize,
		Arity:    j.def.Arity(),
		Policy:   j.policy,
		Logger:   j.logger,
		Metrics:  j.metrics,
		OnFatal:  j.onFatal,
	})
	for _, r := range receivers {
		p.addStage(r)
	}
	// Senders see the ring before any stage runs.
	j.ring.Store(p)
	p.start()
	observability.LogStart(j.logger, j.def.ID, true, int(p.capacity), len(receivers))
}

// StopProcessing ends the current run. An asynchronous run refuses new
// sends, delivers every event already published and waits for its stages.
// A synchronous run notifies Lifecycle receivers. Calling it on a junction
// that is not running does nothing.
func (j *Junction) StopProcessing() {
	j.lifecycleMu.Lock()
	defer j.lifecycleMu.Unlock()
	if !j.running {
		return
	}
	j.running = false

	p := j.ring.Load()
	ctx, span := j.spans.StartLifecycleSpan(context.Background(), "stop", j.def.ID,
		attribute.Bool("async", p != nil),
	)

	if p == nil {
		for _, r := range *j.receivers.Load() {
			if lc, ok := r.(Lifecycle); ok {
				lc.StopProcessing()
			}
		}
		observability.LogStop(j.logger, j.def.ID, false, 0)
		j.spans.EndSpanWithError(span, nil)
		return
	}

	elapsed := observability.TimedOperation()
	p.stop()
	drain := elapsed()

	j.stopped.Store(true)
	j.ring.Store(nil)

	j.metrics.RecordDrain(ctx, j.app.Name, j.def.ID, drain)
	observability.LogStop(j.logger, j.def.ID, true, drain)
	j.spans.EndSpanWithError(span, p.Err())
}

func (j *Junction) onFatal(err error) {
	var aborted *PipelineAbortedError
	if errors.As(err, &aborted) {
		j.fatal.CompareAndSwap(nil, aborted)
	}
	if j.app.OnFatal != nil {
		j.app.OnFatal(j.def.ID, err)
	}
}

// String implements fmt.Stringer.
func (j *Junction) String() string {
	return fmt.Sprintf("Junction{stream=%s, async=%t, bufferSize=%d}", j.def.ID, j.async, j.bufferSize)
}
