package junction

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/bits"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/sourcegraph/conc"

	"github.com/randalmurphal/junction/pkg/junction/event"
	"github.com/randalmurphal/junction/pkg/junction/observability"
)

// ringConfig holds everything needed to build a ring pipeline.
type ringConfig struct {
	App      string
	StreamID string
	Capacity int
	Arity    int
	Policy   ExceptionPolicy
	Logger   *slog.Logger
	Metrics  observability.MetricsRecorder
	OnFatal  func(err error)
}

// ringPipeline is a fixed-capacity ring of reusable event slots shared by
// many producers and read by one stage per receiver.
//
// Producers claim a sequence, copy into the slot and publish it. A claim
// blocks while the slot still holds an event some stage has not consumed.
// Every stage observes every published sequence in order.
type ringPipeline struct {
	cfg      ringConfig
	capacity int64
	mask     int64

	slots []event.Event
	// published[i] holds the last sequence published into slot i.
	published []atomic.Int64
	cursor    atomic.Int64 // next sequence to claim

	stages []*ringStage

	// gate is read-held by producers between claim and publish; stop takes
	// it exclusively so that every claimed sequence is published before the
	// final cursor is read.
	gate    sync.RWMutex
	stopped bool

	mu            sync.Mutex
	publishedCond *sync.Cond // stages wait for new sequences
	freedCond     *sync.Cond // producers wait for slots
	stageWaiters  atomic.Int32
	prodWaiters   atomic.Int32
	draining      bool
	final         int64

	halted atomic.Bool
	fatal  atomic.Pointer[PipelineAbortedError]

	started bool
	wg      conc.WaitGroup
}

// ringStage drives one receiver.
type ringStage struct {
	receiver Receiver
	sequence atomic.Int64 // last consumed sequence
}

// roundCapacity returns the smallest power of two >= n, and at least 1.
func roundCapacity(n int) int {
	if n <= 1 {
		return 1
	}
	if n > math.MaxInt32 {
		n = math.MaxInt32
	}
	return 1 << bits.Len(uint(n-1))
}

func newRingPipeline(cfg ringConfig) *ringPipeline {
	capacity := roundCapacity(cfg.Capacity)
	if cfg.Policy == nil {
		cfg.Policy = LogAndContinue(cfg.Logger)
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observability.NoopMetrics{}
	}

	p := &ringPipeline{
		cfg:       cfg,
		capacity:  int64(capacity),
		mask:      int64(capacity - 1),
		slots:     make([]event.Event, capacity),
		published: make([]atomic.Int64, capacity),
	}
	for i := range p.slots {
		p.slots[i].Data = make([]any, cfg.Arity)
		p.published[i].Store(-1)
	}
	p.publishedCond = sync.NewCond(&p.mu)
	p.freedCond = sync.NewCond(&p.mu)
	return p
}

// addStage attaches a receiver. Must be called before start.
func (p *ringPipeline) addStage(r Receiver) {
	s := &ringStage{receiver: r}
	s.sequence.Store(-1)
	p.stages = append(p.stages, s)
}

// start launches one goroutine per stage.
func (p *ringPipeline) start() {
	if p.started {
		return
	}
	p.started = true
	for _, s := range p.stages {
		p.wg.Go(func() {
			p.runStage(s)
		})
	}
}

// claim reserves the next sequence, blocking while the ring is full.
// On success the caller must fill slot(seq) and call publish(seq).
func (p *ringPipeline) claim() (int64, error) {
	p.gate.RLock()
	if p.stopped {
		p.gate.RUnlock()
		return 0, ErrStopped
	}
	if err := p.Err(); err != nil {
		p.gate.RUnlock()
		return 0, err
	}

	seq := p.cursor.Add(1) - 1
	wrap := seq - p.capacity
	if wrap >= 0 && p.minStageSequence() < wrap {
		p.mu.Lock()
		p.prodWaiters.Add(1)
		for p.minStageSequence() < wrap && !p.halted.Load() {
			p.freedCond.Wait()
		}
		p.prodWaiters.Add(-1)
		p.mu.Unlock()
	}
	if err := p.Err(); err != nil {
		p.gate.RUnlock()
		return 0, err
	}
	return seq, nil
}

// slot returns the reusable event for seq.
func (p *ringPipeline) slot(seq int64) *event.Event {
	return &p.slots[seq&p.mask]
}

// publish makes seq visible to stages and releases the producer gate.
func (p *ringPipeline) publish(seq int64) {
	p.published[seq&p.mask].Store(seq)
	if p.stageWaiters.Load() > 0 {
		p.mu.Lock()
		p.publishedCond.Broadcast()
		p.mu.Unlock()
	}
	p.gate.RUnlock()
}

func (p *ringPipeline) isPublished(seq int64) bool {
	return p.published[seq&p.mask].Load() == seq
}

func (p *ringPipeline) minStageSequence() int64 {
	lowest := int64(math.MaxInt64)
	for _, s := range p.stages {
		if v := s.sequence.Load(); v < lowest {
			lowest = v
		}
	}
	return lowest
}

// waitFor blocks until seq is published and returns the highest contiguous
// published sequence from seq. ok is false once the stage should exit.
func (p *ringPipeline) waitFor(seq int64) (hi int64, ok bool) {
	if !p.isPublished(seq) {
		p.mu.Lock()
		p.stageWaiters.Add(1)
		for !p.isPublished(seq) {
			if p.halted.Load() || (p.draining && seq >= p.final) {
				p.stageWaiters.Add(-1)
				p.mu.Unlock()
				return 0, false
			}
			p.publishedCond.Wait()
		}
		p.stageWaiters.Add(-1)
		p.mu.Unlock()
	}
	if p.halted.Load() {
		return 0, false
	}

	hi = seq
	limit := p.cursor.Load()
	for next := seq + 1; next < limit && p.isPublished(next); next++ {
		hi = next
	}
	return hi, true
}

func (p *ringPipeline) runStage(s *ringStage) {
	next := s.sequence.Load() + 1
	for {
		hi, ok := p.waitFor(next)
		if !ok {
			return
		}
		for seq := next; seq <= hi; seq++ {
			if p.halted.Load() {
				return
			}
			slot := p.slot(seq)
			if err := deliver(s.receiver, slot, seq == hi); err != nil {
				if !p.handleFault(s, seq, slot, err) {
					return
				}
			}
		}
		s.sequence.Store(hi)
		if p.prodWaiters.Load() > 0 {
			p.mu.Lock()
			p.freedCond.Broadcast()
			p.mu.Unlock()
		}
		next = hi + 1
	}
}

// deliver calls the receiver, converting a panic into a *PanicError.
func deliver(r Receiver, ev *event.Event, endOfBatch bool) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &PanicError{Value: v, Stack: string(debug.Stack())}
		}
	}()
	return r.ReceiveEndOfBatch(ev, endOfBatch)
}

// handleFault consults the exception policy. It returns false when the
// pipeline was aborted.
func (p *ringPipeline) handleFault(s *ringStage, seq int64, slot *event.Event, err error) bool {
	fault := &DeliveryFault{
		StreamID: p.cfg.StreamID,
		Receiver: s.receiver.StreamID(),
		Sequence: seq,
		Event:    slot.Clone(),
		Err:      err,
	}

	ctx := context.Background()
	decision := p.cfg.Policy.HandleFault(ctx, fault)
	p.cfg.Metrics.RecordFault(ctx, p.cfg.App, p.cfg.StreamID, decision == Abort)
	if decision != Abort {
		return true
	}

	p.abort(fault)
	return false
}

// abort halts the pipeline and wakes every waiter.
func (p *ringPipeline) abort(cause error) {
	aborted := &PipelineAbortedError{StreamID: p.cfg.StreamID, Cause: cause}
	if !p.fatal.CompareAndSwap(nil, aborted) {
		return
	}
	p.halted.Store(true)

	p.mu.Lock()
	p.publishedCond.Broadcast()
	p.freedCond.Broadcast()
	p.mu.Unlock()

	var seq int64
	if f, ok := cause.(*DeliveryFault); ok {
		seq = f.Sequence
	}
	observability.LogAbort(p.cfg.Logger, p.cfg.StreamID, seq, cause)
	if p.cfg.OnFatal != nil {
		p.cfg.OnFatal(aborted)
	}
}

// stop refuses new claims, waits for in-flight producers to publish, lets
// every stage drain to the final cursor and waits for the stages to exit.
func (p *ringPipeline) stop() {
	p.gate.Lock()
	if p.stopped {
		p.gate.Unlock()
		return
	}
	p.stopped = true
	final := p.cursor.Load()
	p.gate.Unlock()

	p.mu.Lock()
	p.draining = true
	p.final = final
	p.publishedCond.Broadcast()
	p.mu.Unlock()

	p.wg.Wait()
}

// Err returns the fatal error recorded by an abort, or nil.
func (p *ringPipeline) Err() error {
	if f := p.fatal.Load(); f != nil {
		return f
	}
	return nil
}

// String implements fmt.Stringer.
func (p *ringPipeline) String() string {
	return fmt.Sprintf("ring{stream=%s, capacity=%d, stages=%d}", p.cfg.StreamID, p.capacity, len(p.stages))
}
