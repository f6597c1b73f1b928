package cmd

import (
	"fmt"
	"sync/atomic"

	"github.com/randalmurphal/junction/pkg/junction"
	"github.com/randalmurphal/junction/pkg/junction/event"
)

// countingReceiver counts deliveries and optionally fails on every Nth timestamp.
type countingReceiver struct {
	id        string
	failEvery int64
	delivered atomic.Int64
	failed    atomic.Int64
}

var _ junction.Receiver = (*countingReceiver)(nil)

func (r *countingReceiver) StreamID() string { return r.id }

func (r *countingReceiver) take(ts int64) error {
	if r.failEvery > 0 && ts%r.failEvery == 0 {
		r.failed.Add(1)
		return fmt.Errorf("synthetic failure at timestamp %d", ts)
	}
	r.delivered.Add(1)
	return nil
}

func (r *countingReceiver) ReceiveChain(ce event.ComplexEvent) error {
	var err error
	event.Each(ce, func(row event.ComplexEvent) bool {
		err = r.take(row.EventTimestamp())
		return err == nil
	})
	return err
}

func (r *countingReceiver) ReceiveEvent(ev *event.Event) error {
	return r.take(ev.Timestamp)
}

func (r *countingReceiver) ReceiveEndOfBatch(ev *event.Event, _ bool) error {
	return r.take(ev.Timestamp)
}

func (r *countingReceiver) ReceiveData(timestamp int64, _ []any) error {
	return r.take(timestamp)
}

func (r *countingReceiver) ReceiveBatch(evs []*event.Event) error {
	for _, ev := range evs {
		if err := r.take(ev.Timestamp); err != nil {
			return err
		}
	}
	return nil
}
