package junction

import "github.com/randalmurphal/junction/pkg/junction/event"

// Publisher is a send-side handle bound to one junction.
// It holds no state besides the junction reference.
type Publisher struct {
	junction *Junction
}

// Send forwards a complex-event chain.
func (p *Publisher) Send(ce event.ComplexEvent) error {
	return p.junction.Send(ce)
}

// SendEvent forwards a single event.
func (p *Publisher) SendEvent(ev *event.Event) error {
	return p.junction.SendEvent(ev)
}

// SendEvents forwards an ordered batch of events.
func (p *Publisher) SendEvents(evs []*event.Event) error {
	return p.junction.SendEvents(evs)
}

// SendData forwards a raw timestamp and attribute tuple.
func (p *Publisher) SendData(timestamp int64, data []any) error {
	return p.junction.SendData(timestamp, data)
}

// StreamID returns the stream of the bound junction.
func (p *Publisher) StreamID() string {
	return p.junction.StreamID()
}
