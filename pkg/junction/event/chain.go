package event

// Chain links the given events in order and returns the head.
// Existing Next pointers on the inputs are overwritten. Nil inputs are skipped.
func Chain(events ...*Event) *Event {
	var head, tail *Event
	for _, ev := range events {
		if ev == nil {
			continue
		}
		ev.Next = nil
		if head == nil {
			head = ev
		} else {
			tail.Next = ev
		}
		tail = ev
	}
	return head
}

// Each visits every row of a chain in order until fn returns false.
func Each(ce ComplexEvent, fn func(ComplexEvent) bool) {
	for cur := ce; cur != nil; cur = cur.NextEvent() {
		if !fn(cur) {
			return
		}
	}
}

// ChainLen returns the number of rows in a chain. A nil chain has length 0.
func ChainLen(ce ComplexEvent) int {
	n := 0
	for cur := ce; cur != nil; cur = cur.NextEvent() {
		n++
	}
	return n
}

// Slice flattens a chain into detached copies, preserving chain order.
func Slice(ce ComplexEvent) []*Event {
	out := make([]*Event, 0, ChainLen(ce))
	Each(ce, func(row ComplexEvent) bool {
		out = append(out, CloneOf(row))
		return true
	})
	return out
}
