// Package event defines the row model carried through a junction.
//
// # Events
//
// An [Event] is an ordered, fixed-arity attribute vector plus a timestamp and
// an expiry flag. Ring slots hold preallocated events which are overwritten in
// place with [Event.CopyFrom] or [Event.Set]; no allocation happens per publish.
//
//	slot := event.NewEvent(3)
//	slot.Set(1700000000000, []any{"IBM", 75.6, int64(100)})
//
// # Complex-event chains
//
// Rows produced together by one upstream operation are linked through Next
// and delivered as a [ComplexEvent]. Chains are walked forward only:
//
//	head := event.Chain(event.New(1, "a"), event.New(2, "b"))
//	event.Each(head, func(row event.ComplexEvent) bool {
//	    fmt.Println(row.Attributes())
//	    return true
//	})
//
// # Ownership
//
// An event handed to a receiver by an asynchronous junction belongs to the
// ring slot. Receivers that keep data past the delivery must copy it with
// [Event.Clone] or [CloneOf].
package event
