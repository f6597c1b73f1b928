// Package pattern provides receivers that drive stateful matchers.
//
// StreamReceiver funnels every junction delivery form into a Processor and
// runs a hook at each batch boundary. SequenceReceiver builds on it for
// pattern and sequence matching: it binds an Automaton, clones itself per
// partition key with fresh automaton state, and stabilizes (resets the
// automaton's transient match state) at the end of every batch.
//
// Within one receiver, stabilization always completes before the first event
// of the next batch is processed.
package pattern
