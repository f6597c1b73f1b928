// Package registry provides a generic, insertion-ordered concurrent registry.
//
// It backs the per-key receiver clones of a partition router and the
// validated extension catalog.
//
//	clones := registry.New[string, *pattern.SequenceReceiver]()
//	r, created := clones.GetOrCreate("IBM", template.Clone)
//
// GetOrCreate calls its factory at most once per key, even under concurrent
// access. Keys, Values and Range observe insertion order; Range iterates over
// a snapshot so callbacks may modify the registry.
package registry
