package registry

import "sync"

// Registry is a concurrent keyed store that remembers insertion order.
// Reads take a shared lock; writes take the exclusive lock.
type Registry[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]V
	order   []K
}

// New creates an empty registry.
func New[K comparable, V any]() *Registry[K, V] {
	return &Registry[K, V]{
		entries: make(map[K]V),
	}
}

// Add stores value under key if the key is not present.
// It reports whether the value was stored.
func (r *Registry[K, V]) Add(key K, value V) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[key]; ok {
		return false
	}
	r.entries[key] = value
	r.order = append(r.order, key)
	return true
}

// Put stores value under key, replacing any previous value.
// A replaced key keeps its original position.
func (r *Registry[K, V]) Put(key K, value V) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[key]; !ok {
		r.order = append(r.order, key)
	}
	r.entries[key] = value
}

// Get returns the value for key and whether it exists.
func (r *Registry[K, V]) Get(key K) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.entries[key]
	return v, ok
}

// GetOrCreate returns the value for key, building it with create when absent.
// create runs at most once per key, under the write lock, so it must not call
// back into the registry. The second result reports whether a value was created.
func (r *Registry[K, V]) GetOrCreate(key K, create func(K) V) (V, bool) {
	r.mu.RLock()
	v, ok := r.entries[key]
	r.mu.RUnlock()
	if ok {
		return v, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.entries[key]; ok {
		return v, false
	}
	v = create(key)
	r.entries[key] = v
	r.order = append(r.order, key)
	return v, true
}

// Remove deletes key and returns the removed value.
func (r *Registry[K, V]) Remove(key K) (V, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.entries[key]
	if !ok {
		return v, false
	}
	delete(r.entries, key)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i:i], r.order[i+1:]...)
			break
		}
	}
	return v, true
}

// Has reports whether key is present.
func (r *Registry[K, V]) Has(key K) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[key]
	return ok
}

// Len returns the number of entries.
func (r *Registry[K, V]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Keys returns the keys in insertion order.
func (r *Registry[K, V]) Keys() []K {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]K, len(r.order))
	copy(keys, r.order)
	return keys
}

// Values returns the values in key insertion order.
func (r *Registry[K, V]) Values() []V {
	r.mu.RLock()
	defer r.mu.RUnlock()
	values := make([]V, 0, len(r.order))
	for _, k := range r.order {
		values = append(values, r.entries[k])
	}
	return values
}

// Range calls fn for each entry in insertion order until fn returns false.
// It iterates over a snapshot, so fn may modify the registry.
func (r *Registry[K, V]) Range(fn func(K, V) bool) {
	r.mu.RLock()
	keys := make([]K, len(r.order))
	copy(keys, r.order)
	values := make([]V, len(keys))
	for i, k := range keys {
		values[i] = r.entries[k]
	}
	r.mu.RUnlock()

	for i, k := range keys {
		if !fn(k, values[i]) {
			return
		}
	}
}

// Clear removes every entry and returns the removed values in insertion order.
func (r *Registry[K, V]) Clear() []V {
	r.mu.Lock()
	defer r.mu.Unlock()

	values := make([]V, 0, len(r.order))
	for _, k := range r.order {
		values = append(values, r.entries[k])
	}
	r.entries = make(map[K]V)
	r.order = nil
	return values
}
