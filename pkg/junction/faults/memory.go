package faults

import (
	"slices"
	"sync"
)

// MemoryStore keeps fault records in memory.
// Data is lost when the process exits.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
	closed  bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append implements Store.
func (m *MemoryStore) Append(rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	// Copy attributes to avoid retaining the caller's slice.
	rec.Attributes = slices.Clone(rec.Attributes)
	m.records = append(m.records, rec)
	return nil
}

// List implements Store.
func (m *MemoryStore) List(streamID string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}
	out := make([]Record, 0, len(m.records))
	for _, rec := range m.records {
		if streamID == "" || rec.StreamID == streamID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Count implements Store.
func (m *MemoryStore) Count(streamID string) (int, error) {
	recs, err := m.List(streamID)
	return len(recs), err
}

// Clear implements Store.
func (m *MemoryStore) Clear(streamID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	if streamID == "" {
		m.records = nil
		return nil
	}
	m.records = slices.DeleteFunc(m.records, func(rec Record) bool {
		return rec.StreamID == streamID
	})
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
