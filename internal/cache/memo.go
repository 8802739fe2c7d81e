// Package cache memoises expensive dashboard loads. An entry is reused
// while the caller-supplied version (for example the data store's last
// update time) is unchanged and is dropped on explicit invalidation.
package cache

import (
	"sync"
)

type entry[V any] struct {
	version string
	value   V
}

// Memo is a concurrency-safe key→value memo.
type Memo[V any] struct {
	mu      sync.Mutex
	entries map[string]entry[V]
	hits    uint64
	misses  uint64
}

// NewMemo creates an empty memo.
func NewMemo[V any]() *Memo[V] {
	return &Memo[V]{entries: make(map[string]entry[V])}
}

// Get returns the cached value for key if it was loaded at version;
// otherwise it calls load, caches a successful result and returns it.
// Load errors are returned and not cached.
func (m *Memo[V]) Get(key, version string, load func() (V, error)) (V, error) {
	m.mu.Lock()
	if e, ok := m.entries[key]; ok && e.version == version {
		m.hits++
		m.mu.Unlock()
		return e.value, nil
	}
	m.misses++
	m.mu.Unlock()

	v, err := load()
	if err != nil {
		var zero V
		return zero, err
	}

	m.mu.Lock()
	m.entries[key] = entry[V]{version: version, value: v}
	m.mu.Unlock()
	return v, nil
}

// Invalidate drops key.
func (m *Memo[V]) Invalidate(key string) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}

// InvalidateAll drops every entry.
func (m *Memo[V]) InvalidateAll() {
	m.mu.Lock()
	m.entries = make(map[string]entry[V])
	m.mu.Unlock()
}

// Stats returns hit and miss counts.
func (m *Memo[V]) Stats() (hits, misses uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits, m.misses
}
