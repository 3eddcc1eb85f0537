package aggregate

import "sync"

// Memo caches computed values for the lifetime of one aggregation call.
// Create a new Memo per call; entries never expire.
type Memo[K comparable, V any] struct {
	mu     sync.Mutex
	values map[K]V
}

// NewMemo returns an empty memo.
func NewMemo[K comparable, V any]() *Memo[K, V] {
	return &Memo[K, V]{values: make(map[K]V)}
}

// Get returns the cached value for key, computing and storing it on a miss.
// Failed computations are not cached.
func (m *Memo[K, V]) Get(key K, compute func() (V, error)) (V, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if value, ok := m.values[key]; ok {
		return value, nil
	}

	value, err := compute()
	if err != nil {
		var zero V
		return zero, err
	}
	m.values[key] = value
	return value, nil
}

// Len reports the number of cached entries.
func (m *Memo[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.values)
}
