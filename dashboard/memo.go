package dashboard

import (
	"context"
	"sync"
)

// memo lazily loads a value once and keeps it until Reset. Failed loads are not
// cached, so the next caller tries again.
type memo[T any] struct {
	mu     sync.Mutex
	load   func(ctx context.Context) (T, error)
	value  T
	loaded bool
}

func newMemo[T any](load func(ctx context.Context) (T, error)) *memo[T] {
	return &memo[T]{load: load}
}

func (m *memo[T]) Get(ctx context.Context) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loaded {
		return m.value, nil
	}
	value, err := m.load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	m.value = value
	m.loaded = true
	return value, nil
}

func (m *memo[T]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero T
	m.value = zero
	m.loaded = false
}
