// internal/store/memory.go
//
// In-memory implementation of Store.
// Used for development and single-instance deployments where losing live
// rounds on restart is acceptable.
//
// Characteristics:
//   - Values are kept JSON-encoded, so callers never share pointers with the
//     store and Update always works on a private copy.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts.

package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type record struct {
	owner   string
	data    []byte
	updated time.Time
}

// memory is an in-memory map-based Store implementation.
type memory[T any] struct {
	mu    sync.RWMutex      // guards items
	items map[string]record // keyed by id
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore[T any]() Store[T] {
	return &memory[T]{items: make(map[string]record)}
}

func (m *memory[T]) Save(ctx context.Context, owner, id string, v *T) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.items[id]; ok && rec.owner != owner {
		return ErrNotFound
	}
	m.items[id] = record{owner: owner, data: b, updated: time.Now()}
	return nil
}

func (m *memory[T]) Create(ctx context.Context, owner, id string, v *T) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; ok {
		return ErrExists
	}
	m.items[id] = record{owner: owner, data: b, updated: time.Now()}
	return nil
}

func (m *memory[T]) Get(ctx context.Context, owner, id string) (*T, error) {
	m.mu.RLock()
	rec, ok := m.items[id]
	m.mu.RUnlock()
	if !ok || rec.owner != owner {
		return nil, ErrNotFound
	}
	return decode[T](rec.data)
}

func (m *memory[T]) Update(ctx context.Context, owner, id string, fn func(*T) error) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.items[id]
	if !ok || rec.owner != owner {
		return nil, ErrNotFound
	}
	v, err := decode[T](rec.data)
	if err != nil {
		return nil, err
	}
	if err := fn(v); err != nil {
		return v, err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	m.items[id] = record{owner: owner, data: b, updated: time.Now()}
	return v, nil
}

func (m *memory[T]) Prune(ctx context.Context, before time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, rec := range m.items {
		if rec.updated.Before(before) {
			delete(m.items, id)
			n++
		}
	}
	return n, nil
}
