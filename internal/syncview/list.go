// Package syncview keeps in-memory working sets of catalog entities
// consistent with the upstream after mutations, without refetching.
//
// The contract for every List: after any create/update/delete resolves
// successfully, the list holds exactly the membership and field values
// a fresh fetch would return.
package syncview

import (
	"context"
	"sync"
)

// Entity is any record with a stable identity.
type Entity interface {
	Key() string
}

// List is a synchronized view over one entity collection. It is loaded
// once and then patched locally by Add/Replace/Remove as mutations
// succeed upstream. Safe for concurrent use.
type List[T Entity] struct {
	mu      sync.RWMutex
	items   []T
	loaded  bool
	loadErr error
}

// NewList returns an empty, unloaded list.
func NewList[T Entity]() *List[T] {
	return &List[T]{}
}

// Load fetches the collection once. On failure the list stays empty and
// the error is recorded; there is no retry here, the caller reloads
// explicitly if it wants another attempt.
func (l *List[T]) Load(ctx context.Context, fetch func(context.Context) ([]T, error)) error {
	items, err := fetch(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.loaded = true
	l.loadErr = err
	if err != nil {
		l.items = nil
		return err
	}
	l.items = make([]T, len(items))
	copy(l.items, items)
	return nil
}

// Add appends item in arrival order. If an element with the same key is
// already present it is substituted instead, so ids stay unique.
func (l *List[T]) Add(item T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.items {
		if l.items[i].Key() == item.Key() {
			l.items[i] = item
			return
		}
	}
	l.items = append(l.items, item)
}

// Replace substitutes the element whose key matches, keeping its
// position. No-op when the key is absent.
func (l *List[T]) Replace(item T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.items {
		if l.items[i].Key() == item.Key() {
			l.items[i] = item
			return
		}
	}
}

// Remove filters out the element with the given key. The relative order
// of the remaining elements is preserved.
func (l *List[T]) Remove(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.items {
		if l.items[i].Key() == key {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return
		}
	}
}

// Get returns the element with the given key.
func (l *List[T]) Get(key string) (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i := range l.items {
		if l.items[i].Key() == key {
			return l.items[i], true
		}
	}
	var zero T
	return zero, false
}

// Snapshot returns a copy of the current elements in order.
func (l *List[T]) Snapshot() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

// Len returns the number of elements.
func (l *List[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Loaded reports whether Load has completed at least once.
func (l *List[T]) Loaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loaded
}

// Err returns the error recorded by the last Load, if any.
func (l *List[T]) Err() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loadErr
}
