package registry

import (
	"fmt"
	"sort"
	"sync"
)

// Registry is a concurrency-safe keyed store.
type Registry[T any] struct {
	mu    sync.RWMutex
	items map[string]T
}

// New creates an empty registry.
func New[T any]() *Registry[T] {
	return &Registry[T]{
		items: make(map[string]T),
	}
}

// Register adds an item. An item with the same id is overwritten.
func (r *Registry[T]) Register(id string, item T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[id] = item
}

// Unregister removes an item and reports whether it existed.
func (r *Registry[T]) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.items[id]
	delete(r.items, id)
	return ok
}

// Get looks up an item by id.
func (r *Registry[T]) Get(id string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[id]
	return item, ok
}

// MustGet returns the item or an error naming the missing id.
func (r *Registry[T]) MustGet(id string) (T, error) {
	item, ok := r.Get(id)
	if !ok {
		var zero T
		return zero, fmt.Errorf("not registered: %s", id)
	}
	return item, nil
}

// Has reports whether id is registered.
func (r *Registry[T]) Has(id string) bool {
	_, ok := r.Get(id)
	return ok
}

// IDs returns the registered ids, sorted.
func (r *Registry[T]) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.items))
	for id := range r.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// List returns the items ordered by id.
func (r *Registry[T]) List() []T {
	ids := r.IDs()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		if item, ok := r.items[id]; ok {
			out = append(out, item)
		}
	}
	return out
}

// Len returns the number of items.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Clear removes every item.
func (r *Registry[T]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = make(map[string]T)
}
