// Package recent implements bounded most-recent-first lists.
//
// Insertion order is recency order: the newest entry is always at index 0 and
// overflow always drops entries from the tail, never the head.
package recent

import "sync"

// Prepend returns a new slice with v at the head followed by items, truncated
// to capacity. The input slice is never modified. Panics if capacity < 1.
func Prepend[T any](items []T, v T, capacity int) []T {
	if capacity < 1 {
		panic("recent: capacity must be >= 1")
	}
	n := len(items) + 1
	if n > capacity {
		n = capacity
	}
	out := make([]T, 0, n)
	out = append(out, v)
	out = append(out, items[:n-1]...)
	return out
}

// Remove returns a new slice without the entries matching fn, preserving order.
// The bool reports whether anything was removed.
func Remove[T any](items []T, match func(T) bool) ([]T, bool) {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if match(it) {
			continue
		}
		out = append(out, it)
	}
	return out, len(out) != len(items)
}

// Truncate returns items limited to capacity, dropping from the tail.
func Truncate[T any](items []T, capacity int) []T {
	if capacity < 0 || len(items) <= capacity {
		return items
	}
	return items[:capacity]
}

// List is a thread-safe bounded most-recent-first list.
type List[T any] struct {
	mu       sync.Mutex
	capacity int
	items    []T
}

// New creates a list holding at most capacity entries.
// Panics if capacity < 1.
func New[T any](capacity int) *List[T] {
	if capacity < 1 {
		panic("recent: capacity must be >= 1")
	}
	return &List[T]{capacity: capacity, items: make([]T, 0, capacity)}
}

// Push adds v at the head. Returns the evicted entry and true when the list
// was full.
func (l *List[T]) Push(v T) (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var evicted T
	full := len(l.items) == l.capacity
	if full {
		evicted = l.items[len(l.items)-1]
	}
	l.items = Prepend(l.items, v, l.capacity)
	return evicted, full
}

// Items returns a copy of the entries, newest first.
func (l *List[T]) Items() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

// Len returns the current number of entries.
func (l *List[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Clear removes all entries.
func (l *List[T]) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = make([]T, 0, l.capacity)
}
