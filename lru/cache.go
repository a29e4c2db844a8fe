// Package lru implements a generic, thread-safe least-recently-used cache
// whose entries may carry an expiry time.
package lru

import (
	"container/list"
	"sync"
	"time"
)

type entry[K comparable, V any] struct {
	key       K
	val       V
	expiresAt time.Time // zero means never
}

func (e *entry[K, V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Cache holds at most capacity entries. Expired entries are dropped lazily
// on lookup.
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List // front is most recently used
	items    map[K]*list.Element
}

// New creates a cache. Panics if capacity < 1.
func New[K comparable, V any](capacity int) *Cache[K, V] {
	if capacity < 1 {
		panic("lru: capacity must be >= 1")
	}
	return &Cache[K, V]{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[K]*list.Element, capacity),
	}
}

// Get returns the value for key unless it is absent or expired at now.
func (c *Cache[K, V]) Get(key K, now time.Time) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.items[key]
	if !ok {
		return zero, false
	}
	e := el.Value.(*entry[K, V])
	if e.expired(now) {
		c.removeElement(el)
		return zero, false
	}
	c.ll.MoveToFront(el)
	return e.val, true
}

// Put inserts or replaces key. A zero expiresAt never expires. Returns the
// evicted key and true when the cache was full.
func (c *Cache[K, V]) Put(key K, val V, expiresAt time.Time) (K, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var evicted K
	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry[K, V])
		e.val, e.expiresAt = val, expiresAt
		c.ll.MoveToFront(el)
		return evicted, false
	}

	full := c.ll.Len() >= c.capacity
	if full {
		victim := c.ll.Back()
		evicted = victim.Value.(*entry[K, V]).key
		c.removeElement(victim)
	}
	c.items[key] = c.ll.PushFront(&entry[K, V]{key: key, val: val, expiresAt: expiresAt})
	return evicted, full
}

// Delete removes key and reports whether it was present.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if ok {
		c.removeElement(el)
	}
	return ok
}

// Len returns the number of entries, expired ones included.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// keys returns the keys from most to least recently used.
func (c *Cache[K, V]) keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]K, 0, c.ll.Len())
	for el := c.ll.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*entry[K, V]).key)
	}
	return keys
}

// Purge removes every entry.
func (c *Cache[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = make(map[K]*list.Element, c.capacity)
}

func (c *Cache[K, V]) removeElement(el *list.Element) {
	c.ll.Remove(el)
	delete(c.items, el.Value.(*entry[K, V]).key)
}
