// Package cache provides the bounded in-memory structures used to rank and
// remember files and projects: an LRU map, a weighted recency list and a
// fixed-size map.
package cache

import "container/list"

// LRU is a generic least-recently-used map with a fixed capacity.
// Get and Set promote the touched entry to the most-recent position.
// It is not safe for concurrent use.
type LRU[K comparable, V any] struct {
	items    map[K]*list.Element
	order    *list.List // front = most recently used
	capacity int
}

type lruEntry[K comparable, V any] struct {
	key K
	val V
}

// Entry is a key/value pair returned by LRU.Entries.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// NewLRU creates a new LRU map holding at most capacity entries.
func NewLRU[K comparable, V any](capacity int) *LRU[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	return &LRU[K, V]{
		capacity: capacity,
		items:    make(map[K]*list.Element, capacity),
		order:    list.New(),
	}
}

// Get retrieves a value and marks it as most recently used.
// Returns the value and true if found, zero value and false otherwise.
func (l *LRU[K, V]) Get(key K) (V, bool) {
	if elem, ok := l.items[key]; ok {
		l.order.MoveToFront(elem)
		return elem.Value.(*lruEntry[K, V]).val, true
	}
	var zero V
	return zero, false
}

// Peek retrieves a value without touching the recency order.
func (l *LRU[K, V]) Peek(key K) (V, bool) {
	if elem, ok := l.items[key]; ok {
		return elem.Value.(*lruEntry[K, V]).val, true
	}
	var zero V
	return zero, false
}

// Set adds or updates a value and marks it as most recently used.
// When the map grows beyond its capacity the least recently used entry is evicted.
func (l *LRU[K, V]) Set(key K, val V) {
	if elem, ok := l.items[key]; ok {
		elem.Value.(*lruEntry[K, V]).val = val
		l.order.MoveToFront(elem)
		return
	}

	elem := l.order.PushFront(&lruEntry[K, V]{key: key, val: val})
	l.items[key] = elem

	for l.order.Len() > l.capacity {
		l.evictOldest()
	}
}

// Delete removes an entry. It reports whether the key was present.
func (l *LRU[K, V]) Delete(key K) bool {
	if elem, ok := l.items[key]; ok {
		l.removeElement(elem)
		return true
	}
	return false
}

// DeleteFunc removes all entries matching the predicate.
// Returns the number of entries removed.
func (l *LRU[K, V]) DeleteFunc(pred func(K, V) bool) int {
	var toRemove []*list.Element
	for e := l.order.Front(); e != nil; e = e.Next() {
		entry := e.Value.(*lruEntry[K, V])
		if pred(entry.key, entry.val) {
			toRemove = append(toRemove, e)
		}
	}

	for _, e := range toRemove {
		l.removeElement(e)
	}
	return len(toRemove)
}

// Has reports whether key is present without promoting it.
func (l *LRU[K, V]) Has(key K) bool {
	_, ok := l.items[key]
	return ok
}

// Len returns the number of entries.
func (l *LRU[K, V]) Len() int {
	return l.order.Len()
}

// Cap returns the configured capacity.
func (l *LRU[K, V]) Cap() int {
	return l.capacity
}

// Clear removes all entries.
func (l *LRU[K, V]) Clear() {
	l.items = make(map[K]*list.Element, l.capacity)
	l.order.Init()
}

// Keys returns all keys, most recently used first.
func (l *LRU[K, V]) Keys() []K {
	keys := make([]K, 0, l.order.Len())
	for e := l.order.Front(); e != nil; e = e.Next() {
		keys = append(keys, e.Value.(*lruEntry[K, V]).key)
	}
	return keys
}

// Values returns all values, most recently used first.
func (l *LRU[K, V]) Values() []V {
	vals := make([]V, 0, l.order.Len())
	for e := l.order.Front(); e != nil; e = e.Next() {
		vals = append(vals, e.Value.(*lruEntry[K, V]).val)
	}
	return vals
}

// Entries returns all key/value pairs, most recently used first.
func (l *LRU[K, V]) Entries() []Entry[K, V] {
	entries := make([]Entry[K, V], 0, l.order.Len())
	for e := l.order.Front(); e != nil; e = e.Next() {
		entry := e.Value.(*lruEntry[K, V])
		entries = append(entries, Entry[K, V]{Key: entry.key, Value: entry.val})
	}
	return entries
}

func (l *LRU[K, V]) evictOldest() {
	back := l.order.Back()
	if back == nil {
		return
	}
	l.removeElement(back)
}

func (l *LRU[K, V]) removeElement(elem *list.Element) {
	entry := elem.Value.(*lruEntry[K, V])
	l.order.Remove(elem)
	delete(l.items, entry.key)
}
