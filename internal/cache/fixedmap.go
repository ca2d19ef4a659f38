package cache

import "container/list"

// FixedMap is a map with a size limit. When a new key would exceed the limit,
// the oldest inserted key is evicted. Reads do not affect eviction order.
// It is not safe for concurrent use.
type FixedMap[K comparable, V any] struct {
	items      map[K]*list.Element
	order      *list.List // front = oldest insertion
	maxEntries int
}

type fixedEntry[K comparable, V any] struct {
	key K
	val V
}

// NewFixedMap creates a map holding at most maxEntries entries.
func NewFixedMap[K comparable, V any](maxEntries int) *FixedMap[K, V] {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &FixedMap[K, V]{
		items:      make(map[K]*list.Element),
		order:      list.New(),
		maxEntries: maxEntries,
	}
}

// Has reports whether key is present.
func (m *FixedMap[K, V]) Has(key K) bool {
	_, ok := m.items[key]
	return ok
}

// Get returns the value stored for key.
func (m *FixedMap[K, V]) Get(key K) (V, bool) {
	if elem, ok := m.items[key]; ok {
		return elem.Value.(*fixedEntry[K, V]).val, true
	}
	var zero V
	return zero, false
}

// Set stores val under key. Re-setting an existing key makes it the newest.
func (m *FixedMap[K, V]) Set(key K, val V) {
	if elem, ok := m.items[key]; ok {
		elem.Value.(*fixedEntry[K, V]).val = val
		m.order.MoveToBack(elem)
		return
	}

	for m.order.Len() >= m.maxEntries {
		oldest := m.order.Front()
		m.order.Remove(oldest)
		delete(m.items, oldest.Value.(*fixedEntry[K, V]).key)
	}

	m.items[key] = m.order.PushBack(&fixedEntry[K, V]{key: key, val: val})
}

// Len returns the number of entries.
func (m *FixedMap[K, V]) Len() int {
	return m.order.Len()
}

// Keys returns the keys from oldest to newest insertion.
func (m *FixedMap[K, V]) Keys() []K {
	keys := make([]K, 0, m.order.Len())
	for e := m.order.Front(); e != nil; e = e.Next() {
		keys = append(keys, e.Value.(*fixedEntry[K, V]).key)
	}
	return keys
}
