package cache

import "slices"

// NotFound is the weight reported for keys that are not in a Weighted cache.
const NotFound = -1

// Weighted is a bounded recency list used for ranking. The most recently put
// key has the highest weight (its index in the list). Reads never reorder it.
// It is not safe for concurrent use.
type Weighted[K comparable] struct {
	keys     []K // oldest first
	capacity int
}

// NewWeighted creates a weighted cache holding at most capacity keys.
func NewWeighted[K comparable](capacity int) *Weighted[K] {
	if capacity < 1 {
		capacity = 1
	}
	return &Weighted[K]{capacity: capacity}
}

// Put moves key to the most recent position, inserting it if needed.
// Inserting into a full cache drops the oldest keys first.
func (w *Weighted[K]) Put(key K) {
	if idx := slices.Index(w.keys, key); idx >= 0 {
		w.keys = slices.Delete(w.keys, idx, idx+1)
	} else {
		for len(w.keys) >= w.capacity {
			w.keys = slices.Delete(w.keys, 0, 1)
		}
	}
	w.keys = append(w.keys, key)
}

// Weight returns the recency weight of key, or NotFound.
// A higher weight means more recently used.
func (w *Weighted[K]) Weight(key K) int {
	return slices.Index(w.keys, key)
}

// Delete removes key. It reports whether the key was present.
func (w *Weighted[K]) Delete(key K) bool {
	idx := slices.Index(w.keys, key)
	if idx < 0 {
		return false
	}
	w.keys = slices.Delete(w.keys, idx, idx+1)
	return true
}

// Keys returns the keys ordered from oldest to newest (ascending weight).
func (w *Weighted[K]) Keys() []K {
	return slices.Clone(w.keys)
}

// Newest returns the keys ordered from newest to oldest.
func (w *Weighted[K]) Newest() []K {
	out := slices.Clone(w.keys)
	slices.Reverse(out)
	return out
}

// Len returns the number of keys.
func (w *Weighted[K]) Len() int {
	return len(w.keys)
}

// Cap returns the configured capacity.
func (w *Weighted[K]) Cap() int {
	return w.capacity
}

// Reset removes all keys.
func (w *Weighted[K]) Reset() {
	w.keys = nil
}
