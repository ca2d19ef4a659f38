package cache

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeighted_PutPromotes(t *testing.T) {
	w := NewWeighted[string](2)
	w.Put("a")
	w.Put("b")
	w.Put("a")

	assert.Equal(t, []string{"b", "a"}, w.Keys())
	assert.Greater(t, w.Weight("a"), w.Weight("b"))
	assert.Equal(t, 2, w.Len())
}

func TestWeighted_WeightNotFound(t *testing.T) {
	w := NewWeighted[string](3)
	w.Put("a")

	assert.Equal(t, 0, w.Weight("a"))
	assert.Equal(t, NotFound, w.Weight("zzz"))
}

func TestWeighted_EvictsOldest(t *testing.T) {
	w := NewWeighted[string](3)
	for _, k := range []string{"a", "b", "c", "d"} {
		w.Put(k)
	}

	assert.Equal(t, []string{"b", "c", "d"}, w.Keys())
	assert.Equal(t, []string{"d", "c", "b"}, w.Newest())
	assert.Equal(t, NotFound, w.Weight("a"))
}

func TestWeighted_ReinsertKeepsSize(t *testing.T) {
	w := NewWeighted[string](3)
	w.Put("a")
	w.Put("b")
	w.Put("c")
	before := w.Weight("a")

	w.Put("a")

	assert.Equal(t, 3, w.Len())
	assert.NotEqual(t, before, w.Weight("a"))
	assert.Equal(t, 2, w.Weight("a"))
}

func TestWeighted_Delete(t *testing.T) {
	w := NewWeighted[string](3)
	w.Put("a")
	w.Put("b")

	assert.True(t, w.Delete("a"))
	assert.False(t, w.Delete("a"))
	assert.Equal(t, []string{"b"}, w.Keys())
	assert.Equal(t, 0, w.Weight("b"))
}

func TestWeighted_KeysAreCopies(t *testing.T) {
	w := NewWeighted[string](3)
	w.Put("a")
	w.Put("b")

	keys := w.Keys()
	keys[0] = "mutated"
	newest := w.Newest()
	newest[0] = "mutated"

	assert.Equal(t, []string{"a", "b"}, w.Keys())
}

func TestWeighted_Reset(t *testing.T) {
	w := NewWeighted[string](3)
	w.Put("a")
	w.Reset()
	assert.Equal(t, 0, w.Len())
	assert.Equal(t, NotFound, w.Weight("a"))
}

func TestWeighted_HoldsMostRecentAfterOverflow(t *testing.T) {
	for _, capacity := range []int{1, 3, 10} {
		t.Run(fmt.Sprintf("cap=%d", capacity), func(t *testing.T) {
			w := NewWeighted[int](capacity)
			n := capacity*2 + 3
			for i := 0; i < n; i++ {
				w.Put(i)
			}

			require.Equal(t, capacity, w.Len())
			want := make([]int, 0, capacity)
			for i := n - capacity; i < n; i++ {
				want = append(want, i)
			}
			assert.Equal(t, want, w.Keys())
		})
	}
}
