package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedMap_EvictsOldestInsertion(t *testing.T) {
	m := NewFixedMap[string, int](2)
	m.Set("a", 1)
	m.Set("b", 2)

	// Reads must not change eviction order.
	_, _ = m.Get("a")
	m.Set("c", 3)

	assert.False(t, m.Has("a"))
	assert.True(t, m.Has("b"))
	assert.True(t, m.Has("c"))
	assert.Equal(t, []string{"b", "c"}, m.Keys())
}

func TestFixedMap_ResetMovesToNewest(t *testing.T) {
	m := NewFixedMap[string, int](2)
	m.Set("a", 1)
	m.Set("b", 2)
	m.Set("a", 10)
	m.Set("c", 3)

	assert.False(t, m.Has("b"))
	v, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, 10, v)
	assert.Equal(t, 2, m.Len())
}

func TestFixedMap_GetMissing(t *testing.T) {
	m := NewFixedMap[string, *int](1)
	v, ok := m.Get("nope")
	assert.False(t, ok)
	assert.Nil(t, v)
}
