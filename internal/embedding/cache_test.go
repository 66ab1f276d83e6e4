package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCache_GetPut(t *testing.T) {
	c := NewCache(4)

	_, ok := c.Get("apple")
	assert.False(t, ok)

	c.Put("apple", []float32{1, 2})
	vec, ok := c.Get("apple")
	assert.True(t, ok)
	assert.Equal(t, []float32{1, 2}, vec)
	assert.Equal(t, 1, c.Len())
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewCache(2)
	c.Put("a", []float32{1})
	c.Put("b", []float32{2})

	// Touch "a" so "b" becomes the eviction victim.
	_, _ = c.Get("a")
	c.Put("c", []float32{3})

	_, ok := c.Get("b")
	assert.False(t, ok, "b should have been evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestCache_PutExistingUpdates(t *testing.T) {
	c := NewCache(2)
	c.Put("a", []float32{1})
	c.Put("a", []float32{9})

	vec, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, []float32{9}, vec)
	assert.Equal(t, 1, c.Len())
}
