package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestMemoryCache 测试内存缓存的基本功能
func TestMemoryCache(t *testing.T) {
	c := New[string](Config{DefaultTTL: 2 * time.Second, CleanupInterval: time.Second})

	c.Set("key1", "value1", 0)
	val, found := c.Get("key1")
	assert.True(t, found)
	assert.Equal(t, "value1", val)

	val, found = c.Get("non-existent")
	assert.False(t, found)
	assert.Empty(t, val)

	// 测试过期
	c.Set("expire-soon", "temp-value", 200*time.Millisecond)
	time.Sleep(500 * time.Millisecond)
	_, found = c.Get("expire-soon")
	assert.False(t, found)

	c.Set("to-delete", "delete-me", 0)
	c.Delete("to-delete")
	_, found = c.Get("to-delete")
	assert.False(t, found)

	c.Set("a", "1", 0)
	c.Set("b", "2", 0)
	c.Clear()
	assert.Zero(t, c.Len())
}

type page struct {
	number int
}

func TestTypedValues(t *testing.T) {
	c := New[*page](DefaultConfig())
	c.Set("page:1", &page{number: 1}, 0)

	p, found := c.Get("page:1")
	assert.True(t, found)
	assert.Equal(t, 1, p.number)

	p, found = c.Get("page:2")
	assert.False(t, found)
	assert.Nil(t, p)
}

func TestGenerateCacheKey(t *testing.T) {
	assert.Equal(t, "page", GenerateCacheKey("page"))
	assert.Equal(t, "page:doc.pdf:3", GenerateCacheKey("page", "doc.pdf", "3"))
}
