package lru

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestGetPut(t *testing.T) {
	c := New[string, int](2)
	c.Put("a", 1, time.Time{})
	c.Put("b", 2, time.Time{})

	v, ok := c.Get("a", t0)
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get("missing", t0)
	assert.False(t, ok)
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := New[string, int](2)
	c.Put("a", 1, time.Time{})
	c.Put("b", 2, time.Time{})
	c.Get("a", t0)

	evicted, ok := c.Put("c", 3, time.Time{})
	assert.True(t, ok)
	assert.Equal(t, "b", evicted)
	assert.Equal(t, []string{"c", "a"}, c.keys())
}

func TestPutReplaces(t *testing.T) {
	c := New[string, int](2)
	c.Put("a", 1, time.Time{})
	_, evicted := c.Put("a", 9, time.Time{})
	assert.False(t, evicted)
	assert.Equal(t, 1, c.Len())

	v, _ := c.Get("a", t0)
	assert.Equal(t, 9, v)
}

func TestExpiry(t *testing.T) {
	c := New[string, int](4)
	c.Put("short", 1, t0.Add(time.Minute))
	c.Put("forever", 2, time.Time{})

	_, ok := c.Get("short", t0)
	assert.True(t, ok)

	_, ok = c.Get("short", t0.Add(2*time.Minute))
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len(), "expired entry is dropped on lookup")

	_, ok = c.Get("forever", t0.Add(24*time.Hour))
	assert.True(t, ok)
}

func TestDeleteAndPurge(t *testing.T) {
	c := New[string, int](3)
	c.Put("a", 1, time.Time{})
	c.Put("b", 2, time.Time{})

	assert.True(t, c.Delete("a"))
	assert.False(t, c.Delete("a"))
	assert.Equal(t, []string{"b"}, c.keys())

	c.Purge()
	assert.Equal(t, 0, c.Len())
	c.Put("c", 3, time.Time{})
	assert.Equal(t, []string{"c"}, c.keys())
}

func TestNewPanicsOnZeroCapacity(t *testing.T) {
	assert.Panics(t, func() { New[string, int](0) })
}

func TestConcurrentAccess(t *testing.T) {
	c := New[string, int](50)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				k := fmt.Sprintf("k%d", (g*200+i)%80)
				c.Put(k, i, time.Time{})
				c.Get(k, t0)
				if i%7 == 0 {
					c.Delete(k)
				}
			}
		}(g)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 50)
}
