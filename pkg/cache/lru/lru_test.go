package lru

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T, cfg *Config, opts ...Option[string, int]) *LRU[string, int] {
	t.Helper()
	c, err := New[string, int](cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestBasic(t *testing.T) {
	c := newCache(t, &Config{MaxSize: 10, DefaultTTL: time.Minute})

	c.Set("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)

	c.Set("b", 2)
	assert.Equal(t, 2, c.Len())
	c.Delete("a", "b")
	assert.Zero(t, c.Len())
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	var evicted []string
	c := newCache(t, &Config{MaxSize: 2, DefaultTTL: time.Minute},
		WithOnEvict(func(k string, _ int) { evicted = append(evicted, k) }))

	c.Set("a", 1)
	c.Set("b", 2)
	_, _ = c.Get("a")
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok)
	assert.Equal(t, []string{"b"}, evicted)
	assert.Equal(t, 2, c.Len())
}

func TestExpiry(t *testing.T) {
	c := newCache(t, &Config{MaxSize: 10, DefaultTTL: time.Minute})

	c.SetWithTTL("short", 1, time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	_, ok := c.Get("short")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestBackgroundCleanup(t *testing.T) {
	c := newCache(t, &Config{MaxSize: 10, DefaultTTL: time.Millisecond, CleanupInterval: 5 * time.Millisecond})

	c.Set("a", 1)
	assert.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestDefaultsAndClose(t *testing.T) {
	c, err := New[string, int](nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().MaxSize, c.config.MaxSize)
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}

func TestGetOrCreate(t *testing.T) {
	c := newCache(t, &Config{MaxSize: 10, DefaultTTL: 20 * time.Millisecond, CleanupInterval: -1})

	calls := 0
	create := func() int {
		calls++
		return calls * 10
	}

	assert.Equal(t, 10, c.GetOrCreate("a", create))
	assert.Equal(t, 10, c.GetOrCreate("a", create))
	assert.Equal(t, 1, calls)

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 20, c.GetOrCreate("a", create), "expired entries are recreated")
	assert.Equal(t, 1, c.Len())
}
