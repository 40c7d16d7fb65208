package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheHitWithinTTL(t *testing.T) {
	c := New[string](time.Minute, 0)
	c.Set("k", "v")

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", got)
}

func TestCacheMissAfterExpiry(t *testing.T) {
	c := New[string](time.Minute, 0)

	now := time.Now()
	c.now = func() time.Time { return now }
	c.Set("k", "v")

	// Advance past the TTL.
	c.now = func() time.Time { return now.Add(2 * time.Minute) }

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(), "expired entry should be dropped on read")
}

func TestCachePerEntryTTL(t *testing.T) {
	c := New[int](time.Hour, 0)

	now := time.Now()
	c.now = func() time.Time { return now }
	c.SetTTL("short", 1, time.Second)
	c.Set("long", 2)

	c.now = func() time.Time { return now.Add(10 * time.Second) }

	_, ok := c.Get("short")
	assert.False(t, ok)
	v, ok := c.Get("long")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestCacheEvictsSoonestWhenFull(t *testing.T) {
	c := New[int](time.Hour, 2)

	now := time.Now()
	c.now = func() time.Time { return now }
	c.SetTTL("a", 1, time.Minute)
	c.SetTTL("b", 2, time.Hour)
	c.SetTTL("c", 3, time.Hour)

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok, "entry closest to expiry should be evicted")
	_, ok = c.Get("b")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestCacheOverwriteDoesNotEvict(t *testing.T) {
	c := New[int](time.Hour, 2)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("a", 10)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 10, v)
	_, ok = c.Get("b")
	assert.True(t, ok)
}

func TestGetOrCompute(t *testing.T) {
	c := New[int](time.Minute, 0)

	calls := 0
	compute := func() (int, error) {
		calls++
		return 42, nil
	}

	v, err := c.GetOrCompute("k", compute)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = c.GetOrCompute("k", compute)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, calls, "second call should hit the cache")
}

func TestGetOrComputeErrorNotCached(t *testing.T) {
	c := New[int](time.Minute, 0)

	boom := errors.New("boom")
	_, err := c.GetOrCompute("k", func() (int, error) { return 0, boom })
	require.ErrorIs(t, err, boom)

	v, err := c.GetOrCompute("k", func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}
