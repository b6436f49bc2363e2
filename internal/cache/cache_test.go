package cache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crmguard/internal/cache"
)

func TestNew_ValidSize(t *testing.T) {
	c, err := cache.New(10, time.Second) // 2^10 = 1KB
	require.NoError(t, err)
	require.NotNil(t, c)
	defer c.Close()

	assert.Equal(t, time.Second, c.TTL())
}

func TestNew_ZeroSize(t *testing.T) {
	c, err := cache.New(0, time.Second) // 2^0 = 1 byte (min)
	require.NoError(t, err)
	require.NotNil(t, c)
	defer c.Close()
}

func TestGet_MissingKey(t *testing.T) {
	c, err := cache.New(10, time.Second)
	require.NoError(t, err)
	defer c.Close()

	val, found := c.Get("nonexistent")
	assert.False(t, found)
	assert.Nil(t, val)
}

func TestSetThenGet(t *testing.T) {
	c, err := cache.New(20, time.Minute) // 2^20 = 1MB
	require.NoError(t, err)
	defer c.Close()

	body := []byte(`{"success":true,"data":{"overview":null}}`)
	c.Set("overview:10", body)

	val, found := c.Get("overview:10")
	assert.True(t, found)
	assert.Equal(t, body, val)
}

func TestSet_UpdateExisting(t *testing.T) {
	c, err := cache.New(20, time.Minute)
	require.NoError(t, err)
	defer c.Close()

	c.Set("overview:10", []byte(`{"v":1}`))
	c.Set("overview:10", []byte(`{"v":2}`))

	val, found := c.Get("overview:10")
	assert.True(t, found)
	assert.Equal(t, []byte(`{"v":2}`), val)
}

func TestSet_Expires(t *testing.T) {
	c, err := cache.New(20, 50*time.Millisecond)
	require.NoError(t, err)
	defer c.Close()

	c.Set("overview:10", []byte(`{}`))
	_, found := c.Get("overview:10")
	require.True(t, found)

	require.Eventually(t, func() bool {
		_, found := c.Get("overview:10")
		return !found
	}, 3*time.Second, 20*time.Millisecond)
}

func TestSet_DisabledByZeroTTL(t *testing.T) {
	c, err := cache.New(20, 0)
	require.NoError(t, err)
	defer c.Close()

	c.Set("overview:10", []byte(`{}`))

	_, found := c.Get("overview:10")
	assert.False(t, found)
}

func TestStats_AfterOperations(t *testing.T) {
	c, err := cache.New(20, time.Minute)
	require.NoError(t, err)
	defer c.Close()

	// Initial stats
	hits, misses, _ := c.Stats()
	assert.Equal(t, uint64(0), hits)
	assert.Equal(t, uint64(0), misses)

	// Cause a miss
	c.Get("nonexistent")

	_, misses, _ = c.Stats()
	assert.Equal(t, uint64(1), misses)

	// Add and hit
	c.Set("key1", []byte("value1"))
	c.Get("key1")

	hits, _, ratio := c.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, 0.5, ratio)
}
