package cache

import (
	"time"

	"github.com/dgraph-io/ristretto"
)

// ReportCache holds rendered dashboard reports for a short TTL so repeated
// polling does not rescan the metrics store.
type ReportCache struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

// New creates a cache bounded to 2^maxSizePow2 bytes. A non-positive ttl
// disables caching: Set is a no-op and Get always misses.
func New(maxSizePow2 int, ttl time.Duration) (*ReportCache, error) {
	maxCost := max(1, int64(1)<<maxSizePow2)
	numCounters := max(1, maxCost/1024) // ~1KB per report estimate

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: numCounters,
		MaxCost:     maxCost,
		BufferItems: 64,
		Metrics:     true,
	})
	if err != nil {
		return nil, err
	}
	return &ReportCache{cache: cache, ttl: ttl}, nil
}

func (c *ReportCache) Get(key string) ([]byte, bool) {
	val, found := c.cache.Get(key)
	if !found {
		return nil, false
	}
	return val.([]byte), true
}

// Set stores body under key and waits until it is visible to Get.
func (c *ReportCache) Set(key string, body []byte) {
	if c.ttl <= 0 {
		return
	}
	if c.cache.SetWithTTL(key, body, int64(len(body)), c.ttl) {
		c.cache.Wait()
	}
}

func (c *ReportCache) TTL() time.Duration {
	return c.ttl
}

func (c *ReportCache) Close() {
	c.cache.Close()
}

func (c *ReportCache) Stats() (hits, misses uint64, ratio float64) {
	metrics := c.cache.Metrics
	hits = metrics.Hits()
	misses = metrics.Misses()
	ratio = metrics.Ratio()
	return
}
