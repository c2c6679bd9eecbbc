package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/empirica-legal/expediente-tracker/internal/checker"
)

// Cache keeps the most recent check result per case so status polls do not
// hit the database or re-trigger fetches.
type Cache interface {
	Get(key string) (*checker.CheckResult, bool)
	Set(key string, value *checker.CheckResult) error
	Delete(key string)
	Clear()
	Stats() CacheStats
}

type CacheStats struct {
	Hits       int64     `json:"hits"`
	Misses     int64     `json:"misses"`
	Size       int       `json:"size"`
	LastAccess time.Time `json:"last_access"`
}

type ResultCache struct {
	cache   *cache.Cache
	mu      sync.RWMutex
	stats   CacheStats
	maxSize int
}

func NewCache(maxSize int, ttl time.Duration) Cache {
	return &ResultCache{
		cache:   cache.New(ttl, ttl*2),
		maxSize: maxSize,
	}
}

func (c *ResultCache) Get(key string) (*checker.CheckResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.LastAccess = time.Now()

	if data, found := c.cache.Get(key); found {
		c.stats.Hits++
		if result, ok := data.(*checker.CheckResult); ok {
			return result, true
		}
	}

	c.stats.Misses++
	return nil, false
}

func (c *ResultCache) Set(key string, value *checker.CheckResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cache.ItemCount() >= c.maxSize {
		c.removeOldest()
	}

	c.cache.Set(key, value, cache.DefaultExpiration)
	return nil
}

func (c *ResultCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Delete(key)
}

func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Flush()
	c.stats = CacheStats{}
}

func (c *ResultCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := c.stats
	stats.Size = c.cache.ItemCount()
	return stats
}

func (c *ResultCache) removeOldest() {
	items := c.cache.Items()
	if len(items) == 0 {
		return
	}

	var oldestKey string
	var oldestTime time.Time

	for key, item := range items {
		if oldestTime.IsZero() || item.Expiration < oldestTime.Unix() {
			oldestKey = key
			oldestTime = time.Unix(item.Expiration, 0)
		}
	}

	if oldestKey != "" {
		c.cache.Delete(oldestKey)
	}
}

// ResultKey builds the cache key for a case's latest check result.
func ResultKey(caseID uint) string {
	return fmt.Sprintf("check:%d", caseID)
}
