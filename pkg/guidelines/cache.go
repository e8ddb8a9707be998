package guidelines

import (
	"sync"
	"time"
)

// cacheEntry holds fetched content and when it was fetched.
type cacheEntry struct {
	content   string
	fetchedAt time.Time
}

// cache is a single-slot TTL cache: Evo has exactly one guidelines
// document configured at a time, so there is no keying, unlike the
// teacher's per-URL runbook cache.
type cache struct {
	mu    sync.RWMutex
	ttl   time.Duration
	entry *cacheEntry
}

func newCache(ttl time.Duration) *cache {
	return &cache{ttl: ttl}
}

// get returns the cached content if present and not yet expired.
func (c *cache) get() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.entry == nil {
		return "", false
	}
	if time.Since(c.entry.fetchedAt) > c.ttl {
		return "", false
	}
	return c.entry.content, true
}

func (c *cache) set(content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = &cacheEntry{content: content, fetchedAt: time.Now()}
}
