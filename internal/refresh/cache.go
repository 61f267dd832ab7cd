package refresh

import (
	"fmt"
	"sync"
	"time"

	"stockboard/internal/domain"
)

// resultCache is a short-lived front-line cache keyed by (symbol, days). It
// absorbs request bursts from a UI that re-invokes GetHistory on every
// render; it is an optimization, not a correctness requirement, so entries
// expire on a short TTL and staleness decisions remain with the policy.
type resultCache struct {
	ttl     time.Duration
	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	result  *domain.RefreshResult
	expires time.Time
}

func newResultCache(ttl time.Duration) *resultCache {
	return &resultCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

func cacheKey(symbol string, days int) string {
	return fmt.Sprintf("%s|%d", symbol, days)
}

// get returns the cached result for (symbol, days) if present and unexpired.
func (c *resultCache) get(symbol string, days int) (*domain.RefreshResult, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[cacheKey(symbol, days)]
	if !ok || time.Now().After(e.expires) {
		return nil, false
	}
	return e.result, true
}

// put stores a result and opportunistically drops expired entries.
func (c *resultCache) put(symbol string, days int, result *domain.RefreshResult) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for k, e := range c.entries {
		if now.After(e.expires) {
			delete(c.entries, k)
		}
	}
	c.entries[cacheKey(symbol, days)] = cacheEntry{result: result, expires: now.Add(c.ttl)}
}
