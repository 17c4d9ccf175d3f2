package application

import (
	"sync"
	"time"

	"github.com/example/campus-scheduler/internal/scheduler"
)

// reportCache stores recently computed conflict reports so repeated report
// requests for the same user do not re-run the quadratic scan while the
// underlying reservations are unchanged. Entries expire after a short TTL
// and the cache is invalidated on every reservation write.
type reportCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]reportCacheEntry
}

type reportCacheEntry struct {
	pairs     []scheduler.ConflictPair
	expiresAt time.Time
}

func newReportCache(ttl time.Duration, maxEntries int, now func() time.Time) *reportCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 128
	}
	if now == nil {
		now = time.Now
	}
	return &reportCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]reportCacheEntry),
	}
}

func (c *reportCache) Get(userID string) ([]scheduler.ConflictPair, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	entry, ok := c.entries[userID]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, userID)
		c.mu.Unlock()
		return nil, false
	}
	return clonePairs(entry.pairs), true
}

func (c *reportCache) Store(userID string, pairs []scheduler.ConflictPair) {
	if c == nil {
		return
	}
	cloned := clonePairs(pairs)
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	if len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[userID] = reportCacheEntry{pairs: cloned, expiresAt: expiry}
}

func (c *reportCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[string]reportCacheEntry)
	c.mu.Unlock()
}

func (c *reportCache) cleanupLocked() {
	now := c.now()
	for userID, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, userID)
		}
	}
}

func (c *reportCache) evictOneLocked() {
	for userID := range c.entries {
		delete(c.entries, userID)
		return
	}
}

func clonePairs(pairs []scheduler.ConflictPair) []scheduler.ConflictPair {
	if len(pairs) == 0 {
		return nil
	}
	out := make([]scheduler.ConflictPair, len(pairs))
	copy(out, pairs)
	return out
}
