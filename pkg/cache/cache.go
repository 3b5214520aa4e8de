// Package cache holds recently generated feedback so repeat attempts at the
// same sign/error pair skip the upstream call. Entries expire by age and the
// cache holds a bounded number of them; everything lives in memory and is
// lost on restart.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"sync"
	"time"

	"github.com/signbridge-ai/signbridge/pkg/models"
)

// Key derives the stable cache key for a sign/error pair.
func Key(sign, errorCode string) string {
	sum := sha256.Sum256([]byte(sign + ":" + errorCode))
	return hex.EncodeToString(sum[:])
}

type entry struct {
	result   models.FeedbackResult
	storedAt time.Time
}

// Cache is a TTL-bounded, capacity-bounded store of feedback results.
// Safe for concurrent use.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]entry
	ttl        time.Duration
	maxEntries int
	hits       int64
	misses     int64
	now        func() time.Time
}

func New(ttl time.Duration, maxEntries int) *Cache {
	return NewWithClock(ttl, maxEntries, time.Now)
}

// NewWithClock is New with an injected time source, for deterministic
// expiry in tests.
func NewWithClock(ttl time.Duration, maxEntries int, now func() time.Time) *Cache {
	return &Cache{
		entries:    make(map[string]entry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        now,
	}
}

// Get looks up the cached result for a sign/error pair. Expired entries are
// deleted on sight and reported as misses. On a hit the returned copy is
// marked as cache-served; the stored record is never mutated.
func (c *Cache) Get(sign, errorCode string) (models.FeedbackResult, bool) {
	key := Key(sign, errorCode)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return models.FeedbackResult{}, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		delete(c.entries, key)
		c.misses++
		return models.FeedbackResult{}, false
	}
	c.hits++
	result := e.result
	result.ServedFromCache = true
	return result, true
}

// Put stores a result under its sign/error key, evicting the oldest entry
// first if a new key would push the cache past capacity. Rewriting an
// existing key refreshes its age and never evicts.
func (c *Cache) Put(sign, errorCode string, result models.FeedbackResult) {
	key := Key(sign, errorCode)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		for len(c.entries) >= c.maxEntries {
			c.evictOldestLocked()
		}
	}
	c.entries[key] = entry{result: result, storedAt: c.now()}
}

// evictOldestLocked removes the entry with the earliest store time.
// Ties break on key so behavior is deterministic.
func (c *Cache) evictOldestLocked() {
	var (
		oldestKey string
		oldestAt  time.Time
		found     bool
	)
	for k, e := range c.entries {
		if !found || e.storedAt.Before(oldestAt) || (e.storedAt.Equal(oldestAt) && k < oldestKey) {
			oldestKey, oldestAt, found = k, e.storedAt, true
		}
	}
	if found {
		delete(c.entries, oldestKey)
	}
}

// Clear drops every entry and returns how many were dropped. Hit and miss
// counters keep their lifetime values.
func (c *Cache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[string]entry)
	return n
}

// Len reports the current number of live entries, counting any that have
// expired but not yet been read out.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Info summarizes the cache configuration and occupancy for status reports.
func (c *Cache) Info() models.CacheInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.CacheInfo{
		Size:       len(c.entries),
		MaxSize:    c.maxEntries,
		TTLSeconds: int(c.ttl / time.Second),
	}
}

// Stats reports counters plus a per-entry listing, oldest first.
func (c *Cache) Stats() models.CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	infos := make([]models.CacheEntryInfo, 0, len(c.entries))
	for key, e := range c.entries {
		infos = append(infos, models.CacheEntryInfo{
			Key:        key,
			Sign:       e.result.Sign,
			ErrorCode:  e.result.ErrorCode,
			AgeSeconds: now.Sub(e.storedAt).Seconds(),
			Origin:     e.result.Origin,
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].AgeSeconds != infos[j].AgeSeconds {
			return infos[i].AgeSeconds > infos[j].AgeSeconds
		}
		return infos[i].Key < infos[j].Key
	})
	return models.CacheStats{
		Size:    len(c.entries),
		Hits:    c.hits,
		Misses:  c.misses,
		Entries: infos,
	}
}
