// Package memory provides in-memory implementations of the driven
// storage ports, covering process-lifetime scope.
package memory

import (
	"sync"
	"time"

	"github.com/titlegrid-labs/titlegrid-cli/internal/core/domain"
	"github.com/titlegrid-labs/titlegrid-cli/internal/core/ports/driven"
)

// Ensure ResultCache implements the interface.
var _ driven.ResultCache = (*ResultCache)(nil)

// ResultCache is an in-memory implementation of driven.ResultCache.
// Entries live in a sync.Map keyed by the canonical cache key, so
// concurrent searches touching different keys never contend on a
// shared lock. Stored entries are immutable snapshots; a concurrent
// Put replaces the whole entry (last writer wins).
type ResultCache struct {
	entries sync.Map // string -> domain.CacheEntry

	// now is a clock seam for tests.
	now func() time.Time
}

// NewResultCache creates an empty result cache.
func NewResultCache() *ResultCache {
	return &ResultCache{now: time.Now}
}

// Get returns the cached outcome for the key, false when absent or
// expired. Expired entries are dropped on the way out.
func (c *ResultCache) Get(key string) (domain.SourceOutcome, bool) {
	val, ok := c.entries.Load(key)
	if !ok {
		return domain.SourceOutcome{}, false
	}
	entry := val.(domain.CacheEntry)
	if entry.Expired(c.now()) {
		c.entries.Delete(key)
		return domain.SourceOutcome{}, false
	}
	return entry.Outcome, true
}

// Put stores an outcome under the key until ttl elapses.
func (c *ResultCache) Put(key string, outcome domain.SourceOutcome, ttl time.Duration) {
	if ttl <= 0 {
		ttl = domain.DefaultCacheTTL
	}
	c.entries.Store(key, domain.CacheEntry{
		Outcome:   outcome,
		ExpiresAt: c.now().Add(ttl),
	})
}

// Len reports the number of live entries. Expired entries linger
// until their next Get, so Len is an upper bound.
func (c *ResultCache) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
