package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DefaultCacheTTL bounds how long a successful outcome may be reused.
const DefaultCacheTTL = time.Hour

// CacheEntry is a time-bounded snapshot of a successful outcome.
// Invalidated by time only; there is no write-through invalidation.
type CacheEntry struct {
	// Outcome is the cached dispatch result.
	Outcome SourceOutcome

	// ExpiresAt is the entry's expiry instant.
	ExpiresAt time.Time
}

// Expired reports whether the entry is past its expiry at now.
func (e CacheEntry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// CacheKey derives the canonical cache key for one (jurisdiction,
// connector) dispatch of a query. Identifying fields are lower-cased
// and space-collapsed so incidental formatting differences still hit
// the cache.
func CacheKey(j Jurisdiction, connectorType string, q Query) string {
	kinds := make([]string, 0, len(q.DocumentFilters))
	for _, k := range q.DocumentFilters {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)

	parts := []string{
		j.Key(),
		connectorType,
		normalizeField(q.ParcelID),
		normalizeField(q.PropertyAddress),
		normalizeField(q.OwnerName),
		strconv.Itoa(q.YearsBack),
		strconv.Itoa(q.MaxResults),
		strings.Join(kinds, ","),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

func normalizeField(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
