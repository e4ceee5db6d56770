package driven

import (
	"time"

	"github.com/titlegrid-labs/titlegrid-cli/internal/core/domain"
)

// ResultCache memoizes successful source outcomes so an identical
// query inside the TTL window never hits the live source again.
//
// The cache is shared across concurrent searches. Implementations must
// keep concurrent Get/Put for the same key safe: last writer wins,
// readers see either the old or the new value, never a torn one. A
// single lock across all entries would serialize unrelated searches
// and is not an acceptable implementation.
type ResultCache interface {
	// Get returns the cached outcome for the key, false when absent
	// or expired.
	Get(key string) (domain.SourceOutcome, bool)

	// Put stores an outcome under the key until ttl elapses.
	// Callers only cache success outcomes; failures and timeouts are
	// always retried live.
	Put(key string, outcome domain.SourceOutcome, ttl time.Duration)
}
