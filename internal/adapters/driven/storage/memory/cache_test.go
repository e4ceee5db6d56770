package memory

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/titlegrid-labs/titlegrid-cli/internal/core/domain"
)

func TestResultCache_PutGet(t *testing.T) {
	cache := NewResultCache()

	outcome := domain.SourceOutcome{
		Jurisdiction: domain.Jurisdiction{Region: "MD", Subregion: "Montgomery"},
		Status:       domain.OutcomeSuccess,
		Documents:    []domain.RecordDocument{{SourceDocumentID: "2024-0001"}},
	}
	cache.Put("key-1", outcome, time.Minute)

	got, ok := cache.Get("key-1")
	require.True(t, ok)
	assert.Equal(t, domain.OutcomeSuccess, got.Status)
	assert.Len(t, got.Documents, 1)
}

func TestResultCache_Get_Absent(t *testing.T) {
	cache := NewResultCache()

	_, ok := cache.Get("missing")
	assert.False(t, ok)
}

func TestResultCache_Get_Expired(t *testing.T) {
	cache := NewResultCache()
	current := time.Now()
	cache.now = func() time.Time { return current }

	cache.Put("key-1", domain.SourceOutcome{Status: domain.OutcomeSuccess}, time.Minute)

	current = current.Add(2 * time.Minute)
	_, ok := cache.Get("key-1")
	assert.False(t, ok)
	assert.Zero(t, cache.Len())
}

func TestResultCache_Put_DefaultTTL(t *testing.T) {
	cache := NewResultCache()
	current := time.Now()
	cache.now = func() time.Time { return current }

	cache.Put("key-1", domain.SourceOutcome{Status: domain.OutcomeSuccess}, 0)

	current = current.Add(domain.DefaultCacheTTL - time.Second)
	_, ok := cache.Get("key-1")
	assert.True(t, ok)

	current = current.Add(2 * time.Second)
	_, ok = cache.Get("key-1")
	assert.False(t, ok)
}

func TestResultCache_LastWriterWins(t *testing.T) {
	cache := NewResultCache()

	cache.Put("key-1", domain.SourceOutcome{Error: "old"}, time.Minute)
	cache.Put("key-1", domain.SourceOutcome{Error: "new"}, time.Minute)

	got, ok := cache.Get("key-1")
	require.True(t, ok)
	assert.Equal(t, "new", got.Error)
}

func TestResultCache_ConcurrentAccess(t *testing.T) {
	cache := NewResultCache()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			cache.Put("shared", domain.SourceOutcome{Status: domain.OutcomeSuccess}, time.Minute)
		}()
		go func() {
			defer wg.Done()
			if got, ok := cache.Get("shared"); ok {
				assert.Equal(t, domain.OutcomeSuccess, got.Status)
			}
		}()
	}
	wg.Wait()
}
