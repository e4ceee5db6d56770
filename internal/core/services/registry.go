package services

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/titlegrid-labs/titlegrid-cli/internal/core/domain"
	"github.com/titlegrid-labs/titlegrid-cli/internal/core/ports/driving"
	"github.com/titlegrid-labs/titlegrid-cli/internal/logger"
)

// Ensure SourceRegistry implements the interface.
var _ driving.SourceCatalog = (*SourceRegistry)(nil)

// SourceRegistry is the process-wide catalog of record sources.
// It is populated at startup and read-mostly afterwards; registration
// after startup is allowed and safe under concurrent reads. Callers
// always receive descriptor copies, never registry-owned slices.
type SourceRegistry struct {
	mu sync.RWMutex

	// byJurisdiction holds descriptors per jurisdiction key, in
	// registration order.
	byJurisdiction map[string][]domain.SourceDescriptor

	// order preserves overall registration order for ListAll.
	order []string

	// keys tracks (jurisdiction, connector type) pairs for duplicate
	// detection.
	keys map[string]struct{}
}

// NewSourceRegistry creates an empty registry.
func NewSourceRegistry() *SourceRegistry {
	return &SourceRegistry{
		byJurisdiction: make(map[string][]domain.SourceDescriptor),
		keys:           make(map[string]struct{}),
	}
}

// Register adds a descriptor to the registry.
// Returns domain.ErrDuplicateSource when the (jurisdiction, connector
// type) pair already exists.
func (r *SourceRegistry) Register(desc domain.SourceDescriptor) error {
	if desc.Jurisdiction.IsZero() {
		return fmt.Errorf("register source: empty jurisdiction")
	}
	if strings.TrimSpace(desc.ConnectorType) == "" {
		return fmt.Errorf("register source: empty connector type")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := desc.Key()
	if _, exists := r.keys[key]; exists {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateSource, key)
	}
	r.keys[key] = struct{}{}

	jKey := desc.Jurisdiction.Key()
	if _, known := r.byJurisdiction[jKey]; !known {
		r.order = append(r.order, jKey)
	}
	r.byJurisdiction[jKey] = append(r.byJurisdiction[jKey], desc)

	logger.Debug("Registered source %s (%s, tier %s)", desc.ConnectorType, desc.Jurisdiction, desc.Tier)
	return nil
}

// Resolve returns the descriptors covering a jurisdiction, ordered by
// priority tier (primary, fallback, mock) and registration order
// within a tier. An unknown jurisdiction yields an empty slice, not an
// error: callers treat it as "no coverage".
func (r *SourceRegistry) Resolve(j domain.Jurisdiction) []domain.SourceDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	descs := r.byJurisdiction[j.Key()]
	out := make([]domain.SourceDescriptor, len(descs))
	copy(out, descs)

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Tier < out[b].Tier
	})
	return out
}

// ListAll enumerates registered descriptors, optionally filtered by
// region code (case-insensitive). The enumeration is a snapshot:
// finite, restartable, insertion order within a region.
func (r *SourceRegistry) ListAll(region string) []domain.SourceDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	region = strings.ToLower(strings.TrimSpace(region))
	var out []domain.SourceDescriptor
	for _, jKey := range r.order {
		for _, desc := range r.byJurisdiction[jKey] {
			if region != "" && strings.ToLower(desc.Jurisdiction.Region) != region {
				continue
			}
			out = append(out, desc)
		}
	}
	return out
}

// Stats summarizes registry coverage.
func (r *SourceRegistry) Stats() domain.RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := domain.RegistryStats{
		Jurisdictions:  len(r.byJurisdiction),
		ByAccessMethod: make(map[domain.AccessMethod]int),
	}
	regions := make(map[string]struct{})
	for _, descs := range r.byJurisdiction {
		for _, desc := range descs {
			stats.Sources++
			stats.ByAccessMethod[desc.AccessMethod]++
			if desc.RequiresAuth {
				stats.RequiringAuth++
			}
			regions[strings.ToLower(desc.Jurisdiction.Region)] = struct{}{}
		}
	}
	stats.Regions = len(regions)
	return stats
}
