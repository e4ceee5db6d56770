package driving

import (
	"context"

	"github.com/titlegrid-labs/titlegrid-cli/internal/core/domain"
)

// SearchService runs multi-jurisdiction record searches and exposes
// their sessions to external actors.
type SearchService interface {
	// Search validates the query, fans out to each requested
	// jurisdiction and returns the terminal session. Only query
	// validation fails the call; per-source conditions are recorded
	// inside the session.
	Search(ctx context.Context, query domain.Query) (*domain.SearchSession, error)

	// GetSession retrieves a previously run session by id.
	// Returns domain.ErrNotFound for unknown ids.
	GetSession(ctx context.Context, id string) (*domain.SearchSession, error)

	// ListSessions returns all stored sessions, newest first.
	ListSessions(ctx context.Context) ([]domain.SearchSession, error)
}

// SourceCatalog exposes the registered record sources.
type SourceCatalog interface {
	// Resolve returns the tier-ordered descriptors covering a
	// jurisdiction; empty means no coverage, which is not an error.
	Resolve(j domain.Jurisdiction) []domain.SourceDescriptor

	// ListAll enumerates registered descriptors, optionally filtered
	// by region code. Insertion order within a region.
	ListAll(region string) []domain.SourceDescriptor

	// Stats summarizes registry coverage.
	Stats() domain.RegistryStats
}
