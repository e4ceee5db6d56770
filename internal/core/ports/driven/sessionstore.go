package driven

import (
	"context"

	"github.com/titlegrid-labs/titlegrid-cli/internal/core/domain"
)

// SessionStore persists search sessions, looked up by opaque id.
// The in-memory adapter covers process-lifetime scope; the sqlite
// adapter is the durable variant behind the same contract.
type SessionStore interface {
	// Create stores a new session under its id.
	Create(ctx context.Context, session domain.SearchSession) error

	// Get retrieves a session by id.
	// Returns domain.ErrNotFound when the id is unknown.
	Get(ctx context.Context, id string) (*domain.SearchSession, error)

	// Update applies the mutator to the stored session atomically:
	// concurrent updates for the same session never lose writes.
	// Returns domain.ErrNotFound when the id is unknown.
	Update(ctx context.Context, id string, mutate func(*domain.SearchSession)) error

	// List returns all stored sessions, newest first.
	List(ctx context.Context) ([]domain.SearchSession, error)
}
