package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/titlegrid-labs/titlegrid-cli/internal/core/domain"
	"github.com/titlegrid-labs/titlegrid-cli/internal/core/ports/driven"
)

// Ensure SessionStore implements the interface.
var _ driven.SessionStore = (*SessionStore)(nil)

// sessionEntry pairs a session with its own mutex so Update serializes
// per session, not across the whole store.
type sessionEntry struct {
	mu      sync.Mutex
	session domain.SearchSession
}

// SessionStore is an in-memory implementation of driven.SessionStore.
// The store-wide lock only guards the map itself; mutators run under
// the per-session lock, so concurrent updates to different sessions
// proceed in parallel and updates to the same session never lose
// writes.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
}

// NewSessionStore creates an empty in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*sessionEntry),
	}
}

// Create stores a new session under its id.
func (s *SessionStore) Create(_ context.Context, session domain.SearchSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[session.ID]; exists {
		return fmt.Errorf("session %s already exists", session.ID)
	}
	s.sessions[session.ID] = &sessionEntry{session: session}
	return nil
}

// Get retrieves a copy of a session by id.
func (s *SessionStore) Get(_ context.Context, id string) (*domain.SearchSession, error) {
	s.mu.RLock()
	entry, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	session := entry.session
	return &session, nil
}

// Update applies the mutator under the session's own lock.
func (s *SessionStore) Update(_ context.Context, id string, mutate func(*domain.SearchSession)) error {
	s.mu.RLock()
	entry, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return domain.ErrNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	mutate(&entry.session)
	return nil
}

// List returns all stored sessions, newest first.
func (s *SessionStore) List(_ context.Context) ([]domain.SearchSession, error) {
	s.mu.RLock()
	entries := make([]*sessionEntry, 0, len(s.sessions))
	for _, entry := range s.sessions {
		entries = append(entries, entry)
	}
	s.mu.RUnlock()

	sessions := make([]domain.SearchSession, 0, len(entries))
	for _, entry := range entries {
		entry.mu.Lock()
		sessions = append(sessions, entry.session)
		entry.mu.Unlock()
	}
	sort.Slice(sessions, func(a, b int) bool {
		return sessions[a].CreatedAt.After(sessions[b].CreatedAt)
	})
	return sessions, nil
}
