package domain

import "time"

// SessionStatus is the overall status of a search session.
type SessionStatus string

const (
	// SessionPending means the search is still dispatching.
	SessionPending SessionStatus = "pending"
	// SessionCompleted means every jurisdiction outcome succeeded.
	SessionCompleted SessionStatus = "completed"
	// SessionPartial means at least one jurisdiction succeeded and at
	// least one did not.
	SessionPartial SessionStatus = "partial"
	// SessionFailed means no jurisdiction succeeded.
	SessionFailed SessionStatus = "failed"
)

// Terminal reports whether the status is final. A session is immutable
// once its status reaches a terminal value.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionPartial || s == SessionFailed
}

// SessionCounts summarizes a session for list views and API responses.
type SessionCounts struct {
	// SourcesAttempted is the number of requested jurisdictions.
	SourcesAttempted int

	// SourcesSucceeded is the number of successful outcomes.
	SourcesSucceeded int

	// SourcesFailed is the number of failed, timed out,
	// unauthenticated or unsupported outcomes.
	SourcesFailed int

	// Documents is the size of the merged, deduplicated document list.
	Documents int
}

// SearchSession is the aggregate root for one multi-jurisdiction
// search. It is created when a search starts, mutated only by the
// orchestrator as outcomes arrive, and immutable once terminal.
// The session store owns it; callers look it up by id.
type SearchSession struct {
	// ID is the opaque session identifier.
	ID string

	// Query is the original request.
	Query Query

	// CreatedAt is when the search started.
	CreatedAt time.Time

	// CompletedAt is when the session reached a terminal status.
	CompletedAt time.Time

	// Status is the overall session status.
	Status SessionStatus

	// Outcomes holds one entry per requested jurisdiction, in the
	// query's request order.
	Outcomes []SourceOutcome

	// Documents is the merged, deduplicated, capped document list.
	Documents []RecordDocument

	// Counts summarizes the outcomes.
	Counts SessionCounts

	// Notes carries session-level warnings, e.g. partial parses.
	Notes []string
}

// Recount recomputes Counts from the outcomes and merged documents.
func (s *SearchSession) Recount() {
	counts := SessionCounts{
		SourcesAttempted: len(s.Outcomes),
		Documents:        len(s.Documents),
	}
	for _, o := range s.Outcomes {
		if o.Status.Succeeded() {
			counts.SourcesSucceeded++
		} else {
			counts.SourcesFailed++
		}
	}
	s.Counts = counts
}

// ResolveStatus derives the terminal status from the outcomes:
// completed when all succeeded, failed when none did, partial
// otherwise.
func (s *SearchSession) ResolveStatus() SessionStatus {
	if len(s.Outcomes) == 0 {
		return SessionFailed
	}
	succeeded := 0
	for _, o := range s.Outcomes {
		if o.Status.Succeeded() {
			succeeded++
		}
	}
	switch succeeded {
	case len(s.Outcomes):
		return SessionCompleted
	case 0:
		return SessionFailed
	default:
		return SessionPartial
	}
}
