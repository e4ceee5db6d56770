package domain

import "time"

// OutcomeStatus is the per-jurisdiction result status of one dispatch.
type OutcomeStatus string

const (
	// OutcomeSuccess means the source answered; an empty document list
	// still counts as success ("no records exist").
	OutcomeSuccess OutcomeStatus = "success"
	// OutcomeFailed means the source errored or was unreachable.
	OutcomeFailed OutcomeStatus = "failed"
	// OutcomeTimeout means the dispatch exceeded its deadline and was
	// abandoned.
	OutcomeTimeout OutcomeStatus = "timeout"
	// OutcomeUnauthenticated means the source rejected or required
	// absent credentials.
	OutcomeUnauthenticated OutcomeStatus = "unauthenticated"
	// OutcomeUnsupported means no registered source covers the
	// jurisdiction, or the source supports none of the query's search
	// modes. Not a failure of the system.
	OutcomeUnsupported OutcomeStatus = "unsupported"
)

// Succeeded reports whether the status counts toward a completed or
// partial session.
func (s OutcomeStatus) Succeeded() bool {
	return s == OutcomeSuccess
}

// SourceOutcome records the result of one dispatch against one
// jurisdiction. Created once per dispatch attempt; never mutated.
type SourceOutcome struct {
	// Jurisdiction is the region this outcome covers.
	Jurisdiction Jurisdiction

	// ConnectorType names the connector that was (or would have been)
	// dispatched.
	ConnectorType string

	// Status is the dispatch result.
	Status OutcomeStatus

	// Documents are the retrieved records, empty unless Status is
	// success.
	Documents []RecordDocument

	// Elapsed is the wall-clock duration of the dispatch. Near zero
	// for cache hits and undispatched outcomes.
	Elapsed time.Duration

	// Error is the failure detail, empty on success.
	Error string

	// Warning is the partial-parse note, empty when the response
	// parsed cleanly.
	Warning string

	// FromCache marks an outcome served from the result cache.
	FromCache bool
}
