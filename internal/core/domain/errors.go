package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrInvalidQuery indicates a query violates its invariants.
	// Fatal to the call; no session is created.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrDuplicateSource indicates a (jurisdiction, connector type) pair
	// is already registered. Registry misconfiguration is startup-fatal.
	ErrDuplicateSource = errors.New("duplicate source")

	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedOperation indicates a connector lacks a search mode
	// (e.g., address search against a deed-index-only source).
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrUnsupportedType indicates an unknown connector type.
	ErrUnsupportedType = errors.New("unsupported type")

	// Authentication Errors.

	// ErrAuthRequired indicates the source requires credentials but none
	// were supplied with the query.
	ErrAuthRequired = errors.New("authentication required")

	// ErrAuthInvalid indicates the supplied credentials were rejected.
	ErrAuthInvalid = errors.New("authentication invalid")

	// Connector Errors.

	// ErrConnectorClosed indicates the connector has been closed.
	ErrConnectorClosed = errors.New("connector closed")

	// ErrRateLimited indicates the source's rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)

// PartialParseWarning reports that a source response was partially
// malformed. The documents that could be extracted are still returned;
// the warning travels with them instead of failing the call.
type PartialParseWarning struct {
	// Source identifies the connector that produced the warning.
	Source string

	// Parsed is the number of documents successfully extracted.
	Parsed int

	// Skipped is the number of entries that could not be parsed.
	Skipped int
}

// Error implements the error interface.
// This allows the warning to travel on the error return alongside documents.
func (w *PartialParseWarning) Error() string {
	return fmt.Sprintf("partial parse from %s: %d parsed, %d skipped", w.Source, w.Parsed, w.Skipped)
}

// AsPartialParse checks if an error is a partial-parse warning.
// Returns the warning and true if it is, nil and false otherwise.
func AsPartialParse(err error) (*PartialParseWarning, bool) {
	var w *PartialParseWarning
	if errors.As(err, &w) {
		return w, true
	}
	return nil, false
}
