package domain

import (
	"fmt"
	"strings"
	"time"
)

// Default query parameters, overridable per query and by configuration.
const (
	// DefaultYearsBack is how far back a search reaches by default.
	DefaultYearsBack = 60

	// DefaultMaxResults caps the merged document list by default.
	DefaultMaxResults = 1000
)

// Credentials is opaque auth material for one connector type.
// The orchestrator never inspects it beyond presence; each connector
// knows which keys it needs (e.g., "email"/"password" for form login,
// "api_key" for API sources).
type Credentials map[string]string

// Get returns the value for key, empty string if absent.
func (c Credentials) Get(key string) string {
	if c == nil {
		return ""
	}
	return c[key]
}

// Query is a logical record search request across one or more
// jurisdictions. At least one of ParcelID, PropertyAddress or
// OwnerName must be non-empty.
type Query struct {
	// ParcelID is the parcel/tax account number to search.
	ParcelID string

	// PropertyAddress is the property address to search.
	PropertyAddress string

	// OwnerName is the owner or grantee name to search.
	OwnerName string

	// Jurisdictions is the ordered, non-empty set of regions to search.
	Jurisdictions []Jurisdiction

	// YearsBack bounds how far back records are searched.
	// Zero means the configured default.
	YearsBack int

	// DocumentFilters restricts results to the listed kinds.
	// Empty means all kinds.
	DocumentFilters []DocumentKind

	// MaxResults caps the merged document list.
	// Zero means the configured default.
	MaxResults int

	// Credentials maps connector type to opaque auth material.
	// Entries are optional per connector.
	Credentials map[string]Credentials
}

// Validate checks the query invariants. A violation is fatal to the
// search call; no session is created.
func (q Query) Validate() error {
	if strings.TrimSpace(q.ParcelID) == "" &&
		strings.TrimSpace(q.PropertyAddress) == "" &&
		strings.TrimSpace(q.OwnerName) == "" {
		return fmt.Errorf("%w: one of parcel id, property address or owner name is required", ErrInvalidQuery)
	}
	if len(q.Jurisdictions) == 0 {
		return fmt.Errorf("%w: at least one jurisdiction is required", ErrInvalidQuery)
	}
	for _, j := range q.Jurisdictions {
		if j.IsZero() {
			return fmt.Errorf("%w: empty jurisdiction", ErrInvalidQuery)
		}
	}
	if q.YearsBack < 0 {
		return fmt.Errorf("%w: yearsBack must be positive", ErrInvalidQuery)
	}
	if q.MaxResults < 0 {
		return fmt.Errorf("%w: maxResults must be positive", ErrInvalidQuery)
	}
	return nil
}

// CredentialsFor returns the credentials supplied for a connector type,
// nil if none were provided.
func (q Query) CredentialsFor(connectorType string) Credentials {
	if q.Credentials == nil {
		return nil
	}
	return q.Credentials[connectorType]
}

// SearchConstraints is the per-dispatch slice of a query that every
// connector must honor.
type SearchConstraints struct {
	// NotBefore excludes documents recorded before this instant.
	NotBefore time.Time

	// MaxResults caps the documents one connector may return.
	MaxResults int

	// Kinds restricts results to the listed kinds. Empty means all.
	Kinds []DocumentKind
}

// Constraints derives the per-connector constraints from the query,
// substituting defaults for unset fields.
func (q Query) Constraints(now time.Time) SearchConstraints {
	years := q.YearsBack
	if years <= 0 {
		years = DefaultYearsBack
	}
	maxResults := q.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return SearchConstraints{
		NotBefore:  now.AddDate(-years, 0, 0),
		MaxResults: maxResults,
		Kinds:      q.DocumentFilters,
	}
}

// Allows reports whether a document kind passes the constraint filter.
func (c SearchConstraints) Allows(kind DocumentKind) bool {
	if len(c.Kinds) == 0 {
		return true
	}
	for _, k := range c.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Filter applies the constraints to a document list: drops documents
// recorded before NotBefore or of excluded kinds, then truncates to
// MaxResults. Connectors use it to honor constraints uniformly.
func (c SearchConstraints) Filter(docs []RecordDocument) []RecordDocument {
	filtered := make([]RecordDocument, 0, len(docs))
	for _, d := range docs {
		if !c.Allows(d.Kind) {
			continue
		}
		if !c.NotBefore.IsZero() && !d.RecordedAt.IsZero() && d.RecordedAt.Before(c.NotBefore) {
			continue
		}
		filtered = append(filtered, d)
	}
	if c.MaxResults > 0 && len(filtered) > c.MaxResults {
		filtered = filtered[:c.MaxResults]
	}
	return filtered
}
