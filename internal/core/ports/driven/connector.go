package driven

import (
	"context"

	"github.com/titlegrid-labs/titlegrid-cli/internal/core/domain"
)

// Connector executes record lookups against one jurisdiction's source.
// Each connector type (mdland, countyapi, mock, etc.) implements this
// interface; adding a jurisdiction means adding a connector and a
// registry entry, never touching the orchestrator.
type Connector interface {
	// Type returns the connector type identifier.
	Type() string

	// Jurisdiction returns the region this connector instance covers.
	Jurisdiction() domain.Jurisdiction

	// Capabilities returns what this connector supports.
	Capabilities() ConnectorCapabilities

	// Authenticate establishes a session with the source.
	// Returns domain.ErrAuthRequired when the source needs credentials
	// and none were supplied, domain.ErrAuthInvalid when the source
	// rejects them. No-auth connectors return nil.
	Authenticate(ctx context.Context, creds domain.Credentials) error

	// SearchByParcel finds documents recorded against a parcel number.
	// Returns domain.ErrUnsupportedOperation if the source has no
	// parcel index.
	SearchByParcel(ctx context.Context, parcelID string, constraints domain.SearchConstraints) ([]domain.RecordDocument, error)

	// SearchByAddress finds documents by property address.
	// Returns domain.ErrUnsupportedOperation if the source has no
	// address index.
	SearchByAddress(ctx context.Context, address string, constraints domain.SearchConstraints) ([]domain.RecordDocument, error)

	// SearchByOwner finds documents by owner or grantee name.
	// Returns domain.ErrUnsupportedOperation if the source has no
	// party index.
	SearchByOwner(ctx context.Context, name string, constraints domain.SearchConstraints) ([]domain.RecordDocument, error)

	// Close releases any held connection or session.
	Close() error
}

// Search methods degrade gracefully: a partially malformed source
// response yields every document that could be parsed plus a
// *domain.PartialParseWarning on the error return. Callers check
// domain.AsPartialParse before treating the error as a failure.
// Zero extractable documents with a healthy transport is an empty
// slice and nil error, distinguishing "no records" from "source
// broken".

// ConnectorCapabilities describes what a connector supports.
type ConnectorCapabilities struct {
	// RequiresAuth indicates the source needs credentials before
	// searching. False for mock and open-access sources.
	RequiresAuth bool

	// SupportsParcel indicates the source has a parcel index.
	SupportsParcel bool

	// SupportsAddress indicates the source has an address index.
	SupportsAddress bool

	// SupportsOwner indicates the source has a party-name index.
	SupportsOwner bool

	// RateLimited indicates the connector throttles its own requests.
	// Informational; the orchestrator never compensates for it.
	RateLimited bool
}

// SupportsAny reports whether at least one search mode is available.
func (c ConnectorCapabilities) SupportsAny() bool {
	return c.SupportsParcel || c.SupportsAddress || c.SupportsOwner
}

// ConnectorFactory creates connectors from registry descriptors.
// It maintains a registry of connector types and their builders.
type ConnectorFactory interface {
	// Create returns a Connector for the given descriptor, carrying
	// the query's credentials for that connector type (nil when none
	// were supplied). Returns domain.ErrUnsupportedType if the
	// descriptor's connector type is unknown.
	Create(ctx context.Context, desc domain.SourceDescriptor, creds domain.Credentials) (Connector, error)

	// SupportedTypes returns all registered connector types.
	SupportedTypes() []string
}
