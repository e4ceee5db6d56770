// Package mock provides an offline connector with deterministic synthetic
// records. It is registered as the lowest tier for every covered
// jurisdiction so searches keep working when live sources are down or
// credentials are missing.
package mock

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/titlegrid-labs/titlegrid-cli/internal/core/domain"
	"github.com/titlegrid-labs/titlegrid-cli/internal/core/ports/driven"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// Type is the connector type identifier.
const Type = "mock"

// Connector serves a small fixed set of records for its jurisdiction.
type Connector struct {
	jurisdiction domain.Jurisdiction
	records      []domain.RecordDocument

	mu     sync.Mutex
	closed bool
}

// New creates a mock connector for the given jurisdiction.
func New(jurisdiction domain.Jurisdiction) *Connector {
	return &Connector{
		jurisdiction: jurisdiction,
		records:      sampleRecords(jurisdiction),
	}
}

// sampleRecords builds the synthetic record set. The data is stable
// across runs so sessions and cache entries are reproducible.
func sampleRecords(j domain.Jurisdiction) []domain.RecordDocument {
	return []domain.RecordDocument{
		{
			SourceDocumentID: "mock-001",
			Jurisdiction:     j,
			Kind:             domain.KindDeed,
			RecordedAt:       time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			Grantors:         []string{"John Doe", "Jane Doe"},
			Grantees:         []string{"Alice Smith"},
			Consideration:    500000,
			Ref: domain.InstrumentRef{
				Book:             "1234",
				Page:             "567",
				InstrumentNumber: "2024-0001",
			},
			ParcelID:        "12-345-6789",
			PropertyAddress: "123 Main St",
		},
		{
			SourceDocumentID: "mock-002",
			Jurisdiction:     j,
			Kind:             domain.KindMortgage,
			RecordedAt:       time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
			Grantors:         []string{"Alice Smith"},
			Grantees:         []string{"First National Bank"},
			Consideration:    400000,
			Ref: domain.InstrumentRef{
				Book:             "1230",
				Page:             "12",
				InstrumentNumber: "2024-0002",
			},
			ParcelID:        "12-345-6789",
			PropertyAddress: "123 Main St",
		},
	}
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return Type
}

// Jurisdiction returns the jurisdiction this connector covers.
func (c *Connector) Jurisdiction() domain.Jurisdiction {
	return c.jurisdiction
}

// Capabilities returns the connector's capabilities.
func (c *Connector) Capabilities() driven.ConnectorCapabilities {
	return driven.ConnectorCapabilities{
		SupportsParcel:  true,
		SupportsAddress: true,
		SupportsOwner:   true,
	}
}

// Authenticate is a no-op; the mock source is open.
func (c *Connector) Authenticate(_ context.Context, _ domain.Credentials) error {
	return nil
}

// SearchByParcel returns records whose parcel id matches exactly,
// ignoring case and separators.
func (c *Connector) SearchByParcel(ctx context.Context, parcelID string, constraints domain.SearchConstraints) ([]domain.RecordDocument, error) {
	return c.search(ctx, constraints, func(d domain.RecordDocument) bool {
		return normalizeParcel(d.ParcelID) == normalizeParcel(parcelID)
	})
}

// SearchByAddress returns records whose property address contains the
// given fragment, ignoring case.
func (c *Connector) SearchByAddress(ctx context.Context, address string, constraints domain.SearchConstraints) ([]domain.RecordDocument, error) {
	needle := strings.ToLower(strings.TrimSpace(address))
	return c.search(ctx, constraints, func(d domain.RecordDocument) bool {
		return strings.Contains(strings.ToLower(d.PropertyAddress), needle)
	})
}

// SearchByOwner returns records naming the given party as grantor or
// grantee, matched as a case-insensitive substring.
func (c *Connector) SearchByOwner(ctx context.Context, name string, constraints domain.SearchConstraints) ([]domain.RecordDocument, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	return c.search(ctx, constraints, func(d domain.RecordDocument) bool {
		for _, p := range d.Grantors {
			if strings.Contains(strings.ToLower(p), needle) {
				return true
			}
		}
		for _, p := range d.Grantees {
			if strings.Contains(strings.ToLower(p), needle) {
				return true
			}
		}
		return false
	})
}

func (c *Connector) search(ctx context.Context, constraints domain.SearchConstraints, match func(domain.RecordDocument) bool) ([]domain.RecordDocument, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, domain.ErrConnectorClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := time.Now()
	var out []domain.RecordDocument
	for _, d := range c.records {
		if !match(d) {
			continue
		}
		d.RetrievedAt = now
		out = append(out, d)
	}
	return constraints.Filter(out), nil
}

// Close marks the connector closed.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func normalizeParcel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "")
	return strings.ReplaceAll(s, " ", "")
}
