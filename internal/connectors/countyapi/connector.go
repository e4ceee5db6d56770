// Package countyapi implements a connector for counties that expose a
// JSON records API. Requests carry an API key header; responses are a
// flat document array.
package countyapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/titlegrid-labs/titlegrid-cli/internal/core/domain"
	"github.com/titlegrid-labs/titlegrid-cli/internal/core/ports/driven"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// Type is the connector type identifier.
const Type = "countyapi"

const (
	// DefaultRatePerMinute throttles requests when the descriptor does
	// not specify a rate.
	DefaultRatePerMinute = 30

	// HeaderAPIKey carries the API key on every request.
	HeaderAPIKey = "X-Api-Key"

	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 8 << 20
)

// Connector queries a county records API.
type Connector struct {
	jurisdiction domain.Jurisdiction
	baseURL      string
	client       *http.Client
	limiter      *rate.Limiter

	mu     sync.Mutex
	apiKey string
	closed bool
}

// New creates a connector from a source descriptor. Credentials may be
// supplied here or later via Authenticate.
func New(desc domain.SourceDescriptor, client *http.Client, creds domain.Credentials) *Connector {
	perMinute := desc.RatePerMinute
	if perMinute <= 0 {
		perMinute = DefaultRatePerMinute
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Connector{
		jurisdiction: desc.Jurisdiction,
		baseURL:      strings.TrimRight(desc.BaseURL, "/"),
		client:       client,
		limiter:      rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), 1),
		apiKey:       creds.Get("api_key"),
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

// Capabilities returns the connector's capabilities. The records API
// indexes by parcel number and party name; there is no address index.
func (c *Connector) Capabilities() driven.ConnectorCapabilities {
	return driven.ConnectorCapabilities{
		SupportsParcel: true,
		SupportsOwner:  true,
		RequiresAuth:   true,
		RateLimited:    true,
	}
}

// Authenticate stores the API key for subsequent requests.
func (c *Connector) Authenticate(_ context.Context, creds domain.Credentials) error {
	key := creds.Get("api_key")
	if key == "" {
		c.mu.Lock()
		have := c.apiKey != ""
		c.mu.Unlock()
		if have {
			return nil
		}
		return fmt.Errorf("%w: api_key credential missing", domain.ErrAuthRequired)
	}
	c.mu.Lock()
	c.apiKey = key
	c.mu.Unlock()
	return nil
}

// SearchByParcel queries the records API by parcel number.
func (c *Connector) SearchByParcel(ctx context.Context, parcelID string, constraints domain.SearchConstraints) ([]domain.RecordDocument, error) {
	return c.search(ctx, url.Values{"parcel": {parcelID}}, constraints)
}

// SearchByAddress is not supported; the records API has no address index.
func (c *Connector) SearchByAddress(_ context.Context, _ string, _ domain.SearchConstraints) ([]domain.RecordDocument, error) {
	return nil, domain.ErrUnsupportedOperation
}

// SearchByOwner queries the records API by party name.
func (c *Connector) SearchByOwner(ctx context.Context, name string, constraints domain.SearchConstraints) ([]domain.RecordDocument, error) {
	return c.search(ctx, url.Values{"party": {name}}, constraints)
}

// apiDocument is the wire shape of one record.
type apiDocument struct {
	ID            string   `json:"id"`
	Kind          string   `json:"document_type"`
	RecordedDate  string   `json:"recorded_date"`
	Grantors      []string `json:"grantors"`
	Grantees      []string `json:"grantees"`
	Consideration float64  `json:"consideration"`
	Book          string   `json:"book"`
	Page          string   `json:"page"`
	Instrument    string   `json:"instrument_number"`
	ParcelID      string   `json:"parcel_id"`
	Address       string   `json:"property_address"`
	Legal         string   `json:"legal_description"`
}

func (c *Connector) search(ctx context.Context, params url.Values, constraints domain.SearchConstraints) ([]domain.RecordDocument, error) {
	c.mu.Lock()
	key := c.apiKey
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, domain.ErrConnectorClosed
	}
	if key == "" {
		return nil, domain.ErrAuthRequired
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	if !constraints.NotBefore.IsZero() {
		params.Set("recorded_after", constraints.NotBefore.Format("2006-01-02"))
	}
	if constraints.MaxResults > 0 {
		params.Set("limit", fmt.Sprint(constraints.MaxResults))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/records?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set(HeaderAPIKey, key)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("records request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("%w: records API rejected key", domain.ErrAuthInvalid)
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: records API throttled the request", domain.ErrRateLimited)
	default:
		return nil, fmt.Errorf("records API returned %s", resp.Status)
	}

	var wire []apiDocument
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}

	now := time.Now()
	docs := make([]domain.RecordDocument, 0, len(wire))
	skipped := 0
	for _, w := range wire {
		recorded, err := time.Parse("2006-01-02", w.RecordedDate)
		if err != nil {
			skipped++
			continue
		}
		docs = append(docs, domain.RecordDocument{
			SourceDocumentID: w.ID,
			Jurisdiction:     c.jurisdiction,
			Kind:             domain.ParseDocumentKind(w.Kind),
			RecordedAt:       recorded,
			Grantors:         w.Grantors,
			Grantees:         w.Grantees,
			Consideration:    w.Consideration,
			Ref: domain.InstrumentRef{
				Book:             w.Book,
				Page:             w.Page,
				InstrumentNumber: w.Instrument,
			},
			ParcelID:         w.ParcelID,
			PropertyAddress:  w.Address,
			LegalDescription: w.Legal,
			RetrievedAt:      now,
		})
	}

	docs = constraints.Filter(docs)
	if skipped > 0 {
		return docs, &domain.PartialParseWarning{Source: Type, Parsed: len(docs), Skipped: skipped}
	}
	return docs, nil
}

// Close marks the connector closed.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
