// Package mdland implements a connector for the Maryland land records
// portal. Access is a session-cookie form login followed by HTML result
// pages; parsing is lenient because the portal markup drifts.
package mdland

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/titlegrid-labs/titlegrid-cli/internal/core/domain"
	"github.com/titlegrid-labs/titlegrid-cli/internal/core/ports/driven"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// Type is the connector type identifier.
const Type = "mdland"

const (
	// DefaultRatePerMinute keeps the scrape polite when the descriptor
	// does not specify a rate.
	DefaultRatePerMinute = 12

	// formTokenField is the portal's anti-forgery hidden input.
	formTokenField = "__RequestVerificationToken"

	loginPath  = "/Account/Login"
	searchPath = "/Search/Results"
)

// Connector scrapes the land records portal for one county.
type Connector struct {
	jurisdiction domain.Jurisdiction
	baseURL      string
	client       *http.Client
	limiter      *rate.Limiter

	mu            sync.Mutex
	authenticated bool
	closed        bool
}

// New creates a connector from a source descriptor. The portal needs a
// session cookie, so the connector keeps its own cookie jar.
func New(desc domain.SourceDescriptor, base *http.Client) (*Connector, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}

	client := &http.Client{Jar: jar}
	if base != nil {
		client.Transport = base.Transport
		client.Timeout = base.Timeout
	}

	perMinute := desc.RatePerMinute
	if perMinute <= 0 {
		perMinute = DefaultRatePerMinute
	}

	return &Connector{
		jurisdiction: desc.Jurisdiction,
		baseURL:      strings.TrimRight(desc.BaseURL, "/"),
		client:       client,
		limiter:      rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), 1),
	}, nil
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
		RequiresAuth:    true,
		RateLimited:     true,
	}
}

// Authenticate performs the portal's form login: fetch the login page,
// lift the anti-forgery token, post the credentials.
func (c *Connector) Authenticate(ctx context.Context, creds domain.Credentials) error {
	email := creds.Get("email")
	password := creds.Get("password")
	if email == "" || password == "" {
		return fmt.Errorf("%w: email and password credentials missing", domain.ErrAuthRequired)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+loginPath, nil)
	if err != nil {
		return fmt.Errorf("build login request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch login page: %w", err)
	}
	token, err := parseFormToken(resp.Body)
	resp.Body.Close()
	if err != nil {
		return err
	}

	form := url.Values{
		"Email":         {email},
		"Password":      {password},
		formTokenField: {token},
	}
	post, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginPath, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build login post: %w", err)
	}
	post.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err = c.client.Do(post)
	if err != nil {
		return fmt.Errorf("post login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: portal rejected login", domain.ErrAuthInvalid)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("portal login returned %s", resp.Status)
	}
	// The portal answers a failed login with the form again.
	if loginPageShown(resp) {
		return fmt.Errorf("%w: portal rejected login", domain.ErrAuthInvalid)
	}

	c.mu.Lock()
	c.authenticated = true
	c.mu.Unlock()
	return nil
}

// loginPageShown reports whether the response landed back on the login
// form.
func loginPageShown(resp *http.Response) bool {
	if resp.Request != nil && resp.Request.URL != nil {
		return strings.Contains(resp.Request.URL.Path, loginPath)
	}
	return false
}

// SearchByParcel searches the recorded index by parcel number.
func (c *Connector) SearchByParcel(ctx context.Context, parcelID string, constraints domain.SearchConstraints) ([]domain.RecordDocument, error) {
	return c.search(ctx, "parcel", parcelID, constraints)
}

// SearchByAddress searches the recorded index by property address.
func (c *Connector) SearchByAddress(ctx context.Context, address string, constraints domain.SearchConstraints) ([]domain.RecordDocument, error) {
	return c.search(ctx, "address", address, constraints)
}

// SearchByOwner searches the recorded index by party name.
func (c *Connector) SearchByOwner(ctx context.Context, name string, constraints domain.SearchConstraints) ([]domain.RecordDocument, error) {
	return c.search(ctx, "party", name, constraints)
}

func (c *Connector) search(ctx context.Context, searchType, term string, constraints domain.SearchConstraints) ([]domain.RecordDocument, error) {
	c.mu.Lock()
	authenticated := c.authenticated
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, domain.ErrConnectorClosed
	}
	if !authenticated {
		return nil, domain.ErrAuthRequired
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{
		"searchType": {searchType},
		"term":       {term},
	}
	if !constraints.NotBefore.IsZero() {
		params.Set("fromDate", constraints.NotBefore.Format(recordedDateLayout))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+searchPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if loginPageShown(resp) {
		// Session cookie expired mid-search.
		return nil, fmt.Errorf("%w: portal session expired", domain.ErrAuthRequired)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("portal search returned %s", resp.Status)
	}

	docs, skipped, err := parseSearchResults(resp.Body, c.jurisdiction)
	if err != nil {
		return nil, err
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
