package connectors

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/titlegrid-labs/titlegrid-cli/internal/connectors/countyapi"
	"github.com/titlegrid-labs/titlegrid-cli/internal/connectors/mdland"
	"github.com/titlegrid-labs/titlegrid-cli/internal/connectors/mock"
	"github.com/titlegrid-labs/titlegrid-cli/internal/core/domain"
	"github.com/titlegrid-labs/titlegrid-cli/internal/core/ports/driven"
)

// Ensure Factory implements the interface.
var _ driven.ConnectorFactory = (*Factory)(nil)

// DefaultHTTPTimeout bounds one HTTP exchange. The per-dispatch context
// deadline still applies on top.
const DefaultHTTPTimeout = 20 * time.Second

// Factory creates connectors for the built-in source types.
type Factory struct {
	httpClient *http.Client
}

// NewFactory creates a factory with a shared HTTP client for the
// network-backed connector types.
func NewFactory() *Factory {
	return &Factory{
		httpClient: &http.Client{Timeout: DefaultHTTPTimeout},
	}
}

// Create builds a connector for the descriptor's type.
func (f *Factory) Create(_ context.Context, desc domain.SourceDescriptor, creds domain.Credentials) (driven.Connector, error) {
	switch desc.ConnectorType {
	case mock.Type:
		return mock.New(desc.Jurisdiction), nil
	case mdland.Type:
		return mdland.New(desc, f.httpClient)
	case countyapi.Type:
		return countyapi.New(desc, f.httpClient, creds), nil
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, desc.ConnectorType)
	}
}

// SupportedTypes lists the connector types this factory can build.
func (f *Factory) SupportedTypes() []string {
	return []string{countyapi.Type, mdland.Type, mock.Type}
}
