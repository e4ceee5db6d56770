package cli

import (
	"context"
	"strings"
	"time"

	"github.com/titlegrid-labs/titlegrid-cli/internal/core/domain"
	"github.com/titlegrid-labs/titlegrid-cli/internal/core/ports/driving"
)

var montgomeryMD = domain.Jurisdiction{Region: "MD", Subregion: "Montgomery"}

// stubSearchService serves canned sessions so commands can run without
// wiring real adapters.
type stubSearchService struct {
	sessions  []domain.SearchSession
	lastQuery domain.Query
	searchErr error
}

var _ driving.SearchService = (*stubSearchService)(nil)

func (s *stubSearchService) Search(_ context.Context, query domain.Query) (*domain.SearchSession, error) {
	s.lastQuery = query
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	session := sampleSession("stub-session")
	session.Query = query
	return &session, nil
}

func (s *stubSearchService) GetSession(_ context.Context, id string) (*domain.SearchSession, error) {
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			return &s.sessions[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubSearchService) ListSessions(_ context.Context) ([]domain.SearchSession, error) {
	return s.sessions, nil
}

// stubCatalog serves a fixed descriptor list.
type stubCatalog struct {
	descriptors []domain.SourceDescriptor
}

var _ driving.SourceCatalog = (*stubCatalog)(nil)

func (c *stubCatalog) Resolve(j domain.Jurisdiction) []domain.SourceDescriptor {
	var out []domain.SourceDescriptor
	for _, d := range c.descriptors {
		if d.Jurisdiction.Key() == j.Key() {
			out = append(out, d)
		}
	}
	return out
}

func (c *stubCatalog) ListAll(region string) []domain.SourceDescriptor {
	if region == "" {
		return c.descriptors
	}
	var out []domain.SourceDescriptor
	for _, d := range c.descriptors {
		if strings.EqualFold(d.Jurisdiction.Region, region) {
			out = append(out, d)
		}
	}
	return out
}

func (c *stubCatalog) Stats() domain.RegistryStats {
	return domain.RegistryStats{
		Sources:        len(c.descriptors),
		Jurisdictions:  1,
		Regions:        1,
		ByAccessMethod: map[domain.AccessMethod]int{domain.AccessMock: len(c.descriptors)},
	}
}

func sampleSession(id string) domain.SearchSession {
	recorded := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	doc := domain.RecordDocument{
		SourceDocumentID: "2024-0001",
		Jurisdiction:     montgomeryMD,
		Kind:             domain.KindDeed,
		RecordedAt:       recorded,
		Grantors:         []string{"John Doe"},
		Grantees:         []string{"Alice Smith"},
		Ref:              domain.InstrumentRef{Book: "1234", Page: "567", InstrumentNumber: "2024-0001"},
	}
	session := domain.SearchSession{
		ID:        id,
		CreatedAt: recorded,
		Status:    domain.SessionCompleted,
		Outcomes: []domain.SourceOutcome{
			{
				Jurisdiction:  montgomeryMD,
				ConnectorType: "mock",
				Status:        domain.OutcomeSuccess,
				Documents:     []domain.RecordDocument{doc},
				Elapsed:       42 * time.Millisecond,
			},
		},
		Documents: []domain.RecordDocument{doc},
	}
	session.Recount()
	return session
}

// setupTestServices swaps in stub services and returns a cleanup func.
func setupTestServices() func() {
	oldSearch := searchService
	oldCatalog := sourceCatalog

	searchService = &stubSearchService{sessions: []domain.SearchSession{sampleSession("stub-session")}}
	sourceCatalog = &stubCatalog{descriptors: []domain.SourceDescriptor{
		{Jurisdiction: montgomeryMD, ConnectorType: "mock", Tier: domain.TierMock, AccessMethod: domain.AccessMock},
	}}

	return func() {
		searchService = oldSearch
		sourceCatalog = oldCatalog
	}
}
