package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/titlegrid-labs/titlegrid-cli/internal/adapters/driven/storage/memory"
	"github.com/titlegrid-labs/titlegrid-cli/internal/core/domain"
	"github.com/titlegrid-labs/titlegrid-cli/internal/core/ports/driven"
)

// --- Fakes ---

// fakeConnector implements driven.Connector for orchestrator tests.
type fakeConnector struct {
	typ       string
	j         domain.Jurisdiction
	caps      driven.ConnectorCapabilities
	authErr   error
	docs      []domain.RecordDocument
	searchErr error
	warning   *domain.PartialParseWarning

	// delay simulates a slow source; when ignoreCtx is set the fake
	// sleeps through cancellation like a misbehaving upstream.
	delay     time.Duration
	ignoreCtx bool

	calls  int32
	closed int32
}

func (f *fakeConnector) Type() string                       { return f.typ }
func (f *fakeConnector) Jurisdiction() domain.Jurisdiction  { return f.j }
func (f *fakeConnector) Capabilities() driven.ConnectorCapabilities { return f.caps }

func (f *fakeConnector) Authenticate(_ context.Context, _ domain.Credentials) error {
	return f.authErr
}

func (f *fakeConnector) search(ctx context.Context, constraints domain.SearchConstraints) ([]domain.RecordDocument, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		if f.ignoreCtx {
			time.Sleep(f.delay)
		} else {
			select {
			case <-time.After(f.delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	docs := constraints.Filter(f.docs)
	if f.warning != nil {
		return docs, f.warning
	}
	return docs, nil
}

func (f *fakeConnector) SearchByParcel(ctx context.Context, _ string, c domain.SearchConstraints) ([]domain.RecordDocument, error) {
	return f.search(ctx, c)
}

func (f *fakeConnector) SearchByAddress(ctx context.Context, _ string, c domain.SearchConstraints) ([]domain.RecordDocument, error) {
	return f.search(ctx, c)
}

func (f *fakeConnector) SearchByOwner(ctx context.Context, _ string, c domain.SearchConstraints) ([]domain.RecordDocument, error) {
	return f.search(ctx, c)
}

func (f *fakeConnector) Close() error {
	atomic.AddInt32(&f.closed, 1)
	return nil
}

// fakeFactory hands out pre-built connectors by descriptor key.
type fakeFactory struct {
	mu         sync.Mutex
	connectors map[string]driven.Connector
	gotCreds   map[string]domain.Credentials
	creates    int32
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{
		connectors: make(map[string]driven.Connector),
		gotCreds:   make(map[string]domain.Credentials),
	}
}

func (f *fakeFactory) add(desc domain.SourceDescriptor, conn driven.Connector) {
	f.connectors[desc.Key()] = conn
}

func (f *fakeFactory) Create(_ context.Context, desc domain.SourceDescriptor, creds domain.Credentials) (driven.Connector, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	atomic.AddInt32(&f.creates, 1)
	conn, ok := f.connectors[desc.Key()]
	if !ok {
		return nil, domain.ErrUnsupportedType
	}
	f.gotCreds[desc.Key()] = creds
	return conn, nil
}

func (f *fakeFactory) SupportedTypes() []string { return []string{"fake"} }

// --- Helpers ---

func allModes() driven.ConnectorCapabilities {
	return driven.ConnectorCapabilities{
		SupportsParcel:  true,
		SupportsAddress: true,
		SupportsOwner:   true,
	}
}

func testDoc(j domain.Jurisdiction, id string, recorded time.Time) domain.RecordDocument {
	return domain.RecordDocument{
		SourceDocumentID: id,
		Jurisdiction:     j,
		Kind:             domain.KindDeed,
		RecordedAt:       recorded,
		Grantors:         []string{"John Doe"},
		Grantees:         []string{"Alice Smith"},
	}
}

type orchestratorFixture struct {
	registry *SourceRegistry
	factory  *fakeFactory
	cache    *memory.ResultCache
	sessions *memory.SessionStore
	orch     *SearchOrchestrator
}

func newFixture(t *testing.T, cfg Config) *orchestratorFixture {
	t.Helper()
	f := &orchestratorFixture{
		registry: NewSourceRegistry(),
		factory:  newFakeFactory(),
		cache:    memory.NewResultCache(),
		sessions: memory.NewSessionStore(),
	}
	f.orch = NewSearchOrchestrator(f.registry, f.factory, f.cache, f.sessions, cfg)
	return f
}

// addSource registers a descriptor and wires its connector in one step.
func (f *orchestratorFixture) addSource(t *testing.T, desc domain.SourceDescriptor, conn driven.Connector) {
	t.Helper()
	require.NoError(t, f.registry.Register(desc))
	if conn != nil {
		f.factory.add(desc, conn)
	}
}

// --- Tests ---

func TestSearch_InvalidQuery_NoSessionCreated(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	_, err := f.orch.Search(ctx, domain.Query{
		Jurisdictions: []domain.Jurisdiction{montgomeryMD},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidQuery)

	sessions, err := f.sessions.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestSearch_UnknownJurisdiction_Unsupported(t *testing.T) {
	f := newFixture(t, Config{})

	session, err := f.orch.Search(context.Background(), domain.Query{
		OwnerName:     "Smith",
		Jurisdictions: []domain.Jurisdiction{{Region: "TX", Subregion: "Travis"}},
	})
	require.NoError(t, err)

	require.Len(t, session.Outcomes, 1)
	assert.Equal(t, domain.OutcomeUnsupported, session.Outcomes[0].Status)
	assert.NotEqual(t, domain.OutcomeFailed, session.Outcomes[0].Status)
	assert.Equal(t, domain.SessionFailed, session.Status)
}

func TestSearch_SingleJurisdiction_Success(t *testing.T) {
	f := newFixture(t, Config{})
	recorded := time.Now().AddDate(-1, 0, 0)
	conn := &fakeConnector{
		typ:  "mock",
		j:    montgomeryMD,
		caps: allModes(),
		docs: []domain.RecordDocument{
			testDoc(montgomeryMD, "2024-0001", recorded),
			testDoc(montgomeryMD, "2024-0002", recorded.AddDate(0, -1, 0)),
		},
	}
	f.addSource(t, domain.SourceDescriptor{Jurisdiction: montgomeryMD, ConnectorType: "mock", Tier: domain.TierMock}, conn)

	session, err := f.orch.Search(context.Background(), domain.Query{
		OwnerName:     "Smith",
		Jurisdictions: []domain.Jurisdiction{montgomeryMD},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.SessionCompleted, session.Status)
	assert.Equal(t, 1, session.Counts.SourcesAttempted)
	assert.Equal(t, 1, session.Counts.SourcesSucceeded)
	assert.Equal(t, 0, session.Counts.SourcesFailed)
	assert.Len(t, session.Documents, 2)
	assert.False(t, session.CompletedAt.IsZero())
	assert.Equal(t, int32(1), atomic.LoadInt32(&conn.closed))

	// Retrievable by id.
	got, err := f.orch.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)
}

func TestSearch_PartialFailure(t *testing.T) {
	f := newFixture(t, Config{})
	recorded := time.Now().AddDate(-1, 0, 0)

	jurisdictions := []domain.Jurisdiction{
		{Region: "MD", Subregion: "A"},
		{Region: "MD", Subregion: "B"},
		{Region: "MD", Subregion: "C"},
		{Region: "MD", Subregion: "D"},
		{Region: "MD", Subregion: "E"},
	}
	for i, j := range jurisdictions {
		conn := &fakeConnector{typ: "mock", j: j, caps: allModes()}
		if i < 2 {
			conn.searchErr = errors.New("upstream exploded")
		} else {
			conn.docs = []domain.RecordDocument{testDoc(j, "doc", recorded)}
		}
		f.addSource(t, domain.SourceDescriptor{Jurisdiction: j, ConnectorType: "mock", Tier: domain.TierMock}, conn)
	}

	session, err := f.orch.Search(context.Background(), domain.Query{
		OwnerName:     "Smith",
		Jurisdictions: jurisdictions,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.SessionPartial, session.Status)
	assert.Equal(t, 3, session.Counts.SourcesSucceeded)
	assert.Equal(t, 2, session.Counts.SourcesFailed)
	// Successful outcomes' documents appear unaffected.
	assert.Len(t, session.Documents, 3)
}

func TestSearch_OutcomeOrderMatchesRequestOrder(t *testing.T) {
	f := newFixture(t, Config{})
	jurisdictions := []domain.Jurisdiction{cookIL, montgomeryMD, losAngelesCA}
	for _, j := range jurisdictions {
		f.addSource(t, domain.SourceDescriptor{Jurisdiction: j, ConnectorType: "mock", Tier: domain.TierMock},
			&fakeConnector{typ: "mock", j: j, caps: allModes()})
	}

	session, err := f.orch.Search(context.Background(), domain.Query{
		OwnerName:     "Smith",
		Jurisdictions: jurisdictions,
	})
	require.NoError(t, err)

	require.Len(t, session.Outcomes, 3)
	for i, j := range jurisdictions {
		assert.Equal(t, j.Key(), session.Outcomes[i].Jurisdiction.Key())
	}
}

func TestSearch_TimeoutOutcome(t *testing.T) {
	f := newFixture(t, Config{DispatchTimeout: 30 * time.Millisecond})
	recorded := time.Now().AddDate(-1, 0, 0)

	slow := &fakeConnector{typ: "mock", j: cookIL, caps: allModes(), delay: 500 * time.Millisecond, ignoreCtx: true}
	fast := &fakeConnector{typ: "mock", j: montgomeryMD, caps: allModes(),
		docs: []domain.RecordDocument{testDoc(montgomeryMD, "ok", recorded)}}
	f.addSource(t, domain.SourceDescriptor{Jurisdiction: cookIL, ConnectorType: "mock", Tier: domain.TierMock}, slow)
	f.addSource(t, domain.SourceDescriptor{Jurisdiction: montgomeryMD, ConnectorType: "mock", Tier: domain.TierMock}, fast)

	start := time.Now()
	session, err := f.orch.Search(context.Background(), domain.Query{
		OwnerName:     "Smith",
		Jurisdictions: []domain.Jurisdiction{cookIL, montgomeryMD},
	})
	require.NoError(t, err)

	// The misbehaving source must not hold the search past its deadline.
	assert.Less(t, time.Since(start), 400*time.Millisecond)
	assert.Equal(t, domain.SessionPartial, session.Status)
	assert.Equal(t, domain.OutcomeTimeout, session.Outcomes[0].Status)
	assert.Equal(t, domain.OutcomeSuccess, session.Outcomes[1].Status)
	assert.Len(t, session.Documents, 1)
}

func TestSearch_Scenario_FiveCountiesOneTimeout(t *testing.T) {
	f := newFixture(t, Config{DispatchTimeout: 30 * time.Millisecond})
	recorded := time.Now().AddDate(-1, 0, 0)

	names := []string{"A", "B", "C", "D", "E"}
	jurisdictions := make([]domain.Jurisdiction, len(names))
	for i, n := range names {
		j := domain.Jurisdiction{Region: "MD", Subregion: n}
		jurisdictions[i] = j
		conn := &fakeConnector{typ: "mock", j: j, caps: allModes()}
		if n == "E" {
			conn.delay = 500 * time.Millisecond
			conn.ignoreCtx = true
		} else {
			conn.docs = []domain.RecordDocument{
				testDoc(j, "d1", recorded),
				testDoc(j, "d2", recorded.AddDate(0, -1, 0)),
				testDoc(j, "d3", recorded.AddDate(0, -2, 0)),
			}
		}
		f.addSource(t, domain.SourceDescriptor{Jurisdiction: j, ConnectorType: "mock", Tier: domain.TierMock}, conn)
	}

	session, err := f.orch.Search(context.Background(), domain.Query{
		OwnerName:     "Smith",
		Jurisdictions: jurisdictions,
		MaxResults:    1000,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.SessionPartial, session.Status)
	assert.Equal(t, 4, session.Counts.SourcesSucceeded)
	assert.Equal(t, 1, session.Counts.SourcesFailed)
	assert.LessOrEqual(t, len(session.Documents), 12)
	assert.Len(t, session.Documents, 12)
}

func TestSearch_DedupAcrossModes(t *testing.T) {
	f := newFixture(t, Config{})
	recorded := time.Now().AddDate(-1, 0, 0)

	// Parcel and owner searches both return the same document.
	conn := &fakeConnector{
		typ:  "mock",
		j:    montgomeryMD,
		caps: allModes(),
		docs: []domain.RecordDocument{testDoc(montgomeryMD, "same-id", recorded)},
	}
	f.addSource(t, domain.SourceDescriptor{Jurisdiction: montgomeryMD, ConnectorType: "mock", Tier: domain.TierMock}, conn)

	session, err := f.orch.Search(context.Background(), domain.Query{
		ParcelID:      "12-345",
		OwnerName:     "Smith",
		Jurisdictions: []domain.Jurisdiction{montgomeryMD},
	})
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&conn.calls))
	assert.Len(t, session.Documents, 1)
}

func TestSearch_MaxResultsCap(t *testing.T) {
	f := newFixture(t, Config{})
	recorded := time.Now().AddDate(-1, 0, 0)

	docs := make([]domain.RecordDocument, 10)
	for i := range docs {
		docs[i] = testDoc(montgomeryMD, string(rune('a'+i)), recorded.AddDate(0, 0, -i))
	}
	conn := &fakeConnector{typ: "mock", j: montgomeryMD, caps: allModes(), docs: docs}
	f.addSource(t, domain.SourceDescriptor{Jurisdiction: montgomeryMD, ConnectorType: "mock", Tier: domain.TierMock}, conn)

	session, err := f.orch.Search(context.Background(), domain.Query{
		OwnerName:     "Smith",
		Jurisdictions: []domain.Jurisdiction{montgomeryMD},
		MaxResults:    3,
	})
	require.NoError(t, err)

	require.Len(t, session.Documents, 3)
	// Newest entries survive the cap.
	assert.Equal(t, "a", session.Documents[0].SourceDocumentID)
	assert.Equal(t, "b", session.Documents[1].SourceDocumentID)
	assert.Equal(t, "c", session.Documents[2].SourceDocumentID)
}

func TestSearch_CacheHitSkipsConnector(t *testing.T) {
	f := newFixture(t, Config{})
	recorded := time.Now().AddDate(-1, 0, 0)

	conn := &fakeConnector{
		typ:  "mock",
		j:    montgomeryMD,
		caps: allModes(),
		docs: []domain.RecordDocument{testDoc(montgomeryMD, "2024-0001", recorded)},
	}
	f.addSource(t, domain.SourceDescriptor{Jurisdiction: montgomeryMD, ConnectorType: "mock", Tier: domain.TierMock}, conn)

	query := domain.Query{
		OwnerName:     "Smith",
		Jurisdictions: []domain.Jurisdiction{montgomeryMD},
	}

	first, err := f.orch.Search(context.Background(), query)
	require.NoError(t, err)
	require.Equal(t, domain.SessionCompleted, first.Status)
	callsAfterFirst := atomic.LoadInt32(&conn.calls)

	second, err := f.orch.Search(context.Background(), query)
	require.NoError(t, err)

	// The connector is not invoked a second time.
	assert.Equal(t, callsAfterFirst, atomic.LoadInt32(&conn.calls))
	require.Len(t, second.Outcomes, 1)
	assert.True(t, second.Outcomes[0].FromCache)
	assert.Zero(t, second.Outcomes[0].Elapsed)

	// Identical document sets.
	require.Len(t, second.Documents, len(first.Documents))
	for i := range first.Documents {
		assert.Equal(t, first.Documents[i].DedupKey(), second.Documents[i].DedupKey())
	}
}

func TestSearch_FailuresAreNotCached(t *testing.T) {
	f := newFixture(t, Config{})

	conn := &fakeConnector{typ: "mock", j: montgomeryMD, caps: allModes(), searchErr: errors.New("boom")}
	f.addSource(t, domain.SourceDescriptor{Jurisdiction: montgomeryMD, ConnectorType: "mock", Tier: domain.TierMock}, conn)

	query := domain.Query{OwnerName: "Smith", Jurisdictions: []domain.Jurisdiction{montgomeryMD}}

	_, err := f.orch.Search(context.Background(), query)
	require.NoError(t, err)
	_, err = f.orch.Search(context.Background(), query)
	require.NoError(t, err)

	// Retried live both times.
	assert.Equal(t, int32(2), atomic.LoadInt32(&conn.calls))
	assert.Zero(t, f.cache.Len())
}

func TestSearch_AuthFallbackToMock(t *testing.T) {
	f := newFixture(t, Config{})
	recorded := time.Now().AddDate(-1, 0, 0)

	mockConn := &fakeConnector{
		typ:  "mock",
		j:    montgomeryMD,
		caps: allModes(),
		docs: []domain.RecordDocument{testDoc(montgomeryMD, "mock-001", recorded)},
	}
	f.addSource(t, domain.SourceDescriptor{
		Jurisdiction: montgomeryMD, ConnectorType: "mdland",
		Tier: domain.TierPrimary, RequiresAuth: true,
	}, &fakeConnector{typ: "mdland", j: montgomeryMD, caps: allModes()})
	f.addSource(t, domain.SourceDescriptor{
		Jurisdiction: montgomeryMD, ConnectorType: "mock", Tier: domain.TierMock,
	}, mockConn)

	// No credentials supplied: the mock tier serves the search.
	session, err := f.orch.Search(context.Background(), domain.Query{
		OwnerName:     "Smith",
		Jurisdictions: []domain.Jurisdiction{montgomeryMD},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.SessionCompleted, session.Status)
	require.Len(t, session.Outcomes, 1)
	assert.Equal(t, "mock", session.Outcomes[0].ConnectorType)
	assert.Equal(t, int32(1), atomic.LoadInt32(&mockConn.calls))
}

func TestSearch_PrimaryUsedWhenCredentialsSupplied(t *testing.T) {
	f := newFixture(t, Config{})
	recorded := time.Now().AddDate(-1, 0, 0)

	primary := &fakeConnector{
		typ:  "mdland",
		j:    montgomeryMD,
		caps: driven.ConnectorCapabilities{RequiresAuth: true, SupportsParcel: true, SupportsOwner: true},
		docs: []domain.RecordDocument{testDoc(montgomeryMD, "real-001", recorded)},
	}
	primaryDesc := domain.SourceDescriptor{
		Jurisdiction: montgomeryMD, ConnectorType: "mdland",
		Tier: domain.TierPrimary, RequiresAuth: true,
	}
	f.addSource(t, primaryDesc, primary)
	f.addSource(t, domain.SourceDescriptor{
		Jurisdiction: montgomeryMD, ConnectorType: "mock", Tier: domain.TierMock,
	}, &fakeConnector{typ: "mock", j: montgomeryMD, caps: allModes()})

	creds := domain.Credentials{"email": "clerk@example.com", "password": "hunter2"}
	session, err := f.orch.Search(context.Background(), domain.Query{
		OwnerName:     "Smith",
		Jurisdictions: []domain.Jurisdiction{montgomeryMD},
		Credentials:   map[string]domain.Credentials{"mdland": creds},
	})
	require.NoError(t, err)

	require.Len(t, session.Outcomes, 1)
	assert.Equal(t, "mdland", session.Outcomes[0].ConnectorType)
	assert.Equal(t, creds, f.factory.gotCreds[primaryDesc.Key()])
}

func TestSearch_NoCredentialsNoFallback_Unauthenticated(t *testing.T) {
	f := newFixture(t, Config{})

	f.addSource(t, domain.SourceDescriptor{
		Jurisdiction: montgomeryMD, ConnectorType: "mdland",
		Tier: domain.TierPrimary, RequiresAuth: true,
	}, &fakeConnector{typ: "mdland", j: montgomeryMD, caps: allModes()})

	session, err := f.orch.Search(context.Background(), domain.Query{
		OwnerName:     "Smith",
		Jurisdictions: []domain.Jurisdiction{montgomeryMD},
	})
	require.NoError(t, err)

	require.Len(t, session.Outcomes, 1)
	assert.Equal(t, domain.OutcomeUnauthenticated, session.Outcomes[0].Status)
	// Never dispatched.
	assert.Zero(t, atomic.LoadInt32(&f.factory.creates))
	assert.Equal(t, domain.SessionFailed, session.Status)
}

func TestSearch_InvalidCredentials_Unauthenticated(t *testing.T) {
	f := newFixture(t, Config{})

	conn := &fakeConnector{
		typ:     "mdland",
		j:       montgomeryMD,
		caps:    driven.ConnectorCapabilities{RequiresAuth: true, SupportsOwner: true},
		authErr: domain.ErrAuthInvalid,
	}
	f.addSource(t, domain.SourceDescriptor{
		Jurisdiction: montgomeryMD, ConnectorType: "mdland",
		Tier: domain.TierPrimary, RequiresAuth: true,
	}, conn)

	session, err := f.orch.Search(context.Background(), domain.Query{
		OwnerName:     "Smith",
		Jurisdictions: []domain.Jurisdiction{montgomeryMD},
		Credentials:   map[string]domain.Credentials{"mdland": {"email": "x", "password": "wrong"}},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeUnauthenticated, session.Outcomes[0].Status)
}

func TestSearch_UnsupportedModes(t *testing.T) {
	f := newFixture(t, Config{})

	// Parcel-index-only source, owner-only query.
	conn := &fakeConnector{
		typ:  "countyapi",
		j:    losAngelesCA,
		caps: driven.ConnectorCapabilities{SupportsParcel: true},
	}
	f.addSource(t, domain.SourceDescriptor{Jurisdiction: losAngelesCA, ConnectorType: "countyapi", Tier: domain.TierPrimary}, conn)

	session, err := f.orch.Search(context.Background(), domain.Query{
		OwnerName:     "Smith",
		Jurisdictions: []domain.Jurisdiction{losAngelesCA},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeUnsupported, session.Outcomes[0].Status)
	assert.Zero(t, atomic.LoadInt32(&conn.calls))
}

func TestSearch_PartialParseWarningSurfaces(t *testing.T) {
	f := newFixture(t, Config{})
	recorded := time.Now().AddDate(-1, 0, 0)

	conn := &fakeConnector{
		typ:     "mdland",
		j:       montgomeryMD,
		caps:    allModes(),
		docs:    []domain.RecordDocument{testDoc(montgomeryMD, "2024-0001", recorded)},
		warning: &domain.PartialParseWarning{Source: "mdland", Parsed: 1, Skipped: 2},
	}
	f.addSource(t, domain.SourceDescriptor{Jurisdiction: montgomeryMD, ConnectorType: "mdland", Tier: domain.TierPrimary}, conn)

	session, err := f.orch.Search(context.Background(), domain.Query{
		OwnerName:     "Smith",
		Jurisdictions: []domain.Jurisdiction{montgomeryMD},
	})
	require.NoError(t, err)

	// Documents returned, call counted a success, warning surfaced.
	assert.Equal(t, domain.SessionCompleted, session.Status)
	assert.Len(t, session.Documents, 1)
	require.Len(t, session.Notes, 1)
	assert.Contains(t, session.Notes[0], "partial parse")
	assert.Contains(t, session.Outcomes[0].Warning, "1 parsed")
}

func TestSearch_EmptyResultIsSuccess(t *testing.T) {
	f := newFixture(t, Config{})

	conn := &fakeConnector{typ: "mock", j: montgomeryMD, caps: allModes()}
	f.addSource(t, domain.SourceDescriptor{Jurisdiction: montgomeryMD, ConnectorType: "mock", Tier: domain.TierMock}, conn)

	session, err := f.orch.Search(context.Background(), domain.Query{
		OwnerName:     "Nobody",
		Jurisdictions: []domain.Jurisdiction{montgomeryMD},
	})
	require.NoError(t, err)

	// "No records exist" is distinguishable from "source broken".
	assert.Equal(t, domain.SessionCompleted, session.Status)
	assert.Equal(t, domain.OutcomeSuccess, session.Outcomes[0].Status)
	assert.Empty(t, session.Documents)
}

func TestSearch_BoundedConcurrency(t *testing.T) {
	f := newFixture(t, Config{MaxConcurrent: 2})

	var inFlight, peak int32
	jurisdictions := make([]domain.Jurisdiction, 6)
	for i := range jurisdictions {
		j := domain.Jurisdiction{Region: "MD", Subregion: string(rune('a' + i))}
		jurisdictions[i] = j
		conn := &trackingConnector{
			fakeConnector: fakeConnector{typ: "mock", j: j, caps: allModes(), delay: 20 * time.Millisecond},
			inFlight:      &inFlight,
			peak:          &peak,
		}
		f.addSource(t, domain.SourceDescriptor{Jurisdiction: j, ConnectorType: "mock", Tier: domain.TierMock}, conn)
	}

	_, err := f.orch.Search(context.Background(), domain.Query{
		OwnerName:     "Smith",
		Jurisdictions: jurisdictions,
	})
	require.NoError(t, err)

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

// trackingConnector records peak concurrent search calls.
type trackingConnector struct {
	fakeConnector
	inFlight *int32
	peak     *int32
}

func (c *trackingConnector) SearchByOwner(ctx context.Context, name string, constraints domain.SearchConstraints) ([]domain.RecordDocument, error) {
	n := atomic.AddInt32(c.inFlight, 1)
	for {
		old := atomic.LoadInt32(c.peak)
		if n <= old || atomic.CompareAndSwapInt32(c.peak, old, n) {
			break
		}
	}
	defer atomic.AddInt32(c.inFlight, -1)
	return c.fakeConnector.SearchByOwner(ctx, name, constraints)
}

func TestConfig_Normalize(t *testing.T) {
	cfg := Config{}.Normalize()

	assert.Equal(t, DefaultMaxConcurrent, cfg.MaxConcurrent)
	assert.Equal(t, DefaultDispatchTimeout, cfg.DispatchTimeout)
	assert.Equal(t, domain.DefaultCacheTTL, cfg.CacheTTL)
	assert.Equal(t, domain.DefaultYearsBack, cfg.DefaultYearsBack)
	assert.Equal(t, domain.DefaultMaxResults, cfg.DefaultMaxResults)

	custom := Config{MaxConcurrent: 2, DispatchTimeout: time.Second}.Normalize()
	assert.Equal(t, 2, custom.MaxConcurrent)
	assert.Equal(t, time.Second, custom.DispatchTimeout)
}
