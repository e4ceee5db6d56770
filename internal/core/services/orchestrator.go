package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/titlegrid-labs/titlegrid-cli/internal/core/domain"
	"github.com/titlegrid-labs/titlegrid-cli/internal/core/ports/driven"
	"github.com/titlegrid-labs/titlegrid-cli/internal/core/ports/driving"
	"github.com/titlegrid-labs/titlegrid-cli/internal/logger"
)

// Ensure SearchOrchestrator implements the interface.
var _ driving.SearchService = (*SearchOrchestrator)(nil)

// Config carries the orchestrator's tunables. Zero values fall back
// to the defaults below; every field is overridable per query where
// the query carries the corresponding field.
type Config struct {
	// MaxConcurrent bounds in-flight connector dispatches.
	MaxConcurrent int

	// DispatchTimeout caps one connector dispatch.
	DispatchTimeout time.Duration

	// CacheTTL bounds how long successful outcomes are reused.
	CacheTTL time.Duration

	// DefaultYearsBack applies when a query leaves YearsBack unset.
	DefaultYearsBack int

	// DefaultMaxResults applies when a query leaves MaxResults unset.
	DefaultMaxResults int
}

// Orchestrator defaults.
const (
	DefaultMaxConcurrent   = 5
	DefaultDispatchTimeout = 30 * time.Second
)

// Normalize fills unset fields with defaults.
func (c Config) Normalize() Config {
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = DefaultMaxConcurrent
	}
	if c.DispatchTimeout <= 0 {
		c.DispatchTimeout = DefaultDispatchTimeout
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = domain.DefaultCacheTTL
	}
	if c.DefaultYearsBack <= 0 {
		c.DefaultYearsBack = domain.DefaultYearsBack
	}
	if c.DefaultMaxResults <= 0 {
		c.DefaultMaxResults = domain.DefaultMaxResults
	}
	return c
}

// SearchOrchestrator coordinates multi-jurisdiction record searches:
// it resolves sources, checks the result cache, fans dispatches out
// under a concurrency cap, merges documents and persists the session.
type SearchOrchestrator struct {
	registry *SourceRegistry
	factory  driven.ConnectorFactory
	cache    driven.ResultCache
	sessions driven.SessionStore
	cfg      Config

	// now is a clock seam for tests.
	now func() time.Time
}

// NewSearchOrchestrator creates an orchestrator over the given
// registry, connector factory, result cache and session store.
func NewSearchOrchestrator(
	registry *SourceRegistry,
	factory driven.ConnectorFactory,
	cache driven.ResultCache,
	sessions driven.SessionStore,
	cfg Config,
) *SearchOrchestrator {
	return &SearchOrchestrator{
		registry: registry,
		factory:  factory,
		cache:    cache,
		sessions: sessions,
		cfg:      cfg.Normalize(),
		now:      time.Now,
	}
}

// dispatchPlan is the per-jurisdiction decision made before fan-out:
// either an immediate outcome (no coverage, missing credentials,
// cache hit) or a descriptor to dispatch.
type dispatchPlan struct {
	index     int
	desc      domain.SourceDescriptor
	creds     domain.Credentials
	cacheKey  string
	immediate *domain.SourceOutcome
}

// Search runs the full fan-out/fan-in algorithm and returns the
// terminal session. Individual source failures never abort the
// search; only query validation fails the call.
func (o *SearchOrchestrator) Search(ctx context.Context, query domain.Query) (*domain.SearchSession, error) {
	if query.YearsBack <= 0 {
		query.YearsBack = o.cfg.DefaultYearsBack
	}
	if query.MaxResults <= 0 {
		query.MaxResults = o.cfg.DefaultMaxResults
	}
	if err := query.Validate(); err != nil {
		return nil, err
	}

	session := domain.SearchSession{
		ID:        uuid.NewString(),
		Query:     query,
		CreatedAt: o.now(),
		Status:    domain.SessionPending,
	}
	if err := o.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	logger.Section("Record Search")
	logger.Info("Session %s: %d jurisdiction(s)", session.ID, len(query.Jurisdictions))

	plans := o.plan(query)
	outcomes := make([]domain.SourceOutcome, len(plans))

	var g errgroup.Group
	g.SetLimit(o.cfg.MaxConcurrent)
	for _, p := range plans {
		if p.immediate != nil {
			outcomes[p.index] = *p.immediate
			continue
		}
		g.Go(func() error {
			outcome := o.dispatch(ctx, query, p)
			if outcome.Status == domain.OutcomeSuccess {
				o.cache.Put(p.cacheKey, outcome, o.cfg.CacheTTL)
			}
			outcomes[p.index] = outcome
			return nil
		})
	}
	// Dispatch errors are captured as outcomes, never returned.
	_ = g.Wait()

	merged := mergeDocuments(outcomes, query.MaxResults)
	notes := collectNotes(outcomes)
	completedAt := o.now()

	err := o.sessions.Update(ctx, session.ID, func(s *domain.SearchSession) {
		s.Outcomes = outcomes
		s.Documents = merged
		s.Notes = notes
		s.CompletedAt = completedAt
		s.Status = s.ResolveStatus()
		s.Recount()
	})
	if err != nil {
		return nil, fmt.Errorf("finalize session: %w", err)
	}

	final, err := o.sessions.Get(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	logger.Info("Session %s: %s, %d/%d sources succeeded, %d document(s)",
		final.ID, final.Status, final.Counts.SourcesSucceeded, final.Counts.SourcesAttempted, final.Counts.Documents)
	return final, nil
}

// GetSession retrieves a session by id.
func (o *SearchOrchestrator) GetSession(ctx context.Context, id string) (*domain.SearchSession, error) {
	return o.sessions.Get(ctx, id)
}

// ListSessions returns all stored sessions, newest first.
func (o *SearchOrchestrator) ListSessions(ctx context.Context) ([]domain.SearchSession, error) {
	return o.sessions.List(ctx)
}

// plan makes the per-jurisdiction decisions that precede fan-out:
// registry resolution, tier selection and cache lookup. Selection
// happens once per jurisdiction per search.
func (o *SearchOrchestrator) plan(query domain.Query) []dispatchPlan {
	plans := make([]dispatchPlan, 0, len(query.Jurisdictions))
	for i, j := range query.Jurisdictions {
		p := dispatchPlan{index: i}

		candidates := o.registry.Resolve(j)
		if len(candidates) == 0 {
			logger.Debug("%s: no registered source", j)
			p.immediate = &domain.SourceOutcome{
				Jurisdiction: j,
				Status:       domain.OutcomeUnsupported,
				Error:        "no registered source for jurisdiction",
			}
			plans = append(plans, p)
			continue
		}

		desc, ok := selectDescriptor(candidates, query)
		if !ok {
			logger.Debug("%s: credentials required for %s and no fallback registered", j, candidates[0].ConnectorType)
			p.immediate = &domain.SourceOutcome{
				Jurisdiction:  j,
				ConnectorType: candidates[0].ConnectorType,
				Status:        domain.OutcomeUnauthenticated,
				Error:         "source requires credentials and none were supplied",
			}
			plans = append(plans, p)
			continue
		}

		p.desc = desc
		p.creds = query.CredentialsFor(desc.ConnectorType)
		p.cacheKey = domain.CacheKey(j, desc.ConnectorType, query)

		if cached, hit := o.cache.Get(p.cacheKey); hit {
			logger.Debug("%s: cache hit", j)
			cached.FromCache = true
			cached.Elapsed = 0
			p.immediate = &cached
		}
		plans = append(plans, p)
	}
	return plans
}

// selectDescriptor picks the dispatch target for a jurisdiction:
// the best tier whose credential needs the query can meet. Returns
// false when every candidate requires credentials the query lacks.
func selectDescriptor(candidates []domain.SourceDescriptor, query domain.Query) (domain.SourceDescriptor, bool) {
	for _, desc := range candidates {
		if desc.RequiresAuth && query.CredentialsFor(desc.ConnectorType) == nil {
			continue
		}
		return desc, true
	}
	return domain.SourceDescriptor{}, false
}

// dispatch runs one connector call under the per-dispatch timeout.
// The connector work runs on its own goroutine with a buffered
// hand-off so a source that ignores cancellation cannot hold the
// fan-out slot past the deadline.
func (o *SearchOrchestrator) dispatch(ctx context.Context, query domain.Query, p dispatchPlan) domain.SourceOutcome {
	start := o.now()
	dctx, cancel := context.WithTimeout(ctx, o.cfg.DispatchTimeout)
	defer cancel()

	done := make(chan domain.SourceOutcome, 1)
	go func() {
		conn, err := o.factory.Create(dctx, p.desc, p.creds)
		if err != nil {
			done <- domain.SourceOutcome{
				Jurisdiction:  p.desc.Jurisdiction,
				ConnectorType: p.desc.ConnectorType,
				Status:        domain.OutcomeFailed,
				Error:         fmt.Sprintf("create connector: %v", err),
			}
			return
		}
		defer conn.Close()
		done <- o.runConnector(dctx, conn, query)
	}()

	select {
	case outcome := <-done:
		outcome.Elapsed = o.now().Sub(start)
		return outcome
	case <-dctx.Done():
		status := domain.OutcomeTimeout
		detail := "dispatch deadline exceeded"
		if !errors.Is(dctx.Err(), context.DeadlineExceeded) {
			status = domain.OutcomeFailed
			detail = "search canceled"
		}
		logger.Warn("%s: %s", p.desc.Jurisdiction, detail)
		return domain.SourceOutcome{
			Jurisdiction:  p.desc.Jurisdiction,
			ConnectorType: p.desc.ConnectorType,
			Status:        status,
			Elapsed:       o.now().Sub(start),
			Error:         detail,
		}
	}
}

// runConnector executes every search mode the query carries and the
// connector supports, concatenating and deduplicating the results.
func (o *SearchOrchestrator) runConnector(ctx context.Context, conn driven.Connector, query domain.Query) domain.SourceOutcome {
	j := conn.Jurisdiction()
	outcome := domain.SourceOutcome{
		Jurisdiction:  j,
		ConnectorType: conn.Type(),
	}

	caps := conn.Capabilities()
	if caps.RequiresAuth {
		if err := conn.Authenticate(ctx, query.CredentialsFor(conn.Type())); err != nil {
			if errors.Is(err, domain.ErrAuthRequired) || errors.Is(err, domain.ErrAuthInvalid) {
				outcome.Status = domain.OutcomeUnauthenticated
			} else {
				outcome.Status = domain.OutcomeFailed
			}
			outcome.Error = err.Error()
			return outcome
		}
	}

	type mode struct {
		term      string
		supported bool
		search    func(context.Context, string, domain.SearchConstraints) ([]domain.RecordDocument, error)
	}
	modes := []mode{
		{query.ParcelID, caps.SupportsParcel, conn.SearchByParcel},
		{query.PropertyAddress, caps.SupportsAddress, conn.SearchByAddress},
		{query.OwnerName, caps.SupportsOwner, conn.SearchByOwner},
	}

	constraints := query.Constraints(o.now())
	seen := make(map[string]int)
	var docs []domain.RecordDocument
	applicable, unsupported := 0, 0

	for _, m := range modes {
		if m.term == "" {
			continue
		}
		applicable++
		if !m.supported {
			unsupported++
			continue
		}

		found, err := m.search(ctx, m.term, constraints)
		if warning, ok := domain.AsPartialParse(err); ok {
			outcome.Warning = warning.Error()
			err = nil
		}
		if errors.Is(err, domain.ErrUnsupportedOperation) {
			unsupported++
			continue
		}
		if err != nil {
			outcome.Status = domain.OutcomeFailed
			outcome.Error = err.Error()
			return outcome
		}
		for _, d := range found {
			key := d.DedupKey()
			if idx, dup := seen[key]; dup {
				docs[idx] = d
				continue
			}
			seen[key] = len(docs)
			docs = append(docs, d)
		}
	}

	if applicable > 0 && unsupported == applicable {
		outcome.Status = domain.OutcomeUnsupported
		outcome.Error = "source supports none of the query's search modes"
		return outcome
	}

	if constraints.MaxResults > 0 && len(docs) > constraints.MaxResults {
		docs = docs[:constraints.MaxResults]
	}
	outcome.Status = domain.OutcomeSuccess
	outcome.Documents = docs
	logger.Debug("%s: %d document(s)", j, len(docs))
	return outcome
}

// mergeDocuments concatenates all outcome documents, deduplicates by
// composite key (last seen wins) and caps the list at maxResults,
// dropping the oldest entries first. The final order is deterministic:
// newest recording date first, then jurisdiction, then key.
func mergeDocuments(outcomes []domain.SourceOutcome, maxResults int) []domain.RecordDocument {
	byKey := make(map[string]domain.RecordDocument)
	for _, o := range outcomes {
		for _, d := range o.Documents {
			byKey[d.DedupKey()] = d
		}
	}

	merged := make([]domain.RecordDocument, 0, len(byKey))
	for _, d := range byKey {
		merged = append(merged, d)
	}
	sort.Slice(merged, func(a, b int) bool {
		if !merged[a].RecordedAt.Equal(merged[b].RecordedAt) {
			return merged[a].RecordedAt.After(merged[b].RecordedAt)
		}
		ja, jb := merged[a].Jurisdiction.Key(), merged[b].Jurisdiction.Key()
		if ja != jb {
			return ja < jb
		}
		return merged[a].DedupKey() < merged[b].DedupKey()
	})

	if maxResults > 0 && len(merged) > maxResults {
		merged = merged[:maxResults]
	}
	return merged
}

// collectNotes lifts per-outcome warnings to session level.
func collectNotes(outcomes []domain.SourceOutcome) []string {
	var notes []string
	for _, o := range outcomes {
		if o.Warning != "" {
			notes = append(notes, fmt.Sprintf("%s: %s", o.Jurisdiction, o.Warning))
		}
	}
	return notes
}
