package domain

// PriorityTier orders a jurisdiction's sources for selection.
// Lower values are tried first.
type PriorityTier int

const (
	// TierPrimary is the official or most reliable source.
	TierPrimary PriorityTier = 1
	// TierFallback is a less reliable alternative source.
	TierFallback PriorityTier = 2
	// TierMock serves deterministic synthetic data for development
	// and demoing.
	TierMock PriorityTier = 3
)

// String returns the tier label used in seed files and CLI output.
func (t PriorityTier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierFallback:
		return "fallback"
	case TierMock:
		return "mock"
	default:
		return "unknown"
	}
}

// ParsePriorityTier maps a seed-file label to a tier.
// Unknown labels map to TierMock so a bad seed entry can never
// shadow a real source.
func ParsePriorityTier(label string) PriorityTier {
	switch label {
	case "primary":
		return TierPrimary
	case "fallback":
		return TierFallback
	default:
		return TierMock
	}
}

// AccessMethod describes how a connector reaches its source.
type AccessMethod string

const (
	// AccessAPI uses a structured records API.
	AccessAPI AccessMethod = "api"
	// AccessScrape extracts records from the source's web pages.
	AccessScrape AccessMethod = "scrape"
	// AccessManual means records require a manual request; the
	// connector can only report coverage, not search.
	AccessManual AccessMethod = "manual"
	// AccessMock serves synthetic data.
	AccessMock AccessMethod = "mock"
)

// SourceDescriptor is static metadata for one connector instance.
// Descriptors are immutable after registration and owned exclusively
// by the registry; callers receive copies.
type SourceDescriptor struct {
	// Jurisdiction identifies the region this source covers.
	Jurisdiction Jurisdiction

	// ConnectorType names the connector implementation
	// (e.g., "mdland", "countyapi", "mock").
	ConnectorType string

	// Tier orders this source among the jurisdiction's candidates.
	Tier PriorityTier

	// AccessMethod is the declared access method.
	AccessMethod AccessMethod

	// RequiresAuth indicates the source needs credentials.
	RequiresAuth bool

	// BaseURL is the base endpoint for the source, empty for mock.
	BaseURL string

	// RatePerMinute caps requests against this source, 0 for no cap.
	RatePerMinute int

	// Notes carries free-form operator notes about the source.
	Notes string
}

// Key returns the registry key for duplicate detection:
// one entry per (jurisdiction, connector type) pair.
func (d SourceDescriptor) Key() string {
	return d.Jurisdiction.Key() + "#" + d.ConnectorType
}

// RegistryStats summarizes source registry coverage.
type RegistryStats struct {
	// Sources is the total number of registered descriptors.
	Sources int

	// Jurisdictions is the number of distinct covered jurisdictions.
	Jurisdictions int

	// Regions is the number of distinct covered regions.
	Regions int

	// ByAccessMethod counts descriptors per declared access method.
	ByAccessMethod map[AccessMethod]int

	// RequiringAuth counts descriptors that need credentials.
	RequiringAuth int
}
