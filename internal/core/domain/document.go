package domain

import (
	"sort"
	"strings"
	"time"
)

// DocumentKind classifies a land-record document.
type DocumentKind string

const (
	// KindDeed is a conveyance of title.
	KindDeed DocumentKind = "deed"
	// KindMortgage is a mortgage or deed of trust.
	KindMortgage DocumentKind = "mortgage"
	// KindLien is a recorded lien against the property.
	KindLien DocumentKind = "lien"
	// KindRelease is a release or satisfaction of a prior instrument.
	KindRelease DocumentKind = "release"
	// KindEasement is a recorded easement or right of way.
	KindEasement DocumentKind = "easement"
	// KindPlat is a recorded plat or survey.
	KindPlat DocumentKind = "plat"
	// KindJudgment is a recorded judgment.
	KindJudgment DocumentKind = "judgment"
	// KindUCC is a UCC financing statement.
	KindUCC DocumentKind = "ucc"
	// KindOther is any document that fits no other kind.
	KindOther DocumentKind = "other"
)

// Kinds returns all document kinds in their canonical order.
func Kinds() []DocumentKind {
	return []DocumentKind{
		KindDeed, KindMortgage, KindLien, KindRelease,
		KindEasement, KindPlat, KindJudgment, KindUCC, KindOther,
	}
}

// ParseDocumentKind maps a source-supplied label to a DocumentKind.
// Unrecognized labels map to KindOther rather than failing.
func ParseDocumentKind(label string) DocumentKind {
	switch DocumentKind(strings.ToLower(strings.TrimSpace(label))) {
	case KindDeed, KindMortgage, KindLien, KindRelease,
		KindEasement, KindPlat, KindJudgment, KindUCC:
		return DocumentKind(strings.ToLower(strings.TrimSpace(label)))
	default:
		return KindOther
	}
}

// InstrumentRef locates a document within a jurisdiction's books.
type InstrumentRef struct {
	// Book is the liber/book number, empty if the source uses
	// instrument numbers only.
	Book string

	// Page is the folio/page number within the book.
	Page string

	// InstrumentNumber is the source's instrument identifier.
	InstrumentNumber string
}

// IsZero reports whether the reference carries no locator at all.
func (r InstrumentRef) IsZero() bool {
	return r.Book == "" && r.Page == "" && r.InstrumentNumber == ""
}

// RecordDocument is the normalized unit of retrieved data.
// It is immutable once produced by a connector.
type RecordDocument struct {
	// SourceDocumentID is the source-assigned identifier, used for
	// deduplication. May be empty for sources that do not expose one.
	SourceDocumentID string

	// Jurisdiction tags the document with its source region.
	Jurisdiction Jurisdiction

	// Kind classifies the document.
	Kind DocumentKind

	// RecordedAt is the recording date at the source.
	RecordedAt time.Time

	// Grantors are the granting parties, in source order.
	Grantors []string

	// Grantees are the receiving parties, in source order.
	Grantees []string

	// Consideration is the monetary consideration, zero when the
	// source records none.
	Consideration float64

	// Ref is the book/page or instrument reference.
	Ref InstrumentRef

	// ParcelID is the parcel/tax account number, if known.
	ParcelID string

	// PropertyAddress is the property address, if known.
	PropertyAddress string

	// LegalDescription is the recorded legal description, if known.
	LegalDescription string

	// RetrievedAt is when the connector fetched the document.
	RetrievedAt time.Time
}

// DedupKey returns the composite key used to merge documents across
// outcomes. When the source assigned a document id the key is
// (jurisdiction, kind, recording date, source id); otherwise it falls
// back to (jurisdiction, kind, recording date, sorted grantors, sorted
// grantees).
func (d RecordDocument) DedupKey() string {
	var b strings.Builder
	b.WriteString(d.Jurisdiction.Key())
	b.WriteString("|")
	b.WriteString(string(d.Kind))
	b.WriteString("|")
	b.WriteString(d.RecordedAt.UTC().Format("2006-01-02"))
	b.WriteString("|")
	if d.SourceDocumentID != "" {
		b.WriteString("id:")
		b.WriteString(d.SourceDocumentID)
		return b.String()
	}
	b.WriteString("parties:")
	b.WriteString(joinSortedNames(d.Grantors))
	b.WriteString("/")
	b.WriteString(joinSortedNames(d.Grantees))
	return b.String()
}

func joinSortedNames(names []string) string {
	normalized := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" {
			normalized = append(normalized, n)
		}
	}
	sort.Strings(normalized)
	return strings.Join(normalized, ",")
}
