package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery_Validate_RequiresIdentifyingField(t *testing.T) {
	q := Query{
		Jurisdictions: []Jurisdiction{{Region: "MD", Subregion: "Montgomery"}},
	}

	err := q.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestQuery_Validate_RequiresJurisdiction(t *testing.T) {
	q := Query{OwnerName: "Smith"}

	err := q.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestQuery_Validate_RejectsEmptyJurisdiction(t *testing.T) {
	q := Query{
		OwnerName:     "Smith",
		Jurisdictions: []Jurisdiction{{}},
	}

	assert.ErrorIs(t, q.Validate(), ErrInvalidQuery)
}

func TestQuery_Validate_WhitespaceFieldsDoNotCount(t *testing.T) {
	q := Query{
		ParcelID:      "   ",
		OwnerName:     "\t",
		Jurisdictions: []Jurisdiction{{Region: "MD", Subregion: "Montgomery"}},
	}

	assert.ErrorIs(t, q.Validate(), ErrInvalidQuery)
}

func TestQuery_Validate_Success(t *testing.T) {
	q := Query{
		ParcelID:      "12-345-6789",
		Jurisdictions: []Jurisdiction{{Region: "MD", Subregion: "Montgomery"}},
		YearsBack:     40,
		MaxResults:    100,
	}

	assert.NoError(t, q.Validate())
}

func TestQuery_Constraints_Defaults(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	q := Query{OwnerName: "Smith"}

	c := q.Constraints(now)

	assert.Equal(t, now.AddDate(-DefaultYearsBack, 0, 0), c.NotBefore)
	assert.Equal(t, DefaultMaxResults, c.MaxResults)
	assert.Empty(t, c.Kinds)
}

func TestQuery_Constraints_Overrides(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	q := Query{
		OwnerName:       "Smith",
		YearsBack:       10,
		MaxResults:      25,
		DocumentFilters: []DocumentKind{KindDeed},
	}

	c := q.Constraints(now)

	assert.Equal(t, now.AddDate(-10, 0, 0), c.NotBefore)
	assert.Equal(t, 25, c.MaxResults)
	assert.Equal(t, []DocumentKind{KindDeed}, c.Kinds)
}

func TestQuery_CredentialsFor(t *testing.T) {
	q := Query{
		Credentials: map[string]Credentials{
			"mdland": {"email": "clerk@example.com", "password": "hunter2"},
		},
	}

	creds := q.CredentialsFor("mdland")
	require.NotNil(t, creds)
	assert.Equal(t, "clerk@example.com", creds.Get("email"))

	assert.Nil(t, q.CredentialsFor("countyapi"))
	assert.Empty(t, Credentials(nil).Get("api_key"))
}

func TestSearchConstraints_Filter(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	c := SearchConstraints{
		NotBefore:  now.AddDate(-5, 0, 0),
		MaxResults: 2,
		Kinds:      []DocumentKind{KindDeed, KindMortgage},
	}

	docs := []RecordDocument{
		{Kind: KindDeed, RecordedAt: now.AddDate(-1, 0, 0)},
		{Kind: KindLien, RecordedAt: now.AddDate(-1, 0, 0)},       // excluded kind
		{Kind: KindMortgage, RecordedAt: now.AddDate(-10, 0, 0)},  // too old
		{Kind: KindMortgage, RecordedAt: now.AddDate(-2, 0, 0)},
		{Kind: KindDeed, RecordedAt: now.AddDate(-3, 0, 0)},       // over cap
	}

	filtered := c.Filter(docs)

	require.Len(t, filtered, 2)
	assert.Equal(t, KindDeed, filtered[0].Kind)
	assert.Equal(t, KindMortgage, filtered[1].Kind)
}

func TestSearchConstraints_Filter_NoKindsAllowsAll(t *testing.T) {
	c := SearchConstraints{MaxResults: 10}
	docs := []RecordDocument{{Kind: KindPlat}, {Kind: KindUCC}}

	assert.Len(t, c.Filter(docs), 2)
}
