package mock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/titlegrid-labs/titlegrid-cli/internal/core/domain"
)

var montgomeryMD = domain.Jurisdiction{Region: "MD", Subregion: "Montgomery"}

func TestSearchByParcel(t *testing.T) {
	c := New(montgomeryMD)
	defer c.Close()

	docs, err := c.SearchByParcel(context.Background(), "12-345-6789", domain.SearchConstraints{})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "mock-001", docs[0].SourceDocumentID)
	assert.Equal(t, montgomeryMD, docs[0].Jurisdiction)
	assert.False(t, docs[0].RetrievedAt.IsZero())

	// Separator and case differences do not matter.
	docs, err = c.SearchByParcel(context.Background(), "123456789", domain.SearchConstraints{})
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	docs, err = c.SearchByParcel(context.Background(), "99-999-9999", domain.SearchConstraints{})
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestSearchByOwner(t *testing.T) {
	c := New(montgomeryMD)
	defer c.Close()

	// Grantee match.
	docs, err := c.SearchByOwner(context.Background(), "alice smith", domain.SearchConstraints{})
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	// Grantor-only match.
	docs, err = c.SearchByOwner(context.Background(), "Jane Doe", domain.SearchConstraints{})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, domain.KindDeed, docs[0].Kind)
}

func TestSearchByAddress(t *testing.T) {
	c := New(montgomeryMD)
	defer c.Close()

	docs, err := c.SearchByAddress(context.Background(), "main st", domain.SearchConstraints{})
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestConstraintsApply(t *testing.T) {
	c := New(montgomeryMD)
	defer c.Close()

	// Kind filter.
	docs, err := c.SearchByOwner(context.Background(), "Smith", domain.SearchConstraints{
		Kinds: []domain.DocumentKind{domain.KindMortgage},
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, domain.KindMortgage, docs[0].Kind)

	// Date floor excludes the January mortgage.
	docs, err = c.SearchByOwner(context.Background(), "Smith", domain.SearchConstraints{
		NotBefore: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "mock-001", docs[0].SourceDocumentID)

	// Result cap.
	docs, err = c.SearchByOwner(context.Background(), "Smith", domain.SearchConstraints{MaxResults: 1})
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestClosedConnector(t *testing.T) {
	c := New(montgomeryMD)
	require.NoError(t, c.Close())

	_, err := c.SearchByOwner(context.Background(), "Smith", domain.SearchConstraints{})
	assert.ErrorIs(t, err, domain.ErrConnectorClosed)
}
