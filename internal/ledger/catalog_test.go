package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/domain"
)

func TestCatalogAdd(t *testing.T) {
	c := NewCatalog()

	item, err := c.Add("widget", 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), item.ID)
	assert.Equal(t, "1000000000000000000", item.ReferencePrice.Dec())
	assert.Equal(t, domain.ItemStatusActive, item.Status)
}

func TestCatalogAddZeroPrice(t *testing.T) {
	c := NewCatalog()

	_, err := c.Add("widget", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)
}

func TestCatalogIDsMonotonicNeverReused(t *testing.T) {
	c := NewCatalog()

	a, err := c.Add("a", 1)
	require.NoError(t, err)
	b, err := c.Add("b", 2)
	require.NoError(t, err)
	assert.Equal(t, a.ID+1, b.ID)

	_, err = c.Delete(a.ID)
	require.NoError(t, err)

	d, err := c.Add("c", 3)
	require.NoError(t, err)
	assert.Equal(t, b.ID+1, d.ID, "deleted ids are never reassigned")
}

func TestCatalogUpdatePrice(t *testing.T) {
	c := NewCatalog()
	item, err := c.Add("widget", 1)
	require.NoError(t, err)

	updated, err := c.UpdatePrice(item.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, "7000000000000000000", updated.ReferencePrice.Dec())

	_, err = c.UpdatePrice(item.ID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)

	_, err = c.UpdatePrice(999, 5)
	assert.ErrorIs(t, err, domain.ErrItemUnavailable)
}

func TestCatalogDeleteIsTombstone(t *testing.T) {
	c := NewCatalog()
	item, err := c.Add("widget", 1)
	require.NoError(t, err)

	deleted, err := c.Delete(item.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ItemStatusDeleted, deleted.Status)

	// Record stays queryable.
	got, err := c.Get(item.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ItemStatusDeleted, got.Status)

	// No transition back, no reprice, no double delete.
	_, err = c.Delete(item.ID)
	assert.ErrorIs(t, err, domain.ErrItemUnavailable)
	_, err = c.UpdatePrice(item.ID, 2)
	assert.ErrorIs(t, err, domain.ErrItemUnavailable)
}

func TestCatalogList(t *testing.T) {
	c := NewCatalog()
	_, err := c.Add("a", 1)
	require.NoError(t, err)
	b, err := c.Add("b", 2)
	require.NoError(t, err)
	_, err = c.Delete(b.ID)
	require.NoError(t, err)

	items := c.List()
	require.Len(t, items, 2, "tombstones are listed too")
	assert.Equal(t, uint64(1), items[0].ID)
	assert.Equal(t, domain.ItemStatusDeleted, items[1].Status)
}

func TestCatalogGetMissing(t *testing.T) {
	c := NewCatalog()
	_, err := c.Get(42)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
