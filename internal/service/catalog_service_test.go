package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/domain"
)

func newCatalogService(t *testing.T) (*CatalogService, *memJournal) {
	t.Helper()
	engine := newTestEngine(t, &fakeTransferor{})
	journal := &memJournal{}
	return NewCatalogService(engine, journal, &memBus{}, testLogger()), journal
}

func TestAddItemJournals(t *testing.T) {
	svc, journal := newCatalogService(t)

	item, err := svc.AddItem(context.Background(), "widget", 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), item.ID)
	assert.Equal(t, "5000000000000000000", item.ReferencePrice.Dec())

	require.Len(t, journal.events, 1)
	assert.Equal(t, domain.EventItemAdded, journal.events[0].Type)
	assert.Equal(t, item.ReferencePrice.Dec(), journal.events[0].Detail["reference_price"])
}

func TestDeleteItemIsIrreversible(t *testing.T) {
	svc, journal := newCatalogService(t)

	item, err := svc.AddItem(context.Background(), "widget", 5)
	require.NoError(t, err)

	_, err = svc.DeleteItem(context.Background(), item.ID)
	require.NoError(t, err)

	// The tombstone stays queryable but cannot be repriced or quoted.
	got, err := svc.GetItem(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ItemStatusDeleted, got.Status)

	_, err = svc.UpdatePrice(context.Background(), item.ID, 10)
	assert.ErrorIs(t, err, domain.ErrItemUnavailable)
	_, err = svc.Quote(context.Background(), item.ID)
	assert.ErrorIs(t, err, domain.ErrItemUnavailable)

	require.Len(t, journal.events, 2)
	assert.Equal(t, domain.EventItemDeleted, journal.events[1].Type)
}

func TestQuoteUsesLiveRate(t *testing.T) {
	svc, _ := newCatalogService(t)

	item, err := svc.AddItem(context.Background(), "widget", 1)
	require.NoError(t, err)

	// $1 at the fixed $2000 test rate.
	owed, err := svc.Quote(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, "500000000000000", owed.Dec())
}

func TestListItemsIncludesTombstones(t *testing.T) {
	svc, _ := newCatalogService(t)

	a, err := svc.AddItem(context.Background(), "a", 1)
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), "b", 2)
	require.NoError(t, err)
	_, err = svc.DeleteItem(context.Background(), a.ID)
	require.NoError(t, err)

	items := svc.ListItems(context.Background())
	require.Len(t, items, 2)
	assert.Equal(t, domain.ItemStatusDeleted, items[0].Status)
	assert.Equal(t, domain.ItemStatusActive, items[1].Status)
}
