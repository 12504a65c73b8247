package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/holiman/uint256"

	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/domain"
	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/ledger"
)

// CatalogService exposes catalog management on top of the ledger's item
// arena. Every mutation is journaled and fanned out on the event bus.
type CatalogService struct {
	engine *ledger.Engine
	sink   eventSink
	logger *slog.Logger
}

// NewCatalogService creates a CatalogService with all required dependencies.
func NewCatalogService(
	engine *ledger.Engine,
	journal domain.EventJournal,
	bus domain.EventBus,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		engine: engine,
		sink:   eventSink{journal: journal, bus: bus, logger: logger},
		logger: logger.With(slog.String("component", "catalog_service")),
	}
}

// AddItem registers a new item priced in whole reference-currency units.
func (s *CatalogService) AddItem(ctx context.Context, name string, priceUSD uint64) (domain.Item, error) {
	item, err := s.engine.Catalog().Add(name, priceUSD)
	if err != nil {
		return domain.Item{}, fmt.Errorf("catalog_service: add %q: %w", name, err)
	}

	s.sink.emit(ctx, domain.EventItemAdded, map[string]any{
		"item_id":         item.ID,
		"name":            item.Name,
		"reference_price": item.ReferencePrice.Dec(),
	})
	s.logger.InfoContext(ctx, "item added",
		slog.Uint64("item_id", item.ID),
		slog.String("name", item.Name),
	)
	return item, nil
}

// UpdatePrice changes an active item's reference price.
func (s *CatalogService) UpdatePrice(ctx context.Context, id uint64, priceUSD uint64) (domain.Item, error) {
	item, err := s.engine.Catalog().UpdatePrice(id, priceUSD)
	if err != nil {
		return domain.Item{}, fmt.Errorf("catalog_service: update price of item %d: %w", id, err)
	}

	s.sink.emit(ctx, domain.EventPriceUpdated, map[string]any{
		"item_id":         item.ID,
		"reference_price": item.ReferencePrice.Dec(),
	})
	return item, nil
}

// DeleteItem tombstones an item. The id is never reused and the record stays
// queryable.
func (s *CatalogService) DeleteItem(ctx context.Context, id uint64) (domain.Item, error) {
	item, err := s.engine.Catalog().Delete(id)
	if err != nil {
		return domain.Item{}, fmt.Errorf("catalog_service: delete item %d: %w", id, err)
	}

	s.sink.emit(ctx, domain.EventItemDeleted, map[string]any{
		"item_id": item.ID,
	})
	return item, nil
}

// GetItem returns an item by id, tombstoned or not.
func (s *CatalogService) GetItem(_ context.Context, id uint64) (domain.Item, error) {
	item, err := s.engine.Catalog().Get(id)
	if err != nil {
		return domain.Item{}, fmt.Errorf("catalog_service: get item %d: %w", id, err)
	}
	return item, nil
}

// ListItems returns the full catalog in id order, tombstones included.
func (s *CatalogService) ListItems(_ context.Context) []domain.Item {
	return s.engine.Catalog().List()
}

// Quote returns the settlement amount currently owed for an item at the live
// oracle rate.
func (s *CatalogService) Quote(ctx context.Context, id uint64) (*uint256.Int, error) {
	owed, err := s.engine.AmountOwed(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("catalog_service: quote item %d: %w", id, err)
	}
	return owed, nil
}
