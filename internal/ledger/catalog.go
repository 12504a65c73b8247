// Package ledger owns the catalog arena and the settlement engine: the only
// two pieces of shared mutable state in the service, mutated exclusively
// through the operations defined here.
package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/holiman/uint256"

	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/domain"
	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/oracle"
)

// Catalog is an in-memory arena of items indexed by stable id. Ids are
// assigned monotonically and never reused; deletion leaves a tombstone so
// the record stays queryable.
type Catalog struct {
	mu     sync.RWMutex
	items  map[uint64]*domain.Item
	nextID uint64
	now    func() time.Time
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		items:  make(map[uint64]*domain.Item),
		nextID: 1,
		now:    time.Now,
	}
}

// WithClock overrides the catalog's clock for tests.
func (c *Catalog) WithClock(now func() time.Time) *Catalog {
	c.now = now
	return c
}

// Add creates a new active item priced at priceUSD whole reference-currency
// units, stored scaled to the canonical 18-decimal fixed point. A zero price
// is rejected.
func (c *Catalog) Add(name string, priceUSD uint64) (domain.Item, error) {
	if priceUSD == 0 {
		return domain.Item{}, fmt.Errorf("ledger: zero item price: %w", domain.ErrInvalidPrice)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now().UTC()
	item := &domain.Item{
		ID:             c.nextID,
		Name:           name,
		ReferencePrice: scaleUSD(priceUSD),
		Status:         domain.ItemStatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	c.items[item.ID] = item
	c.nextID++

	return *item, nil
}

// UpdatePrice changes an active item's reference price, with the same whole
// unit scaling and zero check as Add. Tombstoned items cannot be repriced.
func (c *Catalog) UpdatePrice(id uint64, priceUSD uint64) (domain.Item, error) {
	if priceUSD == 0 {
		return domain.Item{}, fmt.Errorf("ledger: zero item price: %w", domain.ErrInvalidPrice)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[id]
	if !ok || !item.Available() {
		return domain.Item{}, fmt.Errorf("ledger: item %d: %w", id, domain.ErrItemUnavailable)
	}

	item.ReferencePrice = scaleUSD(priceUSD)
	item.UpdatedAt = c.now().UTC()
	return *item, nil
}

// Delete tombstones an item. The transition is irreversible; the record
// remains for historical queries but every subsequent pricing, purchase, or
// reprice attempt fails.
func (c *Catalog) Delete(id uint64) (domain.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[id]
	if !ok || !item.Available() {
		return domain.Item{}, fmt.Errorf("ledger: item %d: %w", id, domain.ErrItemUnavailable)
	}

	item.Status = domain.ItemStatusDeleted
	item.UpdatedAt = c.now().UTC()
	return *item, nil
}

// Get returns an item by id, tombstoned or not.
func (c *Catalog) Get(id uint64) (domain.Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.items[id]
	if !ok {
		return domain.Item{}, fmt.Errorf("ledger: item %d: %w", id, domain.ErrNotFound)
	}
	return *item, nil
}

// List returns all items in id order, tombstones included.
func (c *Catalog) List() []domain.Item {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Item, 0, len(c.items))
	for id := uint64(1); id < c.nextID; id++ {
		if item, ok := c.items[id]; ok {
			out = append(out, *item)
		}
	}
	return out
}

// scaleUSD converts whole reference-currency units to the canonical fixed
// point. priceUSD * 1e18 cannot overflow 256 bits for any uint64 input.
func scaleUSD(priceUSD uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(priceUSD), oracle.CanonicalUnit())
}
