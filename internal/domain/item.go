package domain

import (
	"time"

	"github.com/holiman/uint256"
)

// ItemStatus represents the lifecycle state of a catalog item.
type ItemStatus string

const (
	ItemStatusActive  ItemStatus = "active"
	ItemStatusDeleted ItemStatus = "deleted"
)

// Item is a catalog entry priced in the reference currency. ReferencePrice is
// a fixed-point USD value at 18 fractional digits. A deleted item is a
// tombstone: the record survives for historical queries but can never be
// priced, purchased, or repriced again.
type Item struct {
	ID             uint64       `json:"id"`
	Name           string       `json:"name"`
	ReferencePrice *uint256.Int `json:"reference_price"`
	Status         ItemStatus   `json:"status"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// Available reports whether the item can still be priced and purchased.
func (i Item) Available() bool {
	return i.Status == ItemStatusActive
}
