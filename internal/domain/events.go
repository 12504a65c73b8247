package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies a ledger notification. External observers can rebuild
// the full catalog and ledger history from the event journal alone, without
// re-deriving it from raw state.
type EventType string

const (
	EventItemAdded          EventType = "item_added"
	EventPriceUpdated       EventType = "price_updated"
	EventItemDeleted        EventType = "item_deleted"
	EventPurchaseMade       EventType = "purchase_made"
	EventBalanceWithdrawn   EventType = "balance_withdrawn"
	EventBalanceTransferred EventType = "balance_transferred"
	EventHistoryArchived    EventType = "history_archived"
)

// Event is a single journaled ledger notification. Detail carries the
// identifiers and amounts relevant to the event type; amounts are decimal
// strings in the smallest settlement-currency unit.
type Event struct {
	ID        uuid.UUID      `json:"id"`
	Type      EventType      `json:"type"`
	Detail    map[string]any `json:"detail"`
	CreatedAt time.Time      `json:"created_at"`
}
