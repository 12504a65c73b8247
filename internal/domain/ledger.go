package domain

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
)

// PurchaseRecord captures one settled purchase: what was paid, what was owed
// at the oracle rate in effect, and what was refunded.
type PurchaseRecord struct {
	ID        uuid.UUID      `json:"id"`
	ItemID    uint64         `json:"item_id"`
	Payer     common.Address `json:"payer"`
	Paid      *uint256.Int   `json:"paid"`
	Owed      *uint256.Int   `json:"owed"`
	Refund    *uint256.Int   `json:"refund"`
	Rate      *uint256.Int   `json:"rate"`
	CreatedAt time.Time      `json:"created_at"`
}

// Transferor moves native settlement currency to a recipient. Implementations
// are external capabilities (an on-chain payout sender in production, a fake
// in tests); a returned error means no value moved.
type Transferor interface {
	Transfer(ctx context.Context, to common.Address, amount *uint256.Int) error
}
