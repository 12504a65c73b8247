package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/domain"
	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/ledger"
	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/notify"
)

// SettlementService runs purchases and treasury payouts through the ledger
// engine, persists the resulting records, and fans out events and operator
// notifications.
type SettlementService struct {
	engine    *ledger.Engine
	purchases domain.PurchaseStore
	sink      eventSink
	notifier  *notify.Notifier
	logger    *slog.Logger
}

// NewSettlementService creates a SettlementService with all required
// dependencies. notifier may be nil when no channels are configured.
func NewSettlementService(
	engine *ledger.Engine,
	purchases domain.PurchaseStore,
	journal domain.EventJournal,
	bus domain.EventBus,
	notifier *notify.Notifier,
	logger *slog.Logger,
) *SettlementService {
	return &SettlementService{
		engine:    engine,
		purchases: purchases,
		sink:      eventSink{journal: journal, bus: bus, logger: logger},
		notifier:  notifier,
		logger:    logger.With(slog.String("component", "settlement_service")),
	}
}

// Purchase settles a payment for an item and persists the purchase record.
// The settlement itself commits inside the engine; a persistence failure
// after that point is returned so the caller can retry the write, but the
// custodied balance already reflects the sale.
func (s *SettlementService) Purchase(ctx context.Context, itemID uint64, paid *uint256.Int, payer common.Address) (domain.PurchaseRecord, error) {
	rec, err := s.engine.Purchase(ctx, itemID, paid, payer)
	if err != nil {
		return domain.PurchaseRecord{}, fmt.Errorf("settlement_service: purchase item %d: %w", itemID, err)
	}

	if err := s.purchases.Insert(ctx, rec); err != nil {
		return rec, fmt.Errorf("settlement_service: record purchase %s: %w", rec.ID, err)
	}

	s.sink.emit(ctx, domain.EventPurchaseMade, map[string]any{
		"purchase_id": rec.ID.String(),
		"item_id":     rec.ItemID,
		"payer":       rec.Payer.Hex(),
		"paid":        rec.Paid.Dec(),
		"owed":        rec.Owed.Dec(),
		"refund":      rec.Refund.Dec(),
		"rate":        rec.Rate.Dec(),
	})
	s.notify(ctx, string(domain.EventPurchaseMade), "Purchase settled",
		fmt.Sprintf("item %d paid %s (refund %s) by %s",
			rec.ItemID, rec.Paid.Dec(), rec.Refund.Dec(), rec.Payer.Hex()))

	return rec, nil
}

// Withdraw pays amount from the custodied balance out to the configured
// owner address.
func (s *SettlementService) Withdraw(ctx context.Context, amount *uint256.Int) error {
	if err := s.engine.Withdraw(ctx, amount); err != nil {
		return fmt.Errorf("settlement_service: withdraw %s: %w", amount.Dec(), err)
	}

	s.sink.emit(ctx, domain.EventBalanceWithdrawn, map[string]any{
		"amount":    amount.Dec(),
		"remaining": s.engine.CustodiedBalance().Dec(),
	})
	s.notify(ctx, string(domain.EventBalanceWithdrawn), "Balance withdrawn",
		fmt.Sprintf("withdrew %s to owner", amount.Dec()))
	return nil
}

// TransferTo pays amount from the custodied balance out to an arbitrary
// recipient.
func (s *SettlementService) TransferTo(ctx context.Context, recipient common.Address, amount *uint256.Int) error {
	if err := s.engine.TransferTo(ctx, recipient, amount); err != nil {
		return fmt.Errorf("settlement_service: transfer %s to %s: %w",
			amount.Dec(), recipient.Hex(), err)
	}

	s.sink.emit(ctx, domain.EventBalanceTransferred, map[string]any{
		"recipient": recipient.Hex(),
		"amount":    amount.Dec(),
		"remaining": s.engine.CustodiedBalance().Dec(),
	})
	s.notify(ctx, string(domain.EventBalanceTransferred), "Balance transferred",
		fmt.Sprintf("transferred %s to %s", amount.Dec(), recipient.Hex()))
	return nil
}

// CustodiedBalance returns the balance attributable to validated purchases.
func (s *SettlementService) CustodiedBalance(_ context.Context) *uint256.Int {
	return s.engine.CustodiedBalance()
}

// GetPurchase returns one persisted purchase record by id.
func (s *SettlementService) GetPurchase(ctx context.Context, id string) (domain.PurchaseRecord, error) {
	rec, err := s.purchases.GetByID(ctx, id)
	if err != nil {
		return domain.PurchaseRecord{}, fmt.Errorf("settlement_service: get purchase %s: %w", id, err)
	}
	return rec, nil
}

// ListPurchases returns persisted purchases, newest first.
func (s *SettlementService) ListPurchases(ctx context.Context, opts domain.ListOpts) ([]domain.PurchaseRecord, error) {
	recs, err := s.purchases.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("settlement_service: list purchases: %w", err)
	}
	return recs, nil
}

// ListPurchasesByItem returns persisted purchases of one item, newest first.
func (s *SettlementService) ListPurchasesByItem(ctx context.Context, itemID uint64, opts domain.ListOpts) ([]domain.PurchaseRecord, error) {
	recs, err := s.purchases.ListByItem(ctx, itemID, opts)
	if err != nil {
		return nil, fmt.Errorf("settlement_service: list purchases for item %d: %w", itemID, err)
	}
	return recs, nil
}

// CountPurchases returns the total number of persisted purchases.
func (s *SettlementService) CountPurchases(ctx context.Context) (int64, error) {
	n, err := s.purchases.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("settlement_service: count purchases: %w", err)
	}
	return n, nil
}

func (s *SettlementService) notify(ctx context.Context, event, title, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, event, title, message); err != nil {
		s.logger.WarnContext(ctx, "notification failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}
