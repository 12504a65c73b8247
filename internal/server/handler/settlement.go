package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/domain"
	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/service"
)

// SettlementHandler serves the purchase and treasury endpoints.
type SettlementHandler struct {
	svc    *service.SettlementService
	logger *slog.Logger
}

// NewSettlementHandler creates a SettlementHandler.
func NewSettlementHandler(svc *service.SettlementService, logger *slog.Logger) *SettlementHandler {
	return &SettlementHandler{svc: svc, logger: logger}
}

// purchaseResponse is the JSON shape of a settled purchase. Amounts are
// decimal strings in smallest settlement-currency units.
type purchaseResponse struct {
	ID        string `json:"id"`
	ItemID    uint64 `json:"item_id"`
	Payer     string `json:"payer"`
	Paid      string `json:"paid"`
	Owed      string `json:"owed"`
	Refund    string `json:"refund"`
	Rate      string `json:"rate"`
	CreatedAt string `json:"created_at"`
}

func toPurchaseResponse(rec domain.PurchaseRecord) purchaseResponse {
	return purchaseResponse{
		ID:        rec.ID.String(),
		ItemID:    rec.ItemID,
		Payer:     rec.Payer.Hex(),
		Paid:      rec.Paid.Dec(),
		Owed:      rec.Owed.Dec(),
		Refund:    rec.Refund.Dec(),
		Rate:      rec.Rate.Dec(),
		CreatedAt: rec.CreatedAt.Format(time.RFC3339),
	}
}

// purchaseRequest is the payload for settling a purchase. Paid is a decimal
// string in smallest settlement-currency units.
type purchaseRequest struct {
	ItemID uint64 `json:"item_id"`
	Paid   string `json:"paid"`
	Payer  string `json:"payer"`
}

// Purchase settles a payment for an item.
// POST /api/purchases
func (h *SettlementHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	paid, err := parseAmount(req.Paid)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid paid amount")
		return
	}
	if !common.IsHexAddress(req.Payer) {
		writeError(w, http.StatusBadRequest, "invalid payer address")
		return
	}

	rec, err := h.svc.Purchase(r.Context(), req.ItemID, paid, common.HexToAddress(req.Payer))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPurchaseResponse(rec))
}

// GetPurchase returns one persisted purchase record.
// GET /api/purchases/{id}
func (h *SettlementHandler) GetPurchase(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.GetPurchase(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPurchaseResponse(rec))
}

// ListPurchases returns persisted purchases, newest first. An optional
// item_id query parameter narrows the result to one item.
// GET /api/purchases
func (h *SettlementHandler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)

	var (
		recs []domain.PurchaseRecord
		err  error
	)
	if v := r.URL.Query().Get("item_id"); v != "" {
		itemID, parseErr := strconv.ParseUint(v, 10, 64)
		if parseErr != nil {
			writeError(w, http.StatusBadRequest, "invalid item_id")
			return
		}
		recs, err = h.svc.ListPurchasesByItem(r.Context(), itemID, opts)
	} else {
		recs, err = h.svc.ListPurchases(r.Context(), opts)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]purchaseResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toPurchaseResponse(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"purchases": out,
		"count":     len(out),
	})
}

// Balance returns the custodied balance and the total purchase count.
// GET /api/treasury/balance
func (h *SettlementHandler) Balance(w http.ResponseWriter, r *http.Request) {
	count, err := h.svc.CountPurchases(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"custodied_balance": h.svc.CustodiedBalance(r.Context()).Dec(),
		"purchase_count":    count,
	})
}

// payoutRequest is the payload for treasury payouts. Amount is a decimal
// string in smallest settlement-currency units; Recipient is only used by
// Transfer.
type payoutRequest struct {
	Amount    string `json:"amount"`
	Recipient string `json:"recipient,omitempty"`
}

// Withdraw pays out part of the custodied balance to the owner.
// POST /api/treasury/withdraw
func (h *SettlementHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req payoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}

	if err := h.svc.Withdraw(r.Context(), amount); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"withdrawn": amount.Dec(),
		"remaining": h.svc.CustodiedBalance(r.Context()).Dec(),
	})
}

// Transfer pays out part of the custodied balance to an arbitrary recipient.
// POST /api/treasury/transfer
func (h *SettlementHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req payoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	if !common.IsHexAddress(req.Recipient) {
		writeError(w, http.StatusBadRequest, "invalid recipient address")
		return
	}

	if err := h.svc.TransferTo(r.Context(), common.HexToAddress(req.Recipient), amount); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"transferred": amount.Dec(),
		"recipient":   common.HexToAddress(req.Recipient).Hex(),
		"remaining":   h.svc.CustodiedBalance(r.Context()).Dec(),
	})
}
