package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/domain"
	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/service"
)

// CatalogHandler serves the item catalog endpoints.
type CatalogHandler struct {
	svc    *service.CatalogService
	logger *slog.Logger
}

// NewCatalogHandler creates a CatalogHandler.
func NewCatalogHandler(svc *service.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{svc: svc, logger: logger}
}

// itemResponse is the JSON shape of a catalog item. Amounts are decimal
// strings in the canonical 18-decimal fixed point.
type itemResponse struct {
	ID             uint64 `json:"id"`
	Name           string `json:"name"`
	ReferencePrice string `json:"reference_price"`
	Status         string `json:"status"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

func toItemResponse(item domain.Item) itemResponse {
	return itemResponse{
		ID:             item.ID,
		Name:           item.Name,
		ReferencePrice: item.ReferencePrice.Dec(),
		Status:         string(item.Status),
		CreatedAt:      item.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      item.UpdatedAt.Format(time.RFC3339),
	}
}

// ListItems returns the full catalog in id order, tombstones included.
// GET /api/items
func (h *CatalogHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items := h.svc.ListItems(r.Context())

	out := make([]itemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toItemResponse(item))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": out,
		"count": len(out),
	})
}

// GetItem returns one item by id.
// GET /api/items/{id}
func (h *CatalogHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := h.svc.GetItem(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponse(item))
}

// addItemRequest is the payload for item creation. PriceUSD is whole
// reference-currency units.
type addItemRequest struct {
	Name     string `json:"name"`
	PriceUSD uint64 `json:"price_usd"`
}

// AddItem registers a new catalog item.
// POST /api/items
func (h *CatalogHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	item, err := h.svc.AddItem(r.Context(), req.Name, req.PriceUSD)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toItemResponse(item))
}

// updatePriceRequest is the payload for repricing an item.
type updatePriceRequest struct {
	PriceUSD uint64 `json:"price_usd"`
}

// UpdatePrice changes an active item's reference price.
// PUT /api/items/{id}/price
func (h *CatalogHandler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req updatePriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.svc.UpdatePrice(r.Context(), id, req.PriceUSD)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponse(item))
}

// DeleteItem tombstones an item.
// DELETE /api/items/{id}
func (h *CatalogHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := h.svc.DeleteItem(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponse(item))
}

// Quote returns the settlement amount currently owed for an item at the
// live oracle rate.
// GET /api/items/{id}/quote
func (h *CatalogHandler) Quote(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	owed, err := h.svc.Quote(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"item_id":     id,
		"amount_owed": owed.Dec(),
		"quoted_at":   time.Now().UTC().Format(time.RFC3339),
	})
}
