package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/domain"
	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/ledger"
	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/oracle"
	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/service"
)

type fakeFeed struct{ round int64 }

func (f *fakeFeed) LatestReading(context.Context) (domain.OracleReading, error) {
	f.round++
	now := time.Now()
	return domain.OracleReading{
		RoundID:         big.NewInt(f.round),
		Answer:          big.NewInt(2000 * 1e8),
		StartedAt:       now,
		UpdatedAt:       now,
		AnsweredInRound: big.NewInt(f.round),
	}, nil
}

func (f *fakeFeed) Decimals(context.Context) (uint8, error) { return 8, nil }

type fakeTransferor struct{}

func (fakeTransferor) Transfer(context.Context, common.Address, *uint256.Int) error { return nil }

type nopJournal struct{}

func (nopJournal) Append(context.Context, domain.Event) error { return nil }
func (nopJournal) List(context.Context, domain.ListOpts) ([]domain.Event, error) {
	return nil, nil
}
func (nopJournal) ListBefore(context.Context, time.Time) ([]domain.Event, error) {
	return nil, nil
}

type nopBus struct{}

func (nopBus) Publish(context.Context, string, []byte) error { return nil }
func (nopBus) Subscribe(context.Context, string) (<-chan []byte, error) {
	ch := make(chan []byte)
	close(ch)
	return ch, nil
}
func (nopBus) StreamAppend(context.Context, string, []byte) error { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()

	gw, err := oracle.NewGateway(&fakeFeed{}, time.Hour, testLogger())
	require.NoError(t, err)
	engine := ledger.NewEngine(
		ledger.NewCatalog(), gw, fakeTransferor{},
		common.HexToAddress("0x00000000000000000000000000000000000000aa"),
		testLogger(),
	)

	svc := service.NewCatalogService(engine, nopJournal{}, nopBus{}, testLogger())
	h := NewCatalogHandler(svc, testLogger())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/items", h.ListItems)
	mux.HandleFunc("POST /api/items", h.AddItem)
	mux.HandleFunc("GET /api/items/{id}", h.GetItem)
	mux.HandleFunc("PUT /api/items/{id}/price", h.UpdatePrice)
	mux.HandleFunc("DELETE /api/items/{id}", h.DeleteItem)
	mux.HandleFunc("GET /api/items/{id}/quote", h.Quote)
	return mux
}

func do(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func TestAddGetAndQuoteItem(t *testing.T) {
	mux := newTestMux(t)

	rr := do(mux, http.MethodPost, "/api/items", `{"name":"widget","price_usd":1}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	var created itemResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, uint64(1), created.ID)
	assert.Equal(t, "1000000000000000000", created.ReferencePrice)
	assert.Equal(t, "active", created.Status)

	rr = do(mux, http.MethodGet, "/api/items/1", "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(mux, http.MethodGet, "/api/items/1/quote", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var quote map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &quote))
	assert.Equal(t, "500000000000000", quote["amount_owed"])
}

func TestAddItemValidation(t *testing.T) {
	mux := newTestMux(t)

	rr := do(mux, http.MethodPost, "/api/items", `{"price_usd":1}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(mux, http.MethodPost, "/api/items", `{"name":"free","price_usd":0}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(mux, http.MethodPost, "/api/items", `not json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDeletedItemConflicts(t *testing.T) {
	mux := newTestMux(t)

	rr := do(mux, http.MethodPost, "/api/items", `{"name":"widget","price_usd":1}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = do(mux, http.MethodDelete, "/api/items/1", "")
	require.Equal(t, http.StatusOK, rr.Code)

	// Tombstone is queryable but rejects reprice and quote.
	rr = do(mux, http.MethodGet, "/api/items/1", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = do(mux, http.MethodPut, "/api/items/1/price", `{"price_usd":2}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = do(mux, http.MethodGet, "/api/items/1/quote", "")
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestGetMissingItem(t *testing.T) {
	mux := newTestMux(t)

	rr := do(mux, http.MethodGet, "/api/items/99", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(mux, http.MethodGet, "/api/items/abc", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
