package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/domain"
	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/ledger"
	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/oracle"
)

// fakeFeed serves a fixed USD rate at 8 decimals.
type fakeFeed struct {
	rateUSD int64
	round   int64
}

func (f *fakeFeed) LatestReading(context.Context) (domain.OracleReading, error) {
	f.round++
	now := time.Now()
	return domain.OracleReading{
		RoundID:         big.NewInt(f.round),
		Answer:          big.NewInt(f.rateUSD * 1e8),
		StartedAt:       now,
		UpdatedAt:       now,
		AnsweredInRound: big.NewInt(f.round),
	}, nil
}

func (f *fakeFeed) Decimals(context.Context) (uint8, error) { return 8, nil }

type fakeTransferor struct{ err error }

func (f *fakeTransferor) Transfer(context.Context, common.Address, *uint256.Int) error {
	return f.err
}

type memPurchaseStore struct {
	recs      []domain.PurchaseRecord
	insertErr error
}

func (m *memPurchaseStore) Insert(_ context.Context, rec domain.PurchaseRecord) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.recs = append(m.recs, rec)
	return nil
}

func (m *memPurchaseStore) GetByID(_ context.Context, id string) (domain.PurchaseRecord, error) {
	for _, r := range m.recs {
		if r.ID.String() == id {
			return r, nil
		}
	}
	return domain.PurchaseRecord{}, domain.ErrNotFound
}

func (m *memPurchaseStore) ListByItem(_ context.Context, itemID uint64, _ domain.ListOpts) ([]domain.PurchaseRecord, error) {
	var out []domain.PurchaseRecord
	for _, r := range m.recs {
		if r.ItemID == itemID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memPurchaseStore) List(context.Context, domain.ListOpts) ([]domain.PurchaseRecord, error) {
	return m.recs, nil
}

func (m *memPurchaseStore) ListBefore(context.Context, time.Time) ([]domain.PurchaseRecord, error) {
	return m.recs, nil
}

func (m *memPurchaseStore) Count(context.Context) (int64, error) {
	return int64(len(m.recs)), nil
}

type memJournal struct {
	events []domain.Event
}

func (m *memJournal) Append(_ context.Context, ev domain.Event) error {
	m.events = append(m.events, ev)
	return nil
}

func (m *memJournal) List(context.Context, domain.ListOpts) ([]domain.Event, error) {
	return m.events, nil
}

func (m *memJournal) ListBefore(context.Context, time.Time) ([]domain.Event, error) {
	return m.events, nil
}

type memBus struct {
	published [][]byte
	streamed  [][]byte
}

func (m *memBus) Publish(_ context.Context, _ string, payload []byte) error {
	m.published = append(m.published, payload)
	return nil
}

func (m *memBus) Subscribe(context.Context, string) (<-chan []byte, error) {
	ch := make(chan []byte)
	close(ch)
	return ch, nil
}

func (m *memBus) StreamAppend(_ context.Context, _ string, payload []byte) error {
	m.streamed = append(m.streamed, payload)
	return nil
}

var (
	owner = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	payer = common.HexToAddress("0x00000000000000000000000000000000000000bb")
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T, transferor domain.Transferor) *ledger.Engine {
	t.Helper()
	gw, err := oracle.NewGateway(&fakeFeed{rateUSD: 2000}, time.Hour, testLogger())
	require.NoError(t, err)
	return ledger.NewEngine(ledger.NewCatalog(), gw, transferor, owner, testLogger())
}

func wei(s string) *uint256.Int {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestPurchasePersistsAndEmits(t *testing.T) {
	engine := newTestEngine(t, &fakeTransferor{})
	store := &memPurchaseStore{}
	journal := &memJournal{}
	bus := &memBus{}
	svc := NewSettlementService(engine, store, journal, bus, nil, testLogger())

	item, err := engine.Catalog().Add("widget", 1)
	require.NoError(t, err)

	rec, err := svc.Purchase(context.Background(), item.ID, wei("500000000000000"), payer)
	require.NoError(t, err)
	assert.Equal(t, "500000000000000", rec.Paid.Dec())

	// Persisted.
	require.Len(t, store.recs, 1)
	assert.Equal(t, rec.ID, store.recs[0].ID)

	// Journaled and fanned out.
	require.Len(t, journal.events, 1)
	assert.Equal(t, domain.EventPurchaseMade, journal.events[0].Type)
	assert.Equal(t, rec.ID.String(), journal.events[0].Detail["purchase_id"])
	assert.Len(t, bus.published, 1)
	assert.Len(t, bus.streamed, 1)
}

func TestPurchaseInsufficientPaymentEmitsNothing(t *testing.T) {
	engine := newTestEngine(t, &fakeTransferor{})
	store := &memPurchaseStore{}
	journal := &memJournal{}
	svc := NewSettlementService(engine, store, journal, &memBus{}, nil, testLogger())

	item, err := engine.Catalog().Add("widget", 1)
	require.NoError(t, err)

	_, err = svc.Purchase(context.Background(), item.ID, wei("1"), payer)
	require.ErrorIs(t, err, domain.ErrInsufficientPayment)
	assert.Empty(t, store.recs)
	assert.Empty(t, journal.events)
}

func TestPurchaseInsertFailureSurfacesRecord(t *testing.T) {
	engine := newTestEngine(t, &fakeTransferor{})
	store := &memPurchaseStore{insertErr: errors.New("db down")}
	svc := NewSettlementService(engine, store, &memJournal{}, &memBus{}, nil, testLogger())

	item, err := engine.Catalog().Add("widget", 1)
	require.NoError(t, err)

	rec, err := svc.Purchase(context.Background(), item.ID, wei("500000000000000"), payer)
	require.Error(t, err)

	// The settlement committed; the balance reflects it even though the
	// record write failed.
	assert.NotEqual(t, "", rec.ID.String())
	assert.Equal(t, "500000000000000", svc.CustodiedBalance(context.Background()).Dec())
}

func TestWithdrawEmitsBalanceEvent(t *testing.T) {
	engine := newTestEngine(t, &fakeTransferor{})
	journal := &memJournal{}
	svc := NewSettlementService(engine, &memPurchaseStore{}, journal, &memBus{}, nil, testLogger())

	item, err := engine.Catalog().Add("widget", 1)
	require.NoError(t, err)
	_, err = svc.Purchase(context.Background(), item.ID, wei("500000000000000"), payer)
	require.NoError(t, err)

	require.NoError(t, svc.Withdraw(context.Background(), wei("400000000000000")))
	assert.Equal(t, "100000000000000", svc.CustodiedBalance(context.Background()).Dec())

	require.Len(t, journal.events, 2)
	last := journal.events[1]
	assert.Equal(t, domain.EventBalanceWithdrawn, last.Type)
	assert.Equal(t, "100000000000000", last.Detail["remaining"])
}

func TestTransferToRejectsZeroRecipient(t *testing.T) {
	engine := newTestEngine(t, &fakeTransferor{})
	journal := &memJournal{}
	svc := NewSettlementService(engine, &memPurchaseStore{}, journal, &memBus{}, nil, testLogger())

	err := svc.TransferTo(context.Background(), common.Address{}, wei("1"))
	require.ErrorIs(t, err, domain.ErrInvalidRecipient)
	assert.Empty(t, journal.events)
}
