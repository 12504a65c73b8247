package ledger

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/domain"
	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/oracle"
)

// fakeFeed serves a fixed USD rate at 8 decimals, the Chainlink default.
type fakeFeed struct {
	rateUSD int64
	fetches int
}

func (f *fakeFeed) LatestReading(context.Context) (domain.OracleReading, error) {
	f.fetches++
	now := time.Now()
	return domain.OracleReading{
		RoundID:         big.NewInt(int64(f.fetches)),
		Answer:          big.NewInt(f.rateUSD * 1e8),
		StartedAt:       now,
		UpdatedAt:       now,
		AnsweredInRound: big.NewInt(int64(f.fetches)),
	}, nil
}

func (f *fakeFeed) Decimals(context.Context) (uint8, error) {
	return 8, nil
}

// fakeTransferor records outgoing transfers and optionally fails them.
type fakeTransferor struct {
	sent []sentTransfer
	err  error
}

type sentTransfer struct {
	to     common.Address
	amount *uint256.Int
}

func (f *fakeTransferor) Transfer(_ context.Context, to common.Address, amount *uint256.Int) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentTransfer{to: to, amount: new(uint256.Int).Set(amount)})
	return nil
}

var (
	owner = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	payer = common.HexToAddress("0x00000000000000000000000000000000000000bb")
)

func newTestEngine(t *testing.T, rateUSD int64) (*Engine, *fakeFeed, *fakeTransferor) {
	t.Helper()
	feed := &fakeFeed{rateUSD: rateUSD}
	gw, err := oracle.NewGateway(feed, time.Hour, slog.Default())
	require.NoError(t, err)

	transferor := &fakeTransferor{}
	engine := NewEngine(NewCatalog(), gw, transferor, owner, slog.Default())
	return engine, feed, transferor
}

func wei(s string) *uint256.Int {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestPurchaseScenario(t *testing.T) {
	// $1 item at a $2000 rate owes 0.0005 units = 500000000000000 wei.
	engine, _, transferor := newTestEngine(t, 2000)
	item, err := engine.Catalog().Add("widget", 1)
	require.NoError(t, err)

	owed, err := engine.AmountOwed(context.Background(), item.ID)
	require.NoError(t, err)
	require.Equal(t, "500000000000000", owed.Dec())

	// One wei of tolerance settles with a one-wei refund.
	rec, err := engine.Purchase(context.Background(), item.ID, wei("500000000000001"), payer)
	require.NoError(t, err)
	assert.Equal(t, "500000000000000", rec.Owed.Dec())
	assert.Equal(t, "1", rec.Refund.Dec())
	require.Len(t, transferor.sent, 1)
	assert.Equal(t, payer, transferor.sent[0].to)
	assert.Equal(t, "1", transferor.sent[0].amount.Dec())

	// One wei short is rejected.
	_, err = engine.Purchase(context.Background(), item.ID, wei("499999999999999"), payer)
	assert.ErrorIs(t, err, domain.ErrInsufficientPayment)
}

func TestPurchaseExactPaymentNoRefund(t *testing.T) {
	engine, _, transferor := newTestEngine(t, 2000)
	item, err := engine.Catalog().Add("widget", 5)
	require.NoError(t, err)

	rec, err := engine.Purchase(context.Background(), item.ID, wei("2500000000000000"), payer)
	require.NoError(t, err)
	assert.True(t, rec.Refund.IsZero())
	assert.Empty(t, transferor.sent, "no refund transfer for exact payment")
}

func TestPurchaseRefundExactness(t *testing.T) {
	// Paying double owes back exactly paid - owed: net spend equals owed.
	engine, _, transferor := newTestEngine(t, 2000)
	item, err := engine.Catalog().Add("widget", 2)
	require.NoError(t, err)

	owed := wei("1000000000000000")
	paid := new(uint256.Int).Mul(owed, uint256.NewInt(2))

	rec, err := engine.Purchase(context.Background(), item.ID, paid, payer)
	require.NoError(t, err)
	assert.Equal(t, owed, rec.Refund)

	net := new(uint256.Int).Sub(rec.Paid, transferor.sent[0].amount)
	assert.Equal(t, owed, net)
}

func TestPurchaseSingleOracleFetch(t *testing.T) {
	engine, feed, _ := newTestEngine(t, 2000)
	item, err := engine.Catalog().Add("widget", 1)
	require.NoError(t, err)

	_, err = engine.Purchase(context.Background(), item.ID, wei("600000000000000"), payer)
	require.NoError(t, err)
	assert.Equal(t, 1, feed.fetches, "one rate fetch must back the whole purchase")
}

func TestPurchaseCreditsFullPaidAmount(t *testing.T) {
	engine, _, _ := newTestEngine(t, 2000)
	item, err := engine.Catalog().Add("widget", 1)
	require.NoError(t, err)

	paid := wei("600000000000000")
	_, err = engine.Purchase(context.Background(), item.ID, paid, payer)
	require.NoError(t, err)

	// Gross inflow convention: the full paid amount is credited.
	assert.Equal(t, paid, engine.CustodiedBalance())
}

func TestPurchaseFailedRefundRecordsNothing(t *testing.T) {
	engine, _, transferor := newTestEngine(t, 2000)
	item, err := engine.Catalog().Add("widget", 1)
	require.NoError(t, err)
	transferor.err = errors.New("rpc: connection refused")

	_, err = engine.Purchase(context.Background(), item.ID, wei("600000000000000"), payer)
	assert.ErrorIs(t, err, domain.ErrTransactionFailed)
	assert.True(t, engine.CustodiedBalance().IsZero(), "failed refund must not record a sale")
}

func TestPurchaseTombstonedItem(t *testing.T) {
	engine, _, _ := newTestEngine(t, 2000)
	item, err := engine.Catalog().Add("widget", 1)
	require.NoError(t, err)
	_, err = engine.Catalog().Delete(item.ID)
	require.NoError(t, err)

	_, err = engine.AmountOwed(context.Background(), item.ID)
	assert.ErrorIs(t, err, domain.ErrItemUnavailable)
	_, err = engine.Purchase(context.Background(), item.ID, wei("1000000000000000000"), payer)
	assert.ErrorIs(t, err, domain.ErrItemUnavailable)
}

func TestPurchaseMissingItem(t *testing.T) {
	engine, _, _ := newTestEngine(t, 2000)
	_, err := engine.Purchase(context.Background(), 42, wei("1"), payer)
	assert.ErrorIs(t, err, domain.ErrItemUnavailable)
}

func TestWithdraw(t *testing.T) {
	engine, _, transferor := newTestEngine(t, 2000)
	item, err := engine.Catalog().Add("widget", 1)
	require.NoError(t, err)
	_, err = engine.Purchase(context.Background(), item.ID, wei("500000000000000"), payer)
	require.NoError(t, err)

	require.NoError(t, engine.Withdraw(context.Background(), wei("200000000000000")))
	assert.Equal(t, "300000000000000", engine.CustodiedBalance().Dec())
	require.Len(t, transferor.sent, 1)
	assert.Equal(t, owner, transferor.sent[0].to)
}

func TestWithdrawBalanceBound(t *testing.T) {
	engine, _, _ := newTestEngine(t, 2000)
	item, err := engine.Catalog().Add("widget", 1)
	require.NoError(t, err)
	_, err = engine.Purchase(context.Background(), item.ID, wei("500000000000000"), payer)
	require.NoError(t, err)

	err = engine.Withdraw(context.Background(), wei("500000000000001"))
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	// The bound holds after draining too.
	require.NoError(t, engine.Withdraw(context.Background(), wei("500000000000000")))
	err = engine.Withdraw(context.Background(), wei("1"))
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
}

func TestWithdrawFailedTransferKeepsBalance(t *testing.T) {
	engine, _, transferor := newTestEngine(t, 2000)
	item, err := engine.Catalog().Add("widget", 1)
	require.NoError(t, err)
	_, err = engine.Purchase(context.Background(), item.ID, wei("500000000000000"), payer)
	require.NoError(t, err)

	transferor.err = errors.New("nonce too low")
	err = engine.Withdraw(context.Background(), wei("500000000000000"))
	assert.ErrorIs(t, err, domain.ErrTransactionFailed)
	assert.Equal(t, "500000000000000", engine.CustodiedBalance().Dec(), "debit must not persist")
}

func TestTransferTo(t *testing.T) {
	engine, _, transferor := newTestEngine(t, 2000)
	item, err := engine.Catalog().Add("widget", 1)
	require.NoError(t, err)
	_, err = engine.Purchase(context.Background(), item.ID, wei("500000000000000"), payer)
	require.NoError(t, err)

	recipient := common.HexToAddress("0x00000000000000000000000000000000000000cc")
	require.NoError(t, engine.TransferTo(context.Background(), recipient, wei("100000000000000")))
	assert.Equal(t, recipient, transferor.sent[len(transferor.sent)-1].to)

	err = engine.TransferTo(context.Background(), common.Address{}, wei("1"))
	assert.ErrorIs(t, err, domain.ErrInvalidRecipient)
}
