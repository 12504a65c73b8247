// Package treasury sends native-currency payouts (refunds, withdrawals,
// directed transfers) from the service's payout wallet.
package treasury

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/domain"
)

// transferGasLimit is the fixed gas cost of a plain value transfer.
const transferGasLimit = 21_000

// receiptPollInterval is how often a pending payout is polled for its
// receipt.
const receiptPollInterval = 2 * time.Second

// EthClient is the slice of the Ethereum RPC client the payout sender needs.
// *ethclient.Client satisfies it.
type EthClient interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Payout implements domain.Transferor by signing and broadcasting value
// transfers, then waiting for them to be mined. A payout only counts as
// successful once its receipt reports success; anything else, including a
// confirmation timeout, is reported as a failure so the ledger never commits
// state on an unconfirmed transfer.
type Payout struct {
	client         EthClient
	key            *ecdsa.PrivateKey
	from           common.Address
	chainID        *big.Int
	confirmTimeout time.Duration
	logger         *slog.Logger
}

// NewPayout creates a payout sender from a hex-encoded private key.
func NewPayout(client EthClient, privateKeyHex string, chainID int64, confirmTimeout time.Duration, logger *slog.Logger) (*Payout, error) {
	if client == nil {
		return nil, errors.New("treasury: nil eth client")
	}
	key, err := ethcrypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("treasury: invalid private key: %w", err)
	}
	if confirmTimeout <= 0 {
		confirmTimeout = 90 * time.Second
	}

	return &Payout{
		client:         client,
		key:            key,
		from:           ethcrypto.PubkeyToAddress(key.PublicKey),
		chainID:        big.NewInt(chainID),
		confirmTimeout: confirmTimeout,
		logger:         logger.With(slog.String("component", "treasury")),
	}, nil
}

// From returns the payout wallet address.
func (p *Payout) From() common.Address {
	return p.from
}

// Transfer signs and broadcasts a value transfer of amount smallest units to
// the recipient and blocks until it is mined or the confirmation timeout
// elapses.
func (p *Payout) Transfer(ctx context.Context, to common.Address, amount *uint256.Int) error {
	nonce, err := p.client.PendingNonceAt(ctx, p.from)
	if err != nil {
		return fmt.Errorf("treasury: pending nonce: %w", err)
	}

	gasPrice, err := p.client.SuggestGasPrice(ctx)
	if err != nil {
		return fmt.Errorf("treasury: suggest gas price: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    amount.ToBig(),
		Gas:      transferGasLimit,
		GasPrice: gasPrice,
	})

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(p.chainID), p.key)
	if err != nil {
		return fmt.Errorf("treasury: sign transfer: %w", err)
	}

	if err := p.client.SendTransaction(ctx, signed); err != nil {
		return fmt.Errorf("treasury: broadcast transfer: %w", err)
	}

	p.logger.InfoContext(ctx, "payout broadcast",
		slog.String("tx", signed.Hash().Hex()),
		slog.String("to", to.Hex()),
		slog.String("amount", amount.Dec()),
	)

	return p.waitMined(ctx, signed.Hash())
}

// waitMined polls for the transaction receipt until it appears or the
// confirmation timeout elapses.
func (p *Payout) waitMined(ctx context.Context, hash common.Hash) error {
	ctx, cancel := context.WithTimeout(ctx, p.confirmTimeout)
	defer cancel()

	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := p.client.TransactionReceipt(ctx, hash)
		switch {
		case err == nil:
			if receipt.Status != types.ReceiptStatusSuccessful {
				return fmt.Errorf("treasury: transfer %s reverted", hash.Hex())
			}
			return nil
		case errors.Is(err, ethereum.NotFound):
			// Not mined yet; keep polling.
		default:
			return fmt.Errorf("treasury: receipt %s: %w", hash.Hex(), err)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("treasury: transfer %s unconfirmed: %w", hash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

// Compile-time interface check.
var _ domain.Transferor = (*Payout)(nil)
