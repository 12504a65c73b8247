package oracle

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/domain"
)

// aggregatorV3ABI is the subset of the Chainlink AggregatorV3Interface this
// service consumes.
const aggregatorV3ABI = `[
  {"inputs":[],"name":"decimals","outputs":[{"internalType":"uint8","name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
  {"inputs":[],"name":"description","outputs":[{"internalType":"string","name":"","type":"string"}],"stateMutability":"view","type":"function"},
  {"inputs":[],"name":"latestRoundData","outputs":[
    {"internalType":"uint80","name":"roundId","type":"uint80"},
    {"internalType":"int256","name":"answer","type":"int256"},
    {"internalType":"uint256","name":"startedAt","type":"uint256"},
    {"internalType":"uint256","name":"updatedAt","type":"uint256"},
    {"internalType":"uint80","name":"answeredInRound","type":"uint80"}],
   "stateMutability":"view","type":"function"}
]`

// ContractCaller is the slice of the Ethereum RPC client the feed needs.
// *ethclient.Client satisfies it.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// AggregatorFeed implements domain.PriceFeed against an on-chain Chainlink
// AggregatorV3 contract.
type AggregatorFeed struct {
	caller ContractCaller
	addr   common.Address
	abi    abi.ABI

	mu          sync.Mutex
	decimals    uint8
	hasDecimals bool
}

// NewAggregatorFeed creates a feed bound to the aggregator at addr. The zero
// address is a misconfiguration and is rejected up front.
func NewAggregatorFeed(caller ContractCaller, addr common.Address) (*AggregatorFeed, error) {
	if caller == nil {
		return nil, fmt.Errorf("oracle: nil contract caller: %w", domain.ErrInvalidOracleAddress)
	}
	if addr == (common.Address{}) {
		return nil, fmt.Errorf("oracle: zero feed address: %w", domain.ErrInvalidOracleAddress)
	}

	parsed, err := abi.JSON(strings.NewReader(aggregatorV3ABI))
	if err != nil {
		return nil, fmt.Errorf("oracle: parse aggregator abi: %w", err)
	}

	return &AggregatorFeed{
		caller: caller,
		addr:   addr,
		abi:    parsed,
	}, nil
}

// Address returns the configured aggregator contract address.
func (a *AggregatorFeed) Address() common.Address {
	return a.addr
}

func (a *AggregatorFeed) call(ctx context.Context, method string) ([]any, error) {
	data, err := a.abi.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("oracle: pack %s: %w", method, err)
	}

	raw, err := a.caller.CallContract(ctx, ethereum.CallMsg{To: &a.addr, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("oracle: call %s on %s: %w", method, a.addr.Hex(), err)
	}

	out, err := a.abi.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("oracle: unpack %s: %w", method, err)
	}
	return out, nil
}

// LatestReading fetches latestRoundData from the aggregator.
func (a *AggregatorFeed) LatestReading(ctx context.Context) (domain.OracleReading, error) {
	out, err := a.call(ctx, "latestRoundData")
	if err != nil {
		return domain.OracleReading{}, err
	}
	if len(out) != 5 {
		return domain.OracleReading{}, fmt.Errorf("oracle: latestRoundData returned %d values", len(out))
	}

	roundID, ok1 := out[0].(*big.Int)
	answer, ok2 := out[1].(*big.Int)
	startedAt, ok3 := out[2].(*big.Int)
	updatedAt, ok4 := out[3].(*big.Int)
	answeredIn, ok5 := out[4].(*big.Int)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
		return domain.OracleReading{}, fmt.Errorf("oracle: latestRoundData returned unexpected types")
	}

	return domain.OracleReading{
		RoundID:         roundID,
		Answer:          answer,
		StartedAt:       time.Unix(startedAt.Int64(), 0).UTC(),
		UpdatedAt:       time.Unix(updatedAt.Int64(), 0).UTC(),
		AnsweredInRound: answeredIn,
	}, nil
}

// Decimals returns the feed's fractional-digit count. The value is immutable
// on-chain, so it is fetched once and cached.
func (a *AggregatorFeed) Decimals(ctx context.Context) (uint8, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.hasDecimals {
		return a.decimals, nil
	}

	out, err := a.call(ctx, "decimals")
	if err != nil {
		return 0, err
	}
	if len(out) != 1 {
		return 0, fmt.Errorf("oracle: decimals returned %d values", len(out))
	}
	dec, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("oracle: decimals returned unexpected type %T", out[0])
	}

	a.decimals = dec
	a.hasDecimals = true
	return dec, nil
}

// Description returns the feed's human-readable pair description, e.g.
// "ETH / USD". Used for startup logging only.
func (a *AggregatorFeed) Description(ctx context.Context) (string, error) {
	out, err := a.call(ctx, "description")
	if err != nil {
		return "", err
	}
	if len(out) != 1 {
		return "", fmt.Errorf("oracle: description returned %d values", len(out))
	}
	desc, ok := out[0].(string)
	if !ok {
		return "", fmt.Errorf("oracle: description returned unexpected type %T", out[0])
	}
	return desc, nil
}

// Compile-time interface check.
var _ domain.PriceFeed = (*AggregatorFeed)(nil)
