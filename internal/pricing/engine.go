// Package pricing converts reference-currency catalog prices into the exact
// settlement-currency amount owed at a validated oracle rate.
package pricing

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/domain"
	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/oracle"
)

// Quote computes the settlement-currency amount owed for a reference price at
// the given rate, both at the canonical 18-decimal scale:
//
//	owed = referencePrice * 1e18 / rate
//
// Division truncates toward zero, so the result may be up to one smallest
// unit short of the exact mathematical amount. That is deliberate: rounding
// up would charge a payer more than a fair re-derivation of the price.
// Callers that must guarantee acceptance add one smallest unit of tolerance
// when supplying payment.
func Quote(referencePrice, rate *uint256.Int) (*uint256.Int, error) {
	if rate == nil || rate.IsZero() {
		return nil, fmt.Errorf("pricing: zero rate: %w", domain.ErrInvalidPrice)
	}

	scaled, overflow := new(uint256.Int).MulOverflow(referencePrice, oracle.CanonicalUnit())
	if overflow {
		return nil, fmt.Errorf("pricing: reference price %s exceeds safe bounds: %w",
			referencePrice.Dec(), domain.ErrArithmeticOverflow)
	}

	return new(uint256.Int).Div(scaled, rate), nil
}

// Engine prices catalog items using a freshly fetched oracle rate.
type Engine struct {
	gateway *oracle.Gateway
}

// NewEngine creates an Engine backed by the given oracle gateway.
func NewEngine(gateway *oracle.Gateway) *Engine {
	return &Engine{gateway: gateway}
}

// AmountOwed returns the settlement amount owed for one unit of the item.
// The oracle rate is fetched exactly once per call. Tombstoned items cannot
// be priced.
func (e *Engine) AmountOwed(ctx context.Context, item domain.Item) (*uint256.Int, error) {
	if !item.Available() {
		return nil, fmt.Errorf("pricing: item %d: %w", item.ID, domain.ErrItemUnavailable)
	}

	rate, err := e.gateway.FetchRate(ctx)
	if err != nil {
		return nil, err
	}

	return Quote(item.ReferencePrice, rate)
}
