// Package oracle reads and validates external price-feed observations and
// normalizes them to the canonical 18-decimal fixed-point scale used by all
// pricing arithmetic.
package oracle

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/domain"
)

// CanonicalDecimals is the fixed number of fractional digits every internal
// amount and rate is normalized to before arithmetic.
const CanonicalDecimals uint8 = 18

// CanonicalUnit returns 10^18, the canonical-scale unit.
func CanonicalUnit() *uint256.Int {
	return pow10(uint64(CanonicalDecimals))
}

// Normalize rescales raw, expressed with fromDecimals fractional digits, to
// the canonical 18-decimal scale. Feeds with fewer digits are multiplied up;
// feeds with more digits are floor-divided down. The value is only rescaled,
// never changed, up to floor truncation on the divide path.
//
// Multiplication that exceeds 256 bits fails with ErrArithmeticOverflow
// rather than wrapping.
func Normalize(raw *uint256.Int, fromDecimals uint8) (*uint256.Int, error) {
	switch {
	case fromDecimals < CanonicalDecimals:
		scale := pow10(uint64(CanonicalDecimals - fromDecimals))
		out, overflow := new(uint256.Int).MulOverflow(raw, scale)
		if overflow {
			return nil, fmt.Errorf("oracle: normalize %s from %d decimals: %w",
				raw.Dec(), fromDecimals, domain.ErrArithmeticOverflow)
		}
		return out, nil
	case fromDecimals > CanonicalDecimals:
		scale := pow10(uint64(fromDecimals - CanonicalDecimals))
		return new(uint256.Int).Div(raw, scale), nil
	default:
		return new(uint256.Int).Set(raw), nil
	}
}

// pow10 returns 10^n as a uint256. Exponents here are bounded by feed
// decimals (uint8), far below 256-bit range.
func pow10(n uint64) *uint256.Int {
	ten := uint256.NewInt(10)
	return new(uint256.Int).Exp(ten, uint256.NewInt(n))
}
