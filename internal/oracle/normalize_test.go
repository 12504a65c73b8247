package oracle

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/domain"
)

func TestNormalizeScalesUp(t *testing.T) {
	// 2000.00000000 USD at 8 decimals -> 2000e18.
	raw := uint256.NewInt(2000_00000000)

	got, err := Normalize(raw, 8)
	require.NoError(t, err)

	want := new(uint256.Int).Mul(uint256.NewInt(2000), CanonicalUnit())
	assert.Equal(t, want, got)
}

func TestNormalizeScalesDown(t *testing.T) {
	// 20 decimals -> floor division by 100.
	raw := new(uint256.Int).Mul(uint256.NewInt(123456), uint256.NewInt(100))
	raw.Add(raw, uint256.NewInt(99)) // remainder dropped by floor

	got, err := Normalize(raw, 20)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(123456), got)
}

func TestNormalizeIdentity(t *testing.T) {
	raw := uint256.NewInt(987654321)

	got, err := Normalize(raw, CanonicalDecimals)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
	assert.NotSame(t, raw, got, "identity path must still copy")
}

func TestNormalizeRoundTrip(t *testing.T) {
	// Rescaling must preserve the numeric value: reading the result at 18
	// decimals equals reading the input at d decimals.
	for d := uint8(0); d < CanonicalDecimals; d++ {
		raw := uint256.NewInt(31337)

		got, err := Normalize(raw, d)
		require.NoError(t, err)

		back := new(uint256.Int).Div(got, pow10(uint64(CanonicalDecimals-d)))
		assert.Equal(t, raw, back, "decimals=%d", d)
	}
}

func TestNormalizeOverflow(t *testing.T) {
	max := new(uint256.Int).SetAllOne()

	_, err := Normalize(max, 8)
	assert.ErrorIs(t, err, domain.ErrArithmeticOverflow)
}
