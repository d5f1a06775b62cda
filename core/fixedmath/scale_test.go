package fixedmath

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckedMulDivRounding(t *testing.T) {
	got, err := CheckedMulDiv(7, 3, 2, RoundTowardZero)
	require.NoError(t, err)
	require.Equal(t, int64(10), got) // 21/2 = 10.5 -> 10

	got, err = CheckedMulDiv(-7, 3, 2, RoundTowardZero)
	require.NoError(t, err)
	require.Equal(t, int64(-10), got) // truncation toward zero
}

func TestCheckedMulDivBigRoundDirections(t *testing.T) {
	num := big.NewInt(-7)
	denom := big.NewInt(2)
	require.Equal(t, big.NewInt(-4), divRound(new(big.Int).Mul(num, big.NewInt(1)), denom, RoundDown))
	require.Equal(t, big.NewInt(-3), divRound(new(big.Int).Mul(num, big.NewInt(1)), denom, RoundUp))
}

func TestCheckedAddOverflow(t *testing.T) {
	_, err := CheckedAdd(1<<62, 1<<62)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestStandardizeToStep(t *testing.T) {
	require.Equal(t, int64(100), StandardizeToStep(149, 50))
	require.Equal(t, int64(-100), StandardizeToStep(-149, 50))
}

func TestStandardizePriceBidsRoundDownAsksRoundUp(t *testing.T) {
	require.Equal(t, int64(100), StandardizePrice(149, 50, true))
	require.Equal(t, int64(150), StandardizePrice(149, 50, false))
	require.Equal(t, int64(150), StandardizePrice(150, 50, true))
}

func TestStrictOraclePriceMinMax(t *testing.T) {
	p := NewStrictOraclePrice(big.NewInt(105), big.NewInt(100))
	require.Equal(t, big.NewInt(100), p.Min())
	require.Equal(t, big.NewInt(105), p.Max())
}
