package amm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"novaperp/core/fixedmath"
	"novaperp/core/types"
)

func baseMarket() *types.PerpMarket {
	return &types.PerpMarket{
		MarketIndex: 0,
		Status:      types.MarketStatusActive,
		AMM: types.AMM{
			BaseAssetReserve:    100 * fixedmath.AmmReservePrecision,
			QuoteAssetReserve:   100 * fixedmath.AmmReservePrecision,
			SqrtK:               100 * fixedmath.AmmReservePrecision,
			PegMultiplier:       100 * fixedmath.PegPrecision,
			BaseSpread:          10,
			MaxSpread:           200,
			MaxFillReserveFraction: 100,
			MinBaseAssetReserve: 50 * fixedmath.AmmReservePrecision,
			MaxBaseAssetReserve: 200 * fixedmath.AmmReservePrecision,
		},
	}
}

func TestMarkPrice(t *testing.T) {
	m := baseMarket()
	price, err := MarkPrice(&m.AMM)
	require.NoError(t, err)
	require.Equal(t, int64(100*fixedmath.PricePrecision), price)
}

func TestSwapBaseForQuotePreservesK(t *testing.T) {
	m := baseMarket()
	k := m.AMM.BaseAssetReserve * m.AMM.QuoteAssetReserve

	res, err := SwapBaseForQuote(&m.AMM, 1*fixedmath.AmmReservePrecision)
	require.NoError(t, err)
	got := res.NewBaseAssetReserve * res.NewQuoteAssetReserve
	diff := k - got
	if diff < 0 {
		diff = -diff
	}
	require.LessOrEqual(t, diff, k/1_000_000+1) // within rounding
}

func TestSwapBaseForQuoteRejectsOutOfBounds(t *testing.T) {
	m := baseMarket()
	_, err := SwapBaseForQuote(&m.AMM, 200*fixedmath.AmmReservePrecision)
	require.ErrorIs(t, err, ErrInvalidReserve)
}

func TestUpdateSpreadsWidensForNetInventory(t *testing.T) {
	m := baseMarket()
	m.AMM.BaseAssetAmountWithAmm = 50 * fixedmath.AmmReservePrecision
	UpdateSpreads(&m.AMM)
	require.Greater(t, m.AMM.LongSpread, m.AMM.BaseSpread)
}

func TestCalculateAmmJitLiquidityRequiresIntensity(t *testing.T) {
	m := baseMarket()
	m.AMM.BaseAssetAmountWithAmm = 1 * fixedmath.AmmReservePrecision
	jit, err := CalculateAmmJitLiquidity(m, types.Short, 99*fixedmath.PricePrecision, 100*fixedmath.PricePrecision, 1*fixedmath.AmmReservePrecision, 1*fixedmath.AmmReservePrecision, 1*fixedmath.AmmReservePrecision, true)
	require.NoError(t, err)
	require.Equal(t, types.SplitNone, jit.Split)
}

func TestCalculateAmmJitLiquidityFillsWhenReducingInventory(t *testing.T) {
	m := baseMarket()
	m.AMM.AmmJitIntensity = 50
	m.AMM.BaseAssetAmountWithAmm = -1 * fixedmath.AmmReservePrecision // AMM net short
	// taker is Short (sells base, AMM buys): reduces AMM's net-short inventory.
	jit, err := CalculateAmmJitLiquidity(m, types.Short, 99*fixedmath.PricePrecision, 100*fixedmath.PricePrecision, 1*fixedmath.AmmReservePrecision, 1*fixedmath.AmmReservePrecision, 1*fixedmath.AmmReservePrecision, true)
	require.NoError(t, err)
	require.Greater(t, jit.JitBaseAmount, int64(0))
	require.Equal(t, types.SplitProtocolOwned, jit.Split)
}
