package position

import (
	"testing"

	"github.com/stretchr/testify/require"

	"novaperp/core/fixedmath"
	"novaperp/core/types"
)

func TestUpdatePositionOpensFromFlat(t *testing.T) {
	pos := &types.PerpPosition{}
	pnl := UpdatePositionWithBaseAssetAmount(pos, 10*fixedmath.BasePrecision, -1000*fixedmath.QuotePrecision)
	require.Equal(t, int64(0), pnl)
	require.Equal(t, 10*int64(fixedmath.BasePrecision), pos.BaseAssetAmount)
	require.Equal(t, -1000*int64(fixedmath.QuotePrecision), pos.QuoteEntryAmount)
}

func TestUpdatePositionReducesPartially(t *testing.T) {
	pos := &types.PerpPosition{
		BaseAssetAmount:      10 * fixedmath.BasePrecision,
		QuoteAssetAmount:     -1000 * fixedmath.QuotePrecision,
		QuoteEntryAmount:     -1000 * fixedmath.QuotePrecision,
		QuoteBreakEvenAmount: -1000 * fixedmath.QuotePrecision,
	}
	// sell half at a higher price than entry -> realized profit
	pnl := UpdatePositionWithBaseAssetAmount(pos, -5*fixedmath.BasePrecision, 600*fixedmath.QuotePrecision)
	require.Equal(t, 5*int64(fixedmath.BasePrecision), pos.BaseAssetAmount)
	require.Greater(t, pnl, int64(0))
	require.Equal(t, pnl, pos.SettledPnl)
}

func TestUpdatePositionClosesExactly(t *testing.T) {
	pos := &types.PerpPosition{
		BaseAssetAmount:      10 * fixedmath.BasePrecision,
		QuoteAssetAmount:     -1000 * fixedmath.QuotePrecision,
		QuoteEntryAmount:     -1000 * fixedmath.QuotePrecision,
		QuoteBreakEvenAmount: -1000 * fixedmath.QuotePrecision,
	}
	pnl := UpdatePositionWithBaseAssetAmount(pos, -10*fixedmath.BasePrecision, 1100*fixedmath.QuotePrecision)
	require.Equal(t, int64(0), pos.BaseAssetAmount)
	require.Equal(t, int64(0), pos.QuoteEntryAmount)
	require.Equal(t, int64(100*fixedmath.QuotePrecision), pnl)
}

func TestUpdatePositionFlips(t *testing.T) {
	pos := &types.PerpPosition{
		BaseAssetAmount:      10 * fixedmath.BasePrecision,
		QuoteAssetAmount:     -1000 * fixedmath.QuotePrecision,
		QuoteEntryAmount:     -1000 * fixedmath.QuotePrecision,
		QuoteBreakEvenAmount: -1000 * fixedmath.QuotePrecision,
	}
	// sell 15, closing the 10 long and opening a 5 short
	pnl := UpdatePositionWithBaseAssetAmount(pos, -15*fixedmath.BasePrecision, 1650*fixedmath.QuotePrecision)
	require.Equal(t, -5*int64(fixedmath.BasePrecision), pos.BaseAssetAmount)
	require.Equal(t, int64(100*fixedmath.QuotePrecision), pnl)
	require.Equal(t, int64(550*fixedmath.QuotePrecision), pos.QuoteEntryAmount)
}

func TestMintAndBurnLpSharesRoundTrip(t *testing.T) {
	amm := &types.AMM{OrderStepSize: fixedmath.BasePrecision}
	pos := &types.PerpPosition{}

	require.NoError(t, MintLpShares(amm, pos, 100, nil))
	require.Equal(t, int64(100), pos.LpShares)
	require.Equal(t, int64(100), amm.UserLpShares)

	require.NoError(t, BurnLpShares(amm, pos, 100, nil))
	require.Equal(t, int64(0), pos.LpShares)
	require.Equal(t, int64(0), amm.UserLpShares)
}

func TestBurnLpSharesRejectsOverBurn(t *testing.T) {
	amm := &types.AMM{}
	pos := &types.PerpPosition{LpShares: 10}
	err := BurnLpShares(amm, pos, 20, nil)
	require.ErrorIs(t, err, ErrInsufficientLpShares)
}

func TestSettleLpPositionTracksRemainderDust(t *testing.T) {
	amm := &types.AMM{OrderStepSize: 10 * fixedmath.BasePrecision}
	pos := &types.PerpPosition{LpShares: fixedmath.AmmReservePrecision}

	// per-lp base delta smaller than one order step -> stays in remainder,
	// base_asset_amount unchanged.
	amm.BaseAssetAmountPerLp = 1 * fixedmath.BasePrecision
	baseDelta, _ := SettleLpPosition(amm, pos, nil)
	require.Equal(t, int64(0), baseDelta)
	require.Equal(t, int64(1*fixedmath.BasePrecision), pos.RemainderBaseAssetAmount)
	require.Equal(t, int64(0), pos.BaseAssetAmount)

	// accrue enough additional delta to cross one full step.
	amm.BaseAssetAmountPerLp += 10 * fixedmath.BasePrecision
	baseDelta2, _ := SettleLpPosition(amm, pos, nil)
	require.Equal(t, int64(10*fixedmath.BasePrecision), baseDelta2)
	require.Equal(t, int64(10*fixedmath.BasePrecision), pos.BaseAssetAmount)
	require.Equal(t, int64(1*fixedmath.BasePrecision), pos.RemainderBaseAssetAmount)
}
