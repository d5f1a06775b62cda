package margin

import (
	"testing"

	"github.com/stretchr/testify/require"

	"novaperp/core/fixedmath"
	"novaperp/core/oracle"
	"novaperp/core/state"
	"novaperp/core/types"
)

func setup(t *testing.T) (*oracle.Map, *state.PerpMarketMap, *state.SpotMarketMap) {
	t.Helper()
	oracles := oracle.NewMap()
	tol := oracle.DefaultTolerances()
	oracles.Load(oracle.Key{Pubkey: "perp-0"}, 100*fixedmath.PricePrecision, 10, 1, 1, 100*fixedmath.PricePrecision, 100*fixedmath.PricePrecision, tol)
	oracles.Load(oracle.Key{Pubkey: "usdc"}, 1*fixedmath.PricePrecision, 1, 1, 1, 1*fixedmath.PricePrecision, 1*fixedmath.PricePrecision, tol)

	perp := &types.PerpMarket{
		MarketIndex:            0,
		OracleId:               "perp-0",
		MarginRatioInitial:     1000, // 10%
		MarginRatioMaintenance: 500,  // 5%
	}
	spot := &types.SpotMarket{
		MarketIndex:               0,
		OracleId:                  "usdc",
		InitialAssetWeight:        10_000,
		MaintenanceAssetWeight:    10_000,
		InitialLiabilityWeight:    10_000,
		MaintenanceLiabilityWeight: 10_000,
		CumulativeDepositInterest: fixedmath.SpotCumulativeIntPrecision,
		CumulativeBorrowInterest:  fixedmath.SpotCumulativeIntPrecision,
	}

	return oracles, state.NewPerpMarketMap([]*types.PerpMarket{perp}), state.NewSpotMarketMap([]*types.SpotMarket{spot})
}

func TestCalculateSpotDepositOnlyMeetsRequirement(t *testing.T) {
	oracles, perpMarkets, spotMarkets := setup(t)
	u := &types.User{}
	u.SpotPositions[0] = types.SpotPosition{MarketIndex: 0, ScaledBalance: 1000 * fixedmath.QuotePrecision, BalanceType: types.BalanceTypeDeposit}

	calc, err := Calculate(u, perpMarkets, spotMarkets, oracles, types.MarginTierInitial, 0)
	require.NoError(t, err)
	require.Equal(t, int64(0), calc.MarginRequirement)
	require.Greater(t, calc.TotalCollateral, int64(0))
	require.True(t, calc.MeetsRequirement())
}

func TestCalculatePerpPositionAddsRequirement(t *testing.T) {
	oracles, perpMarkets, spotMarkets := setup(t)
	u := &types.User{}
	u.PerpPositions[0] = types.PerpPosition{
		MarketIndex:      0,
		BaseAssetAmount:  1 * fixedmath.BasePrecision,
		QuoteAssetAmount: -100 * fixedmath.QuotePrecision,
	}

	calc, err := Calculate(u, perpMarkets, spotMarkets, oracles, types.MarginTierInitial, 0)
	require.NoError(t, err)
	// notional = 100 QUOTE, 10% initial ratio -> requirement = 10 QUOTE.
	require.Equal(t, int64(10*fixedmath.QuotePrecision), calc.MarginRequirement)
	require.Equal(t, int32(1), calc.NumPerpLiabilities)
	// unrealized PnL is exactly zero (entry == current price == 100).
	require.Equal(t, int64(0), calc.TotalCollateral)
	require.False(t, calc.MeetsRequirement())
}

func TestCalculateMaintenanceLowerThanInitial(t *testing.T) {
	oracles, perpMarkets, spotMarkets := setup(t)
	u := &types.User{}
	u.PerpPositions[0] = types.PerpPosition{
		MarketIndex:      0,
		BaseAssetAmount:  1 * fixedmath.BasePrecision,
		QuoteAssetAmount: -100 * fixedmath.QuotePrecision,
	}

	initial, err := Calculate(u, perpMarkets, spotMarkets, oracles, types.MarginTierInitial, 0)
	require.NoError(t, err)
	maint, err := Calculate(u, perpMarkets, spotMarkets, oracles, types.MarginTierMaintenance, 0)
	require.NoError(t, err)
	require.Less(t, maint.MarginRequirement, initial.MarginRequirement)
}

func TestCalculateLiquidationAddsBuffer(t *testing.T) {
	oracles, perpMarkets, spotMarkets := setup(t)
	u := &types.User{}
	u.PerpPositions[0] = types.PerpPosition{
		MarketIndex:      0,
		BaseAssetAmount:  1 * fixedmath.BasePrecision,
		QuoteAssetAmount: -100 * fixedmath.QuotePrecision,
	}

	calc, err := Calculate(u, perpMarkets, spotMarkets, oracles, types.MarginTierLiquidation, 1000) // 10% buffer
	require.NoError(t, err)
	require.Greater(t, calc.MarginRequirementPlusBuffer, calc.MarginRequirement)
}

func TestCalculateIncludesUnsettledFundingAndLpDelta(t *testing.T) {
	oracles, perpMarkets, spotMarkets := setup(t)
	perp, err := perpMarkets.GetRefMut(0)
	require.NoError(t, err)
	perp.AMM.CumulativeFundingRateLong = fixedmath.FundingRatePrecision / 100
	perp.AMM.BaseAssetAmountPerLp = 2 * fixedmath.AmmReservePrecision
	perp.AMM.QuoteAssetAmountPerLp = 5 * fixedmath.QuotePrecision

	u := &types.User{}
	u.PerpPositions[0] = types.PerpPosition{
		MarketIndex:               0,
		BaseAssetAmount:           1 * fixedmath.BasePrecision,
		QuoteAssetAmount:          -100 * fixedmath.QuotePrecision,
		LastCumulativeFundingRate: 0,
		LpShares:                  fixedmath.AmmReservePrecision,
	}

	calc, err := Calculate(u, perpMarkets, spotMarkets, oracles, types.MarginTierInitial, 0)
	require.NoError(t, err)

	// Funding: 1e9 base units * 1e7 rate / FUNDING_PRECISION = 1e7, negated
	// (longs pay) = -10 QUOTE. LP: 2 base owed priced at 100 = 200 QUOTE, plus
	// 5 QUOTE owed directly = 205 QUOTE. Net unsettled = 195 QUOTE, added on
	// top of the position's zero unrealized PnL.
	require.Equal(t, int64(195*fixedmath.QuotePrecision), calc.TotalCollateral)
}

func TestCalculateUnknownMarketErrors(t *testing.T) {
	oracles, perpMarkets, spotMarkets := setup(t)
	u := &types.User{}
	u.PerpPositions[0] = types.PerpPosition{MarketIndex: 7, BaseAssetAmount: 1}

	_, err := Calculate(u, perpMarkets, spotMarkets, oracles, types.MarginTierInitial, 0)
	require.Error(t, err)
}

func TestImfScaledWeightWidensForLargePositions(t *testing.T) {
	base := int64(1000)
	small := imfScaledWeight(base, 10_000, 1*fixedmath.BasePrecision)
	large := imfScaledWeight(base, 10_000, 1_000_000*fixedmath.BasePrecision)
	require.Equal(t, base, small)
	require.Greater(t, large, base)
}
