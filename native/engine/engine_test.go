package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"novaperp/core/events"
	"novaperp/core/fixedmath"
	"novaperp/core/oracle"
	"novaperp/core/state"
	"novaperp/core/types"
	"novaperp/native/fees"
	"novaperp/native/matching"
)

func testPerpMarket() *types.PerpMarket {
	return &types.PerpMarket{
		MarketIndex:            0,
		OracleId:               "perp-0",
		Status:                 types.MarketStatusActive,
		MarginRatioInitial:     1000,
		MarginRatioMaintenance: 500,
		LiquidatorFee:          50_000,
		IfLiquidationFee:       10_000,
		AMM: types.AMM{
			BaseAssetReserve:       100 * fixedmath.AmmReservePrecision,
			QuoteAssetReserve:      100 * fixedmath.AmmReservePrecision,
			SqrtK:                  100 * fixedmath.AmmReservePrecision,
			PegMultiplier:          100 * fixedmath.PegPrecision,
			BaseSpread:             10,
			MaxSpread:              200,
			MaxFillReserveFraction: 1000,
			MinBaseAssetReserve:    50 * fixedmath.AmmReservePrecision,
			MaxBaseAssetReserve:    200 * fixedmath.AmmReservePrecision,
			OrderTickSize:          1,
			OrderStepSize:          1,
			FundingPeriod:          fundingDefaultPeriod,
		},
	}
}

const fundingDefaultPeriod = 3600

func testSpotMarket(index uint16, oracleId string) *types.SpotMarket {
	return &types.SpotMarket{
		MarketIndex:                index,
		OracleId:                   oracleId,
		InitialAssetWeight:         10_000,
		MaintenanceAssetWeight:     10_000,
		InitialLiabilityWeight:     10_000,
		MaintenanceLiabilityWeight: 10_000,
		CumulativeDepositInterest:  fixedmath.SpotCumulativeIntPrecision,
		CumulativeBorrowInterest:   fixedmath.SpotCumulativeIntPrecision,
		OrderStepSize:              1,
		OrderTickSize:              1,
	}
}

func testEngine(t *testing.T) (*Engine, *types.PerpMarket, *types.SpotMarket) {
	t.Helper()
	oracles := oracle.NewMap()
	tol := oracle.DefaultTolerances()
	oracles.Load(oracle.Key{Pubkey: "perp-0"}, 100*fixedmath.PricePrecision, 10, 1, 1, 100*fixedmath.PricePrecision, 100*fixedmath.PricePrecision, tol)
	oracles.Load(oracle.Key{Pubkey: "usdc"}, 1*fixedmath.PricePrecision, 1, 1, 1, 1*fixedmath.PricePrecision, 1*fixedmath.PricePrecision, tol)

	perp := testPerpMarket()
	spot := testSpotMarket(0, "usdc")

	e := New(
		oracles,
		state.NewPerpMarketMap([]*types.PerpMarket{perp}),
		state.NewSpotMarketMap([]*types.SpotMarket{spot}),
		Clock{Slot: 1, Now: 1000},
		Config{FeeTiers: fees.DefaultTiers()},
		events.NewRecorder(),
	)
	return e, perp, spot
}

func fundedUser() *types.User {
	u := &types.User{}
	u.SpotPositions[0] = types.SpotPosition{MarketIndex: 0, BalanceType: types.BalanceTypeDeposit, ScaledBalance: 10_000 * fixedmath.SpotCumulativeIntPrecision}
	return u
}

func TestPlacePerpOrderOpensAnOrder(t *testing.T) {
	e, _, _ := testEngine(t)
	u := fundedUser()
	u.SpotPositions[0].ScaledBalance = 10_000 * fixedmath.QuotePrecision

	idx, err := e.PlacePerpOrder(u, matching.PlaceParams{
		MarketType: types.MarketTypePerp, MarketIndex: 0, Direction: types.Long,
		BaseAssetAmount: 1 * fixedmath.BasePrecision, Price: 101 * fixedmath.PricePrecision, OrderType: types.OrderTypeLimit,
	}, 0)
	require.NoError(t, err)
	require.Equal(t, types.OrderStatusOpen, u.Orders[idx].Status)
}

func TestPlacePerpOrderRejectsBankruptUser(t *testing.T) {
	e, _, _ := testEngine(t)
	u := fundedUser()
	u.Status |= types.UserStatusBankrupt

	_, err := e.PlacePerpOrder(u, matching.PlaceParams{
		MarketType: types.MarketTypePerp, MarketIndex: 0, Direction: types.Long,
		BaseAssetAmount: 1 * fixedmath.BasePrecision, Price: 101 * fixedmath.PricePrecision, OrderType: types.OrderTypeLimit,
	}, 0)
	require.Error(t, err)
}

func TestCancelOrderRemovesIt(t *testing.T) {
	e, _, _ := testEngine(t)
	u := fundedUser()
	u.SpotPositions[0].ScaledBalance = 10_000 * fixedmath.QuotePrecision

	idx, err := e.PlacePerpOrder(u, matching.PlaceParams{
		MarketType: types.MarketTypePerp, MarketIndex: 0, Direction: types.Long,
		BaseAssetAmount: 1 * fixedmath.BasePrecision, Price: 101 * fixedmath.PricePrecision, OrderType: types.OrderTypeLimit,
	}, 0)
	require.NoError(t, err)

	err = e.CancelOrder(u, idx)
	require.NoError(t, err)
	require.False(t, u.Orders[idx].IsOpen())
}

func TestFillPerpOrderMatchesTakerAgainstMaker(t *testing.T) {
	e, _, _ := testEngine(t)

	taker := fundedUser()
	taker.SpotPositions[0].ScaledBalance = 10_000 * fixedmath.QuotePrecision
	maker := fundedUser()
	maker.SpotPositions[0].ScaledBalance = 10_000 * fixedmath.QuotePrecision

	takerIdx, err := e.PlacePerpOrder(taker, matching.PlaceParams{
		MarketType: types.MarketTypePerp, MarketIndex: 0, Direction: types.Long,
		BaseAssetAmount: 1 * fixedmath.BasePrecision, Price: 101 * fixedmath.PricePrecision, OrderType: types.OrderTypeLimit,
	}, 0)
	require.NoError(t, err)

	makerIdx, err := e.PlacePerpOrder(maker, matching.PlaceParams{
		MarketType: types.MarketTypePerp, MarketIndex: 0, Direction: types.Short,
		BaseAssetAmount: 1 * fixedmath.BasePrecision, Price: 99 * fixedmath.PricePrecision, OrderType: types.OrderTypeLimit,
	}, 0)
	require.NoError(t, err)

	makers := []matching.MakerCandidate{{User: maker, Position: &maker.PerpPositions[0], OrderIdx: makerIdx, Tier: fees.DefaultTiers()[0]}}
	result, err := e.FillPerpOrder(taker, takerIdx, 0, makers, false)
	require.NoError(t, err)
	require.True(t, result.FullyFilled)
	require.Equal(t, int64(1*fixedmath.BasePrecision), taker.PerpPositions[0].BaseAssetAmount)
	require.Equal(t, int64(-1*fixedmath.BasePrecision), maker.PerpPositions[0].BaseAssetAmount)
}

func TestSettleFundingPaymentIsIdempotent(t *testing.T) {
	e, market, _ := testEngine(t)
	market.AMM.LastFundingRateTs = e.Clock.Now - market.AMM.FundingPeriod

	u := fundedUser()
	u.PerpPositions[0] = types.PerpPosition{MarketIndex: 0, BaseAssetAmount: 1 * fixedmath.BasePrecision}

	first, err := e.SettleFundingPayment(u, 0)
	require.NoError(t, err)

	second, err := e.SettleFundingPayment(u, 0)
	require.NoError(t, err)
	require.Equal(t, int64(0), second)
	_ = first
}

func TestForceCancelOrdersErrorsWhenUserMeetsRequirement(t *testing.T) {
	e, _, _ := testEngine(t)
	u := fundedUser()
	u.SpotPositions[0].ScaledBalance = 10_000 * fixedmath.QuotePrecision

	err := e.ForceCancelOrders(u)
	require.Error(t, err)
}

func TestLiquidatePerpRequiresBeingLiquidatedFlag(t *testing.T) {
	e, _, _ := testEngine(t)
	victim := fundedUser()
	victim.PerpPositions[0] = types.PerpPosition{MarketIndex: 0, BaseAssetAmount: 1 * fixedmath.BasePrecision, QuoteAssetAmount: -100 * fixedmath.QuotePrecision}
	liquidator := fundedUser()

	_, err := e.LiquidatePerp(victim, liquidator, 0, fixedmath.BasePrecision)
	require.Error(t, err)
}

func TestSettlePnlRealizesClosedPosition(t *testing.T) {
	e, _, _ := testEngine(t)
	u := fundedUser()
	u.PerpPositions[0] = types.PerpPosition{MarketIndex: 0, BaseAssetAmount: 0, QuoteAssetAmount: 50 * fixedmath.QuotePrecision}

	realized, err := e.SettlePnl(u, 0)
	require.NoError(t, err)
	require.Equal(t, int64(50*fixedmath.QuotePrecision), realized)
	require.Equal(t, int64(0), u.PerpPositions[0].QuoteAssetAmount)
	require.Equal(t, int64(50*fixedmath.QuotePrecision), u.PerpPositions[0].SettledPnl)
}

func TestSettlePnlRejectsOpenPosition(t *testing.T) {
	e, _, _ := testEngine(t)
	u := fundedUser()
	u.PerpPositions[0] = types.PerpPosition{MarketIndex: 0, BaseAssetAmount: 1 * fixedmath.BasePrecision, QuoteAssetAmount: 50 * fixedmath.QuotePrecision}

	_, err := e.SettlePnl(u, 0)
	require.Error(t, err)
}
