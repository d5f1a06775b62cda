package matching

import (
	"testing"

	"github.com/stretchr/testify/require"

	"novaperp/core/events"
	"novaperp/core/fixedmath"
	"novaperp/core/oracle"
	"novaperp/core/types"
	"novaperp/native/fees"
)

func fillTestMarket() *types.PerpMarket {
	return &types.PerpMarket{
		MarketIndex:            0,
		Status:                 types.MarketStatusActive,
		MarginRatioInitial:     1000,
		MarginRatioMaintenance: 500,
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
		},
	}
}

func TestFillPerpOrderMatchesAgainstBetterPricedMaker(t *testing.T) {
	market := fillTestMarket()

	taker := &types.User{}
	takerIdx, err := Place(taker, PerpPosition(&taker.PerpPositions[0]), MarketRules{Status: types.MarketStatusActive, OrderStepSize: 1, OrderTickSize: 1}, PlaceParams{
		MarketType: types.MarketTypePerp, Direction: types.Long, BaseAssetAmount: 1 * fixedmath.BasePrecision,
		Price: 101 * fixedmath.PricePrecision, OrderType: types.OrderTypeLimit,
	}, 1, nil)
	require.NoError(t, err)

	maker := &types.User{}
	makerIdx, err := Place(maker, PerpPosition(&maker.PerpPositions[0]), MarketRules{Status: types.MarketStatusActive, OrderStepSize: 1, OrderTickSize: 1}, PlaceParams{
		MarketType: types.MarketTypePerp, Direction: types.Short, BaseAssetAmount: 1 * fixedmath.BasePrecision,
		Price: 99 * fixedmath.PricePrecision, OrderType: types.OrderTypeLimit,
	}, 1, nil)
	require.NoError(t, err)

	makers := []MakerCandidate{{User: maker, Position: &maker.PerpPositions[0], OrderIdx: makerIdx, Tier: fees.DefaultTiers()[0]}}

	rec := events.NewRecorder()
	result, err := FillPerpOrder(market, taker, &taker.PerpPositions[0], takerIdx, fees.DefaultTiers()[0], makers, FillContext{
		Slot: 1, OraclePrice: 100 * fixedmath.PricePrecision, OracleTwap5Min: 100 * fixedmath.PricePrecision,
	}, rec)
	require.NoError(t, err)
	require.True(t, result.FullyFilled)
	require.Equal(t, int64(1*fixedmath.BasePrecision), result.TakerBaseFilled)
	require.Equal(t, int64(1*fixedmath.BasePrecision), taker.PerpPositions[0].BaseAssetAmount)
	require.Equal(t, int64(-1*fixedmath.BasePrecision), maker.PerpPositions[0].BaseAssetAmount)
	// the maker's resting price (99) beats the AMM's spread-adjusted ask.
	require.Equal(t, int64(99*fixedmath.QuotePrecision), result.TakerQuoteFilled)
	require.NotEmpty(t, rec.Events())
}

func TestFillPerpOrderFallsBackToAmmWithNoMaker(t *testing.T) {
	market := fillTestMarket()

	taker := &types.User{}
	takerIdx, err := Place(taker, PerpPosition(&taker.PerpPositions[0]), MarketRules{Status: types.MarketStatusActive, OrderStepSize: 1, OrderTickSize: 1}, PlaceParams{
		MarketType: types.MarketTypePerp, Direction: types.Long, BaseAssetAmount: 1 * fixedmath.BasePrecision,
		Price: 150 * fixedmath.PricePrecision, OrderType: types.OrderTypeLimit,
	}, 1, nil)
	require.NoError(t, err)

	result, err := FillPerpOrder(market, taker, &taker.PerpPositions[0], takerIdx, fees.DefaultTiers()[0], nil, FillContext{
		Slot: 1, OraclePrice: 100 * fixedmath.PricePrecision, OracleTwap5Min: 100 * fixedmath.PricePrecision, PriceBandBufferBps: 100_000,
	}, nil)
	require.NoError(t, err)
	require.True(t, result.TakerBaseFilled > 0)
	require.True(t, taker.PerpPositions[0].BaseAssetAmount > 0)
}

func TestFillPerpOrderStopsWhenMarketPaused(t *testing.T) {
	market := fillTestMarket()
	market.PausedOperations = types.PausedFill

	taker := &types.User{}
	takerIdx, err := Place(taker, PerpPosition(&taker.PerpPositions[0]), MarketRules{Status: types.MarketStatusActive, OrderStepSize: 1, OrderTickSize: 1}, PlaceParams{
		MarketType: types.MarketTypePerp, Direction: types.Long, BaseAssetAmount: 1, Price: 150 * fixedmath.PricePrecision, OrderType: types.OrderTypeLimit,
	}, 1, nil)
	require.NoError(t, err)

	_, err = FillPerpOrder(market, taker, &taker.PerpPositions[0], takerIdx, fees.DefaultTiers()[0], nil, FillContext{Slot: 1}, nil)
	require.Error(t, err)
}

func TestFillPerpOrderRejectsOnInvalidOracle(t *testing.T) {
	market := fillTestMarket()

	taker := &types.User{}
	takerIdx, err := Place(taker, PerpPosition(&taker.PerpPositions[0]), MarketRules{Status: types.MarketStatusActive, OrderStepSize: 1, OrderTickSize: 1}, PlaceParams{
		MarketType: types.MarketTypePerp, Direction: types.Long, BaseAssetAmount: 1, Price: 150 * fixedmath.PricePrecision, OrderType: types.OrderTypeLimit,
	}, 1, nil)
	require.NoError(t, err)

	oracles := oracle.NewMap()
	key := oracle.Key{Pubkey: "perp-0"}
	oracles.Load(key, 100*fixedmath.PricePrecision, 10, 1, 1000, 100*fixedmath.PricePrecision, 100*fixedmath.PricePrecision, oracle.DefaultTolerances())

	_, err = FillPerpOrder(market, taker, &taker.PerpPositions[0], takerIdx, fees.DefaultTiers()[0], nil, FillContext{
		Slot: 1, Oracles: oracles, OracleKey: key,
	}, nil)
	require.ErrorIs(t, err, ErrOracleInvalidForFill)
}
