package matching

import (
	"testing"

	"github.com/stretchr/testify/require"

	"novaperp/core/events"
	"novaperp/core/fixedmath"
	"novaperp/core/types"
)

func baseRules() MarketRules {
	return MarketRules{
		Status:             types.MarketStatusActive,
		OrderStepSize:      1,
		OrderTickSize:      1,
		MinOrderSize:       0,
		MinAuctionDuration: 5,
	}
}

func TestPlaceOpensOrderAndBumpsCounters(t *testing.T) {
	u := &types.User{}
	pos := PerpPosition(&u.PerpPositions[0])

	idx, err := Place(u, pos, baseRules(), PlaceParams{
		MarketType: types.MarketTypePerp, Direction: types.Long,
		BaseAssetAmount: 5, Price: 100, OrderType: types.OrderTypeLimit,
	}, 1, nil)
	require.NoError(t, err)
	require.Equal(t, int32(1), u.OpenOrders)
	require.Equal(t, int64(5), u.PerpPositions[0].OpenBids)
	require.True(t, u.Orders[idx].IsOpen())
	require.Equal(t, uint32(1), u.Orders[idx].OrderId)
}

func TestPlaceRejectsDuplicateUserOrderId(t *testing.T) {
	u := &types.User{}
	pos := PerpPosition(&u.PerpPositions[0])
	params := PlaceParams{MarketType: types.MarketTypePerp, Direction: types.Long, BaseAssetAmount: 1, Price: 100, OrderType: types.OrderTypeLimit, UserOrderId: 7}

	_, err := Place(u, pos, baseRules(), params, 1, nil)
	require.NoError(t, err)

	_, err = Place(u, pos, baseRules(), params, 2, nil)
	require.ErrorIs(t, err, ErrUserOrderIdAlreadyInUse)
}

func TestPlaceRejectsBelowMinOrderSize(t *testing.T) {
	u := &types.User{}
	pos := PerpPosition(&u.PerpPositions[0])
	rules := baseRules()
	rules.MinOrderSize = 10

	_, err := Place(u, pos, rules, PlaceParams{
		MarketType: types.MarketTypePerp, Direction: types.Long, BaseAssetAmount: 3, Price: 100, OrderType: types.OrderTypeLimit,
	}, 1, nil)
	require.ErrorIs(t, err, ErrOrderAmountTooSmall)
}

func TestPlaceAppliesMinAuctionDurationToMarketOrders(t *testing.T) {
	u := &types.User{}
	pos := PerpPosition(&u.PerpPositions[0])

	idx, err := Place(u, pos, baseRules(), PlaceParams{
		MarketType: types.MarketTypePerp, Direction: types.Long, BaseAssetAmount: 5, Price: 100,
		OrderType: types.OrderTypeMarket, AuctionDuration: 2,
	}, 1, nil)
	require.NoError(t, err)
	require.Equal(t, uint8(5), u.Orders[idx].AuctionDuration)
}

func TestPlaceRejectsProtectedMakerOrderThatWouldCross(t *testing.T) {
	u := &types.User{Status: types.UserStatusProtectedMaker}
	pos := PerpPosition(&u.PerpPositions[0])
	rules := baseRules()
	rules.AMMBidPrice = 99
	rules.AMMAskPrice = 101

	idx, err := Place(u, pos, rules, PlaceParams{
		MarketType: types.MarketTypePerp, Direction: types.Long, BaseAssetAmount: 5, Price: 101, OrderType: types.OrderTypeLimit,
	}, 1, nil)
	require.ErrorIs(t, err, ErrProtectedMakerWouldCross)
	require.Equal(t, -1, idx)
	require.Equal(t, int32(0), u.OpenOrders)
}

func TestPlaceAllowsProtectedMakerOrderThatRests(t *testing.T) {
	u := &types.User{Status: types.UserStatusProtectedMaker}
	pos := PerpPosition(&u.PerpPositions[0])
	rules := baseRules()
	rules.AMMBidPrice = 99
	rules.AMMAskPrice = 101

	idx, err := Place(u, pos, rules, PlaceParams{
		MarketType: types.MarketTypePerp, Direction: types.Long, BaseAssetAmount: 5, Price: 98, OrderType: types.OrderTypeLimit,
	}, 1, nil)
	require.NoError(t, err)
	require.True(t, u.Orders[idx].IsOpen())
}

func TestPlaceSkipsProtectedMakerCheckWithoutAMMSignal(t *testing.T) {
	u := &types.User{Status: types.UserStatusProtectedMaker}
	pos := PerpPosition(&u.PerpPositions[0])

	idx, err := Place(u, pos, baseRules(), PlaceParams{
		MarketType: types.MarketTypePerp, Direction: types.Long, BaseAssetAmount: 5, Price: 1000, OrderType: types.OrderTypeLimit,
	}, 1, nil)
	require.NoError(t, err)
	require.True(t, u.Orders[idx].IsOpen())
}

func TestCancelFreesSlotAndCounters(t *testing.T) {
	u := &types.User{}
	pos := PerpPosition(&u.PerpPositions[0])
	idx, err := Place(u, pos, baseRules(), PlaceParams{
		MarketType: types.MarketTypePerp, Direction: types.Short, BaseAssetAmount: 5, Price: 100, OrderType: types.OrderTypeLimit,
	}, 1, nil)
	require.NoError(t, err)

	rec := events.NewRecorder()
	err = Cancel(u, pos, idx, false, rec)
	require.NoError(t, err)
	require.Equal(t, int32(0), u.OpenOrders)
	require.Equal(t, int64(0), u.PerpPositions[0].OpenAsks)
	require.False(t, u.Orders[idx].IsOpen())
	require.Len(t, rec.Events(), 1)
}

func TestCancelRejectsAlreadyClosedOrder(t *testing.T) {
	u := &types.User{}
	pos := PerpPosition(&u.PerpPositions[0])
	idx, _ := Place(u, pos, baseRules(), PlaceParams{MarketType: types.MarketTypePerp, Direction: types.Long, BaseAssetAmount: 1, Price: 1, OrderType: types.OrderTypeLimit}, 1, nil)
	require.NoError(t, Cancel(u, pos, idx, false, nil))
	require.ErrorIs(t, Cancel(u, pos, idx, false, nil), ErrOrderNotOpen)
}

func TestExpireOrdersCancelsOnlyPastMaxTs(t *testing.T) {
	u := &types.User{}
	pos := PerpPosition(&u.PerpPositions[0])
	_, _ = Place(u, pos, baseRules(), PlaceParams{MarketType: types.MarketTypePerp, Direction: types.Long, BaseAssetAmount: 1, Price: 1, OrderType: types.OrderTypeLimit, MaxTs: 100}, 1, nil)
	_, _ = Place(u, pos, baseRules(), PlaceParams{MarketType: types.MarketTypePerp, Direction: types.Long, BaseAssetAmount: 1, Price: 1, OrderType: types.OrderTypeLimit, MaxTs: 0}, 1, nil)

	expired := ExpireOrders(u, func(uint16, types.MarketType) orderBookPosition { return pos }, 200, nil)
	require.Len(t, expired, 1)
	require.Equal(t, int32(1), u.OpenOrders)
}

func TestModifyPreservesOrderIdAndUpdatesPrice(t *testing.T) {
	u := &types.User{}
	pos := PerpPosition(&u.PerpPositions[0])
	idx, err := Place(u, pos, baseRules(), PlaceParams{MarketType: types.MarketTypePerp, Direction: types.Long, BaseAssetAmount: 5, Price: 100, OrderType: types.OrderTypeLimit}, 1, nil)
	require.NoError(t, err)
	originalId := u.Orders[idx].OrderId

	newPrice := int64(110)
	newIdx, err := Modify(u, pos, originalId, ModifyParams{Price: &newPrice}, baseRules(), 2, types.ModifyDefault, nil)
	require.NoError(t, err)
	require.Equal(t, originalId, u.Orders[newIdx].OrderId)
	require.Equal(t, newPrice, u.Orders[newIdx].Price)
	require.Equal(t, int32(1), u.OpenOrders)
}

func TestModifyMissingOrderDefaultIsNoop(t *testing.T) {
	u := &types.User{}
	pos := PerpPosition(&u.PerpPositions[0])
	idx, err := Modify(u, pos, 999, ModifyParams{}, baseRules(), 1, types.ModifyDefault, nil)
	require.NoError(t, err)
	require.Equal(t, -1, idx)
}

func TestModifyMissingOrderMustModifyErrors(t *testing.T) {
	u := &types.User{}
	pos := PerpPosition(&u.PerpPositions[0])
	_, err := Modify(u, pos, 999, ModifyParams{}, baseRules(), 1, types.ModifyMustModify, nil)
	require.ErrorIs(t, err, ErrOrderDoesNotExist)
}

func TestTriggerTransitionsConditionAndAppliesAuction(t *testing.T) {
	u := &types.User{}
	pos := PerpPosition(&u.PerpPositions[0])
	idx, err := Place(u, pos, baseRules(), PlaceParams{
		MarketType: types.MarketTypePerp, Direction: types.Long, BaseAssetAmount: 5, Price: 100,
		OrderType: types.OrderTypeTriggerMarket, TriggerPrice: 90 * fixedmath.PricePrecision, TriggerCondition: types.TriggerAbove,
	}, 1, nil)
	require.NoError(t, err)

	oracles := oracleMapWithValidEntry(t)
	fee, err := Trigger(u, pos, idx, oracles, testOracleKey, 95*fixedmath.PricePrecision, 10, 95, 105, 5, 0, false, nil)
	require.NoError(t, err)
	require.Equal(t, int64(0), fee)
	require.True(t, u.Orders[idx].TriggerCondition.IsTriggered())
	require.Equal(t, int64(95), u.Orders[idx].AuctionStartPrice)
	require.Equal(t, int64(105), u.Orders[idx].AuctionEndPrice)
	require.Equal(t, uint8(5), u.Orders[idx].AuctionDuration)
}

func TestTriggerRejectsWhenConditionNotMet(t *testing.T) {
	u := &types.User{}
	pos := PerpPosition(&u.PerpPositions[0])
	idx, err := Place(u, pos, baseRules(), PlaceParams{
		MarketType: types.MarketTypePerp, Direction: types.Long, BaseAssetAmount: 5, Price: 100,
		OrderType: types.OrderTypeTriggerMarket, TriggerPrice: 150 * fixedmath.PricePrecision, TriggerCondition: types.TriggerAbove,
	}, 1, nil)
	require.NoError(t, err)

	oracles := oracleMapWithValidEntry(t)
	_, err = Trigger(u, pos, idx, oracles, testOracleKey, 95*fixedmath.PricePrecision, 10, 95, 105, 5, 0, false, nil)
	require.ErrorIs(t, err, ErrOrderDidNotSatisfyTrigger)
}

func TestTriggerCancelsWhenRequested(t *testing.T) {
	u := &types.User{}
	pos := PerpPosition(&u.PerpPositions[0])
	idx, err := Place(u, pos, baseRules(), PlaceParams{
		MarketType: types.MarketTypePerp, Direction: types.Long, BaseAssetAmount: 5, Price: 100,
		OrderType: types.OrderTypeTriggerMarket, TriggerPrice: 90 * fixedmath.PricePrecision, TriggerCondition: types.TriggerAbove,
	}, 1, nil)
	require.NoError(t, err)

	oracles := oracleMapWithValidEntry(t)
	_, err = Trigger(u, pos, idx, oracles, testOracleKey, 95*fixedmath.PricePrecision, 10, 95, 105, 5, 0, true, nil)
	require.NoError(t, err)
	require.False(t, u.Orders[idx].IsOpen())
	require.Equal(t, int32(0), u.OpenOrders)
}
