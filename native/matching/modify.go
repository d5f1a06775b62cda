package matching

import (
	"novaperp/core/events"
	"novaperp/core/types"
)

// ModifyParams carries the fields a modify_order instruction may override;
// a nil pointer field means "keep the existing order's value" (spec §4.G
// "Modify": cancel the target order then place a new one whose fields are
// existing-order fields overridden by the modification parameters).
type ModifyParams struct {
	Direction         *types.PositionDirection
	Price             *int64
	BaseAssetAmount   *int64
	ReduceOnly        *bool
	PostOnly          *bool
	TriggerPrice      *int64
	TriggerCondition  *types.TriggerCondition
	OracleOffset      *int64
	AuctionStartPrice *int64
	AuctionEndPrice   *int64
	AuctionDuration   *uint8
}

// Modify implements spec §4.G "Modify". policy=ModifyMustModify surfaces a
// missing-order error; the default policy treats a missing order as a
// no-op (returns -1, nil).
func Modify(u *types.User, pos orderBookPosition, orderId uint32, params ModifyParams, rules MarketRules, slot uint64, policy types.ModifyPolicy, emit events.Emitter) (int, error) {
	o := u.FindOrder(orderId)
	if o == nil {
		if policy == types.ModifyMustModify {
			return -1, ErrOrderDoesNotExist
		}
		return -1, nil
	}

	placeParams := PlaceParams{
		MarketType:        o.MarketType,
		MarketIndex:       o.MarketIndex,
		Direction:         o.Direction,
		BaseAssetAmount:   o.BaseAssetAmount,
		Price:             o.Price,
		OrderType:         o.OrderType,
		UserOrderId:       o.UserOrderId,
		ReduceOnly:        o.ReduceOnly,
		PostOnly:          o.PostOnly,
		ImmediateOrCancel: o.ImmediateOrCancel,
		TriggerPrice:      o.TriggerPrice,
		TriggerCondition:  o.TriggerCondition,
		OracleOffset:      o.OracleOffset,
		MaxTs:             o.MaxTs,
		AuctionStartPrice: o.AuctionStartPrice,
		AuctionEndPrice:   o.AuctionEndPrice,
		AuctionDuration:   o.AuctionDuration,
	}

	if params.Direction != nil {
		placeParams.Direction = *params.Direction
	}
	if params.Price != nil {
		placeParams.Price = *params.Price
	}
	if params.BaseAssetAmount != nil {
		placeParams.BaseAssetAmount = *params.BaseAssetAmount
	}
	if params.ReduceOnly != nil {
		placeParams.ReduceOnly = *params.ReduceOnly
	}
	if params.PostOnly != nil {
		placeParams.PostOnly = *params.PostOnly
	}
	if params.TriggerPrice != nil {
		placeParams.TriggerPrice = *params.TriggerPrice
	}
	if params.TriggerCondition != nil {
		placeParams.TriggerCondition = *params.TriggerCondition
	}
	if params.OracleOffset != nil {
		placeParams.OracleOffset = *params.OracleOffset
	}
	if params.AuctionStartPrice != nil {
		placeParams.AuctionStartPrice = *params.AuctionStartPrice
	}
	if params.AuctionEndPrice != nil {
		placeParams.AuctionEndPrice = *params.AuctionEndPrice
	}
	if params.AuctionDuration != nil {
		placeParams.AuctionDuration = *params.AuctionDuration
	}

	originalOrderId := o.OrderId
	idx := indexOf(u, o)
	if err := Cancel(u, pos, idx, true, nil); err != nil {
		return -1, err
	}

	newIdx, err := Place(u, pos, rules, placeParams, slot, nil)
	if err != nil {
		return -1, err
	}
	// A modify preserves the order's identity; undo the fresh id Place
	// assigned and restore the original one.
	u.NextOrderId--
	u.Orders[newIdx].OrderId = originalOrderId

	if emit != nil {
		emit.Emit(events.OrderActionRecord{Action: events.ActionModify, OrderId: originalOrderId, MarketIndex: u.Orders[newIdx].MarketIndex})
	}
	return newIdx, nil
}
