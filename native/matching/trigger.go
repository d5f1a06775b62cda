package matching

import (
	"novaperp/core/events"
	"novaperp/core/oracle"
	"novaperp/core/types"
)

// Trigger implements spec §4.G "Trigger": pre-conditions (not yet
// triggered, perp market type, oracle valid for TriggerOrder), transitions
// the condition to its Triggered* variant, recomputes auction params, and
// returns the flat filler fee the caller must debit from the user's quote
// balance. If cancelAfterTrigger is true (the caller determined the
// post-trigger worst-case position would exceed initial margin), the order
// is canceled instead of left open.
func Trigger(
	u *types.User,
	pos orderBookPosition,
	orderIdx int,
	oracles *oracle.Map,
	oracleKey oracle.Key,
	oraclePrice int64,
	slot uint64,
	auctionStart, auctionEnd int64,
	auctionDuration uint8,
	flatFillerFee int64,
	cancelAfterTrigger bool,
	emit events.Emitter,
) (fillerFee int64, err error) {
	o := &u.Orders[orderIdx]
	if !o.IsOpen() {
		return 0, ErrOrderNotOpen
	}
	if o.MarketType != types.MarketTypePerp {
		return 0, ErrInvalidOrderMarketType
	}
	if o.TriggerCondition.IsTriggered() {
		return 0, ErrOrderNotTriggerable
	}
	if !oracles.IsOracleValidForAction(oracleKey, types.OracleActionTriggerOrder) {
		return 0, ErrOrderDidNotSatisfyTrigger
	}
	if !o.TriggerCondition.IsTriggered() && !conditionSatisfied(o.TriggerCondition, o.TriggerPrice, oraclePrice) {
		return 0, ErrOrderDidNotSatisfyTrigger
	}

	o.TriggerCondition = triggeredVariant(o.TriggerCondition)
	o.Slot = slot
	o.AuctionStartPrice = auctionStart
	o.AuctionEndPrice = auctionEnd
	o.AuctionDuration = auctionDuration

	if emit != nil {
		emit.Emit(events.OrderActionRecord{Action: events.ActionTrigger, OrderId: o.OrderId, MarketIndex: o.MarketIndex, FillerReward: flatFillerFee})
	}

	if cancelAfterTrigger {
		if err := Cancel(u, pos, orderIdx, false, emit); err != nil {
			return flatFillerFee, err
		}
	}
	return flatFillerFee, nil
}

func conditionSatisfied(cond types.TriggerCondition, triggerPrice, oraclePrice int64) bool {
	switch cond {
	case types.TriggerAbove:
		return oraclePrice >= triggerPrice
	case types.TriggerBelow:
		return oraclePrice <= triggerPrice
	default:
		return false
	}
}

func triggeredVariant(cond types.TriggerCondition) types.TriggerCondition {
	switch cond {
	case types.TriggerAbove:
		return types.TriggerTriggeredAbove
	case types.TriggerBelow:
		return types.TriggerTriggeredBelow
	default:
		return cond
	}
}
