package matching

import (
	"novaperp/core/events"
	"novaperp/core/types"
)

// Cancel implements spec §4.G "Cancel": status check, decrement open
// counters, zero the slot, and emit OrderActionRecord(Cancel) unless
// skipLog (used by internal fill-driven cancellations that already emit a
// Fill record).
func Cancel(u *types.User, pos orderBookPosition, orderIdx int, skipLog bool, emit events.Emitter) error {
	o := &u.Orders[orderIdx]
	if !o.IsOpen() {
		return ErrOrderNotOpen
	}

	unfilled := o.BaseAssetAmountUnfilled()
	isBid := o.Direction == types.Long

	u.OpenOrders--
	pos.bumpOpenOrders(-1)
	if isBid {
		pos.bumpOpenBids(-unfilled)
	} else {
		pos.bumpOpenAsks(-unfilled)
	}

	orderId := o.OrderId
	marketIndex := o.MarketIndex
	o.Reset()

	if emit != nil && !skipLog {
		emit.Emit(events.OrderActionRecord{Action: events.ActionCancel, OrderId: orderId, MarketIndex: marketIndex})
	}
	return nil
}

// CancelByOrderId resolves an order by id before cancelling it.
func CancelByOrderId(u *types.User, pos orderBookPosition, orderId uint32, skipLog bool, emit events.Emitter) error {
	o := u.FindOrder(orderId)
	if o == nil {
		return ErrOrderDoesNotExist
	}
	idx := indexOf(u, o)
	return Cancel(u, pos, idx, skipLog, emit)
}

func indexOf(u *types.User, o *types.Order) int {
	for i := range u.Orders {
		if &u.Orders[i] == o {
			return i
		}
	}
	return -1
}

// ExpireOrders cancels every open order whose MaxTs is non-zero and has
// elapsed, returning the ids of the orders it canceled (spec §4.G step 2,
// and the keeper-invoked expire_orders entrypoint of spec §6).
func ExpireOrders(u *types.User, positions func(marketIndex uint16, marketType types.MarketType) orderBookPosition, now uint64, emit events.Emitter) []uint32 {
	var expired []uint32
	for i := range u.Orders {
		o := &u.Orders[i]
		if !o.IsOpen() || o.MaxTs == 0 || now < o.MaxTs {
			continue
		}
		pos := positions(o.MarketIndex, o.MarketType)
		orderId := o.OrderId
		marketIndex := o.MarketIndex
		if pos != nil {
			_ = Cancel(u, pos, i, true, nil)
		} else {
			o.Reset()
			u.OpenOrders--
		}
		expired = append(expired, orderId)
		if emit != nil {
			emit.Emit(events.OrderActionRecord{Action: events.ActionExpire, OrderId: orderId, MarketIndex: marketIndex})
		}
	}
	return expired
}
