package engine

import (
	coreerrors "novaperp/core/errors"
	"novaperp/core/types"
	"novaperp/native/margin"
	"novaperp/native/matching"
)

// cancelAt resolves the perp/spot position adapter matching.Cancel needs
// for the order at orderIdx and cancels it.
func (e *Engine) cancelAt(u *types.User, orderIdx int, skipLog bool) error {
	o := &u.Orders[orderIdx]
	if o.MarketType == types.MarketTypePerp {
		pos, err := u.GetPerpPosition(o.MarketIndex)
		if err != nil {
			return mapError(err)
		}
		if err := matching.Cancel(u, matching.PerpPosition(pos), orderIdx, skipLog, e.Emit); err != nil {
			return mapError(err)
		}
		return nil
	}
	pos, err := u.GetSpotPosition(o.MarketIndex)
	if err != nil {
		return mapError(err)
	}
	if err := matching.Cancel(u, matching.SpotPosition(pos), orderIdx, skipLog, e.Emit); err != nil {
		return mapError(err)
	}
	return nil
}

// CancelOrder implements cancel_order, spec §6.
func (e *Engine) CancelOrder(u *types.User, orderIdx int) error {
	if orderIdx < 0 || orderIdx >= len(u.Orders) {
		err := coreerrors.New(coreerrors.CodeOrderDoesNotExist, "order index out of range")
		e.logCancel(u, 0, uint32(orderIdx), err)
		return err
	}
	orderId := u.Orders[orderIdx].OrderId
	marketIndex := u.Orders[orderIdx].MarketIndex
	err := e.cancelAt(u, orderIdx, false)
	e.logCancel(u, marketIndex, orderId, err)
	return err
}

// CancelOrderByUserOrderId implements cancel_order_by_user_order_id.
func (e *Engine) CancelOrderByUserOrderId(u *types.User, userOrderId uint8) error {
	o := u.FindOrderByUserOrderId(userOrderId)
	if o == nil {
		err := coreerrors.New(coreerrors.CodeOrderDoesNotExist, "no order with that user order id")
		e.logCancel(u, 0, 0, err)
		return err
	}
	idx := indexOfOrder(u, o)
	marketIndex, orderId := o.MarketIndex, o.OrderId
	err := e.cancelAt(u, idx, false)
	e.logCancel(u, marketIndex, orderId, err)
	return err
}

// logCancel records a cancel-family outcome, spec §10.1.
func (e *Engine) logCancel(u *types.User, marketIndex uint16, orderId uint32, err error) {
	if err != nil {
		e.logger().Warn("cancel order rejected",
			"market_index", marketIndex,
			"user", u.Authority,
			"order_id", orderId,
			"error_code", codeOf(err),
			"error", err.Error(),
		)
		return
	}
	e.logger().Info("cancel order accepted",
		"market_index", marketIndex,
		"user", u.Authority,
		"order_id", orderId,
	)
}

func indexOfOrder(u *types.User, o *types.Order) int {
	for i := range u.Orders {
		if &u.Orders[i] == o {
			return i
		}
	}
	return -1
}

// CancelOrdersByIds implements cancel_orders_by_ids: best-effort, skipping
// ids that no longer resolve to an open order rather than failing the
// whole batch.
func (e *Engine) CancelOrdersByIds(u *types.User, orderIds []uint32) error {
	for _, id := range orderIds {
		o := u.FindOrder(id)
		if o == nil || !o.IsOpen() {
			continue
		}
		if err := e.cancelAt(u, indexOfOrder(u, o), false); err != nil {
			return err
		}
	}
	return nil
}

// CancelFilter narrows cancel_orders to a market and/or direction; a zero
// value (HasMarketIndex/HasDirection both false) cancels every open order
// the user has.
type CancelFilter struct {
	MarketType     types.MarketType
	MarketIndex    uint16
	HasMarketIndex bool
	Direction      types.PositionDirection
	HasDirection   bool
}

func (f CancelFilter) matches(o *types.Order) bool {
	if f.HasMarketIndex && (o.MarketType != f.MarketType || o.MarketIndex != f.MarketIndex) {
		return false
	}
	if f.HasDirection && o.Direction != f.Direction {
		return false
	}
	return true
}

// CancelOrders implements cancel_orders, spec §6.
func (e *Engine) CancelOrders(u *types.User, filter CancelFilter) error {
	for i := range u.Orders {
		o := &u.Orders[i]
		if !o.IsOpen() || !filter.matches(o) {
			continue
		}
		if err := e.cancelAt(u, i, false); err != nil {
			return err
		}
	}
	return nil
}

// ForceCancelOrders implements force_cancel_orders: a keeper-invoked
// de-risking action that cancels every resting order for a user who fails
// the initial margin requirement, so a user who has stopped maintaining
// margin cannot keep resting orders that would add further risk if filled.
// Returns an error if the user already meets requirement, since there would
// be nothing to de-risk.
func (e *Engine) ForceCancelOrders(u *types.User) error {
	calc, err := margin.Calculate(u, e.PerpMarkets, e.SpotMarkets, e.Oracles, types.MarginTierInitial, 0)
	if err != nil {
		return mapError(err)
	}
	if calc.MeetsRequirement() {
		return coreerrors.New(coreerrors.CodeSufficientCollateral, "user meets initial margin requirement")
	}
	return e.CancelOrders(u, CancelFilter{})
}
