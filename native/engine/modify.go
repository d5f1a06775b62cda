package engine

import (
	coreerrors "novaperp/core/errors"
	"novaperp/core/types"
	"novaperp/native/matching"
)

// ModifyOrder implements modify_order, spec §6 / §4.G "Modify".
func (e *Engine) ModifyOrder(u *types.User, orderId uint32, params matching.ModifyParams, policy types.ModifyPolicy) (int, error) {
	o := u.FindOrder(orderId)
	if o == nil {
		if policy == types.ModifyMustModify {
			return -1, coreerrors.New(coreerrors.CodeOrderDoesNotExist, "order does not exist")
		}
		return -1, nil
	}
	return e.modify(u, o, orderId, params, policy)
}

// ModifyOrderByUserOrderId implements modify_order_by_user_order_id.
func (e *Engine) ModifyOrderByUserOrderId(u *types.User, userOrderId uint8, params matching.ModifyParams, policy types.ModifyPolicy) (int, error) {
	o := u.FindOrderByUserOrderId(userOrderId)
	if o == nil {
		if policy == types.ModifyMustModify {
			return -1, coreerrors.New(coreerrors.CodeOrderDoesNotExist, "order does not exist")
		}
		return -1, nil
	}
	return e.modify(u, o, o.OrderId, params, policy)
}

func (e *Engine) modify(u *types.User, o *types.Order, orderId uint32, params matching.ModifyParams, policy types.ModifyPolicy) (int, error) {
	if o.MarketType == types.MarketTypePerp {
		market, err := e.PerpMarkets.GetRefMut(o.MarketIndex)
		if err != nil {
			return -1, mapError(err)
		}
		pos, err := u.GetPerpPosition(o.MarketIndex)
		if err != nil {
			return -1, mapError(err)
		}
		e.settlePendingFunding(market, u, pos)
		idx, err := matching.Modify(u, matching.PerpPosition(pos), orderId, params, perpMarketRules(market), e.Clock.Slot, policy, e.Emit)
		if err != nil {
			return -1, mapError(err)
		}
		if idx >= 0 {
			if err := e.enforceMargin(u, types.MarginTierFill); err != nil {
				return idx, err
			}
		}
		return idx, nil
	}

	market, err := e.SpotMarkets.GetRefMut(o.MarketIndex)
	if err != nil {
		return -1, mapError(err)
	}
	pos, err := u.GetSpotPosition(o.MarketIndex)
	if err != nil {
		return -1, mapError(err)
	}
	idx, err := matching.Modify(u, matching.SpotPosition(pos), orderId, params, spotMarketRules(market), e.Clock.Slot, policy, e.Emit)
	if err != nil {
		return -1, mapError(err)
	}
	if idx >= 0 {
		if err := e.enforceMargin(u, types.MarginTierFill); err != nil {
			return idx, err
		}
	}
	return idx, nil
}
