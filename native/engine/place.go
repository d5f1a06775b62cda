package engine

import (
	coreerrors "novaperp/core/errors"
	"novaperp/core/types"
	"novaperp/native/amm"
	"novaperp/native/margin"
	"novaperp/native/matching"
)

// perpMarketRules projects a PerpMarket into the step/tick/auction rules
// Place needs, including the AMM's current spread-adjusted bid/ask so a
// ProtectedMaker order can be rejected for crossing it; an unpriceable AMM
// (zero reserves, e.g. an uninitialized test market) just skips that check.
func perpMarketRules(m *types.PerpMarket) matching.MarketRules {
	bid, _ := amm.BidPrice(&m.AMM)
	ask, _ := amm.AskPrice(&m.AMM)
	return matching.MarketRules{
		Status:             m.Status,
		PausedOperations:   m.PausedOperations,
		OrderStepSize:      m.AMM.OrderStepSize,
		OrderTickSize:      m.AMM.OrderTickSize,
		MinOrderSize:       m.AMM.MinOrderSize,
		MinAuctionDuration: 10,
		AMMBidPrice:        bid,
		AMMAskPrice:        ask,
	}
}

func spotMarketRules(m *types.SpotMarket) matching.MarketRules {
	return matching.MarketRules{
		Status:           m.Status,
		PausedOperations: m.PausedOperations,
		OrderStepSize:    m.OrderStepSize,
		OrderTickSize:    m.OrderTickSize,
		MinOrderSize:     m.MinOrderSize,
	}
}

// preTradeGuard implements spec §4.G Place step 1: reject a bankrupt user
// outright, and reject a being-liquidated user unless they still clear the
// liquidation buffer tier.
func (e *Engine) preTradeGuard(u *types.User) error {
	if u.Status.Has(types.UserStatusBankrupt) {
		return coreerrors.New(coreerrors.CodeUserBankrupt, "user is bankrupt")
	}
	if u.Status.Has(types.UserStatusBeingLiquidated) {
		calc, err := margin.Calculate(u, e.PerpMarkets, e.SpotMarkets, e.Oracles, types.MarginTierLiquidation, e.Config.LiquidationBufferBps)
		if err != nil {
			return mapError(err)
		}
		if !calc.MeetsRequirementWithBuffer() {
			return coreerrors.New(coreerrors.CodeUserIsBeingLiquidated, "user is being liquidated")
		}
	}
	return nil
}

// PlacePerpOrder implements place_perp_order, spec §6 / §4.G. maxAffordable
// resolves the ComputeMaxAffordableSize sentinel; computing it exactly
// requires a margin pass the caller has already taken (the engine does not
// re-derive affordability from scratch here, since the correct denominator
// depends on which side of the book the order would open on).
func (e *Engine) PlacePerpOrder(u *types.User, params matching.PlaceParams, maxAffordable int64) (int, error) {
	idx, err := e.placePerpOrder(u, params, maxAffordable)
	e.logPlace(u, params.MarketIndex, idx, err)
	return idx, err
}

func (e *Engine) placePerpOrder(u *types.User, params matching.PlaceParams, maxAffordable int64) (int, error) {
	if err := e.preTradeGuard(u); err != nil {
		return -1, err
	}

	market, err := e.PerpMarkets.GetRefMut(params.MarketIndex)
	if err != nil {
		return -1, mapError(err)
	}
	pos, err := u.GetPerpPosition(params.MarketIndex)
	if err != nil {
		return -1, mapError(err)
	}
	e.settlePendingFunding(market, u, pos)

	if params.BaseAssetAmount == matching.ComputeMaxAffordableSize {
		params.BaseAssetAmount = maxAffordable
	}

	idx, err := matching.Place(u, matching.PerpPosition(pos), perpMarketRules(market), params, e.Clock.Slot, e.Emit)
	if err != nil {
		return -1, mapError(err)
	}

	if err := e.enforceMargin(u, types.MarginTierFill); err != nil {
		return idx, err
	}
	return idx, nil
}

// logPlace records a place_perp_order/place_spot_order outcome, spec §10.1:
// Info on success, Warn on a rejected instruction, each tagged with the
// market and user, plus the order index on success or the error code on
// failure.
func (e *Engine) logPlace(u *types.User, marketIndex uint16, orderIdx int, err error) {
	if err != nil {
		e.logger().Warn("place order rejected",
			"market_index", marketIndex,
			"user", u.Authority,
			"error_code", codeOf(err),
			"error", err.Error(),
		)
		return
	}
	e.logger().Info("place order accepted",
		"market_index", marketIndex,
		"user", u.Authority,
		"order_index", orderIdx,
	)
}

// PlaceSpotOrder implements place_spot_order, spec §6 / §4.G.
func (e *Engine) PlaceSpotOrder(u *types.User, params matching.PlaceParams, maxAffordable int64) (int, error) {
	idx, err := e.placeSpotOrder(u, params, maxAffordable)
	e.logPlace(u, params.MarketIndex, idx, err)
	return idx, err
}

func (e *Engine) placeSpotOrder(u *types.User, params matching.PlaceParams, maxAffordable int64) (int, error) {
	if err := e.preTradeGuard(u); err != nil {
		return -1, err
	}

	market, err := e.SpotMarkets.GetRefMut(params.MarketIndex)
	if err != nil {
		return -1, mapError(err)
	}
	pos, err := u.GetSpotPosition(params.MarketIndex)
	if err != nil {
		return -1, mapError(err)
	}

	if params.BaseAssetAmount == matching.ComputeMaxAffordableSize {
		params.BaseAssetAmount = maxAffordable
	}

	idx, err := matching.Place(u, matching.SpotPosition(pos), spotMarketRules(market), params, e.Clock.Slot, e.Emit)
	if err != nil {
		return -1, mapError(err)
	}

	if err := e.enforceMargin(u, types.MarginTierFill); err != nil {
		return idx, err
	}
	return idx, nil
}

// PlaceOrders implements place_orders: a batch of place_perp_order /
// place_spot_order calls sharing one margin check deferred to the last
// order, spec §4.G step 10 ("can be deferred to the last order in a batched
// placement").
func (e *Engine) PlaceOrders(u *types.User, batch []matching.PlaceParams, maxAffordable []int64) ([]int, error) {
	idxs := make([]int, 0, len(batch))
	for i, params := range batch {
		afford := int64(0)
		if i < len(maxAffordable) {
			afford = maxAffordable[i]
		}

		var idx int
		var err error
		deferred := i < len(batch)-1
		switch params.MarketType {
		case types.MarketTypePerp:
			idx, err = e.placePerpNoMarginCheck(u, params, afford)
		default:
			idx, err = e.placeSpotNoMarginCheck(u, params, afford)
		}
		if err != nil {
			e.logPlace(u, params.MarketIndex, idx, err)
			return idxs, err
		}
		idxs = append(idxs, idx)
		if !deferred {
			if err := e.enforceMargin(u, types.MarginTierFill); err != nil {
				e.logPlace(u, params.MarketIndex, idx, err)
				return idxs, err
			}
		}
		e.logPlace(u, params.MarketIndex, idx, nil)
	}
	return idxs, nil
}

func (e *Engine) placePerpNoMarginCheck(u *types.User, params matching.PlaceParams, maxAffordable int64) (int, error) {
	if err := e.preTradeGuard(u); err != nil {
		return -1, err
	}
	market, err := e.PerpMarkets.GetRefMut(params.MarketIndex)
	if err != nil {
		return -1, mapError(err)
	}
	pos, err := u.GetPerpPosition(params.MarketIndex)
	if err != nil {
		return -1, mapError(err)
	}
	e.settlePendingFunding(market, u, pos)
	if params.BaseAssetAmount == matching.ComputeMaxAffordableSize {
		params.BaseAssetAmount = maxAffordable
	}
	idx, err := matching.Place(u, matching.PerpPosition(pos), perpMarketRules(market), params, e.Clock.Slot, e.Emit)
	if err != nil {
		return -1, mapError(err)
	}
	return idx, nil
}

func (e *Engine) placeSpotNoMarginCheck(u *types.User, params matching.PlaceParams, maxAffordable int64) (int, error) {
	if err := e.preTradeGuard(u); err != nil {
		return -1, err
	}
	market, err := e.SpotMarkets.GetRefMut(params.MarketIndex)
	if err != nil {
		return -1, mapError(err)
	}
	pos, err := u.GetSpotPosition(params.MarketIndex)
	if err != nil {
		return -1, mapError(err)
	}
	if params.BaseAssetAmount == matching.ComputeMaxAffordableSize {
		params.BaseAssetAmount = maxAffordable
	}
	idx, err := matching.Place(u, matching.SpotPosition(pos), spotMarketRules(market), params, e.Clock.Slot, e.Emit)
	if err != nil {
		return -1, mapError(err)
	}
	return idx, nil
}

// enforceMargin implements spec §4.G step 10/9: a user-facing mutation must
// leave the user meeting tier after it completes, else the instruction
// errors and the host rolls the whole transaction back.
func (e *Engine) enforceMargin(u *types.User, tier types.MarginTier) error {
	calc, err := margin.Calculate(u, e.PerpMarkets, e.SpotMarkets, e.Oracles, tier, 0)
	if err != nil {
		return mapError(err)
	}
	if !calc.MeetsRequirement() {
		return coreerrors.New(coreerrors.CodeInsufficientCollateral, "margin requirement not met after mutation")
	}
	return nil
}
