package engine

import (
	coreerrors "novaperp/core/errors"
	"novaperp/core/types"
	"novaperp/native/position"
)

// SettleFundingPayment implements settle_funding_payment, spec §6 / §4.D:
// rolls the market's cumulative funding rate forward if a period has
// elapsed, then applies the position's pro-rata share of it. Returns the
// signed quote delta applied (zero if nothing was due, which makes the
// instruction idempotent per spec §8).
func (e *Engine) SettleFundingPayment(u *types.User, marketIndex uint16) (int64, error) {
	market, err := e.PerpMarkets.GetRefMut(marketIndex)
	if err != nil {
		return 0, mapError(err)
	}
	if market.PausedOperations.Has(types.PausedSettleFunding) {
		return 0, coreerrors.New(coreerrors.CodeDefaultError, "settle funding is paused for this market")
	}
	pos, err := u.GetPerpPosition(marketIndex)
	if err != nil {
		return 0, mapError(err)
	}
	before := pos.QuoteAssetAmount
	e.settlePendingFunding(market, u, pos)
	return pos.QuoteAssetAmount - before, nil
}

// SettleLp implements settle_lp, spec §6 / §4.E: catches the position's
// base/quote counters up to the AMM's current per-share totals. Idempotent:
// a second call with unchanged per-lp counters returns (0, 0).
func (e *Engine) SettleLp(u *types.User, marketIndex uint16) (baseDelta, quoteDelta int64, err error) {
	market, err := e.PerpMarkets.GetRefMut(marketIndex)
	if err != nil {
		return 0, 0, mapError(err)
	}
	pos, err := u.GetPerpPosition(marketIndex)
	if err != nil {
		return 0, 0, mapError(err)
	}
	if pos.LpShares == 0 {
		return 0, 0, nil
	}
	baseDelta, quoteDelta = position.SettleLpPosition(&market.AMM, pos, e.Emit)
	return baseDelta, quoteDelta, nil
}

// SettlePnl implements settle_pnl, spec §6 / §4.E. This engine carries no
// separate PnL-pool account (spec §4.E models only position-level
// settled_pnl, not a market-wide settlement liquidity pool), so realization
// is restricted to fully-closed positions: once base_asset_amount is zero,
// any residual quote balance is unambiguously realized and moves into
// settled_pnl. A position still carrying base exposure has nothing to
// settle yet — its quote balance is still mark-to-market, not realized.
func (e *Engine) SettlePnl(u *types.User, marketIndex uint16) (int64, error) {
	market, err := e.PerpMarkets.GetRefMut(marketIndex)
	if err != nil {
		return 0, mapError(err)
	}
	if market.PausedOperations.Has(types.PausedSettlePnl) {
		return 0, coreerrors.New(coreerrors.CodeDefaultError, "settle pnl is paused for this market")
	}
	pos, err := u.GetPerpPosition(marketIndex)
	if err != nil {
		return 0, mapError(err)
	}
	e.settlePendingFunding(market, u, pos)
	if pos.LpShares > 0 {
		position.SettleLpPosition(&market.AMM, pos, e.Emit)
	}
	if pos.BaseAssetAmount != 0 {
		return 0, coreerrors.New(coreerrors.CodeDefaultError, "position still has base exposure, nothing realized yet")
	}
	if pos.QuoteAssetAmount == 0 {
		return 0, nil
	}

	realized := pos.QuoteAssetAmount
	pos.SettledPnl += realized
	pos.QuoteAssetAmount = 0
	return realized, nil
}
