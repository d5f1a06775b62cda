package engine

import (
	coreerrors "novaperp/core/errors"
	"novaperp/core/fixedmath"
	"novaperp/core/oracle"
	"novaperp/core/types"
	"novaperp/native/margin"
	"novaperp/native/matching"
)

// defaultTriggerSlippageBps bounds the auction a trigger order is armed
// with once it fires: the auction runs from the oracle price at trigger
// time to a price this many bps worse, so a triggered stop cannot be
// filled arbitrarily far through the book.
const defaultTriggerSlippageBps = 100

// TriggerOrder implements trigger_order, spec §6 / §4.G "Trigger". flatFee
// is the filler reward debited from the user's quote balance for doing the
// triggering work, per spec §4.I.
func (e *Engine) TriggerOrder(u *types.User, orderIdx int, flatFee int64) (int64, error) {
	if orderIdx < 0 || orderIdx >= len(u.Orders) {
		return 0, coreerrors.New(coreerrors.CodeOrderDoesNotExist, "order index out of range")
	}
	o := &u.Orders[orderIdx]
	if o.MarketType != types.MarketTypePerp {
		return 0, coreerrors.New(coreerrors.CodeInvalidOrderMarketType, "trigger order requires a perp market")
	}

	market, err := e.PerpMarkets.GetRefMut(o.MarketIndex)
	if err != nil {
		return 0, mapError(err)
	}
	oracleKey := oracle.Key{Pubkey: market.OracleId}
	entry, ok := e.Oracles.Get(oracleKey)
	if !ok {
		return 0, coreerrors.New(coreerrors.CodeOracleNotFound, "no oracle loaded for market")
	}

	isBid := o.Direction == types.Long
	start := entry.Price
	allowance := fixedmath.CheckedMulDivBig64(entry.Price, defaultTriggerSlippageBps, fixedmath.BasisPointsPrecision)
	end := start
	if isBid {
		end = start + allowance
	} else {
		end = start - allowance
	}

	pos, err := u.GetPerpPosition(o.MarketIndex)
	if err != nil {
		return 0, mapError(err)
	}

	cancelAfter := e.wouldBreachMarginIfFilled(u, market, o)
	duration := perpMarketRules(market).MinAuctionDuration

	fee, err := matching.Trigger(u, matching.PerpPosition(pos), orderIdx, e.Oracles, oracleKey, entry.Price, e.Clock.Slot, start, end, duration, flatFee, cancelAfter, e.Emit)
	if err != nil {
		return 0, mapError(err)
	}
	if fee != 0 {
		pos.QuoteAssetAmount -= fee
	}
	return fee, nil
}

// TriggerSpotOrder implements trigger_spot_order. Spot markets in this
// engine do not carry their own oracle-auction book, so a trigger on a
// spot order always reports it as the wrong market type; spot stop orders
// are expressed as reduce-only perp orders instead (spec §12).
func (e *Engine) TriggerSpotOrder(u *types.User, orderIdx int) error {
	return coreerrors.New(coreerrors.CodeInvalidOrderMarketType, "spot markets do not support trigger orders")
}

// wouldBreachMarginIfFilled implements spec §4.G's cancel_after_trigger
// decision: it reports whether the user fails the initial margin
// requirement, whose worst-case perp size already counts this order's
// unfilled amount through open bids/asks, priced at the strict oracle price
// (the auction prices are not used). If so, the trigger cancels the order
// instead of leaving it open to be filled.
func (e *Engine) wouldBreachMarginIfFilled(u *types.User, market *types.PerpMarket, o *types.Order) bool {
	calc, err := margin.Calculate(u, e.PerpMarkets, e.SpotMarkets, e.Oracles, types.MarginTierInitial, 0)
	if err != nil {
		return false
	}
	return !calc.MeetsRequirement()
}
