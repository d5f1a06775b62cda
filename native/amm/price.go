// Package amm implements the perpetual AMM primitives of spec §4.C:
// constant-product reserves with a multiplicative peg, asymmetric
// bid/ask spread, swaps, repeg, and inventory-aware JIT liquidity
// splitting. Functions operate on *types.AMM/*types.PerpMarket handles
// passed down from the caller rather than re-acquired, per the "cyclic
// references" design note.
package amm

import (
	"math/big"

	"novaperp/core/fixedmath"
	"novaperp/core/types"
)

// MarkPrice returns (quote_asset_reserve / base_asset_reserve) * peg, scaled
// to PricePrecision.
func MarkPrice(a *types.AMM) (int64, error) {
	if a.BaseAssetReserve == 0 {
		return 0, ErrZeroReserve
	}
	// price = quote/base * peg, in PricePrecision units.
	// quote,base are AmmReservePrecision; peg is PegPrecision.
	num := new(big.Int).Mul(big.NewInt(a.QuoteAssetReserve), big.NewInt(a.PegMultiplier))
	num.Mul(num, big.NewInt(fixedmath.PricePrecision))
	denom := new(big.Int).Mul(big.NewInt(a.BaseAssetReserve), big.NewInt(fixedmath.PegPrecision))
	price := fixedmath.CheckedMulDivBig(num, big.NewInt(1), denom, fixedmath.RoundTowardZero)
	if !price.IsInt64() {
		return 0, fixedmath.ErrOverflow
	}
	return price.Int64(), nil
}

// spreadReserves shifts (base,quote) by spreadBps in the direction that
// makes the quote worse for the taker (ask: less base per quote unit; bid:
// more base charged), preserving the product k.
func spreadReserves(a *types.AMM, spreadBps uint32, isAsk bool) (base, quote int64) {
	if spreadBps == 0 {
		return a.BaseAssetReserve, a.QuoteAssetReserve
	}
	k := new(big.Int).Mul(big.NewInt(a.BaseAssetReserve), big.NewInt(a.QuoteAssetReserve))
	bps := big.NewInt(int64(spreadBps))
	denom := big.NewInt(fixedmath.BasisPointsPrecision)
	if isAsk {
		// Ask: shrink effective base reserve (taker gets less base per
		// quote), which raises the realized ask price.
		delta := fixedmath.CheckedMulDivBig(big.NewInt(a.BaseAssetReserve), bps, denom, fixedmath.RoundDown)
		newBase := new(big.Int).Sub(big.NewInt(a.BaseAssetReserve), delta)
		if newBase.Sign() <= 0 {
			newBase = big.NewInt(1)
		}
		newQuote := fixedmath.CheckedMulDivBig(k, big.NewInt(1), newBase, fixedmath.RoundUp)
		return newBase.Int64(), newQuote.Int64()
	}
	// Bid: shrink effective quote reserve (taker receives less quote per
	// base), which lowers the realized bid price.
	delta := fixedmath.CheckedMulDivBig(big.NewInt(a.QuoteAssetReserve), bps, denom, fixedmath.RoundDown)
	newQuote := new(big.Int).Sub(big.NewInt(a.QuoteAssetReserve), delta)
	if newQuote.Sign() <= 0 {
		newQuote = big.NewInt(1)
	}
	newBase := fixedmath.CheckedMulDivBig(k, big.NewInt(1), newQuote, fixedmath.RoundUp)
	return newBase.Int64(), newQuote.Int64()
}

// BidPrice returns the AMM's current bid (price at which it buys base from a
// seller), spread-adjusted.
func BidPrice(a *types.AMM) (int64, error) {
	return bidAskPrice(a, false)
}

// AskPrice returns the AMM's current ask (price at which it sells base to a
// buyer), spread-adjusted.
func AskPrice(a *types.AMM) (int64, error) {
	return bidAskPrice(a, true)
}

func bidAskPrice(a *types.AMM, isAsk bool) (int64, error) {
	if a.BaseAssetReserve == 0 {
		return 0, ErrZeroReserve
	}
	spreadBps := a.ShortSpread
	if isAsk {
		spreadBps = a.LongSpread
	}
	base, quote := spreadReserves(a, spreadBps, isAsk)
	tmp := *a
	tmp.BaseAssetReserve = base
	tmp.QuoteAssetReserve = quote
	return MarkPrice(&tmp)
}

// UpdateSpreads recalculates long_spread/short_spread from base_spread, the
// AMM's inventory ratio, and recent net revenue, per spec §4.C. This is one
// of the explicitly saturating-arithmetic sites (design note §9): spreads
// clamp to [0, max_spread] rather than erroring.
func UpdateSpreads(a *types.AMM) {
	base := a.BaseSpread
	if base == 0 {
		base = 1 // 1 bp floor so long/short never collapse to a crossed market
	}

	long := int64(base)
	short := int64(base)

	// Inventory skew: a positive base_asset_amount_with_amm widens
	// long_spread by the skew and tightens short_spread by half of it; a
	// negative one does the mirror image.
	if a.BaseAssetAmountWithAmm != 0 && a.SqrtK != 0 {
		skewBps := (a.BaseAssetAmountWithAmm * int64(fixedmath.BasisPointsPrecision)) / a.SqrtK
		if skewBps < 0 {
			skewBps = -skewBps
		}
		if a.BaseAssetAmountWithAmm > 0 {
			// net long inventory: discourage more longs (widen long_spread==ask),
			// encourage shorts (tighten short_spread==bid side cost to AMM).
			long += skewBps
			short -= skewBps / 2
		} else {
			short += skewBps
			long -= skewBps / 2
		}
	}

	// Negative net revenue since last funding widens both spreads by half
	// the base spread; non-negative revenue leaves them unchanged.
	if a.NetRevenueSinceLastFunding < 0 {
		widen := int64(base) / 2
		long += widen
		short += widen
	}

	if long < 1 {
		long = 1
	}
	if short < 1 {
		short = 1
	}
	maxSpread := int64(a.MaxSpread)
	if maxSpread > 0 {
		if long > maxSpread {
			long = maxSpread
		}
		if short > maxSpread {
			short = maxSpread
		}
	}
	a.LongSpread = uint32(long)
	a.ShortSpread = uint32(short)
}
