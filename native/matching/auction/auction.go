// Package auction implements spec §4.J: a taker order's time-varying limit
// price over its auction window, and the post-auction fallback to an
// oracle/AMM-bounded price.
package auction

import (
	"novaperp/core/fixedmath"
	"novaperp/core/types"
)

// EffectivePrice returns the order's limit price at slot s, per spec §4.J:
//
//	t = clamp(s - order.slot, 0, auction_duration)
//	price(t) = start + (end - start) * t / duration
//
// rounded to tick, biased against the taker (bids round up, asks round down
// — the opposite bias from resting-order placement, since here the
// rounding must never make the auction concede more than intended).
func EffectivePrice(o *types.Order, s uint64, tick int64) int64 {
	duration := int64(o.AuctionDuration)
	if duration <= 0 {
		return fallbackStandardized(o, tick)
	}

	t := int64(0)
	if s > o.Slot {
		t = int64(s - o.Slot)
	}
	if t > duration {
		return fallbackStandardized(o, tick)
	}

	start := o.AuctionStartPrice
	end := o.AuctionEndPrice
	delta := end - start
	price := start + fixedmath.CheckedMulDivBig64(delta, t, duration)

	isBid := o.Direction == types.Long
	// Bias against the taker: a bid rounds UP (pays no less than quoted), an
	// ask rounds DOWN (receives no more than quoted).
	return fixedmath.StandardizePrice(price, tick, !isBid)
}

// IsInAuction reports whether slot s still falls within the order's window.
func IsInAuction(o *types.Order, s uint64) bool {
	if o.AuctionDuration == 0 {
		return false
	}
	if s < o.Slot {
		return true
	}
	return s-o.Slot <= uint64(o.AuctionDuration)
}

func fallbackStandardized(o *types.Order, tick int64) int64 {
	isBid := o.Direction == types.Long
	return fixedmath.StandardizePrice(o.AuctionEndPrice, tick, !isBid)
}

// FallbackPrice computes the post-auction willing price once the window has
// elapsed: the AMM's current spread-adjusted bid/ask, extended by an
// oracle-relative slippage allowance of maxSlippageBps, per spec §4.J.
func FallbackPrice(ammBidOrAsk int64, oraclePrice int64, maxSlippageBps uint32, isBid bool) int64 {
	if maxSlippageBps == 0 {
		return ammBidOrAsk
	}
	allowance := fixedmath.CheckedMulDivBig64(oraclePrice, int64(maxSlippageBps), int64(fixedmath.BasisPointsPrecision))
	if isBid {
		bound := ammBidOrAsk + allowance
		return bound
	}
	bound := ammBidOrAsk - allowance
	if bound < 0 {
		bound = 0
	}
	return bound
}

// ResolveOracleOffset turns an Oracle-type order's offset-from-oracle
// auction bounds into absolute prices, resolved at read time (spec §4.J).
func ResolveOracleOffset(o *types.Order, oraclePrice int64) (startPrice, endPrice int64) {
	return oraclePrice + o.AuctionStartPrice, oraclePrice + o.AuctionEndPrice
}
