// Package position implements spec §4.E: position mutation with
// open/reduce/close/flip accounting, and LP share mint/burn/settle with
// per-share delta accrual and remainder (dust) tracking.
package position

import (
	"novaperp/core/events"
	"novaperp/core/fixedmath"
	"novaperp/core/types"
)

func abs(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}

func sameSign(a, b int64) bool {
	return (a >= 0) == (b >= 0)
}

// UpdatePositionWithBaseAssetAmount applies a signed base/quote delta to a
// position, branching on whether the delta opens/increases, reduces,
// exactly closes, or flips the position, and returns any PnL realized on
// the closed portion (spec §4.E).
func UpdatePositionWithBaseAssetAmount(pos *types.PerpPosition, baseAssetAmountDelta, quoteAssetAmountDelta int64) int64 {
	if baseAssetAmountDelta == 0 {
		return 0
	}

	if pos.BaseAssetAmount == 0 || sameSign(pos.BaseAssetAmount, baseAssetAmountDelta) {
		pos.BaseAssetAmount += baseAssetAmountDelta
		pos.QuoteAssetAmount += quoteAssetAmountDelta
		pos.QuoteEntryAmount += quoteAssetAmountDelta
		pos.QuoteBreakEvenAmount += quoteAssetAmountDelta
		return 0
	}

	absExisting := abs(pos.BaseAssetAmount)
	absDelta := abs(baseAssetAmountDelta)

	if absDelta <= absExisting {
		// Reduce, or close exactly when absDelta == absExisting.
		closedEntry := fixedmath.CheckedMulDivBig64(pos.QuoteEntryAmount, absDelta, absExisting)
		closedBreakEven := fixedmath.CheckedMulDivBig64(pos.QuoteBreakEvenAmount, absDelta, absExisting)

		pnl := quoteAssetAmountDelta + closedEntry

		pos.BaseAssetAmount += baseAssetAmountDelta
		pos.QuoteAssetAmount += quoteAssetAmountDelta
		pos.QuoteEntryAmount -= closedEntry
		pos.QuoteBreakEvenAmount -= closedBreakEven
		pos.SettledPnl += pnl
		return pnl
	}

	// Flip: the existing side closes entirely and a new position opens in
	// the opposite direction with the remaining delta.
	quoteForClose := fixedmath.CheckedMulDivBig64(quoteAssetAmountDelta, absExisting, absDelta)
	quoteForOpen := quoteAssetAmountDelta - quoteForClose

	pnl := quoteForClose + pos.QuoteEntryAmount

	pos.BaseAssetAmount += baseAssetAmountDelta
	pos.QuoteAssetAmount += quoteAssetAmountDelta
	pos.QuoteEntryAmount = quoteForOpen
	pos.QuoteBreakEvenAmount = quoteForOpen
	pos.SettledPnl += pnl
	return pnl
}

// SettleLpPosition accrues the per-share reserve deltas the AMM has
// recorded since the position's last settlement into the position's own
// base/quote amounts, converting only whole order-step lots into an actual
// position change and carrying the sub-lot fraction forward in
// remainder_base_asset_amount (spec §12 supplemented feature, grounded on
// the AMM's per-lp accumulator fields).
func SettleLpPosition(amm *types.AMM, pos *types.PerpPosition, emit events.Emitter) (baseDelta, quoteDelta int64) {
	if pos.LpShares == 0 {
		return 0, 0
	}

	perLpBaseDelta := amm.BaseAssetAmountPerLp - pos.LastBaseAssetAmountPerLp
	perLpQuoteDelta := amm.QuoteAssetAmountPerLp - pos.LastQuoteAssetAmountPerLp
	pos.LastBaseAssetAmountPerLp = amm.BaseAssetAmountPerLp
	pos.LastQuoteAssetAmountPerLp = amm.QuoteAssetAmountPerLp

	if perLpBaseDelta == 0 && perLpQuoteDelta == 0 {
		return 0, 0
	}

	baseOwed := fixedmath.CheckedMulDivBig64(perLpBaseDelta, pos.LpShares, fixedmath.AmmReservePrecision)
	quoteOwed := fixedmath.CheckedMulDivBig64(perLpQuoteDelta, pos.LpShares, fixedmath.AmmReservePrecision)

	pos.RemainderBaseAssetAmount += baseOwed
	step := amm.OrderStepSize
	if step <= 0 {
		step = 1
	}
	wholeLots := fixedmath.StandardizeToStep(pos.RemainderBaseAssetAmount, step)
	pos.RemainderBaseAssetAmount -= wholeLots

	if wholeLots != 0 {
		UpdatePositionWithBaseAssetAmount(pos, wholeLots, quoteOwed)
	} else {
		pos.QuoteAssetAmount += quoteOwed
	}

	if emit != nil {
		emit.Emit(events.LPRecord{
			MarketIndex: pos.MarketIndex,
			Action:      "settle",
			BaseDelta:   wholeLots,
			QuoteDelta:  quoteOwed,
		})
	}
	return wholeLots, quoteOwed
}

// MintLpShares settles any pending per-share delta against the position's
// prior share count, then issues new shares baselined against the AMM's
// current per-share accumulators (spec §4.E).
func MintLpShares(amm *types.AMM, pos *types.PerpPosition, sharesToMint int64, emit events.Emitter) error {
	if sharesToMint <= 0 {
		return ErrZeroSharesMint
	}
	SettleLpPosition(amm, pos, emit)

	pos.LpShares += sharesToMint
	amm.UserLpShares += sharesToMint
	pos.LastBaseAssetAmountPerLp = amm.BaseAssetAmountPerLp
	pos.LastQuoteAssetAmountPerLp = amm.QuoteAssetAmountPerLp

	if emit != nil {
		emit.Emit(events.LPRecord{MarketIndex: pos.MarketIndex, Action: "mint", SharesDelta: sharesToMint})
	}
	return nil
}

// BurnLpShares settles outstanding per-share delta, then reduces the
// position's share count, returning its LP pool allocation to the AMM.
func BurnLpShares(amm *types.AMM, pos *types.PerpPosition, sharesToBurn int64, emit events.Emitter) error {
	if sharesToBurn <= 0 || sharesToBurn > pos.LpShares {
		return ErrInsufficientLpShares
	}
	SettleLpPosition(amm, pos, emit)

	pos.LpShares -= sharesToBurn
	amm.UserLpShares -= sharesToBurn

	if pos.LpShares == 0 {
		pos.RemainderBaseAssetAmount = 0
	}

	if emit != nil {
		emit.Emit(events.LPRecord{MarketIndex: pos.MarketIndex, Action: "burn", SharesDelta: -sharesToBurn})
	}
	return nil
}
