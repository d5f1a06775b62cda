package liquidation

import (
	"novaperp/core/events"
	"novaperp/core/fixedmath"
	"novaperp/core/types"
	"novaperp/native/position"
)

// LiquidateBorrowForPerpPnl implements liquidate_borrow_for_perp_pnl, spec
// §4.H: the liquidator pays down up to maxLiabilityAmount of the victim's
// spot borrow, taking an equal-value slice of the victim's positive
// unrealized perp PnL in exchange (no discount: this transfer only exists
// to convert idle perp PnL into spot collateral the margin calc can use as
// an asset, so there is nothing for a liquidator to profit from beyond the
// standard liquidator fee already captured elsewhere in the liquidation).
func LiquidateBorrowForPerpPnl(
	perpMarket *types.PerpMarket,
	liabilityMarket *types.SpotMarket,
	victim *types.User,
	victimPerpPos *types.PerpPosition,
	victimLiability *types.SpotPosition,
	liquidator *types.User,
	liquidatorPerpPos *types.PerpPosition,
	liquidatorLiability *types.SpotPosition,
	oraclePrice int64,
	maxLiabilityAmount int64,
	ctx Context,
	emit events.Emitter,
) (SpotResult, error) {
	var result SpotResult

	if !victim.Status.Has(types.UserStatusBeingLiquidated) {
		return result, ErrNotBeingLiquidated
	}
	if victimLiability.BalanceType != types.BalanceTypeBorrow || victimLiability.ScaledBalance == 0 {
		return result, ErrNoPosition
	}
	unrealizedPnl := unrealizedPerpPnl(victimPerpPos, oraclePrice)
	if unrealizedPnl <= 0 {
		return result, ErrNoPosition
	}

	liabilityAmount := maxLiabilityAmount
	if victimBorrow := tokenAmount(victimLiability, liabilityMarket); victimBorrow < liabilityAmount {
		liabilityAmount = victimBorrow
	}
	liabilityNotional := fixedmath.CheckedMulDivBig64(liabilityAmount, oraclePrice, fixedmath.PricePrecision)
	if unrealizedPnl < liabilityNotional {
		liabilityNotional = unrealizedPnl
		liabilityAmount = fixedmath.CheckedMulDivBig64(liabilityNotional, fixedmath.PricePrecision, oraclePrice)
	}

	adjustBalance(victimLiability, liabilityMarket, liabilityAmount)
	adjustBalance(liquidatorLiability, liabilityMarket, -liabilityAmount)
	victimPerpPos.QuoteAssetAmount -= liabilityNotional
	victimPerpPos.SettledPnl -= liabilityNotional
	liquidatorPerpPos.QuoteAssetAmount += liabilityNotional
	liquidatorPerpPos.SettledPnl += liabilityNotional

	result.LiabilityAmount = liabilityAmount

	if emit != nil {
		emit.Emit(events.LiquidationRecord{
			Ts: ctx.Now, Slot: ctx.Slot, LiquidationId: ctx.LiquidationId, Kind: "liquidate_borrow_for_perp_pnl",
			User: victim.Authority, Liquidator: liquidator.Authority, MarketIndex: perpMarket.MarketIndex,
			QuoteAmount: liabilityAmount,
		})
	}
	return result, nil
}

// LiquidatePerpPnlForDeposit implements liquidate_perp_pnl_for_deposit,
// spec §4.H: the inverse transfer — the liquidator absorbs up to maxPnl of
// the victim's negative unrealized perp PnL, paying for it out of the
// victim's spot deposit in assetMarket.
func LiquidatePerpPnlForDeposit(
	perpMarket *types.PerpMarket,
	assetMarket *types.SpotMarket,
	victim *types.User,
	victimPerpPos *types.PerpPosition,
	victimAsset *types.SpotPosition,
	liquidator *types.User,
	liquidatorAsset *types.SpotPosition,
	oraclePrice int64,
	maxPnl int64,
	ctx Context,
	emit events.Emitter,
) (SpotResult, error) {
	var result SpotResult

	if !victim.Status.Has(types.UserStatusBeingLiquidated) {
		return result, ErrNotBeingLiquidated
	}
	if victimAsset.BalanceType != types.BalanceTypeDeposit || victimAsset.ScaledBalance == 0 {
		return result, ErrNoPosition
	}
	unrealizedPnl := unrealizedPerpPnl(victimPerpPos, oraclePrice)
	if unrealizedPnl >= 0 {
		return result, ErrNoPosition
	}
	deficit := -unrealizedPnl
	if deficit > maxPnl {
		deficit = maxPnl
	}

	assetPrice := oraclePrice
	assetAmount := fixedmath.CheckedMulDivBig64(deficit, fixedmath.PricePrecision, assetPrice)
	if victimDeposit := tokenAmount(victimAsset, assetMarket); victimDeposit < assetAmount {
		assetAmount = victimDeposit
		deficit = fixedmath.CheckedMulDivBig64(assetAmount, assetPrice, fixedmath.PricePrecision)
	}

	adjustBalance(victimAsset, assetMarket, -assetAmount)
	adjustBalance(liquidatorAsset, assetMarket, assetAmount)
	victimPerpPos.QuoteAssetAmount += deficit
	victimPerpPos.SettledPnl += deficit

	result.AssetAmount = assetAmount

	if emit != nil {
		emit.Emit(events.LiquidationRecord{
			Ts: ctx.Now, Slot: ctx.Slot, LiquidationId: ctx.LiquidationId, Kind: "liquidate_perp_pnl_for_deposit",
			User: victim.Authority, Liquidator: liquidator.Authority, MarketIndex: perpMarket.MarketIndex,
			QuoteAmount: deficit,
		})
	}
	return result, nil
}

func unrealizedPerpPnl(pos *types.PerpPosition, oraclePrice int64) int64 {
	positionValue := fixedmath.CheckedMulDivBig64(pos.BaseAssetAmount, oraclePrice, fixedmath.BasePrecision)
	return positionValue + pos.QuoteAssetAmount
}

// exitLiquidationThresholdBps is the slack above plain maintenance margin a
// user must clear before BeingLiquidated is lifted automatically, spec
// §4.H ("exit_liquidation ... collateral >= maintenance + buffer").
const exitLiquidationThresholdBps = 500 // 5% of the maintenance requirement

// ExitLiquidation clears BeingLiquidated once collateral covers maintenance
// plus exitLiquidationThresholdBps of it, spec §4.H "exit_liquidation". Callers run
// this immediately after any liquidation step using the same margin pass
// they just took.
func ExitLiquidation(u *types.User, totalCollateral, marginRequirement int64) bool {
	if !u.Status.Has(types.UserStatusBeingLiquidated) {
		return false
	}
	buffer := fixedmath.CheckedMulDivBig64(marginRequirement, exitLiquidationThresholdBps, int64(fixedmath.BasisPointsPrecision))
	if totalCollateral >= marginRequirement+buffer {
		u.Status &^= types.UserStatusBeingLiquidated
		return true
	}
	return false
}

// ResolvePerpBankruptcy implements resolve_perp_bankruptcy, spec §4.H: zero
// the victim's negative quote balance, socializing the loss across the
// opposite side's cumulative funding rate (so every open position on that
// side gradually absorbs its pro-rata share the next time funding
// settles), optionally clawing back from a specific counterparty's
// position first (native/position.BurnLpShares-style direct debit) before
// falling back to full socialization.
func ResolvePerpBankruptcy(
	market *types.PerpMarket,
	victim *types.User,
	victimPos *types.PerpPosition,
	clawbackPos *types.PerpPosition,
	clawbackAuthority string,
	ctx Context,
	emit events.Emitter,
) (int64, error) {
	if !victim.Status.Has(types.UserStatusBankrupt) {
		return 0, ErrNotBankrupt
	}
	if victimPos.QuoteAssetAmount >= 0 {
		return 0, nil
	}
	loss := -victimPos.QuoteAssetAmount

	// An LP-held clawback position is force-settled/burned before clawback
	// acts, so clawback only ever debits a settled quote balance, never an
	// outstanding LP claim.
	if clawbackPos != nil && clawbackPos.LpShares > 0 {
		position.SettleLpPosition(&market.AMM, clawbackPos, emit)
		_ = position.BurnLpShares(&market.AMM, clawbackPos, clawbackPos.LpShares, emit)
	}

	clawbackAmount := int64(0)
	clawbackUser := ""
	if clawbackPos != nil && clawbackPos.QuoteAssetAmount > 0 {
		clawbackAmount = loss
		if clawbackPos.QuoteAssetAmount < clawbackAmount {
			clawbackAmount = clawbackPos.QuoteAssetAmount
		}
		clawbackPos.QuoteAssetAmount -= clawbackAmount
		loss -= clawbackAmount
		clawbackUser = clawbackAuthority
	}

	victimPos.QuoteAssetAmount = 0
	victim.Status &^= types.UserStatusBankrupt
	victim.Status &^= types.UserStatusBeingLiquidated

	if loss > 0 {
		socializePerpLoss(market, victimPos.BaseAssetAmount, loss)
		market.AMM.CumulativeSocialLoss += loss
	}

	if emit != nil {
		emit.Emit(events.BankruptcyRecord{
			Ts: ctx.Now, Slot: ctx.Slot, User: victim.Authority, MarketIndex: market.MarketIndex,
			Kind: "perp", SociallyLoss: loss, ClawbackUser: clawbackUser, ClawbackAmount: clawbackAmount,
		})
	}
	return loss, nil
}

// socializePerpLoss bumps the cumulative funding rate of the side opposite
// the bankrupt position so every other open position on that side pays a
// pro-rata share of the loss the next time its funding settles, spec §4.H.
func socializePerpLoss(market *types.PerpMarket, victimBaseAmount, loss int64) {
	a := &market.AMM
	if victimBaseAmount >= 0 {
		// victim was long: the shorts (who the AMM nets against on the
		// other side) absorb the loss via their cumulative rate.
		if a.BaseAssetAmountShort != 0 {
			delta := fixedmath.CheckedMulDivBig64(loss, fixedmath.FundingRatePrecision, abs64(a.BaseAssetAmountShort))
			a.CumulativeFundingRateShort -= delta
		}
	} else {
		if a.BaseAssetAmountLong != 0 {
			delta := fixedmath.CheckedMulDivBig64(loss, fixedmath.FundingRatePrecision, abs64(a.BaseAssetAmountLong))
			a.CumulativeFundingRateLong += delta
		}
	}
}

// ResolveSpotBankruptcy implements resolve_spot_bankruptcy, spec §4.H: zero
// the victim's negative balance and reduce the market's
// cumulative_deposit_interest proportionally, so depositors collectively
// absorb the shortfall the way the accrual index already spreads interest.
func ResolveSpotBankruptcy(market *types.SpotMarket, victim *types.User, victimLiability *types.SpotPosition, ctx Context, emit events.Emitter) (int64, error) {
	if !victim.Status.Has(types.UserStatusBankrupt) {
		return 0, ErrNotBankrupt
	}
	if victimLiability.BalanceType != types.BalanceTypeBorrow || victimLiability.ScaledBalance == 0 {
		return 0, nil
	}
	loss := tokenAmount(victimLiability, market)
	scaledBorrow := victimLiability.ScaledBalance
	victimLiability.ScaledBalance = 0

	if market.DepositBalance > 0 {
		shrink := fixedmath.CheckedMulDivBig64(fixedmath.SpotCumulativeIntPrecision, loss, market.DepositBalance)
		market.CumulativeDepositInterest -= shrink
		if market.CumulativeDepositInterest < 0 {
			market.CumulativeDepositInterest = 0
		}
	}
	market.BorrowBalance -= scaledBorrow

	victim.Status &^= types.UserStatusBankrupt
	victim.Status &^= types.UserStatusBeingLiquidated

	if emit != nil {
		emit.Emit(events.BankruptcyRecord{
			Ts: ctx.Now, Slot: ctx.Slot, User: victim.Authority, MarketIndex: market.MarketIndex,
			Kind: "spot", SociallyLoss: loss,
		})
	}
	return loss, nil
}
