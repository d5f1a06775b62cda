// Package liquidation implements spec §4.H: forced risk reduction of an
// under-margined user's perp and spot exposure at an oracle-relative
// discount/premium, insurance-fund fee capture, and bankruptcy resolution.
package liquidation

import (
	"novaperp/core/events"
	"novaperp/core/fixedmath"
	"novaperp/core/types"
	"novaperp/native/matching"
	"novaperp/native/position"
)

// Context carries the liquidation-wide parameters a caller (native/engine)
// already knows: the current slot/time, the liquidation id to stamp onto
// every record this liquidation emits, and the margin shortfall the victim
// currently carries at the Liquidation tier (MarginRequirementPlusBuffer
// minus TotalCollateral; zero or negative means no shortage remains).
type Context struct {
	Now           int64
	Slot          uint64
	LiquidationId uint32
	Shortage      int64 // quote precision, > 0 while the user still needs liquidating

	// RecomputeShortage, if set, re-derives the victim's margin shortage
	// after obstructing orders are canceled (an oversized open order can be
	// the entire cause of the shortage, spec §8 Scenario 2) — a cross-market
	// pass only the caller (native/engine) can perform, since it alone holds
	// the user's full market/oracle maps. A nil func keeps Shortage as the
	// trade-sizing input unchanged.
	RecomputeShortage func() (int64, error)
}

// PerpResult reports what LiquidatePerp actually did. Bankruptcy detection
// (total_collateral < 0) requires a margin pass over the user's full
// portfolio, not just this market, so it is the caller's responsibility to
// check after applying the result and flag UserStatusBankrupt itself.
type PerpResult struct {
	CanceledOrders []uint32 // ids of obstructing orders canceled ahead of (or instead of) the trade
	BaseAmount     int64
	QuoteAmount    int64
	IfFee          int64
}

// LiquidatePerp implements liquidate_perp, spec §4.H: the liquidator absorbs
// up to maxBaseAmount of the victim's position in market at a discount to
// oraclePrice. Any of the victim's open orders in this market are canceled
// first; if ctx.RecomputeShortage reports the shortage cleared by that
// cancellation alone (spec §8 Scenario 2), the call stops there with no
// trade, otherwise it proceeds to size and execute the trade in the same
// call (spec §8 Scenario 1).
func LiquidatePerp(
	market *types.PerpMarket,
	victim *types.User,
	victimPos *types.PerpPosition,
	liquidator *types.User,
	liquidatorPos *types.PerpPosition,
	maxBaseAmount int64,
	oraclePrice int64,
	ctx Context,
	emit events.Emitter,
) (PerpResult, error) {
	var result PerpResult

	if !victim.Status.Has(types.UserStatusBeingLiquidated) {
		return result, ErrNotBeingLiquidated
	}
	if victim.Status.Has(types.UserStatusBankrupt) {
		return result, ErrUserBankrupt
	}
	if victimPos.BaseAssetAmount == 0 {
		return result, ErrNoPosition
	}
	if ctx.Shortage <= 0 {
		return result, ErrSufficientCollateral
	}

	shortage := ctx.Shortage
	result.CanceledOrders = cancelObstructingOrders(victim, victimPos, market.MarketIndex, emit)
	if len(result.CanceledOrders) > 0 && ctx.RecomputeShortage != nil {
		recomputed, err := ctx.RecomputeShortage()
		if err != nil {
			return result, err
		}
		shortage = recomputed
	}
	if shortage <= 0 {
		return result, nil
	}

	victimLong := victimPos.BaseAssetAmount > 0

	size := maxBaseAmount
	if abs64(victimPos.BaseAssetAmount) < size {
		size = abs64(victimPos.BaseAssetAmount)
	}
	if needed := sizeToCoverShortage(shortage, oraclePrice, market.MarginRatioMaintenance); needed < size {
		size = needed
	}
	if size <= 0 {
		return result, ErrSufficientCollateral
	}

	oracleNotional := fixedmath.CheckedMulDivBig64(size, oraclePrice, fixedmath.BasePrecision)
	discount := fixedmath.CheckedMulDivBig64(oracleNotional, int64(market.LiquidatorFee), fixedmath.LiquidationFeePrecision)
	ifFee := fixedmath.CheckedMulDivBig64(oracleNotional, int64(market.IfLiquidationFee), fixedmath.LiquidationFeePrecision)

	var tradeQuote int64
	if victimLong {
		tradeQuote = oracleNotional - discount // liquidator buys the long below oracle value
	} else {
		tradeQuote = oracleNotional + discount // liquidator takes on the short above oracle value
	}

	victimDelta := -size
	liquidatorQuoteDelta := -tradeQuote
	victimQuoteDelta := tradeQuote - ifFee
	if !victimLong {
		victimDelta = size
		liquidatorQuoteDelta = tradeQuote
		victimQuoteDelta = -tradeQuote - ifFee
	}
	position.UpdatePositionWithBaseAssetAmount(victimPos, victimDelta, victimQuoteDelta)
	position.UpdatePositionWithBaseAssetAmount(liquidatorPos, -victimDelta, liquidatorQuoteDelta)

	market.InsuranceClaim.QuoteSettledInsurance += ifFee
	market.AMM.TotalLiquidationFee += discount

	result.BaseAmount = size
	result.QuoteAmount = tradeQuote
	result.IfFee = ifFee

	if victimPos.BaseAssetAmount == 0 {
		victim.Status &^= types.UserStatusBeingLiquidated
	}

	if emit != nil {
		emit.Emit(events.LiquidationRecord{
			Ts: ctx.Now, Slot: ctx.Slot, LiquidationId: ctx.LiquidationId, Kind: "liquidate_perp",
			User: victim.Authority, Liquidator: liquidator.Authority, MarketIndex: market.MarketIndex,
			BaseAmount: size, QuoteAmount: tradeQuote, LiquidatorFee: discount - ifFee, IfFee: ifFee,
		})
	}
	return result, nil
}

// cancelObstructingOrders cancels every open order the victim carries in
// market, returning their ids. An empty result means the book was already
// clear and the liquidation trade may proceed.
func cancelObstructingOrders(victim *types.User, victimPos *types.PerpPosition, marketIndex uint16, emit events.Emitter) []uint32 {
	var canceled []uint32
	pos := matching.PerpPosition(victimPos)
	for i := range victim.Orders {
		o := &victim.Orders[i]
		if !o.IsOpen() || o.MarketType != types.MarketTypePerp || o.MarketIndex != marketIndex {
			continue
		}
		orderId := o.OrderId
		if err := matching.Cancel(victim, pos, i, false, emit); err == nil {
			canceled = append(canceled, orderId)
		}
	}
	return canceled
}

// sizeToCoverShortage estimates the base amount whose removal from the
// position closes the margin shortage, inverting the maintenance margin
// requirement formula (notional * ratio / MarginPrecision) for notional at
// oraclePrice. This is an approximation: it ignores IMF size-premium
// scaling, so the caller may need a second LiquidatePerp call if the first
// undershoots.
func sizeToCoverShortage(shortage, oraclePrice int64, maintenanceRatioBps uint32) int64 {
	if oraclePrice <= 0 || maintenanceRatioBps == 0 {
		return 0
	}
	num := fixedmath.CheckedMulDivBig64(shortage, fixedmath.BasePrecision, oraclePrice)
	return fixedmath.CheckedMulDivBig64(num, int64(fixedmath.MarginPrecision), int64(maintenanceRatioBps))
}

func abs64(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}
