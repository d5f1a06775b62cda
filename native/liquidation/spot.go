package liquidation

import (
	"novaperp/core/events"
	"novaperp/core/fixedmath"
	"novaperp/core/oracle"
	"novaperp/core/types"
)

// SpotResult reports what LiquidateSpot (and the two cross-collateral
// liquidation helpers, which reuse it) actually transferred.
type SpotResult struct {
	LiabilityAmount int64
	AssetAmount     int64
	IfFee           int64
}

// twapFloorDeviationBps bounds how far a liability oracle's current price
// may sit below its own 5-minute TWAP before a spot liquidation refuses to
// price off of it (spec §4.H: "a TWAP-floor deviation check rejects
// liquidation during oracle glitches" — a sudden downward spike in the
// liability price would let a liquidator buy it unrealistically cheap).
const twapFloorDeviationBps = 2000 // 20%

// LiquidateSpot implements liquidate_spot, spec §4.H: the liquidator repays
// up to maxLiabilityAmount of the victim's borrow in liabilityMarket,
// receiving the victim's deposit in assetMarket at a discount. The trade is
// capped by whichever of (maxLiabilityAmount, the liability the victim
// actually owes, the asset the victim actually holds, the amount needed to
// restore the margin shortage) is smallest.
func LiquidateSpot(
	assetMarket *types.SpotMarket,
	liabilityMarket *types.SpotMarket,
	victim *types.User,
	victimAsset *types.SpotPosition,
	victimLiability *types.SpotPosition,
	liquidator *types.User,
	liquidatorAsset *types.SpotPosition,
	liquidatorLiability *types.SpotPosition,
	assetOracle, liabilityOracle oracle.Entry,
	maxLiabilityAmount int64,
	ctx Context,
	emit events.Emitter,
) (SpotResult, error) {
	var result SpotResult

	if !victim.Status.Has(types.UserStatusBeingLiquidated) {
		return result, ErrNotBeingLiquidated
	}
	if victim.Status.Has(types.UserStatusBankrupt) {
		return result, ErrUserBankrupt
	}
	if victimLiability.BalanceType != types.BalanceTypeBorrow || victimLiability.ScaledBalance == 0 {
		return result, ErrNoPosition
	}
	if victimAsset.BalanceType != types.BalanceTypeDeposit || victimAsset.ScaledBalance == 0 {
		return result, ErrNoPosition
	}
	if ctx.Shortage <= 0 {
		return result, ErrSufficientCollateral
	}
	if withinFloor(liabilityOracle) {
		return result, ErrOracleTooVolatile
	}

	victimBorrow := tokenAmount(victimLiability, liabilityMarket)
	victimDeposit := tokenAmount(victimAsset, assetMarket)

	liabilityAmount := maxLiabilityAmount
	if victimBorrow < liabilityAmount {
		liabilityAmount = victimBorrow
	}
	if needed := sizeToCoverShortage(ctx.Shortage, liabilityOracle.Price, liabilityMarket.MaintenanceLiabilityWeight); needed < liabilityAmount {
		liabilityAmount = needed
	}

	liabilityNotional := fixedmath.CheckedMulDivBig64(liabilityAmount, liabilityOracle.Price, fixedmath.PricePrecision)
	discount := fixedmath.CheckedMulDivBig64(liabilityNotional, int64(liabilityMarket.LiquidatorFee), fixedmath.LiquidationFeePrecision)
	ifFee := fixedmath.CheckedMulDivBig64(liabilityNotional, int64(liabilityMarket.IfLiquidationFee), fixedmath.LiquidationFeePrecision)

	// The liquidator receives liabilityNotional+discount worth of asset
	// value in exchange for repaying liabilityAmount of borrow; when that
	// would overdraw the victim's deposit, the asset side is capped at the
	// deposit and the liability side is scaled down to match it.
	assetNotional := liabilityNotional + discount
	assetAmount := fixedmath.CheckedMulDivBig64(assetNotional, fixedmath.PricePrecision, assetOracle.Price)
	if victimDeposit < assetAmount {
		assetAmount = victimDeposit
		assetNotional = fixedmath.CheckedMulDivBig64(assetAmount, assetOracle.Price, fixedmath.PricePrecision)
		liabilityNotional = fixedmath.CheckedMulDivBig64(assetNotional, fixedmath.LiquidationFeePrecision, fixedmath.LiquidationFeePrecision+int64(liabilityMarket.LiquidatorFee))
		liabilityAmount = fixedmath.CheckedMulDivBig64(liabilityNotional, fixedmath.PricePrecision, liabilityOracle.Price)
		discount = assetNotional - liabilityNotional
		ifFee = fixedmath.CheckedMulDivBig64(liabilityNotional, int64(liabilityMarket.IfLiquidationFee), fixedmath.LiquidationFeePrecision)
	}

	// adjustBalance's tokenDelta is signed by economic gain/loss, not by
	// deposit/borrow direction: repaying the victim's debt is a gain for
	// the victim (+liabilityAmount), funding that repayment out of the
	// liquidator's own liability-market balance is a loss for them
	// (-liabilityAmount).
	adjustBalance(victimLiability, liabilityMarket, liabilityAmount)
	adjustBalance(liquidatorLiability, liabilityMarket, -liabilityAmount)
	adjustBalance(victimAsset, assetMarket, -assetAmount)
	adjustBalance(liquidatorAsset, assetMarket, assetAmount)

	assetMarket.RevenuePool += ifFee

	result.LiabilityAmount = liabilityAmount
	result.AssetAmount = assetAmount
	result.IfFee = ifFee

	if victimLiability.ScaledBalance == 0 && victimAsset.ScaledBalance == 0 {
		victim.Status &^= types.UserStatusBeingLiquidated
	}

	if emit != nil {
		emit.Emit(events.LiquidationRecord{
			Ts: ctx.Now, Slot: ctx.Slot, LiquidationId: ctx.LiquidationId, Kind: "liquidate_spot",
			User: victim.Authority, Liquidator: liquidator.Authority, MarketIndex: liabilityMarket.MarketIndex,
			BaseAmount: assetAmount, QuoteAmount: liabilityAmount, LiquidatorFee: discount, IfFee: ifFee,
		})
	}
	return result, nil
}

// withinFloor reports whether the liability's current price has dropped
// more than twapFloorDeviationBps below its own 5-minute TWAP.
func withinFloor(e oracle.Entry) bool {
	if e.Twap5Min <= 0 {
		return false
	}
	if e.Price >= e.Twap5Min {
		return false
	}
	dropBps := fixedmath.CheckedMulDivBig64(e.Twap5Min-e.Price, int64(fixedmath.BasisPointsPrecision), e.Twap5Min)
	return dropBps > twapFloorDeviationBps
}

// tokenAmount mirrors native/margin's unexported helper of the same name:
// converts a scaled balance into actual token units via the market's
// cumulative interest index.
func tokenAmount(p *types.SpotPosition, m *types.SpotMarket) int64 {
	if p.BalanceType == types.BalanceTypeDeposit {
		return fixedmath.CheckedMulDivBig64(p.ScaledBalance, m.CumulativeDepositInterest, fixedmath.SpotCumulativeIntPrecision)
	}
	return fixedmath.CheckedMulDivBig64(p.ScaledBalance, m.CumulativeBorrowInterest, fixedmath.SpotCumulativeIntPrecision)
}

// adjustBalance applies tokenDelta — signed by economic gain (positive) or
// loss (negative) to the position holder, regardless of whether the
// position is currently a Deposit or a Borrow — to a position's scaled
// balance, flipping BalanceType if the position crosses zero (e.g. the
// liquidator's liability position may start as an untouched Deposit slot
// and flip to Borrow once it funds a repayment larger than its deposit).
func adjustBalance(p *types.SpotPosition, m *types.SpotMarket, tokenDelta int64) {
	if tokenDelta == 0 {
		return
	}
	signedToken := tokenDelta
	if p.BalanceType == types.BalanceTypeBorrow {
		signedToken = -tokenDelta
	}
	index := m.CumulativeDepositInterest
	if p.BalanceType == types.BalanceTypeBorrow {
		index = m.CumulativeBorrowInterest
	}
	scaledDelta := fixedmath.CheckedMulDivBig64(signedToken, fixedmath.SpotCumulativeIntPrecision, index)
	p.ScaledBalance += scaledDelta
	if p.ScaledBalance < 0 {
		p.BalanceType = types.BalanceTypeBorrow
		p.ScaledBalance = -p.ScaledBalance
	}
}
