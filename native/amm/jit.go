package amm

import (
	"novaperp/core/types"
)

// JitLiquidity is the result of calculate_amm_jit_liquidity, spec §4.C.
type JitLiquidity struct {
	JitBaseAmount int64
	Split         types.AMMLiquiditySplit
}

// CalculateAmmJitLiquidity decides how much of a matched taker/maker fill
// the AMM should additionally absorb at the maker's price, per spec §4.C:
//
//   - Intensity 0 -> no JIT. Intensity > 100 additionally enables LP-owned JIT.
//   - The fill direction must reduce base_asset_amount_with_amm (and, for
//     LP-owned JIT, also reduce the per-LP deviation from
//     target_base_asset_amount_per_lp).
//   - Size is clamped to min(inventory_imbalance/2, fill_base, takerRemaining,
//     makerRemaining). makerPrice does not shrink the size: JIT is skipped
//     entirely when makerPrice is worse for the AMM than its own far-side
//     spread price, and otherwise takes the full clamped size.
func CalculateAmmJitLiquidity(
	market *types.PerpMarket,
	takerDirection types.PositionDirection,
	makerPrice int64,
	oraclePrice int64,
	fillBase int64,
	takerRemaining int64,
	makerRemaining int64,
	hasLimitPrice bool,
) (*JitLiquidity, error) {
	none := &JitLiquidity{Split: types.SplitNone}
	amm := &market.AMM

	if amm.AmmJitIntensity == 0 || fillBase <= 0 {
		return none, nil
	}

	inventory := amm.BaseAssetAmountWithAmm
	if inventory == 0 {
		return none, nil
	}

	// A taker Long buys base (AMM inventory decreases if AMM is net long,
	// i.e. inventory > 0); a taker Short sells base (AMM inventory
	// decreases if AMM is net short, i.e. inventory < 0).
	reducesInventory := (takerDirection == types.Long && inventory > 0) ||
		(takerDirection == types.Short && inventory < 0)
	if !reducesInventory {
		return none, nil
	}

	farSidePrice, err := farSidePriceForDirection(amm, takerDirection)
	if err != nil {
		return none, nil
	}

	// The AMM's realized price at the maker's quote must never be worse
	// than its own spread-adjusted far-side price.
	if takerDirection == types.Long {
		// AMM is selling base to the taker at makerPrice; it must not sell
		// for less than its own ask.
		if makerPrice < farSidePrice {
			return none, nil
		}
	} else {
		// AMM is buying base from the taker at makerPrice; it must not pay
		// more than its own bid.
		if makerPrice > farSidePrice {
			return none, nil
		}
	}

	absInventory := inventory
	if absInventory < 0 {
		absInventory = -absInventory
	}
	imbalanceHalf := absInventory / 2

	jitBase := imbalanceHalf
	if jitBase > fillBase {
		jitBase = fillBase
	}
	if jitBase > takerRemaining {
		jitBase = takerRemaining
	}
	if jitBase > makerRemaining {
		jitBase = makerRemaining
	}
	if jitBase <= 0 {
		return none, nil
	}

	split := types.SplitProtocolOwned
	if amm.AmmJitIntensity > 100 && amm.UserLpShares > 0 {
		// LP-owned JIT additionally requires the fill to reduce the
		// per-LP deviation from the target.
		perLpDelta := amm.BaseAssetAmountPerLp - amm.TargetBaseAssetAmountPerLp
		reducesLpDeviation := (takerDirection == types.Long && perLpDelta > 0) ||
			(takerDirection == types.Short && perLpDelta < 0)
		if reducesLpDeviation {
			split = types.SplitLpOwned
		} else {
			split = types.SplitShared
		}
	}

	return &JitLiquidity{JitBaseAmount: jitBase, Split: split}, nil
}

func farSidePriceForDirection(a *types.AMM, takerDirection types.PositionDirection) (int64, error) {
	if takerDirection == types.Long {
		return AskPrice(a)
	}
	return BidPrice(a)
}
