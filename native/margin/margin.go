// Package margin implements spec §4.F: per-user cross-margin requirement and
// total collateral, under strict (worse-of current/TWAP) oracle pricing,
// tiered weights, and IMF (initial margin fraction) size-premium scaling.
package margin

import (
	"math/big"

	"novaperp/core/fixedmath"
	"novaperp/core/oracle"
	"novaperp/core/state"
	"novaperp/core/types"
)

// Calculation is the result of a margin pass for one user, spec §4.F.
type Calculation struct {
	MarginRequirement           int64
	TotalCollateral             int64
	MarginRequirementPlusBuffer int64
	NumSpotLiabilities          int32
	NumPerpLiabilities          int32
}

// MeetsRequirement implements meets_margin_requirement().
func (c Calculation) MeetsRequirement() bool {
	return c.TotalCollateral >= c.MarginRequirement
}

// MeetsRequirementWithBuffer is used at Liquidation tier, where clearing the
// liquidation flag additionally requires covering the configured buffer.
func (c Calculation) MeetsRequirementWithBuffer() bool {
	return c.TotalCollateral >= c.MarginRequirementPlusBuffer
}

// unrealizedPnlInitialWeightBps is the haircut applied to positive
// unrealized perp PnL at the Initial/Fill tiers (spec §4.F: "unrealized PnL
// with an asset weight that shrinks for initial margin").
const unrealizedPnlInitialWeightBps = 8_000 // 80% of fixedmath.MarginPrecision

// BufferRatioBps scales MarginRequirement into MarginRequirementPlusBuffer at
// the Liquidation tier.
type BufferRatioBps uint32

// Calculate computes a user's cross-margin snapshot across every spot and
// perp position they carry, at the given tier.
func Calculate(
	u *types.User,
	perpMarkets *state.PerpMarketMap,
	spotMarkets *state.SpotMarketMap,
	oracles *oracle.Map,
	tier types.MarginTier,
	buffer BufferRatioBps,
) (Calculation, error) {
	var calc Calculation

	for i := range u.SpotPositions {
		p := &u.SpotPositions[i]
		if p.ScaledBalance == 0 {
			continue
		}
		market, err := spotMarkets.GetRefMut(p.MarketIndex)
		if err != nil {
			return Calculation{}, err
		}
		strict, err := strictSpotPrice(oracles, market)
		if err != nil {
			return Calculation{}, err
		}
		collateral, requirement := spotContribution(p, market, strict, tier)
		calc.TotalCollateral += collateral
		calc.MarginRequirement += requirement
		if p.BalanceType == types.BalanceTypeBorrow {
			calc.NumSpotLiabilities++
		}
	}

	for i := range u.PerpPositions {
		p := &u.PerpPositions[i]
		if !p.IsOpen() {
			continue
		}
		market, err := perpMarkets.GetRefMut(p.MarketIndex)
		if err != nil {
			return Calculation{}, err
		}
		strict, err := strictPerpPrice(oracles, market)
		if err != nil {
			return Calculation{}, err
		}
		netContribution, requirement, isLiability := perpContribution(p, market, strict, tier, u.MarginMode, u.MaxMarginRatio)
		calc.TotalCollateral += netContribution
		calc.MarginRequirement += requirement
		if isLiability {
			calc.NumPerpLiabilities++
		}
	}

	calc.MarginRequirementPlusBuffer = calc.MarginRequirement +
		fixedmath.CheckedMulDivBig64(calc.MarginRequirement, int64(buffer), int64(fixedmath.BasisPointsPrecision))

	return calc, nil
}

func strictSpotPrice(oracles *oracle.Map, market *types.SpotMarket) (fixedmath.StrictOraclePrice, error) {
	entry, ok := oracles.Get(oracle.Key{Pubkey: market.OracleId})
	if !ok {
		return fixedmath.StrictOraclePrice{}, ErrUnknownMarket
	}
	return fixedmath.NewStrictOraclePrice(big.NewInt(entry.Price), big.NewInt(entry.Twap5Min)), nil
}

func strictPerpPrice(oracles *oracle.Map, market *types.PerpMarket) (fixedmath.StrictOraclePrice, error) {
	entry, ok := oracles.Get(oracle.Key{Pubkey: market.OracleId})
	if !ok {
		return fixedmath.StrictOraclePrice{}, ErrUnknownMarket
	}
	return fixedmath.NewStrictOraclePrice(big.NewInt(entry.Price), big.NewInt(entry.Twap5Min)), nil
}

// spotAssetWeight/spotLiabilityWeight pick the tier-appropriate weight. Fill
// is treated like Initial (the user floor it waives is applied by the
// caller, not here); Liquidation is treated like Maintenance.
func spotAssetWeight(m *types.SpotMarket, tier types.MarginTier) uint32 {
	if tier == types.MarginTierMaintenance || tier == types.MarginTierLiquidation {
		return m.MaintenanceAssetWeight
	}
	return m.InitialAssetWeight
}

func spotLiabilityWeight(m *types.SpotMarket, tier types.MarginTier) uint32 {
	if tier == types.MarginTierMaintenance || tier == types.MarginTierLiquidation {
		return m.MaintenanceLiabilityWeight
	}
	return m.InitialLiabilityWeight
}

// tokenAmount converts a scaled balance into actual token units via the
// market's cumulative interest index, rounding down for deposits (never
// over-credit) and up for borrows (never under-charge), mirroring
// core/fixedmath's documented rounding asymmetry.
func tokenAmount(p *types.SpotPosition, m *types.SpotMarket) int64 {
	if p.BalanceType == types.BalanceTypeDeposit {
		return fixedmath.CheckedMulDivBig(
			big.NewInt(p.ScaledBalance), big.NewInt(m.CumulativeDepositInterest), big.NewInt(fixedmath.SpotCumulativeIntPrecision), fixedmath.RoundDown,
		).Int64()
	}
	return fixedmath.CheckedMulDivBig(
		big.NewInt(p.ScaledBalance), big.NewInt(m.CumulativeBorrowInterest), big.NewInt(fixedmath.SpotCumulativeIntPrecision), fixedmath.RoundUp,
	).Int64()
}

func spotContribution(p *types.SpotPosition, m *types.SpotMarket, strict fixedmath.StrictOraclePrice, tier types.MarginTier) (collateral, requirement int64) {
	amt := tokenAmount(p, m)
	if amt == 0 {
		return 0, 0
	}
	if p.BalanceType == types.BalanceTypeDeposit {
		price := strict.Min().Int64() // conservative (lower) valuation of an asset
		weight := spotAssetWeight(m, tier)
		notional := fixedmath.CheckedMulDivBig64(amt, price, fixedmath.PricePrecision)
		return fixedmath.CheckedMulDivBig64(notional, int64(weight), int64(fixedmath.MarginPrecision)), 0
	}
	price := strict.Max().Int64() // conservative (higher) cost of a liability
	weight := int64(spotLiabilityWeight(m, tier))
	weight = imfScaledWeight(weight, m.ImfFactor, amt)
	notional := fixedmath.CheckedMulDivBig64(amt, price, fixedmath.PricePrecision)
	return 0, fixedmath.CheckedMulDivBig64(notional, weight, int64(fixedmath.MarginPrecision))
}

// worstCaseBaseAssetAmount returns the larger-magnitude of base+open_bids (the
// worst case if all resting bids fill) and base-open_asks (the worst case if
// all resting asks fill), per spec §4.F.
func worstCaseBaseAssetAmount(p *types.PerpPosition) int64 {
	withBids := p.BaseAssetAmount + p.OpenBids
	withAsks := p.BaseAssetAmount - p.OpenAsks
	if abs64(withBids) >= abs64(withAsks) {
		return withBids
	}
	return withAsks
}

func abs64(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}

func perpMarginRatioBps(m *types.PerpMarket, tier types.MarginTier, mode types.MarginMode) int64 {
	switch tier {
	case types.MarginTierMaintenance, types.MarginTierLiquidation:
		return int64(m.MarginRatioMaintenance)
	default:
		if mode == types.MarginModeHighLeverage && m.HighLeverageMarginRatioInitial > 0 {
			return int64(m.HighLeverageMarginRatioInitial)
		}
		return int64(m.MarginRatioInitial)
	}
}

// imfScaledWeight widens a liability weight (or margin ratio) for
// large positions: weight' = weight * (1 + imf_factor*sqrt(size)/ImfPrecision),
// clamped at 100%, per spec §4.F ("scales with imf_factor * sqrt(notional)").
func imfScaledWeight(weightBps int64, imfFactor uint32, size int64) int64 {
	if imfFactor == 0 || size <= 0 {
		return weightBps
	}
	sizeInBase := size / fixedmath.BasePrecision
	premium := fixedmath.CheckedMulDivBig64(int64(imfFactor), fixedmath.Isqrt(sizeInBase+1), fixedmath.ImfPrecision)
	scaled := weightBps + fixedmath.CheckedMulDivBig64(weightBps, premium, int64(fixedmath.MarginPrecision))
	if scaled > int64(fixedmath.MarginPrecision) {
		return int64(fixedmath.MarginPrecision)
	}
	if scaled < weightBps {
		return weightBps
	}
	return scaled
}

// perpContribution returns the position's net collateral contribution
// (unrealized PnL net of weighting, plus unsettled funding and unsettled LP
// delta, which may be negative) and its margin requirement (always
// non-negative): notional * tier ratio (imf-scaled) for the worst-case size,
// plus the weighted unrealized PnL, per spec §4.F.
func perpContribution(
	p *types.PerpPosition,
	m *types.PerpMarket,
	strict fixedmath.StrictOraclePrice,
	tier types.MarginTier,
	mode types.MarginMode,
	userFloorBps uint32,
) (netCollateral, requirement int64, isLiability bool) {
	unsettled := unsettledFundingDelta(p, m) + unsettledLpDelta(p, m, strict)

	worstCase := worstCaseBaseAssetAmount(p)
	if worstCase == 0 && p.BaseAssetAmount == 0 {
		return pnlContribution(p, strict, tier) + unsettled, 0, false
	}

	price := strict.Max().Int64()
	if worstCase < 0 {
		price = strict.Min().Int64()
	}

	notional := fixedmath.CheckedMulDivBig64(abs64(worstCase), price, fixedmath.BasePrecision)

	ratioBps := perpMarginRatioBps(m, tier, mode)
	if tier == types.MarginTierInitial && int64(userFloorBps) > ratioBps {
		ratioBps = int64(userFloorBps)
	}
	ratioBps = imfScaledWeight(ratioBps, m.ImfFactor, abs64(worstCase))

	requirement = fixedmath.CheckedMulDivBig64(notional, ratioBps, int64(fixedmath.MarginPrecision))
	netCollateral = pnlContribution(p, strict, tier) + unsettled
	return netCollateral, requirement, true
}

// unsettledFundingDelta mirrors native/funding.SettlePosition's formula
// read-only: the quote-balance adjustment the position carries since its
// last funding settlement, without mutating LastCumulativeFundingRate.
func unsettledFundingDelta(p *types.PerpPosition, m *types.PerpMarket) int64 {
	if p.BaseAssetAmount == 0 {
		return 0
	}
	marketRate := m.AMM.CumulativeFundingRateLong
	if p.BaseAssetAmount < 0 {
		marketRate = m.AMM.CumulativeFundingRateShort
	}
	delta := marketRate - p.LastCumulativeFundingRate
	if delta == 0 {
		return 0
	}
	fundingDelta := fixedmath.CheckedMulDivBig64(p.BaseAssetAmount, delta, fixedmath.FundingRatePrecision)
	return -fundingDelta
}

// unsettledLpDelta mirrors native/position.SettleLpPosition's per-share
// accrual read-only, valuing the owed base delta at the conservative side of
// strict (the worse of spot/TWAP) and summing with the owed quote delta, so
// a margin pass reflects what the next settle_lp would credit or debit
// without requiring one to run first.
func unsettledLpDelta(p *types.PerpPosition, m *types.PerpMarket, strict fixedmath.StrictOraclePrice) int64 {
	if p.LpShares == 0 {
		return 0
	}
	perLpBaseDelta := m.AMM.BaseAssetAmountPerLp - p.LastBaseAssetAmountPerLp
	perLpQuoteDelta := m.AMM.QuoteAssetAmountPerLp - p.LastQuoteAssetAmountPerLp
	if perLpBaseDelta == 0 && perLpQuoteDelta == 0 {
		return 0
	}
	baseOwed := fixedmath.CheckedMulDivBig64(perLpBaseDelta, p.LpShares, fixedmath.AmmReservePrecision)
	quoteOwed := fixedmath.CheckedMulDivBig64(perLpQuoteDelta, p.LpShares, fixedmath.AmmReservePrecision)

	price := strict.Min().Int64()
	if baseOwed < 0 {
		price = strict.Max().Int64()
	}
	baseValue := fixedmath.CheckedMulDivBig64(baseOwed, price, fixedmath.BasePrecision)
	return baseValue + quoteOwed
}

func pnlContribution(p *types.PerpPosition, strict fixedmath.StrictOraclePrice, tier types.MarginTier) int64 {
	price := strict.Min().Int64()
	if p.BaseAssetAmount < 0 {
		price = strict.Max().Int64()
	}
	positionValue := fixedmath.CheckedMulDivBig64(p.BaseAssetAmount, price, fixedmath.BasePrecision)
	unrealizedPnl := positionValue + p.QuoteAssetAmount

	weightBps := int64(fixedmath.MarginPrecision)
	if (tier == types.MarginTierInitial || tier == types.MarginTierFill) && unrealizedPnl > 0 {
		weightBps = unrealizedPnlInitialWeightBps
	}
	return fixedmath.CheckedMulDivBig64(unrealizedPnl, weightBps, int64(fixedmath.MarginPrecision))
}
