// Package funding implements spec §4.D: hourly funding-rate accrual with
// long/short divergence, and idempotent per-position settlement.
package funding

import (
	"novaperp/core/events"
	"novaperp/core/fixedmath"
	"novaperp/core/types"
)

// DefaultFundingPeriod is one hour expressed in seconds.
const DefaultFundingPeriod int64 = 3600

// IsDue reports whether a funding update should run given the current
// unix time.
func IsDue(a *types.AMM, now int64) bool {
	period := a.FundingPeriod
	if period <= 0 {
		period = DefaultFundingPeriod
	}
	return now-a.LastFundingRateTs >= period
}

// RiskCaps bounds how far a funding rate may move per update, preventing a
// single stale oracle reading from imposing an extreme payment.
type RiskCaps struct {
	MaxFundingRateBps int64 // relative to oracle price, in bps
}

// UpdateFundingRate computes and applies a new funding rate from the
// premium of mark vs oracle TWAPs, clamped by caps, and advances the
// cumulative long/short rates asymmetrically when the AMM carries net
// inventory (so it is compensated as residual counterparty), per spec §4.D.
func UpdateFundingRate(market *types.PerpMarket, oracleTwap int64, now int64, caps RiskCaps, recordId uint64, emit events.Emitter) error {
	a := &market.AMM
	if !IsDue(a, now) {
		return nil
	}

	period := a.FundingPeriod
	if period <= 0 {
		period = DefaultFundingPeriod
	}

	markTwap := a.LastMarkPriceTwap
	if markTwap == 0 {
		markTwap = oracleTwap
	}

	premium := markTwap - oracleTwap
	// Funding rate = premium / oracle, scaled to FundingRatePrecision,
	// pro-rated by period/hour so a longer period accrues a larger step.
	var rate int64
	if oracleTwap != 0 {
		rate = fixedmath.CheckedMulDivBig64(premium, fixedmath.FundingRatePrecision, oracleTwap)
		rate = fixedmath.CheckedMulDivBig64(rate, period, DefaultFundingPeriod)
	}

	if caps.MaxFundingRateBps > 0 {
		maxRate := fixedmath.CheckedMulDivBig64(int64(caps.MaxFundingRateBps), fixedmath.FundingRatePrecision, fixedmath.BasisPointsPrecision)
		if rate > maxRate {
			rate = maxRate
		}
		if rate < -maxRate {
			rate = -maxRate
		}
	}

	longRate, shortRate := splitRateForInventory(a, rate)

	a.CumulativeFundingRateLong += longRate
	a.CumulativeFundingRateShort += shortRate
	a.LastFundingRateTs = now
	a.NetRevenueSinceLastFunding = 0
	market.NextFundingRateRecordId = recordId + 1

	if emit != nil {
		emit.Emit(events.FundingRateRecord{
			Ts:                         now,
			RecordId:                   recordId,
			MarketIndex:                market.MarketIndex,
			FundingRate:                rate,
			CumulativeFundingRateLong:  a.CumulativeFundingRateLong,
			CumulativeFundingRateShort: a.CumulativeFundingRateShort,
			OraclePriceTwap:            oracleTwap,
			MarkPriceTwap:              markTwap,
		})
	}
	return nil
}

// splitRateForInventory gives longs and shorts different cumulative rates
// when the AMM is net long/short, so the AMM (as residual counterparty) is
// compensated rather than squeezed, per spec §4.D.
func splitRateForInventory(a *types.AMM, rate int64) (longRate, shortRate int64) {
	if a.BaseAssetAmountLong == 0 && a.BaseAssetAmountShort == 0 {
		return rate, -rate
	}
	netAmm := a.BaseAssetAmountWithAmm
	if netAmm == 0 {
		return rate, -rate
	}
	// The AMM's inventory skews the side it is long on to pay slightly
	// more, since that side's premium is partly caused by the AMM itself
	// absorbing one-sided flow; the other side is unaffected.
	skew := rate / 20 // 5% adjustment
	if netAmm > 0 {
		return rate + skew, -rate
	}
	return rate, -rate - skew
}

// SettlePosition applies spec §4.D's settlement formula and is idempotent: a
// second call with unchanged market state is a no-op because
// position.last_cum_rate already equals the market's current rate.
func SettlePosition(market *types.PerpMarket, user *types.User, pos *types.PerpPosition, emit events.Emitter) int64 {
	a := &market.AMM
	var marketRate int64
	if pos.BaseAssetAmount >= 0 {
		marketRate = a.CumulativeFundingRateLong
	} else {
		marketRate = a.CumulativeFundingRateShort
	}

	if pos.LastCumulativeFundingRate == marketRate || pos.BaseAssetAmount == 0 {
		pos.LastCumulativeFundingRate = marketRate
		return 0
	}

	delta := marketRate - pos.LastCumulativeFundingRate
	fundingDelta := fixedmath.CheckedMulDivBig64(pos.BaseAssetAmount, delta, fixedmath.FundingRatePrecision)
	// Positive funding means longs pay shorts: a long position's quote
	// balance is debited, a short's is credited, matching the sign
	// convention of multiplying by the (signed) position size directly.
	fundingDelta = -fundingDelta

	pos.QuoteAssetAmount += fundingDelta
	pos.LastCumulativeFundingRate = marketRate
	user.CumulativePerpFunding += fundingDelta

	if emit != nil && fundingDelta != 0 {
		emit.Emit(events.FundingPaymentRecord{
			MarketIndex:  pos.MarketIndex,
			FundingDelta: fundingDelta,
		})
	}
	return fundingDelta
}
