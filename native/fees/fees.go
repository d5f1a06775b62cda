// Package fees implements spec §4.I: tiered taker/maker fees, referrer
// rebates, and filler rewards.
package fees

import (
	"novaperp/core/fixedmath"
)

// Tier is one row of the volume-based fee schedule.
type Tier struct {
	MinVolume      int64 // cumulative 30d volume, QuotePrecision, to qualify
	TakerFeeBps    int64
	MakerRebateBps int64
}

// DefaultTiers mirrors a typical five-tier schedule: higher volume tiers pay
// less taker fee and earn a larger maker rebate.
func DefaultTiers() []Tier {
	return []Tier{
		{MinVolume: 0, TakerFeeBps: 10, MakerRebateBps: -2},
		{MinVolume: 100_000 * fixedmath.QuotePrecision, TakerFeeBps: 8, MakerRebateBps: -3},
		{MinVolume: 1_000_000 * fixedmath.QuotePrecision, TakerFeeBps: 6, MakerRebateBps: -4},
		{MinVolume: 10_000_000 * fixedmath.QuotePrecision, TakerFeeBps: 4, MakerRebateBps: -5},
		{MinVolume: 100_000_000 * fixedmath.QuotePrecision, TakerFeeBps: 2, MakerRebateBps: -6},
	}
}

// TierFor returns the best-qualifying tier for a user's 30-day volume.
func TierFor(tiers []Tier, volume30d int64) Tier {
	best := tiers[0]
	for _, t := range tiers {
		if volume30d >= t.MinVolume {
			best = t
		}
	}
	return best
}

// Split is the result of computing fees/rebates for one fill.
type Split struct {
	TakerFee       int64 // debited from taker quote
	MakerRebate    int64 // credited to maker quote (negative fee)
	ReferrerRebate int64 // credited to referrer, carved out of taker fee
	FillerReward   int64 // credited to filler, carved out of taker fee
	FeeToMarket    int64 // remainder routed to total_fee / total_mm_fee
}

// ReferrerRebateBps and FillerRewardBps are the fixed fractions of the
// taker fee carved out when a referrer/filler is present, spec §4.I.
const (
	ReferrerRebateBps = 1000 // 10% of taker fee
	FillerRewardBps   = 500  // 5% of taker fee
)

// Compute derives the fee/rebate split for a fill of the given quote size,
// at tier, with or without a maker counterparty, referrer, and filler.
func Compute(quoteAmount int64, tier Tier, hasMaker, hasReferrer, hasFiller bool) Split {
	var s Split
	s.TakerFee = fixedmath.CheckedMulDivBig64(quoteAmount, tier.TakerFeeBps, int64(fixedmath.BasisPointsPrecision))

	if hasMaker && tier.MakerRebateBps < 0 {
		s.MakerRebate = fixedmath.CheckedMulDivBig64(quoteAmount, -tier.MakerRebateBps, int64(fixedmath.BasisPointsPrecision))
	}

	remaining := s.TakerFee
	if hasReferrer {
		s.ReferrerRebate = fixedmath.CheckedMulDivBig64(s.TakerFee, ReferrerRebateBps, int64(fixedmath.BasisPointsPrecision))
		remaining -= s.ReferrerRebate
	}
	if hasFiller {
		s.FillerReward = fixedmath.CheckedMulDivBig64(s.TakerFee, FillerRewardBps, int64(fixedmath.BasisPointsPrecision))
		remaining -= s.FillerReward
	}
	s.FeeToMarket = remaining - s.MakerRebate
	return s
}

// ExternalVenueFee is paid to an external spot venue (SerumV3/PhoenixV1/
// OpenbookV2) instead of an internal maker; any referrer rebate still comes
// out of the taker fee and is credited to the market's spot fee pool
// (spec §4.G "Spot fill").
func ExternalVenueFee(quoteAmount int64, tier Tier, hasReferrer bool) Split {
	return Compute(quoteAmount, tier, false, hasReferrer, false)
}
