package fees

import (
	"testing"

	"github.com/stretchr/testify/require"

	"novaperp/core/fixedmath"
)

func TestTierForPicksHighestQualifyingTier(t *testing.T) {
	tiers := DefaultTiers()
	require.Equal(t, tiers[0], TierFor(tiers, 0))
	require.Equal(t, tiers[2], TierFor(tiers, 1_000_000*fixedmath.QuotePrecision))
	require.Equal(t, tiers[len(tiers)-1], TierFor(tiers, 1_000_000_000*fixedmath.QuotePrecision))
}

func TestComputeSplitsTakerFeeAndMakerRebate(t *testing.T) {
	tier := Tier{TakerFeeBps: 10, MakerRebateBps: -2}
	split := Compute(1000*fixedmath.QuotePrecision, tier, true, false, false)
	require.Equal(t, int64(1*fixedmath.QuotePrecision), split.TakerFee)
	require.Equal(t, int64(200_000), split.MakerRebate) // 0.02% of 1000 quote
	require.Equal(t, int64(0), split.ReferrerRebate)
	require.Equal(t, int64(0), split.FillerReward)
	require.Equal(t, split.TakerFee-split.MakerRebate, split.FeeToMarket)
}

func TestComputeCarvesOutReferrerAndFillerFromTakerFee(t *testing.T) {
	tier := Tier{TakerFeeBps: 10}
	split := Compute(1000*fixedmath.QuotePrecision, tier, false, true, true)
	require.Equal(t, int64(1*fixedmath.QuotePrecision), split.TakerFee)
	require.Greater(t, split.ReferrerRebate, int64(0))
	require.Greater(t, split.FillerReward, int64(0))
	require.Equal(t, split.TakerFee-split.ReferrerRebate-split.FillerReward, split.FeeToMarket)
}

func TestExternalVenueFeeNeverRebatesAMaker(t *testing.T) {
	tier := Tier{TakerFeeBps: 10, MakerRebateBps: -2}
	split := ExternalVenueFee(1000*fixedmath.QuotePrecision, tier, false)
	require.Equal(t, int64(0), split.MakerRebate)
}
