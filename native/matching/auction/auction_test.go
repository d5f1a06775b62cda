package auction

import (
	"testing"

	"github.com/stretchr/testify/require"

	"novaperp/core/types"
)

func TestEffectivePriceInterpolatesLinearly(t *testing.T) {
	o := &types.Order{
		Direction:         types.Long,
		Slot:              100,
		AuctionStartPrice: 100_000,
		AuctionEndPrice:   200_000,
		AuctionDuration:   50,
	}
	require.Equal(t, int64(100_000), EffectivePrice(o, 100, 1))
	require.Equal(t, int64(200_000), EffectivePrice(o, 150, 1))
	mid := EffectivePrice(o, 125, 1)
	require.Greater(t, mid, int64(100_000))
	require.Less(t, mid, int64(200_000))
}

func TestEffectivePriceMonotonicOverSlots(t *testing.T) {
	o := &types.Order{
		Direction:         types.Long,
		Slot:              0,
		AuctionStartPrice: 1_000_000,
		AuctionEndPrice:   2_000_000,
		AuctionDuration:   50,
	}
	prev := EffectivePrice(o, 0, 1)
	for s := uint64(1); s < 50; s++ {
		cur := EffectivePrice(o, s, 1)
		require.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
}

func TestEffectivePriceFallsBackAfterDuration(t *testing.T) {
	o := &types.Order{
		Direction:         types.Short,
		Slot:              0,
		AuctionStartPrice: 1_000_000,
		AuctionEndPrice:   900_000,
		AuctionDuration:   50,
	}
	require.Equal(t, int64(900_000), EffectivePrice(o, 999, 1))
	require.False(t, IsInAuction(o, 999))
	require.True(t, IsInAuction(o, 10))
}

func TestFallbackPriceExtendsBoundByOracleSlippage(t *testing.T) {
	bidBound := FallbackPrice(99_000_000, 100_000_000, 100, true) // +1%
	require.Equal(t, int64(100_000_000), bidBound)

	askBound := FallbackPrice(101_000_000, 100_000_000, 100, false)
	require.Equal(t, int64(100_000_000), askBound)
}

func TestResolveOracleOffset(t *testing.T) {
	o := &types.Order{AuctionStartPrice: -1000, AuctionEndPrice: 1000}
	start, end := ResolveOracleOffset(o, 100_000_000)
	require.Equal(t, int64(99_999_000), start)
	require.Equal(t, int64(100_001_000), end)
}
