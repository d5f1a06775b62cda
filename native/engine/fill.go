package engine

import (
	coreerrors "novaperp/core/errors"
	"novaperp/core/oracle"
	"novaperp/core/types"
	"novaperp/native/fees"
	"novaperp/native/matching"
)

// feeTierFor resolves the caller's fee schedule row from their rolling
// volume; an empty Config.FeeTiers falls back to the default schedule so a
// zero-value Config still produces sane fees in tests.
func (e *Engine) feeTierFor(volume30d int64) fees.Tier {
	tiers := e.Config.FeeTiers
	if len(tiers) == 0 {
		tiers = fees.DefaultTiers()
	}
	return fees.TierFor(tiers, volume30d)
}

// FillPerpOrder implements fill_perp_order, spec §6 / §4.G. makers is the
// filler-supplied candidate list (this engine, like its teacher, relies on
// the caller to have located crossing resting orders off-chain rather than
// maintaining a global order book in state). It settles funding for the
// taker and every maker ahead of the match, runs the fulfillment loop, then
// re-validates margin and open interest before returning.
func (e *Engine) FillPerpOrder(taker *types.User, takerOrderIdx int, takerVolume30d int64, makers []matching.MakerCandidate, hasFiller bool) (matching.FillResult, error) {
	o := &taker.Orders[takerOrderIdx]
	market, err := e.PerpMarkets.GetRefMut(o.MarketIndex)
	if err != nil {
		return matching.FillResult{}, mapError(err)
	}

	takerPos, err := taker.GetPerpPosition(o.MarketIndex)
	if err != nil {
		return matching.FillResult{}, mapError(err)
	}
	e.settlePendingFunding(market, taker, takerPos)
	for i := range makers {
		e.settlePendingFunding(market, makers[i].User, makers[i].Position)
	}

	oracleKey := oracle.Key{Pubkey: market.OracleId}
	entry, ok := e.Oracles.Get(oracleKey)
	if !ok {
		return matching.FillResult{}, coreerrors.New(coreerrors.CodeOracleNotFound, "no oracle loaded for market")
	}

	ctx := matching.FillContext{
		Slot:               e.Clock.Slot,
		Now:                e.Clock.Now,
		Oracles:            e.Oracles,
		OracleKey:          oracleKey,
		OraclePrice:        entry.Price,
		OracleTwap5Min:     entry.Twap5Min,
		PriceBandBufferBps: e.Config.PriceBandBufferBps,
		HasFiller:          hasFiller,
	}

	result, err := matching.FillPerpOrder(market, taker, takerPos, takerOrderIdx, e.feeTierFor(takerVolume30d), makers, ctx, e.Emit)
	if err != nil {
		return result, mapError(err)
	}

	if err := e.enforceOpenInterest(market); err != nil {
		return result, err
	}
	if err := e.enforceMargin(taker, types.MarginTierMaintenance); err != nil {
		return result, err
	}
	for i := range makers {
		if err := e.enforceMargin(makers[i].User, types.MarginTierMaintenance); err != nil {
			return result, err
		}
	}
	return result, nil
}

// enforceOpenInterest implements spec §4.G step 9's max-open-interest
// check: a fill that pushes either side's book past the market's cap is
// rejected (this runs after the swap has already been applied, matching the
// teacher's transactional rollback-on-error model: the caller discards the
// whole instruction on a non-nil error).
func (e *Engine) enforceOpenInterest(market *types.PerpMarket) error {
	oiCap := market.AMM.MaxOpenInterest
	if oiCap <= 0 {
		return nil
	}
	if market.AMM.BaseAssetAmountLong > oiCap || -market.AMM.BaseAssetAmountShort > oiCap {
		return coreerrors.New(coreerrors.CodeMaxOpenInterest, "fill exceeds market max open interest")
	}
	return nil
}

// PlaceAndTakePerpOrder implements place_and_take_perp_order: place the
// taker order then immediately attempt to fill it against the supplied
// makers, spec §6.
func (e *Engine) PlaceAndTakePerpOrder(taker *types.User, params matching.PlaceParams, maxAffordable int64, takerVolume30d int64, makers []matching.MakerCandidate, hasFiller bool) (int, matching.FillResult, error) {
	idx, err := e.placePerpNoMarginCheck(taker, params, maxAffordable)
	if err != nil {
		return idx, matching.FillResult{}, err
	}
	result, err := e.FillPerpOrder(taker, idx, takerVolume30d, makers, hasFiller)
	if err != nil {
		return idx, result, err
	}
	if !result.FullyFilled && params.ImmediateOrCancel {
		if cancelErr := e.cancelAt(taker, idx, true); cancelErr != nil {
			return idx, result, cancelErr
		}
	}
	return idx, result, nil
}

// PlaceAndMakePerpOrder implements place_and_make_perp_order: a filler
// places a resting order on the user's behalf and immediately crosses it
// against one taker order the filler already knows about, in one
// instruction (spec §6). The maker side never needs its own margin re-check
// here beyond FillPerpOrder's, since it is the taker's order driving the
// match.
func (e *Engine) PlaceAndMakePerpOrder(maker *types.User, makerParams matching.PlaceParams, taker *types.User, takerOrderIdx int, takerVolume30d int64, makerVolume30d int64, hasFiller bool) (int, matching.FillResult, error) {
	makerIdx, err := e.placePerpNoMarginCheck(maker, makerParams, 0)
	if err != nil {
		return makerIdx, matching.FillResult{}, err
	}
	makerPos, err := maker.GetPerpPosition(makerParams.MarketIndex)
	if err != nil {
		return makerIdx, matching.FillResult{}, mapError(err)
	}
	candidate := matching.MakerCandidate{User: maker, Position: makerPos, OrderIdx: makerIdx, Tier: e.feeTierFor(makerVolume30d)}
	result, err := e.FillPerpOrder(taker, takerOrderIdx, takerVolume30d, []matching.MakerCandidate{candidate}, hasFiller)
	return makerIdx, result, err
}

// FillSpotOrder is the fill_spot_order entrypoint. It performs no matching:
// a non-spot order is rejected with CodeInvalidOrderMarketType and every
// spot order with CodeDefaultError. Neither internal maker matching nor
// external-venue (SerumV3/PhoenixV1/OpenbookV2) matching is done here;
// fees.ExternalVenueFee only computes the fee split for a venue fill.
func (e *Engine) FillSpotOrder(taker *types.User, takerOrderIdx int) error {
	o := &taker.Orders[takerOrderIdx]
	if o.MarketType != types.MarketTypeSpot {
		return coreerrors.New(coreerrors.CodeInvalidOrderMarketType, "order is not a spot order")
	}
	return coreerrors.New(coreerrors.CodeDefaultError, "internal spot order book matching is not implemented")
}
