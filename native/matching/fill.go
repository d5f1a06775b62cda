package matching

import (
	"novaperp/core/events"
	"novaperp/core/fixedmath"
	"novaperp/core/oracle"
	"novaperp/core/types"
	"novaperp/native/amm"
	"novaperp/native/fees"
	"novaperp/native/matching/auction"
	"novaperp/native/position"
)

// MakerCandidate is one resting order eligible to fill against a taker,
// spec §4.G "collect maker candidates".
type MakerCandidate struct {
	User     *types.User
	Position *types.PerpPosition
	OrderIdx int
	Tier     fees.Tier
	Referrer bool
}

// FillContext carries the per-call parameters a fill needs beyond the
// market/taker/makers themselves.
type FillContext struct {
	Slot               uint64
	Now                int64
	Oracles            *oracle.Map
	OracleKey          oracle.Key
	OraclePrice        int64
	OracleTwap5Min     int64
	PriceBandBufferBps int64 // added on top of margin_ratio_initial, spec §4.G step 9
	HasFiller          bool
}

// FillStep is one leg of the fulfillment plan: either a Match against a
// specific maker, or an Amm fill (optionally with a JIT split riding along).
type FillStep struct {
	Method      types.FulfillmentMethod
	BaseAmount  int64
	QuoteAmount int64
	Price       int64
	JitBase     int64
	JitSplit    types.AMMLiquiditySplit
}

// FillResult summarizes a completed fill_perp_order call.
type FillResult struct {
	Steps            []FillStep
	TakerBaseFilled  int64
	TakerQuoteFilled int64
	FullyFilled      bool
}

// FillPerpOrder implements spec §4.G's core loop: validate, compute the
// taker's effective auction-bounded limit price, then repeatedly match
// against whichever of (best maker, AMM) offers the taker a better price,
// folding in JIT liquidity on matched legs, until the order is filled, no
// counterparty satisfies the limit, or the market's reserves are exhausted.
//
// Funding/LP settlement, order-status transitions to Canceled for
// expired/reduce-only-violating makers, max-open-interest and margin
// enforcement, and funding-rate-due triggering are the caller's (engine's)
// responsibility: they require state (the writable set, other markets) this
// function does not own.
func FillPerpOrder(
	market *types.PerpMarket,
	taker *types.User,
	takerPos *types.PerpPosition,
	takerOrderIdx int,
	takerTier fees.Tier,
	makers []MakerCandidate,
	ctx FillContext,
	emit events.Emitter,
) (FillResult, error) {
	var result FillResult

	if market.Status != types.MarketStatusActive && market.Status != types.MarketStatusReduceOnly {
		return result, ErrInvalidOrderMarketType
	}
	if market.PausedOperations.Has(types.PausedFill) {
		return result, ErrInvalidOrderMarketType
	}

	o := &taker.Orders[takerOrderIdx]
	if !o.IsOpen() {
		return result, ErrOrderNotOpen
	}
	if o.IsTriggerOrder() && !o.TriggerCondition.IsTriggered() {
		return result, ErrOrderMustBeTriggeredFirst
	}

	// Oracle validity gates the fill, spec §4.G step 3: a fully invalid
	// reading (stale/too-volatile for matching) rejects the fill outright;
	// a reading valid only for matching still lets resting-order matches
	// through but disables the AMM leg.
	ammEnabled := true
	if ctx.Oracles != nil {
		if !ctx.Oracles.IsOracleValidForAction(ctx.OracleKey, types.OracleActionFillOrderMatch) {
			return result, ErrOracleInvalidForFill
		}
		ammEnabled = ctx.Oracles.IsOracleValidForAction(ctx.OracleKey, types.OracleActionFillOrderAmm)
	}

	remaining := o.BaseAssetAmountUnfilled()
	isBid := o.Direction == types.Long

	for remaining > 0 {
		limitPrice, ok := takerLimitPrice(o, ctx.Slot, market.AMM.OrderTickSize)
		if !ok {
			break
		}

		makerIdx, makerPrice, makerHasQuote := bestMaker(makers, isBid, limitPrice)
		ammPrice, ammErr := ammQuotePrice(market, isBid)
		ammAvailable := ammEnabled && ammErr == nil && withinLimit(ammPrice, limitPrice, isBid)

		useMaker := makerHasQuote && (!ammAvailable || betterOrEqual(makerPrice, ammPrice, isBid))

		if !useMaker && !ammAvailable {
			break
		}

		candidatePrice := ammPrice
		if useMaker {
			candidatePrice = makerPrice
		}
		if !withinPriceBand(candidatePrice, ctx.OracleTwap5Min, market.MarginRatioInitial, ctx.PriceBandBufferBps) {
			break
		}

		var step FillStep
		var err error
		if useMaker {
			step, err = fillAgainstMaker(market, taker, takerPos, o, takerTier, &makers[makerIdx], ctx, remaining, emit)
		} else {
			step, err = fillAgainstAmm(market, taker, takerPos, o, takerTier, ammPrice, ctx, remaining, emit)
		}
		if err != nil {
			return result, err
		}
		if step.BaseAmount == 0 {
			break
		}

		result.Steps = append(result.Steps, step)
		result.TakerBaseFilled += step.BaseAmount
		result.TakerQuoteFilled += step.QuoteAmount
		remaining -= step.BaseAmount
	}

	filled := o.BaseAssetAmountUnfilled() - remaining
	if filled > 0 {
		o.BaseAssetAmountFilled += filled
		o.QuoteAssetAmountFilled += result.TakerQuoteFilled
		if isBid {
			takerPos.OpenBids -= filled
		} else {
			takerPos.OpenAsks -= filled
		}
	}

	if o.BaseAssetAmountUnfilled() == 0 {
		taker.OpenOrders--
		takerPos.OpenOrders--
		o.Reset()
		result.FullyFilled = true
	}

	return result, nil
}

// takerLimitPrice resolves the order's current willing price: the fixed
// limit price for a plain Limit order, otherwise the auction's time-varying
// price (spec §4.J). The ok result is always true.
func takerLimitPrice(o *types.Order, slot uint64, tick int64) (int64, bool) {
	if o.OrderType == types.OrderTypeLimit && o.AuctionDuration == 0 {
		return o.Price, true
	}
	return auction.EffectivePrice(o, slot, tick), true
}

func ammQuotePrice(market *types.PerpMarket, isBid bool) (int64, error) {
	if isBid {
		return amm.AskPrice(&market.AMM)
	}
	return amm.BidPrice(&market.AMM)
}

// withinLimit reports whether price satisfies the taker's bound: a buyer's
// limit is a ceiling, a seller's limit is a floor.
func withinLimit(price, limit int64, isBid bool) bool {
	if isBid {
		return price <= limit
	}
	return price >= limit
}

// betterOrEqual reports whether a is at least as good for the taker as b: a
// buyer prefers the lower price, a seller the higher one. Ties favor the
// first argument (makers, per spec §4.G's maker-priority tie-break).
func betterOrEqual(a, b int64, isBid bool) bool {
	if isBid {
		return a <= b
	}
	return a >= b
}

// bestMaker scans candidates for the one offering the taker the best price
// among those whose direction is opposite the taker's and whose own price
// satisfies the taker's limit.
func bestMaker(makers []MakerCandidate, takerIsBid bool, limit int64) (idx int, price int64, ok bool) {
	idx = -1
	for i := range makers {
		m := &makers[i]
		mo := &m.User.Orders[m.OrderIdx]
		if !mo.IsOpen() || mo.BaseAssetAmountUnfilled() == 0 {
			continue
		}
		makerIsBid := mo.Direction == types.Long
		if makerIsBid == takerIsBid {
			continue
		}
		if !withinLimit(mo.Price, limit, takerIsBid) {
			continue
		}
		if idx == -1 || betterOrEqual(mo.Price, price, takerIsBid) {
			idx = i
			price = mo.Price
		}
	}
	return idx, price, idx != -1
}

func fillAgainstMaker(
	market *types.PerpMarket,
	taker *types.User,
	takerPos *types.PerpPosition,
	takerOrder *types.Order,
	takerTier fees.Tier,
	maker *MakerCandidate,
	ctx FillContext,
	takerRemaining int64,
	emit events.Emitter,
) (FillStep, error) {
	mo := &maker.User.Orders[maker.OrderIdx]
	makerRemaining := mo.BaseAssetAmountUnfilled()

	size := takerRemaining
	if makerRemaining < size {
		size = makerRemaining
	}
	if size <= 0 {
		return FillStep{}, nil
	}

	isBid := takerOrder.Direction == types.Long
	takerDelta := size
	if !isBid {
		takerDelta = -size
	}
	quote := fixedmath.CheckedMulDivBig64(size, mo.Price, fixedmath.BasePrecision)

	jit, _ := amm.CalculateAmmJitLiquidity(market, takerOrder.Direction, mo.Price, ctx.OraclePrice, size, takerRemaining, makerRemaining, true)
	var jitBase int64
	if jit != nil && jit.JitBaseAmount > 0 {
		jitBase = jit.JitBaseAmount
		jitDelta := jitBase
		if !isBid {
			jitDelta = -jitBase
		}
		res, err := amm.SwapBaseForQuote(&market.AMM, -jitDelta)
		if err == nil {
			amm.ApplySwap(&market.AMM, res, -jitDelta)
		} else {
			jitBase = 0
			jit.Split = types.SplitNone
		}
	}

	position.UpdatePositionWithBaseAssetAmount(takerPos, takerDelta, -signedQuote(quote, isBid))
	position.UpdatePositionWithBaseAssetAmount(maker.Position, -takerDelta, signedQuote(quote, isBid))

	mo.BaseAssetAmountFilled += size
	mo.QuoteAssetAmountFilled += quote
	if mo.Direction == types.Long {
		maker.Position.OpenBids -= size
	} else {
		maker.Position.OpenAsks -= size
	}
	if mo.BaseAssetAmountUnfilled() == 0 {
		maker.User.OpenOrders--
		maker.Position.OpenOrders--
		mo.Reset()
	}

	split := fees.Compute(quote, takerTier, true, maker.Referrer, ctx.HasFiller)
	market.AMM.TotalFee += split.FeeToMarket
	market.AMM.TotalMMFee += split.MakerRebate

	if emit != nil {
		emit.Emit(events.TradeRecord{
			Ts: ctx.Now, Slot: ctx.Slot, MarketIndex: market.MarketIndex, MarketType: types.MarketTypePerp,
			TakerOrderId: takerOrder.OrderId, MakerOrderId: mo.OrderId,
			Direction: takerOrder.Direction, BaseAmount: size, QuoteAmount: quote, FillPrice: mo.Price,
			Method: types.FulfillmentMatch, JitBaseAmount: jitBase, LiquiditySplit: splitOf(jit),
		})
		emit.Emit(events.OrderActionRecord{Action: events.ActionFill, OrderId: takerOrder.OrderId, MarketIndex: market.MarketIndex,
			Ts: ctx.Now, Slot: ctx.Slot, BaseFilled: size, QuoteFilled: quote, FillPrice: mo.Price, Method: types.FulfillmentMatch,
			TakerFee: split.TakerFee, FillerReward: split.FillerReward})
		emit.Emit(events.OrderActionRecord{Action: events.ActionFill, OrderId: mo.OrderId, MarketIndex: market.MarketIndex,
			Ts: ctx.Now, Slot: ctx.Slot, BaseFilled: size, QuoteFilled: quote, FillPrice: mo.Price, Method: types.FulfillmentMatch,
			MakerRebate: split.MakerRebate})
	}

	return FillStep{Method: types.FulfillmentMatch, BaseAmount: size, QuoteAmount: quote, Price: mo.Price, JitBase: jitBase, JitSplit: splitOf(jit)}, nil
}

func fillAgainstAmm(
	market *types.PerpMarket,
	taker *types.User,
	takerPos *types.PerpPosition,
	takerOrder *types.Order,
	takerTier fees.Tier,
	price int64,
	ctx FillContext,
	takerRemaining int64,
	emit events.Emitter,
) (FillStep, error) {
	isBid := takerOrder.Direction == types.Long

	size := amm.MaxBaseFillAtReserveFraction(&market.AMM)
	if size > takerRemaining {
		size = takerRemaining
	}
	if size <= 0 {
		return FillStep{}, nil
	}

	ammDelta := size
	if isBid {
		ammDelta = -size
	}
	res, err := amm.SwapBaseForQuote(&market.AMM, ammDelta)
	if err != nil {
		return FillStep{}, nil
	}
	amm.ApplySwap(&market.AMM, res, ammDelta)

	quote := res.QuoteAmount
	if quote < 0 {
		quote = -quote
	}
	takerDelta := size
	if !isBid {
		takerDelta = -size
	}
	position.UpdatePositionWithBaseAssetAmount(takerPos, takerDelta, -signedQuote(quote, isBid))

	split := fees.Compute(quote, takerTier, false, false, ctx.HasFiller)
	market.AMM.TotalFee += split.FeeToMarket

	if emit != nil {
		emit.Emit(events.TradeRecord{
			Ts: ctx.Now, Slot: ctx.Slot, MarketIndex: market.MarketIndex, MarketType: types.MarketTypePerp,
			TakerOrderId: takerOrder.OrderId, Direction: takerOrder.Direction,
			BaseAmount: size, QuoteAmount: quote, FillPrice: price, Method: types.FulfillmentAMM,
		})
		emit.Emit(events.OrderActionRecord{Action: events.ActionFill, OrderId: takerOrder.OrderId, MarketIndex: market.MarketIndex,
			Ts: ctx.Now, Slot: ctx.Slot, BaseFilled: size, QuoteFilled: quote, FillPrice: price, Method: types.FulfillmentAMM,
			TakerFee: split.TakerFee, FillerReward: split.FillerReward})
	}

	return FillStep{Method: types.FulfillmentAMM, BaseAmount: size, QuoteAmount: quote, Price: price}, nil
}

func signedQuote(quote int64, isBid bool) int64 {
	if isBid {
		return quote
	}
	return -quote
}

func splitOf(jit *amm.JitLiquidity) types.AMMLiquiditySplit {
	if jit == nil {
		return types.SplitNone
	}
	return jit.Split
}

// withinPriceBand implements spec §4.G step 9: a fill price may not diverge
// from the 5-minute oracle TWAP by more than the market's initial margin
// ratio plus a configured buffer.
func withinPriceBand(fillPrice, oracleTwap5Min int64, marginRatioInitialBps uint32, bufferBps int64) bool {
	if oracleTwap5Min == 0 {
		return true
	}
	diff := fillPrice - oracleTwap5Min
	if diff < 0 {
		diff = -diff
	}
	maxBps := int64(marginRatioInitialBps) + bufferBps
	boundNum := fixedmath.CheckedMulDivBig64(oracleTwap5Min, maxBps, int64(fixedmath.BasisPointsPrecision))
	return diff <= boundNum
}
