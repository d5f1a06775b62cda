package amm

import (
	"math/big"

	"novaperp/core/fixedmath"
	"novaperp/core/types"
)

// SwapResult reports the new reserves and quote proceeds of a swap.
type SwapResult struct {
	QuoteAmount  int64
	NewBaseAssetReserve  int64
	NewQuoteAssetReserve int64
}

// SwapBaseForQuote preserves new_base*new_quote = base*quote (spec §4.C). A
// positive baseAmount is base added to the pool (a taker selling base to the
// AMM), and QuoteAmount is then the quote leaving the pool; a negative
// baseAmount removes base and yields a negative QuoteAmount.
func SwapBaseForQuote(a *types.AMM, baseAmount int64) (*SwapResult, error) {
	if baseAmount == 0 {
		return nil, ErrInvalidAmount
	}
	if a.BaseAssetReserve == 0 || a.QuoteAssetReserve == 0 {
		return nil, ErrZeroReserve
	}
	k := new(big.Int).Mul(big.NewInt(a.BaseAssetReserve), big.NewInt(a.QuoteAssetReserve))
	newBase := big.NewInt(a.BaseAssetReserve + baseAmount)
	if newBase.Sign() <= 0 {
		return nil, ErrInvalidReserve
	}
	newQuote := fixedmath.CheckedMulDivBig(k, big.NewInt(1), newBase, fixedmath.RoundTowardZero)
	if !newBase.IsInt64() || !newQuote.IsInt64() {
		return nil, fixedmath.ErrOverflow
	}
	if a.MinBaseAssetReserve != 0 && newBase.Int64() < a.MinBaseAssetReserve {
		return nil, ErrInvalidReserve
	}
	if a.MaxBaseAssetReserve != 0 && newBase.Int64() > a.MaxBaseAssetReserve {
		return nil, ErrInvalidReserve
	}
	quoteOut := new(big.Int).Sub(big.NewInt(a.QuoteAssetReserve), newQuote)
	return &SwapResult{
		QuoteAmount:          quoteOut.Int64(),
		NewBaseAssetReserve:  newBase.Int64(),
		NewQuoteAssetReserve: newQuote.Int64(),
	}, nil
}

// ApplySwap commits a SwapResult's reserves to the AMM and tracks the net
// inventory delta the AMM absorbed.
func ApplySwap(a *types.AMM, res *SwapResult, baseAmountAbsorbedByAmm int64) {
	a.BaseAssetReserve = res.NewBaseAssetReserve
	a.QuoteAssetReserve = res.NewQuoteAssetReserve
	a.BaseAssetAmountWithAmm += baseAmountAbsorbedByAmm
}

// MaxBaseFillAtReserveFraction bounds a single fill to
// sqrt_k / max_fill_reserve_fraction, per spec §4.G step 8 ("AMM step").
func MaxBaseFillAtReserveFraction(a *types.AMM) int64 {
	if a.MaxFillReserveFraction == 0 {
		return a.SqrtK
	}
	return a.SqrtK / int64(a.MaxFillReserveFraction)
}

// CandidateReserveRepeg captures a proposed peg/sqrt_k adjustment.
type CandidateReserveRepeg struct {
	NewPeg   int64
	NewSqrtK int64
	Cost     int64 // quote cost funded from total_fee_minus_distributions; negative means a rebate
}

// Repeg evaluates moving peg_multiplier toward the oracle price, funded by
// total_fee_minus_distributions, and returns the candidate without applying
// it (ApplyRepeg commits it). With maxDivergenceBps > 0 the candidate is
// rejected with ErrDivergenceIncreased when its oracle-vs-mark divergence
// exceeds both the current divergence and maxDivergenceBps.
func Repeg(a *types.PerpMarket, oraclePrice int64, maxDivergenceBps uint32) (*CandidateReserveRepeg, error) {
	amm := &a.AMM
	currentMark, err := MarkPrice(amm)
	if err != nil {
		return nil, err
	}
	currentDivergence := divergenceBps(currentMark, oraclePrice)

	// Candidate peg: the value of peg_multiplier that would make mark price
	// equal the oracle price exactly, holding reserves fixed.
	if amm.BaseAssetReserve == 0 || oraclePrice <= 0 {
		return nil, ErrZeroReserve
	}
	num := new(big.Int).Mul(big.NewInt(oraclePrice), big.NewInt(amm.BaseAssetReserve))
	num.Mul(num, big.NewInt(fixedmath.PegPrecision))
	denom := new(big.Int).Mul(big.NewInt(amm.QuoteAssetReserve), big.NewInt(fixedmath.PricePrecision))
	candidatePeg := fixedmath.CheckedMulDivBig(num, big.NewInt(1), denom, fixedmath.RoundTowardZero)
	if !candidatePeg.IsInt64() || candidatePeg.Sign() <= 0 {
		return nil, fixedmath.ErrOverflow
	}

	tmp := *amm
	tmp.PegMultiplier = candidatePeg.Int64()
	candidateMark, err := MarkPrice(&tmp)
	if err != nil {
		return nil, err
	}
	candidateDivergence := divergenceBps(candidateMark, oraclePrice)
	if maxDivergenceBps > 0 && candidateDivergence > currentDivergence && candidateDivergence > int64(maxDivergenceBps) {
		return nil, ErrDivergenceIncreased
	}

	// Cost of the repeg: the change in peg times base reserve, in quote terms.
	pegDelta := candidatePeg.Int64() - amm.PegMultiplier
	cost := fixedmath.CheckedMulDivBig(big.NewInt(pegDelta), big.NewInt(amm.BaseAssetReserve), big.NewInt(fixedmath.PegPrecision), fixedmath.RoundTowardZero)

	return &CandidateReserveRepeg{NewPeg: candidatePeg.Int64(), NewSqrtK: amm.SqrtK, Cost: cost.Int64()}, nil
}

// ApplyRepeg commits a candidate repeg, funding its cost from
// total_fee_minus_distributions.
func ApplyRepeg(a *types.PerpMarket, c *CandidateReserveRepeg) {
	a.AMM.PegMultiplier = c.NewPeg
	a.AMM.SqrtK = c.NewSqrtK
	a.AMM.TotalFeeMinusDistributions -= c.Cost
}

func divergenceBps(mark, oracle int64) int64 {
	if oracle == 0 {
		return 0
	}
	diff := mark - oracle
	if diff < 0 {
		diff = -diff
	}
	return (diff * int64(fixedmath.BasisPointsPrecision)) / oracle
}
