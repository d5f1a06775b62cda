// Package engine implements spec §6: the instruction surface that wires
// native/matching, native/liquidation, native/margin, native/funding, and
// native/fees together per the dataflow pipeline of spec §2 (validate →
// expire stale orders → settle pending funding/LP → component logic →
// recompute margin → emit events).
package engine

import (
	stderrors "errors"

	coreerrors "novaperp/core/errors"
	"novaperp/native/liquidation"
	"novaperp/native/margin"
	"novaperp/native/matching"
)

// mapError translates a component sentinel error into the stable wire code
// of spec §6, wrapping the original error as the cause. Unrecognized errors
// (state-map lookup failures, fixedmath overflow) fall back to
// CodeDefaultError rather than being misreported as something specific.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var ee *coreerrors.EngineError
	if stderrors.As(err, &ee) {
		return err
	}
	if code, ok := matchingCode(err); ok {
		return coreerrors.Wrap(code, err.Error(), err)
	}
	if code, ok := liquidationCode(err); ok {
		return coreerrors.Wrap(code, err.Error(), err)
	}
	if stderrors.Is(err, margin.ErrUnknownMarket) {
		return coreerrors.Wrap(coreerrors.CodeOracleNotFound, err.Error(), err)
	}
	return coreerrors.Wrap(coreerrors.CodeDefaultError, err.Error(), err)
}

// codeOf returns the stable wire code string for a (possibly mapped) engine
// error, for use in log attributes; "unknown" if err carries no code.
func codeOf(err error) string {
	if err == nil {
		return ""
	}
	if code, ok := coreerrors.CodeOf(err); ok {
		return code.String()
	}
	return "unknown"
}

func matchingCode(err error) (coreerrors.Code, bool) {
	switch {
	case stderrors.Is(err, matching.ErrMaxNumberOfOrders):
		return coreerrors.CodeMaxNumberOfOrders, true
	case stderrors.Is(err, matching.ErrUserOrderIdAlreadyInUse):
		return coreerrors.CodeUserOrderIdAlreadyInUse, true
	case stderrors.Is(err, matching.ErrOrderDoesNotExist):
		return coreerrors.CodeOrderDoesNotExist, true
	case stderrors.Is(err, matching.ErrOrderNotOpen):
		return coreerrors.CodeOrderNotOpen, true
	case stderrors.Is(err, matching.ErrOrderMustBeTriggeredFirst):
		return coreerrors.CodeOrderMustBeTriggeredFirst, true
	case stderrors.Is(err, matching.ErrOrderNotTriggerable):
		return coreerrors.CodeOrderNotTriggerable, true
	case stderrors.Is(err, matching.ErrOrderDidNotSatisfyTrigger):
		return coreerrors.CodeOrderDidNotSatisfyTriggerCondition, true
	case stderrors.Is(err, matching.ErrInvalidOrderMarketType):
		return coreerrors.CodeInvalidOrderMarketType, true
	case stderrors.Is(err, matching.ErrOrderAmountTooSmall):
		return coreerrors.CodeOrderAmountTooSmall, true
	case stderrors.Is(err, matching.ErrNotStepSizeMultiple):
		return coreerrors.CodeInvalidOrderNotStepSizeMultiple, true
	case stderrors.Is(err, matching.ErrReduceOnlyIncreasedRisk):
		return coreerrors.CodeReduceOnlyOrderIncreasedRisk, true
	case stderrors.Is(err, matching.ErrOracleInvalidForFill):
		return coreerrors.CodeInvalidOracle, true
	}
	return coreerrors.CodeUnspecified, false
}

func liquidationCode(err error) (coreerrors.Code, bool) {
	switch {
	case stderrors.Is(err, liquidation.ErrSufficientCollateral):
		return coreerrors.CodeSufficientCollateral, true
	case stderrors.Is(err, liquidation.ErrUserBankrupt):
		return coreerrors.CodeUserBankrupt, true
	case stderrors.Is(err, liquidation.ErrNotBeingLiquidated):
		return coreerrors.CodeUserIsBeingLiquidated, true
	case stderrors.Is(err, liquidation.ErrNoPosition):
		return coreerrors.CodeInvalidSpotPosition, true
	case stderrors.Is(err, liquidation.ErrOracleTooVolatile):
		return coreerrors.CodeInvalidOracle, true
	}
	return coreerrors.CodeUnspecified, false
}
