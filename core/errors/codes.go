// Package errors declares the engine's stable wire error taxonomy (spec §6)
// and the wrapper type that carries a code plus a debug message, following
// the sentinel-error style of the teacher's core/errors/stake.go.
package errors

import stderrors "errors"

// Code is a stable numeric wire value. Never renumber an existing entry;
// append new ones at the end.
type Code uint32

const (
	CodeUnspecified Code = iota
	CodeUserBankrupt
	CodeUserIsBeingLiquidated
	CodeSufficientCollateral
	CodeInsufficientCollateral
	CodeMaxNumberOfOrders
	CodeOrderDoesNotExist
	CodeOrderNotOpen
	CodeOrderMustBeTriggeredFirst
	CodeOrderNotTriggerable
	CodeOrderDidNotSatisfyTriggerCondition
	CodeInvalidOrderMarketType
	CodeInvalidOrderIOC
	CodeInvalidOrderIOCPostOnly
	CodeInvalidOrderPostOnly
	CodeInvalidOrderAuction
	CodeUserOrderIdAlreadyInUse
	CodeOrderAmountTooSmall
	CodeInvalidOrderNotStepSizeMultiple
	CodeMaxOpenInterest
	CodePriceBandsBreached
	CodeOracleMarkSpreadLimit
	CodeOracleNotFound
	CodeInvalidOracle
	CodeMarketFillOrderPaused
	CodeMarketPlaceOrderPaused
	CodeMarketBeingInitialized
	CodePerpMarketNotInReduceOnly
	CodeLiquidationDoesntSatisfyLimitPrice
	CodeReduceOnlyOrderIncreasedRisk
	CodeSlippageOutsideLimit
	CodeTradeSizeTooSmall
	CodeSpotMarketReduceOnly
	CodeSpotOrdersDisabled
	CodeInvalidSpotPosition
	CodeInvalidSwap
	CodeSwapLimitPriceBreached
	CodeInvalidPoolId
	CodeMarginTradingDisabled
	CodeInsufficientDeposit
	CodeDefaultError
)

var codeNames = map[Code]string{
	CodeUserBankrupt:                       "UserBankrupt",
	CodeUserIsBeingLiquidated:              "UserIsBeingLiquidated",
	CodeSufficientCollateral:               "SufficientCollateral",
	CodeInsufficientCollateral:             "InsufficientCollateral",
	CodeMaxNumberOfOrders:                  "MaxNumberOfOrders",
	CodeOrderDoesNotExist:                  "OrderDoesNotExist",
	CodeOrderNotOpen:                       "OrderNotOpen",
	CodeOrderMustBeTriggeredFirst:          "OrderMustBeTriggeredFirst",
	CodeOrderNotTriggerable:                "OrderNotTriggerable",
	CodeOrderDidNotSatisfyTriggerCondition: "OrderDidNotSatisfyTriggerCondition",
	CodeInvalidOrderMarketType:             "InvalidOrderMarketType",
	CodeInvalidOrderIOC:                    "InvalidOrderIOC",
	CodeInvalidOrderIOCPostOnly:            "InvalidOrderIOCPostOnly",
	CodeInvalidOrderPostOnly:               "InvalidOrderPostOnly",
	CodeInvalidOrderAuction:                "InvalidOrderAuction",
	CodeUserOrderIdAlreadyInUse:            "UserOrderIdAlreadyInUse",
	CodeOrderAmountTooSmall:                "OrderAmountTooSmall",
	CodeInvalidOrderNotStepSizeMultiple:    "InvalidOrderNotStepSizeMultiple",
	CodeMaxOpenInterest:                    "MaxOpenInterest",
	CodePriceBandsBreached:                 "PriceBandsBreached",
	CodeOracleMarkSpreadLimit:              "OracleMarkSpreadLimit",
	CodeOracleNotFound:                     "OracleNotFound",
	CodeInvalidOracle:                      "InvalidOracle",
	CodeMarketFillOrderPaused:              "MarketFillOrderPaused",
	CodeMarketPlaceOrderPaused:             "MarketPlaceOrderPaused",
	CodeMarketBeingInitialized:             "MarketBeingInitialized",
	CodePerpMarketNotInReduceOnly:          "PerpMarketNotInReduceOnly",
	CodeLiquidationDoesntSatisfyLimitPrice: "LiquidationDoesntSatisfyLimitPrice",
	CodeReduceOnlyOrderIncreasedRisk:       "ReduceOnlyOrderIncreasedRisk",
	CodeSlippageOutsideLimit:               "SlippageOutsideLimit",
	CodeTradeSizeTooSmall:                  "TradeSizeTooSmall",
	CodeSpotMarketReduceOnly:               "SpotMarketReduceOnly",
	CodeSpotOrdersDisabled:                 "SpotOrdersDisabled",
	CodeInvalidSpotPosition:                "InvalidSpotPosition",
	CodeInvalidSwap:                        "InvalidSwap",
	CodeSwapLimitPriceBreached:             "SwapLimitPriceBreached",
	CodeInvalidPoolId:                      "InvalidPoolId",
	CodeMarginTradingDisabled:              "MarginTradingDisabled",
	CodeInsufficientDeposit:                "InsufficientDeposit",
	CodeDefaultError:                       "DefaultError",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "Unspecified"
}

// EngineError is the public surface for engine failures: a stable code plus a
// short debug message, per spec §7 ("Public surface surfaces the code plus a
// short msg for debugging; no stack traces.").
type EngineError struct {
	Code  Code
	Msg   string
	cause error
}

func New(code Code, msg string) *EngineError {
	return &EngineError{Code: code, Msg: msg}
}

func Wrap(code Code, msg string, cause error) *EngineError {
	return &EngineError{Code: code, Msg: msg, cause: cause}
}

func (e *EngineError) Error() string {
	if e.Msg == "" {
		return e.Code.String()
	}
	return e.Code.String() + ": " + e.Msg
}

func (e *EngineError) Unwrap() error { return e.cause }

// Is allows errors.Is(err, Sentinel(CodeX)) style matching by code.
func (e *EngineError) Is(target error) bool {
	other, ok := target.(*EngineError)
	if !ok {
		return false
	}
	return e.Code == other.Code
}

// Sentinel returns a bare EngineError usable as an errors.Is comparison
// target for the given code.
func Sentinel(code Code) *EngineError { return &EngineError{Code: code} }

// CodeOf extracts the Code from err if it is (or wraps) an *EngineError.
func CodeOf(err error) (Code, bool) {
	var ee *EngineError
	if stderrors.As(err, &ee) {
		return ee.Code, true
	}
	return CodeUnspecified, false
}
