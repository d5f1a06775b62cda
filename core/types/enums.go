// Package types holds the persisted entities of spec §3: PerpMarket, AMM,
// SpotMarket, User, PerpPosition, SpotPosition, and Order. Every struct here
// is a fixed-size, host-zero-copyable record, following the layout
// conventions of the teacher's core/types/account.go (plain fields, no
// pointer-linked substructures for hot-path data).
package types

// MarketStatus is the lifecycle state of a market.
type MarketStatus uint8

const (
	MarketStatusInitialized MarketStatus = iota
	MarketStatusActive
	MarketStatusReduceOnly
	MarketStatusSettlement
	MarketStatusDelisted
)

// ContractType distinguishes perpetual vs future-dated contracts. The engine
// only implements Perpetual; the field is carried for forward compatibility
// with the persisted layout.
type ContractType uint8

const (
	ContractTypePerpetual ContractType = iota
)

// MarginMode selects the per-user margin tier table (§12 supplemented
// feature: HighLeverage mode).
type MarginMode uint8

const (
	MarginModeDefault MarginMode = iota
	MarginModeHighLeverage
)

// UserStatus is a bitset; see spec §3 User.status.
type UserStatus uint8

const (
	UserStatusBeingLiquidated UserStatus = 1 << iota
	UserStatusBankrupt
	UserStatusReduceOnly
	UserStatusAdvancedLp
	UserStatusProtectedMaker
)

func (s UserStatus) Has(bit UserStatus) bool { return s&bit != 0 }

// PausedOperation bitset values for PerpMarket.PausedOperations /
// SpotMarket.PausedOperations. A bit set means "operation disabled".
type PausedOperation uint8

const (
	PausedFill PausedOperation = 1 << iota
	PausedPlace
	PausedTrigger
	PausedSettlePnl
	PausedSettleFunding
	PausedLiquidation
)

func (p PausedOperation) Has(op PausedOperation) bool { return p&op != 0 }

// MarketType distinguishes perp vs spot orders.
type MarketType uint8

const (
	MarketTypePerp MarketType = iota
	MarketTypeSpot
)

// OrderType per spec §3.
type OrderType uint8

const (
	OrderTypeMarket OrderType = iota
	OrderTypeLimit
	OrderTypeTriggerMarket
	OrderTypeTriggerLimit
	OrderTypeOracle
)

// OrderStatus: a slot is either free (Init) or Open; Filled/Canceled are
// transient classifications immediately followed by zeroing back to Init.
type OrderStatus uint8

const (
	OrderStatusInit OrderStatus = iota
	OrderStatusOpen
	OrderStatusFilled
	OrderStatusCanceled
)

// PositionDirection (Long/Short).
type PositionDirection uint8

const (
	Long PositionDirection = iota
	Short
)

func (d PositionDirection) Opposite() PositionDirection {
	if d == Long {
		return Short
	}
	return Long
}

// TriggerCondition per spec §3 / §4.G.
type TriggerCondition uint8

const (
	TriggerAbove TriggerCondition = iota
	TriggerBelow
	TriggerTriggeredAbove
	TriggerTriggeredBelow
)

func (c TriggerCondition) IsTriggered() bool {
	return c == TriggerTriggeredAbove || c == TriggerTriggeredBelow
}

// BalanceType for SpotPosition.
type BalanceType uint8

const (
	BalanceTypeDeposit BalanceType = iota
	BalanceTypeBorrow
)

// MarginTier selects the requirement computed by the margin calculator
// (spec §4.F).
type MarginTier uint8

const (
	MarginTierInitial MarginTier = iota
	MarginTierFill
	MarginTierMaintenance
	MarginTierLiquidation
)

// AMMLiquiditySplit classifies how a JIT fill was funded (spec §4.C).
type AMMLiquiditySplit uint8

const (
	SplitNone AMMLiquiditySplit = iota
	SplitShared
	SplitProtocolOwned
	SplitLpOwned
)

// OrderActionExplanation / fill-dispatch routing used by §4.G step 8.
type FulfillmentMethod uint8

const (
	FulfillmentAMM FulfillmentMethod = iota
	FulfillmentMatch
	FulfillmentExternal
)

// OracleAction enumerates the per-action oracle validity tolerances of
// spec §4.B.
type OracleAction uint8

const (
	OracleActionMarginCalc OracleAction = iota
	OracleActionFillOrderAmm
	OracleActionFillOrderMatch
	OracleActionTriggerOrder
	OracleActionUpdateFunding
	OracleActionUpdateAmmPeg
	OracleActionUseForAmmSpread
	OracleActionLiquidate
)

// ModifyPolicy controls whether a missing order on modify is an error.
type ModifyPolicy uint8

const (
	ModifyDefault ModifyPolicy = iota
	ModifyMustModify
)
