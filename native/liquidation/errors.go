package liquidation

import "errors"

var (
	ErrSufficientCollateral = errors.New("liquidation: user already meets the maintenance margin requirement")
	ErrUserBankrupt         = errors.New("liquidation: user is bankrupt and must resolve bankruptcy first")
	ErrNoPosition           = errors.New("liquidation: user carries no position in the given market")
	ErrNotBeingLiquidated   = errors.New("liquidation: user is not flagged BeingLiquidated")
	ErrNotBankrupt          = errors.New("liquidation: user is not flagged Bankrupt")
	ErrOracleTooVolatile    = errors.New("liquidation: strict oracle price deviates too far from twap to liquidate safely")
)
