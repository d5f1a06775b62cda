package events

import "novaperp/core/types"

const (
	TypeLiquidationRecord      = "liquidation.record"
	TypeBankruptcyRecord       = "bankruptcy.record"
)

// LiquidationRecord covers liquidate_perp / liquidate_spot /
// liquidate_borrow_for_perp_pnl / liquidate_perp_pnl_for_deposit, spec §4.H.
type LiquidationRecord struct {
	Ts                int64
	Slot              uint64
	LiquidationId     uint32
	Kind              string
	User              string
	Liquidator        string
	MarketIndex       uint16
	BaseAmount        int64
	QuoteAmount       int64
	LiquidatorFee     int64
	IfFee             int64
	UserBecameBankrupt bool
}

func (LiquidationRecord) EventType() string { return TypeLiquidationRecord }

func (e LiquidationRecord) Record() *types.EventRecord {
	return &types.EventRecord{
		Type: TypeLiquidationRecord,
		Attributes: map[string]string{
			"ts":            formatInt(e.Ts),
			"slot":          formatUint(e.Slot),
			"liquidationId": formatUint(uint64(e.LiquidationId)),
			"kind":          e.Kind,
			"user":          e.User,
			"liquidator":    e.Liquidator,
			"marketIndex":   formatUint(uint64(e.MarketIndex)),
			"baseAmount":    formatInt(e.BaseAmount),
			"quoteAmount":   formatInt(e.QuoteAmount),
			"liquidatorFee": formatInt(e.LiquidatorFee),
			"ifFee":         formatInt(e.IfFee),
			"bankrupt":      formatBool(e.UserBecameBankrupt),
		},
	}
}

// BankruptcyRecord covers resolve_perp_bankruptcy / resolve_spot_bankruptcy.
type BankruptcyRecord struct {
	Ts              int64
	Slot            uint64
	User            string
	MarketIndex     uint16
	Kind            string
	SociallyLoss    int64
	ClawbackUser    string
	ClawbackAmount  int64
}

func (BankruptcyRecord) EventType() string { return TypeBankruptcyRecord }

func (e BankruptcyRecord) Record() *types.EventRecord {
	return &types.EventRecord{
		Type: TypeBankruptcyRecord,
		Attributes: map[string]string{
			"ts":             formatInt(e.Ts),
			"slot":           formatUint(e.Slot),
			"user":           e.User,
			"marketIndex":    formatUint(uint64(e.MarketIndex)),
			"kind":           e.Kind,
			"sociallyLoss":   formatInt(e.SociallyLoss),
			"clawbackUser":   e.ClawbackUser,
			"clawbackAmount": formatInt(e.ClawbackAmount),
		},
	}
}
