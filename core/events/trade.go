package events

import "novaperp/core/types"

const TypeTradeRecord = "trade.record"

// TradeRecord is emitted for every match/AMM/external fill leg.
type TradeRecord struct {
	Ts               int64
	Slot             uint64
	MarketIndex      uint16
	MarketType       types.MarketType
	Taker            string
	TakerOrderId     uint32
	Maker            string
	MakerOrderId     uint32
	Direction        types.PositionDirection
	BaseAmount       int64
	QuoteAmount      int64
	FillPrice        int64
	Method           types.FulfillmentMethod
	QuoteSurplus     int64
	JitBaseAmount    int64
	LiquiditySplit   types.AMMLiquiditySplit
}

func (TradeRecord) EventType() string { return TypeTradeRecord }

func (e TradeRecord) Record() *types.EventRecord {
	return &types.EventRecord{
		Type: TypeTradeRecord,
		Attributes: map[string]string{
			"ts":             formatInt(e.Ts),
			"slot":           formatUint(e.Slot),
			"marketIndex":    formatUint(uint64(e.MarketIndex)),
			"taker":          e.Taker,
			"takerOrderId":   formatUint(uint64(e.TakerOrderId)),
			"maker":          e.Maker,
			"makerOrderId":   formatUint(uint64(e.MakerOrderId)),
			"baseAmount":     formatInt(e.BaseAmount),
			"quoteAmount":    formatInt(e.QuoteAmount),
			"fillPrice":      formatInt(e.FillPrice),
			"quoteSurplus":   formatInt(e.QuoteSurplus),
			"jitBaseAmount":  formatInt(e.JitBaseAmount),
		},
	}
}
