package events

import "novaperp/core/types"

const (
	TypeOrderRecord        = "order.record"
	TypeOrderActionPlace   = "order.action.place"
	TypeOrderActionCancel  = "order.action.cancel"
	TypeOrderActionModify  = "order.action.modify"
	TypeOrderActionTrigger = "order.action.trigger"
	TypeOrderActionFill    = "order.action.fill"
	TypeOrderActionExpire  = "order.action.expire"
)

// Action names for OrderActionRecord.Action; EventType() prefixes these with
// "order.action." to produce the Type* constants above.
const (
	ActionPlace   = "place"
	ActionCancel  = "cancel"
	ActionModify  = "modify"
	ActionTrigger = "trigger"
	ActionFill    = "fill"
	ActionExpire  = "expire"
)

// OrderRecord mirrors a snapshot of an order at placement time.
type OrderRecord struct {
	Ts          int64
	Slot        uint64
	User        string
	OrderId     uint32
	MarketIndex uint16
	MarketType  types.MarketType
	Direction   types.PositionDirection
	BaseAmount  int64
	Price       int64
}

func (OrderRecord) EventType() string { return TypeOrderRecord }

func (e OrderRecord) Record() *types.EventRecord {
	return &types.EventRecord{
		Type: TypeOrderRecord,
		Attributes: map[string]string{
			"ts":          formatInt(e.Ts),
			"slot":        formatUint(e.Slot),
			"user":        e.User,
			"orderId":     formatUint(uint64(e.OrderId)),
			"marketIndex": formatUint(uint64(e.MarketIndex)),
			"baseAmount":  formatInt(e.BaseAmount),
			"price":       formatInt(e.Price),
		},
	}
}

// OrderActionRecord covers Place/Cancel/Modify/Trigger/Fill/Expire, spec §4.G.
type OrderActionRecord struct {
	Action      string
	Ts          int64
	Slot        uint64
	User        string
	Filler      string
	OrderId     uint32
	MarketIndex uint16
	BaseFilled  int64
	QuoteFilled int64
	FillPrice   int64
	Method      types.FulfillmentMethod
	TakerFee    int64
	MakerRebate int64
	FillerReward int64
}

func (e OrderActionRecord) EventType() string { return "order.action." + e.Action }

func (e OrderActionRecord) Record() *types.EventRecord {
	return &types.EventRecord{
		Type: e.EventType(),
		Attributes: map[string]string{
			"ts":           formatInt(e.Ts),
			"slot":         formatUint(e.Slot),
			"user":         e.User,
			"filler":       e.Filler,
			"orderId":      formatUint(uint64(e.OrderId)),
			"marketIndex":  formatUint(uint64(e.MarketIndex)),
			"baseFilled":   formatInt(e.BaseFilled),
			"quoteFilled":  formatInt(e.QuoteFilled),
			"fillPrice":    formatInt(e.FillPrice),
			"takerFee":     formatInt(e.TakerFee),
			"makerRebate":  formatInt(e.MakerRebate),
			"fillerReward": formatInt(e.FillerReward),
		},
	}
}
