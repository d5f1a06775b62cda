package events

import "novaperp/core/types"

const (
	TypeFundingRateRecord   = "funding.rate.record"
	TypeFundingPaymentRecord = "funding.payment.record"
	TypeLPRecord             = "lp.record"
)

// FundingRateRecord is emitted once per market whenever a funding update
// runs, spec §4.D.
type FundingRateRecord struct {
	Ts                 int64
	RecordId           uint64
	MarketIndex        uint16
	FundingRate        int64
	CumulativeFundingRateLong  int64
	CumulativeFundingRateShort int64
	OraclePriceTwap    int64
	MarkPriceTwap      int64
}

func (FundingRateRecord) EventType() string { return TypeFundingRateRecord }

func (e FundingRateRecord) Record() *types.EventRecord {
	return &types.EventRecord{
		Type: TypeFundingRateRecord,
		Attributes: map[string]string{
			"ts":          formatInt(e.Ts),
			"recordId":    formatUint(e.RecordId),
			"marketIndex": formatUint(uint64(e.MarketIndex)),
			"fundingRate": formatInt(e.FundingRate),
			"cumLong":     formatInt(e.CumulativeFundingRateLong),
			"cumShort":    formatInt(e.CumulativeFundingRateShort),
		},
	}
}

// FundingPaymentRecord is emitted per-user on settlement.
type FundingPaymentRecord struct {
	Ts           int64
	User         string
	MarketIndex  uint16
	FundingDelta int64
}

func (FundingPaymentRecord) EventType() string { return TypeFundingPaymentRecord }

func (e FundingPaymentRecord) Record() *types.EventRecord {
	return &types.EventRecord{
		Type: TypeFundingPaymentRecord,
		Attributes: map[string]string{
			"ts":           formatInt(e.Ts),
			"user":         e.User,
			"marketIndex":  formatUint(uint64(e.MarketIndex)),
			"fundingDelta": formatInt(e.FundingDelta),
		},
	}
}

// LPRecord is emitted on LP mint/burn/settle, spec §4.C/§4.E.
type LPRecord struct {
	Ts           int64
	User         string
	MarketIndex  uint16
	Action       string // mint|burn|settle
	SharesDelta  int64
	BaseDelta    int64
	QuoteDelta   int64
}

func (LPRecord) EventType() string { return TypeLPRecord }

func (e LPRecord) Record() *types.EventRecord {
	return &types.EventRecord{
		Type: TypeLPRecord,
		Attributes: map[string]string{
			"ts":          formatInt(e.Ts),
			"user":        e.User,
			"marketIndex": formatUint(uint64(e.MarketIndex)),
			"action":      e.Action,
			"sharesDelta": formatInt(e.SharesDelta),
			"baseDelta":   formatInt(e.BaseDelta),
			"quoteDelta":  formatInt(e.QuoteDelta),
		},
	}
}
