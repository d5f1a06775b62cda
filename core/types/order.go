package types

// Order is one slot of a user's 32-order array, spec §3 / §4.G.
type Order struct {
	OrderId         uint32
	UserOrderId     uint8
	MarketType      MarketType
	MarketIndex     uint16
	OrderType       OrderType
	Status          OrderStatus
	Direction       PositionDirection

	ExistingPositionDirection PositionDirection

	BaseAssetAmount       int64
	BaseAssetAmountFilled int64
	QuoteAssetAmountFilled int64
	Price                 int64

	TriggerPrice     int64
	TriggerCondition TriggerCondition

	Slot           uint64 // placement slot
	AuctionStartPrice int64 // signed
	AuctionEndPrice   int64 // signed
	AuctionDuration   uint8 // slots

	MaxTs uint64

	OracleOffset int64 // signed, for OrderTypeOracle

	ReduceOnly      bool
	PostOnly        bool
	ImmediateOrCancel bool
}

// IsOpen reports whether the order occupies a live slot.
func (o *Order) IsOpen() bool { return o.Status == OrderStatusOpen }

// IsAvailable reports whether this slot is free for a new order.
func (o *Order) IsAvailable() bool { return o.Status == OrderStatusInit }

// Reset zeroes the slot back to Init, per the state machine in spec §4.G.
func (o *Order) Reset() { *o = Order{} }

// BaseAssetAmountUnfilled returns the remaining unfilled size.
func (o *Order) BaseAssetAmountUnfilled() int64 {
	rem := o.BaseAssetAmount - o.BaseAssetAmountFilled
	if rem < 0 {
		return 0
	}
	return rem
}

// IsTriggerOrder reports whether this order type requires triggering before
// it behaves as a market/limit order.
func (o *Order) IsTriggerOrder() bool {
	return o.OrderType == OrderTypeTriggerMarket || o.OrderType == OrderTypeTriggerLimit
}

const MaxOpenOrdersPerUser = 32
const MaxPerpPositionsPerUser = 8
const MaxSpotPositionsPerUser = 8

// PerpPosition, spec §3.
type PerpPosition struct {
	MarketIndex uint16

	BaseAssetAmount         int64 // signed
	QuoteAssetAmount        int64 // signed
	QuoteEntryAmount        int64
	QuoteBreakEvenAmount    int64

	OpenOrders int32
	OpenBids   int64
	OpenAsks   int64 // signed

	LpShares                  int64
	LastBaseAssetAmountPerLp  int64
	LastQuoteAssetAmountPerLp int64
	LastCumulativeFundingRate int64

	RemainderBaseAssetAmount int64
	SettledPnl               int64
	PerLpBase                int64
}

// IsOpen reports whether the position carries any exposure.
func (p *PerpPosition) IsOpen() bool {
	return p.BaseAssetAmount != 0 || p.QuoteAssetAmount != 0 || p.LpShares != 0 ||
		p.OpenOrders != 0
}

// SpotPosition, spec §3.
type SpotPosition struct {
	MarketIndex uint16

	ScaledBalance int64
	BalanceType   BalanceType

	CumulativeDeposits int64 // signed

	OpenOrders int32
	OpenBids   int64
	OpenAsks   int64
}

// User, spec §3.
type User struct {
	Authority    string
	Delegate     string
	SubAccountId uint16
	PoolId       uint8
	MarginMode   MarginMode
	Status       UserStatus

	NextOrderId       uint32
	NextLiquidationId uint32

	PerpPositions [MaxPerpPositionsPerUser]PerpPosition
	SpotPositions [MaxSpotPositionsPerUser]SpotPosition
	Orders        [MaxOpenOrdersPerUser]Order

	TotalDeposits  int64
	TotalWithdraws int64

	CumulativeSpotFees   int64
	CumulativePerpFunding int64

	LastActiveSlot         uint64
	LastAddPerpLpSharesTs  int64

	MaxMarginRatio uint32 // user-chosen floor, MarginPrecision

	OpenOrders  int32
	OpenAuctions int32

	LiquidationId          uint32
	LiquidationMarginFreed int64
}

// FindOrder returns the order with the given order id, or nil.
func (u *User) FindOrder(orderId uint32) *Order {
	for i := range u.Orders {
		if u.Orders[i].Status != OrderStatusInit && u.Orders[i].OrderId == orderId {
			return &u.Orders[i]
		}
	}
	return nil
}

// FindOrderByUserOrderId looks up a live order by the client-chosen id.
func (u *User) FindOrderByUserOrderId(userOrderId uint8) *Order {
	if userOrderId == 0 {
		return nil
	}
	for i := range u.Orders {
		if u.Orders[i].Status != OrderStatusInit && u.Orders[i].UserOrderId == userOrderId {
			return &u.Orders[i]
		}
	}
	return nil
}

// FirstAvailableOrderSlot finds a free order slot, or -1 if the user carries
// the maximum of MaxOpenOrdersPerUser open orders.
func (u *User) FirstAvailableOrderSlot() int {
	for i := range u.Orders {
		if u.Orders[i].IsAvailable() {
			return i
		}
	}
	return -1
}

// GetPerpPosition returns the position for marketIndex, creating it in the
// first empty slot if absent. Positions are never destroyed once created
// within a user slot (spec §3 Lifecycles).
func (u *User) GetPerpPosition(marketIndex uint16) (*PerpPosition, error) {
	var free *PerpPosition
	for i := range u.PerpPositions {
		p := &u.PerpPositions[i]
		if p.IsOpen() && p.MarketIndex == marketIndex {
			return p, nil
		}
		if !p.IsOpen() && free == nil {
			free = p
		}
	}
	for i := range u.PerpPositions {
		p := &u.PerpPositions[i]
		if !p.IsOpen() && p.MarketIndex == marketIndex {
			return p, nil
		}
	}
	if free == nil {
		return nil, errNoAvailablePositionSlots
	}
	free.MarketIndex = marketIndex
	return free, nil
}

// GetSpotPosition mirrors GetPerpPosition for spot balances.
func (u *User) GetSpotPosition(marketIndex uint16) (*SpotPosition, error) {
	var free *SpotPosition
	for i := range u.SpotPositions {
		p := &u.SpotPositions[i]
		isOpen := p.ScaledBalance != 0 || p.OpenOrders != 0
		if isOpen && p.MarketIndex == marketIndex {
			return p, nil
		}
		if !isOpen && free == nil {
			free = p
		}
	}
	if free == nil {
		return nil, errNoAvailablePositionSlots
	}
	free.MarketIndex = marketIndex
	return free, nil
}
