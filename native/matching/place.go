// Package matching implements spec §4.G: the order state machine
// (Place/Cancel/Modify/Trigger/Expire) and the maker/AMM fulfillment plan
// used by fill_perp_order.
package matching

import (
	"math"

	"novaperp/core/events"
	"novaperp/core/fixedmath"
	"novaperp/core/types"
)

// ComputeMaxAffordableSize is the sentinel base_asset_amount meaning "size
// the order to the largest amount the user's current collateral affords",
// spec §4.G step 5 ("u64::MAX means compute max affordable size"). Resolving
// it requires a margin pass and is the caller's (native/engine's)
// responsibility; Place itself treats any non-sentinel amount literally.
const ComputeMaxAffordableSize = int64(math.MaxInt64)

// PlaceParams carries a place_perp_order / place_spot_order instruction's
// user-supplied fields, spec §4.G "Place".
type PlaceParams struct {
	MarketType        types.MarketType
	MarketIndex       uint16
	Direction         types.PositionDirection
	BaseAssetAmount   int64
	Price             int64
	OrderType         types.OrderType
	UserOrderId       uint8
	ReduceOnly        bool
	PostOnly          bool
	ImmediateOrCancel bool
	TriggerPrice      int64
	TriggerCondition  types.TriggerCondition
	OracleOffset      int64
	MaxTs             uint64
	AuctionStartPrice int64
	AuctionEndPrice   int64
	AuctionDuration   uint8
}

// MarketRules is the subset of market configuration Place needs: step/tick
// sizes, minimum order size, the auction defaults applied to Market/Oracle
// orders, and (for the ProtectedMaker check) the AMM's current bid/ask. Zero
// AMM prices mean "no AMM signal supplied" and skip that check, matching
// how spot markets (which have no AMM) and existing tests call Place today.
type MarketRules struct {
	Status              types.MarketStatus
	PausedOperations    types.PausedOperation
	OrderStepSize       int64
	OrderTickSize       int64
	MinOrderSize        int64
	MinAuctionDuration  uint8
	AMMBidPrice         int64
	AMMAskPrice         int64
}

// Place implements spec §4.G "Place": finds a free order slot, standardizes
// size/price, fills in auction defaults, and persists the order — returning
// the new order's slot index. Bankrupt/being-liquidated checks, margin
// enforcement, and max-open-interest validation are the caller's
// responsibility (they require state this package does not own).
func Place(u *types.User, pos orderBookPosition, rules MarketRules, params PlaceParams, slot uint64, emit events.Emitter) (int, error) {
	if rules.Status == types.MarketStatusSettlement || rules.Status == types.MarketStatusInitialized || rules.Status == types.MarketStatusDelisted {
		return -1, ErrInvalidOrderMarketType
	}
	if rules.PausedOperations.Has(types.PausedPlace) {
		return -1, ErrInvalidOrderMarketType
	}

	if params.UserOrderId != 0 && u.FindOrderByUserOrderId(params.UserOrderId) != nil {
		return -1, ErrUserOrderIdAlreadyInUse
	}

	idx := u.FirstAvailableOrderSlot()
	if idx < 0 {
		return -1, ErrMaxNumberOfOrders
	}

	baseAmount := params.BaseAssetAmount
	if baseAmount != ComputeMaxAffordableSize {
		baseAmount = fixedmath.StandardizeToStep(baseAmount, rules.OrderStepSize)
	}
	if baseAmount < rules.MinOrderSize && baseAmount != ComputeMaxAffordableSize {
		return -1, ErrOrderAmountTooSmall
	}

	isBid := params.Direction == types.Long
	price := fixedmath.StandardizePrice(params.Price, rules.OrderTickSize, isBid)

	if u.Status.Has(types.UserStatusProtectedMaker) && params.OrderType == types.OrderTypeLimit {
		if wouldCrossAMM(isBid, price, rules.AMMBidPrice, rules.AMMAskPrice) {
			return -1, ErrProtectedMakerWouldCross
		}
	}

	startPrice, endPrice, duration := resolveAuctionParams(params, rules)

	o := &u.Orders[idx]
	*o = types.Order{
		OrderId:                   nextOrderId(u),
		UserOrderId:               params.UserOrderId,
		MarketType:                params.MarketType,
		MarketIndex:               params.MarketIndex,
		OrderType:                 params.OrderType,
		Status:                    types.OrderStatusOpen,
		Direction:                 params.Direction,
		ExistingPositionDirection: existingDirection(pos),
		BaseAssetAmount:           baseAmount,
		Price:                     price,
		TriggerPrice:              params.TriggerPrice,
		TriggerCondition:          params.TriggerCondition,
		Slot:                      slot,
		AuctionStartPrice:         startPrice,
		AuctionEndPrice:           endPrice,
		AuctionDuration:           duration,
		MaxTs:                     params.MaxTs,
		OracleOffset:              params.OracleOffset,
		ReduceOnly:                params.ReduceOnly,
		PostOnly:                  params.PostOnly,
		ImmediateOrCancel:         params.ImmediateOrCancel,
	}

	u.OpenOrders++
	pos.bumpOpenOrders(1)
	if isBid {
		pos.bumpOpenBids(baseAmount)
	} else {
		pos.bumpOpenAsks(baseAmount)
	}

	if emit != nil {
		emit.Emit(events.OrderRecord{OrderId: o.OrderId, MarketIndex: o.MarketIndex, MarketType: o.MarketType, Direction: o.Direction, BaseAmount: o.BaseAssetAmount, Price: o.Price})
		emit.Emit(events.OrderActionRecord{Action: events.ActionPlace, OrderId: o.OrderId, MarketIndex: o.MarketIndex, BaseFilled: 0})
	}
	return idx, nil
}

// wouldCrossAMM implements the ProtectedMaker rejection (spec §12
// supplemented feature): a would-be resting limit order that already
// crosses the AMM's current bid/ask is taking liquidity, not making it,
// distinct from TryPostOnly's silent-conversion behavior. A zero AMM price
// means no signal was supplied (e.g. a spot market) and the check is
// skipped.
func wouldCrossAMM(isBid bool, price, ammBid, ammAsk int64) bool {
	if isBid {
		return ammAsk > 0 && price >= ammAsk
	}
	return ammBid > 0 && price <= ammBid
}

func nextOrderId(u *types.User) uint32 {
	u.NextOrderId++
	return u.NextOrderId
}

func existingDirection(pos orderBookPosition) types.PositionDirection {
	if pos == nil {
		return types.Long
	}
	if pos.baseAssetAmount() < 0 {
		return types.Short
	}
	return types.Long
}

// resolveAuctionParams implements spec §4.G step 6: Market/Oracle orders
// always get at least the market's minimum auction duration; Limit orders
// pass the user's values through unchanged (zero means no auction).
func resolveAuctionParams(params PlaceParams, rules MarketRules) (start, end int64, duration uint8) {
	if params.OrderType == types.OrderTypeMarket || params.OrderType == types.OrderTypeOracle {
		d := params.AuctionDuration
		if d < rules.MinAuctionDuration {
			d = rules.MinAuctionDuration
		}
		return params.AuctionStartPrice, params.AuctionEndPrice, d
	}
	return params.AuctionStartPrice, params.AuctionEndPrice, params.AuctionDuration
}

// orderBookPosition is the minimal view Place/Cancel need into a position's
// open-order counters, satisfied by *types.PerpPosition and
// *types.SpotPosition. A nil value means "no existing position" (the order
// opens a flat account).
type orderBookPosition interface {
	bumpOpenOrders(delta int32)
	bumpOpenBids(delta int64)
	bumpOpenAsks(delta int64)
	baseAssetAmount() int64
}

type perpPositionAdapter struct{ p *types.PerpPosition }

func (a perpPositionAdapter) bumpOpenOrders(delta int32) { a.p.OpenOrders += delta }
func (a perpPositionAdapter) bumpOpenBids(delta int64)   { a.p.OpenBids += delta }
func (a perpPositionAdapter) bumpOpenAsks(delta int64)   { a.p.OpenAsks += delta }
func (a perpPositionAdapter) baseAssetAmount() int64      { return a.p.BaseAssetAmount }

// PerpPosition adapts a *types.PerpPosition to orderBookPosition.
func PerpPosition(p *types.PerpPosition) orderBookPosition { return perpPositionAdapter{p} }

type spotPositionAdapter struct{ p *types.SpotPosition }

func (a spotPositionAdapter) bumpOpenOrders(delta int32) { a.p.OpenOrders += delta }
func (a spotPositionAdapter) bumpOpenBids(delta int64)   { a.p.OpenBids += delta }
func (a spotPositionAdapter) bumpOpenAsks(delta int64)   { a.p.OpenAsks += delta }
func (a spotPositionAdapter) baseAssetAmount() int64 {
	if a.p.BalanceType == types.BalanceTypeBorrow {
		return -a.p.ScaledBalance
	}
	return a.p.ScaledBalance
}

// SpotPosition adapts a *types.SpotPosition to orderBookPosition.
func SpotPosition(p *types.SpotPosition) orderBookPosition { return spotPositionAdapter{p} }
