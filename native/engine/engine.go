package engine

import (
	"log/slog"

	"novaperp/core/events"
	"novaperp/core/oracle"
	"novaperp/core/state"
	"novaperp/core/types"
	"novaperp/native/fees"
	"novaperp/native/funding"
	"novaperp/native/margin"
)

// Clock carries the monotonic (slot, unix_timestamp) pair spec §1 hands the
// engine; no component reads wall-clock time directly.
type Clock struct {
	Slot uint64
	Now  int64
}

// Config bundles the keeper-configurable parameters every entrypoint needs
// that are not themselves part of persisted market/user state: the
// liquidation buffer (spec §4.F MarginTierLiquidation), the fill price-band
// buffer (spec §4.G step 10), and the fee schedule (spec §4.I).
type Config struct {
	LiquidationBufferBps margin.BufferRatioBps
	PriceBandBufferBps   int64
	FeeTiers             []fees.Tier
	FundingRiskCaps      funding.RiskCaps
}

// Engine is the per-transaction handle over the exclusive-access maps of
// spec §5, composing every native/* component into the instruction surface
// of spec §6. A fresh Engine is constructed per transaction from the
// writable set the host declared; it holds no state across transactions.
type Engine struct {
	Oracles     *oracle.Map
	PerpMarkets *state.PerpMarketMap
	SpotMarkets *state.SpotMarketMap
	Clock       Clock
	Config      Config
	Emit        events.Emitter
	Logger      *slog.Logger
}

func New(oracles *oracle.Map, perpMarkets *state.PerpMarketMap, spotMarkets *state.SpotMarketMap, clock Clock, cfg Config, emit events.Emitter) *Engine {
	if emit == nil {
		emit = events.NoopEmitter{}
	}
	return &Engine{Oracles: oracles, PerpMarkets: perpMarkets, SpotMarkets: spotMarkets, Clock: clock, Config: cfg, Emit: emit, Logger: slog.Default()}
}

// WithLogger overrides the default logger; used by cmd/matchingd to attach
// the rotating/structured logger built by observability/logging.
func (e *Engine) WithLogger(logger *slog.Logger) *Engine {
	if logger != nil {
		e.Logger = logger
	}
	return e
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// settlePendingFunding implements spec §2's "settle pending funding for the
// affected user" pipeline step: it rolls the market's cumulative funding
// rate forward if a period has elapsed, then applies the position's share
// of it. Both steps are no-ops when nothing is due, so callers can run this
// unconditionally ahead of every perp mutation.
func (e *Engine) settlePendingFunding(market *types.PerpMarket, u *types.User, pos *types.PerpPosition) {
	oracleKey := oracle.Key{Pubkey: market.OracleId}
	if entry, ok := e.Oracles.Get(oracleKey); ok && funding.IsDue(&market.AMM, e.Clock.Now) {
		_ = funding.UpdateFundingRate(market, entry.Twap, e.Clock.Now, e.Config.FundingRiskCaps, market.NextFundingRateRecordId, e.Emit)
	}
	funding.SettlePosition(market, u, pos, e.Emit)
}
