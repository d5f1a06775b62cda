// Package oracle implements the keyed oracle cache of spec §4.B: a map of
// (pubkey, source) to the last-loaded {price, confidence, slot, twap}
// reading, with per-action validity classification.
package oracle

import (
	"novaperp/core/types"
)

// Source distinguishes the price feed implementation backing a reading
// (Pyth, Switchboard, ...). The engine treats it only as a map key
// component; decoding is an out-of-scope host collaborator (spec §1).
type Source uint8

const (
	SourcePyth Source = iota
	SourceSwitchboard
	SourcePythLazer
)

// Key identifies one oracle cache entry.
type Key struct {
	Pubkey string
	Source Source
}

// Entry is a cached oracle reading.
type Entry struct {
	Price       int64 // PricePrecision
	Confidence  uint64
	Slot        uint64
	DelaySlots  uint64
	Twap        int64
	Twap5Min    int64
	validity    Validity
}

// Validity is computed once on load, spec §4.B.
type Validity struct {
	StaleForMargin  bool
	StaleForAMM     bool
	TooVolatile     bool
	TooUncertain    bool
}

func (v Validity) ok() bool {
	return !v.StaleForMargin && !v.StaleForAMM && !v.TooVolatile && !v.TooUncertain
}

// Tolerances bounds the delay/confidence/deviation thresholds used when
// loading an entry. Distinct tolerances exist per spec's OracleAction list.
type Tolerances struct {
	MaxDelaySlots      uint64
	MaxConfidenceBps   uint64 // confidence/price in bps
	MaxTwapDeviationBps uint64
}

// DefaultTolerances returns the conservative defaults used absent
// per-action configuration overrides.
func DefaultTolerances() Tolerances {
	return Tolerances{MaxDelaySlots: 30, MaxConfidenceBps: 200, MaxTwapDeviationBps: 1000}
}

// Map is the exclusive-access oracle cache for one transaction, spec §5.
type Map struct {
	entries map[Key]*Entry
}

func NewMap() *Map {
	return &Map{entries: make(map[Key]*Entry)}
}

// Load installs (or refreshes) a cached reading and (re)computes its
// validity classification against tol.
func (m *Map) Load(key Key, price int64, confidence uint64, slot, currentSlot uint64, twap, twap5Min int64, tol Tolerances) *Entry {
	delay := uint64(0)
	if currentSlot > slot {
		delay = currentSlot - slot
	}
	e := &Entry{
		Price:      price,
		Confidence: confidence,
		Slot:       slot,
		DelaySlots: delay,
		Twap:       twap,
		Twap5Min:   twap5Min,
	}
	e.validity = classify(e, tol)
	m.entries[key] = e
	return e
}

func classify(e *Entry, tol Tolerances) Validity {
	var v Validity
	if tol.MaxDelaySlots > 0 && e.DelaySlots > tol.MaxDelaySlots {
		v.StaleForMargin = true
		v.StaleForAMM = true
	}
	if e.Price > 0 && tol.MaxConfidenceBps > 0 {
		confBps := (e.Confidence * 10_000) / uint64(e.Price)
		if confBps > tol.MaxConfidenceBps {
			v.TooUncertain = true
		}
	}
	if e.Twap > 0 && tol.MaxTwapDeviationBps > 0 {
		dev := e.Price - e.Twap
		if dev < 0 {
			dev = -dev
		}
		devBps := uint64(dev*10_000) / uint64(e.Twap)
		if devBps > tol.MaxTwapDeviationBps {
			v.TooVolatile = true
		}
	}
	return v
}

// Get returns the cached entry for key, if present.
func (m *Map) Get(key Key) (*Entry, bool) {
	e, ok := m.entries[key]
	return e, ok
}

// isValidForAction maps an OracleAction to the strictness of validity check
// applied: some actions tolerate staleness but not volatility, etc.
func isValidForAction(e *Entry, action types.OracleAction) bool {
	if e == nil {
		return false
	}
	switch action {
	case types.OracleActionMarginCalc, types.OracleActionLiquidate:
		return !e.validity.StaleForMargin && !e.validity.TooUncertain
	case types.OracleActionFillOrderAmm, types.OracleActionFillOrderMatch:
		return e.validity.ok()
	case types.OracleActionTriggerOrder:
		return !e.validity.StaleForMargin
	case types.OracleActionUpdateFunding:
		return !e.validity.StaleForAMM && !e.validity.TooUncertain
	case types.OracleActionUpdateAmmPeg, types.OracleActionUseForAmmSpread:
		return !e.validity.TooVolatile
	default:
		return e.validity.ok()
	}
}

// IsOracleValidForAction implements spec §4.B's
// is_oracle_valid_for_action(action).
func (m *Map) IsOracleValidForAction(key Key, action types.OracleAction) bool {
	e, ok := m.Get(key)
	if !ok {
		return false
	}
	return isValidForAction(e, action)
}
