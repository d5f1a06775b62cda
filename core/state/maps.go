// Package state implements the exclusive-access maps of spec §5:
// OracleMap, PerpMarketMap, SpotMarketMap. Each transaction loads a
// declared writable set once; attempting to fetch a market outside that
// set fails, following the teacher's core/state.Manager which wraps a
// single backing trie/KV and is handed down the call stack rather than
// re-acquired.
package state

import (
	"fmt"

	"novaperp/core/types"
)

// PerpMarketMap is the writable set of perp markets loaded for a
// transaction.
type PerpMarketMap struct {
	markets map[uint16]*types.PerpMarket
}

func NewPerpMarketMap(writable []*types.PerpMarket) *PerpMarketMap {
	m := &PerpMarketMap{markets: make(map[uint16]*types.PerpMarket, len(writable))}
	for _, mkt := range writable {
		m.markets[mkt.MarketIndex] = mkt
	}
	return m
}

// GetRefMut returns the exclusive reference to a writable market, or an
// error if the market index was not declared writable for this
// transaction.
func (m *PerpMarketMap) GetRefMut(marketIndex uint16) (*types.PerpMarket, error) {
	mkt, ok := m.markets[marketIndex]
	if !ok {
		return nil, fmt.Errorf("state: perp market %d not in writable set", marketIndex)
	}
	return mkt, nil
}

// SpotMarketMap is the writable set of spot markets loaded for a
// transaction.
type SpotMarketMap struct {
	markets map[uint16]*types.SpotMarket
}

func NewSpotMarketMap(writable []*types.SpotMarket) *SpotMarketMap {
	m := &SpotMarketMap{markets: make(map[uint16]*types.SpotMarket, len(writable))}
	for _, mkt := range writable {
		m.markets[mkt.MarketIndex] = mkt
	}
	return m
}

func (m *SpotMarketMap) GetRefMut(marketIndex uint16) (*types.SpotMarket, error) {
	mkt, ok := m.markets[marketIndex]
	if !ok {
		return nil, fmt.Errorf("state: spot market %d not in writable set", marketIndex)
	}
	return mkt, nil
}

// QuoteMarketIndex is the spot market index used as the quote currency for
// every perp market (USDC in the reference deployment).
const QuoteMarketIndex uint16 = 0
