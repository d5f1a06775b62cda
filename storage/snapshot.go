package storage

import (
	"encoding/json"
	"fmt"

	"novaperp/core/types"
)

// Key namespaces, mirroring the teacher's prefixed-key convention for a
// single flat KV store (storage/trie keys are namespaced the same way).
const (
	userPrefix  = "user/"
	perpPrefix  = "perp/"
	spotPrefix  = "spot/"
)

// SaveUser persists a user's full account state keyed by authority address.
func SaveUser(db Database, u *types.User) error {
	if u.Authority == "" {
		return fmt.Errorf("storage: user has no authority, refusing to persist")
	}
	blob, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("storage: encode user %s: %w", u.Authority, err)
	}
	return db.Put([]byte(userPrefix+u.Authority), blob)
}

// LoadUser fetches and decodes a user by authority address.
func LoadUser(db Database, authority string) (*types.User, error) {
	blob, err := db.Get([]byte(userPrefix + authority))
	if err != nil {
		return nil, fmt.Errorf("storage: load user %s: %w", authority, err)
	}
	u := &types.User{}
	if err := json.Unmarshal(blob, u); err != nil {
		return nil, fmt.Errorf("storage: decode user %s: %w", authority, err)
	}
	return u, nil
}

// SavePerpMarket persists a perp market snapshot keyed by market index.
func SavePerpMarket(db Database, m *types.PerpMarket) error {
	blob, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("storage: encode perp market %d: %w", m.MarketIndex, err)
	}
	return db.Put(perpMarketKey(m.MarketIndex), blob)
}

// LoadPerpMarket fetches and decodes a perp market by index.
func LoadPerpMarket(db Database, marketIndex uint16) (*types.PerpMarket, error) {
	blob, err := db.Get(perpMarketKey(marketIndex))
	if err != nil {
		return nil, fmt.Errorf("storage: load perp market %d: %w", marketIndex, err)
	}
	m := &types.PerpMarket{}
	if err := json.Unmarshal(blob, m); err != nil {
		return nil, fmt.Errorf("storage: decode perp market %d: %w", marketIndex, err)
	}
	return m, nil
}

// SaveSpotMarket persists a spot market snapshot keyed by market index.
func SaveSpotMarket(db Database, m *types.SpotMarket) error {
	blob, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("storage: encode spot market %d: %w", m.MarketIndex, err)
	}
	return db.Put(spotMarketKey(m.MarketIndex), blob)
}

// LoadSpotMarket fetches and decodes a spot market by index.
func LoadSpotMarket(db Database, marketIndex uint16) (*types.SpotMarket, error) {
	blob, err := db.Get(spotMarketKey(marketIndex))
	if err != nil {
		return nil, fmt.Errorf("storage: load spot market %d: %w", marketIndex, err)
	}
	m := &types.SpotMarket{}
	if err := json.Unmarshal(blob, m); err != nil {
		return nil, fmt.Errorf("storage: decode spot market %d: %w", marketIndex, err)
	}
	return m, nil
}

func perpMarketKey(marketIndex uint16) []byte {
	return []byte(fmt.Sprintf("%s%d", perpPrefix, marketIndex))
}

func spotMarketKey(marketIndex uint16) []byte {
	return []byte(fmt.Sprintf("%s%d", spotPrefix, marketIndex))
}
