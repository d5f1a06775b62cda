package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"novaperp/core/types"
)

func TestMemDBPutGetRoundTrips(t *testing.T) {
	db := NewMemDB()
	require.NoError(t, db.Put([]byte("k"), []byte("v")))
	v, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), v)
}

func TestMemDBGetMissingKeyErrors(t *testing.T) {
	db := NewMemDB()
	_, err := db.Get([]byte("missing"))
	require.Error(t, err)
}

func TestSaveLoadUserRoundTrips(t *testing.T) {
	db := NewMemDB()
	u := &types.User{Authority: "nova1abc", NextOrderId: 3}
	u.PerpPositions[0] = types.PerpPosition{MarketIndex: 0, BaseAssetAmount: 42}

	require.NoError(t, SaveUser(db, u))
	loaded, err := LoadUser(db, "nova1abc")
	require.NoError(t, err)
	require.Equal(t, u.NextOrderId, loaded.NextOrderId)
	require.Equal(t, int64(42), loaded.PerpPositions[0].BaseAssetAmount)
}

func TestSaveLoadPerpMarketRoundTrips(t *testing.T) {
	db := NewMemDB()
	m := &types.PerpMarket{MarketIndex: 1, OracleId: "perp-1", MarginRatioInitial: 1000}
	require.NoError(t, SavePerpMarket(db, m))

	loaded, err := LoadPerpMarket(db, 1)
	require.NoError(t, err)
	require.Equal(t, m.OracleId, loaded.OracleId)
	require.Equal(t, m.MarginRatioInitial, loaded.MarginRatioInitial)
}
