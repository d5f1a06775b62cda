package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"novaperp/core/events"
	"novaperp/core/types"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	return db
}

func TestStoreEmitTradeRecord(t *testing.T) {
	store := NewWithDB(setupTestDB(t))
	store.Emit(events.TradeRecord{
		Ts:          1000,
		MarketIndex: 0,
		MarketType:  types.MarketTypePerp,
		Taker:       "taker1",
		Maker:       "maker1",
		Direction:   types.Long,
		BaseAmount:  1_000_000_000,
		QuoteAmount: 100_000_000,
		FillPrice:   100_000_000,
		Method:      types.FulfillmentMatch,
	})

	var rows []TradeRow
	require.NoError(t, store.DB().Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, "taker1", rows[0].Taker)
	require.Equal(t, "long", rows[0].Direction)
	require.Equal(t, "match", rows[0].Method)
}

func TestStoreEmitLiquidationRecord(t *testing.T) {
	store := NewWithDB(setupTestDB(t))
	store.Emit(events.LiquidationRecord{
		Ts:            2000,
		LiquidationId: 1,
		Kind:          "perp",
		User:          "victim",
		Liquidator:    "keeper",
		LiquidatorFee: 1_000_000,
	})

	var rows []LiquidationRow
	require.NoError(t, store.DB().Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, "victim", rows[0].User)
}

func TestStoreEmitUnrecognizedFallsBackToEventRow(t *testing.T) {
	store := NewWithDB(setupTestDB(t))
	store.Emit(events.LPRecord{Ts: 3000, User: "lp1", Action: "mint"})

	var rows []EventRow
	require.NoError(t, store.DB().Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, events.TypeLPRecord, rows[0].Type)
	require.Equal(t, int64(3000), rows[0].Ts)
}

func TestExportTradesWritesCSVAndParquet(t *testing.T) {
	store := NewWithDB(setupTestDB(t))
	now := time.Unix(10_000, 0).UTC()
	store.Emit(events.TradeRecord{Ts: now.Unix(), MarketIndex: 0, Taker: "t", Maker: "m", BaseAmount: 1, QuoteAmount: 1, FillPrice: 1})

	dir := t.TempDir()
	csvPath, parquetPath, err := store.ExportTrades(dir, now.Add(-time.Minute), now.Add(time.Minute))
	require.NoError(t, err)

	require.FileExists(t, csvPath)
	require.FileExists(t, parquetPath)
	require.Equal(t, dir, filepath.Dir(csvPath))

	csvBytes, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	require.Contains(t, string(csvBytes), "taker")
}
