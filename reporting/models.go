// Package reporting persists a historical record of fills, liquidations,
// and funding payments into a gorm-backed relational store and exports it
// for archival, spec §11's "historical fill/liquidation store" and
// "archival export of fills" concerns, following the teacher's
// services/otc-gateway/models package (uuid-keyed gorm structs,
// AutoMigrate) and recon/reconciler.go (CSV + parquet export of a report
// row set).
package reporting

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TradeRow is the persisted row for every core/events.TradeRecord leg,
// mirroring the teacher's models.Invoice in shape (uuid primary key,
// indexed foreign-key-like columns, a CreatedAt gorm manages).
type TradeRow struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Ts            int64     `gorm:"index"`
	Slot          uint64
	MarketIndex   uint16 `gorm:"index"`
	MarketType    string `gorm:"size:16"`
	Taker         string `gorm:"size:128;index"`
	TakerOrderId  uint32
	Maker         string `gorm:"size:128;index"`
	MakerOrderId  uint32
	Direction     string `gorm:"size:8"`
	BaseAmount    int64
	QuoteAmount   int64
	FillPrice     int64
	Method        string `gorm:"size:16"`
	QuoteSurplus  int64
	JitBaseAmount int64
	CreatedAt     time.Time
}

// LiquidationRow is the persisted row for every LiquidationRecord.
type LiquidationRow struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey"`
	Ts                 int64     `gorm:"index"`
	Slot               uint64
	LiquidationId      uint32
	Kind               string `gorm:"size:32;index"`
	User               string `gorm:"size:128;index"`
	Liquidator         string `gorm:"size:128;index"`
	MarketIndex        uint16
	BaseAmount         int64
	QuoteAmount        int64
	LiquidatorFee      int64
	IfFee              int64
	UserBecameBankrupt bool
	CreatedAt          time.Time
}

// FundingPaymentRow is the persisted row for every FundingPaymentRecord.
type FundingPaymentRow struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Ts           int64     `gorm:"index"`
	User         string    `gorm:"size:128;index"`
	MarketIndex  uint16    `gorm:"index"`
	FundingDelta int64
	CreatedAt    time.Time
}

// EventRow is a catch-all landing table for any emitted record not given a
// dedicated typed table above (order placements/cancels, LP records,
// bankruptcy records), keeping the store total over every events.Event the
// engine emits rather than silently dropping unrecognized types.
type EventRow struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Ts         int64     `gorm:"index"`
	Type       string    `gorm:"size:64;index"`
	Attributes string    `gorm:"type:text"`
	CreatedAt  time.Time
}

// AutoMigrate creates or updates every reporting table, following
// models.AutoMigrate.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&TradeRow{},
		&LiquidationRow{},
		&FundingPaymentRow{},
		&EventRow{},
	)
}
