package reporting

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	glebarez "github.com/glebarez/sqlite"

	"novaperp/core/events"
	"novaperp/core/types"
)

// Store is an events.Emitter that persists every emitted record into a
// gorm-backed relational database, following the teacher's
// services/otc-gateway/server package writing through a *gorm.DB handed
// in at construction.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// Open dials the configured backend (postgres in production, the
// pure-Go glebarez/sqlite dialector over modernc.org/sqlite for a
// dependency-free dev/test run) and auto-migrates the reporting schema,
// mirroring main.go's gorm.Open + models.AutoMigrate sequence.
func Open(driver, dsn string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite", "":
		dialector = glebarez.Open(dsn)
	default:
		return nil, fmt.Errorf("reporting: unknown driver %q", driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("reporting: open %s: %w", driver, err)
	}
	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("reporting: migrate: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// NewWithDB wraps an already-opened and migrated *gorm.DB, used by tests
// that open an in-memory sqlite handle directly.
func NewWithDB(db *gorm.DB) *Store {
	return &Store{db: db, logger: slog.Default()}
}

// Emit satisfies events.Emitter: dispatch each event to its typed table
// where one exists, else land it in the catch-all EventRow.
func (s *Store) Emit(e events.Event) {
	var err error
	switch rec := e.(type) {
	case events.TradeRecord:
		err = s.db.Create(&TradeRow{
			ID:            uuid.New(),
			Ts:            rec.Ts,
			Slot:          rec.Slot,
			MarketIndex:   rec.MarketIndex,
			MarketType:    marketTypeString(rec.MarketType),
			Taker:         rec.Taker,
			TakerOrderId:  rec.TakerOrderId,
			Maker:         rec.Maker,
			MakerOrderId:  rec.MakerOrderId,
			Direction:     directionString(rec.Direction),
			BaseAmount:    rec.BaseAmount,
			QuoteAmount:   rec.QuoteAmount,
			FillPrice:     rec.FillPrice,
			Method:        fulfillmentMethodString(rec.Method),
			QuoteSurplus:  rec.QuoteSurplus,
			JitBaseAmount: rec.JitBaseAmount,
		}).Error
	case events.LiquidationRecord:
		err = s.db.Create(&LiquidationRow{
			ID:                 uuid.New(),
			Ts:                 rec.Ts,
			Slot:               rec.Slot,
			LiquidationId:      rec.LiquidationId,
			Kind:               rec.Kind,
			User:               rec.User,
			Liquidator:         rec.Liquidator,
			MarketIndex:        rec.MarketIndex,
			BaseAmount:         rec.BaseAmount,
			QuoteAmount:        rec.QuoteAmount,
			LiquidatorFee:      rec.LiquidatorFee,
			IfFee:              rec.IfFee,
			UserBecameBankrupt: rec.UserBecameBankrupt,
		}).Error
	case events.FundingPaymentRecord:
		err = s.db.Create(&FundingPaymentRow{
			ID:           uuid.New(),
			Ts:           rec.Ts,
			User:         rec.User,
			MarketIndex:  rec.MarketIndex,
			FundingDelta: rec.FundingDelta,
		}).Error
	default:
		record := e.Record()
		var ts int64
		if raw, ok := record.Attributes["ts"]; ok {
			ts, _ = strconv.ParseInt(raw, 10, 64)
		}
		err = s.db.Create(&EventRow{
			ID:         uuid.New(),
			Ts:         ts,
			Type:       record.Type,
			Attributes: attributesString(record.Attributes),
		}).Error
	}
	if err != nil {
		s.logger.Error("reporting: persist event failed", "type", e.EventType(), "err", err)
	}
}

// DB exposes the underlying handle for export.go and admin queries.
func (s *Store) DB() *gorm.DB { return s.db }

func marketTypeString(t types.MarketType) string {
	if t == types.MarketTypeSpot {
		return "spot"
	}
	return "perp"
}

func directionString(d types.PositionDirection) string {
	if d == types.Short {
		return "short"
	}
	return "long"
}

func fulfillmentMethodString(m types.FulfillmentMethod) string {
	switch m {
	case types.FulfillmentMatch:
		return "match"
	case types.FulfillmentExternal:
		return "external"
	default:
		return "amm"
	}
}

func attributesString(attrs map[string]string) string {
	out := ""
	for k, v := range attrs {
		if out != "" {
			out += ","
		}
		out += k + "=" + v
	}
	return out
}
