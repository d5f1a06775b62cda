package reporting

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

// parquetTradeRow is the flattened, parquet-tagged projection of a TradeRow,
// following recon/reconciler.go's parquetRow: every exported column is
// BYTE_ARRAY/UTF8 or a numeric primitive, no nested structures.
type parquetTradeRow struct {
	Ts            int64   `parquet:"name=ts, type=INT64"`
	MarketIndex   int32   `parquet:"name=market_index, type=INT32"`
	MarketType    string  `parquet:"name=market_type, type=BYTE_ARRAY, convertedtype=UTF8"`
	Taker         string  `parquet:"name=taker, type=BYTE_ARRAY, convertedtype=UTF8"`
	Maker         string  `parquet:"name=maker, type=BYTE_ARRAY, convertedtype=UTF8"`
	Direction     string  `parquet:"name=direction, type=BYTE_ARRAY, convertedtype=UTF8"`
	BaseAmount    int64   `parquet:"name=base_amount, type=INT64"`
	QuoteAmount   int64   `parquet:"name=quote_amount, type=INT64"`
	FillPrice     int64   `parquet:"name=fill_price, type=INT64"`
	Method        string  `parquet:"name=method, type=BYTE_ARRAY, convertedtype=UTF8"`
	QuoteSurplus  int64   `parquet:"name=quote_surplus, type=INT64"`
	JitBaseAmount int64   `parquet:"name=jit_base_amount, type=INT64"`
}

// ExportTrades writes every TradeRow between [start, end) to CSV and
// Snappy-compressed parquet files under dir, following
// recon.Reconciler.writeReportFiles/writeCSV/writeParquet's two-format
// archival pattern. Returns the two file paths written.
func (s *Store) ExportTrades(dir string, start, end time.Time) (csvPath, parquetPath string, err error) {
	var rows []TradeRow
	if err := s.db.Where("ts >= ? AND ts < ?", start.Unix(), end.Unix()).Order("ts asc").Find(&rows).Error; err != nil {
		return "", "", fmt.Errorf("reporting: query trades: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("reporting: mkdir %s: %w", dir, err)
	}
	stem := fmt.Sprintf("trades_%s_%s", start.Format("20060102"), end.Format("20060102"))
	csvPath = filepath.Join(dir, stem+".csv")
	parquetPath = filepath.Join(dir, stem+".parquet")

	if err := writeTradesCSV(csvPath, rows); err != nil {
		return "", "", err
	}
	if err := writeTradesParquet(parquetPath, rows); err != nil {
		return "", "", err
	}
	return csvPath, parquetPath, nil
}

func writeTradesCSV(path string, rows []TradeRow) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("reporting: create csv: %w", err)
	}
	defer file.Close()
	w := csv.NewWriter(file)
	header := []string{"ts", "market_index", "market_type", "taker", "maker", "direction", "base_amount", "quote_amount", "fill_price", "method", "quote_surplus", "jit_base_amount"}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("reporting: write csv header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			fmt.Sprintf("%d", row.Ts),
			fmt.Sprintf("%d", row.MarketIndex),
			row.MarketType,
			row.Taker,
			row.Maker,
			row.Direction,
			fmt.Sprintf("%d", row.BaseAmount),
			fmt.Sprintf("%d", row.QuoteAmount),
			fmt.Sprintf("%d", row.FillPrice),
			row.Method,
			fmt.Sprintf("%d", row.QuoteSurplus),
			fmt.Sprintf("%d", row.JitBaseAmount),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("reporting: write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("reporting: flush csv: %w", err)
	}
	return nil
}

func writeTradesParquet(path string, rows []TradeRow) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("reporting: create parquet: %w", err)
	}
	fw := writerfile.NewWriterFile(file)
	pw, err := writer.NewParquetWriter(fw, new(parquetTradeRow), 1)
	if err != nil {
		file.Close()
		return fmt.Errorf("reporting: parquet schema: %w", err)
	}
	pw.RowGroupSize = 128 * 1024 * 1024
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, row := range rows {
		pr := &parquetTradeRow{
			Ts:            row.Ts,
			MarketIndex:   int32(row.MarketIndex),
			MarketType:    row.MarketType,
			Taker:         row.Taker,
			Maker:         row.Maker,
			Direction:     row.Direction,
			BaseAmount:    row.BaseAmount,
			QuoteAmount:   row.QuoteAmount,
			FillPrice:     row.FillPrice,
			Method:        row.Method,
			QuoteSurplus:  row.QuoteSurplus,
			JitBaseAmount: row.JitBaseAmount,
		}
		if err := pw.Write(pr); err != nil {
			pw.WriteStop()
			file.Close()
			return fmt.Errorf("reporting: write parquet row: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		file.Close()
		return fmt.Errorf("reporting: flush parquet: %w", err)
	}
	return file.Close()
}
