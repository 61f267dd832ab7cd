package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/parquet-go/parquet-go"

	"stockboard/internal/domain"
)

// BarRecord is the Parquet schema for archived daily bars.
type BarRecord struct {
	Symbol string  `parquet:"symbol"`
	Date   int64   `parquet:"date,timestamp(millisecond)"` // UTC midnight, Unix ms
	Open   float64 `parquet:"open"`
	High   float64 `parquet:"high"`
	Low    float64 `parquet:"low"`
	Close  float64 `parquet:"close"`
	Volume int64   `parquet:"volume"`
}

// ExportBars writes bars to a Parquet file at path, merging with any records
// already in the file. Rows are deduplicated by (symbol, date), incoming
// values win, and the result is sorted by symbol then date.
func ExportBars(path string, bars []domain.DailyBar) error {
	incoming := make([]BarRecord, 0, len(bars))
	for _, b := range bars {
		incoming = append(incoming, BarRecord{
			Symbol: b.Symbol,
			Date:   domain.Day(b.Date).UnixMilli(),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		})
	}

	existing, _ := parquet.ReadFile[BarRecord](path)
	merged := mergeBarRecords(existing, incoming)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating archive dir: %w", err)
	}
	if err := parquet.WriteFile(path, merged); err != nil {
		return fmt.Errorf("writing archive %s: %w", path, err)
	}
	return nil
}

// ImportBars reads all bars from a Parquet archive file.
func ImportBars(path string) ([]domain.DailyBar, error) {
	records, err := parquet.ReadFile[BarRecord](path)
	if err != nil {
		return nil, fmt.Errorf("reading archive %s: %w", path, err)
	}

	bars := make([]domain.DailyBar, 0, len(records))
	for _, r := range records {
		bars = append(bars, domain.DailyBar{
			Symbol: r.Symbol,
			Date:   time.UnixMilli(r.Date).UTC(),
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		})
	}
	return bars, nil
}

// mergeBarRecords deduplicates records by (symbol, date), preferring incoming
// over existing.
func mergeBarRecords(existing, incoming []BarRecord) []BarRecord {
	type key struct {
		symbol string
		date   int64
	}
	seen := make(map[key]BarRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[key{r.Symbol, r.Date}] = r
	}
	for _, r := range incoming {
		seen[key{r.Symbol, r.Date}] = r
	}

	merged := make([]BarRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Symbol != merged[j].Symbol {
			return merged[i].Symbol < merged[j].Symbol
		}
		return merged[i].Date < merged[j].Date
	})
	return merged
}
