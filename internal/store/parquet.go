package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"edgelab/internal/domain"
)

// Compile-time interface checks.
var _ SentimentStore = (*ParquetStore)(nil)
var _ PriceStore = (*ParquetStore)(nil)

// ParquetStore implements SentimentStore and PriceStore using Parquet files
// on disk, one file per symbol and year.
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a ParquetStore rooted at the given data directory.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// ---------------------------------------------------------------------------
// Parquet record types (on-disk schema)
// ---------------------------------------------------------------------------

// SentimentRecord is the Parquet schema for daily aggregated sentiment.
type SentimentRecord struct {
	Symbol       string  `parquet:"symbol"`
	Date         int64   `parquet:"date,timestamp(millisecond)"` // Unix ms, UTC midnight
	Score        float64 `parquet:"score"`
	Mentions     int64   `parquet:"mentions"`
	ModelVersion string  `parquet:"model_version"`
}

// CloseRecord is the Parquet schema for daily close prices.
type CloseRecord struct {
	Symbol    string  `parquet:"symbol"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Close     float64 `parquet:"close"`
}

// ---------------------------------------------------------------------------
// SentimentStore implementation
// ---------------------------------------------------------------------------

// WriteSentiment writes sentiment points grouped by (model, symbol, year).
// Each group lands at:
//
//	<DataDir>/sentiment/<MODEL>/<SYMBOL>/<YYYY>.parquet
//
// Existing records for the same (symbol, date, model_version) are replaced
// by the incoming batch.
func (s *ParquetStore) WriteSentiment(_ context.Context, points []domain.SentimentPoint) error {
	if len(points) == 0 {
		return nil
	}

	type key struct {
		model  string
		symbol string
		year   int
	}
	groups := make(map[key][]SentimentRecord)
	for _, p := range points {
		k := key{model: p.ModelVersion, symbol: p.Symbol, year: p.Date.UTC().Year()}
		groups[k] = append(groups[k], SentimentRecord{
			Symbol:       p.Symbol,
			Date:         p.Date.UnixMilli(),
			Score:        p.Score,
			Mentions:     p.Mentions,
			ModelVersion: p.ModelVersion,
		})
	}

	for k, records := range groups {
		path := s.sentimentPath(k.model, k.symbol, k.year)
		existing, _ := readParquetFile[SentimentRecord](path)
		merged := mergeSentimentRecords(existing, records)
		if err := writeParquetFile(path, merged); err != nil {
			return fmt.Errorf("writing sentiment for %s/%s/%d: %w", k.model, k.symbol, k.year, err)
		}
	}
	return nil
}

// ReadSentiment reads sentiment points for the symbol and model version in
// [start, end], ascending by date. Missing year files are skipped.
func (s *ParquetStore) ReadSentiment(_ context.Context, symbol, modelVersion string, start, end time.Time) ([]domain.SentimentPoint, error) {
	var points []domain.SentimentPoint
	for year := start.UTC().Year(); year <= end.UTC().Year(); year++ {
		path := s.sentimentPath(modelVersion, symbol, year)
		records, err := readParquetFile[SentimentRecord](path)
		if err != nil {
			continue
		}
		for _, r := range records {
			ts := time.UnixMilli(r.Date).UTC()
			if inRange(ts, start, end) {
				points = append(points, domain.SentimentPoint{
					Symbol:       r.Symbol,
					Date:         ts,
					Score:        r.Score,
					Mentions:     r.Mentions,
					ModelVersion: r.ModelVersion,
				})
			}
		}
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

// ---------------------------------------------------------------------------
// PriceStore implementation
// ---------------------------------------------------------------------------

// WritePrices writes price points grouped by symbol and year to:
//
//	<DataDir>/prices/<SYMBOL>/<YYYY>.parquet
func (s *ParquetStore) WritePrices(_ context.Context, points []domain.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	type key struct {
		symbol string
		year   int
	}
	groups := make(map[key][]CloseRecord)
	for _, p := range points {
		k := key{symbol: p.Symbol, year: p.Timestamp.UTC().Year()}
		groups[k] = append(groups[k], CloseRecord{
			Symbol:    p.Symbol,
			Timestamp: p.Timestamp.UnixMilli(),
			Close:     p.Close,
		})
	}

	for k, records := range groups {
		path := s.pricePath(k.symbol, k.year)
		existing, _ := readParquetFile[CloseRecord](path)
		merged := mergeCloseRecords(existing, records)
		if err := writeParquetFile(path, merged); err != nil {
			return fmt.Errorf("writing prices for %s/%d: %w", k.symbol, k.year, err)
		}
	}
	return nil
}

// ReadPrices reads price points for the symbol in [start, end], ascending by
// timestamp.
func (s *ParquetStore) ReadPrices(_ context.Context, symbol string, start, end time.Time) ([]domain.PricePoint, error) {
	var points []domain.PricePoint
	for year := start.UTC().Year(); year <= end.UTC().Year(); year++ {
		path := s.pricePath(symbol, year)
		records, err := readParquetFile[CloseRecord](path)
		if err != nil {
			continue
		}
		for _, r := range records {
			ts := time.UnixMilli(r.Timestamp).UTC()
			if inRange(ts, start, end) {
				points = append(points, domain.PricePoint{
					Symbol:    r.Symbol,
					Timestamp: ts,
					Close:     r.Close,
				})
			}
		}
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Timestamp.Before(points[j].Timestamp) })
	return points, nil
}

// ListSymbols lists all symbols that have stored prices.
func (s *ParquetStore) ListSymbols(_ context.Context) ([]string, error) {
	dir := filepath.Join(s.DataDir, "prices")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var symbols []string
	for _, e := range entries {
		if e.IsDir() {
			symbols = append(symbols, e.Name())
		}
	}
	sort.Strings(symbols)
	return symbols, nil
}

// ---------------------------------------------------------------------------
// Path helpers
// ---------------------------------------------------------------------------

func (s *ParquetStore) sentimentPath(model, symbol string, year int) string {
	return filepath.Join(s.DataDir, "sentiment", model, strings.ToUpper(symbol), fmt.Sprintf("%d.parquet", year))
}

func (s *ParquetStore) pricePath(symbol string, year int) string {
	return filepath.Join(s.DataDir, "prices", strings.ToUpper(symbol), fmt.Sprintf("%d.parquet", year))
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func inRange(ts, start, end time.Time) bool {
	return !ts.Before(start) && !ts.After(end)
}

// mergeSentimentRecords deduplicates by (symbol, date, model_version),
// preferring incoming records over existing ones. Results are sorted by date.
func mergeSentimentRecords(existing, incoming []SentimentRecord) []SentimentRecord {
	type key struct {
		symbol string
		date   int64
		model  string
	}
	seen := make(map[key]SentimentRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[key{r.Symbol, r.Date, r.ModelVersion}] = r
	}
	for _, r := range incoming {
		seen[key{r.Symbol, r.Date, r.ModelVersion}] = r
	}

	merged := make([]SentimentRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Date < merged[j].Date })
	return merged
}

// mergeCloseRecords deduplicates by (symbol, timestamp), preferring incoming
// records. Results are sorted by timestamp.
func mergeCloseRecords(existing, incoming []CloseRecord) []CloseRecord {
	type key struct {
		symbol string
		ts     int64
	}
	seen := make(map[key]CloseRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[key{r.Symbol, r.Timestamp}] = r
	}
	for _, r := range incoming {
		seen[key{r.Symbol, r.Timestamp}] = r
	}

	merged := make([]CloseRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Timestamp < merged[j].Timestamp })
	return merged
}
