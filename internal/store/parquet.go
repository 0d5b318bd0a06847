package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"cloudstocks/pkg/cloudstocks"
)

// Compile-time interface check.
var _ HistoryStore = (*ParquetStore)(nil)

// ParquetStore implements HistoryStore using Parquet files on disk.
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a new ParquetStore rooted at the given data directory.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// HistoryRow is the Parquet schema for one day of history.
type HistoryRow struct {
	Symbol    string  `parquet:"symbol"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	Volume    int64   `parquet:"volume"`
}

// ---------------------------------------------------------------------------
// HistoryStore implementation
// ---------------------------------------------------------------------------

// WriteHistory writes records to Parquet files organized by symbol and year:
//
//	<DataDir>/<SYMBOL>/<YYYY>.parquet
//
// Records already on disk for the same day are replaced.
func (s *ParquetStore) WriteHistory(_ context.Context, symbol string, recs []cloudstocks.HistoryRecord) error {
	if len(recs) == 0 {
		return nil
	}

	groups := make(map[int][]HistoryRow)
	for _, r := range recs {
		y := r.Timestamp.UTC().Year()
		groups[y] = append(groups[y], toRow(symbol, r))
	}

	for year, rows := range groups {
		path := s.historyPath(symbol, year)

		existing, err := readParquetFile[HistoryRow](path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("reading history for %s/%d: %w", symbol, year, err)
		}
		merged := mergeRows(existing, rows)

		if err := writeParquetFile(path, merged); err != nil {
			return fmt.Errorf("writing history for %s/%d: %w", symbol, year, err)
		}
	}
	return nil
}

// ReadHistory reads records for symbol on the UTC days from start through
// end, both inclusive, so a record stamped during the end day is returned.
func (s *ParquetStore) ReadHistory(_ context.Context, symbol string, start, end time.Time) ([]cloudstocks.HistoryRecord, error) {
	first := utcDay(start)
	stop := utcDay(end).AddDate(0, 0, 1)

	var out []cloudstocks.HistoryRecord
	for year := first.Year(); year <= utcDay(end).Year(); year++ {
		rows, err := readParquetFile[HistoryRow](s.historyPath(symbol, year))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading history for %s/%d: %w", symbol, year, err)
		}
		for _, r := range rows {
			ts := time.UnixMilli(r.Timestamp).UTC()
			if ts.Before(first) || !ts.Before(stop) {
				continue
			}
			out = append(out, fromRow(r))
		}
	}
	return out, nil
}

func utcDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ListSymbols lists all symbols that have stored history.
func (s *ParquetStore) ListSymbols(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.DataDir)
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
// Single-file export
// ---------------------------------------------------------------------------

// ExportFile writes recs for symbol to a single Parquet file at path, oldest
// first, replacing any existing file.
func ExportFile(path, symbol string, recs []cloudstocks.HistoryRecord) error {
	rows := make([]HistoryRow, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, toRow(symbol, r))
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Timestamp < rows[j].Timestamp
	})
	if err := writeParquetFile(path, rows); err != nil {
		return fmt.Errorf("exporting %s: %w", symbol, err)
	}
	return nil
}

// ReadFile reads a file written by ExportFile.
func ReadFile(path string) ([]cloudstocks.HistoryRecord, error) {
	rows, err := readParquetFile[HistoryRow](path)
	if err != nil {
		return nil, err
	}
	out := make([]cloudstocks.HistoryRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, fromRow(r))
	}
	return out, nil
}

// ExportName is the default file name for an export of symbol over [from, to].
// Empty bounds are written as "latest".
func ExportName(symbol, from, to string) string {
	if from == "" {
		from = "latest"
	}
	if to == "" {
		to = "latest"
	}
	return fmt.Sprintf("%s_%s_%s.parquet", strings.ToUpper(symbol), from, to)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// historyPath returns the filesystem path for a history Parquet file.
func (s *ParquetStore) historyPath(symbol string, year int) string {
	return filepath.Join(s.DataDir, strings.ToUpper(symbol), fmt.Sprintf("%d.parquet", year))
}

func toRow(symbol string, r cloudstocks.HistoryRecord) HistoryRow {
	return HistoryRow{
		Symbol:    strings.ToUpper(symbol),
		Timestamp: r.Timestamp.UnixMilli(),
		Open:      r.Open,
		High:      r.High,
		Low:       r.Low,
		Close:     r.Close,
		Volume:    r.Volume,
	}
}

func fromRow(r HistoryRow) cloudstocks.HistoryRecord {
	return cloudstocks.HistoryRecord{
		Timestamp: time.UnixMilli(r.Timestamp).UTC(),
		Symbol:    r.Symbol,
		Open:      r.Open,
		High:      r.High,
		Low:       r.Low,
		Close:     r.Close,
		Volume:    r.Volume,
	}
}

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

// mergeRows deduplicates rows by timestamp, preferring incoming rows, and
// sorts the result oldest first.
func mergeRows(existing, incoming []HistoryRow) []HistoryRow {
	seen := make(map[int64]HistoryRow, len(existing)+len(incoming))
	for _, r := range existing {
		seen[r.Timestamp] = r
	}
	for _, r := range incoming {
		seen[r.Timestamp] = r
	}

	merged := make([]HistoryRow, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp < merged[j].Timestamp
	})
	return merged
}
