// Package store persists fetched price history on disk so it can be
// exported from the client and read back later.
package store

import (
	"context"
	"time"

	"cloudstocks/pkg/cloudstocks"
)

// HistoryStore persists and retrieves daily price history.
type HistoryStore interface {
	// WriteHistory merges records for symbol into storage.
	WriteHistory(ctx context.Context, symbol string, recs []cloudstocks.HistoryRecord) error

	// ReadHistory returns records for symbol within [start, end], oldest first.
	ReadHistory(ctx context.Context, symbol string, start, end time.Time) ([]cloudstocks.HistoryRecord, error)

	// ListSymbols returns every symbol with stored history.
	ListSymbols(ctx context.Context) ([]string, error)
}
