package views

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"cloudstocks/internal/nav"
	"cloudstocks/pkg/cloudstocks"
)

// NoStocksMessage replaces the table when the name filter hides every row.
const NoStocksMessage = "No stocks could be found for your search"

// ListingTitle is the window title of the listing screen.
const ListingTitle = "All Stocks - CloudStocks"

// ListingTicket identifies one listing request.
type ListingTicket struct {
	Seq      uint64
	Industry string
}

// Listing drives the all-stocks screen. The industry filter is applied by
// the server; the name filter is applied locally to the fetched rows.
type Listing struct {
	mu  sync.Mutex
	api StockAPI
	log *slog.Logger

	industry  string
	name      string
	seq       sequencer
	loaded    bool
	rows      []cloudstocks.StockSummary
	searchErr string
}

// NewListing creates the listing controller.
func NewListing(api StockAPI, log *slog.Logger) *Listing {
	return &Listing{api: api, log: log}
}

// Mount issues the initial request.
func (l *Listing) Mount() ListingTicket {
	l.mu.Lock()
	defer l.mu.Unlock()
	return ListingTicket{Seq: l.seq.next(), Industry: l.industry}
}

// SetIndustry changes the server-side filter and issues a new request.
func (l *Listing) SetIndustry(industry string) ListingTicket {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.industry = industry
	return ListingTicket{Seq: l.seq.next(), Industry: industry}
}

// Industry returns the server-side filter.
func (l *Listing) Industry() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.industry
}

// SetName changes the local name filter. No request is made.
func (l *Listing) SetName(name string) {
	l.mu.Lock()
	l.name = name
	l.mu.Unlock()
}

// Name returns the local name filter.
func (l *Listing) Name() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.name
}

// Fetch performs the request described by t.
func (l *Listing) Fetch(ctx context.Context, t ListingTicket) ([]cloudstocks.StockSummary, error) {
	return l.api.ListStocks(ctx, t.Industry)
}

// Apply hands the outcome of t back to the screen. It reports false when t
// was superseded.
func (l *Listing) Apply(t ListingTicket, rows []cloudstocks.StockSummary, err error) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.seq.settle(t.Seq) {
		l.log.Debug("dropping superseded listing response", "seq", t.Seq)
		return false
	}

	var apiErr *cloudstocks.APIError
	switch {
	case asAPIError(err, &apiErr):
		l.searchErr = apiErr.Message
		l.rows = nil
		l.loaded = true
	case err != nil:
		l.log.Error("fetching stock listing", "industry", t.Industry, "error", err)
	default:
		l.searchErr = ""
		l.rows = rows
		l.loaded = true
	}
	return true
}

// Load runs one request for the current filter on the calling goroutine.
func (l *Listing) Load(ctx context.Context) error {
	t := l.Mount()
	rows, err := l.Fetch(ctx, t)
	l.Apply(t, rows, err)
	if err != nil && !cloudstocks.IsAPIError(err) {
		return err
	}
	return nil
}

// Rows returns every fetched row, ignoring the name filter.
func (l *Listing) Rows() []cloudstocks.StockSummary {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rows
}

// Visible returns the fetched rows whose name contains the name filter,
// case-insensitively.
func (l *Listing) Visible() []cloudstocks.StockSummary {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.visibleLocked()
}

func (l *Listing) visibleLocked() []cloudstocks.StockSummary {
	if l.name == "" {
		return l.rows
	}
	needle := strings.ToLower(l.name)
	out := make([]cloudstocks.StockSummary, 0, len(l.rows))
	for _, r := range l.rows {
		if strings.Contains(strings.ToLower(r.Name), needle) {
			out = append(out, r)
		}
	}
	return out
}

// ShowTable reports whether the grid is rendered. It is hidden instead of
// drawn empty.
func (l *Listing) ShowTable() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.searchErr != "" {
		return false
	}
	return !l.loaded || len(l.visibleLocked()) > 0
}

// Message is the text shown in place of the grid, or "".
func (l *Listing) Message() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.searchErr != "" {
		return l.searchErr
	}
	if l.loaded && len(l.visibleLocked()) == 0 {
		return NoStocksMessage
	}
	return ""
}

// Select returns the path of the detail screen for symbol.
func (l *Listing) Select(symbol string) string {
	return nav.DetailPath(symbol)
}
