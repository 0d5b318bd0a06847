package views

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cloudstocks/internal/nav"
	"cloudstocks/internal/session"
	"cloudstocks/pkg/cloudstocks"
)

// State is the detail screen's fetch state.
type State int

const (
	StateIdle State = iota
	StateFetching
	StateDisplaying
	StateNoData
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateDisplaying:
		return "displaying"
	default:
		return "no-data"
	}
}

// Placeholders shown until the header metadata arrives.
const (
	PlaceholderName     = "Stock Name"
	PlaceholderIndustry = "Stock Industry"
)

// ProBadge is shown to anonymous users on the detail screen.
const ProBadge = "Log in to unlock PRO features"

// ErrInvalidDate is returned by SetRange for a bound that is not YYYY-MM-DD.
var ErrInvalidDate = errors.New("date must be YYYY-MM-DD")

// HistoryTicket identifies one history request.
type HistoryTicket struct {
	Seq     uint64
	Symbol  string
	Param   *cloudstocks.SearchParam // nil for anonymous requests
	Token   string
	Refetch bool // issued while the refetch signal was raised
}

// Detail drives the per-symbol history screen.
type Detail struct {
	mu sync.Mutex

	symbol  string
	api     StockAPI
	sess    *session.Session
	refetch *nav.RefetchSignal
	log     *slog.Logger

	header       cloudstocks.StockDetail
	headerLoaded bool

	param  cloudstocks.SearchParam
	seq    sequencer
	phase  State // Idle, Displaying or NoData
	recs   []cloudstocks.HistoryRecord
	rows   []StockRow
	points []ChartPoint
	errMsg string
}

// NewDetail creates the controller for symbol with the given default range.
func NewDetail(symbol string, api StockAPI, sess *session.Session, refetch *nav.RefetchSignal, defaults cloudstocks.SearchParam, log *slog.Logger) *Detail {
	return &Detail{
		symbol:  symbol,
		api:     api,
		sess:    sess,
		refetch: refetch,
		log:     log.With("symbol", symbol),
		header: cloudstocks.StockDetail{
			Name:     PlaceholderName,
			Symbol:   symbol,
			Industry: PlaceholderIndustry,
		},
		param: defaults,
		phase: StateIdle,
	}
}

// Symbol returns the symbol this screen shows.
func (d *Detail) Symbol() string { return d.symbol }

// Begin issues a new history request. Authenticated sessions query the
// authed endpoint with the current range; anonymous ones never send a range.
// Displayed rows are kept until the response is applied.
func (d *Detail) Begin() HistoryTicket {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.beginLocked()
}

func (d *Detail) beginLocked() HistoryTicket {
	t := HistoryTicket{
		Seq:     d.seq.next(),
		Symbol:  d.symbol,
		Refetch: d.refetch.Raised(),
	}
	if d.sess.IsAuthenticated() {
		tok, _ := d.sess.Token()
		p := d.param
		t.Param = &p
		t.Token = tok
	}
	return t
}

// Mount issues the initial request.
func (d *Detail) Mount() HistoryTicket {
	return d.Begin()
}

// SetRange changes the date filter and issues a new request. Empty bounds
// are allowed and are left for the server to default.
func (d *Detail) SetRange(from, to string) (HistoryTicket, error) {
	for _, v := range []string{from, to} {
		if v == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", v); err != nil {
			return HistoryTicket{}, fmt.Errorf("%w: %q", ErrInvalidDate, v)
		}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.param = cloudstocks.SearchParam{From: from, To: to}
	return d.beginLocked(), nil
}

// PollRefetch issues a request when the refetch signal is raised and no
// refetch request is already outstanding.
func (d *Detail) PollRefetch() (HistoryTicket, bool) {
	if !d.refetch.Raised() {
		return HistoryTicket{}, false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seq.pending() {
		return HistoryTicket{}, false
	}
	return d.beginLocked(), true
}

// Fetch performs the request described by t. It does not touch screen state.
func (d *Detail) Fetch(ctx context.Context, t HistoryTicket) ([]cloudstocks.HistoryRecord, error) {
	return d.api.GetHistory(ctx, t.Symbol, t.Param, t.Token)
}

// Apply hands the outcome of t back to the screen. It reports false when t
// was superseded and the outcome was dropped.
func (d *Detail) Apply(t HistoryTicket, recs []cloudstocks.HistoryRecord, err error) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.seq.settle(t.Seq) {
		d.log.Debug("dropping superseded history response", "seq", t.Seq)
		return false
	}
	// A refetch is attempted once per signal, whatever the outcome.
	if t.Refetch {
		d.refetch.Clear()
	}

	switch {
	case cloudstocks.IsAPIError(err):
		d.phase = StateNoData
		d.errMsg = fmt.Sprintf("No entries available for %s for supplied date range", d.symbol)
		d.log.Info("no history for range", "from", d.param.From, "to", d.param.To, "error", err)
	case err != nil:
		// Transport failure: keep whatever is on screen.
		d.log.Error("fetching history", "error", err)
		return true
	default:
		d.recs = recs
		d.rows, d.points = BuildRows(recs)
		d.phase = StateDisplaying
		d.errMsg = ""
		d.log.Debug("history loaded", "rows", len(d.rows), "authed", t.Token != "")
	}
	return true
}

// Load runs one request to completion on the calling goroutine.
func (d *Detail) Load(ctx context.Context) error {
	t := d.Begin()
	recs, err := d.Fetch(ctx, t)
	d.Apply(t, recs, err)
	if err != nil && !cloudstocks.IsAPIError(err) {
		return err
	}
	return nil
}

// FetchHeader requests the header metadata.
func (d *Detail) FetchHeader(ctx context.Context) (*cloudstocks.StockDetail, error) {
	return d.api.GetStock(ctx, d.symbol)
}

// ApplyHeader stores header metadata the first time it arrives.
func (d *Detail) ApplyHeader(det *cloudstocks.StockDetail, err error) {
	if err != nil {
		d.log.Error("fetching stock details", "error", err)
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.headerLoaded || det == nil {
		return
	}
	d.header = cloudstocks.StockDetail{Name: det.Name, Symbol: d.symbol, Industry: det.Industry}
	d.headerLoaded = true
}

// LoadHeader runs FetchHeader and ApplyHeader on the calling goroutine.
func (d *Detail) LoadHeader(ctx context.Context) error {
	det, err := d.FetchHeader(ctx)
	d.ApplyHeader(det, err)
	return err
}

// Header returns the header metadata, or placeholders before it arrives.
func (d *Detail) Header() cloudstocks.StockDetail {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.header
}

// Title is the window title for the screen.
func (d *Detail) Title() string {
	h := d.Header()
	if h.Name == PlaceholderName {
		return d.symbol + " - CloudStocks"
	}
	return h.Name + " - CloudStocks"
}

// State returns StateFetching while a request is outstanding, otherwise the
// display state.
func (d *Detail) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seq.pending() {
		return StateFetching
	}
	return d.phase
}

// Range returns the current date filter.
func (d *Detail) Range() cloudstocks.SearchParam {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.param
}

// Rows returns the table rows. Callers must not modify the slice.
func (d *Detail) Rows() []StockRow {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rows
}

// Records returns the history behind the displayed rows, for export.
func (d *Detail) Records() []cloudstocks.HistoryRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.errMsg != "" {
		return nil
	}
	return d.recs
}

// Points returns the chart points. Callers must not modify the slice.
func (d *Detail) Points() []ChartPoint {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.points
}

// Message is the user-facing no-data message, or "".
func (d *Detail) Message() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.errMsg
}

// Authenticated reports whether the pro features (range filter, chart) are
// available.
func (d *Detail) Authenticated() bool {
	return d.sess.IsAuthenticated()
}

// ShowTable reports whether the history table is rendered.
func (d *Detail) ShowTable() bool {
	return d.Message() == ""
}

// ShowChart reports whether the closing-price chart is rendered.
func (d *Detail) ShowChart() bool {
	if !d.Authenticated() {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.errMsg == "" && len(d.points) >= MinChartPoints
}

// ShowProBadge reports whether the log-in prompt is shown.
func (d *Detail) ShowProBadge() bool {
	return !d.Authenticated()
}
