package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/guptarohit/asciigraph"

	"cloudstocks/internal/apitest"
	"cloudstocks/internal/nav"
	"cloudstocks/internal/session"
	"cloudstocks/internal/store"
	"cloudstocks/internal/views"
	"cloudstocks/pkg/cloudstocks"
)

// setup starts a fake API and points the session and export dirs at a
// temp dir. It returns the base flags every command needs.
func setup(t *testing.T) (*apitest.Server, string, []string) {
	t.Helper()
	srv := apitest.NewServer()
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	for k, v := range map[string]string{
		"CLOUDSTOCKS_CONFIG":          "",
		"CLOUDSTOCKS_API_URL":         "",
		"CLOUDSTOCKS_API_TIMEOUT":     "",
		"CLOUDSTOCKS_SESSION_BACKEND": "",
		"CLOUDSTOCKS_SESSION_PATH":    filepath.Join(dir, "session.json"),
		"CLOUDSTOCKS_EXPORT_DIR":      dir,
		"LOG_LEVEL":                   "error",
	} {
		t.Setenv(k, v)
	}
	return srv, dir, []string{"--api", srv.URL, "--session-backend", "file"}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func with(base []string, args ...string) []string {
	return append(append([]string(nil), args...), base...)
}

func TestAuthFlow(t *testing.T) {
	_, _, base := setup(t)

	out, err := execute(t, with(base, "whoami")...)
	if err != nil || !strings.Contains(out, "not logged in") {
		t.Fatalf("whoami before login = %q, %v", out, err)
	}

	if _, err := execute(t, with(base, "register", "--email", "user@example.com", "--password", "hunter2")...); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := execute(t, with(base, "register", "--email", "user@example.com", "--password", "hunter2")...); err == nil || err.Error() != "User already exists!" {
		t.Errorf("duplicate register error = %v", err)
	}

	if _, err := execute(t, with(base, "login", "--email", "user@example.com", "--password", "nope")...); err == nil || err.Error() != "Incorrect email or password" {
		t.Errorf("bad login error = %v", err)
	}
	out, err = execute(t, with(base, "login", "--email", "user@example.com", "--password", "hunter2")...)
	if err != nil || !strings.Contains(out, "logged in as user@example.com") {
		t.Fatalf("login = %q, %v", out, err)
	}

	out, err = execute(t, with(base, "whoami")...)
	if err != nil || !strings.HasPrefix(out, "user@example.com (session expires") {
		t.Errorf("whoami after login = %q, %v", out, err)
	}

	out, err = execute(t, with(base, "stocks", "show", "AAL")...)
	if err != nil {
		t.Fatalf("stocks show: %v", err)
	}
	if strings.Contains(out, views.ProBadge) {
		t.Error("pro badge shown to authenticated user")
	}
	if !strings.Contains(out, "16/03/2020") || !strings.Contains(out, "20/03/2020") {
		t.Errorf("authenticated history missing range rows:\n%s", out)
	}

	if _, err := execute(t, with(base, "logout")...); err != nil {
		t.Fatalf("logout: %v", err)
	}
	out, _ = execute(t, with(base, "whoami")...)
	if !strings.Contains(out, "not logged in") {
		t.Errorf("whoami after logout = %q", out)
	}
}

func TestStocksList(t *testing.T) {
	_, _, base := setup(t)

	out, err := execute(t, with(base, "stocks", "list", "--industry", "Energy")...)
	if err != nil {
		t.Fatalf("stocks list: %v", err)
	}
	if !strings.Contains(out, "XOM") || strings.Contains(out, "AAPL") {
		t.Errorf("industry listing:\n%s", out)
	}

	out, err = execute(t, with(base, "stocks", "list", "--name", "zzz")...)
	if err != nil {
		t.Fatalf("stocks list --name: %v", err)
	}
	if strings.TrimSpace(out) != views.NoStocksMessage {
		t.Errorf("output = %q, want %q", out, views.NoStocksMessage)
	}

	out, _ = execute(t, with(base, "stocks", "list", "--industry", "Shipping")...)
	if strings.TrimSpace(out) != "Industry sector not found" {
		t.Errorf("unknown industry output = %q", out)
	}
}

func TestStocksShowAnonymousExport(t *testing.T) {
	_, dir, base := setup(t)

	out, err := execute(t, with(base, "stocks", "show", "AAL", "--from", "2020-03-16", "--export", dir)...)
	if err != nil {
		t.Fatalf("stocks show: %v", err)
	}
	if !strings.Contains(out, views.ProBadge) {
		t.Errorf("pro badge missing:\n%s", out)
	}
	if strings.Contains(out, "16/03/2020") {
		t.Errorf("anonymous output includes ranged history:\n%s", out)
	}

	recs, err := store.ReadFile(filepath.Join(dir, "AAL_latest_latest.parquet"))
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	if len(recs) != 1 {
		t.Errorf("exported %d records, want 1", len(recs))
	}
}

func TestStocksShowInvalidDate(t *testing.T) {
	_, _, base := setup(t)
	if _, err := execute(t, with(base, "stocks", "show", "AAL", "--from", "16/03/2020")...); err == nil {
		t.Error("invalid --from accepted")
	}
}

func TestArchive(t *testing.T) {
	srv, _, base := setup(t)
	srv.AddUser("user@example.com", "hunter2")
	if _, err := execute(t, with(base, "login", "--email", "user@example.com", "--password", "hunter2")...); err != nil {
		t.Fatalf("login: %v", err)
	}

	out, err := execute(t, with(base, "stocks", "show", "AAPL", "--archive")...)
	if err != nil || !strings.Contains(out, "archived 5 rows") {
		t.Fatalf("show --archive = %q, %v", out, err)
	}

	out, err = execute(t, with(base, "archive", "list")...)
	if err != nil || strings.TrimSpace(out) != "AAPL" {
		t.Errorf("archive list = %q, %v", out, err)
	}

	out, err = execute(t, with(base, "archive", "show", "AAPL", "--from", "2020-03-18", "--to", "2020-03-19")...)
	if err != nil {
		t.Fatalf("archive show: %v", err)
	}
	if !strings.Contains(out, "18/03/2020") || strings.Contains(out, "20/03/2020") {
		t.Errorf("archive show range:\n%s", out)
	}
}

type oldestFirstAPI struct{}

func (oldestFirstAPI) ListStocks(context.Context, string) ([]cloudstocks.StockSummary, error) {
	return nil, nil
}

func (oldestFirstAPI) GetStock(_ context.Context, sym string) (*cloudstocks.StockDetail, error) {
	return &cloudstocks.StockDetail{Name: "American Airlines Group", Symbol: sym, Industry: "Industrials"}, nil
}

func (oldestFirstAPI) GetHistory(context.Context, string, *cloudstocks.SearchParam, string) ([]cloudstocks.HistoryRecord, error) {
	out := make([]cloudstocks.HistoryRecord, 5)
	for i := range out {
		out[i] = cloudstocks.HistoryRecord{
			Timestamp: time.Date(2020, 3, 16+i, 14, 0, 0, 0, time.UTC),
			Close:     float64(i + 1),
		}
	}
	return out, nil
}

func TestPrintDetailChartRunsOldestToNewest(t *testing.T) {
	sess := session.New(session.NewMemoryStorage())
	token := apitest.MintToken("user@example.com", time.Now().Add(time.Hour))
	if err := sess.Login(token, "user@example.com"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := views.NewDetail("AAL", oldestFirstAPI{}, sess, &nav.RefetchSignal{}, cloudstocks.SearchParam{}, log)
	if err := d.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	var out bytes.Buffer
	printDetail(&out, d)

	rising := asciigraph.Plot([]float64{1, 2, 3, 4, 5}, asciigraph.Height(10), asciigraph.Caption("Closing price"))
	if !strings.Contains(out.String(), rising) {
		t.Errorf("chart does not plot closes 1..5 left to right:\n%s", out.String())
	}
}
