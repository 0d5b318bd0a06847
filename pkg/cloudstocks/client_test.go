package cloudstocks

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cloudstocks/internal/apitest"
)

func TestNewClient(t *testing.T) {
	baseURL := "http://localhost:3000/"
	c := NewClient(baseURL)

	if c == nil {
		t.Fatal("expected non-nil client")
	}

	if c.baseURL != "http://localhost:3000" {
		t.Errorf("expected trailing slash trimmed, got %q", c.baseURL)
	}

	if c.httpClient == nil {
		t.Fatal("expected non-nil httpClient")
	}
	if c.httpClient.Timeout != 0 {
		t.Errorf("expected no default timeout, got %v", c.httpClient.Timeout)
	}
}

func TestLoginSuccess(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	srv.AddUser("user@example.com", "hunter2")

	c := NewClient(srv.URL)
	res, err := c.Login(context.Background(), "user@example.com", "hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Error {
		t.Fatalf("Login result error = true, message %q", res.Message)
	}
	if res.Token == "" || res.TokenType != "Bearer" {
		t.Errorf("Login result = %+v, want bearer token", res)
	}

	req := srv.LastRequest()
	if req.Method != http.MethodPost || req.Path != "/user/login" {
		t.Errorf("request = %s %s, want POST /user/login", req.Method, req.Path)
	}
	if req.RequestID == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestLoginRejected(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	srv.AddUser("user@example.com", "hunter2")

	res, err := NewClient(srv.URL).Login(context.Background(), "user@example.com", "wrong")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !res.Error || res.Message != "Incorrect email or password" {
		t.Errorf("Login result = %+v, want error with message", res)
	}
	if res.Token != "" {
		t.Errorf("rejected login carried token %q", res.Token)
	}
}

func TestRegister(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	c := NewClient(srv.URL)

	res, err := c.Register(context.Background(), "new@example.com", "pw")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if res.Error || res.Token != "" {
		t.Errorf("Register result = %+v, want success without token", res)
	}

	res, err = c.Register(context.Background(), "new@example.com", "pw")
	if err != nil {
		t.Fatalf("Register again: %v", err)
	}
	if !res.Error || res.Message != "User already exists!" {
		t.Errorf("duplicate Register result = %+v, want conflict message", res)
	}
}

func TestListStocks(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	c := NewClient(srv.URL)

	all, err := c.ListStocks(context.Background(), "")
	if err != nil {
		t.Fatalf("ListStocks: %v", err)
	}
	if len(all) != len(apitest.FixtureStocks) {
		t.Errorf("got %d stocks, want %d", len(all), len(apitest.FixtureStocks))
	}
	if q := srv.LastRequest().Query; len(q) != 0 {
		t.Errorf("unfiltered listing sent query %v", q)
	}
}

func TestListStocksSingleObjectNormalised(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()

	// "Energy" matches only XOM; the server answers with a bare object.
	got, err := NewClient(srv.URL).ListStocks(context.Background(), "Energy")
	if err != nil {
		t.Fatalf("ListStocks: %v", err)
	}
	if len(got) != 1 || got[0].Symbol != "XOM" {
		t.Fatalf("got %+v, want one XOM row", got)
	}
	if v := srv.LastRequest().Query.Get("industry"); v != "Energy" {
		t.Errorf("industry query = %q, want Energy", v)
	}
}

func TestListStocksNoMatch(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()

	_, err := NewClient(srv.URL).ListStocks(context.Background(), "Shipping")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("ListStocks error = %v, want *APIError", err)
	}
	if apiErr.Message != "Industry sector not found" || apiErr.Status != http.StatusNotFound {
		t.Errorf("APIError = %+v", apiErr)
	}
}

func TestGetStock(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()

	d, err := NewClient(srv.URL).GetStock(context.Background(), "AAL")
	if err != nil {
		t.Fatalf("GetStock: %v", err)
	}
	if d.Name != "American Airlines Group" || d.Industry != "Industrials" || d.Symbol != "AAL" {
		t.Errorf("GetStock = %+v", d)
	}
}

func TestGetHistoryAnonymous(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()

	recs, err := NewClient(srv.URL).GetHistory(context.Background(), "AAL",
		&SearchParam{From: "2020-03-16", To: "2020-03-20"}, "")
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want latest only", len(recs))
	}
	want := time.Date(2020, 3, 20, 0, 0, 0, 0, time.UTC)
	if !recs[0].Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", recs[0].Timestamp, want)
	}
	if recs[0].Volume != 5_000_000 {
		t.Errorf("Volume = %d, want 5000000", recs[0].Volume)
	}

	req := srv.LastRequest()
	if req.Path != "/stocks/AAL" || len(req.Query) != 0 || req.Authorization != "" {
		t.Errorf("anonymous request = %+v, want bare /stocks/AAL", req)
	}
}

func TestGetHistoryAuthed(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	token := apitest.MintToken("user@example.com", time.Now().Add(time.Hour))

	recs, err := NewClient(srv.URL).GetHistory(context.Background(), "AAL",
		&SearchParam{From: "2020-03-17", To: "2020-03-19"}, token)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}

	req := srv.LastRequest()
	if req.Path != "/stocks/authed/AAL" {
		t.Errorf("path = %q, want /stocks/authed/AAL", req.Path)
	}
	if req.Authorization != "Bearer "+token {
		t.Errorf("Authorization = %q, want bearer token", req.Authorization)
	}
	if req.Query.Get("from") != "2020-03-17" || req.Query.Get("to") != "2020-03-19" {
		t.Errorf("query = %v", req.Query)
	}
}

func TestGetHistoryOmitsEmptyBound(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	token := apitest.MintToken("user@example.com", time.Now().Add(time.Hour))

	_, err := NewClient(srv.URL).GetHistory(context.Background(), "AAL", &SearchParam{From: "2020-03-19"}, token)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	q := srv.LastRequest().Query
	if _, ok := q["to"]; ok {
		t.Errorf("empty to bound was sent: %v", q)
	}
	if q.Get("from") != "2020-03-19" {
		t.Errorf("from = %q, want 2020-03-19", q.Get("from"))
	}
}

func TestGetHistoryNoEntriesIsAPIError(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	token := apitest.MintToken("user@example.com", time.Now().Add(time.Hour))

	_, err := NewClient(srv.URL).GetHistory(context.Background(), "AAL",
		&SearchParam{From: "2021-01-01", To: "2021-02-01"}, token)
	if !IsAPIError(err) {
		t.Fatalf("error = %v, want *APIError", err)
	}
}

func TestErrorFieldOnSuccessStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"error": true, "message": "nothing here"}`))
	}))
	defer ts.Close()

	_, err := NewClient(ts.URL).GetHistory(context.Background(), "AAL", nil, "")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "nothing here" || apiErr.Status != http.StatusOK {
		t.Fatalf("error = %v, want APIError(200, nothing here)", err)
	}
}

func TestTransportErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/stocks/BAD" {
			w.Write([]byte(`<html>`))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()
	c := NewClient(ts.URL)

	if _, err := c.GetStock(context.Background(), "BAD"); err == nil || IsAPIError(err) {
		t.Errorf("malformed body error = %v, want transport error", err)
	}
	if _, err := c.ListStocks(context.Background(), ""); err == nil || IsAPIError(err) {
		t.Errorf("502 error = %v, want transport error", err)
	}

	ts.Close()
	if _, err := c.Login(context.Background(), "a", "b"); err == nil {
		t.Error("Login against closed server returned nil error")
	}
}

func TestDecodeList(t *testing.T) {
	got, err := decodeList[StockSummary]([]byte(` {"name":"A","symbol":"A","industry":"X"} `))
	if err != nil || len(got) != 1 || got[0].Symbol != "A" {
		t.Errorf("object: got %+v, %v", got, err)
	}
	got, err = decodeList[StockSummary]([]byte(`[{"symbol":"A"},{"symbol":"B"}]`))
	if err != nil || len(got) != 2 {
		t.Errorf("array: got %+v, %v", got, err)
	}
	if _, err := decodeList[StockSummary]([]byte("  ")); err == nil {
		t.Error("empty body: expected error")
	}
}
