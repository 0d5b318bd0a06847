// Package cloudstocks is a Go SDK for the CloudStocks REST API: the stock
// listing, per-symbol price history, and user login/registration.
package cloudstocks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// Client provides a Go SDK for interacting with the CloudStocks API. Calls
// are never retried; callers retry by issuing the call again.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient creates a new CloudStocks API client for the given origin.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API origin the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Login exchanges credentials for a bearer token. A rejection by the server
// is reported through AuthResult.Error and AuthResult.Message with a nil
// error; a non-nil error means the request itself failed.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	return c.auth(ctx, "/user/login", email, password)
}

// Register creates an account. It does not log the user in.
func (c *Client) Register(ctx context.Context, email, password string) (*AuthResult, error) {
	return c.auth(ctx, "/user/register", email, password)
}

func (c *Client) auth(ctx context.Context, path, email, password string) (*AuthResult, error) {
	body := map[string]string{"email": email, "password": password}
	var res AuthResult
	err := c.do(ctx, http.MethodPost, path, nil, body, "", func(data []byte) error {
		return json.Unmarshal(data, &res)
	})
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return &AuthResult{Error: true, Message: apiErr.Message}, nil
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ListStocks returns all stocks, or those whose industry matches industry
// when it is non-empty. A unique match is still returned as a slice.
func (c *Client) ListStocks(ctx context.Context, industry string) ([]StockSummary, error) {
	var q url.Values
	if industry != "" {
		q = url.Values{"industry": {industry}}
	}
	var out []StockSummary
	err := c.do(ctx, http.MethodGet, "/stocks/symbols", q, nil, "", func(data []byte) error {
		var err error
		out, err = decodeList[StockSummary](data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetStock returns the name and industry of symbol.
func (c *Client) GetStock(ctx context.Context, symbol string) (*StockDetail, error) {
	var out StockDetail
	err := c.do(ctx, http.MethodGet, "/stocks/"+url.PathEscape(symbol), nil, nil, "", func(data []byte) error {
		return json.Unmarshal(data, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetHistory returns price history for symbol. With a token it queries the
// authenticated endpoint, sending whichever bounds of p are set; without one
// it queries the public endpoint, which only serves the latest entry, and p
// is ignored. The result is always a slice.
func (c *Client) GetHistory(ctx context.Context, symbol string, p *SearchParam, token string) ([]HistoryRecord, error) {
	path := "/stocks/" + url.PathEscape(symbol)
	var q url.Values
	if token != "" {
		path = "/stocks/authed/" + url.PathEscape(symbol)
		q = url.Values{}
		if p != nil && p.From != "" {
			q.Set("from", p.From)
		}
		if p != nil && p.To != "" {
			q.Set("to", p.To)
		}
	}

	var out []HistoryRecord
	err := c.do(ctx, http.MethodGet, path, q, nil, token, func(data []byte) error {
		var err error
		out, err = decodeList[HistoryRecord](data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// do issues one request and hands a successful body to decode. A body
// carrying {"error": true} yields *APIError regardless of status.
func (c *Client) do(ctx context.Context, method, path string, q url.Values, body any, token string, decode func([]byte) error) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.log.Debug("api request", "method", method, "path", path, "query", q.Encode(), "request_id", reqID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	c.log.Debug("api response", "path", path, "status", resp.StatusCode, "bytes", len(data), "request_id", reqID)

	if apiErr := errorEnvelope(resp.StatusCode, data); apiErr != nil {
		return apiErr
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	if err := decode(data); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// errorEnvelope returns an *APIError when data is an object with error=true.
func errorEnvelope(status int, data []byte) *APIError {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	var env struct {
		Error   bool   `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(trimmed, &env); err != nil || !env.Error {
		return nil
	}
	return &APIError{Status: status, Message: env.Message}
}

// decodeList accepts either a JSON array or a single object and always
// returns a slice.
func decodeList[T any](data []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty body")
	}
	if trimmed[0] == '[' {
		var out []T
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	var one T
	if err := json.Unmarshal(trimmed, &one); err != nil {
		return nil, err
	}
	return []T{one}, nil
}
