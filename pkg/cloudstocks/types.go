package cloudstocks

import (
	"errors"
	"fmt"
	"time"
)

// StockSummary is one row of the stock listing.
type StockSummary struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Industry string `json:"industry"`
}

// StockDetail is the header metadata for a single stock.
type StockDetail struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Industry string `json:"industry"`
}

// HistoryRecord is one day of prices as returned by the API.
type HistoryRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	Industry  string    `json:"industry"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volumes"`
}

// SearchParam bounds an authenticated history query. Dates are ISO
// YYYY-MM-DD; an empty bound is not sent.
type SearchParam struct {
	From string
	To   string
}

// AuthResult is the body of a login or register response. Error and Message
// are set when the server rejected the request.
type AuthResult struct {
	Token     string `json:"token,omitempty"`
	TokenType string `json:"token_type,omitempty"`
	ExpiresIn int    `json:"expires_in,omitempty"`
	Success   bool   `json:"success,omitempty"`
	Error     bool   `json:"error,omitempty"`
	Message   string `json:"message,omitempty"`
}

// APIError is an application-level failure reported in a response body as
// {"error": true, "message": ...}.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("cloudstocks api: %s (status %d)", e.Message, e.Status)
}

// IsAPIError reports whether err is, or wraps, an *APIError. Any other
// non-nil error from the client is a transport or decoding failure.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// Industries lists the sectors the listing can be filtered by.
var Industries = []string{
	"Consumer Discretionary",
	"Consumer Staples",
	"Energy",
	"Financials",
	"Health Care",
	"Industrials",
	"Information Technology",
	"Materials",
	"Real Estate",
	"Telecommunication Services",
	"Utilities",
}
