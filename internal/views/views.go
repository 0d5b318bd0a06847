// Package views holds the screen controllers: local UI state, the API calls
// each screen makes, and the rules that turn responses into what is shown.
// Controllers do no rendering.
//
// Each fetch is split in two so a UI can run the network half off its event
// loop: a Begin/Set method returns a ticket and Fetch performs the call; the
// result is handed back through Apply, which ignores tickets that have since
// been superseded.
package views

import (
	"context"
	"errors"

	"cloudstocks/pkg/cloudstocks"
)

// StockAPI is the subset of the API client the stock screens use.
type StockAPI interface {
	ListStocks(ctx context.Context, industry string) ([]cloudstocks.StockSummary, error)
	GetStock(ctx context.Context, symbol string) (*cloudstocks.StockDetail, error)
	GetHistory(ctx context.Context, symbol string, p *cloudstocks.SearchParam, token string) ([]cloudstocks.HistoryRecord, error)
}

// AuthAPI is the subset of the API client the login and register screens use.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*cloudstocks.AuthResult, error)
	Register(ctx context.Context, email, password string) (*cloudstocks.AuthResult, error)
}

// Compile-time interface checks.
var _ StockAPI = (*cloudstocks.Client)(nil)
var _ AuthAPI = (*cloudstocks.Client)(nil)

func asAPIError(err error, target **cloudstocks.APIError) bool {
	return err != nil && errors.As(err, target)
}
