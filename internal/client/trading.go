package client

import (
	"context"
	"fmt"
	"net/http"
)

// CreateTransaction places a buy or sell order at the current price
func (c *Client) CreateTransaction(ctx context.Context, in *TradeRequest) (*TradeResult, error) {
	var out TradeResult
	if _, err := c.call(ctx, call{method: http.MethodPost, path: "/transactions", body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Transactions lists the caller's ledger. Filters: transaction_type, status,
// stock.
func (c *Client) Transactions(ctx context.Context, params ListParams) ([]Transaction, *Meta, error) {
	var out []Transaction
	meta, err := c.call(ctx, call{method: http.MethodGet, path: "/transactions", query: params.values()}, &out)
	if err != nil {
		return nil, nil, err
	}
	return out, meta, nil
}

func (c *Client) Transaction(ctx context.Context, id uint) (*Transaction, error) {
	var out Transaction
	if _, err := c.call(ctx, call{method: http.MethodGet, path: fmt.Sprintf("/transactions/%d", id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) TransactionStats(ctx context.Context) (*TransactionStats, error) {
	var out TransactionStats
	if _, err := c.call(ctx, call{method: http.MethodGet, path: "/transactions/stats"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Portfolio returns the caller's open positions
func (c *Client) Portfolio(ctx context.Context) ([]Position, error) {
	var out []Position
	if _, err := c.call(ctx, call{method: http.MethodGet, path: "/portfolio"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) PortfolioSummary(ctx context.Context) (*PortfolioSummary, error) {
	var out PortfolioSummary
	if _, err := c.call(ctx, call{method: http.MethodGet, path: "/portfolio/summary"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Wallet returns the balance and a page of deposits and withdrawals
func (c *Client) Wallet(ctx context.Context, params ListParams) (*Wallet, *Meta, error) {
	var out Wallet
	meta, err := c.call(ctx, call{method: http.MethodGet, path: "/wallet", query: params.values()}, &out)
	if err != nil {
		return nil, nil, err
	}
	return &out, meta, nil
}

func (c *Client) Deposit(ctx context.Context, in *DepositRequest) (*WalletResult, error) {
	var out WalletResult
	if _, err := c.call(ctx, call{method: http.MethodPost, path: "/wallet/deposit", body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Withdraw(ctx context.Context, in *WithdrawalRequest) (*WalletResult, error) {
	var out WalletResult
	if _, err := c.call(ctx, call{method: http.MethodPost, path: "/wallet/withdrawal", body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RequestReport queues a report. It starts out pending.
func (c *Client) RequestReport(ctx context.Context, in *ReportRequest) (*Report, error) {
	var out Report
	if _, err := c.call(ctx, call{method: http.MethodPost, path: "/reports", body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Reports(ctx context.Context) ([]Report, error) {
	var out []Report
	if _, err := c.call(ctx, call{method: http.MethodGet, path: "/reports"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Report(ctx context.Context, id uint) (*Report, error) {
	var out Report
	if _, err := c.call(ctx, call{method: http.MethodGet, path: fmt.Sprintf("/reports/%d", id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	var out DashboardStats
	if _, err := c.call(ctx, call{method: http.MethodGet, path: "/dashboard/stats"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
