package client

import (
	"context"
	"fmt"
	"net/http"
)

// AdminUsers lists accounts. Filters: status, role, search.
func (c *Client) AdminUsers(ctx context.Context, params ListParams) ([]User, *Meta, error) {
	var out []User
	meta, err := c.call(ctx, call{method: http.MethodGet, path: "/admin/users", query: params.values()}, &out)
	if err != nil {
		return nil, nil, err
	}
	return out, meta, nil
}

func (c *Client) AdminUser(ctx context.Context, id uint) (*User, error) {
	var out User
	if _, err := c.call(ctx, call{method: http.MethodGet, path: fmt.Sprintf("/admin/users/%d", id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ApproveUser(ctx context.Context, id uint) (*User, error) {
	return c.userAction(ctx, id, "approve")
}

func (c *Client) SuspendUser(ctx context.Context, id uint) (*User, error) {
	return c.userAction(ctx, id, "suspend")
}

func (c *Client) ActivateUser(ctx context.Context, id uint) (*User, error) {
	return c.userAction(ctx, id, "activate")
}

func (c *Client) userAction(ctx context.Context, id uint, action string) (*User, error) {
	var out User
	if _, err := c.call(ctx, call{method: http.MethodPost, path: fmt.Sprintf("/admin/users/%d/%s", id, action)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminStocks lists every listing, inactive ones included
func (c *Client) AdminStocks(ctx context.Context, params ListParams) ([]Stock, *Meta, error) {
	var out []Stock
	meta, err := c.call(ctx, call{method: http.MethodGet, path: "/admin/stocks", query: params.values()}, &out)
	if err != nil {
		return nil, nil, err
	}
	return out, meta, nil
}

func (c *Client) CreateStock(ctx context.Context, in *StockInput) (*Stock, error) {
	var out Stock
	if _, err := c.call(ctx, call{method: http.MethodPost, path: "/admin/stocks", body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateStock(ctx context.Context, id uint, in *StockUpdate) (*Stock, error) {
	var out Stock
	if _, err := c.call(ctx, call{method: http.MethodPatch, path: fmt.Sprintf("/admin/stocks/%d", id), body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteStock(ctx context.Context, id uint) error {
	_, err := c.call(ctx, call{method: http.MethodDelete, path: fmt.Sprintf("/admin/stocks/%d", id)}, nil)
	return err
}

// ToggleStock flips a listing between active and inactive
func (c *Client) ToggleStock(ctx context.Context, id uint) (*Stock, error) {
	var out Stock
	if _, err := c.call(ctx, call{method: http.MethodPost, path: fmt.Sprintf("/admin/stocks/%d/toggle-active", id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminTransactions lists all ledger rows. Filters: user, transaction_type,
// status, stock.
func (c *Client) AdminTransactions(ctx context.Context, params ListParams) ([]Transaction, *Meta, error) {
	var out []Transaction
	meta, err := c.call(ctx, call{method: http.MethodGet, path: "/admin/transactions", query: params.values()}, &out)
	if err != nil {
		return nil, nil, err
	}
	return out, meta, nil
}

func (c *Client) SetTransactionStatus(ctx context.Context, id uint, status string) (*Transaction, error) {
	body := map[string]string{"status": status}
	var out Transaction
	if _, err := c.call(ctx, call{method: http.MethodPut, path: fmt.Sprintf("/admin/transactions/%d/status", id), body: body}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AdminDashboard(ctx context.Context) (*AdminDashboard, error) {
	var out AdminDashboard
	if _, err := c.call(ctx, call{method: http.MethodGet, path: "/admin/dashboard"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
