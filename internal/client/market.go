package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"tikalinvest/internal/pkg/fees"
)

// Stocks lists active listings. Filters: search, market, category, ordering.
func (c *Client) Stocks(ctx context.Context, params ListParams) ([]Stock, *Meta, error) {
	var out []Stock
	meta, err := c.call(ctx, call{method: http.MethodGet, path: "/stocks", query: params.values()}, &out)
	if err != nil {
		return nil, nil, err
	}
	return out, meta, nil
}

func (c *Client) Stock(ctx context.Context, id uint) (*Stock, error) {
	var out Stock
	if _, err := c.call(ctx, call{method: http.MethodGet, path: fmt.Sprintf("/stocks/%d", id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StockHistory returns the price series. An empty interval and a zero limit
// use the server defaults.
func (c *Client) StockHistory(ctx context.Context, id uint, interval string, limit int) (*StockHistory, error) {
	q := url.Values{}
	if interval != "" {
		q.Set("interval", interval)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var out StockHistory
	if _, err := c.call(ctx, call{method: http.MethodGet, path: fmt.Sprintf("/stocks/%d/history", id), query: q}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Trending(ctx context.Context) ([]Stock, error) {
	return c.stockList(ctx, "/stocks/trending")
}

func (c *Client) Gainers(ctx context.Context) ([]Stock, error) {
	return c.stockList(ctx, "/stocks/gainers")
}

func (c *Client) Losers(ctx context.Context) ([]Stock, error) {
	return c.stockList(ctx, "/stocks/losers")
}

func (c *Client) stockList(ctx context.Context, path string) ([]Stock, error) {
	var out []Stock
	if _, err := c.call(ctx, call{method: http.MethodGet, path: path}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Watchlist(ctx context.Context) ([]WatchlistItem, error) {
	var out []WatchlistItem
	if _, err := c.call(ctx, call{method: http.MethodGet, path: "/watchlist"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ToggleWatchlist adds the stock to the watchlist, or removes it if present
func (c *Client) ToggleWatchlist(ctx context.Context, stockID uint) (*WatchlistToggle, error) {
	body := map[string]uint{"stock_id": stockID}
	var out WatchlistToggle
	if _, err := c.call(ctx, call{method: http.MethodPost, path: "/watchlist/toggle", body: body}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Fees fetches the server's fee schedule
func (c *Client) Fees(ctx context.Context) (*fees.Rates, error) {
	var out fees.Rates
	if _, err := c.call(ctx, call{method: http.MethodGet, path: "/fees", anonymous: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
