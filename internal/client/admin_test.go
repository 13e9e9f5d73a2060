package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
)

// seen is the request a cannedServer received
type seen struct {
	method string
	path   string
	query  string
	body   map[string]interface{}
}

// cannedServer answers every request with data in a success envelope
func cannedServer(t *testing.T, data interface{}) (*Client, *seen) {
	t.Helper()
	got := &seen{}
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.Path
		got.query = r.URL.RawQuery
		if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
			_ = json.Unmarshal(raw, &got.body)
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": data})
	})
	store := &MemoryStore{}
	_ = store.SetTokens("admin-token", "r1")
	return newTestClient(t, h, store), got
}

func TestAdminAndReportCalls(t *testing.T) {
	user := map[string]interface{}{"id": 9, "username": "luis", "role": "user", "status": "active"}
	stock := map[string]interface{}{"id": 3, "symbol": "ZZZ", "current_price": "150.50", "is_active": true}
	report := map[string]interface{}{"id": 4, "report_type": "profit_loss", "status": "pending"}
	price := decimal.RequireFromString("160")
	name := "Zeta Corp"

	tests := []struct {
		name   string
		data   interface{}
		run    func(t *testing.T, c *Client)
		method string
		path   string
		query  string
		body   map[string]interface{}
	}{
		{
			name: "list users",
			data: []interface{}{user},
			run: func(t *testing.T, c *Client) {
				users, _, err := c.AdminUsers(context.Background(), ListParams{Filters: map[string]string{"status": "pending"}})
				if err != nil || len(users) != 1 || users[0].Username != "luis" {
					t.Errorf("AdminUsers = %+v, %v", users, err)
				}
			},
			method: http.MethodGet, path: "/api/v1/admin/users", query: "status=pending",
		},
		{
			name: "get user",
			data: user,
			run: func(t *testing.T, c *Client) {
				if u, err := c.AdminUser(context.Background(), 9); err != nil || u.ID != 9 {
					t.Errorf("AdminUser = %+v, %v", u, err)
				}
			},
			method: http.MethodGet, path: "/api/v1/admin/users/9",
		},
		{
			name: "approve user",
			data: user,
			run: func(t *testing.T, c *Client) {
				if u, err := c.ApproveUser(context.Background(), 9); err != nil || u.Status != "active" {
					t.Errorf("ApproveUser = %+v, %v", u, err)
				}
			},
			method: http.MethodPost, path: "/api/v1/admin/users/9/approve",
		},
		{
			name: "suspend user",
			data: user,
			run: func(t *testing.T, c *Client) {
				if _, err := c.SuspendUser(context.Background(), 9); err != nil {
					t.Errorf("SuspendUser: %v", err)
				}
			},
			method: http.MethodPost, path: "/api/v1/admin/users/9/suspend",
		},
		{
			name: "activate user",
			data: user,
			run: func(t *testing.T, c *Client) {
				if _, err := c.ActivateUser(context.Background(), 9); err != nil {
					t.Errorf("ActivateUser: %v", err)
				}
			},
			method: http.MethodPost, path: "/api/v1/admin/users/9/activate",
		},
		{
			name: "list stocks",
			data: []interface{}{stock},
			run: func(t *testing.T, c *Client) {
				stocks, _, err := c.AdminStocks(context.Background(), ListParams{Page: 1})
				if err != nil || len(stocks) != 1 || stocks[0].Symbol != "ZZZ" {
					t.Errorf("AdminStocks = %+v, %v", stocks, err)
				}
			},
			method: http.MethodGet, path: "/api/v1/admin/stocks", query: "page=1",
		},
		{
			name: "create stock",
			data: stock,
			run: func(t *testing.T, c *Client) {
				s, err := c.CreateStock(context.Background(), &StockInput{
					Symbol: "ZZZ", Name: "Zeta", CurrentPrice: decimal.RequireFromString("150.50"), AvailableQuantity: 100,
				})
				if err != nil || !s.CurrentPrice.Equal(decimal.RequireFromString("150.5")) {
					t.Errorf("CreateStock = %+v, %v", s, err)
				}
			},
			method: http.MethodPost, path: "/api/v1/admin/stocks",
			body: map[string]interface{}{"symbol": "ZZZ", "name": "Zeta", "current_price": "150.5", "available_quantity": float64(100)},
		},
		{
			name: "update stock",
			data: stock,
			run: func(t *testing.T, c *Client) {
				if _, err := c.UpdateStock(context.Background(), 3, &StockUpdate{Name: &name, CurrentPrice: &price}); err != nil {
					t.Errorf("UpdateStock: %v", err)
				}
			},
			method: http.MethodPatch, path: "/api/v1/admin/stocks/3",
			body: map[string]interface{}{"name": "Zeta Corp", "current_price": "160"},
		},
		{
			name: "delete stock",
			data: nil,
			run: func(t *testing.T, c *Client) {
				if err := c.DeleteStock(context.Background(), 3); err != nil {
					t.Errorf("DeleteStock: %v", err)
				}
			},
			method: http.MethodDelete, path: "/api/v1/admin/stocks/3",
		},
		{
			name: "toggle stock",
			data: map[string]interface{}{"id": 3, "symbol": "ZZZ", "is_active": false},
			run: func(t *testing.T, c *Client) {
				if s, err := c.ToggleStock(context.Background(), 3); err != nil || s.IsActive {
					t.Errorf("ToggleStock = %+v, %v", s, err)
				}
			},
			method: http.MethodPost, path: "/api/v1/admin/stocks/3/toggle-active",
		},
		{
			name: "list transactions",
			data: []interface{}{map[string]interface{}{"id": 5, "transaction_type": "buy", "status": "completed"}},
			run: func(t *testing.T, c *Client) {
				txs, _, err := c.AdminTransactions(context.Background(), ListParams{Filters: map[string]string{"transaction_type": "buy"}})
				if err != nil || len(txs) != 1 || txs[0].Type != "buy" {
					t.Errorf("AdminTransactions = %+v, %v", txs, err)
				}
			},
			method: http.MethodGet, path: "/api/v1/admin/transactions", query: "transaction_type=buy",
		},
		{
			name: "set transaction status",
			data: map[string]interface{}{"id": 5, "status": "cancelled"},
			run: func(t *testing.T, c *Client) {
				if tx, err := c.SetTransactionStatus(context.Background(), 5, "cancelled"); err != nil || tx.Status != "cancelled" {
					t.Errorf("SetTransactionStatus = %+v, %v", tx, err)
				}
			},
			method: http.MethodPut, path: "/api/v1/admin/transactions/5/status",
			body: map[string]interface{}{"status": "cancelled"},
		},
		{
			name: "admin dashboard",
			data: map[string]interface{}{
				"total_users":         3,
				"users_by_status":     map[string]int{"active": 2, "pending": 1},
				"pending_users":       1,
				"volume_this_month":   "1200.00",
				"recent_transactions": []interface{}{map[string]interface{}{"id": 5}},
			},
			run: func(t *testing.T, c *Client) {
				d, err := c.AdminDashboard(context.Background())
				if err != nil {
					t.Fatalf("AdminDashboard: %v", err)
				}
				if d.TotalUsers != 3 || d.UsersByStatus["pending"] != 1 || len(d.RecentTransactions) != 1 {
					t.Errorf("Unexpected dashboard %+v", d)
				}
				if !d.VolumeThisMonth.Equal(decimal.NewFromInt(1200)) {
					t.Errorf("Expected volume 1200, got %s", d.VolumeThisMonth)
				}
			},
			method: http.MethodGet, path: "/api/v1/admin/dashboard",
		},
		{
			name: "request report",
			data: report,
			run: func(t *testing.T, c *Client) {
				r, err := c.RequestReport(context.Background(), &ReportRequest{
					ReportType: "profit_loss", StartDate: "2026-01-01", EndDate: "2026-01-31",
				})
				if err != nil || r.Status != "pending" {
					t.Errorf("RequestReport = %+v, %v", r, err)
				}
			},
			method: http.MethodPost, path: "/api/v1/reports",
			body: map[string]interface{}{"report_type": "profit_loss", "start_date": "2026-01-01", "end_date": "2026-01-31"},
		},
		{
			name: "list reports",
			data: []interface{}{report},
			run: func(t *testing.T, c *Client) {
				if rs, err := c.Reports(context.Background()); err != nil || len(rs) != 1 || rs[0].ReportType != "profit_loss" {
					t.Errorf("Reports = %+v, %v", rs, err)
				}
			},
			method: http.MethodGet, path: "/api/v1/reports",
		},
		{
			name: "get report",
			data: map[string]interface{}{"id": 4, "status": "completed", "content": "P/L 10.00"},
			run: func(t *testing.T, c *Client) {
				if r, err := c.Report(context.Background(), 4); err != nil || r.Content != "P/L 10.00" {
					t.Errorf("Report = %+v, %v", r, err)
				}
			},
			method: http.MethodGet, path: "/api/v1/reports/4",
		},
		{
			name: "dashboard stats",
			data: map[string]interface{}{"status": "active", "balance": "250.00", "positions_count": 2, "total_transactions": 7},
			run: func(t *testing.T, c *Client) {
				d, err := c.DashboardStats(context.Background())
				if err != nil || d.PositionsCount != 2 || d.TotalTransactions != 7 || !d.Balance.Equal(decimal.NewFromInt(250)) {
					t.Errorf("DashboardStats = %+v, %v", d, err)
				}
			},
			method: http.MethodGet, path: "/api/v1/dashboard/stats",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, got := cannedServer(t, tt.data)
			tt.run(t, c)

			if got.method != tt.method || got.path != tt.path {
				t.Errorf("Expected %s %s, got %s %s", tt.method, tt.path, got.method, got.path)
			}
			if got.query != tt.query {
				t.Errorf("Expected query %q, got %q", tt.query, got.query)
			}
			for k, want := range tt.body {
				if got.body[k] != want {
					t.Errorf("Expected body %s=%v, got %v", k, want, got.body[k])
				}
			}
		})
	}
}

func TestAdminCallSurfacesNotFound(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "error": "stock not found"})
	})
	notes := &recorder{}
	c := newTestClient(t, h, nil, WithNotifier(notes))

	err := c.DeleteStock(context.Background(), 42)
	if !IsStatus(err, http.StatusNotFound) {
		t.Fatalf("Expected a 404, got %v", err)
	}
	if msgs := notes.all(); len(msgs) != 1 || msgs[0] != "stock not found" {
		t.Errorf("Expected one notification, got %v", msgs)
	}
}

func TestCancelledCallIsNotNotified(t *testing.T) {
	c, _ := cannedServer(t, nil)
	notes := &recorder{}
	WithNotifier(notes)(c)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Fees(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if msgs := notes.all(); len(msgs) != 0 {
		t.Errorf("Expected no notification for a cancelled call, got %v", msgs)
	}
}
