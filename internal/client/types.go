package client

import (
	"net/url"
	"strconv"
	"time"

	"tikalinvest/internal/pkg/fees"

	"github.com/shopspring/decimal"
)

// User is the account as returned by /users/me and the auth endpoints
type User struct {
	ID              uint             `json:"id"`
	Email           string           `json:"email"`
	Username        string           `json:"username"`
	FullName        string           `json:"full_name"`
	Phone           string           `json:"phone,omitempty"`
	Address         string           `json:"address,omitempty"`
	Country         string           `json:"country,omitempty"`
	Role            string           `json:"role"`
	Status          string           `json:"status"`
	Balance         decimal.Decimal  `json:"balance"`
	ReferralCode    string           `json:"referral_code"`
	EmailVerified   bool             `json:"email_verified"`
	PortfolioValue  *decimal.Decimal `json:"portfolio_value,omitempty"`
	TotalProfitLoss *decimal.Decimal `json:"total_profit_loss,omitempty"`
	LastLogin       *time.Time       `json:"last_login,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

// IsAdmin reports whether the user has the admin role
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == "admin"
}

// Tokens is an access and refresh token pair
type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// AuthResult is the login and refresh payload
type AuthResult struct {
	User   *User  `json:"user"`
	Tokens Tokens `json:"tokens"`
}

// Meta is the pagination block of list responses
type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// Stock is a listing
type Stock struct {
	ID                uint            `json:"id"`
	Symbol            string          `json:"symbol"`
	Name              string          `json:"name"`
	Category          string          `json:"category"`
	Market            string          `json:"market"`
	CurrentPrice      decimal.Decimal `json:"current_price"`
	PreviousClose     decimal.Decimal `json:"previous_close"`
	ChangePercent     decimal.Decimal `json:"change_percent"`
	Volume            int64           `json:"volume"`
	AvailableQuantity int64           `json:"available_quantity"`
	IsActive          bool            `json:"is_active"`
	IsTradable        bool            `json:"is_tradable"`
	LastUpdated       time.Time       `json:"last_updated"`
}

// PricePoint is one entry of a stock's price history
type PricePoint struct {
	Price      decimal.Decimal `json:"price"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// StockHistory is a stock's price series
type StockHistory struct {
	StockID  uint         `json:"stock_id"`
	Symbol   string       `json:"symbol"`
	Interval string       `json:"interval"`
	Prices   []PricePoint `json:"prices"`
}

// WatchlistItem is a followed stock
type WatchlistItem struct {
	ID        uint      `json:"id"`
	StockID   uint      `json:"stock_id"`
	Stock     *Stock    `json:"stock"`
	CreatedAt time.Time `json:"created_at"`
}

// WatchlistToggle is the result of toggling a watchlist entry
type WatchlistToggle struct {
	StockID uint `json:"stock_id"`
	Watched bool `json:"watched"`
}

// Transaction is a ledger row
type Transaction struct {
	ID            uint            `json:"id"`
	UserID        uint            `json:"user_id"`
	StockID       *uint           `json:"stock_id"`
	Stock         *Stock          `json:"stock,omitempty"`
	Type          string          `json:"transaction_type"`
	Quantity      int64           `json:"quantity"`
	PricePerShare decimal.Decimal `json:"price_per_share"`
	Commission    decimal.Decimal `json:"commission"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	Status        string          `json:"status"`
	BankName      string          `json:"bank_name,omitempty"`
	AccountNumber string          `json:"account_number,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Symbol returns the traded stock's symbol, or "-" for wallet rows
func (t *Transaction) Symbol() string {
	if t.Stock == nil {
		return "-"
	}
	return t.Stock.Symbol
}

// TradeResult is the outcome of a buy or sell
type TradeResult struct {
	Transaction *Transaction    `json:"transaction"`
	NewBalance  decimal.Decimal `json:"new_balance"`
}

// TransactionStats totals the user's completed ledger
type TransactionStats struct {
	TotalTransactions  int64           `json:"total_transactions"`
	TotalInvested      decimal.Decimal `json:"total_invested"`
	TotalReceived      decimal.Decimal `json:"total_received"`
	TotalCommission    decimal.Decimal `json:"total_commission"`
	NetInvestment      decimal.Decimal `json:"net_investment"`
	TotalDeposited     decimal.Decimal `json:"total_deposited"`
	TotalWithdrawn     decimal.Decimal `json:"total_withdrawn"`
	RecentTransactions []*Transaction  `json:"recent_transactions"`
}

// Position is a holding valued at the current price
type Position struct {
	ID                uint            `json:"id"`
	StockID           uint            `json:"stock_id"`
	Symbol            string          `json:"symbol"`
	Name              string          `json:"name"`
	Quantity          int64           `json:"quantity"`
	AverageCost       decimal.Decimal `json:"average_cost"`
	CurrentPrice      decimal.Decimal `json:"current_price"`
	CostBasis         decimal.Decimal `json:"cost_basis"`
	CurrentValue      decimal.Decimal `json:"current_value"`
	ProfitLoss        decimal.Decimal `json:"profit_loss"`
	ProfitLossPercent decimal.Decimal `json:"profit_loss_percent"`
}

// PortfolioSummary totals holdings and cash
type PortfolioSummary struct {
	CashBalance       decimal.Decimal `json:"cash_balance"`
	TotalInvested     decimal.Decimal `json:"total_invested"`
	PortfolioValue    decimal.Decimal `json:"portfolio_value"`
	TotalValue        decimal.Decimal `json:"total_value"`
	TotalProfitLoss   decimal.Decimal `json:"total_profit_loss"`
	ProfitLossPercent decimal.Decimal `json:"profit_loss_percent"`
	PositionsCount    int             `json:"positions_count"`
}

// WalletResult is the outcome of a deposit or withdrawal
type WalletResult struct {
	Transaction *Transaction    `json:"transaction"`
	Fee         decimal.Decimal `json:"fee"`
	NewBalance  decimal.Decimal `json:"new_balance"`
}

// Report is a generated report. Content is the JSON document once the
// report has completed.
type Report struct {
	ID          uint       `json:"id"`
	ReportType  string     `json:"report_type"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     time.Time  `json:"end_date"`
	Status      string     `json:"status"`
	Content     string     `json:"content,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// DashboardStats are the figures on the user dashboard
type DashboardStats struct {
	Status            string          `json:"status"`
	Balance           decimal.Decimal `json:"balance"`
	PortfolioValue    decimal.Decimal `json:"portfolio_value"`
	TotalValue        decimal.Decimal `json:"total_value"`
	TotalProfitLoss   decimal.Decimal `json:"total_profit_loss"`
	ProfitLossPercent decimal.Decimal `json:"profit_loss_percent"`
	PositionsCount    int             `json:"positions_count"`
	WatchlistCount    int             `json:"watchlist_count"`
	TotalTransactions int64           `json:"total_transactions"`
}

// AdminDashboard is the system overview
type AdminDashboard struct {
	TotalUsers         int64            `json:"total_users"`
	UsersByStatus      map[string]int64 `json:"users_by_status"`
	PendingUsers       int64            `json:"pending_users"`
	NewUsersMonth      int64            `json:"new_users_this_month"`
	TotalCustomers     decimal.Decimal  `json:"total_customer_balance"`
	TotalStocks        int64            `json:"total_stocks"`
	ActiveStocks       int64            `json:"active_stocks"`
	TotalTransactions  int64            `json:"total_transactions"`
	TradesThisMonth    int64            `json:"trades_this_month"`
	VolumeThisMonth    decimal.Decimal  `json:"volume_this_month"`
	CommissionMonth    decimal.Decimal  `json:"commission_this_month"`
	RecentTransactions []*Transaction   `json:"recent_transactions"`
}

// Referral is one user who signed up with the caller's code
type Referral struct {
	Username  string    `json:"username"`
	Status    string    `json:"status"`
	BonusPaid bool      `json:"bonus_paid"`
	JoinedAt  time.Time `json:"joined_at"`
}

// ReferralSummary is the caller's referral activity
type ReferralSummary struct {
	ReferralCode  string          `json:"referral_code"`
	TotalReferred int             `json:"total_referred"`
	BonusEarned   decimal.Decimal `json:"bonus_earned"`
	Referrals     []Referral      `json:"referrals"`
}

// ============================================================
// Requests
// ============================================================

// RegisterInput is the sign-up form
type RegisterInput struct {
	Email            string `json:"email" validate:"required,email,max=100"`
	Username         string `json:"username" validate:"required,min=3,max=50"`
	Password         string `json:"password" validate:"required,password"`
	PasswordConfirm  string `json:"password_confirm" validate:"required,eqfield=Password"`
	FullName         string `json:"full_name,omitempty" validate:"max=150"`
	Phone            string `json:"phone,omitempty" validate:"max=30"`
	Country          string `json:"country,omitempty" validate:"max=60"`
	ReferralCodeUsed string `json:"referral_code_used,omitempty" validate:"max=16"`
}

// ProfileUpdate changes the fields that are set
type ProfileUpdate struct {
	Email    *string `json:"email,omitempty" validate:"omitempty,email,max=100"`
	FullName *string `json:"full_name,omitempty" validate:"omitempty,max=150"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=30"`
	Address  *string `json:"address,omitempty" validate:"omitempty,max=255"`
	Country  *string `json:"country,omitempty" validate:"omitempty,max=60"`
}

// PasswordChange is the change-password form
type PasswordChange struct {
	OldPassword        string `json:"old_password" validate:"required"`
	NewPassword        string `json:"new_password" validate:"required,password"`
	NewPasswordConfirm string `json:"new_password_confirm" validate:"required,eqfield=NewPassword"`
}

// PasswordReset is the reset-password form
type PasswordReset struct {
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required,password"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

// TradeRequest is a buy or sell order
type TradeRequest struct {
	StockID         uint   `json:"stock_id" validate:"required"`
	TransactionType string `json:"transaction_type" validate:"required,oneof=buy sell"`
	Quantity        int64  `json:"quantity" validate:"required,min=1"`
}

// DepositRequest is the deposit form
type DepositRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	BankName      string          `json:"bank_name" validate:"required,max=100"`
	AccountNumber string          `json:"account_number,omitempty" validate:"max=50"`
}

// WithdrawalRequest is the withdrawal form
type WithdrawalRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	BankName      string          `json:"bank_name" validate:"required,max=100"`
	AccountNumber string          `json:"account_number" validate:"required,max=50"`
}

// ReportRequest is the report form
type ReportRequest struct {
	ReportType string `json:"report_type" validate:"required,oneof=transaction_history profit_loss portfolio_summary"`
	StartDate  string `json:"start_date" validate:"required,date"`
	EndDate    string `json:"end_date" validate:"required,date"`
}

// StockInput creates a listing (admin)
type StockInput struct {
	Symbol            string          `json:"symbol" validate:"required,max=16"`
	Name              string          `json:"name" validate:"required,max=150"`
	Category          string          `json:"category,omitempty"`
	Market            string          `json:"market,omitempty"`
	CurrentPrice      decimal.Decimal `json:"current_price"`
	AvailableQuantity int64           `json:"available_quantity" validate:"gte=0"`
	IsActive          *bool           `json:"is_active,omitempty"`
	IsTradable        *bool           `json:"is_tradable,omitempty"`
}

// StockUpdate partially updates a listing (admin)
type StockUpdate struct {
	Name              *string          `json:"name,omitempty"`
	Category          *string          `json:"category,omitempty"`
	Market            *string          `json:"market,omitempty"`
	CurrentPrice      *decimal.Decimal `json:"current_price,omitempty"`
	AvailableQuantity *int64           `json:"available_quantity,omitempty"`
	IsActive          *bool            `json:"is_active,omitempty"`
	IsTradable        *bool            `json:"is_tradable,omitempty"`
}

// ListParams are the query parameters of list endpoints. Zero values are
// left out.
type ListParams struct {
	Page    int
	Limit   int
	Filters map[string]string
}

func (p ListParams) values() url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	for key, value := range p.Filters {
		if value != "" {
			v.Set(key, value)
		}
	}
	return v
}

// Wallet is the wallet page: balance, fee schedule and recent movements
type Wallet struct {
	Balance      decimal.Decimal `json:"balance"`
	Currency     string          `json:"currency"`
	Fees         fees.Rates      `json:"fees"`
	Transactions []*Transaction  `json:"transactions"`
}
