package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ============================================================
// Accounts
// ============================================================

// User represents users table
type User struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	Email             string          `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Username          string          `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Password          string          `gorm:"size:255;not null" json:"-"`
	FullName          string          `gorm:"size:150" json:"full_name"`
	Phone             string          `gorm:"size:30" json:"phone"`
	Address           string          `gorm:"size:255" json:"address"`
	Country           string          `gorm:"size:60" json:"country"`
	Role              string          `gorm:"size:20;default:'user'" json:"role"`
	Status            string          `gorm:"size:20;index;default:'pending'" json:"status"`
	Balance           decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"balance"`
	ReferralCode      string          `gorm:"uniqueIndex;size:16;not null" json:"referral_code"`
	ReferredByID      *uint           `gorm:"index" json:"referred_by_id"`
	ReferralBonusPaid bool            `gorm:"default:false" json:"-"`
	EmailVerified     bool            `gorm:"default:false" json:"email_verified"`
	LastLogin         *time.Time      `json:"last_login"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt         gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
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
	UpdatedAt       time.Time        `json:"updated_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		Username:      u.Username,
		FullName:      u.FullName,
		Phone:         u.Phone,
		Address:       u.Address,
		Country:       u.Country,
		Role:          u.Role,
		Status:        u.Status,
		Balance:       u.Balance,
		ReferralCode:  u.ReferralCode,
		EmailVerified: u.EmailVerified,
		LastLogin:     u.LastLogin,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// PasswordReset represents password_resets table
type PasswordReset struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;uniqueIndex" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	UsedAt    *time.Time `json:"used_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (PasswordReset) TableName() string {
	return "password_resets"
}

func (pr *PasswordReset) Usable() bool {
	return pr.UsedAt == nil && time.Now().Before(pr.ExpiresAt)
}

// ============================================================
// Market
// ============================================================

// Stock represents stocks table
type Stock struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	Symbol            string          `gorm:"uniqueIndex;size:16;not null" json:"symbol"`
	Name              string          `gorm:"size:150;not null" json:"name"`
	Category          string          `gorm:"size:60;index" json:"category"`
	Market            string          `gorm:"size:30;index" json:"market"`
	CurrentPrice      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"current_price"`
	PreviousClose     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"previous_close"`
	ChangePercent     decimal.Decimal `gorm:"type:decimal(9,2);not null;default:0" json:"change_percent"`
	Volume            int64           `gorm:"default:0" json:"volume"`
	AvailableQuantity int64           `gorm:"default:0" json:"available_quantity"`
	IsActive          bool            `gorm:"not null" json:"is_active"`
	IsTradable        bool            `gorm:"not null" json:"is_tradable"`
	LastUpdated       time.Time       `json:"last_updated"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt         gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (Stock) TableName() string {
	return "stocks"
}

// Tradable reports whether orders may be placed on the stock
func (s *Stock) Tradable() bool {
	return s.IsActive && s.IsTradable
}

// StockPrice represents stock_prices table (price history)
type StockPrice struct {
	ID         uint            `gorm:"primaryKey" json:"-"`
	StockID    uint            `gorm:"index:idx_stock_recorded;not null" json:"stock_id"`
	Price      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"price"`
	RecordedAt time.Time       `gorm:"index:idx_stock_recorded;not null" json:"recorded_at"`
}

func (StockPrice) TableName() string {
	return "stock_prices"
}

// ============================================================
// Ledger & holdings
// ============================================================

// Transaction represents transactions table
type Transaction struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	UserID        uint            `gorm:"index;not null" json:"user_id"`
	StockID       *uint           `gorm:"index" json:"stock_id"`
	Stock         *Stock          `gorm:"foreignKey:StockID" json:"stock,omitempty"`
	Type          string          `gorm:"column:transaction_type;size:20;index;not null" json:"transaction_type"`
	Quantity      int64           `gorm:"default:0" json:"quantity"`
	PricePerShare decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"price_per_share"`
	Commission    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"commission"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total_amount"`
	BalanceAfter  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"balance_after"`
	Status        string          `gorm:"size:20;index;default:'completed'" json:"status"`
	BankName      string          `gorm:"size:100" json:"bank_name,omitempty"`
	AccountNumber string          `gorm:"size:50" json:"account_number,omitempty"`
	Note          string          `gorm:"size:255" json:"note,omitempty"`
	CreatedAt     time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// Position represents positions table (one row per user and stock held)
type Position struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	UserID      uint            `gorm:"uniqueIndex:idx_position_user_stock;not null" json:"user_id"`
	StockID     uint            `gorm:"uniqueIndex:idx_position_user_stock;not null" json:"stock_id"`
	Stock       Stock           `gorm:"foreignKey:StockID" json:"stock"`
	Quantity    int64           `gorm:"not null" json:"quantity"`
	AverageCost decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"average_cost"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Position) TableName() string {
	return "positions"
}

// WatchlistItem represents watchlist_items table
type WatchlistItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_watch_user_stock;not null" json:"user_id"`
	StockID   uint      `gorm:"uniqueIndex:idx_watch_user_stock;not null" json:"stock_id"`
	Stock     Stock     `gorm:"foreignKey:StockID" json:"stock"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (WatchlistItem) TableName() string {
	return "watchlist_items"
}

// ============================================================
// Reports
// ============================================================

// Report represents reports table
type Report struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"index;not null" json:"user_id"`
	ReportType  string     `gorm:"size:40;not null" json:"report_type"`
	StartDate   time.Time  `gorm:"not null" json:"start_date"`
	EndDate     time.Time  `gorm:"not null" json:"end_date"`
	Status      string     `gorm:"size:20;index;default:'pending'" json:"status"`
	Content     string     `gorm:"type:text" json:"content,omitempty"`
	Error       string     `gorm:"size:255" json:"error,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

func (Report) TableName() string {
	return "reports"
}

// AutoMigrate creates or updates every table
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&PasswordReset{},
		&Stock{},
		&StockPrice{},
		&Transaction{},
		&Position{},
		&WatchlistItem{},
		&Report{},
	)
}
