package services

import (
	"context"
	"time"

	"tikalinvest/internal/adapters/persistence/models"
	"tikalinvest/internal/adapters/persistence/repositories"
	"tikalinvest/internal/core/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DashboardService handles dashboard operations
type DashboardService struct {
	db        *gorm.DB
	repos     *repositories.Repositories
	portfolio *PortfolioService
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(db *gorm.DB, repos *repositories.Repositories, portfolio *PortfolioService) *DashboardService {
	return &DashboardService{db: db, repos: repos, portfolio: portfolio}
}

// ============================================================
// User Dashboard
// ============================================================

// DashboardStats represents the user dashboard header
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

// GetUserStats returns the user dashboard header
func (s *DashboardService) GetUserStats(ctx context.Context, userID uint) (*DashboardStats, error) {
	user, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, mapNotFound(err, domain.ErrUserNotFound)
	}

	summary, err := s.portfolio.Summary(ctx, userID)
	if err != nil {
		return nil, err
	}

	watchlist, err := s.repos.Watchlist.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var txCount int64
	if err := s.db.WithContext(ctx).Model(&models.Transaction{}).Where("user_id = ?", userID).Count(&txCount).Error; err != nil {
		return nil, err
	}

	return &DashboardStats{
		Status:            user.Status,
		Balance:           user.Balance,
		PortfolioValue:    summary.MarketValue,
		TotalValue:        summary.TotalValue,
		TotalProfitLoss:   summary.ProfitLoss,
		ProfitLossPercent: summary.ProfitLossPercent,
		PositionsCount:    summary.PositionsCount,
		WatchlistCount:    len(watchlist),
		TotalTransactions: txCount,
	}, nil
}

// ============================================================
// Admin Dashboard
// ============================================================

// AdminDashboardData represents admin dashboard data
type AdminDashboardData struct {
	// User Statistics
	TotalUsers     int64            `json:"total_users"`
	UsersByStatus  map[string]int64 `json:"users_by_status"`
	PendingUsers   int64            `json:"pending_users"`
	NewUsersMonth  int64            `json:"new_users_this_month"`
	TotalCustomers decimal.Decimal  `json:"total_customer_balance"`

	// Market Statistics
	TotalStocks  int64 `json:"total_stocks"`
	ActiveStocks int64 `json:"active_stocks"`

	// Ledger Statistics
	TotalTransactions int64           `json:"total_transactions"`
	TradesThisMonth   int64           `json:"trades_this_month"`
	VolumeThisMonth   decimal.Decimal `json:"volume_this_month"`
	CommissionMonth   decimal.Decimal `json:"commission_this_month"`

	// Recent Activity
	RecentTransactions []*models.Transaction `json:"recent_transactions"`
}

// GetAdminDashboard returns admin dashboard data
func (s *DashboardService) GetAdminDashboard(ctx context.Context) (*AdminDashboardData, error) {
	data := &AdminDashboardData{}
	db := s.db.WithContext(ctx)

	byStatus, err := s.repos.Users.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	data.UsersByStatus = byStatus
	for _, n := range byStatus {
		data.TotalUsers += n
	}
	data.PendingUsers = byStatus[string(domain.StatusPending)]

	now := time.Now()
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	if err := db.Model(&models.User{}).Where("created_at >= ?", startOfMonth).Count(&data.NewUsersMonth).Error; err != nil {
		return nil, err
	}
	if err := sumInto(db.Model(&models.User{}).Where("role = ?", domain.RoleUser), "balance", &data.TotalCustomers); err != nil {
		return nil, err
	}

	if err := db.Model(&models.Stock{}).Count(&data.TotalStocks).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Stock{}).Where("is_active = ?", true).Count(&data.ActiveStocks).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&models.Transaction{}).Count(&data.TotalTransactions).Error; err != nil {
		return nil, err
	}

	monthTrades := func() *gorm.DB {
		return db.Model(&models.Transaction{}).
			Where("transaction_type IN ? AND status = ? AND created_at >= ?", domain.TradeTypes, domain.TxCompleted, startOfMonth)
	}
	if err := monthTrades().Count(&data.TradesThisMonth).Error; err != nil {
		return nil, err
	}
	if err := sumInto(monthTrades(), "total_amount", &data.VolumeThisMonth); err != nil {
		return nil, err
	}
	if err := sumInto(db.Model(&models.Transaction{}).Where("status = ? AND created_at >= ?", domain.TxCompleted, startOfMonth), "commission", &data.CommissionMonth); err != nil {
		return nil, err
	}

	recent, _, err := s.repos.Transactions.List(ctx, repositories.TransactionFilter{}, 0, 10)
	if err != nil {
		return nil, err
	}
	data.RecentTransactions = recent

	return data, nil
}

// sumInto scans COALESCE(SUM(column), 0) of query into dst
func sumInto(query *gorm.DB, column string, dst *decimal.Decimal) error {
	return query.Select("COALESCE(SUM(" + column + "), 0)").Row().Scan(dst)
}
