package repositories

import (
	"context"

	"gorm.io/gorm"
)

// Repositories bundles the repositories that share one *gorm.DB, so a
// service can run several of them inside a single database transaction.
type Repositories struct {
	Users          UserRepository
	RefreshTokens  RefreshTokenRepository
	PasswordResets PasswordResetRepository
	Stocks         StockRepository
	Transactions   TransactionRepository
	Positions      PositionRepository
	Watchlist      WatchlistRepository
	Reports        ReportRepository

	db *gorm.DB
}

// New builds every repository on db
func New(db *gorm.DB) *Repositories {
	return &Repositories{
		Users:          NewUserRepository(db),
		RefreshTokens:  NewRefreshTokenRepository(db),
		PasswordResets: NewPasswordResetRepository(db),
		Stocks:         NewStockRepository(db),
		Transactions:   NewTransactionRepository(db),
		Positions:      NewPositionRepository(db),
		Watchlist:      NewWatchlistRepository(db),
		Reports:        NewReportRepository(db),
		db:             db,
	}
}

// Transaction runs fn with repositories bound to one database transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}

// Ping checks the underlying connection
func (r *Repositories) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
