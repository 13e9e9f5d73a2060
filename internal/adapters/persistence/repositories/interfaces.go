package repositories

import (
	"context"
	"time"

	"tikalinvest/internal/adapters/persistence/models"
)

// UserFilter narrows user listings
type UserFilter struct {
	Status string
	Role   string
	Search string
}

// StockFilter narrows stock listings
type StockFilter struct {
	Search     string
	Market     string
	Category   string
	ActiveOnly bool
	// Ordering is a field name, optionally prefixed with "-" for descending.
	Ordering string
}

// TransactionFilter narrows ledger listings
type TransactionFilter struct {
	UserID  *uint
	StockID *uint
	Types   []string
	Status  string
	From    *time.Time
	To      *time.Time
}

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByIDForUpdate(ctx context.Context, id uint) (*models.User, error)
	GetByLogin(ctx context.Context, identifier string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByReferralCode(ctx context.Context, code string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	List(ctx context.Context, filter UserFilter, offset, limit int) ([]*models.User, int64, error)
	ListReferrals(ctx context.Context, referrerID uint) ([]*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByReferralCode(ctx context.Context, code string) (bool, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) (int64, error)
	CountActiveByUserID(ctx context.Context, userID uint) (int64, error)
}

// PasswordResetRepository defines password reset repository interface
type PasswordResetRepository interface {
	Create(ctx context.Context, reset *models.PasswordReset) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.PasswordReset, error)
	MarkUsed(ctx context.Context, id uint) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// StockRepository defines stock repository interface
type StockRepository interface {
	Create(ctx context.Context, stock *models.Stock) error
	GetByID(ctx context.Context, id uint) (*models.Stock, error)
	GetByIDForUpdate(ctx context.Context, id uint) (*models.Stock, error)
	GetBySymbol(ctx context.Context, symbol string) (*models.Stock, error)
	GetBySymbolUnscoped(ctx context.Context, symbol string) (*models.Stock, error)
	Update(ctx context.Context, stock *models.Stock) error
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	Restore(ctx context.Context, stock *models.Stock) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter StockFilter, offset, limit int) ([]*models.Stock, int64, error)
	ListActive(ctx context.Context) ([]*models.Stock, error)
	TopMovers(ctx context.Context, limit int, ascending bool) ([]*models.Stock, error)
	TopByVolume(ctx context.Context, limit int) ([]*models.Stock, error)
	RollClose(ctx context.Context) (int64, error)
	AddPrice(ctx context.Context, price *models.StockPrice) error
	History(ctx context.Context, stockID uint, since time.Time, limit int) ([]*models.StockPrice, error)
	Count(ctx context.Context) (int64, error)
}

// TransactionRepository defines ledger repository interface
type TransactionRepository interface {
	Create(ctx context.Context, tx *models.Transaction) error
	GetByID(ctx context.Context, id uint) (*models.Transaction, error)
	List(ctx context.Context, filter TransactionFilter, offset, limit int) ([]*models.Transaction, int64, error)
	ListAll(ctx context.Context, filter TransactionFilter) ([]*models.Transaction, error)
	UpdateStatus(ctx context.Context, id uint, status string) error
	Count(ctx context.Context) (int64, error)
}

// PositionRepository defines holdings repository interface
type PositionRepository interface {
	GetForUpdate(ctx context.Context, userID, stockID uint) (*models.Position, error)
	Save(ctx context.Context, position *models.Position) error
	Delete(ctx context.Context, id uint) error
	ListByUser(ctx context.Context, userID uint) ([]*models.Position, error)
}

// WatchlistRepository defines watchlist repository interface
type WatchlistRepository interface {
	ListByUser(ctx context.Context, userID uint) ([]*models.WatchlistItem, error)
	Get(ctx context.Context, userID, stockID uint) (*models.WatchlistItem, error)
	Create(ctx context.Context, item *models.WatchlistItem) error
	Delete(ctx context.Context, id uint) error
}

// ReportRepository defines report repository interface
type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	GetByIDForUser(ctx context.Context, id, userID uint) (*models.Report, error)
	ListByUser(ctx context.Context, userID uint) ([]*models.Report, error)
	ListByStatus(ctx context.Context, status string, limit int) ([]*models.Report, error)
	Update(ctx context.Context, report *models.Report) error
}
