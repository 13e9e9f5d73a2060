package repositories

import (
	"context"
	"strings"
	"time"

	"tikalinvest/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// orderable maps the public ordering names to columns
var orderable = map[string]string{
	"symbol":         "symbol",
	"name":           "name",
	"current_price":  "current_price",
	"change_percent": "change_percent",
	"volume":         "volume",
	"last_updated":   "last_updated",
}

type stockRepository struct {
	db *gorm.DB
}

// NewStockRepository creates a new stock repository
func NewStockRepository(db *gorm.DB) StockRepository {
	return &stockRepository{db: db}
}

func (r *stockRepository) Create(ctx context.Context, stock *models.Stock) error {
	return r.db.WithContext(ctx).Create(stock).Error
}

func (r *stockRepository) GetByID(ctx context.Context, id uint) (*models.Stock, error) {
	var stock models.Stock
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&stock).Error; err != nil {
		return nil, err
	}
	return &stock, nil
}

// GetByIDForUpdate gets a stock and locks the row until the surrounding
// transaction ends
func (r *stockRepository) GetByIDForUpdate(ctx context.Context, id uint) (*models.Stock, error) {
	var stock models.Stock
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&stock).Error
	if err != nil {
		return nil, err
	}
	return &stock, nil
}

func (r *stockRepository) GetBySymbol(ctx context.Context, symbol string) (*models.Stock, error) {
	var stock models.Stock
	err := r.db.WithContext(ctx).Where("symbol = ?", strings.ToUpper(strings.TrimSpace(symbol))).First(&stock).Error
	if err != nil {
		return nil, err
	}
	return &stock, nil
}

// GetBySymbolUnscoped also finds deleted stocks
func (r *stockRepository) GetBySymbolUnscoped(ctx context.Context, symbol string) (*models.Stock, error) {
	var stock models.Stock
	err := r.db.WithContext(ctx).Unscoped().Where("symbol = ?", strings.ToUpper(strings.TrimSpace(symbol))).First(&stock).Error
	if err != nil {
		return nil, err
	}
	return &stock, nil
}

func (r *stockRepository) Update(ctx context.Context, stock *models.Stock) error {
	return r.db.WithContext(ctx).Save(stock).Error
}

// UpdateFields writes only the given columns of one stock
func (r *stockRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.Stock{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Restore overwrites a deleted stock's row with stock and clears deleted_at
func (r *stockRepository) Restore(ctx context.Context, stock *models.Stock) error {
	stock.DeletedAt = gorm.DeletedAt{}
	return r.db.WithContext(ctx).Unscoped().Save(stock).Error
}

// Delete soft deletes a stock so ledger rows keep their reference
func (r *stockRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Stock{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *stockRepository) List(ctx context.Context, filter StockFilter, offset, limit int) ([]*models.Stock, int64, error) {
	var stocks []*models.Stock
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Stock{})
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if filter.Market != "" {
		query = query.Where("market = ?", filter.Market)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(symbol) LIKE ? OR LOWER(name) LIKE ? OR LOWER(category) LIKE ?", like, like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order(orderClause(filter.Ordering)).Offset(offset).Limit(limit).Find(&stocks).Error; err != nil {
		return nil, 0, err
	}
	return stocks, total, nil
}

func orderClause(ordering string) clause.OrderByColumn {
	desc := strings.HasPrefix(ordering, "-")
	column, ok := orderable[strings.TrimPrefix(ordering, "-")]
	if !ok {
		return clause.OrderByColumn{Column: clause.Column{Name: "symbol"}}
	}
	return clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc}
}

func (r *stockRepository) ListActive(ctx context.Context) ([]*models.Stock, error) {
	var stocks []*models.Stock
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("id").Find(&stocks).Error
	return stocks, err
}

// TopMovers returns active stocks ordered by change_percent
func (r *stockRepository) TopMovers(ctx context.Context, limit int, ascending bool) ([]*models.Stock, error) {
	var stocks []*models.Stock
	query := r.db.WithContext(ctx).Where("is_active = ?", true)
	if ascending {
		query = query.Where("change_percent < 0")
	} else {
		query = query.Where("change_percent > 0")
	}
	err := query.
		Order(clause.OrderByColumn{Column: clause.Column{Name: "change_percent"}, Desc: !ascending}).
		Limit(limit).
		Find(&stocks).Error
	return stocks, err
}

func (r *stockRepository) TopByVolume(ctx context.Context, limit int) ([]*models.Stock, error) {
	var stocks []*models.Stock
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("volume DESC").
		Limit(limit).
		Find(&stocks).Error
	return stocks, err
}

// RollClose makes every active stock's current price its previous close
func (r *stockRepository) RollClose(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Stock{}).
		Where("is_active = ?", true).
		Updates(map[string]interface{}{
			"previous_close": gorm.Expr("current_price"),
			"change_percent": 0,
		})
	return result.RowsAffected, result.Error
}

func (r *stockRepository) AddPrice(ctx context.Context, price *models.StockPrice) error {
	return r.db.WithContext(ctx).Create(price).Error
}

// History returns price points recorded since the given time, oldest first
func (r *stockRepository) History(ctx context.Context, stockID uint, since time.Time, limit int) ([]*models.StockPrice, error) {
	var prices []*models.StockPrice
	err := r.db.WithContext(ctx).
		Where("stock_id = ? AND recorded_at >= ?", stockID, since).
		Order("recorded_at DESC").
		Limit(limit).
		Find(&prices).Error
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(prices)-1; i < j; i, j = i+1, j-1 {
		prices[i], prices[j] = prices[j], prices[i]
	}
	return prices, nil
}

func (r *stockRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Stock{}).Count(&count).Error
	return count, err
}
