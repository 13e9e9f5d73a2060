package repositories

import (
	"context"

	"tikalinvest/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

type watchlistRepository struct {
	db *gorm.DB
}

// NewWatchlistRepository creates a new watchlist repository
func NewWatchlistRepository(db *gorm.DB) WatchlistRepository {
	return &watchlistRepository{db: db}
}

func (r *watchlistRepository) ListByUser(ctx context.Context, userID uint) ([]*models.WatchlistItem, error) {
	var items []*models.WatchlistItem
	err := r.db.WithContext(ctx).
		Preload("Stock", withDeleted).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&items).Error
	return items, err
}

func (r *watchlistRepository) Get(ctx context.Context, userID, stockID uint) (*models.WatchlistItem, error) {
	var item models.WatchlistItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND stock_id = ?", userID, stockID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *watchlistRepository) Create(ctx context.Context, item *models.WatchlistItem) error {
	return r.db.WithContext(ctx).Omit("Stock").Create(item).Error
}

func (r *watchlistRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.WatchlistItem{}, id).Error
}
