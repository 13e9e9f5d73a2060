package repositories

import (
	"context"
	"errors"

	"tikalinvest/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type positionRepository struct {
	db *gorm.DB
}

// NewPositionRepository creates a new holdings repository
func NewPositionRepository(db *gorm.DB) PositionRepository {
	return &positionRepository{db: db}
}

// GetForUpdate locks the user's position in a stock. It returns nil, nil
// when the user holds none.
func (r *positionRepository) GetForUpdate(ctx context.Context, userID, stockID uint) (*models.Position, error) {
	var position models.Position
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND stock_id = ?", userID, stockID).
		First(&position).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &position, nil
}

func (r *positionRepository) Save(ctx context.Context, position *models.Position) error {
	return r.db.WithContext(ctx).Omit("Stock").Save(position).Error
}

func (r *positionRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Position{}, id).Error
}

func (r *positionRepository) ListByUser(ctx context.Context, userID uint) ([]*models.Position, error) {
	var positions []*models.Position
	err := r.db.WithContext(ctx).
		Preload("Stock", withDeleted).
		Where("user_id = ? AND quantity > 0", userID).
		Order("id").
		Find(&positions).Error
	return positions, err
}
