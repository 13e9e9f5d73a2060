package repositories

import (
	"context"

	"tikalinvest/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, report *models.Report) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *reportRepository) GetByIDForUser(ctx context.Context, id, userID uint) (*models.Report, error) {
	var report models.Report
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&report).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// ListByUser omits the content column; fetch a single report to read it
func (r *reportRepository) ListByUser(ctx context.Context, userID uint) ([]*models.Report, error) {
	var reports []*models.Report
	err := r.db.WithContext(ctx).
		Omit("content").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&reports).Error
	return reports, err
}

// ListByStatus returns the oldest reports in a status, for the worker
func (r *reportRepository) ListByStatus(ctx context.Context, status string, limit int) ([]*models.Report, error) {
	var reports []*models.Report
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&reports).Error
	return reports, err
}

func (r *reportRepository) Update(ctx context.Context, report *models.Report) error {
	return r.db.WithContext(ctx).Save(report).Error
}
