package repositories

import (
	"context"

	"gorm.io/gorm"

	"uwb-nav-bridge/internal/models"
)

type SurveyRepository struct {
	db *gorm.DB
}

func NewSurveyRepository(db *gorm.DB) *SurveyRepository {
	return &SurveyRepository{db: db}
}

func (r *SurveyRepository) Create(ctx context.Context, record *models.SurveyRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *SurveyRepository) FindByGridUUID(ctx context.Context, gridUUID string) ([]*models.SurveyRecord, error) {
	var records []*models.SurveyRecord
	err := r.db.WithContext(ctx).
		Where("grid_uuid = ?", gridUUID).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *SurveyRepository) FindLatest(ctx context.Context) (*models.SurveyRecord, error) {
	var record models.SurveyRecord
	err := r.db.WithContext(ctx).Order("created_at DESC").First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}
