package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"arcanum/internal/models/db_models"
)

type IReadingRepository interface {
	Insert(ctx context.Context, reading *db_models.Reading) error
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]db_models.Reading, error)
}

type readingRepository struct {
	db *gorm.DB
}

func NewReadingRepository(db *gorm.DB) IReadingRepository {
	return &readingRepository{db: db}
}

func (r *readingRepository) Insert(ctx context.Context, reading *db_models.Reading) error {
	return r.db.WithContext(ctx).Create(reading).Error
}

func (r *readingRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]db_models.Reading, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var readings []db_models.Reading
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Limit(limit).
		Find(&readings).Error
	if err != nil {
		return nil, err
	}
	return readings, nil
}
