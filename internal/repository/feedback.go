package repository

import (
	"context"

	"pixelpost/internal/models"

	"gorm.io/gorm"
)

// FeedbackRepository stores user ratings of the service.
type FeedbackRepository interface {
	Create(ctx context.Context, feedback *models.Feedback) error
	// List returns feedback newest first together with the total row count.
	List(ctx context.Context, limit, offset int) ([]models.Feedback, int64, error)
	AverageRating(ctx context.Context) (float64, error)
}

type feedbackRepository struct {
	db *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

func (r *feedbackRepository) Create(ctx context.Context, feedback *models.Feedback) error {
	if err := r.db.WithContext(ctx).Omit("User").Create(feedback).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *feedbackRepository) List(ctx context.Context, limit, offset int) ([]models.Feedback, int64, error) {
	limit, offset = clampPage(limit, offset)
	db := readDB(r.db).WithContext(ctx)

	var total int64
	if err := db.Model(&models.Feedback{}).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	var items []models.Feedback
	if err := db.Preload("User").Order("created_at DESC").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return items, total, nil
}

func (r *feedbackRepository) AverageRating(ctx context.Context) (float64, error) {
	var avg float64
	err := readDB(r.db).WithContext(ctx).Model(&models.Feedback{}).
		Select("COALESCE(AVG(rating), 0)").
		Scan(&avg).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return avg, nil
}
