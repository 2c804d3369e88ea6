package repository

import (
	"context"
	"errors"
	"time"

	"pixelpost/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// maxErrorMessage bounds GeneratedVideo.ErrorMessage.
const maxErrorMessage = 4000

// VideoRepository defines persistence operations for generated videos.
type VideoRepository interface {
	Create(ctx context.Context, video *models.GeneratedVideo) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.GeneratedVideo, error)
	Save(ctx context.Context, video *models.GeneratedVideo) error
	Delete(ctx context.Context, id uuid.UUID) error
	SetPublic(ctx context.Context, id uuid.UUID, public bool) error
	ListByUser(ctx context.Context, userID uint) ([]models.GeneratedVideo, error)
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
	// FailStaleProcessing fails videos left in processing for longer than olderThan.
	FailStaleProcessing(ctx context.Context, olderThan time.Duration) (int64, error)
}

type videoRepository struct {
	db *gorm.DB
}

// NewVideoRepository returns a gorm backed VideoRepository.
func NewVideoRepository(db *gorm.DB) VideoRepository {
	return &videoRepository{db: db}
}

func (r *videoRepository) Create(ctx context.Context, video *models.GeneratedVideo) error {
	if err := r.db.WithContext(ctx).Create(video).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *videoRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.GeneratedVideo, error) {
	var video models.GeneratedVideo
	err := readDB(r.db).WithContext(ctx).
		Preload("User").
		Preload("StylePreset").
		Where("id = ?", id).
		First(&video).Error
	if err != nil {
		return nil, lookupError(err, "Video", id)
	}
	return &video, nil
}

func (r *videoRepository) Save(ctx context.Context, video *models.GeneratedVideo) error {
	if err := r.db.WithContext(ctx).Omit("User", "StylePreset").Save(video).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *videoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.GeneratedVideo{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Video", id)
	}
	return nil
}

func (r *videoRepository) SetPublic(ctx context.Context, id uuid.UUID, public bool) error {
	res := r.db.WithContext(ctx).Model(&models.GeneratedVideo{}).Where("id = ?", id).Update("is_public", public)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Video", id)
	}
	return nil
}

func (r *videoRepository) ListByUser(ctx context.Context, userID uint) ([]models.GeneratedVideo, error) {
	var videos []models.GeneratedVideo
	err := readDB(r.db).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&videos).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return videos, nil
}

func (r *videoRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	if len(errMsg) > maxErrorMessage {
		errMsg = errMsg[:maxErrorMessage]
	}
	err := r.db.WithContext(ctx).Model(&models.GeneratedVideo{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        models.VideoStatusFailed,
			"error_message": errMsg,
		}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *videoRepository) FailStaleProcessing(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, errors.New("olderThan must be > 0")
	}
	cutoff := time.Now().UTC().Add(-olderThan)
	res := r.db.WithContext(ctx).Model(&models.GeneratedVideo{}).
		Where("status = ? AND created_at < ?", models.VideoStatusProcessing, cutoff).
		Updates(map[string]interface{}{
			"status":        models.VideoStatusFailed,
			"error_message": "generation interrupted",
		})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}
