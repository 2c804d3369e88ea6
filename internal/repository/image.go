package repository

import (
	"context"
	"time"

	"pixelpost/internal/cache"
	"pixelpost/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SourceCount is the number of media records produced by one service.
type SourceCount struct {
	Source models.GenerationSource `json:"source"`
	Count  int64                   `json:"count"`
}

// SourceStat adds average stored size to SourceCount.
type SourceStat struct {
	Source      models.GenerationSource `json:"source"`
	Count       int64                   `json:"count"`
	AvgFileSize float64                 `json:"avg_file_size"`
}

// ImageRepository defines persistence operations for generated images.
type ImageRepository interface {
	Create(ctx context.Context, image *models.GeneratedImage) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.GeneratedImage, error)
	Save(ctx context.Context, image *models.GeneratedImage) error
	Delete(ctx context.Context, id uuid.UUID) error
	SetPublic(ctx context.Context, id uuid.UUID, public bool) error
	ListByUser(ctx context.Context, userID uint) ([]models.GeneratedImage, error)
	ListPublic(ctx context.Context, limit, offset int) ([]models.GeneratedImage, int64, error)
	ListPublicByUser(ctx context.Context, userID uint, exclude uuid.UUID, limit int) ([]models.GeneratedImage, error)
	// FindOwned returns the subset of ids that belong to userID.
	FindOwned(ctx context.Context, userID uint, ids []uuid.UUID) ([]models.GeneratedImage, error)
	// DeleteOwned removes the subset of ids that belong to userID and reports how many rows went.
	DeleteOwned(ctx context.Context, userID uint, ids []uuid.UUID) (int64, error)
	// CountBySource groups images by source. A zero userID counts every image.
	CountBySource(ctx context.Context, userID uint) ([]SourceCount, error)
	SourceStats(ctx context.Context, since time.Time) ([]SourceStat, error)
	ListBySource(ctx context.Context, source models.GenerationSource, limit int) ([]models.GeneratedImage, error)
	UpdateSource(ctx context.Context, id uuid.UUID, source models.GenerationSource) error
	Count(ctx context.Context, publicOnly bool) (int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
}

type imageRepository struct {
	db *gorm.DB
}

// NewImageRepository returns a repository implementation for generated images.
func NewImageRepository(db *gorm.DB) ImageRepository {
	return &imageRepository{db: db}
}

func (r *imageRepository) Create(ctx context.Context, image *models.GeneratedImage) error {
	if err := r.db.WithContext(ctx).Create(image).Error; err != nil {
		return models.NewInternalError(err)
	}
	if image.IsPublic {
		cache.InvalidateFeeds(ctx)
	}
	return nil
}

func (r *imageRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.GeneratedImage, error) {
	var image models.GeneratedImage
	err := readDB(r.db).WithContext(ctx).
		Preload("User").
		Preload("StylePreset").
		Where("id = ?", id).
		First(&image).Error
	if err != nil {
		return nil, lookupError(err, "Image", id)
	}
	return &image, nil
}

func (r *imageRepository) Save(ctx context.Context, image *models.GeneratedImage) error {
	if err := r.db.WithContext(ctx).Omit("User", "StylePreset").Save(image).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *imageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.invalidatePosts(ctx, id)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("generated_image_id = ?", id).Delete(&models.Post{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.GeneratedImage{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return lookupError(err, "Image", id)
	}
	cache.InvalidateFeeds(ctx)
	return nil
}

func (r *imageRepository) SetPublic(ctx context.Context, id uuid.UUID, public bool) error {
	res := r.db.WithContext(ctx).Model(&models.GeneratedImage{}).Where("id = ?", id).Update("is_public", public)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Image", id)
	}
	r.invalidatePosts(ctx, id)
	cache.InvalidateFeeds(ctx)
	return nil
}

// invalidatePosts drops cached posts that embed one of the images.
func (r *imageRepository) invalidatePosts(ctx context.Context, ids ...uuid.UUID) {
	if cache.GetClient() == nil || len(ids) == 0 {
		return
	}
	var postIDs []uint
	if err := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("generated_image_id IN ?", ids).
		Pluck("id", &postIDs).Error; err != nil {
		return
	}
	keys := make([]string, 0, len(postIDs))
	for _, id := range postIDs {
		keys = append(keys, cache.PostKey(id))
	}
	cache.Invalidate(ctx, keys...)
}

func (r *imageRepository) ListByUser(ctx context.Context, userID uint) ([]models.GeneratedImage, error) {
	var images []models.GeneratedImage
	err := readDB(r.db).WithContext(ctx).
		Preload("StylePreset").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&images).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return images, nil
}

func (r *imageRepository) ListPublic(ctx context.Context, limit, offset int) ([]models.GeneratedImage, int64, error) {
	limit, offset = clampPage(limit, offset)
	db := readDB(r.db).WithContext(ctx)

	var total int64
	if err := db.Model(&models.GeneratedImage{}).Where("is_public = ?", true).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var images []models.GeneratedImage
	err := db.
		Preload("User").
		Preload("StylePreset").
		Where("is_public = ?", true).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&images).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return images, total, nil
}

func (r *imageRepository) ListPublicByUser(ctx context.Context, userID uint, exclude uuid.UUID, limit int) ([]models.GeneratedImage, error) {
	limit, _ = clampPage(limit, 0)
	q := readDB(r.db).WithContext(ctx).Where("user_id = ? AND is_public = ?", userID, true)
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}
	var images []models.GeneratedImage
	if err := q.Order("created_at DESC").Limit(limit).Find(&images).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return images, nil
}

func (r *imageRepository) FindOwned(ctx context.Context, userID uint, ids []uuid.UUID) ([]models.GeneratedImage, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var images []models.GeneratedImage
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id IN ?", userID, ids).Find(&images).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return images, nil
}

func (r *imageRepository) DeleteOwned(ctx context.Context, userID uint, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	r.invalidatePosts(ctx, ids...)
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned := tx.Model(&models.GeneratedImage{}).Select("id").Where("user_id = ? AND id IN ?", userID, ids)
		if err := tx.Where("generated_image_id IN (?)", owned).Delete(&models.Post{}).Error; err != nil {
			return err
		}
		res := tx.Where("user_id = ? AND id IN ?", userID, ids).Delete(&models.GeneratedImage{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	if deleted > 0 {
		cache.InvalidateFeeds(ctx)
	}
	return deleted, nil
}

func (r *imageRepository) CountBySource(ctx context.Context, userID uint) ([]SourceCount, error) {
	q := readDB(r.db).WithContext(ctx).Model(&models.GeneratedImage{}).
		Select("generation_source AS source, COUNT(*) AS count")
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	var counts []SourceCount
	if err := q.Group("generation_source").Order("count DESC").Scan(&counts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return counts, nil
}

func (r *imageRepository) SourceStats(ctx context.Context, since time.Time) ([]SourceStat, error) {
	q := readDB(r.db).WithContext(ctx).Model(&models.GeneratedImage{}).
		Select("generation_source AS source, COUNT(*) AS count, COALESCE(AVG(file_size), 0) AS avg_file_size")
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}
	var stats []SourceStat
	if err := q.Group("generation_source").Order("count DESC").Scan(&stats).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return stats, nil
}

func (r *imageRepository) ListBySource(ctx context.Context, source models.GenerationSource, limit int) ([]models.GeneratedImage, error) {
	q := readDB(r.db).WithContext(ctx).Where("generation_source = ?", source).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var images []models.GeneratedImage
	if err := q.Find(&images).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return images, nil
}

func (r *imageRepository) UpdateSource(ctx context.Context, id uuid.UUID, source models.GenerationSource) error {
	res := r.db.WithContext(ctx).Model(&models.GeneratedImage{}).Where("id = ?", id).Update("generation_source", source)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Image", id)
	}
	return nil
}

func (r *imageRepository) Count(ctx context.Context, publicOnly bool) (int64, error) {
	q := readDB(r.db).WithContext(ctx).Model(&models.GeneratedImage{})
	if publicOnly {
		q = q.Where("is_public = ?", true)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

func (r *imageRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := readDB(r.db).WithContext(ctx).Model(&models.GeneratedImage{}).
		Where("created_at >= ?", since).
		Count(&n).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}
