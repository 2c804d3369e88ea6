package repository

import (
	"context"
	"errors"

	"pixelpost/internal/cache"
	"pixelpost/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PresetRepository defines persistence operations for style presets.
type PresetRepository interface {
	ListActive(ctx context.Context) ([]models.StylePreset, error)
	List(ctx context.Context) ([]models.StylePreset, error)
	GetByID(ctx context.Context, id uint) (*models.StylePreset, error)
	Create(ctx context.Context, preset *models.StylePreset) error
	Update(ctx context.Context, preset *models.StylePreset) error
	// UpsertByName inserts the preset or refreshes the row sharing its name.
	UpsertByName(ctx context.Context, preset *models.StylePreset) error
}

type presetRepository struct {
	db *gorm.DB
}

// NewPresetRepository returns a gorm backed PresetRepository.
func NewPresetRepository(db *gorm.DB) PresetRepository {
	return &presetRepository{db: db}
}

func (r *presetRepository) ListActive(ctx context.Context) ([]models.StylePreset, error) {
	var presets []models.StylePreset
	err := cache.Aside(ctx, cache.PresetsKey, &presets, cache.PresetsTTL, func() error {
		if err := readDB(r.db).WithContext(ctx).Where("is_active = ?", true).Order("name").Find(&presets).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return presets, nil
}

func (r *presetRepository) List(ctx context.Context) ([]models.StylePreset, error) {
	var presets []models.StylePreset
	if err := readDB(r.db).WithContext(ctx).Order("name").Find(&presets).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return presets, nil
}

func (r *presetRepository) GetByID(ctx context.Context, id uint) (*models.StylePreset, error) {
	var preset models.StylePreset
	if err := readDB(r.db).WithContext(ctx).First(&preset, id).Error; err != nil {
		return nil, lookupError(err, "StylePreset", id)
	}
	return &preset, nil
}

func (r *presetRepository) Create(ctx context.Context, preset *models.StylePreset) error {
	if err := r.db.WithContext(ctx).Create(preset).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("A preset with this name already exists")
		}
		return models.NewInternalError(err)
	}
	cache.InvalidatePresets(ctx)
	return nil
}

func (r *presetRepository) Update(ctx context.Context, preset *models.StylePreset) error {
	if err := r.db.WithContext(ctx).Save(preset).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("A preset with this name already exists")
		}
		return models.NewInternalError(err)
	}
	cache.InvalidatePresets(ctx)
	return nil
}

func (r *presetRepository) UpsertByName(ctx context.Context, preset *models.StylePreset) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"description", "prompt_suffix", "category", "is_active", "updated_at"}),
	}).Create(preset).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	if preset.ID == 0 {
		// Some drivers do not return the id of an updated conflict row.
		var existing models.StylePreset
		if err := r.db.WithContext(ctx).Where("name = ?", preset.Name).First(&existing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("StylePreset", preset.Name)
			}
			return models.NewInternalError(err)
		}
		preset.ID = existing.ID
	}
	cache.InvalidatePresets(ctx)
	return nil
}
