package seed

import (
	"context"
	_ "embed"
	"fmt"

	"pixelpost/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed presets.yml
var presetsYAML []byte

type presetFile struct {
	Presets []struct {
		Name         string `yaml:"name"`
		Description  string `yaml:"description"`
		PromptSuffix string `yaml:"prompt_suffix"`
		Category     string `yaml:"category"`
	} `yaml:"presets"`
}

// BuiltInPresets returns the style presets shipped with the app.
func BuiltInPresets() ([]models.StylePreset, error) {
	var file presetFile
	if err := yaml.Unmarshal(presetsYAML, &file); err != nil {
		return nil, fmt.Errorf("parse presets.yml: %w", err)
	}
	out := make([]models.StylePreset, 0, len(file.Presets))
	for _, p := range file.Presets {
		out = append(out, models.StylePreset{
			Name:         p.Name,
			Description:  p.Description,
			PromptSuffix: p.PromptSuffix,
			Category:     p.Category,
			IsActive:     true,
		})
	}
	return out, nil
}

// Presets upserts the built-in presets by name. Existing rows keep their
// active flag so an admin can retire a built-in preset for good.
func Presets(ctx context.Context, db *gorm.DB) (int, error) {
	presets, err := BuiltInPresets()
	if err != nil {
		return 0, err
	}
	for i := range presets {
		err := db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"description", "prompt_suffix", "category", "updated_at"}),
		}).Create(&presets[i]).Error
		if err != nil {
			return i, fmt.Errorf("seed preset %q: %w", presets[i].Name, err)
		}
	}
	return len(presets), nil
}
