package database

import "pixelpost/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
// Order matters for AutoMigrate: referenced tables come first.
func PersistentModels() []any {
	return []any{
		&models.User{},
		&models.StylePreset{},
		&models.GeneratedImage{},
		&models.GeneratedVideo{},
		&models.Post{},
		&models.Like{},
		&models.Comment{},
		&models.Feedback{},
	}
}
