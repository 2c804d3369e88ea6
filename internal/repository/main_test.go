package repository

import (
	"context"
	"fmt"
	"testing"

	"pixelpost/internal/database"
	"pixelpost/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

// setupSQLite returns a migrated in-memory database for behavioural tests.
func setupSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{
		Username: username,
		Email:    fmt.Sprintf("%s@example.com", username),
		Password: "hashed",
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func createImage(t *testing.T, db *gorm.DB, owner uint, public bool, source models.GenerationSource) *models.GeneratedImage {
	t.Helper()
	img := &models.GeneratedImage{
		UserID:           owner,
		Prompt:           gofakeit.Sentence(6),
		FilePath:         "images/fixture.png",
		ContentType:      "image/png",
		FileSize:         int64(gofakeit.Number(1000, 500000)),
		Width:            512,
		Height:           512,
		IsPublic:         public,
		GenerationSource: source,
		Hashtags:         models.TagList{"ai", "art"},
	}
	require.NoError(t, NewImageRepository(db).Create(context.Background(), img))
	return img
}

func createPost(t *testing.T, db *gorm.DB, owner uint, image *models.GeneratedImage) *models.Post {
	t.Helper()
	p := &models.Post{
		Title:            fmt.Sprintf("post %d", gofakeit.Number(1, 1000000)),
		UserID:           owner,
		GeneratedImageID: image.ID,
		IsPublic:         true,
	}
	require.NoError(t, db.Omit("User", "GeneratedImage").Create(p).Error)
	return p
}
