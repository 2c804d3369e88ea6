package seed

import (
	"context"
	"testing"

	"pixelpost/internal/models"
	"pixelpost/internal/storage"
	"pixelpost/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupSeedDB(t *testing.T) (*gorm.DB, storage.Store) {
	t.Helper()
	return testutil.OpenDB(t), testutil.LocalStore(t)
}

func TestBuiltInPresets(t *testing.T) {
	presets, err := BuiltInPresets()
	require.NoError(t, err)
	require.Len(t, presets, 13)

	names := make(map[string]bool)
	for _, p := range presets {
		assert.NotEmpty(t, p.Name)
		assert.NotEmpty(t, p.PromptSuffix, p.Name)
		assert.NotEmpty(t, p.Category, p.Name)
		assert.True(t, p.IsActive)
		assert.False(t, names[p.Name], "duplicate preset %s", p.Name)
		names[p.Name] = true
	}
	assert.True(t, names["Cinematic"])
}

func TestPresets_Idempotent(t *testing.T) {
	db, _ := setupSeedDB(t)
	ctx := context.Background()

	n, err := Presets(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 13, n)

	// Retire one preset, then seed again.
	require.NoError(t, db.Model(&models.StylePreset{}).
		Where("name = ?", "Cinematic").Update("is_active", false).Error)

	_, err = Presets(ctx, db)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.StylePreset{}).Count(&count).Error)
	assert.Equal(t, int64(13), count)

	var cinematic models.StylePreset
	require.NoError(t, db.Where("name = ?", "Cinematic").First(&cinematic).Error)
	assert.False(t, cinematic.IsActive)
}

func TestSeed_Report(t *testing.T) {
	db, store := setupSeedDB(t)
	ctx := context.Background()

	report, err := Seed(ctx, db, store, Options{
		NumUsers:        4,
		ImagesPerUser:   3,
		PostRatio:       1,
		CommentsPerPost: 2,
		LikesPerPost:    2,
		FeedbackPerUser: 1,
		IncludePresets:  true,
		Factory:         FactoryOptions{SkipBcrypt: true, Seed: 42, ImageSize: 16},
	})
	require.NoError(t, err)

	assert.Equal(t, 13, report.Presets)
	assert.Equal(t, 4, report.Users)
	assert.Equal(t, 12, report.Images)
	assert.Equal(t, 2*report.Posts, report.Comments)
	assert.Equal(t, 2*report.Posts, report.Likes)
	assert.Equal(t, 4, report.Feedback)

	var images []models.GeneratedImage
	require.NoError(t, db.Find(&images).Error)
	require.Len(t, images, 12)

	public := 0
	for _, img := range images {
		ok, err := store.Exists(ctx, img.FilePath)
		require.NoError(t, err)
		assert.True(t, ok, img.FilePath)
		assert.NotEmpty(t, img.Hashtags)
		if img.IsPublic {
			public++
		}
	}
	// Every public image becomes a post with a ratio of 1.
	assert.Equal(t, public, report.Posts)

	var posts int64
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	assert.Equal(t, int64(report.Posts), posts)
}

func TestSeed_CleanReplacesData(t *testing.T) {
	db, store := setupSeedDB(t)
	ctx := context.Background()
	opts := Options{
		NumUsers:      2,
		ImagesPerUser: 1,
		Factory:       FactoryOptions{SkipBcrypt: true, Seed: 7, ImageSize: 16},
	}

	_, err := Seed(ctx, db, store, opts)
	require.NoError(t, err)
	opts.ShouldClean = true
	opts.Factory.Seed = 8
	_, err = Seed(ctx, db, store, opts)
	require.NoError(t, err)

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Equal(t, int64(2), users)
}

func TestFactory_PrivateImagePersisted(t *testing.T) {
	db, store := setupSeedDB(t)
	ctx := context.Background()
	f := NewFactory(db, store, FactoryOptions{SkipBcrypt: true, Seed: 1, ImageSize: 16})

	user, err := f.CreateUser(ctx)
	require.NoError(t, err)
	img, err := f.CreateImage(ctx, user, nil, func(i *models.GeneratedImage) { i.IsPublic = false })
	require.NoError(t, err)

	var stored models.GeneratedImage
	require.NoError(t, db.First(&stored, "id = ?", img.ID).Error)
	assert.False(t, stored.IsPublic)
	assert.Equal(t, models.SourceMock, stored.GenerationSource)
}

func TestFactory_CreateLikeIgnoresDuplicates(t *testing.T) {
	db, store := setupSeedDB(t)
	ctx := context.Background()
	f := NewFactory(db, store, FactoryOptions{SkipBcrypt: true, Seed: 2, ImageSize: 16})

	user, err := f.CreateUser(ctx)
	require.NoError(t, err)
	img, err := f.CreateImage(ctx, user, nil, func(i *models.GeneratedImage) { i.IsPublic = true })
	require.NoError(t, err)
	post, err := f.CreatePost(ctx, img)
	require.NoError(t, err)

	require.NoError(t, f.CreateLike(ctx, user, post))
	require.NoError(t, f.CreateLike(ctx, user, post))

	var likes int64
	require.NoError(t, db.Model(&models.Like{}).Count(&likes).Error)
	assert.Equal(t, int64(1), likes)
}
