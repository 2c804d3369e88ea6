package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"pixelpost/internal/generation"
	"pixelpost/internal/hashtags"
	"pixelpost/internal/models"
	"pixelpost/internal/repository"
	"pixelpost/internal/storage"
	"pixelpost/internal/synth"
	"pixelpost/internal/testutil"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// stubGenerator returns a fixed result and records requests.
type stubGenerator struct {
	mu       sync.Mutex
	result   generation.Result
	err      error
	requests []generation.Request
}

func (g *stubGenerator) Generate(_ context.Context, req generation.Request) (generation.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	return g.result, g.err
}

func pngResult(t *testing.T, source models.GenerationSource, fallback bool) generation.Result {
	t.Helper()
	data, err := synth.Image("fixture", nil, 64, 64)
	require.NoError(t, err)
	return generation.Result{
		Media:    generation.Media{Data: data, ContentType: "image/png"},
		Source:   source,
		Metadata: models.Metadata{"service_name": source.DisplayName()},
		Fallback: fallback,
		Attempts: []generation.AttemptLog{{Provider: "huggingface", Attempt: 1, Outcome: "permanent", Reason: "no api token"}},
	}
}

type testEnv struct {
	db      *gorm.DB
	store   *storage.LocalStore
	users   repository.UserRepository
	images  repository.ImageRepository
	videos  repository.VideoRepository
	presets repository.PresetRepository
	posts   repository.PostRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.OpenDB(t)
	store := testutil.LocalStore(t)

	return &testEnv{
		db:      db,
		store:   store,
		users:   repository.NewUserRepository(db),
		images:  repository.NewImageRepository(db),
		videos:  repository.NewVideoRepository(db),
		presets: repository.NewPresetRepository(db),
		posts:   repository.NewPostRepository(db),
	}
}

func (e *testEnv) user(t *testing.T) *models.User {
	t.Helper()
	u := &models.User{
		Username: fmt.Sprintf("user%d", gofakeit.Number(1, 1_000_000_000)),
		Email:    gofakeit.Email(),
		Password: "hashed",
	}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func (e *testEnv) generationService(imageGen, videoGen Generator) *GenerationService {
	return NewGenerationService(GenerationDeps{
		Images:   e.images,
		Videos:   e.videos,
		Presets:  e.presets,
		Store:    e.store,
		ImageGen: imageGen,
		VideoGen: videoGen,
		Tags:     hashtags.New(hashtags.Options{Seeded: true, Seed: 7}),
	})
}

func (e *testEnv) mediaService() *MediaService {
	return NewMediaService(e.images, e.presets, e.store, nil, "https://pixelpost.test/")
}

// storedImage generates a real image for owner through the generation service.
func (e *testEnv) storedImage(t *testing.T, owner uint, public bool) *models.GeneratedImage {
	t.Helper()
	gen := &stubGenerator{result: pngResult(t, models.SourceHuggingFace, false)}
	res, err := e.generationService(gen, gen).GenerateImage(context.Background(), GenerateImageInput{
		UserID:   owner,
		Prompt:   gofakeit.Sentence(5),
		IsPublic: &public,
	})
	require.NoError(t, err)
	return res.Image
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}
