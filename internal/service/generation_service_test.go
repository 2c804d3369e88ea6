package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"pixelpost/internal/featureflags"
	"pixelpost/internal/generation"
	"pixelpost/internal/hashtags"
	"pixelpost/internal/models"
	"pixelpost/internal/storage"
	"pixelpost/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateImage_StoresFileAndRecord(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t)
	gen := &stubGenerator{result: pngResult(t, models.SourceHuggingFace, false)}
	svc := env.generationService(gen, gen)
	ctx := context.Background()

	res, err := svc.GenerateImage(ctx, GenerateImageInput{UserID: user.ID, Prompt: "  a cat in a forest  "})
	require.NoError(t, err)
	img := res.Image

	assert.Empty(t, res.Notice)
	assert.Equal(t, "a cat in a forest", img.Prompt)
	assert.Equal(t, models.SourceHuggingFace, img.GenerationSource)
	assert.Equal(t, 512, img.Width)
	assert.True(t, img.IsPublic)
	assert.Equal(t, "images/"+img.ID.String()+".png", img.FilePath)
	assert.Equal(t, "/media/"+img.FilePath, img.URL)
	assert.NotEmpty(t, img.Hashtags)
	assert.LessOrEqual(t, len(img.Hashtags), 15)

	exists, err := env.store.Exists(ctx, img.FilePath)
	require.NoError(t, err)
	assert.True(t, exists)
	size, err := env.store.Size(ctx, img.FilePath)
	require.NoError(t, err)
	assert.Equal(t, img.FileSize, size)

	assert.Equal(t, storage.PreviewKey(img.ID.String()), img.PreviewPath)
	exists, err = env.store.Exists(ctx, img.PreviewPath)
	require.NoError(t, err)
	assert.True(t, exists)

	stored, err := env.images.GetByID(ctx, img.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hugging Face", stored.GenerationMetadata.String("service_name"))
	assert.Equal(t, img.Hashtags, stored.Hashtags)
}

func TestGenerateImage_FallbackNotice(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t)
	gen := &stubGenerator{result: pngResult(t, models.SourceMock, true)}
	private := false

	res, err := env.generationService(gen, gen).GenerateImage(context.Background(), GenerateImageInput{
		UserID:   user.ID,
		Prompt:   "ocean at dusk",
		Width:    768,
		Height:   1024,
		IsPublic: &private,
	})
	require.NoError(t, err)
	assert.Equal(t, models.SourceMock, res.Image.GenerationSource)
	assert.False(t, res.Image.IsPublic)
	assert.Contains(t, res.Notice, "fallback")
	assert.Contains(t, res.Notice, "huggingface (not usable)")
	assert.NotContains(t, res.Notice, "no api token")
}

func TestGenerateImage_Validation(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t)
	gen := &stubGenerator{result: pngResult(t, models.SourceMock, true)}
	svc := env.generationService(gen, gen)

	tests := []struct {
		name string
		in   GenerateImageInput
	}{
		{"empty prompt", GenerateImageInput{Prompt: "   "}},
		{"long prompt", GenerateImageInput{Prompt: strings.Repeat("a", 1001)}},
		{"bad width", GenerateImageInput{Prompt: "x", Width: 600}},
		{"bad height", GenerateImageInput{Prompt: "x", Height: 2048}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.UserID = user.ID
			_, err := svc.GenerateImage(context.Background(), tt.in)
			assertCode(t, err, models.CodeValidation)
		})
	}
	assert.Empty(t, gen.requests)
}

func TestGenerateImage_Presets(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t)
	ctx := context.Background()
	active := &models.StylePreset{Name: "Anime", PromptSuffix: "anime style, vibrant", IsActive: true}
	inactive := &models.StylePreset{Name: "Retired", PromptSuffix: "old", IsActive: false}
	require.NoError(t, env.presets.Create(ctx, active))
	require.NoError(t, env.presets.Create(ctx, inactive))

	gen := &stubGenerator{result: pngResult(t, models.SourcePollinations, false)}
	svc := env.generationService(gen, gen)

	_, err := svc.GenerateImage(ctx, GenerateImageInput{UserID: user.ID, Prompt: "x", StylePresetID: &inactive.ID})
	assertCode(t, err, models.CodeValidation)

	missing := uint(9999)
	_, err = svc.GenerateImage(ctx, GenerateImageInput{UserID: user.ID, Prompt: "x", StylePresetID: &missing})
	assertCode(t, err, models.CodeValidation)

	res, err := svc.GenerateImage(ctx, GenerateImageInput{UserID: user.ID, Prompt: "a girl", StylePresetID: &active.ID})
	require.NoError(t, err)
	require.Len(t, gen.requests, 1)
	assert.Equal(t, "anime style, vibrant", gen.requests[0].StyleSuffix)
	assert.Equal(t, "a girl, anime style, vibrant", gen.requests[0].FullPrompt())
	require.NotNil(t, res.Image.StylePresetID)
	assert.Equal(t, active.ID, *res.Image.StylePresetID)
}

func TestGenerateImage_CancelledCreatesNothing(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t)
	gen := &stubGenerator{err: context.Canceled}

	_, err := env.generationService(gen, gen).GenerateImage(context.Background(), GenerateImageInput{UserID: user.ID, Prompt: "x"})
	assertCode(t, err, models.CodeInternal)
	assert.True(t, errors.Is(err, context.Canceled))

	n, err := env.images.Count(context.Background(), false)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func fakeVideoResult(source models.GenerationSource) generation.Result {
	return generation.Result{
		Media:    generation.Media{Data: []byte("not really an mp4 but long enough"), ContentType: "video/mp4"},
		Source:   source,
		Metadata: models.Metadata{"service_name": "Replicate", "frames": 16},
	}
}

func TestGenerateVideo_Completes(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t)
	ctx := context.Background()
	preset := &models.StylePreset{Name: "Film", PromptSuffix: "cinematic lighting", Category: "cinematic", IsActive: true}
	require.NoError(t, env.presets.Create(ctx, preset))

	videoGen := &stubGenerator{result: fakeVideoResult(models.SourceReplicate)}
	svc := env.generationService(&stubGenerator{}, videoGen)

	res, err := svc.GenerateVideo(ctx, GenerateVideoInput{UserID: user.ID, Prompt: "a cat chasing birds", StylePresetID: &preset.ID})
	require.NoError(t, err)
	v := res.Video

	assert.Equal(t, models.VideoStatusCompleted, v.Status)
	assert.Equal(t, DefaultVideoDuration, v.Duration)
	assert.Equal(t, DefaultVideoFPS, v.FPS)
	assert.Equal(t, models.VideoQualityStandard, v.Quality)
	assert.Equal(t, models.SourceReplicate, v.GenerationSource)
	assert.Equal(t, "videos/"+v.ID.String()+".mp4", v.FilePath)
	assert.Equal(t, storage.ThumbnailKey(v.ID.String()), v.ThumbnailPath)
	assert.Contains(t, []string(v.Hashtags), "cinematic")
	assert.Contains(t, []string(v.Hashtags), "cat")

	require.Len(t, videoGen.requests, 1)
	assert.Equal(t, "cinematic lighting", videoGen.requests[0].StyleSuffix)

	stored, err := env.videos.GetByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VideoStatusCompleted, stored.Status)

	exists, err := env.store.Exists(ctx, v.ThumbnailPath)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestGenerateVideo_Validation(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t)
	svc := env.generationService(&stubGenerator{}, &stubGenerator{result: fakeVideoResult(models.SourceFal)})

	for _, in := range []GenerateVideoInput{
		{Prompt: "x", Duration: 11},
		{Prompt: "x", FPS: 4},
		{Prompt: "x", FPS: 60},
		{Prompt: "x", Quality: "ultra"},
		{Prompt: ""},
	} {
		in.UserID = user.ID
		_, err := svc.GenerateVideo(context.Background(), in)
		assertCode(t, err, models.CodeValidation)
	}
}

func TestGenerateVideo_FailureMarksRow(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t)
	ctx := context.Background()
	svc := env.generationService(&stubGenerator{}, &stubGenerator{err: context.DeadlineExceeded})

	_, err := svc.GenerateVideo(ctx, GenerateVideoInput{UserID: user.ID, Prompt: "space galaxy"})
	assertCode(t, err, models.CodeInternal)

	videos, err := env.videos.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, models.VideoStatusFailed, videos[0].Status)
	assert.NotEmpty(t, videos[0].ErrorMessage)
}

func TestGenerateVideo_DisabledByFlag(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t)
	gen := &stubGenerator{result: fakeVideoResult(models.SourceFal)}
	svc := env.generationService(gen, gen)
	svc.flags = featureflags.NewManager("video_generation=off")

	_, err := svc.GenerateVideo(context.Background(), GenerateVideoInput{UserID: user.ID, Prompt: "x"})
	assertCode(t, err, models.CodeForbidden)
	assert.Empty(t, gen.requests)
}

func TestGenerateImage_PreviewFlagOff(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t)
	gen := &stubGenerator{result: pngResult(t, models.SourceMock, true)}
	svc := env.generationService(gen, gen)
	svc.flags = featureflags.NewManager("webp_previews=off")

	res, err := svc.GenerateImage(context.Background(), GenerateImageInput{UserID: user.ID, Prompt: "x"})
	require.NoError(t, err)
	assert.Empty(t, res.Image.PreviewPath)
	assert.Empty(t, res.Image.PreviewURL)
}

func TestSweepStale(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t)
	ctx := context.Background()

	stale := &models.GeneratedVideo{UserID: user.ID, Prompt: "stuck", Status: models.VideoStatusProcessing, IsPublic: true}
	fresh := &models.GeneratedVideo{UserID: user.ID, Prompt: "running", Status: models.VideoStatusProcessing, IsPublic: true}
	require.NoError(t, env.videos.Create(ctx, stale))
	require.NoError(t, env.videos.Create(ctx, fresh))
	require.NoError(t, env.db.Model(&models.GeneratedVideo{}).Where("id = ?", stale.ID).
		Update("created_at", time.Now().Add(-time.Hour)).Error)

	svc := env.generationService(&stubGenerator{}, &stubGenerator{})
	n, err := svc.SweepStale(ctx, StaleVideoAfter)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := env.videos.GetByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VideoStatusFailed, got.Status)
	got, err = env.videos.GetByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VideoStatusProcessing, got.Status)
}

func TestGenerateImage_StoreFailureSavesNothing(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t)
	gen := &stubGenerator{result: pngResult(t, models.SourceHuggingFace, false)}
	store := testutil.NewMemoryStore()
	store.FailSave = errors.New("disk full")
	svc := NewGenerationService(GenerationDeps{
		Images:   env.images,
		Videos:   env.videos,
		Presets:  env.presets,
		Store:    store,
		ImageGen: gen,
		VideoGen: gen,
		Tags:     hashtags.New(hashtags.Options{Seeded: true, Seed: 7}),
	})

	_, err := svc.GenerateImage(context.Background(), GenerateImageInput{UserID: user.ID, Prompt: "a lighthouse"})
	assertCode(t, err, models.CodeInternal)

	var count int64
	require.NoError(t, env.db.Model(&models.GeneratedImage{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Empty(t, store.Keys())
}
