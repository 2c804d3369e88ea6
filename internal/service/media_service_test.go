package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"math/rand"
	"testing"

	"pixelpost/internal/models"
	"pixelpost/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaService_GetVisibility(t *testing.T) {
	env := newTestEnv(t)
	owner, other := env.user(t), env.user(t)
	private := env.storedImage(t, owner.ID, false)
	public := env.storedImage(t, owner.ID, true)
	svc := env.mediaService()
	ctx := context.Background()

	_, err := svc.Get(ctx, other.ID, private.ID)
	assertCode(t, err, models.CodeNotFound)
	_, err = svc.Get(ctx, 0, private.ID)
	assertCode(t, err, models.CodeNotFound)

	got, err := svc.Get(ctx, owner.ID, private.ID)
	require.NoError(t, err)
	assert.Equal(t, "/media/"+got.FilePath, got.URL)

	_, err = svc.Get(ctx, 0, public.ID)
	assert.NoError(t, err)

	_, err = svc.Get(ctx, owner.ID, uuid.New())
	assertCode(t, err, models.CodeNotFound)
}

func TestMediaService_DeleteRemovesFile(t *testing.T) {
	env := newTestEnv(t)
	owner, other := env.user(t), env.user(t)
	img := env.storedImage(t, owner.ID, true)
	svc := env.mediaService()
	ctx := context.Background()

	assertCode(t, svc.Delete(ctx, other.ID, img.ID), models.CodeForbidden)

	require.NoError(t, svc.Delete(ctx, owner.ID, img.ID))
	exists, err := env.store.Exists(ctx, img.FilePath)
	require.NoError(t, err)
	assert.False(t, exists)
	exists, err = env.store.Exists(ctx, img.PreviewPath)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = svc.Get(ctx, owner.ID, img.ID)
	assertCode(t, err, models.CodeNotFound)
}

func TestMediaService_BulkDeleteOnlyOwned(t *testing.T) {
	env := newTestEnv(t)
	owner, other := env.user(t), env.user(t)
	mine1 := env.storedImage(t, owner.ID, true)
	mine2 := env.storedImage(t, owner.ID, false)
	theirs := env.storedImage(t, other.ID, true)
	svc := env.mediaService()
	ctx := context.Background()

	_, err := svc.BulkDelete(ctx, owner.ID, nil)
	assertCode(t, err, models.CodeValidation)

	n, err := svc.BulkDelete(ctx, owner.ID, []uuid.UUID{mine1.ID, mine2.ID, theirs.ID, uuid.New()})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	for _, img := range []*models.GeneratedImage{mine1, mine2} {
		exists, err := env.store.Exists(ctx, img.FilePath)
		require.NoError(t, err)
		assert.False(t, exists)
	}
	_, err = svc.Get(ctx, other.ID, theirs.ID)
	require.NoError(t, err)
	exists, err := env.store.Exists(ctx, theirs.FilePath)
	require.NoError(t, err)
	assert.True(t, exists)

	n, err = svc.BulkDelete(ctx, owner.ID, []uuid.UUID{theirs.ID})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMediaService_TogglePrivacy(t *testing.T) {
	env := newTestEnv(t)
	owner, other := env.user(t), env.user(t)
	img := env.storedImage(t, owner.ID, true)
	svc := env.mediaService()
	ctx := context.Background()

	_, err := svc.TogglePrivacy(ctx, other.ID, img.ID)
	assertCode(t, err, models.CodeForbidden)

	public, err := svc.TogglePrivacy(ctx, owner.ID, img.ID)
	require.NoError(t, err)
	assert.False(t, public)

	// Now private, so a stranger cannot even see it.
	_, err = svc.TogglePrivacy(ctx, other.ID, img.ID)
	assertCode(t, err, models.CodeNotFound)

	public, err = svc.TogglePrivacy(ctx, owner.ID, img.ID)
	require.NoError(t, err)
	assert.True(t, public)
}

func TestMediaService_ShareAndQR(t *testing.T) {
	env := newTestEnv(t)
	owner, other := env.user(t), env.user(t)
	img := env.storedImage(t, owner.ID, true)
	for range 7 {
		env.storedImage(t, owner.ID, true)
	}
	env.storedImage(t, owner.ID, false)
	env.storedImage(t, other.ID, true)
	svc := env.mediaService()
	ctx := context.Background()

	share, err := svc.Share(ctx, 0, img.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://pixelpost.test/images/"+img.ID.String(), share.ShareURL)
	assert.Len(t, share.Related, RelatedLimit)
	for _, r := range share.Related {
		assert.NotEqual(t, img.ID, r.ID)
		assert.Equal(t, owner.ID, r.UserID)
		assert.True(t, r.IsPublic)
	}

	qr, err := svc.QRCode(ctx, 0, img.ID)
	require.NoError(t, err)
	assert.Equal(t, share.ShareURL, qr.ShareURL)
	raw, err := base64.StdEncoding.DecodeString(qr.PNGBase64)
	require.NoError(t, err)
	decoded, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, QRCodeSize, decoded.Bounds().Dx())
}

func TestMediaService_Download(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t)
	img := env.storedImage(t, owner.ID, false)
	svc := env.mediaService()
	ctx := context.Background()

	_, err := svc.Download(ctx, 0, img.ID)
	assertCode(t, err, models.CodeNotFound)

	dl, err := svc.Download(ctx, owner.ID, img.ID)
	require.NoError(t, err)
	defer dl.Body.Close()
	body, err := io.ReadAll(dl.Body)
	require.NoError(t, err)
	assert.EqualValues(t, img.FileSize, len(body))
	assert.Equal(t, "image/png", dl.ContentType)
	assert.Contains(t, dl.Filename, img.ID.String()[:8])
}

func TestDownloadFilename(t *testing.T) {
	id := uuid.MustParse("12345678-aaaa-bbbb-cccc-1234567890ab")
	tests := []struct {
		prompt, contentType, want string
	}{
		{"A cat, in a forest!", "image/png", "ai_generated_A_cat_in_a_forest_12345678.png"},
		{"sunset over the ocean with some extra words", "image/jpeg", "ai_generated_sunset_over_the_ocean_with_som_12345678.jpg"},
		{"***", "image/png", "ai_generated__12345678.png"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DownloadFilename(tt.prompt, id, tt.contentType))
	}
}

func TestMediaService_GalleryExploreHome(t *testing.T) {
	env := newTestEnv(t)
	owner, other := env.user(t), env.user(t)
	for range ExplorePageSize {
		env.storedImage(t, owner.ID, true)
	}
	env.storedImage(t, other.ID, true)
	env.storedImage(t, owner.ID, false)
	svc := env.mediaService()
	ctx := context.Background()

	gallery, err := svc.Gallery(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, ExplorePageSize+1, gallery.Total)
	require.Len(t, gallery.Sources, 1)
	assert.Equal(t, "Hugging Face", gallery.Sources[0].DisplayName)
	assert.EqualValues(t, ExplorePageSize+1, gallery.Sources[0].Count)

	page, err := svc.Explore(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, page.Images, 1)
	assert.Equal(t, 2, page.TotalPages)
	assert.EqualValues(t, ExplorePageSize+1, page.Total)

	page, err = svc.Explore(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Len(t, page.Images, ExplorePageSize)

	home, err := svc.Home(ctx)
	require.NoError(t, err)
	assert.Len(t, home.Recent, HomeRecentLimit)
	assert.EqualValues(t, ExplorePageSize+2, home.TotalImages)
	assert.EqualValues(t, ExplorePageSize+1, home.PublicImages)
}

func noisePNG(t *testing.T, size int) []byte {
	t.Helper()
	r := rand.New(rand.NewSource(1))
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := range size {
		for x := range size {
			img.Set(x, y, color.RGBA{R: uint8(r.Intn(256)), G: uint8(r.Intn(256)), B: uint8(r.Intn(256)), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func smallJPEG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 16, 16)), nil))
	return buf.Bytes()
}

func TestMediaService_BackfillSources(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t)
	ctx := context.Background()

	files := map[string][]byte{
		"images/jpeg.jpg":  smallJPEG(t),
		"images/small.png": noisePNG(t, 8),
		"images/large.png": noisePNG(t, 400),
		"images/text.png":  []byte("hello"),
	}
	for key, data := range files {
		require.NoError(t, env.store.Save(ctx, key, "", data))
	}
	add := func(key string, md models.Metadata) *models.GeneratedImage {
		img := &models.GeneratedImage{UserID: owner.ID, Prompt: key, FilePath: key, IsPublic: true,
			GenerationSource: models.SourceUnknown, GenerationMetadata: md}
		require.NoError(t, env.images.Create(ctx, img))
		return img
	}
	byName := add("images/missing.png", models.Metadata{"service_name": "Replicate"})
	jpg := add("images/jpeg.jpg", nil)
	small := add("images/small.png", nil)
	large := add("images/large.png", nil)
	text := add("images/text.png", nil)
	gone := add("images/gone.png", nil)
	svc := env.mediaService()

	report, err := svc.BackfillSources(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 6, report.Scanned)
	assert.Equal(t, 4, report.Updated)
	assert.Equal(t, 2, report.Counts[models.SourceUnknown])
	still, err := env.images.GetByID(ctx, jpg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SourceUnknown, still.GenerationSource)

	_, err = svc.BackfillSources(ctx, false)
	require.NoError(t, err)
	want := map[uuid.UUID]models.GenerationSource{
		byName.ID: models.SourceReplicate,
		jpg.ID:    models.SourcePollinations,
		small.ID:  models.SourceMock,
		large.ID:  models.SourceHuggingFace,
		text.ID:   models.SourceUnknown,
		gone.ID:   models.SourceUnknown,
	}
	for id, source := range want {
		got, err := env.images.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, source, got.GenerationSource, got.Prompt)
	}

	report2, err := svc.SourceReport(ctx, 2)
	require.NoError(t, err)
	assert.NotEmpty(t, report2.Sources)
	assert.LessOrEqual(t, len(report2.Samples[models.SourceUnknown]), 2)
}

func TestSourceFromServiceName(t *testing.T) {
	tests := map[string]models.GenerationSource{
		"Pollinations AI":         models.SourcePollinations,
		"Hugging Face":            models.SourceHuggingFace,
		"DeepAI":                  models.SourceDeepAI,
		"Enhanced Mock Generator": models.SourceMock,
		"Replicate":               models.SourceReplicate,
		"":                        models.SourceUnknown,
		"Something Else":          models.SourceUnknown,
	}
	for name, want := range tests {
		assert.Equal(t, want, sourceFromServiceName(name), name)
	}
}

func TestMediaService_DeleteToleratesStoreErrors(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t)
	img := env.storedImage(t, owner.ID, true)
	store := testutil.NewMemoryStore()
	store.FailDelete = errors.New("permission denied")
	svc := NewMediaService(env.images, env.presets, store, nil, "https://pixelpost.test")
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, owner.ID, img.ID))
	_, err := env.images.GetByID(ctx, img.ID)
	assertCode(t, err, models.CodeNotFound)
}
