package service

import (
	"context"
	"testing"

	"pixelpost/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVideoService_OwnershipAndDelete(t *testing.T) {
	env := newTestEnv(t)
	owner, other := env.user(t), env.user(t)
	ctx := context.Background()
	gen := env.generationService(&stubGenerator{}, &stubGenerator{result: fakeVideoResult(models.SourceFal)})
	res, err := gen.GenerateVideo(ctx, GenerateVideoInput{UserID: owner.ID, Prompt: "waves on rocks"})
	require.NoError(t, err)
	video := res.Video
	svc := NewVideoService(env.videos, env.store)

	got, err := svc.Get(ctx, other.ID, video.ID)
	require.NoError(t, err)
	assert.Equal(t, "/media/"+video.FilePath, got.URL)

	assertCode(t, svc.Delete(ctx, other.ID, video.ID), models.CodeForbidden)

	public, err := svc.TogglePrivacy(ctx, owner.ID, video.ID)
	require.NoError(t, err)
	assert.False(t, public)
	_, err = svc.Get(ctx, other.ID, video.ID)
	assertCode(t, err, models.CodeNotFound)

	gallery, err := svc.Gallery(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, gallery, 1)

	require.NoError(t, svc.Delete(ctx, owner.ID, video.ID))
	exists, err := env.store.Exists(ctx, video.FilePath)
	require.NoError(t, err)
	assert.False(t, exists)
	exists, err = env.store.Exists(ctx, video.ThumbnailPath)
	require.NoError(t, err)
	assert.False(t, exists)
}
