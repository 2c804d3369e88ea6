package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"pixelpost/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := NewLocalStore(root, "media/")
	require.NoError(t, err)

	key := ImageKey("abc", ".png")
	require.NoError(t, s.Save(ctx, key, "image/png", []byte("pixels")))

	info, err := os.Stat(filepath.Join(root, "images", "abc.png"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(filePerm), info.Mode().Perm())

	data, err := ReadAll(ctx, s, key)
	require.NoError(t, err)
	assert.Equal(t, "pixels", string(data))

	size, err := s.Size(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(6), size)

	url, err := s.URL(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "/media/images/abc.png", url)

	require.NoError(t, s.Delete(ctx, key))
	ok, err := s.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Open(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, s.Delete(ctx, key), "deleting a missing file is not an error")
}

func TestLocalStore_RejectsEscapingKeys(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir(), "")
	require.NoError(t, err)

	for _, key := range []string{"", "../etc/passwd", "images/../../x", "a//b"} {
		assert.ErrorIs(t, s.Save(ctx, key, "", []byte("x")), ErrInvalidKey, key)
		_, err := s.Open(ctx, key)
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestLocalStore_Overwrite(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir(), "")
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, "videos/v.gif", "image/gif", []byte("one")))
	require.NoError(t, s.Save(ctx, "videos/v.gif", "image/gif", []byte("two!")))
	data, err := ReadAll(ctx, s, "videos/v.gif")
	require.NoError(t, err)
	assert.Equal(t, "two!", string(data))

	entries, err := os.ReadDir(filepath.Join(s.Root(), "videos"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}

func TestNew_SelectsBackend(t *testing.T) {
	cfg := &config.Config{StorageBackend: config.StorageLocal, MediaRoot: t.TempDir(), MediaURLPrefix: "/files"}
	s, err := New(context.Background(), cfg)
	require.NoError(t, err)
	local, ok := s.(*LocalStore)
	require.True(t, ok)
	assert.Equal(t, "/files", local.URLPrefix())

	cfg.StorageBackend = "ftp"
	_, err = New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "images/id.jpg", ImageKey("id", ".jpg"))
	assert.Equal(t, "previews/id.webp", PreviewKey("id"))
	assert.Equal(t, "videos/id.mp4", VideoKey("id", ".mp4"))
	assert.Equal(t, "thumbnails/id.jpg", ThumbnailKey("id"))
}
