// Package storage keeps the media files owned by generated image and video records.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"pixelpost/internal/config"
)

// ErrNotFound is returned when a key has no stored object.
var ErrNotFound = errors.New("storage: object not found")

// ErrInvalidKey is returned for keys that are empty or escape the store root.
var ErrInvalidKey = errors.New("storage: invalid key")

// Store persists media bytes by key. Keys are slash separated, e.g. "images/<uuid>.png".
type Store interface {
	Save(ctx context.Context, key, contentType string, data []byte) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Size(ctx context.Context, key string) (int64, error)
	// URL returns where a client can fetch the object.
	URL(ctx context.Context, key string) (string, error)
}

// New builds the store selected by STORAGE_BACKEND.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StorageBackend {
	case config.StorageS3:
		return NewS3Store(ctx, S3Options{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			PresignTTL:      cfg.PresignTTL(),
		})
	case config.StorageLocal, "":
		return NewLocalStore(cfg.MediaRoot, cfg.MediaURLPrefix)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.StorageBackend)
	}
}

// cleanKey normalizes key and rejects anything that would leave the root.
func cleanKey(key string) (string, error) {
	key = strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	if key == "" {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(key, "/") || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return cleaned, nil
}

// ReadAll opens key and reads it fully.
func ReadAll(ctx context.Context, s Store, key string) ([]byte, error) {
	rc, err := s.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// ImageKey is the storage key of an image file.
func ImageKey(id, ext string) string {
	return "images/" + id + ext
}

// PreviewKey is the storage key of an image's WebP preview.
func PreviewKey(id string) string {
	return "previews/" + id + ".webp"
}

// VideoKey is the storage key of a video file.
func VideoKey(id, ext string) string {
	return "videos/" + id + ext
}

// ThumbnailKey is the storage key of a video poster frame.
func ThumbnailKey(id string) string {
	return "thumbnails/" + id + ".jpg"
}
