// Package service holds the use cases that sit between the HTTP handlers and the
// repositories: generation, media ownership, posts and their social features.
package service

import (
	"context"
	"log/slog"

	"pixelpost/internal/middleware"
	"pixelpost/internal/models"
	"pixelpost/internal/repository"
	"pixelpost/internal/storage"
)

// AdminChecker reports whether userID has administrator rights.
type AdminChecker func(ctx context.Context, userID uint) (bool, error)

// AdminCheckerFromRepo looks the user up on every call.
func AdminCheckerFromRepo(users repository.UserRepository) AdminChecker {
	return func(ctx context.Context, userID uint) (bool, error) {
		user, err := users.GetByID(ctx, userID)
		if err != nil {
			return false, err
		}
		return user.IsAdmin, nil
	}
}

// ownerOrAdmin allows the owner and, when isAdmin is set, administrators.
func ownerOrAdmin(ctx context.Context, isAdmin AdminChecker, ownerID, userID uint, msg string) error {
	if ownerID == userID {
		return nil
	}
	if isAdmin == nil {
		return models.NewForbiddenError(msg)
	}
	admin, err := isAdmin(ctx, userID)
	if err != nil {
		return err
	}
	if !admin {
		return models.NewForbiddenError(msg)
	}
	return nil
}

// removeFiles deletes stored objects. Failures are logged and otherwise ignored.
func removeFiles(ctx context.Context, store storage.Store, keys ...string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := store.Delete(ctx, key); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to delete media file",
				slog.String("key", key), slog.String("error", err.Error()))
		}
	}
}

func objectURL(ctx context.Context, store storage.Store, key string) string {
	if key == "" {
		return ""
	}
	u, err := store.URL(ctx, key)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "failed to build media url",
			slog.String("key", key), slog.String("error", err.Error()))
		return ""
	}
	return u
}

// withImageURLs fills the client-facing URL fields of images in place.
func withImageURLs(ctx context.Context, store storage.Store, images ...*models.GeneratedImage) {
	for _, img := range images {
		if img == nil {
			continue
		}
		img.URL = objectURL(ctx, store, img.FilePath)
		img.PreviewURL = objectURL(ctx, store, img.PreviewPath)
	}
}

func withImageSliceURLs(ctx context.Context, store storage.Store, images []models.GeneratedImage) {
	for i := range images {
		withImageURLs(ctx, store, &images[i])
	}
}

func withVideoURLs(ctx context.Context, store storage.Store, videos ...*models.GeneratedVideo) {
	for _, v := range videos {
		if v == nil {
			continue
		}
		v.URL = objectURL(ctx, store, v.FilePath)
		v.ThumbnailURL = objectURL(ctx, store, v.ThumbnailPath)
	}
}
