package service

import (
	"context"

	"pixelpost/internal/models"
	"pixelpost/internal/repository"
	"pixelpost/internal/storage"

	"github.com/google/uuid"
)

// VideoService applies the image ownership rules to videos.
type VideoService struct {
	videos repository.VideoRepository
	store  storage.Store
}

func NewVideoService(videos repository.VideoRepository, store storage.Store) *VideoService {
	return &VideoService{videos: videos, store: store}
}

func (s *VideoService) visible(ctx context.Context, viewerID uint, id uuid.UUID) (*models.GeneratedVideo, error) {
	video, err := s.videos.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !video.VisibleTo(viewerID) {
		return nil, models.NewNotFoundError("Video", id)
	}
	return video, nil
}

func (s *VideoService) owned(ctx context.Context, userID uint, id uuid.UUID) (*models.GeneratedVideo, error) {
	video, err := s.visible(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if video.UserID != userID {
		return nil, models.NewForbiddenError("You can only modify your own videos")
	}
	return video, nil
}

func (s *VideoService) Get(ctx context.Context, viewerID uint, id uuid.UUID) (*models.GeneratedVideo, error) {
	video, err := s.visible(ctx, viewerID, id)
	if err != nil {
		return nil, err
	}
	withVideoURLs(ctx, s.store, video)
	return video, nil
}

// Gallery lists the user's videos, newest first.
func (s *VideoService) Gallery(ctx context.Context, userID uint) ([]models.GeneratedVideo, error) {
	videos, err := s.videos.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range videos {
		withVideoURLs(ctx, s.store, &videos[i])
	}
	return videos, nil
}

func (s *VideoService) Delete(ctx context.Context, userID uint, id uuid.UUID) error {
	video, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	removeFiles(ctx, s.store, video.FilePath, video.ThumbnailPath)
	return s.videos.Delete(ctx, id)
}

func (s *VideoService) TogglePrivacy(ctx context.Context, userID uint, id uuid.UUID) (bool, error) {
	video, err := s.owned(ctx, userID, id)
	if err != nil {
		return false, err
	}
	public := !video.IsPublic
	if err := s.videos.SetPublic(ctx, id, public); err != nil {
		return false, err
	}
	return public, nil
}
