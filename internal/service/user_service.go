package service

import (
	"context"
	"strings"
	"time"

	"pixelpost/internal/models"
	"pixelpost/internal/repository"
	"pixelpost/internal/storage"
	"pixelpost/internal/validation"
)

const profilePostLimit = 20

type UserService struct {
	userRepo  repository.UserRepository
	imageRepo repository.ImageRepository
	postRepo  repository.PostRepository
	store     storage.Store
}

type UpdateProfileInput struct {
	UserID    uint       `json:"-"`
	Bio       *string    `json:"bio" validate:"omitempty,max=500"`
	Avatar    *string    `json:"avatar" validate:"omitempty,max=500"`
	Website   *string    `json:"website" validate:"omitempty,url,max=200"`
	Location  *string    `json:"location" validate:"omitempty,max=100"`
	BirthDate *time.Time `json:"birth_date"`
}

// Profile is a user page: the account, the images the viewer may see and recent posts.
type Profile struct {
	User   *models.User            `json:"user"`
	Images []models.GeneratedImage `json:"images"`
	Posts  []*models.Post          `json:"posts"`
	IsOwn  bool                    `json:"is_own"`
}

func NewUserService(
	userRepo repository.UserRepository,
	imageRepo repository.ImageRepository,
	postRepo repository.PostRepository,
	store storage.Store,
) *UserService {
	return &UserService{userRepo: userRepo, imageRepo: imageRepo, postRepo: postRepo, store: store}
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// GetProfile returns the profile of username as seen by viewerID (zero for anonymous).
func (s *UserService) GetProfile(ctx context.Context, username string, viewerID uint) (*Profile, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", username)
	}

	all, err := s.imageRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	images := make([]models.GeneratedImage, 0, len(all))
	for _, img := range all {
		if img.VisibleTo(viewerID) {
			images = append(images, img)
		}
	}
	withImageSliceURLs(ctx, s.store, images)

	posts, err := s.postRepo.GetByUserID(ctx, user.ID, profilePostLimit, 0, viewerID)
	if err != nil {
		return nil, err
	}
	for _, p := range posts {
		withImageURLs(ctx, s.store, p.GeneratedImage)
	}

	return &Profile{User: user, Images: images, Posts: posts, IsOwn: viewerID != 0 && viewerID == user.ID}, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Bio != nil {
		user.Bio = strings.TrimSpace(*in.Bio)
	}
	if in.Avatar != nil {
		user.Avatar = strings.TrimSpace(*in.Avatar)
	}
	if in.Website != nil {
		user.Website = strings.TrimSpace(*in.Website)
	}
	if in.Location != nil {
		user.Location = strings.TrimSpace(*in.Location)
	}
	if in.BirthDate != nil {
		if in.BirthDate.After(time.Now()) {
			return nil, models.NewValidationError("birth_date cannot be in the future")
		}
		user.BirthDate = in.BirthDate
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// SetAdmin grants or revokes administrator rights.
func (s *UserService) SetAdmin(ctx context.Context, targetID uint, isAdmin bool) (*models.User, error) {
	if err := s.userRepo.SetAdmin(ctx, targetID, isAdmin); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, targetID)
}

func (s *UserService) ListAdmins(ctx context.Context) ([]models.User, error) {
	return s.userRepo.ListAdmins(ctx)
}
