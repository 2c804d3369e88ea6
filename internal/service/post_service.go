package service

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"pixelpost/internal/middleware"
	"pixelpost/internal/models"
	"pixelpost/internal/notifications"
	"pixelpost/internal/repository"
	"pixelpost/internal/storage"

	"github.com/google/uuid"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 1000
	maxTagsLen        = 500
)

type PostService struct {
	postRepo  repository.PostRepository
	imageRepo repository.ImageRepository
	store     storage.Store
	notifier  *notifications.Notifier
	isAdmin   AdminChecker
}

type CreatePostInput struct {
	UserID      uint
	ImageID     uuid.UUID
	Title       string
	Description string
	Tags        string
}

type ListPostsInput struct {
	Limit         int
	Offset        int
	CurrentUserID uint
}

type UpdatePostInput struct {
	UserID      uint
	PostID      uint
	Title       *string
	Description *string
	Tags        *string
}

type DeletePostInput struct {
	UserID uint
	PostID uint
}

// LikeResult is the state after a like toggle.
type LikeResult struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"like_count"`
}

func NewPostService(
	postRepo repository.PostRepository,
	imageRepo repository.ImageRepository,
	store storage.Store,
	notifier *notifications.Notifier,
	isAdmin AdminChecker,
) *PostService {
	return &PostService{
		postRepo:  postRepo,
		imageRepo: imageRepo,
		store:     store,
		notifier:  notifier,
		isAdmin:   isAdmin,
	}
}

func validatePostFields(title, description, tags string) error {
	if title == "" {
		return models.NewValidationError("Title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return models.NewValidationError("Title too long (max 200 characters)")
	}
	if utf8.RuneCountInString(description) > maxDescriptionLen {
		return models.NewValidationError("Description too long (max 1000 characters)")
	}
	if utf8.RuneCountInString(tags) > maxTagsLen {
		return models.NewValidationError("Tags too long (max 500 characters)")
	}
	return nil
}

// CreatePost shares one of the user's images. Tags default to the image hashtags.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Tags = strings.TrimSpace(in.Tags)
	if in.ImageID == uuid.Nil {
		return nil, models.NewValidationError("generated_image_id is required")
	}

	image, err := s.imageRepo.GetByID(ctx, in.ImageID)
	if err != nil {
		return nil, err
	}
	if image.UserID != in.UserID {
		return nil, models.NewForbiddenError("You can only post your own images")
	}
	if in.Tags == "" {
		in.Tags = joinTags(image.Hashtags, maxTagsLen)
	}
	if err := validatePostFields(in.Title, in.Description, in.Tags); err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:            in.Title,
		Description:      in.Description,
		Tags:             in.Tags,
		IsPublic:         true,
		UserID:           in.UserID,
		GeneratedImageID: in.ImageID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return s.GetPost(ctx, post.ID, in.UserID)
}

// joinTags joins whole tags with commas without exceeding limit.
func joinTags(tags []string, limit int) string {
	var b strings.Builder
	for _, t := range tags {
		extra := len(t)
		if b.Len() > 0 {
			extra++
		}
		if b.Len()+extra > limit {
			break
		}
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(t)
	}
	return b.String()
}

// visiblePost hides posts that are private, or whose image is private, from everyone but the owner.
func visiblePost(post *models.Post, viewerID uint) bool {
	if viewerID != 0 && post.UserID == viewerID {
		return true
	}
	if !post.IsPublic {
		return false
	}
	return post.GeneratedImage == nil || post.GeneratedImage.VisibleTo(viewerID)
}

func (s *PostService) GetPost(ctx context.Context, id uint, currentUserID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id, currentUserID)
	if err != nil {
		return nil, err
	}
	if !visiblePost(post, currentUserID) {
		return nil, models.NewNotFoundError("Post", id)
	}
	s.decorate(ctx, post)
	return post, nil
}

func (s *PostService) decorate(ctx context.Context, posts ...*models.Post) {
	for _, p := range posts {
		withImageURLs(ctx, s.store, p.GeneratedImage)
	}
}

func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) ([]*models.Post, error) {
	posts, err := s.postRepo.List(ctx, in.Limit, in.Offset, in.CurrentUserID)
	if err != nil {
		return nil, err
	}
	s.decorate(ctx, posts...)
	return posts, nil
}

func (s *PostService) SearchPosts(ctx context.Context, query string, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.NewValidationError("Search query is required")
	}
	posts, err := s.postRepo.Search(ctx, query, limit, offset, currentUserID)
	if err != nil {
		return nil, err
	}
	s.decorate(ctx, posts...)
	return posts, nil
}

func (s *PostService) GetUserPosts(ctx context.Context, userID uint, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	posts, err := s.postRepo.GetByUserID(ctx, userID, limit, offset, currentUserID)
	if err != nil {
		return nil, err
	}
	s.decorate(ctx, posts...)
	return posts, nil
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.GetPost(ctx, in.PostID, in.UserID)
	if err != nil {
		return nil, err
	}
	if err := ownerOrAdmin(ctx, s.isAdmin, post.UserID, in.UserID, "You can only update your own posts"); err != nil {
		return nil, err
	}

	if in.Title != nil {
		post.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		post.Description = strings.TrimSpace(*in.Description)
	}
	if in.Tags != nil {
		post.Tags = strings.TrimSpace(*in.Tags)
	}
	if err := validatePostFields(post.Title, post.Description, post.Tags); err != nil {
		return nil, err
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) error {
	post, err := s.GetPost(ctx, in.PostID, in.UserID)
	if err != nil {
		return err
	}
	if err := ownerOrAdmin(ctx, s.isAdmin, post.UserID, in.UserID, "You can only delete your own posts"); err != nil {
		return err
	}
	return s.postRepo.Delete(ctx, in.PostID)
}

// ToggleLike likes or unlikes a visible post and notifies the author of new likes.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID uint) (*LikeResult, error) {
	post, err := s.GetPost(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	liked, count, err := s.postRepo.ToggleLike(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if liked && post.UserID != userID {
		if err := s.notifier.PublishUser(ctx, post.UserID, notifications.EventPostLiked, map[string]any{
			"post_id":    postID,
			"user_id":    userID,
			"like_count": count,
		}); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to publish like", slog.String("error", err.Error()))
		}
	}
	return &LikeResult{Liked: liked, LikeCount: count}, nil
}
