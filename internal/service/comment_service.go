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
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	notifier    *notifications.Notifier
	isAdmin     AdminChecker
}

type CreateCommentInput struct {
	UserID  uint
	PostID  uint
	Content string
}

// UpdateCommentInput edits a comment. A non-zero PostID must match the comment's post.
type UpdateCommentInput struct {
	UserID    uint
	PostID    uint
	CommentID uint
	Content   string
}

type DeleteCommentInput struct {
	UserID    uint
	PostID    uint
	CommentID uint
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	notifier *notifications.Notifier,
	isAdmin AdminChecker,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		notifier:    notifier,
		isAdmin:     isAdmin,
	}
}

func validateCommentContent(content string) error {
	n := utf8.RuneCountInString(content)
	if n < models.MinCommentLength {
		return models.NewValidationError("Content is required")
	}
	if n > models.MaxCommentLength {
		return models.NewValidationError("Comment too long (max 500 characters)")
	}
	return nil
}

// visiblePostFor loads postID and hides it when the viewer may not see it.
func (s *CommentService) visiblePostFor(ctx context.Context, postID, viewerID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID, viewerID)
	if err != nil {
		return nil, err
	}
	if !visiblePost(post, viewerID) {
		return nil, models.NewNotFoundError("Post", postID)
	}
	return post, nil
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	in.Content = strings.TrimSpace(in.Content)
	if err := validateCommentContent(in.Content); err != nil {
		return nil, err
	}
	post, err := s.visiblePostFor(ctx, in.PostID, in.UserID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Content: in.Content,
		UserID:  in.UserID,
		PostID:  in.PostID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	if post.UserID != in.UserID {
		if err := s.notifier.PublishUser(ctx, post.UserID, notifications.EventCommentCreated, map[string]any{
			"post_id":    in.PostID,
			"comment_id": comment.ID,
			"user_id":    in.UserID,
		}); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to publish comment", slog.String("error", err.Error()))
		}
	}

	return s.commentRepo.GetByID(ctx, comment.ID)
}

func (s *CommentService) ListComments(ctx context.Context, postID, viewerID uint) ([]*models.Comment, error) {
	if _, err := s.visiblePostFor(ctx, postID, viewerID); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByPost(ctx, postID)
}

// commentOnPost loads commentID, treating a comment filed under another post as missing.
func (s *CommentService) commentOnPost(ctx context.Context, postID, commentID uint) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if postID != 0 && comment.PostID != postID {
		return nil, models.NewNotFoundError("Comment", commentID)
	}
	return comment, nil
}

func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	comment, err := s.commentOnPost(ctx, in.PostID, in.CommentID)
	if err != nil {
		return nil, err
	}

	if comment.UserID != in.UserID {
		return nil, models.NewForbiddenError("You can only update your own comments")
	}
	content := strings.TrimSpace(in.Content)
	if err := validateCommentContent(content); err != nil {
		return nil, err
	}

	comment.Content = content
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}

	return s.commentRepo.GetByID(ctx, comment.ID)
}

func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) (*models.Comment, error) {
	comment, err := s.commentOnPost(ctx, in.PostID, in.CommentID)
	if err != nil {
		return nil, err
	}
	if err := ownerOrAdmin(ctx, s.isAdmin, comment.UserID, in.UserID, "You can only delete your own comments"); err != nil {
		return nil, err
	}

	if err := s.commentRepo.Delete(ctx, in.CommentID); err != nil {
		return nil, err
	}

	return comment, nil
}
