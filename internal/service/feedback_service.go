package service

import (
	"context"
	"strings"

	"pixelpost/internal/models"
	"pixelpost/internal/repository"
	"pixelpost/internal/validation"
)

type FeedbackService struct {
	repo repository.FeedbackRepository
}

type SubmitFeedbackInput struct {
	UserID  uint   `json:"-"`
	Rating  int    `json:"rating" validate:"gte=1,lte=5"`
	Message string `json:"message" validate:"max=1000"`
}

// FeedbackPage is one admin listing page.
type FeedbackPage struct {
	Items         []models.Feedback `json:"items"`
	Total         int64             `json:"total"`
	AverageRating float64           `json:"average_rating"`
}

func NewFeedbackService(repo repository.FeedbackRepository) *FeedbackService {
	return &FeedbackService{repo: repo}
}

func (s *FeedbackService) Submit(ctx context.Context, in SubmitFeedbackInput) (*models.Feedback, error) {
	in.Message = strings.TrimSpace(in.Message)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	fb := &models.Feedback{UserID: in.UserID, Rating: in.Rating, Message: in.Message}
	if err := s.repo.Create(ctx, fb); err != nil {
		return nil, err
	}
	return fb, nil
}

func (s *FeedbackService) List(ctx context.Context, limit, offset int) (*FeedbackPage, error) {
	items, total, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	avg, err := s.repo.AverageRating(ctx)
	if err != nil {
		return nil, err
	}
	return &FeedbackPage{Items: items, Total: total, AverageRating: avg}, nil
}
