package service

import (
	"context"
	"strings"

	"pixelpost/internal/models"
	"pixelpost/internal/repository"
	"pixelpost/internal/validation"
)

type PresetService struct {
	repo repository.PresetRepository
}

type PresetInput struct {
	Name         string `json:"name" validate:"required,max=50"`
	Description  string `json:"description" validate:"max=500"`
	PromptSuffix string `json:"prompt_suffix" validate:"required,max=500"`
	Category     string `json:"category" validate:"omitempty,oneof=cinematic animation abstract nature artistic"`
	IsActive     *bool  `json:"is_active"`
}

func NewPresetService(repo repository.PresetRepository) *PresetService {
	return &PresetService{repo: repo}
}

// ListActive returns the presets offered on the generation form, ordered by name.
func (s *PresetService) ListActive(ctx context.Context) ([]models.StylePreset, error) {
	return s.repo.ListActive(ctx)
}

func (s *PresetService) ListAll(ctx context.Context) ([]models.StylePreset, error) {
	return s.repo.List(ctx)
}

func (in *PresetInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.PromptSuffix = strings.TrimSpace(in.PromptSuffix)
	in.Category = strings.ToLower(strings.TrimSpace(in.Category))
}

func (s *PresetService) Create(ctx context.Context, in PresetInput) (*models.StylePreset, error) {
	in.normalize()
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	preset := &models.StylePreset{
		Name:         in.Name,
		Description:  in.Description,
		PromptSuffix: in.PromptSuffix,
		Category:     in.Category,
		IsActive:     in.IsActive == nil || *in.IsActive,
	}
	if err := s.repo.Create(ctx, preset); err != nil {
		return nil, err
	}
	return preset, nil
}

func (s *PresetService) Update(ctx context.Context, id uint, in PresetInput) (*models.StylePreset, error) {
	in.normalize()
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	preset, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	preset.Name = in.Name
	preset.Description = in.Description
	preset.PromptSuffix = in.PromptSuffix
	preset.Category = in.Category
	if in.IsActive != nil {
		preset.IsActive = *in.IsActive
	}
	if err := s.repo.Update(ctx, preset); err != nil {
		return nil, err
	}
	return preset, nil
}

// Toggle flips whether the preset is offered.
func (s *PresetService) Toggle(ctx context.Context, id uint) (*models.StylePreset, error) {
	preset, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	preset.IsActive = !preset.IsActive
	if err := s.repo.Update(ctx, preset); err != nil {
		return nil, err
	}
	return preset, nil
}
