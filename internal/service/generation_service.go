package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"pixelpost/internal/featureflags"
	"pixelpost/internal/generation"
	"pixelpost/internal/hashtags"
	"pixelpost/internal/middleware"
	"pixelpost/internal/models"
	"pixelpost/internal/notifications"
	"pixelpost/internal/observability"
	"pixelpost/internal/repository"
	"pixelpost/internal/storage"
	"pixelpost/internal/synth"
	"pixelpost/internal/validation"

	"github.com/google/uuid"
)

// Generator produces media for a request. *generation.Sequencer satisfies it.
type Generator interface {
	Generate(ctx context.Context, req generation.Request) (generation.Result, error)
}

const (
	DefaultVideoDuration = 5
	DefaultVideoFPS      = 24
	// StaleVideoAfter is how long a video may stay in processing before the sweeper fails it.
	StaleVideoAfter = 15 * time.Minute
)

type GenerateImageInput struct {
	UserID        uint   `json:"-"`
	Prompt        string `json:"prompt" validate:"required,max=1000"`
	StylePresetID *uint  `json:"style_preset_id"`
	Width         int    `json:"width" validate:"oneof=512 768 1024"`
	Height        int    `json:"height" validate:"oneof=512 768 1024"`
	Seed          *int64 `json:"seed"`
	IsPublic      *bool  `json:"is_public"`
}

type GenerateVideoInput struct {
	UserID        uint   `json:"-"`
	Prompt        string `json:"prompt" validate:"required,max=1000"`
	StylePresetID *uint  `json:"style_preset_id"`
	Duration      int    `json:"duration" validate:"gte=1,lte=10"`
	Quality       string `json:"quality" validate:"oneof=draft standard high"`
	FPS           int    `json:"fps" validate:"gte=8,lte=30"`
	Seed          *int64 `json:"seed"`
	IsPublic      *bool  `json:"is_public"`
}

// ImageResult is a stored image with a user-facing notice when the fallback produced it.
type ImageResult struct {
	Image    *models.GeneratedImage  `json:"image"`
	Notice   string                  `json:"notice,omitempty"`
	Attempts []generation.AttemptLog `json:"attempts"`
}

type VideoResult struct {
	Video    *models.GeneratedVideo  `json:"video"`
	Notice   string                  `json:"notice,omitempty"`
	Attempts []generation.AttemptLog `json:"attempts"`
}

type GenerationService struct {
	images   repository.ImageRepository
	videos   repository.VideoRepository
	presets  repository.PresetRepository
	store    storage.Store
	imageGen Generator
	videoGen Generator
	tags     *hashtags.Deriver
	notifier *notifications.Notifier
	flags    *featureflags.Manager
}

// GenerationDeps groups the collaborators of GenerationService. Notifier and Flags may be nil.
type GenerationDeps struct {
	Images   repository.ImageRepository
	Videos   repository.VideoRepository
	Presets  repository.PresetRepository
	Store    storage.Store
	ImageGen Generator
	VideoGen Generator
	Tags     *hashtags.Deriver
	Notifier *notifications.Notifier
	Flags    *featureflags.Manager
}

func NewGenerationService(deps GenerationDeps) *GenerationService {
	tags := deps.Tags
	if tags == nil {
		tags = hashtags.New(hashtags.Options{})
	}
	return &GenerationService{
		images:   deps.Images,
		videos:   deps.Videos,
		presets:  deps.Presets,
		store:    deps.Store,
		imageGen: deps.ImageGen,
		videoGen: deps.VideoGen,
		tags:     tags,
		notifier: deps.Notifier,
		flags:    deps.Flags,
	}
}

// activePreset resolves the optional preset; inactive or missing presets are a validation error.
func (s *GenerationService) activePreset(ctx context.Context, id *uint) (*models.StylePreset, error) {
	if id == nil || *id == 0 {
		return nil, nil
	}
	preset, err := s.presets.GetByID(ctx, *id)
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return nil, models.NewValidationError("Selected style is not available")
		}
		return nil, err
	}
	if !preset.IsActive {
		return nil, models.NewValidationError("Selected style is not available")
	}
	return preset, nil
}

// GenerateImage runs the image chain, stores the file and persists the record. Provider
// failures never surface as errors; only validation, storage and database problems do.
func (s *GenerationService) GenerateImage(ctx context.Context, in GenerateImageInput) (*ImageResult, error) {
	in.Prompt = strings.TrimSpace(in.Prompt)
	if in.Width == 0 {
		in.Width = models.DefaultImageWidth
	}
	if in.Height == 0 {
		in.Height = models.DefaultImageHeight
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	preset, err := s.activePreset(ctx, in.StylePresetID)
	if err != nil {
		return nil, err
	}

	req := generation.Request{
		Prompt: in.Prompt,
		Width:  in.Width,
		Height: in.Height,
		Seed:   in.Seed,
	}
	style := ""
	if preset != nil {
		req.StyleSuffix = preset.PromptSuffix
		style = preset.Name
	}

	res, err := s.imageGen.Generate(ctx, req)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	id := uuid.New()
	key := storage.ImageKey(id.String(), generation.Extension(res.Media.ContentType))
	if err := s.store.Save(ctx, key, res.Media.ContentType, res.Media.Data); err != nil {
		return nil, models.NewInternalError(fmt.Errorf("store image: %w", err))
	}
	observability.MediaBytesStored.WithLabelValues("image", string(res.Source)).Add(float64(len(res.Media.Data)))

	image := &models.GeneratedImage{
		ID:                 id,
		UserID:             in.UserID,
		Prompt:             in.Prompt,
		StylePresetID:      in.StylePresetID,
		FilePath:           key,
		ContentType:        res.Media.ContentType,
		FileSize:           int64(len(res.Media.Data)),
		Width:              in.Width,
		Height:             in.Height,
		Seed:               in.Seed,
		IsPublic:           in.IsPublic == nil || *in.IsPublic,
		GenerationSource:   res.Source,
		GenerationMetadata: res.Metadata,
		Hashtags:           s.tags.Derive(in.Prompt, style, hashtags.DefaultMax),
	}
	if preset == nil {
		image.StylePresetID = nil
	}
	image.PreviewPath = s.storePreview(ctx, id.String(), in.UserID, res.Media.Data)

	if err := s.images.Create(ctx, image); err != nil {
		removeFiles(context.WithoutCancel(ctx), s.store, image.FilePath, image.PreviewPath)
		return nil, err
	}
	withImageURLs(ctx, s.store, image)

	middleware.Logger.InfoContext(ctx, "image generated",
		slog.String("image_id", id.String()),
		slog.String("source", string(res.Source)),
		slog.Bool("fallback", res.Fallback),
		slog.Int("attempts", len(res.Attempts)),
	)
	s.publish(ctx, in.UserID, notifications.EventImageGenerated, map[string]any{
		"image_id": id.String(),
		"source":   res.Source,
		"fallback": res.Fallback,
		"url":      image.URL,
	})

	return &ImageResult{Image: image, Notice: res.Notice(), Attempts: res.Attempts}, nil
}

// storePreview writes a WebP preview and returns its key, or "" when previews are off or fail.
func (s *GenerationService) storePreview(ctx context.Context, id string, userID uint, data []byte) string {
	if !s.flags.EnabledByDefault(featureflags.WebPPreviews, userID) {
		return ""
	}
	preview, err := renderPreview(data)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "failed to render preview", slog.String("image_id", id), slog.String("error", err.Error()))
		return ""
	}
	key := storage.PreviewKey(id)
	if err := s.store.Save(ctx, key, "image/webp", preview); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to store preview", slog.String("image_id", id), slog.String("error", err.Error()))
		return ""
	}
	return key
}

// GenerateVideo records a processing row, runs the video chain and completes or fails it.
func (s *GenerationService) GenerateVideo(ctx context.Context, in GenerateVideoInput) (*VideoResult, error) {
	if !s.flags.EnabledByDefault(featureflags.VideoGeneration, in.UserID) {
		return nil, models.NewForbiddenError("Video generation is currently disabled")
	}
	in.Prompt = strings.TrimSpace(in.Prompt)
	if in.Duration == 0 {
		in.Duration = DefaultVideoDuration
	}
	if in.FPS == 0 {
		in.FPS = DefaultVideoFPS
	}
	if in.Quality == "" {
		in.Quality = models.VideoQualityStandard
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	preset, err := s.activePreset(ctx, in.StylePresetID)
	if err != nil {
		return nil, err
	}

	video := &models.GeneratedVideo{
		UserID:   in.UserID,
		Prompt:   in.Prompt,
		Duration: in.Duration,
		Quality:  in.Quality,
		FPS:      in.FPS,
		Seed:     in.Seed,
		Status:   models.VideoStatusProcessing,
		IsPublic: in.IsPublic == nil || *in.IsPublic,
	}
	req := generation.Request{
		Prompt:   in.Prompt,
		Seed:     in.Seed,
		Duration: in.Duration,
		Quality:  in.Quality,
		FPS:      in.FPS,
	}
	category := ""
	if preset != nil {
		video.StylePresetID = &preset.ID
		req.StyleSuffix = preset.PromptSuffix
		category = preset.Category
	}
	if err := s.videos.Create(ctx, video); err != nil {
		return nil, err
	}

	res, err := s.videoGen.Generate(ctx, req)
	if err != nil {
		s.fail(ctx, video, err)
		return nil, models.NewInternalError(err)
	}

	id := video.ID.String()
	videoKey := storage.VideoKey(id, generation.Extension(res.Media.ContentType))
	if err := s.store.Save(ctx, videoKey, res.Media.ContentType, res.Media.Data); err != nil {
		s.fail(ctx, video, err)
		return nil, models.NewInternalError(fmt.Errorf("store video: %w", err))
	}
	thumb := res.Media.Thumbnail
	if len(thumb) == 0 {
		if thumb, err = synth.Thumbnail(in.Prompt); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to render thumbnail", slog.String("video_id", id), slog.String("error", err.Error()))
		}
	}
	if len(thumb) > 0 {
		thumbKey := storage.ThumbnailKey(id)
		if err := s.store.Save(ctx, thumbKey, "image/jpeg", thumb); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to store thumbnail", slog.String("video_id", id), slog.String("error", err.Error()))
		} else {
			video.ThumbnailPath = thumbKey
		}
	}
	observability.MediaBytesStored.WithLabelValues("video", string(res.Source)).Add(float64(len(res.Media.Data)))

	video.FilePath = videoKey
	video.ContentType = res.Media.ContentType
	video.FileSize = int64(len(res.Media.Data))
	video.Status = models.VideoStatusCompleted
	video.GenerationSource = res.Source
	video.GenerationMetadata = res.Metadata
	video.Hashtags = s.tags.DeriveVideo(in.Prompt, category, hashtags.DefaultMax)
	if err := s.videos.Save(ctx, video); err != nil {
		removeFiles(context.WithoutCancel(ctx), s.store, video.FilePath, video.ThumbnailPath)
		s.fail(ctx, video, err)
		return nil, err
	}
	withVideoURLs(ctx, s.store, video)

	middleware.Logger.InfoContext(ctx, "video generated",
		slog.String("video_id", id),
		slog.String("source", string(res.Source)),
		slog.Bool("fallback", res.Fallback),
	)
	s.publish(ctx, in.UserID, notifications.EventVideoGenerated, map[string]any{
		"video_id": id,
		"source":   res.Source,
		"fallback": res.Fallback,
		"url":      video.URL,
	})

	return &VideoResult{Video: video, Notice: res.Notice(), Attempts: res.Attempts}, nil
}

// fail marks video failed even when ctx has been cancelled.
func (s *GenerationService) fail(ctx context.Context, video *models.GeneratedVideo, cause error) {
	ctx = context.WithoutCancel(ctx)
	if err := s.videos.MarkFailed(ctx, video.ID, cause.Error()); err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to mark video failed",
			slog.String("video_id", video.ID.String()), slog.String("error", err.Error()))
	}
	video.Status = models.VideoStatusFailed
}

// SweepStale fails videos stuck in processing, which only happens when the process died
// during generation.
func (s *GenerationService) SweepStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	n, err := s.videos.FailStaleProcessing(ctx, olderThan)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		middleware.Logger.WarnContext(ctx, "failed stale video generations", slog.Int64("count", n))
	}
	return n, nil
}

// RunSweeper calls SweepStale now and then every interval until ctx is done.
func (s *GenerationService) RunSweeper(ctx context.Context, interval, olderThan time.Duration) {
	if _, err := s.SweepStale(ctx, olderThan); err != nil {
		middleware.Logger.ErrorContext(ctx, "stale video sweep failed", slog.String("error", err.Error()))
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepStale(ctx, olderThan); err != nil {
				middleware.Logger.ErrorContext(ctx, "stale video sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}

func (s *GenerationService) publish(ctx context.Context, userID uint, event string, payload any) {
	if err := s.notifier.PublishUser(ctx, userID, event, payload); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish event",
			slog.String("event", event), slog.String("error", err.Error()))
	}
}
