package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"pixelpost/internal/cache"
	"pixelpost/internal/generation"
	"pixelpost/internal/middleware"
	"pixelpost/internal/models"
	"pixelpost/internal/notifications"
	"pixelpost/internal/repository"
	"pixelpost/internal/storage"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
	"golang.org/x/sync/errgroup"
)

const (
	ExplorePageSize  = 12
	HomeRecentLimit  = 8
	RelatedLimit     = 6
	QRCodeSize       = 256
	maxBulkDelete    = 100
	fileDeleteLimit  = 4
	largePNGBytes    = 300 * 1024
	downloadPrompt   = 30
	reportSampleSize = 5
)

// qrForeground is the brand blue used for share codes.
var qrForeground = color.RGBA{R: 0x0d, G: 0x6e, B: 0xfd, A: 0xff}

// SourceSummary is the image count of one generation source.
type SourceSummary struct {
	Source      models.GenerationSource `json:"source"`
	DisplayName string                  `json:"display_name"`
	Count       int64                   `json:"count"`
}

type Gallery struct {
	Images  []models.GeneratedImage `json:"images"`
	Sources []SourceSummary         `json:"sources"`
	Total   int                     `json:"total"`
}

type ExplorePage struct {
	Images     []models.GeneratedImage `json:"images"`
	Page       int                     `json:"page"`
	TotalPages int                     `json:"total_pages"`
	Total      int64                   `json:"total"`
}

type HomePage struct {
	Recent       []models.GeneratedImage `json:"recent_images"`
	TotalImages  int64                   `json:"total_images"`
	PublicImages int64                   `json:"public_images"`
	Presets      []models.StylePreset    `json:"presets"`
}

type ShareInfo struct {
	Image    *models.GeneratedImage  `json:"image"`
	ShareURL string                  `json:"share_url"`
	Related  []models.GeneratedImage `json:"related_images"`
}

type QRCode struct {
	ShareURL  string `json:"share_url"`
	PNGBase64 string `json:"qr_code"`
}

// Download is an open media file. Callers must close Body.
type Download struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.ReadCloser
}

type BackfillReport struct {
	Scanned int                             `json:"scanned"`
	Updated int                             `json:"updated"`
	DryRun  bool                            `json:"dry_run"`
	Counts  map[models.GenerationSource]int `json:"counts"`
}

type SourceReport struct {
	Sources []SourceSummary                                     `json:"sources"`
	Samples map[models.GenerationSource][]models.GeneratedImage `json:"samples"`
	Last24h []repository.SourceStat                             `json:"last_24h"`
}

type MediaService struct {
	images   repository.ImageRepository
	presets  repository.PresetRepository
	store    storage.Store
	notifier *notifications.Notifier
	baseURL  string
}

func NewMediaService(
	images repository.ImageRepository,
	presets repository.PresetRepository,
	store storage.Store,
	notifier *notifications.Notifier,
	publicBaseURL string,
) *MediaService {
	return &MediaService{
		images:   images,
		presets:  presets,
		store:    store,
		notifier: notifier,
		baseURL:  strings.TrimRight(publicBaseURL, "/"),
	}
}

// visible loads an image the viewer may see. Private images of other users look missing.
func (s *MediaService) visible(ctx context.Context, viewerID uint, id uuid.UUID) (*models.GeneratedImage, error) {
	img, err := s.images.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !img.VisibleTo(viewerID) {
		return nil, models.NewNotFoundError("Image", id)
	}
	return img, nil
}

// owned loads an image and requires userID to own it.
func (s *MediaService) owned(ctx context.Context, userID uint, id uuid.UUID) (*models.GeneratedImage, error) {
	img, err := s.visible(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if img.UserID != userID {
		return nil, models.NewForbiddenError("You can only modify your own images")
	}
	return img, nil
}

func (s *MediaService) Get(ctx context.Context, viewerID uint, id uuid.UUID) (*models.GeneratedImage, error) {
	img, err := s.visible(ctx, viewerID, id)
	if err != nil {
		return nil, err
	}
	withImageURLs(ctx, s.store, img)
	return img, nil
}

func (s *MediaService) Download(ctx context.Context, viewerID uint, id uuid.UUID) (*Download, error) {
	img, err := s.visible(ctx, viewerID, id)
	if err != nil {
		return nil, err
	}
	body, err := s.store.Open(ctx, img.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, models.NewNotFoundError("Image file", id)
		}
		return nil, models.NewInternalError(err)
	}
	contentType := img.ContentType
	if contentType == "" {
		contentType = "image/png"
	}
	return &Download{
		Filename:    DownloadFilename(img.Prompt, img.ID, contentType),
		ContentType: contentType,
		Size:        img.FileSize,
		Body:        body,
	}, nil
}

// DownloadFilename is ai_generated_<prompt>_<id prefix><ext>, keeping only letters,
// digits, dashes and underscores from the first 30 characters of the prompt.
func DownloadFilename(prompt string, id uuid.UUID, contentType string) string {
	runes := []rune(prompt)
	if len(runes) > downloadPrompt {
		runes = runes[:downloadPrompt]
	}
	var b strings.Builder
	for _, r := range runes {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	safe := strings.ReplaceAll(strings.TrimRight(b.String(), " "), " ", "_")
	return fmt.Sprintf("ai_generated_%s_%s%s", safe, id.String()[:8], generation.Extension(contentType))
}

// Delete removes the owner's image: files first, best effort, then the row.
func (s *MediaService) Delete(ctx context.Context, userID uint, id uuid.UUID) error {
	img, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	removeFiles(ctx, s.store, img.FilePath, img.PreviewPath)
	return s.images.Delete(ctx, id)
}

// BulkDelete deletes the ids owned by userID; foreign and unknown ids are ignored.
func (s *MediaService) BulkDelete(ctx context.Context, userID uint, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, models.NewValidationError("No images selected")
	}
	if len(ids) > maxBulkDelete {
		return 0, models.NewValidationError(fmt.Sprintf("At most %d images can be deleted at once", maxBulkDelete))
	}
	owned, err := s.images.FindOwned(ctx, userID, ids)
	if err != nil {
		return 0, err
	}
	if len(owned) == 0 {
		return 0, nil
	}
	ownedIDs := make([]uuid.UUID, len(owned))
	for i, img := range owned {
		ownedIDs[i] = img.ID
	}
	deleted, err := s.images.DeleteOwned(ctx, userID, ownedIDs)
	if err != nil {
		return 0, err
	}

	g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))
	g.SetLimit(fileDeleteLimit)
	for _, img := range owned {
		g.Go(func() error {
			removeFiles(gctx, s.store, img.FilePath, img.PreviewPath)
			return nil
		})
	}
	_ = g.Wait()

	middleware.Logger.InfoContext(ctx, "bulk deleted images",
		slog.Uint64("user_id", uint64(userID)), slog.Int64("count", deleted), slog.Int("requested", len(ids)))
	return deleted, nil
}

// TogglePrivacy flips is_public on the owner's image and returns the new value.
func (s *MediaService) TogglePrivacy(ctx context.Context, userID uint, id uuid.UUID) (bool, error) {
	img, err := s.owned(ctx, userID, id)
	if err != nil {
		return false, err
	}
	public := !img.IsPublic
	if err := s.images.SetPublic(ctx, id, public); err != nil {
		return false, err
	}
	cache.InvalidateFeeds(ctx)
	if err := s.notifier.PublishUser(ctx, userID, notifications.EventImagePrivacyChanged, map[string]any{
		"image_id":  id.String(),
		"is_public": public,
	}); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish privacy change", slog.String("error", err.Error()))
	}
	return public, nil
}

// ShareURL is the public link of an image.
func (s *MediaService) ShareURL(id uuid.UUID) string {
	return s.baseURL + "/images/" + id.String()
}

func (s *MediaService) Share(ctx context.Context, viewerID uint, id uuid.UUID) (*ShareInfo, error) {
	img, err := s.visible(ctx, viewerID, id)
	if err != nil {
		return nil, err
	}
	related, err := s.images.ListPublicByUser(ctx, img.UserID, img.ID, RelatedLimit)
	if err != nil {
		return nil, err
	}
	withImageURLs(ctx, s.store, img)
	withImageSliceURLs(ctx, s.store, related)
	return &ShareInfo{Image: img, ShareURL: s.ShareURL(img.ID), Related: related}, nil
}

// QRCode renders the share URL as a base64 PNG.
func (s *MediaService) QRCode(ctx context.Context, viewerID uint, id uuid.UUID) (*QRCode, error) {
	img, err := s.visible(ctx, viewerID, id)
	if err != nil {
		return nil, err
	}
	shareURL := s.ShareURL(img.ID)
	png, err := EncodeQR(shareURL)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &QRCode{ShareURL: shareURL, PNGBase64: base64.StdEncoding.EncodeToString(png)}, nil
}

// EncodeQR renders content as a QRCodeSize PNG in the brand colour.
func EncodeQR(content string) ([]byte, error) {
	q, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("build qr code: %w", err)
	}
	q.ForegroundColor = qrForeground
	q.BackgroundColor = color.White
	return q.PNG(QRCodeSize)
}

// Gallery lists the user's own images with per-source counts.
func (s *MediaService) Gallery(ctx context.Context, userID uint) (*Gallery, error) {
	images, err := s.images.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	counts, err := s.images.CountBySource(ctx, userID)
	if err != nil {
		return nil, err
	}
	withImageSliceURLs(ctx, s.store, images)
	return &Gallery{Images: images, Sources: summarize(counts), Total: len(images)}, nil
}

func summarize(counts []repository.SourceCount) []SourceSummary {
	out := make([]SourceSummary, 0, len(counts))
	for _, c := range counts {
		out = append(out, SourceSummary{Source: c.Source, DisplayName: c.Source.DisplayName(), Count: c.Count})
	}
	return out
}

// Explore pages through public images, newest first. Pages start at 1.
func (s *MediaService) Explore(ctx context.Context, page int) (*ExplorePage, error) {
	if page < 1 {
		page = 1
	}
	var out ExplorePage
	err := cache.Aside(ctx, cache.ExploreKey(page), &out, cache.ListTTL, func() error {
		images, total, err := s.images.ListPublic(ctx, ExplorePageSize, (page-1)*ExplorePageSize)
		if err != nil {
			return err
		}
		withImageSliceURLs(ctx, s.store, images)
		out = ExplorePage{
			Images:     images,
			Page:       page,
			Total:      total,
			TotalPages: int((total + ExplorePageSize - 1) / ExplorePageSize),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *MediaService) Home(ctx context.Context) (*HomePage, error) {
	var out HomePage
	err := cache.Aside(ctx, cache.HomeStatsKey, &out, cache.ListTTL, func() error {
		recent, _, err := s.images.ListPublic(ctx, HomeRecentLimit, 0)
		if err != nil {
			return err
		}
		total, err := s.images.Count(ctx, false)
		if err != nil {
			return err
		}
		public, err := s.images.Count(ctx, true)
		if err != nil {
			return err
		}
		presets, err := s.presets.ListActive(ctx)
		if err != nil {
			return err
		}
		withImageSliceURLs(ctx, s.store, recent)
		out = HomePage{Recent: recent, TotalImages: total, PublicImages: public, Presets: presets}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// BackfillSources assigns a source to images recorded as unknown. With dryRun nothing
// is written.
func (s *MediaService) BackfillSources(ctx context.Context, dryRun bool) (*BackfillReport, error) {
	unknown, err := s.images.ListBySource(ctx, models.SourceUnknown, 0)
	if err != nil {
		return nil, err
	}
	report := &BackfillReport{DryRun: dryRun, Counts: map[models.GenerationSource]int{}}
	for i := range unknown {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		img := &unknown[i]
		report.Scanned++
		source := s.DetectSource(ctx, img)
		report.Counts[source]++
		if source == models.SourceUnknown {
			continue
		}
		if !dryRun {
			if err := s.images.UpdateSource(ctx, img.ID, source); err != nil {
				return report, err
			}
		}
		report.Updated++
	}
	middleware.Logger.InfoContext(ctx, "source backfill finished",
		slog.Int("scanned", report.Scanned), slog.Int("updated", report.Updated), slog.Bool("dry_run", dryRun))
	return report, nil
}

// DetectSource guesses the producer of an image: recorded service name first, then the
// stored file's format and size.
func (s *MediaService) DetectSource(ctx context.Context, img *models.GeneratedImage) models.GenerationSource {
	if source := sourceFromServiceName(img.GenerationMetadata.String("service_name")); source != models.SourceUnknown {
		return source
	}
	if img.FilePath == "" {
		return models.SourceUnknown
	}
	data, err := storage.ReadAll(ctx, s.store, img.FilePath)
	if err != nil {
		middleware.Logger.DebugContext(ctx, "cannot read image for source detection",
			slog.String("image_id", img.ID.String()), slog.String("error", err.Error()))
		return models.SourceUnknown
	}
	mt := mimetype.Detect(data)
	switch {
	case mt.Is("image/jpeg"):
		return models.SourcePollinations
	case mt.Is("image/png") && len(data) >= largePNGBytes:
		return models.SourceHuggingFace
	case mt.Is("image/png"):
		return models.SourceMock
	default:
		return models.SourceUnknown
	}
}

func sourceFromServiceName(name string) models.GenerationSource {
	name = strings.ToLower(name)
	switch {
	case name == "":
		return models.SourceUnknown
	case strings.Contains(name, "pollinations"):
		return models.SourcePollinations
	case strings.Contains(name, "hugging"):
		return models.SourceHuggingFace
	case strings.Contains(name, "deepai"):
		return models.SourceDeepAI
	case strings.Contains(name, "replicate"):
		return models.SourceReplicate
	case strings.Contains(name, "mock"), strings.Contains(name, "fallback"):
		return models.SourceMock
	default:
		return models.SourceUnknown
	}
}

// SourceReport summarizes sources with up to limit recent samples each.
func (s *MediaService) SourceReport(ctx context.Context, limit int) (*SourceReport, error) {
	if limit <= 0 {
		limit = reportSampleSize
	}
	counts, err := s.images.CountBySource(ctx, 0)
	if err != nil {
		return nil, err
	}
	stats, err := s.images.SourceStats(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		return nil, err
	}
	report := &SourceReport{
		Sources: summarize(counts),
		Samples: make(map[models.GenerationSource][]models.GeneratedImage, len(counts)),
		Last24h: stats,
	}
	for _, c := range counts {
		samples, err := s.images.ListBySource(ctx, c.Source, limit)
		if err != nil {
			return nil, err
		}
		report.Samples[c.Source] = samples
	}
	return report, nil
}
