// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"pixelpost/internal/generation"
	"pixelpost/internal/hashtags"
	"pixelpost/internal/models"
	"pixelpost/internal/storage"
	"pixelpost/internal/synth"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the login for every seeded user.
const DefaultPassword = "PixelPost123!"

// FactoryOptions tune generated data.
type FactoryOptions struct {
	// SkipBcrypt stores a cheap hash; logins will not work.
	SkipBcrypt bool
	// MaxDays spreads created_at over the last MaxDays days.
	MaxDays int
	// Seed makes gofakeit output reproducible when non-zero.
	Seed int64
	// ImageSize is the edge of synthesized images. Small values keep seeding fast.
	ImageSize int
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db    *gorm.DB
	store storage.Store
	tags  *hashtags.Deriver
	opts  FactoryOptions
	rng   *rand.Rand
	hash  string
}

// NewFactory creates a Factory writing rows to db and media to store.
func NewFactory(db *gorm.DB, store storage.Store, opts FactoryOptions) *Factory {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	if opts.ImageSize <= 0 {
		opts.ImageSize = 256
	}
	return &Factory{
		db:    db,
		store: store,
		tags:  hashtags.New(hashtags.Options{Seeded: true, Seed: seed}),
		opts:  opts,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

func (f *Factory) password() (string, error) {
	if f.opts.SkipBcrypt {
		return "seeded-no-login", nil
	}
	if f.hash == "" {
		h, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		if err != nil {
			return "", err
		}
		f.hash = string(h)
	}
	return f.hash, nil
}

func (f *Factory) pastTime() time.Time {
	d := time.Duration(f.rng.Intn(f.opts.MaxDays*24*60)) * time.Minute
	return time.Now().Add(-d)
}

// CreateUser persists a sample user. Overrides run before saving.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	pw, err := f.password()
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		Username: fmt.Sprintf("%s%d", gofakeit.Username(), gofakeit.Number(100, 999)),
		Email:    gofakeit.Email(),
		Password: pw,
		Bio:      gofakeit.Sentence(10),
		Location: gofakeit.City(),
		Website:  gofakeit.URL(),
	}
	if len(user.Username) > 30 {
		user.Username = user.Username[:30]
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

var promptSubjects = []string{
	"a lighthouse", "a fox", "a mountain lake", "a neon city street", "a koi pond",
	"an old library", "a desert caravan", "a robot gardener", "a cat astronaut", "a misty forest",
}

var promptMoods = []string{
	"at dusk", "in heavy rain", "under the northern lights", "in golden hour light",
	"on a foggy morning", "at midnight", "in spring bloom",
}

// Prompt returns a plausible generation prompt.
func (f *Factory) Prompt() string {
	return fmt.Sprintf("%s %s, %s", promptSubjects[f.rng.Intn(len(promptSubjects))],
		promptMoods[f.rng.Intn(len(promptMoods))], gofakeit.Adjective())
}

// CreateImage synthesizes an image for user, stores the file and persists the record.
func (f *Factory) CreateImage(ctx context.Context, user *models.User, preset *models.StylePreset, overrides ...func(*models.GeneratedImage)) (*models.GeneratedImage, error) {
	prompt := f.Prompt()
	seed := f.rng.Int63()
	data, err := synth.Image(prompt, &seed, f.opts.ImageSize, f.opts.ImageSize)
	if err != nil {
		return nil, fmt.Errorf("synthesize image: %w", err)
	}

	id := uuid.New()
	key := storage.ImageKey(id.String(), generation.Extension("image/png"))
	if err := f.store.Save(ctx, key, "image/png", data); err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	style := ""
	img := &models.GeneratedImage{
		ID:               id,
		UserID:           user.ID,
		Prompt:           prompt,
		FilePath:         key,
		ContentType:      "image/png",
		FileSize:         int64(len(data)),
		Width:            models.DefaultImageWidth,
		Height:           models.DefaultImageHeight,
		Seed:             &seed,
		IsPublic:         f.rng.Intn(5) != 0,
		GenerationSource: models.SourceMock,
		GenerationMetadata: models.Metadata{
			"service_name": models.SourceMock.DisplayName(),
			"seeded":       true,
		},
		CreatedAt: f.pastTime(),
	}
	if preset != nil {
		img.StylePresetID = &preset.ID
		style = preset.Name
	}
	img.Hashtags = f.tags.Derive(prompt, style, hashtags.DefaultMax)
	for _, override := range overrides {
		override(img)
	}

	err = f.db.WithContext(ctx).Create(img).Error
	if err != nil {
		_ = f.store.Delete(context.WithoutCancel(ctx), key)
		return nil, err
	}
	return img, nil
}

// CreatePost shares img as a post by its owner.
func (f *Factory) CreatePost(ctx context.Context, img *models.GeneratedImage, overrides ...func(*models.Post)) (*models.Post, error) {
	tags := ""
	for i, tag := range img.Hashtags {
		if i >= 5 {
			break
		}
		if i > 0 {
			tags += ","
		}
		tags += tag
	}
	post := &models.Post{
		Title:            gofakeit.Sentence(4),
		Description:      gofakeit.Paragraph(1, 2, 8, " "),
		Tags:             tags,
		UserID:           img.UserID,
		GeneratedImageID: img.ID,
		IsPublic:         true,
		CreatedAt:        img.CreatedAt.Add(time.Duration(f.rng.Intn(120)) * time.Minute),
	}
	if len(post.Title) > 200 {
		post.Title = post.Title[:200]
	}
	if len(post.Description) > 1000 {
		post.Description = post.Description[:1000]
	}
	for _, override := range overrides {
		override(post)
	}
	if err := f.db.WithContext(ctx).Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment adds a comment by user on post.
func (f *Factory) CreateComment(ctx context.Context, user *models.User, post *models.Post) (*models.Comment, error) {
	content := gofakeit.Sentence(f.rng.Intn(12) + 3)
	if len(content) > 500 {
		content = content[:500]
	}
	comment := &models.Comment{
		Content: content,
		UserID:  user.ID,
		PostID:  post.ID,
	}
	if err := f.db.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateLike records user liking post. Duplicate likes are ignored.
func (f *Factory) CreateLike(ctx context.Context, user *models.User, post *models.Post) error {
	like := &models.Like{UserID: user.ID, PostID: post.ID}
	return f.db.WithContext(ctx).Where(like).FirstOrCreate(like).Error
}

// CreateFeedback stores a rating from user.
func (f *Factory) CreateFeedback(ctx context.Context, user *models.User) (*models.Feedback, error) {
	fb := &models.Feedback{
		UserID:  user.ID,
		Rating:  gofakeit.Number(1, 5),
		Message: gofakeit.Sentence(8),
	}
	if err := f.db.WithContext(ctx).Create(fb).Error; err != nil {
		return nil, err
	}
	return fb, nil
}
