package seed

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"pixelpost/internal/middleware"
	"pixelpost/internal/models"
	"pixelpost/internal/storage"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers        int
	ImagesPerUser   int
	PostRatio       float64 // share of public images that become posts
	CommentsPerPost int
	LikesPerPost    int
	FeedbackPerUser int
	ShouldClean     bool
	IncludePresets  bool
	Factory         FactoryOptions
}

// Report counts what a Seed run created.
type Report struct {
	Presets  int `json:"presets"`
	Users    int `json:"users"`
	Images   int `json:"images"`
	Posts    int `json:"posts"`
	Comments int `json:"comments"`
	Likes    int `json:"likes"`
	Feedback int `json:"feedback"`
}

// seedTables lists tables cleared before a fresh seed, children first.
var seedTables = []string{"likes", "comments", "posts", "feedback", "generated_videos", "generated_images", "users"}

// Seed populates the database with demo data. Image files are written to store.
func Seed(ctx context.Context, db *gorm.DB, store storage.Store, opts Options) (*Report, error) {
	log := middleware.Logger
	log.Info("starting database seeding",
		slog.Int("users", opts.NumUsers), slog.Int("images_per_user", opts.ImagesPerUser))

	if opts.ShouldClean {
		if err := clearData(ctx, db); err != nil {
			log.Warn("could not clear existing data, continuing", slog.String("error", err.Error()))
		}
	}

	report := &Report{}
	var presets []models.StylePreset
	if opts.IncludePresets {
		n, err := Presets(ctx, db)
		if err != nil {
			return report, err
		}
		report.Presets = n
	}
	if err := db.WithContext(ctx).Where("is_active = ?", true).Find(&presets).Error; err != nil {
		return report, fmt.Errorf("load presets: %w", err)
	}

	f := NewFactory(db, store, opts.Factory)
	rng := rand.New(rand.NewSource(opts.Factory.Seed))

	users := make([]*models.User, 0, opts.NumUsers)
	for range opts.NumUsers {
		u, err := f.CreateUser(ctx)
		if err != nil {
			return report, fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)
	}
	report.Users = len(users)

	var posts []*models.Post
	for _, u := range users {
		for range opts.ImagesPerUser {
			var preset *models.StylePreset
			if len(presets) > 0 && rng.Intn(2) == 0 {
				preset = &presets[rng.Intn(len(presets))]
			}
			img, err := f.CreateImage(ctx, u, preset)
			if err != nil {
				return report, fmt.Errorf("create image: %w", err)
			}
			report.Images++

			if !img.IsPublic || rng.Float64() >= opts.PostRatio {
				continue
			}
			post, err := f.CreatePost(ctx, img)
			if err != nil {
				return report, fmt.Errorf("create post: %w", err)
			}
			posts = append(posts, post)
		}
	}
	report.Posts = len(posts)

	if len(users) > 0 {
		for _, post := range posts {
			for range opts.CommentsPerPost {
				if _, err := f.CreateComment(ctx, users[rng.Intn(len(users))], post); err != nil {
					return report, fmt.Errorf("create comment: %w", err)
				}
				report.Comments++
			}
			for _, idx := range rng.Perm(len(users))[:min(opts.LikesPerPost, len(users))] {
				if err := f.CreateLike(ctx, users[idx], post); err != nil {
					return report, fmt.Errorf("create like: %w", err)
				}
				report.Likes++
			}
		}
	}

	for _, u := range users {
		for range opts.FeedbackPerUser {
			if _, err := f.CreateFeedback(ctx, u); err != nil {
				return report, fmt.Errorf("create feedback: %w", err)
			}
			report.Feedback++
		}
	}

	log.Info("database seeding completed",
		slog.Int("users", report.Users), slog.Int("images", report.Images), slog.Int("posts", report.Posts))
	return report, nil
}

func clearData(ctx context.Context, db *gorm.DB) error {
	middleware.Logger.Info("clearing existing data")
	if db.Dialector.Name() == "postgres" {
		return db.WithContext(ctx).Exec(
			"TRUNCATE TABLE likes, comments, posts, feedback, generated_videos, generated_images, users RESTART IDENTITY CASCADE",
		).Error
	}
	for _, table := range seedTables {
		if err := db.WithContext(ctx).Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}
