// Command main runs the database seeder for pixelpost.
package main

import (
	"context"
	"flag"
	"log"

	"pixelpost/internal/config"
	"pixelpost/internal/database"
	"pixelpost/internal/seed"
	"pixelpost/internal/storage"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	imagesPerUser := flag.Int("images", 5, "Images generated per user")
	postRatio := flag.Float64("post-ratio", 0.6, "Share of public images shared as posts")
	comments := flag.Int("comments", 3, "Comments per post")
	likes := flag.Int("likes", 5, "Likes per post")
	feedback := flag.Int("feedback", 1, "Feedback entries per user")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	presets := flag.Bool("presets", true, "Upsert the built-in style presets")
	rngSeed := flag.Int64("seed", 0, "Random seed; 0 picks one from the clock")
	fast := flag.Bool("fast", false, "Skip bcrypt; seeded users cannot log in")
	imageSize := flag.Int("image-size", 256, "Edge in pixels of synthesized images")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d users x %d images, clean=%v\n", *numUsers, *imagesPerUser, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close() }()

	ctx := context.Background()
	store, err := storage.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open media storage: %v", err)
	}

	report, err := seed.Seed(ctx, db, store, seed.Options{
		NumUsers:        *numUsers,
		ImagesPerUser:   *imagesPerUser,
		PostRatio:       *postRatio,
		CommentsPerPost: *comments,
		LikesPerPost:    *likes,
		FeedbackPerUser: *feedback,
		ShouldClean:     *shouldClean,
		IncludePresets:  *presets,
		Factory: seed.FactoryOptions{
			SkipBcrypt: *fast,
			Seed:       *rngSeed,
			ImageSize:  *imageSize,
		},
	})
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ Seeded %d users, %d images, %d posts, %d comments, %d likes, %d feedback, %d presets\n",
		report.Users, report.Images, report.Posts, report.Comments, report.Likes, report.Feedback, report.Presets)
	if !*fast {
		log.Printf("📧 All seeded users have the password: %s\n", seed.DefaultPassword)
	}
}
