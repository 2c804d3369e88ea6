// Command backfill-sources assigns a generation source to images stored before
// sources were tracked.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"pixelpost/internal/config"
	"pixelpost/internal/database"
	"pixelpost/internal/repository"
	"pixelpost/internal/service"
	"pixelpost/internal/storage"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "Report what would change without writing")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open media storage: %v", err)
	}

	media := service.NewMediaService(repository.NewImageRepository(db), repository.NewPresetRepository(db), store, nil, cfg.PublicBaseURL)
	report, err := media.BackfillSources(ctx, *dryRun)
	if err != nil {
		log.Fatalf("❌ Backfill failed: %v", err)
	}

	mode := "updated"
	if report.DryRun {
		mode = "would update"
	}
	log.Printf("Scanned %d images with an unknown source, %s %d", report.Scanned, mode, report.Updated)
	for source, n := range report.Counts {
		log.Printf("  %-20s %d", source.DisplayName(), n)
	}
}
