// Package server contains the HTTP and WebSocket handlers of the pixelpost API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "pixelpost/docs" // swagger docs
	"pixelpost/internal/bootstrap"
	"pixelpost/internal/config"
	"pixelpost/internal/featureflags"
	"pixelpost/internal/generation"
	"pixelpost/internal/hashtags"
	"pixelpost/internal/middleware"
	"pixelpost/internal/models"
	"pixelpost/internal/notifications"
	"pixelpost/internal/repository"
	"pixelpost/internal/service"
	"pixelpost/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	// sweepInterval is how often stuck video rows are failed.
	sweepInterval = time.Minute
	// globalRateLimit is requests per minute per IP across the whole app.
	globalRateLimit = 100
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	store          storage.Store
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	userRepo     repository.UserRepository
	imageRepo    repository.ImageRepository
	videoRepo    repository.VideoRepository
	presetRepo   repository.PresetRepository
	postRepo     repository.PostRepository
	commentRepo  repository.CommentRepository
	feedbackRepo repository.FeedbackRepository

	notifier     *notifications.Notifier
	hub          *notifications.Hub
	featureFlags *featureflags.Manager
	hashtags     *hashtags.Deriver

	generationService *service.GenerationService
	mediaService      *service.MediaService
	videoService      *service.VideoService
	postService       *service.PostService
	commentService    *service.CommentService
	userService       *service.UserService
	presetService     *service.PresetService
	feedbackService   *service.FeedbackService
}

// Deps are the already-initialized collaborators of a Server. Generators default to
// the provider sequencers built from config.
type Deps struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Store    storage.Store
	ImageGen service.Generator
	VideoGen service.Generator
}

// NewServer connects to the database, Redis and media storage and builds a server.
func NewServer(cfg *config.Config) (*Server, error) {
	rt, err := bootstrap.InitRuntime(context.Background(), cfg, bootstrap.Options{SeedPresets: cfg.SeedBuiltInPresets})
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, Deps{DB: rt.DB, Redis: rt.Redis, Store: rt.Store})
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer owns the connections.
func NewServerWithDeps(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.DB == nil {
		return nil, fmt.Errorf("database is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("media storage is required")
	}

	flags := featureflags.NewManager(cfg.FeatureFlags)
	imageGen, videoGen := deps.ImageGen, deps.VideoGen
	if imageGen == nil || videoGen == nil {
		opts := generation.Options{MaxBackoff: cfg.MaxBackoff(), Enabled: flags.ProviderEnabled}
		if imageGen == nil {
			imageGen = generation.NewImageSequencer(cfg.Providers(), opts)
		}
		if videoGen == nil {
			videoGen = generation.NewVideoSequencer(cfg.Providers(), opts)
		}
	}

	s := &Server{
		config:         cfg,
		db:             deps.DB,
		redis:          deps.Redis,
		store:          deps.Store,
		promMiddleware: middleware.InitMetrics("pixelpost-api"),
		userRepo:       repository.NewUserRepository(deps.DB),
		imageRepo:      repository.NewImageRepository(deps.DB),
		videoRepo:      repository.NewVideoRepository(deps.DB),
		presetRepo:     repository.NewPresetRepository(deps.DB),
		postRepo:       repository.NewPostRepository(deps.DB),
		commentRepo:    repository.NewCommentRepository(deps.DB),
		feedbackRepo:   repository.NewFeedbackRepository(deps.DB),
		notifier:       notifications.NewNotifier(deps.Redis),
		hub:            notifications.NewHub(),
		featureFlags:   flags,
		hashtags:       hashtags.New(hashtags.Options{Seeded: cfg.HashtagSeeded, Seed: cfg.HashtagSeed}),
	}

	isAdmin := service.AdminCheckerFromRepo(s.userRepo)
	s.generationService = service.NewGenerationService(service.GenerationDeps{
		Images:   s.imageRepo,
		Videos:   s.videoRepo,
		Presets:  s.presetRepo,
		Store:    s.store,
		ImageGen: imageGen,
		VideoGen: videoGen,
		Tags:     s.hashtags,
		Notifier: s.notifier,
		Flags:    flags,
	})
	s.mediaService = service.NewMediaService(s.imageRepo, s.presetRepo, s.store, s.notifier, cfg.PublicBaseURL)
	s.videoService = service.NewVideoService(s.videoRepo, s.store)
	s.postService = service.NewPostService(s.postRepo, s.imageRepo, s.store, s.notifier, isAdmin)
	s.commentService = service.NewCommentService(s.commentRepo, s.postRepo, s.notifier, isAdmin)
	s.userService = service.NewUserService(s.userRepo, s.imageRepo, s.postRepo, s.store)
	s.presetService = service.NewPresetService(s.presetRepo)
	s.feedbackService = service.NewFeedbackService(s.feedbackRepo)

	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.TracingMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// The default CSP would block the swagger UI assets.
	app.Use(helmet.New(helmet.Config{
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/api/swagger")
		},
	}))

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so error responses still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        globalRateLimit,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	if s.config.StorageBackend == "" || s.config.StorageBackend == config.StorageLocal {
		app.Static(s.config.MediaURLPrefix, s.config.MediaRoot, fiber.Static{MaxAge: 3600})
	}

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{Title: "pixelpost metrics"}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)

	optional := s.OptionalAuth()
	required := s.AuthRequired()

	// Browsing. Routes with a /:id/<resource> suffix come before the bare /:id.
	api.Get("/home", s.Home)
	api.Get("/explore", s.Explore)
	api.Get("/presets", s.ListPresets)
	api.Get("/hashtags/trending", s.TrendingHashtags)
	api.Get("/hashtags/categories", s.HashtagCategories)

	images := api.Group("/images")
	images.Post("/bulk-delete", required, s.BulkDeleteImages)
	images.Get("/:id/share", optional, s.ShareImage)
	images.Get("/:id/qr", optional, s.ImageQRCode)
	images.Get("/:id/download", optional, s.DownloadImage)
	images.Post("/:id/privacy", required, s.ToggleImagePrivacy)
	images.Get("/:id", optional, s.GetImage)
	images.Delete("/:id", required, s.DeleteImage)

	generate := api.Group("/generate", required,
		middleware.RateLimit(s.redis, s.generationLimit(), time.Minute, "generate"))
	generate.Post("/image", s.GenerateImage)
	generate.Post("/video", s.GenerateVideo)

	api.Get("/gallery", required, s.Gallery)

	videos := api.Group("/videos")
	videos.Get("/", required, s.VideoGallery)
	videos.Post("/:id/privacy", required, s.ToggleVideoPrivacy)
	videos.Get("/:id", optional, s.GetVideo)
	videos.Delete("/:id", required, s.DeleteVideo)

	posts := api.Group("/posts")
	posts.Get("/", optional, s.GetPosts)
	posts.Get("/search", optional, middleware.RateLimit(s.redis, 10, time.Minute, "search"), s.SearchPosts)
	posts.Post("/", required, s.CreatePost)
	posts.Post("/:id/like", required, s.LikePost)
	posts.Get("/:id/comments", optional, s.GetComments)
	posts.Post("/:id/comments", required, middleware.RateLimit(s.redis, 5, time.Minute, "create_comment"), s.CreateComment)
	posts.Put("/:id/comments/:commentId", required, s.UpdateComment)
	posts.Delete("/:id/comments/:commentId", required, s.DeleteComment)
	posts.Get("/:id", optional, s.GetPost)
	posts.Put("/:id", required, s.UpdatePost)
	posts.Delete("/:id", required, s.DeletePost)

	api.Post("/feedback", required, s.SubmitFeedback)

	users := api.Group("/users")
	users.Get("/me", required, s.GetMyProfile)
	users.Put("/me", required, s.UpdateMyProfile)
	users.Get("/:username/posts", optional, s.GetUserPosts)
	users.Get("/:username", optional, s.GetUserProfile)

	api.Post("/ws/ticket", required, s.IssueWSTicket)
	api.Get("/ws", required, s.WebSocketHandler())

	admin := api.Group("/admin", required, s.AdminRequired())
	admin.Get("/feedback", s.ListFeedback)
	admin.Get("/sources", s.SourceReport)
	admin.Get("/feature-flags", s.GetFeatureFlags)
	admin.Get("/presets", s.ListAllPresets)
	admin.Post("/presets", s.CreatePreset)
	admin.Put("/presets/:id", s.UpdatePreset)
	admin.Post("/presets/:id/toggle", s.TogglePreset)
	admin.Get("/admins", s.ListAdmins)
	admin.Post("/users/:id/promote-admin", s.PromoteToAdmin)
	admin.Post("/users/:id/demote-admin", s.DemoteFromAdmin)
}

func (s *Server) generationLimit() int {
	if s.config.GenerationRateLimit > 0 {
		return s.config.GenerationRateLimit
	}
	return 10
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	// Redis is optional; only a configured but failing instance marks us unready.
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// App builds the Fiber app with middleware and routes. Start calls it; tests use it
// with app.Test.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName:   "pixelpost API",
		BodyLimit: 4 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// Start starts the background workers and serves HTTP until Shutdown.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := s.App()

	if s.redis != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("failed to start hub wiring",
					slog.String("hub", s.hub.Name()), slog.String("error", err.Error()))
			}
		}()
	}
	go s.generationService.RunSweeper(s.shutdownCtx, sweepInterval, service.StaleVideoAfter)

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down hub", slog.String("error", err.Error()))
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
