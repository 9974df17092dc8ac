// Package server contains HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	_ "wanderlog/docs" // swagger docs
	"wanderlog/internal/cache"
	"wanderlog/internal/config"
	"wanderlog/internal/database"
	"wanderlog/internal/featureflags"
	"wanderlog/internal/middleware"
	"wanderlog/internal/models"
	"wanderlog/internal/repository"
	"wanderlog/internal/service"
	"wanderlog/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config             *config.Config
	db                 *gorm.DB
	redis              *redis.Client
	app                *fiber.App
	promMiddleware     *fiberprometheus.FiberPrometheus
	store              storage.Store
	featureFlags       *featureflags.Manager
	authService        *service.AuthService
	storyService       *service.StoryService
	interactionService *service.InteractionService
	locationService    *service.LocationService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis and optionally
// performs explicit seeding.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	store, err := storage.New(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	storyRepo := repository.NewStoryRepository(db)
	interactionRepo := repository.NewInteractionRepository(db)

	flags := featureflags.NewManager(cfg.FeatureFlags)
	media := service.NewMediaService(store, cfg.ImageMaxUploadSizeKB)

	return &Server{
		config:             cfg,
		db:                 db,
		redis:              redisClient,
		promMiddleware:     middleware.InitMetrics("wanderlog-api"),
		store:              store,
		featureFlags:       flags,
		authService:        service.NewAuthService(userRepo, tokenRepo, time.Duration(cfg.TokenTTLHours)*time.Hour),
		storyService:       service.NewStoryService(storyRepo, media, flags),
		interactionService: service.NewInteractionService(interactionRepo, storyRepo, media),
		locationService:    service.NewLocationService(storyRepo),
	}, nil
}

// NewApp builds the Fiber application with middleware and routes attached.
func (s *Server) NewApp() *fiber.App {
	app := s.newFiberApp()
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// newFiberApp configures body limits and the JSON error envelope.
func (s *Server) newFiberApp() *fiber.App {
	maxKB := s.config.ImageMaxUploadSizeKB
	if maxKB <= 0 {
		maxKB = service.DefaultImageMaxUploadSizeKB
	}

	return fiber.New(fiber.Config{
		AppName: "Wanderlog API",
		// Room for the largest accepted image plus the other form fields.
		BodyLimit: (maxKB + 1024) * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code := models.CodeBadRequest
				switch fe.Code {
				case fiber.StatusNotFound:
					code = models.CodeNotFound
				case fiber.StatusTooManyRequests:
					code = models.CodeRateLimited
				}
				if fe.Code >= fiber.StatusInternalServerError {
					code = models.CodeInternal
				}
				return models.RespondWithError(c, fe.Code, &models.AppError{Code: code, Message: fe.Message})
			}
			return respondError(c, err)
		},
	})
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers; uploads are served cross-origin to the frontend.
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		MaxAge:       86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return models.RespondWithError(c, fiber.StatusTooManyRequests, models.NewRateLimitedError())
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	if s.store != nil && s.store.Driver() == "local" {
		app.Static(s.publicStoragePath(), s.uploadDir(), fiber.Static{ByteRange: true})
	}

	api := app.Group("/api")

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	api.Get("/test", s.TestRoute)

	auth := s.AuthRequired()

	authRoutes := api.Group("/auth")
	authRoutes.Post("/signup", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "signup"), s.Signup)
	authRoutes.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	authRoutes.Post("/logout", auth, s.Logout)
	authRoutes.Get("/me", auth, s.Me)

	stories := api.Group("/stories")
	stories.Get("/", s.ListStories)
	stories.Post("/", auth, middleware.RateLimit(
		s.redis, 30, time.Minute, "create_story"), s.CreateStory)
	// Define specific /:id/:action routes BEFORE generic /:id routes
	stories.Post("/:id/like", auth, s.LikeStory)
	stories.Post("/:id/unlike", auth, s.UnlikeStory)
	stories.Post("/:id/save", auth, s.SaveStory)
	stories.Post("/:id/unsave", auth, s.UnsaveStory)
	stories.Post("/:id/increment-views", middleware.RateLimit(
		s.redis, 120, time.Minute, "story_views"), s.IncrementViews)
	stories.Get("/:id", s.GetStory)
	stories.Put("/:id", auth, s.UpdateStory)
	stories.Delete("/:id", auth, s.DeleteStory)

	locations := api.Group("/locations")
	locations.Get("/", s.GetLocations)
	locations.Get("/countries", s.GetCountries)
	locations.Get("/cities", s.GetCities)
	locations.Get("/types", s.GetTypes)

	api.Get("/user/stories", auth, s.GetUserStories)

	profile := api.Group("/profile")
	profile.Get("/liked-stories", auth, s.GetLikedStories)
	profile.Get("/saved-stories", auth, s.GetSavedStories)

	api.Get("/feature-flags", auth, s.GetFeatureFlags)
}

// AuthRequired returns the bearer token authentication middleware.
func (s *Server) AuthRequired() fiber.Handler {
	return middleware.BearerAuth(s.authService)
}

// optionalUserID resolves the bearer token if one is presented but never
// rejects the request.
func (s *Server) optionalUserID(c *fiber.Ctx) uint {
	token, ok := middleware.BearerToken(c)
	if !ok {
		return 0
	}
	user, err := s.authService.ValidateToken(c.UserContext(), token)
	if err != nil {
		return 0
	}
	return user.ID
}

func (s *Server) publicStoragePath() string {
	if s.config.PublicStoragePath == "" {
		return "/storage"
	}
	return s.config.PublicStoragePath
}

func (s *Server) uploadDir() string {
	if s.config.UploadDir == "" {
		return "storage/app/public"
	}
	return s.config.UploadDir
}

// TestRoute handles GET /api/test
// @Summary Backend probe
// @Tags health
// @Produce json
// @Success 200 {object} object{success=bool,message=string}
// @Router /test [get]
func (s *Server) TestRoute(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Backend is working!",
	})
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional: when it
// is not configured it is reported as "disabled" and does not fail readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
			"storage":  s.storageDriver(),
		},
		"time": time.Now(),
	})
}

func (s *Server) storageDriver() string {
	if s.store == nil {
		return "none"
	}
	return s.store.Driver()
}

// Start starts the server
func (s *Server) Start() error {
	s.app = s.NewApp()

	log.Printf("Server starting on port %s...", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
