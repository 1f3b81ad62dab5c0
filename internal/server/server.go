// Package server contains the HTTP handlers and routing for the socialhub API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	_ "socialhub/docs" // swagger docs
	"socialhub/internal/bootstrap"
	"socialhub/internal/cache"
	"socialhub/internal/config"
	"socialhub/internal/database"
	"socialhub/internal/email"
	"socialhub/internal/featureflags"
	"socialhub/internal/middleware"
	"socialhub/internal/models"
	"socialhub/internal/notifications"
	"socialhub/internal/repository"
	"socialhub/internal/service"
	"socialhub/internal/storage"

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
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	limiter        *middleware.Limiter
	tokens         *service.TokenManager
	featureFlags   *featureflags.Manager

	authService         *service.AuthService
	recoveryService     *service.RecoveryService
	userService         *service.UserService
	postService         *service.PostService
	likeService         *service.LikeService
	commentService      *service.CommentService
	notificationService *service.NotificationService
	uploadService       *service.UploadService
}

// NewServer connects to the database and Redis and builds a server on top of them.
// Redis is optional: without it caching, revocation and rate limiting are disabled.
func NewServer(cfg *config.Config) (*Server, error) {
	db, redisClient, err := bootstrap.InitRuntime(cfg, bootstrap.Options{SeedDemo: cfg.DevSeedDemo})
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	store, err := storage.New(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("image storage: %w", err)
	}

	cacheStore := cache.NewStore(redisClient)
	userRepo := repository.NewUserRepository(db, cacheStore)
	postRepo := repository.NewPostRepository(db, cacheStore)
	commentRepo := repository.NewCommentRepository(db, cacheStore)
	notificationRepo := repository.NewNotificationRepository(db)
	resetCodeRepo := repository.NewResetCodeRepository(db)

	tokens := service.NewTokenManager(cfg, redisClient)
	uploads := service.NewUploadService(store, cfg)
	notificationService := service.NewNotificationService(notificationRepo, notifications.NewNotifier(redisClient))

	return &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("socialhub-api"),
		limiter:        middleware.NewLimiter(redisClient, cfg.Env),
		tokens:         tokens,
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),

		authService:         service.NewAuthService(userRepo, tokens),
		recoveryService:     service.NewRecoveryService(userRepo, resetCodeRepo, email.NewSender(cfg), cfg.AppName),
		userService:         service.NewUserService(userRepo, uploads),
		postService:         service.NewPostService(postRepo, userRepo, uploads),
		likeService:         service.NewLikeService(postRepo, notificationService),
		commentService:      service.NewCommentService(commentRepo, postRepo, notificationService),
		notificationService: notificationService,
		uploadService:       uploads,
	}, nil
}

// App builds the Fiber application with middleware and routes installed.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: s.config.AppName,
		// Uploads are bounded by the upload service; leave room for multipart overhead.
		BodyLimit: int(s.uploadService.MaxBytes()) + 1024*1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
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

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	// Context Middleware to propagate request, user and trace ids into logs
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Images are embedded cross-origin by the frontend.
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.StructuredLogger())

	// CORS runs before anything that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.Origins()
	if origins == "" {
		origins = "http://localhost:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	authRequired := middleware.AuthRequired(s.tokens)
	optionalAuth := middleware.OptionalAuth(s.tokens)

	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Get("/feature-flags", optionalAuth, s.GetFeatureFlags)

	auth := app.Group("/auth")
	auth.Post("/register", s.limiter.Handler("register", 5, 10*time.Minute, middleware.FailOpen), s.Register)
	auth.Post("/login", s.limiter.Handler("login", 10, 5*time.Minute, middleware.FailOpen), s.Login)
	auth.Post("/logout", s.Logout)
	auth.Get("/me", authRequired, s.Me)
	auth.Post("/validate", s.ValidateField)
	auth.Post("/forgot-password", s.limiter.Handler("forgot_password", 3, 15*time.Minute, middleware.FailOpen), s.ForgotPassword)
	auth.Post("/verify-code", s.limiter.Handler("verify_code", 10, 15*time.Minute, middleware.FailOpen), s.VerifyCode)
	auth.Post("/reset-password", s.limiter.Handler("reset_password", 5, 15*time.Minute, middleware.FailOpen), s.ResetPassword)

	users := app.Group("/users")
	users.Post("/", s.CreateUser)
	users.Get("/", s.GetUsers)
	if !s.config.IsProduction() {
		users.Post("/delete-by-email", s.DeleteUserByEmail)
	}
	users.Get("/:id", s.GetUser)
	users.Put("/:id", authRequired, s.UpdateUser)

	posts := app.Group("/posts")
	posts.Get("/", s.GetPosts)
	// Specific routes before the generic /:id
	posts.Get("/user/:userId", s.GetUserPosts)
	posts.Get("/:id/comments", s.GetComments)
	posts.Post("/:id/comments", authRequired, s.limiter.Handler("create_comment", 30, time.Minute, middleware.FailOpen), s.CreateComment)
	posts.Post("/:id/like", authRequired, s.LikePost)
	posts.Delete("/:id/like", authRequired, s.UnlikePost)
	posts.Get("/:id", optionalAuth, s.GetPost)
	posts.Post("/", authRequired, s.limiter.Handler("create_post", 10, time.Minute, middleware.FailOpen), s.CreatePost)
	posts.Put("/:id", authRequired, s.UpdatePost)
	posts.Delete("/:id", authRequired, s.DeletePost)

	comments := app.Group("/comments", authRequired)
	comments.Put("/:id", s.UpdateComment)
	comments.Delete("/:id", s.DeleteComment)

	notes := app.Group("/notifications", authRequired)
	notes.Get("/", s.GetNotifications)
	notes.Get("/unread-count", s.GetUnreadCount)
	notes.Post("/read-all", s.MarkAllNotificationsRead)
	notes.Patch("/:id/read", s.MarkNotificationRead)

	upload := app.Group("/upload", authRequired)
	upload.Post("/user-avatar", s.limiter.Handler("upload", 20, time.Minute, middleware.FailOpen), s.UploadUserAvatar)
	upload.Post("/post-image", s.limiter.Handler("upload", 20, time.Minute, middleware.FailOpen), s.UploadPostImage)

	app.Get("/images/:kind/:name", s.ServeImage)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports database and Redis health. Redis is optional, so its
// absence degrades the report without failing readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
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
		},
		"time": time.Now(),
	})
}

// Start builds the app and listens on the configured port.
func (s *Server) Start() error {
	app := s.App()
	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
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
