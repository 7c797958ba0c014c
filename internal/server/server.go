// Package server contains the HTTP handlers and routing for the blog API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	_ "inkwell/docs" // swagger docs
	"inkwell/internal/blob"
	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/middleware"
	"inkwell/internal/repository"
	"inkwell/internal/service"

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
	config    *config.Config
	db        *gorm.DB
	redis     *redis.Client
	blobs     blob.Store
	verifier  middleware.Verifier
	app       *fiber.App
	posts     *service.PostService
	comments  *service.CommentService
	likes     *service.LikeService
	cascade   *service.CascadeService
	dashboard *service.DashboardService
}

// NewServer connects the database and redis and builds a server backed
// by the local blob store.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	rdb := cache.InitRedis(ctx, cfg.RedisURL)
	return NewServerWithDeps(cfg, db, rdb, blob.NewLocalStore(cfg))
}

// NewServerWithDeps creates a Server using already-initialized
// dependencies. rdb may be nil, which disables caching.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, rdb *redis.Client, blobs blob.Store) (*Server, error) {
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	userRepo := repository.NewUserRepository(db)
	cascadeRepo := repository.NewCascadeRepository(db)

	c := cache.New(rdb)
	sanitizer := service.NewSanitizer()
	pages := service.NewPageDefaults(cfg)
	slugs := service.NewSlugAllocator(postRepo)

	return &Server{
		config:    cfg,
		db:        db,
		redis:     rdb,
		blobs:     blobs,
		verifier:  middleware.NewJWTVerifier(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience),
		posts:     service.NewPostService(postRepo, blobs, slugs, c, sanitizer, pages, cfg.PostCacheTTL()),
		comments:  service.NewCommentService(commentRepo, postRepo, c, sanitizer, pages),
		likes:     service.NewLikeService(likeRepo, postRepo, commentRepo, c),
		cascade:   service.NewCascadeService(cascadeRepo, postRepo, blobs, c),
		dashboard: service.NewDashboardService(userRepo, postRepo, commentRepo, c),
	}, nil
}

// Cascade exposes the cascade controller for maintenance commands.
func (s *Server) Cascade() *service.CascadeService { return s.cascade }

// NewApp builds the fiber app with the error handler every route shares.
func (s *Server) NewApp() *fiber.App {
	maxMB := s.config.BlobMaxUploadMB
	if maxMB <= 0 {
		maxMB = blob.DefaultMaxSizeMB
	}
	return fiber.New(fiber.Config{
		AppName:   "Inkwell API",
		BodyLimit: (maxMB + 1) * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
			}
			return fail(c, err)
		},
	})
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())
	middleware.InitMetrics(app, "inkwell-api")
	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
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

	if local, ok := s.blobs.(*blob.LocalStore); ok {
		app.Static(local.BaseURL(), local.Dir())
	}

	api := app.Group("/api/v1")
	api.Get("/swagger/*", swagger.HandlerDefault)

	optional := middleware.OptionalAuth(s.verifier)
	authed := middleware.AuthRequired(s.verifier)
	admin := []fiber.Handler{authed, middleware.AdminRequired()}
	likeLimit := middleware.RateLimit(s.redis, middleware.RateLimitOptions{
		Limit:  s.config.RateLimitLikesPerMinute,
		Window: time.Minute,
		Name:   "like",
	})

	posts := api.Group("/posts")
	posts.Get("/", optional, s.ListPosts)
	posts.Get("/search", optional, s.SearchPosts)
	// Specific /:id/:resource routes before the generic /:slug route
	posts.Get("/:id/comments", optional, s.ListComments)
	posts.Post("/:id/comments", authed, s.CreateComment)
	posts.Post("/:id/like", authed, likeLimit, s.LikePost)
	posts.Delete("/:id/like", authed, likeLimit, s.UnlikePost)
	posts.Patch("/:id/image", append(admin, s.UpdatePostImage)...)
	posts.Get("/:slug", optional, s.GetPost)
	posts.Post("/", append(admin, s.CreatePost)...)
	posts.Put("/:id", append(admin, s.UpdatePost)...)
	posts.Delete("/:id", append(admin, s.DeletePost)...)

	comments := api.Group("/comments", authed)
	comments.Put("/:id", s.UpdateComment)
	comments.Delete("/:id", s.DeleteComment)
	comments.Post("/:id/like", likeLimit, s.LikeComment)
	comments.Delete("/:id/like", likeLimit, s.UnlikeComment)

	adminGroup := api.Group("/admin", admin...)
	adminGroup.Get("/dashboard", s.Dashboard)
	adminGroup.Get("/comments", s.ListAllComments)
	adminGroup.Delete("/comments/:id", s.DeleteCommentAdmin)
	adminGroup.Post("/maintenance/sweep-likes", s.SweepOrphans)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional; a
// missing cache degrades reads but does not fail readiness.
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

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" {
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
	app := s.NewApp()
	s.app = app
	s.SetupMiddleware(app)
	s.SetupRoutes(app)

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
