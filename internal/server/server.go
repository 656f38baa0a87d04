// Package server contains HTTP and WebSocket handlers for the like service's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "antisocial/docs" // swagger docs
	"antisocial/internal/bootstrap"
	"antisocial/internal/cache"
	"antisocial/internal/config"
	"antisocial/internal/events"
	"antisocial/internal/featureflags"
	"antisocial/internal/middleware"
	"antisocial/internal/models"
	"antisocial/internal/notifications"
	"antisocial/internal/repository"
	"antisocial/internal/service"

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
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	likeRepo       repository.LikeRepository
	likeService    *service.LikeService
	notifier       *notifications.Notifier
	likeHub        *notifications.LikeHub
	kafka          *events.KafkaPublisher
	featureFlags   *featureflags.Manager
}

// NewServer creates a new server instance, connecting to the database and Redis.
func NewServer(cfg *config.Config, opts bootstrap.Options) (*Server, error) {
	db, redisClient, err := bootstrap.InitRuntime(context.Background(), cfg, opts)
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil: counts are then read from the database every time and like events
// reach only this instance's websocket clients.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if db == nil {
		return nil, errors.New("server requires a database")
	}

	likeRepo := repository.NewLikeRepository(db, cache.NewStore(redisClient), cfg.LikeCountCacheTTL())

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("antisocial-api"),
		likeRepo:       likeRepo,
		likeHub:        notifications.NewLikeHub(),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
	}

	// With Redis, every instance publishes to pub/sub and each hub delivers what it receives
	// from there. Without it the hub is fed directly.
	var publishers events.Multi
	if redisClient != nil {
		server.notifier = notifications.NewNotifier(redisClient)
		publishers = append(publishers, notifications.NewRedisPublisher(server.notifier))
	} else {
		publishers = append(publishers, server.likeHub)
	}
	if brokers := cfg.KafkaBrokerList(); len(brokers) > 0 {
		server.kafka = events.NewKafkaPublisher(brokers, cfg.KafkaLikesTopic)
		publishers = append(publishers, server.kafka)
	}

	server.likeService = service.NewLikeService(likeRepo, publishers)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// OpenTelemetry span per request; must precede ContextMiddleware which reads the trace id
	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate request, trace and correlation ids
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowHeaders:  "Origin, Content-Type, Accept, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version, " + middleware.CorrelationHeader,
		ExposeHeaders: middleware.CorrelationHeader,
		MaxAge:        86400, // 24 hours
	}))

	// Global rate limiting (300 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
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
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)
	api.Get("/", s.HealthCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	api.Get("/feature-flags", s.GetFeatureFlags)

	// Like routes live under /api and, for older clients, at the root.
	s.registerLikeRoutes(api)
	s.registerLikeRoutes(app)

	// Websocket stream of like events
	api.Get("/ws/likes", s.LikeStreamUpgrade, s.LikeStreamHandler())
	app.Get("/ws/likes", s.LikeStreamUpgrade, s.LikeStreamHandler())
}

func (s *Server) registerLikeRoutes(r fiber.Router) {
	likes := r.Group("/likes")

	// Specific routes before the generic /posts/:postId
	likes.Get("/debug/table", s.GetLikesDebugTable)
	likes.Get("/posts", s.GetLikeSummaries)
	likes.Get("/posts/:postId/count", s.GetLikeCount)
	likes.Get("/posts/:postId/check", s.CheckLike)
	likes.Get("/posts/:postId/users", s.GetPostLikes)
	likes.Post("/posts/:postId", middleware.RateLimitWithPolicy(
		s.redis, s.toggleRateLimit(), time.Minute, middleware.FailOpen, "like_toggle", toggleRateKey), s.ToggleLike)
}

func (s *Server) toggleRateLimit() int {
	if s.config.ToggleRateLimit <= 0 {
		return 60
	}
	return s.config.ToggleRateLimit
}

// HealthCheck is a legacy/simple alias for ReadinessCheck
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	return s.ReadinessCheck(c)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional: when it was never
// configured the check reports "disabled" and stays healthy.
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
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"service": "antisocial-likes",
		"version": "1.0.0",
		"status":  overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// App builds the Fiber application with middleware and routes installed.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Anti-Social Net Likes API",
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
	}
	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// Start wires realtime delivery and starts listening. It blocks until the server stops.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.App()

	if s.notifier != nil {
		if err := s.likeHub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
			middleware.Logger.Error("failed to start like hub wiring", slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	if err := s.app.Listen(":" + s.config.Port); err != nil {
		return fmt.Errorf("listen on port %s: %w", s.config.Port, err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop the Redis subscriber
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	// Close WebSocket connections before the listener so clients get a close frame
	if err := s.likeHub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down like hub", slog.String("error", err.Error()))
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if s.kafka != nil {
		if err := s.kafka.Close(); err != nil {
			middleware.Logger.Error("error closing kafka writer", slog.String("error", err.Error()))
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

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
