// Package server wires the HTTP surface: the GraphQL endpoint, REST auth,
// notification sockets, image uploads and operational endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	_ "ratefolio/docs" // swagger docs
	"ratefolio/internal/auth"
	"ratefolio/internal/bootstrap"
	"ratefolio/internal/config"
	"ratefolio/internal/database"
	"ratefolio/internal/featureflags"
	"ratefolio/internal/graph"
	"ratefolio/internal/middleware"
	"ratefolio/internal/models"
	"ratefolio/internal/notifications"
	"ratefolio/internal/repository"
	"ratefolio/internal/service"

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

// Server holds the application's dependencies.
type Server struct {
	config       *config.Config
	db           *gorm.DB
	redis        *redis.Client
	app          *fiber.App
	appOnce      sync.Once
	prom         *fiberprometheus.FiberPrometheus
	tokens       *auth.TokenIssuer
	revocations  *auth.RevocationList
	notifier     *notifications.Notifier
	hub          *notifications.Hub
	featureFlags *featureflags.Manager
	userRepo     repository.UserRepository
	accounts     *service.AccountService
	images       *service.ImageService
	graph        *graph.Executor
	shutdownCtx  context.Context
	shutdownFn   context.CancelFunc
}

// NewServer connects to the database and Redis and builds a Server.
func NewServer(cfg *config.Config) (*Server, error) {
	db, rdb, err := bootstrap.InitRuntime(cfg, bootstrap.Options{})
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, rdb)
}

// NewServerWithDeps builds a Server on existing connections. rdb may be nil,
// in which case rate limiting, logout revocation and cross-instance
// notifications are disabled.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if db == nil {
		return nil, errors.New("database is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		config:       cfg,
		db:           db,
		redis:        rdb,
		tokens:       auth.NewTokenIssuer(cfg.JWTSecret, time.Duration(cfg.JWTTTLHours)*time.Hour),
		revocations:  auth.NewRevocationList(rdb),
		notifier:     notifications.NewNotifier(rdb),
		hub:          notifications.NewHub(),
		featureFlags: featureflags.NewManager(cfg.FeatureFlags),
		shutdownCtx:  ctx,
		shutdownFn:   cancel,
	}

	userRepo := repository.NewUserRepository(db)
	portfolioRepo := repository.NewPortfolioRepository(db)
	followRepo := repository.NewFollowRepository(db)
	events := newEventPublisher(s.hub, s.notifier, s.featureFlags)

	s.userRepo = userRepo
	s.accounts = service.NewAccountService(userRepo, s.tokens)
	s.images = service.NewImageService(repository.NewImageRepository(db), cfg)

	resolver := graph.NewResolver(graph.Services{
		Users:      service.NewUserService(userRepo, followRepo),
		Accounts:   s.accounts,
		Portfolios: service.NewPortfolioService(portfolioRepo, userRepo),
		Ratings:    service.NewRatingService(portfolioRepo, repository.NewRatingRepository(db), userRepo, events),
		Feedbacks:  service.NewFeedbackService(portfolioRepo, repository.NewFeedbackRepository(db), userRepo, events),
		Social:     service.NewSocialService(followRepo, userRepo, events),
	})
	executor, err := graph.NewExecutor(resolver, cfg.GraphQLMaxDepth)
	if err != nil {
		cancel()
		return nil, err
	}
	s.graph = executor

	return s, nil
}

// App returns the configured fiber application, building it on first use.
func (s *Server) App() *fiber.App {
	s.appOnce.Do(func() {
		app := fiber.New(fiber.Config{
			AppName:   "Ratefolio API",
			BodyLimit: int(s.images.MaxUploadBytes()) + 1<<20,
			ErrorHandler: func(c *fiber.Ctx, err error) error {
				var fe *fiber.Error
				if errors.As(err, &fe) {
					return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
				}
				middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err)
				return models.RespondWithError(c, fiber.StatusInternalServerError,
					models.NewInternalError(err))
			},
		})
		s.SetupMiddleware(app)
		s.SetupRoutes(app)
		s.app = app
	})
	return s.app
}

// SetupMiddleware configures middleware for the Fiber app.
func (s *Server) SetupMiddleware(app *fiber.App) {
	s.prom = middleware.InitMetrics("ratefolio-api")

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.MetricsMiddleware(s.prom))
	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if strings.TrimSpace(origins) == "" {
		origins = "http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, OPTIONS",
		AllowCredentials: origins != "*",
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/health") || c.Path() == "/metrics"
		},
	}))
}

// SetupRoutes registers every endpoint.
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.HealthCheck)
	s.prom.RegisterAt(app, "/metrics")

	app.Get("/api/swagger/*", swagger.HandlerDefault)

	app.Get("/graphql", s.GraphQLSchema)
	app.Post("/graphql",
		s.OptionalAuth(),
		middleware.RateLimit(s.redis, 120, time.Minute, "graphql"),
		s.GraphQL,
	)

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/signup", middleware.RateLimit(s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	authGroup.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	authGroup.Post("/logout", s.AuthRequired(), s.Logout)

	api.Get("/feature-flags", s.OptionalAuth(), s.GetFeatureFlags)

	api.Post("/images",
		s.AuthRequired(),
		s.RequireFeature(featureflags.ImageUploads),
		middleware.RateLimit(s.redis, 20, time.Minute, "image_upload"),
		s.UploadImage,
	)
	api.Get("/images/:hash", s.GetImage)
	app.Static("/media", s.images.UploadDir(), fiber.Static{MaxAge: 86400})

	ws := api.Group("/ws", s.AuthRequired(), s.WebSocketUpgrade)
	ws.Get("/", s.WebSocketNotificationsHandler())
}

// LivenessCheck reports that the process is up.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// HealthCheck reports overall status without failing the probe.
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	status, checks := s.dependencyChecks(c.Context())
	return c.JSON(fiber.Map{
		"status":  status,
		"service": "ratefolio-api",
		"checks":  checks,
		"time":    time.Now(),
	})
}

// ReadinessCheck returns 503 when the database is unreachable.
// Redis is optional; its absence is reported but does not fail readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	status, checks := s.dependencyChecks(c.Context())
	code := fiber.StatusOK
	if status != "healthy" {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"status": status,
		"checks": checks,
		"time":   time.Now(),
	})
}

func (s *Server) dependencyChecks(parent context.Context) (string, fiber.Map) {
	ctx, cancel := context.WithTimeout(parent, 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis == nil {
		redisStatus = "unavailable"
	} else if err := s.redis.Ping(ctx).Err(); err != nil {
		redisStatus = "unhealthy"
	}

	overall := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		overall = "unhealthy"
	}
	return overall, fiber.Map{"database": dbStatus, "redis": redisStatus}
}

// Start starts the HTTP server and the notification subscriber.
func (s *Server) Start() error {
	app := s.App()

	if s.notifier.Enabled() {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				log.Printf("failed to start notification wiring: %v", err)
			}
		}()
	}

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown stops accepting requests, closes sockets and releases connections.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		log.Printf("error shutting down notification hub: %v", err)
	}

	var errs []error
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			errs = append(errs, fmt.Errorf("close database: %w", cerr))
		}
	}
	if s.redis != nil {
		if cerr := s.redis.Close(); cerr != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", cerr))
		}
	}
	return errors.Join(errs...)
}
