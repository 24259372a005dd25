// Package server exposes the procedure pipeline, health probes, metrics and
// the event stream over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/events"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/rpc"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the already-initialized collaborators of a Server.
type Deps struct {
	Config    *config.Config
	DB        *gorm.DB
	Redis     *redis.Client
	Pipeline  *rpc.Pipeline
	Publisher *events.Publisher
	Hub       *events.Hub
	// Prom is optional; the collector registers globally and may only be
	// created once per process.
	Prom *fiberprometheus.FiberPrometheus
}

// Server holds all dependencies and provides handlers
type Server struct {
	config      *config.Config
	db          *gorm.DB
	redis       *redis.Client
	pipeline    *rpc.Pipeline
	publisher   *events.Publisher
	hub         *events.Hub
	prom        *fiberprometheus.FiberPrometheus
	app         *fiber.App
	shutdownCtx context.Context
	shutdownFn  context.CancelFunc
}

// New creates a Server from deps.
func New(deps Deps) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		config:      deps.Config,
		db:          deps.DB,
		redis:       deps.Redis,
		pipeline:    deps.Pipeline,
		publisher:   deps.Publisher,
		hub:         deps.Hub,
		prom:        deps.Prom,
		shutdownCtx: ctx,
		shutdownFn:  cancel,
	}
}

// App returns the configured Fiber app, building it on first use.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}

	app := fiber.New(fiber.Config{
		AppName:      "inkwell",
		ErrorHandler: s.handleError,
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
	app.Use(middleware.ContextMiddleware())

	if s.prom != nil {
		app.Use(middleware.MetricsMiddleware(s.prom))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000,http://127.0.0.1:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-User-Id, X-User-Role",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	s.setupRateLimit(app)
}

func (s *Server) setupRateLimit(app *fiber.App) {
	perMinute := s.config.RateLimitPerMinute
	if perMinute <= 0 {
		return
	}

	if s.redis != nil {
		rl := middleware.NewRateLimiter(s.redis, perMinute, time.Minute, middleware.FailOpen)
		app.Use("/rpc", rl.Handler("rpc"))
		return
	}

	app.Use("/rpc", limiter.New(limiter.Config{
		Max:        perMinute,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return models.RespondWithError(c, models.NewTooManyRequestsError("rate limit exceeded"), false)
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.prom != nil {
		s.prom.RegisterAt(app, "/metrics")
	}

	app.Get("/rpc/:procedure", s.HandleQuery)
	app.Post("/rpc/:procedure", s.HandleMutation)

	app.Use("/ws", s.requireUpgrade)
	app.Get("/ws/events", s.EventStreamHandler())
}

// HandleQuery runs a query procedure. Input is JSON in the "input" query parameter.
func (s *Server) HandleQuery(c *fiber.Ctx) error {
	return s.dispatch(c, rpc.KindQuery, json.RawMessage(c.Query("input")))
}

// HandleMutation runs a mutation procedure. Input is the JSON request body.
func (s *Server) HandleMutation(c *fiber.Ctx) error {
	return s.dispatch(c, rpc.KindMutation, c.Body())
}

func (s *Server) dispatch(c *fiber.Ctx, kind rpc.Kind, input json.RawMessage) error {
	headers := func(name string) string { return c.Get(name) }

	// Params aliases the request buffer, which fiber reuses after the handler returns.
	name := utils.CopyString(c.Params("procedure"))
	out, err := s.pipeline.Dispatch(c.UserContext(), name, kind, headers, input)
	if err != nil {
		return models.RespondWithError(c, err, !s.config.IsProduction())
	}
	return c.JSON(fiber.Map{"data": out})
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck pings the database and, when configured, Redis.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if s.db == nil {
		dbStatus = "unhealthy"
	} else if sqlDB, err := s.db.DB(); err != nil {
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

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{
			Error: fe.Message,
			Code:  codeForStatus(fe.Code),
		})
	}
	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
	return models.RespondWithError(c, models.NewInternalError(err), !s.config.IsProduction())
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return models.CodeNotFound
	case fiber.StatusUnauthorized:
		return models.CodeUnauthorized
	case fiber.StatusForbidden:
		return models.CodeForbidden
	case fiber.StatusTooManyRequests:
		return models.CodeTooManyRequests
	case fiber.StatusInternalServerError:
		return models.CodeInternal
	default:
		if status >= 500 {
			return models.CodeInternal
		}
		return models.CodeBadRequest
	}
}

// Start relays events to websocket clients and serves HTTP until the app is shut down.
func (s *Server) Start() error {
	app := s.App()

	if s.hub != nil && s.publisher != nil && s.redis != nil {
		go func() {
			if err := s.hub.Run(s.shutdownCtx, s.publisher); err != nil {
				middleware.Logger.Error("event relay stopped", slog.String("error", err.Error()))
			}
		}()
	}

	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownFn()

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			middleware.Logger.Error("error shutting down event hub", slog.String("error", err.Error()))
		}
	}

	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			if cerr := sqlDB.Close(); cerr != nil {
				middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
			}
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
