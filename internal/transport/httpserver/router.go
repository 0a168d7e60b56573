// Package httpserver provides HTTP server and routing.
package httpserver

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/template/html/v2"
	"go.uber.org/zap"

	"channel-insight-service/internal/metrics"
	"channel-insight-service/internal/transport/httpserver/dto"
	"channel-insight-service/internal/transport/httpserver/handler"
	"channel-insight-service/internal/transport/httpserver/middleware"
	"channel-insight-service/internal/validator"
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port         int
	BodyLimit    int
	Debug        bool
	TemplateDir  string
	WriteTimeout time.Duration
}

// Services groups the application services the routes call into.
type Services struct {
	Channels   handler.ChannelService
	Analysis   handler.AnalysisService
	Narratives handler.NarrativeService
}

// Server wraps Fiber app with handlers.
type Server struct {
	App    *fiber.App
	Logger *zap.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(
	cfg ServerConfig,
	svcs Services,
	checks []middleware.ReadinessCheck,
	v *validator.Validator,
	logger *zap.Logger,
) *Server {
	templateDir := cfg.TemplateDir
	if templateDir == "" {
		templateDir = "./web/templates"
	}
	engine := html.New(templateDir, ".html")
	if cfg.Debug {
		engine.Reload(true)
	}

	app := fiber.New(fiber.Config{
		AppName:      "channel-insight-service",
		BodyLimit:    cfg.BodyLimit,
		WriteTimeout: cfg.WriteTimeout,
		ErrorHandler: errorHandler(logger),
		Views:        engine,
	})

	// Health checks go first so probes bypass the rest of the chain.
	app.Use(middleware.NewHealthCheck(checks...))

	app.Use(requestid.New())
	app.Use(middleware.Recover(logger))
	app.Use(middleware.Logger(logger))
	app.Use(middleware.CORS())
	app.Use(metrics.Middleware())
	app.Use(compress.New())

	app.Get("/metrics", metrics.Handler())

	registerRoutes(app, handlers{
		channels:   handler.NewChannelHandler(svcs.Channels, v, logger),
		analysis:   handler.NewAnalysisHandler(svcs.Analysis, v, logger),
		narratives: handler.NewNarrativeHandler(svcs.Narratives, v, logger),
		admin:      handler.NewAdminHandler(svcs.Channels, svcs.Analysis, logger),
		dashboard:  handler.NewDashboardHandler(svcs.Channels, svcs.Analysis, logger),
	})

	return &Server{
		App:    app,
		Logger: logger,
	}
}

type handlers struct {
	channels   *handler.ChannelHandler
	analysis   *handler.AnalysisHandler
	narratives *handler.NarrativeHandler
	admin      *handler.AdminHandler
	dashboard  *handler.DashboardHandler
}

// registerRoutes sets up all API routes.
func registerRoutes(app *fiber.App, h handlers) {
	// Health checks are handled by middleware (/livez, /readyz)

	app.Get("/dashboard", h.dashboard.Render)
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/dashboard")
	})

	v1 := app.Group("/api/v1")

	channels := v1.Group("/channels")
	channels.Get("/", h.channels.List)
	channels.Post("/", h.channels.Track)
	channels.Get("/:id", h.channels.Get)
	channels.Get("/:id/videos", h.channels.Videos)
	channels.Get("/:id/analysis", h.analysis.Analyze)
	channels.Get("/:id/report", h.analysis.Report)
	channels.Get("/:id/compare/:competitor", h.analysis.ComparisonReport)
	channels.Get("/:id/narratives", h.narratives.List)
	channels.Post("/:id/narratives", h.narratives.Generate)

	v1.Post("/comparisons", h.analysis.Compare)

	admin := v1.Group("/admin")
	admin.Post("/refresh", h.admin.Refresh)
	admin.Get("/provider", h.admin.Provider)
	admin.Delete("/cache", h.admin.ClearCache)
}

// errorHandler returns a custom error handler that logs based on HTTP status code.
// 404s are logged at DEBUG level (expected client behavior), 4xx at WARN, 5xx at ERROR.
func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError

		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}

		switch {
		case code == fiber.StatusNotFound:
			logger.Debug("resource not found",
				zap.String("path", c.Path()),
				zap.String("method", c.Method()),
			)
		case code >= 500:
			logger.Error("server error",
				zap.Error(err),
				zap.Int("status", code),
				zap.String("path", c.Path()),
			)
		default:
			logger.Warn("client error",
				zap.Error(err),
				zap.Int("status", code),
				zap.String("path", c.Path()),
			)
		}

		message := err.Error()
		if code >= 500 {
			message = "internal server error"
		}
		return c.Status(code).JSON(dto.ErrorResponse{
			Error: message,
			Code:  "UNHANDLED_ERROR",
		})
	}
}

// Start starts the HTTP server.
func (s *Server) Start(port int) error {
	s.Logger.Info("starting HTTP server", zap.Int("port", port))

	return s.App.Listen(fmt.Sprintf(":%d", port))
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	s.Logger.Info("shutting down HTTP server")

	return s.App.Shutdown()
}
