// Package api exposes the dock over HTTP.
package api

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/p-blackswan/fluxdock/internal/dock"
	"github.com/p-blackswan/fluxdock/internal/docs"
	"github.com/p-blackswan/fluxdock/internal/health"
	"github.com/p-blackswan/fluxdock/internal/host"
	"github.com/p-blackswan/fluxdock/internal/launcher"
	"github.com/p-blackswan/fluxdock/internal/metrics"
	"github.com/p-blackswan/fluxdock/internal/requestid"
	"github.com/p-blackswan/fluxdock/internal/results"
	"github.com/p-blackswan/fluxdock/internal/studio"
)

const (
	defaultBodyLimit = 32 << 20
	shutdownTimeout  = 10 * time.Second
)

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	ListenAddr  string
	CORSOrigins string
	BodyLimit   int
}

// Deps are the services the handlers call into.
type Deps struct {
	Dock     *dock.Controller
	Launcher *launcher.Launcher
	Results  *results.Store
	Docs     *docs.Repository
	Studio   *studio.Studio
	Hub      *host.Hub
	Checker  *health.Checker
	Metrics  *metrics.Metrics
}

// Server is the API Fiber application.
type Server struct {
	app    *fiber.App
	deps   Deps
	logger zerolog.Logger
	config ServerConfig
}

// NewServer creates and configures the API server.
func NewServer(cfg ServerConfig, deps Deps, logger zerolog.Logger) *Server {
	if cfg.BodyLimit <= 0 {
		cfg.BodyLimit = defaultBodyLimit
	}
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler(logger),
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		BodyLimit:             cfg.BodyLimit,
		ReadBufferSize:        8192,
		WriteBufferSize:       8192,
	})

	s := &Server{
		app:    app,
		deps:   deps,
		logger: logger.With().Str("component", "api").Logger(),
		config: cfg,
	}
	s.setupMiddleware(cfg)
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware(cfg ServerConfig) {
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	s.app.Use(func(c *fiber.Ctx) error {
		reqID := requestid.Resolve(c.Get(requestid.Header))
		c.Set(requestid.Header, reqID)
		c.Locals("request_id", reqID)
		c.SetUserContext(requestid.WithRequestID(c.UserContext(), reqID))
		return c.Next()
	})

	if cfg.CORSOrigins != "" {
		s.app.Use(cors.New(cors.Config{
			AllowOrigins: cfg.CORSOrigins,
			AllowHeaders: "Origin, Content-Type, Accept, X-Request-ID",
			AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		}))
	}

	// request log and metrics
	s.app.Use(func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		s.deps.Metrics.RecordHTTPRequest(c.Method(), strconv.Itoa(status))

		path := c.Path()
		if path == "/healthz" || path == "/readyz" || path == "/metrics" {
			return err
		}
		s.logger.Info().
			Str("method", c.Method()).
			Str("path", path).
			Int("status", status).
			Dur("elapsed", time.Since(start)).
			Str("request_id", c.GetRespHeader(requestid.Header)).
			Msg("api request")
		return err
	})
}

func (s *Server) setupRoutes() {
	s.app.Get("/healthz", s.liveness)
	s.app.Get("/readyz", s.readiness)
	if s.deps.Metrics != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(s.deps.Metrics.Handler()))
	} else {
		s.app.Get("/metrics", func(c *fiber.Ctx) error {
			return c.SendString("# No metrics collector configured\n")
		})
	}

	v1 := s.app.Group("/v1")

	pg := v1.Group("/projects")
	pg.Get("/", s.listProjects)
	pg.Post("/", s.createProject)
	pg.Get("/:id", s.getProject)
	pg.Patch("/:id", s.updateProject)
	pg.Delete("/:id", s.deleteProject)
	pg.Post("/:id/tasks/:index/toggle", s.toggleTask)
	pg.Get("/:id/windows", s.listWindows)
	pg.Post("/:id/windows", s.addWindow)
	pg.Delete("/:id/windows/:wid", s.removeWindow)
	pg.Get("/:id/windows/:wid/jump", s.jump)
	pg.Post("/:id/capture", s.capture)
	pg.Post("/:id/uploads", s.upload)

	v1.Get("/dock/active", s.getActive)
	v1.Put("/dock/active", s.setActive)
	v1.Delete("/dock/active", s.clearActive)
	v1.Get("/activity", s.activity)

	v1.Post("/launch/flux", s.launchFlux)
	v1.Get("/launch/:app", s.launchApp)
	v1.Post("/generate", s.generate)
	v1.Post("/describe", s.describe)
	v1.Get("/results/:id", s.getResult)

	dg := v1.Group("/documents")
	dg.Get("/", s.listDocuments)
	dg.Post("/", s.createDocument)
	dg.Get("/:id", s.getDocument)
	dg.Patch("/:id", s.updateDocument)
	dg.Delete("/:id", s.deleteDocument)
	dg.Post("/:id/share", s.shareDocument)
	v1.Get("/shared/:shareId", s.getShared)
	v1.Delete("/folders", s.deleteFolder)

	v1.Get("/events", s.events)
}

// Start starts the server. Blocks until stopped.
func (s *Server) Start() error {
	addr := s.config.ListenAddr
	if addr == "" {
		addr = ":8080"
	}
	s.logger.Info().Str("addr", addr).Msg("API server starting")
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server. Open event streams are cut off
// after shutdownTimeout.
func (s *Server) Shutdown() error {
	s.logger.Info().Msg("API server shutting down")
	return s.app.ShutdownWithTimeout(shutdownTimeout)
}

// App returns the underlying Fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) liveness(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) readiness(c *fiber.Ctx) error {
	body := fiber.Map{"status": "ready"}
	if s.deps.Launcher != nil {
		body["launcher"] = s.deps.Launcher.State()
	}
	if s.deps.Hub != nil {
		body["subscribers"] = s.deps.Hub.Subscribers()
	}
	if s.deps.Checker == nil {
		return c.JSON(body)
	}

	report := s.deps.Checker.Run(c.UserContext())
	body["checks"] = report.Checks
	if !report.Ready() {
		body["status"] = "not_ready"
		return c.Status(fiber.StatusServiceUnavailable).JSON(body)
	}
	return c.JSON(body)
}
