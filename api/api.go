// Package api exposes a small diagnostics HTTP server over a GizmoSQL
// adapter session.
package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/gizmodata/gizmosql-go/adapter"
	applog "github.com/gizmodata/gizmosql-go/logger"
	"github.com/gizmodata/gizmosql-go/version"
)

// ServerOptions configure the diagnostics server.
type ServerOptions struct {
	Port    string
	Prefork bool

	// Adapter serves /query and /catalogs. When nil those endpoints return
	// 503.
	Adapter *adapter.Adapter
}

// Server holds the Fiber app instance
type Server struct {
	app  *fiber.App
	opts ServerOptions
}

type queryRequest struct {
	SQL string `json:"sql"`
}

// NewServer initializes a new Fiber instance with best practices
func NewServer(opts ServerOptions) *Server {
	app := fiber.New(fiber.Config{
		IdleTimeout:  10 * time.Second, // Prevents idle connections
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		Prefork:      opts.Prefork,
	})

	// Middleware
	app.Use(recover.New()) // Auto-recovers from panics
	app.Use(logger.New())  // Logs all requests

	s := &Server{app: app, opts: opts}

	// Routes
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	app.Get("/version", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "GizmoSQL Adapter API",
			"version": version.Version,
			"build":   version.BuildDate,
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	app.Get("/catalogs", s.handleCatalogs)
	app.Post("/query", s.handleQuery)

	return s
}

func (s *Server) handleCatalogs(c *fiber.Ctx) error {
	if s.opts.Adapter == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "no GizmoSQL connection configured")
	}
	names, err := s.opts.Adapter.ListCatalogs(c.Context())
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
	return c.JSON(fiber.Map{"catalogs": names})
}

func (s *Server) handleQuery(c *fiber.Ctx) error {
	if s.opts.Adapter == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "no GizmoSQL connection configured")
	}
	var req queryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.SQL == "" {
		return fiber.NewError(fiber.StatusBadRequest, "sql is required")
	}

	rows, err := s.opts.Adapter.Fetchall(c.Context(), req.SQL)
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
	return c.JSON(fiber.Map{
		"rows":  rows,
		"count": len(rows),
	})
}

// GetApp exposes the Fiber app, mainly for tests.
func (s *Server) GetApp() *fiber.App {
	return s.app
}

// Start runs the server until Shutdown is called.
func (s *Server) Start() error {
	port := s.opts.Port
	if port == "" {
		port = "3000" // Default port
	}
	applog.GetLogger().Info("GizmoSQL adapter API listening", zap.String("port", port))
	return s.app.Listen(":" + port)
}

// Shutdown stops the server, honoring the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
