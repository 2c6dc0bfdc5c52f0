package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-relay/internal/api/http/handlers"
	"github.com/spec-kit/ticket-relay/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Metrics        *handlers.MetricsHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. The ticket lookup is only mounted when
// Tickets is set.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Metrics.Get)

	app.Post("/auth/token", cfg.Auth.Token)

	if cfg.Tickets == nil || cfg.AuthMiddleware == nil {
		return
	}
	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireStaff())
	tickets.Get("/:id", cfg.Tickets.GetTicket)
}
