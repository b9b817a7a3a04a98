package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/techsupport-manager/internal/api/http/handlers"
	"github.com/spec-kit/techsupport-manager/internal/auth"
	"github.com/spec-kit/techsupport-manager/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireRole())
	tickets.Post("", cfg.Tickets.Create)
	tickets.Get("", cfg.Tickets.List)
	tickets.Get("/stats", auth.RequireRole(domain.RoleAgent, domain.RoleAdmin), cfg.Tickets.Stats)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Post("/:id/close", cfg.Tickets.Close)
	tickets.Post("/:id/reopen", cfg.Tickets.Reopen)

	staffOnly := auth.RequireRole(domain.RoleAgent, domain.RoleAdmin)
	tickets.Post("/:id/assign", staffOnly, cfg.Tickets.Assign)
	tickets.Patch("/:id/priority", staffOnly, cfg.Tickets.ChangePriority)
	tickets.Patch("/:id/status", staffOnly, cfg.Tickets.ChangeStatus)
	tickets.Post("/:id/tags", staffOnly, cfg.Tickets.AddTag)
	tickets.Delete("/:id/tags/:tag", staffOnly, cfg.Tickets.RemoveTag)
}
