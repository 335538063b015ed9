package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpme/helpdesk-service/internal/api/http/handlers"
	"github.com/helpme/helpdesk-service/internal/auth"
	"github.com/helpme/helpdesk-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Replies        *handlers.RepliesHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Role gates mirror the service-level
// policy so unauthorized callers are rejected before the body is parsed;
// the services remain the source of truth.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)

	users := app.Group("/users", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	users.Get("/me", cfg.Users.Me)
	users.Patch("/me", cfg.Users.UpdateMe)
	users.Get("/:id", auth.RequireRole(domain.RoleAdmin), cfg.Users.Get)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	tickets.Post("/", auth.RequireRole(domain.RoleUser), cfg.Tickets.Create)
	tickets.Get("/my-tickets", cfg.Tickets.Mine)
	tickets.Get("/assigned", auth.RequireRole(domain.RoleAgent), cfg.Tickets.Assigned)
	tickets.Get("/all", auth.RequireRole(domain.RoleAdmin), cfg.Tickets.All)
	tickets.Get("/user/:userId", auth.RequireRole(domain.RoleAdmin), cfg.Tickets.ByUser)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Patch("/:id", cfg.Tickets.Update)
	tickets.Patch("/:id/status", cfg.Tickets.UpdateStatus)
	tickets.Patch("/:id/assign", auth.RequireRole(domain.RoleAdmin), cfg.Tickets.Assign)
	tickets.Delete("/:id", cfg.Tickets.Delete)

	tickets.Post("/:id/replies", cfg.Replies.Create)
	tickets.Get("/:id/replies", cfg.Replies.List)

	replies := app.Group("/replies", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	replies.Patch("/:id", cfg.Replies.Update)
	replies.Delete("/:id", cfg.Replies.Delete)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin))
	admin.Get("/dashboard", cfg.Admin.Dashboard)
	admin.Get("/trends", cfg.Admin.Trends)
	admin.Get("/metrics", cfg.Admin.Metrics)

	agent := app.Group("/agent", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAgent))
	agent.Get("/dashboard", cfg.Admin.AgentDashboard)
}
