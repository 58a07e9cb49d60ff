package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/incident-desk/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health    *handlers.HealthHandler
	Tickets   *handlers.TicketsHandler
	Users     *handlers.UsersHandler
	Dashboard *handlers.DashboardHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api/v1")

	tickets := api.Group("/tickets")
	tickets.Post("", cfg.Tickets.Create)
	tickets.Get("", cfg.Tickets.List)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Patch("/:id/status", cfg.Tickets.UpdateStatus)
	tickets.Post("/:id/assignee", cfg.Tickets.Reassign)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Delete("/:id", cfg.Tickets.Delete)

	users := api.Group("/users")
	users.Post("", cfg.Users.Create)
	users.Get("", cfg.Users.List)
	users.Get("/agents", cfg.Users.ListAgents)
	users.Get("/:employeeId", cfg.Users.Get)
	users.Patch("/:employeeId", cfg.Users.Update)
	users.Delete("/:employeeId", cfg.Users.Deactivate)

	dashboard := api.Group("/dashboard")
	dashboard.Get("", cfg.Dashboard.Counts)
	dashboard.Get("/employees/:employeeId", cfg.Dashboard.CountsForEmployee)
}
