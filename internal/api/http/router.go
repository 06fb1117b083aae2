package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/issue-service/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health *handlers.HealthHandler
	Issues *handlers.IssuesHandler
	Users  *handlers.UsersHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	api := app.Group("/api")

	issues := api.Group("/issues")
	issues.Post("/", cfg.Issues.Create)
	issues.Get("/", cfg.Issues.List)
	issues.Get("/:id", cfg.Issues.Get)
	issues.Put("/:id", cfg.Issues.Update)
	issues.Delete("/:id", cfg.Issues.Delete)
	issues.Put("/:id/assign", cfg.Issues.Assign)
	issues.Put("/:id/unassign", cfg.Issues.Unassign)
	issues.Put("/:id/status", cfg.Issues.UpdateStatus)
	issues.Post("/:id/collaborators", cfg.Issues.AddCollaborator)
	issues.Delete("/:id/collaborators/:userId", cfg.Issues.RemoveCollaborator)

	users := api.Group("/users")
	users.Post("/", cfg.Users.Create)
	users.Get("/", cfg.Users.List)
	users.Get("/:id", cfg.Users.Get)
	users.Put("/:id", cfg.Users.Update)
	users.Put("/:id/password", cfg.Users.ChangePassword)
	users.Delete("/:id", cfg.Users.Delete)
}
