package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/case-workflow/internal/api/http/handlers"
	"github.com/spec-kit/case-workflow/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Actions        *handlers.ActionsHandler
	Cases          *handlers.CasesHandler
	Notes          *handlers.NotesHandler
	AuthMiddleware *auth.AuthMiddleware
	// FilesPrefix and FilesDir serve locally stored documents when set.
	FilesPrefix string
	FilesDir    string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	if cfg.FilesPrefix != "" && cfg.FilesDir != "" {
		app.Static(cfg.FilesPrefix, cfg.FilesDir, fiber.Static{Browse: false})
	}

	api := app.Group("/api", cfg.AuthMiddleware.Handle, auth.RequireRole())
	api.Post("/actions", cfg.Actions.Execute)

	api.Get("/cases", cfg.Cases.List)
	api.Get("/cases/export.xlsx", auth.RequireAuthorities(), cfg.Cases.Export)
	api.Get("/cases/:id", cfg.Cases.Get)

	api.Get("/notes", cfg.Notes.List)
	api.Post("/notes", cfg.Notes.Create)
	api.Delete("/notes/:id", cfg.Notes.Delete)
}
