package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/handlers"
)

// SetupRoutes configures all application routes with dependencies
func SetupRoutes(app *fiber.App, jobsHandler *handlers.JobsHandler, sourcesHandler *handlers.SourcesHandler, healthHandler *handlers.HealthHandler) {
	// Health check endpoint
	app.Get("/health", healthHandler.HealthCheck)

	// Prometheus metrics
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API v1 routes
	api := app.Group("/api/v1")
	{
		api.Post("/jobs", jobsHandler.Submit)
		api.Get("/jobs", jobsHandler.List)
		api.Get("/jobs/:id", jobsHandler.Get)
		api.Get("/jobs/:id/logs", jobsHandler.Logs)
		api.Post("/jobs/:id/cancel", jobsHandler.Cancel)
		api.Delete("/jobs/:id", jobsHandler.Delete)

		api.Get("/sources", sourcesHandler.List)
		api.Get("/sources/regions", sourcesHandler.Regions)
	}
}
