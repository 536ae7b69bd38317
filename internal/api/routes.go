package api

import "github.com/gofiber/fiber/v2"

// Handlers groups the HTTP handlers served by the advisor
type Handlers struct {
	Recommendations *RecommendationHandler
	Catalog         *CatalogHandler
	Analyses        *AnalysesHandler
	Health          *HealthHandler
}

// RegisterRoutes mounts every handler that is set
func RegisterRoutes(app *fiber.App, h Handlers) {
	if h.Health != nil {
		app.Get("/health", h.Health.HealthCheck)
	}

	v1 := app.Group("/v1")
	if h.Recommendations != nil {
		v1.Post("/recommendations", h.Recommendations.Recommend)
	}
	if h.Catalog != nil {
		v1.Get("/tasks", h.Catalog.Tasks)
		v1.Get("/benchmark", h.Catalog.Benchmark)
	}
	if h.Analyses != nil {
		v1.Get("/analyses", h.Analyses.List)
	}
}
