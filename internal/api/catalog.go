package api

import (
	"github.com/Egham-7/embedding-advisor/internal/models"
	"github.com/Egham-7/embedding-advisor/internal/services/benchmark"
	"github.com/Egham-7/embedding-advisor/internal/services/request"
	"github.com/Egham-7/embedding-advisor/internal/services/response"

	"github.com/gofiber/fiber/v2"
)

// CatalogHandler exposes the selectable tasks and the loaded benchmark
type CatalogHandler struct {
	dataset    *benchmark.Dataset
	requestSvc *request.Service
	respSvc    *response.Service
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(dataset *benchmark.Dataset) *CatalogHandler {
	return &CatalogHandler{
		dataset:    dataset,
		requestSvc: request.NewService(),
		respSvc:    response.NewService(),
	}
}

// Tasks handles GET /v1/tasks
func (h *CatalogHandler) Tasks(c *fiber.Ctx) error {
	return h.respSvc.Success(c, fiber.Map{"tasks": models.TaskNames()})
}

// Benchmark handles GET /v1/benchmark. With ?raw=true the dataset text is
// returned as CSV.
func (h *CatalogHandler) Benchmark(c *fiber.Ctx) error {
	requestID := h.requestSvc.GetRequestID(c)

	if c.QueryBool("raw") {
		text, err := h.dataset.Text()
		if err != nil {
			return h.respSvc.HandleError(c, models.NewNotFoundError("benchmark dataset is not loaded"), requestID)
		}
		c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
		return c.SendString(text)
	}

	summary, err := h.dataset.Summary()
	if err != nil {
		return h.respSvc.HandleError(c, models.NewNotFoundError("benchmark dataset is not loaded"), requestID)
	}
	return h.respSvc.Success(c, summary)
}
