package api

import (
	"context"

	"github.com/Egham-7/embedding-advisor/internal/models"
	"github.com/Egham-7/embedding-advisor/internal/services/request"
	"github.com/Egham-7/embedding-advisor/internal/services/response"

	"github.com/gofiber/fiber/v2"
)

// HistoryReader lists stored analyses
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]models.AnalysisRecord, error)
}

// AnalysesHandler serves the analysis history
type AnalysesHandler struct {
	history    HistoryReader
	requestSvc *request.Service
	respSvc    *response.Service
}

// NewAnalysesHandler creates a new AnalysesHandler. history may be nil when
// no database is configured.
func NewAnalysesHandler(history HistoryReader) *AnalysesHandler {
	return &AnalysesHandler{
		history:    history,
		requestSvc: request.NewService(),
		respSvc:    response.NewService(),
	}
}

// List handles GET /v1/analyses?limit=n
func (h *AnalysesHandler) List(c *fiber.Ctx) error {
	requestID := h.requestSvc.GetRequestID(c)

	if h.history == nil {
		return h.respSvc.HandleError(c, models.NewNotFoundError("analysis history is not enabled"), requestID)
	}

	limit := c.QueryInt("limit", 0)
	if limit < 0 {
		return h.respSvc.HandleError(c, models.NewValidationError("limit must not be negative", nil), requestID)
	}

	records, err := h.history.Recent(c.UserContext(), limit)
	if err != nil {
		return h.respSvc.HandleError(c, models.NewInternalError("failed to load analysis history", err), requestID)
	}

	return h.respSvc.Success(c, fiber.Map{
		"analyses": records,
		"count":    len(records),
	})
}
