package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/Egham-7/embedding-advisor/internal/models"
	"github.com/Egham-7/embedding-advisor/internal/services/request"
	"github.com/Egham-7/embedding-advisor/internal/services/response"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
)

// Recommender runs one analysis
type Recommender interface {
	Recommend(ctx context.Context, req models.RecommendationRequest, requestID string) (*models.Analysis, error)
}

// recommendationBody is the JSON body of POST /v1/recommendations
type recommendationBody struct {
	Description string `json:"description"`
	Task        string `json:"task"`
}

// RecommendationHandler serves embedding model recommendations
type RecommendationHandler struct {
	advisor    Recommender
	requestSvc *request.Service
	respSvc    *response.Service
}

// NewRecommendationHandler creates a new RecommendationHandler
func NewRecommendationHandler(advisor Recommender) *RecommendationHandler {
	return &RecommendationHandler{
		advisor:    advisor,
		requestSvc: request.NewService(),
		respSvc:    response.NewService(),
	}
}

// Recommend handles POST /v1/recommendations
func (h *RecommendationHandler) Recommend(c *fiber.Ctx) error {
	requestID := h.requestSvc.GetRequestID(c)
	fiberlog.Infof("[%s] Starting recommendation request from %s", requestID, c.IP())

	var body recommendationBody
	if err := c.BodyParser(&body); err != nil {
		return h.respSvc.HandleError(c, models.NewValidationError("request body must be a JSON object with description and task", err), requestID)
	}

	task, ok := models.ParseTask(body.Task)
	if !ok {
		msg := fmt.Sprintf("unknown task %q, expected one of: %s", body.Task, strings.Join(models.TaskNames(), ", "))
		return h.respSvc.HandleError(c, models.NewValidationError(msg, nil), requestID)
	}

	analysis, err := h.advisor.Recommend(c.UserContext(), models.RecommendationRequest{
		Description: body.Description,
		Task:        task,
	}, requestID)
	if err != nil {
		return h.respSvc.HandleError(c, err, requestID)
	}

	return h.respSvc.Success(c, analysis)
}
