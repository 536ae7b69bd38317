package response

import (
	"errors"

	"github.com/Egham-7/embedding-advisor/internal/models"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
)

// Service writes JSON responses in the API's envelope
type Service struct{}

// NewService creates a response service
func NewService() *Service {
	return &Service{}
}

// ErrorResponse represents a standard API error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Message        string `json:"message"`
	Type           string `json:"type"`
	Code           string `json:"code,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
	UpstreamBody   string `json:"upstream_body,omitempty"`
}

// Error sends an error response with specified status, type, and code
func (s *Service) Error(c *fiber.Ctx, status int, message, errorType, code, requestID string) error {
	return c.Status(status).JSON(ErrorResponse{
		Error: ErrorDetail{
			Message:   message,
			Type:      errorType,
			Code:      code,
			RequestID: requestID,
		},
	})
}

// HandleError maps err onto the error envelope. Anything that is not an
// AppError is reported as an internal error without its details.
func (s *Service) HandleError(c *fiber.Ctx, err error, requestID string) error {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		fiberlog.Errorf("[%s] Unhandled error: %v", requestID, err)
		appErr = models.NewInternalError("internal server error", err)
	} else if appErr.GetStatusCode() >= fiber.StatusInternalServerError {
		fiberlog.Errorf("[%s] Request failed: %v", requestID, appErr)
	} else {
		fiberlog.Warnf("[%s] Request rejected: %v", requestID, appErr)
	}

	return c.Status(appErr.GetStatusCode()).JSON(ErrorResponse{
		Error: ErrorDetail{
			Message:        appErr.Message,
			Type:           string(appErr.Type),
			Code:           appErr.Code,
			RequestID:      requestID,
			UpstreamStatus: appErr.UpstreamStatus,
			UpstreamBody:   appErr.UpstreamBody,
		},
	})
}

// Success sends a 200 OK response with the provided data
func (s *Service) Success(c *fiber.Ctx, data any) error {
	return c.JSON(data)
}
