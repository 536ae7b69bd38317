package request

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
)

const (
	// requestIDLocalKey is the fiber locals key holding the request ID
	requestIDLocalKey = "request_id"
	// RequestIDHeader carries a caller supplied request ID
	RequestIDHeader    = "X-Request-ID"
	maxRequestIDLength = 128
)

// Service resolves request IDs for handlers
type Service struct{}

// NewService creates a request service
func NewService() *Service {
	return &Service{}
}

func sanitizeRequestID(reqID string) string {
	sanitized := strings.TrimSpace(reqID)
	if len(sanitized) > maxRequestIDLength {
		sanitized = sanitized[:maxRequestIDLength]
	}
	return sanitized
}

// GetRequestID returns the X-Request-ID header when present, otherwise a new
// UUID. The value is cached in locals so every handler sees the same ID. The
// header is copied because fasthttp reuses its buffer once the handler returns
// and the ID outlives the request in history records.
func (s *Service) GetRequestID(c *fiber.Ctx) string {
	if cached, ok := c.Locals(requestIDLocalKey).(string); ok && cached != "" {
		return cached
	}

	requestID := sanitizeRequestID(utils.CopyString(c.Get(RequestIDHeader)))
	if requestID == "" {
		requestID = GenerateRequestID()
	}

	c.Locals(requestIDLocalKey, requestID)
	c.Set(RequestIDHeader, requestID)
	return requestID
}

// GenerateRequestID creates a random request ID
func GenerateRequestID() string {
	return uuid.NewString()
}
