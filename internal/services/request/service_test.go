package request

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requestIDApp() *fiber.App {
	svc := NewService()
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		first := svc.GetRequestID(c)
		second := svc.GetRequestID(c)
		if first != second {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendString(first)
	})
	return app
}

func TestGetRequestID_UsesHeader(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, "  abc-123  ")

	resp, err := requestIDApp().Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "abc-123", resp.Header.Get(RequestIDHeader))
}

func TestGetRequestID_GeneratesUUID(t *testing.T) {
	resp, err := requestIDApp().Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)

	_, err = uuid.Parse(resp.Header.Get(RequestIDHeader))
	assert.NoError(t, err)
}

func TestGetRequestID_SurvivesLaterRequests(t *testing.T) {
	svc := NewService()
	app := fiber.New()
	var ids []string
	app.Get("/", func(c *fiber.Ctx) error {
		ids = append(ids, svc.GetRequestID(c))
		return c.SendStatus(fiber.StatusNoContent)
	})

	first := strings.Repeat("A", 24)
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, first)
	_, err := app.Test(req)
	require.NoError(t, err)

	for range 20 {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(RequestIDHeader, strings.Repeat("B", 24))
		_, err := app.Test(req)
		require.NoError(t, err)
	}

	require.Len(t, ids, 21)
	assert.Equal(t, first, ids[0])
}

func TestSanitizeRequestID(t *testing.T) {
	assert.Equal(t, "x", sanitizeRequestID(" x "))
	assert.Len(t, sanitizeRequestID(strings.Repeat("a", 500)), maxRequestIDLength)
}
