package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
	statusDisabled  = "disabled"
)

// Pinger checks a dependency's connectivity
type Pinger interface {
	Ping(ctx context.Context) error
}

// BenchmarkStatus reports whether the benchmark dataset is loaded
type BenchmarkStatus interface {
	Loaded() bool
}

// HealthHandler handles health check requests
type HealthHandler struct {
	redisClient *redis.Client
	benchmark   BenchmarkStatus
	database    Pinger
}

// NewHealthHandler creates a new health check handler. redisClient and
// database may be nil when those features are not configured.
func NewHealthHandler(benchmark BenchmarkStatus, redisClient *redis.Client, database Pinger) *HealthHandler {
	return &HealthHandler{
		redisClient: redisClient,
		benchmark:   benchmark,
		database:    database,
	}
}

// HealthCheck returns the health status of the service and its dependencies
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	checks := fiber.Map{
		"benchmark": h.checkBenchmark(),
		"redis":     h.checkRedis(c.UserContext()),
		"database":  h.checkDatabase(c.UserContext()),
	}

	overallStatus := "healthy"
	statusCode := fiber.StatusOK
	for _, status := range checks {
		if status == statusUnhealthy {
			overallStatus = "degraded"
			statusCode = fiber.StatusServiceUnavailable
			break
		}
	}

	return c.Status(statusCode).JSON(fiber.Map{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

func (h *HealthHandler) checkBenchmark() string {
	if h.benchmark == nil || !h.benchmark.Loaded() {
		return statusUnhealthy
	}
	return statusHealthy
}

func (h *HealthHandler) checkRedis(ctx context.Context) string {
	if h.redisClient == nil {
		return statusDisabled
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := h.redisClient.Ping(ctx).Err(); err != nil {
		return statusUnhealthy
	}
	return statusHealthy
}

func (h *HealthHandler) checkDatabase(ctx context.Context) string {
	if h.database == nil {
		return statusDisabled
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := h.database.Ping(ctx); err != nil {
		return statusUnhealthy
	}
	return statusHealthy
}
