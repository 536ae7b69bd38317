// Package builder provides a fluent interface for assembling an advisor
// configuration in code instead of YAML.
package builder

import (
	"github.com/Egham-7/embedding-advisor/internal/config"
	"github.com/Egham-7/embedding-advisor/internal/models"

	"github.com/gofiber/fiber/v2"
)

type Builder struct {
	cfg             *config.Config
	middlewares     []fiber.Handler
	rateLimitConfig *models.RateLimitConfig
	timeoutConfig   *models.TimeoutConfig
}

// New creates a builder with development defaults and the default Gemini
// generator
func New() *Builder {
	return &Builder{
		cfg: &config.Config{
			Server: models.ServerConfig{
				Port:           "8080",
				AllowedOrigins: "*",
				Environment:    "development",
				LogLevel:       "info",
			},
			Generator: models.ProviderConfig{
				Provider: models.ProviderGemini,
			},
		},
		middlewares: []fiber.Handler{},
	}
}

// Build returns the configuration with defaults applied
func (b *Builder) Build() *config.Config {
	b.cfg.ApplyDefaults()
	return b.cfg
}

func (b *Builder) GetMiddlewares() []fiber.Handler {
	return b.middlewares
}

func (b *Builder) GetRateLimitConfig() *models.RateLimitConfig {
	return b.rateLimitConfig
}

func (b *Builder) GetTimeoutConfig() *models.TimeoutConfig {
	return b.timeoutConfig
}
