package builder

import (
	"github.com/Egham-7/embedding-advisor/internal/config"

	"github.com/gofiber/fiber/v2"
)

// FromYAML loads env files, then the YAML config at path, into a builder
// that can be refined further
func FromYAML(path string, envFiles []string) (*Builder, error) {
	if len(envFiles) > 0 {
		config.LoadEnvFiles(envFiles)
	}

	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, err
	}

	return &Builder{
		cfg:         cfg,
		middlewares: []fiber.Handler{},
	}, nil
}
