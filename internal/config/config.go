package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Egham-7/embedding-advisor/internal/models"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultPort           = "8080"
	defaultAllowedOrigins = "*"
	defaultLogLevel       = "info"
)

// DefaultEnvFiles lists the .env files loaded at startup, highest priority first
var DefaultEnvFiles = []string{".env.local", ".env.development", ".env"}

var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::(-[^}]*))?\}`)

// Config represents the complete application configuration
type Config struct {
	Server         models.ServerConfig          `yaml:"server"`
	Benchmark      models.BenchmarkConfig       `yaml:"benchmark"`
	Generator      models.ProviderConfig        `yaml:"generator"`
	Cache          *models.CacheConfig          `yaml:"cache,omitempty"`
	CircuitBreaker *models.CircuitBreakerConfig `yaml:"circuit_breaker,omitempty"`
	Database       *models.DatabaseConfig       `yaml:"database,omitempty"`
	RedisURL       string                       `yaml:"redis_url,omitempty"`
}

// LoadFromFile loads configuration from a YAML file with environment variable substitution
func LoadFromFile(configPath string) (*Config, error) {
	// Validate and clean the file path to prevent directory traversal
	cleanPath := filepath.Clean(configPath)

	if strings.Contains(cleanPath, "..") {
		return nil, fmt.Errorf("invalid config path: path traversal not allowed")
	}

	ext := filepath.Ext(cleanPath)
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("invalid config file: only .yaml and .yml files are allowed")
	}

	data, err := os.ReadFile(cleanPath) // #nosec G304 - path is validated above
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", cleanPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration after environment variable substitution
func Parse(data []byte) (*Config, error) {
	content := substituteEnvVars(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(content), &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	config.ApplyDefaults()
	return &config, nil
}

// LoadEnvFiles loads environment variables from .env files in order of precedence
// Loads files in the order provided (first has highest priority)
func LoadEnvFiles(envFiles []string) {
	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err == nil {
				fmt.Printf("Loaded environment variables from %s\n", envFile)
			}
		}
	}
}

// New creates a new Config instance by loading from the specified config file path
func New(configPath string) (*Config, error) {
	return LoadFromFile(configPath)
}

// substituteEnvVars replaces ${VAR_NAME} and ${VAR_NAME:-default} patterns with environment variables
func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		defaultValue := ""
		if len(submatches) > 2 && submatches[2] != "" {
			defaultValue = strings.TrimPrefix(submatches[2], "-")
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// ApplyDefaults fills optional values left empty in the YAML file
func (c *Config) ApplyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = defaultPort
	}
	if c.Server.AllowedOrigins == "" {
		c.Server.AllowedOrigins = defaultAllowedOrigins
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = defaultLogLevel
	}
	if c.Benchmark.URL == "" && c.Benchmark.FilePath == "" {
		c.Benchmark.URL = models.DefaultBenchmarkURL
	}
	c.Generator.Provider = models.GeneratorProvider(strings.ToLower(string(c.Generator.ProviderName())))
	if c.Generator.Model == "" {
		c.Generator.Model = c.Generator.ModelName()
	}

	if c.Cache != nil && c.Cache.Enabled {
		if c.Cache.Backend == "" {
			c.Cache.Backend = models.CacheBackendMemory
		}
		if c.Cache.Capacity <= 0 {
			c.Cache.Capacity = models.DefaultCacheCapacity
		}
		if c.Cache.SemanticThreshold <= 0 || c.Cache.SemanticThreshold > 1 {
			fiberlog.Debugf("Invalid semantic_threshold %.2f, using %.2f", c.Cache.SemanticThreshold, models.DefaultSemanticThreshold)
			c.Cache.SemanticThreshold = models.DefaultSemanticThreshold
		}
		if c.Cache.EmbeddingModel == "" {
			c.Cache.EmbeddingModel = models.DefaultCacheEmbeddingModel
		}
	}
}

// GetNormalizedLogLevel returns the log level in lowercase for consistent comparison
func (c *Config) GetNormalizedLogLevel() string {
	return strings.ToLower(c.Server.LogLevel)
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// HistoryEnabled reports whether analyses are persisted
func (c *Config) HistoryEnabled() bool {
	return c.Database != nil && c.Database.Type != ""
}

// CacheEnabled reports whether the recommendation cache is configured
func (c *Config) CacheEnabled() bool {
	return c.Cache != nil && c.Cache.Enabled
}

// Validate checks if all required configuration values are set
func (c *Config) Validate() error {
	var missing []string

	if c.Server.Port == "" {
		missing = append(missing, "server.port")
	}
	if c.Server.AllowedOrigins == "" {
		missing = append(missing, "server.allowed_origins")
	}
	if c.Benchmark.URL == "" && c.Benchmark.FilePath == "" {
		missing = append(missing, "benchmark.url")
	}
	if c.Generator.APIKey == "" {
		missing = append(missing, "generator.api_key")
	}
	if c.CacheEnabled() {
		if c.Cache.OpenAIAPIKey == "" {
			missing = append(missing, "cache.openai_api_key")
		}
		if c.Cache.Backend == models.CacheBackendRedis && c.Cache.RedisURL == "" {
			missing = append(missing, "cache.redis_url")
		}
	}
	if c.CircuitBreaker != nil && c.RedisURL == "" {
		missing = append(missing, "redis_url")
	}

	if len(missing) > 0 {
		return &ValidationError{MissingFields: missing}
	}

	switch c.Generator.ProviderName() {
	case models.ProviderGemini, models.ProviderGeminiREST, models.ProviderOpenAI, models.ProviderAnthropic:
	default:
		return fmt.Errorf("unsupported generator provider %q", c.Generator.Provider)
	}

	return nil
}

// ValidationError represents configuration validation errors
type ValidationError struct {
	MissingFields []string
}

func (e *ValidationError) Error() string {
	return "missing required configuration fields: " + strings.Join(e.MissingFields, ", ")
}
