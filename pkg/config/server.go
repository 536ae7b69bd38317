// Package config runs the advisor HTTP server from a configuration.
package config

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/Egham-7/embedding-advisor/internal/api"
	"github.com/Egham-7/embedding-advisor/internal/config"
	"github.com/Egham-7/embedding-advisor/internal/models"
	"github.com/Egham-7/embedding-advisor/pkg/builder"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const (
	defaultRateLimitRpm   = 60
	defaultRequestTimeout = 90 * time.Second
	shutdownTimeout       = 30 * time.Second
)

// Server is an embedding advisor HTTP server instance
type Server struct {
	config     *config.Config
	app        *fiber.App
	builder    *builder.Builder
	components *Components
}

// NewServer creates a Server for cfg, which must not be nil
func NewServer(cfg *config.Config) *Server {
	if cfg == nil {
		panic("config cannot be nil - use config.LoadFromFile() or the builder to create config")
	}
	return &Server{config: cfg}
}

// NewServerWithBuilder creates a Server whose middleware comes from b
func NewServerWithBuilder(b *builder.Builder) *Server {
	return &Server{
		config:  b.Build(),
		builder: b,
	}
}

// Run starts the server and blocks until SIGINT/SIGTERM or a listen error
func (s *Server) Run() error {
	if err := s.config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	SetupLogLevel(s.config)

	listenAddr := ":" + s.config.Server.Port

	components, err := NewComponents(context.Background(), s.config)
	if err != nil {
		return err
	}
	s.components = components
	defer components.Close()

	s.app = s.NewApp()

	fmt.Printf("Embedding advisor starting on %s\n", listenAddr)
	fmt.Printf("   Environment: %s\n", s.config.Server.Environment)
	fmt.Printf("   Generator: %s (%s)\n", s.config.Generator.ProviderName(), s.config.Generator.ModelName())
	fmt.Printf("   Go version: %s\n", runtime.Version())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	serverErrChan := make(chan error, 1)
	go func() {
		if err := s.app.Listen(listenAddr); err != nil {
			serverErrChan <- err
		}
	}()

	select {
	case sig := <-sigChan:
		fiberlog.Infof("Received signal: %v. Starting graceful shutdown...", sig)
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	}

	if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	fiberlog.Info("Server shutdown completed successfully")
	return nil
}

// NewApp builds the fiber app with middleware and routes for the server's
// components
func (s *Server) NewApp() *fiber.App {
	app := createFiberApp(s.config)
	s.setupMiddleware(app)

	comp := s.components
	handlers := api.Handlers{
		Recommendations: api.NewRecommendationHandler(comp.Advisor),
		Catalog:         api.NewCatalogHandler(comp.Dataset),
	}

	// Nil collaborators must stay untyped nil inside the interfaces
	var historyReader api.HistoryReader
	var dbPinger api.Pinger
	if comp.History != nil {
		historyReader = comp.History
		dbPinger = comp.History
	}
	handlers.Analyses = api.NewAnalysesHandler(historyReader)
	handlers.Health = api.NewHealthHandler(comp.Dataset, comp.Redis, dbPinger)

	api.RegisterRoutes(app, handlers)
	app.Get("/", welcomeHandler(s.config))
	return app
}

func createFiberApp(cfg *config.Config) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:           "Embedding Advisor v1.0",
		EnablePrintRoutes: !cfg.IsProduction(),
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       5 * time.Minute,
		CaseSensitive:     true,
		ServerHeader:      "EmbeddingAdvisor",
		// Bodies are a short description and a task name
		BodyLimit: 64 * 1024,
	})
}

func (s *Server) setupMiddleware(app *fiber.App) {
	cfg := s.config
	isProd := cfg.IsProduction()

	app.Use(recover.New(recover.Config{
		EnableStackTrace: !isProd,
	}))

	rateLimit := s.rateLimitConfig()
	app.Use(limiter.New(limiter.Config{
		Max:               rateLimit.Max,
		Expiration:        rateLimit.Expiration,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      rateLimit.KeyFunc,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": fiber.Map{
					"message": fmt.Sprintf("rate limit of %d requests per %v exceeded", rateLimit.Max, rateLimit.Expiration),
					"type":    "rate_limited",
				},
			})
		},
	}))

	requestTimeout := s.requestTimeout()
	app.Use(func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	})

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	if isProd {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${status} ${method} ${path} ${latency} ${bytesSent}b\n",
			Output: os.Stdout,
		}))
	} else {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} - ${latency} ${method} ${path} ${error}\n",
			Output: os.Stdout,
		}))
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.Server.AllowedOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, User-Agent, X-Request-ID",
		AllowMethods:  "GET, POST, OPTIONS",
		MaxAge:        86400,
		ExposeHeaders: "Content-Length, Content-Type, X-Request-ID",
	}))

	if s.builder != nil {
		for _, middleware := range s.builder.GetMiddlewares() {
			app.Use(middleware)
		}
	}
}

func (s *Server) rateLimitConfig() models.RateLimitConfig {
	out := models.RateLimitConfig{
		Max:        defaultRateLimitRpm,
		Expiration: time.Minute,
	}
	if s.config.Server.RateLimitRpm > 0 {
		out.Max = s.config.Server.RateLimitRpm
	}
	if s.builder != nil && s.builder.GetRateLimitConfig() != nil {
		out = *s.builder.GetRateLimitConfig()
	}
	if out.KeyFunc == nil {
		out.KeyFunc = func(c *fiber.Ctx) string { return c.IP() }
	}
	return out
}

func (s *Server) requestTimeout() time.Duration {
	if s.builder != nil && s.builder.GetTimeoutConfig() != nil {
		return s.builder.GetTimeoutConfig().Timeout
	}
	if s.config.Server.RequestTimeoutMs > 0 {
		return time.Duration(s.config.Server.RequestTimeoutMs) * time.Millisecond
	}
	return defaultRequestTimeout
}

// SetupLogLevel applies the configured fiber log level
func SetupLogLevel(cfg *config.Config) {
	logLevel := cfg.GetNormalizedLogLevel()

	switch logLevel {
	case "trace":
		fiberlog.SetLevel(fiberlog.LevelTrace)
	case "debug":
		fiberlog.SetLevel(fiberlog.LevelDebug)
	case "info":
		fiberlog.SetLevel(fiberlog.LevelInfo)
	case "warn", "warning":
		fiberlog.SetLevel(fiberlog.LevelWarn)
	case "error":
		fiberlog.SetLevel(fiberlog.LevelError)
	case "fatal":
		fiberlog.SetLevel(fiberlog.LevelFatal)
	case "panic":
		fiberlog.SetLevel(fiberlog.LevelPanic)
	default:
		fiberlog.SetLevel(fiberlog.LevelInfo)
		fiberlog.Warnf("Unknown log level '%s', defaulting to 'info'", logLevel)
	}

	fiberlog.Debugf("Log level set to: %s", logLevel)
}

func welcomeHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service":   "embedding-advisor",
			"generator": cfg.Generator.ProviderName(),
			"model":     cfg.Generator.ModelName(),
			"endpoints": []string{
				"POST /v1/recommendations",
				"GET /v1/tasks",
				"GET /v1/benchmark",
				"GET /v1/analyses",
				"GET /health",
			},
		})
	}
}
