package config

import (
	"context"
	"fmt"
	"time"

	"github.com/Egham-7/embedding-advisor/internal/config"
	"github.com/Egham-7/embedding-advisor/internal/services/advisor"
	"github.com/Egham-7/embedding-advisor/internal/services/benchmark"
	"github.com/Egham-7/embedding-advisor/internal/services/cache"
	"github.com/Egham-7/embedding-advisor/internal/services/circuitbreaker"
	"github.com/Egham-7/embedding-advisor/internal/services/database"
	"github.com/Egham-7/embedding-advisor/internal/services/history"
	"github.com/Egham-7/embedding-advisor/internal/services/scheduler"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

const (
	defaultBenchmarkTimeout = 30 * time.Second
	historyWorkers          = 4
	historyBuffer           = 256
)

// Components holds the assembled advisor and the infrastructure it owns.
// Optional parts are nil when not configured.
type Components struct {
	Dataset *benchmark.Dataset
	Advisor *advisor.Service

	Redis   *redis.Client
	DB      *database.DB
	Cache   *cache.RecommendationCache
	Breaker *circuitbreaker.CircuitBreaker
	History *history.Service
	Worker  *history.Worker

	retention     *scheduler.RetentionScheduler
	stopRetention context.CancelFunc
}

// NewComponents loads the benchmark dataset and wires the advisor with every
// optional collaborator the configuration enables. A dataset that cannot be
// loaded aborts startup.
func NewComponents(ctx context.Context, cfg *config.Config) (*Components, error) {
	comp := &Components{Dataset: benchmark.NewDataset()}

	if err := comp.loadBenchmark(ctx, cfg); err != nil {
		return nil, err
	}

	generator, err := advisor.NewGenerator(cfg.Generator)
	if err != nil {
		return nil, fmt.Errorf("generator initialization failed: %w", err)
	}

	opts := []advisor.Option{
		advisor.WithCallTimeout(time.Duration(cfg.Generator.TimeoutMs) * time.Millisecond),
	}

	if cfg.RedisURL != "" {
		comp.Redis, err = createRedisClient(cfg.RedisURL)
		if err != nil {
			comp.Close()
			return nil, err
		}
	}

	if comp.Redis != nil && cfg.CircuitBreaker != nil {
		comp.Breaker = circuitbreaker.New(ctx, comp.Redis, string(generator.Provider()), circuitbreaker.ConfigFrom(cfg.CircuitBreaker))
		opts = append(opts, advisor.WithBreaker(comp.Breaker))
		fiberlog.Infof("Circuit breaker enabled for %s", generator.Provider())
	}

	if cfg.CacheEnabled() {
		comp.Cache, err = cache.NewRecommendationCache(*cfg.Cache)
		if err != nil {
			comp.Close()
			return nil, fmt.Errorf("recommendation cache initialization failed: %w", err)
		}
		opts = append(opts, advisor.WithCache(comp.Cache))
		fiberlog.Infof("Recommendation cache enabled (backend: %s)", cfg.Cache.Backend)
	}

	if cfg.HistoryEnabled() {
		comp.DB, err = database.New(*cfg.Database)
		if err != nil {
			comp.Close()
			return nil, fmt.Errorf("database initialization failed: %w", err)
		}
		comp.History, err = history.NewService(comp.DB)
		if err != nil {
			comp.Close()
			return nil, fmt.Errorf("history initialization failed: %w", err)
		}
		comp.Worker = history.NewWorker(comp.History, historyWorkers, historyBuffer)
		opts = append(opts, advisor.WithHistory(comp.Worker))
		fiberlog.Infof("Analysis history enabled (%s)", comp.DB.DriverName())

		if days := cfg.Database.RetentionDays; days > 0 {
			retentionCtx, cancel := context.WithCancel(context.Background())
			comp.stopRetention = cancel
			comp.retention = scheduler.NewRetentionScheduler(comp.History, time.Duration(days)*24*time.Hour, scheduler.DefaultRetentionInterval)
			go comp.retention.Start(retentionCtx)
		}
	}

	comp.Advisor = advisor.NewService(comp.Dataset, advisor.NewRequestBuilder(cfg.Generator), generator, opts...)
	return comp, nil
}

func (comp *Components) loadBenchmark(ctx context.Context, cfg *config.Config) error {
	src, err := benchmark.NewSource(cfg.Benchmark)
	if err != nil {
		return fmt.Errorf("invalid benchmark configuration: %w", err)
	}

	timeout := defaultBenchmarkTimeout
	if cfg.Benchmark.TimeoutMs > 0 {
		timeout = time.Duration(cfg.Benchmark.TimeoutMs) * time.Millisecond
	}
	loadCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := comp.Dataset.Load(loadCtx, src); err != nil {
		return fmt.Errorf("failed to load benchmark dataset from %s: %w", src.Location(), err)
	}
	return nil
}

// Close stops the history worker and releases connections. Safe to call on
// partially built components.
func (comp *Components) Close() {
	if comp.retention != nil {
		comp.stopRetention()
		comp.retention.Stop()
	}
	if comp.Worker != nil {
		comp.Worker.Stop()
	}
	if comp.Cache != nil {
		if err := comp.Cache.Close(); err != nil {
			fiberlog.Errorf("Failed to close recommendation cache: %v", err)
		}
	}
	if comp.DB != nil {
		if err := comp.DB.Close(); err != nil {
			fiberlog.Errorf("Failed to close database connection: %v", err)
		}
	}
	if comp.Redis != nil {
		if err := comp.Redis.Close(); err != nil {
			fiberlog.Errorf("Failed to close Redis client: %v", err)
		}
	}
}

func createRedisClient(redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opt.PoolSize = 20
	opt.MinIdleConns = 2
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second
	opt.MaxRetries = 3
	opt.MinRetryBackoff = 8 * time.Millisecond
	opt.MaxRetryBackoff = 512 * time.Millisecond

	return testRedisConnectionWithRetry(redis.NewClient(opt))
}

func testRedisConnectionWithRetry(client *redis.Client) (*redis.Client, error) {
	const maxAttempts = 3
	const baseDelay = 1 * time.Second

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := client.Ping(ctx).Err()
		cancel()

		if err == nil {
			fiberlog.Infof("Redis connection established (attempt %d/%d)", attempt, maxAttempts)
			return client, nil
		}

		fiberlog.Warnf("Redis connection failed (attempt %d/%d): %v", attempt, maxAttempts, err)
		if attempt < maxAttempts {
			time.Sleep(time.Duration(attempt) * baseDelay)
		}
	}

	if err := client.Close(); err != nil {
		fiberlog.Errorf("Failed to close Redis client after connection failures: %v", err)
	}
	return nil, fmt.Errorf("failed to connect to Redis after %d attempts", maxAttempts)
}
