package builder

import "github.com/Egham-7/embedding-advisor/internal/models"

// WithBenchmarkURL downloads the benchmark dataset from url at startup
func (b *Builder) WithBenchmarkURL(url string) *Builder {
	b.cfg.Benchmark.URL = url
	b.cfg.Benchmark.FilePath = ""
	return b
}

// WithBenchmarkFile reads the benchmark dataset from a local file at startup
func (b *Builder) WithBenchmarkFile(path string) *Builder {
	b.cfg.Benchmark.URL = ""
	b.cfg.Benchmark.FilePath = path
	return b
}

// WithDatabase enables the analysis history
func (b *Builder) WithDatabase(cfg models.DatabaseConfig) *Builder {
	b.cfg.Database = &cfg
	return b
}

// WithCache enables the recommendation cache
func (b *Builder) WithCache(cfg models.CacheConfig) *Builder {
	cfg.Enabled = true
	b.cfg.Cache = &cfg
	return b
}

// WithCircuitBreaker guards the generation call with a Redis-backed breaker
func (b *Builder) WithCircuitBreaker(redisURL string, cfg models.CircuitBreakerConfig) *Builder {
	b.cfg.RedisURL = redisURL
	b.cfg.CircuitBreaker = &cfg
	return b
}
