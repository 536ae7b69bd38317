package cache

import (
	"context"
	"fmt"
	"strings"

	"github.com/Egham-7/embedding-advisor/internal/models"

	"github.com/botirk38/semanticcache"
	"github.com/botirk38/semanticcache/options"
	fiberlog "github.com/gofiber/fiber/v2/log"
)

// redisDB keeps recommendation entries apart from the circuit breaker keys
const redisDB = 1

// Entry is the cached value. The task is stored so a semantic hit for a
// similar description under another task is never served.
type Entry struct {
	Task   models.Task                 `json:"task"`
	Result models.RecommendationResult `json:"result"`
}

// RecommendationCache caches analysis results keyed by task and description,
// with exact matching first and semantic similarity second
type RecommendationCache struct {
	cache             *semanticcache.SemanticCache[string, Entry]
	semanticThreshold float32
}

// NewRecommendationCache creates the cache from configuration
func NewRecommendationCache(cfg models.CacheConfig) (*RecommendationCache, error) {
	fiberlog.Info("RecommendationCache: Initializing cache")

	threshold := cfg.SemanticThreshold
	if threshold <= 0 || threshold > 1 {
		return nil, fmt.Errorf("invalid semantic threshold %.2f; must be in (0.0, 1.0]", threshold)
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OpenAI API key not set in cache configuration")
	}

	embedModel := cfg.EmbeddingModel
	if embedModel == "" {
		embedModel = models.DefaultCacheEmbeddingModel
	}

	var cache *semanticcache.SemanticCache[string, Entry]
	var err error

	switch cfg.Backend {
	case models.CacheBackendMemory, "":
		capacity := cfg.Capacity
		if capacity <= 0 {
			capacity = models.DefaultCacheCapacity
		}
		fiberlog.Debugf("RecommendationCache: Using in-memory LRU backend with capacity=%d", capacity)
		cache, err = semanticcache.New(
			options.WithOpenAIProvider[string, Entry](cfg.OpenAIAPIKey, embedModel),
			options.WithLRUBackend[string, Entry](capacity),
		)

	case models.CacheBackendRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("redis URL not set for redis backend")
		}
		fiberlog.Debugf("RecommendationCache: Using Redis backend")
		cache, err = semanticcache.New(
			options.WithOpenAIProvider[string, Entry](cfg.OpenAIAPIKey, embedModel),
			options.WithRedisBackend[string, Entry](cfg.RedisURL, redisDB),
		)

	default:
		return nil, fmt.Errorf("unsupported cache backend: %s (supported: redis, memory)", cfg.Backend)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create semantic cache: %w", err)
	}
	fiberlog.Infof("RecommendationCache: Semantic cache created (backend=%s, threshold=%.2f)", cfg.Backend, threshold)

	return &RecommendationCache{
		cache:             cache,
		semanticThreshold: float32(threshold),
	}, nil
}

// Key is the exact-match key for a request
func Key(task models.Task, description string) string {
	return string(task) + "|" + strings.ToLower(strings.Join(strings.Fields(description), " "))
}

// embeddingText is the text embedded for similarity search
func embeddingText(task models.Task, description string) string {
	return fmt.Sprintf("Task: %s\nProject: %s", task, strings.TrimSpace(description))
}

// Lookup returns a cached result and the tier that produced it
func (rc *RecommendationCache) Lookup(ctx context.Context, req models.RecommendationRequest, requestID string) (*models.RecommendationResult, string, bool) {
	key := Key(req.Task, req.Description)

	if hit, found, err := rc.cache.Get(ctx, key); err != nil {
		fiberlog.Errorf("[%s] RecommendationCache: Error during exact lookup: %v", requestID, err)
	} else if found && hit.Task == req.Task {
		fiberlog.Infof("[%s] RecommendationCache: Exact cache hit", requestID)
		result := hit.Result
		return &result, models.CacheSourceExact, true
	}

	match, err := rc.cache.Lookup(ctx, embeddingText(req.Task, req.Description), rc.semanticThreshold)
	if err != nil {
		fiberlog.Errorf("[%s] RecommendationCache: Error during semantic lookup: %v", requestID, err)
		return nil, "", false
	}
	if match != nil && match.Value.Task == req.Task {
		fiberlog.Infof("[%s] RecommendationCache: Semantic cache hit", requestID)
		result := match.Value.Result
		return &result, models.CacheSourceSemantic, true
	}

	fiberlog.Debugf("[%s] RecommendationCache: Cache miss", requestID)
	return nil, "", false
}

// Store saves a successful result
func (rc *RecommendationCache) Store(ctx context.Context, req models.RecommendationRequest, result *models.RecommendationResult, requestID string) {
	if result == nil {
		return
	}
	entry := Entry{Task: req.Task, Result: *result}
	if err := rc.cache.Set(ctx, Key(req.Task, req.Description), embeddingText(req.Task, req.Description), entry); err != nil {
		fiberlog.Warnf("[%s] RecommendationCache: Failed to store result: %v", requestID, err)
		return
	}
	fiberlog.Debugf("[%s] RecommendationCache: Stored %s result", requestID, result.Kind)
}

// Flush removes every entry
func (rc *RecommendationCache) Flush(ctx context.Context) error {
	return rc.cache.Flush(ctx)
}

// Close releases the cache backend
func (rc *RecommendationCache) Close() error {
	if rc.cache != nil {
		return rc.cache.Close()
	}
	return nil
}
