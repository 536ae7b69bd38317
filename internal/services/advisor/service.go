package advisor

import (
	"context"
	"errors"
	"time"

	"github.com/Egham-7/embedding-advisor/internal/models"
	"github.com/Egham-7/embedding-advisor/internal/services/cache"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"golang.org/x/sync/singleflight"
)

// BenchmarkText supplies the loaded benchmark dataset
type BenchmarkText interface {
	Text() (string, error)
}

// ResultCache stores finished results
type ResultCache interface {
	Lookup(ctx context.Context, req models.RecommendationRequest, requestID string) (*models.RecommendationResult, string, bool)
	Store(ctx context.Context, req models.RecommendationRequest, result *models.RecommendationResult, requestID string)
}

// Breaker gates the generation call
type Breaker interface {
	CanExecute(ctx context.Context) bool
	RecordSuccess(ctx context.Context)
	RecordFailure(ctx context.Context)
}

// HistorySink receives finished analyses
type HistorySink interface {
	Submit(analysis *models.Analysis) bool
}

// DefaultCallTimeout bounds a shared upstream call when no timeout is configured
const DefaultCallTimeout = 2 * time.Minute

// Service runs one analysis: build, call the model once, normalize
type Service struct {
	benchmark  BenchmarkText
	builder    *RequestBuilder
	generator  Generator
	normalizer *Normalizer

	cache   ResultCache
	breaker Breaker
	history HistorySink

	inflight    singleflight.Group
	callTimeout time.Duration
}

// Option configures optional collaborators of the Service
type Option func(*Service)

// WithCache enables the result cache
func WithCache(c ResultCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithBreaker guards the generation call with a circuit breaker
func WithBreaker(b Breaker) Option {
	return func(s *Service) { s.breaker = b }
}

// WithHistory records every finished analysis
func WithHistory(h HistorySink) Option {
	return func(s *Service) { s.history = h }
}

// WithCallTimeout bounds each upstream call shared by identical requests
func WithCallTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.callTimeout = d
		}
	}
}

// NewService wires the advisor
func NewService(benchmark BenchmarkText, builder *RequestBuilder, generator Generator, opts ...Option) *Service {
	s := &Service{
		benchmark:   benchmark,
		builder:     builder,
		generator:   generator,
		normalizer:  NewNormalizer(),
		callTimeout: DefaultCallTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// outcome is shared between callers joined on the same in-flight request
type outcome struct {
	result      *models.RecommendationResult
	cacheSource string
}

// Recommend produces an analysis for req. Identical requests that arrive
// while one is pending share its single upstream call.
func (s *Service) Recommend(ctx context.Context, req models.RecommendationRequest, requestID string) (*models.Analysis, error) {
	start := time.Now()

	benchmarkText, err := s.benchmark.Text()
	if err != nil {
		return nil, models.NewInternalError("benchmark dataset is not available", err)
	}

	genReq, err := s.builder.Build(req, benchmarkText)
	if err != nil {
		fiberlog.Warnf("[%s] Rejected recommendation request: %v", requestID, err)
		return nil, err
	}
	req.Description = genReq.Description

	fiberlog.Infof("[%s] Recommendation request - task: %s, provider: %s", requestID, req.Task, s.generator.Provider())

	// The shared call outlives any single caller; each caller stops waiting
	// when its own context ends.
	ch := s.inflight.DoChan(cache.Key(req.Task, req.Description), func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.callTimeout)
		defer cancel()
		return s.resolve(callCtx, req, genReq, requestID)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		fiberlog.Warnf("[%s] Stopped waiting for the model: %v", requestID, ctx.Err())
		return nil, models.NewTransportError(string(s.generator.Provider()), 0, "", ctx.Err())
	}
	if res.Shared {
		fiberlog.Infof("[%s] Joined an identical in-flight request", requestID)
	}
	if res.Err != nil {
		return nil, res.Err
	}
	out := res.Val.(*outcome)

	analysis := &models.Analysis{
		RequestID:   requestID,
		Task:        req.Task,
		Description: req.Description,
		Result:      out.result,
		CacheSource: out.cacheSource,
		Duration:    time.Since(start),
	}

	if s.history != nil {
		s.history.Submit(analysis)
	}

	fiberlog.Infof("[%s] Recommendation finished - kind: %s, duration: %v", requestID, out.result.Kind, analysis.Duration)
	return analysis, nil
}

func (s *Service) resolve(ctx context.Context, req models.RecommendationRequest, genReq *models.GenerationRequest, requestID string) (*outcome, error) {
	if s.cache != nil {
		if cached, source, ok := s.cache.Lookup(ctx, req, requestID); ok {
			return &outcome{result: cached, cacheSource: source}, nil
		}
	}

	if s.breaker != nil && !s.breaker.CanExecute(ctx) {
		fiberlog.Warnf("[%s] Circuit breaker open for %s", requestID, s.generator.Provider())
		return nil, models.NewCircuitBreakerError(string(s.generator.Provider()))
	}

	resp, err := s.generator.Generate(ctx, genReq, requestID)
	if err != nil {
		if s.breaker != nil && countsAsFailure(err) {
			s.breaker.RecordFailure(ctx)
		}
		return nil, err
	}
	if s.breaker != nil {
		s.breaker.RecordSuccess(ctx)
	}

	result, err := s.normalizer.Normalize(resp, requestID)
	if err != nil {
		return nil, err
	}
	if err := result.Validate(); err != nil {
		return nil, models.NewInternalError("normalized result is inconsistent", err)
	}

	if s.cache != nil {
		s.cache.Store(ctx, req, result, requestID)
	}
	return &outcome{result: result}, nil
}

// countsAsFailure ignores client-side cancellation and 4xx answers, which say
// nothing about the health of the upstream service
func countsAsFailure(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) && appErr.UpstreamStatus >= 400 && appErr.UpstreamStatus < 500 {
		return appErr.UpstreamStatus == 429
	}
	return true
}
