package advisor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Egham-7/embedding-advisor/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeGenerator struct {
	calls   atomic.Int32
	lastReq *models.GenerationRequest
	mu      sync.Mutex

	reply   string
	err     error
	started chan struct{}
	release chan struct{}
	ctxErr  error
}

func (f *fakeGenerator) Generate(ctx context.Context, req *models.GenerationRequest, _ string) (*genai.GenerateContentResponse, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.lastReq = req
	f.mu.Unlock()

	if f.started != nil {
		close(f.started)
		<-f.release
	}
	f.mu.Lock()
	f.ctxErr = ctx.Err()
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return envelope(f.reply), nil
}

func (f *fakeGenerator) Provider() models.GeneratorProvider {
	return models.ProviderGemini
}

type staticBenchmark struct {
	text string
	err  error
}

func (b staticBenchmark) Text() (string, error) { return b.text, b.err }

type fakeBreaker struct {
	open      bool
	successes int
	failures  int
}

func (b *fakeBreaker) CanExecute(context.Context) bool { return !b.open }
func (b *fakeBreaker) RecordSuccess(context.Context)   { b.successes++ }
func (b *fakeBreaker) RecordFailure(context.Context)   { b.failures++ }

type memoryCache struct {
	entries map[string]*models.RecommendationResult
	stores  int
}

func (c *memoryCache) Lookup(_ context.Context, req models.RecommendationRequest, _ string) (*models.RecommendationResult, string, bool) {
	result, ok := c.entries[string(req.Task)+"|"+req.Description]
	if !ok {
		return nil, "", false
	}
	return result, models.CacheSourceExact, true
}

func (c *memoryCache) Store(_ context.Context, req models.RecommendationRequest, result *models.RecommendationResult, _ string) {
	if c.entries == nil {
		c.entries = make(map[string]*models.RecommendationResult)
	}
	c.entries[string(req.Task)+"|"+req.Description] = result
	c.stores++
}

type recordingSink struct {
	mu       sync.Mutex
	analyses []*models.Analysis
}

func (s *recordingSink) Submit(analysis *models.Analysis) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyses = append(s.analyses, analysis)
	return true
}

func newTestService(gen *fakeGenerator, opts ...Option) *Service {
	return NewService(staticBenchmark{text: testBenchmark}, newTestBuilder(), gen, opts...)
}

func retrievalRequest(description string) models.RecommendationRequest {
	return models.RecommendationRequest{Task: models.TaskRetrieval, Description: description}
}

func TestService_RankedRecommendation(t *testing.T) {
	gen := &fakeGenerator{reply: threeRanked}
	sink := &recordingSink{}
	svc := newTestService(gen, WithHistory(sink))

	analysis, err := svc.Recommend(context.Background(), retrievalRequest("  Semantic search over legal contracts  "), "req-1")
	require.NoError(t, err)

	assert.Equal(t, "req-1", analysis.RequestID)
	assert.Equal(t, models.TaskRetrieval, analysis.Task)
	assert.Equal(t, "Semantic search over legal contracts", analysis.Description)
	assert.Equal(t, models.ResultRanked, analysis.Result.Kind)
	assert.Len(t, analysis.Result.Recommendations, 3)
	assert.Empty(t, analysis.CacheSource)
	assert.Equal(t, int32(1), gen.calls.Load())

	require.Len(t, sink.analyses, 1)
	assert.Same(t, analysis, sink.analyses[0])
	assert.Contains(t, gen.lastReq.UserText(), "Semantic search over legal contracts")
}

func TestService_BlankDescriptionNeverCallsGenerator(t *testing.T) {
	gen := &fakeGenerator{reply: threeRanked}
	breaker := &fakeBreaker{}
	svc := newTestService(gen, WithBreaker(breaker))

	for _, description := range []string{"", "   ", "\n\t"} {
		analysis, err := svc.Recommend(context.Background(), retrievalRequest(description), "req")
		assert.Nil(t, analysis)
		assert.True(t, models.IsValidationError(err))
	}
	assert.Zero(t, gen.calls.Load())
	assert.Zero(t, breaker.failures)
}

func TestService_TransportErrorIsNotParsed(t *testing.T) {
	gen := &fakeGenerator{err: models.NewTransportError("Gemini", 500, `{"error":{"code":500}}`, errors.New("boom"))}
	breaker := &fakeBreaker{}
	cache := &memoryCache{}
	svc := newTestService(gen, WithBreaker(breaker), WithCache(cache))

	analysis, err := svc.Recommend(context.Background(), retrievalRequest("search"), "req")
	assert.Nil(t, analysis)
	require.True(t, models.IsTransportError(err))

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 500, appErr.UpstreamStatus)
	assert.Equal(t, `{"error":{"code":500}}`, appErr.UpstreamBody)
	assert.Equal(t, 1, breaker.failures)
	assert.Zero(t, cache.stores)
}

func TestService_ClientErrorsDoNotTripBreaker(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		failures int
	}{
		{name: "bad request", err: models.NewTransportError("Gemini", 400, "bad", nil), failures: 0},
		{name: "rate limited", err: models.NewTransportError("Gemini", 429, "slow down", nil), failures: 1},
		{name: "network", err: models.NewTransportError("Gemini", 0, "", errors.New("dial tcp")), failures: 1},
		{name: "canceled", err: context.Canceled, failures: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			breaker := &fakeBreaker{}
			svc := newTestService(&fakeGenerator{err: tt.err}, WithBreaker(breaker))

			_, err := svc.Recommend(context.Background(), retrievalRequest("search"), "req")
			require.Error(t, err)
			assert.Equal(t, tt.failures, breaker.failures)
		})
	}
}

func TestService_OpenBreakerShortCircuits(t *testing.T) {
	gen := &fakeGenerator{reply: threeRanked}
	svc := newTestService(gen, WithBreaker(&fakeBreaker{open: true}))

	_, err := svc.Recommend(context.Background(), retrievalRequest("search"), "req")
	assert.Equal(t, models.ErrorTypeCircuitBreaker, models.ErrorTypeOf(err))
	assert.Zero(t, gen.calls.Load())
}

func TestService_InvalidJSONPropagates(t *testing.T) {
	breaker := &fakeBreaker{}
	svc := newTestService(&fakeGenerator{reply: "Sure! Here are some models."}, WithBreaker(breaker))

	_, err := svc.Recommend(context.Background(), retrievalRequest("search"), "req")
	assert.True(t, models.IsInvalidJSONError(err))
	assert.Equal(t, 1, breaker.successes)
}

func TestService_InformationalResults(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		kind    models.ResultKind
		message string
	}{
		{
			name:    "off topic",
			reply:   `{"is_off_topic": true, "off_topic_message": "Ask me about embeddings."}`,
			kind:    models.ResultOffTopic,
			message: "Ask me about embeddings.",
		},
		{
			name:    "no match",
			reply:   `{"is_off_topic": false, "recommendations": []}`,
			kind:    models.ResultNoMatch,
			message: DefaultNoMatchMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(&fakeGenerator{reply: tt.reply})
			analysis, err := svc.Recommend(context.Background(), retrievalRequest("what's the weather"), "req")
			require.NoError(t, err)
			assert.Equal(t, tt.kind, analysis.Result.Kind)
			assert.Equal(t, tt.message, analysis.Result.Message)
			assert.False(t, analysis.Result.IsRanked())
		})
	}
}

func TestService_CacheHitSkipsGenerator(t *testing.T) {
	gen := &fakeGenerator{reply: threeRanked}
	cache := &memoryCache{}
	svc := newTestService(gen, WithCache(cache))

	first, err := svc.Recommend(context.Background(), retrievalRequest("search"), "req-1")
	require.NoError(t, err)
	assert.Empty(t, first.CacheSource)
	assert.Equal(t, 1, cache.stores)

	second, err := svc.Recommend(context.Background(), retrievalRequest("search"), "req-2")
	require.NoError(t, err)
	assert.Equal(t, models.CacheSourceExact, second.CacheSource)
	assert.Equal(t, first.Result, second.Result)
	assert.Equal(t, int32(1), gen.calls.Load())
}

func TestService_BenchmarkUnavailable(t *testing.T) {
	gen := &fakeGenerator{reply: threeRanked}
	svc := NewService(staticBenchmark{err: errors.New("not loaded")}, newTestBuilder(), gen)

	_, err := svc.Recommend(context.Background(), retrievalRequest("search"), "req")
	assert.Equal(t, models.ErrorTypeInternal, models.ErrorTypeOf(err))
	assert.Zero(t, gen.calls.Load())
}

func TestService_IdenticalRequestsShareOneCall(t *testing.T) {
	gen := &fakeGenerator{
		reply:   threeRanked,
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc := newTestService(gen)

	var wg sync.WaitGroup
	results := make([]*models.Analysis, 2)
	errs := make([]error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], errs[0] = svc.Recommend(context.Background(), retrievalRequest("search"), "req-1")
	}()
	<-gen.started

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], errs[1] = svc.Recommend(context.Background(), retrievalRequest("search"), "req-2")
	}()
	time.Sleep(50 * time.Millisecond)
	close(gen.release)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, int32(1), gen.calls.Load())
	assert.Equal(t, "req-1", results[0].RequestID)
	assert.Equal(t, "req-2", results[1].RequestID)
	assert.Equal(t, results[0].Result, results[1].Result)
}

func TestService_CancelledCallerDoesNotFailJoiners(t *testing.T) {
	gen := &fakeGenerator{
		reply:   threeRanked,
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc := newTestService(gen)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Recommend(firstCtx, retrievalRequest("search"), "req-1")
		firstErr <- err
	}()
	<-gen.started

	var joined *models.Analysis
	var joinedErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		joined, joinedErr = svc.Recommend(context.Background(), retrievalRequest("search"), "req-2")
	}()
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	err := <-firstErr
	require.True(t, models.IsTransportError(err))
	assert.ErrorIs(t, err, context.Canceled)

	close(gen.release)
	<-done

	require.NoError(t, joinedErr)
	assert.Equal(t, "req-2", joined.RequestID)
	assert.Equal(t, models.ResultRanked, joined.Result.Kind)
	assert.Equal(t, int32(1), gen.calls.Load())

	gen.mu.Lock()
	defer gen.mu.Unlock()
	assert.NoError(t, gen.ctxErr)
}

func TestService_CallTimeoutBoundsSharedCall(t *testing.T) {
	gen := &blockingGenerator{}
	svc := NewService(staticBenchmark{text: testBenchmark}, newTestBuilder(), gen, WithCallTimeout(20*time.Millisecond))

	_, err := svc.Recommend(context.Background(), retrievalRequest("search"), "req-1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type blockingGenerator struct{}

func (blockingGenerator) Generate(ctx context.Context, _ *models.GenerationRequest, _ string) (*genai.GenerateContentResponse, error) {
	<-ctx.Done()
	return nil, models.NewTransportError("Gemini", 0, "", ctx.Err())
}

func (blockingGenerator) Provider() models.GeneratorProvider { return models.ProviderGemini }

func TestCountsAsFailure(t *testing.T) {
	assert.False(t, countsAsFailure(context.Canceled))
	assert.True(t, countsAsFailure(context.DeadlineExceeded))
	assert.False(t, countsAsFailure(models.NewTransportError("x", 404, "", nil)))
	assert.True(t, countsAsFailure(models.NewTransportError("x", 429, "", nil)))
	assert.True(t, countsAsFailure(models.NewTransportError("x", 503, "", nil)))
	assert.True(t, countsAsFailure(models.NewMalformedEnvelopeError("x")))
}
