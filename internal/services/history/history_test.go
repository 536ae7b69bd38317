package history

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Egham-7/embedding-advisor/internal/models"
	"github.com/Egham-7/embedding-advisor/internal/services/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := database.New(models.DatabaseConfig{
		Type:     models.SQLite,
		FilePath: filepath.Join(t.TempDir(), "history.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	svc, err := NewService(db)
	require.NoError(t, err)
	return svc
}

func rankedAnalysis(requestID string) *models.Analysis {
	return &models.Analysis{
		RequestID:   requestID,
		Task:        models.TaskRetrieval,
		Description: "semantic search over legal contracts",
		Result: models.NewRankedResult([]models.ModelRecommendation{
			{Rank: 1, ModelName: "bge-m3", ScoreForTask: 54.6},
			{Rank: 2, ModelName: "e5-large", ScoreForTask: 50.1},
		}),
		Duration: 1500 * time.Millisecond,
	}
}

func TestService_RecordAndRecent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Record(ctx, rankedAnalysis("req-1")))
	require.NoError(t, svc.Record(ctx, &models.Analysis{
		RequestID:   "req-2",
		Task:        models.TaskSTS,
		Description: "hello",
		Result:      models.NewOffTopicResult("only embeddings"),
		CacheSource: models.CacheSourceExact,
	}))

	records, err := svc.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "req-2", records[0].RequestID)
	assert.Equal(t, string(models.ResultOffTopic), records[0].Kind)
	assert.Equal(t, "only embeddings", records[0].Message)
	assert.Equal(t, models.CacheSourceExact, records[0].CacheSource)
	assert.Empty(t, records[0].Recommendations())

	assert.Equal(t, "req-1", records[1].RequestID)
	assert.Equal(t, int64(1500), records[1].DurationMs)
	items := records[1].Recommendations()
	require.Len(t, items, 2)
	assert.Equal(t, "bge-m3", items[0].ModelName)

	limited, err := svc.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestService_Prune(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Record(ctx, rankedAnalysis("req-1")))
	require.NoError(t, svc.Record(ctx, rankedAnalysis("req-2")))

	removed, err := svc.Prune(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, removed)

	removed, err = svc.Prune(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	records, err := svc.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestNewService_RequiresDB(t *testing.T) {
	_, err := NewService(nil)
	assert.Error(t, err)
}

type recordingStub struct {
	mu      sync.Mutex
	records []string
}

func (r *recordingStub) Record(_ context.Context, analysis *models.Analysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, analysis.RequestID)
	return nil
}

func (r *recordingStub) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

func TestWorker_RecordsAndDrainsOnStop(t *testing.T) {
	stub := &recordingStub{}
	worker := NewWorker(stub, 2, 10)

	for _, id := range []string{"a", "b", "c"} {
		assert.True(t, worker.Submit(rankedAnalysis(id)))
	}
	worker.Stop()

	assert.Equal(t, 3, stub.count())
	assert.False(t, worker.Submit(rankedAnalysis("late")))

	worker.Stop()
}

type blockingStub struct {
	release chan struct{}
}

func (b *blockingStub) Record(context.Context, *models.Analysis) error {
	<-b.release
	return nil
}

func TestWorker_DropsWhenBufferFull(t *testing.T) {
	stub := &blockingStub{release: make(chan struct{})}
	worker := NewWorker(stub, 1, 1)

	assert.True(t, worker.Submit(rankedAnalysis("first")))
	require.Eventually(t, func() bool { return len(worker.tasks) == 0 }, time.Second, 5*time.Millisecond)

	assert.True(t, worker.Submit(rankedAnalysis("buffered")))
	assert.False(t, worker.Submit(rankedAnalysis("dropped")))

	close(stub.release)
	worker.Stop()
}
