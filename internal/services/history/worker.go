package history

import (
	"context"
	"sync"
	"time"

	"github.com/Egham-7/embedding-advisor/internal/models"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

const recordTimeout = 5 * time.Second

// Recorder persists a single analysis
type Recorder interface {
	Record(ctx context.Context, analysis *models.Analysis) error
}

// Worker records analyses in the background so requests never wait on the
// database. Tasks are dropped when the buffer is full.
type Worker struct {
	recorder Recorder
	tasks    chan *models.Analysis
	wg       sync.WaitGroup
	stopOnce sync.Once
	stopped  chan struct{}
}

// NewWorker starts poolSize goroutines reading from a buffer of bufferSize
func NewWorker(recorder Recorder, poolSize, bufferSize int) *Worker {
	if poolSize <= 0 {
		poolSize = 1
	}
	w := &Worker{
		recorder: recorder,
		tasks:    make(chan *models.Analysis, bufferSize),
		stopped:  make(chan struct{}),
	}

	for range poolSize {
		w.wg.Add(1)
		go w.run()
	}
	return w
}

// Submit queues an analysis for recording. It never blocks.
func (w *Worker) Submit(analysis *models.Analysis) bool {
	select {
	case <-w.stopped:
		fiberlog.Warnf("[%s] History worker stopped, cannot record analysis", analysis.RequestID)
		return false
	default:
	}

	select {
	case w.tasks <- analysis:
		return true
	default:
		fiberlog.Warnf("[%s] History buffer full, dropping analysis", analysis.RequestID)
		return false
	}
}

func (w *Worker) run() {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopped:
			w.drain()
			return
		case analysis := <-w.tasks:
			w.record(analysis)
		}
	}
}

// drain records whatever is still buffered after Stop
func (w *Worker) drain() {
	for {
		select {
		case analysis := <-w.tasks:
			w.record(analysis)
		default:
			return
		}
	}
}

func (w *Worker) record(analysis *models.Analysis) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := w.recorder.Record(ctx, analysis); err != nil {
		fiberlog.Errorf("[%s] Failed to record analysis: %v", analysis.RequestID, err)
	}
}

// Stop records buffered analyses and waits for the pool to exit
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopped)
		w.wg.Wait()
	})
}
