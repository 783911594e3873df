// Package async runs submitted jobs on a fixed worker pool.
package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/report-generator/internal/common"
)

var ErrQueueClosed = errors.New("queue is shut down")

// Job is one unit of background work.
type Job struct {
	Name        string
	RequestID   string
	SubmittedAt time.Time
	Run         func(ctx context.Context) error
}

type Queue struct {
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.RWMutex
	closed bool
}

type Option func(*Queue)

func WithWorkers(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

// WithJobTimeout bounds each job; zero or negative leaves jobs unbounded.
func WithJobTimeout(d time.Duration) Option {
	return func(q *Queue) {
		q.timeout = d
	}
}

func NewQueue(logger *slog.Logger, opts ...Option) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue{
		logger:  logger,
		workers: 1,
		timeout: 5 * time.Minute,
		ch:      make(chan Job, 16),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *Queue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("async.worker.started", "worker_id", workerID)
				for job := range q.ch {
					q.run(workerID, job)
				}
				q.logger.Debug("async.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *Queue) run(workerID int, job Job) {
	ctx := common.WithRequestID(context.Background(), job.RequestID)
	ctx, cancel := common.WithTimeout(ctx, q.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("async.job.panic", "worker_id", workerID, "job", job.Name, "req_id", job.RequestID, "panic", r)
		}
	}()
	if err := job.Run(ctx); err != nil {
		q.logger.Error("async.job.failed",
			"worker_id", workerID,
			"job", job.Name,
			"req_id", job.RequestID,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return
	}
	q.logger.Info("async.job.ok",
		"worker_id", workerID,
		"job", job.Name,
		"req_id", job.RequestID,
		"queued_ms", start.Sub(job.SubmittedAt).Milliseconds(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
}

// Submit enqueues a job, waiting for room until ctx ends.
func (q *Queue) Submit(ctx context.Context, job Job) error {
	if job.Run == nil {
		return errors.New("job has no Run func")
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Warn("async.submit.closed", "job", job.Name, "req_id", job.RequestID)
		return ErrQueueClosed
	}
	select {
	case q.ch <- job:
		q.logger.Debug("async.job.queued", "job", job.Name, "req_id", job.RequestID)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting jobs and waits for queued ones to finish or for
// ctx to end, whichever comes first.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("async.shutdown.interrupted", "error", ctx.Err())
		return ctx.Err()
	case <-done:
		q.logger.Info("async.shutdown.drained")
		return nil
	}
}
