package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is a unit of work executed by the queue worker.
type Task func(ctx context.Context) error

// QueueConfig configures the queue.
type QueueConfig struct {
	BufferSize int
	Logger     *zap.Logger
}

// workerKey marks task contexts with the queue running them.
type workerKey struct{}

type job struct {
	name     string
	task     Task
	ctx      context.Context
	done     chan error
	enqueued time.Time
}

// Queue runs submitted tasks one at a time, in submission order, on a single
// worker goroutine. Read-modify-write sequences executed as one task can
// therefore never interleave with each other.
type Queue struct {
	name   string
	logger *zap.Logger

	jobs    chan job
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewQueue builds a stopped queue.
func NewQueue(name string, cfg QueueConfig) *Queue {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 16
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Queue{
		name:   name,
		logger: cfg.Logger,
		jobs:   make(chan job, cfg.BufferSize),
	}
}

// Start launches the worker. Safe to call more than once.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	q.wg.Add(1)
	go q.worker()
	q.started = true
	q.logger.Sugar().Infow("queue started", "queue", q.name)
}

// Stop cancels the worker and waits for it to exit. Tasks still buffered
// fail with a cancellation error.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.mu.Unlock()
	q.wg.Wait()
	q.logger.Sugar().Infow("queue stopped", "queue", q.name)
}

// Do enqueues task and blocks until it has run, returning its error. The
// task receives ctx. If ctx ends before the task is picked up, the task is
// skipped and ctx.Err() is returned.
//
// Called with the context of a task already running on q, Do runs task
// inline as part of that task, so a task may compose other queued
// operations without waiting on its own worker.
func (q *Queue) Do(ctx context.Context, name string, task Task) error {
	if owner, _ := ctx.Value(workerKey{}).(*Queue); owner == q {
		if err := ctx.Err(); err != nil {
			return err
		}
		q.logger.Sugar().Debugw("task nested", "queue", q.name, "task", name)
		return task(ctx)
	}

	q.mu.Lock()
	qctx := q.ctx
	started := q.started
	q.mu.Unlock()

	if !started {
		return fmt.Errorf("queue %s not started", q.name)
	}

	j := job{name: name, task: task, ctx: ctx, done: make(chan error, 1), enqueued: time.Now()}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-qctx.Done():
		return fmt.Errorf("queue %s stopped: %w", q.name, qctx.Err())
	case q.jobs <- j:
	}

	select {
	case err := <-j.done:
		return err
	case <-qctx.Done():
		return fmt.Errorf("queue %s stopped: %w", q.name, qctx.Err())
	}
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			q.drain()
			return
		case j := <-q.jobs:
			j.done <- q.run(j)
		}
	}
}

func (q *Queue) run(j job) (err error) {
	if err := j.ctx.Err(); err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			q.logger.Sugar().Errorw("task panicked", "queue", q.name, "task", j.name, "panic", r)
			err = fmt.Errorf("task %s panicked: %v", j.name, r)
		}
	}()
	start := time.Now()
	err = j.task(context.WithValue(j.ctx, workerKey{}, q))
	q.logger.Sugar().Debugw("task finished", "queue", q.name, "task", j.name,
		"wait", start.Sub(j.enqueued), "run", time.Since(start), "error", err)
	return err
}

func (q *Queue) drain() {
	for {
		select {
		case j := <-q.jobs:
			j.done <- fmt.Errorf("queue %s stopped: %w", q.name, context.Canceled)
		default:
			return
		}
	}
}
