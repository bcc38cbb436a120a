package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// HandlerFunc processes one task id taken from the queue.
type HandlerFunc func(ctx context.Context, taskID uuid.UUID)

// WorkerPool manages a pool of worker goroutines that process task ids
// from a task queue. It handles graceful shutdown and worker lifecycle.
type WorkerPool struct {
	// taskQueue provides read access to the ids to be processed
	taskQueue TaskQueueReader

	handler HandlerFunc

	// workerCount is the number of concurrent workers to start
	workerCount int

	// wg tracks active worker goroutines for clean shutdown
	wg sync.WaitGroup

	// ctx is passed to handlers; cancelled only when a graceful stop times out
	ctx    context.Context
	cancel context.CancelFunc

	// quit tells idle workers to stop taking new ids
	quit     chan struct{}
	stopOnce sync.Once

	logger *slog.Logger
}

// WorkerPoolConfig holds configuration options for the worker pool
type WorkerPoolConfig struct {
	// WorkerCount determines how many concurrent worker goroutines to start
	// If zero or negative, defaults to 1
	WorkerCount int
}

// DefaultWorkerPoolConfig returns a WorkerPoolConfig with reasonable defaults
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		WorkerCount: 4,
	}
}

// NewWorkerPool creates a new worker pool with the specified configuration
func NewWorkerPool(
	taskQueue TaskQueueReader,
	handler HandlerFunc,
	config WorkerPoolConfig,
	logger *slog.Logger,
) *WorkerPool {
	workerCount := config.WorkerCount
	if workerCount <= 0 {
		workerCount = 1
		logger.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", 1)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		taskQueue:   taskQueue,
		handler:     handler,
		workerCount: workerCount,
		ctx:         ctx,
		cancel:      cancel,
		quit:        make(chan struct{}),
		logger:      logger,
	}
}

// Start launches the worker goroutines.
func (p *WorkerPool) Start() {
	p.logger.Info("starting worker pool", "worker_count", p.workerCount)
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop stops taking new work and waits for in-flight handlers to return.
// If ctx expires first, the handlers' context is cancelled and Stop waits
// for them to unwind before returning ctx's error.
func (p *WorkerPool) Stop(ctx context.Context) error {
	p.stopOnce.Do(func() { close(p.quit) })

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.logger.Info("worker pool stopped")
		return nil
	case <-ctx.Done():
		p.logger.Warn("worker pool stop timed out, cancelling in-flight work")
		p.cancel()
		<-done
		return fmt.Errorf("worker pool stop: %w", ctx.Err())
	}
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("starting worker", "worker_id", id)
	ch := p.taskQueue.GetChannel()

	for {
		// checked first so a busy queue cannot starve shutdown
		select {
		case <-p.quit:
			p.logger.Debug("stopping worker", "worker_id", id)
			return
		default:
		}

		select {
		case <-p.quit:
			p.logger.Debug("stopping worker", "worker_id", id)
			return
		case taskID, ok := <-ch:
			if !ok {
				p.logger.Debug("task channel closed, stopping worker", "worker_id", id)
				return
			}
			p.process(id, taskID)
		}
	}
}

// process runs the handler and keeps a panic from killing the worker.
func (p *WorkerPool) process(workerID int, taskID uuid.UUID) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("task handler panicked",
				"worker_id", workerID,
				"task_id", taskID,
				"panic", r)
		}
	}()

	p.handler(p.ctx, taskID)
}
