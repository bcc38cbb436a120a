package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/videosnap/internal/domain"
	"github.com/phrazzld/videosnap/internal/store"
)

// ErrRunnerStopped is returned by Submit after Stop was called.
var ErrRunnerStopped = errors.New("task runner is stopped")

// TaskRunnerConfig holds configuration for the task runner
type TaskRunnerConfig struct {
	// WorkerCount determines how many tasks run concurrently
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory task queue
	QueueSize int

	// RecoveryBatchSize bounds how many unfinished tasks per status are
	// resubmitted at startup. Zero means QueueSize.
	RecoveryBatchSize int
}

// DefaultTaskRunnerConfig returns a TaskRunnerConfig with reasonable defaults
func DefaultTaskRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount: DefaultWorkerPoolConfig().WorkerCount,
		QueueSize:   100,
	}
}

// TaskRunner executes the background run of tasks on a bounded worker pool.
// A task id that is queued or running is not accepted twice.
type TaskRunner struct {
	store    store.TaskStore
	executor Executor
	queue    TaskQueueWriter
	pool     *WorkerPool
	config   TaskRunnerConfig
	logger   *slog.Logger

	mu       sync.Mutex
	inflight map[uuid.UUID]struct{}
	stopped  bool

	// errHandler is called when a run returns an error
	errHandler func(taskID uuid.UUID, err error)
}

var _ Submitter = (*TaskRunner)(nil)

// NewTaskRunner creates a new TaskRunner
func NewTaskRunner(
	taskStore store.TaskStore,
	executor Executor,
	config TaskRunnerConfig,
	logger *slog.Logger,
) *TaskRunner {
	logger = logger.With("component", "task_runner")
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultTaskRunnerConfig().QueueSize
	}
	poolConfig := DefaultWorkerPoolConfig()
	if config.WorkerCount > 0 {
		poolConfig.WorkerCount = config.WorkerCount
	}
	config.WorkerCount = poolConfig.WorkerCount

	queue := NewTaskQueue(config.QueueSize, logger)
	r := &TaskRunner{
		store:    taskStore,
		executor: executor,
		queue:    queue,
		config:   config,
		logger:   logger,
		inflight: make(map[uuid.UUID]struct{}),
		errHandler: func(taskID uuid.UUID, err error) {
			logger.Error("task run failed", "task_id", taskID, "error", err)
		},
	}
	r.pool = NewWorkerPool(queue, r.process, poolConfig, logger)
	return r
}

// SetErrorHandler allows setting a custom error handler function
func (r *TaskRunner) SetErrorHandler(handler func(taskID uuid.UUID, err error)) {
	r.errHandler = handler
}

// Submit queues a task for background execution without blocking.
// Submitting an id that is already queued or running is a no-op.
func (r *TaskRunner) Submit(ctx context.Context, taskID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return ErrRunnerStopped
	}
	if _, busy := r.inflight[taskID]; busy {
		r.logger.Debug("task already queued or running", "task_id", taskID)
		return nil
	}

	if err := r.queue.Enqueue(taskID); err != nil {
		return fmt.Errorf("failed to queue task %s: %w", taskID, err)
	}
	r.inflight[taskID] = struct{}{}
	return nil
}

// InFlight returns the number of queued or running tasks.
func (r *TaskRunner) InFlight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inflight)
}

// Start resubmits unfinished tasks from previous runs and starts the workers.
func (r *TaskRunner) Start(ctx context.Context) error {
	if err := r.Recover(ctx); err != nil {
		return fmt.Errorf("failed to recover tasks: %w", err)
	}
	r.pool.Start()
	return nil
}

// Stop stops accepting tasks and waits for running ones to finish, up to
// ctx's deadline. Queued tasks that never started stay in their durable
// state and are picked up by recovery or the sweeper.
func (r *TaskRunner) Stop(ctx context.Context) error {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()

	err := r.pool.Stop(ctx)
	r.queue.Close()
	return err
}

// Recover resubmits tasks left idle or prompt_generated by a previous
// process. A prompt_generated task resumes at submission.
func (r *TaskRunner) Recover(ctx context.Context) error {
	limit := r.config.RecoveryBatchSize
	if limit <= 0 {
		limit = r.config.QueueSize
	}

	recovered := 0
	for _, status := range []domain.TaskStatus{domain.TaskStatusIdle, domain.TaskStatusPromptGenerated} {
		tasks, err := r.store.ListByStatus(ctx, status, 0, limit)
		if err != nil {
			return fmt.Errorf("failed to list %s tasks: %w", status, err)
		}

		for _, t := range tasks {
			if err := r.Submit(ctx, t.ID); err != nil {
				// the sweeper retries these later
				r.logger.Error("failed to requeue task",
					"task_id", t.ID,
					"status", status,
					"error", err)
				continue
			}
			recovered++
		}
	}

	r.logger.Info("recovered unfinished tasks", "count", recovered)
	return nil
}

// process handles execution of a single task
func (r *TaskRunner) process(ctx context.Context, taskID uuid.UUID) {
	defer func() {
		r.mu.Lock()
		delete(r.inflight, taskID)
		r.mu.Unlock()
	}()

	if err := r.executor.Run(ctx, taskID); err != nil {
		r.errHandler(taskID, err)
	}
}
