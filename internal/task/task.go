package task

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/videosnap/internal/domain"
	"github.com/phrazzld/videosnap/internal/video"
)

// TaskTypeI2VCreated is the event type emitted when a task has been created
// and is ready for background execution.
const TaskTypeI2VCreated = "i2v_task_created"

// Executor runs the background portion of a task's lifecycle.
type Executor interface {
	Run(ctx context.Context, taskID uuid.UUID) error
}

// Reconciler folds a provider's job status into a submitted task.
type Reconciler interface {
	Reconcile(ctx context.Context, task *domain.Task) (*domain.Task, error)
}

// Submitter hands a task id to background execution.
type Submitter interface {
	Submit(ctx context.Context, taskID uuid.UUID) error
}

// ProviderResolver looks up a provider implementation by id.
type ProviderResolver interface {
	Resolve(id domain.ProviderID) (video.Provider, error)
}

// ReconcileLocker guards reconciliation of a single task across processes.
type ReconcileLocker interface {
	TryLock(ctx context.Context, taskID uuid.UUID) (release func(), acquired bool, err error)
}

// TaskQueueReader provides read-only access to queued task ids
// allowing workers to consume them without the ability to enqueue
type TaskQueueReader interface {
	// GetChannel returns a read-only channel for consuming task ids
	GetChannel() <-chan uuid.UUID
}

// TaskQueueWriter provides write access to the task queue
type TaskQueueWriter interface {
	// Enqueue adds a task id to the queue for processing
	// Returns an error if the queue is full or closed
	Enqueue(taskID uuid.UUID) error

	// Close closes the task queue, preventing further submission
	Close()
}
