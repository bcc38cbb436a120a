package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/videosnap/internal/domain"
)

// TaskUpdate describes a partial update of a task record.
// Nil fields are left untouched. When ExpectStatus is set the update only
// applies if the stored status still equals it; otherwise ErrStatusConflict
// is returned.
type TaskUpdate struct {
	ExpectStatus  *domain.TaskStatus
	Status        *domain.TaskStatus
	Prompt        *string
	ProviderJobID *string
	OutputRef     *string
	FailureReason *string
	SubmittedAt   *time.Time
	CheckFailures *int

	// IncrementCheckFailures adds one to the stored counter, after any
	// CheckFailures value is applied. Implementations apply it to the locked
	// row, so concurrent increments are never lost.
	IncrementCheckFailures bool
}

// IsEmpty reports whether the update changes no field.
func (u TaskUpdate) IsEmpty() bool {
	return u.Status == nil && u.Prompt == nil && u.ProviderJobID == nil &&
		u.OutputRef == nil && u.FailureReason == nil && u.SubmittedAt == nil &&
		u.CheckFailures == nil && !u.IncrementCheckFailures
}

// Apply copies the non-nil fields of the update onto task and bumps UpdatedAt.
// It does not check ExpectStatus; implementations do that against durable state.
func (u TaskUpdate) Apply(task *domain.Task, now time.Time) {
	if u.Status != nil {
		task.Status = *u.Status
	}
	if u.Prompt != nil {
		v := *u.Prompt
		task.Prompt = &v
	}
	if u.ProviderJobID != nil {
		v := *u.ProviderJobID
		task.ProviderJobID = &v
	}
	if u.OutputRef != nil {
		v := *u.OutputRef
		task.OutputRef = &v
	}
	if u.FailureReason != nil {
		v := *u.FailureReason
		task.FailureReason = &v
	}
	if u.SubmittedAt != nil {
		v := *u.SubmittedAt
		task.SubmittedAt = &v
	}
	if u.CheckFailures != nil {
		task.CheckFailures = *u.CheckFailures
	}
	if u.IncrementCheckFailures {
		task.CheckFailures++
	}
	task.UpdatedAt = now
}

// TaskCursor is a position in (CreatedAt, ID) order, used to page through
// tasks of one status across calls.
type TaskCursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// CursorAt returns the cursor positioned at task; a page listed after it
// starts with the next task.
func CursorAt(task *domain.Task) *TaskCursor {
	return &TaskCursor{CreatedAt: task.CreatedAt, ID: task.ID}
}

// After reports whether task sorts strictly after the cursor.
func (c *TaskCursor) After(task *domain.Task) bool {
	if c == nil {
		return true
	}
	if !task.CreatedAt.Equal(c.CreatedAt) {
		return task.CreatedAt.After(c.CreatedAt)
	}
	return task.ID.String() > c.ID.String()
}

// TaskStore defines the interface for image-to-video task persistence.
// Version: 1.0
type TaskStore interface {
	// Create saves a new task to the store.
	// Returns validation errors from the domain Task if data is invalid.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Update applies a partial update and returns the task as stored afterwards.
	// Returns ErrTaskNotFound if the task does not exist and ErrStatusConflict
	// if ExpectStatus no longer matches.
	Update(ctx context.Context, id uuid.UUID, update TaskUpdate) (*domain.Task, error)

	// ListByStatus returns up to limit tasks in the given status whose last
	// update is older than olderThan (zero means any age), oldest first.
	ListByStatus(
		ctx context.Context,
		status domain.TaskStatus,
		olderThan time.Duration,
		limit int,
	) ([]*domain.Task, error)

	// ListPage returns up to limit tasks in the given status ordered by
	// (CreatedAt, ID), starting after the cursor. A nil cursor starts from
	// the oldest task.
	ListPage(
		ctx context.Context,
		status domain.TaskStatus,
		after *TaskCursor,
		limit int,
	) ([]*domain.Task, error)
}
