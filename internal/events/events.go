package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TaskEvent announces something that happened to a stored task.
type TaskEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type names what happened, for example "i2v_task_created"
	Type string `json:"type"`

	// TaskID is the task the event is about
	TaskID uuid.UUID `json:"task_id"`

	// CreatedAt is when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// NewTaskEvent creates an event of eventType for taskID.
func NewTaskEvent(eventType string, taskID uuid.UUID) *TaskEvent {
	return &TaskEvent{
		ID:        uuid.New(),
		Type:      eventType,
		TaskID:    taskID,
		CreatedAt: time.Now().UTC(),
	}
}

// EventHandler is implemented by components that react to task events.
type EventHandler interface {
	// HandleEvent processes the event. Handlers must not block on long work.
	HandleEvent(ctx context.Context, event *TaskEvent) error
}

// HandlerFunc adapts a function to EventHandler.
type HandlerFunc func(ctx context.Context, event *TaskEvent) error

// HandleEvent implements EventHandler.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *TaskEvent) error {
	return f(ctx, event)
}

// EventEmitter publishes events without knowing which handlers receive them.
type EventEmitter interface {
	// EmitEvent publishes the event to all registered handlers.
	EmitEvent(ctx context.Context, event *TaskEvent) error
}
