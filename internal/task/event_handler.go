package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/videosnap/internal/events"
)

// TaskCreatedEventHandler implements events.EventHandler by handing newly
// created tasks to a Submitter.
type TaskCreatedEventHandler struct {
	submitter Submitter
	logger    *slog.Logger
}

// NewTaskCreatedEventHandler creates a handler submitting to submitter.
func NewTaskCreatedEventHandler(submitter Submitter, logger *slog.Logger) *TaskCreatedEventHandler {
	return &TaskCreatedEventHandler{
		submitter: submitter,
		logger:    logger.With("component", "task_created_event_handler"),
	}
}

// HandleEvent submits the task named by a creation event. Other event types
// are ignored.
func (h *TaskCreatedEventHandler) HandleEvent(ctx context.Context, event *events.TaskEvent) error {
	if event.Type != TaskTypeI2VCreated {
		h.logger.Debug("ignoring event with unsupported type",
			"event_type", event.Type,
			"event_id", event.ID)
		return nil
	}
	if event.TaskID == uuid.Nil {
		return fmt.Errorf("event %s carries no task id", event.ID)
	}

	if err := h.submitter.Submit(ctx, event.TaskID); err != nil {
		h.logger.Error("failed to submit task",
			"error", err,
			"task_id", event.TaskID,
			"event_id", event.ID)
		return fmt.Errorf("failed to submit task: %w", err)
	}

	h.logger.Debug("task submitted", "task_id", event.TaskID, "event_id", event.ID)
	return nil
}

// Ensure TaskCreatedEventHandler implements events.EventHandler
var _ events.EventHandler = (*TaskCreatedEventHandler)(nil)
