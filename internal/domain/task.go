package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the lifecycle state of an image-to-video task
type TaskStatus string

// Possible task status values
const (
	TaskStatusIdle            TaskStatus = "idle"
	TaskStatusPromptGenerated TaskStatus = "prompt_generated"
	TaskStatusSubmitted       TaskStatus = "submitted"
	TaskStatusCompleted       TaskStatus = "completed"
	TaskStatusFailed          TaskStatus = "failed"
)

// Style selects which prompt-generation style is used for a task.
type Style string

// Supported styles
const (
	StyleImaginative Style = "imaginative"
	StyleRealistic   Style = "realistic"
)

// ProviderID names the video generation provider that owns a task.
// It is fixed at creation time.
type ProviderID string

// Known providers
const (
	ProviderMinimaxVideo01 ProviderID = "minimax/video-01"
)

// Task is one image-to-video conversion request and its tracked lifecycle.
// Optional fields are nil until the lifecycle step that produces them succeeds.
type Task struct {
	ID             uuid.UUID  `json:"id"`
	SourceImageRef string     `json:"source_image_ref"`
	Style          Style      `json:"style"`
	Provider       ProviderID `json:"provider"`
	Prompt         *string    `json:"prompt,omitempty"`
	ProviderJobID  *string    `json:"provider_job_id,omitempty"`
	OutputRef      *string    `json:"output_ref,omitempty"`
	Status         TaskStatus `json:"status"`
	FailureReason  *string    `json:"failure_reason,omitempty"`
	SubmittedAt    *time.Time `json:"submitted_at,omitempty"`
	CheckFailures  int        `json:"check_failures"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewTask creates a new Task in the idle state.
// Returns an error if validation fails.
func NewTask(sourceImageRef string, style Style, provider ProviderID) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:             uuid.New(),
		SourceImageRef: sourceImageRef,
		Style:          style,
		Provider:       provider,
		Status:         TaskStatusIdle,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks the task's identity fields and that the populated optional
// fields are consistent with its status.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}
	if t.SourceImageRef == "" {
		return ErrEmptySourceImageRef
	}
	if !t.Style.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStyle, t.Style)
	}
	if t.Provider == "" {
		return ErrEmptyProvider
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidTaskStatus, t.Status)
	}

	hasPrompt := t.Prompt != nil
	hasJob := t.ProviderJobID != nil
	hasOutput := t.OutputRef != nil

	var ok bool
	switch t.Status {
	case TaskStatusIdle:
		ok = !hasPrompt && !hasJob && !hasOutput
	case TaskStatusPromptGenerated:
		ok = hasPrompt && !hasJob && !hasOutput
	case TaskStatusSubmitted:
		ok = hasPrompt && hasJob && !hasOutput
	case TaskStatusCompleted:
		ok = hasPrompt && hasJob && hasOutput
	case TaskStatusFailed:
		// failure may happen after any step, so prompt and job id are optional
		ok = !hasOutput && (!hasJob || hasPrompt)
	}
	if !ok {
		return fmt.Errorf("%w: status %s", ErrFieldsMismatch, t.Status)
	}

	return nil
}

// IsValid reports whether s is a known style.
func (s Style) IsValid() bool {
	switch s {
	case StyleImaginative, StyleRealistic:
		return true
	default:
		return false
	}
}

// IsValid reports whether s is a known task status.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusIdle, TaskStatusPromptGenerated, TaskStatusSubmitted,
		TaskStatusCompleted, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transitions are possible from s.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// transitions lists the allowed forward moves. Failure is handled separately
// because it is reachable from every non-terminal state.
var transitions = map[TaskStatus]TaskStatus{
	TaskStatusIdle:            TaskStatusPromptGenerated,
	TaskStatusPromptGenerated: TaskStatusSubmitted,
	TaskStatusSubmitted:       TaskStatusCompleted,
}

// CanTransition reports whether a task may move from one status to another.
func CanTransition(from, to TaskStatus) bool {
	if from.IsTerminal() {
		return false
	}
	if to == TaskStatusFailed {
		return true
	}
	next, ok := transitions[from]
	return ok && next == to
}

// CheckTransition returns ErrInvalidTransition when from -> to is not allowed.
func CheckTransition(from, to TaskStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	c := *t
	c.Prompt = clonePtr(t.Prompt)
	c.ProviderJobID = clonePtr(t.ProviderJobID)
	c.OutputRef = clonePtr(t.OutputRef)
	c.FailureReason = clonePtr(t.FailureReason)
	c.SubmittedAt = clonePtr(t.SubmittedAt)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
