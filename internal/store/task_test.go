package store

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/videosnap/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestTaskCursor_After(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	low := uuid.MustParse("00000000-0000-4000-8000-000000000001")
	high := uuid.MustParse("ffffffff-0000-4000-8000-000000000001")

	cursor := CursorAt(&domain.Task{ID: low, CreatedAt: at})

	tests := []struct {
		name string
		task *domain.Task
		want bool
	}{
		{"later task", &domain.Task{ID: low, CreatedAt: at.Add(time.Second)}, true},
		{"earlier task", &domain.Task{ID: high, CreatedAt: at.Add(-time.Second)}, false},
		{"same time, higher id", &domain.Task{ID: high, CreatedAt: at}, true},
		{"the cursor task itself", &domain.Task{ID: low, CreatedAt: at}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cursor.After(tt.task))
		})
	}

	var start *TaskCursor
	assert.True(t, start.After(&domain.Task{ID: low, CreatedAt: at}), "a nil cursor admits every task")
}

func TestTaskUpdate_IncrementCheckFailures(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	task := &domain.Task{CheckFailures: 2}

	update := TaskUpdate{IncrementCheckFailures: true}
	assert.False(t, update.IsEmpty())

	update.Apply(task, now)
	assert.Equal(t, 3, task.CheckFailures)
	assert.Equal(t, now, task.UpdatedAt)
}
