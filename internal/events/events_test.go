package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTaskEvent(t *testing.T) {
	taskID := uuid.New()
	event := NewTaskEvent("i2v_task_created", taskID)

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, "i2v_task_created", event.Type)
	assert.Equal(t, taskID, event.TaskID)
	assert.WithinDuration(t, time.Now(), event.CreatedAt, 2*time.Second)

	other := NewTaskEvent("i2v_task_created", taskID)
	assert.NotEqual(t, event.ID, other.ID, "each event gets its own id")

	data, err := json.Marshal(event)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"task_id":"`+taskID.String()+`"`)
}
