package task

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/videosnap/internal/domain"
	"github.com/phrazzld/videosnap/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExecutor records runs and optionally blocks until released.
type fakeExecutor struct {
	mu      sync.Mutex
	runs    []uuid.UUID
	block   chan struct{}
	started chan uuid.UUID
	err     error
}

func (f *fakeExecutor) Run(ctx context.Context, taskID uuid.UUID) error {
	f.mu.Lock()
	f.runs = append(f.runs, taskID)
	f.mu.Unlock()

	if f.started != nil {
		f.started <- taskID
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.err
}

func (f *fakeExecutor) Runs() []uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uuid.UUID(nil), f.runs...)
}

func seedTask(t *testing.T, s *mocks.MockTaskStore, status domain.TaskStatus, age time.Duration) *domain.Task {
	t.Helper()

	task, err := domain.NewTask("20260301_01020304.jpg", domain.StyleImaginative, domain.ProviderMinimaxVideo01)
	require.NoError(t, err)

	prompt := "the tide rolls in"
	jobID := "job-1"
	switch status {
	case domain.TaskStatusPromptGenerated:
		task.Prompt = &prompt
	case domain.TaskStatusSubmitted:
		task.Prompt = &prompt
		task.ProviderJobID = &jobID
		submitted := time.Now().UTC().Add(-age)
		task.SubmittedAt = &submitted
	case domain.TaskStatusCompleted:
		output := "20260301_0a0b0c0d.mp4"
		task.Prompt = &prompt
		task.ProviderJobID = &jobID
		task.OutputRef = &output
	}
	task.Status = status
	task.CreatedAt = time.Now().UTC().Add(-age)
	task.UpdatedAt = task.CreatedAt
	require.NoError(t, task.Validate())

	s.Put(task)
	return task
}

func TestTaskRunner_Submit(t *testing.T) {
	t.Run("runs submitted task", func(t *testing.T) {
		exec := &fakeExecutor{started: make(chan uuid.UUID, 1)}
		runner := NewTaskRunner(mocks.NewMockTaskStore(), exec, DefaultTaskRunnerConfig(), setupTestLogger())
		require.NoError(t, runner.Start(context.Background()))
		defer func() { _ = runner.Stop(context.Background()) }()

		id := uuid.New()
		require.NoError(t, runner.Submit(context.Background(), id))

		select {
		case got := <-exec.started:
			assert.Equal(t, id, got)
		case <-time.After(time.Second):
			t.Fatal("task was not run")
		}
	})

	t.Run("deduplicates queued ids", func(t *testing.T) {
		exec := &fakeExecutor{}
		config := DefaultTaskRunnerConfig()
		config.QueueSize = 1
		runner := NewTaskRunner(mocks.NewMockTaskStore(), exec, config, setupTestLogger())

		id := uuid.New()
		require.NoError(t, runner.Submit(context.Background(), id))
		require.NoError(t, runner.Submit(context.Background(), id), "duplicate submit is a no-op")
		assert.Equal(t, 1, runner.InFlight())

		// a different id finds the queue full
		err := runner.Submit(context.Background(), uuid.New())
		assert.ErrorIs(t, err, ErrQueueFull)
		assert.Equal(t, 1, runner.InFlight())
	})

	t.Run("id can be resubmitted after its run", func(t *testing.T) {
		exec := &fakeExecutor{started: make(chan uuid.UUID, 2)}
		runner := NewTaskRunner(mocks.NewMockTaskStore(), exec, DefaultTaskRunnerConfig(), setupTestLogger())
		require.NoError(t, runner.Start(context.Background()))
		defer func() { _ = runner.Stop(context.Background()) }()

		id := uuid.New()
		require.NoError(t, runner.Submit(context.Background(), id))
		<-exec.started
		require.Eventually(t, func() bool { return runner.InFlight() == 0 }, time.Second, 5*time.Millisecond)

		require.NoError(t, runner.Submit(context.Background(), id))
		<-exec.started
		assert.Len(t, exec.Runs(), 2)
	})

	t.Run("rejects after stop", func(t *testing.T) {
		runner := NewTaskRunner(mocks.NewMockTaskStore(), &fakeExecutor{}, DefaultTaskRunnerConfig(), setupTestLogger())
		require.NoError(t, runner.Start(context.Background()))
		require.NoError(t, runner.Stop(context.Background()))

		assert.ErrorIs(t, runner.Submit(context.Background(), uuid.New()), ErrRunnerStopped)
	})
}

func TestNewTaskRunner_DefaultsWorkerCount(t *testing.T) {
	r := NewTaskRunner(mocks.NewMockTaskStore(), &fakeExecutor{}, TaskRunnerConfig{QueueSize: 4}, setupTestLogger())

	assert.Equal(t, DefaultWorkerPoolConfig().WorkerCount, r.config.WorkerCount)
	assert.Equal(t, DefaultWorkerPoolConfig().WorkerCount, r.pool.workerCount)
	assert.Equal(t, DefaultWorkerPoolConfig().WorkerCount, DefaultTaskRunnerConfig().WorkerCount)
}

func TestTaskRunner_ErrorHandler(t *testing.T) {
	exec := &fakeExecutor{err: errors.New("boom")}
	runner := NewTaskRunner(mocks.NewMockTaskStore(), exec, DefaultTaskRunnerConfig(), setupTestLogger())

	failures := make(chan uuid.UUID, 1)
	runner.SetErrorHandler(func(taskID uuid.UUID, err error) {
		failures <- taskID
	})
	require.NoError(t, runner.Start(context.Background()))
	defer func() { _ = runner.Stop(context.Background()) }()

	id := uuid.New()
	require.NoError(t, runner.Submit(context.Background(), id))

	select {
	case got := <-failures:
		assert.Equal(t, id, got)
	case <-time.After(time.Second):
		t.Fatal("error handler not called")
	}
}

func TestTaskRunner_RecoverResubmitsUnfinishedTasks(t *testing.T) {
	s := mocks.NewMockTaskStore()
	idle := seedTask(t, s, domain.TaskStatusIdle, time.Minute)
	prompted := seedTask(t, s, domain.TaskStatusPromptGenerated, time.Minute)
	seedTask(t, s, domain.TaskStatusSubmitted, time.Minute)
	seedTask(t, s, domain.TaskStatusCompleted, time.Minute)

	exec := &fakeExecutor{}
	runner := NewTaskRunner(s, exec, DefaultTaskRunnerConfig(), setupTestLogger())
	require.NoError(t, runner.Start(context.Background()))

	require.Eventually(t, func() bool { return len(exec.Runs()) == 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, runner.Stop(context.Background()))

	assert.ElementsMatch(t, []uuid.UUID{idle.ID, prompted.ID}, exec.Runs())
}

func TestTaskRunner_StopWaitsForRunningTasks(t *testing.T) {
	exec := &fakeExecutor{block: make(chan struct{}), started: make(chan uuid.UUID, 1)}
	runner := NewTaskRunner(mocks.NewMockTaskStore(), exec, DefaultTaskRunnerConfig(), setupTestLogger())
	require.NoError(t, runner.Start(context.Background()))

	require.NoError(t, runner.Submit(context.Background(), uuid.New()))
	<-exec.started

	stopped := make(chan error, 1)
	go func() { stopped <- runner.Stop(context.Background()) }()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a task was running")
	case <-time.After(30 * time.Millisecond):
	}

	close(exec.block)
	select {
	case err := <-stopped:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
}
