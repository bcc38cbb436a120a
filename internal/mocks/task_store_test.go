package mocks_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/videosnap/internal/domain"
	"github.com/phrazzld/videosnap/internal/mocks"
	"github.com/phrazzld/videosnap/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockTaskStore_EnforcesStoreRules(t *testing.T) {
	ctx := context.Background()
	s := mocks.NewMockTaskStore()

	task, err := domain.NewTask("a.png", domain.StyleRealistic, domain.ProviderMinimaxVideo01)
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, task))
	assert.ErrorIs(t, s.Create(ctx, task), store.ErrDuplicate)

	idle := domain.TaskStatusIdle
	submitted := domain.TaskStatusSubmitted
	_, err = s.Update(ctx, task.ID, store.TaskUpdate{Status: &submitted})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "idle cannot skip to submitted")

	next := domain.TaskStatusPromptGenerated
	prompt := "p"
	_, err = s.Update(ctx, task.ID, store.TaskUpdate{ExpectStatus: &idle, Status: &next, Prompt: &prompt})
	require.NoError(t, err)

	_, err = s.Update(ctx, task.ID, store.TaskUpdate{ExpectStatus: &idle, Status: &next})
	assert.ErrorIs(t, err, store.ErrStatusConflict)
	assert.Len(t, s.Updates(), 1)

	assets := mocks.NewMockAssetStore()
	name, err := assets.Put(ctx, []byte("x"))
	require.NoError(t, err)
	data, err := assets.Get(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), data)
	_, err = assets.Get(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrAssetNotFound)
}

func TestMockTaskStore_ListPage(t *testing.T) {
	ctx := context.Background()
	s := mocks.NewMockTaskStore()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		task, err := domain.NewTask("a.png", domain.StyleRealistic, domain.ProviderMinimaxVideo01)
		require.NoError(t, err)
		task.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		s.Put(task)
		ids = append(ids, task.ID)
	}

	page, err := s.ListPage(ctx, domain.TaskStatusIdle, nil, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ids[0], page[0].ID)
	assert.Equal(t, ids[1], page[1].ID)

	page, err = s.ListPage(ctx, domain.TaskStatusIdle, store.CursorAt(page[1]), 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, ids[2], page[0].ID)

	page, err = s.ListPage(ctx, domain.TaskStatusFailed, nil, 2)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestMockTaskStore_IncrementCheckFailures(t *testing.T) {
	ctx := context.Background()
	s := mocks.NewMockTaskStore()

	task, err := domain.NewTask("a.png", domain.StyleRealistic, domain.ProviderMinimaxVideo01)
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, task))

	for want := 1; want <= 3; want++ {
		updated, err := s.Update(ctx, task.ID, store.TaskUpdate{IncrementCheckFailures: true})
		require.NoError(t, err)
		assert.Equal(t, want, updated.CheckFailures)
	}

	reset := 0
	updated, err := s.Update(ctx, task.ID, store.TaskUpdate{CheckFailures: &reset, IncrementCheckFailures: true})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.CheckFailures, "an explicit value is applied before the increment")
}
