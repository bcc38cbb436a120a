package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/videosnap/internal/domain"
	"github.com/phrazzld/videosnap/internal/platform/logger"
	"github.com/phrazzld/videosnap/internal/store"
	goredis "github.com/redis/go-redis/v9"
)

const taskSnapshotPrefix = keyPrefix + "task:"

// CachedTaskStore decorates a store.TaskStore with a snapshot cache for
// terminal tasks. Completed and failed tasks never change, so their cached
// JSON is served without touching the underlying store. Cache faults are
// logged and fall through to the inner store.
type CachedTaskStore struct {
	inner  store.TaskStore
	client goredis.UniversalClient
	ttl    time.Duration
}

var _ store.TaskStore = (*CachedTaskStore)(nil)

// NewCachedTaskStore wraps inner with a snapshot cache using client.
func NewCachedTaskStore(inner store.TaskStore, client goredis.UniversalClient, ttl time.Duration) *CachedTaskStore {
	return &CachedTaskStore{inner: inner, client: client, ttl: ttl}
}

func snapshotKey(id uuid.UUID) string {
	return taskSnapshotPrefix + id.String()
}

// Create delegates to the inner store. New tasks are never terminal.
func (c *CachedTaskStore) Create(ctx context.Context, task *domain.Task) error {
	return c.inner.Create(ctx, task)
}

// GetByID serves terminal snapshots from Redis and otherwise reads through.
func (c *CachedTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContext(ctx)

	data, err := c.client.Get(ctx, snapshotKey(id)).Bytes()
	switch {
	case err == nil:
		var task domain.Task
		jsonErr := json.Unmarshal(data, &task)
		if jsonErr == nil {
			return &task, nil
		}
		log.Warn("discarding corrupt task snapshot",
			slog.String("task_id", id.String()),
			slog.String("error", jsonErr.Error()))
	case !errors.Is(err, goredis.Nil):
		log.Warn("task snapshot lookup failed",
			slog.String("task_id", id.String()),
			slog.String("error", err.Error()))
	}

	task, err := c.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.remember(ctx, task)
	return task, nil
}

// Update delegates to the inner store and caches the result once terminal.
func (c *CachedTaskStore) Update(ctx context.Context, id uuid.UUID, update store.TaskUpdate) (*domain.Task, error) {
	task, err := c.inner.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}
	c.remember(ctx, task)
	return task, nil
}

// ListByStatus always reads the inner store.
func (c *CachedTaskStore) ListByStatus(
	ctx context.Context,
	status domain.TaskStatus,
	olderThan time.Duration,
	limit int,
) ([]*domain.Task, error) {
	return c.inner.ListByStatus(ctx, status, olderThan, limit)
}

// ListPage always reads the inner store.
func (c *CachedTaskStore) ListPage(
	ctx context.Context,
	status domain.TaskStatus,
	after *store.TaskCursor,
	limit int,
) ([]*domain.Task, error) {
	return c.inner.ListPage(ctx, status, after, limit)
}

func (c *CachedTaskStore) remember(ctx context.Context, task *domain.Task) {
	if !task.Status.IsTerminal() {
		return
	}

	data, err := json.Marshal(task)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, snapshotKey(task.ID), data, c.ttl).Err(); err != nil {
		logger.FromContext(ctx).Warn("failed to cache task snapshot",
			slog.String("task_id", task.ID.String()),
			slog.String("error", err.Error()))
	}
}
