package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/videosnap/internal/domain"
	"github.com/phrazzld/videosnap/internal/events"
	"github.com/phrazzld/videosnap/internal/store"
	"github.com/phrazzld/videosnap/internal/task"
	"golang.org/x/sync/errgroup"
)

// MaxStatusBatch is the largest number of task ids accepted by one status query.
const MaxStatusBatch = 100

// TaskService creates image-to-video tasks and reports their progress.
type TaskService interface {
	// Create stores the image, persists a new idle task and schedules its
	// background run. It returns without waiting for the run.
	Create(ctx context.Context, style domain.Style, image []byte) (*domain.Task, error)

	// GetStatuses loads and reconciles each task. Ids that are unparsable or
	// not found are skipped; results follow the order of the input ids.
	GetStatuses(ctx context.Context, taskIDs []string) ([]*domain.Task, error)

	// GetAsset returns a stored blob by name.
	GetAsset(ctx context.Context, name string) ([]byte, error)
}

// TaskServiceConfig holds the tunables of the task service.
type TaskServiceConfig struct {
	// DefaultProvider is assigned to every new task.
	DefaultProvider domain.ProviderID
	// StatusConcurrency bounds concurrent reconciles in one status query.
	StatusConcurrency int
}

type taskServiceImpl struct {
	tasks      store.TaskStore
	assets     store.AssetStore
	emitter    events.EventEmitter
	reconciler task.Reconciler
	config     TaskServiceConfig
	logger     *slog.Logger
}

// NewTaskService creates a TaskService.
// It returns an error if any of the required dependencies are nil.
func NewTaskService(
	tasks store.TaskStore,
	assets store.AssetStore,
	emitter events.EventEmitter,
	reconciler task.Reconciler,
	config TaskServiceConfig,
	logger *slog.Logger,
) (TaskService, error) {
	switch {
	case tasks == nil:
		return nil, NewServiceError("task", "new", errors.New("tasks cannot be nil"))
	case assets == nil:
		return nil, NewServiceError("task", "new", errors.New("assets cannot be nil"))
	case emitter == nil:
		return nil, NewServiceError("task", "new", errors.New("emitter cannot be nil"))
	case reconciler == nil:
		return nil, NewServiceError("task", "new", errors.New("reconciler cannot be nil"))
	case config.DefaultProvider == "":
		return nil, NewServiceError("task", "new", domain.ErrEmptyProvider)
	}

	if config.StatusConcurrency <= 0 {
		config.StatusConcurrency = 8
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &taskServiceImpl{
		tasks:      tasks,
		assets:     assets,
		emitter:    emitter,
		reconciler: reconciler,
		config:     config,
		logger:     logger.With("component", "task_service"),
	}, nil
}

// Create implements TaskService.
func (s *taskServiceImpl) Create(ctx context.Context, style domain.Style, image []byte) (*domain.Task, error) {
	if !style.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStyle, style)
	}
	if len(image) == 0 {
		return nil, ErrEmptyImage
	}

	ref, err := s.assets.Put(ctx, image)
	if err != nil {
		return nil, NewServiceError("task", "create", fmt.Errorf("store source image: %w", err))
	}

	t, err := domain.NewTask(ref, style, s.config.DefaultProvider)
	if err != nil {
		return nil, NewServiceError("task", "create", err)
	}
	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, NewServiceError("task", "create", err)
	}

	log := s.logger.With("task_id", t.ID.String(), "provider", string(t.Provider))

	// The task is durable at this point; a failed hand-off leaves it idle
	// for the sweeper rather than failing the request.
	if err := s.emitter.EmitEvent(ctx, events.NewTaskEvent(task.TaskTypeI2VCreated, t.ID)); err != nil {
		log.Warn("failed to schedule task run", "error", err)
	}

	log.Info("task created", "style", string(style), "source_image", ref)
	return t, nil
}

// GetStatuses implements TaskService.
func (s *taskServiceImpl) GetStatuses(ctx context.Context, taskIDs []string) ([]*domain.Task, error) {
	if len(taskIDs) > MaxStatusBatch {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyTaskIDs, len(taskIDs), MaxStatusBatch)
	}

	ids := make([]uuid.UUID, 0, len(taskIDs))
	seen := make(map[uuid.UUID]struct{}, len(taskIDs))
	for _, raw := range taskIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			s.logger.Debug("skipping unparsable task id", "task_id", raw)
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	results := make([]*domain.Task, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.StatusConcurrency)

	for i, id := range ids {
		g.Go(func() error {
			t, err := s.tasks.GetByID(gctx, id)
			if err != nil {
				if store.IsNotFoundError(err) {
					return nil
				}
				return NewServiceError("task", "get_statuses", err)
			}

			reconciled, err := s.reconciler.Reconcile(gctx, t)
			if err != nil {
				s.logger.Warn("reconcile failed, returning stored state",
					"task_id", id.String(),
					"error", err)
				reconciled = t
			}
			if reconciled == nil {
				reconciled = t
			}
			results[i] = reconciled
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	found := make([]*domain.Task, 0, len(results))
	for _, t := range results {
		if t != nil {
			found = append(found, t)
		}
	}
	return found, nil
}

// GetAsset implements TaskService.
func (s *taskServiceImpl) GetAsset(ctx context.Context, name string) ([]byte, error) {
	data, err := s.assets.Get(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrAssetNotFound) {
			return nil, ErrAssetNotFound
		}
		return nil, NewServiceError("task", "get_asset", err)
	}
	return data, nil
}
