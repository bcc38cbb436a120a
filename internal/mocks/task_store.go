package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/videosnap/internal/domain"
	"github.com/phrazzld/videosnap/internal/store"
)

// MockTaskStore implements store.TaskStore for testing. Without function
// overrides it behaves like the durable store: an in-memory map with the
// same validation, transition and compare-and-set rules.
type MockTaskStore struct {
	CreateFn       func(ctx context.Context, task *domain.Task) error
	GetByIDFn      func(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	UpdateFn       func(ctx context.Context, id uuid.UUID, update store.TaskUpdate) (*domain.Task, error)
	ListByStatusFn func(ctx context.Context, status domain.TaskStatus, olderThan time.Duration, limit int) ([]*domain.Task, error)
	ListPageFn     func(ctx context.Context, status domain.TaskStatus, after *store.TaskCursor, limit int) ([]*domain.Task, error)

	// Now is used for UpdatedAt stamps; defaults to time.Now.
	Now func() time.Time

	mu      sync.Mutex
	tasks   map[uuid.UUID]*domain.Task
	updates []store.TaskUpdate
}

var _ store.TaskStore = (*MockTaskStore)(nil)

// NewMockTaskStore creates an empty in-memory store.
func NewMockTaskStore() *MockTaskStore {
	return &MockTaskStore{tasks: make(map[uuid.UUID]*domain.Task)}
}

func (m *MockTaskStore) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now().UTC()
}

// Put stores a copy of task without validation, for seeding fixtures.
func (m *MockTaskStore) Put(task *domain.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tasks == nil {
		m.tasks = make(map[uuid.UUID]*domain.Task)
	}
	m.tasks[task.ID] = task.Clone()
}

// Get returns a copy of the stored task, or nil.
func (m *MockTaskStore) Get(id uuid.UUID) *domain.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok {
		return nil
	}
	return task.Clone()
}

// Updates returns every update that changed stored state, in order.
func (m *MockTaskStore) Updates() []store.TaskUpdate {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]store.TaskUpdate(nil), m.updates...)
}

// Create implements store.TaskStore
func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, task)
	}
	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tasks == nil {
		m.tasks = make(map[uuid.UUID]*domain.Task)
	}
	if _, exists := m.tasks[task.ID]; exists {
		return store.ErrDuplicate
	}
	m.tasks[task.ID] = task.Clone()
	return nil
}

// GetByID implements store.TaskStore
func (m *MockTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	task := m.Get(id)
	if task == nil {
		return nil, store.ErrTaskNotFound
	}
	return task, nil
}

// Update implements store.TaskStore
func (m *MockTaskStore) Update(ctx context.Context, id uuid.UUID, update store.TaskUpdate) (*domain.Task, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, id, update)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	if update.ExpectStatus != nil && stored.Status != *update.ExpectStatus {
		return nil, fmt.Errorf("%w: expected %s, found %s",
			store.ErrStatusConflict, *update.ExpectStatus, stored.Status)
	}
	if update.IsEmpty() {
		return stored.Clone(), nil
	}
	if update.Status != nil && *update.Status != stored.Status {
		if err := domain.CheckTransition(stored.Status, *update.Status); err != nil {
			return nil, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
		}
	}

	next := stored.Clone()
	update.Apply(next, m.now())
	if err := next.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	m.tasks[id] = next
	m.updates = append(m.updates, update)
	return next.Clone(), nil
}

// ListByStatus implements store.TaskStore
func (m *MockTaskStore) ListByStatus(
	ctx context.Context,
	status domain.TaskStatus,
	olderThan time.Duration,
	limit int,
) ([]*domain.Task, error) {
	if m.ListByStatusFn != nil {
		return m.ListByStatusFn(ctx, status, olderThan, limit)
	}

	cutoff := m.now().Add(-olderThan)

	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.Task
	for _, task := range m.tasks {
		if task.Status == status && !task.UpdatedAt.After(cutoff) {
			out = append(out, task.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListPage implements store.TaskStore
func (m *MockTaskStore) ListPage(
	ctx context.Context,
	status domain.TaskStatus,
	after *store.TaskCursor,
	limit int,
) ([]*domain.Task, error) {
	if m.ListPageFn != nil {
		return m.ListPageFn(ctx, status, after, limit)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.Task
	for _, task := range m.tasks {
		if task.Status == status && after.After(task) {
			out = append(out, task.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
