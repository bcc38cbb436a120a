package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/videosnap/internal/domain"
	"github.com/phrazzld/videosnap/internal/platform/logger"
	"github.com/phrazzld/videosnap/internal/store"
)

const taskColumns = `id, source_image_ref, style, provider, prompt, provider_job_id, output_ref,
	status, failure_reason, submitted_at, check_failures, created_at, updated_at`

// PostgresTaskStore implements the store.TaskStore interface using PostgreSQL
type PostgresTaskStore struct {
	db store.DBTX
	// now is overridable in tests
	now func() time.Time
}

// NewPostgresTaskStore creates a new PostgresTaskStore
func NewPostgresTaskStore(db store.DBTX) *PostgresTaskStore {
	return &PostgresTaskStore{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithTx returns a store that runs every statement inside tx.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) *PostgresTaskStore {
	return &PostgresTaskStore{db: tx, now: s.now}
}

// Ensure PostgresTaskStore implements store.TaskStore
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// Create inserts a new task.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContext(ctx)

	if err := task.Validate(); err != nil {
		log.Warn("attempted to create invalid task",
			"task_id", task.ID,
			"error", err)
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO i2v_tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.SourceImageRef,
		string(task.Style),
		string(task.Provider),
		nullString(task.Prompt),
		nullString(task.ProviderJobID),
		nullString(task.OutputRef),
		string(task.Status),
		nullString(task.FailureReason),
		nullTime(task.SubmittedAt),
		task.CheckFailures,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create task",
			"task_id", task.ID,
			"error", err)
		return fmt.Errorf("failed to create task: %w", MapError(err))
	}

	log.Debug("task created", "task_id", task.ID, "status", task.Status)
	return nil
}

// GetByID retrieves a task by its unique ID.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM i2v_tasks WHERE id = $1`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		logger.FromContext(ctx).Error("failed to get task",
			"task_id", id,
			"error", err)
		return nil, fmt.Errorf("failed to get task: %w", MapError(err))
	}

	return task, nil
}

// Update applies a partial update under a row lock. When the store is bound
// to a *sql.DB the read-check-write cycle runs in its own transaction;
// when bound to a *sql.Tx it joins the caller's transaction.
func (s *PostgresTaskStore) Update(
	ctx context.Context,
	id uuid.UUID,
	update store.TaskUpdate,
) (*domain.Task, error) {
	mutate := func(ctx context.Context, tx *sql.Tx, current *domain.Task) (*domain.Task, error) {
		return s.WithTx(tx).applyUpdate(ctx, current, update)
	}

	if db, ok := s.db.(*sql.DB); ok {
		return store.WithTaskTx(ctx, db, id, s.lockTask, mutate)
	}

	current, err := s.lockRow(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	return s.applyUpdate(ctx, current, update)
}

func (s *PostgresTaskStore) lockTask(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Task, error) {
	return s.lockRow(ctx, tx, id)
}

// lockRow reads the task with SELECT ... FOR UPDATE.
func (s *PostgresTaskStore) lockRow(ctx context.Context, db store.DBTX, id uuid.UUID) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM i2v_tasks WHERE id = $1 FOR UPDATE`
	task, err := scanTask(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		logger.FromContext(ctx).Error("failed to lock task for update", "task_id", id, "error", err)
		return nil, fmt.Errorf("failed to load task for update: %w", MapError(err))
	}
	return task, nil
}

// applyUpdate checks the guard and transition rules against the locked task
// and writes the result.
func (s *PostgresTaskStore) applyUpdate(
	ctx context.Context,
	task *domain.Task,
	update store.TaskUpdate,
) (*domain.Task, error) {
	log := logger.FromContext(ctx).With("task_id", task.ID)

	if update.ExpectStatus != nil && task.Status != *update.ExpectStatus {
		log.Debug("status changed concurrently",
			"expected", *update.ExpectStatus,
			"actual", task.Status)
		return nil, fmt.Errorf("%w: expected %s, found %s",
			store.ErrStatusConflict, *update.ExpectStatus, task.Status)
	}

	if update.IsEmpty() {
		return task, nil
	}

	if update.Status != nil && *update.Status != task.Status {
		if err := domain.CheckTransition(task.Status, *update.Status); err != nil {
			return nil, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
		}
	}

	update.Apply(task, s.now())
	if err := task.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	exec := `
		UPDATE i2v_tasks
		SET prompt = $2, provider_job_id = $3, output_ref = $4, status = $5,
			failure_reason = $6, submitted_at = $7, check_failures = $8, updated_at = $9
		WHERE id = $1
	`
	_, err := s.db.ExecContext(ctx, exec,
		task.ID,
		nullString(task.Prompt),
		nullString(task.ProviderJobID),
		nullString(task.OutputRef),
		string(task.Status),
		nullString(task.FailureReason),
		nullTime(task.SubmittedAt),
		task.CheckFailures,
		task.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to update task", "error", err)
		return nil, fmt.Errorf("failed to update task: %w", MapError(err))
	}

	log.Debug("task updated", "status", task.Status)
	return task, nil
}

// ListByStatus returns up to limit tasks in status whose last update is older
// than olderThan, oldest first.
func (s *PostgresTaskStore) ListByStatus(
	ctx context.Context,
	status domain.TaskStatus,
	olderThan time.Duration,
	limit int,
) ([]*domain.Task, error) {
	log := logger.FromContext(ctx)

	cutoff := s.now()
	if olderThan > 0 {
		cutoff = cutoff.Add(-olderThan)
	}

	query := `
		SELECT ` + taskColumns + `
		FROM i2v_tasks
		WHERE status = $1 AND updated_at <= $2
		ORDER BY updated_at ASC
		LIMIT $3
	`

	tasks, err := s.queryTasks(ctx, query, string(status), cutoff, limit)
	if err != nil {
		log.Error("failed to list tasks by status",
			"status", status,
			"error", err)
		return nil, err
	}
	return tasks, nil
}

// ListPage returns up to limit tasks in status after the cursor, in
// (created_at, id) order.
func (s *PostgresTaskStore) ListPage(
	ctx context.Context,
	status domain.TaskStatus,
	after *store.TaskCursor,
	limit int,
) ([]*domain.Task, error) {
	log := logger.FromContext(ctx)

	var (
		tasks []*domain.Task
		err   error
	)
	if after == nil {
		query := `
			SELECT ` + taskColumns + `
			FROM i2v_tasks
			WHERE status = $1
			ORDER BY created_at ASC, id ASC
			LIMIT $2
		`
		tasks, err = s.queryTasks(ctx, query, string(status), limit)
	} else {
		query := `
			SELECT ` + taskColumns + `
			FROM i2v_tasks
			WHERE status = $1 AND (created_at, id) > ($2, $3)
			ORDER BY created_at ASC, id ASC
			LIMIT $4
		`
		tasks, err = s.queryTasks(ctx, query, string(status), after.CreatedAt, after.ID, limit)
	}
	if err != nil {
		log.Error("failed to list task page",
			"status", status,
			"error", err)
		return nil, err
	}
	return tasks, nil
}

func (s *PostgresTaskStore) queryTasks(ctx context.Context, query string, args ...any) ([]*domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", MapError(err))
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			logger.FromContext(ctx).Warn("failed to close rows", "error", closeErr)
		}
	}()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}
	return tasks, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task                                    domain.Task
		style, provider, status                 string
		prompt, jobID, outputRef, failureReason sql.NullString
		submittedAt                             sql.NullTime
	)

	err := row.Scan(
		&task.ID,
		&task.SourceImageRef,
		&style,
		&provider,
		&prompt,
		&jobID,
		&outputRef,
		&status,
		&failureReason,
		&submittedAt,
		&task.CheckFailures,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Style = domain.Style(style)
	task.Provider = domain.ProviderID(provider)
	task.Status = domain.TaskStatus(status)
	task.Prompt = stringPtr(prompt)
	task.ProviderJobID = stringPtr(jobID)
	task.OutputRef = stringPtr(outputRef)
	task.FailureReason = stringPtr(failureReason)
	if submittedAt.Valid {
		t := submittedAt.Time
		task.SubmittedAt = &t
	}

	return &task, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
