package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/videosnap/internal/domain"
	"github.com/phrazzld/videosnap/internal/platform/logger"
)

// TaskLoader reads a task inside tx and holds its row lock until the
// transaction ends. It returns ErrTaskNotFound for a missing row.
type TaskLoader func(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Task, error)

// TaskMutator decides the next state of a locked task and writes it through
// tx. Returning an error, such as ErrStatusConflict, discards every write.
type TaskMutator func(ctx context.Context, tx *sql.Tx, current *domain.Task) (*domain.Task, error)

// WithTaskTx runs a read-check-write cycle on one task inside a single
// transaction: load locks the row, mutate checks the guard and writes, and
// the transaction commits only when both succeed. A panic in either rolls
// back and propagates.
func WithTaskTx(
	ctx context.Context,
	db *sql.DB,
	id uuid.UUID,
	load TaskLoader,
	mutate TaskMutator,
) (task *domain.Task, err error) {
	log := logger.FromContext(ctx).With("task_id", id)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin task transaction", "error", err)
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		rbErr := tx.Rollback()
		if p := recover(); p != nil {
			log.Error("rolled back task transaction after panic", "panic", p, "rollback_error", rbErr)
			panic(p)
		}
		if rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Error("failed to roll back task transaction", "error", rbErr, "cause", err)
			err = fmt.Errorf("failed to roll back transaction: %w", errors.Join(rbErr, err))
		}
	}()

	current, err := load(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	task, err = mutate(ctx, tx, current)
	if err != nil {
		log.Debug("task transaction discarded", "status", current.Status, "error", err)
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		committed = true // a failed commit cannot be rolled back
		log.Error("failed to commit task transaction", "error", err)
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return task, nil
}
