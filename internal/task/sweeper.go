package task

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/videosnap/internal/domain"
	"github.com/phrazzld/videosnap/internal/store"
)

// SweeperConfig configures the periodic sweep.
type SweeperConfig struct {
	// Interval between sweeps
	Interval time.Duration

	// StuckTaskAge is how long an idle or prompt_generated task may go
	// without an update before it is resubmitted.
	StuckTaskAge time.Duration

	// BatchSize bounds how many tasks per status one sweep handles.
	BatchSize int
}

// Sweeper reconciles submitted tasks so they finish without client polls,
// and resubmits runs that stalled, for example because the queue was full
// or the process restarted mid-run.
type Sweeper struct {
	store      store.TaskStore
	reconciler Reconciler
	submitter  Submitter
	config     SweeperConfig
	logger     *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup

	// cursor is where the next submitted page starts. Running jobs cause no
	// writes, so paging by position is what moves the sweep past them.
	cursorMu sync.Mutex
	cursor   *store.TaskCursor
}

// NewSweeper creates a Sweeper.
func NewSweeper(
	taskStore store.TaskStore,
	reconciler Reconciler,
	submitter Submitter,
	config SweeperConfig,
	logger *slog.Logger,
) *Sweeper {
	if config.Interval <= 0 {
		config.Interval = 30 * time.Second
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 50
	}
	return &Sweeper{
		store:      taskStore,
		reconciler: reconciler,
		submitter:  submitter,
		config:     config,
		logger:     logger.With("component", "sweeper"),
	}
}

// Start runs sweeps every Interval until Stop is called.
func (s *Sweeper) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.config.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.SweepOnce(ctx)
			}
		}
	}()
}

// Stop cancels the current sweep and waits for it to return.
func (s *Sweeper) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// SweepOnce performs a single sweep.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	s.reconcileSubmitted(ctx)
	s.resubmitStuck(ctx)
}

func (s *Sweeper) reconcileSubmitted(ctx context.Context) {
	s.cursorMu.Lock()
	defer s.cursorMu.Unlock()

	tasks, err := s.store.ListPage(ctx, domain.TaskStatusSubmitted, s.cursor, s.config.BatchSize)
	if err != nil {
		s.logger.Error("failed to list submitted tasks", "error", err)
		return
	}

	// A short page means the end was reached; the next sweep starts over.
	if len(tasks) < s.config.BatchSize {
		s.cursor = nil
	} else {
		s.cursor = store.CursorAt(tasks[len(tasks)-1])
	}

	finished := 0
	for _, t := range tasks {
		if ctx.Err() != nil {
			return
		}
		updated, err := s.reconciler.Reconcile(ctx, t)
		if err != nil {
			s.logger.Warn("reconcile failed", "task_id", t.ID, "error", err)
			continue
		}
		if updated.Status.IsTerminal() {
			finished++
		}
	}

	if len(tasks) > 0 {
		s.logger.Info("reconciled submitted tasks", "checked", len(tasks), "finished", finished)
	}
}

func (s *Sweeper) resubmitStuck(ctx context.Context) {
	for _, status := range []domain.TaskStatus{domain.TaskStatusIdle, domain.TaskStatusPromptGenerated} {
		tasks, err := s.store.ListByStatus(ctx, status, s.config.StuckTaskAge, s.config.BatchSize)
		if err != nil {
			s.logger.Error("failed to check for stuck tasks", "status", status, "error", err)
			continue
		}
		if len(tasks) == 0 {
			continue
		}

		s.logger.Info("found stuck tasks", "status", status, "count", len(tasks))
		for _, t := range tasks {
			if err := s.submitter.Submit(ctx, t.ID); err != nil {
				s.logger.Error("failed to requeue stuck task", "task_id", t.ID, "error", err)
			}
		}
	}
}
