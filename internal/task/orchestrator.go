package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/videosnap/internal/domain"
	"github.com/phrazzld/videosnap/internal/generation"
	"github.com/phrazzld/videosnap/internal/platform/logger"
	"github.com/phrazzld/videosnap/internal/store"
	"github.com/phrazzld/videosnap/internal/video"
)

// Failure reasons recorded on failed tasks. They are stable, client-visible
// codes; the underlying error is only logged.
const (
	FailureSourceImageUnavailable = "source_image_unavailable"
	FailurePromptGeneration       = "prompt_generation_failed"
	FailureUnknownProvider        = "unknown_provider"
	FailureSubmissionRejected     = "submission_rejected"
	FailureSubmission             = "submission_failed"
	FailureProviderReported       = "provider_reported_failure"
	FailureMissingLocator         = "missing_output_locator"
	FailureDownload               = "download_failed"
	FailureOutputStore            = "output_store_failed"
	FailureStatusCheck            = "status_check_failed"
	FailurePollTimeout            = "poll_timeout"
	FailureInternal               = "internal_error"
)

// Common orchestrator errors
var (
	ErrNilTaskStore  = errors.New("task store cannot be nil")
	ErrNilAssetStore = errors.New("asset store cannot be nil")
	ErrNilGenerator  = errors.New("prompt generator cannot be nil")
	ErrNilProviders  = errors.New("provider resolver cannot be nil")
	ErrNilDownloader = errors.New("downloader cannot be nil")
	ErrNilLogger     = errors.New("logger cannot be nil")

	// ErrTaskFailed is returned by Run when the task ended in the failed state.
	ErrTaskFailed = errors.New("task failed")
)

// OrchestratorConfig tunes image preparation and the polling budget.
type OrchestratorConfig struct {
	// MaxImageDimension bounds the longest side of the image sent onwards.
	MaxImageDimension int

	// PollTimeout fails a submitted task polled for longer than this.
	// Zero disables the limit.
	PollTimeout time.Duration

	// MaxCheckFailures fails a submitted task after this many status check
	// errors. Zero disables the limit.
	MaxCheckFailures int
}

// Dependencies groups the collaborators of an Orchestrator.
type Dependencies struct {
	Tasks      store.TaskStore
	Assets     store.AssetStore
	Generator  generation.PromptGenerator
	Providers  ProviderResolver
	Downloader video.Downloader
	// Locker is optional; without it concurrent reconciles of the same task
	// may both contact the provider, and compare-and-set picks one writer.
	Locker ReconcileLocker
}

// Orchestrator owns every lifecycle transition of a task. All writes are
// partial updates guarded by the status the decision was based on, so a
// concurrent Run and Reconcile of the same task never overwrite each other.
type Orchestrator struct {
	deps   Dependencies
	config OrchestratorConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(deps Dependencies, config OrchestratorConfig, logger *slog.Logger) (*Orchestrator, error) {
	switch {
	case deps.Tasks == nil:
		return nil, ErrNilTaskStore
	case deps.Assets == nil:
		return nil, ErrNilAssetStore
	case deps.Generator == nil:
		return nil, ErrNilGenerator
	case deps.Providers == nil:
		return nil, ErrNilProviders
	case deps.Downloader == nil:
		return nil, ErrNilDownloader
	case logger == nil:
		return nil, ErrNilLogger
	}

	return &Orchestrator{
		deps:   deps,
		config: config,
		logger: logger.With("component", "orchestrator"),
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

var (
	_ Executor   = (*Orchestrator)(nil)
	_ Reconciler = (*Orchestrator)(nil)
)

// Run drives a task from idle (or prompt_generated, when resuming) to
// submitted. Step failures move the task to failed and are reported as
// ErrTaskFailed. Tasks already past submission are left alone. When ctx is
// cancelled mid-run the task is not failed, so recovery can resume it.
func (o *Orchestrator) Run(ctx context.Context, taskID uuid.UUID) (err error) {
	log := o.logger.With("task_id", taskID)
	ctx = logger.WithLogger(ctx, log)

	task, err := o.deps.Tasks.GetByID(ctx, taskID)
	if err != nil {
		return fmt.Errorf("failed to load task: %w", err)
	}

	if task.Status != domain.TaskStatusIdle && task.Status != domain.TaskStatusPromptGenerated {
		log.Debug("task not runnable, skipping", "status", task.Status)
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("task run panicked", "panic", r)
			o.fail(ctx, task, FailureInternal, fmt.Errorf("panic: %v", r))
			err = fmt.Errorf("%w: %s", ErrTaskFailed, FailureInternal)
		}
	}()

	log = log.With("provider", task.Provider)
	ctx = logger.WithLogger(ctx, log)
	log.Info("running task", "status", task.Status, "style", task.Style)

	raw, err := o.deps.Assets.Get(ctx, task.SourceImageRef)
	if err != nil {
		return o.stepFailed(ctx, task, FailureSourceImageUnavailable, err)
	}
	image := o.prepareImage(ctx, raw)

	if task.Status == domain.TaskStatusIdle {
		prompt, err := o.deps.Generator.GeneratePrompt(ctx, image, task.Style)
		if err != nil {
			return o.stepFailed(ctx, task, FailurePromptGeneration, err)
		}

		next := domain.TaskStatusPromptGenerated
		task, err = o.transition(ctx, task, store.TaskUpdate{Status: &next, Prompt: &prompt})
		if err != nil {
			return o.lostRace(ctx, taskID, err)
		}
		log.Info("prompt generated", "prompt_length", len(prompt))
	}

	provider, err := o.deps.Providers.Resolve(task.Provider)
	if err != nil {
		return o.stepFailed(ctx, task, FailureUnknownProvider, err)
	}

	jobID, err := provider.Submit(ctx, image, *task.Prompt)
	switch {
	case errors.Is(err, video.ErrSubmissionRejected):
		return o.stepFailed(ctx, task, FailureSubmissionRejected, err)
	case err != nil:
		return o.stepFailed(ctx, task, FailureSubmission, err)
	case jobID == "":
		return o.stepFailed(ctx, task, FailureSubmissionRejected, errors.New("provider returned an empty job id"))
	}

	next := domain.TaskStatusSubmitted
	submittedAt := o.now()
	noFailures := 0
	task, err = o.transition(ctx, task, store.TaskUpdate{
		Status:        &next,
		ProviderJobID: &jobID,
		SubmittedAt:   &submittedAt,
		CheckFailures: &noFailures,
	})
	if err != nil {
		return o.lostRace(ctx, taskID, err)
	}

	log.Info("task submitted", "job_id", jobID)
	return nil
}

// Reconcile consults the task's provider when the task is submitted and
// folds the answer into durable state. Any other status is returned as is
// without contacting the provider. A job that is still running causes no
// write. Reconcile is safe to call repeatedly and concurrently.
func (o *Orchestrator) Reconcile(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task.Status != domain.TaskStatusSubmitted {
		return task, nil
	}

	log := o.logger.With("task_id", task.ID, "provider", task.Provider)
	ctx = logger.WithLogger(ctx, log)

	if o.deps.Locker != nil {
		release, acquired, err := o.deps.Locker.TryLock(ctx, task.ID)
		switch {
		case err != nil:
			log.Warn("reconcile lock unavailable, continuing without it", "error", err)
		case !acquired:
			log.Debug("task is being reconciled elsewhere")
			return task, nil
		default:
			defer release()
			// another holder may have just finished this task
			fresh, err := o.deps.Tasks.GetByID(ctx, task.ID)
			if err != nil {
				return task, fmt.Errorf("failed to reload task: %w", err)
			}
			if fresh.Status != domain.TaskStatusSubmitted {
				return fresh, nil
			}
			task = fresh
		}
	}

	provider, err := o.deps.Providers.Resolve(task.Provider)
	if err != nil {
		log.Error("cannot reconcile task with unregistered provider", "error", err)
		return task, err
	}

	result, err := provider.CheckStatus(ctx, *task.ProviderJobID)
	if err != nil {
		return o.checkFailed(ctx, task, err)
	}

	switch result.Status {
	case video.StatusFailed:
		log.Info("provider reported job failure", "detail", result.Detail)
		return o.fail(ctx, task, FailureProviderReported, fmt.Errorf("provider status %q", result.Detail)), nil

	case video.StatusCompleted:
		if result.Locator == "" {
			log.Error("provider reported completion without a locator", "detail", result.Detail)
			return o.fail(ctx, task, FailureMissingLocator, errors.New("completed without locator")), nil
		}
		return o.complete(ctx, task, result.Locator)

	default:
		if o.pollExpired(task) {
			log.Warn("poll timeout exceeded", "submitted_at", task.SubmittedAt)
			return o.fail(ctx, task, FailurePollTimeout, errors.New("poll timeout exceeded")), nil
		}
		log.Debug("job still running", "detail", result.Detail)
		return task, nil
	}
}

func (o *Orchestrator) complete(ctx context.Context, task *domain.Task, locator string) (*domain.Task, error) {
	log := logger.FromContext(ctx)

	data, err := o.deps.Downloader.Download(ctx, locator)
	if err != nil {
		if ctx.Err() != nil {
			return task, ctx.Err()
		}
		return o.fail(ctx, task, FailureDownload, err), nil
	}

	name, err := o.deps.Assets.Put(ctx, data)
	if err != nil {
		if ctx.Err() != nil {
			return task, ctx.Err()
		}
		return o.fail(ctx, task, FailureOutputStore, err), nil
	}

	next := domain.TaskStatusCompleted
	updated, err := o.transition(ctx, task, store.TaskUpdate{Status: &next, OutputRef: &name})
	if err != nil {
		// the blob stays orphaned; retention is handled outside this service
		log.Warn("completed video could not be recorded", "output_ref", name, "error", err)
		return o.current(ctx, task, err)
	}

	log.Info("task completed", "output_ref", name, "bytes", len(data))
	return updated, nil
}

// checkFailed records a status check error and fails the task once the
// check budget or poll timeout is exhausted.
func (o *Orchestrator) checkFailed(ctx context.Context, task *domain.Task, cause error) (*domain.Task, error) {
	log := logger.FromContext(ctx)

	if ctx.Err() != nil {
		return task, ctx.Err()
	}

	// The store increments the counter on the locked row, so concurrent
	// reconciles of the same task each count.
	updated, err := o.transition(ctx, task, store.TaskUpdate{IncrementCheckFailures: true})
	if err != nil {
		return o.current(ctx, task, err)
	}
	log.Warn("provider status check failed", "check_failures", updated.CheckFailures, "error", cause)

	if (o.config.MaxCheckFailures > 0 && updated.CheckFailures >= o.config.MaxCheckFailures) || o.pollExpired(updated) {
		return o.fail(ctx, updated, FailureStatusCheck, cause), nil
	}
	return updated, nil
}

func (o *Orchestrator) pollExpired(task *domain.Task) bool {
	if o.config.PollTimeout <= 0 || task.SubmittedAt == nil {
		return false
	}
	return o.now().Sub(*task.SubmittedAt) > o.config.PollTimeout
}

// prepareImage normalizes the source image, falling back to the raw bytes.
func (o *Orchestrator) prepareImage(ctx context.Context, raw []byte) []byte {
	prepared, err := generation.PrepareImage(raw, o.config.MaxImageDimension)
	if err != nil {
		logger.FromContext(ctx).Warn("using source image as is", "error", err)
		return raw
	}
	return prepared.Data
}

// transition applies update guarded by the task's current status.
func (o *Orchestrator) transition(ctx context.Context, task *domain.Task, update store.TaskUpdate) (*domain.Task, error) {
	expected := task.Status
	update.ExpectStatus = &expected
	return o.deps.Tasks.Update(ctx, task.ID, update)
}

// stepFailed fails the task for a Run step and returns ErrTaskFailed. A
// cancelled context leaves the task untouched.
func (o *Orchestrator) stepFailed(ctx context.Context, task *domain.Task, reason string, cause error) error {
	if ctx.Err() != nil {
		logger.FromContext(ctx).Info("task run interrupted", "status", task.Status, "error", cause)
		return ctx.Err()
	}
	o.fail(ctx, task, reason, cause)
	return fmt.Errorf("%w: %s: %w", ErrTaskFailed, reason, cause)
}

// fail moves task to failed with reason and returns the resulting durable
// task. If the task moved on concurrently the durable state is returned.
func (o *Orchestrator) fail(ctx context.Context, task *domain.Task, reason string, cause error) *domain.Task {
	log := logger.FromContext(ctx)
	log.Error("task failed", "reason", reason, "status", task.Status, "error", cause)

	failed := domain.TaskStatusFailed
	updated, err := o.transition(ctx, task, store.TaskUpdate{Status: &failed, FailureReason: &reason})
	if err != nil {
		log.Warn("could not record task failure", "error", err)
		current, _ := o.current(ctx, task, err)
		return current
	}
	return updated
}

// current returns the durable task after a write was refused, or the last
// known copy if it cannot be read.
func (o *Orchestrator) current(ctx context.Context, task *domain.Task, cause error) (*domain.Task, error) {
	fresh, err := o.deps.Tasks.GetByID(ctx, task.ID)
	if err != nil {
		return task, fmt.Errorf("failed to reload task after %v: %w", cause, err)
	}
	if !errors.Is(cause, store.ErrStatusConflict) {
		return fresh, cause
	}
	return fresh, nil
}

// lostRace handles a refused Run transition. A status conflict means another
// writer advanced the task, which is not an error for Run.
func (o *Orchestrator) lostRace(ctx context.Context, taskID uuid.UUID, err error) error {
	if errors.Is(err, store.ErrStatusConflict) {
		logger.FromContext(ctx).Info("task changed concurrently, stopping run", "error", err)
		return nil
	}
	return fmt.Errorf("failed to update task %s: %w", taskID, err)
}
