package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/phrazzld/videosnap/internal/config"
	"github.com/phrazzld/videosnap/internal/domain"
	"github.com/phrazzld/videosnap/internal/events"
	"github.com/phrazzld/videosnap/internal/generation"
	"github.com/phrazzld/videosnap/internal/platform/assets"
	"github.com/phrazzld/videosnap/internal/platform/download"
	"github.com/phrazzld/videosnap/internal/platform/gemini"
	"github.com/phrazzld/videosnap/internal/platform/minimax"
	"github.com/phrazzld/videosnap/internal/platform/openai"
	"github.com/phrazzld/videosnap/internal/platform/postgres"
	"github.com/phrazzld/videosnap/internal/platform/redis"
	"github.com/phrazzld/videosnap/internal/service"
	"github.com/phrazzld/videosnap/internal/service/auth"
	"github.com/phrazzld/videosnap/internal/store"
	"github.com/phrazzld/videosnap/internal/task"
	"github.com/phrazzld/videosnap/internal/video"
)

// downloadTimeout bounds a single output video download attempt.
const downloadTimeout = 5 * time.Minute

// application holds the shared dependencies so they can be shut down in order.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB
	redis  *goredis.Client

	taskStore   store.TaskStore
	assetStore  store.AssetStore
	taskService service.TaskService
	verifier    auth.KeyVerifier

	taskRunner *task.TaskRunner
	sweeper    *task.Sweeper
}

// newApplication wires every component from cfg. Nothing is started yet.
// On error every connection it opened is closed again; db stays with the
// caller.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (_ *application, err error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}
	defer func() {
		if err != nil && app.redis != nil {
			if closeErr := app.redis.Close(); closeErr != nil {
				logger.Warn("failed to close redis client", "error", closeErr)
			}
		}
	}()

	var locker task.ReconcileLocker
	app.taskStore = postgres.NewPostgresTaskStore(db)
	if cfg.Redis.Enabled {
		client, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		app.redis = client
		app.taskStore = redis.NewCachedTaskStore(app.taskStore, client, cfg.Redis.SnapshotTTL())
		locker = redis.NewLocker(client, cfg.Redis.LockTTL())
		logger.Info("redis snapshot cache and reconcile lock enabled", "addr", cfg.Redis.Addr)
	}

	assetStore, err := assets.NewOSFileStore(cfg.Assets.Root)
	if err != nil {
		return nil, err
	}
	app.assetStore = assetStore

	generator, err := newPromptGenerator(ctx, cfg.LLM, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize prompt generator: %w", err)
	}

	registry, err := newProviderRegistry(cfg.Video, logger)
	if err != nil {
		return nil, err
	}

	orchestrator, err := task.NewOrchestrator(task.Dependencies{
		Tasks:      app.taskStore,
		Assets:     app.assetStore,
		Generator:  generator,
		Providers:  registry,
		Downloader: download.New(logger, downloadTimeout, cfg.Video.Minimax.MaxRetries),
		Locker:     locker,
	}, task.OrchestratorConfig{
		MaxImageDimension: cfg.LLM.MaxImageDimension,
		PollTimeout:       cfg.Task.PollTimeout(),
		MaxCheckFailures:  cfg.Task.MaxCheckFailures,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}

	app.taskRunner = task.NewTaskRunner(app.taskStore, orchestrator, task.TaskRunnerConfig{
		WorkerCount:       cfg.Task.WorkerCount,
		QueueSize:         cfg.Task.QueueSize,
		RecoveryBatchSize: cfg.Task.SweepBatchSize,
	}, logger)

	app.sweeper = task.NewSweeper(app.taskStore, orchestrator, app.taskRunner, task.SweeperConfig{
		Interval:     cfg.Task.SweepInterval(),
		StuckTaskAge: cfg.Task.StuckTaskAge(),
		BatchSize:    cfg.Task.SweepBatchSize,
	}, logger)

	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(task.NewTaskCreatedEventHandler(app.taskRunner, logger))

	app.taskService, err = service.NewTaskService(
		app.taskStore,
		app.assetStore,
		emitter,
		orchestrator,
		service.TaskServiceConfig{
			DefaultProvider:   domain.ProviderID(cfg.Video.DefaultProvider),
			StatusConcurrency: cfg.Task.StatusConcurrency,
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	if cfg.Server.APIKeyHash != "" {
		verifier, err := auth.NewBcryptVerifier(cfg.Server.APIKeyHash)
		if err != nil {
			return nil, fmt.Errorf("invalid server.api_key_hash: %w", err)
		}
		app.verifier = verifier
	} else {
		logger.Warn("no API key hash configured, task endpoints are unauthenticated")
	}

	logger.Info("application initialized successfully")
	return app, nil
}

// newPromptGenerator selects the configured LLM backend.
func newPromptGenerator(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (generation.PromptGenerator, error) {
	switch cfg.Backend {
	case "gemini":
		return gemini.NewGeminiGenerator(ctx, logger, cfg)
	case "openai":
		return openai.NewGenerator(logger, cfg)
	default:
		return nil, fmt.Errorf("%w: unknown llm backend %q", generation.ErrInvalidConfig, cfg.Backend)
	}
}

// newProviderRegistry registers the video providers and checks that the
// default provider is among them.
func newProviderRegistry(cfg config.VideoConfig, logger *slog.Logger) (*video.Registry, error) {
	mm, err := minimax.NewProvider(cfg.Minimax, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create minimax provider: %w", err)
	}

	registry, err := video.NewRegistry(mm)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider registry: %w", err)
	}
	if !registry.Has(domain.ProviderID(cfg.DefaultProvider)) {
		return nil, fmt.Errorf("%w: default provider %q (registered: %v)",
			video.ErrUnknownProvider, cfg.DefaultProvider, registry.IDs())
	}
	return registry, nil
}

// Run starts background processing and serves HTTP until ctx is done.
func (app *application) Run(ctx context.Context) error {
	if err := app.taskRunner.Start(ctx); err != nil {
		app.cleanup(context.Background())
		return fmt.Errorf("failed to start task runner: %w", err)
	}
	app.sweeper.Start()

	router := newRouter(app.taskService, app.verifier, app.logger)
	return app.startHTTPServer(ctx, router)
}

// cleanup stops background work, then closes connections.
func (app *application) cleanup(ctx context.Context) {
	if app.sweeper != nil {
		app.sweeper.Stop()
	}
	if app.taskRunner != nil {
		if err := app.taskRunner.Stop(ctx); err != nil {
			app.logger.Warn("task runner did not drain before deadline", "error", err)
		}
	}

	var errs []error
	if app.redis != nil {
		errs = append(errs, app.redis.Close())
	}
	if app.db != nil {
		errs = append(errs, app.db.Close())
	}
	if err := errors.Join(errs...); err != nil {
		app.logger.Error("error closing connections", "error", err)
	}

	app.logger.Info("application shutdown completed")
}
