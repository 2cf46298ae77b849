package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/nssuwan186-dev/fullstack-platform/internal/artifact"
	"github.com/nssuwan186-dev/fullstack-platform/internal/config"
	"github.com/nssuwan186-dev/fullstack-platform/internal/platform/postgres"
	"github.com/nssuwan186-dev/fullstack-platform/internal/policy"
	"github.com/nssuwan186-dev/fullstack-platform/internal/redact"
	"github.com/nssuwan186-dev/fullstack-platform/internal/service"
	"github.com/nssuwan186-dev/fullstack-platform/internal/service/auth"
	"github.com/nssuwan186-dev/fullstack-platform/internal/spreadsheet"
	"github.com/nssuwan186-dev/fullstack-platform/internal/task"
)

// application holds the shared dependencies and owns their shutdown order.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	jwtService    auth.JWTService
	userService   service.UserService
	exportService service.ExportService
	artifacts     *artifact.Store
	taskRunner    *task.TaskRunner
}

// newApplication builds every store and service on top of an already
// verified database pool.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	app.artifacts, err = artifact.NewStore(cfg.Storage.OutputDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize artifact store: %w", err)
	}
	logger.Info("artifact store ready", "root", app.artifacts.Root())

	userStore := postgres.NewPostgresUserStore(db, cfg.Auth.BCryptCost, logger)
	taskStore := postgres.NewPostgresTaskStore(db, logger)

	app.taskRunner = task.NewTaskRunner(taskStore, task.TaskRunnerConfig{
		WorkerCount: cfg.Task.WorkerCount,
		QueueSize:   cfg.Task.QueueSize,
	}, logger)
	app.taskRunner.SetErrorHandler(func(t task.Task, err error) {
		logger.Error("background job failed",
			"task_id", t.ID(),
			"task_type", t.Type(),
			"error", redact.Error(err))
	})

	app.exportService, err = service.NewExportService(service.ExportServiceDeps{
		Engine:     policy.NewEngine(policy.DefaultRules()),
		Factory:    task.NewExportTaskFactory(app.artifacts, spreadsheet.NewRenderer()),
		Submitter:  app.taskRunner,
		Jobs:       taskStore,
		NewName:    artifact.NewName,
		MaxRecords: cfg.Intake.MaxRecords,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize export service: %w", err)
	}

	app.userService = service.NewUserService(userStore, db, auth.NewBcryptVerifier(), logger)

	return app, nil
}

// run starts the background runner and serves HTTP until ctx is done.
func (app *application) run(ctx context.Context) error {
	if err := app.taskRunner.Start(ctx); err != nil {
		app.cleanup()
		return fmt.Errorf("failed to start task runner: %w", err)
	}
	return app.startHTTPServer(ctx, app.setupRouter())
}

// cleanup stops the runner, waiting for running jobs, and then closes the
// database pool the job store depends on.
func (app *application) cleanup() {
	if app.taskRunner != nil {
		if err := app.taskRunner.Stop(); err != nil {
			app.logger.Debug("task runner stop", "error", err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database", "error", err)
		}
	}
}
