package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/nssuwan186-dev/fullstack-platform/internal/platform/logger"
	"github.com/nssuwan186-dev/fullstack-platform/internal/redact"
)

// ErrRunnerNotStarted is returned by Stop when Start was never called.
var ErrRunnerNotStarted = errors.New("task runner not started")

// TaskRunnerConfig holds configuration for the task runner
type TaskRunnerConfig struct {
	// WorkerCount determines how many concurrent workers process tasks
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory task queue
	QueueSize int
}

// DefaultTaskRunnerConfig returns a TaskRunnerConfig with reasonable defaults
func DefaultTaskRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount: 4,
		QueueSize:   100,
	}
}

// TaskRunner manages background task processing. Submitted tasks are
// persisted as pending, queued in memory, and executed once by the pool.
type TaskRunner struct {
	store      TaskStore
	queue      *TaskQueue
	pool       *WorkerPool
	config     TaskRunnerConfig
	logger     *slog.Logger
	errHandler func(task Task, err error)

	mu      sync.Mutex
	started bool
	stopped bool
}

// NewTaskRunner creates a new TaskRunner. Non-positive sizes in config fall
// back to DefaultTaskRunnerConfig.
func NewTaskRunner(store TaskStore, config TaskRunnerConfig, log *slog.Logger) *TaskRunner {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "task_runner")

	def := DefaultTaskRunnerConfig()
	if config.WorkerCount <= 0 {
		config.WorkerCount = def.WorkerCount
	}
	if config.QueueSize <= 0 {
		config.QueueSize = def.QueueSize
	}

	queue := NewTaskQueue(config.QueueSize, log)
	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: config.WorkerCount}, log)

	return &TaskRunner{
		store:  store,
		queue:  queue,
		pool:   pool,
		config: config,
		logger: log,
		errHandler: func(task Task, err error) {
			log.Error("task execution failed",
				"task_id", task.ID(),
				"task_type", task.Type(),
				"error", redact.Error(err))
		},
	}
}

// SetErrorHandler allows setting a custom error handler function
func (r *TaskRunner) SetErrorHandler(handler func(task Task, err error)) {
	if handler != nil {
		r.errHandler = handler
	}
}

// Submit persists task as pending and queues it. It never blocks on a busy
// pool: when the queue is full the stored row is marked failed and an error
// wrapping ErrQueueFull is returned, so the task is never executed.
func (r *TaskRunner) Submit(ctx context.Context, task Task) error {
	if err := r.store.SaveTask(ctx, task); err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}

	if err := r.queue.Enqueue(task); err != nil {
		log := logger.FromContextOrDefault(ctx, r.logger)
		log.Warn("task rejected by queue",
			"task_id", task.ID(),
			"task_type", task.Type(),
			"error", err)
		// The request context may already be done; record the rejection anyway.
		if updateErr := r.store.UpdateTaskStatus(context.WithoutCancel(ctx), task.ID(), TaskStatusFailed, err.Error()); updateErr != nil {
			log.Error("failed to mark rejected task as failed",
				"task_id", task.ID(),
				"error", updateErr)
		}
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	return nil
}

// Start marks tasks left unfinished by a previous process as failed and then
// starts the workers. Interrupted tasks are never replayed.
func (r *TaskRunner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return nil
	}

	n, err := r.store.FailUnfinishedTasks(ctx, InterruptedMessage)
	if err != nil {
		return fmt.Errorf("failed to fail interrupted tasks: %w", err)
	}
	if n > 0 {
		r.logger.Warn("marked interrupted tasks as failed", "count", n)
	}

	r.pool.Start(r.processTask)
	r.started = true
	return nil
}

// Stop closes the queue to new submissions and waits for in-flight tasks.
// Tasks still queued stay pending and are failed on the next Start.
func (r *TaskRunner) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return nil
	}
	r.stopped = true

	r.queue.Close()
	if !r.started {
		return ErrRunnerNotStarted
	}
	r.pool.Stop()
	if pending := r.queue.Len(); pending > 0 {
		r.logger.Warn("task runner stopped with queued tasks", "count", pending)
	}
	return nil
}

// processTask handles execution of a single task
func (r *TaskRunner) processTask(task Task, workerID int) {
	log := r.logger.With(
		"task_id", task.ID(),
		"task_type", task.Type(),
		"worker_id", workerID,
	)
	// Running tasks are not cancelled by shutdown or by the submitting request.
	ctx := logger.WithLogger(context.Background(), log)

	// A task whose start cannot be recorded is failed, not run.
	if err := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusProcessing, ""); err != nil {
		log.Error("failed to update task status to processing", "error", err)
		startErr := fmt.Errorf("failed to start task: %w", err)
		if updateErr := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusFailed, redact.Error(startErr)); updateErr != nil {
			log.Error("failed to update task status to failed", "error", updateErr)
		}
		r.errHandler(task, startErr)
		return
	}

	log.Info("processing task")

	if err := r.execute(ctx, task); err != nil {
		msg := redact.Error(err)
		if updateErr := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusFailed, msg); updateErr != nil {
			log.Error("failed to update task status to failed", "error", updateErr)
		}
		r.errHandler(task, err)
		return
	}

	log.Info("task completed successfully")
	if updateErr := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusCompleted, ""); updateErr != nil {
		log.Error("failed to update task status to completed", "error", updateErr)
	}
}

// execute runs task, converting a panic into an error.
func (r *TaskRunner) execute(ctx context.Context, task Task) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.FromContext(ctx).Error("task panicked",
				"panic", fmt.Sprint(rec),
				"stack", string(debug.Stack()))
			err = fmt.Errorf("task panicked: %v", rec)
		}
	}()
	return task.Execute(ctx)
}
