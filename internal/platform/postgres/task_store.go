package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nssuwan186-dev/fullstack-platform/internal/platform/logger"
	"github.com/nssuwan186-dev/fullstack-platform/internal/store"
	"github.com/nssuwan186-dev/fullstack-platform/internal/task"
)

// PostgresTaskStore implements the task.TaskStore interface on the jobs table
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
	now    func() time.Time
}

// NewPostgresTaskStore creates a new PostgresTaskStore
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

var _ task.TaskStore = (*PostgresTaskStore)(nil)

// SaveTask persists a task to the database
func (s *PostgresTaskStore) SaveTask(ctx context.Context, t task.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO jobs (id, type, payload, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		t.ID(),
		t.Type(),
		string(t.Payload()),
		string(t.Status()),
		s.now(),
	)
	if err != nil {
		log.Error("failed to save task",
			"task_id", t.ID(),
			"task_type", t.Type(),
			"error", err)
		return fmt.Errorf("failed to save task to database: %w", MapError(err))
	}
	return nil
}

// UpdateTaskStatus updates the status of a task in the database.
// Returns store.ErrJobNotFound when no row has taskID.
func (s *PostgresTaskStore) UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, status task.TaskStatus, errorMsg string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE jobs
		SET status = $1, error_message = NULLIF($2, ''), updated_at = $3
		WHERE id = $4
	`
	result, err := s.db.ExecContext(ctx, query, string(status), errorMsg, s.now(), taskID)
	if err != nil {
		log.Error("failed to update task status",
			"task_id", taskID,
			"status", status,
			"error", err)
		return fmt.Errorf("failed to update task status: %w", MapError(err))
	}

	if err := CheckRowsAffected(result, store.ErrJobNotFound); err != nil {
		log.Warn("task status update affected no rows", "task_id", taskID, "error", err)
		return err
	}
	return nil
}

// GetTask retrieves a single task by ID
func (s *PostgresTaskStore) GetTask(ctx context.Context, taskID uuid.UUID) (*task.TaskRecord, error) {
	query := `
		SELECT id, type, payload, status, error_message, created_at, updated_at
		FROM jobs
		WHERE id = $1
	`

	var (
		rec     task.TaskRecord
		status  string
		payload []byte
		errMsg  sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, taskID).Scan(
		&rec.ID,
		&rec.Type,
		&payload,
		&status,
		&errMsg,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrJobNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get task",
			"task_id", taskID,
			"error", err)
		return nil, fmt.Errorf("failed to get task: %w", MapError(err))
	}

	rec.Payload = payload
	rec.Status = task.TaskStatus(status)
	rec.ErrorMessage = errMsg.String
	return &rec, nil
}

// FailUnfinishedTasks marks pending and processing jobs as failed.
func (s *PostgresTaskStore) FailUnfinishedTasks(ctx context.Context, errorMsg string) (int64, error) {
	query := `
		UPDATE jobs
		SET status = $1, error_message = $2, updated_at = $3
		WHERE status IN ($4, $5)
	`
	result, err := s.db.ExecContext(ctx, query,
		string(task.TaskStatusFailed),
		errorMsg,
		s.now(),
		string(task.TaskStatusPending),
		string(task.TaskStatusProcessing),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to fail unfinished tasks: %w", MapError(err))
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

