package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nssuwan186-dev/fullstack-platform/internal/policy"
	"github.com/nssuwan186-dev/fullstack-platform/internal/store"
	"github.com/nssuwan186-dev/fullstack-platform/internal/task"
)

// DefaultMaxRecords caps a single submission when no limit is configured.
const DefaultMaxRecords = 10000

// ExportTaskFactory builds the background task for a screened batch.
type ExportTaskFactory interface {
	CreateTask(userID uuid.UUID, fileName string, records []policy.CleanRecord) (*task.ExportTask, error)
}

// TaskSubmitter schedules tasks for background execution.
type TaskSubmitter interface {
	Submit(ctx context.Context, t task.Task) error
}

// JobReader loads persisted job rows.
type JobReader interface {
	GetTask(ctx context.Context, taskID uuid.UUID) (*task.TaskRecord, error)
}

// NameFunc returns a fresh, unique artifact name for identity.
type NameFunc func(identity string) (string, error)

// ExportReceipt acknowledges an accepted submission.
type ExportReceipt struct {
	JobID    uuid.UUID
	FileName string
	Report   policy.Report
}

// JobStatus is the caller-visible state of an export job.
type JobStatus struct {
	ID           uuid.UUID
	Status       task.TaskStatus
	FileName     string
	RecordCount  int
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ExportService accepts record batches for spreadsheet export and reports on
// the resulting jobs.
type ExportService interface {
	// Submit screens records and schedules the workbook for userID. It returns
	// as soon as the job is queued.
	Submit(ctx context.Context, userID uuid.UUID, records []policy.IncomingRecord) (*ExportReceipt, error)

	// GetJob returns the status of a job owned by userID. Jobs owned by other
	// users are reported as store.ErrJobNotFound.
	GetJob(ctx context.Context, userID, jobID uuid.UUID) (*JobStatus, error)
}

// ExportServiceImpl implements ExportService.
type ExportServiceImpl struct {
	engine     *policy.Engine
	factory    ExportTaskFactory
	submitter  TaskSubmitter
	jobs       JobReader
	newName    NameFunc
	maxRecords int
	logger     *slog.Logger
}

var _ ExportService = (*ExportServiceImpl)(nil)

// ExportServiceDeps groups the collaborators of ExportServiceImpl.
type ExportServiceDeps struct {
	Engine     *policy.Engine
	Factory    ExportTaskFactory
	Submitter  TaskSubmitter
	Jobs       JobReader
	NewName    NameFunc
	MaxRecords int
}

// NewExportService creates an ExportServiceImpl. A nil engine uses the
// default rules; a non-positive MaxRecords uses DefaultMaxRecords.
func NewExportService(deps ExportServiceDeps, logger *slog.Logger) (*ExportServiceImpl, error) {
	if deps.Factory == nil || deps.Submitter == nil || deps.Jobs == nil || deps.NewName == nil {
		return nil, errors.New("export service: factory, submitter, jobs and name func are required")
	}
	if deps.Engine == nil {
		deps.Engine = policy.NewEngine(policy.DefaultRules())
	}
	if deps.MaxRecords <= 0 {
		deps.MaxRecords = DefaultMaxRecords
	}

	return &ExportServiceImpl{
		engine:     deps.Engine,
		factory:    deps.Factory,
		submitter:  deps.Submitter,
		jobs:       deps.Jobs,
		newName:    deps.NewName,
		maxRecords: deps.MaxRecords,
		logger:     logger.With("component", "export_service"),
	}, nil
}

// Submit implements ExportService.
func (s *ExportServiceImpl) Submit(
	ctx context.Context,
	userID uuid.UUID,
	records []policy.IncomingRecord,
) (*ExportReceipt, error) {
	if len(records) > s.maxRecords {
		return nil, fmt.Errorf("%w: %d records, limit %d", ErrBatchTooLarge, len(records), s.maxRecords)
	}

	result := s.engine.Screen(records)

	name, err := s.newName(userID.String())
	if err != nil {
		return nil, NewServiceError("export", "name artifact", err)
	}

	t, err := s.factory.CreateTask(userID, name, result.Records)
	if err != nil {
		return nil, NewServiceError("export", "create task", err)
	}

	if err := s.submitter.Submit(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to schedule export: %w", err)
	}

	s.logger.Info("export scheduled",
		"job_id", t.ID(),
		"user_id", userID,
		"file_name", name,
		"received", result.Report.Received,
		"accepted", result.Report.Accepted,
		"neutralized", result.Report.Neutralized)

	return &ExportReceipt{
		JobID:    t.ID(),
		FileName: name,
		Report:   result.Report,
	}, nil
}

// GetJob implements ExportService.
func (s *ExportServiceImpl) GetJob(ctx context.Context, userID, jobID uuid.UUID) (*JobStatus, error) {
	rec, err := s.jobs.GetTask(ctx, jobID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, store.ErrJobNotFound
		}
		return nil, NewServiceError("export", "get job", err)
	}

	if rec.Type != task.TaskTypeExcelExport {
		return nil, store.ErrJobNotFound
	}

	payload, err := task.DecodeExportPayload(rec.Payload)
	if err != nil {
		return nil, NewServiceError("export", "get job", err)
	}
	if payload.UserID != userID {
		s.logger.Debug("job requested by non-owner",
			"job_id", jobID,
			"user_id", userID)
		return nil, store.ErrJobNotFound
	}

	return &JobStatus{
		ID:           rec.ID,
		Status:       rec.Status,
		FileName:     payload.FileName,
		RecordCount:  payload.RecordCount,
		ErrorMessage: rec.ErrorMessage,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}, nil
}
