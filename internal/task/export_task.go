package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/nssuwan186-dev/fullstack-platform/internal/platform/logger"
	"github.com/nssuwan186-dev/fullstack-platform/internal/policy"
)

// ArtifactWriter materializes a named artifact atomically.
type ArtifactWriter interface {
	Write(ctx context.Context, name string, fill func(w io.Writer) error) error
}

// WorkbookRenderer encodes records as a spreadsheet.
type WorkbookRenderer interface {
	Render(w io.Writer, records []policy.CleanRecord) error
}

// ExportPayload is the persisted description of an export task. The records
// themselves are held in memory only.
type ExportPayload struct {
	UserID      uuid.UUID `json:"user_id"`
	FileName    string    `json:"file_name"`
	RecordCount int       `json:"record_count"`
}

// DecodeExportPayload parses a payload previously produced by an ExportTask.
func DecodeExportPayload(data []byte) (ExportPayload, error) {
	var p ExportPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return ExportPayload{}, fmt.Errorf("invalid export payload: %w", err)
	}
	return p, nil
}

// ExportTask renders a screened batch into a workbook stored under FileName.
type ExportTask struct {
	id       uuid.UUID
	payload  ExportPayload
	records  []policy.CleanRecord
	status   TaskStatus
	writer   ArtifactWriter
	renderer WorkbookRenderer
}

// ID returns the task's unique identifier
func (t *ExportTask) ID() uuid.UUID { return t.id }

// Type returns TaskTypeExcelExport
func (t *ExportTask) Type() string { return TaskTypeExcelExport }

// Payload returns the JSON encoded ExportPayload
func (t *ExportTask) Payload() []byte {
	data, err := json.Marshal(t.payload)
	if err != nil {
		return []byte("{}")
	}
	return data
}

// Status returns the status the task was created with
func (t *ExportTask) Status() TaskStatus { return t.status }

// FileName returns the artifact name this task writes
func (t *ExportTask) FileName() string { return t.payload.FileName }

// Execute renders the records and writes the artifact
func (t *ExportTask) Execute(ctx context.Context) error {
	log := logger.FromContext(ctx)
	log.Info("rendering workbook",
		"file_name", t.payload.FileName,
		"record_count", len(t.records))

	err := t.writer.Write(ctx, t.payload.FileName, func(w io.Writer) error {
		return t.renderer.Render(w, t.records)
	})
	if err != nil {
		return fmt.Errorf("export %s: %w", t.payload.FileName, err)
	}
	return nil
}

// ExportTaskFactory builds ExportTasks sharing a writer and renderer.
type ExportTaskFactory struct {
	writer   ArtifactWriter
	renderer WorkbookRenderer
}

// NewExportTaskFactory creates a factory.
func NewExportTaskFactory(writer ArtifactWriter, renderer WorkbookRenderer) *ExportTaskFactory {
	return &ExportTaskFactory{writer: writer, renderer: renderer}
}

// CreateTask returns a pending export task for userID.
func (f *ExportTaskFactory) CreateTask(userID uuid.UUID, fileName string, records []policy.CleanRecord) (*ExportTask, error) {
	if fileName == "" {
		return nil, errors.New("export task requires a file name")
	}
	if f.writer == nil || f.renderer == nil {
		return nil, errors.New("export task factory is not configured")
	}

	return &ExportTask{
		id: uuid.New(),
		payload: ExportPayload{
			UserID:      userID,
			FileName:    fileName,
			RecordCount: len(records),
		},
		records:  records,
		status:   TaskStatusPending,
		writer:   f.writer,
		renderer: f.renderer,
	}, nil
}
