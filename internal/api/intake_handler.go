package api

import (
	"log/slog"
	"net/http"

	"github.com/nssuwan186-dev/fullstack-platform/internal/api/middleware"
	"github.com/nssuwan186-dev/fullstack-platform/internal/api/shared"
	"github.com/nssuwan186-dev/fullstack-platform/internal/domain"
	"github.com/nssuwan186-dev/fullstack-platform/internal/platform/logger"
	"github.com/nssuwan186-dev/fullstack-platform/internal/policy"
	"github.com/nssuwan186-dev/fullstack-platform/internal/service"
	"github.com/nssuwan186-dev/fullstack-platform/internal/task"
)

// AcceptedMessage is returned with every scheduled export.
const AcceptedMessage = "Task accepted and processing in background"

// IntakeHandler accepts record batches and reports on export jobs.
type IntakeHandler struct {
	exports service.ExportService
	logger  *slog.Logger
}

// NewIntakeHandler creates a new IntakeHandler.
func NewIntakeHandler(exports service.ExportService, logger *slog.Logger) *IntakeHandler {
	return &IntakeHandler{
		exports: exports,
		logger:  logger.With("component", "intake_handler"),
	}
}

// ProcessExcel handles POST /process/excel. The body must be a JSON array of
// objects. The response is sent as soon as the export is queued.
func (h *IntakeHandler) ProcessExcel(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized)
		return
	}

	var records []policy.IncomingRecord
	if err := shared.DecodeJSON(w, r, &records); err != nil || records == nil {
		if shared.IsBodyTooLarge(err) {
			HandleAPIError(w, r, err)
			return
		}
		shared.RespondWithValidationError(w, r, shared.FieldError{
			Field:   "body",
			Message: "expected a JSON array of objects",
		})
		return
	}

	receipt, err := h.exports.Submit(r.Context(), userID, records)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Info("export accepted",
		"job_id", receipt.JobID,
		"file_name", receipt.FileName)

	shared.RespondWithJSON(w, r, http.StatusAccepted, ExportAcceptedResponse{
		Message:      AcceptedMessage,
		ExpectedFile: receipt.FileName,
		DownloadURL:  FilesPathPrefix + receipt.FileName,
		JobID:        receipt.JobID,
		StatusURL:    JobsPathPrefix + receipt.JobID.String(),
		Report:       receipt.Report,
	})
}

// GetJob handles GET /process/jobs/{id}.
func (h *IntakeHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized)
		return
	}

	jobID, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	job, err := h.exports.GetJob(r.Context(), userID, jobID)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	resp := JobStatusResponse{
		JobID:       job.ID,
		Status:      string(job.Status),
		FileName:    job.FileName,
		RecordCount: job.RecordCount,
		Error:       job.ErrorMessage,
		CreatedAt:   job.CreatedAt,
		UpdatedAt:   job.UpdatedAt,
	}
	if job.Status == task.TaskStatusCompleted {
		resp.DownloadURL = FilesPathPrefix + job.FileName
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}
