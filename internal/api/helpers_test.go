package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/nssuwan186-dev/fullstack-platform/internal/api/shared"
	"github.com/nssuwan186-dev/fullstack-platform/internal/domain"
	"github.com/nssuwan186-dev/fullstack-platform/internal/policy"
	"github.com/nssuwan186-dev/fullstack-platform/internal/service"
	"github.com/nssuwan186-dev/fullstack-platform/internal/store"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubUserService implements service.UserService with overridable functions.
type stubUserService struct {
	createFn       func(ctx context.Context, email, password string) (*domain.User, error)
	searchFn       func(ctx context.Context, filter store.UserFilter) ([]*domain.User, error)
	authenticateFn func(ctx context.Context, email, password string) (*domain.User, error)
}

func (s *stubUserService) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return nil, store.ErrUserNotFound
}

func (s *stubUserService) CreateUser(ctx context.Context, email, password string) (*domain.User, error) {
	return s.createFn(ctx, email, password)
}

func (s *stubUserService) SearchUsers(ctx context.Context, filter store.UserFilter) ([]*domain.User, error) {
	return s.searchFn(ctx, filter)
}

func (s *stubUserService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	return s.authenticateFn(ctx, email, password)
}

// stubExportService implements service.ExportService.
type stubExportService struct {
	submitFn func(ctx context.Context, userID uuid.UUID, records []policy.IncomingRecord) (*service.ExportReceipt, error)
	getJobFn func(ctx context.Context, userID, jobID uuid.UUID) (*service.JobStatus, error)
}

func (s *stubExportService) Submit(
	ctx context.Context,
	userID uuid.UUID,
	records []policy.IncomingRecord,
) (*service.ExportReceipt, error) {
	return s.submitFn(ctx, userID, records)
}

func (s *stubExportService) GetJob(ctx context.Context, userID, jobID uuid.UUID) (*service.JobStatus, error) {
	return s.getJobFn(ctx, userID, jobID)
}

func newJSONRequest(t *testing.T, method, target, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withUser(req *http.Request, userID uuid.UUID) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), shared.UserIDContextKey, userID))
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}
