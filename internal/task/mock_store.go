package task

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nssuwan186-dev/fullstack-platform/internal/store"
)

// ErrMockTaskNotFound is returned by MockTaskStore.GetTask for unknown IDs.
var ErrMockTaskNotFound = fmt.Errorf("mock task store: %w", store.ErrJobNotFound)

// MockTaskStore is an in-memory TaskStore for tests. The Fn fields override
// the default behaviour when set.
type MockTaskStore struct {
	mutex   sync.RWMutex
	records map[uuid.UUID]*TaskRecord
	history map[uuid.UUID][]TaskStatus

	SaveFn           func(ctx context.Context, task Task) error
	UpdateStatusFn   func(ctx context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error
	FailUnfinishedFn func(ctx context.Context, errorMsg string) (int64, error)
}

// NewMockTaskStore creates an empty MockTaskStore
func NewMockTaskStore() *MockTaskStore {
	return &MockTaskStore{
		records: make(map[uuid.UUID]*TaskRecord),
		history: make(map[uuid.UUID][]TaskStatus),
	}
}

// SaveTask records task with its current status
func (s *MockTaskStore) SaveTask(ctx context.Context, task Task) error {
	if s.SaveFn != nil {
		return s.SaveFn(ctx, task)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := time.Now().UTC()
	s.records[task.ID()] = &TaskRecord{
		ID:        task.ID(),
		Type:      task.Type(),
		Payload:   task.Payload(),
		Status:    task.Status(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.history[task.ID()] = append(s.history[task.ID()], task.Status())
	return nil
}

// UpdateTaskStatus changes the stored status of a task
func (s *MockTaskStore) UpdateTaskStatus(
	ctx context.Context,
	taskID uuid.UUID,
	status TaskStatus,
	errorMsg string,
) error {
	if s.UpdateStatusFn != nil {
		return s.UpdateStatusFn(ctx, taskID, status, errorMsg)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	rec, ok := s.records[taskID]
	if !ok {
		return ErrMockTaskNotFound
	}
	rec.Status = status
	rec.ErrorMessage = errorMsg
	rec.UpdatedAt = time.Now().UTC()
	s.history[taskID] = append(s.history[taskID], status)
	return nil
}

// GetTask returns a copy of the stored record
func (s *MockTaskStore) GetTask(ctx context.Context, taskID uuid.UUID) (*TaskRecord, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	rec, ok := s.records[taskID]
	if !ok {
		return nil, ErrMockTaskNotFound
	}
	cp := *rec
	return &cp, nil
}

// FailUnfinishedTasks marks pending and processing records as failed
func (s *MockTaskStore) FailUnfinishedTasks(ctx context.Context, errorMsg string) (int64, error) {
	if s.FailUnfinishedFn != nil {
		return s.FailUnfinishedFn(ctx, errorMsg)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	var n int64
	for id, rec := range s.records {
		if rec.Status == TaskStatusPending || rec.Status == TaskStatusProcessing {
			rec.Status = TaskStatusFailed
			rec.ErrorMessage = errorMsg
			s.history[id] = append(s.history[id], TaskStatusFailed)
			n++
		}
	}
	return n, nil
}

// StatusHistory returns every status the task has been stored with, in order
func (s *MockTaskStore) StatusHistory(taskID uuid.UUID) []TaskStatus {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return append([]TaskStatus(nil), s.history[taskID]...)
}

