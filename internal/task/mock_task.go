package task

import (
	"context"

	"github.com/google/uuid"
)

// MockTask is a configurable Task for tests
type MockTask struct {
	TaskID      uuid.UUID
	TaskType    string
	TaskPayload []byte
	TaskStatus  TaskStatus
	ExecuteFn   func(ctx context.Context) error
}

// NewMockTask creates a pending MockTask whose Execute succeeds
func NewMockTask(taskType string) *MockTask {
	return &MockTask{
		TaskID:      uuid.New(),
		TaskType:    taskType,
		TaskPayload: []byte(`{}`),
		TaskStatus:  TaskStatusPending,
		ExecuteFn:   func(ctx context.Context) error { return nil },
	}
}

// ID returns the task's unique identifier
func (t *MockTask) ID() uuid.UUID { return t.TaskID }

// Type returns the task type identifier
func (t *MockTask) Type() string { return t.TaskType }

// Payload returns the task data
func (t *MockTask) Payload() []byte { return t.TaskPayload }

// Status returns the task status
func (t *MockTask) Status() TaskStatus { return t.TaskStatus }

// Execute runs ExecuteFn
func (t *MockTask) Execute(ctx context.Context) error { return t.ExecuteFn(ctx) }
