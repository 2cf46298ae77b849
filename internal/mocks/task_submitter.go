package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/nssuwan186-dev/fullstack-platform/internal/store"
	"github.com/nssuwan186-dev/fullstack-platform/internal/task"
)

// TaskSubmitter records submitted tasks and keeps a TaskRecord for each so it
// can also serve job lookups.
type TaskSubmitter struct {
	mu        sync.Mutex
	Submitted []task.Task
	Records   map[uuid.UUID]*task.TaskRecord

	SubmitFn  func(ctx context.Context, t task.Task) error
	GetTaskFn func(ctx context.Context, id uuid.UUID) (*task.TaskRecord, error)
}

// NewTaskSubmitter returns an empty TaskSubmitter.
func NewTaskSubmitter() *TaskSubmitter {
	return &TaskSubmitter{Records: make(map[uuid.UUID]*task.TaskRecord)}
}

// Submit stores t as pending unless SubmitFn overrides it.
func (m *TaskSubmitter) Submit(ctx context.Context, t task.Task) error {
	if m.SubmitFn != nil {
		if err := m.SubmitFn(ctx, t); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Submitted = append(m.Submitted, t)
	m.Records[t.ID()] = &task.TaskRecord{
		ID:      t.ID(),
		Type:    t.Type(),
		Payload: t.Payload(),
		Status:  t.Status(),
	}
	return nil
}

// GetTask returns the record for id.
func (m *TaskSubmitter) GetTask(ctx context.Context, id uuid.UUID) (*task.TaskRecord, error) {
	if m.GetTaskFn != nil {
		return m.GetTaskFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.Records[id]
	if !ok {
		return nil, store.ErrJobNotFound
	}
	cp := *rec
	return &cp, nil
}

// Tasks returns a snapshot of submitted tasks.
func (m *TaskSubmitter) Tasks() []task.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]task.Task(nil), m.Submitted...)
}
