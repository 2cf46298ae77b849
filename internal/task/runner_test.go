package task

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunner(t *testing.T, store TaskStore, workers, queueSize int) *TaskRunner {
	t.Helper()
	runner := NewTaskRunner(store, TaskRunnerConfig{WorkerCount: workers, QueueSize: queueSize}, setupTestLogger())
	t.Cleanup(func() { _ = runner.Stop() })
	return runner
}

func waitForStatus(t *testing.T, store TaskStore, id uuid.UUID, want TaskStatus) *TaskRecord {
	t.Helper()
	var rec *TaskRecord
	require.Eventually(t, func() bool {
		got, err := store.GetTask(context.Background(), id)
		if err != nil {
			return false
		}
		rec = got
		return got.Status == want
	}, 2*time.Second, 5*time.Millisecond, "task %s never reached %s", id, want)
	return rec
}

func TestTaskRunner_Submit(t *testing.T) {
	t.Parallel()

	t.Run("successful submission", func(t *testing.T) {
		t.Parallel()
		store := NewMockTaskStore()
		runner := newTestRunner(t, store, 1, 2)

		task := NewMockTask("mock")
		require.NoError(t, runner.Submit(context.Background(), task))

		rec, err := store.GetTask(context.Background(), task.ID())
		require.NoError(t, err)
		assert.Equal(t, TaskStatusPending, rec.Status)
	})

	t.Run("queue full", func(t *testing.T) {
		t.Parallel()
		store := NewMockTaskStore()
		runner := newTestRunner(t, store, 1, 1)

		require.NoError(t, runner.Submit(context.Background(), NewMockTask("mock")))

		rejected := NewMockTask("mock")
		err := runner.Submit(context.Background(), rejected)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrQueueFull)

		rec, err := store.GetTask(context.Background(), rejected.ID())
		require.NoError(t, err)
		assert.Equal(t, TaskStatusFailed, rec.Status)
		assert.Contains(t, rec.ErrorMessage, "queue is full")
	})

	t.Run("store error", func(t *testing.T) {
		t.Parallel()
		store := NewMockTaskStore()
		store.SaveFn = func(ctx context.Context, task Task) error {
			return errors.New("mock store error")
		}
		runner := newTestRunner(t, store, 1, 1)

		err := runner.Submit(context.Background(), NewMockTask("mock"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to save task")
	})

	t.Run("after stop", func(t *testing.T) {
		t.Parallel()
		runner := newTestRunner(t, NewMockTaskStore(), 1, 1)
		require.NoError(t, runner.Start(context.Background()))
		require.NoError(t, runner.Stop())

		err := runner.Submit(context.Background(), NewMockTask("mock"))
		assert.ErrorIs(t, err, ErrQueueClosed)
	})
}

func TestTaskRunner_ProcessesTasks(t *testing.T) {
	t.Parallel()
	store := NewMockTaskStore()
	runner := newTestRunner(t, store, 2, 10)
	require.NoError(t, runner.Start(context.Background()))

	var executions atomic.Int32
	ids := make([]uuid.UUID, 0, 3)
	for i := 0; i < 3; i++ {
		task := NewMockTask("mock")
		task.ExecuteFn = func(ctx context.Context) error {
			executions.Add(1)
			return nil
		}
		ids = append(ids, task.ID())
		require.NoError(t, runner.Submit(context.Background(), task))
	}

	for _, id := range ids {
		waitForStatus(t, store, id, TaskStatusCompleted)
		assert.Equal(t,
			[]TaskStatus{TaskStatusPending, TaskStatusProcessing, TaskStatusCompleted},
			store.StatusHistory(id))
	}
	assert.Equal(t, int32(3), executions.Load())
}

func TestTaskRunner_FailedTask(t *testing.T) {
	t.Parallel()
	store := NewMockTaskStore()
	runner := newTestRunner(t, store, 1, 10)

	var mu sync.Mutex
	var handled []error
	runner.SetErrorHandler(func(task Task, err error) {
		mu.Lock()
		defer mu.Unlock()
		handled = append(handled, err)
	})
	require.NoError(t, runner.Start(context.Background()))

	task := NewMockTask("mock")
	task.ExecuteFn = func(ctx context.Context) error {
		return errors.New("render failed")
	}
	require.NoError(t, runner.Submit(context.Background(), task))

	rec := waitForStatus(t, store, task.ID(), TaskStatusFailed)
	assert.Equal(t, "render failed", rec.ErrorMessage)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(handled) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestTaskRunner_PanickingTask(t *testing.T) {
	t.Parallel()
	store := NewMockTaskStore()
	runner := newTestRunner(t, store, 1, 10)
	require.NoError(t, runner.Start(context.Background()))

	panicking := NewMockTask("mock")
	panicking.ExecuteFn = func(ctx context.Context) error { panic("boom") }
	healthy := NewMockTask("mock")

	require.NoError(t, runner.Submit(context.Background(), panicking))
	require.NoError(t, runner.Submit(context.Background(), healthy))

	rec := waitForStatus(t, store, panicking.ID(), TaskStatusFailed)
	assert.Contains(t, rec.ErrorMessage, "task panicked")
	waitForStatus(t, store, healthy.ID(), TaskStatusCompleted)
}

func TestTaskRunner_TaskContextOutlivesRequest(t *testing.T) {
	t.Parallel()
	store := NewMockTaskStore()
	runner := newTestRunner(t, store, 1, 10)
	require.NoError(t, runner.Start(context.Background()))

	reqCtx, cancel := context.WithCancel(context.Background())
	task := NewMockTask("mock")
	task.ExecuteFn = func(ctx context.Context) error { return ctx.Err() }
	require.NoError(t, runner.Submit(reqCtx, task))
	cancel()

	waitForStatus(t, store, task.ID(), TaskStatusCompleted)
}

func TestTaskRunner_StartFailsInterruptedTasks(t *testing.T) {
	t.Parallel()
	store := NewMockTaskStore()

	// Simulate rows left behind by a previous process.
	pending := NewMockTask("mock")
	processing := NewMockTask("mock")
	processing.TaskStatus = TaskStatusProcessing
	done := NewMockTask("mock")
	done.TaskStatus = TaskStatusCompleted
	for _, task := range []*MockTask{pending, processing, done} {
		require.NoError(t, store.SaveTask(context.Background(), task))
	}

	var executed atomic.Bool
	pending.ExecuteFn = func(ctx context.Context) error {
		executed.Store(true)
		return nil
	}

	runner := newTestRunner(t, store, 1, 10)
	require.NoError(t, runner.Start(context.Background()))

	for _, id := range []uuid.UUID{pending.ID(), processing.ID()} {
		rec, err := store.GetTask(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, TaskStatusFailed, rec.Status)
		assert.Equal(t, InterruptedMessage, rec.ErrorMessage)
	}
	rec, err := store.GetTask(context.Background(), done.ID())
	require.NoError(t, err)
	assert.Equal(t, TaskStatusCompleted, rec.Status)

	time.Sleep(20 * time.Millisecond)
	assert.False(t, executed.Load(), "interrupted tasks must not be replayed")
}

func TestTaskRunner_StartStoreError(t *testing.T) {
	t.Parallel()
	store := NewMockTaskStore()
	store.FailUnfinishedFn = func(ctx context.Context, errorMsg string) (int64, error) {
		return 0, errors.New("db down")
	}
	runner := newTestRunner(t, store, 1, 1)

	err := runner.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestTaskRunner_FailsTaskWhenStartCannotBeRecorded(t *testing.T) {
	t.Parallel()

	type update struct {
		status TaskStatus
		msg    string
	}
	var mu sync.Mutex
	var updates []update

	store := NewMockTaskStore()
	store.UpdateStatusFn = func(ctx context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error {
		mu.Lock()
		defer mu.Unlock()
		updates = append(updates, update{status, errorMsg})
		if status == TaskStatusProcessing {
			return errors.New("connection reset")
		}
		return nil
	}
	runner := newTestRunner(t, store, 1, 1)

	handled := make(chan error, 1)
	runner.SetErrorHandler(func(task Task, err error) { handled <- err })
	require.NoError(t, runner.Start(context.Background()))

	var executed atomic.Bool
	task := NewMockTask("mock")
	task.ExecuteFn = func(ctx context.Context) error {
		executed.Store(true)
		return nil
	}
	require.NoError(t, runner.Submit(context.Background(), task))

	select {
	case err := <-handled:
		assert.Contains(t, err.Error(), "failed to start task")
	case <-time.After(2 * time.Second):
		t.Fatal("error handler was not called")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, updates, 2)
	assert.Equal(t, TaskStatusProcessing, updates[0].status)
	assert.Equal(t, TaskStatusFailed, updates[1].status)
	assert.Contains(t, updates[1].msg, "connection reset")
	assert.False(t, executed.Load())
}

func TestNewTaskRunner_DefaultsNonPositiveSizes(t *testing.T) {
	t.Parallel()
	runner := NewTaskRunner(NewMockTaskStore(), TaskRunnerConfig{}, setupTestLogger())

	assert.Equal(t, DefaultTaskRunnerConfig(), runner.config)
	assert.Equal(t, DefaultTaskRunnerConfig().QueueSize, cap(runner.queue.tasks))
}

func TestTaskRunner_StopWithoutStart(t *testing.T) {
	t.Parallel()
	runner := NewTaskRunner(NewMockTaskStore(), DefaultTaskRunnerConfig(), setupTestLogger())

	assert.ErrorIs(t, runner.Stop(), ErrRunnerNotStarted)
	assert.NoError(t, runner.Stop())
}

func TestTaskStatus_IsTerminal(t *testing.T) {
	t.Parallel()
	assert.False(t, TaskStatusPending.IsTerminal())
	assert.False(t, TaskStatusProcessing.IsTerminal())
	assert.True(t, TaskStatusCompleted.IsTerminal())
	assert.True(t, TaskStatusFailed.IsTerminal())
}
