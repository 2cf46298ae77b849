package task

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockTaskQueue implements TaskQueueReader for testing
type mockTaskQueue struct {
	ch chan Task
}

func newMockTaskQueue() *mockTaskQueue {
	return &mockTaskQueue{
		ch: make(chan Task, 10),
	}
}

func (m *mockTaskQueue) GetChannel() <-chan Task {
	return m.ch
}

func TestNewWorkerPool(t *testing.T) {
	t.Parallel()
	logger := setupTestLogger()
	taskQueue := newMockTaskQueue()

	pool := NewWorkerPool(taskQueue, WorkerPoolConfig{WorkerCount: 5}, logger)
	assert.Equal(t, 5, pool.workerCount)

	tests := []struct {
		name  string
		count int
	}{
		{name: "zero", count: 0},
		{name: "negative", count: -5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pool := NewWorkerPool(taskQueue, WorkerPoolConfig{WorkerCount: tc.count}, logger)
			assert.Equal(t, 1, pool.workerCount)
		})
	}
}

func TestWorkerPool_ProcessesTasks(t *testing.T) {
	t.Parallel()
	taskQueue := newMockTaskQueue()
	pool := NewWorkerPool(taskQueue, WorkerPoolConfig{WorkerCount: 3}, setupTestLogger())

	var processed atomic.Int32
	var wg sync.WaitGroup
	wg.Add(5)
	pool.Start(func(task Task, workerID int) {
		defer wg.Done()
		assert.GreaterOrEqual(t, workerID, 0)
		assert.Less(t, workerID, 3)
		processed.Add(1)
	})
	// A second Start must not spawn more workers.
	pool.Start(func(Task, int) { t.Error("second Start should be ignored") })

	for i := 0; i < 5; i++ {
		taskQueue.ch <- NewMockTask("mock")
	}

	waitOrFail(t, &wg, 2*time.Second)
	pool.Stop()
	assert.Equal(t, int32(5), processed.Load())
}

func TestWorkerPool_StopWaitsForRunningTask(t *testing.T) {
	t.Parallel()
	taskQueue := newMockTaskQueue()
	pool := NewWorkerPool(taskQueue, WorkerPoolConfig{WorkerCount: 1}, setupTestLogger())

	started := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool
	pool.Start(func(task Task, workerID int) {
		close(started)
		<-release
		finished.Store(true)
	})
	taskQueue.ch <- NewMockTask("mock")
	<-started

	stopped := make(chan struct{})
	go func() {
		pool.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a task was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
	assert.True(t, finished.Load())
}

func TestWorkerPool_ExitsWhenChannelClosed(t *testing.T) {
	t.Parallel()
	taskQueue := newMockTaskQueue()
	pool := NewWorkerPool(taskQueue, WorkerPoolConfig{WorkerCount: 2}, setupTestLogger())
	pool.Start(func(Task, int) {})

	close(taskQueue.ch)

	done := make(chan struct{})
	go func() {
		pool.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("workers did not exit after channel close")
	}
	pool.Stop()
	require.ErrorIs(t, pool.ctx.Err(), context.Canceled)
}

func waitOrFail(t *testing.T, wg *sync.WaitGroup, timeout time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		t.Fatal("timed out waiting for tasks")
	}
}
