package service_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agroprice/internal/domain"
	"agroprice/internal/service"
)

func TestTaskPool_RunsSubmittedTasks(t *testing.T) {
	pool := service.NewTaskPool(service.TaskPoolConfig{Concurrency: 2, QueueSize: 8})

	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		require.NoError(t, pool.Submit(string(rune('a'+i)), func(ctx context.Context) {
			ran.Add(1)
		}))
	}

	require.NoError(t, pool.Shutdown(context.Background()))
	assert.Equal(t, int32(5), ran.Load())
}

func TestTaskPool_SubmitWhenFull(t *testing.T) {
	pool := service.NewTaskPool(service.TaskPoolConfig{Concurrency: 1, QueueSize: 1})
	release := make(chan struct{})
	started := make(chan struct{})

	require.NoError(t, pool.Submit("running", func(ctx context.Context) {
		close(started)
		<-release
	}))
	<-started
	require.NoError(t, pool.Submit("queued", func(ctx context.Context) {}))

	err := pool.Submit("overflow", func(ctx context.Context) {})

	assert.ErrorIs(t, err, domain.ErrTaskPoolFull)
	close(release)
	require.NoError(t, pool.Shutdown(context.Background()))
}

func TestTaskPool_SubmitAfterShutdown(t *testing.T) {
	pool := service.NewTaskPool(service.TaskPoolConfig{Concurrency: 1, QueueSize: 1})
	require.NoError(t, pool.Shutdown(context.Background()))

	err := pool.Submit("late", func(ctx context.Context) {})

	assert.ErrorIs(t, err, domain.ErrTaskPoolClosed)
}

func TestTaskPool_Cancel(t *testing.T) {
	pool := service.NewTaskPool(service.TaskPoolConfig{Concurrency: 1, QueueSize: 1})
	started := make(chan struct{})
	result := make(chan error, 1)

	require.NoError(t, pool.Submit("t1", func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		result <- ctx.Err()
	}))
	<-started

	assert.True(t, pool.Cancel("t1"))
	assert.ErrorIs(t, <-result, context.Canceled)
	assert.False(t, pool.Cancel("unknown"))
	require.NoError(t, pool.Shutdown(context.Background()))
}

func TestTaskPool_ShutdownDeadlineCancelsRunningTasks(t *testing.T) {
	pool := service.NewTaskPool(service.TaskPoolConfig{Concurrency: 1, QueueSize: 1})
	started := make(chan struct{})
	var cancelled atomic.Bool

	require.NoError(t, pool.Submit("slow", func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		cancelled.Store(true)
	}))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := pool.Shutdown(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, cancelled.Load())
}

func TestTaskPool_TaskTimeout(t *testing.T) {
	pool := service.NewTaskPool(service.TaskPoolConfig{Concurrency: 1, QueueSize: 1, TaskTimeout: 20 * time.Millisecond})
	result := make(chan error, 1)

	require.NoError(t, pool.Submit("t1", func(ctx context.Context) {
		<-ctx.Done()
		result <- ctx.Err()
	}))

	assert.ErrorIs(t, <-result, context.DeadlineExceeded)
	require.NoError(t, pool.Shutdown(context.Background()))
}

func TestTaskPool_RecoversFromPanic(t *testing.T) {
	pool := service.NewTaskPool(service.TaskPoolConfig{Concurrency: 1, QueueSize: 2})
	var ran atomic.Bool

	require.NoError(t, pool.Submit("boom", func(ctx context.Context) { panic("boom") }))
	require.NoError(t, pool.Submit("after", func(ctx context.Context) { ran.Store(true) }))

	require.NoError(t, pool.Shutdown(context.Background()))
	assert.True(t, ran.Load())
}
