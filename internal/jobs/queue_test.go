package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startQueue(t *testing.T, onDone DoneFunc) *Queue {
	t.Helper()
	q := NewQueue(16, zerolog.Nop(), onDone)
	require.NoError(t, q.Start(context.Background()))
	t.Cleanup(func() { q.Stop(context.Background()) })
	return q
}

func TestQueue_RunsInPublishOrder(t *testing.T) {
	q := startQueue(t, nil)
	ctx := context.Background()

	var mu sync.Mutex
	var order []int
	for i := 0; i < 10; i++ {
		i := i
		require.NoError(t, q.Publish(ctx, NewJob("append", func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, i)
			return nil
		})))
	}
	require.NoError(t, q.Sync(ctx))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, order)
}

func TestQueue_ReportsFailureWithoutRetry(t *testing.T) {
	results := make(chan *Job, 4)
	q := startQueue(t, func(job *Job) { results <- job })
	ctx := context.Background()

	calls := 0
	boom := errors.New("boom")
	job := NewJob("insert", func(context.Context) error {
		calls++
		return boom
	})
	require.NoError(t, q.Publish(ctx, job))
	require.NoError(t, q.Sync(ctx))

	got := <-results
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, StatusFailed, got.Status)
	assert.ErrorIs(t, got.Err, boom)
	assert.NotNil(t, got.CompletedAt)
	assert.Equal(t, 1, calls)

	barrier := <-results
	assert.Equal(t, "sync", barrier.Name)
	assert.Equal(t, StatusCompleted, barrier.Status)
}

func TestQueue_PublishAfterStop(t *testing.T) {
	q := NewQueue(1, zerolog.Nop(), nil)
	require.NoError(t, q.Start(context.Background()))
	require.NoError(t, q.Stop(context.Background()))

	err := q.Publish(context.Background(), NewJob("late", func(context.Context) error { return nil }))
	assert.ErrorIs(t, err, ErrQueueClosed)
	assert.ErrorIs(t, q.Sync(context.Background()), ErrQueueClosed)
	assert.NoError(t, q.Stop(context.Background()))
}

func TestQueue_StopWaitsForRunningJob(t *testing.T) {
	q := NewQueue(1, zerolog.Nop(), nil)
	require.NoError(t, q.Start(context.Background()))

	started := make(chan struct{})
	release := make(chan struct{})
	finished := false
	require.NoError(t, q.Publish(context.Background(), NewJob("slow", func(context.Context) error {
		close(started)
		<-release
		finished = true
		return nil
	})))
	<-started

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(release)
	}()
	require.NoError(t, q.Stop(context.Background()))
	assert.True(t, finished)
}

func TestQueue_StartTwice(t *testing.T) {
	q := startQueue(t, nil)
	assert.Error(t, q.Start(context.Background()))
}
