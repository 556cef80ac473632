package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrQueueClosed = errors.New("queue is closed")

// Status represents the current status of a job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Job is one unit of work. Failed jobs are reported, never retried.
type Job struct {
	ID          string
	Name        string
	Status      Status
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	Err         error

	run func(ctx context.Context) error
}

func NewJob(name string, run func(ctx context.Context) error) *Job {
	return &Job{Name: name, run: run}
}

// DoneFunc observes every job after it finished.
type DoneFunc func(job *Job)

// Queue runs jobs one at a time in the order they were published.
type Queue struct {
	jobChan   chan *Job
	closeChan chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
	closed    bool
	started   bool
	onDone    DoneFunc
	log       zerolog.Logger
}

// NewQueue creates a queue. bufferSize bounds how many jobs can wait before
// Publish blocks.
func NewQueue(bufferSize int, log zerolog.Logger, onDone DoneFunc) *Queue {
	return &Queue{
		jobChan:   make(chan *Job, bufferSize),
		closeChan: make(chan struct{}),
		onDone:    onDone,
		log:       log,
	}
}

// Publish enqueues job behind everything published before it.
func (q *Queue) Publish(ctx context.Context, job *Job) error {
	q.mu.RLock()
	closed := q.closed
	q.mu.RUnlock()
	if closed {
		return ErrQueueClosed
	}

	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	job.Status = StatusPending
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}

	select {
	case q.jobChan <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeChan:
		return ErrQueueClosed
	}
}

// Start launches the single worker. Jobs run with ctx.
func (q *Queue) Start(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	if q.started {
		return fmt.Errorf("queue already started")
	}
	q.started = true

	q.wg.Add(1)
	go q.worker(ctx)
	return nil
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()

	for {
		// Stop promptly even with jobs waiting.
		select {
		case <-ctx.Done():
			return
		case <-q.closeChan:
			return
		default:
		}

		select {
		case <-ctx.Done():
			return
		case <-q.closeChan:
			return
		case job := <-q.jobChan:
			q.process(ctx, job)
		}
	}
}

func (q *Queue) process(ctx context.Context, job *Job) {
	now := time.Now()
	job.Status = StatusRunning
	job.StartedAt = &now

	err := job.run(ctx)

	completedAt := time.Now()
	job.CompletedAt = &completedAt
	if err != nil {
		job.Status = StatusFailed
		job.Err = err
		q.log.Error().Err(err).Str("job_id", job.ID).Str("job", job.Name).Msg("job failed")
	} else {
		job.Status = StatusCompleted
		q.log.Debug().Str("job_id", job.ID).Str("job", job.Name).Dur("took", completedAt.Sub(now)).Msg("job completed")
	}

	if q.onDone != nil {
		q.onDone(job)
	}
}

// Sync blocks until every job published before the call has run.
func (q *Queue) Sync(ctx context.Context) error {
	done := make(chan struct{})
	barrier := NewJob("sync", func(context.Context) error {
		close(done)
		return nil
	})
	if err := q.Publish(ctx, barrier); err != nil {
		return err
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeChan:
		return ErrQueueClosed
	}
}

// Stop refuses new jobs, drops the ones still waiting and waits for the
// running one to return.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
