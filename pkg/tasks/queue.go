// Package tasks runs fire-and-forget background work.
package tasks

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Task is a unit of background work.
type Task func(ctx context.Context) error

// Queue runs submitted tasks in the background. Submitting never blocks on the task and callers
// never see its result; failures go to the queue's error handler.
type Queue struct {
	ctx     context.Context
	group   errgroup.Group
	mu      sync.Mutex
	closed  bool
	onError func(name string, err error)
}

// NewQueue creates a queue whose tasks run with ctx. onError, when non-nil, is called from the
// task's goroutine for every failed task.
func NewQueue(ctx context.Context, onError func(name string, err error)) *Queue {
	return &Queue{
		ctx:     ctx,
		onError: onError,
	}
}

// Submit starts task in the background and returns immediately. It reports false if the queue
// has been closed.
func (q *Queue) Submit(name string, task Task) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		log.Warn().Str("task", name).Msg("task submitted after queue was closed; dropping")

		return false
	}

	q.group.Go(func() error {
		err := task(q.ctx)
		if err != nil {
			log.Warn().Err(err).Str("task", name).Msg("background task failed")

			if q.onError != nil {
				q.onError(name, err)
			}
		}

		return err
	})

	return true
}

// Close stops accepting tasks and waits for the outstanding ones to finish. Failures have already
// gone to the error handler.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	_ = q.group.Wait()
}

// Wait blocks until every task submitted so far has finished and returns the first error any task
// of the queue has returned. The queue stays open, but Wait must not run concurrently with Submit;
// use Close to stop submissions first.
func (q *Queue) Wait() error {
	return q.group.Wait()
}
