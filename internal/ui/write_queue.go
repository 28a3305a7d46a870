package ui

import (
	"context"
	"sync"
)

type writeJob struct {
	fn    func(context.Context) error
	reply chan error
}

// writeQueue runs store writes one at a time in the order they were pushed.
// push never blocks, so Update can enqueue in key-press order.
type writeQueue struct {
	mu      sync.Mutex
	pending []writeJob
	wake    chan struct{}
}

func newWriteQueue() *writeQueue {
	return &writeQueue{wake: make(chan struct{}, 1)}
}

// push queues fn and returns the channel its result is delivered on.
func (q *writeQueue) push(fn func(context.Context) error) <-chan error {
	job := writeJob{fn: fn, reply: make(chan error, 1)}
	q.mu.Lock()
	q.pending = append(q.pending, job)
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
	return job.reply
}

// run executes queued jobs until ctx is done. Jobs still queued then fail
// with ctx.Err().
func (q *writeQueue) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			q.mu.Lock()
			jobs := q.pending
			q.pending = nil
			q.mu.Unlock()
			for _, job := range jobs {
				job.reply <- ctx.Err()
			}
			return
		case <-q.wake:
		}
		for ctx.Err() == nil {
			q.mu.Lock()
			if len(q.pending) == 0 {
				q.mu.Unlock()
				break
			}
			job := q.pending[0]
			q.pending = q.pending[1:]
			q.mu.Unlock()
			job.reply <- job.fn(ctx)
		}
	}
}

// wait blocks for a job's result or for ctx to end.
func wait(ctx context.Context, reply <-chan error) error {
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
