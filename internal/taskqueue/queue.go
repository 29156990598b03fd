// FeedStream - Activity Feed Aggregation Service
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package taskqueue implements the bounded FIFO job queue and the fixed
// worker pool that drains it (§4.5). The queue is the only writer to
// the store and cache adapters: it serializes updates per worker but
// not across workers (§5).
package taskqueue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/sh4yy/feedstream/internal/logging"
	"github.com/sh4yy/feedstream/internal/metrics"
)

// ErrClosed is returned by Enqueue once the queue has stopped accepting
// work.
var ErrClosed = errors.New("taskqueue: queue is closed")

// Job is one unit of work a worker executes. Workers pass their own
// context, canceled on shutdown; jobs still buffered when shutdown
// begins get a copy of it without the cancellation.
type Job func(ctx context.Context) error

// Queue is a bounded multi-producer/multi-consumer FIFO channel of
// jobs. A capacity of 0 makes Enqueue block until a worker is free to
// receive; any positive capacity allows that many jobs to queue up
// before Enqueue blocks.
type Queue struct {
	jobs   chan Job
	closed atomic.Bool
	once   sync.Once
}

// New creates a queue with the given channel capacity.
func New(capacity int) *Queue {
	return &Queue{jobs: make(chan Job, capacity)}
}

// Enqueue submits job for execution by the next free worker. It blocks
// if the queue is at capacity. Returns ErrClosed if Close has already
// been called. Callers are expected to stop enqueueing before shutdown
// completes; Enqueue does not itself serialize against a concurrent
// Close beyond this flag check.
func (q *Queue) Enqueue(job Job) error {
	if q.closed.Load() {
		return ErrClosed
	}
	q.jobs <- job
	depth := q.Depth()
	metrics.QueueDepth.Set(float64(depth))
	logging.Debug().Int("depth", depth).Msg("task queue depth after enqueue")
	return nil
}

// Close stops the queue from accepting new work and closes the
// underlying channel so workers drain remaining jobs and exit.
func (q *Queue) Close() {
	q.once.Do(func() {
		q.closed.Store(true)
		close(q.jobs)
	})
}

// Depth returns the number of jobs currently buffered, for metrics.
func (q *Queue) Depth() int {
	return len(q.jobs)
}
