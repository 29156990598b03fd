// FeedStream - Activity Feed Aggregation Service
// SPDX-License-Identifier: AGPL-3.0-or-later

package taskqueue

import (
	"context"
	"sync"
	"time"

	"github.com/sh4yy/feedstream/internal/logging"
	"github.com/sh4yy/feedstream/internal/metrics"
)

// Pool is a fixed-size set of workers draining a Queue. It implements
// suture.Service (Serve(ctx) error) so it can be supervised alongside
// the HTTP server. A panic inside a job is recovered and logged by
// runJob and the worker goes on with the next job, so a panicking job
// does not take the API down.
//
// §4.5: each worker repeatedly dequeues (blocking) and invokes the job.
// A job failure is logged and the worker continues; the job is not
// retried. On shutdown, in-flight jobs complete and the queue drains.
type Pool struct {
	queue   *Queue
	workers int
}

// NewPool creates a pool of workers draining queue. workers defaults to
// 1 if <= 0.
func NewPool(queue *Queue, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{queue: queue, workers: workers}
}

// Serve runs the worker goroutines until ctx is canceled, then waits
// for them to run the jobs still buffered and exit. A worker whose queue
// is closed and empty exits early, but Serve itself returns only once
// ctx is canceled.
func (p *Pool) Serve(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go func() {
			defer wg.Done()
			p.runWorker(ctx)
		}()
	}
	<-ctx.Done()
	wg.Wait()
	return ctx.Err()
}

func (p *Pool) runWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			// Run the jobs still buffered so accepted work is not dropped
			// on shutdown; ctx is already canceled, so they get a copy
			// without the cancellation.
			drainCtx := context.WithoutCancel(ctx)
			for {
				select {
				case job, ok := <-p.queue.jobs:
					if !ok {
						return
					}
					metrics.QueueDepth.Set(float64(p.queue.Depth()))
					p.runJob(drainCtx, job)
				default:
					return
				}
			}
		case job, ok := <-p.queue.jobs:
			if !ok {
				return
			}
			depth := p.queue.Depth()
			metrics.QueueDepth.Set(float64(depth))
			logging.Debug().Int("depth", depth).Msg("task queue depth after dequeue")
			p.runJob(ctx, job)
		}
	}
}

func (p *Pool) runJob(ctx context.Context, job Job) {
	start := time.Now()
	outcome := "success"
	defer func() {
		if r := recover(); r != nil {
			outcome = "panic"
			logging.Ctx(ctx).Error().Interface("panic", r).Msg("task queue worker recovered from panic")
		}
		metrics.RecordJob(outcome, time.Since(start))
	}()
	if err := job(ctx); err != nil {
		outcome = "error"
		logging.Ctx(ctx).Error().Err(err).Msg("task queue job failed")
	}
}

// String implements fmt.Stringer so suture can name this service in
// logs and error reports.
func (p *Pool) String() string { return "taskqueue.Pool" }
