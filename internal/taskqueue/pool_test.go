// FeedStream - Activity Feed Aggregation Service
// SPDX-License-Identifier: AGPL-3.0-or-later

package taskqueue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/sh4yy/feedstream/internal/metrics"
)

func TestPoolRunsEnqueuedJobs(t *testing.T) {
	q := New(4)
	pool := NewPool(q, 2)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- pool.Serve(ctx) }()

	var ran atomic.Int32
	const jobs = 5
	for i := 0; i < jobs; i++ {
		if err := q.Enqueue(func(context.Context) error {
			ran.Add(1)
			return nil
		}); err != nil {
			t.Fatalf("Enqueue() error = %v", err)
		}
	}

	deadline := time.After(time.Second)
	for ran.Load() != jobs {
		select {
		case <-deadline:
			t.Fatalf("ran = %d, want %d", ran.Load(), jobs)
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	<-done
}

func TestPoolRecoversFromPanickingJob(t *testing.T) {
	q := New(2)
	pool := NewPool(q, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- pool.Serve(ctx) }()

	if err := q.Enqueue(func(context.Context) error { panic("boom") }); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	var ran atomic.Bool
	if err := q.Enqueue(func(context.Context) error {
		ran.Store(true)
		return nil
	}); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	deadline := time.After(time.Second)
	for !ran.Load() {
		select {
		case <-deadline:
			t.Fatal("pool did not recover from a panicking job and continue draining")
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	<-done
}

func TestPoolDefaultsZeroWorkersToOne(t *testing.T) {
	p := NewPool(New(1), 0)
	if p.workers != 1 {
		t.Fatalf("workers = %d, want 1", p.workers)
	}
}

func TestPoolRecordsJobOutcomeMetrics(t *testing.T) {
	q := New(2)
	pool := NewPool(q, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- pool.Serve(ctx) }()
	t.Cleanup(func() { cancel(); <-done })

	successBefore := testutil.ToFloat64(metrics.JobsProcessed.WithLabelValues("success"))
	errorBefore := testutil.ToFloat64(metrics.JobsProcessed.WithLabelValues("error"))

	var ran atomic.Int32
	if err := q.Enqueue(func(context.Context) error { ran.Add(1); return nil }); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if err := q.Enqueue(func(context.Context) error { ran.Add(1); return errors.New("boom") }); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	deadline := time.After(time.Second)
	for ran.Load() != 2 {
		select {
		case <-deadline:
			t.Fatalf("ran = %d, want 2", ran.Load())
		case <-time.After(time.Millisecond):
		}
	}

	deadline = time.After(time.Second)
	for testutil.ToFloat64(metrics.JobsProcessed.WithLabelValues("success")) == successBefore ||
		testutil.ToFloat64(metrics.JobsProcessed.WithLabelValues("error")) == errorBefore {
		select {
		case <-deadline:
			t.Fatal("JobsProcessed counters never advanced")
		case <-time.After(time.Millisecond):
		}
	}
}
