// FeedStream - Activity Feed Aggregation Service
// SPDX-License-Identifier: AGPL-3.0-or-later

package taskqueue

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/sh4yy/feedstream/internal/metrics"
)

func TestQueueEnqueueAndDepth(t *testing.T) {
	q := New(2)
	if got := q.Depth(); got != 0 {
		t.Fatalf("Depth() = %d, want 0", got)
	}
	if err := q.Enqueue(func(context.Context) error { return nil }); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if got := q.Depth(); got != 1 {
		t.Fatalf("Depth() = %d, want 1", got)
	}
}

func TestQueueEnqueueAfterClose(t *testing.T) {
	q := New(1)
	q.Close()
	err := q.Enqueue(func(context.Context) error { return nil })
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("Enqueue() after Close() error = %v, want ErrClosed", err)
	}
}

func TestQueueCloseIsIdempotent(t *testing.T) {
	q := New(1)
	q.Close()
	q.Close() // must not panic on double-close
}

func TestQueueEnqueueUpdatesDepthGauge(t *testing.T) {
	q := New(3)
	if err := q.Enqueue(func(context.Context) error { return nil }); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if err := q.Enqueue(func(context.Context) error { return nil }); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	// QueueDepth is a process-wide gauge shared with other tests in this
	// package, so assert the value it settles on after these two
	// enqueues matches this queue's own depth rather than an absolute
	// number.
	if got := testutil.ToFloat64(metrics.QueueDepth); got != float64(q.Depth()) {
		t.Fatalf("QueueDepth = %v, want %v (matching Depth())", got, q.Depth())
	}
}
