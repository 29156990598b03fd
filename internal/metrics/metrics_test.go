// FeedStream - Activity Feed Aggregation Service
// SPDX-License-Identifier: AGPL-3.0-or-later

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordJobIncrementsCounterAndHistogram(t *testing.T) {
	before := testutil.ToFloat64(JobsProcessed.WithLabelValues("success"))
	RecordJob("success", 5*time.Millisecond)
	after := testutil.ToFloat64(JobsProcessed.WithLabelValues("success"))
	if after != before+1 {
		t.Fatalf("JobsProcessed{success} = %v, want %v", after, before+1)
	}
}

func TestRecordConsumeDistinguishesHitFromMiss(t *testing.T) {
	hitsBefore := testutil.ToFloat64(CacheHits.WithLabelValues("feed"))
	missesBefore := testutil.ToFloat64(CacheMisses.WithLabelValues("feed"))

	RecordConsume("feed", false)
	RecordConsume("feed", true)

	if got := testutil.ToFloat64(CacheHits.WithLabelValues("feed")); got != hitsBefore+1 {
		t.Fatalf("CacheHits{feed} = %v, want %v", got, hitsBefore+1)
	}
	if got := testutil.ToFloat64(CacheMisses.WithLabelValues("feed")); got != missesBefore+1 {
		t.Fatalf("CacheMisses{feed} = %v, want %v", got, missesBefore+1)
	}
}

func TestRecordPruneIgnoresZeroEvictions(t *testing.T) {
	before := testutil.ToFloat64(CachePrunes.WithLabelValues("notification"))
	RecordPrune("notification", 0)
	after := testutil.ToFloat64(CachePrunes.WithLabelValues("notification"))
	if after != before {
		t.Fatalf("CachePrunes{notification} = %v, want unchanged at %v", after, before)
	}

	RecordPrune("notification", 3)
	after = testutil.ToFloat64(CachePrunes.WithLabelValues("notification"))
	if after != before+3 {
		t.Fatalf("CachePrunes{notification} = %v, want %v", after, before+3)
	}
}

func TestRecordHTTPRequestIncrementsTotal(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/v1/consume", "200"))
	RecordHTTPRequest("GET", "/v1/consume", "200", 2*time.Millisecond)
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/v1/consume", "200"))
	if after != before+1 {
		t.Fatalf("HTTPRequestsTotal = %v, want %v", after, before+1)
	}
}
