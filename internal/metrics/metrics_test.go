package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/movies", "200"))
	RecordAPIRequest("GET", "/api/movies", 200, 15*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/movies", "200"))

	if after-before != 1 {
		t.Errorf("requests counter delta = %v, want 1", after-before)
	}
}

func TestRecordUpstreamRequest(t *testing.T) {
	before := testutil.ToFloat64(UpstreamRequestsTotal.WithLabelValues("movie_popular", "not_found"))
	RecordUpstreamRequest("movie_popular", "not_found", time.Millisecond)
	after := testutil.ToFloat64(UpstreamRequestsTotal.WithLabelValues("movie_popular", "not_found"))

	if after-before != 1 {
		t.Errorf("upstream counter delta = %v, want 1", after-before)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("in-flight = %v, want %v", got, before+1)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("in-flight = %v, want %v", got, before)
	}
}

func TestRecordCacheEvent(t *testing.T) {
	before := testutil.ToFloat64(ClientCacheEvents.WithLabelValues("hit"))
	RecordCacheEvent("hit")
	RecordCacheEvent("hit")
	if got := testutil.ToFloat64(ClientCacheEvents.WithLabelValues("hit")); got != before+2 {
		t.Errorf("hit counter = %v, want %v", got, before+2)
	}
}
