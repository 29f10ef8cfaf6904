package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/slipstream/marquee/internal/metrics"
)

func TestSecurityHeaders(t *testing.T) {
	e := echo.New()
	handler := SecurityHeaders("/api")(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	tests := []struct {
		path      string
		wantCache string
	}{
		{"/api/movies", "no-store"},
		{"/health", ""},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		if err := handler(e.NewContext(httptest.NewRequest(http.MethodGet, tt.path, nil), rec)); err != nil {
			t.Fatal(err)
		}
		if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
			t.Errorf("%s: X-Content-Type-Options = %q", tt.path, got)
		}
		if got := rec.Header().Get("Cache-Control"); got != tt.wantCache {
			t.Errorf("%s: Cache-Control = %q, want %q", tt.path, got, tt.wantCache)
		}
	}
}

func TestMetrics_RecordsHTTPErrorStatus(t *testing.T) {
	e := echo.New()
	handler := Metrics()(func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "Movie not found")
	})

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/movies/1", nil), httptest.NewRecorder())
	c.SetPath("/api/movies/:id")

	counter := metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, "/api/movies/:id", "404")
	before := testutil.ToFloat64(counter)
	_ = handler(c)
	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Errorf("counter = %v, want %v", got, before+1)
	}
}
