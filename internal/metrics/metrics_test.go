package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestHandlerExposesRegisteredMetrics(t *testing.T) {
	CacheLookupsTotal.WithLabelValues("hit").Inc()

	mfs, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	found := false
	for _, mf := range mfs {
		if mf.GetName() == "stocklens_cache_lookups_total" {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("stocklens_cache_lookups_total metric not found")
	}

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "stocklens_cache_lookups_total") {
		t.Fatalf("metrics endpoint did not expose cache lookups")
	}
}

func TestOutcome(t *testing.T) {
	if Outcome(nil) != "ok" {
		t.Error("nil error should be ok")
	}
	if Outcome(errors.New("boom")) != "error" {
		t.Error("non-nil error should be error")
	}
}
